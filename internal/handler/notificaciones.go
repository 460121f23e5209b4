package handler

import (
	"net/http"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/service"

	"github.com/gin-gonic/gin"
)

type NotificacionesHandler struct{ svc service.NotificacionService }

func NewNotificacionesHandler(svc service.NotificacionService) *NotificacionesHandler {
	return &NotificacionesHandler{svc: svc}
}

// Listar godoc
// @Summary Notificaciones no archivadas
// @Tags notificaciones
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.NotificacionResponse
// @Router /api/notificaciones [get]
func (h *NotificacionesHandler) Listar(c *gin.Context) {
	resp, err := h.svc.Listar(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// StockBajo godoc
// @Summary Productos bajo su umbral
// @Tags notificaciones
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.StockBajoResponse
// @Router /api/notificaciones/stock-bajo [get]
func (h *NotificacionesHandler) StockBajo(c *gin.Context) {
	resp, err := h.svc.StockBajo(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GenerarAlertas godoc
// @Summary Reevaluar todos los productos
// @Tags notificaciones
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.GenerarAlertasResponse
// @Router /api/notificaciones/generar-alertas [post]
func (h *NotificacionesHandler) GenerarAlertas(c *gin.Context) {
	resp, err := h.svc.GenerarAlertas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MarcarLeida godoc
// @Summary Marcar notificación como leída
// @Tags notificaciones
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID"
// @Success 200 {object} dto.MensajeResponse
// @Router /api/notificaciones/{id}/marcar-leida [put]
func (h *NotificacionesHandler) MarcarLeida(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.MarcarLeida(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MensajeResponse{Mensaje: "Notificación marcada como leída"})
}

// Archivar godoc
// @Summary Archivar notificación
// @Tags notificaciones
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID"
// @Success 200 {object} dto.MensajeResponse
// @Router /api/notificaciones/{id}/archivar [put]
func (h *NotificacionesHandler) Archivar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Archivar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MensajeResponse{Mensaje: "Notificación archivada"})
}

// Eliminar godoc
// @Summary Eliminar notificación
// @Tags notificaciones
// @Security BearerAuth
// @Produce json
// @Param id path int true "ID"
// @Success 200 {object} dto.MensajeResponse
// @Router /api/notificaciones/{id} [delete]
func (h *NotificacionesHandler) Eliminar(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Eliminar(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MensajeResponse{Mensaje: "Notificación eliminada"})
}

// Crear godoc
// @Summary Crear notificación manual
// @Tags notificaciones
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.CrearNotificacionRequest true "Notificación"
// @Success 201 {object} dto.MensajeResponse
// @Router /api/notificaciones/crear [post]
func (h *NotificacionesHandler) Crear(c *gin.Context) {
	var req dto.CrearNotificacionRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.Crear(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, dto.MensajeResponse{Mensaje: "Notificación creada"})
}

// Configuracion godoc
// @Summary Umbrales de stock por producto
// @Tags notificaciones
// @Security BearerAuth
// @Produce json
// @Success 200 {array} dto.ConfiguracionStockResponse
// @Router /api/notificaciones/configuracion [get]
func (h *NotificacionesHandler) Configuracion(c *gin.Context) {
	resp, err := h.svc.Configuracion(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ActualizarConfiguracion godoc
// @Summary Fijar umbral de stock de un producto
// @Tags notificaciones
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.ConfiguracionStockRequest true "Umbral"
// @Success 200 {object} dto.MensajeResponse
// @Router /api/notificaciones/configuracion [post]
func (h *NotificacionesHandler) ActualizarConfiguracion(c *gin.Context) {
	var req dto.ConfiguracionStockRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.ActualizarConfiguracion(c.Request.Context(), req); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.MensajeResponse{Mensaje: "Configuración actualizada"})
}
