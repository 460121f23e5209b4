package handler

import (
	"net/http"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/service"

	"github.com/gin-gonic/gin"
)

type ReportesHandler struct{ svc service.ReporteService }

func NewReportesHandler(svc service.ReporteService) *ReportesHandler {
	return &ReportesHandler{svc: svc}
}

// Dashboard godoc
// @Summary Métricas del panel
// @Tags reportes
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.DashboardMetricas
// @Router /api/dashboard/metricas [get]
func (h *ReportesHandler) Dashboard(c *gin.Context) {
	resp, err := h.svc.Dashboard(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Ventas godoc
// @Summary Reporte de ventas por rango
// @Tags reportes
// @Security BearerAuth
// @Produce json
// @Param desde query string false "YYYY-MM-DD (por defecto hace 30 días)"
// @Param hasta query string false "YYYY-MM-DD (por defecto hoy)"
// @Success 200 {object} dto.ReporteVentas
// @Router /api/reportes/ventas [get]
func (h *ReportesHandler) Ventas(c *gin.Context) {
	var filter dto.ReporteVentasFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Ventas(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
