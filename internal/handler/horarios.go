package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"

	"github.com/JoaquinRodriguez332/gesticom/internal/apierror"
	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/service"

	"github.com/gin-gonic/gin"
)

type HorariosHandler struct{ svc service.HorarioService }

func NewHorariosHandler(svc service.HorarioService) *HorariosHandler {
	return &HorariosHandler{svc: svc}
}

// Marcar godoc
// @Summary Registrar marcación del día
// @Description tipo: entrada | inicio_colacion | fin_colacion | salida
// @Tags horarios
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param body body dto.MarcarRequest true "Marcación"
// @Success 200 {object} dto.MarcarResponse
// @Failure 400 {object} apierror.APIError
// @Failure 409 {object} apierror.MarcacionError
// @Router /api/horarios/marcar [post]
func (h *HorariosHandler) Marcar(c *gin.Context) {
	var req dto.MarcarRequest
	if !bindAndValidate(c, &req) {
		return
	}
	a := actorFrom(c)
	resp, err := h.svc.Marcar(c.Request.Context(), a.ID, req.Tipo, a.IP)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// MisRegistros godoc
// @Summary Historial propio de marcaciones
// @Tags horarios
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Cantidad de días"
// @Success 200 {array} dto.RegistroHorarioResponse
// @Router /api/horarios/mis-registros [get]
func (h *HorariosHandler) MisRegistros(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, apierror.New("limit invalido"))
			return
		}
		limit = n
	}
	resp, err := h.svc.Historial(c.Request.Context(), actorFrom(c).ID, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// EstadoColacion godoc
// @Summary Estado de colación del día
// @Tags horarios
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.EstadoColacionResponse
// @Router /api/horarios/estado-colacion [get]
func (h *HorariosHandler) EstadoColacion(c *gin.Context) {
	resp, err := h.svc.EstadoColacion(c.Request.Context(), actorFrom(c).ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Reporte godoc
// @Summary Reporte de asistencia por trabajador
// @Tags horarios
// @Security BearerAuth
// @Produce json
// @Param inicio query string true "YYYY-MM-DD"
// @Param fin query string true "YYYY-MM-DD"
// @Success 200 {array} dto.ReporteTrabajador
// @Router /api/horarios/reportes [get]
func (h *HorariosHandler) Reporte(c *gin.Context) {
	var filter dto.ReporteHorarioFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.Reporte(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ReportePDF godoc
// @Summary Reporte de asistencia en PDF
// @Tags horarios
// @Security BearerAuth
// @Produce application/pdf
// @Param inicio query string true "YYYY-MM-DD"
// @Param fin query string true "YYYY-MM-DD"
// @Success 200 {file} file
// @Router /api/horarios/reportes/pdf [get]
func (h *HorariosHandler) ReportePDF(c *gin.Context) {
	var filter dto.ReporteHorarioFilter
	if !bindQuery(c, &filter) {
		return
	}
	// Rendered into memory so a failure still gets a JSON error body.
	var buf bytes.Buffer
	if err := h.svc.ReportePDF(c.Request.Context(), filter, &buf); err != nil {
		respondError(c, err)
		return
	}
	name := fmt.Sprintf("asistencia_%s_%s.pdf", filter.Inicio, filter.Fin)
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

// Estadisticas godoc
// @Summary Estadísticas de asistencia del día
// @Tags horarios
// @Security BearerAuth
// @Produce json
// @Success 200 {object} dto.EstadisticasDiarias
// @Router /api/horarios/estadisticas [get]
func (h *HorariosHandler) Estadisticas(c *gin.Context) {
	resp, err := h.svc.Estadisticas(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}
