package dto

import "time"

const (
	FechaLayout     = "2006-01-02"
	HoraLayout      = "15:04:05"
	TimestampLayout = time.RFC3339
)

type MarcarRequest struct {
	Tipo string `json:"tipo" validate:"required"`
}

type MarcarResponse struct {
	Mensaje string `json:"mensaje"`
	Tipo    string `json:"tipo"`
	Fecha   string `json:"fecha"`
	Hora    string `json:"hora"`
}

type RegistroHorarioResponse struct {
	ID                 uint    `json:"id"`
	Fecha              string  `json:"fecha"`
	HoraEntrada        *string `json:"hora_entrada"`
	HoraInicioColacion *string `json:"hora_inicio_colacion"`
	HoraFinColacion    *string `json:"hora_fin_colacion"`
	HoraSalida         *string `json:"hora_salida"`
}

type EstadoColacionResponse struct {
	EnColacion bool    `json:"en_colacion"`
	HoraInicio *string `json:"hora_inicio,omitempty"`
	HoraFin    *string `json:"hora_fin,omitempty"`
	Mensaje    string  `json:"mensaje,omitempty"`
}

// ReporteHorarioFilter is bound from GET /api/horarios/reportes.
type ReporteHorarioFilter struct {
	Inicio string `form:"inicio" validate:"required,datetime=2006-01-02"`
	Fin    string `form:"fin"    validate:"required,datetime=2006-01-02"`
}

type RegistroReporte struct {
	RegistroHorarioResponse
	Estado          string   `json:"estado"` // completo | incompleto | ausente
	HorasTrabajadas *float64 `json:"horas_trabajadas"`
}

type EstadisticasHorario struct {
	DiasCompletos   int     `json:"diasCompletos"`
	DiasIncompletos int     `json:"diasIncompletos"`
	Ausencias       int     `json:"ausencias"`
	TotalHoras      float64 `json:"totalHoras"`
}

type ReporteTrabajador struct {
	ID           uint                `json:"id"`
	Nombre       string              `json:"nombre"`
	RUT          string              `json:"rut"`
	Registros    []RegistroReporte   `json:"registros"`
	Estadisticas EstadisticasHorario `json:"estadisticas"`
}

type EstadisticasDiarias struct {
	PresentesHoy        int64   `json:"presentes_hoy"`
	TotalUsuarios       int64   `json:"total_usuarios"`
	JornadaCompleta     int64   `json:"jornada_completa"`
	PromedioHorasSemana float64 `json:"promedio_horas_semana"`
	FechaConsulta       string  `json:"fecha_consulta"`
}
