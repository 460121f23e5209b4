package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/infra"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"
	"github.com/JoaquinRodriguez332/gesticom/internal/worker"

	"gorm.io/gorm"
)

const maxReporteDias = 366

type HorarioService interface {
	Marcar(ctx context.Context, usuarioID uint, tipo, ip string) (*dto.MarcarResponse, error)
	EstadoColacion(ctx context.Context, usuarioID uint) (*dto.EstadoColacionResponse, error)
	// EnColacion is the server-side break guard used by the sale workflow.
	EnColacion(ctx context.Context, usuarioID uint) (bool, error)
	Historial(ctx context.Context, usuarioID uint, limit int) ([]dto.RegistroHorarioResponse, error)
	Reporte(ctx context.Context, filter dto.ReporteHorarioFilter) ([]dto.ReporteTrabajador, error)
	ReportePDF(ctx context.Context, filter dto.ReporteHorarioFilter, w io.Writer) error
	Estadisticas(ctx context.Context) (*dto.EstadisticasDiarias, error)
}

// HorarioOptions carries the tunables of the attendance service.
type HorarioOptions struct {
	Location     *time.Location
	DefaultLimit int
	MaxLimit     int
	// Now overrides the clock in tests.
	Now func() time.Time
}

type horarioService struct {
	repo     repository.HorarioRepository
	usuarios repository.UsuarioRepository
	efectos  *Efectos
	loc      *time.Location
	defLimit int
	maxLimit int
	now      func() time.Time
}

func NewHorarioService(repo repository.HorarioRepository, usuarios repository.UsuarioRepository, efectos *Efectos, opts HorarioOptions) HorarioService {
	s := &horarioService{
		repo:     repo,
		usuarios: usuarios,
		efectos:  efectos,
		loc:      opts.Location,
		defLimit: opts.DefaultLimit,
		maxLimit: opts.MaxLimit,
		now:      opts.Now,
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.defLimit <= 0 {
		s.defLimit = 10
	}
	if s.maxLimit < s.defLimit {
		s.maxLimit = 30
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *horarioService) db() *gorm.DB {
	if s.repo == nil {
		return nil
	}
	return s.repo.DB()
}

// today returns the current instant in the business timezone and its
// calendar date (midnight UTC, the representation of a date column).
func (s *horarioService) today() (time.Time, time.Time) {
	now := s.now().In(s.loc)
	return now, dateOf(now)
}

func dateOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ── Marcar ────────────────────────────────────────────────────────────────────
// All reads and writes run in one transaction. The UPDATE only touches a NULL
// column, so two concurrent requests for the same checkpoint cannot both win.

func (s *horarioService) Marcar(ctx context.Context, usuarioID uint, tipo, ip string) (*dto.MarcarResponse, error) {
	c, ok := model.ParseCheckpoint(tipo)
	if !ok {
		return nil, ErrInvalidCheckpoint
	}
	now, fecha := s.today()

	err := runTx(ctx, s.db(), func(tx *gorm.DB) error {
		reg, err := s.repo.FindTx(tx, usuarioID, fecha)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("marcar: leer registro: %w", err)
		}
		if err := s.checkOrden(reg, c); err != nil {
			return err
		}
		if err := s.repo.EnsureTx(tx, usuarioID, fecha); err != nil {
			return fmt.Errorf("marcar: crear registro: %w", err)
		}
		updated, err := s.repo.MarcarTx(tx, usuarioID, fecha, c, now)
		if err != nil {
			return fmt.Errorf("marcar: actualizar %s: %w", c, err)
		}
		if updated {
			return nil
		}
		cur, err := s.repo.FindTx(tx, usuarioID, fecha)
		if err != nil {
			return fmt.Errorf("marcar: releer registro: %w", err)
		}
		if h := cur.Hora(c); h != nil {
			return &AlreadyMarkedError{Checkpoint: string(c), Hora: h.In(s.loc)}
		}
		return fmt.Errorf("marcar: %s no actualizado", c)
	})
	if err != nil {
		return nil, err
	}

	s.efectos.Actividad(context.WithoutCancel(ctx), worker.ActividadPayload{
		UsuarioID:   usuarioID,
		Accion:      "MARCAR",
		Descripcion: fmt.Sprintf("Marcación de %s", c),
		IPAddress:   ip,
	})

	return &dto.MarcarResponse{
		Mensaje: fmt.Sprintf("%s registrada correctamente", c),
		Tipo:    string(c),
		Fecha:   fecha.Format(dto.FechaLayout),
		Hora:    now.Format(dto.HoraLayout),
	}, nil
}

// checkOrden rejects a checkpoint already set today or marked out of order.
func (s *horarioService) checkOrden(reg *model.RegistroHorario, c model.Checkpoint) error {
	if h := reg.Hora(c); h != nil {
		return &AlreadyMarkedError{Checkpoint: string(c), Hora: h.In(s.loc)}
	}
	switch c {
	case model.CheckpointInicioColacion:
		if reg.Hora(model.CheckpointEntrada) == nil {
			return &CheckpointOrderError{Msg: "Debes registrar tu entrada antes de iniciar colación"}
		}
		if reg.Hora(model.CheckpointSalida) != nil {
			return &CheckpointOrderError{Msg: "Ya registraste tu salida hoy"}
		}
	case model.CheckpointFinColacion:
		if reg.Hora(model.CheckpointInicioColacion) == nil {
			return &CheckpointOrderError{Msg: "Debes iniciar colación antes de finalizarla"}
		}
	case model.CheckpointSalida:
		if reg.Hora(model.CheckpointEntrada) == nil {
			return &CheckpointOrderError{Msg: "Debes registrar tu entrada antes de la salida"}
		}
		if reg.EnColacion() {
			return &CheckpointOrderError{Msg: "Debes finalizar tu colación antes de registrar la salida"}
		}
	}
	return nil
}

func (s *horarioService) todayRecord(ctx context.Context, usuarioID uint) (*model.RegistroHorario, error) {
	_, fecha := s.today()
	reg, err := s.repo.Find(ctx, usuarioID, fecha)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return reg, err
}

func (s *horarioService) EstadoColacion(ctx context.Context, usuarioID uint) (*dto.EstadoColacionResponse, error) {
	reg, err := s.todayRecord(ctx, usuarioID)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		return &dto.EstadoColacionResponse{EnColacion: false, Mensaje: "No hay registro para hoy"}, nil
	}
	return &dto.EstadoColacionResponse{
		EnColacion: reg.EnColacion(),
		HoraInicio: s.hora(reg.HoraInicioColacion),
		HoraFin:    s.hora(reg.HoraFinColacion),
	}, nil
}

func (s *horarioService) EnColacion(ctx context.Context, usuarioID uint) (bool, error) {
	reg, err := s.todayRecord(ctx, usuarioID)
	if err != nil {
		return false, err
	}
	return reg.EnColacion(), nil
}

func (s *horarioService) Historial(ctx context.Context, usuarioID uint, limit int) ([]dto.RegistroHorarioResponse, error) {
	if limit <= 0 {
		limit = s.defLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	regs, err := s.repo.ListByUsuario(ctx, usuarioID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.RegistroHorarioResponse, len(regs))
	for i := range regs {
		out[i] = s.toResponse(&regs[i])
	}
	return out, nil
}

// ── Reportes ──────────────────────────────────────────────────────────────────

func (s *horarioService) parseRango(filter dto.ReporteHorarioFilter) (time.Time, time.Time, error) {
	inicio, err := time.Parse(dto.FechaLayout, filter.Inicio)
	if err != nil {
		return time.Time{}, time.Time{}, validationf("Fecha de inicio inválida")
	}
	fin, err := time.Parse(dto.FechaLayout, filter.Fin)
	if err != nil {
		return time.Time{}, time.Time{}, validationf("Fecha de fin inválida")
	}
	if fin.Before(inicio) {
		return time.Time{}, time.Time{}, validationf("La fecha de inicio debe ser anterior o igual a la fecha de fin")
	}
	if fin.Sub(inicio) > maxReporteDias*24*time.Hour {
		return time.Time{}, time.Time{}, validationf("El rango no puede superar %d días", maxReporteDias)
	}
	return inicio, fin, nil
}

func (s *horarioService) Reporte(ctx context.Context, filter dto.ReporteHorarioFilter) ([]dto.ReporteTrabajador, error) {
	inicio, fin, err := s.parseRango(filter)
	if err != nil {
		return nil, err
	}
	usuarios, err := s.usuarios.ListHabilitados(ctx)
	if err != nil {
		return nil, err
	}
	regs, err := s.repo.ListRango(ctx, inicio, fin)
	if err != nil {
		return nil, err
	}
	porUsuario := make(map[uint][]model.RegistroHorario, len(usuarios))
	for _, r := range regs {
		porUsuario[r.UsuarioID] = append(porUsuario[r.UsuarioID], r)
	}

	out := make([]dto.ReporteTrabajador, 0, len(usuarios))
	for _, u := range usuarios {
		rt := dto.ReporteTrabajador{ID: u.ID, Nombre: u.Nombre, RUT: u.RUT, Registros: []dto.RegistroReporte{}}
		for i := range porUsuario[u.ID] {
			r := &porUsuario[u.ID][i]
			row := dto.RegistroReporte{RegistroHorarioResponse: s.toResponse(r)}
			row.Estado, row.HorasTrabajadas = clasificar(r)
			switch row.Estado {
			case "completo":
				rt.Estadisticas.DiasCompletos++
			case "incompleto":
				rt.Estadisticas.DiasIncompletos++
			default:
				rt.Estadisticas.Ausencias++
			}
			if row.HorasTrabajadas != nil {
				rt.Estadisticas.TotalHoras += *row.HorasTrabajadas
			}
			rt.Registros = append(rt.Registros, row)
		}
		rt.Estadisticas.TotalHoras = redondear(rt.Estadisticas.TotalHoras)
		out = append(out, rt)
	}
	return out, nil
}

func (s *horarioService) ReportePDF(ctx context.Context, filter dto.ReporteHorarioFilter, w io.Writer) error {
	rows, err := s.Reporte(ctx, filter)
	if err != nil {
		return err
	}
	return infra.GenerateAsistenciaPDF(w, filter.Inicio, filter.Fin, rows)
}

// clasificar derives the day status: completo needs both entrada and
// salida, incompleto has exactly one of them.
func clasificar(r *model.RegistroHorario) (string, *float64) {
	switch {
	case r.HoraEntrada != nil && r.HoraSalida != nil:
		h := horasEntre(*r.HoraEntrada, *r.HoraSalida)
		return "completo", &h
	case r.HoraEntrada != nil || r.HoraSalida != nil:
		return "incompleto", nil
	}
	return "ausente", nil
}

// horasEntre rounds to one decimal; a salida before the entrada counts as 0.
func horasEntre(entrada, salida time.Time) float64 {
	d := salida.Sub(entrada)
	if d < 0 {
		return 0
	}
	return redondear(d.Hours())
}

func redondear(h float64) float64 {
	return math.Round(h*10) / 10
}

func (s *horarioService) Estadisticas(ctx context.Context) (*dto.EstadisticasDiarias, error) {
	_, hoy := s.today()
	inicioSemana := hoy.AddDate(0, 0, -int(hoy.Weekday()))

	regs, err := s.repo.ListRango(ctx, inicioSemana, hoy)
	if err != nil {
		return nil, err
	}
	total, err := s.usuarios.CountHabilitados(ctx, model.RolWorker)
	if err != nil {
		return nil, err
	}

	out := &dto.EstadisticasDiarias{TotalUsuarios: total, FechaConsulta: hoy.Format(dto.FechaLayout)}
	var suma float64
	var completos int
	for i := range regs {
		r := &regs[i]
		esHoy := r.Fecha.Format(dto.FechaLayout) == out.FechaConsulta
		if esHoy && r.HoraEntrada != nil {
			out.PresentesHoy++
		}
		if r.HoraEntrada != nil && r.HoraSalida != nil {
			if esHoy {
				out.JornadaCompleta++
			}
			suma += math.Max(r.HoraSalida.Sub(*r.HoraEntrada).Hours(), 0)
			completos++
		}
	}
	if completos > 0 {
		out.PromedioHorasSemana = redondear(suma / float64(completos))
	}
	return out, nil
}

func (s *horarioService) hora(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.In(s.loc).Format(dto.HoraLayout)
	return &v
}

func (s *horarioService) toResponse(r *model.RegistroHorario) dto.RegistroHorarioResponse {
	return dto.RegistroHorarioResponse{
		ID:                 r.ID,
		Fecha:              r.Fecha.Format(dto.FechaLayout),
		HoraEntrada:        s.hora(r.HoraEntrada),
		HoraInicioColacion: s.hora(r.HoraInicioColacion),
		HoraFinColacion:    s.hora(r.HoraFinColacion),
		HoraSalida:         s.hora(r.HoraSalida),
	}
}
