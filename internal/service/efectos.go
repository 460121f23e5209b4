package service

import (
	"context"

	"github.com/JoaquinRodriguez332/gesticom/internal/repository"
	"github.com/JoaquinRodriguez332/gesticom/internal/worker"

	"github.com/rs/zerolog/log"
)

// JobDispatcher enqueues post-commit side effects. Implemented by
// *worker.Dispatcher.
type JobDispatcher interface {
	EnqueueMovimientos(ctx context.Context, p worker.MovimientosPayload) error
	EnqueueActividad(ctx context.Context, p worker.ActividadPayload) error
	EnqueueEvaluarStock(ctx context.Context, p worker.EvaluarStockPayload) error
	EnqueueEmail(ctx context.Context, p worker.EmailJobPayload) error
}

// Efectos runs side effects that must never fail the request that caused
// them. Work goes through the queue; when there is no queue or the enqueue
// fails it runs inline and errors are only logged.
type Efectos struct {
	jobs       JobDispatcher
	movs       repository.MovimientoRepository
	acts       repository.ActividadRepository
	stock      worker.StockEvaluator
	alertEmail string
}

func NewEfectos(jobs JobDispatcher, movs repository.MovimientoRepository, acts repository.ActividadRepository, alertEmail string) *Efectos {
	return &Efectos{jobs: jobs, movs: movs, acts: acts, alertEmail: alertEmail}
}

// UseEvaluator sets the inline fallback for threshold evaluation.
func (e *Efectos) UseEvaluator(ev worker.StockEvaluator) { e.stock = ev }

func (e *Efectos) Movimientos(ctx context.Context, p worker.MovimientosPayload) {
	if e == nil || len(p.Lineas) == 0 {
		return
	}
	if e.jobs != nil {
		err := e.jobs.EnqueueMovimientos(ctx, p)
		if err == nil {
			return
		}
		log.Warn().Err(err).Uint("referencia_id", p.ReferenciaID).Msg("efectos: enqueue movimientos failed, writing inline")
	}
	if e.movs == nil {
		return
	}
	if err := e.movs.CreateBatch(ctx, p.Rows()); err != nil {
		log.Error().Err(err).Uint("referencia_id", p.ReferenciaID).Msg("efectos: movimientos not recorded")
	}
}

func (e *Efectos) Actividad(ctx context.Context, p worker.ActividadPayload) {
	if e == nil {
		return
	}
	if e.jobs != nil {
		err := e.jobs.EnqueueActividad(ctx, p)
		if err == nil {
			return
		}
		log.Warn().Err(err).Str("accion", p.Accion).Msg("efectos: enqueue actividad failed, writing inline")
	}
	if e.acts == nil {
		return
	}
	if err := e.acts.Create(ctx, p.Row()); err != nil {
		log.Error().Err(err).Str("accion", p.Accion).Msg("efectos: actividad not recorded")
	}
}

func (e *Efectos) EvaluarStock(ctx context.Context, ids []uint) {
	if e == nil || len(ids) == 0 {
		return
	}
	if e.jobs != nil {
		err := e.jobs.EnqueueEvaluarStock(ctx, worker.EvaluarStockPayload{ProductoIDs: ids})
		if err == nil {
			return
		}
		log.Warn().Err(err).Msg("efectos: enqueue evaluar_stock failed, evaluating inline")
	}
	if e.stock == nil {
		return
	}
	if _, _, err := e.stock.EvaluarProductos(ctx, ids); err != nil {
		log.Error().Err(err).Msg("efectos: threshold evaluation failed")
	}
}

// Email sends an alert to the configured owner address. Without a queue or
// a destination the alert stays on the dashboard only.
func (e *Efectos) Email(ctx context.Context, subject, body string) {
	if e == nil || e.jobs == nil || e.alertEmail == "" {
		return
	}
	err := e.jobs.EnqueueEmail(ctx, worker.EmailJobPayload{ToEmail: e.alertEmail, Subject: subject, Body: body})
	if err != nil {
		log.Warn().Err(err).Str("subject", subject).Msg("efectos: enqueue email failed")
	}
}
