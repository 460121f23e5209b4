package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"
)

// MovimientoLinea is one product line of a sale or void.
type MovimientoLinea struct {
	ProductoID uint `json:"producto_id"`
	Cantidad   int  `json:"cantidad"`
}

// MovimientosPayload is sent to QueueAuditoria after a sale commits
// (tipo salida) or a void commits (tipo entrada).
type MovimientosPayload struct {
	Tipo         string            `json:"tipo"`
	Usuario      string            `json:"usuario"`
	Motivo       string            `json:"motivo"`
	ReferenciaID uint              `json:"referencia_id"`
	Lineas       []MovimientoLinea `json:"lineas"`
}

// Rows converts the payload into inventory movement rows.
func (p MovimientosPayload) Rows() []model.MovimientoInventario {
	ref := p.ReferenciaID
	rows := make([]model.MovimientoInventario, 0, len(p.Lineas))
	for _, l := range p.Lineas {
		rows = append(rows, model.MovimientoInventario{
			ProductoID:   l.ProductoID,
			Tipo:         p.Tipo,
			Cantidad:     l.Cantidad,
			Usuario:      p.Usuario,
			Motivo:       p.Motivo,
			ReferenciaID: &ref,
		})
	}
	return rows
}

// ActividadPayload is one activity log entry.
type ActividadPayload struct {
	UsuarioID   uint   `json:"usuario_id"`
	Accion      string `json:"accion"`
	Descripcion string `json:"descripcion"`
	IPAddress   string `json:"ip_address"`
}

// Row converts the payload into an activity log row.
func (p ActividadPayload) Row() *model.LogActividad {
	return &model.LogActividad{
		UsuarioID:   p.UsuarioID,
		Accion:      p.Accion,
		Descripcion: p.Descripcion,
		IPAddress:   p.IPAddress,
	}
}

// AuditoriaWorker writes inventory movements and activity logs.
type AuditoriaWorker struct {
	movimientos repository.MovimientoRepository
	actividad   repository.ActividadRepository
}

func NewAuditoriaWorker(movs repository.MovimientoRepository, acts repository.ActividadRepository) *AuditoriaWorker {
	return &AuditoriaWorker{movimientos: movs, actividad: acts}
}

func (w *AuditoriaWorker) ProcessMovimientos(ctx context.Context, raw json.RawMessage) error {
	var p MovimientosPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("auditoria_worker: invalid payload: %w", err)
	}
	return w.movimientos.CreateBatch(ctx, p.Rows())
}

func (w *AuditoriaWorker) ProcessActividad(ctx context.Context, raw json.RawMessage) error {
	var p ActividadPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("auditoria_worker: invalid payload: %w", err)
	}
	return w.actividad.Create(ctx, p.Row())
}
