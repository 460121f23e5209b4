package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"
)

// EvaluarStockPayload lists the products whose stock just changed.
type EvaluarStockPayload struct {
	ProductoIDs []uint `json:"producto_ids"`
}

// StockEvaluator re-applies the threshold rule to a set of products.
type StockEvaluator interface {
	EvaluarProductos(ctx context.Context, ids []uint) (generadas, archivadas int, err error)
}

// AlertasWorker keeps stock alerts in sync after sales, voids and edits.
type AlertasWorker struct {
	evaluator StockEvaluator
}

func NewAlertasWorker(evaluator StockEvaluator) *AlertasWorker {
	return &AlertasWorker{evaluator: evaluator}
}

func (w *AlertasWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var p EvaluarStockPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return fmt.Errorf("alertas_worker: invalid payload: %w", err)
	}
	gen, arch, err := w.evaluator.EvaluarProductos(ctx, p.ProductoIDs)
	if err != nil {
		return err
	}
	if gen > 0 || arch > 0 {
		log.Info().Int("generadas", gen).Int("archivadas", arch).Msg("alertas_worker: thresholds evaluated")
	}
	return nil
}
