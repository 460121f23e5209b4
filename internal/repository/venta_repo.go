package repository

import (
	"context"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/model"

	"gorm.io/gorm"
)

type VentaRepository interface {
	// CreateTx inserts the header and its Items in the caller's transaction.
	CreateTx(tx *gorm.DB, v *model.Venta) error
	FindByID(ctx context.Context, id uint) (*model.Venta, error)
	List(ctx context.Context, filter VentaListFilter) ([]model.Venta, error)
	// AnularTx flips activa -> anulada. Returns false when the sale does not
	// exist or was already voided.
	AnularTx(tx *gorm.DB, id, actorID uint, at time.Time) (bool, error)
	FindItemsTx(tx *gorm.DB, ventaID uint) ([]model.DetalleVenta, error)
	DB() *gorm.DB // exposes the DB for transaction creation in service layer
}

// VentaListFilter is the parsed form of dto.VentaFilter.
type VentaListFilter struct {
	Estado    string
	Desde     *time.Time
	Hasta     *time.Time // exclusive
	UsuarioID uint
}

type ventaRepo struct{ db *gorm.DB }

func NewVentaRepository(db *gorm.DB) VentaRepository { return &ventaRepo{db: db} }

func (r *ventaRepo) DB() *gorm.DB { return r.db }

func (r *ventaRepo) CreateTx(tx *gorm.DB, v *model.Venta) error {
	return translate(tx.Create(v).Error)
}

func (r *ventaRepo) FindByID(ctx context.Context, id uint) (*model.Venta, error) {
	var v model.Venta
	err := r.db.WithContext(ctx).
		Preload("Usuario").Preload("Items.Producto").
		First(&v, id).Error
	if err != nil {
		return nil, translate(err)
	}
	return &v, nil
}

func (r *ventaRepo) List(ctx context.Context, filter VentaListFilter) ([]model.Venta, error) {
	q := r.db.WithContext(ctx).Model(&model.Venta{})
	if filter.Estado != "" {
		q = q.Where("estado = ?", filter.Estado)
	}
	if filter.Desde != nil {
		q = q.Where("created_at >= ?", *filter.Desde)
	}
	if filter.Hasta != nil {
		q = q.Where("created_at < ?", *filter.Hasta)
	}
	if filter.UsuarioID != 0 {
		q = q.Where("usuario_id = ?", filter.UsuarioID)
	}

	var ventas []model.Venta
	err := q.Preload("Usuario").Preload("Items.Producto").
		Order("created_at DESC").
		Find(&ventas).Error
	return ventas, err
}

func (r *ventaRepo) AnularTx(tx *gorm.DB, id, actorID uint, at time.Time) (bool, error) {
	res := tx.Model(&model.Venta{}).
		Where("id = ? AND estado = ?", id, model.VentaActiva).
		Updates(map[string]interface{}{
			"estado":      model.VentaAnulada,
			"anulada_por": actorID,
			"anulada_at":  at,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *ventaRepo) FindItemsTx(tx *gorm.DB, ventaID uint) ([]model.DetalleVenta, error) {
	var items []model.DetalleVenta
	err := tx.Where("venta_id = ?", ventaID).Order("id ASC").Find(&items).Error
	return items, err
}
