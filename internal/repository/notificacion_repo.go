package repository

import (
	"context"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type NotificacionRepository interface {
	Create(ctx context.Context, n *model.Notificacion) error
	ListActivas(ctx context.Context) ([]model.Notificacion, error)
	CountActivas(ctx context.Context) (int64, error)
	// Transition moves a notification from one estado to another. Returns
	// ErrNotFound when the row does not exist or is not in estado from.
	Transition(ctx context.Context, id uint, from, to string, at time.Time) error
	Delete(ctx context.Context, id uint) error

	// Stock alerts
	FindActiveStockAlert(ctx context.Context, productoID uint) (*model.Notificacion, error)
	ArchiveStockAlerts(ctx context.Context, productoID uint) (int64, error)

	// Thresholds
	Umbrales(ctx context.Context) (map[uint]model.ConfiguracionStock, error)
	UpsertUmbral(ctx context.Context, productoID uint, umbral int) error
}

type notificacionRepo struct{ db *gorm.DB }

func NewNotificacionRepository(db *gorm.DB) NotificacionRepository {
	return &notificacionRepo{db: db}
}

func (r *notificacionRepo) Create(ctx context.Context, n *model.Notificacion) error {
	return translate(r.db.WithContext(ctx).Create(n).Error)
}

func (r *notificacionRepo) ListActivas(ctx context.Context) ([]model.Notificacion, error) {
	var ns []model.Notificacion
	err := r.db.WithContext(ctx).
		Preload("Producto").Preload("Usuario").
		Where("estado = ?", model.NotifActiva).
		Order("created_at DESC").
		Find(&ns).Error
	return ns, err
}

func (r *notificacionRepo) CountActivas(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Notificacion{}).Where("estado = ?", model.NotifActiva).Count(&n).Error
	return n, err
}

func (r *notificacionRepo) Transition(ctx context.Context, id uint, from, to string, at time.Time) error {
	updates := map[string]interface{}{"estado": to}
	if to == model.NotifLeida {
		updates["fecha_lectura"] = at
	}
	res := r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("id = ? AND estado = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificacionRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Notificacion{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *notificacionRepo) FindActiveStockAlert(ctx context.Context, productoID uint) (*model.Notificacion, error) {
	var n model.Notificacion
	err := r.db.WithContext(ctx).
		Where("producto_id = ? AND tipo IN ? AND estado = ?",
			productoID, []string{model.NotifStockBajo, model.NotifSinStock}, model.NotifActiva).
		Take(&n).Error
	if err != nil {
		return nil, translate(err)
	}
	return &n, nil
}

func (r *notificacionRepo) ArchiveStockAlerts(ctx context.Context, productoID uint) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.Notificacion{}).
		Where("producto_id = ? AND tipo IN ? AND estado = ?",
			productoID, []string{model.NotifStockBajo, model.NotifSinStock}, model.NotifActiva).
		Update("estado", model.NotifArchivada)
	return res.RowsAffected, res.Error
}

func (r *notificacionRepo) Umbrales(ctx context.Context) (map[uint]model.ConfiguracionStock, error) {
	var cfgs []model.ConfiguracionStock
	if err := r.db.WithContext(ctx).Find(&cfgs).Error; err != nil {
		return nil, err
	}
	out := make(map[uint]model.ConfiguracionStock, len(cfgs))
	for _, c := range cfgs {
		out[c.ProductoID] = c
	}
	return out, nil
}

func (r *notificacionRepo) UpsertUmbral(ctx context.Context, productoID uint, umbral int) error {
	cfg := model.ConfiguracionStock{ProductoID: productoID, UmbralMinimo: umbral}
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "producto_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"umbral_minimo", "updated_at"}),
	}).Create(&cfg).Error
	return translate(err)
}
