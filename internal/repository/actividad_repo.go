package repository

import (
	"context"

	"github.com/JoaquinRodriguez332/gesticom/internal/model"

	"gorm.io/gorm"
)

type ActividadRepository interface {
	Create(ctx context.Context, l *model.LogActividad) error
	ListByUsuario(ctx context.Context, usuarioID uint, limit int) ([]model.LogActividad, error)
}

type actividadRepo struct{ db *gorm.DB }

func NewActividadRepository(db *gorm.DB) ActividadRepository { return &actividadRepo{db: db} }

func (r *actividadRepo) Create(ctx context.Context, l *model.LogActividad) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *actividadRepo) ListByUsuario(ctx context.Context, usuarioID uint, limit int) ([]model.LogActividad, error) {
	var logs []model.LogActividad
	err := r.db.WithContext(ctx).Where("usuario_id = ?", usuarioID).
		Order("created_at DESC").Limit(limit).Find(&logs).Error
	return logs, err
}
