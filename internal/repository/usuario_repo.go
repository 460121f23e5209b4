package repository

import (
	"context"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"

	"gorm.io/gorm"
)

type UsuarioRepository interface {
	Create(ctx context.Context, u *model.Usuario) error
	FindByID(ctx context.Context, id uint) (*model.Usuario, error)
	FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error)
	// ExistsByRUTOrCorreo ignores the row with excludeID (0 = none).
	ExistsByRUTOrCorreo(ctx context.Context, rut, correo string, excludeID uint) (bool, error)
	ExistsByCorreo(ctx context.Context, correo string, excludeID uint) (bool, error)
	List(ctx context.Context, filter dto.UsuarioFilter) ([]model.Usuario, error)
	ListHabilitados(ctx context.Context) ([]model.Usuario, error)
	CountHabilitados(ctx context.Context, rol model.Rol) (int64, error)
	Update(ctx context.Context, u *model.Usuario) error
	UpdateEstado(ctx context.Context, id uint, estado string) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	Delete(ctx context.Context, id uint) error
}

type usuarioRepo struct{ db *gorm.DB }

func NewUsuarioRepository(db *gorm.DB) UsuarioRepository { return &usuarioRepo{db: db} }

func (r *usuarioRepo) Create(ctx context.Context, u *model.Usuario) error {
	return translate(r.db.WithContext(ctx).Create(u).Error)
}

func (r *usuarioRepo) FindByID(ctx context.Context, id uint) (*model.Usuario, error) {
	var u model.Usuario
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *usuarioRepo) FindByCorreo(ctx context.Context, correo string) (*model.Usuario, error) {
	var u model.Usuario
	err := r.db.WithContext(ctx).Where("LOWER(correo) = LOWER(?)", correo).First(&u).Error
	if err != nil {
		return nil, translate(err)
	}
	return &u, nil
}

func (r *usuarioRepo) ExistsByRUTOrCorreo(ctx context.Context, rut, correo string, excludeID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("rut = ? OR LOWER(correo) = LOWER(?)", rut, correo)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *usuarioRepo) ExistsByCorreo(ctx context.Context, correo string, excludeID uint) (bool, error) {
	var n int64
	q := r.db.WithContext(ctx).Model(&model.Usuario{}).Where("LOWER(correo) = LOWER(?)", correo)
	if excludeID != 0 {
		q = q.Where("id <> ?", excludeID)
	}
	err := q.Count(&n).Error
	return n > 0, err
}

func (r *usuarioRepo) List(ctx context.Context, filter dto.UsuarioFilter) ([]model.Usuario, error) {
	q := r.db.WithContext(ctx).Model(&model.Usuario{})
	if filter.Search != "" {
		like := "%" + filter.Search + "%"
		q = q.Where("nombre ILIKE ? OR rut ILIKE ? OR correo ILIKE ?", like, like, like)
	}
	if rol, ok := dto.ParseRol(filter.Rol); ok {
		q = q.Where("rol = ?", rol)
	}
	switch filter.Activo {
	case "true":
		q = q.Where("estado = ?", model.EstadoHabilitado)
	case "false":
		q = q.Where("estado = ?", model.EstadoDeshabilitado)
	}

	var users []model.Usuario
	err := q.Order("created_at DESC").Find(&users).Error
	return users, err
}

func (r *usuarioRepo) ListHabilitados(ctx context.Context) ([]model.Usuario, error) {
	var users []model.Usuario
	err := r.db.WithContext(ctx).Where("estado = ?", model.EstadoHabilitado).Order("nombre ASC").Find(&users).Error
	return users, err
}

func (r *usuarioRepo) CountHabilitados(ctx context.Context, rol model.Rol) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&model.Usuario{}).
		Where("estado = ? AND rol = ?", model.EstadoHabilitado, rol).Count(&n).Error
	return n, err
}

func (r *usuarioRepo) Update(ctx context.Context, u *model.Usuario) error {
	return translate(r.db.WithContext(ctx).Save(u).Error)
}

func (r *usuarioRepo) UpdateEstado(ctx context.Context, id uint, estado string) error {
	return r.updateColumn(ctx, id, "estado", estado)
}

func (r *usuarioRepo) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return r.updateColumn(ctx, id, "password_hash", hash)
}

func (r *usuarioRepo) updateColumn(ctx context.Context, id uint, column string, value interface{}) error {
	res := r.db.WithContext(ctx).Model(&model.Usuario{}).Where("id = ?", id).Update(column, value)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *usuarioRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Usuario{}, id)
	if res.Error != nil {
		return translate(res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}
