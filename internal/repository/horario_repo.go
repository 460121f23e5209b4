package repository

import (
	"context"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const dateLayout = "2006-01-02"

// HorarioRepository persists attendance records. Dates are calendar days;
// only their year/month/day are used.
type HorarioRepository interface {
	Find(ctx context.Context, usuarioID uint, fecha time.Time) (*model.RegistroHorario, error)
	FindTx(tx *gorm.DB, usuarioID uint, fecha time.Time) (*model.RegistroHorario, error)
	// EnsureTx creates the (usuario, fecha) row if it does not exist yet.
	EnsureTx(tx *gorm.DB, usuarioID uint, fecha time.Time) error
	// MarcarTx sets the checkpoint column only while it is still NULL.
	// Returns false when another request got there first.
	MarcarTx(tx *gorm.DB, usuarioID uint, fecha time.Time, c model.Checkpoint, hora time.Time) (bool, error)
	ListByUsuario(ctx context.Context, usuarioID uint, limit int) ([]model.RegistroHorario, error)
	// ListRango returns every record with desde <= fecha <= hasta.
	ListRango(ctx context.Context, desde, hasta time.Time) ([]model.RegistroHorario, error)
	DB() *gorm.DB
}

type horarioRepo struct{ db *gorm.DB }

func NewHorarioRepository(db *gorm.DB) HorarioRepository { return &horarioRepo{db: db} }

func (r *horarioRepo) DB() *gorm.DB { return r.db }

func (r *horarioRepo) Find(ctx context.Context, usuarioID uint, fecha time.Time) (*model.RegistroHorario, error) {
	return r.FindTx(r.db.WithContext(ctx), usuarioID, fecha)
}

func (r *horarioRepo) FindTx(tx *gorm.DB, usuarioID uint, fecha time.Time) (*model.RegistroHorario, error) {
	var reg model.RegistroHorario
	err := tx.Where("usuario_id = ? AND fecha = ?", usuarioID, fecha.Format(dateLayout)).
		Take(&reg).Error
	if err != nil {
		return nil, translate(err)
	}
	return &reg, nil
}

func (r *horarioRepo) EnsureTx(tx *gorm.DB, usuarioID uint, fecha time.Time) error {
	reg := model.RegistroHorario{UsuarioID: usuarioID, Fecha: fecha}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "usuario_id"}, {Name: "fecha"}},
		DoNothing: true,
	}).Create(&reg).Error
}

func (r *horarioRepo) MarcarTx(tx *gorm.DB, usuarioID uint, fecha time.Time, c model.Checkpoint, hora time.Time) (bool, error) {
	col := c.Column()
	res := tx.Model(&model.RegistroHorario{}).
		Where("usuario_id = ? AND fecha = ? AND "+col+" IS NULL", usuarioID, fecha.Format(dateLayout)).
		Update(col, hora)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *horarioRepo) ListByUsuario(ctx context.Context, usuarioID uint, limit int) ([]model.RegistroHorario, error) {
	var regs []model.RegistroHorario
	err := r.db.WithContext(ctx).
		Where("usuario_id = ?", usuarioID).
		Order("fecha DESC").Limit(limit).
		Find(&regs).Error
	return regs, err
}

func (r *horarioRepo) ListRango(ctx context.Context, desde, hasta time.Time) ([]model.RegistroHorario, error) {
	var regs []model.RegistroHorario
	err := r.db.WithContext(ctx).
		Where("fecha BETWEEN ? AND ?", desde.Format(dateLayout), hasta.Format(dateLayout)).
		Order("fecha DESC").
		Find(&regs).Error
	return regs, err
}
