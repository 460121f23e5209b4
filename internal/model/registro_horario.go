package model

import "time"

// RegistroHorario holds the four daily attendance checkpoints of one user.
// A checkpoint, once set, is never overwritten for that date.
type RegistroHorario struct {
	ID                 uint      `gorm:"primaryKey"`
	UsuarioID          uint      `gorm:"not null;uniqueIndex:idx_registro_usuario_fecha"`
	Fecha              time.Time `gorm:"type:date;not null;uniqueIndex:idx_registro_usuario_fecha"`
	HoraEntrada        *time.Time
	HoraInicioColacion *time.Time
	HoraFinColacion    *time.Time
	HoraSalida         *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time

	Usuario *Usuario `gorm:"foreignKey:UsuarioID"`
}

func (RegistroHorario) TableName() string { return "registros_horarios" }

// EnColacion reports an open break: started and not yet finished.
func (r *RegistroHorario) EnColacion() bool {
	return r != nil && r.HoraInicioColacion != nil && r.HoraFinColacion == nil
}

// Checkpoint is one of the four daily attendance events.
type Checkpoint string

const (
	CheckpointEntrada        Checkpoint = "entrada"
	CheckpointInicioColacion Checkpoint = "inicio_colacion"
	CheckpointFinColacion    Checkpoint = "fin_colacion"
	CheckpointSalida         Checkpoint = "salida"
)

var checkpointColumns = map[Checkpoint]string{
	CheckpointEntrada:        "hora_entrada",
	CheckpointInicioColacion: "hora_inicio_colacion",
	CheckpointFinColacion:    "hora_fin_colacion",
	CheckpointSalida:         "hora_salida",
}

// ParseCheckpoint returns false for anything outside the four known values.
func ParseCheckpoint(s string) (Checkpoint, bool) {
	c := Checkpoint(s)
	_, ok := checkpointColumns[c]
	return c, ok
}

// Column is the registros_horarios column that stores the checkpoint.
func (c Checkpoint) Column() string { return checkpointColumns[c] }

// Hora returns the stored timestamp for c, nil when not marked yet.
func (r *RegistroHorario) Hora(c Checkpoint) *time.Time {
	if r == nil {
		return nil
	}
	switch c {
	case CheckpointEntrada:
		return r.HoraEntrada
	case CheckpointInicioColacion:
		return r.HoraInicioColacion
	case CheckpointFinColacion:
		return r.HoraFinColacion
	case CheckpointSalida:
		return r.HoraSalida
	}
	return nil
}

// SetHora stores t in the field that backs c.
func (r *RegistroHorario) SetHora(c Checkpoint, t time.Time) {
	switch c {
	case CheckpointEntrada:
		r.HoraEntrada = &t
	case CheckpointInicioColacion:
		r.HoraInicioColacion = &t
	case CheckpointFinColacion:
		r.HoraFinColacion = &t
	case CheckpointSalida:
		r.HoraSalida = &t
	}
}
