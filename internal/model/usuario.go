package model

import "time"

// Rol is the closed set of domain roles. Display labels ("dueño",
// "trabajador") live in the dto package.
type Rol string

const (
	RolOwner  Rol = "owner"
	RolWorker Rol = "worker"
)

func (r Rol) Valid() bool { return r == RolOwner || r == RolWorker }

const (
	EstadoHabilitado    = "habilitado"
	EstadoDeshabilitado = "deshabilitado"
)

// Usuario stores system users with role-based access.
type Usuario struct {
	ID           uint   `gorm:"primaryKey"`
	Nombre       string `gorm:"not null"`
	RUT          string `gorm:"column:rut;type:varchar(12);uniqueIndex;not null"`
	Correo       string `gorm:"uniqueIndex;not null"`
	PasswordHash string `gorm:"not null"`
	Rol          Rol    `gorm:"type:varchar(20);not null"`
	Estado       string `gorm:"type:varchar(20);not null;default:habilitado"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (u *Usuario) Habilitado() bool { return u.Estado == EstadoHabilitado }
