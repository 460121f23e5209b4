package model

import "time"

const (
	MovimientoSalida  = "salida"
	MovimientoEntrada = "entrada"
)

// MovimientoInventario is an audit row for every stock change caused by a
// sale or a void. Written after the sale commits, so a missing row never
// means the stock change did not happen.
type MovimientoInventario struct {
	ID           uint   `gorm:"primaryKey"`
	ProductoID   uint   `gorm:"index;not null"`
	Tipo         string `gorm:"type:varchar(20);not null"`
	Cantidad     int    `gorm:"not null"`
	Usuario      string
	Motivo       string
	ReferenciaID *uint `gorm:"index"` // venta_id
	CreatedAt    time.Time
}

func (MovimientoInventario) TableName() string { return "movimientos_inventario" }

// LogActividad records user actions (login, user admin, voids). Best effort.
type LogActividad struct {
	ID          uint   `gorm:"primaryKey"`
	UsuarioID   uint   `gorm:"index;not null"`
	Accion      string `gorm:"type:varchar(40);not null"`
	Descripcion string
	IPAddress   string
	CreatedAt   time.Time
}

func (LogActividad) TableName() string { return "logs_actividad" }
