package model

import "time"

const (
	NotifStockBajo = "stock_bajo"
	NotifSinStock  = "sin_stock"
	NotifVentaAlta = "venta_alta"
	NotifManual    = "manual"

	PrioridadBaja  = "baja"
	PrioridadMedia = "media"
	PrioridadAlta  = "alta"

	NotifActiva    = "activa"
	NotifLeida     = "leida"
	NotifArchivada = "archivada"
)

// Notificacion is an alert shown on the dashboard. Only active -> leida and
// active -> archivada transitions are allowed.
type Notificacion struct {
	ID           uint   `gorm:"primaryKey"`
	Tipo         string `gorm:"type:varchar(20);index;not null"`
	Titulo       string `gorm:"not null"`
	Mensaje      string `gorm:"type:text;not null"`
	ProductoID   *uint  `gorm:"index"`
	UsuarioID    *uint  `gorm:"index"`
	Prioridad    string `gorm:"type:varchar(10);not null;default:media"`
	Estado       string `gorm:"type:varchar(20);index;not null;default:activa"`
	FechaLectura *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID;constraint:OnDelete:SET NULL"`
	Usuario  *Usuario  `gorm:"foreignKey:UsuarioID;constraint:OnDelete:SET NULL"`
}

func (Notificacion) TableName() string { return "notificaciones" }

// IsStockAlert reports whether tipo is one of the threshold-driven alerts.
func IsStockAlert(tipo string) bool {
	return tipo == NotifStockBajo || tipo == NotifSinStock
}
