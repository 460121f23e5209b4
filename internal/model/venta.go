package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	VentaActiva  = "activa"
	VentaAnulada = "anulada"
)

// Venta is a sale header. It is created together with its lines and can be
// voided exactly once.
type Venta struct {
	ID         uint            `gorm:"primaryKey"`
	UsuarioID  uint            `gorm:"index;not null"`
	Total      decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Estado     string          `gorm:"type:varchar(20);index;not null;default:activa"`
	AnuladaPor *uint
	AnuladaAt  *time.Time
	CreatedAt  time.Time `gorm:"index"`
	UpdatedAt  time.Time

	Usuario *Usuario       `gorm:"foreignKey:UsuarioID"`
	Items   []DetalleVenta `gorm:"foreignKey:VentaID;constraint:OnDelete:CASCADE"`
}

// DetalleVenta is one sale line. PrecioUnitario is frozen at sale time.
type DetalleVenta struct {
	ID             uint            `gorm:"primaryKey"`
	VentaID        uint            `gorm:"index;not null"`
	ProductoID     uint            `gorm:"index;not null"`
	Cantidad       int             `gorm:"not null;check:cantidad > 0"`
	PrecioUnitario decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(12,2);not null"`

	Producto *Producto `gorm:"foreignKey:ProductoID;constraint:OnDelete:RESTRICT"`
}

func (DetalleVenta) TableName() string { return "detalle_ventas" }
