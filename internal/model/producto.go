package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Producto is a sellable catalog item. Stock never goes below zero: the
// column carries a CHECK constraint and sales decrement it conditionally.
type Producto struct {
	ID          uint   `gorm:"primaryKey"`
	Codigo      string `gorm:"uniqueIndex;not null"`
	Nombre      string `gorm:"index;not null"`
	Descripcion string
	Precio      decimal.Decimal `gorm:"type:decimal(12,2);not null;check:precio >= 0"`
	Stock       int             `gorm:"not null;default:0;check:stock >= 0"`
	Categoria   string          `gorm:"index;not null"`
	Proveedor   string          `gorm:"not null"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// ConfiguracionStock overrides the default low-stock threshold for one product.
type ConfiguracionStock struct {
	ID           uint `gorm:"primaryKey"`
	ProductoID   uint `gorm:"uniqueIndex;not null"`
	UmbralMinimo int  `gorm:"not null;check:umbral_minimo >= 0"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Producto *Producto `gorm:"foreignKey:ProductoID;constraint:OnDelete:CASCADE"`
}

func (ConfiguracionStock) TableName() string { return "configuracion_stock" }
