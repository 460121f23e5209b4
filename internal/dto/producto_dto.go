package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type CrearProductoRequest struct {
	Codigo      string          `json:"codigo"      validate:"required,max=50"`
	Nombre      string          `json:"nombre"      validate:"required,min=2,max=120"`
	Descripcion string          `json:"descripcion" validate:"max=500"`
	Precio      decimal.Decimal `json:"precio"      validate:"min=0"`
	Stock       *int            `json:"stock"       validate:"required,min=0"`
	Categoria   string          `json:"categoria"   validate:"required"`
	Proveedor   string          `json:"proveedor"   validate:"required"`
}

type ActualizarProductoRequest struct {
	Nombre      string          `json:"nombre"      validate:"required,min=2,max=120"`
	Descripcion string          `json:"descripcion" validate:"max=500"`
	Precio      decimal.Decimal `json:"precio"      validate:"min=0"`
	Stock       *int            `json:"stock"       validate:"required,min=0"`
	Categoria   string          `json:"categoria"   validate:"required"`
	Proveedor   string          `json:"proveedor"   validate:"required"`
}

type ProductoFilter struct {
	Search string `form:"search"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type ProductoResponse struct {
	ID          uint            `json:"id"`
	Codigo      string          `json:"codigo"`
	Nombre      string          `json:"nombre"`
	Descripcion string          `json:"descripcion"`
	Precio      decimal.Decimal `json:"precio"`
	Stock       int             `json:"stock"`
	Categoria   string          `json:"categoria"`
	Proveedor   string          `json:"proveedor"`
	CreatedAt   string          `json:"created_at"`
	UpdatedAt   string          `json:"updated_at"`
}
