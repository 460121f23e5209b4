package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

type ItemVentaRequest struct {
	ProductoID     uint            `json:"producto_id"     validate:"required,gt=0"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
}

// RegistrarVentaRequest is the body of POST /api/ventas. Cart-level rules
// (non-empty, positive quantities, total) are checked by the service so the
// client gets a single descriptive message.
type RegistrarVentaRequest struct {
	Items []ItemVentaRequest `json:"items" validate:"dive"`
	Total decimal.Decimal    `json:"total"`
}

// VentaFilter is bound from the query string of GET /api/ventas.
type VentaFilter struct {
	Estado    string `form:"estado"    validate:"omitempty,oneof=activa anulada"`
	Desde     string `form:"desde"     validate:"omitempty,datetime=2006-01-02"`
	Hasta     string `form:"hasta"     validate:"omitempty,datetime=2006-01-02"`
	UsuarioID uint   `form:"usuario_id"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type RegistrarVentaResponse struct {
	Message string          `json:"message"`
	VentaID uint            `json:"venta_id"`
	Total   decimal.Decimal `json:"total"`
}

type ItemVentaResponse struct {
	ProductoID     uint            `json:"producto_id"`
	ProductoNombre string          `json:"producto_nombre"`
	Cantidad       int             `json:"cantidad"`
	PrecioUnitario decimal.Decimal `json:"precio_unitario"`
	Subtotal       decimal.Decimal `json:"subtotal"`
}

type VentaResponse struct {
	ID             uint                `json:"id"`
	UsuarioID      uint                `json:"usuario_id"`
	VendedorNombre string              `json:"vendedor_nombre"`
	Total          decimal.Decimal     `json:"total"`
	Estado         string              `json:"estado"`
	Fecha          string              `json:"fecha"`
	AnuladaAt      *string             `json:"anulada_at,omitempty"`
	Items          []ItemVentaResponse `json:"items"`
}
