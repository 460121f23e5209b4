package dto

import "github.com/shopspring/decimal"

type DashboardMetricas struct {
	TotalProductos        int64           `json:"total_productos"`
	StockBajo             int64           `json:"stock_bajo"`
	SinStock              int64           `json:"sin_stock"`
	ValorInventario       decimal.Decimal `json:"valor_inventario"`
	VentasHoy             int64           `json:"ventas_hoy"`
	MontoVentasHoy        decimal.Decimal `json:"monto_ventas_hoy"`
	NotificacionesActivas int64           `json:"notificaciones_activas"`
}

// ReporteVentasFilter is bound from GET /api/reportes/ventas.
type ReporteVentasFilter struct {
	Desde string `form:"desde" validate:"omitempty,datetime=2006-01-02"`
	Hasta string `form:"hasta" validate:"omitempty,datetime=2006-01-02"`
}

type VentasPorDia struct {
	Fecha    string          `json:"fecha"`
	Cantidad int64           `json:"cantidad"`
	Monto    decimal.Decimal `json:"monto"`
}

type VentasPorVendedor struct {
	UsuarioID uint            `json:"usuario_id"`
	Nombre    string          `json:"nombre"`
	Cantidad  int64           `json:"cantidad"`
	Monto     decimal.Decimal `json:"monto"`
}

type InventarioPorCategoria struct {
	Categoria string          `json:"categoria"`
	Productos int64           `json:"productos"`
	Unidades  int64           `json:"unidades"`
	Valor     decimal.Decimal `json:"valor"`
}

type ReporteVentas struct {
	Desde                  string                   `json:"desde"`
	Hasta                  string                   `json:"hasta"`
	VentasTotales          int64                    `json:"ventas_totales"`
	MontoTotal             decimal.Decimal          `json:"monto_total"`
	ProductosVendidos      int64                    `json:"productos_vendidos"`
	VentasPorDia           []VentasPorDia           `json:"ventas_por_dia"`
	VentasPorVendedor      []VentasPorVendedor      `json:"ventas_por_vendedor"`
	InventarioPorCategoria []InventarioPorCategoria `json:"inventario_por_categoria"`
}
