package repository

import (
	"context"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InventarioResumen aggregates the product table for the dashboard.
type InventarioResumen struct {
	TotalProductos  int64
	StockBajo       int64
	SinStock        int64
	ValorInventario decimal.Decimal
}

// VentasResumen aggregates active sales in a time window.
type VentasResumen struct {
	Cantidad int64
	Monto    decimal.Decimal
}

type VentasDiaRow struct {
	Fecha    string
	Cantidad int64
	Monto    decimal.Decimal
}

type VentasVendedorRow struct {
	UsuarioID uint
	Nombre    string
	Cantidad  int64
	Monto     decimal.Decimal
}

type InventarioCategoriaRow struct {
	Categoria string
	Productos int64
	Unidades  int64
	Valor     decimal.Decimal
}

// ReporteRepository runs read-only aggregate queries. Sale windows are
// half-open: desde <= created_at < hasta. Only active sales are counted.
type ReporteRepository interface {
	Inventario(ctx context.Context, umbral int) (InventarioResumen, error)
	Ventas(ctx context.Context, desde, hasta time.Time) (VentasResumen, error)
	UnidadesVendidas(ctx context.Context, desde, hasta time.Time) (int64, error)
	VentasPorDia(ctx context.Context, desde, hasta time.Time, tz string) ([]VentasDiaRow, error)
	VentasPorVendedor(ctx context.Context, desde, hasta time.Time) ([]VentasVendedorRow, error)
	InventarioPorCategoria(ctx context.Context) ([]InventarioCategoriaRow, error)
}

type reporteRepo struct{ db *gorm.DB }

func NewReporteRepository(db *gorm.DB) ReporteRepository { return &reporteRepo{db: db} }

func (r *reporteRepo) Inventario(ctx context.Context, umbral int) (InventarioResumen, error) {
	var out InventarioResumen
	err := r.db.WithContext(ctx).Model(&model.Producto{}).
		Select(`COUNT(*) AS total_productos,
			COUNT(*) FILTER (WHERE stock > 0 AND stock <= ?) AS stock_bajo,
			COUNT(*) FILTER (WHERE stock = 0) AS sin_stock,
			COALESCE(SUM(precio * stock), 0) AS valor_inventario`, umbral).
		Scan(&out).Error
	return out, err
}

func (r *reporteRepo) ventasActivas(ctx context.Context, desde, hasta time.Time) *gorm.DB {
	return r.db.WithContext(ctx).Table("ventas").
		Where("ventas.estado = ? AND ventas.created_at >= ? AND ventas.created_at < ?",
			model.VentaActiva, desde, hasta)
}

func (r *reporteRepo) Ventas(ctx context.Context, desde, hasta time.Time) (VentasResumen, error) {
	var out VentasResumen
	err := r.ventasActivas(ctx, desde, hasta).
		Select("COUNT(*) AS cantidad, COALESCE(SUM(ventas.total), 0) AS monto").
		Scan(&out).Error
	return out, err
}

func (r *reporteRepo) UnidadesVendidas(ctx context.Context, desde, hasta time.Time) (int64, error) {
	var n int64
	err := r.ventasActivas(ctx, desde, hasta).
		Joins("JOIN detalle_ventas ON detalle_ventas.venta_id = ventas.id").
		Select("COALESCE(SUM(detalle_ventas.cantidad), 0)").
		Scan(&n).Error
	return n, err
}

func (r *reporteRepo) VentasPorDia(ctx context.Context, desde, hasta time.Time, tz string) ([]VentasDiaRow, error) {
	var rows []VentasDiaRow
	day := "TO_CHAR(ventas.created_at AT TIME ZONE ?, 'YYYY-MM-DD')"
	err := r.ventasActivas(ctx, desde, hasta).
		Select(day+" AS fecha, COUNT(*) AS cantidad, COALESCE(SUM(ventas.total), 0) AS monto", tz).
		Group("fecha").Order("fecha").
		Scan(&rows).Error
	return rows, err
}

func (r *reporteRepo) VentasPorVendedor(ctx context.Context, desde, hasta time.Time) ([]VentasVendedorRow, error) {
	var rows []VentasVendedorRow
	err := r.ventasActivas(ctx, desde, hasta).
		Joins("JOIN usuarios ON usuarios.id = ventas.usuario_id").
		Select("ventas.usuario_id, usuarios.nombre, COUNT(*) AS cantidad, COALESCE(SUM(ventas.total), 0) AS monto").
		Group("ventas.usuario_id, usuarios.nombre").
		Order("monto DESC").
		Scan(&rows).Error
	return rows, err
}

func (r *reporteRepo) InventarioPorCategoria(ctx context.Context) ([]InventarioCategoriaRow, error) {
	var rows []InventarioCategoriaRow
	err := r.db.WithContext(ctx).Model(&model.Producto{}).
		Select(`COALESCE(NULLIF(categoria, ''), 'Sin categoría') AS categoria,
			COUNT(*) AS productos,
			COALESCE(SUM(stock), 0) AS unidades,
			COALESCE(SUM(precio * stock), 0) AS valor`).
		Group("1").Order("valor DESC").
		Scan(&rows).Error
	return rows, err
}
