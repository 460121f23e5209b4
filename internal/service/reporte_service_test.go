package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubReporteRepo struct {
	inventarioCalls atomic.Int32

	mu      sync.Mutex
	windows [][2]time.Time
}

func (r *stubReporteRepo) Inventario(_ context.Context, umbral int) (repository.InventarioResumen, error) {
	r.inventarioCalls.Add(1)
	return repository.InventarioResumen{TotalProductos: 12, StockBajo: 3, SinStock: 1, ValorInventario: decimal.NewFromInt(250000)}, nil
}

func (r *stubReporteRepo) Ventas(_ context.Context, desde, hasta time.Time) (repository.VentasResumen, error) {
	r.mu.Lock()
	r.windows = append(r.windows, [2]time.Time{desde, hasta})
	r.mu.Unlock()
	return repository.VentasResumen{Cantidad: 4, Monto: decimal.NewFromInt(18500)}, nil
}

func (r *stubReporteRepo) UnidadesVendidas(context.Context, time.Time, time.Time) (int64, error) {
	return 9, nil
}

func (r *stubReporteRepo) VentasPorDia(context.Context, time.Time, time.Time, string) ([]repository.VentasDiaRow, error) {
	return []repository.VentasDiaRow{{Fecha: "2024-05-02", Cantidad: 4, Monto: decimal.NewFromInt(18500)}}, nil
}

func (r *stubReporteRepo) VentasPorVendedor(context.Context, time.Time, time.Time) ([]repository.VentasVendedorRow, error) {
	return []repository.VentasVendedorRow{{UsuarioID: 2, Nombre: "Pedro", Cantidad: 4, Monto: decimal.NewFromInt(18500)}}, nil
}

func (r *stubReporteRepo) InventarioPorCategoria(context.Context) ([]repository.InventarioCategoriaRow, error) {
	return []repository.InventarioCategoriaRow{{Categoria: "Abarrotes", Productos: 12, Unidades: 80, Valor: decimal.NewFromInt(250000)}}, nil
}

func newReporteTest(t *testing.T, rdb *redis.Client) (*reporteService, *stubReporteRepo) {
	t.Helper()
	repo := &stubReporteRepo{}
	svc := NewReporteService(repo, newStubNotificacionRepo(), rdb, 5, santiago).(*reporteService)
	svc.now = func() time.Time { return time.Date(2024, 5, 2, 1, 30, 0, 0, time.UTC) } // 21:30 on May 1st in CLT
	return svc, repo
}

func TestDashboard_CachedInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	svc, repo := newReporteTest(t, rdb)

	m, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(12), m.TotalProductos)
	assert.Equal(t, int64(4), m.VentasHoy)
	assert.True(t, m.MontoVentasHoy.Equal(decimal.NewFromInt(18500)))

	require.Len(t, repo.windows, 1)
	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, santiago), repo.windows[0][0])
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, santiago), repo.windows[0][1])

	assert.True(t, mr.Exists(dashboardCacheKey))
	assert.Equal(t, dashboardCacheTTL, mr.TTL(dashboardCacheKey))

	again, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(1), repo.inventarioCalls.Load())
	assert.True(t, again.ValorInventario.Equal(decimal.NewFromInt(250000)))

	mr.FastForward(dashboardCacheTTL + time.Second)
	_, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.inventarioCalls.Load())
}

func TestDashboard_WithoutRedis(t *testing.T) {
	svc, repo := newReporteTest(t, nil)
	_, err := svc.Dashboard(context.Background())
	require.NoError(t, err)
	_, err = svc.Dashboard(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), repo.inventarioCalls.Load())
}

func TestReporteVentas_DefaultRange(t *testing.T) {
	svc, repo := newReporteTest(t, nil)

	r, err := svc.Ventas(context.Background(), dto.ReporteVentasFilter{})
	require.NoError(t, err)
	assert.Equal(t, "2024-04-02", r.Desde)
	assert.Equal(t, "2024-05-01", r.Hasta)
	assert.Equal(t, int64(4), r.VentasTotales)
	assert.Equal(t, int64(9), r.ProductosVendidos)
	require.Len(t, r.VentasPorVendedor, 1)
	assert.Equal(t, "Pedro", r.VentasPorVendedor[0].Nombre)
	require.Len(t, r.InventarioPorCategoria, 1)

	require.Len(t, repo.windows, 1)
	// hasta is inclusive: the query window ends at the start of the next day
	assert.Equal(t, time.Date(2024, 5, 2, 0, 0, 0, 0, santiago), repo.windows[0][1])
}

func TestReporteVentas_InvalidRanges(t *testing.T) {
	svc, _ := newReporteTest(t, nil)

	for _, f := range []dto.ReporteVentasFilter{
		{Desde: "2024-05-10", Hasta: "2024-05-01"},
		{Desde: "2022-01-01", Hasta: "2024-01-01"},
		{Desde: "mayo"},
	} {
		_, err := svc.Ventas(context.Background(), f)
		var vErr *ValidationError
		assert.ErrorAs(t, err, &vErr, "filter %+v", f)
	}
}
