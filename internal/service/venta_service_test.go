package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGuard struct {
	enColacion bool
	err        error
}

func (g stubGuard) EnColacion(context.Context, uint) (bool, error) { return g.enColacion, g.err }

type ventaAltaCall struct {
	ventaID  uint
	vendedor string
	total    string
}

type stubNotifier struct{ calls []ventaAltaCall }

func (n *stubNotifier) NotificarVentaAlta(_ context.Context, ventaID, _ uint, vendedor, total string) error {
	n.calls = append(n.calls, ventaAltaCall{ventaID, vendedor, total})
	return nil
}

type ventaFixture struct {
	svc       VentaService
	productos *stubProductoRepo
	ventas    *stubVentaRepo
	jobs      *stubJobs
	movs      *stubMovimientoRepo
	acts      *stubActividadRepo
	notifier  *stubNotifier
}

func newVentaFixture(t *testing.T, guard BreakGuard) *ventaFixture {
	t.Helper()
	f := &ventaFixture{
		productos: newStubProductoRepo(
			&model.Producto{ID: 1, Codigo: "ARR-1", Nombre: "Arroz", Precio: decimal.NewFromInt(1200), Stock: 10},
			&model.Producto{ID: 2, Codigo: "ACE-1", Nombre: "Aceite", Precio: decimal.NewFromInt(3500), Stock: 3},
		),
		ventas:   newStubVentaRepo(),
		jobs:     &stubJobs{},
		movs:     &stubMovimientoRepo{},
		acts:     &stubActividadRepo{},
		notifier: &stubNotifier{},
	}
	usuarios := newStubUsuarioRepo(
		testUser(1, "Dueña", model.RolOwner, "clave123"),
		testUser(2, "Pedro", model.RolWorker, "clave123"),
	)
	efectos := NewEfectos(f.jobs, f.movs, f.acts, "")
	f.svc = NewVentaService(f.ventas, f.productos, usuarios, guard, f.notifier, efectos, 10000, time.UTC)
	return f
}

func item(productoID uint, cantidad int, precio int64) dto.ItemVentaRequest {
	return dto.ItemVentaRequest{ProductoID: productoID, Cantidad: cantidad, PrecioUnitario: decimal.NewFromInt(precio)}
}

var (
	ownerActor  = Actor{ID: 1, Rol: model.RolOwner}
	workerActor = Actor{ID: 2, Rol: model.RolWorker}
)

func TestRegistrarVenta_Success(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})

	resp, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(1, 2, 1200), item(2, 1, 3500)},
		Total: decimal.NewFromInt(5900),
	})
	require.NoError(t, err)
	assert.Equal(t, "Venta creada exitosamente", resp.Message)
	assert.True(t, resp.Total.Equal(decimal.NewFromInt(5900)))

	assert.Equal(t, 8, f.productos.stock(1))
	assert.Equal(t, 2, f.productos.stock(2))

	v := f.ventas.ventas[resp.VentaID]
	require.NotNil(t, v)
	assert.Equal(t, model.VentaActiva, v.Estado)
	require.Len(t, v.Items, 2)
	assert.True(t, v.Items[0].Subtotal.Equal(decimal.NewFromInt(2400)))

	require.Len(t, f.jobs.movimientos, 1)
	assert.Equal(t, model.MovimientoSalida, f.jobs.movimientos[0].Tipo)
	assert.Equal(t, "Pedro", f.jobs.movimientos[0].Usuario)
	assert.Equal(t, [][]uint{{1, 2}}, f.jobs.stock)
	assert.Empty(t, f.notifier.calls)
}

func TestRegistrarVenta_AggregatesSameProduct(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})

	// 2 + 2 of a product with stock 3 must fail even though each line fits.
	_, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(2, 2, 3500), item(2, 2, 3500)},
		Total: decimal.NewFromInt(14000),
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, "Aceite", stockErr.Producto)
	assert.Equal(t, 3, stockErr.Disponible)
	assert.Equal(t, 4, stockErr.Solicitado)
	assert.Equal(t, 3, f.productos.stock(2))
	assert.Empty(t, f.ventas.ventas)
}

func TestRegistrarVenta_InsufficientStockMessage(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})

	_, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(2, 5, 3500)},
		Total: decimal.NewFromInt(17500),
	})
	require.Error(t, err)
	assert.Equal(t, "Stock insuficiente para Aceite. Disponible: 3, Solicitado: 5", err.Error())
}

func TestRegistrarVenta_Validation(t *testing.T) {
	cases := []struct {
		name string
		req  dto.RegistrarVentaRequest
	}{
		{"empty cart", dto.RegistrarVentaRequest{Total: decimal.NewFromInt(100)}},
		{"zero total", dto.RegistrarVentaRequest{Items: []dto.ItemVentaRequest{item(1, 1, 0)}, Total: decimal.Zero}},
		{"zero quantity", dto.RegistrarVentaRequest{Items: []dto.ItemVentaRequest{item(1, 0, 1200)}, Total: decimal.NewFromInt(1200)}},
		{"negative price", dto.RegistrarVentaRequest{Items: []dto.ItemVentaRequest{item(1, 1, -5)}, Total: decimal.NewFromInt(1)}},
		{"total mismatch", dto.RegistrarVentaRequest{Items: []dto.ItemVentaRequest{item(1, 2, 1200)}, Total: decimal.NewFromInt(2000)}},
		{"sub-cent unit price", dto.RegistrarVentaRequest{
			Items: []dto.ItemVentaRequest{{ProductoID: 1, Cantidad: 3, PrecioUnitario: decimal.RequireFromString("0.333")}},
			Total: decimal.RequireFromString("0.999"),
		}},
		{"sub-cent total", dto.RegistrarVentaRequest{
			Items: []dto.ItemVentaRequest{item(1, 1, 1200)},
			Total: decimal.RequireFromString("1200.001"),
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newVentaFixture(t, stubGuard{})
			_, err := f.svc.RegistrarVenta(context.Background(), workerActor, tc.req)
			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, 10, f.productos.stock(1))
		})
	}
}

func TestRegistrarVenta_OnBreak(t *testing.T) {
	f := newVentaFixture(t, stubGuard{enColacion: true})

	_, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(1, 1, 1200)},
		Total: decimal.NewFromInt(1200),
	})
	assert.ErrorIs(t, err, ErrOnBreak)
	assert.Equal(t, 10, f.productos.stock(1))
}

func TestRegistrarVenta_GuardError(t *testing.T) {
	f := newVentaFixture(t, stubGuard{err: errors.New("db down")})

	_, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(1, 1, 1200)},
		Total: decimal.NewFromInt(1200),
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrOnBreak)
}

func TestRegistrarVenta_ProductNotFound(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})

	_, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(99, 1, 100)},
		Total: decimal.NewFromInt(100),
	})
	var nf *ProductNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, uint(99), nf.ProductoID)
}

func TestRegistrarVenta_LostRaceReportsCurrentStock(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})
	// Another sale takes 9 units between the pre-check and the decrement.
	f.productos.stealStock[1] = 9

	_, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(1, 2, 1200)},
		Total: decimal.NewFromInt(2400),
	})
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 1, stockErr.Disponible)
	assert.Equal(t, 2, stockErr.Solicitado)
	assert.Empty(t, f.jobs.movimientos)
}

func TestRegistrarVenta_LargeSaleNotifies(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})

	resp, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(1, 10, 1200)},
		Total: decimal.NewFromInt(12000),
	})
	require.NoError(t, err)
	require.Len(t, f.notifier.calls, 1)
	assert.Equal(t, ventaAltaCall{resp.VentaID, "Pedro", "$12.000"}, f.notifier.calls[0])
}

func TestRegistrarVenta_InlineFallbackWhenQueueDown(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})
	f.jobs.fail = true

	_, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(1, 1, 1200), item(2, 2, 3500)},
		Total: decimal.NewFromInt(8200),
	})
	require.NoError(t, err)
	require.Len(t, f.movs.rows, 2)
	assert.Equal(t, model.MovimientoSalida, f.movs.rows[0].Tipo)
	assert.Equal(t, uint(1), f.movs.rows[0].ProductoID)
	assert.Equal(t, 2, f.movs.rows[1].Cantidad)
}

func TestAnularVenta(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})
	resp, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(1, 3, 1200), item(1, 1, 1200)},
		Total: decimal.NewFromInt(4800),
	})
	require.NoError(t, err)
	require.Equal(t, 6, f.productos.stock(1))

	require.NoError(t, f.svc.AnularVenta(context.Background(), resp.VentaID, ownerActor))
	assert.Equal(t, 10, f.productos.stock(1))
	assert.Equal(t, model.VentaAnulada, f.ventas.ventas[resp.VentaID].Estado)
	require.NotNil(t, f.ventas.ventas[resp.VentaID].AnuladaPor)
	assert.Equal(t, uint(1), *f.ventas.ventas[resp.VentaID].AnuladaPor)

	require.Len(t, f.jobs.movimientos, 2)
	reversal := f.jobs.movimientos[1]
	assert.Equal(t, model.MovimientoEntrada, reversal.Tipo)
	require.Len(t, reversal.Lineas, 1)
	assert.Equal(t, 4, reversal.Lineas[0].Cantidad)
	require.Len(t, f.jobs.actividad, 1)
	assert.Equal(t, "ANULAR_VENTA", f.jobs.actividad[0].Accion)

	// A second void must not restore stock again.
	err = f.svc.AnularVenta(context.Background(), resp.VentaID, ownerActor)
	assert.ErrorIs(t, err, ErrSaleNotFound)
	assert.Equal(t, 10, f.productos.stock(1))
}

func TestAnularVenta_Forbidden(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})
	resp, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(1, 1, 1200)},
		Total: decimal.NewFromInt(1200),
	})
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.AnularVenta(context.Background(), resp.VentaID, workerActor), ErrForbidden)
	assert.Equal(t, model.VentaActiva, f.ventas.ventas[resp.VentaID].Estado)
}

func TestAnularVenta_Missing(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})
	assert.ErrorIs(t, f.svc.AnularVenta(context.Background(), 404, ownerActor), ErrSaleNotFound)
}

func TestListVentas(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})
	for i := 0; i < 2; i++ {
		_, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
			Items: []dto.ItemVentaRequest{item(1, 1, 1200)},
			Total: decimal.NewFromInt(1200),
		})
		require.NoError(t, err)
	}
	require.NoError(t, f.svc.AnularVenta(context.Background(), 1, ownerActor))

	all, err := f.svc.ListVentas(context.Background(), dto.VentaFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, uint(2), all[0].ID)

	activas, err := f.svc.ListVentas(context.Background(), dto.VentaFilter{Estado: model.VentaActiva})
	require.NoError(t, err)
	require.Len(t, activas, 1)
	assert.Equal(t, uint(2), activas[0].ID)

	_, err = f.svc.ListVentas(context.Background(), dto.VentaFilter{Desde: "2024-05-10", Hasta: "2024-05-01"})
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
}

func TestObtenerVenta(t *testing.T) {
	f := newVentaFixture(t, stubGuard{})
	resp, err := f.svc.RegistrarVenta(context.Background(), workerActor, dto.RegistrarVentaRequest{
		Items: []dto.ItemVentaRequest{item(2, 1, 3500)},
		Total: decimal.NewFromInt(3500),
	})
	require.NoError(t, err)

	v, err := f.svc.ObtenerVenta(context.Background(), resp.VentaID)
	require.NoError(t, err)
	require.Len(t, v.Items, 1)
	assert.True(t, v.Items[0].PrecioUnitario.Equal(decimal.NewFromInt(3500)))

	_, err = f.svc.ObtenerVenta(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
