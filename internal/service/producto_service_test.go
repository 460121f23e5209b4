package service

import (
	"context"
	"testing"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(n int) *int { return &n }

func TestCrearProducto(t *testing.T) {
	repo := newStubProductoRepo(producto(1, "ARR-1", 10))
	jobs := &stubJobs{}
	svc := NewProductoService(repo, NewEfectos(jobs, nil, nil, ""))

	resp, err := svc.Crear(context.Background(), dto.CrearProductoRequest{
		Codigo: " FID-1 ", Nombre: "Fideos", Precio: decimal.NewFromInt(990), Stock: intPtr(2),
		Categoria: "Abarrotes", Proveedor: "Carozzi",
	})
	require.NoError(t, err)
	assert.Equal(t, "FID-1", resp.Codigo)
	assert.Equal(t, 2, resp.Stock)
	assert.Equal(t, [][]uint{{resp.ID}}, jobs.stock)

	_, err = svc.Crear(context.Background(), dto.CrearProductoRequest{
		Codigo: "ARR-1", Nombre: "Otro arroz", Stock: intPtr(1), Categoria: "Abarrotes", Proveedor: "X",
	})
	var conflict *ConflictError
	assert.ErrorAs(t, err, &conflict)
}

func TestActualizarProducto_StockChangeReevaluates(t *testing.T) {
	repo := newStubProductoRepo(producto(1, "Arroz", 10))
	jobs := &stubJobs{}
	svc := NewProductoService(repo, NewEfectos(jobs, nil, nil, ""))

	req := dto.ActualizarProductoRequest{Nombre: "Arroz grado 1", Precio: decimal.NewFromInt(1300), Stock: intPtr(10), Categoria: "Abarrotes", Proveedor: "Tucapel"}
	resp, err := svc.Actualizar(context.Background(), 1, req)
	require.NoError(t, err)
	assert.Equal(t, "Arroz grado 1", resp.Nombre)
	assert.Empty(t, jobs.stock)

	req.Stock = intPtr(1)
	_, err = svc.Actualizar(context.Background(), 1, req)
	require.NoError(t, err)
	assert.Equal(t, [][]uint{{1}}, jobs.stock)

	_, err = svc.Actualizar(context.Background(), 42, req)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestEliminarProducto(t *testing.T) {
	repo := newStubProductoRepo(producto(1, "Arroz", 10), producto(2, "Sal", 3))
	repo.inUse[1] = true
	svc := NewProductoService(repo, nil)

	var conflict *ConflictError
	assert.ErrorAs(t, svc.Eliminar(context.Background(), 1), &conflict)
	require.NoError(t, svc.Eliminar(context.Background(), 2))
	assert.ErrorIs(t, svc.Eliminar(context.Background(), 2), ErrNotFound)

	_, err := svc.ObtenerPorID(context.Background(), 2)
	assert.ErrorIs(t, err, ErrNotFound)
	list, err := svc.Listar(context.Background(), dto.ProductoFilter{})
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
