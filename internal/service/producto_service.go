package service

import (
	"context"
	"errors"
	"strings"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"
)

// ProductoService defines the business logic contract for products.
type ProductoService interface {
	Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error)
	ObtenerPorID(ctx context.Context, id uint) (*dto.ProductoResponse, error)
	Listar(ctx context.Context, filter dto.ProductoFilter) ([]dto.ProductoResponse, error)
	Actualizar(ctx context.Context, id uint, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error)
	Eliminar(ctx context.Context, id uint) error
}

type productoService struct {
	repo    repository.ProductoRepository
	efectos *Efectos
}

func NewProductoService(repo repository.ProductoRepository, efectos *Efectos) ProductoService {
	return &productoService{repo: repo, efectos: efectos}
}

func (s *productoService) Crear(ctx context.Context, req dto.CrearProductoRequest) (*dto.ProductoResponse, error) {
	codigo := strings.TrimSpace(req.Codigo)
	exists, err := s.repo.ExistsByCodigo(ctx, codigo)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ConflictError{Msg: "Ya existe un producto con ese código"}
	}

	p := &model.Producto{
		Codigo:      codigo,
		Nombre:      strings.TrimSpace(req.Nombre),
		Descripcion: req.Descripcion,
		Precio:      req.Precio,
		Stock:       *req.Stock,
		Categoria:   req.Categoria,
		Proveedor:   req.Proveedor,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Msg: "Ya existe un producto con ese código"}
		}
		return nil, err
	}
	s.efectos.EvaluarStock(context.WithoutCancel(ctx), []uint{p.ID})
	return productoToResponse(p), nil
}

func (s *productoService) ObtenerPorID(ctx context.Context, id uint) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return productoToResponse(p), nil
}

func (s *productoService) Listar(ctx context.Context, filter dto.ProductoFilter) ([]dto.ProductoResponse, error) {
	productos, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductoResponse, len(productos))
	for i := range productos {
		out[i] = *productoToResponse(&productos[i])
	}
	return out, nil
}

// Actualizar replaces the editable fields. A stock change re-evaluates the
// product's alerts.
func (s *productoService) Actualizar(ctx context.Context, id uint, req dto.ActualizarProductoRequest) (*dto.ProductoResponse, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	stockAnterior := p.Stock

	p.Nombre = strings.TrimSpace(req.Nombre)
	p.Descripcion = req.Descripcion
	p.Precio = req.Precio
	p.Stock = *req.Stock
	p.Categoria = req.Categoria
	p.Proveedor = req.Proveedor
	if err := s.repo.Update(ctx, p); err != nil {
		return nil, err
	}
	if p.Stock != stockAnterior {
		s.efectos.EvaluarStock(context.WithoutCancel(ctx), []uint{p.ID})
	}
	return productoToResponse(p), nil
}

func (s *productoService) Eliminar(ctx context.Context, id uint) error {
	err := s.repo.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrInUse):
		return &ConflictError{Msg: "No se puede eliminar un producto con ventas asociadas"}
	case err != nil:
		return mapNotFound(err)
	}
	return nil
}

func productoToResponse(p *model.Producto) *dto.ProductoResponse {
	return &dto.ProductoResponse{
		ID:          p.ID,
		Codigo:      p.Codigo,
		Nombre:      p.Nombre,
		Descripcion: p.Descripcion,
		Precio:      p.Precio,
		Stock:       p.Stock,
		Categoria:   p.Categoria,
		Proveedor:   p.Proveedor,
		CreatedAt:   p.CreatedAt.Format(dto.TimestampLayout),
		UpdatedAt:   p.UpdatedAt.Format(dto.TimestampLayout),
	}
}

// mapNotFound converts the repository sentinel into the service one.
func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}
