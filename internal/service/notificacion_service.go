package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"

	"github.com/rs/zerolog/log"
)

type NotificacionService interface {
	Listar(ctx context.Context) ([]dto.NotificacionResponse, error)
	StockBajo(ctx context.Context) ([]dto.StockBajoResponse, error)
	GenerarAlertas(ctx context.Context) (*dto.GenerarAlertasResponse, error)
	// EvaluarProductos applies the threshold rule to the given products only.
	EvaluarProductos(ctx context.Context, ids []uint) (generadas, archivadas int, err error)
	MarcarLeida(ctx context.Context, id uint) error
	Archivar(ctx context.Context, id uint) error
	Eliminar(ctx context.Context, id uint) error
	Crear(ctx context.Context, req dto.CrearNotificacionRequest) error
	// NotificarVentaAlta records a venta_alta alert for a sale above the
	// configured amount.
	NotificarVentaAlta(ctx context.Context, ventaID, usuarioID uint, vendedor, total string) error
	Configuracion(ctx context.Context) ([]dto.ConfiguracionStockResponse, error)
	ActualizarConfiguracion(ctx context.Context, req dto.ConfiguracionStockRequest) error
}

type notificacionService struct {
	repo          repository.NotificacionRepository
	productos     repository.ProductoRepository
	efectos       *Efectos
	defaultUmbral int
	now           func() time.Time
}

func NewNotificacionService(repo repository.NotificacionRepository, productos repository.ProductoRepository, efectos *Efectos, defaultUmbral int) NotificacionService {
	return &notificacionService{
		repo:          repo,
		productos:     productos,
		efectos:       efectos,
		defaultUmbral: defaultUmbral,
		now:           time.Now,
	}
}

func (s *notificacionService) Listar(ctx context.Context) ([]dto.NotificacionResponse, error) {
	ns, err := s.repo.ListActivas(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.NotificacionResponse, len(ns))
	for i := range ns {
		out[i] = notificacionToResponse(&ns[i])
	}
	return out, nil
}

func (s *notificacionService) umbralDe(umbrales map[uint]model.ConfiguracionStock, productoID uint) int {
	if cfg, ok := umbrales[productoID]; ok {
		return cfg.UmbralMinimo
	}
	return s.defaultUmbral
}

func (s *notificacionService) StockBajo(ctx context.Context) ([]dto.StockBajoResponse, error) {
	productos, err := s.productos.List(ctx, dto.ProductoFilter{})
	if err != nil {
		return nil, err
	}
	umbrales, err := s.repo.Umbrales(ctx)
	if err != nil {
		return nil, err
	}
	out := []dto.StockBajoResponse{}
	for i := range productos {
		u := s.umbralDe(umbrales, productos[i].ID)
		if productos[i].Stock <= u {
			out = append(out, dto.StockBajoResponse{ProductoResponse: *productoToResponse(&productos[i]), UmbralMinimo: u})
		}
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Stock < out[b].Stock })
	return out, nil
}

func (s *notificacionService) GenerarAlertas(ctx context.Context) (*dto.GenerarAlertasResponse, error) {
	productos, err := s.productos.List(ctx, dto.ProductoFilter{})
	if err != nil {
		return nil, err
	}
	gen, arch, err := s.evaluar(ctx, productos)
	if err != nil {
		return nil, err
	}
	return &dto.GenerarAlertasResponse{
		Mensaje:           fmt.Sprintf("Se generaron %d nuevas alertas de stock", gen),
		AlertasGeneradas:  gen,
		AlertasArchivadas: arch,
	}, nil
}

func (s *notificacionService) EvaluarProductos(ctx context.Context, ids []uint) (int, int, error) {
	productos, err := s.productos.FindByIDs(ctx, ids)
	if err != nil {
		return 0, 0, err
	}
	return s.evaluar(ctx, productos)
}

func (s *notificacionService) evaluar(ctx context.Context, productos []model.Producto) (int, int, error) {
	umbrales, err := s.repo.Umbrales(ctx)
	if err != nil {
		return 0, 0, err
	}
	var gen, arch int
	for i := range productos {
		g, a, err := s.evaluarProducto(ctx, &productos[i], s.umbralDe(umbrales, productos[i].ID))
		if err != nil {
			return gen, arch, fmt.Errorf("evaluar producto %d: %w", productos[i].ID, err)
		}
		gen += g
		arch += a
	}
	return gen, arch, nil
}

// evaluarProducto keeps at most one active stock alert per product, of the
// type that matches its current stock.
func (s *notificacionService) evaluarProducto(ctx context.Context, p *model.Producto, umbral int) (int, int, error) {
	activa, err := s.repo.FindActiveStockAlert(ctx, p.ID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return 0, 0, err
	}

	if p.Stock > umbral {
		if activa == nil {
			return 0, 0, nil
		}
		n, err := s.repo.ArchiveStockAlerts(ctx, p.ID)
		return 0, int(n), err
	}

	n := alertaStock(p, umbral)
	if activa != nil && activa.Tipo == n.Tipo {
		return 0, 0, nil
	}

	var arch int
	if activa != nil {
		archived, err := s.repo.ArchiveStockAlerts(ctx, p.ID)
		if err != nil {
			return 0, 0, err
		}
		arch = int(archived)
	}

	if err := s.repo.Create(ctx, n); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// another evaluation created it first
			return 0, arch, nil
		}
		return 0, arch, err
	}
	if n.Prioridad == model.PrioridadAlta {
		s.efectos.Email(ctx, n.Titulo+": "+p.Nombre, n.Mensaje)
	}
	return 1, arch, nil
}

func alertaStock(p *model.Producto, umbral int) *model.Notificacion {
	id := p.ID
	n := &model.Notificacion{
		ProductoID: &id,
		Estado:     model.NotifActiva,
	}
	if p.Stock == 0 {
		n.Tipo = model.NotifSinStock
		n.Prioridad = model.PrioridadAlta
		n.Titulo = "Sin Stock"
		n.Mensaje = fmt.Sprintf("El producto \"%s\" no tiene stock disponible", p.Nombre)
		return n
	}
	n.Tipo = model.NotifStockBajo
	n.Prioridad = model.PrioridadMedia
	n.Titulo = "Stock Bajo"
	n.Mensaje = fmt.Sprintf("El producto \"%s\" tiene solo %d unidades (mínimo: %d)", p.Nombre, p.Stock, umbral)
	return n
}

func (s *notificacionService) MarcarLeida(ctx context.Context, id uint) error {
	return mapNotFound(s.repo.Transition(ctx, id, model.NotifActiva, model.NotifLeida, s.now()))
}

func (s *notificacionService) Archivar(ctx context.Context, id uint) error {
	return mapNotFound(s.repo.Transition(ctx, id, model.NotifActiva, model.NotifArchivada, s.now()))
}

func (s *notificacionService) Eliminar(ctx context.Context, id uint) error {
	return mapNotFound(s.repo.Delete(ctx, id))
}

func (s *notificacionService) Crear(ctx context.Context, req dto.CrearNotificacionRequest) error {
	prioridad := req.Prioridad
	if prioridad == "" {
		prioridad = model.PrioridadMedia
	}
	n := &model.Notificacion{
		Tipo:       req.Tipo,
		Titulo:     req.Titulo,
		Mensaje:    req.Mensaje,
		UsuarioID:  req.UsuarioID,
		ProductoID: req.ProductoID,
		Prioridad:  prioridad,
		Estado:     model.NotifActiva,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicate):
			return &ConflictError{Msg: "Ya existe una alerta de stock activa para ese producto"}
		case errors.Is(err, repository.ErrInUse):
			return validationf("Producto o usuario inexistente")
		}
		return err
	}
	return nil
}

func (s *notificacionService) NotificarVentaAlta(ctx context.Context, ventaID, usuarioID uint, vendedor, total string) error {
	uid := usuarioID
	n := &model.Notificacion{
		Tipo:      model.NotifVentaAlta,
		Titulo:    "Venta Alta",
		Mensaje:   fmt.Sprintf("Venta #%d por %s realizada por %s", ventaID, total, vendedor),
		UsuarioID: &uid,
		Prioridad: model.PrioridadBaja,
		Estado:    model.NotifActiva,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}
	s.efectos.Email(ctx, n.Titulo, n.Mensaje)
	return nil
}

func (s *notificacionService) Configuracion(ctx context.Context) ([]dto.ConfiguracionStockResponse, error) {
	productos, err := s.productos.List(ctx, dto.ProductoFilter{})
	if err != nil {
		return nil, err
	}
	umbrales, err := s.repo.Umbrales(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ConfiguracionStockResponse, 0, len(productos))
	for _, p := range productos {
		row := dto.ConfiguracionStockResponse{
			ID: p.ID, Nombre: p.Nombre, Codigo: p.Codigo, Stock: p.Stock,
			UmbralMinimo: s.defaultUmbral,
		}
		if cfg, ok := umbrales[p.ID]; ok {
			id := cfg.ID
			row.ConfigID = &id
			row.UmbralMinimo = cfg.UmbralMinimo
		}
		out = append(out, row)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Nombre < out[b].Nombre })
	return out, nil
}

// ActualizarConfiguracion upserts the product threshold and re-evaluates
// its alerts against the new value.
func (s *notificacionService) ActualizarConfiguracion(ctx context.Context, req dto.ConfiguracionStockRequest) error {
	p, err := s.productos.FindByID(ctx, req.ProductoID)
	if err != nil {
		return mapNotFound(err)
	}
	if err := s.repo.UpsertUmbral(ctx, p.ID, *req.UmbralMinimo); err != nil {
		return err
	}
	if _, _, err := s.evaluarProducto(ctx, p, *req.UmbralMinimo); err != nil {
		log.Warn().Err(err).Uint("producto_id", p.ID).Msg("notificaciones: re-evaluation after threshold change failed")
	}
	return nil
}

func notificacionToResponse(n *model.Notificacion) dto.NotificacionResponse {
	r := dto.NotificacionResponse{
		ID:         n.ID,
		Tipo:       n.Tipo,
		Titulo:     n.Titulo,
		Mensaje:    n.Mensaje,
		ProductoID: n.ProductoID,
		UsuarioID:  n.UsuarioID,
		Prioridad:  n.Prioridad,
		Estado:     n.Estado,
		Fecha:      n.CreatedAt.Format(dto.TimestampLayout),
	}
	if n.Producto != nil {
		nombre, stock := n.Producto.Nombre, n.Producto.Stock
		r.ProductoNombre = &nombre
		r.StockActual = &stock
	}
	if n.Usuario != nil {
		nombre := n.Usuario.Nombre
		r.UsuarioNombre = &nombre
	}
	return r
}
