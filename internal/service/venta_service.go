package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/money"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"
	"github.com/JoaquinRodriguez332/gesticom/internal/worker"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Actor is the authenticated user performing an operation.
type Actor struct {
	ID  uint
	Rol model.Rol
	IP  string
}

func (a Actor) IsOwner() bool { return a.Rol == model.RolOwner }

// BreakGuard reports whether a user is currently on an open break.
type BreakGuard interface {
	EnColacion(ctx context.Context, usuarioID uint) (bool, error)
}

// VentaAltaNotifier records an alert for large sales.
type VentaAltaNotifier interface {
	NotificarVentaAlta(ctx context.Context, ventaID, usuarioID uint, vendedor, total string) error
}

type VentaService interface {
	RegistrarVenta(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.RegistrarVentaResponse, error)
	AnularVenta(ctx context.Context, id uint, actor Actor) error
	ListVentas(ctx context.Context, filter dto.VentaFilter) ([]dto.VentaResponse, error)
	ObtenerVenta(ctx context.Context, id uint) (*dto.VentaResponse, error)
}

type ventaService struct {
	repo         repository.VentaRepository
	productoRepo repository.ProductoRepository
	usuarioRepo  repository.UsuarioRepository
	guard        BreakGuard
	notifier     VentaAltaNotifier
	efectos      *Efectos
	ventaAlta    decimal.Decimal
	loc          *time.Location
	now          func() time.Time
}

func NewVentaService(
	repo repository.VentaRepository,
	productoRepo repository.ProductoRepository,
	usuarioRepo repository.UsuarioRepository,
	guard BreakGuard,
	notifier VentaAltaNotifier,
	efectos *Efectos,
	ventaAlta int64,
	loc *time.Location,
) VentaService {
	if loc == nil {
		loc = time.UTC
	}
	return &ventaService{
		repo:         repo,
		productoRepo: productoRepo,
		usuarioRepo:  usuarioRepo,
		guard:        guard,
		notifier:     notifier,
		efectos:      efectos,
		ventaAlta:    decimal.NewFromInt(ventaAlta),
		loc:          loc,
		now:          time.Now,
	}
}

// runTx executes fn inside a GORM transaction when db is available,
// or calls fn(nil) directly when db is nil (unit test mode).
func runTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	if db == nil {
		return fn(nil)
	}
	return db.WithContext(ctx).Transaction(fn)
}

// lineaVenta is one aggregated product of the cart.
type lineaVenta struct {
	productoID uint
	cantidad   int
}

// ── RegistrarVenta ────────────────────────────────────────────────────────────
//   1. Validate cart and recompute the total
//   2. Reject sellers on an open break
//   3. Pre-check stock (outside TX) for a descriptive error
//   4. BEGIN TX: insert venta + lines, guarded decrement per product
//   5. COMMIT
//   6. (async) movements, threshold evaluation, large-sale alert

func (s *ventaService) RegistrarVenta(ctx context.Context, actor Actor, req dto.RegistrarVentaRequest) (*dto.RegistrarVentaResponse, error) {
	total, lineas, err := validarCarrito(req)
	if err != nil {
		return nil, err
	}

	enColacion, err := s.guard.EnColacion(ctx, actor.ID)
	if err != nil {
		return nil, fmt.Errorf("verificar colación: %w", err)
	}
	if enColacion {
		return nil, ErrOnBreak
	}

	ids := make([]uint, len(lineas))
	for i, l := range lineas {
		ids[i] = l.productoID
	}
	productos, err := s.productoRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	porID := make(map[uint]model.Producto, len(productos))
	for _, p := range productos {
		porID[p.ID] = p
	}
	for _, l := range lineas {
		p, ok := porID[l.productoID]
		if !ok {
			return nil, &ProductNotFoundError{ProductoID: l.productoID}
		}
		if p.Stock < l.cantidad {
			return nil, &InsufficientStockError{Producto: p.Nombre, Disponible: p.Stock, Solicitado: l.cantidad}
		}
	}

	venta := &model.Venta{
		UsuarioID: actor.ID,
		Total:     total,
		Estado:    model.VentaActiva,
	}
	for _, it := range req.Items {
		venta.Items = append(venta.Items, model.DetalleVenta{
			ProductoID:     it.ProductoID,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.PrecioUnitario.Mul(decimal.NewFromInt(int64(it.Cantidad))),
		})
	}

	err = runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, venta); err != nil {
			return fmt.Errorf("crear venta: %w", err)
		}
		for _, l := range lineas {
			ok, err := s.productoRepo.DecrementStockTx(tx, l.productoID, l.cantidad)
			if err != nil {
				return fmt.Errorf("descontar stock producto %d: %w", l.productoID, err)
			}
			if ok {
				continue
			}
			// Lost a race against another sale: report the current stock.
			p, err := s.productoRepo.FindByIDTx(tx, l.productoID)
			if err != nil {
				return &ProductNotFoundError{ProductoID: l.productoID}
			}
			return &InsufficientStockError{Producto: p.Nombre, Disponible: p.Stock, Solicitado: l.cantidad}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.despuesDeVenta(context.WithoutCancel(ctx), actor, venta, lineas, ids)

	return &dto.RegistrarVentaResponse{
		Message: "Venta creada exitosamente",
		VentaID: venta.ID,
		Total:   venta.Total,
	}, nil
}

// validarCarrito checks the cart, aggregates quantities per product and
// returns the server-side total.
func validarCarrito(req dto.RegistrarVentaRequest) (decimal.Decimal, []lineaVenta, error) {
	if len(req.Items) == 0 {
		return decimal.Zero, nil, validationf("La venta debe tener al menos un producto")
	}
	if !req.Total.IsPositive() {
		return decimal.Zero, nil, validationf("El total debe ser mayor a 0")
	}
	if !centavos(req.Total) {
		return decimal.Zero, nil, validationf("El total admite como máximo 2 decimales")
	}

	total := decimal.Zero
	cantidades := make(map[uint]int, len(req.Items))
	var orden []uint
	for _, it := range req.Items {
		if it.ProductoID == 0 {
			return decimal.Zero, nil, validationf("Producto inválido")
		}
		if it.Cantidad <= 0 {
			return decimal.Zero, nil, validationf("La cantidad debe ser mayor a 0")
		}
		if it.PrecioUnitario.IsNegative() {
			return decimal.Zero, nil, validationf("El precio unitario no puede ser negativo")
		}
		if !centavos(it.PrecioUnitario) {
			return decimal.Zero, nil, validationf("El precio unitario admite como máximo 2 decimales")
		}
		if _, seen := cantidades[it.ProductoID]; !seen {
			orden = append(orden, it.ProductoID)
		}
		cantidades[it.ProductoID] += it.Cantidad
		total = total.Add(it.PrecioUnitario.Mul(decimal.NewFromInt(int64(it.Cantidad))))
	}
	if !total.Equal(req.Total) {
		return decimal.Zero, nil, validationf("El total no coincide con el detalle de la venta (esperado %s)", total.StringFixed(2))
	}

	// Lock order is deterministic so concurrent sales cannot deadlock.
	sort.Slice(orden, func(a, b int) bool { return orden[a] < orden[b] })
	lineas := make([]lineaVenta, len(orden))
	for i, id := range orden {
		lineas[i] = lineaVenta{productoID: id, cantidad: cantidades[id]}
	}
	return total, lineas, nil
}

// centavos reports whether d fits the decimal(12,2) money columns without
// rounding; 1.500 is accepted, 0.333 is not.
func centavos(d decimal.Decimal) bool {
	return d.Equal(d.Round(2))
}

func (s *ventaService) nombreUsuario(ctx context.Context, id uint) string {
	u, err := s.usuarioRepo.FindByID(ctx, id)
	if err != nil {
		return fmt.Sprintf("usuario #%d", id)
	}
	return u.Nombre
}

func (s *ventaService) despuesDeVenta(ctx context.Context, actor Actor, venta *model.Venta, lineas []lineaVenta, ids []uint) {
	vendedor := s.nombreUsuario(ctx, actor.ID)
	s.efectos.Movimientos(ctx, worker.MovimientosPayload{
		Tipo:         model.MovimientoSalida,
		Usuario:      vendedor,
		Motivo:       fmt.Sprintf("Venta #%d", venta.ID),
		ReferenciaID: venta.ID,
		Lineas:       toMovLineas(lineas),
	})
	s.efectos.EvaluarStock(ctx, ids)

	if venta.Total.GreaterThan(s.ventaAlta) && s.notifier != nil {
		if err := s.notifier.NotificarVentaAlta(ctx, venta.ID, actor.ID, vendedor, money.FormatCLP(venta.Total)); err != nil {
			log.Warn().Err(err).Uint("venta_id", venta.ID).Msg("ventas: venta_alta notification failed")
		}
	}
}

func toMovLineas(lineas []lineaVenta) []worker.MovimientoLinea {
	out := make([]worker.MovimientoLinea, len(lineas))
	for i, l := range lineas {
		out[i] = worker.MovimientoLinea{ProductoID: l.productoID, Cantidad: l.cantidad}
	}
	return out
}

// ── AnularVenta ───────────────────────────────────────────────────────────────
// The conditional estado flip makes a second void of the same sale a 404,
// so stock is restored exactly once.

func (s *ventaService) AnularVenta(ctx context.Context, id uint, actor Actor) error {
	if !actor.IsOwner() {
		return ErrForbidden
	}

	var lineas []lineaVenta
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		ok, err := s.repo.AnularTx(tx, id, actor.ID, s.now())
		if err != nil {
			return fmt.Errorf("anular venta %d: %w", id, err)
		}
		if !ok {
			return ErrSaleNotFound
		}
		items, err := s.repo.FindItemsTx(tx, id)
		if err != nil {
			return fmt.Errorf("leer detalle venta %d: %w", id, err)
		}
		lineas = agregarItems(items)
		for _, l := range lineas {
			if err := s.productoRepo.IncrementStockTx(tx, l.productoID, l.cantidad); err != nil {
				return fmt.Errorf("restaurar stock producto %d: %w", l.productoID, err)
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	bg := context.WithoutCancel(ctx)
	ids := make([]uint, len(lineas))
	for i, l := range lineas {
		ids[i] = l.productoID
	}
	s.efectos.Movimientos(bg, worker.MovimientosPayload{
		Tipo:         model.MovimientoEntrada,
		Usuario:      s.nombreUsuario(bg, actor.ID),
		Motivo:       fmt.Sprintf("Anulación venta #%d", id),
		ReferenciaID: id,
		Lineas:       toMovLineas(lineas),
	})
	s.efectos.EvaluarStock(bg, ids)
	s.efectos.Actividad(bg, worker.ActividadPayload{
		UsuarioID:   actor.ID,
		Accion:      "ANULAR_VENTA",
		Descripcion: fmt.Sprintf("Venta #%d anulada", id),
		IPAddress:   actor.IP,
	})
	return nil
}

func agregarItems(items []model.DetalleVenta) []lineaVenta {
	cantidades := make(map[uint]int, len(items))
	for _, it := range items {
		cantidades[it.ProductoID] += it.Cantidad
	}
	out := make([]lineaVenta, 0, len(cantidades))
	for id, c := range cantidades {
		out = append(out, lineaVenta{productoID: id, cantidad: c})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].productoID < out[b].productoID })
	return out
}

// ── Consultas ─────────────────────────────────────────────────────────────────

func (s *ventaService) ListVentas(ctx context.Context, filter dto.VentaFilter) ([]dto.VentaResponse, error) {
	lf, err := s.toListFilter(filter)
	if err != nil {
		return nil, err
	}
	ventas, err := s.repo.List(ctx, lf)
	if err != nil {
		return nil, err
	}
	out := make([]dto.VentaResponse, len(ventas))
	for i := range ventas {
		out[i] = *ventaToResponse(&ventas[i])
	}
	return out, nil
}

func (s *ventaService) ObtenerVenta(ctx context.Context, id uint) (*dto.VentaResponse, error) {
	v, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return ventaToResponse(v), nil
}

// toListFilter parses the calendar dates in the business timezone; hasta is
// inclusive for the caller and exclusive for the query.
func (s *ventaService) toListFilter(f dto.VentaFilter) (repository.VentaListFilter, error) {
	lf := repository.VentaListFilter{Estado: f.Estado, UsuarioID: f.UsuarioID}
	if f.Desde != "" {
		d, err := time.ParseInLocation(dto.FechaLayout, f.Desde, s.loc)
		if err != nil {
			return lf, validationf("Fecha desde inválida")
		}
		lf.Desde = &d
	}
	if f.Hasta != "" {
		h, err := time.ParseInLocation(dto.FechaLayout, f.Hasta, s.loc)
		if err != nil {
			return lf, validationf("Fecha hasta inválida")
		}
		h = h.AddDate(0, 0, 1)
		lf.Hasta = &h
	}
	if lf.Desde != nil && lf.Hasta != nil && !lf.Desde.Before(*lf.Hasta) {
		return lf, validationf("La fecha desde debe ser anterior o igual a la fecha hasta")
	}
	return lf, nil
}

func ventaToResponse(v *model.Venta) *dto.VentaResponse {
	r := &dto.VentaResponse{
		ID:        v.ID,
		UsuarioID: v.UsuarioID,
		Total:     v.Total,
		Estado:    v.Estado,
		Fecha:     v.CreatedAt.Format(dto.TimestampLayout),
		Items:     make([]dto.ItemVentaResponse, len(v.Items)),
	}
	if v.Usuario != nil {
		r.VendedorNombre = v.Usuario.Nombre
	}
	if v.AnuladaAt != nil {
		at := v.AnuladaAt.Format(dto.TimestampLayout)
		r.AnuladaAt = &at
	}
	for i, it := range v.Items {
		item := dto.ItemVentaResponse{
			ProductoID:     it.ProductoID,
			Cantidad:       it.Cantidad,
			PrecioUnitario: it.PrecioUnitario,
			Subtotal:       it.Subtotal,
		}
		if it.Producto != nil {
			item.ProductoNombre = it.Producto.Nombre
		}
		r.Items[i] = item
	}
	return r
}
