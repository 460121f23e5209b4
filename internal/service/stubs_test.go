package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"
	"github.com/JoaquinRodriguez332/gesticom/internal/worker"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// ── Usuarios ──────────────────────────────────────────────────────────────────

type stubUsuarioRepo struct {
	users  map[uint]*model.Usuario
	nextID uint
}

func newStubUsuarioRepo(users ...*model.Usuario) *stubUsuarioRepo {
	r := &stubUsuarioRepo{users: map[uint]*model.Usuario{}, nextID: 100}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUsuarioRepo) Create(_ context.Context, u *model.Usuario) error {
	r.nextID++
	u.ID = r.nextID
	u.CreatedAt = time.Now()
	r.users[u.ID] = u
	return nil
}

func (r *stubUsuarioRepo) FindByID(_ context.Context, id uint) (*model.Usuario, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *stubUsuarioRepo) FindByCorreo(_ context.Context, correo string) (*model.Usuario, error) {
	for _, u := range r.users {
		if strings.EqualFold(u.Correo, correo) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubUsuarioRepo) ExistsByRUTOrCorreo(_ context.Context, rut, correo string, excludeID uint) (bool, error) {
	for _, u := range r.users {
		if u.ID != excludeID && (u.RUT == rut || strings.EqualFold(u.Correo, correo)) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUsuarioRepo) ExistsByCorreo(_ context.Context, correo string, excludeID uint) (bool, error) {
	for _, u := range r.users {
		if u.ID != excludeID && strings.EqualFold(u.Correo, correo) {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubUsuarioRepo) List(_ context.Context, _ dto.UsuarioFilter) ([]model.Usuario, error) {
	return r.ListHabilitados(context.Background())
}

func (r *stubUsuarioRepo) ListHabilitados(_ context.Context) ([]model.Usuario, error) {
	var out []model.Usuario
	for _, u := range r.users {
		if u.Habilitado() {
			out = append(out, *u)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Nombre < out[b].Nombre })
	return out, nil
}

func (r *stubUsuarioRepo) CountHabilitados(_ context.Context, rol model.Rol) (int64, error) {
	var n int64
	for _, u := range r.users {
		if u.Habilitado() && u.Rol == rol {
			n++
		}
	}
	return n, nil
}

func (r *stubUsuarioRepo) Update(_ context.Context, u *model.Usuario) error {
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *stubUsuarioRepo) UpdateEstado(_ context.Context, id uint, estado string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.Estado = estado
	return nil
}

func (r *stubUsuarioRepo) UpdatePassword(_ context.Context, id uint, hash string) error {
	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (r *stubUsuarioRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

var _ repository.UsuarioRepository = (*stubUsuarioRepo)(nil)

func testUser(id uint, nombre string, rol model.Rol, password string) *model.Usuario {
	hash, _ := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	return &model.Usuario{
		ID:           id,
		Nombre:       nombre,
		RUT:          "11111111-1",
		Correo:       strings.ToLower(nombre) + "@tienda.cl",
		PasswordHash: string(hash),
		Rol:          rol,
		Estado:       model.EstadoHabilitado,
	}
}

// ── Productos ─────────────────────────────────────────────────────────────────

type stubProductoRepo struct {
	mu        sync.Mutex
	productos map[uint]*model.Producto
	nextID    uint
	// stealStock simulates a concurrent sale winning between the pre-check
	// and the guarded decrement.
	stealStock map[uint]int
	inUse      map[uint]bool
}

func newStubProductoRepo(ps ...*model.Producto) *stubProductoRepo {
	r := &stubProductoRepo{productos: map[uint]*model.Producto{}, nextID: 100, stealStock: map[uint]int{}, inUse: map[uint]bool{}}
	for _, p := range ps {
		r.productos[p.ID] = p
	}
	return r
}

func (r *stubProductoRepo) Create(_ context.Context, p *model.Producto) error {
	r.nextID++
	p.ID = r.nextID
	r.productos[p.ID] = p
	return nil
}

func (r *stubProductoRepo) FindByID(_ context.Context, id uint) (*model.Producto, error) {
	return r.FindByIDTx(nil, id)
}

func (r *stubProductoRepo) FindByIDTx(_ *gorm.DB, id uint) (*model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProductoRepo) FindByIDs(_ context.Context, ids []uint) ([]model.Producto, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []model.Producto
	for _, id := range ids {
		if p, ok := r.productos[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (r *stubProductoRepo) ExistsByCodigo(_ context.Context, codigo string) (bool, error) {
	for _, p := range r.productos {
		if p.Codigo == codigo {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubProductoRepo) List(_ context.Context, _ dto.ProductoFilter) ([]model.Producto, error) {
	var out []model.Producto
	for _, p := range r.productos {
		out = append(out, *p)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out, nil
}

func (r *stubProductoRepo) Update(_ context.Context, p *model.Producto) error {
	cp := *p
	r.productos[p.ID] = &cp
	return nil
}

func (r *stubProductoRepo) Delete(_ context.Context, id uint) error {
	if r.inUse[id] {
		return repository.ErrInUse
	}
	if _, ok := r.productos[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.productos, id)
	return nil
}

func (r *stubProductoRepo) DecrementStockTx(_ *gorm.DB, id uint, qty int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return false, nil
	}
	if n := r.stealStock[id]; n > 0 {
		p.Stock -= n
		delete(r.stealStock, id)
	}
	if p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	return true, nil
}

func (r *stubProductoRepo) IncrementStockTx(_ *gorm.DB, id uint, qty int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.productos[id]
	if !ok {
		return repository.ErrNotFound
	}
	p.Stock += qty
	return nil
}

func (r *stubProductoRepo) DB() *gorm.DB { return nil }

func (r *stubProductoRepo) stock(id uint) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.productos[id].Stock
}

var _ repository.ProductoRepository = (*stubProductoRepo)(nil)

// ── Ventas ────────────────────────────────────────────────────────────────────

type stubVentaRepo struct {
	ventas map[uint]*model.Venta
	nextID uint
}

func newStubVentaRepo() *stubVentaRepo {
	return &stubVentaRepo{ventas: map[uint]*model.Venta{}}
}

func (r *stubVentaRepo) CreateTx(_ *gorm.DB, v *model.Venta) error {
	r.nextID++
	v.ID = r.nextID
	v.CreatedAt = time.Now()
	for i := range v.Items {
		v.Items[i].VentaID = v.ID
	}
	r.ventas[v.ID] = v
	return nil
}

func (r *stubVentaRepo) FindByID(_ context.Context, id uint) (*model.Venta, error) {
	v, ok := r.ventas[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v, nil
}

func (r *stubVentaRepo) List(_ context.Context, f repository.VentaListFilter) ([]model.Venta, error) {
	var out []model.Venta
	for _, v := range r.ventas {
		if f.Estado != "" && v.Estado != f.Estado {
			continue
		}
		out = append(out, *v)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].ID > out[b].ID })
	return out, nil
}

func (r *stubVentaRepo) AnularTx(_ *gorm.DB, id, actorID uint, at time.Time) (bool, error) {
	v, ok := r.ventas[id]
	if !ok || v.Estado != model.VentaActiva {
		return false, nil
	}
	v.Estado = model.VentaAnulada
	v.AnuladaPor = &actorID
	v.AnuladaAt = &at
	return true, nil
}

func (r *stubVentaRepo) FindItemsTx(_ *gorm.DB, ventaID uint) ([]model.DetalleVenta, error) {
	v, ok := r.ventas[ventaID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return v.Items, nil
}

func (r *stubVentaRepo) DB() *gorm.DB { return nil }

var _ repository.VentaRepository = (*stubVentaRepo)(nil)

// ── Horarios ──────────────────────────────────────────────────────────────────

type horarioKey struct {
	usuarioID uint
	fecha     string
}

type stubHorarioRepo struct {
	regs   map[horarioKey]*model.RegistroHorario
	nextID uint
	// beforeMarcar runs inside MarcarTx before the conditional update, to
	// simulate a concurrent request.
	beforeMarcar func(reg *model.RegistroHorario)
}

func newStubHorarioRepo() *stubHorarioRepo {
	return &stubHorarioRepo{regs: map[horarioKey]*model.RegistroHorario{}}
}

func key(usuarioID uint, fecha time.Time) horarioKey {
	return horarioKey{usuarioID, fecha.Format("2006-01-02")}
}

func (r *stubHorarioRepo) Find(_ context.Context, usuarioID uint, fecha time.Time) (*model.RegistroHorario, error) {
	return r.FindTx(nil, usuarioID, fecha)
}

func (r *stubHorarioRepo) FindTx(_ *gorm.DB, usuarioID uint, fecha time.Time) (*model.RegistroHorario, error) {
	reg, ok := r.regs[key(usuarioID, fecha)]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *reg
	return &cp, nil
}

func (r *stubHorarioRepo) EnsureTx(_ *gorm.DB, usuarioID uint, fecha time.Time) error {
	k := key(usuarioID, fecha)
	if _, ok := r.regs[k]; !ok {
		r.nextID++
		r.regs[k] = &model.RegistroHorario{ID: r.nextID, UsuarioID: usuarioID, Fecha: fecha}
	}
	return nil
}

func (r *stubHorarioRepo) MarcarTx(_ *gorm.DB, usuarioID uint, fecha time.Time, c model.Checkpoint, hora time.Time) (bool, error) {
	reg, ok := r.regs[key(usuarioID, fecha)]
	if !ok {
		return false, nil
	}
	if r.beforeMarcar != nil {
		r.beforeMarcar(reg)
	}
	if reg.Hora(c) != nil {
		return false, nil
	}
	reg.SetHora(c, hora)
	return true, nil
}

func (r *stubHorarioRepo) ListByUsuario(_ context.Context, usuarioID uint, limit int) ([]model.RegistroHorario, error) {
	var out []model.RegistroHorario
	for _, reg := range r.regs {
		if reg.UsuarioID == usuarioID {
			out = append(out, *reg)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Fecha.After(out[b].Fecha) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *stubHorarioRepo) ListRango(_ context.Context, desde, hasta time.Time) ([]model.RegistroHorario, error) {
	var out []model.RegistroHorario
	for _, reg := range r.regs {
		if !reg.Fecha.Before(desde) && !reg.Fecha.After(hasta) {
			out = append(out, *reg)
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Fecha.After(out[b].Fecha) })
	return out, nil
}

func (r *stubHorarioRepo) DB() *gorm.DB { return nil }

func (r *stubHorarioRepo) put(reg *model.RegistroHorario) {
	r.nextID++
	reg.ID = r.nextID
	r.regs[key(reg.UsuarioID, reg.Fecha)] = reg
}

var _ repository.HorarioRepository = (*stubHorarioRepo)(nil)

// ── Notificaciones ────────────────────────────────────────────────────────────

type stubNotificacionRepo struct {
	notifs   map[uint]*model.Notificacion
	umbrales map[uint]model.ConfiguracionStock
	nextID   uint
}

func newStubNotificacionRepo() *stubNotificacionRepo {
	return &stubNotificacionRepo{notifs: map[uint]*model.Notificacion{}, umbrales: map[uint]model.ConfiguracionStock{}}
}

func (r *stubNotificacionRepo) Create(_ context.Context, n *model.Notificacion) error {
	if model.IsStockAlert(n.Tipo) && n.ProductoID != nil && n.Estado == model.NotifActiva {
		for _, ex := range r.notifs {
			if ex.ProductoID != nil && *ex.ProductoID == *n.ProductoID && model.IsStockAlert(ex.Tipo) && ex.Estado == model.NotifActiva {
				return repository.ErrDuplicate
			}
		}
	}
	r.nextID++
	n.ID = r.nextID
	n.CreatedAt = time.Now()
	r.notifs[n.ID] = n
	return nil
}

func (r *stubNotificacionRepo) ListActivas(_ context.Context) ([]model.Notificacion, error) {
	var out []model.Notificacion
	for _, n := range r.notifs {
		if n.Estado == model.NotifActiva {
			out = append(out, *n)
		}
	}
	return out, nil
}

func (r *stubNotificacionRepo) CountActivas(ctx context.Context) (int64, error) {
	ns, _ := r.ListActivas(ctx)
	return int64(len(ns)), nil
}

func (r *stubNotificacionRepo) Transition(_ context.Context, id uint, from, to string, at time.Time) error {
	n, ok := r.notifs[id]
	if !ok || n.Estado != from {
		return repository.ErrNotFound
	}
	n.Estado = to
	if to == model.NotifLeida {
		n.FechaLectura = &at
	}
	return nil
}

func (r *stubNotificacionRepo) Delete(_ context.Context, id uint) error {
	if _, ok := r.notifs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.notifs, id)
	return nil
}

func (r *stubNotificacionRepo) FindActiveStockAlert(_ context.Context, productoID uint) (*model.Notificacion, error) {
	for _, n := range r.notifs {
		if n.ProductoID != nil && *n.ProductoID == productoID && model.IsStockAlert(n.Tipo) && n.Estado == model.NotifActiva {
			cp := *n
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *stubNotificacionRepo) ArchiveStockAlerts(_ context.Context, productoID uint) (int64, error) {
	var n int64
	for _, x := range r.notifs {
		if x.ProductoID != nil && *x.ProductoID == productoID && model.IsStockAlert(x.Tipo) && x.Estado == model.NotifActiva {
			x.Estado = model.NotifArchivada
			n++
		}
	}
	return n, nil
}

func (r *stubNotificacionRepo) Umbrales(_ context.Context) (map[uint]model.ConfiguracionStock, error) {
	out := make(map[uint]model.ConfiguracionStock, len(r.umbrales))
	for k, v := range r.umbrales {
		out[k] = v
	}
	return out, nil
}

func (r *stubNotificacionRepo) UpsertUmbral(_ context.Context, productoID uint, umbral int) error {
	cfg := r.umbrales[productoID]
	if cfg.ID == 0 {
		cfg.ID = uint(len(r.umbrales) + 1)
	}
	cfg.ProductoID = productoID
	cfg.UmbralMinimo = umbral
	r.umbrales[productoID] = cfg
	return nil
}

func (r *stubNotificacionRepo) activas(tipo string) []model.Notificacion {
	var out []model.Notificacion
	for _, n := range r.notifs {
		if n.Estado == model.NotifActiva && n.Tipo == tipo {
			out = append(out, *n)
		}
	}
	return out
}

var _ repository.NotificacionRepository = (*stubNotificacionRepo)(nil)

// ── Side effects ──────────────────────────────────────────────────────────────

type stubMovimientoRepo struct{ rows []model.MovimientoInventario }

func (r *stubMovimientoRepo) CreateBatch(_ context.Context, ms []model.MovimientoInventario) error {
	r.rows = append(r.rows, ms...)
	return nil
}

func (r *stubMovimientoRepo) List(_ context.Context, _ repository.MovimientoFilter) ([]model.MovimientoInventario, int64, error) {
	return r.rows, int64(len(r.rows)), nil
}

type stubActividadRepo struct{ logs []model.LogActividad }

func (r *stubActividadRepo) Create(_ context.Context, l *model.LogActividad) error {
	r.logs = append(r.logs, *l)
	return nil
}

func (r *stubActividadRepo) ListByUsuario(_ context.Context, _ uint, _ int) ([]model.LogActividad, error) {
	return r.logs, nil
}

func (r *stubActividadRepo) acciones() []string {
	out := make([]string, len(r.logs))
	for i, l := range r.logs {
		out[i] = l.Accion
	}
	return out
}

// stubJobs records enqueued jobs. With fail set every enqueue errors so the
// inline fallback runs.
type stubJobs struct {
	fail        bool
	movimientos []worker.MovimientosPayload
	actividad   []worker.ActividadPayload
	stock       [][]uint
	emails      []worker.EmailJobPayload
}

var errQueueDown = errors.New("redis down")

func (j *stubJobs) EnqueueMovimientos(_ context.Context, p worker.MovimientosPayload) error {
	if j.fail {
		return errQueueDown
	}
	j.movimientos = append(j.movimientos, p)
	return nil
}

func (j *stubJobs) EnqueueActividad(_ context.Context, p worker.ActividadPayload) error {
	if j.fail {
		return errQueueDown
	}
	j.actividad = append(j.actividad, p)
	return nil
}

func (j *stubJobs) EnqueueEvaluarStock(_ context.Context, p worker.EvaluarStockPayload) error {
	if j.fail {
		return errQueueDown
	}
	j.stock = append(j.stock, p.ProductoIDs)
	return nil
}

func (j *stubJobs) EnqueueEmail(_ context.Context, p worker.EmailJobPayload) error {
	if j.fail {
		return errQueueDown
	}
	j.emails = append(j.emails, p)
	return nil
}

var _ JobDispatcher = (*stubJobs)(nil)
