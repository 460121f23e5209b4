package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	dashboardCacheKey = "cache:dashboard:metricas"
	dashboardCacheTTL = 30 * time.Second
	reporteMaxDias    = 366
)

type ReporteService interface {
	Dashboard(ctx context.Context) (*dto.DashboardMetricas, error)
	Ventas(ctx context.Context, filter dto.ReporteVentasFilter) (*dto.ReporteVentas, error)
}

type reporteService struct {
	repo   repository.ReporteRepository
	notifs repository.NotificacionRepository
	rdb    *redis.Client
	umbral int
	loc    *time.Location
	now    func() time.Time
}

func NewReporteService(repo repository.ReporteRepository, notifs repository.NotificacionRepository, rdb *redis.Client, umbral int, loc *time.Location) ReporteService {
	if loc == nil {
		loc = time.UTC
	}
	return &reporteService{repo: repo, notifs: notifs, rdb: rdb, umbral: umbral, loc: loc, now: time.Now}
}

func (s *reporteService) dayBounds(t time.Time) (time.Time, time.Time) {
	t = t.In(s.loc)
	start := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, s.loc)
	return start, start.AddDate(0, 0, 1)
}

// Dashboard is served from Redis when a fresh copy exists. Cache errors
// fall through to the database.
func (s *reporteService) Dashboard(ctx context.Context) (*dto.DashboardMetricas, error) {
	if s.rdb != nil {
		raw, err := s.rdb.Get(ctx, dashboardCacheKey).Bytes()
		if err == nil {
			var m dto.DashboardMetricas
			if json.Unmarshal(raw, &m) == nil {
				return &m, nil
			}
		} else if !errors.Is(err, redis.Nil) {
			log.Warn().Err(err).Msg("reportes: dashboard cache read failed")
		}
	}

	desde, hasta := s.dayBounds(s.now())
	var (
		inv    repository.InventarioResumen
		ventas repository.VentasResumen
		notifs int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { inv, err = s.repo.Inventario(gctx, s.umbral); return })
	g.Go(func() (err error) { ventas, err = s.repo.Ventas(gctx, desde, hasta); return })
	g.Go(func() (err error) { notifs, err = s.notifs.CountActivas(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	m := &dto.DashboardMetricas{
		TotalProductos:        inv.TotalProductos,
		StockBajo:             inv.StockBajo,
		SinStock:              inv.SinStock,
		ValorInventario:       inv.ValorInventario,
		VentasHoy:             ventas.Cantidad,
		MontoVentasHoy:        ventas.Monto,
		NotificacionesActivas: notifs,
	}
	if s.rdb != nil {
		if raw, err := json.Marshal(m); err == nil {
			if err := s.rdb.Set(ctx, dashboardCacheKey, raw, dashboardCacheTTL).Err(); err != nil {
				log.Warn().Err(err).Msg("reportes: dashboard cache write failed")
			}
		}
	}
	return m, nil
}

// Ventas defaults to the last 30 days ending today.
func (s *reporteService) Ventas(ctx context.Context, filter dto.ReporteVentasFilter) (*dto.ReporteVentas, error) {
	hoy, _ := s.dayBounds(s.now())
	desde := hoy.AddDate(0, 0, -29)
	hasta := hoy
	if filter.Desde != "" {
		d, err := time.ParseInLocation(dto.FechaLayout, filter.Desde, s.loc)
		if err != nil {
			return nil, validationf("Fecha desde inválida")
		}
		desde = d
	}
	if filter.Hasta != "" {
		h, err := time.ParseInLocation(dto.FechaLayout, filter.Hasta, s.loc)
		if err != nil {
			return nil, validationf("Fecha hasta inválida")
		}
		hasta = h
	}
	if hasta.Before(desde) {
		return nil, validationf("La fecha desde debe ser anterior o igual a la fecha hasta")
	}
	if hasta.Sub(desde) > reporteMaxDias*24*time.Hour {
		return nil, validationf("El rango no puede superar %d días", reporteMaxDias)
	}
	fin := hasta.AddDate(0, 0, 1)

	out := &dto.ReporteVentas{
		Desde: desde.Format(dto.FechaLayout),
		Hasta: hasta.Format(dto.FechaLayout),
	}
	var (
		resumen  repository.VentasResumen
		unidades int64
		porDia   []repository.VentasDiaRow
		porVend  []repository.VentasVendedorRow
		porCat   []repository.InventarioCategoriaRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) { resumen, err = s.repo.Ventas(gctx, desde, fin); return })
	g.Go(func() (err error) { unidades, err = s.repo.UnidadesVendidas(gctx, desde, fin); return })
	g.Go(func() (err error) { porDia, err = s.repo.VentasPorDia(gctx, desde, fin, s.loc.String()); return })
	g.Go(func() (err error) { porVend, err = s.repo.VentasPorVendedor(gctx, desde, fin); return })
	g.Go(func() (err error) { porCat, err = s.repo.InventarioPorCategoria(gctx); return })
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out.VentasTotales = resumen.Cantidad
	out.MontoTotal = resumen.Monto
	out.ProductosVendidos = unidades
	out.VentasPorDia = make([]dto.VentasPorDia, len(porDia))
	for i, r := range porDia {
		out.VentasPorDia[i] = dto.VentasPorDia{Fecha: r.Fecha, Cantidad: r.Cantidad, Monto: r.Monto}
	}
	out.VentasPorVendedor = make([]dto.VentasPorVendedor, len(porVend))
	for i, r := range porVend {
		out.VentasPorVendedor[i] = dto.VentasPorVendedor{UsuarioID: r.UsuarioID, Nombre: r.Nombre, Cantidad: r.Cantidad, Monto: r.Monto}
	}
	out.InventarioPorCategoria = make([]dto.InventarioPorCategoria, len(porCat))
	for i, r := range porCat {
		out.InventarioPorCategoria[i] = dto.InventarioPorCategoria{Categoria: r.Categoria, Productos: r.Productos, Unidades: r.Unidades, Valor: r.Valor}
	}
	return out, nil
}
