package router

import (
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/config"
	"github.com/JoaquinRodriguez332/gesticom/internal/handler"
	"github.com/JoaquinRodriguez332/gesticom/internal/infra"
	"github.com/JoaquinRodriguez332/gesticom/internal/middleware"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/observability"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"
	"github.com/JoaquinRodriguez332/gesticom/internal/service"
	"github.com/JoaquinRodriguez332/gesticom/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// App is the composed HTTP engine plus the job handlers the worker pool runs.
// Both share the same service instances.
type App struct {
	Engine *gin.Engine
	Jobs   worker.Handlers
}

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis
// mailer is nil when SMTP is not configured.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, mailer *infra.Mailer, metrics *observability.Metrics) *App {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS(cfg.AllowedOrigins()))
	r.Use(metrics.Middleware())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.RateLimit, time.Minute))

	// ── Repositories ─────────────────────────────────────────────────────────
	usuarioRepo := repository.NewUsuarioRepository(db)
	productoRepo := repository.NewProductoRepository(db)
	ventaRepo := repository.NewVentaRepository(db)
	horarioRepo := repository.NewHorarioRepository(db)
	notificacionRepo := repository.NewNotificacionRepository(db)
	movimientoRepo := repository.NewMovimientoRepository(db)
	actividadRepo := repository.NewActividadRepository(db)
	reporteRepo := repository.NewReporteRepository(db)

	// ── Services ─────────────────────────────────────────────────────────────
	alertEmail := ""
	if cfg.SMTPEnabled() {
		alertEmail = cfg.AlertEmail
	}
	// Worker dispatcher; services fall back to inline execution when Redis is down.
	efectos := service.NewEfectos(worker.NewDispatcher(rdb), movimientoRepo, actividadRepo, alertEmail)

	loc := cfg.Location()
	authSvc := service.NewAuthService(usuarioRepo, cfg, efectos)
	usuarioSvc := service.NewUsuarioService(usuarioRepo, efectos)
	productoSvc := service.NewProductoService(productoRepo, efectos)
	notificacionSvc := service.NewNotificacionService(notificacionRepo, productoRepo, efectos, cfg.DefaultStockThreshold)
	efectos.UseEvaluator(notificacionSvc)
	horarioSvc := service.NewHorarioService(horarioRepo, usuarioRepo, efectos, service.HorarioOptions{
		Location:     loc,
		DefaultLimit: cfg.HistoryDefaultLimit,
		MaxLimit:     cfg.HistoryMaxLimit,
	})
	ventaSvc := service.NewVentaService(ventaRepo, productoRepo, usuarioRepo, horarioSvc, notificacionSvc, efectos, cfg.LargeSaleThreshold, loc)
	reporteSvc := service.NewReporteService(reporteRepo, notificacionRepo, rdb, cfg.DefaultStockThreshold, loc)

	// ── Jobs ─────────────────────────────────────────────────────────────────
	var emailWorker *worker.EmailWorker
	var breaker handler.BreakerReporter
	if mailer != nil {
		emailWorker = worker.NewEmailWorker(mailer)
		breaker = mailer
	}
	jobs := metrics.InstrumentJobs(worker.NewHandlers(
		worker.NewAuditoriaWorker(movimientoRepo, actividadRepo),
		worker.NewAlertasWorker(notificacionSvc),
		emailWorker,
	))

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usuariosH := handler.NewUsuariosHandler(usuarioSvc)
	productosH := handler.NewProductosHandler(productoSvc)
	horariosH := handler.NewHorariosHandler(horarioSvc)
	ventasH := handler.NewVentasHandler(ventaSvc)
	notificacionesH := handler.NewNotificacionesHandler(notificacionSvc)
	reportesH := handler.NewReportesHandler(reporteSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb, breaker))
	r.GET("/metrics", metrics.Handler())

	api := r.Group("/api")
	api.POST("/auth/login", middleware.LoginRateLimiter(), authH.Login)

	// Protected routes
	owner := middleware.RequireRole(model.RolOwner)
	p := api.Group("", middleware.JWTAuth(cfg.JWTSecret, authSvc))
	{
		auth := p.Group("/auth")
		{
			auth.POST("/logout", authH.Logout)
			auth.GET("/me", authH.Me)
			auth.PUT("/change-password", authH.CambiarPassword)
		}

		horarios := p.Group("/horarios")
		{
			horarios.POST("/marcar", horariosH.Marcar)
			horarios.GET("/mis-registros", horariosH.MisRegistros)
			horarios.GET("/estado-colacion", horariosH.EstadoColacion)
			horarios.GET("/reportes", owner, horariosH.Reporte)
			horarios.GET("/reportes/pdf", owner, horariosH.ReportePDF)
			horarios.GET("/estadisticas", owner, horariosH.Estadisticas)
		}

		ventas := p.Group("/ventas")
		{
			ventas.GET("", ventasH.ListVentas)
			ventas.GET("/:id", ventasH.ObtenerVenta)
			ventas.POST("", middleware.Idempotency(rdb), ventasH.RegistrarVenta)
			ventas.PUT("/:id/anular", owner, ventasH.AnularVenta)
		}

		notif := p.Group("/notificaciones")
		{
			notif.GET("", notificacionesH.Listar)
			notif.GET("/stock-bajo", notificacionesH.StockBajo)
			notif.PUT("/:id/marcar-leida", notificacionesH.MarcarLeida)
			notif.PUT("/:id/archivar", notificacionesH.Archivar)
			notif.POST("/generar-alertas", owner, notificacionesH.GenerarAlertas)
			notif.DELETE("/:id", owner, notificacionesH.Eliminar)
			notif.GET("/configuracion", owner, notificacionesH.Configuracion)
			notif.POST("/configuracion", owner, notificacionesH.ActualizarConfiguracion)
			notif.POST("/crear", owner, notificacionesH.Crear)
		}

		// Owner manages accounts; get and update also serve a worker's own
		// profile and the service enforces the self-only rule.
		usuarios := p.Group("/usuarios")
		{
			usuarios.GET("", owner, usuariosH.Listar)
			usuarios.POST("", owner, usuariosH.Crear)
			usuarios.GET("/:id", usuariosH.Obtener)
			usuarios.PUT("/:id", usuariosH.Actualizar)
			usuarios.DELETE("/:id", owner, usuariosH.Eliminar)
			usuarios.PUT("/:id/toggle-status", owner, usuariosH.CambiarEstado)
		}

		// Catalog is readable by every role; writes are owner only.
		p.GET("/productos", productosH.Listar)
		p.GET("/productos/:id", productosH.ObtenerPorID)
		prods := p.Group("/productos", owner)
		{
			prods.POST("", productosH.Crear)
			prods.PUT("/:id", productosH.Actualizar)
			prods.DELETE("/:id", productosH.Eliminar)
		}

		p.GET("/dashboard/metricas", reportesH.Dashboard)
		p.GET("/reportes/ventas", owner, reportesH.Ventas)
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return &App{Engine: r, Jobs: jobs}
}
