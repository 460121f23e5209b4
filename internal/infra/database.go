package infra

import (
	"fmt"

	"github.com/JoaquinRodriguez332/gesticom/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewDatabase opens the pgx-backed GORM connection, migrates the schema and
// applies the idempotent patches AutoMigrate cannot express.
func NewDatabase(dsn, logLevel string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         NewGormLogger(MapGormLogLevel(logLevel)),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	if err := RunMigrations(db); err != nil {
		return nil, err
	}
	return db, nil
}

// Models lists every table owned by the service, in dependency order.
func Models() []any {
	return []any{
		&model.Usuario{},
		&model.Producto{},
		&model.ConfiguracionStock{},
		&model.Venta{},
		&model.DetalleVenta{},
		&model.RegistroHorario{},
		&model.Notificacion{},
		&model.MovimientoInventario{},
		&model.LogActividad{},
	}
}

// RunMigrations runs AutoMigrate and the schema patches. Safe to call on every
// start and from integration tests.
func RunMigrations(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("AutoMigrate: %w", err)
	}
	if err := applySchemaPatches(db); err != nil {
		return fmt.Errorf("schema patches: %w", err)
	}
	return nil
}

// applySchemaPatches runs DDL that GORM tags cannot describe. Every statement
// is guarded so re-running on a patched DB is a no-op.
func applySchemaPatches(db *gorm.DB) error {
	patches := []struct{ descr, sql string }{
		// At most one active stock alert per product. Concurrent evaluations
		// racing past the existence check hit this index instead of duplicating.
		{"unique active stock alert", `
CREATE UNIQUE INDEX IF NOT EXISTS idx_notificaciones_stock_activa
    ON notificaciones (producto_id)
    WHERE estado = 'activa' AND tipo IN ('stock_bajo', 'sin_stock')`},
		{"rol check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_usuarios_rol') THEN
    ALTER TABLE usuarios ADD CONSTRAINT chk_usuarios_rol CHECK (rol IN ('owner', 'worker'));
  END IF;
END $$`},
		{"venta estado check", `
DO $$ BEGIN
  IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'chk_ventas_estado') THEN
    ALTER TABLE ventas ADD CONSTRAINT chk_ventas_estado CHECK (estado IN ('activa', 'anulada'));
  END IF;
END $$`},
		{"registro horario lookup", `
CREATE INDEX IF NOT EXISTS idx_registros_horarios_fecha
    ON registros_horarios (fecha)`},
	}

	for _, p := range patches {
		if err := db.Exec(p.sql).Error; err != nil {
			return fmt.Errorf("patch %q: %w", p.descr, err)
		}
	}
	return nil
}
