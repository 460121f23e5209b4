// cmd/seeduser/main.go: creates or resets the first owner account.
// Uso: SEED_EMAIL=... SEED_PASSWORD=... SEED_RUT=... go run ./cmd/seeduser
package main

import (
	"context"
	"os"
	"strings"

	"github.com/JoaquinRodriguez332/gesticom/internal/config"
	"github.com/JoaquinRodriguez332/gesticom/internal/infra"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/rut"
	"github.com/JoaquinRodriguez332/gesticom/internal/service"

	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm/clause"
)

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}

	email := env("SEED_EMAIL", "duena@gesticom.cl")
	password := env("SEED_PASSWORD", "gesticom2024")
	nombre := env("SEED_NOMBRE", "Dueña Demo")
	rutOwner := rut.Normalize(env("SEED_RUT", "11.111.111-1"))

	if !rut.Valid(rutOwner) {
		log.Fatal().Str("rut", rutOwner).Msg("RUT inválido")
	}
	if problems := service.PasswordProblems(password); len(problems) > 0 {
		log.Fatal().Strs("problems", problems).Msg("contraseña no cumple la política")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), 12)
	if err != nil {
		log.Fatal().Err(err).Msg("bcrypt")
	}

	db, err := infra.NewDatabase(cfg.DatabaseURL, "warn")
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}

	owner := model.Usuario{
		Nombre:       nombre,
		RUT:          rutOwner,
		Correo:       email,
		PasswordHash: string(hash),
		Rol:          model.RolOwner,
		Estado:       model.EstadoHabilitado,
	}
	err = db.WithContext(context.Background()).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "correo"}},
		DoUpdates: clause.AssignmentColumns([]string{"password_hash", "nombre", "rol", "estado", "updated_at"}),
	}).Create(&owner).Error
	if err != nil {
		log.Fatal().Err(err).Msg("insert owner")
	}
	log.Info().Str("email", email).Msg("owner creado/actualizado")
}
