package dto

import (
	"strings"

	"github.com/JoaquinRodriguez332/gesticom/internal/model"
)

// ─── Role labels ─────────────────────────────────────────────────────────────

// RolLabel maps the domain role to the label the dashboard shows.
func RolLabel(r model.Rol) string {
	if r == model.RolOwner {
		return "dueño"
	}
	return "trabajador"
}

// ParseRol accepts every spelling the dashboard has used over time.
func ParseRol(s string) (model.Rol, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "dueño", "dueno", "admin", "owner":
		return model.RolOwner, true
	case "trabajador", "worker":
		return model.RolWorker, true
	}
	return "", false
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required"`
}

type CrearUsuarioRequest struct {
	Nombre   string `json:"nombre"   validate:"required,min=2,max=100"`
	RUT      string `json:"rut"      validate:"required,rut"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Rol      string `json:"rol"      validate:"required,rol"`
}

type ActualizarUsuarioRequest struct {
	Nombre string `json:"nombre" validate:"required,min=2,max=100"`
	Email  string `json:"email"  validate:"required,email"`
	Rol    string `json:"rol"    validate:"omitempty,rol"`
}

// UsuarioFilter is bound from the query string of GET /api/usuarios.
type UsuarioFilter struct {
	Search string `form:"search"`
	Rol    string `form:"rol"`
	Activo string `form:"activo"` // "true" | "false" | ""
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type UsuarioResponse struct {
	ID            uint   `json:"id"`
	Nombre        string `json:"nombre"`
	RUT           string `json:"rut"`
	Email         string `json:"email"`
	Rol           string `json:"rol"`
	Activo        bool   `json:"activo"`
	FechaCreacion string `json:"fecha_creacion"`
}

type LoginResponse struct {
	Token     string          `json:"token"`
	ExpiresIn int             `json:"expires_in"` // seconds
	Usuario   UsuarioResponse `json:"usuario"`
}

type ToggleStatusResponse struct {
	Message string `json:"message"`
	Activo  bool   `json:"activo"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// UsuarioToResponse converts the persisted user into its public shape.
func UsuarioToResponse(u *model.Usuario) UsuarioResponse {
	return UsuarioResponse{
		ID:            u.ID,
		Nombre:        u.Nombre,
		RUT:           u.RUT,
		Email:         u.Correo,
		Rol:           RolLabel(u.Rol),
		Activo:        u.Habilitado(),
		FechaCreacion: u.CreatedAt.Format(TimestampLayout),
	}
}
