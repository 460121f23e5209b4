package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/config"
	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"
	"github.com/JoaquinRodriguez332/gesticom/internal/worker"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	errCredenciales    = &AuthError{Msg: "Credenciales inválidas"}
	errCuentaDesactiva = &AuthError{Msg: "Tu cuenta está deshabilitada. Contacta al administrador."}
	errUsuarioInactivo = &AuthError{Msg: "Usuario no encontrado o inactivo"}
)

type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest, ip string) (*dto.LoginResponse, error)
	Logout(ctx context.Context, actor Actor)
	Me(ctx context.Context, id uint) (*dto.UsuarioResponse, error)
	CambiarPassword(ctx context.Context, actor Actor, req dto.ChangePasswordRequest) error
	// UsuarioActivo re-loads the token subject on every request so disabled
	// or deleted accounts lose access immediately.
	UsuarioActivo(ctx context.Context, id uint) (*model.Usuario, error)
}

type authService struct {
	repo    repository.UsuarioRepository
	cfg     *config.Config
	efectos *Efectos
}

func NewAuthService(repo repository.UsuarioRepository, cfg *config.Config, efectos *Efectos) AuthService {
	return &authService{repo: repo, cfg: cfg, efectos: efectos}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest, ip string) (*dto.LoginResponse, error) {
	user, err := s.repo.FindByCorreo(ctx, strings.TrimSpace(req.Email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errCredenciales
		}
		return nil, err
	}
	if !user.Habilitado() {
		return nil, errCuentaDesactiva
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, errCredenciales
	}

	token, err := s.generateToken(user, time.Duration(s.cfg.JWTExpirationHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	s.efectos.Actividad(context.WithoutCancel(ctx), worker.ActividadPayload{
		UsuarioID: user.ID, Accion: "LOGIN", Descripcion: "Inicio de sesión exitoso", IPAddress: ip,
	})

	return &dto.LoginResponse{
		Token:     token,
		ExpiresIn: s.cfg.JWTExpirationHours * 3600,
		Usuario:   dto.UsuarioToResponse(user),
	}, nil
}

// Logout only records the event: tokens are stateless and expire on their own.
func (s *authService) Logout(ctx context.Context, actor Actor) {
	s.efectos.Actividad(context.WithoutCancel(ctx), worker.ActividadPayload{
		UsuarioID: actor.ID, Accion: "LOGOUT", Descripcion: "Cierre de sesión", IPAddress: actor.IP,
	})
}

func (s *authService) Me(ctx context.Context, id uint) (*dto.UsuarioResponse, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	resp := dto.UsuarioToResponse(user)
	return &resp, nil
}

func (s *authService) CambiarPassword(ctx context.Context, actor Actor, req dto.ChangePasswordRequest) error {
	if err := checkPassword(req.NewPassword, "La nueva contraseña no cumple los requisitos"); err != nil {
		return err
	}
	user, err := s.repo.FindByID(ctx, actor.ID)
	if err != nil {
		return mapNotFound(err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		return validationf("Contraseña actual incorrecta")
	}
	hash, err := hashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return mapNotFound(err)
	}
	s.efectos.Actividad(context.WithoutCancel(ctx), worker.ActividadPayload{
		UsuarioID: actor.ID, Accion: "CHANGE_PASSWORD", Descripcion: "Cambio de contraseña", IPAddress: actor.IP,
	})
	return nil
}

func (s *authService) UsuarioActivo(ctx context.Context, id uint) (*model.Usuario, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, errUsuarioInactivo
		}
		return nil, err
	}
	if !user.Habilitado() {
		return nil, errUsuarioInactivo
	}
	return user, nil
}

func (s *authService) generateToken(user *model.Usuario, duration time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": user.ID,
		"rol":     string(user.Rol),
		"sub":     strconv.FormatUint(uint64(user.ID), 10),
		"exp":     now.Add(duration).Unix(),
		"iat":     now.Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
