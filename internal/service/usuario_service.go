package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/repository"
	"github.com/JoaquinRodriguez332/gesticom/internal/rut"
	"github.com/JoaquinRodriguez332/gesticom/internal/worker"
)

type UsuarioService interface {
	Listar(ctx context.Context, filter dto.UsuarioFilter) ([]dto.UsuarioResponse, error)
	Obtener(ctx context.Context, actor Actor, id uint) (*dto.UsuarioResponse, error)
	Crear(ctx context.Context, actor Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error)
	Actualizar(ctx context.Context, actor Actor, id uint, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error)
	CambiarEstado(ctx context.Context, actor Actor, id uint) (*dto.ToggleStatusResponse, error)
	Eliminar(ctx context.Context, actor Actor, id uint) error
}

type usuarioService struct {
	repo    repository.UsuarioRepository
	efectos *Efectos
}

func NewUsuarioService(repo repository.UsuarioRepository, efectos *Efectos) UsuarioService {
	return &usuarioService{repo: repo, efectos: efectos}
}

func (s *usuarioService) Listar(ctx context.Context, filter dto.UsuarioFilter) ([]dto.UsuarioResponse, error) {
	users, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	out := make([]dto.UsuarioResponse, len(users))
	for i := range users {
		out[i] = dto.UsuarioToResponse(&users[i])
	}
	return out, nil
}

// Obtener lets owners read anyone and workers only themselves.
func (s *usuarioService) Obtener(ctx context.Context, actor Actor, id uint) (*dto.UsuarioResponse, error) {
	if !actor.IsOwner() && actor.ID != id {
		return nil, ErrForbidden
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	resp := dto.UsuarioToResponse(u)
	return &resp, nil
}

func (s *usuarioService) Crear(ctx context.Context, actor Actor, req dto.CrearUsuarioRequest) (*dto.UsuarioResponse, error) {
	if !actor.IsOwner() {
		return nil, ErrForbidden
	}
	if !rut.Valid(req.RUT) {
		return nil, validationf("RUT inválido")
	}
	if err := checkPassword(req.Password, "La contraseña no cumple los requisitos"); err != nil {
		return nil, err
	}
	rol, ok := dto.ParseRol(req.Rol)
	if !ok {
		return nil, validationf("Rol inválido")
	}

	normRUT := rut.Normalize(req.RUT)
	correo := strings.ToLower(strings.TrimSpace(req.Email))
	exists, err := s.repo.ExistsByRUTOrCorreo(ctx, normRUT, correo, 0)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, &ConflictError{Msg: "RUT o email ya están registrados"}
	}

	hash, err := hashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &model.Usuario{
		Nombre:       strings.TrimSpace(req.Nombre),
		RUT:          normRUT,
		Correo:       correo,
		PasswordHash: hash,
		Rol:          rol,
		Estado:       model.EstadoHabilitado,
	}
	if err := s.repo.Create(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Msg: "RUT o email ya están registrados"}
		}
		return nil, err
	}
	s.registrar(ctx, actor, "CREATE_USER", fmt.Sprintf("Usuario creado: %s", u.Nombre))
	resp := dto.UsuarioToResponse(u)
	return &resp, nil
}

// Actualizar lets owners edit anyone. Workers may edit only their own name
// and e-mail.
func (s *usuarioService) Actualizar(ctx context.Context, actor Actor, id uint, req dto.ActualizarUsuarioRequest) (*dto.UsuarioResponse, error) {
	if !actor.IsOwner() && actor.ID != id {
		return nil, &forbiddenError{Msg: "No tienes permisos para editar este usuario"}
	}
	var nuevoRol model.Rol
	if req.Rol != "" {
		r, ok := dto.ParseRol(req.Rol)
		if !ok {
			return nil, validationf("Rol inválido")
		}
		nuevoRol = r
	}

	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	if nuevoRol != "" && nuevoRol != u.Rol && (actor.ID == id || !actor.IsOwner()) {
		return nil, &forbiddenError{Msg: "No puedes cambiar tu propio rol"}
	}

	correo := strings.ToLower(strings.TrimSpace(req.Email))
	taken, err := s.repo.ExistsByCorreo(ctx, correo, id)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, &ConflictError{Msg: "El email ya está en uso"}
	}

	u.Nombre = strings.TrimSpace(req.Nombre)
	u.Correo = correo
	if nuevoRol != "" {
		u.Rol = nuevoRol
	}
	if err := s.repo.Update(ctx, u); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &ConflictError{Msg: "El email ya está en uso"}
		}
		return nil, err
	}
	s.registrar(ctx, actor, "UPDATE_USER", fmt.Sprintf("Usuario actualizado: %s", u.Nombre))
	resp := dto.UsuarioToResponse(u)
	return &resp, nil
}

func (s *usuarioService) CambiarEstado(ctx context.Context, actor Actor, id uint) (*dto.ToggleStatusResponse, error) {
	if !actor.IsOwner() {
		return nil, ErrForbidden
	}
	if actor.ID == id {
		return nil, validationf("No puedes desactivar tu propia cuenta")
	}
	u, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	nuevo := model.EstadoDeshabilitado
	if !u.Habilitado() {
		nuevo = model.EstadoHabilitado
	}
	if err := s.repo.UpdateEstado(ctx, id, nuevo); err != nil {
		return nil, mapNotFound(err)
	}
	activo := nuevo == model.EstadoHabilitado
	verbo := "desactivado"
	if activo {
		verbo = "activado"
	}
	s.registrar(ctx, actor, "TOGGLE_USER_STATUS", fmt.Sprintf("Usuario %s: %s", verbo, u.Nombre))
	return &dto.ToggleStatusResponse{
		Message: fmt.Sprintf("Usuario %s exitosamente", verbo),
		Activo:  activo,
	}, nil
}

func (s *usuarioService) Eliminar(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsOwner() {
		return ErrForbidden
	}
	if actor.ID == id {
		return validationf("No puedes eliminar tu propia cuenta")
	}
	err := s.repo.Delete(ctx, id)
	switch {
	case errors.Is(err, repository.ErrInUse):
		return &ConflictError{Msg: "El usuario tiene ventas o registros asociados; desactívalo en su lugar"}
	case err != nil:
		return mapNotFound(err)
	}
	s.registrar(ctx, actor, "DELETE_USER", fmt.Sprintf("Usuario eliminado: #%d", id))
	return nil
}

func (s *usuarioService) registrar(ctx context.Context, actor Actor, accion, desc string) {
	s.efectos.Actividad(context.WithoutCancel(ctx), worker.ActividadPayload{
		UsuarioID: actor.ID, Accion: accion, Descripcion: desc, IPAddress: actor.IP,
	})
}
