package service

import (
	"context"
	"testing"

	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUsuarioFixture(t *testing.T) (UsuarioService, *stubUsuarioRepo, *stubActividadRepo) {
	t.Helper()
	repo := newStubUsuarioRepo(
		testUser(1, "Marta", model.RolOwner, "clave123"),
		testUser(2, "Pedro", model.RolWorker, "clave123"),
	)
	acts := &stubActividadRepo{}
	// No queue: activity rows are written inline.
	return NewUsuarioService(repo, NewEfectos(nil, nil, acts, "")), repo, acts
}

var (
	marta = Actor{ID: 1, Rol: model.RolOwner}
	pedro = Actor{ID: 2, Rol: model.RolWorker}
)

func TestCrearUsuario(t *testing.T) {
	svc, repo, acts := newUsuarioFixture(t)

	resp, err := svc.Crear(context.Background(), marta, dto.CrearUsuarioRequest{
		Nombre: " Ana ", RUT: "12.345.678-5", Email: "Ana@Tienda.cl", Password: "segura123", Rol: "trabajador",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ana", resp.Nombre)
	assert.Equal(t, "12345678-5", resp.RUT)
	assert.Equal(t, "ana@tienda.cl", resp.Email)
	assert.Equal(t, "trabajador", resp.Rol)
	assert.True(t, resp.Activo)
	assert.Equal(t, model.RolWorker, repo.users[resp.ID].Rol)
	assert.Equal(t, []string{"CREATE_USER"}, acts.acciones())
}

func TestCrearUsuario_Rejections(t *testing.T) {
	base := dto.CrearUsuarioRequest{Nombre: "Ana", RUT: "12345678-5", Email: "ana@tienda.cl", Password: "segura123", Rol: "worker"}

	t.Run("worker cannot create", func(t *testing.T) {
		svc, _, _ := newUsuarioFixture(t)
		_, err := svc.Crear(context.Background(), pedro, base)
		assert.ErrorIs(t, err, ErrForbidden)
	})
	t.Run("bad rut", func(t *testing.T) {
		svc, _, _ := newUsuarioFixture(t)
		req := base
		req.RUT = "12345678-9"
		_, err := svc.Crear(context.Background(), marta, req)
		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Equal(t, "RUT inválido", vErr.Msg)
	})
	t.Run("weak password", func(t *testing.T) {
		svc, _, _ := newUsuarioFixture(t)
		req := base
		req.Password = "soloLetras"
		_, err := svc.Crear(context.Background(), marta, req)
		var pwErr *PasswordError
		require.ErrorAs(t, err, &pwErr)
		assert.Equal(t, []string{"Debe contener al menos un número"}, pwErr.Details)
	})
	t.Run("duplicate email", func(t *testing.T) {
		svc, _, _ := newUsuarioFixture(t)
		req := base
		req.Email = "PEDRO@tienda.cl"
		_, err := svc.Crear(context.Background(), marta, req)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "RUT o email ya están registrados", conflict.Msg)
	})
}

func TestObtenerUsuario_Scopes(t *testing.T) {
	svc, _, _ := newUsuarioFixture(t)

	_, err := svc.Obtener(context.Background(), pedro, 2)
	require.NoError(t, err)
	_, err = svc.Obtener(context.Background(), pedro, 1)
	assert.ErrorIs(t, err, ErrForbidden)
	_, err = svc.Obtener(context.Background(), marta, 2)
	require.NoError(t, err)
	_, err = svc.Obtener(context.Background(), marta, 50)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestActualizarUsuario(t *testing.T) {
	t.Run("worker edits self", func(t *testing.T) {
		svc, repo, _ := newUsuarioFixture(t)
		resp, err := svc.Actualizar(context.Background(), pedro, 2, dto.ActualizarUsuarioRequest{Nombre: "Pedro P", Email: "pp@tienda.cl"})
		require.NoError(t, err)
		assert.Equal(t, "Pedro P", resp.Nombre)
		assert.Equal(t, "pp@tienda.cl", repo.users[2].Correo)
	})
	t.Run("worker cannot edit others", func(t *testing.T) {
		svc, _, _ := newUsuarioFixture(t)
		_, err := svc.Actualizar(context.Background(), pedro, 1, dto.ActualizarUsuarioRequest{Nombre: "X", Email: "x@tienda.cl"})
		assert.ErrorIs(t, err, ErrForbidden)
	})
	t.Run("worker cannot promote self", func(t *testing.T) {
		svc, _, _ := newUsuarioFixture(t)
		_, err := svc.Actualizar(context.Background(), pedro, 2, dto.ActualizarUsuarioRequest{Nombre: "Pedro", Email: "pedro@tienda.cl", Rol: "dueño"})
		require.ErrorIs(t, err, ErrForbidden)
		assert.Equal(t, "No puedes cambiar tu propio rol", err.Error())
	})
	t.Run("owner changes role", func(t *testing.T) {
		svc, repo, _ := newUsuarioFixture(t)
		resp, err := svc.Actualizar(context.Background(), marta, 2, dto.ActualizarUsuarioRequest{Nombre: "Pedro", Email: "pedro@tienda.cl", Rol: "admin"})
		require.NoError(t, err)
		assert.Equal(t, "dueño", resp.Rol)
		assert.Equal(t, model.RolOwner, repo.users[2].Rol)
	})
	t.Run("email taken", func(t *testing.T) {
		svc, _, _ := newUsuarioFixture(t)
		_, err := svc.Actualizar(context.Background(), marta, 2, dto.ActualizarUsuarioRequest{Nombre: "Pedro", Email: "marta@tienda.cl"})
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict)
		assert.Equal(t, "El email ya está en uso", conflict.Msg)
	})
}

func TestCambiarEstado(t *testing.T) {
	svc, repo, acts := newUsuarioFixture(t)

	resp, err := svc.CambiarEstado(context.Background(), marta, 2)
	require.NoError(t, err)
	assert.False(t, resp.Activo)
	assert.Equal(t, "Usuario desactivado exitosamente", resp.Message)
	assert.Equal(t, model.EstadoDeshabilitado, repo.users[2].Estado)

	resp, err = svc.CambiarEstado(context.Background(), marta, 2)
	require.NoError(t, err)
	assert.True(t, resp.Activo)

	_, err = svc.CambiarEstado(context.Background(), marta, 1)
	var vErr *ValidationError
	assert.ErrorAs(t, err, &vErr)
	_, err = svc.CambiarEstado(context.Background(), pedro, 1)
	assert.ErrorIs(t, err, ErrForbidden)

	assert.Equal(t, []string{"TOGGLE_USER_STATUS", "TOGGLE_USER_STATUS"}, acts.acciones())
}

func TestEliminarUsuario(t *testing.T) {
	svc, repo, _ := newUsuarioFixture(t)

	var vErr *ValidationError
	assert.ErrorAs(t, svc.Eliminar(context.Background(), marta, 1), &vErr)
	assert.ErrorIs(t, svc.Eliminar(context.Background(), pedro, 1), ErrForbidden)

	require.NoError(t, svc.Eliminar(context.Background(), marta, 2))
	assert.NotContains(t, repo.users, uint(2))
	assert.ErrorIs(t, svc.Eliminar(context.Background(), marta, 2), ErrNotFound)
}
