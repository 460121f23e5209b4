package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/JoaquinRodriguez332/gesticom/internal/infra"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/service"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func init() { gin.SetMode(gin.TestMode) }

type stubResolver map[uint]*model.Usuario

func (r stubResolver) UsuarioActivo(_ context.Context, id uint) (*model.Usuario, error) {
	if id == 500 {
		return nil, errors.New("db down")
	}
	u, ok := r[id]
	if !ok || !u.Habilitado() {
		return nil, &service.AuthError{Msg: "Usuario no encontrado o inactivo"}
	}
	return u, nil
}

var users = stubResolver{
	1: {ID: 1, Nombre: "Marta", Rol: model.RolOwner, Estado: model.EstadoHabilitado},
	2: {ID: 2, Nombre: "Pedro", Rol: model.RolWorker, Estado: model.EstadoHabilitado},
	3: {ID: 3, Nombre: "Luis", Rol: model.RolWorker, Estado: model.EstadoDeshabilitado},
}

func token(t *testing.T, userID uint, rol string, key string, exp time.Duration) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"rol":     rol,
		"exp":     time.Now().Add(exp).Unix(),
	})
	s, err := tok.SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func protectedRouter(roles ...model.Rol) *gin.Engine {
	r := gin.New()
	r.GET("/x", JWTAuth(secret, users), RequireRole(roles...), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"user_id": GetClaims(c).UserID, "rol": GetClaims(c).Rol})
	})
	return r
}

func get(r http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestJWTAuth(t *testing.T) {
	r := protectedRouter(model.RolOwner, model.RolWorker)

	cases := []struct {
		name   string
		bearer string
		status int
		body   string
	}{
		{"valid", token(t, 2, "worker", secret, time.Hour), http.StatusOK, `"user_id":2`},
		{"missing", "", http.StatusUnauthorized, "Token no proporcionado"},
		{"wrong key", token(t, 2, "worker", "other", time.Hour), http.StatusUnauthorized, "Token inválido o expirado"},
		{"expired", token(t, 2, "worker", secret, -time.Minute), http.StatusUnauthorized, "Token inválido o expirado"},
		{"disabled user", token(t, 3, "worker", secret, time.Hour), http.StatusUnauthorized, "Usuario no encontrado o inactivo"},
		{"deleted user", token(t, 9, "worker", secret, time.Hour), http.StatusUnauthorized, "Usuario no encontrado o inactivo"},
		{"resolver failure", token(t, 500, "worker", secret, time.Hour), http.StatusInternalServerError, "Error interno del servidor"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := get(r, "/x", tc.bearer)
			assert.Equal(t, tc.status, w.Code)
			assert.Contains(t, w.Body.String(), tc.body)
		})
	}
}

func TestRequireRole_UsesCurrentRole(t *testing.T) {
	r := protectedRouter(model.RolOwner)

	assert.Equal(t, http.StatusOK, get(r, "/x", token(t, 1, "owner", secret, time.Hour)).Code)
	assert.Equal(t, http.StatusForbidden, get(r, "/x", token(t, 2, "worker", secret, time.Hour)).Code)
	// A stale token claiming owner does not outrank the stored role.
	assert.Equal(t, http.StatusForbidden, get(r, "/x", token(t, 2, "owner", secret, time.Hour)).Code)
}

func TestRequestID(t *testing.T) {
	r := gin.New()
	r.Use(RequestID())
	r.GET("/x", func(c *gin.Context) {
		c.String(http.StatusOK, infra.RequestID(c.Request.Context()))
	})

	w := get(r, "/x", "")
	id := w.Header().Get(RequestIDHeader)
	assert.Len(t, id, 36)
	assert.Equal(t, id, w.Body.String())

	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))
}

func TestCORS(t *testing.T) {
	r := gin.New()
	r.Use(CORS([]string{"http://localhost:3000"}))
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	req := httptest.NewRequest(http.MethodOptions, "/x", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("Origin", "http://evil.test")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
}

func TestWindowLimiter(t *testing.T) {
	l := newWindowLimiter(2, time.Minute)
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ok, _ := l.allow("1.1.1.1")
	assert.True(t, ok)
	ok, _ = l.allow("1.1.1.1")
	assert.True(t, ok)
	ok, _ = l.allow("1.1.1.1")
	assert.False(t, ok)
	ok, _ = l.allow("2.2.2.2")
	assert.True(t, ok)

	now = now.Add(61 * time.Second)
	ok, _ = l.allow("1.1.1.1")
	assert.True(t, ok)

	now = now.Add(10 * time.Minute)
	l.allow("3.3.3.3")
	assert.Len(t, l.entries, 1)
}

func TestLoginRateLimiter(t *testing.T) {
	r := gin.New()
	r.POST("/login", LoginRateLimiter(), func(c *gin.Context) { c.Status(http.StatusOK) })

	var last *httptest.ResponseRecorder
	for i := 0; i < 21; i++ {
		last = httptest.NewRecorder()
		r.ServeHTTP(last, httptest.NewRequest(http.MethodPost, "/login", nil))
	}
	assert.Equal(t, http.StatusTooManyRequests, last.Code)
	assert.NotEmpty(t, last.Header().Get("Retry-After"))
}

func TestIdempotency(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	status := http.StatusCreated
	calls := 0
	r := gin.New()
	r.POST("/ventas", JWTAuth(secret, users), Idempotency(rdb), func(c *gin.Context) {
		calls++
		c.Status(status)
	})
	post := func(key string) int {
		req := httptest.NewRequest(http.MethodPost, "/ventas", nil)
		req.Header.Set("Authorization", "Bearer "+token(t, 2, "worker", secret, time.Hour))
		if key != "" {
			req.Header.Set(IdempotencyHeader, key)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w.Code
	}

	assert.Equal(t, http.StatusCreated, post("k1"))
	assert.Equal(t, http.StatusConflict, post("k1"))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "done", mustGet(t, mr, "idem:2:k1"))
	assert.InDelta(t, idempotencyTTL.Seconds(), mr.TTL("idem:2:k1").Seconds(), 1)

	// Failed requests release the key.
	status = http.StatusBadRequest
	assert.Equal(t, http.StatusBadRequest, post("k2"))
	assert.False(t, mr.Exists("idem:2:k2"))
	status = http.StatusCreated
	assert.Equal(t, http.StatusCreated, post("k2"))

	// No header, no check.
	assert.Equal(t, http.StatusCreated, post(""))
	assert.Equal(t, http.StatusCreated, post(""))
}

func TestIdempotency_ReleasesAfterClientDisconnect(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	r := gin.New()
	r.POST("/ventas", JWTAuth(secret, users), Idempotency(rdb), func(c *gin.Context) {
		cancel()
		c.Status(http.StatusInternalServerError)
	})

	req := httptest.NewRequest(http.MethodPost, "/ventas", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer "+token(t, 2, "worker", secret, time.Hour))
	req.Header.Set(IdempotencyHeader, "k-gone")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.False(t, mr.Exists("idem:2:k-gone"))
}

func mustGet(t *testing.T, mr *miniredis.Miniredis, key string) string {
	t.Helper()
	v, err := mr.Get(key)
	require.NoError(t, err)
	return v
}
