package handler

import (
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/JoaquinRodriguez332/gesticom/internal/apierror"
	"github.com/JoaquinRodriguez332/gesticom/internal/dto"
	"github.com/JoaquinRodriguez332/gesticom/internal/middleware"
	"github.com/JoaquinRodriguez332/gesticom/internal/model"
	"github.com/JoaquinRodriguez332/gesticom/internal/rut"
	"github.com/JoaquinRodriguez332/gesticom/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

func init() {
	// Register decimal.Decimal as a numeric type so that validator tags like
	// min=0, gt=0, required work without panicking ("Bad field type decimal.Decimal").
	validate.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if v, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := v.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})

	// Field errors are keyed by the name the client sent.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})

	_ = validate.RegisterValidation("rut", func(fl validator.FieldLevel) bool {
		return rut.Valid(fl.Field().String())
	})
	_ = validate.RegisterValidation("rol", func(fl validator.FieldLevel) bool {
		_, ok := dto.ParseRol(fl.Field().String())
		return ok
	})
}

// bindAndValidate binds JSON body and runs go-playground/validator tags.
// Returns false and writes the error response if validation fails; the
// caller should return immediately without writing another response.
func bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("JSON invalido: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

// bindQuery is bindAndValidate for query-string filters.
func bindQuery(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindQuery(req); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Parámetros inválidos: "+err.Error()))
		return false
	}
	return runValidation(c, req)
}

func runValidation(c *gin.Context, req interface{}) bool {
	err := validate.Struct(req)
	if err == nil {
		return true
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return false
	}
	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = fe.Tag()
	}
	c.JSON(http.StatusBadRequest, apierror.NewValidation(fields))
	return false
}

// parseID reads a positive numeric path parameter. Writes 400 on failure.
func parseID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, apierror.New("ID invalido"))
		return 0, false
	}
	return uint(id), true
}

// actorFrom builds the service actor from the verified JWT claims.
func actorFrom(c *gin.Context) service.Actor {
	a := service.Actor{IP: c.ClientIP()}
	if claims := middleware.GetClaims(c); claims != nil {
		a.ID = claims.UserID
		a.Rol = model.Rol(claims.Rol)
	}
	return a
}

// respondError maps a service error onto the HTTP envelope. Anything that is
// not a known domain error is logged and reported as a generic 500.
func respondError(c *gin.Context, err error) {
	var (
		validation *service.ValidationError
		stock      *service.InsufficientStockError
		missing    *service.ProductNotFoundError
		password   *service.PasswordError
		auth       *service.AuthError
		conflict   *service.ConflictError
		marked     *service.AlreadyMarkedError
		order      *service.CheckpointOrderError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &stock), errors.As(err, &missing),
		errors.Is(err, service.ErrInvalidCheckpoint):
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
	case errors.As(err, &password):
		c.JSON(http.StatusBadRequest, &apierror.DetailsError{Error: password.Msg, Details: password.Details})
	case errors.As(err, &auth):
		c.JSON(http.StatusUnauthorized, apierror.New(auth.Msg))
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, apierror.New(err.Error()))
	case errors.Is(err, service.ErrSaleNotFound), errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, apierror.New(err.Error()))
	case errors.As(err, &marked):
		hora := marked.Hora.Format(dto.HoraLayout)
		c.JSON(http.StatusConflict, &apierror.MarcacionError{Error: marked.Error(), YaMarcado: true, HoraExistente: &hora})
	case errors.As(err, &order):
		c.JSON(http.StatusConflict, &apierror.MarcacionError{Error: order.Msg})
	case errors.As(err, &conflict), errors.Is(err, service.ErrOnBreak):
		c.JSON(http.StatusConflict, apierror.New(err.Error()))
	default:
		_ = c.Error(err)
		log.Error().Err(err).
			Str("request_id", c.GetString(middleware.RequestIDKey)).
			Str("path", c.FullPath()).
			Msg("unhandled service error")
		c.JSON(http.StatusInternalServerError, apierror.New("Error interno del servidor"))
	}
}
