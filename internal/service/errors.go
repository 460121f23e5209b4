package service

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrForbidden         = errors.New("no tienes permisos para realizar esta accion")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrInvalidCheckpoint = errors.New("Tipo de marcación inválido")
	ErrOnBreak           = errors.New("No puedes registrar ventas mientras estás en colación")
	ErrSaleNotFound      = errors.New("Venta no encontrada o ya anulada")
)

// ValidationError is a client input problem reported as 400.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func validationf(format string, args ...interface{}) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// ConflictError is a uniqueness or state conflict reported as 409.
type ConflictError struct{ Msg string }

func (e *ConflictError) Error() string { return e.Msg }

// AuthError is a failed authentication reported as 401.
type AuthError struct{ Msg string }

func (e *AuthError) Error() string { return e.Msg }

// InsufficientStockError reports a sale line that exceeds available stock.
type InsufficientStockError struct {
	Producto   string
	Disponible int
	Solicitado int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("Stock insuficiente para %s. Disponible: %d, Solicitado: %d",
		e.Producto, e.Disponible, e.Solicitado)
}

// ProductNotFoundError reports a sale line with an unknown product.
type ProductNotFoundError struct{ ProductoID uint }

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("Producto con ID %d no encontrado", e.ProductoID)
}

// AlreadyMarkedError is returned when today's checkpoint is already set.
type AlreadyMarkedError struct {
	Checkpoint string
	Hora       time.Time
}

func (e *AlreadyMarkedError) Error() string {
	return fmt.Sprintf("La %s ya fue registrada hoy a las %s", e.Checkpoint, e.Hora.Format("15:04:05"))
}

// CheckpointOrderError is returned when a checkpoint is marked before the
// one it depends on.
type CheckpointOrderError struct{ Msg string }

func (e *CheckpointOrderError) Error() string { return e.Msg }

// forbiddenError is a 403 with a specific message. errors.Is(err,
// ErrForbidden) holds for it.
type forbiddenError struct{ Msg string }

func (e *forbiddenError) Error() string { return e.Msg }

func (e *forbiddenError) Is(target error) bool { return target == ErrForbidden }
