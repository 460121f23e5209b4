package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup or a conditional write matched no row.
	ErrNotFound = errors.New("registro no encontrado")
	// ErrDuplicate is returned on unique constraint violations.
	ErrDuplicate = errors.New("registro duplicado")
	// ErrInUse is returned when a foreign key still references the row.
	ErrInUse = errors.New("registro en uso")
)

// translate maps GORM errors (with TranslateError enabled) to repository errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrDuplicate
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return ErrInUse
	}
	return err
}
