package service

import (
	"errors"
	"fmt"
)

// Таксономия ошибок сервисного слоя. Хендлеры сопоставляют их с HTTP-статусами
// через errors.Is.
var (
	ErrValidation         = errors.New("validation error")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrForbidden          = errors.New("admin access required")
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrSelfDeletion       = errors.New("cannot delete your own account")
	ErrCrypto             = errors.New("crypto failure")
	ErrInternal           = errors.New("internal error")
)

var (
	ErrDuplicateName     = fmt.Errorf("%w: key name already exists", ErrConflict)
	ErrDuplicateUsername = fmt.Errorf("%w: username already exists", ErrConflict)
)

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// internal оборачивает неожиданную ошибку хранилища; причина доступна через errors.Unwrap
// только для журнала сервера.
func internal(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrInternal, op, err)
}
