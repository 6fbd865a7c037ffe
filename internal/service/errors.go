package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fjod/go_booking/internal/domain"
)

var (
	ErrValidation      = errors.New("booking draft is incomplete")
	ErrBookingNotFound = errors.New("booking not found")
	ErrInvalidStatus   = errors.New("invalid booking status")
)

// ValidationError lists every field that keeps a draft from being committed.
// Nothing is mutated when it is returned.
type ValidationError struct {
	Fields []domain.FieldError
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		names = append(names, f.Field)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(names, ", "))
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
