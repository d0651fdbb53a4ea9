package service

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
)

// ErrNotFound matches every *NotFoundError.
var ErrNotFound = errors.New("not found")

// NotFoundError names the resource and id that could not be located.
// Key replaces the id for lookups by name.
type NotFoundError struct {
	Resource string
	ID       uint
	Key      string
}

func (e *NotFoundError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("%s %q not found", e.Resource, e.Key)
	}
	return fmt.Sprintf("%s with ID %d not found", e.Resource, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

func notFound(resource string, id uint) error {
	return &NotFoundError{Resource: resource, ID: id}
}

// ValidationError reports input rejected before it reached the store.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s %s", e.Field, e.Message)
}

func invalid(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

func isRecordNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
