// Package service implements the application's business logic on top of the
// repository layer.
package service

import (
	"errors"

	"quill/internal/models"

	"gorm.io/gorm"
)

// translate maps storage errors onto the application error taxonomy.
func translate(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return models.NewNotFoundError(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return models.NewConflictError(resource + " already exists")
	default:
		return models.NewInternalError(err)
	}
}
