package services

import (
	"errors"
	"fmt"

	"flooring_crm/internal/apperrors"

	"gorm.io/gorm"
)

// storageError maps repository errors onto typed errors. what names the
// record, e.g. "order 12".
func storageError(err error, what string) error {
	if err == nil {
		return nil
	}
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperrors.NotFound(what + " not found")
	}
	return apperrors.Database(fmt.Sprintf("failed to access %s", what), err)
}
