package persistence

import (
	"errors"

	"github.com/invoicely/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// translateError maps gorm sentinel errors to domain errors. resource names
// the entity in the resulting message.
func translateError(err error, resource string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.NewNotFoundError(resource)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.NewDomainError(shared.ErrAlreadyExists.Code, resource+" already exists")
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return shared.NewDomainError("CONFLICT", resource+" is still referenced by other records")
	default:
		return err
	}
}

// requireAffected turns a zero-row write into a not-found error
func requireAffected(result *gorm.DB, resource string) error {
	if result.Error != nil {
		return translateError(result.Error, resource)
	}
	if result.RowsAffected == 0 {
		return shared.NewNotFoundError(resource)
	}
	return nil
}
