package services

import (
	"errors"
	"fmt"

	"salonpro-agenda/models"
	"salonpro-agenda/store"

	"github.com/google/uuid"
)

// storeError translates store rejections into domain errors for entity/id.
func storeError(err error, entity string, id uuid.UUID) error {
	if err == nil {
		return nil
	}
	ref := ""
	if id != uuid.Nil {
		ref = id.String()
	}
	switch {
	case errors.Is(err, store.ErrForbidden):
		return models.NewPermissionError(entity, ref)
	case errors.Is(err, store.ErrNotFound):
		return models.NewNotFoundError(entity, ref)
	case errors.Is(err, store.ErrConflict):
		return &models.DomainError{Kind: models.KindDuplicateName, Entity: entity, ID: ref, Message: "already exists", Err: err}
	}
	return fmt.Errorf("%s %s: %w", entity, ref, err)
}
