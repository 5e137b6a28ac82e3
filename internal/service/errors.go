package service

import (
	"errors"

	"gorm.io/gorm"

	"fleetops-service/internal/fleet"
)

var ErrInvalidInput = errors.New("invalid input")

// normalizeError folds storage errors into the fleet error taxonomy.
func normalizeError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fleet.ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return errors.Join(fleet.ErrConflict, err)
	}
	return err
}
