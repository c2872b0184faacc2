package repository

import (
	"context"
	"errors"

	"github.com/mr1hm/go-flood-watch/internal/models"
)

var ErrNotFound = errors.New("observation not found")

// ObservationRepository is the observation store.
type ObservationRepository interface {
	// List returns every observation, most recently updated first.
	List(ctx context.Context) ([]models.Observation, error)
	GetByID(ctx context.Context, id int64) (*models.Observation, error)
	// Update rewrites the status fields of one record and stamps lastUpdated.
	// It returns ErrNotFound when id has no record and a
	// *models.ValidationError when the update is incomplete.
	Update(ctx context.Context, id int64, u models.ObservationUpdate) (models.Change, error)
	// ReplaceAll clears the store and inserts records, returning them with
	// their assigned ids.
	ReplaceAll(ctx context.Context, records []models.Observation) ([]models.Observation, error)
}
