// Package store is the data access layer over PostgreSQL. It persists
// places and their ratings and serves the combined read views that the
// HTTP surface returns.
//
// All queries are plain SQL through pgx, no ORM. Missing rows surface as
// coded not-found errors, never as nil results.
package store

import (
	"context"

	"github.com/ludimus/places-backend/pkg/clients/postgres"
	apperr "github.com/ludimus/places-backend/pkg/errors"
	"github.com/ludimus/places-backend/pkg/models"
)

// Repository is the storage contract for places and ratings.
//
// Read operations that produce rating views take the requesting user's
// identifier so the view can carry that user's own rating next to the
// aggregate.
type Repository interface {
	// CreatePlace inserts a new place record.
	CreatePlace(ctx context.Context, place *models.Place) error

	// GetPlace returns the raw place row by id.
	GetPlace(ctx context.Context, id string) (*models.Place, error)

	// GetPlaceWithRating returns the place by id together with its
	// average rating and the given user's own rating.
	GetPlaceWithRating(ctx context.Context, id, userID string) (*models.PlaceWithRating, error)

	// ListPlaces returns all places with rating views, ordered by name
	// ascending.
	ListPlaces(ctx context.Context, userID string) ([]*models.PlaceWithRating, error)

	// UpdatePlace overwrites the name and maps link of an existing
	// place. Returns a not-found error when no place with that id
	// exists.
	UpdatePlace(ctx context.Context, place *models.Place) error

	// DeletePlace removes a place and its ratings. Deleting an absent
	// place is not an error.
	DeletePlace(ctx context.Context, id string) error

	// RatePlace stores the user's rating for a place, replacing any
	// previous rating by the same user, and returns the refreshed
	// rating view.
	RatePlace(ctx context.Context, rating *models.Rating) (*models.PlaceWithRating, error)
}

// repository implements Repository over a pooled postgres client.
type repository struct {
	db *postgres.Client
}

// New creates a Repository backed by the given postgres client.
func New(db *postgres.Client) Repository {
	return &repository{db: db}
}

// wrapDBError adds a store-level message to a database error while
// preserving the code the client layer assigned. Unclassified errors
// become internal database errors.
func wrapDBError(err error, message string) error {
	code := apperr.GetCode(err)
	if code == "" {
		code = apperr.CodeInternalDatabase
	}
	return apperr.Wrap(err, code, message)
}
