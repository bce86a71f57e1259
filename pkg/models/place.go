// Package models defines the core data models for the places backend.
//
// The models in this package represent the central data structures shared
// between the storage layer and the HTTP surface. They are designed for
// JSON serialization and PostgreSQL persistence.
//
// The [Place] type is the primary record: a named location with a link to
// its map entry. Users attach a [Rating] to a place; each user holds at
// most one rating per place, and re-rating replaces the previous value.
// The read side combines both into [PlaceWithRating], which carries the
// aggregate average alongside the requesting user's own rating.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// Rating bounds. A rating is an integer number of stars; values outside
// this range are rejected before they reach storage.
const (
	MinRating = 1
	MaxRating = 5
)

// MaxNameLength bounds the length of a place name.
const MaxNameLength = 200

// MaxMapsLinkLength bounds the length of a maps link.
const MaxMapsLinkLength = 2000

// Place represents a single location users can rate.
//
// Place records are created via [NewPlace], which assigns the identifier
// server-side. Identifiers supplied by clients are ignored.
type Place struct {
	// ID is the unique identifier for this place (UUID v4), generated
	// by the server on creation.
	ID string `json:"id"`

	// Name is the display name of the place. Listings are ordered by
	// this field.
	Name string `json:"name"`

	// MapsLink is the URL of the place's map entry.
	MapsLink string `json:"maps_link"`

	// CreatedAt is the UTC timestamp when the place was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the UTC timestamp when the place was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewPlace creates a Place with a generated UUID and UTC timestamps.
// Returns a validation error if name or mapsLink is empty.
func NewPlace(name, mapsLink string) (*Place, error) {
	now := time.Now().UTC()
	p := &Place{
		ID:        uuid.New().String(),
		Name:      strings.TrimSpace(name),
		MapsLink:  strings.TrimSpace(mapsLink),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks that all required fields are present and within bounds.
// Returns the first validation error encountered, or nil if the place is
// valid.
func (p *Place) Validate() error {
	if p.ID == "" {
		return apperr.New(apperr.CodeValidationRequired,
			"models: place id is required")
	}
	if _, err := uuid.Parse(p.ID); err != nil {
		return apperr.Wrap(err, apperr.CodeValidation,
			"models: place id must be a UUID")
	}
	if p.Name == "" {
		return apperr.New(apperr.CodeValidationRequired,
			"models: place name is required")
	}
	if len(p.Name) > MaxNameLength {
		return apperr.Newf(apperr.CodeValidationRange,
			"models: place name must not exceed %d characters", MaxNameLength)
	}
	if p.MapsLink == "" {
		return apperr.New(apperr.CodeValidationRequired,
			"models: place maps link is required")
	}
	if len(p.MapsLink) > MaxMapsLinkLength {
		return apperr.Newf(apperr.CodeValidationRange,
			"models: place maps link must not exceed %d characters", MaxMapsLinkLength)
	}
	return nil
}

// Rating is one user's star rating of one place. The pair (PlaceID,
// UserID) is unique; rating a place again replaces the stored value.
type Rating struct {
	// PlaceID is the identifier of the rated place.
	PlaceID string `json:"place_id"`

	// UserID is the identifier of the rating user, taken from the
	// authenticated principal.
	UserID string `json:"user_id"`

	// Value is the number of stars, between [MinRating] and [MaxRating]
	// inclusive.
	Value int `json:"value"`

	// CreatedAt is the UTC timestamp when this user first rated the
	// place.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is the UTC timestamp when the rating was last changed.
	UpdatedAt time.Time `json:"updated_at"`
}

// NewRating creates a Rating for the given place and user. Returns a
// validation error if any field is missing or the value is out of range.
func NewRating(placeID, userID string, value int) (*Rating, error) {
	now := time.Now().UTC()
	r := &Rating{
		PlaceID:   placeID,
		UserID:    userID,
		Value:     value,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return r, nil
}

// Validate checks that the rating references a place and a user and that
// the value is within bounds.
func (r *Rating) Validate() error {
	if r.PlaceID == "" {
		return apperr.New(apperr.CodeValidationRequired,
			"models: rating place id is required")
	}
	if _, err := uuid.Parse(r.PlaceID); err != nil {
		return apperr.Wrap(err, apperr.CodeValidation,
			"models: rating place id must be a UUID")
	}
	if r.UserID == "" {
		return apperr.New(apperr.CodeValidationRequired,
			"models: rating user id is required")
	}
	if r.Value < MinRating || r.Value > MaxRating {
		return apperr.Newf(apperr.CodeValidationRange,
			"models: rating value must be between %d and %d, got %d",
			MinRating, MaxRating, r.Value)
	}
	return nil
}

// PlaceWithRating is the read-side view of a place: the place itself,
// the average across all stored ratings, and the requesting user's own
// rating.
//
// AverageRating is 0.0 and OwnRating is 0 when no corresponding rating
// exists. Stored ratings are always at least [MinRating], so the zero
// values are unambiguous absence markers.
type PlaceWithRating struct {
	Place

	// AverageRating is the mean of all stored ratings for this place,
	// or 0.0 when the place has no ratings.
	AverageRating float64 `json:"average_rating"`

	// OwnRating is the requesting user's stored rating for this place,
	// or 0 when that user has not rated it.
	OwnRating int `json:"own_rating"`
}

// Rated reports whether the requesting user has rated this place.
func (p *PlaceWithRating) Rated() bool {
	return p.OwnRating != 0
}
