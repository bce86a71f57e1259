package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	apperr "github.com/ludimus/places-backend/pkg/errors"
	"github.com/ludimus/places-backend/pkg/models"
)

// placeColumns is the column list shared by all place SELECTs.
const placeColumns = `id, name, maps_link, created_at, updated_at`

// ratedPlaceQuery is the read view: every place joined with its rating
// aggregate and the requesting user's own rating. Stored ratings are at
// least 1, so COALESCE to zero marks absence on both columns. MAX over
// the user filter collapses the at-most-one matching row per group.
const ratedPlaceQuery = `
	SELECT p.id, p.name, p.maps_link, p.created_at, p.updated_at,
	       COALESCE(AVG(r.rating), 0)::float8 AS average_rating,
	       COALESCE(MAX(r.rating) FILTER (WHERE r.user_id = $1), 0) AS own_rating
	FROM places p
	LEFT JOIN ratings r ON r.place_id = p.id`

func (s *repository) CreatePlace(ctx context.Context, place *models.Place) error {
	if err := place.Validate(); err != nil {
		return err
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO places (id, name, maps_link, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		place.ID, place.Name, place.MapsLink, place.CreatedAt, place.UpdatedAt)
	if err != nil {
		return wrapDBError(err, "store: failed to create place")
	}
	return nil
}

func (s *repository) GetPlace(ctx context.Context, id string) (*models.Place, error) {
	p := &models.Place{}
	err := s.db.QueryRow(ctx,
		`SELECT `+placeColumns+` FROM places WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.MapsLink, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Newf(apperr.CodeNotFoundPlace,
				"store: place %s not found", id)
		}
		return nil, apperr.Wrap(err, apperr.CodeInternalDatabase,
			"store: failed to get place")
	}
	return p, nil
}

func (s *repository) GetPlaceWithRating(ctx context.Context, id, userID string) (*models.PlaceWithRating, error) {
	p := &models.PlaceWithRating{}
	err := s.db.QueryRow(ctx,
		ratedPlaceQuery+`
	WHERE p.id = $2
	GROUP BY p.id`, userID, id).
		Scan(&p.ID, &p.Name, &p.MapsLink, &p.CreatedAt, &p.UpdatedAt,
			&p.AverageRating, &p.OwnRating)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperr.Newf(apperr.CodeNotFoundPlace,
				"store: place %s not found", id)
		}
		return nil, apperr.Wrap(err, apperr.CodeInternalDatabase,
			"store: failed to get place with rating")
	}
	return p, nil
}

func (s *repository) ListPlaces(ctx context.Context, userID string) ([]*models.PlaceWithRating, error) {
	rows, err := s.db.Query(ctx,
		ratedPlaceQuery+`
	GROUP BY p.id
	ORDER BY p.name ASC, p.id ASC`, userID)
	if err != nil {
		return nil, wrapDBError(err, "store: failed to list places")
	}
	defer rows.Close()

	places := make([]*models.PlaceWithRating, 0)
	for rows.Next() {
		p := &models.PlaceWithRating{}
		if err := rows.Scan(&p.ID, &p.Name, &p.MapsLink, &p.CreatedAt, &p.UpdatedAt,
			&p.AverageRating, &p.OwnRating); err != nil {
			return nil, apperr.Wrap(err, apperr.CodeInternalDatabase,
				"store: failed to scan place row")
		}
		places = append(places, p)
	}
	if err := rows.Err(); err != nil {
		return nil, apperr.Wrap(err, apperr.CodeInternalDatabase,
			"store: failed to read place rows")
	}
	return places, nil
}

func (s *repository) UpdatePlace(ctx context.Context, place *models.Place) error {
	if err := place.Validate(); err != nil {
		return err
	}

	tag, err := s.db.Exec(ctx,
		`UPDATE places SET name = $2, maps_link = $3, updated_at = $4 WHERE id = $1`,
		place.ID, place.Name, place.MapsLink, time.Now().UTC())
	if err != nil {
		return wrapDBError(err, "store: failed to update place")
	}
	if tag.RowsAffected() == 0 {
		return apperr.Newf(apperr.CodeNotFoundPlace,
			"store: place %s not found", place.ID)
	}
	return nil
}

// DeletePlace removes the place row. Ratings go with it through the
// foreign key cascade. Zero affected rows is success, so repeated
// deletes converge on the same outcome.
func (s *repository) DeletePlace(ctx context.Context, id string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM places WHERE id = $1`, id)
	if err != nil {
		return wrapDBError(err, "store: failed to delete place")
	}
	return nil
}
