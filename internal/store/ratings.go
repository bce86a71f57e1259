package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	apperr "github.com/ludimus/places-backend/pkg/errors"
	"github.com/ludimus/places-backend/pkg/models"
)

// pgForeignKeyViolation is the PostgreSQL error code raised when an
// insert references a row that does not exist.
const pgForeignKeyViolation = "23503"

// RatePlace upserts the rating in a single statement, so two users or
// two requests by the same user never interleave partially. The
// refreshed view is read afterwards in a separate statement. A place
// deleted between the two surfaces as not found, which is the same
// answer the caller would get by arriving a moment later.
func (s *repository) RatePlace(ctx context.Context, rating *models.Rating) (*models.PlaceWithRating, error) {
	if err := rating.Validate(); err != nil {
		return nil, err
	}

	_, err := s.db.Exec(ctx,
		`INSERT INTO ratings (place_id, user_id, rating, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $4)
		 ON CONFLICT (place_id, user_id)
		 DO UPDATE SET rating = EXCLUDED.rating, updated_at = EXCLUDED.updated_at`,
		rating.PlaceID, rating.UserID, rating.Value, rating.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
			return nil, apperr.Newf(apperr.CodeNotFoundPlace,
				"store: place %s not found", rating.PlaceID)
		}
		return nil, wrapDBError(err, "store: failed to rate place")
	}

	return s.GetPlaceWithRating(ctx, rating.PlaceID, rating.UserID)
}
