package store

import (
	"context"

	"github.com/ludimus/places-backend/pkg/clients/postgres"
	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// schemaStatements are applied in order by [EnsureSchema]. Every
// statement is idempotent so the function can run on each startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS places (
		id         UUID PRIMARY KEY,
		name       TEXT NOT NULL,
		maps_link  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS ratings (
		place_id   UUID NOT NULL REFERENCES places(id) ON DELETE CASCADE,
		user_id    TEXT NOT NULL,
		rating     INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		PRIMARY KEY (place_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_places_name ON places (name)`,
}

// EnsureSchema creates the places and ratings tables if they do not
// exist yet.
func EnsureSchema(ctx context.Context, db *postgres.Client) error {
	for _, stmt := range schemaStatements {
		if _, err := db.Exec(ctx, stmt); err != nil {
			return apperr.Wrap(err, apperr.CodeUnavailableDatabase,
				"store: failed to apply schema")
		}
	}
	return nil
}
