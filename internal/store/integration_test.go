//go:build integration

// Integration tests for the store against a real PostgreSQL instance,
// started with testcontainers.
//
// Run locally with:
//
//	go test -v -race -tags=integration ./internal/store/...
package store_test

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ludimus/places-backend/internal/store"
	"github.com/ludimus/places-backend/pkg/clients/postgres"
	apperr "github.com/ludimus/places-backend/pkg/errors"
	"github.com/ludimus/places-backend/pkg/models"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

const (
	testDBName     = "places_test"
	testDBUser     = "testuser"
	testDBPassword = "testpassword"

	userAnna = "anna.schmidt@ludimus.de"
	userMax  = "max.mustermann@ludimus.de"
	userEva  = "eva.keller@ludimus.de"
)

// setupRepository starts a PostgreSQL 16 container, applies the schema
// and returns a ready Repository.
func setupRepository(t *testing.T) store.Repository {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"docker.io/postgres:16-alpine",
		tcpostgres.WithDatabase(testDBName),
		tcpostgres.WithUsername(testDBUser),
		tcpostgres.WithPassword(testDBPassword),
		tcpostgres.BasicWaitStrategies(),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err, "failed to start postgres container")

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	poolCfg, err := pgxpool.ParseConfig(connStr)
	require.NoError(t, err)

	client, err := postgres.NewClient(ctx, postgres.Config{
		Host:     poolCfg.ConnConfig.Host,
		Port:     int(poolCfg.ConnConfig.Port),
		Database: testDBName,
		User:     testDBUser,
		Password: postgres.Secret(testDBPassword),
		SSLMode:  postgres.SSLModeDisable,
		MaxConns: 5,
		MinConns: 1,
	})
	require.NoError(t, err, "failed to create client")
	t.Cleanup(client.Close)

	require.NoError(t, store.EnsureSchema(ctx, client))
	return store.New(client)
}

func mustCreatePlace(t *testing.T, repo store.Repository, name string) *models.Place {
	t.Helper()
	place, err := models.NewPlace(name, "https://maps.example.com/"+name)
	require.NoError(t, err)
	require.NoError(t, repo.CreatePlace(context.Background(), place))
	return place
}

func mustRate(t *testing.T, repo store.Repository, placeID, userID string, value int) *models.PlaceWithRating {
	t.Helper()
	rating, err := models.NewRating(placeID, userID, value)
	require.NoError(t, err)
	view, err := repo.RatePlace(context.Background(), rating)
	require.NoError(t, err)
	return view
}

func TestIntegration_CreateThenGet(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	place := mustCreatePlace(t, repo, "Ratskeller")

	got, err := repo.GetPlace(ctx, place.ID)
	require.NoError(t, err)
	assert.Equal(t, place.ID, got.ID)
	assert.Equal(t, place.Name, got.Name)
	assert.Equal(t, place.MapsLink, got.MapsLink)
}

func TestIntegration_ListOrderedByName(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	mustCreatePlace(t, repo, "Zur Sonne")
	mustCreatePlace(t, repo, "Alte Post")
	mustCreatePlace(t, repo, "Ratskeller")

	places, err := repo.ListPlaces(ctx, userAnna)
	require.NoError(t, err)
	require.Len(t, places, 3)
	assert.Equal(t, "Alte Post", places[0].Name)
	assert.Equal(t, "Ratskeller", places[1].Name)
	assert.Equal(t, "Zur Sonne", places[2].Name)
}

func TestIntegration_UpdatePlace(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	place := mustCreatePlace(t, repo, "Ratskeller")
	place.Name = "Ratskeller am Markt"
	require.NoError(t, repo.UpdatePlace(ctx, place))

	got, err := repo.GetPlace(ctx, place.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ratskeller am Markt", got.Name)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestIntegration_UpdateAbsentPlace(t *testing.T) {
	repo := setupRepository(t)

	place, err := models.NewPlace("Nirgendwo", "https://maps.example.com/nirgendwo")
	require.NoError(t, err)

	err = repo.UpdatePlace(context.Background(), place)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFoundPlace))
}

func TestIntegration_DeleteIsIdempotent(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	place := mustCreatePlace(t, repo, "Ratskeller")
	mustRate(t, repo, place.ID, userAnna, 4)

	require.NoError(t, repo.DeletePlace(ctx, place.ID))
	require.NoError(t, repo.DeletePlace(ctx, place.ID), "second delete must succeed")

	_, err := repo.GetPlace(ctx, place.ID)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFoundPlace))
}

func TestIntegration_RatingUpsertReplaces(t *testing.T) {
	repo := setupRepository(t)

	place := mustCreatePlace(t, repo, "Ratskeller")

	mustRate(t, repo, place.ID, userAnna, 3)
	view := mustRate(t, repo, place.ID, userAnna, 5)

	// One row per (place, user): the second rating replaced the first.
	assert.Equal(t, 5, view.OwnRating)
	assert.InDelta(t, 5.0, view.AverageRating, 0.0001)
}

func TestIntegration_RatingAggregation(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	place := mustCreatePlace(t, repo, "Ratskeller")
	mustRate(t, repo, place.ID, userAnna, 2)
	mustRate(t, repo, place.ID, userMax, 4)

	view, err := repo.GetPlaceWithRating(ctx, place.ID, userEva)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, view.AverageRating, 0.0001)
	assert.Zero(t, view.OwnRating, "a user who never rated sees the zero marker")

	annaView, err := repo.GetPlaceWithRating(ctx, place.ID, userAnna)
	require.NoError(t, err)
	assert.Equal(t, 2, annaView.OwnRating)
	assert.InDelta(t, 3.0, annaView.AverageRating, 0.0001)
}

func TestIntegration_RateAbsentPlace(t *testing.T) {
	repo := setupRepository(t)

	rating, err := models.NewRating("0b126262-6f05-4ba5-a983-7fe80b7fdb91", userAnna, 3)
	require.NoError(t, err)

	_, err = repo.RatePlace(context.Background(), rating)
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeNotFoundPlace))
}

func TestIntegration_DeleteCascadesRatings(t *testing.T) {
	repo := setupRepository(t)
	ctx := context.Background()

	place := mustCreatePlace(t, repo, "Ratskeller")
	mustRate(t, repo, place.ID, userAnna, 4)
	require.NoError(t, repo.DeletePlace(ctx, place.ID))

	recreated := mustCreatePlace(t, repo, "Ratskeller")
	view, err := repo.GetPlaceWithRating(ctx, recreated.ID, userAnna)
	require.NoError(t, err)
	assert.Zero(t, view.AverageRating, "ratings must not survive their place")
}

func TestIntegration_UnratedPlaceSentinels(t *testing.T) {
	repo := setupRepository(t)

	place := mustCreatePlace(t, repo, "Ratskeller")

	view, err := repo.GetPlaceWithRating(context.Background(), place.ID, userAnna)
	require.NoError(t, err)
	assert.Zero(t, view.AverageRating)
	assert.Zero(t, view.OwnRating)
	assert.False(t, view.Rated())
}
