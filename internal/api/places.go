package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ludimus/places-backend/internal/store"
	"github.com/ludimus/places-backend/pkg/auth"
	apperr "github.com/ludimus/places-backend/pkg/errors"
	"github.com/ludimus/places-backend/pkg/models"
)

// PlaceHandler serves the place and rating endpoints. Every request
// reaching it has passed the token gate, so the claims in the request
// context are always present.
type PlaceHandler struct {
	repo store.Repository
}

// NewPlaceHandler creates a PlaceHandler over the given repository.
func NewPlaceHandler(repo store.Repository) *PlaceHandler {
	return &PlaceHandler{repo: repo}
}

// placeRequest is the payload for creating or updating a place. The id
// is never taken from the client.
type placeRequest struct {
	Name     string `json:"name"`
	MapsLink string `json:"maps_link"`
}

// ratingRequest is the wrapped form of the rating payload. The
// documented body is a bare JSON integer; the wrapped object is
// accepted as well for client convenience.
type ratingRequest struct {
	Rating int `json:"rating"`
}

// decodeRating reads a rating request body, accepting either a bare
// integer or a {"rating": n} object.
func decodeRating(r *http.Request) (int, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return 0, apperr.Wrap(err, apperr.CodeValidation,
			"api: invalid request body")
	}

	var value int
	if err := json.Unmarshal(body, &value); err == nil {
		return value, nil
	}

	var req ratingRequest
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return 0, apperr.Wrap(err, apperr.CodeValidation,
			"api: invalid request body")
	}
	return req.Rating, nil
}

// placeID extracts and checks the id path parameter.
func placeID(r *http.Request) (string, error) {
	id := chi.URLParam(r, "id")
	if _, err := uuid.Parse(id); err != nil {
		return "", apperr.Wrapf(err, apperr.CodeValidation,
			"api: place id %q is not a UUID", id)
	}
	return id, nil
}

// List returns all places ordered by name, each with its average rating
// and the caller's own rating.
func (h *PlaceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustClaimsFromContext(r.Context())

	places, err := h.repo.ListPlaces(r.Context(), claims.UserID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, places)
}

// Get returns a single place with its rating view.
func (h *PlaceHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustClaimsFromContext(r.Context())

	id, err := placeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	place, err := h.repo.GetPlaceWithRating(r.Context(), id, claims.UserID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// Create stores a new place and returns it with the fresh rating view.
func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustClaimsFromContext(r.Context())

	var req placeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	place, err := models.NewPlace(req.Name, req.MapsLink)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.repo.CreatePlace(r.Context(), place); err != nil {
		writeError(w, r, err)
		return
	}

	slog.InfoContext(r.Context(), "api: place created",
		"place_id", place.ID, "user", claims.UserID())

	w.Header().Set("Location", "/place/"+place.ID)
	writeJSON(w, http.StatusCreated, &models.PlaceWithRating{Place: *place})
}

// Update overwrites the name and maps link of an existing place and
// returns the refreshed view. PUT and PATCH behave identically.
func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustClaimsFromContext(r.Context())

	id, err := placeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var req placeRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	current, err := h.repo.GetPlace(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	current.Name = strings.TrimSpace(req.Name)
	current.MapsLink = strings.TrimSpace(req.MapsLink)

	if err := h.repo.UpdatePlace(r.Context(), current); err != nil {
		writeError(w, r, err)
		return
	}

	place, err := h.repo.GetPlaceWithRating(r.Context(), id, claims.UserID())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}

// Delete removes a place. Deleting an absent place succeeds, so the
// endpoint answers 204 either way.
func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := placeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.repo.DeletePlace(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Rate stores or replaces the caller's rating for a place and returns
// the refreshed view.
func (h *PlaceHandler) Rate(w http.ResponseWriter, r *http.Request) {
	claims := auth.MustClaimsFromContext(r.Context())

	id, err := placeID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	value, err := decodeRating(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	rating, err := models.NewRating(id, claims.UserID(), value)
	if err != nil {
		writeError(w, r, err)
		return
	}

	place, err := h.repo.RatePlace(r.Context(), rating)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, place)
}
