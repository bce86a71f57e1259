// Package testutil provides shared test helpers for the places backend.
//
// All helpers accept [testing.TB] for compatibility with both tests and
// benchmarks, and call t.Helper() so failures report the caller's file
// and line.
package testutil

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// RequireErrorCode halts the test if err is nil, is not an
// *apperr.Error, or does not carry the expected error code.
//
// Example:
//
//	err := repo.GetPlace(ctx, id)
//	testutil.RequireErrorCode(t, err, apperr.CodeNotFoundPlace)
func RequireErrorCode(t testing.TB, err error, code apperr.Code, msgAndArgs ...any) {
	t.Helper()
	require.Error(t, err, msgAndArgs...)
	structured, ok := apperr.AsError(err)
	require.True(t, ok, "expected *apperr.Error, got %T: %v", err, err)
	require.Equal(t, code, structured.Code,
		"error code mismatch: got %q, want %q (message: %s)",
		structured.Code, code, structured.Message)
}

// AssertErrorCode records a failure (without halting) if err is nil, is
// not an *apperr.Error, or does not carry the expected error code. Use
// this in table-driven tests where every row should be checked.
func AssertErrorCode(t testing.TB, err error, code apperr.Code, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Error(t, err, msgAndArgs...) {
		return false
	}
	structured, ok := apperr.AsError(err)
	if !assert.True(t, ok, "expected *apperr.Error, got %T: %v", err, err) {
		return false
	}
	return assert.Equal(t, code, structured.Code,
		"error code mismatch: got %q, want %q (message: %s)",
		structured.Code, code, structured.Message)
}

// DecodeJSON unmarshals a recorded response body into target, halting
// the test on malformed JSON.
func DecodeJSON(t testing.TB, rec *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), target),
		"response body is not valid JSON: %s", rec.Body.String())
}

// RequireErrorEnvelope halts the test unless the recorded response body
// is the standard error envelope carrying the given code.
func RequireErrorEnvelope(t testing.TB, rec *httptest.ResponseRecorder, code apperr.Code) {
	t.Helper()

	var body struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	DecodeJSON(t, rec, &body)
	require.Equal(t, string(code), body.Error.Code)
}
