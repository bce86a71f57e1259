// Package errors provides the structured error types used throughout the
// places backend. It defines category-prefixed error codes, helper
// constructors for creating and wrapping errors, and predicates for
// inspecting them at the API boundary.
//
// # Error Categories
//
// Codes are grouped into categories that map one-to-one onto HTTP status
// codes:
//
//   - Validation errors (VAL_xxx): invalid input, missing required fields
//   - Authentication errors (AUTH_xxx): malformed, unverifiable, or expired
//     bearer tokens
//   - NotFound errors (NF_xxx): the requested place or rating does not exist
//   - Internal errors (INT_xxx): unexpected system failures
//   - Unavailable errors (UNAVAIL_xxx): the key store or database cannot be
//     reached
//   - Timeout errors (TIMEOUT_xxx): an operation exceeded its deadline
//
// Authentication failures carry distinct codes internally (malformed token,
// unknown signing key, algorithm mismatch, audience mismatch, expired token)
// so they can be logged and tested precisely, but the HTTP boundary collapses
// the whole AUTH category to a uniform 401 with an opaque body. Surfacing the
// subtype to callers would hand a token forger a validation oracle.
//
// # Usage
//
// Create a new error:
//
//	err := errors.New(errors.CodeValidation, "place name must not be empty")
//
// Wrap an underlying cause:
//
//	err := errors.Wrap(err, errors.CodeInternalDatabase, "failed to fetch place")
//
// Check the category at the boundary:
//
//	if errors.IsNotFound(err) {
//	    // respond 404
//	}
package errors
