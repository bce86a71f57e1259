package auth

import (
	"log/slog"
	"net/http"
	"strings"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// bearerPrefix is the expected Authorization header scheme prefix.
const bearerPrefix = "Bearer "

// ExtractBearerToken returns the token portion of a bearer-scheme
// Authorization header value, or an empty string when the header is
// absent or uses a different scheme. The scheme comparison is
// case-insensitive.
func ExtractBearerToken(authHeader string) string {
	if len(authHeader) <= len(bearerPrefix) {
		return ""
	}
	if !strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
		return ""
	}
	return authHeader[len(bearerPrefix):]
}

// Middleware returns HTTP middleware enforcing that every request
// carries a bearer token the given [Validator] accepts. On success the
// validated [Claims] are attached to the request context and the next
// handler runs exactly once; its response passes through unmodified.
//
// Every failure, whether a missing header, a malformed token, an
// unknown signing key, a wrong algorithm or audience, or an expired
// token, produces the same opaque 401 response. Surfacing the subtype
// would hand a forger an oracle for probing the validation pipeline,
// so the distinction only reaches the log, at debug level.
func Middleware(validator *Validator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractBearerToken(r.Header.Get("Authorization"))
			if token == "" {
				unauthorized(w)
				return
			}

			ctx := r.Context()
			claims, err := validator.Validate(ctx, token)
			if err != nil {
				slog.DebugContext(ctx, "auth: token rejected",
					"code", apperr.GetCode(err),
				)
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithClaims(ctx, claims)))
		})
	}
}

// unauthorized writes the uniform opaque rejection.
func unauthorized(w http.ResponseWriter) {
	w.WriteHeader(http.StatusUnauthorized)
}
