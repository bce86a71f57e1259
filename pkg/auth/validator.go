package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// signingAlgorithm is the only token algorithm the service accepts.
// Restricting to a single asymmetric algorithm blocks substitution
// attacks where a token signed under "none" or an HMAC scheme is
// presented as if it were RSA-signed.
const signingAlgorithm = "RS256"

// maxTokenSize caps the accepted token string at 8 KB.
const maxTokenSize = 8192

// DefaultClockSkew is the temporal claim leeway applied when the
// validator configuration leaves it zero.
const DefaultClockSkew = 30 * time.Second

// Claims is the validated identity of a caller: the user principal
// name the identity provider issued the token to, plus the role strings
// granted to it. Claims live for a single request and are never
// persisted.
type Claims struct {
	// Subject is the token's sub claim.
	Subject string

	// PrincipalName is the upn claim, the caller's user principal name.
	PrincipalName string

	// Roles are the role strings granted by the identity provider.
	Roles []string
}

// UserID returns the identifier under which ratings are stored for
// this caller. The principal name is preferred; the subject serves as
// fallback for tokens without a upn claim.
func (c *Claims) UserID() string {
	if c.PrincipalName != "" {
		return c.PrincipalName
	}
	return c.Subject
}

// HasRole reports whether the caller was granted the given role.
func (c *Claims) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// tokenClaims is the JWT payload shape the validator deserializes.
type tokenClaims struct {
	jwt.RegisteredClaims
	UPN   string   `json:"upn"`
	Roles []string `json:"roles"`
}

// ValidatorConfig holds the configuration for a [Validator].
type ValidatorConfig struct {
	// Audience is the exact aud claim value a token must carry to be
	// accepted by this service.
	Audience string `yaml:"audience" env:"AUDIENCE" required:"true"`

	// ClockSkew is the allowed clock difference between this service
	// and the identity provider when checking exp and nbf. Defaults to
	// [DefaultClockSkew] when zero.
	ClockSkew time.Duration `yaml:"clock_skew" env:"CLOCK_SKEW"`
}

// Validator decides whether a bearer token string represents a genuine,
// currently valid grant from the trusted identity provider, and
// extracts its claims. It is pure given a key set and a token, and safe
// for concurrent use.
type Validator struct {
	keys     *KeyStore
	audience string
	leeway   time.Duration
	tracer   trace.Tracer
}

// NewValidator creates a Validator that verifies tokens against keys in
// the given store.
func NewValidator(keys *KeyStore, cfg ValidatorConfig) (*Validator, error) {
	if keys == nil {
		return nil, apperr.New(apperr.CodeValidation,
			"auth: key store must not be nil")
	}
	if cfg.Audience == "" {
		return nil, apperr.New(apperr.CodeValidation,
			"auth: audience must not be empty")
	}

	leeway := cfg.ClockSkew
	if leeway == 0 {
		leeway = DefaultClockSkew
	}

	return &Validator{
		keys:     keys,
		audience: cfg.Audience,
		leeway:   leeway,
		tracer:   otel.Tracer(tracerName),
	}, nil
}

// Validate verifies tokenStr and returns its claims. The checks run in
// order:
//
//  1. The token must be a well-formed JWT carrying a kid header,
//     otherwise [apperr.CodeAuthMalformedToken].
//  2. The declared algorithm must be RS256, otherwise
//     [apperr.CodeAuthAlgorithmMismatch], even when a key with a
//     matching kid exists.
//  3. The kid must resolve in the key store, otherwise
//     [apperr.CodeAuthUnknownKey].
//  4. The signature must verify under the resolved key.
//  5. The aud claim must equal the configured audience exactly,
//     otherwise [apperr.CodeAuthAudienceMismatch].
//  6. exp and nbf, when present, must hold within the configured clock
//     skew, otherwise [apperr.CodeAuthExpiredToken].
//
// Every returned error carries the AUTH category, so the boundary can
// collapse all subtypes into one opaque 401 response.
func (v *Validator) Validate(ctx context.Context, tokenStr string) (*Claims, error) {
	_, span := v.tracer.Start(ctx, "auth.Validate")
	defer span.End()

	claims, err := v.validate(tokenStr)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.String("auth.principal", claims.UserID()))
	return claims, nil
}

func (v *Validator) validate(tokenStr string) (*Claims, error) {
	if tokenStr == "" {
		return nil, apperr.New(apperr.CodeAuthMalformedToken,
			"auth: token must not be empty")
	}
	if len(tokenStr) > maxTokenSize {
		return nil, apperr.New(apperr.CodeAuthMalformedToken,
			"auth: token exceeds maximum size")
	}

	// Inspect the header without verifying the signature to read the
	// declared kid and algorithm. ParseUnverified also fails on an alg
	// it does not recognize, so the algorithm pin is checked before its
	// error: alg values are case-sensitive, and a token declaring
	// "rs256" must be rejected as an algorithm mismatch, not as
	// malformed.
	parser := jwt.NewParser()
	unverified, _, parseErr := parser.ParseUnverified(tokenStr, jwt.MapClaims{})
	if unverified == nil {
		return nil, apperr.New(apperr.CodeAuthMalformedToken,
			"auth: token is malformed")
	}

	alg, _ := unverified.Header["alg"].(string)
	if alg == "" {
		return nil, apperr.New(apperr.CodeAuthMalformedToken,
			"auth: token is malformed")
	}
	if alg != signingAlgorithm {
		return nil, apperr.Newf(apperr.CodeAuthAlgorithmMismatch,
			"auth: token algorithm %q is not permitted", alg)
	}
	if parseErr != nil {
		return nil, apperr.New(apperr.CodeAuthMalformedToken,
			"auth: token is malformed")
	}

	kid, _ := unverified.Header["kid"].(string)
	if kid == "" {
		return nil, apperr.New(apperr.CodeAuthMalformedToken,
			"auth: token header missing kid")
	}

	key, ok := v.keys.Lookup(kid)
	if !ok {
		return nil, apperr.Newf(apperr.CodeAuthUnknownKey,
			"auth: signing key %q not found", kid)
	}

	// Full verification. WithValidMethods pins the algorithm a second
	// time so the verification path cannot diverge from the header
	// check above.
	parsed, err := jwt.ParseWithClaims(tokenStr, &tokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return key, nil
		},
		jwt.WithValidMethods([]string{signingAlgorithm}),
		jwt.WithAudience(v.audience),
		jwt.WithLeeway(v.leeway),
	)
	if err != nil {
		return nil, classifyJWTError(err)
	}

	tc, ok := parsed.Claims.(*tokenClaims)
	if !ok || !parsed.Valid {
		return nil, apperr.New(apperr.CodeAuthMalformedToken,
			"auth: unable to extract token claims")
	}

	return &Claims{
		Subject:       tc.Subject,
		PrincipalName: tc.UPN,
		Roles:         tc.Roles,
	}, nil
}

// classifyJWTError maps a jwt library error to the matching structured
// auth error. Everything stays in the AUTH category.
func classifyJWTError(err error) *apperr.Error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return appErr
	}

	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperr.Wrap(err, apperr.CodeAuthExpiredToken,
			"auth: token has expired")
	case errors.Is(err, jwt.ErrTokenNotValidYet):
		return apperr.Wrap(err, apperr.CodeAuthExpiredToken,
			"auth: token is not yet valid")
	case errors.Is(err, jwt.ErrTokenInvalidAudience):
		return apperr.Wrap(err, apperr.CodeAuthAudienceMismatch,
			"auth: token audience is invalid")
	case errors.Is(err, jwt.ErrTokenRequiredClaimMissing):
		// The audience is the only claim verification requires, so a
		// missing required claim is a missing aud.
		return apperr.Wrap(err, apperr.CodeAuthAudienceMismatch,
			"auth: token audience is missing")
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperr.Wrap(err, apperr.CodeAuthentication,
			"auth: token signature is invalid")
	case errors.Is(err, jwt.ErrTokenMalformed):
		return apperr.Wrap(err, apperr.CodeAuthMalformedToken,
			"auth: token is malformed")
	default:
		return apperr.Wrap(err, apperr.CodeAuthentication,
			"auth: token validation failed")
	}
}
