// Package auth implements the token validation gateway for the places
// backend. It loads the identity provider's RSA signing keys from its
// JWKS discovery document, validates bearer tokens against them, and
// exposes HTTP middleware that attaches the validated claims to the
// request context.
package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// tracerName is the OpenTelemetry instrumentation scope for auth spans.
const tracerName = "github.com/ludimus/places-backend/pkg/auth"

// maxJWKSResponseSize caps the discovery response body at 1 MB to
// prevent resource exhaustion from a misbehaving endpoint.
const maxJWKSResponseSize = 1 << 20

// HTTPClient abstracts the HTTP client used for fetching the JWKS
// discovery document, so tests can substitute an httptest server client
// or custom transports can be injected. The standard [http.Client]
// satisfies this interface.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// KeySet maps a key identifier (kid) to its RSA public verification
// key. A KeySet is immutable once built; the KeyStore replaces it
// wholesale on every load, so concurrent readers never observe a
// partially updated set.
type KeySet map[string]*rsa.PublicKey

// KeyStoreConfig holds the configuration for a [KeyStore].
type KeyStoreConfig struct {
	// JWKSURL is the identity provider's discovery document URL. The
	// document lists the provider's current public signing keys in the
	// standard {"keys":[{kid,use,kty,n,e,...}]} shape.
	JWKSURL string `yaml:"jwks_url" env:"JWKS_URL" required:"true"`

	// HTTPClient performs the discovery fetch. When nil, a default
	// client with a 10 second timeout is used.
	HTTPClient HTTPClient `yaml:"-"`
}

// KeyStore holds the identity provider's current signing keys. The
// active [KeySet] sits behind an atomic pointer: every request reads it
// lock-free, and [KeyStore.Load] swaps in a complete replacement.
//
// There is no periodic refresh. The set is loaded once at startup and
// stays fixed until Load is called again; a provider-side key rotation
// therefore surfaces as rejected tokens until the process restarts or
// an operator triggers a reload.
type KeyStore struct {
	jwksURL    string
	httpClient HTTPClient
	tracer     trace.Tracer
	keys       atomic.Pointer[KeySet]
}

// NewKeyStore creates a KeyStore for the given configuration. The store
// holds no keys until [KeyStore.Load] succeeds.
func NewKeyStore(cfg KeyStoreConfig) (*KeyStore, error) {
	if cfg.JWKSURL == "" {
		return nil, apperr.New(apperr.CodeValidation,
			"auth: JWKS URL must not be empty")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}

	return &KeyStore{
		jwksURL:    cfg.JWKSURL,
		httpClient: httpClient,
		tracer:     otel.Tracer(tracerName),
	}, nil
}

// jwksResponse is the JSON structure of the discovery document.
type jwksResponse struct {
	Keys []jwkKey `json:"keys"`
}

// jwkKey is a single key descriptor. Only the fields needed for RSA key
// reconstruction are decoded.
type jwkKey struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	N   string `json:"n"`
	E   string `json:"e"`
}

// Load fetches the discovery document, filters the descriptors to RSA
// signature keys, and atomically replaces the active KeySet with the
// result. Returns a [*apperr.Error] with code
// [apperr.CodeUnavailableKeyStore] when the fetch fails, the response
// cannot be parsed, or no descriptor survives filtering. The service
// cannot authenticate anyone until Load has succeeded once, so startup
// treats that error as fatal.
func (s *KeyStore) Load(ctx context.Context) error {
	ctx, span := s.tracer.Start(ctx, "auth.KeyStore.Load")
	defer span.End()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.jwksURL, nil)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUnavailableKeyStore,
			"auth: failed to create discovery request")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUnavailableKeyStore,
			"auth: discovery request failed")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return apperr.Newf(apperr.CodeUnavailableKeyStore,
			"auth: discovery endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJWKSResponseSize))
	if err != nil {
		return apperr.Wrap(err, apperr.CodeUnavailableKeyStore,
			"auth: failed to read discovery response")
	}

	var jwks jwksResponse
	if err := json.Unmarshal(body, &jwks); err != nil {
		return apperr.Wrap(err, apperr.CodeUnavailableKeyStore,
			"auth: failed to parse discovery JSON")
	}

	keys := make(KeySet, len(jwks.Keys))
	for _, k := range jwks.Keys {
		// Only RSA keys declared for signature use can verify tokens.
		if k.Kid == "" || k.Use != "sig" || k.Kty != "RSA" {
			continue
		}
		pubKey, err := parseRSAPublicKey(k.N, k.E)
		if err != nil {
			// Skip malformed descriptors; a single bad key must not
			// block the rest of the set.
			continue
		}
		keys[k.Kid] = pubKey
	}

	if len(keys) == 0 {
		return apperr.New(apperr.CodeUnavailableKeyStore,
			"auth: discovery document contains no usable RSA signature keys")
	}

	s.keys.Store(&keys)
	span.SetAttributes(attribute.Int("auth.key_count", len(keys)))
	return nil
}

// Lookup returns the verification key for the given key identifier.
// A missing kid means the token cannot be validated and must be
// rejected; it is the expected outcome right after a provider-side key
// rotation and before a reload.
func (s *KeyStore) Lookup(kid string) (*rsa.PublicKey, bool) {
	keys := s.keys.Load()
	if keys == nil {
		return nil, false
	}
	key, ok := (*keys)[kid]
	return key, ok
}

// Len returns the number of keys in the active set, zero before the
// first successful Load.
func (s *KeyStore) Len() int {
	keys := s.keys.Load()
	if keys == nil {
		return 0
	}
	return len(*keys)
}

// parseRSAPublicKey constructs an *rsa.PublicKey from base64url-encoded
// modulus (n) and exponent (e) values.
func parseRSAPublicKey(nBase64, eBase64 string) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(nBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode RSA modulus: %w", err)
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(eBase64)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to decode RSA exponent: %w", err)
	}

	n := new(big.Int).SetBytes(nBytes)
	e := new(big.Int).SetBytes(eBytes)
	if e.BitLen() > 32 || e.Sign() <= 0 {
		return nil, fmt.Errorf("auth: RSA exponent out of range")
	}

	return &rsa.PublicKey{
		N: n,
		E: int(e.Int64()),
	}, nil
}
