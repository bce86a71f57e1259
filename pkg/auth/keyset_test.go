package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperr "github.com/ludimus/places-backend/pkg/errors"
)

// testAudience is the aud claim value used across validator tests.
const testAudience = "api://places.cluster.azure.ludimus.de"

// authTestGenerateRSAKeyPair generates a 2048-bit RSA key pair.
func authTestGenerateRSAKeyPair(t *testing.T) (*rsa.PrivateKey, *rsa.PublicKey) {
	t.Helper()
	privKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err, "failed to generate RSA key pair")
	return privKey, &privKey.PublicKey
}

// authTestGenerateToken creates an RS256-signed JWT with the given
// claims and kid.
func authTestGenerateToken(t *testing.T, key *rsa.PrivateKey, kid string, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = kid
	tokenStr, err := token.SignedString(key)
	require.NoError(t, err, "failed to sign RSA token")
	return tokenStr
}

// jwkEntry mirrors a single descriptor in a served discovery document.
type jwkEntry struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use,omitempty"`
	N   string `json:"n,omitempty"`
	E   string `json:"e,omitempty"`
}

// rsaJWKEntry builds an RSA signature descriptor for pub under kid.
func rsaJWKEntry(kid string, pub *rsa.PublicKey) jwkEntry {
	return jwkEntry{
		Kty: "RSA",
		Kid: kid,
		Use: "sig",
		N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}
}

// authTestServeJWKS starts an httptest.Server serving a discovery
// document with the given key descriptors.
func authTestServeJWKS(t *testing.T, entries ...jwkEntry) *httptest.Server {
	t.Helper()

	doc, err := json.Marshal(map[string]any{"keys": entries})
	require.NoError(t, err, "failed to marshal JWKS")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(doc)
	}))
	t.Cleanup(srv.Close)
	return srv
}

// authTestLoadedKeyStore builds a KeyStore preloaded with pub under kid.
func authTestLoadedKeyStore(t *testing.T, kid string, pub *rsa.PublicKey) *KeyStore {
	t.Helper()

	srv := authTestServeJWKS(t, rsaJWKEntry(kid, pub))
	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))
	return store
}

func TestNewKeyStore_RequiresURL(t *testing.T) {
	_, err := NewKeyStore(KeyStoreConfig{})
	require.Error(t, err)
	assert.True(t, apperr.HasCode(err, apperr.CodeValidation))
}

func TestKeyStore_Load_Success(t *testing.T) {
	_, pub := authTestGenerateRSAKeyPair(t)
	srv := authTestServeJWKS(t, rsaJWKEntry("key-1", pub))

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)

	require.NoError(t, store.Load(context.Background()))
	assert.Equal(t, 1, store.Len())

	key, ok := store.Lookup("key-1")
	require.True(t, ok)
	assert.Equal(t, pub.N, key.N)
	assert.Equal(t, pub.E, key.E)
}

func TestKeyStore_Load_FiltersNonSignatureAndNonRSAKeys(t *testing.T) {
	_, pub := authTestGenerateRSAKeyPair(t)
	srv := authTestServeJWKS(t,
		rsaJWKEntry("sig-key", pub),
		jwkEntry{Kty: "RSA", Kid: "enc-key", Use: "enc",
			N: base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
			E: "AQAB"},
		jwkEntry{Kty: "EC", Kid: "ec-key", Use: "sig"},
		jwkEntry{Kty: "RSA", Use: "sig", N: "AAA", E: "AQAB"},
	)

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	assert.Equal(t, 1, store.Len(), "only the RSA signature key with a kid survives")

	_, ok := store.Lookup("enc-key")
	assert.False(t, ok, "encryption keys must be filtered out")
	_, ok = store.Lookup("ec-key")
	assert.False(t, ok, "non-RSA keys must be filtered out")
}

func TestKeyStore_Load_SkipsMalformedDescriptors(t *testing.T) {
	_, pub := authTestGenerateRSAKeyPair(t)
	srv := authTestServeJWKS(t,
		jwkEntry{Kty: "RSA", Kid: "broken", Use: "sig", N: "!!not-base64!!", E: "AQAB"},
		rsaJWKEntry("good", pub),
	)

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	assert.Equal(t, 1, store.Len())
	_, ok := store.Lookup("good")
	assert.True(t, ok)
}

func TestKeyStore_Load_EmptyKeySet(t *testing.T) {
	srv := authTestServeJWKS(t)

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)

	loadErr := store.Load(context.Background())
	require.Error(t, loadErr)
	assert.True(t, apperr.HasCode(loadErr, apperr.CodeUnavailableKeyStore))
	assert.Equal(t, 0, store.Len())
}

func TestKeyStore_Load_EndpointError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)

	loadErr := store.Load(context.Background())
	require.Error(t, loadErr)
	assert.True(t, apperr.HasCode(loadErr, apperr.CodeUnavailableKeyStore))
}

func TestKeyStore_Load_NetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // closed before the request fires

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)

	loadErr := store.Load(context.Background())
	require.Error(t, loadErr)
	assert.True(t, apperr.HasCode(loadErr, apperr.CodeUnavailableKeyStore))
	assert.True(t, apperr.IsRetryable(loadErr))
}

func TestKeyStore_Load_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	t.Cleanup(srv.Close)

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)

	loadErr := store.Load(context.Background())
	require.Error(t, loadErr)
	assert.True(t, apperr.HasCode(loadErr, apperr.CodeUnavailableKeyStore))
}

func TestKeyStore_Load_ReplacesKeySetWholesale(t *testing.T) {
	_, pubA := authTestGenerateRSAKeyPair(t)
	_, pubB := authTestGenerateRSAKeyPair(t)

	docs := make(chan []jwkEntry, 2)
	docs <- []jwkEntry{rsaJWKEntry("key-a", pubA)}
	docs <- []jwkEntry{rsaJWKEntry("key-b", pubB)}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		entries := <-docs
		doc, _ := json.Marshal(map[string]any{"keys": entries})
		_, _ = w.Write(doc)
	}))
	t.Cleanup(srv.Close)

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)

	require.NoError(t, store.Load(context.Background()))
	_, ok := store.Lookup("key-a")
	require.True(t, ok)

	// Second load simulates a provider-side rotation.
	require.NoError(t, store.Load(context.Background()))
	_, ok = store.Lookup("key-a")
	assert.False(t, ok, "old key must be gone after reload")
	_, ok = store.Lookup("key-b")
	assert.True(t, ok)
}

func TestKeyStore_Lookup_BeforeLoad(t *testing.T) {
	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: "https://login.example.com/keys"})
	require.NoError(t, err)

	_, ok := store.Lookup("any")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestKeyStore_ConcurrentLookupDuringLoad(t *testing.T) {
	_, pub := authTestGenerateRSAKeyPair(t)
	srv := authTestServeJWKS(t, rsaJWKEntry("key-1", pub))

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	done := make(chan struct{})
	go func() {
		defer close(done)
		deadline := time.Now().Add(50 * time.Millisecond)
		for time.Now().Before(deadline) {
			if key, ok := store.Lookup("key-1"); ok && key == nil {
				t.Error("Lookup returned ok with a nil key")
				return
			}
		}
	}()

	for i := 0; i < 5; i++ {
		require.NoError(t, store.Load(context.Background()))
	}
	<-done
}

func TestParseRSAPublicKey(t *testing.T) {
	_, pub := authTestGenerateRSAKeyPair(t)

	n := base64.RawURLEncoding.EncodeToString(pub.N.Bytes())
	e := base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes())

	got, err := parseRSAPublicKey(n, e)
	require.NoError(t, err)
	assert.Equal(t, pub.N, got.N)
	assert.Equal(t, pub.E, got.E)

	_, err = parseRSAPublicKey("!!bad!!", e)
	assert.Error(t, err)
	_, err = parseRSAPublicKey(n, "!!bad!!")
	assert.Error(t, err)

	// Exponents that do not fit in 32 bits must be rejected, not
	// silently truncated into a bogus key.
	oversized := base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x00, 0x00, 0x01})
	_, err = parseRSAPublicKey(n, oversized)
	assert.Error(t, err)

	zero := base64.RawURLEncoding.EncodeToString([]byte{0x00})
	_, err = parseRSAPublicKey(n, zero)
	assert.Error(t, err)
}

func TestKeyStore_Load_SkipsOversizedExponent(t *testing.T) {
	_, pub := authTestGenerateRSAKeyPair(t)
	bigExp := base64.RawURLEncoding.EncodeToString([]byte{0x01, 0x00, 0x00, 0x00, 0x01})
	srv := authTestServeJWKS(t,
		jwkEntry{Kty: "RSA", Kid: "huge-exp", Use: "sig", N: rsaJWKEntry("x", pub).N, E: bigExp},
		rsaJWKEntry("good", pub),
	)

	store, err := NewKeyStore(KeyStoreConfig{JWKSURL: srv.URL})
	require.NoError(t, err)
	require.NoError(t, store.Load(context.Background()))

	assert.Equal(t, 1, store.Len())
	_, ok := store.Lookup("good")
	assert.True(t, ok)
}
