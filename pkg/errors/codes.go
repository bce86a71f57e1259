package errors

// Code represents a machine-readable error code for categorizing errors.
// Codes follow the pattern CATEGORY_XXX where CATEGORY is a short identifier
// (e.g., AUTH, VAL, NF) and XXX is a three-digit numeric code.
//
// Codes are stable once assigned; tests and log-based alerting rely on them.
type Code string

// Error code categories and their HTTP mappings:
//
//	VAL_xxx     - Validation errors (400 Bad Request)
//	AUTH_xxx    - Authentication errors (401 Unauthorized)
//	NF_xxx      - Not found errors (404 Not Found)
//	INT_xxx     - Internal errors (500 Internal Server Error)
//	UNAVAIL_xxx - Service unavailable (503 Service Unavailable)
//	TIMEOUT_xxx - Timeout errors (504 Gateway Timeout)
const (
	// Validation errors (VAL_xxx) - HTTP 400

	// CodeValidation indicates a general validation failure.
	CodeValidation Code = "VAL_001"

	// CodeValidationRequired indicates a required field is missing or empty.
	CodeValidationRequired Code = "VAL_002"

	// CodeValidationRange indicates a value is outside its acceptable range,
	// such as a rating outside the 1-5 scale.
	CodeValidationRange Code = "VAL_003"

	// Authentication errors (AUTH_xxx) - HTTP 401
	//
	// Every one of these collapses to the same opaque 401 at the HTTP
	// boundary. The distinct codes exist for logging and tests only.

	// CodeAuthentication indicates a general authentication failure, such
	// as a missing or non-bearer Authorization header.
	CodeAuthentication Code = "AUTH_001"

	// CodeAuthMalformedToken indicates the bearer token is not a
	// well-formed JWT or lacks a key identifier in its header.
	CodeAuthMalformedToken Code = "AUTH_002"

	// CodeAuthUnknownKey indicates the token's kid is not present in the
	// loaded key set. Expected after provider-side key rotation until the
	// process is restarted; always a rejection, never a retry.
	CodeAuthUnknownKey Code = "AUTH_003"

	// CodeAuthAlgorithmMismatch indicates the token declares a signing
	// algorithm other than RS256. Rejecting these up front defeats
	// algorithm-substitution attacks (e.g., "none" or HMAC-signed tokens
	// presented against an RSA key).
	CodeAuthAlgorithmMismatch Code = "AUTH_004"

	// CodeAuthAudienceMismatch indicates the token's aud claim does not
	// exactly match the audience this API is configured to accept.
	CodeAuthAudienceMismatch Code = "AUTH_005"

	// CodeAuthExpiredToken indicates the token's temporal claims failed:
	// it has expired or is not yet valid.
	CodeAuthExpiredToken Code = "AUTH_006"

	// Not found errors (NF_xxx) - HTTP 404

	// CodeNotFound indicates a general not found error.
	CodeNotFound Code = "NF_001"

	// CodeNotFoundPlace indicates the requested place does not exist.
	CodeNotFoundPlace Code = "NF_002"

	// Internal errors (INT_xxx) - HTTP 500

	// CodeInternal indicates a general internal error.
	CodeInternal Code = "INT_001"

	// CodeInternalDatabase indicates a database operation failed.
	CodeInternalDatabase Code = "INT_002"

	// CodeInternalConfiguration indicates a configuration error.
	CodeInternalConfiguration Code = "INT_003"

	// Unavailable errors (UNAVAIL_xxx) - HTTP 503

	// CodeUnavailable indicates a general service unavailable error.
	CodeUnavailable Code = "UNAVAIL_001"

	// CodeUnavailableKeyStore indicates the identity provider's discovery
	// endpoint could not be fetched or parsed, or yielded no usable signing
	// keys. Fatal at startup: the service cannot authenticate anyone
	// without at least one verification key.
	CodeUnavailableKeyStore Code = "UNAVAIL_002"

	// CodeUnavailableDatabase indicates the database cannot be reached or
	// the connection pool is exhausted. Callers may retry; the service
	// itself does not retry inside the request path.
	CodeUnavailableDatabase Code = "UNAVAIL_003"

	// Timeout errors (TIMEOUT_xxx) - HTTP 504

	// CodeTimeout indicates a general timeout error.
	CodeTimeout Code = "TIMEOUT_001"

	// CodeTimeoutDatabase indicates a database operation timed out.
	CodeTimeoutDatabase Code = "TIMEOUT_002"
)

// String returns the string representation of the error code.
func (c Code) String() string {
	return string(c)
}

// Category returns the category prefix of the error code (e.g., "VAL", "AUTH").
func (c Code) Category() string {
	s := string(c)
	for i, r := range s {
		if r == '_' {
			return s[:i]
		}
	}
	return s
}
