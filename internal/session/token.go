package session

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tillway/tillway/internal/authz"
)

// Validation failure taxonomy. Every failure is resolved by callers as "not
// authenticated"; the specific error is for diagnostic logging only.
var (
	ErrMissingToken  = errors.New("session: missing token")
	ErrTokenDecode   = errors.New("session: token decode failed")
	ErrMissingFields = errors.New("session: token payload missing fields")
	ErrInvalidRole   = errors.New("session: token role not recognised")
	ErrTokenExpired  = errors.New("session: token expired")
)

// NoExpiry marks a validation result whose token carries no expiry claim.
const NoExpiry = time.Duration(-1)

// Validation is the outcome of decoding one token.
type Validation struct {
	Valid    bool
	Identity *authz.Identity
	Err      error
	// ExpiresIn is the remaining lifetime, or NoExpiry when the token has
	// no expiry claim.
	ExpiresIn time.Duration
}

// Validator decodes backend-issued bearer tokens into identities.
//
// The payload is parsed without verifying the signature: the backend signs
// and independently enforces authorization on every request, so this layer is
// a UX convenience and must never be treated as a security boundary. A
// resourceful client could forge a payload; all it would gain is a page shell
// whose data calls the backend rejects.
type Validator struct {
	logger *slog.Logger
	leeway time.Duration
	now    func() time.Time

	// RefreshHook is an extension point for proactive token refresh. It is
	// never invoked by this package; wiring it up requires a backend
	// refresh endpoint that does not exist yet.
	RefreshHook func(identity authz.Identity, remaining time.Duration)
}

// NewValidator constructs a Validator. leeway is the clock-skew tolerance
// applied to expiry checks.
func NewValidator(logger *slog.Logger, leeway time.Duration) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{logger: logger, leeway: leeway, now: time.Now}
}

// WithClock overrides the time source, for tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	v.now = now
	return v
}

// Validate decodes and validates a raw token string.
func (v *Validator) Validate(raw string) Validation {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Validation{Err: ErrMissingToken, ExpiresIn: NoExpiry}
	}

	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return Validation{Err: fmt.Errorf("%w: %v", ErrTokenDecode, err), ExpiresIn: NoExpiry}
	}

	id := stringClaim(claims, "id")
	if id == "" {
		id = stringClaim(claims, "sub")
	}
	email := stringClaim(claims, "email")
	role := stringClaim(claims, "role")

	var missing []string
	if id == "" {
		missing = append(missing, "id")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if role == "" {
		missing = append(missing, "role")
	}
	if len(missing) > 0 {
		return Validation{Err: fmt.Errorf("%w: %s", ErrMissingFields, strings.Join(missing, ", ")), ExpiresIn: NoExpiry}
	}

	if !authz.IsValidRole(authz.Role(role)) {
		return Validation{Err: fmt.Errorf("%w: %q", ErrInvalidRole, role), ExpiresIn: NoExpiry}
	}

	identity := &authz.Identity{ID: id, Email: email, Role: authz.Role(role)}

	exp, err := claims.GetExpirationTime()
	if err != nil {
		return Validation{Err: fmt.Errorf("%w: exp claim: %v", ErrTokenDecode, err), ExpiresIn: NoExpiry}
	}
	if exp == nil {
		// Tokens without expiry are accepted indefinitely. Deliberate:
		// the issuing backend decides lifetimes, not this layer.
		v.logger.Warn("session token carries no expiry",
			slog.String("user", identity.ID))
		return Validation{Valid: true, Identity: identity, ExpiresIn: NoExpiry}
	}

	remaining := exp.Sub(v.now())
	if remaining+v.leeway <= 0 {
		return Validation{Err: ErrTokenExpired, ExpiresIn: NoExpiry}
	}
	return Validation{Valid: true, Identity: identity, ExpiresIn: remaining}
}

// CloseToExpiration reports whether the token validates and its remaining
// lifetime is at or under the threshold. A soft warning signal only; no
// automatic refresh happens anywhere in the console.
func (v *Validator) CloseToExpiration(raw string, threshold time.Duration) bool {
	result := v.Validate(raw)
	if !result.Valid || result.ExpiresIn == NoExpiry {
		return false
	}
	return result.ExpiresIn <= threshold
}

// Fingerprint derives a stable cache/revocation key from a raw token without
// storing the token itself.
func Fingerprint(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:16])
}

// stringClaim reads a claim as a string. Numeric values are coerced: backends
// commonly issue numeric ids and subjects.
func stringClaim(claims jwt.MapClaims, key string) string {
	switch value := claims[key].(type) {
	case string:
		return strings.TrimSpace(value)
	case float64:
		if value == math.Trunc(value) {
			return strconv.FormatInt(int64(value), 10)
		}
		return strconv.FormatFloat(value, 'f', -1, 64)
	case json.Number:
		return value.String()
	default:
		return ""
	}
}
