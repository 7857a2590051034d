package api

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/hkdf"
)

// RoleOperator is required for the administrative surface.
const RoleOperator = "operator"

var errMasterSecretMissing = errors.New("master secret not configured")

// AdminClaims are the JWT claims expected on administrative requests.
type AdminClaims struct {
	jwt.RegisteredClaims
	Role string `json:"role"`
}

// JWTValidator signs and validates admin tokens. The signing key is
// derived from the master secret with HKDF so the secret itself is never
// used directly as key material on the wire.
type JWTValidator struct {
	key []byte
}

// NewJWTValidator derives the signing key from the master secret.
func NewJWTValidator(masterSecret string) (*JWTValidator, error) {
	if masterSecret == "" {
		return nil, errMasterSecretMissing
	}
	r := hkdf.New(sha256.New, []byte(masterSecret), nil, []byte("jandhan/admin-jwt/v1"))
	key := make([]byte, 32)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, fmt.Errorf("derive signing key: %w", err)
	}
	return &JWTValidator{key: key}, nil
}

// Issue mints an operator token. Used by ops tooling and tests.
func (v *JWTValidator) Issue(subject string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := AdminClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: RoleOperator,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(v.key)
}

// Validate parses and validates a token string.
func (v *JWTValidator) Validate(tokenStr string) (*AdminClaims, error) {
	claims := &AdminClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return v.key, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// Middleware rejects requests without a valid operator bearer token.
// A nil validator fails closed.
func (v *JWTValidator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if v == nil {
			writeError(w, http.StatusServiceUnavailable, "admin surface unavailable")
			return
		}
		raw := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
		if raw == "" || raw == r.Header.Get("Authorization") {
			writeError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}
		claims, err := v.Validate(raw)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid token")
			return
		}
		if claims.Role != RoleOperator {
			writeError(w, http.StatusForbidden, "operator role required")
			return
		}
		next.ServeHTTP(w, r)
	})
}
