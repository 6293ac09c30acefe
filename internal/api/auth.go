package api

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"orderdesk/internal/access"
	"orderdesk/internal/apperr"
)

// Claims is the bearer token payload. Subject carries the numeric user id.
type Claims struct {
	Roles []string `json:"roles"`
	jwt.RegisteredClaims
}

// TokenValidator checks HS256 bearer tokens issued elsewhere.
type TokenValidator struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewTokenValidator creates a validator for secret. An empty issuer accepts any issuer.
func NewTokenValidator(secret, issuer string) *TokenValidator {
	return &TokenValidator{
		secret: []byte(strings.TrimSpace(secret)),
		issuer: strings.TrimSpace(issuer),
		now:    time.Now,
	}
}

// Validate parses token and returns the principal it names.
func (v *TokenValidator) Validate(token string) (access.Principal, error) {
	if strings.TrimSpace(token) == "" {
		return access.Principal{}, fmt.Errorf("%w: missing token", apperr.ErrUnauthenticated)
	}
	if len(v.secret) == 0 {
		return access.Principal{}, fmt.Errorf("%w: jwt secret not configured", apperr.ErrUnauthenticated)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithLeeway(5 * time.Second),
		jwt.WithTimeFunc(v.now),
	}
	if v.issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.issuer))
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, opts...)
	if err != nil {
		return access.Principal{}, fmt.Errorf("%w: %v", apperr.ErrUnauthenticated, err)
	}
	if !parsed.Valid {
		return access.Principal{}, fmt.Errorf("%w: invalid token", apperr.ErrUnauthenticated)
	}

	id, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || id <= 0 {
		return access.Principal{}, fmt.Errorf("%w: subject %q is not a user id", apperr.ErrUnauthenticated, claims.Subject)
	}
	return access.Principal{UserID: id, Roles: access.ParseRoles(claims.Roles)}, nil
}

// bearerToken extracts the token of an "Authorization: Bearer ..." header.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	return strings.TrimSpace(token), true
}
