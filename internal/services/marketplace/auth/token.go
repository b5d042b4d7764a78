// Package auth verifies bearer tokens minted by the external auth
// collaborator and exposes the caller as a requestctx.User.
package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/louisbranch/scrapkart/internal/platform/errors"
	"github.com/louisbranch/scrapkart/internal/platform/id"
	"github.com/louisbranch/scrapkart/internal/platform/requestctx"
)

// minSecretBytes is the shortest accepted HS256 secret.
const minSecretBytes = 32

// Config defines how tokens are verified.
type Config struct {
	Secret string `env:"SCRAPKART_AUTH_TOKEN_SECRET"`
	Issuer string `env:"SCRAPKART_AUTH_TOKEN_ISSUER" envDefault:"scrapkart"`
}

// claims is the token payload. The subject carries the user id.
type claims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
}

// Verifier checks HS256 tokens.
type Verifier struct {
	secret []byte
	issuer string
	now    func() time.Time
}

// NewVerifier validates cfg and returns a verifier. A nil now uses time.Now.
func NewVerifier(cfg Config, now func() time.Time) (*Verifier, error) {
	secret := strings.TrimSpace(cfg.Secret)
	issuer := strings.TrimSpace(cfg.Issuer)
	if secret == "" {
		return nil, fmt.Errorf("SCRAPKART_AUTH_TOKEN_SECRET is required")
	}
	if len(secret) < minSecretBytes {
		return nil, fmt.Errorf("auth token secret must be at least %d bytes", minSecretBytes)
	}
	if issuer == "" {
		return nil, fmt.Errorf("SCRAPKART_AUTH_TOKEN_ISSUER is required")
	}
	if now == nil {
		now = time.Now
	}
	return &Verifier{secret: []byte(secret), issuer: issuer, now: now}, nil
}

// Issue signs a token for user valid for ttl.
func (v *Verifier) Issue(user requestctx.User, ttl time.Duration) (string, error) {
	if !user.Present() {
		return "", errors.New("user id is required")
	}
	if ttl <= 0 {
		return "", errors.New("ttl must be positive")
	}
	jti, err := id.NewID()
	if err != nil {
		return "", err
	}
	now := v.now().UTC()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    v.issuer,
			Subject:   strings.TrimSpace(user.ID),
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email: strings.TrimSpace(user.Email),
		Name:  strings.TrimSpace(user.DisplayName),
	})
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses token and returns the user it names.
func (v *Verifier) Verify(token string) (requestctx.User, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return requestctx.User{}, apperrors.New(apperrors.CodeUnauthenticated, "token is required")
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(token, &parsed, func(*jwt.Token) (any, error) {
		return v.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(v.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return requestctx.User{}, mapJWTError(err)
	}
	if strings.TrimSpace(parsed.Subject) == "" {
		return requestctx.User{}, apperrors.WithMetadata(apperrors.CodeUnauthenticated, "token subject is required", map[string]string{"Field": "sub"})
	}
	return requestctx.User{
		ID:          strings.TrimSpace(parsed.Subject),
		Email:       parsed.Email,
		DisplayName: parsed.Name,
	}, nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is expired", err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token signature is invalid", err)
	case errors.Is(err, jwt.ErrTokenInvalidIssuer):
		return apperrors.WrapWithMetadata(apperrors.CodeUnauthenticated, "token issuer mismatch", map[string]string{"Field": "iss"}, err)
	case errors.Is(err, jwt.ErrTokenUnverifiable):
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token alg is invalid", err)
	default:
		return apperrors.Wrap(apperrors.CodeUnauthenticated, "token is invalid", err)
	}
}
