package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"task-tracker/internal/model"
)

// Kind selects which secret and TTL a token is bound to. Access and refresh
// tokens are signed with independent secrets so one kind can never be used to
// forge the other.
type Kind int

const (
	Access Kind = iota
	Refresh
)

func (k Kind) String() string {
	if k == Refresh {
		return "refresh"
	}
	return "access"
}

type Codec struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewCodec(accessSecret string, refreshSecret string, accessTTL time.Duration, refreshTTL time.Duration) (*Codec, error) {
	if accessSecret == "" || refreshSecret == "" {
		return nil, errors.New("token secrets are required")
	}
	if accessSecret == refreshSecret {
		return nil, errors.New("access and refresh secrets must differ")
	}

	return &Codec{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}, nil
}

// Issue builds a signed token with subject = the user's email and the
// kind-specific expiration. The jti claim makes every issued token unique,
// so a rotated refresh token can never collide with its predecessor even
// when both are minted within the same second.
func (c *Codec) Issue(email string, kind Kind) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": email,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(c.ttl(kind)).Unix(),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret(kind))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", kind, err)
	}
	return signed, nil
}

// Verify parses the token against the kind's secret and returns its subject
// and expiry. A token signed with the other kind's secret fails the signature
// check, by key separation rather than claim inspection.
func (c *Codec) Verify(tokenString string, kind Kind) (string, time.Time, error) {
	parsed, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		return c.secret(kind), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", time.Time{}, model.ErrTokenExpired
		}
		return "", time.Time{}, model.ErrTokenMalformed
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", time.Time{}, model.ErrTokenMalformed
	}

	subject, err := claims.GetSubject()
	if err != nil || subject == "" {
		return "", time.Time{}, model.ErrTokenMalformed
	}

	expiry, err := claims.GetExpirationTime()
	if err != nil || expiry == nil {
		return "", time.Time{}, model.ErrTokenMalformed
	}

	return subject, expiry.Time, nil
}

// IsValid reports whether the token verifies under the kind's secret, is not
// expired, and belongs to the given email.
func (c *Codec) IsValid(tokenString string, email string, kind Kind) bool {
	subject, _, err := c.Verify(tokenString, kind)
	return err == nil && subject == email
}

// RefreshTTL is the lifetime used for stored refresh-token rows.
func (c *Codec) RefreshTTL() time.Duration {
	return c.refreshTTL
}

func (c *Codec) secret(kind Kind) []byte {
	if kind == Refresh {
		return c.refreshSecret
	}
	return c.accessSecret
}

func (c *Codec) ttl(kind Kind) time.Duration {
	if kind == Refresh {
		return c.refreshTTL
	}
	return c.accessTTL
}
