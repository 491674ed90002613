// Package entitlement issues and verifies signed, time-boxed grants that allow
// an identity to create sessions.
package entitlement

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrMissing   = errors.New("entitlement_required")
	ErrInvalid   = errors.New("entitlement_invalid")
	ErrExpired   = errors.New("entitlement_expired")
	ErrWeakKey   = errors.New("entitlement secret must be at least 16 bytes")
	ErrBadWindow = errors.New("entitlement ttl must be positive")
)

const minSecretLen = 16

type Grant struct {
	ID        string `json:"id"`
	UID       string `json:"uid"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func (g Grant) Expiry() time.Time { return time.Unix(g.ExpiresAt, 0) }

// Signer issues HS256 JWTs whose subject is the granted uid.
type Signer struct {
	key []byte
	now func() time.Time
}

func NewSigner(secret string) (*Signer, error) {
	if len(secret) < minSecretLen {
		return nil, ErrWeakKey
	}
	return &Signer{key: []byte(secret), now: time.Now}, nil
}

func (s *Signer) Issue(uid string, ttl time.Duration) (Grant, string, error) {
	if strings.TrimSpace(uid) == "" {
		return Grant{}, "", ErrInvalid
	}
	if ttl <= 0 {
		return Grant{}, "", ErrBadWindow
	}
	now := s.now().Truncate(time.Second)
	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
	if err != nil {
		return Grant{}, "", err
	}
	return grantFrom(claims), token, nil
}

// Verify checks the signature, the expiry and that the grant belongs to uid.
func (s *Signer) Verify(token, uid string) (Grant, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return Grant{}, ErrMissing
	}
	var claims jwt.RegisteredClaims
	_, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return s.key, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Grant{}, ErrExpired
		}
		return Grant{}, ErrInvalid
	}
	if _, err := uuid.Parse(claims.ID); err != nil || claims.Subject != uid {
		return Grant{}, ErrInvalid
	}
	return grantFrom(claims), nil
}

func grantFrom(c jwt.RegisteredClaims) Grant {
	g := Grant{ID: c.ID, UID: c.Subject}
	if c.IssuedAt != nil {
		g.IssuedAt = c.IssuedAt.Unix()
	}
	if c.ExpiresAt != nil {
		g.ExpiresAt = c.ExpiresAt.Unix()
	}
	return g
}
