// Package receipt signs and verifies roll receipts: tokens a player can hand to
// someone else as proof of what an expression rolled.
package receipt

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

const issuer = "dndice"

var ErrInvalidReceipt = errors.New("invalid receipt")

// Claims is what a receipt attests to.
type Claims struct {
	Expression string `json:"expression"`
	Value      int    `json:"value"`
	Log        string `json:"log"`
	jwt.RegisteredClaims
}

type Signer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSigner builds a Signer from a hex-encoded HS256 secret. An empty secret
// generates a random one, so receipts only verify within this process.
func NewSigner(secretHex string, ttl time.Duration) (*Signer, error) {
	var (
		secret []byte
		err    error
	)
	if secretHex == "" {
		secret, err = GenerateSecret(32)
	} else {
		secret, err = hex.DecodeString(secretHex)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load receipt secret: %w", err)
	}
	if len(secret) < 16 {
		return nil, fmt.Errorf("receipt secret is %d bytes, need at least 16", len(secret))
	}
	return &Signer{secret: secret, ttl: ttl, now: time.Now}, nil
}

// GenerateSecret returns n random bytes suitable as a signing secret.
func GenerateSecret(n int) ([]byte, error) {
	secret := make([]byte, n)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("error generating random bytes: %w", err)
	}
	return secret, nil
}

// Sign issues a receipt for one roll. A zero ttl issues receipts that never expire.
func (s *Signer) Sign(expression string, value int, rollLog string) (string, error) {
	now := s.now()
	claims := &Claims{
		Expression: expression,
		Value:      value,
		Log:        rollLog,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if s.ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(s.ttl))
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

// Verify checks a receipt's signature and lifetime and returns its claims.
func (s *Signer) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidReceipt, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.Issuer != issuer {
		return nil, ErrInvalidReceipt
	}
	return claims, nil
}
