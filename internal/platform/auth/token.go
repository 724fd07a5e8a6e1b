// Package auth issues and validates partner session tokens. A token carries
// the PartnerContext (partner id + service type) so handlers and services
// receive the partner identity explicitly instead of reading global state.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// ServiceType is the partner's line of business. It decides whether the
// partner works appointment records (veterinary, grooming) or order records
// (pharmacy, essentials).
type ServiceType string

const (
	ServiceVeterinary ServiceType = "veterinary"
	ServiceGrooming   ServiceType = "grooming"
	ServicePharmacy   ServiceType = "pharmacy"
	ServiceEssentials ServiceType = "essentials"
)

// Valid reports whether st is a known service type.
func (st ServiceType) Valid() bool {
	switch st {
	case ServiceVeterinary, ServiceGrooming, ServicePharmacy, ServiceEssentials:
		return true
	}
	return false
}

// PartnerContext is the authenticated partner identity attached to a request.
type PartnerContext struct {
	PartnerID   uuid.UUID
	ServiceType ServiceType
	Name        string
}

// Claims is the JWT payload for a partner session.
type Claims struct {
	jwt.RegisteredClaims
	ServiceType string `json:"service_type"`
	Name        string `json:"name"`
}

// ErrTokenExpired marks a session past its lifetime, so the API can tell the
// client to re-login instead of showing a generic failure.
var ErrTokenExpired = errors.New("auth: session expired")

// Signer mints and parses HS256 session tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

// NewSigner creates a signer. ttl bounds the session lifetime.
func NewSigner(secret []byte, ttl time.Duration) *Signer {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Signer{secret: secret, ttl: ttl}
}

// Sign mints a session token for the partner.
func (s *Signer) Sign(pc PartnerContext) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   pc.PartnerID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
		ServiceType: string(pc.ServiceType),
		Name:        pc.Name,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse validates a token and returns the partner context it carries.
func (s *Signer) Parse(tokenString string) (PartnerContext, error) {
	var claims Claims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return PartnerContext{}, ErrTokenExpired
		}
		return PartnerContext{}, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return PartnerContext{}, errors.New("auth: invalid token")
	}
	partnerID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return PartnerContext{}, fmt.Errorf("parse subject: %w", err)
	}
	return PartnerContext{
		PartnerID:   partnerID,
		ServiceType: ServiceType(claims.ServiceType),
		Name:        claims.Name,
	}, nil
}
