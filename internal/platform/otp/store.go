// Package otp issues and verifies the one-time codes customers show their
// provider to attest the start of a visit. Codes live in Redis with an
// explicit expiry; a memory-backed implementation serves tests and
// single-node deployments without Redis.
package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/google/uuid"
)

// Verification outcomes. Callers map these onto their own error taxonomy.
var (
	ErrInvalid         = errors.New("otp: code does not match")
	ErrExpired         = errors.New("otp: code has expired")
	ErrNotGenerated    = errors.New("otp: no code was generated for this record")
	ErrAlreadyVerified = errors.New("otp: code was already verified")
)

// DefaultTTL is how long an issued code stays valid.
const DefaultTTL = 24 * time.Hour

// Store issues and checks one-time codes keyed by record id.
type Store interface {
	// Issue generates a fresh numeric code for the record, replacing any
	// previous one, valid for ttl.
	Issue(ctx context.Context, recordID uuid.UUID, ttl time.Duration) (string, error)
	// Verify checks code against the stored one. A successful verification
	// consumes the code; further calls return ErrAlreadyVerified.
	Verify(ctx context.Context, recordID uuid.UUID, code string) error
}

// GenerateCode returns a random 4-digit code, zero padded.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%04d", n.Int64()), nil
}
