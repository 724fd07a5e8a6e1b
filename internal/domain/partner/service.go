package partner

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/pawcare/partner-api/internal/platform/auth"
)

// Service handles partner registration, login, and profile management.
type Service struct {
	partners Repository
	signer   *auth.Signer
}

func NewService(partners Repository, signer *auth.Signer) *Service {
	return &Service{partners: partners, signer: signer}
}

// Register creates a partner account.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Partner, error) {
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))
	if in.Name == "" || in.Email == "" {
		return nil, fmt.Errorf("name and email are required")
	}
	if len(in.Password) < 8 {
		return nil, fmt.Errorf("password must be at least 8 characters")
	}
	if !in.ServiceType.Valid() {
		return nil, fmt.Errorf("service_type must be veterinary, grooming, pharmacy, or essentials")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p := &Partner{
		ID:           uuid.New(),
		Name:         in.Name,
		Email:        in.Email,
		Phone:        in.Phone,
		PasswordHash: string(hash),
		ServiceType:  in.ServiceType,
		Address:      in.Address,
		Active:       true,
	}
	if err := s.partners.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Login verifies credentials and mints a session token.
func (s *Service) Login(ctx context.Context, in LoginInput) (string, *Partner, error) {
	p, err := s.partners.GetByEmail(ctx, strings.TrimSpace(in.Email))
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return "", nil, ErrBadCredentials
		}
		return "", nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(in.Password)); err != nil {
		return "", nil, ErrBadCredentials
	}
	token, err := s.signer.Sign(auth.PartnerContext{
		PartnerID:   p.ID,
		ServiceType: p.ServiceType,
		Name:        p.Name,
	})
	if err != nil {
		return "", nil, err
	}
	return token, p, nil
}

// Get loads a partner profile.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Partner, error) {
	return s.partners.GetByID(ctx, id)
}

// UpdateProfile applies the editable fields and returns the updated profile.
func (s *Service) UpdateProfile(ctx context.Context, id uuid.UUID, in UpdateProfileInput) (*Partner, error) {
	p, err := s.partners.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		if strings.TrimSpace(*in.Name) == "" {
			return nil, fmt.Errorf("name cannot be empty")
		}
		p.Name = *in.Name
	}
	if in.Phone != nil {
		p.Phone = *in.Phone
	}
	if in.Address != nil {
		p.Address = *in.Address
	}
	if in.Active != nil {
		p.Active = *in.Active
	}
	if err := s.partners.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}
