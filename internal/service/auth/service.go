package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/slotwise/booking-api/internal/model"
	"github.com/slotwise/booking-api/internal/repository"
	"github.com/slotwise/booking-api/pkg/auth"
	apperr "github.com/slotwise/booking-api/pkg/errors"
	"github.com/slotwise/booking-api/pkg/security"
)

// Service issues the session tokens the engine trusts for actor identity.
type Service struct {
	users  repository.UserRepository
	hasher security.PasswordHasher
	jwt    auth.JWTService
}

func NewService(users repository.UserRepository, hasher security.PasswordHasher, jwt auth.JWTService) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		jwt:    jwt,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, apperr.Validation("email already registered", nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperr.Internal(err)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Validation("invalid password", err)
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Name:         req.Name,
		Email:        email,
		Phone:        req.Phone,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperr.Internal(err)
	}

	return s.issueToken(user)
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.AuthResponse, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, apperr.Internal(err)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	return s.issueToken(user)
}

// ValidateToken verifies a session token and returns its claims.
func (s *Service) ValidateToken(token string) (*auth.Claims, error) {
	claims, err := s.jwt.ValidateToken(token)
	if err != nil {
		return nil, apperr.Unauthorized("invalid token")
	}
	return claims, nil
}

func (s *Service) issueToken(user *model.User) (*model.AuthResponse, error) {
	token, err := s.jwt.GenerateToken(user.ID, user.Email)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("failed to issue token: %w", err))
	}
	return &model.AuthResponse{Token: token, User: user}, nil
}
