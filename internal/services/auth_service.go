package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"treasury-backend/internal/auth"
	"treasury-backend/internal/models"
	"treasury-backend/internal/repositories"
)

var ErrInvalidCredentials = errors.New("invalid email or password")

type AuthService struct {
	Treasurers TreasurerStore
	JWT        *auth.JWTManager
}

func NewAuthService(treasurers TreasurerStore, jwt *auth.JWTManager) *AuthService {
	return &AuthService{Treasurers: treasurers, JWT: jwt}
}

func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.AuthResponse, error) {
	t, err := s.Treasurers.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(t.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	token, err := s.JWT.GenerateToken(t)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &models.AuthResponse{Token: token, Treasurer: t}, nil
}

func (s *AuthService) Profile(ctx context.Context, id int) (*models.Treasurer, error) {
	return s.Treasurers.Get(ctx, id)
}

func (s *AuthService) UpdateProfile(ctx context.Context, id int, req *models.UpdateProfileRequest) (*models.Treasurer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidInput)
	}
	if err := s.Treasurers.UpdateProfile(ctx, id, name, strings.TrimSpace(req.StudentID)); err != nil {
		return nil, err
	}
	return s.Treasurers.Get(ctx, id)
}

// EnsureTreasurer creates the bootstrap treasurer account when no account
// with that email exists yet.
func (s *AuthService) EnsureTreasurer(ctx context.Context, name, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return nil
	}
	_, err := s.Treasurers.GetByEmail(ctx, email)
	if err == nil {
		return nil
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	t := &models.Treasurer{Name: name, Email: email, PasswordHash: hash}
	if err := s.Treasurers.Create(ctx, t); err != nil {
		return err
	}
	log.Printf("[Auth] Created treasurer account %s", email)
	return nil
}
