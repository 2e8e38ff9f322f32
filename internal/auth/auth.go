package auth

import (
	"context"
	"errors"
	"fmt"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"milk2meat/internal/environment"
	"milk2meat/internal/middlewares"
	"milk2meat/internal/models"
	"milk2meat/internal/session"
	"milk2meat/internal/turnstile"
	"time"
)

const emailPasswordFalse = "email or password false"

var ErrInvalidCredentials = errors.New(emailPasswordFalse)

type AuthService struct {
	*environment.Env
	Verifier turnstile.Verifier
	Tokens   *middlewares.TokenIssuer
	Store    session.TokenStore
}

// DoLogin checks the credentials of user and fills in the stored user on success.
func (s *AuthService) DoLogin(ctx context.Context, user *models.User) error {
	var foundUser models.User

	err := s.FindUserLoginCredentials(ctx, user.Email, &foundUser)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("looking up user %s: %w", user.Email, err)
	}

	// the null repository finds nothing without failing
	if foundUser.ID == 0 {
		return ErrInvalidCredentials
	}

	err = models.VerifyPassword(foundUser.Password, user.Password)
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return ErrInvalidCredentials
	}
	if err != nil {
		return fmt.Errorf("verifying password of %s: %w", user.Email, err)
	}

	*user = foundUser
	return nil
}

// IssueToken signs a token for user.
func (s *AuthService) IssueToken(user *models.User) (string, time.Time, error) {
	return s.Tokens.GenerateToken(user.ID, user.Email, middlewares.RolesFor(user.IsSuperuser))
}

// Refresh revokes the token described by claims and issues a replacement with a new expiry.
func (s *AuthService) Refresh(ctx context.Context, claims *middlewares.Claims) (string, time.Time, error) {
	token, expiresAt, err := s.Tokens.GenerateToken(claims.UserId, claims.Email, claims.Roles)
	if err != nil {
		return "", time.Time{}, err
	}

	if err = s.revoke(ctx, claims); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Logout revokes the token described by claims.
func (s *AuthService) Logout(ctx context.Context, claims *middlewares.Claims) error {
	return s.revoke(ctx, claims)
}

func (s *AuthService) revoke(ctx context.Context, claims *middlewares.Claims) error {
	if s.Store == nil {
		return nil
	}
	return s.Store.Revoke(ctx, claims.Id, time.Unix(claims.ExpiresAt, 0))
}
