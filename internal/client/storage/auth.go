package storage

import (
	"context"

	"github.com/iudanet/fitshare/pkg/api"
)

//go:generate moq -out auth_mock.go . AuthStorage UserStorage

// AuthStorage defines interface for storing the credential pair on client.
// Every authenticated request re-reads tokens through this interface,
// so implementations must not hand out cached copies that outlive a write.
type AuthStorage interface {
	// SaveAuth stores both tokens at once. A pair with only one token is rejected with ErrInvalidAuth
	SaveAuth(ctx context.Context, auth *AuthData) error

	// GetAuth retrieves stored credentials
	// Returns ErrAuthNotFound if no auth data exists
	GetAuth(ctx context.Context) (*AuthData, error)

	// DeleteAuth removes both tokens (logout)
	DeleteAuth(ctx context.Context) error

	// IsAuthenticated reports whether a credential pair is present
	IsAuthenticated(ctx context.Context) (bool, error)
}

// UserStorage хранит профиль текущего пользователя
type UserStorage interface {
	SaveUser(ctx context.Context, user *api.User) error

	// GetUser returns ErrUserNotFound if nobody is logged in
	GetUser(ctx context.Context) (*api.User, error)

	DeleteUser(ctx context.Context) error
}

// Store объединяет хранилище токенов и профиля
type Store interface {
	AuthStorage
	UserStorage
}

// AuthData represents the credential pair in storage.
// In memory tokens are plaintext; auth.SealedStore encrypts them before they reach disk.
type AuthData struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	UserID       string `json:"user_id,omitempty"`
	Email        string `json:"email,omitempty"`
}

// Validate проверяет, что оба токена заданы вместе
func (a *AuthData) Validate() error {
	if a == nil || a.AccessToken == "" || a.RefreshToken == "" {
		return ErrInvalidAuth
	}
	return nil
}
