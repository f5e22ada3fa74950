package auth

import (
	"context"
	"fmt"

	"github.com/iudanet/fitshare/internal/client/storage"
	"github.com/iudanet/fitshare/internal/crypto"
)

// SealedStore шифрует токены перед записью во вложенное хранилище
// и расшифровывает при чтении. Остальные поля AuthData хранятся как есть.
type SealedStore struct {
	storage storage.AuthStorage
	key     []byte
}

// Compile-time check that SealedStore implements storage.AuthStorage
var _ storage.AuthStorage = (*SealedStore)(nil)

// NewSealedStore создает слой шифрования. key - 32 байта (см. crypto.DeriveKey)
func NewSealedStore(inner storage.AuthStorage, key []byte) (*SealedStore, error) {
	if len(key) != crypto.KeySize {
		return nil, fmt.Errorf("seal key must be %d bytes, got %d", crypto.KeySize, len(key))
	}
	return &SealedStore{storage: inner, key: key}, nil
}

// SaveAuth шифрует токены и передает в хранилище
func (s *SealedStore) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if err := auth.Validate(); err != nil {
		return err
	}

	access, err := crypto.SealString(auth.AccessToken, s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt access token: %w", err)
	}
	refresh, err := crypto.SealString(auth.RefreshToken, s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt refresh token: %w", err)
	}

	// копируем структуру, чтобы не менять входящую
	sealed := *auth
	sealed.AccessToken = access
	sealed.RefreshToken = refresh

	return s.storage.SaveAuth(ctx, &sealed)
}

// GetAuth загружает данные и расшифровывает токены
func (s *SealedStore) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	stored, err := s.storage.GetAuth(ctx)
	if err != nil {
		return nil, err
	}

	access, err := crypto.OpenString(stored.AccessToken, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt access token: %w", err)
	}
	refresh, err := crypto.OpenString(stored.RefreshToken, s.key)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt refresh token: %w", err)
	}

	auth := *stored
	auth.AccessToken = access
	auth.RefreshToken = refresh
	return &auth, nil
}

// DeleteAuth удаляет данные
func (s *SealedStore) DeleteAuth(ctx context.Context) error {
	return s.storage.DeleteAuth(ctx)
}

// IsAuthenticated проверяет наличие сохраненной пары
func (s *SealedStore) IsAuthenticated(ctx context.Context) (bool, error) {
	return s.storage.IsAuthenticated(ctx)
}

// SealedSession объединяет зашифрованное хранилище токенов с хранилищем профиля
type SealedSession struct {
	*SealedStore
	storage.UserStorage
}

var _ storage.Store = SealedSession{}
