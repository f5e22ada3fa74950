package boltdb

import (
	"context"
	"encoding/json"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fitshare/internal/client/storage"
	"github.com/iudanet/fitshare/pkg/api"
)

var userKey = []byte("me")

// SaveUser сохраняет профиль текущего пользователя
func (s *Storage) SaveUser(ctx context.Context, user *api.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}

	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUser)
		if bucket == nil {
			return fmt.Errorf("user bucket not found")
		}

		data, err := json.Marshal(user)
		if err != nil {
			return fmt.Errorf("failed to marshal user: %w", err)
		}

		return bucket.Put(userKey, data)
	})
}

// GetUser возвращает профиль текущего пользователя
func (s *Storage) GetUser(ctx context.Context) (*api.User, error) {
	var user *api.User

	err := s.view(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUser)
		if bucket == nil {
			return fmt.Errorf("user bucket not found")
		}

		data := bucket.Get(userKey)
		if data == nil {
			return storage.ErrUserNotFound
		}

		user = &api.User{}
		if err := json.Unmarshal(data, user); err != nil {
			return fmt.Errorf("failed to unmarshal user: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return user, nil
}

// DeleteUser удаляет профиль (logout)
func (s *Storage) DeleteUser(ctx context.Context) error {
	return s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketUser)
		if bucket == nil {
			return fmt.Errorf("user bucket not found")
		}
		return bucket.Delete(userKey)
	})
}
