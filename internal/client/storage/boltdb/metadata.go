package boltdb

import (
	"context"
	"fmt"

	"go.etcd.io/bbolt"

	"github.com/iudanet/fitshare/internal/crypto"
)

const keySealSalt = "seal_salt"

// GetOrCreateSealSalt возвращает соль для деривации ключа шифрования токенов.
// При первом обращении соль генерируется и сохраняется.
func (s *Storage) GetOrCreateSealSalt(ctx context.Context) ([]byte, error) {
	var salt []byte

	err := s.update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(bucketMetadata)
		if bucket == nil {
			return fmt.Errorf("metadata bucket not found")
		}

		if stored := bucket.Get([]byte(keySealSalt)); stored != nil {
			salt = append([]byte(nil), stored...)
			return nil
		}

		var err error
		salt, err = crypto.GenerateSalt()
		if err != nil {
			return err
		}

		if err := bucket.Put([]byte(keySealSalt), salt); err != nil {
			return fmt.Errorf("failed to save salt: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return salt, nil
}
