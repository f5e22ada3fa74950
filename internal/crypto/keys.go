package crypto

import (
	"crypto/rand"
	"errors"
	"fmt"

	"golang.org/x/crypto/argon2"
)

// Параметры Argon2id для ключа шифрования локального хранилища
const (
	Argon2Time    = 1
	Argon2Memory  = 64 * 1024 // KB
	Argon2Threads = 4
	// KeySize - длина ключа AES-256
	KeySize = 32
	// SaltSize - размер соли в байтах
	SaltSize = 32
)

// ErrEmptyPassphrase возвращается при попытке вывести ключ из пустой фразы
var ErrEmptyPassphrase = errors.New("passphrase cannot be empty")

// GenerateSalt генерирует криптографически случайную соль
func GenerateSalt() ([]byte, error) {
	salt := make([]byte, SaltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, fmt.Errorf("failed to generate salt: %w", err)
	}
	return salt, nil
}

// DeriveKey выводит ключ шифрования токенов из парольной фразы хранилища.
// Одинаковые фраза и соль всегда дают один и тот же ключ.
func DeriveKey(passphrase string, salt []byte) ([]byte, error) {
	if passphrase == "" {
		return nil, ErrEmptyPassphrase
	}
	if len(salt) != SaltSize {
		return nil, fmt.Errorf("salt must be %d bytes, got %d", SaltSize, len(salt))
	}

	// context string отделяет этот ключ от любых других, выведенных из той же фразы
	input := append([]byte(passphrase), "fitshare-token-seal"...)
	return argon2.IDKey(input, salt, Argon2Time, Argon2Memory, Argon2Threads, KeySize), nil
}
