package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo - сведения из claims access токена
type TokenInfo struct {
	ExpiresAt time.Time
	IssuedAt  time.Time
	Subject   string
}

// Expired сообщает, истек ли токен к моменту now.
// Токен без exp считается бессрочным.
func (t TokenInfo) Expired(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && !now.Before(t.ExpiresAt)
}

// InspectToken читает claims access токена без проверки подписи.
// Ключа подписи у клиента нет; результат годится только для отображения
// и не заменяет проверку на сервере.
func InspectToken(token string) (*TokenInfo, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	info := &TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, nil
}
