package apitest

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims - claims access токена фейкового сервера
type Claims struct {
	Email string `json:"email"`
	// Generation растет при ExpireAccessTokens; токены старых поколений отклоняются
	Generation int `json:"gen"`
	jwt.RegisteredClaims
}

type tokenIssuer struct {
	secret    []byte
	accessTTL time.Duration
}

func (ti tokenIssuer) access(userID, email string, gen int) (string, error) {
	now := time.Now()
	claims := Claims{
		Email:      email,
		Generation: gen,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(ti.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			// уникальность токена в пределах одной секунды
			ID:     randomToken(8),
			Issuer: "fitshare-apitest",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(ti.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (ti tokenIssuer) parse(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return ti.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// randomToken - непрозрачный refresh token
func randomToken(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		panic(fmt.Sprintf("apitest: failed to generate token: %v", err))
	}
	return base64.RawURLEncoding.EncodeToString(b)
}
