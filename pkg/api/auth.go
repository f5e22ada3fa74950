package api

// LoginRequest представляет запрос на аутентификацию по email и паролю
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// GoogleLoginRequest представляет запрос на вход через Google (ID token)
type GoogleLoginRequest struct {
	Token string `json:"token"`
}

// TokenResponse представляет ответ с парой токенов
type TokenResponse struct {
	AccessToken  string `json:"accessToken"`  // JWT access token
	RefreshToken string `json:"refreshToken"` // refresh token
}

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error,omitempty"`   // описание ошибки
	Message string `json:"message,omitempty"` // дополнительное сообщение
}
