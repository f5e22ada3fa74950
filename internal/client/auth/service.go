// Package auth управляет сессией пользователя: вход, регистрация, выход
// и обновление пары токенов через api.AuthInterceptor.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/iudanet/fitshare/internal/client/api"
	"github.com/iudanet/fitshare/internal/client/storage"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// Service предоставляет функции авторизации
type Service struct {
	public      *api.Client
	store       storage.Store
	interceptor *api.AuthInterceptor
	logger      *slog.Logger
}

// NewService создает сервис авторизации. public - клиент без авторизации.
// Авторизованный клиент строится как public.With(svc.Middleware()).
func NewService(public *api.Client, store storage.Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		public:      public,
		store:       store,
		interceptor: api.NewAuthInterceptor(store, public, logger),
		logger:      logger,
	}
}

// Middleware возвращает перехватчик для авторизованного клиента
func (s *Service) Middleware() api.Middleware {
	return s.interceptor.Middleware()
}

// Interceptor возвращает перехватчик сессии
func (s *Service) Interceptor() *api.AuthInterceptor {
	return s.interceptor
}

// RegisterRequest - данные формы регистрации
type RegisterRequest struct {
	Picture  *api.File
	FullName string
	Email    string
	Password string
	HomeCity string
}

// Register регистрирует нового пользователя. Токены не выдаются, после
// регистрации нужен Login.
func (s *Service) Register(ctx context.Context, req RegisterRequest) *api.Handle[*pkgapi.User] {
	form := api.Form{}.
		Add("fullName", req.FullName).
		Add("email", req.Email).
		Add("password", req.Password).
		Add("homeCity", optional(req.HomeCity)).
		Add(api.PictureField, req.Picture)

	return api.Go(ctx, func(ctx context.Context) (*pkgapi.User, error) {
		resp, err := s.public.Do(ctx, api.NewMultipartRequest(http.MethodPost, "/auth/register", form))
		if err != nil {
			return nil, fmt.Errorf("registration failed: %w", err)
		}

		var user pkgapi.User
		if err := resp.Decode(&user); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "user registered", "email", RedactEmail(req.Email))
		return &user, nil
	})
}

// Login выполняет вход по email и паролю и сохраняет пару токенов
func (s *Service) Login(ctx context.Context, email, password string) *api.Handle[*pkgapi.TokenResponse] {
	req := api.NewJSONRequest(http.MethodPost, "/auth/login", pkgapi.LoginRequest{
		Email:    email,
		Password: password,
	})
	return api.Go(ctx, func(ctx context.Context) (*pkgapi.TokenResponse, error) {
		return s.startSession(ctx, req, email)
	})
}

// GoogleLogin выполняет вход по Google ID token
func (s *Service) GoogleLogin(ctx context.Context, idToken string) *api.Handle[*pkgapi.TokenResponse] {
	req := api.NewJSONRequest(http.MethodPost, "/auth/google-login", pkgapi.GoogleLoginRequest{
		Token: idToken,
	})
	return api.Go(ctx, func(ctx context.Context) (*pkgapi.TokenResponse, error) {
		return s.startSession(ctx, req, "")
	})
}

func (s *Service) startSession(ctx context.Context, req *api.Request, email string) (*pkgapi.TokenResponse, error) {
	resp, err := s.public.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}

	var tokens pkgapi.TokenResponse
	if err := resp.Decode(&tokens); err != nil {
		return nil, err
	}

	auth := &storage.AuthData{
		AccessToken:  tokens.AccessToken,
		RefreshToken: tokens.RefreshToken,
		Email:        email,
	}
	// Идентификатор пользователя берем из subject, если токен - JWT
	if info, err := InspectToken(tokens.AccessToken); err == nil {
		auth.UserID = info.Subject
	}

	// Профиль прошлого пользователя больше не актуален
	if err := s.store.DeleteUser(ctx); err != nil {
		return nil, fmt.Errorf("failed to clear user: %w", err)
	}
	if err := s.store.SaveAuth(ctx, auth); err != nil {
		return nil, fmt.Errorf("failed to save auth data: %w", err)
	}

	s.logger.InfoContext(ctx, "logged in", "email", RedactEmail(email))
	return &tokens, nil
}

// Refresh принудительно обновляет пару токенов
func (s *Service) Refresh(ctx context.Context) error {
	return s.interceptor.Refresh(ctx)
}

// Logout уведомляет сервер (refresh token в Authorization) и всегда удаляет
// локальные токены и профиль. Ошибка сервера возвращается после очистки.
func (s *Service) Logout(ctx context.Context) error {
	var serverErr error

	auth, err := s.store.GetAuth(ctx)
	switch {
	case errors.Is(err, storage.ErrAuthNotFound):
		serverErr = api.ErrNotAuthenticated
	case err != nil:
		return fmt.Errorf("failed to get auth data: %w", err)
	default:
		req := api.NewRequest(http.MethodGet, "/auth/logout").
			SetHeader("Authorization", "Bearer "+auth.RefreshToken)
		if _, err := s.public.Do(ctx, req); err != nil {
			s.logger.WarnContext(ctx, "failed to logout on server", "error", err)
			serverErr = fmt.Errorf("server logout failed: %w", err)
		}
	}

	// Локальные данные удаляем, даже если сервер недоступен
	if err := s.store.DeleteAuth(ctx); err != nil {
		return fmt.Errorf("failed to delete local auth data: %w", err)
	}
	if err := s.store.DeleteUser(ctx); err != nil {
		return fmt.Errorf("failed to delete local user: %w", err)
	}

	s.logger.InfoContext(ctx, "logged out")
	return serverErr
}

// Status - состояние локальной сессии
type Status struct {
	User          *pkgapi.User
	Token         *TokenInfo
	Email         string
	UserID        string
	Authenticated bool
}

// Status возвращает состояние сессии без обращения к серверу
func (s *Service) Status(ctx context.Context) (*Status, error) {
	auth, err := s.store.GetAuth(ctx)
	if errors.Is(err, storage.ErrAuthNotFound) {
		return &Status{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get auth data: %w", err)
	}

	st := &Status{
		Authenticated: true,
		Email:         auth.Email,
		UserID:        auth.UserID,
	}
	if info, err := InspectToken(auth.AccessToken); err == nil {
		st.Token = info
	}
	if user, err := s.store.GetUser(ctx); err == nil {
		st.User = user
	} else if !errors.Is(err, storage.ErrUserNotFound) {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return st, nil
}

// RedactEmail скрывает локальную часть адреса для логов
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || local == "" {
		if email == "" {
			return ""
		}
		return "***"
	}
	return local[:1] + "***@" + domain
}

// optional превращает пустую строку в nil, чтобы поле не попало в форму
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
