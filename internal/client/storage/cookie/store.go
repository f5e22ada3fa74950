// Package cookie хранит пару токенов в cookie jar, как это делает браузер:
// две cookie access_token и refresh_token с path=/ на хосте API.
package cookie

import (
	"context"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"

	"golang.org/x/net/publicsuffix"

	"github.com/iudanet/fitshare/internal/client/storage"
	"github.com/iudanet/fitshare/pkg/api"
)

// Имена cookie с токенами
const (
	AccessTokenCookie  = "access_token"
	RefreshTokenCookie = "refresh_token"
)

// Store реализует storage.Store поверх http.CookieJar.
// Профиль пользователя живет только в памяти процесса.
type Store struct {
	jar  http.CookieJar
	url  *url.URL
	user *api.User
	mu   sync.RWMutex
}

var _ storage.Store = (*Store)(nil)

// New создает хранилище для cookie базового URL API
func New(baseURL string) (*Store, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	// cookie с path=/ должны быть видны для всех путей API
	u = &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}

	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	return &Store{jar: jar, url: u}, nil
}

// Jar возвращает cookie jar, чтобы HTTP клиент отправлял те же cookie
func (s *Store) Jar() http.CookieJar {
	return s.jar
}

// SaveAuth записывает обе cookie
func (s *Store) SaveAuth(ctx context.Context, auth *storage.AuthData) error {
	if err := auth.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.SetCookies(s.url, []*http.Cookie{
		{Name: AccessTokenCookie, Value: auth.AccessToken, Path: "/"},
		{Name: RefreshTokenCookie, Value: auth.RefreshToken, Path: "/"},
	})
	return nil
}

// GetAuth читает токены из jar при каждом вызове
func (s *Store) GetAuth(ctx context.Context) (*storage.AuthData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	auth := &storage.AuthData{}
	for _, c := range s.jar.Cookies(s.url) {
		switch c.Name {
		case AccessTokenCookie:
			auth.AccessToken = c.Value
		case RefreshTokenCookie:
			auth.RefreshToken = c.Value
		}
	}

	if auth.AccessToken == "" && auth.RefreshToken == "" {
		return nil, storage.ErrAuthNotFound
	}
	if err := auth.Validate(); err != nil {
		return nil, err
	}
	if s.user != nil {
		auth.UserID = s.user.ID
		auth.Email = s.user.Email
	}

	return auth, nil
}

// DeleteAuth удаляет обе cookie
func (s *Store) DeleteAuth(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.jar.SetCookies(s.url, []*http.Cookie{
		{Name: AccessTokenCookie, Path: "/", MaxAge: -1},
		{Name: RefreshTokenCookie, Path: "/", MaxAge: -1},
	})
	return nil
}

// IsAuthenticated проверяет наличие пары токенов
func (s *Store) IsAuthenticated(ctx context.Context) (bool, error) {
	_, err := s.GetAuth(ctx)
	if err == nil {
		return true, nil
	}
	if err == storage.ErrAuthNotFound {
		return false, nil
	}
	return false, err
}

func (s *Store) SaveUser(ctx context.Context, user *api.User) error {
	if user == nil {
		return fmt.Errorf("user is nil")
	}
	u := *user

	s.mu.Lock()
	s.user = &u
	s.mu.Unlock()
	return nil
}

func (s *Store) GetUser(ctx context.Context) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.user == nil {
		return nil, storage.ErrUserNotFound
	}
	u := *s.user
	return &u, nil
}

func (s *Store) DeleteUser(ctx context.Context) error {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	return nil
}
