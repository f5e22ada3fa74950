// Package users - профиль текущего пользователя
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/iudanet/fitshare/internal/client/api"
	"github.com/iudanet/fitshare/internal/client/storage"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// Service загружает и изменяет профиль через авторизованный клиент
type Service struct {
	client api.Doer
	store  storage.UserStorage
	logger *slog.Logger
}

// NewService создает сервис. client должен быть авторизованным (см. auth.Service.Middleware)
func NewService(client api.Doer, store storage.UserStorage, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{client: client, store: store, logger: logger}
}

// Me загружает профиль текущего пользователя и сохраняет его локально
func (s *Service) Me(ctx context.Context) *api.Handle[*pkgapi.User] {
	return api.Go(ctx, func(ctx context.Context) (*pkgapi.User, error) {
		resp, err := s.client.Do(ctx, api.NewRequest(http.MethodGet, "/users/me"))
		if err != nil {
			return nil, fmt.Errorf("failed to get current user: %w", err)
		}
		return s.remember(ctx, resp)
	})
}

// ProfileUpdate - изменяемые поля профиля. nil поля не отправляются.
type ProfileUpdate struct {
	FullName *string
	Email    *string
	HomeCity *string
	Picture  *api.File
}

// EditProfile отправляет PUT /users и обновляет локальный профиль
func (s *Service) EditProfile(ctx context.Context, upd ProfileUpdate) *api.Handle[*pkgapi.User] {
	form := api.Form{}.
		Add("fullName", upd.FullName).
		Add("email", upd.Email).
		Add("homeCity", upd.HomeCity).
		Add(api.PictureField, upd.Picture)

	return api.Go(ctx, func(ctx context.Context) (*pkgapi.User, error) {
		resp, err := s.client.Do(ctx, api.NewMultipartRequest(http.MethodPut, "/users", form))
		if err != nil {
			return nil, fmt.Errorf("failed to update profile: %w", err)
		}
		user, err := s.remember(ctx, resp)
		if err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "profile updated", "user_id", user.ID)
		return user, nil
	})
}

// Current возвращает сохраненный профиль без запроса к серверу.
// Если профиля нет, возвращает storage.ErrUserNotFound.
func (s *Service) Current(ctx context.Context) (*pkgapi.User, error) {
	user, err := s.store.GetUser(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// CurrentOrFetch возвращает сохраненный профиль, а при его отсутствии загружает
func (s *Service) CurrentOrFetch(ctx context.Context) (*pkgapi.User, error) {
	user, err := s.Current(ctx)
	if errors.Is(err, storage.ErrUserNotFound) {
		return s.Me(ctx).Wait()
	}
	return user, err
}

func (s *Service) remember(ctx context.Context, resp *api.Response) (*pkgapi.User, error) {
	var user pkgapi.User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	if err := s.store.SaveUser(ctx, &user); err != nil {
		return nil, fmt.Errorf("failed to save user: %w", err)
	}
	return &user, nil
}
