package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"golang.org/x/sync/singleflight"

	"github.com/iudanet/fitshare/internal/client/storage"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// RefreshPath - эндпоинт обновления пары токенов
const RefreshPath = "/auth/refresh"

// AuthInterceptor подставляет access token в запросы и при 401 один раз
// обновляет пару токенов и повторяет исходный запрос.
//
// Одновременные 401 используют одно обновление (singleflight). Запрос, получивший
// 401 со старым access token, после чужого обновления повторяется без нового обновления.
type AuthInterceptor struct {
	store     storage.AuthStorage
	refresher Doer
	logger    *slog.Logger
	onRefresh func(storage.AuthData)
	group     singleflight.Group
}

// NewAuthInterceptor создает перехватчик. refresher - клиент без авторизации,
// через него уходит запрос на RefreshPath.
func NewAuthInterceptor(store storage.AuthStorage, refresher Doer, logger *slog.Logger) *AuthInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthInterceptor{
		store:     store,
		refresher: refresher,
		logger:    logger,
	}
}

// OnRefresh задает callback, вызываемый после сохранения новой пары токенов.
// Вызывается из горутины запроса.
func (i *AuthInterceptor) OnRefresh(fn func(storage.AuthData)) {
	i.onRefresh = fn
}

// Middleware возвращает middleware для Client.With
func (i *AuthInterceptor) Middleware() Middleware {
	return func(next Doer) Doer {
		return DoerFunc(func(ctx context.Context, req *Request) (*Response, error) {
			return i.do(ctx, next, req)
		})
	}
}

func (i *AuthInterceptor) do(ctx context.Context, next Doer, req *Request) (*Response, error) {
	// Токен читается заново на каждую попытку
	auth, err := i.currentAuth(ctx)
	if err != nil {
		return nil, err
	}

	attempt := req.clone()
	attempt.Header.Set("Authorization", "Bearer "+auth.AccessToken)

	resp, err := next.Do(ctx, attempt)
	if err == nil {
		return resp, nil
	}

	switch {
	case IsCancelled(err):
		return nil, err
	case StatusCode(err) != http.StatusUnauthorized:
		return nil, err
	case req.Path == RefreshPath:
		// 401 от самого refresh - не зацикливаемся
		return nil, err
	case req.retried:
		return nil, err
	}

	i.logger.DebugContext(ctx, "access token rejected, refreshing", "method", req.Method, "path", req.Path)

	if err := i.refresh(ctx, auth.AccessToken); err != nil {
		return nil, err
	}

	retry := req.clone()
	retry.retried = true
	return i.do(ctx, next, retry)
}

func (i *AuthInterceptor) currentAuth(ctx context.Context) (*storage.AuthData, error) {
	auth, err := i.store.GetAuth(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrAuthNotFound) {
			return nil, &Error{Status: http.StatusUnauthorized, Message: ErrNotAuthenticated.Error(), Err: ErrNotAuthenticated}
		}
		return nil, fmt.Errorf("failed to get auth data: %w", err)
	}
	if auth.AccessToken == "" {
		return nil, &Error{Status: http.StatusUnauthorized, Message: ErrNotAuthenticated.Error(), Err: ErrNotAuthenticated}
	}
	return auth, nil
}

// Refresh принудительно обновляет пару токенов
func (i *AuthInterceptor) Refresh(ctx context.Context) error {
	return i.refresh(ctx, "")
}

// refresh обновляет токены, если stale все еще текущий access token.
// Пустой stale означает безусловное обновление.
func (i *AuthInterceptor) refresh(ctx context.Context, stale string) error {
	ch := i.group.DoChan("refresh", func() (any, error) {
		// Общее обновление не должно обрываться отменой одного из ожидающих
		return nil, i.doRefresh(context.WithoutCancel(ctx), stale)
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return cancelledError(ctx.Err())
	}
}

func (i *AuthInterceptor) doRefresh(ctx context.Context, stale string) error {
	current, err := i.store.GetAuth(ctx)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}
	if stale != "" && current.AccessToken != stale {
		i.logger.DebugContext(ctx, "tokens already rotated, skipping refresh")
		return nil
	}

	req := NewRequest(http.MethodGet, RefreshPath).
		SetHeader("Authorization", "Bearer "+current.RefreshToken)

	resp, err := i.refresher.Do(ctx, req)
	if err != nil {
		i.logger.WarnContext(ctx, "token refresh failed", "error", err)
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	var tokens pkgapi.TokenResponse
	if err := resp.Decode(&tokens); err != nil {
		return fmt.Errorf("%w: %w", ErrRefreshFailed, err)
	}

	updated := *current
	updated.AccessToken = tokens.AccessToken
	updated.RefreshToken = tokens.RefreshToken
	if err := i.store.SaveAuth(ctx, &updated); err != nil {
		return fmt.Errorf("%w: failed to save tokens: %w", ErrRefreshFailed, err)
	}

	i.logger.InfoContext(ctx, "session refreshed")
	if i.onRefresh != nil {
		i.onRefresh(updated)
	}
	return nil
}
