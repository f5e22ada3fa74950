package auth

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitshare/internal/apitest"
	"github.com/iudanet/fitshare/internal/client/api"
	"github.com/iudanet/fitshare/internal/client/storage"
	"github.com/iudanet/fitshare/internal/client/storage/boltdb"
	"github.com/iudanet/fitshare/internal/client/storage/cookie"
	"github.com/iudanet/fitshare/internal/crypto"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

type session struct {
	srv    *apitest.Server
	svc    *Service
	authed *api.Client
	store  storage.Store
}

// newSession собирает клиент поверх зашифрованного BoltDB хранилища
func newSession(t *testing.T) *session {
	t.Helper()
	ctx := context.Background()
	srv := apitest.New(t)

	db, err := boltdb.New(ctx, filepath.Join(t.TempDir(), "client.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	salt, err := db.GetOrCreateSealSalt(ctx)
	require.NoError(t, err)
	sealed, err := NewSealedStore(db, sealKeyFrom(t, salt))
	require.NoError(t, err)
	store := SealedSession{SealedStore: sealed, UserStorage: db}

	public := api.NewClient(srv.URL)
	svc := NewService(public, store, nil)
	return &session{
		srv:    srv,
		svc:    svc,
		authed: public.With(svc.Middleware()),
		store:  store,
	}
}

func sealKeyFrom(t *testing.T, salt []byte) []byte {
	t.Helper()
	key, err := crypto.DeriveKey("passphrase", salt)
	require.NoError(t, err)
	return key
}

func (s *session) login(t *testing.T) *pkgapi.TokenResponse {
	t.Helper()
	s.srv.SeedUser("ann@example.com", "secret", "Ann", "Oslo")
	tokens, err := s.svc.Login(context.Background(), "ann@example.com", "secret").Wait()
	require.NoError(t, err)
	return tokens
}

// После входа токены в хранилище, и авторизованный запрос несет access token
func TestService_LoginThenAuthorizedRequest(t *testing.T) {
	s := newSession(t)
	tokens := s.login(t)

	stored, err := s.store.GetAuth(context.Background())
	require.NoError(t, err)
	assert.Equal(t, tokens.AccessToken, stored.AccessToken)
	assert.Equal(t, tokens.RefreshToken, stored.RefreshToken)
	assert.Equal(t, "ann@example.com", stored.Email)
	assert.NotEmpty(t, stored.UserID, "user id берется из subject токена")

	_, err = s.authed.Do(context.Background(), api.NewRequest(http.MethodGet, "/users/me"))
	require.NoError(t, err)

	calls := s.srv.CallsTo(http.MethodGet, "/users/me")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer "+tokens.AccessToken, calls[0].Authorization)
}

func TestService_LoginInvalidCredentials(t *testing.T) {
	s := newSession(t)
	s.srv.SeedUser("ann@example.com", "secret", "Ann", "")

	_, err := s.svc.Login(context.Background(), "ann@example.com", "wrong").Wait()
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, api.StatusCode(err))
	assert.Contains(t, err.Error(), "login request failed")

	ok, err := s.store.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

// Истекший access token обновляется по refresh token, запрос повторяется один раз
func TestService_RefreshScenario(t *testing.T) {
	s := newSession(t)
	first := s.login(t)
	post := s.srv.SeedPost("ann@example.com", "Oslo", "running", "morning run")

	s.srv.ExpireAccessTokens()

	resp, err := s.authed.Do(context.Background(), api.NewRequest(http.MethodGet, "/posts/"+post.ID))
	require.NoError(t, err)
	var got pkgapi.Post
	require.NoError(t, resp.Decode(&got))
	assert.Equal(t, post.ID, got.ID)

	attempts := s.srv.CallsTo(http.MethodGet, "/posts/"+post.ID)
	require.Len(t, attempts, 2)
	assert.Equal(t, "Bearer "+first.AccessToken, attempts[0].Authorization)

	refreshes := s.srv.CallsTo(http.MethodGet, api.RefreshPath)
	require.Len(t, refreshes, 1)
	assert.Equal(t, "Bearer "+first.RefreshToken, refreshes[0].Authorization)

	// Повтор ушел с новым токеном, и он же сохранен
	stored, err := s.store.GetAuth(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, first.AccessToken, stored.AccessToken)
	assert.NotEqual(t, first.RefreshToken, stored.RefreshToken)
	assert.Equal(t, "Bearer "+stored.AccessToken, attempts[1].Authorization)
}

// Отозванный refresh token - ошибка 401 без повторов
func TestService_RefreshFailed(t *testing.T) {
	s := newSession(t)
	s.login(t)
	s.srv.ExpireAccessTokens()
	s.srv.RevokeRefreshTokens()

	_, err := s.authed.Do(context.Background(), api.NewRequest(http.MethodGet, "/users/me"))
	require.Error(t, err)
	assert.ErrorIs(t, err, api.ErrRefreshFailed)
	assert.True(t, api.IsUnauthorized(err))
	assert.Len(t, s.srv.CallsTo(http.MethodGet, api.RefreshPath), 1)
	assert.Len(t, s.srv.CallsTo(http.MethodGet, "/users/me"), 1)
}

func TestService_Register(t *testing.T) {
	s := newSession(t)

	user, err := s.svc.Register(context.Background(), RegisterRequest{
		FullName: "Bob",
		Email:    "bob@example.com",
		Password: "pw",
		Picture:  &api.File{Filename: "me.png", Content: []byte("png")},
	}).Wait()
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.Equal(t, "uploads/me.png", user.ProfileImage)

	// Повторная регистрация - конфликт
	_, err = s.svc.Register(context.Background(), RegisterRequest{Email: "bob@example.com", Password: "pw"}).Wait()
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, api.StatusCode(err))

	_, err = s.svc.Login(context.Background(), "bob@example.com", "pw").Wait()
	assert.NoError(t, err)
}

func TestService_GoogleLogin(t *testing.T) {
	s := newSession(t)

	_, err := s.svc.GoogleLogin(context.Background(), apitest.GoogleTokenPrefix+"g@example.com").Wait()
	require.NoError(t, err)

	st, err := s.svc.Status(context.Background())
	require.NoError(t, err)
	assert.True(t, st.Authenticated)
	require.NotNil(t, st.Token)
	assert.Equal(t, st.UserID, st.Token.Subject)

	_, err = s.svc.GoogleLogin(context.Background(), "bogus").Wait()
	assert.True(t, api.IsUnauthorized(err))
}

func TestService_Logout(t *testing.T) {
	s := newSession(t)
	tokens := s.login(t)
	require.NoError(t, s.store.SaveUser(context.Background(), &pkgapi.User{ID: "u", Email: "ann@example.com"}))

	require.NoError(t, s.svc.Logout(context.Background()))

	calls := s.srv.CallsTo(http.MethodGet, "/auth/logout")
	require.Len(t, calls, 1)
	assert.Equal(t, "Bearer "+tokens.RefreshToken, calls[0].Authorization)

	_, err := s.store.GetAuth(context.Background())
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
	_, err = s.store.GetUser(context.Background())
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	st, err := s.svc.Status(context.Background())
	require.NoError(t, err)
	assert.False(t, st.Authenticated)
}

// Ошибка сервера при выходе возвращается, но локальные данные удалены
func TestService_LogoutServerError(t *testing.T) {
	s := newSession(t)
	s.login(t)
	s.srv.FailNext(http.MethodGet, "/auth/logout", http.StatusInternalServerError, 1)

	err := s.svc.Logout(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server logout failed")
	assert.Equal(t, http.StatusInternalServerError, api.StatusCode(err))

	ok, err := s.store.IsAuthenticated(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestService_LogoutWithoutSession(t *testing.T) {
	s := newSession(t)

	err := s.svc.Logout(context.Background())
	assert.ErrorIs(t, err, api.ErrNotAuthenticated)
	assert.Empty(t, s.srv.CallsTo(http.MethodGet, "/auth/logout"))
}

// Cookie хранилище: та же сессия, токены в cookie access_token/refresh_token
func TestService_CookieStore(t *testing.T) {
	srv := apitest.New(t)
	srv.SeedUser("ann@example.com", "secret", "Ann", "")

	store, err := cookie.New(srv.URL)
	require.NoError(t, err)
	public := api.NewClient(srv.URL, api.WithCookieJar(store.Jar()))
	svc := NewService(public, store, nil)
	authed := public.With(svc.Middleware())

	tokens, err := svc.Login(context.Background(), "ann@example.com", "secret").Wait()
	require.NoError(t, err)

	srv.ExpireAccessTokens()
	_, err = authed.Do(context.Background(), api.NewRequest(http.MethodGet, "/users/me"))
	require.NoError(t, err)

	stored, err := store.GetAuth(context.Background())
	require.NoError(t, err)
	assert.NotEqual(t, tokens.AccessToken, stored.AccessToken)
}
