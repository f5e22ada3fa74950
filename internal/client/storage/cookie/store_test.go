package cookie

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitshare/internal/client/storage"
	"github.com/iudanet/fitshare/pkg/api"
)

func TestStore_SaveGetDelete(t *testing.T) {
	ctx := context.Background()
	store, err := New("http://api.example.com/v1")
	require.NoError(t, err)

	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)

	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{AccessToken: "A1", RefreshToken: "R1"}))

	got, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "A1", got.AccessToken)
	assert.Equal(t, "R1", got.RefreshToken)

	ok, err := store.IsAuthenticated(ctx)
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, store.DeleteAuth(ctx))
	_, err = store.GetAuth(ctx)
	assert.ErrorIs(t, err, storage.ErrAuthNotFound)
}

func TestStore_SaveAuth_RejectsHalfPair(t *testing.T) {
	store, err := New("http://api.example.com")
	require.NoError(t, err)

	err = store.SaveAuth(context.Background(), &storage.AuthData{AccessToken: "A1"})
	assert.ErrorIs(t, err, storage.ErrInvalidAuth)
}

// Cookie с path=/ видны на любом пути хоста и уходят на сервер вместе с запросом
func TestStore_JarSendsCookies(t *testing.T) {
	var gotAccess string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie(AccessTokenCookie); err == nil {
			gotAccess = c.Value
		}
	}))
	defer server.Close()

	store, err := New(server.URL)
	require.NoError(t, err)
	require.NoError(t, store.SaveAuth(context.Background(), &storage.AuthData{AccessToken: "A1", RefreshToken: "R1"}))

	client := &http.Client{Jar: store.Jar()}
	resp, err := client.Get(server.URL + "/posts/42")
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "A1", gotAccess)
}

func TestStore_User(t *testing.T) {
	ctx := context.Background()
	store, err := New("http://api.example.com")
	require.NoError(t, err)

	_, err = store.GetUser(ctx)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)

	require.NoError(t, store.SaveUser(ctx, &api.User{ID: "u1", Email: "a@b.com"}))
	require.NoError(t, store.SaveAuth(ctx, &storage.AuthData{AccessToken: "A1", RefreshToken: "R1"}))

	auth, err := store.GetAuth(ctx)
	require.NoError(t, err)
	assert.Equal(t, "u1", auth.UserID)

	require.NoError(t, store.DeleteUser(ctx))
	_, err = store.GetUser(ctx)
	assert.ErrorIs(t, err, storage.ErrUserNotFound)
}
