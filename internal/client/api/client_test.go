package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// TestNewClient проверяет создание нового клиента
func TestNewClient(t *testing.T) {
	client := NewClient("http://localhost:8080/")

	assert.NotNil(t, client)
	assert.Equal(t, "http://localhost:8080", client.BaseURL())
	assert.NotNil(t, client.httpClient)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
}

// TestClient_Do_JSON проверяет отправку JSON тела и декодирование ответа
func TestClient_Do_JSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var req pkgapi.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "a@b.com", req.Email)

		_ = json.NewEncoder(w).Encode(pkgapi.TokenResponse{AccessToken: "A1", RefreshToken: "R1"})
	}))
	defer server.Close()

	client := NewClient(server.URL)
	req := NewJSONRequest(http.MethodPost, "/auth/login", pkgapi.LoginRequest{Email: "a@b.com", Password: "x"})

	tokens, err := Fetch[pkgapi.TokenResponse](context.Background(), client, req).Wait()
	require.NoError(t, err)
	assert.Equal(t, "A1", tokens.AccessToken)
	assert.Equal(t, "R1", tokens.RefreshToken)
}

// TestClient_Do_Query проверяет query параметры
func TestClient_Do_Query(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/posts/search/cityAndType", r.URL.Path)
		assert.Equal(t, "all", r.URL.Query().Get("city"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	req := NewRequest(http.MethodGet, "/posts/search/cityAndType").
		SetQuery("city", "all").
		SetQuery("page", "2")

	resp, err := client.Send(context.Background(), req).Wait()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.Status)
}

// TestClient_Do_Error проверяет обработку ошибок сервера
func TestClient_Do_Error(t *testing.T) {
	tests := []struct {
		responseBody   any
		name           string
		expectedErrMsg string
		statusCode     int
	}{
		{
			name:           "message field",
			statusCode:     http.StatusConflict,
			responseBody:   pkgapi.ErrorResponse{Message: "user already exists"},
			expectedErrMsg: "server error (409): user already exists",
		},
		{
			name:           "error field",
			statusCode:     http.StatusUnauthorized,
			responseBody:   pkgapi.ErrorResponse{Error: "invalid credentials"},
			expectedErrMsg: "server error (401): invalid credentials",
		},
		{
			name:           "plain text",
			statusCode:     http.StatusInternalServerError,
			responseBody:   "Internal Server Error",
			expectedErrMsg: "request failed with status 500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				if errResp, ok := tt.responseBody.(pkgapi.ErrorResponse); ok {
					_ = json.NewEncoder(w).Encode(errResp)
				} else {
					_, _ = w.Write([]byte(tt.responseBody.(string)))
				}
			}))
			defer server.Close()

			client := NewClient(server.URL)
			resp, err := client.Do(context.Background(), NewRequest(http.MethodGet, "/users/me"))

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.Contains(t, err.Error(), tt.expectedErrMsg)
			assert.Equal(t, tt.statusCode, StatusCode(err))
			assert.False(t, IsCancelled(err))
			assert.Equal(t, tt.statusCode == http.StatusUnauthorized, IsUnauthorized(err))
		})
	}
}

// TestClient_Send_Cancel проверяет, что отмена обрывает запрос и дает ErrCancelled
func TestClient_Send_Cancel(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(server.URL)
	h := client.Send(context.Background(), NewRequest(http.MethodGet, "/posts/42"))
	h.Cancel()
	h.Cancel()

	resp, err := h.Wait()
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 0, StatusCode(err))
}

// TestClient_Do_ContextCancelled проверяет отмену через родительский контекст
func TestClient_Do_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	_, err := NewClient(server.URL).Do(ctx, NewRequest(http.MethodGet, "/slow"))
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
}

// TestClient_With проверяет порядок middleware и общий транспорт
func TestClient_With(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "first,second", r.Header.Get("X-Trace"))
	}))
	defer server.Close()

	trace := func(name string) Middleware {
		return func(next Doer) Doer {
			return DoerFunc(func(ctx context.Context, req *Request) (*Response, error) {
				req = req.clone()
				if prev := req.Header.Get("X-Trace"); prev != "" {
					name = prev + "," + name
				}
				req.Header.Set("X-Trace", name)
				return next.Do(ctx, req)
			})
		}
	}

	public := NewClient(server.URL)
	traced := public.With(trace("first"), trace("second"))

	_, err := traced.Do(context.Background(), NewRequest(http.MethodGet, "/"))
	require.NoError(t, err)
	assert.Equal(t, public.httpClient, traced.httpClient)
}

func TestResponse_Decode_Empty(t *testing.T) {
	var v pkgapi.Post
	assert.NoError(t, (&Response{}).Decode(&v))
	assert.Error(t, (&Response{Body: []byte("{")}).Decode(&v))
}
