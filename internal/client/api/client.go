package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

const defaultTimeout = 30 * time.Second

//go:generate moq -out doer_mock.go . Doer

// Doer выполняет запрос синхронно
type Doer interface {
	Do(ctx context.Context, req *Request) (*Response, error)
}

// DoerFunc адаптирует функцию к Doer
type DoerFunc func(ctx context.Context, req *Request) (*Response, error)

func (f DoerFunc) Do(ctx context.Context, req *Request) (*Response, error) {
	return f(ctx, req)
}

// Middleware оборачивает Doer, как http middleware оборачивает http.Handler
type Middleware func(next Doer) Doer

// Response - успешный ответ сервера
type Response struct {
	Header http.Header
	Body   []byte
	Status int
}

// Decode декодирует JSON тело ответа. Пустое тело не ошибка.
func (r *Response) Decode(v any) error {
	if v == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Client представляет HTTP клиент для взаимодействия с сервером
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
	doer       Doer
	baseURL    string
	userAgent  string
}

// Option настраивает Client
type Option func(*Client)

// WithHTTPClient подменяет HTTP клиент (например, в тестах)
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout задает таймаут одного HTTP запроса
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = d
	}
}

// WithCookieJar подключает cookie jar (см. storage/cookie)
func WithCookieJar(jar http.CookieJar) Option {
	return func(c *Client) {
		c.httpClient.Jar = jar
	}
}

// WithLogger задает логгер
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithUserAgent задает User-Agent
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		c.userAgent = ua
	}
}

// NewClient создает новый API клиент без авторизации
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  slog.Default(),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			// Настройка обработки редиректов
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				// Ограничиваем количество редиректов
				if len(via) >= 10 {
					return fmt.Errorf("stopped after 10 redirects")
				}
				// Копируем заголовки Authorization при редиректе
				if len(via) > 0 && via[0].Header.Get("Authorization") != "" {
					req.Header.Set("Authorization", via[0].Header.Get("Authorization"))
				}
				return nil
			},
		},
	}

	for _, opt := range opts {
		opt(c)
	}
	c.doer = DoerFunc(c.roundTrip)

	return c
}

// With возвращает копию клиента с тем же транспортом и дополнительными middleware.
// Первый middleware в списке выполняется первым.
func (c *Client) With(mws ...Middleware) *Client {
	clone := *c
	for i := len(mws) - 1; i >= 0; i-- {
		clone.doer = mws[i](clone.doer)
	}
	return &clone
}

// BaseURL возвращает базовый URL
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Do выполняет запрос через цепочку middleware
func (c *Client) Do(ctx context.Context, req *Request) (*Response, error) {
	return c.doer.Do(ctx, req)
}

// Send выполняет запрос асинхронно
func (c *Client) Send(ctx context.Context, req *Request) *Handle[*Response] {
	return Go(ctx, func(ctx context.Context) (*Response, error) {
		return c.Do(ctx, req)
	})
}

// Fetch выполняет запрос асинхронно и декодирует JSON ответ в T
func Fetch[T any](ctx context.Context, d Doer, req *Request) *Handle[T] {
	return Go(ctx, func(ctx context.Context) (T, error) {
		var result T
		resp, err := d.Do(ctx, req)
		if err != nil {
			return result, err
		}
		if err := resp.Decode(&result); err != nil {
			return result, err
		}
		return result, nil
	})
}

// roundTrip выполняет HTTP запрос
func (c *Client) roundTrip(ctx context.Context, r *Request) (*Response, error) {
	target, err := c.resolve(r)
	if err != nil {
		return nil, err
	}

	body, contentType, err := encodeBody(r)
	if err != nil {
		return nil, err
	}

	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range r.Header {
		req.Header[k] = append([]string(nil), v...)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return nil, cancelledError(err)
		}
		return nil, &Error{Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	// Читаем тело ответа
	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil && errors.Is(ctx.Err(), context.Canceled) {
			return nil, cancelledError(err)
		}
		return nil, &Error{Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	c.logger.DebugContext(ctx, "HTTP request",
		"method", r.Method,
		"path", r.Path,
		"status", resp.StatusCode,
		"request_id", req.Header.Get("X-Request-ID"),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	// Проверяем статус код
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &Error{Status: resp.StatusCode, Body: respBody}
		var errResp pkgapi.ErrorResponse
		if err := json.Unmarshal(respBody, &errResp); err == nil {
			apiErr.Message = errResp.Message
			if apiErr.Message == "" {
				apiErr.Message = errResp.Error
			}
		}
		return nil, apiErr
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   respBody,
	}, nil
}

func (c *Client) resolve(r *Request) (string, error) {
	u, err := url.Parse(c.baseURL + r.Path)
	if err != nil {
		return "", fmt.Errorf("invalid request path %q: %w", r.Path, err)
	}
	if len(r.Query) > 0 {
		q := u.Query()
		for k, v := range r.Query {
			q[k] = append(q[k], v...)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

func encodeBody(r *Request) ([]byte, string, error) {
	switch r.Kind {
	case ContentMultipart:
		return r.Form.encode()
	default:
		if r.JSON == nil {
			return nil, "", nil
		}
		data, err := json.Marshal(r.JSON)
		if err != nil {
			return nil, "", fmt.Errorf("failed to marshal request body: %w", err)
		}
		return data, "application/json", nil
	}
}
