package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Классы ошибок клиента. Сравнивать через errors.Is.
var (
	// ErrCancelled - запрос отменен вызывающей стороной (Handle.Cancel, отмена контекста)
	ErrCancelled = errors.New("request cancelled")

	// ErrUnauthorized - сервер ответил 401
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNotAuthenticated - в хранилище нет пары токенов
	ErrNotAuthenticated = errors.New("not authenticated")

	// ErrRefreshFailed - обновление токенов не удалось, сессия потеряна
	ErrRefreshFailed = errors.New("token refresh failed")
)

// Error описывает неуспешный запрос.
// Status == 0 означает, что ответа от сервера не было (сеть, отмена).
type Error struct {
	Err       error
	Message   string
	Body      []byte
	Status    int
	Cancelled bool
}

func (e *Error) Error() string {
	switch {
	case e.Cancelled:
		return ErrCancelled.Error()
	case e.Status != 0 && e.Message != "":
		return fmt.Sprintf("server error (%d): %s", e.Status, e.Message)
	case e.Status != 0:
		return fmt.Sprintf("request failed with status %d: %s", e.Status, string(e.Body))
	case e.Err != nil:
		return fmt.Sprintf("request failed: %v", e.Err)
	default:
		return "request failed"
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сопоставляет Error с классами ErrCancelled и ErrUnauthorized
func (e *Error) Is(target error) bool {
	switch target {
	case ErrCancelled:
		return e.Cancelled
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

func cancelledError(cause error) *Error {
	return &Error{Cancelled: true, Err: cause}
}

// IsCancelled сообщает, что запрос был отменен клиентом
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// IsUnauthorized сообщает, что запрос (или обновление токенов) завершился 401
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusCode возвращает HTTP статус из цепочки ошибок или 0
func StatusCode(err error) int {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}
