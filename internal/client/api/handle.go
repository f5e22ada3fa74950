package api

import (
	"context"
	"sync"
)

// Handle - отменяемый результат асинхронного запроса.
// Wait блокируется до завершения; Cancel прерывает запрос. Если Cancel вызван
// до завершения, Wait вернет ошибку с Cancelled == true, даже если ответ
// сервера придет позже.
type Handle[T any] struct {
	val     T
	err     error
	cancel  context.CancelFunc
	done    chan struct{}
	mu      sync.Mutex
	settled bool
}

// Go запускает fn в отдельной горутине с отменяемым контекстом
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Handle[T] {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		v, err := fn(ctx)
		h.settle(v, err)
	}()

	return h
}

// Resolved возвращает уже завершенный Handle
func Resolved[T any](v T, err error) *Handle[T] {
	h := &Handle[T]{
		cancel: func() {},
		done:   make(chan struct{}),
	}
	h.settle(v, err)
	return h
}

func (h *Handle[T]) settle(v T, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.settled {
		return
	}
	h.val, h.err = v, err
	h.settled = true
	close(h.done)
	h.cancel()
}

// Cancel отменяет запрос. Повторные вызовы и вызовы после завершения ничего не меняют.
func (h *Handle[T]) Cancel() {
	h.mu.Lock()
	if !h.settled {
		var zero T
		h.val, h.err = zero, cancelledError(context.Canceled)
		h.settled = true
		close(h.done)
	}
	h.mu.Unlock()

	h.cancel()
}

// Done закрывается после завершения или отмены
func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Wait ждет результат
func (h *Handle[T]) Wait() (T, error) {
	<-h.done
	return h.val, h.err
}

// Map преобразует результат Handle. Отмена нового Handle отменяет исходный.
func Map[T, U any](h *Handle[T], fn func(T) (U, error)) *Handle[U] {
	return Go(context.Background(), func(ctx context.Context) (U, error) {
		var zero U
		select {
		case <-h.Done():
		case <-ctx.Done():
			h.Cancel()
			return zero, cancelledError(ctx.Err())
		}

		v, err := h.Wait()
		if err != nil {
			return zero, err
		}
		return fn(v)
	})
}
