package api

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandle_Wait(t *testing.T) {
	h := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 42, nil
	})

	v, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	// Cancel после завершения не меняет результат
	h.Cancel()
	v, err = h.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

// Отмена до завершения: Wait возвращает ErrCancelled, поздний результат игнорируется
func TestHandle_CancelBeforeSettle(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan struct{})

	h := Go(context.Background(), func(ctx context.Context) (string, error) {
		close(started)
		<-ctx.Done()
		defer close(finished)
		return "late", nil
	})

	<-started
	h.Cancel()
	h.Cancel()

	v, err := h.Wait()
	assert.Empty(t, v)
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.False(t, IsUnauthorized(err))

	<-finished
	v, err = h.Wait()
	assert.Empty(t, v)
	assert.True(t, IsCancelled(err))
}

func TestHandle_Error(t *testing.T) {
	boom := errors.New("boom")
	h := Go(context.Background(), func(ctx context.Context) (int, error) {
		return 0, boom
	})

	_, err := h.Wait()
	assert.ErrorIs(t, err, boom)
}

func TestResolved(t *testing.T) {
	h := Resolved("ok", nil)
	select {
	case <-h.Done():
	default:
		t.Fatal("resolved handle must be done")
	}
	v, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestMap(t *testing.T) {
	h := Map(Resolved([]int{1, 2, 3}, nil), func(v []int) (int, error) {
		return len(v), nil
	})

	n, err := h.Wait()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

// Отмена результата Map отменяет исходный запрос
func TestMap_CancelPropagates(t *testing.T) {
	src := Go(context.Background(), func(ctx context.Context) (int, error) {
		<-ctx.Done()
		return 0, cancelledError(ctx.Err())
	})
	mapped := Map(src, func(v int) (int, error) { return v * 2, nil })

	mapped.Cancel()

	_, err := mapped.Wait()
	assert.True(t, IsCancelled(err))

	select {
	case <-src.Done():
	case <-time.After(time.Second):
		t.Fatal("source handle was not cancelled")
	}
	_, err = src.Wait()
	assert.True(t, IsCancelled(err))
}
