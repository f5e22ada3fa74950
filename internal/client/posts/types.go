package posts

import (
	"context"
	"slices"
	"sync"
)

// TypesCache запоминает список типов тренировок после первой успешной загрузки.
// Ошибки не кэшируются.
type TypesCache struct {
	svc   *Service
	types []string
	mu    sync.Mutex
}

// NewTypesCache создает кэш поверх сервиса
func NewTypesCache(svc *Service) *TypesCache {
	return &TypesCache{svc: svc}
}

// Get возвращает типы тренировок, загружая их при первом обращении
func (c *TypesCache) Get(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.types != nil {
		return slices.Clone(c.types), nil
	}

	types, err := c.svc.TrainingTypes(ctx).Wait()
	if err != nil {
		return nil, err
	}
	if types == nil {
		types = []string{}
	}
	c.types = types
	return slices.Clone(types), nil
}

// Reset сбрасывает кэш
func (c *TypesCache) Reset() {
	c.mu.Lock()
	c.types = nil
	c.mu.Unlock()
}
