// Package cities - справочник населенных пунктов для фильтров ленты,
// постов и профиля. Справочник живет на отдельном сервере (config.CitiesAPIURL),
// запрашивается без авторизации и целиком.
package cities

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strings"
	"sync"

	"github.com/iudanet/fitshare/internal/client/api"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

// ErrNotConfigured - адрес справочника не задан
var ErrNotConfigured = errors.New("cities api url is not configured")

// Cache запоминает список после первой успешной загрузки. Ошибки не кэшируются.
type Cache struct {
	client api.Doer
	logger *slog.Logger
	cities []string
	mu     sync.Mutex
}

// NewCache создает кэш. client указывает на адрес справочника целиком,
// запрос уходит с пустым путем. nil client - справочник не настроен.
func NewCache(client api.Doer, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{client: client, logger: logger}
}

// Get возвращает названия, загружая их при первом обращении
func (c *Cache) Get(ctx context.Context) ([]string, error) {
	if c.client == nil {
		return nil, ErrNotConfigured
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.cities != nil {
		return slices.Clone(c.cities), nil
	}

	resp, err := api.Fetch[pkgapi.CitiesResponse](ctx, c.client, api.NewRequest(http.MethodGet, "")).Wait()
	if err != nil {
		return nil, err
	}
	c.cities = names(resp.Result.Records)
	c.logger.DebugContext(ctx, "cities loaded", "count", len(c.cities))
	return slices.Clone(c.cities), nil
}

// Lookup ищет название без учета регистра и пробелов по краям.
// Возвращает написание из справочника.
func (c *Cache) Lookup(ctx context.Context, name string) (string, bool, error) {
	cities, err := c.Get(ctx)
	if err != nil {
		return "", false, err
	}
	name = strings.TrimSpace(name)
	for _, city := range cities {
		if strings.EqualFold(city, name) {
			return city, true, nil
		}
	}
	return "", false, nil
}

// Reset сбрасывает кэш
func (c *Cache) Reset() {
	c.mu.Lock()
	c.cities = nil
	c.mu.Unlock()
}

// names - названия без пробелов по краям, без пустых и повторов, в порядке справочника
func names(records []pkgapi.CityRecord) []string {
	out := make([]string, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, rec := range records {
		name := strings.TrimSpace(rec.Name())
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	return out
}
