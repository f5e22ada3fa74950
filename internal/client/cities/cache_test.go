package cities

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitshare/internal/apitest"
	"github.com/iudanet/fitshare/internal/client/api"
	pkgapi "github.com/iudanet/fitshare/pkg/api"
)

func newCache(t *testing.T) (*Cache, *apitest.Server) {
	t.Helper()
	srv := apitest.New(t)
	return NewCache(api.NewClient(srv.URL+apitest.CitiesPath), nil), srv
}

// Пробелы по краям убираются, пустые и повторы отбрасываются
func TestCache_Get_TrimsAndDedupes(t *testing.T) {
	cache, srv := newCache(t)
	srv.SetCities(" Haifa", "Tel Aviv ", "", "   ", "Haifa", "Eilat", "Tel Aviv")

	got, err := cache.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Haifa", "Tel Aviv", "Eilat"}, got)
}

// Справочник загружается один раз; копия не разделяет память с кэшем
func TestCache_Get_Cached(t *testing.T) {
	cache, srv := newCache(t)
	srv.SetCities("Haifa", "Eilat")
	ctx := context.Background()

	first, err := cache.Get(ctx)
	require.NoError(t, err)
	first[0] = "changed"

	second, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Haifa", "Eilat"}, second)
	assert.Len(t, srv.CallsTo(http.MethodGet, apitest.CitiesPath), 1)

	cache.Reset()
	_, err = cache.Get(ctx)
	require.NoError(t, err)
	assert.Len(t, srv.CallsTo(http.MethodGet, apitest.CitiesPath), 2)
}

// Ошибка не кэшируется
func TestCache_Get_ErrorNotCached(t *testing.T) {
	cache, srv := newCache(t)
	srv.SetCities("Haifa")
	srv.FailNext(http.MethodGet, apitest.CitiesPath, http.StatusBadGateway, 1)
	ctx := context.Background()

	_, err := cache.Get(ctx)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, api.StatusCode(err))

	got, err := cache.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Haifa"}, got)
}

func TestCache_NotConfigured(t *testing.T) {
	cache := NewCache(nil, nil)

	_, err := cache.Get(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, _, err = cache.Lookup(context.Background(), "Haifa")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestCache_Lookup(t *testing.T) {
	cache, srv := newCache(t)
	srv.SetCities("Tel Aviv", "Haifa")

	tests := []struct {
		name   string
		input  string
		want   string
		wantOk bool
	}{
		{name: "exact", input: "Haifa", want: "Haifa", wantOk: true},
		{name: "case and spaces", input: "  tel aviv ", want: "Tel Aviv", wantOk: true},
		{name: "unknown", input: "Oslo"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok, err := cache.Lookup(context.Background(), tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNames(t *testing.T) {
	records := []pkgapi.CityRecord{
		{pkgapi.CityNameField: " Akko "},
		{"other": "field"},
		{pkgapi.CityNameField: 42},
		{pkgapi.CityNameField: "Akko"},
	}
	assert.Equal(t, []string{"Akko"}, names(records))
	assert.Empty(t, names(nil))
}
