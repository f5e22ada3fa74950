package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/fitshare/internal/apitest"
	"github.com/iudanet/fitshare/internal/config"
)

// withCities подключает справочник городов фейкового API
func withCities(cfg *config.Config) {
	cfg.CitiesAPIURL = cfg.BaseURL + apitest.CitiesPath
}

func TestCli_Cities(t *testing.T) {
	env := newTestEnv(t, withCities)
	env.srv.SetCities("Tel Aviv", " Haifa ", "Haifa", "", "Herzliya")

	require.NoError(t, env.run(t, nil, "cities"))
	out := env.io.output()
	assert.Contains(t, out, "=== Cities (3) ===")
	assert.Contains(t, out, "- Tel Aviv")
	assert.Contains(t, out, "- Haifa\n")

	// По префиксу, без повторного запроса справочника
	env.io.reset()
	require.NoError(t, env.run(t, nil, "cities", "h"))
	out = env.io.output()
	assert.Contains(t, out, "=== Cities (2) ===")
	assert.Contains(t, out, "- Herzliya")
	assert.NotContains(t, out, "Tel Aviv")
	assert.Len(t, env.srv.CallsTo("GET", apitest.CitiesPath), 1)

	env.io.reset()
	require.NoError(t, env.run(t, nil, "cities", "x"))
	assert.Contains(t, env.io.output(), "No cities found.")
}

func TestCli_Cities_NotConfigured(t *testing.T) {
	env := newTestEnv(t)

	err := env.run(t, nil, "cities")
	assert.ErrorContains(t, err, "cities_api_url")
	assert.Empty(t, env.srv.CallsTo("GET", apitest.CitiesPath))
}

// Неизвестный город отклоняется до отправки формы
func TestCli_Upload_UnknownCity(t *testing.T) {
	env := newTestEnv(t, withCities)
	env.srv.SetCities("Haifa", "Eilat")
	env.login(t)

	err := env.run(t, nil, "post", "upload", "--city", "Oslo", "--picture", writePicture(t))
	assert.ErrorContains(t, err, `unknown city "Oslo"`)
	assert.Empty(t, env.srv.CallsTo("POST", "/posts"))
}

// Город приводится к написанию из справочника
func TestCli_Upload_CityNormalized(t *testing.T) {
	env := newTestEnv(t, withCities)
	env.srv.SetCities("Haifa", "Eilat")
	env.login(t)

	err := env.run(t, nil, "post", "upload", "--city", " haifa", "--type", "yoga", "--picture", writePicture(t))
	require.NoError(t, err)

	post, ok := env.srv.Post(uploadedID(t, env.io.output()))
	require.True(t, ok)
	assert.Equal(t, "Haifa", post.City)
}

func TestCli_ProfileEdit_City(t *testing.T) {
	env := newTestEnv(t, withCities)
	env.srv.SetCities("Haifa", "Eilat")
	env.login(t)

	err := env.run(t, nil, "profile", "edit", "--home-city", "Atlantis")
	assert.ErrorContains(t, err, `unknown city "Atlantis"`)
	assert.Empty(t, env.srv.CallsTo("PUT", "/users"))

	require.NoError(t, env.run(t, nil, "profile", "edit", "--home-city", "EILAT"))
	assert.Contains(t, env.io.output(), "Home city: Eilat")
}

// Справочник недоступен - проверка остается серверу
func TestCli_Upload_CitiesUnavailable(t *testing.T) {
	env := newTestEnv(t, withCities)
	env.login(t)
	env.srv.FailNext("GET", apitest.CitiesPath, 503, 1)

	err := env.run(t, nil, "post", "upload", "--city", "Oslo", "--picture", writePicture(t))
	require.NoError(t, err)
	assert.Len(t, env.srv.CallsTo("POST", "/posts"), 1)
}
