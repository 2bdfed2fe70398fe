package config_test

import (
	"testing"
	"time"

	"github.com/playingarts/go-libplayingarts/config"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Setenv("PLAYINGARTS_FETCH_TIMEOUT", "1s")
	cfg, err := config.Default()
	require.NoError(t, err)
	require.Equal(t, "https://playingarts.com", cfg.Endpoint)
	require.Equal(t, 15*time.Second, cfg.FetchTimeout)
	require.Equal(t, 2, cfg.MinHeroCards)
	require.Equal(t, 50, cfg.ImageCacheSize)
	require.Zero(t, cfg.FetchRetries)
	require.Zero(t, cfg.RecentTTL)
	require.NoError(t, cfg.Validate())
}

func TestLoad(t *testing.T) {
	t.Setenv("PLAYINGARTS_ENDPOINT", "http://localhost:3000")
	t.Setenv("PLAYINGARTS_FETCH_TIMEOUT", "10s")
	t.Setenv("PLAYINGARTS_FETCH_RETRIES", "1")
	t.Setenv("PLAYINGARTS_RECENT_TTL", "5s")
	t.Setenv("PLAYINGARTS_HEADERS", "X-Client:test,X-Env:dev")

	cfg, err := config.Load()
	require.NoError(t, err)
	require.Equal(t, "http://localhost:3000", cfg.Endpoint)
	require.Equal(t, 10*time.Second, cfg.FetchTimeout)
	require.Equal(t, 1, cfg.FetchRetries)
	require.Equal(t, 5*time.Second, cfg.RecentTTL)
	require.Equal(t, map[string]string{"X-Client": "test", "X-Env": "dev"}, cfg.Headers)
	require.Equal(t, 2, cfg.MinHeroCards)
}

func TestLoadParseError(t *testing.T) {
	t.Setenv("PLAYINGARTS_FETCH_TIMEOUT", "soon")
	_, err := config.Load()
	require.ErrorContains(t, err, "parse env")
}

func TestValidate(t *testing.T) {
	t.Setenv("PLAYINGARTS_ENDPOINT", "ftp://playingarts.com")
	t.Setenv("PLAYINGARTS_MIN_HERO_CARDS", "0")
	t.Setenv("PLAYINGARTS_IMAGE_CACHE_SIZE", "-1")

	_, err := config.Load()
	require.ErrorContains(t, err, "http or https")
	require.ErrorContains(t, err, "min hero cards")
	require.ErrorContains(t, err, "image cache size")
}
