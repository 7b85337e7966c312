package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hiko-crawler/models"
)

func TestLoadClampsRateLimit(t *testing.T) {
	t.Setenv("RATE_LIMIT_MS", "50")
	t.Setenv("CRAWL_SOURCES", "ppomppu, clien,unknown")

	cfg := Load()

	assert.Equal(t, MinRateLimitMs, cfg.RateLimitMs)
	assert.Equal(t, []models.Source{models.SourcePpomppu, models.SourceClien}, cfg.CrawlSources)
	assert.Equal(t, 2, cfg.MaxRetries)
}

func TestSourcesToCrawlDefaultsToAll(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, models.AllSources(), cfg.SourcesToCrawl())
}

func TestLocationFallsBackToFixedZone(t *testing.T) {
	cfg := &Config{Timezone: "Not/AZone"}
	_, offset := time.Now().In(cfg.Location()).Zone()
	assert.Equal(t, 9*60*60, offset)
}

func TestLoadSourcesMissingFile(t *testing.T) {
	overrides, err := LoadSources(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Empty(t, overrides)
}

func TestLoadSourcesResolve(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	body := `
sources:
  ppomppu:
    max_pages: 5
    delay_ms: 100
    time_filter_hours: 0
  coolenjoy:
    enabled: false
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	overrides, err := LoadSources(path)
	require.NoError(t, err)

	cfg := &Config{PagesToScrape: 2, RateLimitMs: 1000, TimeFilterHours: 24}

	pp := overrides.Resolve(cfg, models.SourcePpomppu)
	assert.True(t, pp.Enabled)
	assert.Equal(t, 5, pp.MaxPages)
	assert.Equal(t, MinRateLimitMs, pp.DelayMs)
	assert.Equal(t, 0, pp.TimeFilterHours)

	ce := overrides.Resolve(cfg, models.SourceCoolenjoy)
	assert.False(t, ce.Enabled)
	assert.Equal(t, 2, ce.MaxPages)

	cl := overrides.Resolve(cfg, models.SourceClien)
	assert.Equal(t, CrawlSettings{Enabled: true, MaxPages: 2, DelayMs: 1000, TimeFilterHours: 24}, cl)
}

func TestLoadSourcesRejectsUnknownSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sources.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sources:\n  fmkorea:\n    max_pages: 1\n"), 0o644))

	_, err := LoadSources(path)
	assert.Error(t, err)
}
