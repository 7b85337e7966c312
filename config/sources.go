package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hiko-crawler/models"
)

// SourceSettings holds per-source crawl overrides. Nil pointers mean
// "use the global setting".
type SourceSettings struct {
	Enabled         *bool `yaml:"enabled"`
	MaxPages        int   `yaml:"max_pages"`
	DelayMs         int   `yaml:"delay_ms"`
	TimeFilterHours *int  `yaml:"time_filter_hours"`
	FetchDetails    *bool `yaml:"fetch_details"`
}

type sourcesFile struct {
	Sources map[string]SourceSettings `yaml:"sources"`
}

// SourceOverrides maps a source to its YAML overrides.
type SourceOverrides map[models.Source]SourceSettings

// LoadSources reads per-source overrides from a YAML file such as:
//
//	sources:
//	  ppomppu:
//	    max_pages: 3
//	    delay_ms: 1500
//	  coolenjoy:
//	    enabled: false
//
// A missing file yields empty overrides.
func LoadSources(path string) (SourceOverrides, error) {
	overrides := SourceOverrides{}
	if path == "" {
		return overrides, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return overrides, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var file sourcesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	for name, settings := range file.Sources {
		src, err := models.ParseSource(name)
		if err != nil {
			return nil, fmt.Errorf("config: %s: %w", path, err)
		}
		if settings.MaxPages < 0 || settings.DelayMs < 0 {
			return nil, fmt.Errorf("config: %s: negative limits for %s", path, src)
		}
		overrides[src] = settings
	}
	return overrides, nil
}

// CrawlSettings is the effective crawl configuration for one source.
type CrawlSettings struct {
	Enabled         bool
	MaxPages        int
	DelayMs         int
	TimeFilterHours int
	FetchDetails    bool
}

// Resolve merges the global config with the override for src.
func (o SourceOverrides) Resolve(cfg *Config, src models.Source) CrawlSettings {
	s := CrawlSettings{
		Enabled:         true,
		MaxPages:        cfg.PagesToScrape,
		DelayMs:         cfg.RateLimitMs,
		TimeFilterHours: cfg.TimeFilterHours,
		FetchDetails:    cfg.FetchDetails,
	}

	ov, ok := o[src]
	if !ok {
		return s
	}
	if ov.Enabled != nil {
		s.Enabled = *ov.Enabled
	}
	if ov.MaxPages > 0 {
		s.MaxPages = ov.MaxPages
	}
	if ov.DelayMs > 0 {
		s.DelayMs = ov.DelayMs
	}
	if s.DelayMs < MinRateLimitMs {
		s.DelayMs = MinRateLimitMs
	}
	if ov.TimeFilterHours != nil {
		s.TimeFilterHours = *ov.TimeFilterHours
	}
	if ov.FetchDetails != nil {
		s.FetchDetails = *ov.FetchDetails
	}
	return s
}
