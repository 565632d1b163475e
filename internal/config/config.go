// Package config loads the application configuration: built-in defaults
// overlaid with an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/pagelens/pagelens/internal/fetcher"
	"github.com/pagelens/pagelens/internal/intent"
	"github.com/pagelens/pagelens/internal/page"
	"github.com/pagelens/pagelens/internal/scan"
	"github.com/pagelens/pagelens/internal/server"
	"github.com/pagelens/pagelens/internal/store"
	"github.com/pagelens/pagelens/internal/webclient"
)

// Config aggregates every component's settings.
type Config struct {
	Server    server.Config
	WebClient webclient.Config
	Fetcher   fetcher.Config
	Page      page.Config
	Scan      scan.Config
	Store     store.Config
	OpenAI    intent.OpenAIConfig
}

// Default returns the configuration used when no file overrides it.
func Default() Config {
	return Config{
		Server:    server.DefaultConfig(),
		WebClient: webclient.DefaultConfig(),
		Fetcher:   fetcher.DefaultConfig(),
		Page:      page.DefaultConfig(),
		Scan:      scan.DefaultConfig(),
		Store:     store.DefaultConfig(),
	}
}

// fileConfig is the YAML schema. Durations are strings ("45s", "2m") because
// the YAML decoder has no native time.Duration support.
type fileConfig struct {
	Server struct {
		Addr           string   `yaml:"addr"`
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	WebClient struct {
		Backend     string `yaml:"backend"`
		Timeout     string `yaml:"timeout"`
		MaxBodySize int64  `yaml:"max_body_size"`
		ProxyPrefix string `yaml:"proxy_prefix"`
	} `yaml:"webclient"`
	Fetcher struct {
		MaxAttempts int    `yaml:"max_attempts"`
		BackoffBase string `yaml:"backoff_base"`
	} `yaml:"fetcher"`
	Page struct {
		LinkLimit int `yaml:"link_limit"`
	} `yaml:"page"`
	Scan struct {
		PolitenessDelay string `yaml:"politeness_delay"`
	} `yaml:"scan"`
	Store struct {
		Path string `yaml:"path"`
	} `yaml:"store"`
	OpenAI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`
}

// Load returns Default overlaid with the YAML file at path. An empty path
// returns the defaults unchanged; a named file that is missing or invalid is
// an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var file fileConfig
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parse config file %s: %w", path, err)
	}

	if file.Server.Addr != "" {
		cfg.Server.Addr = file.Server.Addr
	}
	if len(file.Server.AllowedOrigins) > 0 {
		cfg.Server.AllowedOrigins = file.Server.AllowedOrigins
	}

	if file.WebClient.Backend != "" {
		cfg.WebClient.Backend = file.WebClient.Backend
	}
	if file.WebClient.MaxBodySize > 0 {
		cfg.WebClient.MaxBodySize = file.WebClient.MaxBodySize
	}
	if file.WebClient.ProxyPrefix != "" {
		cfg.WebClient.ProxyPrefix = file.WebClient.ProxyPrefix
	}
	if err := overlayDuration(&cfg.WebClient.Timeout, file.WebClient.Timeout, "webclient.timeout"); err != nil {
		return cfg, err
	}

	if file.Fetcher.MaxAttempts > 0 {
		cfg.Fetcher.MaxAttempts = file.Fetcher.MaxAttempts
	}
	if err := overlayDuration(&cfg.Fetcher.BackoffBase, file.Fetcher.BackoffBase, "fetcher.backoff_base"); err != nil {
		return cfg, err
	}

	if file.Page.LinkLimit > 0 {
		cfg.Page.LinkLimit = file.Page.LinkLimit
	}

	if err := overlayDuration(&cfg.Scan.PolitenessDelay, file.Scan.PolitenessDelay, "scan.politeness_delay"); err != nil {
		return cfg, err
	}

	if file.Store.Path != "" {
		cfg.Store.Path = file.Store.Path
	}

	cfg.OpenAI.APIKey = file.OpenAI.APIKey
	cfg.OpenAI.Model = file.OpenAI.Model

	return cfg, nil
}

func overlayDuration(dst *time.Duration, raw, name string) error {
	if raw == "" {
		return nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("config %s: %w", name, err)
	}
	*dst = d
	return nil
}
