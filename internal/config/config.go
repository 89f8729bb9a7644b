package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"wordsprint/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Words struct {
		// Source is csv or postgres.
		Source       string `yaml:"source"`
		Path         string `yaml:"path"`
		PromptColumn string `yaml:"prompt_column"`
		AnswerColumn string `yaml:"answer_column"`
		CacheTTL     string `yaml:"cache_ttl"`
	} `yaml:"words"`
	Session struct {
		IdleTTL string `yaml:"idle_ttl"`
		Tick    string `yaml:"tick"`
	} `yaml:"session"`
	Leaderboard struct {
		// Backend is memory, redis, postgres or sql.
		Backend     string `yaml:"backend"`
		Policy      string `yaml:"policy"`
		ScopeByMode bool   `yaml:"scope_by_mode"`
		ScopeByDay  bool   `yaml:"scope_by_day"`
		Size        int    `yaml:"size"`
		RankedLimit int    `yaml:"ranked_limit"`
	} `yaml:"leaderboard"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		Prefix   string `yaml:"prefix"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Database struct {
		// Type is sqlite, mysql or postgres.
		Type string `yaml:"type"`
		URL  string `yaml:"url"`
		Path string `yaml:"path"`
	} `yaml:"database"`
	Admin struct {
		Password     string `yaml:"password"`
		PasswordHash string `yaml:"password_hash"`
		JWTSecret    string `yaml:"jwt_secret"`
		TokenTTL     string `yaml:"token_ttl"`
	} `yaml:"admin"`
	Audio struct {
		Enabled  bool   `yaml:"enabled"`
		Dir      string `yaml:"dir"`
		Language string `yaml:"language"`
		Voice    string `yaml:"voice"`
		Workers  int    `yaml:"workers"`
	} `yaml:"audio"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Words.Source = "csv"
	cfg.Words.Path = "data/words.csv"
	cfg.Words.CacheTTL = "10m"
	cfg.Session.IdleTTL = "30m"
	cfg.Session.Tick = "200ms"
	cfg.Leaderboard.Backend = "memory"
	cfg.Leaderboard.Policy = string(domain.PolicyBest)
	cfg.Leaderboard.Size = 10
	cfg.Redis.TTL = "10m"
	cfg.Redis.Prefix = "wordsprint:"
	cfg.Database.Type = "sqlite"
	cfg.Database.Path = "data/leaderboard.db"
	cfg.Admin.TokenTTL = "1h"
	cfg.Audio.Dir = "data/audio"
	cfg.Audio.Language = "en-US"
	cfg.Audio.Voice = "en-US-Wavenet-F"
	cfg.Audio.Workers = 4
	return cfg
}

// Load reads YAML config from path on top of the defaults. A missing file is
// not an error. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
	case err != nil:
		return cfg, err
	default:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

func applyEnv(cfg *Config) {
	overrides := []struct {
		name string
		dst  *string
	}{
		{"PORT", &cfg.Server.Port},
		{"ADMIN_PASS", &cfg.Admin.Password},
		{"DATABASE_URL", &cfg.Postgres.URL},
		{"REDIS_ADDR", &cfg.Redis.Addr},
		{"WORDS_PATH", &cfg.Words.Path},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.name); ok && v != "" {
			*o.dst = v
		}
	}
}

// Validate checks enumerated values and backend prerequisites.
func (c Config) Validate() error {
	switch c.Words.Source {
	case "csv", "postgres":
	default:
		return fmt.Errorf("words.source: unknown source %q", c.Words.Source)
	}
	if c.Words.Source == "postgres" && c.Postgres.URL == "" {
		return errors.New("words.source postgres requires postgres.url")
	}
	switch c.Leaderboard.Backend {
	case "memory", "sql":
	case "redis":
		if c.Redis.Addr == "" {
			return errors.New("leaderboard.backend redis requires redis.addr")
		}
	case "postgres":
		if c.Postgres.URL == "" {
			return errors.New("leaderboard.backend postgres requires postgres.url")
		}
	default:
		return fmt.Errorf("leaderboard.backend: unknown backend %q", c.Leaderboard.Backend)
	}
	if _, err := domain.ParsePolicy(c.Leaderboard.Policy); err != nil {
		return fmt.Errorf("leaderboard.policy: %w", err)
	}
	if c.Leaderboard.RankedLimit < 0 {
		return errors.New("leaderboard.ranked_limit must not be negative")
	}
	return nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
