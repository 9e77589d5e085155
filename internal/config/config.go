package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"study-quiz-service/internal/app"
	"study-quiz-service/internal/domain"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Quiz struct {
		TTL          string `yaml:"ttl"`
		BankPath     string `yaml:"bank_path"`
		DefaultCount string `yaml:"default_count"`
	} `yaml:"quiz"`
	Scoring struct {
		Mode      string   `yaml:"mode"`
		Correct   *float64 `yaml:"correct"`
		Incorrect *float64 `yaml:"incorrect"`
		Skip      *float64 `yaml:"skip"`
	} `yaml:"scoring"`
	History struct {
		Driver   string `yaml:"driver"`
		SQLite   string `yaml:"sqlite_dsn"`
		Throttle string `yaml:"throttle"`
	} `yaml:"history"`
}

// History drivers.
const (
	HistoryMemory   = "memory"
	HistoryRedis    = "redis"
	HistoryPostgres = "postgres"
	HistorySQLite   = "sqlite"
)

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, Validate(cfg)
}

// LoadOrDefault is Load, except a missing file yields the zero config.
func LoadOrDefault(path string) (Config, error) {
	cfg, err := Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Config{}, nil
	}
	return cfg, err
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

// ScoringPolicy resolves the configured mode, then applies any explicit deltas on top.
func (c Config) ScoringPolicy() (app.ScoringPolicy, error) {
	policy, err := app.ScoringByName(strings.ToLower(strings.TrimSpace(c.Scoring.Mode)))
	if err != nil {
		return app.ScoringPolicy{}, err
	}
	if c.Scoring.Correct != nil {
		policy.CorrectDelta = *c.Scoring.Correct
	}
	if c.Scoring.Incorrect != nil {
		policy.IncorrectDelta = *c.Scoring.Incorrect
	}
	if c.Scoring.Skip != nil {
		policy.SkipDelta = *c.Scoring.Skip
	}
	return policy, nil
}

// DefaultCount is the question count used when a client does not ask for one.
func (c Config) DefaultCount() int {
	if c.Quiz.DefaultCount == "" {
		return 10
	}
	n, err := app.ParseCount(c.Quiz.DefaultCount)
	if err != nil {
		return 10
	}
	return n
}

// HistoryDriver picks the configured driver, falling back to the richest backend available.
func (c Config) HistoryDriver() string {
	if c.History.Driver != "" {
		return strings.ToLower(c.History.Driver)
	}
	switch {
	case c.Postgres.URL != "":
		return HistoryPostgres
	case c.Redis.Addr != "":
		return HistoryRedis
	default:
		return HistoryMemory
	}
}

// Validate reports every configuration problem at once.
func Validate(c Config) error {
	var issues []domain.Issue
	add := func(field, message string) {
		issues = append(issues, domain.Issue{Field: field, Message: message})
	}

	if _, err := c.ScoringPolicy(); err != nil {
		add("scoring.mode", err.Error())
	}
	if c.Quiz.DefaultCount != "" {
		if _, err := app.ParseCount(c.Quiz.DefaultCount); err != nil {
			add("quiz.default_count", err.Error())
		}
	}
	for field, raw := range map[string]string{
		"redis.ttl":        c.Redis.TTL,
		"quiz.ttl":         c.Quiz.TTL,
		"history.throttle": c.History.Throttle,
	} {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			add(field, fmt.Sprintf("invalid duration %q", raw))
		}
	}
	switch c.HistoryDriver() {
	case HistoryMemory:
	case HistoryRedis:
		if c.Redis.Addr == "" {
			add("history.driver", "redis requires redis.addr")
		}
	case HistoryPostgres:
		if c.Postgres.URL == "" {
			add("history.driver", "postgres requires postgres.url")
		}
	case HistorySQLite:
	default:
		add("history.driver", fmt.Sprintf("unsupported driver %q", c.History.Driver))
	}

	if len(issues) > 0 {
		return &domain.ValidationError{Issues: issues}
	}
	return nil
}
