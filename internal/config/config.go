package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Backend struct {
		URL string `yaml:"url"`
	} `yaml:"backend"`
	Quiz struct {
		ID        string `yaml:"id"`
		Language  string `yaml:"language"`
		Questions int    `yaml:"questions"`
	} `yaml:"quiz"`
	Sync struct {
		PollTimeout   string `yaml:"poll_timeout"`
		Backoff       string `yaml:"backoff"`
		FailureBudget int    `yaml:"failure_budget"`
	} `yaml:"sync"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
}

// Load reads YAML config from path. A missing file yields the zero
// config so every setting can fall back to its default.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or
// invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// NumberOfQuestions returns the configured quiz size or the default.
func (c Config) NumberOfQuestions() int {
	if c.Quiz.Questions > 0 {
		return c.Quiz.Questions
	}
	return 24
}
