package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Port           string   `yaml:"port"`
		AllowedOrigins []string `yaml:"allowedOrigins"`
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
	NATS struct {
		URL           string `yaml:"url"`
		SubjectPrefix string `yaml:"subjectPrefix"`
	} `yaml:"nats"`
	Questions struct {
		// Source is one of static, file or postgres.
		Source string `yaml:"source"`
		File   string `yaml:"file"`
		SetID  string `yaml:"setId"`
		TTL    string `yaml:"ttl"`
	} `yaml:"questions"`
	Match struct {
		Capacity         int    `yaml:"capacity"`
		TimeBudget       string `yaml:"timeBudget"`
		ResultsDelay     string `yaml:"resultsDelay"`
		QuestionsPerGame int    `yaml:"questionsPerGame"`
		Shuffle          *bool  `yaml:"shuffle"`
		ReclaimAfter     string `yaml:"reclaimAfter"`
	} `yaml:"match"`
	Log struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"log"`
}

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
	return cfg, nil
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}

// ShuffleEnabled defaults to true when unset.
func (c Config) ShuffleEnabled() bool {
	return c.Match.Shuffle == nil || *c.Match.Shuffle
}
