package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// DataConfig locates the source tables.
type DataConfig struct {
	MoviesPath  string `yaml:"movies_path" validate:"required"`
	RatingsPath string `yaml:"ratings_path" validate:"required"`
}

// SimilarityConfig tunes the similarity computation.
type SimilarityConfig struct {
	// Workers is the number of goroutines computing rows; 0 means one per CPU.
	Workers int `yaml:"workers" validate:"min=0"`
}

// RecommendConfig bounds the result count the presentation layers ask for.
type RecommendConfig struct {
	DefaultCount int `yaml:"default_count" validate:"min=1,ltefield=MaxCount"`
	MaxCount     int `yaml:"max_count" validate:"min=1"`
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"omitempty,oneof=trace debug info warn error disabled"`
	Format string `yaml:"format" validate:"omitempty,oneof=json console"`
}

// ServerConfig configures the HTTP adapter.
type ServerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	Addr             string `yaml:"addr" validate:"required_if=Enabled true"`
	ReadTimeoutSecs  int    `yaml:"read_timeout_secs" validate:"min=0"`
	WriteTimeoutSecs int    `yaml:"write_timeout_secs" validate:"min=0"`
}

// ReadTimeout returns the read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSecs) * time.Second
}

// WriteTimeout returns the write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSecs) * time.Second
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Data       DataConfig       `yaml:"data"`
	Similarity SimilarityConfig `yaml:"similarity"`
	Recommend  RecommendConfig  `yaml:"recommend"`
	Logging    LoggingConfig    `yaml:"logging"`
	Server     ServerConfig     `yaml:"server"`
}

var validate = validator.New()

// Validate checks the configuration for invalid values.
func (c *AppConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
// Environment overrides are applied in both cases.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := defaultConfig()
			if err := applyEnvOverrides(cfg); err != nil {
				return nil, err
			}
			return cfg, cfg.Validate()
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	applyConfigDefaults(&cfg)
	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/findmovie/config.yaml.
// If neither exists, it writes defaults to ~/.config/findmovie/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := defaultConfig()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	if err := applyEnvOverrides(cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, cfg.Validate()
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "findmovie", "config.yaml"), nil
}

func defaultConfig() *AppConfig {
	return &AppConfig{
		Data:      DataConfig{MoviesPath: "movies.csv", RatingsPath: "ratings.csv"},
		Recommend: RecommendConfig{DefaultCount: 5, MaxCount: 20},
		Logging:   LoggingConfig{Level: "info", Format: "json"},
		Server:    ServerConfig{Addr: ":8080", ReadTimeoutSecs: 10, WriteTimeoutSecs: 30},
	}
}

func applyConfigDefaults(cfg *AppConfig) {
	def := defaultConfig()
	if cfg.Data.MoviesPath == "" {
		cfg.Data.MoviesPath = def.Data.MoviesPath
	}
	if cfg.Data.RatingsPath == "" {
		cfg.Data.RatingsPath = def.Data.RatingsPath
	}
	if cfg.Recommend.MaxCount == 0 {
		cfg.Recommend.MaxCount = def.Recommend.MaxCount
	}
	if cfg.Recommend.DefaultCount == 0 {
		cfg.Recommend.DefaultCount = min(def.Recommend.DefaultCount, cfg.Recommend.MaxCount)
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = def.Logging.Level
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = def.Logging.Format
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = def.Server.Addr
	}
	if cfg.Server.ReadTimeoutSecs == 0 {
		cfg.Server.ReadTimeoutSecs = def.Server.ReadTimeoutSecs
	}
	if cfg.Server.WriteTimeoutSecs == 0 {
		cfg.Server.WriteTimeoutSecs = def.Server.WriteTimeoutSecs
	}
}

// applyEnvOverrides lets FINDMOVIE_* variables (typically from .env) override file values.
func applyEnvOverrides(cfg *AppConfig) error {
	if v := os.Getenv("FINDMOVIE_MOVIES_PATH"); v != "" {
		cfg.Data.MoviesPath = v
	}
	if v := os.Getenv("FINDMOVIE_RATINGS_PATH"); v != "" {
		cfg.Data.RatingsPath = v
	}
	if v := os.Getenv("FINDMOVIE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("FINDMOVIE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("FINDMOVIE_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("FINDMOVIE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("FINDMOVIE_WORKERS: %w", err)
		}
		cfg.Similarity.Workers = n
	}
	return nil
}
