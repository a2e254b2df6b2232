package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like MADLIB_AGENT_BASE_URL
	viper.SetEnvPrefix("madlib")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment overlay, config.<env>.yaml, is optional.
	viper.SetConfigName(fmt.Sprintf("config.%s", env))
	_ = viper.MergeInConfig()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries .env in the usual run locations before falling back to
// the process environment.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// findProjectRoot walks up from the working directory looking for go.mod.
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "madlib-engine"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}
	if cfg.Agent.BaseURL == "" {
		cfg.Agent.BaseURL = "http://localhost:8080"
	}
	if cfg.Agent.Timeout == 0 {
		cfg.Agent.Timeout = 30000
	}
	if cfg.Agent.MaxRetries == 0 {
		cfg.Agent.MaxRetries = 2
	}
	if cfg.Agent.MaxTokens == 0 {
		cfg.Agent.MaxTokens = 1000
	}
	if cfg.Agent.Temperature == 0 {
		cfg.Agent.Temperature = 0.7
	}
	if cfg.Template.SlotsPerKind == 0 {
		cfg.Template.SlotsPerKind = 5
	}
	if cfg.Template.MaxWords == 0 {
		cfg.Template.MaxWords = 150
	}
	if cfg.Save.Endpoint == "" {
		cfg.Save.Endpoint = "https://api.madlibs.example.com/v1/madlibs"
	}
	if cfg.Save.Timeout == 0 {
		cfg.Save.Timeout = 10000
	}
	if cfg.Save.CacheTTL == 0 {
		cfg.Save.CacheTTL = 60
	}
	if cfg.Database.Postgres.Port == 0 {
		cfg.Database.Postgres.Port = 5432
	}
	if cfg.Database.Postgres.SSLMode == "" {
		cfg.Database.Postgres.SSLMode = "disable"
	}
	if cfg.Database.Redis.Address == "" {
		cfg.Database.Redis.Address = "localhost:6379"
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
	if cfg.Metrics.Port == 0 {
		cfg.Metrics.Port = 9091
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Agent.BaseURL == "" {
		return fmt.Errorf("agent.base_url is required")
	}
	if cfg.Template.SlotsPerKind < 1 {
		return fmt.Errorf("template.slots_per_kind must be positive")
	}
	if cfg.Save.ArchiveEnabled && cfg.Database.Postgres.Host == "" {
		return fmt.Errorf("database.postgres.host is required when save.archive_enabled is set")
	}
	return nil
}
