// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// DefaultSystemPrompt is the persona preamble prepended to every
// conversation. Callers cannot override it.
const DefaultSystemPrompt = "Eres Sun, un asistente experto en criptomonedas. " +
	"Responde de forma clara y precisa a las preguntas de los usuarios."

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like OPENROUTER_API_KEY
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

	// Environment-specific overlay, ignored when absent
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path.
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// loadEnvFile tries the usual locations so the server works when started
// from the repo root, cmd/api-server or a test directory.
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
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

// findProjectRoot walks up directories looking for go.mod.
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

// expandEnvVars resolves ${VAR} placeholders in string values.
func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// overrideEmptyConfig fills credentials and endpoints straight from the
// environment when the file left them empty.
func overrideEmptyConfig(cfg *Config) {
	if cfg.OpenRouter.APIKey == "" {
		if val := os.Getenv("OPENROUTER_API_KEY"); val != "" {
			cfg.OpenRouter.APIKey = val
		}
	}
	if cfg.Recommender.BaseURL == "" {
		if val := os.Getenv("RECOMMENDER_BASE_URL"); val != "" {
			cfg.Recommender.BaseURL = val
		}
	}
	if cfg.Database.Redis.Address == "" {
		if val := os.Getenv("REDIS_ADDRESS"); val != "" {
			cfg.Database.Redis.Address = val
		}
	}
}

// applyDefaults sets default values for optional configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "cryptoreed-server"
	}

	// Server defaults
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":3000"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 15000
	}
	if cfg.Server.WriteTimeout == 0 {
		// Must outlive the script deadline; /run holds the response
		// open for the whole run.
		cfg.Server.WriteTimeout = 660000
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = 10000
	}

	// OpenRouter defaults mirror the dashboard's fixed request shape
	if cfg.OpenRouter.BaseURL == "" {
		cfg.OpenRouter.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.OpenRouter.Model == "" {
		cfg.OpenRouter.Model = "mistralai/mistral-7b-instruct:free"
	}
	if cfg.OpenRouter.MaxTokens == 0 {
		cfg.OpenRouter.MaxTokens = 80
	}
	if cfg.OpenRouter.Temperature == 0 {
		cfg.OpenRouter.Temperature = 0.2
	}
	if cfg.OpenRouter.Timeout == 0 {
		cfg.OpenRouter.Timeout = 30000
	}
	if cfg.OpenRouter.SystemPrompt == "" {
		cfg.OpenRouter.SystemPrompt = DefaultSystemPrompt
	}

	// Recommender defaults
	if cfg.Recommender.Source == "" {
		cfg.Recommender.Source = "service"
	}
	if cfg.Recommender.Timeout == 0 {
		cfg.Recommender.Timeout = 10000
	}
	if cfg.Recommender.CacheTTL == 0 {
		cfg.Recommender.CacheTTL = 60000
	}
	if cfg.Recommender.Defaults.Capital == "" {
		cfg.Recommender.Defaults.Capital = "1000"
	}
	if cfg.Recommender.Defaults.Riesgo == "" {
		cfg.Recommender.Defaults.Riesgo = "medio"
	}
	if cfg.Recommender.Defaults.Plazo == "" {
		cfg.Recommender.Defaults.Plazo = "24h"
	}
	if cfg.Recommender.Defaults.TopN == 0 {
		cfg.Recommender.Defaults.TopN = 3
	}

	// Script runner defaults
	if cfg.Scripts.Dir == "" {
		cfg.Scripts.Dir = "scripts"
	}
	if cfg.Scripts.Interpreter == "" {
		cfg.Scripts.Interpreter = "python3"
	}
	if cfg.Scripts.Timeout == 0 {
		cfg.Scripts.Timeout = 600000
	}
	if cfg.Scripts.MaxConcurrent == 0 {
		cfg.Scripts.MaxConcurrent = 2
	}

	if cfg.Artifacts.Dir == "" {
		cfg.Artifacts.Dir = "public/data"
	}

	// Logging defaults
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "json"
	}
}

// validateConfig validates critical configuration fields.
func validateConfig(cfg *Config) error {
	if cfg.OpenRouter.BaseURL == "" {
		return fmt.Errorf("openrouter.base_url is required")
	}

	if cfg.Recommender.Source != "service" && cfg.Recommender.Source != "artifact" {
		return fmt.Errorf("recommender.source must be %q or %q", "service", "artifact")
	}
	if cfg.Recommender.Source == "service" && cfg.Recommender.BaseURL == "" {
		return fmt.Errorf("recommender.base_url is required when recommender.source is %q", "service")
	}

	if cfg.Scripts.MaxConcurrent < 1 {
		return fmt.Errorf("scripts.max_concurrent must be at least 1")
	}

	return nil
}

// GetDuration converts milliseconds from config to time.Duration.
func GetDuration(milliseconds int) time.Duration {
	return time.Duration(milliseconds) * time.Millisecond
}
