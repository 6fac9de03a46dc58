// internal/common/config/config.go
package config

// Config is the main application configuration struct.
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	OpenRouter  OpenRouterConfig  `mapstructure:"openrouter"`
	Recommender RecommenderConfig `mapstructure:"recommender"`
	Scripts     ScriptsConfig     `mapstructure:"scripts"`
	Artifacts   ArtifactsConfig   `mapstructure:"artifacts"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Logging     LoggingConfig     `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type ServerConfig struct {
	Address         string `mapstructure:"address"`
	ReadTimeout     int    `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int    `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"` // milliseconds
}

// OpenRouterConfig holds settings for the chat-completion and models APIs.
// The API key is injected here at startup; nothing reads it ad hoc.
type OpenRouterConfig struct {
	BaseURL      string  `mapstructure:"base_url"`
	APIKey       string  `mapstructure:"api_key"`
	Model        string  `mapstructure:"model"`
	MaxTokens    int     `mapstructure:"max_tokens"`
	Temperature  float64 `mapstructure:"temperature"`
	Timeout      int     `mapstructure:"timeout"` // milliseconds
	SystemPrompt string  `mapstructure:"system_prompt"`
}

// RecommenderConfig holds settings for the external recommendation service
// and the artifact fallback source.
type RecommenderConfig struct {
	BaseURL  string                 `mapstructure:"base_url"`
	Source   string                 `mapstructure:"source"` // "service" or "artifact"
	Timeout  int                    `mapstructure:"timeout"`   // milliseconds
	CacheTTL int                    `mapstructure:"cache_ttl"` // milliseconds
	Defaults RecommenderQueryConfig `mapstructure:"defaults"`
}

// RecommenderQueryConfig are the fixed query parameters the chat path uses.
type RecommenderQueryConfig struct {
	Capital string `mapstructure:"capital"`
	Riesgo  string `mapstructure:"riesgo"`
	Plazo   string `mapstructure:"plazo"`
	TopN    int    `mapstructure:"top_n"`
}

// ScriptsConfig holds settings for the allow-listed script runner.
type ScriptsConfig struct {
	Dir           string `mapstructure:"dir"`
	Interpreter   string `mapstructure:"interpreter"`
	Timeout       int    `mapstructure:"timeout"` // milliseconds
	MaxConcurrent int    `mapstructure:"max_concurrent"`
}

// ArtifactsConfig holds the location of the externally produced flat files.
type ArtifactsConfig struct {
	Dir string `mapstructure:"dir"`
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// Enabled reports whether a redis cache should be wired at all.
func (r RedisConfig) Enabled() bool {
	return r.Address != ""
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
