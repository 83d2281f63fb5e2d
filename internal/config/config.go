// Package config provides configuration loading and validation for the CLI.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/viper"

	"github.com/jonathan/apply-agent/internal/llm"
)

// EnvPrefix is prepended to every environment override (APPLY_AGENT_PROVIDER, ...).
const EnvPrefix = "APPLY_AGENT"

// Config represents the CLI configuration. It can be loaded from a JSON or YAML
// file and overridden by APPLY_AGENT_* environment variables; CLI flags win over both.
type Config struct {
	// LLM
	Provider    string `json:"provider,omitempty" mapstructure:"provider"`         // gemini or openai
	APIKey      string `json:"api_key,omitempty" mapstructure:"api_key"`           // falls back to the provider's env var
	FormModel   string `json:"form_model,omitempty" mapstructure:"form_model"`     // overrides the model that maps form fields
	SearchModel string `json:"search_model,omitempty" mapstructure:"search_model"` // overrides the model that picks job matches

	// Candidate data
	UserInfo    string `json:"user_info,omitempty" mapstructure:"user_info"`       // Path to a JSON object of user information
	UserID      string `json:"user_id,omitempty" mapstructure:"user_id"`           // Profile UUID (DB-backed user information)
	DatabaseURL string `json:"database_url,omitempty" mapstructure:"database_url"` // PostgreSQL connection URL
	CVPath      string `json:"cv_path,omitempty" mapstructure:"cv_path"`           // CV PDF read by the job search
	JobsPath    string `json:"jobs_path,omitempty" mapstructure:"jobs_path"`       // Job log CSV

	// Browser
	Headed            bool          `json:"headed,omitempty" mapstructure:"headed"`
	ChromePath        string        `json:"chrome_path,omitempty" mapstructure:"chrome_path"`
	NavigationTimeout time.Duration `json:"navigation_timeout,omitempty" mapstructure:"navigation_timeout"`
	SettleDelay       time.Duration `json:"settle_delay,omitempty" mapstructure:"settle_delay"`
	FieldTimeout      time.Duration `json:"field_timeout,omitempty" mapstructure:"field_timeout"`

	// Job search
	SearchAPIKey   string  `json:"search_api_key,omitempty" mapstructure:"search_api_key"`     // Programmable Search key for careers discovery
	SearchEngineID string  `json:"search_engine_id,omitempty" mapstructure:"search_engine_id"` // Programmable Search engine (cx)
	Concurrency    int     `json:"concurrency,omitempty" mapstructure:"concurrency"`
	MinFitScore    float64 `json:"min_fit_score,omitempty" mapstructure:"min_fit_score"`

	// Logging
	LogLevel  string `json:"log_level,omitempty" mapstructure:"log_level"`
	LogFormat string `json:"log_format,omitempty" mapstructure:"log_format"`
	Verbose   bool   `json:"verbose,omitempty" mapstructure:"verbose"` // Print human-readable summaries
}

// Defaults returns the values used when neither file, environment nor flags set a key.
func Defaults() Config {
	return Config{
		Provider:          string(llm.ProviderGemini),
		CVPath:            "cv.pdf",
		JobsPath:          "jobs.csv",
		NavigationTimeout: 10 * time.Second,
		SettleDelay:       2 * time.Second,
		FieldTimeout:      3 * time.Second,
		LogLevel:          "info",
		LogFormat:         "pretty",
	}
}

// Load reads configuration from path (optional) and the environment, on top of Defaults.
// The result is validated.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	setDefaults(v, Defaults())

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
			}
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every key so AutomaticEnv also applies to Unmarshal.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("provider", d.Provider)
	v.SetDefault("api_key", d.APIKey)
	v.SetDefault("form_model", d.FormModel)
	v.SetDefault("search_model", d.SearchModel)
	v.SetDefault("user_info", d.UserInfo)
	v.SetDefault("user_id", d.UserID)
	v.SetDefault("database_url", d.DatabaseURL)
	v.SetDefault("cv_path", d.CVPath)
	v.SetDefault("jobs_path", d.JobsPath)
	v.SetDefault("headed", d.Headed)
	v.SetDefault("chrome_path", d.ChromePath)
	v.SetDefault("navigation_timeout", d.NavigationTimeout)
	v.SetDefault("settle_delay", d.SettleDelay)
	v.SetDefault("field_timeout", d.FieldTimeout)
	v.SetDefault("search_api_key", d.SearchAPIKey)
	v.SetDefault("search_engine_id", d.SearchEngineID)
	v.SetDefault("concurrency", d.Concurrency)
	v.SetDefault("min_fit_score", d.MinFitScore)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_format", d.LogFormat)
	v.SetDefault("verbose", d.Verbose)
}

// Validate checks that the configuration has valid values.
// Note: This doesn't check for required fields since those depend on the command.
func (c *Config) Validate() error {
	if c.Provider != "" {
		if _, err := llm.ConfigForProvider(c.Provider); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}

	if c.UserInfo != "" && c.UserID != "" {
		return fmt.Errorf("config error: 'user_info' and 'user_id' are mutually exclusive")
	}
	if c.UserID != "" {
		if _, err := uuid.Parse(c.UserID); err != nil {
			return fmt.Errorf("config error: 'user_id' is not a UUID: %w", err)
		}
		if c.DatabaseURL == "" {
			return fmt.Errorf("config error: 'user_id' requires 'database_url'")
		}
	}
	if c.UserInfo != "" {
		if _, err := os.Stat(c.UserInfo); os.IsNotExist(err) {
			return fmt.Errorf("config error: user info file not found: %s", c.UserInfo)
		}
	}

	// Validate numeric ranges
	if c.NavigationTimeout < 0 || c.SettleDelay < 0 || c.FieldTimeout < 0 {
		return fmt.Errorf("config error: timeouts must be non-negative")
	}
	if c.Concurrency < 0 {
		return fmt.Errorf("config error: 'concurrency' must be non-negative")
	}
	if c.MinFitScore < 0 || c.MinFitScore > 1 {
		return fmt.Errorf("config error: 'min_fit_score' must be between 0 and 1")
	}

	switch c.LogFormat {
	case "", "pretty", "json":
	default:
		return fmt.Errorf("config error: 'log_format' must be pretty or json, got %q", c.LogFormat)
	}

	return nil
}

// MergeWithDefaults returns a new Config with empty fields filled from defaults.
// This is used to apply config file values as defaults for CLI flags.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	// String fields: use default if empty
	mergeString(&result.Provider, defaults.Provider)
	mergeString(&result.APIKey, defaults.APIKey)
	mergeString(&result.FormModel, defaults.FormModel)
	mergeString(&result.SearchModel, defaults.SearchModel)
	mergeString(&result.UserInfo, defaults.UserInfo)
	mergeString(&result.UserID, defaults.UserID)
	mergeString(&result.DatabaseURL, defaults.DatabaseURL)
	mergeString(&result.CVPath, defaults.CVPath)
	mergeString(&result.JobsPath, defaults.JobsPath)
	mergeString(&result.ChromePath, defaults.ChromePath)
	mergeString(&result.SearchAPIKey, defaults.SearchAPIKey)
	mergeString(&result.SearchEngineID, defaults.SearchEngineID)
	mergeString(&result.LogLevel, defaults.LogLevel)
	mergeString(&result.LogFormat, defaults.LogFormat)

	// Numeric fields: use default if zero
	if result.NavigationTimeout == 0 {
		result.NavigationTimeout = defaults.NavigationTimeout
	}
	if result.SettleDelay == 0 {
		result.SettleDelay = defaults.SettleDelay
	}
	if result.FieldTimeout == 0 {
		result.FieldTimeout = defaults.FieldTimeout
	}
	if result.Concurrency == 0 {
		result.Concurrency = defaults.Concurrency
	}
	if result.MinFitScore == 0 {
		result.MinFitScore = defaults.MinFitScore
	}

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

func mergeString(dst *string, def string) {
	if *dst == "" {
		*dst = def
	}
}

// LLMConfig returns the provider's model configuration with the form_model and
// search_model overrides applied.
func (c *Config) LLMConfig() (*llm.Config, error) {
	llmCfg, err := llm.ConfigForProvider(c.Provider)
	if err != nil {
		return nil, err
	}
	if c.FormModel != "" {
		llmCfg = llmCfg.WithModel(llm.TierAdvanced, c.FormModel)
	}
	if c.SearchModel != "" {
		llmCfg = llmCfg.WithModel(llm.TierStandard, c.SearchModel)
	}
	return llmCfg, nil
}

// ResolveAPIKey returns the configured key or the provider's environment variable.
func (c *Config) ResolveAPIKey() (string, error) {
	if c.APIKey != "" {
		return c.APIKey, nil
	}
	provider := llm.Provider(strings.ToLower(c.Provider))
	if provider == "" {
		provider = llm.ProviderGemini
	}
	key := provider.APIKeyFromEnv()
	if key == "" {
		return "", fmt.Errorf("API key required: set api_key or %s", provider.APIKeyEnv())
	}
	return key, nil
}
