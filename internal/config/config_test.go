package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/apply-agent/internal/llm"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "gemini", cfg.Provider)
	assert.Equal(t, "cv.pdf", cfg.CVPath)
	assert.Equal(t, "jobs.csv", cfg.JobsPath)
	assert.Equal(t, 10*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay)
	assert.Equal(t, 3*time.Second, cfg.FieldTimeout)
	assert.Equal(t, "pretty", cfg.LogFormat)
}

func TestLoad_ValidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{
		"provider": "openai",
		"user_id": "550e8400-e29b-41d4-a716-446655440000",
		"database_url": "postgres://localhost/apply",
		"navigation_timeout": "15s",
		"concurrency": 4,
		"min_fit_score": 0.6,
		"verbose": true
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "openai", cfg.Provider)
	assert.Equal(t, "550e8400-e29b-41d4-a716-446655440000", cfg.UserID)
	assert.Equal(t, 15*time.Second, cfg.NavigationTimeout)
	assert.Equal(t, 2*time.Second, cfg.SettleDelay, "unset keys keep defaults")
	assert.Equal(t, 4, cfg.Concurrency)
	assert.InDelta(t, 0.6, cfg.MinFitScore, 1e-9)
	assert.True(t, cfg.Verbose)
}

func TestLoad_YAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", "provider: gemini\njobs_path: out/jobs.csv\nheaded: true\n")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "out/jobs.csv", cfg.JobsPath)
	assert.True(t, cfg.Headed)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfig(t, "config.json", `{"jobs_path": "file.csv", "concurrency": 2}`)
	t.Setenv("APPLY_AGENT_JOBS_PATH", "env.csv")
	t.Setenv("APPLY_AGENT_CONCURRENCY", "8")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env.csv", cfg.JobsPath)
	assert.Equal(t, 8, cfg.Concurrency)
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{ invalid json }`)

	cfg, err := Load(path)
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoad_FileNotFound(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.json")
	assert.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "failed to read config file")
}

func TestLoad_InvalidValues(t *testing.T) {
	path := writeConfig(t, "config.json", `{"provider": "anthropic"}`)

	_, err := Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "config error")
}

func TestValidate(t *testing.T) {
	userInfo := writeConfig(t, "user.json", `{"full_name": "Jane"}`)

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "valid", cfg: Config{Provider: "gemini", UserInfo: userInfo, MinFitScore: 0.5}},
		{name: "empty", cfg: Config{}},
		{name: "unknown provider", cfg: Config{Provider: "llama"}, wantErr: "unsupported LLM provider"},
		{name: "mutually exclusive", cfg: Config{UserInfo: userInfo, UserID: "550e8400-e29b-41d4-a716-446655440000"}, wantErr: "mutually exclusive"},
		{name: "bad user id", cfg: Config{UserID: "42", DatabaseURL: "postgres://x"}, wantErr: "not a UUID"},
		{name: "user id without database", cfg: Config{UserID: "550e8400-e29b-41d4-a716-446655440000"}, wantErr: "database_url"},
		{name: "missing user info", cfg: Config{UserInfo: "/nonexistent/user.json"}, wantErr: "user info file not found"},
		{name: "negative timeout", cfg: Config{FieldTimeout: -time.Second}, wantErr: "non-negative"},
		{name: "negative concurrency", cfg: Config{Concurrency: -1}, wantErr: "concurrency"},
		{name: "fit score range", cfg: Config{MinFitScore: 1.5}, wantErr: "min_fit_score"},
		{name: "log format", cfg: Config{LogFormat: "xml"}, wantErr: "log_format"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMergeWithDefaults(t *testing.T) {
	cfg := Config{JobsPath: "mine.csv", Concurrency: 3}

	merged := cfg.MergeWithDefaults(Defaults())
	assert.Equal(t, "mine.csv", merged.JobsPath)
	assert.Equal(t, 3, merged.Concurrency)
	assert.Equal(t, "cv.pdf", merged.CVPath)
	assert.Equal(t, 10*time.Second, merged.NavigationTimeout)
	assert.Equal(t, "", cfg.CVPath, "receiver is not modified")
}

func TestLLMConfig_ModelOverrides(t *testing.T) {
	cfg := Config{Provider: "openai", FormModel: "gpt-4.1-mini"}
	llmCfg, err := cfg.LLMConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderOpenAI, llmCfg.Provider)
	assert.Equal(t, "gpt-4.1-mini", llmCfg.GetModel(llm.TierAdvanced))
	assert.Equal(t, "gpt-4o", llmCfg.GetModel(llm.TierStandard), "other tiers keep provider defaults")

	cfg = Config{SearchModel: "gemini-2.5-flash-lite"}
	llmCfg, err = cfg.LLMConfig()
	require.NoError(t, err)
	assert.Equal(t, llm.ProviderGemini, llmCfg.Provider)
	assert.Equal(t, "gemini-2.5-flash-lite", llmCfg.GetModel(llm.TierStandard))
	assert.Equal(t, "gemini-2.5-pro", llmCfg.GetModel(llm.TierAdvanced))

	cfg = Config{Provider: "anthropic"}
	_, err = cfg.LLMConfig()
	assert.Error(t, err)
}

func TestLoad_ModelOverridesFromEnv(t *testing.T) {
	t.Setenv("APPLY_AGENT_FORM_MODEL", "gemini-2.5-flash")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini-2.5-flash", cfg.FormModel)
	assert.Empty(t, cfg.SearchModel)
}

func TestResolveAPIKey(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-env")

	cfg := Config{APIKey: "explicit"}
	key, err := cfg.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "explicit", key)

	cfg = Config{Provider: "OpenAI"}
	key, err = cfg.ResolveAPIKey()
	require.NoError(t, err)
	assert.Equal(t, "sk-env", key)

	cfg = Config{}
	_, err = cfg.ResolveAPIKey()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GEMINI_API_KEY")
}
