package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var managedKeys = []string{
	"PORT", "CORS_ALLOWED_ORIGINS", "REQUEST_TIMEOUT",
	"LLM_PROVIDER", "ARK_API_KEY", "ARK_ACCESS_KEY", "ARK_SECRET_KEY", "ARK_MODEL", "Model",
	"ARK_BASE_URL", "ARK_REGION", "OPENAI_API_KEY", "OPENAI_BASE_URL", "OPENAI_MODEL",
	"GEMINI_API_KEY", "GEMINI_MODEL", "LLM_TEMPERATURE", "LLM_MAX_TOKENS", "LLM_TIMEOUT",
	"LLM_BREAKER_FAILURES", "LLM_BREAKER_COOLDOWN",
	"STORE_DRIVER", "SQLITE_PATH", "CONTEXT_TIMEOUT",
	"SUPABASE_URL", "SUPABASE_SERVICE_ROLE_KEY", "SUPABASE_ANON_KEY", "SUPABASE_JWT_SECRET",
	"ANCHOR_JWT_SECRET", "ANCHOR_JWT_ISSUER", "LOG_LEVEL", "LOG_FORMAT",
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range managedKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 30*time.Second, cfg.Server.RequestTimeout)

	assert.Equal(t, ProviderNone, cfg.AI.Provider)
	assert.False(t, cfg.AI.Enabled())
	assert.InDelta(t, 0.7, cfg.AI.Temperature, 1e-9)
	assert.Equal(t, 150, cfg.AI.MaxTokens)
	assert.Equal(t, 15*time.Second, cfg.AI.Timeout)
	assert.Equal(t, uint32(5), cfg.AI.BreakerFailures)
	assert.Equal(t, "gemini-1.5-flash", cfg.AI.GeminiModel)

	assert.Equal(t, DriverMemory, cfg.Store.Driver)
	assert.Equal(t, "anchor.db", cfg.Store.SQLitePath)
	assert.Equal(t, 5*time.Second, cfg.Store.ContextTimeout)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadPortVariants(t *testing.T) {
	clearEnv(t)

	t.Setenv("PORT", "127.0.0.1:9000")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)

	t.Setenv("PORT", "90 00")
	_, err = Load()
	assert.Error(t, err)
}

func TestProviderInference(t *testing.T) {
	clearEnv(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("OPENAI_API_KEY", "o-key")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.True(t, cfg.AI.Enabled())

	t.Setenv("LLM_PROVIDER", "OpenAI")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)

	t.Setenv("LLM_PROVIDER", "claude")
	_, err = Load()
	assert.Error(t, err)
}

func TestArkLegacyModelVariable(t *testing.T) {
	clearEnv(t)
	t.Setenv("ARK_API_KEY", "ark")
	t.Setenv("Model", "doubao-pro")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ProviderArk, cfg.AI.Provider)
	assert.Equal(t, "doubao-pro", cfg.AI.ArkModel)
	assert.True(t, cfg.AI.Enabled())
}

func TestStoreDriverSelection(t *testing.T) {
	clearEnv(t)
	t.Setenv("SUPABASE_URL", "https://demo.supabase.co/")
	t.Setenv("SUPABASE_SERVICE_ROLE_KEY", "service")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSupabase, cfg.Store.Driver)
	assert.Equal(t, "https://demo.supabase.co", cfg.Auth.SupabaseURL)

	t.Setenv("STORE_DRIVER", "sqlite")
	cfg, err = Load()
	require.NoError(t, err)
	assert.Equal(t, DriverSQLite, cfg.Store.Driver)

	t.Setenv("STORE_DRIVER", "postgres")
	_, err = Load()
	assert.Error(t, err)
}

func TestSupabaseDriverRequiresCredentials(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORE_DRIVER", "supabase")

	_, err := Load()
	assert.Error(t, err)
}

func TestZeroTemperatureIsKept(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_TEMPERATURE", "0")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Zero(t, cfg.AI.Temperature)
}

func TestInvalidNumbers(t *testing.T) {
	for key, value := range map[string]string{
		"LLM_TEMPERATURE": "warm",
		"LLM_MAX_TOKENS":  "0",
		"LLM_TIMEOUT":     "-1",
		"REQUEST_TIMEOUT": "soon",
		"LOG_FORMAT":      "xml",
	} {
		t.Run(key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestTokenSecretPrefersSupabase(t *testing.T) {
	cfg := AuthConfig{SupabaseJWTSecret: "supa", JWTSecret: "local"}
	assert.Equal(t, "supa", cfg.TokenSecret())

	cfg.SupabaseJWTSecret = ""
	assert.Equal(t, "local", cfg.TokenSecret())
}
