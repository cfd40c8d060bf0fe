package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config 聚合整个服务的配置项。
type Config struct {
	Server ServerConfig
	AI     AIConfig
	Store  StoreConfig
	Auth   AuthConfig
	Log    LogConfig
}

// Load 从环境变量加载配置。
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	auth := loadAuthConfig()

	store, err := loadStoreConfig(auth)
	if err != nil {
		return nil, err
	}

	log, err := loadLogConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Store: store, Auth: auth, Log: log}, nil
}

// ServerConfig 描述 HTTP 服务配置。
type ServerConfig struct {
	Addr           string
	AllowedOrigins []string
	RequestTimeout time.Duration
}

// loadServerConfig 解析服务器监听地址。
func loadServerConfig() (ServerConfig, error) {
	timeout, err := parseSecondsEnv("REQUEST_TIMEOUT", 30)
	if err != nil {
		return ServerConfig{}, err
	}

	origins := splitList(getEnvOrDefault("CORS_ALLOWED_ORIGINS", "*"))

	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		// 允许用户直接传入 ":8080" 或 "127.0.0.1:8080"。
		return ServerConfig{Addr: port, AllowedOrigins: origins, RequestTimeout: timeout}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, AllowedOrigins: origins, RequestTimeout: timeout}, nil
}

// Provider 标识使用哪一个大模型后端。
type Provider string

const (
	ProviderNone   Provider = ""
	ProviderArk    Provider = "ark"
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
)

// GeminiOpenAIBaseURL is Gemini's OpenAI-compatible endpoint.
const GeminiOpenAIBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"

// AIConfig 描述大模型相关配置。
type AIConfig struct {
	Provider Provider

	ArkAPIKey    string
	ArkAccessKey string
	ArkSecretKey string
	ArkModel     string
	ArkBaseURL   string
	ArkRegion    string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string

	GeminiAPIKey string
	GeminiModel  string

	Temperature     float64
	MaxTokens       int
	Timeout         time.Duration
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// Enabled 表示当前 provider 是否提供了必需的密钥。
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.ArkModel != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	case ProviderOpenAI:
		return c.OpenAIAPIKey != "" && c.OpenAIModel != ""
	case ProviderGemini:
		return c.GeminiAPIKey != "" && c.GeminiModel != ""
	default:
		return false
	}
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("LLM_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}

	maxTokens, err := parseOptionalIntEnv("LLM_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}

	timeout, err := parseSecondsEnv("LLM_TIMEOUT", 15)
	if err != nil {
		return AIConfig{}, err
	}

	failures, err := parseOptionalIntEnv("LLM_BREAKER_FAILURES")
	if err != nil {
		return AIConfig{}, err
	}

	cooldown, err := parseSecondsEnv("LLM_BREAKER_COOLDOWN", 30)
	if err != nil {
		return AIConfig{}, err
	}

	cfg := AIConfig{
		ArkAPIKey:    strings.TrimSpace(os.Getenv("ARK_API_KEY")),
		ArkAccessKey: strings.TrimSpace(os.Getenv("ARK_ACCESS_KEY")),
		ArkSecretKey: strings.TrimSpace(os.Getenv("ARK_SECRET_KEY")),
		// 兼容旧的 "Model" 变量名。
		ArkModel:   getEnvOrDefault("ARK_MODEL", strings.TrimSpace(os.Getenv("Model"))),
		ArkBaseURL: getEnvOrDefault("ARK_BASE_URL", "https://ark.cn-beijing.volces.com/api/v3"),
		ArkRegion:  getEnvOrDefault("ARK_REGION", "cn-beijing"),

		OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
		OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
		OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),

		GeminiAPIKey: strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiModel:  getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),

		Temperature:     0.7,
		MaxTokens:       150,
		Timeout:         timeout,
		BreakerFailures: 5,
		BreakerCooldown: cooldown,
	}

	if temperature != nil {
		cfg.Temperature = *temperature
	}
	if maxTokens != nil {
		if *maxTokens < 1 {
			return AIConfig{}, fmt.Errorf("invalid LLM_MAX_TOKENS value %d: must be positive", *maxTokens)
		}
		cfg.MaxTokens = *maxTokens
	}
	if failures != nil {
		if *failures < 1 {
			cfg.BreakerFailures = 1
		} else {
			cfg.BreakerFailures = uint32(*failures)
		}
	}

	provider := Provider(strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER"))))
	switch provider {
	case ProviderArk, ProviderOpenAI, ProviderGemini:
		cfg.Provider = provider
	case ProviderNone:
		cfg.Provider = inferProvider(cfg)
	default:
		return AIConfig{}, fmt.Errorf("invalid LLM_PROVIDER value: %q", provider)
	}

	return cfg, nil
}

// inferProvider 在未显式指定时按凭证推断，优先 Gemini 以保持与线上一致。
func inferProvider(cfg AIConfig) Provider {
	switch {
	case cfg.GeminiAPIKey != "":
		return ProviderGemini
	case cfg.OpenAIAPIKey != "":
		return ProviderOpenAI
	case cfg.ArkAPIKey != "" || (cfg.ArkAccessKey != "" && cfg.ArkSecretKey != ""):
		return ProviderArk
	default:
		return ProviderNone
	}
}

// StoreDriver selects the persistence backend.
type StoreDriver string

const (
	DriverMemory   StoreDriver = "memory"
	DriverSQLite   StoreDriver = "sqlite"
	DriverSupabase StoreDriver = "supabase"
)

// StoreConfig 描述存储相关配置。
type StoreConfig struct {
	Driver         StoreDriver
	SQLitePath     string
	ContextTimeout time.Duration
}

func loadStoreConfig(auth AuthConfig) (StoreConfig, error) {
	timeout, err := parseSecondsEnv("CONTEXT_TIMEOUT", 5)
	if err != nil {
		return StoreConfig{}, err
	}

	cfg := StoreConfig{
		SQLitePath:     getEnvOrDefault("SQLITE_PATH", "anchor.db"),
		ContextTimeout: timeout,
	}

	driver := StoreDriver(strings.ToLower(strings.TrimSpace(os.Getenv("STORE_DRIVER"))))
	switch driver {
	case DriverMemory, DriverSQLite:
		cfg.Driver = driver
	case DriverSupabase:
		if !auth.SupabaseEnabled() {
			return StoreConfig{}, fmt.Errorf("STORE_DRIVER=supabase requires SUPABASE_URL and SUPABASE_SERVICE_ROLE_KEY")
		}
		cfg.Driver = driver
	case "":
		cfg.Driver = DriverMemory
		if auth.SupabaseEnabled() {
			cfg.Driver = DriverSupabase
		}
	default:
		return StoreConfig{}, fmt.Errorf("invalid STORE_DRIVER value: %q", driver)
	}
	return cfg, nil
}

// AuthConfig 描述 Supabase 与本地 JWT 配置。
type AuthConfig struct {
	SupabaseURL        string
	SupabaseServiceKey string
	SupabaseAnonKey    string
	SupabaseJWTSecret  string
	JWTSecret          string
	JWTIssuer          string
}

// SupabaseEnabled reports whether the service role credentials are present.
func (c AuthConfig) SupabaseEnabled() bool {
	return c.SupabaseURL != "" && c.SupabaseServiceKey != ""
}

// TokenSecret 返回用于校验 HS256 令牌的密钥，优先使用 Supabase 项目密钥。
func (c AuthConfig) TokenSecret() string {
	if c.SupabaseJWTSecret != "" {
		return c.SupabaseJWTSecret
	}
	return c.JWTSecret
}

func loadAuthConfig() AuthConfig {
	return AuthConfig{
		SupabaseURL:        strings.TrimRight(strings.TrimSpace(os.Getenv("SUPABASE_URL")), "/"),
		SupabaseServiceKey: strings.TrimSpace(os.Getenv("SUPABASE_SERVICE_ROLE_KEY")),
		SupabaseAnonKey:    strings.TrimSpace(os.Getenv("SUPABASE_ANON_KEY")),
		SupabaseJWTSecret:  strings.TrimSpace(os.Getenv("SUPABASE_JWT_SECRET")),
		JWTSecret:          strings.TrimSpace(os.Getenv("ANCHOR_JWT_SECRET")),
		JWTIssuer:          strings.TrimSpace(os.Getenv("ANCHOR_JWT_ISSUER")),
	}
}

// LogConfig 描述日志输出。
type LogConfig struct {
	Level  string
	Format string
}

func loadLogConfig() (LogConfig, error) {
	format := strings.ToLower(getEnvOrDefault("LOG_FORMAT", "json"))
	if format != "json" && format != "console" {
		return LogConfig{}, fmt.Errorf("invalid LOG_FORMAT value: %q", format)
	}
	return LogConfig{
		Level:  strings.ToLower(getEnvOrDefault("LOG_LEVEL", "info")),
		Format: format,
	}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func parseSecondsEnv(key string, defaultSeconds int) (time.Duration, error) {
	val, err := parseOptionalIntEnv(key)
	if err != nil {
		return 0, err
	}
	if val == nil {
		return time.Duration(defaultSeconds) * time.Second, nil
	}
	if *val < 1 {
		return 0, fmt.Errorf("invalid %s value %d: must be at least 1 second", key, *val)
	}
	return time.Duration(*val) * time.Second, nil
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
