package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// AppConfig holds runtime startup configuration loaded from YAML and the environment.
type AppConfig struct {
	Port           int                   `yaml:"port"`
	Env            string                `yaml:"env"` // "development" | "production"
	AllowedOrigins []string              `yaml:"allowed_origins"`
	DSN            string                `yaml:"-"`
	RedisURL       string                `yaml:"-"`
	Database       DatabaseRuntimeConfig `yaml:"database"`
	Redis          RedisRuntimeConfig    `yaml:"redis"`
	AI             AIConfig              `yaml:"ai"`
	RateLimit      RateLimitConfig       `yaml:"rate_limit"`
	ErrorLog       ErrorLogConfig        `yaml:"error_log"`
}

type DatabaseRuntimeConfig struct {
	Driver    string            `yaml:"driver"` // mysql | postgres | sqlite
	DSN       string            `yaml:"dsn"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	Charset   string            `yaml:"charset"`
	ParseTime bool              `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	SSLMode   string            `yaml:"ssl_mode"`
	Path      string            `yaml:"path"` // sqlite file
	Params    map[string]string `yaml:"params"`
}

type RedisRuntimeConfig struct {
	Enable   bool   `yaml:"enable"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TLS      bool   `yaml:"tls"`
}

type RateLimitConfig struct {
	GeneratePerMinute int `yaml:"generate_per_minute"`
}

// ErrorLogConfig controls pruning of stored generation failures. Zero keeps
// rows forever.
type ErrorLogConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

type rawAppConfig struct {
	Port           int                `yaml:"port"`
	Env            string             `yaml:"env"`
	AllowedOrigins []string           `yaml:"allowed_origins"`
	Database       rawDatabaseConfig  `yaml:"database"`
	Redis          rawRedisConfig     `yaml:"redis"`
	AI             rawAIConfig        `yaml:"ai"`
	RateLimit      rawRateLimitConfig `yaml:"rate_limit"`
	ErrorLog       rawErrorLogConfig  `yaml:"error_log"`
}

type rawDatabaseConfig struct {
	Driver    string            `yaml:"driver"`
	DSN       string            `yaml:"dsn"`
	URL       string            `yaml:"url"`
	Host      string            `yaml:"host"`
	Port      int               `yaml:"port"`
	User      string            `yaml:"user"`
	Username  string            `yaml:"username"`
	Password  string            `yaml:"password"`
	Name      string            `yaml:"name"`
	DBName    string            `yaml:"db_name"`
	Charset   string            `yaml:"charset"`
	ParseTime *bool             `yaml:"parse_time"`
	Loc       string            `yaml:"loc"`
	SSLMode   string            `yaml:"ssl_mode"`
	Path      string            `yaml:"path"`
	Params    map[string]string `yaml:"params"`
}

type rawRedisConfig struct {
	Enable   *bool  `yaml:"enable"`
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	DB       *int   `yaml:"db"`
	TLS      *bool  `yaml:"tls"`
}

type rawAIConfig struct {
	Provider       string `yaml:"provider"`
	APIKey         string `yaml:"api_key"`
	Endpoint       string `yaml:"endpoint"`
	DefaultModel   string `yaml:"default_model"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Mock           *bool  `yaml:"mock"`
	MockDelayMs    int    `yaml:"mock_delay_ms"`
	SiteURL        string `yaml:"site_url"`
	SiteName       string `yaml:"site_name"`
}

type rawRateLimitConfig struct {
	GeneratePerMinute *int `yaml:"generate_per_minute"`
}

type rawErrorLogConfig struct {
	RetentionDays *int `yaml:"retention_days"`
}

// Load reads the YAML file at configPath, applies defaults and environment
// overrides. A missing file is not an error: defaults plus environment are used.
func Load(configPath string) (*AppConfig, error) {
	path := strings.TrimSpace(configPath)
	if path == "" {
		path = DefaultConfigPath
	}

	cfg := defaultAppConfig()
	content, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := decodeInto(&cfg, content, path); err != nil {
			return nil, err
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config file %q: %w", path, err)
	}

	applyEnv(&cfg, os.LookupEnv)
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.AI = normalizeAIConfig(cfg.AI)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("%w in %q", err, path)
	}
	return &cfg, nil
}

// Parse decodes YAML content without touching the environment.
func Parse(content []byte) (*AppConfig, error) {
	cfg := defaultAppConfig()
	if err := decodeInto(&cfg, content, "<inline>"); err != nil {
		return nil, err
	}
	cfg.Database = normalizeDatabaseConfig(cfg.Database)
	cfg.Redis = normalizeRedisConfig(cfg.Redis)
	cfg.AI = normalizeAIConfig(cfg.AI)
	cfg.DSN = cfg.Database.DSNValue()
	cfg.RedisURL = cfg.Redis.URLValue()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func decodeInto(cfg *AppConfig, content []byte, path string) error {
	if len(bytes.TrimSpace(content)) == 0 {
		return nil
	}
	decoder := yaml.NewDecoder(bytes.NewReader(content))
	decoder.KnownFields(true)
	raw := rawAppConfig{}
	if err := decoder.Decode(&raw); err != nil {
		return fmt.Errorf("parse config file %q: %w", path, err)
	}
	applyRawAppConfig(cfg, raw)
	return nil
}

func (c *AppConfig) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d, expected 1-65535", c.Port)
	}
	switch c.Database.Driver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid database.driver %q, expected mysql, postgres or sqlite", c.Database.Driver)
	}
	if c.Database.Driver != "sqlite" && (c.Database.Port < 1 || c.Database.Port > 65535) {
		return fmt.Errorf("invalid database.port %d, expected 1-65535", c.Database.Port)
	}
	if c.Redis.Port < 1 || c.Redis.Port > 65535 {
		return fmt.Errorf("invalid redis.port %d, expected 1-65535", c.Redis.Port)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("invalid redis.db %d, expected >= 0", c.Redis.DB)
	}
	switch c.AI.Provider {
	case ProviderOpenRouter, ProviderOpenAI, ProviderAnthropic, ProviderGemini, ProviderMock:
	default:
		return fmt.Errorf("invalid ai.provider %q", c.AI.Provider)
	}
	if c.AI.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid ai.timeout_seconds %d, expected >= 1", c.AI.TimeoutSeconds)
	}
	if c.RateLimit.GeneratePerMinute < 0 {
		return fmt.Errorf("invalid rate_limit.generate_per_minute %d, expected >= 0", c.RateLimit.GeneratePerMinute)
	}
	if c.ErrorLog.RetentionDays < 0 {
		return fmt.Errorf("invalid error_log.retention_days %d, expected >= 0", c.ErrorLog.RetentionDays)
	}
	return nil
}

func defaultAppConfig() AppConfig {
	return AppConfig{
		Port: defaultPort,
		Env:  defaultEnv,
		Database: DatabaseRuntimeConfig{
			Driver:    defaultDBDriver,
			Host:      defaultDBHost,
			Port:      defaultDBPort,
			User:      defaultDBUser,
			Password:  defaultDBPassword,
			Name:      defaultDBName,
			Charset:   defaultDBCharset,
			ParseTime: true,
			Loc:       defaultDBLoc,
		},
		Redis: RedisRuntimeConfig{
			Host: defaultRedisHost,
			Port: defaultRedisPort,
			DB:   defaultRedisDB,
		},
		AI: AIConfig{
			Provider:       defaultAIProvider,
			DefaultModel:   defaultAIModel,
			TimeoutSeconds: defaultAITimeoutSeconds,
			SiteURL:        defaultAISiteURL,
			SiteName:       defaultAISiteName,
		},
		RateLimit: RateLimitConfig{GeneratePerMinute: defaultGeneratePerMinute},
		ErrorLog:  ErrorLogConfig{RetentionDays: defaultErrorLogRetentionDays},
	}
}

func applyRawAppConfig(cfg *AppConfig, raw rawAppConfig) {
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Env); v != "" {
		cfg.Env = normalizeEnv(v)
	}
	if len(raw.AllowedOrigins) > 0 {
		cfg.AllowedOrigins = normalizeOrigins(raw.AllowedOrigins)
	}
	cfg.Database = applyRawDatabaseConfig(cfg.Database, raw.Database)
	cfg.Redis = applyRawRedisConfig(cfg.Redis, raw.Redis)
	cfg.AI = applyRawAIConfig(cfg.AI, raw.AI)
	if raw.RateLimit.GeneratePerMinute != nil {
		cfg.RateLimit.GeneratePerMinute = *raw.RateLimit.GeneratePerMinute
	}
	if raw.ErrorLog.RetentionDays != nil {
		cfg.ErrorLog.RetentionDays = *raw.ErrorLog.RetentionDays
	}
}

func applyRawDatabaseConfig(cfg DatabaseRuntimeConfig, raw rawDatabaseConfig) DatabaseRuntimeConfig {
	if v := strings.ToLower(strings.TrimSpace(raw.Driver)); v != "" {
		cfg.Driver = v
		if v == "postgres" && raw.Port == 0 {
			cfg.Port = defaultPGPort
		}
	}
	if v := strings.TrimSpace(raw.DSN); v != "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.URL); v != "" && cfg.DSN == "" {
		cfg.DSN = v
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		cfg.Host = v
	}
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.User); v != "" {
		cfg.User = v
	} else if v := strings.TrimSpace(raw.Username); v != "" {
		cfg.User = v
	}
	if raw.Password != "" {
		cfg.Password = raw.Password
	}
	if v := strings.TrimSpace(raw.Name); v != "" {
		cfg.Name = v
	} else if v := strings.TrimSpace(raw.DBName); v != "" {
		cfg.Name = v
	}
	if v := strings.TrimSpace(raw.Charset); v != "" {
		cfg.Charset = v
	}
	if raw.ParseTime != nil {
		cfg.ParseTime = *raw.ParseTime
	}
	if v := strings.TrimSpace(raw.Loc); v != "" {
		cfg.Loc = v
	}
	if v := strings.TrimSpace(raw.SSLMode); v != "" {
		cfg.SSLMode = v
	}
	if v := strings.TrimSpace(raw.Path); v != "" {
		cfg.Path = v
	}
	if len(raw.Params) > 0 {
		cfg.Params = copyStringMap(raw.Params)
	}
	return cfg
}

func applyRawRedisConfig(cfg RedisRuntimeConfig, raw rawRedisConfig) RedisRuntimeConfig {
	if raw.Enable != nil {
		cfg.Enable = *raw.Enable
	}
	if v := strings.TrimSpace(raw.URL); v != "" {
		cfg.URL = v
		if raw.Enable == nil {
			cfg.Enable = true
		}
	}
	if v := strings.TrimSpace(raw.Host); v != "" {
		cfg.Host = v
	}
	if raw.Port != 0 {
		cfg.Port = raw.Port
	}
	if v := strings.TrimSpace(raw.Username); v != "" {
		cfg.Username = v
	}
	if raw.Password != "" {
		cfg.Password = raw.Password
	}
	if raw.DB != nil {
		cfg.DB = *raw.DB
	}
	if raw.TLS != nil {
		cfg.TLS = *raw.TLS
	}
	return cfg
}

func applyRawAIConfig(cfg AIConfig, raw rawAIConfig) AIConfig {
	if v := strings.TrimSpace(raw.Provider); v != "" {
		cfg.Provider = v
	}
	if v := strings.TrimSpace(raw.APIKey); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(raw.Endpoint); v != "" {
		cfg.Endpoint = v
	}
	if v := strings.TrimSpace(raw.DefaultModel); v != "" {
		cfg.DefaultModel = v
	}
	if raw.TimeoutSeconds != 0 {
		cfg.TimeoutSeconds = raw.TimeoutSeconds
	}
	if raw.Mock != nil {
		cfg.Mock = *raw.Mock
	}
	if raw.MockDelayMs > 0 {
		cfg.MockDelayMs = raw.MockDelayMs
	}
	if v := strings.TrimSpace(raw.SiteURL); v != "" {
		cfg.SiteURL = v
	}
	if v := strings.TrimSpace(raw.SiteName); v != "" {
		cfg.SiteName = v
	}
	return cfg
}

// applyEnv overlays environment variables. lookup is os.LookupEnv outside tests.
func applyEnv(cfg *AppConfig, lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvPort); ok {
		if port, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			cfg.Port = port
		}
	}
	if v, ok := lookup(EnvAppEnv); ok && strings.TrimSpace(v) != "" {
		cfg.Env = normalizeEnv(v)
	}
	if v, ok := lookup(EnvDatabaseDSN); ok && strings.TrimSpace(v) != "" {
		cfg.Database.DSN = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvRedisURL); ok && strings.TrimSpace(v) != "" {
		cfg.Redis.URL = strings.TrimSpace(v)
		cfg.Redis.Enable = true
	}
	if v, ok := lookup(EnvAIAPIKey); ok && strings.TrimSpace(v) != "" {
		cfg.AI.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvOpenRouterAPIKey); ok && strings.TrimSpace(v) != "" &&
		normalizeProviderType(cfg.AI.Provider) == ProviderOpenRouter {
		cfg.AI.APIKey = strings.TrimSpace(v)
	}
	if v, ok := lookup(EnvAIMock); ok {
		if enabled, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			cfg.AI.Mock = enabled
		}
	}
}

func (c *AppConfig) IsDev() bool {
	return strings.EqualFold(c.Env, defaultEnv)
}

// Addr returns the listen address.
func (c *AppConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// ErrorLogRetention is how long error log rows are kept; zero disables pruning.
func (c *AppConfig) ErrorLogRetention() time.Duration {
	return time.Duration(c.ErrorLog.RetentionDays) * 24 * time.Hour
}

// GenerationTimeout is the hard deadline for one outbound model call.
func (c *AppConfig) GenerationTimeout() time.Duration {
	return time.Duration(c.AI.TimeoutSeconds) * time.Second
}
