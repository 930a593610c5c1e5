package config

const (
	// DefaultConfigPath is used when --config is not provided.
	DefaultConfigPath = "config.yml"
	defaultPort       = 3000
	defaultEnv        = "development"

	defaultDBDriver   = "mysql"
	defaultDBHost     = "127.0.0.1"
	defaultDBPort     = 3306
	defaultPGPort     = 5432
	defaultDBUser     = "root"
	defaultDBPassword = "password"
	defaultDBName     = "tenx_cards"
	defaultDBCharset  = "utf8mb4"
	defaultDBLoc      = "Local"
	defaultSQLitePath = "tenx-cards.db"

	defaultRedisHost = "localhost"
	defaultRedisPort = 6379
	defaultRedisDB   = 0

	defaultAIProvider       = ProviderOpenRouter
	defaultAIModel          = "openai/gpt-4o"
	defaultAITimeoutSeconds = 30
	defaultAISiteURL        = "https://10x-cards.app"
	defaultAISiteName       = "10x Cards"

	defaultGeneratePerMinute = 10

	defaultErrorLogRetentionDays = 30
)

// Provider types accepted in ai.provider.
const (
	ProviderOpenRouter = "openrouter"
	ProviderOpenAI     = "openai"
	ProviderAnthropic  = "anthropic"
	ProviderGemini     = "gemini"
	ProviderMock       = "mock"
)

// Environment variables that override the YAML file.
const (
	EnvOpenRouterAPIKey = "OPENROUTER_API_KEY"
	EnvAIAPIKey         = "AI_API_KEY"
	EnvAIMock           = "AI_MOCK"
	EnvDatabaseDSN      = "DATABASE_DSN"
	EnvRedisURL         = "REDIS_URL"
	EnvPort             = "PORT"
	EnvAppEnv           = "APP_ENV"
)
