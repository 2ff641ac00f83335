package config

// EnvPrefix namespaces every environment variable read by Load.
const EnvPrefix = "HELIX"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

// Environment variable names referenced outside envconfig tags (tests, docs).
const (
	EnvAppEnv   = "HELIX_APP_ENV"
	EnvPort     = "HELIX_APP_PORT"
	EnvDBDSN    = "HELIX_DB_DSN"
	EnvRedisURL = "HELIX_REDIS_URL"
)
