package config

// EnvPrefix namespaces every environment variable the service reads.
const EnvPrefix = "GRANDMARCHE"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "GRANDMARCHE_DB_DSN"
	EnvDBHost = "GRANDMARCHE_DB_HOST"
	EnvDBUser = "GRANDMARCHE_DB_USER"
	EnvDBName = "GRANDMARCHE_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
