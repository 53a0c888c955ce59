package config

// EnvPrefix is the envconfig prefix shared by every setting.
const EnvPrefix = "MYSHOP"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvDBDSN  = "MYSHOP_DB_DSN"
	EnvDBHost = "MYSHOP_DB_HOST"
	EnvDBUser = "MYSHOP_DB_USER"
	EnvDBName = "MYSHOP_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
