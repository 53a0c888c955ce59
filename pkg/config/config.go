package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	Razorpay      RazorpayConfig
	SMTP          SMTPConfig
	Delivery      DeliveryConfig
	Cron          CronConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"MYSHOP_APP_ENV" required:"true"`
	Port         string `envconfig:"MYSHOP_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"MYSHOP_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"MYSHOP_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"MYSHOP_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"MYSHOP_DB_DSN"`
	Driver string `envconfig:"MYSHOP_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"MYSHOP_DB_HOST"`
	LegacyPort     int    `envconfig:"MYSHOP_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"MYSHOP_DB_USER"`
	LegacyPassword string `envconfig:"MYSHOP_DB_PASSWORD"`
	LegacyName     string `envconfig:"MYSHOP_DB_NAME"`
	LegacySSLMode  string `envconfig:"MYSHOP_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"MYSHOP_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"MYSHOP_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"MYSHOP_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"MYSHOP_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"MYSHOP_REDIS_URL" required:"true"`
	Address      string        `envconfig:"MYSHOP_REDIS_ADDR"`
	Password     string        `envconfig:"MYSHOP_REDIS_PASSWORD"`
	DB           int           `envconfig:"MYSHOP_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"MYSHOP_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"MYSHOP_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"MYSHOP_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"MYSHOP_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"MYSHOP_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret            string `envconfig:"MYSHOP_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"MYSHOP_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"MYSHOP_JWT_EXPIRATION_MINUTES" required:"true"`
}

type RazorpayConfig struct {
	KeyID         string        `envconfig:"MYSHOP_RAZORPAY_KEY_ID"`
	KeySecret     string        `envconfig:"MYSHOP_RAZORPAY_KEY_SECRET"`
	WebhookSecret string        `envconfig:"MYSHOP_RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string        `envconfig:"MYSHOP_RAZORPAY_BASE_URL" default:"https://api.razorpay.com/v1"`
	Timeout       time.Duration `envconfig:"MYSHOP_RAZORPAY_TIMEOUT" default:"10s"`
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"MYSHOP_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"MYSHOP_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"MYSHOP_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"MYSHOP_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"MYSHOP_ARGON_KEY_LEN" default:"32"`
}

type SMTPConfig struct {
	Host        string `envconfig:"MYSHOP_SMTP_HOST"`
	Port        int    `envconfig:"MYSHOP_SMTP_PORT" default:"587"`
	Username    string `envconfig:"MYSHOP_SMTP_USERNAME"`
	Password    string `envconfig:"MYSHOP_SMTP_PASSWORD"`
	DefaultFrom string `envconfig:"MYSHOP_SMTP_FROM_EMAIL"`
}

type DeliveryConfig struct {
	PincodeAPIBaseURL string        `envconfig:"MYSHOP_DELIVERY_PINCODE_API_BASE_URL" default:"https://api.postalpincode.in"`
	Timeout           time.Duration `envconfig:"MYSHOP_DELIVERY_PINCODE_TIMEOUT" default:"5s"`
}

type CronConfig struct {
	Interval         time.Duration `envconfig:"MYSHOP_CRON_INTERVAL" default:"1h"`
	StaleCartMaxAge  time.Duration `envconfig:"MYSHOP_CRON_STALE_CART_MAX_AGE" default:"720h"`
	StaleCartBatch   int           `envconfig:"MYSHOP_CRON_STALE_CART_BATCH" default:"500"`
	DealSweepEnabled bool          `envconfig:"MYSHOP_CRON_DEAL_SWEEP_ENABLED" default:"true"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"MYSHOP_AUTH_RL_LOGIN_WINDOW" default:"15m"`
	LoginIPLimit       int           `envconfig:"MYSHOP_AUTH_RL_LOGIN_IP_LIMIT" default:"20"`
	LoginEmailLimit    int           `envconfig:"MYSHOP_AUTH_RL_LOGIN_EMAIL_LIMIT" default:"5"`
	RegisterWindow     time.Duration `envconfig:"MYSHOP_AUTH_RL_REGISTER_WINDOW" default:"1h"`
	RegisterIPLimit    int           `envconfig:"MYSHOP_AUTH_RL_REGISTER_IP_LIMIT" default:"10"`
	RegisterEmailLimit int           `envconfig:"MYSHOP_AUTH_RL_REGISTER_EMAIL_LIMIT" default:"3"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"MYSHOP_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"MYSHOP_AUTO_MIGRATE" default:"false"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
