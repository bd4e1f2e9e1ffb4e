package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix namespaces every environment variable consumed by the portal.
const EnvPrefix = "SCFPORTAL"

const (
	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "SCFPORTAL_DB_DSN"
	EnvDBHost = "SCFPORTAL_DB_HOST"
	EnvDBUser = "SCFPORTAL_DB_USER"
	EnvDBName = "SCFPORTAL_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	Service       ServiceConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	Portal        PortalConfig
	Mail          MailConfig
	Worker        WorkerConfig
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
	Env          string `envconfig:"SCFPORTAL_APP_ENV" required:"true"`
	Port         string `envconfig:"SCFPORTAL_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"SCFPORTAL_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"SCFPORTAL_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"SCFPORTAL_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"SCFPORTAL_DB_DSN"`
	Driver string `envconfig:"SCFPORTAL_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"SCFPORTAL_DB_HOST"`
	LegacyPort     int    `envconfig:"SCFPORTAL_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"SCFPORTAL_DB_USER"`
	LegacyPassword string `envconfig:"SCFPORTAL_DB_PASSWORD"`
	LegacyName     string `envconfig:"SCFPORTAL_DB_NAME"`
	LegacySSLMode  string `envconfig:"SCFPORTAL_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"SCFPORTAL_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"SCFPORTAL_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"SCFPORTAL_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"SCFPORTAL_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"SCFPORTAL_REDIS_URL" required:"true"`
	Address      string        `envconfig:"SCFPORTAL_REDIS_ADDR"`
	Password     string        `envconfig:"SCFPORTAL_REDIS_PASSWORD"`
	DB           int           `envconfig:"SCFPORTAL_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"SCFPORTAL_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"SCFPORTAL_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"SCFPORTAL_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"SCFPORTAL_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"SCFPORTAL_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"SCFPORTAL_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"SCFPORTAL_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"SCFPORTAL_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"SCFPORTAL_REFRESH_TOKEN_TTL_MINUTES" default:"43200"`
}

// RefreshTokenTTL returns the refresh token TTL configured in minutes.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	if j.RefreshTokenTTLMinutes <= 0 {
		return 0
	}
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"SCFPORTAL_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"SCFPORTAL_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"SCFPORTAL_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"SCFPORTAL_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"SCFPORTAL_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"SCFPORTAL_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"SCFPORTAL_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"SCFPORTAL_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"SCFPORTAL_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"SCFPORTAL_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"SCFPORTAL_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"SCFPORTAL_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"SCFPORTAL_AUTO_MIGRATE" default:"false"`
}

// PortalConfig groups onboarding-specific knobs.
type PortalConfig struct {
	DashboardBaseURL     string `envconfig:"SCFPORTAL_DASHBOARD_BASE_URL" default:"http://localhost:3000"`
	AdminBaseURL         string `envconfig:"SCFPORTAL_ADMIN_BASE_URL" default:"http://localhost:3000/admin"`
	AgreementExpiryDays  int    `envconfig:"SCFPORTAL_AGREEMENT_EXPIRY_DAYS" default:"365"`
	InvitationExpiryDays int    `envconfig:"SCFPORTAL_INVITATION_EXPIRY_DAYS" default:"30"`
	AllowedOrigins       string `envconfig:"SCFPORTAL_ALLOWED_ORIGINS"`
}

// AgreementExpiry returns the agreement validity window.
func (p PortalConfig) AgreementExpiry() time.Duration {
	days := p.AgreementExpiryDays
	if days <= 0 {
		days = 365
	}
	return time.Duration(days) * 24 * time.Hour
}

// InvitationExpiry returns how long a supplier invitation stays open.
func (p PortalConfig) InvitationExpiry() time.Duration {
	days := p.InvitationExpiryDays
	if days <= 0 {
		days = 30
	}
	return time.Duration(days) * 24 * time.Hour
}

type MailConfig struct {
	DefaultFrom string `envconfig:"SCFPORTAL_MAIL_FROM" default:"no-reply@scf-portal.example"`
}

type WorkerConfig struct {
	Interval       time.Duration `envconfig:"SCFPORTAL_WORKER_INTERVAL" default:"15m"`
	ReconcileBatch int           `envconfig:"SCFPORTAL_WORKER_RECONCILE_BATCH" default:"100"`
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
