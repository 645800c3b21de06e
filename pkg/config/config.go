// Package config loads all runtime settings from CAMPUSMART_* environment
// variables via envconfig. Load is the only entry point.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "campusmart"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"

	EnvDBDSN  = "CAMPUSMART_DB_DSN"
	EnvDBHost = "CAMPUSMART_DB_HOST"
	EnvDBUser = "CAMPUSMART_DB_USER"
	EnvDBName = "CAMPUSMART_DB_NAME"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}

type Config struct {
	App           AppConfig
	DB            DBConfig
	Redis         RedisConfig
	JWT           JWTConfig
	Password      PasswordConfig
	AuthRateLimit AuthRateLimitConfig
	FeatureFlags  FeatureFlagsConfig
	GCP           GCPConfig
	GCS           GCSConfig
	Photos        PhotosConfig
	PubSub        PubSubConfig
	Square        SquareConfig
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
	Env          string `envconfig:"CAMPUSMART_APP_ENV" required:"true"`
	Port         string `envconfig:"CAMPUSMART_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"CAMPUSMART_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"CAMPUSMART_LOG_WARN_STACK" default:"false"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type DBConfig struct {
	DSN    string `envconfig:"CAMPUSMART_DB_DSN"`
	Driver string `envconfig:"CAMPUSMART_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"CAMPUSMART_DB_HOST"`
	LegacyPort     int    `envconfig:"CAMPUSMART_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"CAMPUSMART_DB_USER"`
	LegacyPassword string `envconfig:"CAMPUSMART_DB_PASSWORD"`
	LegacyName     string `envconfig:"CAMPUSMART_DB_NAME"`
	LegacySSLMode  string `envconfig:"CAMPUSMART_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"CAMPUSMART_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"CAMPUSMART_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"CAMPUSMART_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"CAMPUSMART_DB_CONN_MAX_IDLE_TIME" default:"10m"`
}

type RedisConfig struct {
	URL          string        `envconfig:"CAMPUSMART_REDIS_URL" required:"true"`
	Address      string        `envconfig:"CAMPUSMART_REDIS_ADDR"`
	Password     string        `envconfig:"CAMPUSMART_REDIS_PASSWORD"`
	DB           int           `envconfig:"CAMPUSMART_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"CAMPUSMART_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"CAMPUSMART_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"CAMPUSMART_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"CAMPUSMART_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"CAMPUSMART_REDIS_WRITE_TIMEOUT" default:"5s"`
}

type JWTConfig struct {
	Secret                 string `envconfig:"CAMPUSMART_JWT_SECRET" required:"true"`
	Issuer                 string `envconfig:"CAMPUSMART_JWT_ISSUER" required:"true"`
	ExpirationMinutes      int    `envconfig:"CAMPUSMART_JWT_EXPIRATION_MINUTES" required:"true"`
	RefreshTokenTTLMinutes int    `envconfig:"CAMPUSMART_JWT_REFRESH_TTL_MINUTES" default:"10080"`
}

// RefreshTokenTTL returns how long a refresh session stays valid in Redis.
func (j JWTConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(j.RefreshTokenTTLMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"CAMPUSMART_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"CAMPUSMART_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"CAMPUSMART_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"CAMPUSMART_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"CAMPUSMART_ARGON_KEY_LEN" default:"32"`
}

type AuthRateLimitConfig struct {
	LoginWindow        time.Duration `envconfig:"CAMPUSMART_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit    int           `envconfig:"CAMPUSMART_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit       int           `envconfig:"CAMPUSMART_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	RegisterWindow     time.Duration `envconfig:"CAMPUSMART_AUTH_RATE_LIMIT_REGISTER_WINDOW" default:"5m"`
	RegisterEmailLimit int           `envconfig:"CAMPUSMART_AUTH_RATE_LIMIT_REGISTER_EMAIL_LIMIT" default:"3"`
	RegisterIPLimit    int           `envconfig:"CAMPUSMART_AUTH_RATE_LIMIT_REGISTER_IP_LIMIT" default:"20"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"CAMPUSMART_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"CAMPUSMART_AUTO_MIGRATE" default:"false"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"CAMPUSMART_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"CAMPUSMART_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"CAMPUSMART_GOOGLE_APPLICATION_CREDENTIALS"`
}

type GCSConfig struct {
	BucketName string `envconfig:"CAMPUSMART_GCS_BUCKET_NAME" required:"true"`
}

// PhotosConfig bounds the photo upload pipeline.
type PhotosConfig struct {
	MaxPhotosPerItem    int `envconfig:"CAMPUSMART_PHOTOS_MAX_PER_ITEM" default:"5"`
	ItemMaxWidth        int `envconfig:"CAMPUSMART_PHOTOS_ITEM_MAX_WIDTH" default:"800"`
	ItemQuality         int `envconfig:"CAMPUSMART_PHOTOS_ITEM_QUALITY" default:"80"`
	ProfileMaxWidth     int `envconfig:"CAMPUSMART_PHOTOS_PROFILE_MAX_WIDTH" default:"300"`
	ProfileQuality      int `envconfig:"CAMPUSMART_PHOTOS_PROFILE_QUALITY" default:"90"`
	UploadRetryAttempts int `envconfig:"CAMPUSMART_PHOTOS_UPLOAD_RETRY_ATTEMPTS" default:"3"`
}

type PubSubConfig struct {
	PhotoDeletionTopic        string `envconfig:"CAMPUSMART_PUBSUB_PHOTO_DELETION_TOPIC" default:"cm-photo-deleted"`
	PhotoDeletionSubscription string `envconfig:"CAMPUSMART_PUBSUB_PHOTO_DELETION_SUBSCRIPTION"`
}

type SquareConfig struct {
	AccessToken   string `envconfig:"CAMPUSMART_SQUARE_ACCESS_TOKEN"`
	Env           string `envconfig:"CAMPUSMART_SQUARE_ENV" default:"sandbox"`
	LocationID    string `envconfig:"CAMPUSMART_SQUARE_LOCATION_ID"`
	WebhookSecret string `envconfig:"CAMPUSMART_SQUARE_WEBHOOK_SECRET"`
}

// Environment returns the normalized Square environment (sandbox/production).
func (s SquareConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "sandbox"
	}
	return env
}

// ensureDSN backfills DSN from the per-field DB variables so deployments
// that predate CAMPUSMART_DB_DSN keep working.
func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if missing := db.missingLegacyVars(); len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}
	db.DSN = db.legacyDSN()
	return nil
}

func (db *DBConfig) missingLegacyVars() []string {
	byVar := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	var missing []string
	for _, name := range legacyDBEnvVars {
		if byVar[name] == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

func (db *DBConfig) legacyDSN() string {
	dsn := url.URL{
		Scheme: "postgres",
		User:   url.User(db.LegacyUser),
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}
	if db.LegacyPassword != "" {
		dsn.User = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}
	if db.LegacySSLMode != "" {
		query := url.Values{}
		query.Set("sslmode", db.LegacySSLMode)
		dsn.RawQuery = query.Encode()
	}
	return dsn.String()
}
