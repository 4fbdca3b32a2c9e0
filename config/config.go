package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverMongo  = "mongo"
	DriverMySQL  = "mysql"
	DriverMemory = "memory"
)

// AppConfig holds environment driven configuration values.
// Secrets have no defaults and must come from the environment or a .env file.
type AppConfig struct {
	AppPort     string        `env:"APP_PORT" envDefault:"8080"`
	GinMode     string        `env:"GIN_MODE" envDefault:"release"`
	GinPath     string        `env:"GIN_LOG_PATH"`
	JWTSecret   string        `env:"JWT_SECRET"`
	JWTTTL      time.Duration `env:"JWT_TTL" envDefault:"168h"`
	AdminEmails []string      `env:"ADMIN_EMAILS" envSeparator:","`

	StoreDriver   string `env:"STORE_DRIVER" envDefault:"mongo"`
	MongoURI      string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase string `env:"MONGO_DATABASE" envDefault:"inkpress"`

	DatabaseURI string `env:"DATABASE_URI"`
	DBHost      string `env:"DB_HOST" envDefault:"127.0.0.1"`
	DBPort      string `env:"DB_PORT" envDefault:"3306"`
	DBUser      string `env:"DB_USER" envDefault:"root"`
	DBPassword  string `env:"DB_PASSWORD"`
	DBName      string `env:"DB_NAME" envDefault:"inkpress"`

	RedisHost     string `env:"REDIS_HOST"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPassword string `env:"REDIS_PASSWORD"`

	LogLevel      string `env:"LOG_LEVEL" envDefault:"info"`
	LogPath       string `env:"LOG_PATH"`
	LogMaxSizeMB  int    `env:"LOG_MAX_SIZE_MB" envDefault:"100"`
	LogMaxBackups int    `env:"LOG_MAX_BACKUPS" envDefault:"3"`
	LogMaxAgeDays int    `env:"LOG_MAX_AGE_DAYS" envDefault:"7"`
	LogCompress   bool   `env:"LOG_COMPRESS" envDefault:"false"`

	AllowedOrigins     []string `env:"ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:5173"`
	RateLimitPerMinute int      `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`

	// Registration and login abuse protection
	RegisterCaptchaEnabled     bool `env:"REGISTER_CAPTCHA_ENABLED" envDefault:"false"`
	RegisterMaxPerIPPerDay     int  `env:"REGISTER_MAX_PER_IP_PER_DAY" envDefault:"20"`
	RegisterAttemptCooldownSec int  `env:"REGISTER_ATTEMPT_COOLDOWN_SEC" envDefault:"3"`
	LoginFailedMaxPerIPPerHour int  `env:"LOGIN_FAILED_MAX_PER_IP_PER_HOUR" envDefault:"20"`
	LoginTempBanMinutes        int  `env:"LOGIN_TEMP_BAN_MINUTES" envDefault:"30"`

	// Object storage for blog images; uploads are disabled when MinioEndpoint is empty.
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"inkpress-images"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`
	MinioPublicURL string `env:"MINIO_PUBLIC_URL"`

	// Outbound notifications; a no-op publisher is used when empty.
	NATSURL string `env:"NATS_URL"`
}

// Load reads an optional .env file and then the process environment.
// Variables already present in the environment win over the file.
func Load(files ...string) (AppConfig, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		// missing files are fine; only the environment is required
		_ = godotenv.Load(f)
	}

	var cfg AppConfig
	if err := env.Parse(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate checks values that have no safe default.
func (c AppConfig) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	switch c.StoreDriver {
	case DriverMongo, DriverMySQL, DriverMemory:
	default:
		return fmt.Errorf("unknown STORE_DRIVER %q", c.StoreDriver)
	}
	if c.JWTTTL <= 0 {
		return errors.New("JWT_TTL must be positive")
	}
	return nil
}

// MySQLDSN returns DatabaseURI or a DSN assembled from the DB_* fields.
func (c AppConfig) MySQLDSN() string {
	if c.DatabaseURI != "" {
		return c.DatabaseURI
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName)
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS (case-insensitive).
func (c AppConfig) IsAdminEmail(email string) bool {
	for _, e := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(e), email) {
			return true
		}
	}
	return false
}
