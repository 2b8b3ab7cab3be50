package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	HttpPort       = "HTTP_PORT"
	PrometheusPort = "PROMETHEUS_PORT"
	LogLevel       = "LOG_LEVEL"
	CorsOrigins    = "CORS_ALLOW_ORIGINS"
	ProxyHeader    = "PROXY_HEADER"
	TrustedProxies = "TRUSTED_PROXIES"

	DBDriver   = "DB_DRIVER"
	DBURL      = "DATABASE_URL"
	DBHost     = "DB_HOST"
	DBPort     = "DB_PORT"
	DBUser     = "DB_USER"
	DBPassword = "DB_PASSWORD"
	DBName     = "DB_NAME"
	DBSSLMode  = "DB_SSLMODE"
	DBTimezone = "DB_TIMEZONE"
	DBDatabase = "DB_DATABASE"

	RedisAddr     = "REDIS_ADDR"
	RedisPassword = "REDIS_PASSWORD"
	RedisDB       = "REDIS_DB"

	RateLimitStore       = "RATE_LIMIT_STORE"
	RateLimitSweepPeriod = "RATE_LIMIT_SWEEP_INTERVAL"

	JWTSecret          = "JWT_SECRET"
	AdminSessionTTL    = "ADMIN_SESSION_TTL"
	AdminUsername      = "ADMIN_USERNAME"
	AdminPasswordHash  = "ADMIN_PASSWORD_HASH"
	AdminCookieSecure  = "ADMIN_COOKIE_SECURE"
	ModerationCutoff   = "MODERATION_THRESHOLD"
	ScorerProvider     = "SCORER_PROVIDER"
	ScorerModel        = "SCORER_MODEL"
	ScorerAPIKey       = "SCORER_API_KEY"
	ScorerTimeout      = "SCORER_TIMEOUT"
	ScorerMaxTokens    = "SCORER_MAX_TOKENS"
	ScorerBreakerTrips = "SCORER_BREAKER_FAILURES"
	ScorerBreakerReset = "SCORER_BREAKER_TIMEOUT"
)

var defaults = map[string]interface{}{
	HttpPort:       8000,
	PrometheusPort: 2112,
	LogLevel:       "info",
	CorsOrigins:    "*",
	ProxyHeader:    "",
	TrustedProxies: "",

	DBDriver:   "postgres",
	DBHost:     "localhost",
	DBPort:     "5432",
	DBUser:     "postgres",
	DBPassword: "postgres",
	DBName:     "nvu_api",
	DBSSLMode:  "disable",
	DBTimezone: "UTC",
	DBDatabase: "nvu_api.db",

	RedisAddr: "localhost:6379",
	RedisDB:   0,

	RateLimitStore:       "memory",
	RateLimitSweepPeriod: time.Minute,

	AdminSessionTTL:   12 * time.Hour,
	AdminUsername:     "admin",
	AdminCookieSecure: true,

	ModerationCutoff:   0.3,
	ScorerProvider:     "gemini",
	ScorerTimeout:      8 * time.Second,
	ScorerMaxTokens:    256,
	ScorerBreakerTrips: 5,
	ScorerBreakerReset: 30 * time.Second,
}

// Init registers defaults and binds every key to the environment.
// godotenv must already have loaded .env for its values to be visible.
func Init() {
	for key, value := range defaults {
		viper.SetDefault(key, value)
	}
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configureLogging(viper.GetString(LogLevel))
}

func configureLogging(level string) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})

	zlvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || zlvl == zerolog.NoLevel {
		zlvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(zlvl)
}

// RateLimitKey returns the override key for one field of an action class policy,
// e.g. RATE_LIMIT_COMMENT_MAX.
func RateLimitKey(actionClass, field string) string {
	return "RATE_LIMIT_" + strings.ToUpper(actionClass) + "_" + strings.ToUpper(field)
}

// Database returns the database driver and its DSN. DATABASE_URL wins over the
// individual DB_* keys for postgres, sqlite reads the file path from DB_DATABASE.
func Database() (driver, dsn string, err error) {
	driver = strings.ToLower(viper.GetString(DBDriver))

	switch driver {
	case "sqlite":
		return driver, viper.GetString(DBDatabase), nil
	case "postgres", "":
		if url := viper.GetString(DBURL); url != "" {
			return "postgres", url, nil
		}
		return "postgres", fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s",
			viper.GetString(DBHost),
			viper.GetString(DBUser),
			viper.GetString(DBPassword),
			viper.GetString(DBName),
			viper.GetString(DBPort),
			viper.GetString(DBSSLMode),
			viper.GetString(DBTimezone)), nil
	default:
		return "", "", fmt.Errorf("unsupported %s %q", DBDriver, driver)
	}
}

// TrustedProxyList splits TRUSTED_PROXIES on commas.
func TrustedProxyList() []string {
	var out []string
	for _, part := range strings.Split(viper.GetString(TrustedProxies), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
