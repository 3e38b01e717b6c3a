// Package config provides configuration management and environment variable handling for the application
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/marketplace-settlement/utils"
	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

// ProductionConfig holds all configuration for production environment
type ProductionConfig struct {
	Database     DatabaseConfig     `json:"database"`
	Server       ServerConfig       `json:"server"`
	Security     SecurityConfig     `json:"security"`
	JWT          JWTConfig          `json:"jwt"`
	Logging      LoggingConfig      `json:"logging"`
	Metrics      MetricsConfig      `json:"metrics"`
	Cache        CacheConfig        `json:"cache"`
	Notification NotificationConfig `json:"notification"`
	Payment      PaymentConfig      `json:"payment"`
	Deployment   DeploymentConfig   `json:"deployment"`
}

type DatabaseConfig struct {
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Name            string        `json:"name"`
	User            string        `json:"user"`
	Password        string        `json:"password"`
	SSLMode         string        `json:"ssl_mode"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `json:"conn_max_idle_time"`
	SlowQueryLog    bool          `json:"slow_query_log"`
	SlowQueryTime   time.Duration `json:"slow_query_time"`
	AutoMigrate     bool          `json:"auto_migrate"`
}

// DSN returns the postgres connection string
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=UTC",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

type ServerConfig struct {
	Host              string        `json:"host"`
	Port              int           `json:"port"`
	ReadTimeout       time.Duration `json:"read_timeout"`
	WriteTimeout      time.Duration `json:"write_timeout"`
	IdleTimeout       time.Duration `json:"idle_timeout"`
	ShutdownTimeout   time.Duration `json:"shutdown_timeout"`
	BodyLimit         int           `json:"body_limit"`
	TrustedProxies    []string      `json:"trusted_proxies"`
	ProxyHeader       string        `json:"proxy_header"`
	EnableCompression bool          `json:"enable_compression"`
}

type SecurityConfig struct {
	// TLS/HTTPS
	TLSEnabled         bool   `json:"tls_enabled"`
	TLSCertFile        string `json:"tls_cert_file"`
	TLSKeyFile         string `json:"tls_key_file"`
	HSTSMaxAge         int    `json:"hsts_max_age"`
	HSTSIncludeSubDoms bool   `json:"hsts_include_subdomains"`
	HSTSPreload        bool   `json:"hsts_preload"`

	// CORS
	AllowedOrigins   []string `json:"allowed_origins"`
	AllowedMethods   []string `json:"allowed_methods"`
	AllowedHeaders   []string `json:"allowed_headers"`
	AllowCredentials bool     `json:"allow_credentials"`
	CORSMaxAge       int      `json:"cors_max_age"`

	// Rate Limiting
	AuthRateLimit   int           `json:"auth_rate_limit"`   // requests per minute
	GlobalRateLimit int           `json:"global_rate_limit"` // requests per minute
	RateLimitWindow time.Duration `json:"rate_limit_window"`

	// Content Security
	CSPPolicy      string `json:"csp_policy"`
	XFrameOptions  string `json:"x_frame_options"`
	ReferrerPolicy string `json:"referrer_policy"`

	// Password & Auth
	PasswordMinLength  int  `json:"password_min_length"`
	BcryptCost         int  `json:"bcrypt_cost"`
	AutoVerifyAccounts bool `json:"auto_verify_accounts"`
}

type JWTConfig struct {
	SecretKey       string        `json:"secret_key"`
	PrivateKey      string        `json:"private_key"`  // RSA private key in PEM format
	PublicKey       string        `json:"public_key"`   // RSA public key in PEM format
	UseRSAKeys      bool          `json:"use_rsa_keys"` // Whether to use RSA keys instead of secret key
	AccessTokenTTL  time.Duration `json:"access_token_ttl"`
	RefreshTokenTTL time.Duration `json:"refresh_token_ttl"`
	Issuer          string        `json:"issuer"`
	Audience        string        `json:"audience"`
}

type LoggingConfig struct {
	Level            string `json:"level"`  // debug, info, warn, error
	Format           string `json:"format"` // json, console
	Output           string `json:"output"` // stdout, file, both
	FilePath         string `json:"file_path"`
	MaxSize          int    `json:"max_size"` // MB
	MaxBackups       int    `json:"max_backups"`
	MaxAge           int    `json:"max_age"` // days
	Compress         bool   `json:"compress"`
	EnableCaller     bool   `json:"enable_caller"`
	EnableStacktrace bool   `json:"enable_stacktrace"`
	EnableAccessLog  bool   `json:"enable_access_log"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

type CacheConfig struct {
	Enabled     bool   `json:"enabled"`
	Provider    string `json:"provider"` // redis, memory
	RedisURL    string `json:"redis_url"`
	RedisDB     int    `json:"redis_db"`
	RedisPrefix string `json:"redis_prefix"`
}

type NotificationConfig struct {
	Provider      string `json:"provider"` // log, redis
	ChannelPrefix string `json:"channel_prefix"`
}

type PaymentConfig struct {
	Provider             string          `json:"provider"`
	SecretKey            string          `json:"-"`
	WebhookSecret        string          `json:"-"`
	FeePercent           decimal.Decimal `json:"fee_percent"`
	Currency             string          `json:"currency"`
	OnboardingRefreshURL string          `json:"onboarding_refresh_url"`
	OnboardingReturnURL  string          `json:"onboarding_return_url"`
	IntentCacheTTL       time.Duration   `json:"intent_cache_ttl"`
	ProcessorTimeout     time.Duration   `json:"processor_timeout"`
	WebhookTolerance     time.Duration   `json:"webhook_tolerance"`
}

type DeploymentConfig struct {
	Domain      string `json:"domain"`
	APIDomain   string `json:"api_domain"`
	Environment string `json:"environment"`
	Version     string `json:"version"`
	CommitHash  string `json:"commit_hash"`
	BuildTime   string `json:"build_time"`
}

// IsProduction reports whether APP_ENV is production
func (c DeploymentConfig) IsProduction() bool {
	return c.Environment == "production"
}

// LoadProductionConfig loads and validates configuration from environment variables
func LoadProductionConfig() (*ProductionConfig, error) {
	// Variables already present in the environment win over .env
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	cfg, err := loadFromEnv()
	if err != nil {
		return nil, err
	}

	if err := ValidateProductionConfig(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func loadFromEnv() (*ProductionConfig, error) {
	feePercent, err := decimal.NewFromString(getEnvString("PAYMENT_FEE_PERCENT", utils.DefaultFeePercent))
	if err != nil {
		return nil, fmt.Errorf("PAYMENT_FEE_PERCENT must be a decimal number: %w", err)
	}

	return &ProductionConfig{
		Database: DatabaseConfig{
			Host:            getEnvString("DB_HOST", "localhost"),
			Port:            getEnvInt("DB_PORT", 5432),
			Name:            getEnvString("DB_NAME", "marketplace"),
			User:            getEnvString("DB_USER", "postgres"),
			Password:        getEnvString("DB_PASSWORD", ""),
			SSLMode:         getEnvString("DB_SSL_MODE", "require"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: getEnvDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
			ConnMaxIdleTime: getEnvDuration("DB_CONN_MAX_IDLE_TIME", 15*time.Minute),
			SlowQueryLog:    getEnvBool("DB_SLOW_QUERY_LOG", true),
			SlowQueryTime:   getEnvDuration("DB_SLOW_QUERY_TIME", 1*time.Second),
			AutoMigrate:     getEnvBool("DB_AUTO_MIGRATE", false),
		},
		Server: ServerConfig{
			Host:              getEnvString("SERVER_HOST", "0.0.0.0"),
			Port:              getEnvInt("SERVER_PORT", 8080),
			ReadTimeout:       getEnvDuration("SERVER_READ_TIMEOUT", 30*time.Second),
			WriteTimeout:      getEnvDuration("SERVER_WRITE_TIMEOUT", 30*time.Second),
			IdleTimeout:       getEnvDuration("SERVER_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout:   getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			BodyLimit:         getEnvInt("SERVER_BODY_LIMIT", 1*1024*1024), // 1MB
			TrustedProxies:    getEnvStringSlice("SERVER_TRUSTED_PROXIES", []string{"127.0.0.1"}),
			ProxyHeader:       getEnvString("SERVER_PROXY_HEADER", "X-Real-IP"),
			EnableCompression: getEnvBool("SERVER_ENABLE_COMPRESSION", true),
		},
		Security: SecurityConfig{
			TLSEnabled:         getEnvBool("TLS_ENABLED", false),
			TLSCertFile:        getEnvString("TLS_CERT_FILE", ""),
			TLSKeyFile:         getEnvString("TLS_KEY_FILE", ""),
			HSTSMaxAge:         getEnvInt("HSTS_MAX_AGE", 31536000), // 1 year
			HSTSIncludeSubDoms: getEnvBool("HSTS_INCLUDE_SUBDOMAINS", true),
			HSTSPreload:        getEnvBool("HSTS_PRELOAD", true),
			AllowedOrigins:     getEnvStringSlice("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			AllowedMethods:     getEnvStringSlice("CORS_ALLOWED_METHODS", []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}),
			AllowedHeaders:     getEnvStringSlice("CORS_ALLOWED_HEADERS", []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"}),
			AllowCredentials:   getEnvBool("CORS_ALLOW_CREDENTIALS", true),
			CORSMaxAge:         getEnvInt("CORS_MAX_AGE", utils.CORSMaxAge),
			AuthRateLimit:      getEnvInt("AUTH_RATE_LIMIT", 20),
			GlobalRateLimit:    getEnvInt("GLOBAL_RATE_LIMIT", 2000),
			RateLimitWindow:    getEnvDuration("RATE_LIMIT_WINDOW", 1*time.Minute),
			CSPPolicy:          getEnvString("CSP_POLICY", "default-src 'self'"),
			XFrameOptions:      getEnvString("X_FRAME_OPTIONS", "DENY"),
			ReferrerPolicy:     getEnvString("REFERRER_POLICY", "strict-origin-when-cross-origin"),
			PasswordMinLength:  getEnvInt("PASSWORD_MIN_LENGTH", 8),
			BcryptCost:         getEnvInt("BCRYPT_COST", 12),
			AutoVerifyAccounts: getEnvBool("AUTO_VERIFY_ACCOUNTS", false),
		},
		JWT: JWTConfig{
			SecretKey:       getEnvString("JWT_SECRET_KEY", ""),
			PrivateKey:      getEnvString("JWT_PRIVATE_KEY", ""),
			PublicKey:       getEnvString("JWT_PUBLIC_KEY", ""),
			UseRSAKeys:      getEnvBool("JWT_USE_RSA_KEYS", false),
			AccessTokenTTL:  getEnvDuration("JWT_ACCESS_TOKEN_TTL", utils.AccessTokenTTL),
			RefreshTokenTTL: getEnvDuration("JWT_REFRESH_TOKEN_TTL", utils.RefreshTokenTTL),
			Issuer:          getEnvString("JWT_ISSUER", "marketplace-settlement"),
			Audience:        getEnvString("JWT_AUDIENCE", "marketplace-settlement-api"),
		},
		Logging: LoggingConfig{
			Level:            getEnvString("LOG_LEVEL", "info"),
			Format:           getEnvString("LOG_FORMAT", "json"),
			Output:           getEnvString("LOG_OUTPUT", "stdout"),
			FilePath:         getEnvString("LOG_FILE_PATH", "/var/log/marketplace/app.log"),
			MaxSize:          getEnvInt("LOG_MAX_SIZE", 100),
			MaxBackups:       getEnvInt("LOG_MAX_BACKUPS", 10),
			MaxAge:           getEnvInt("LOG_MAX_AGE", 30),
			Compress:         getEnvBool("LOG_COMPRESS", true),
			EnableCaller:     getEnvBool("LOG_ENABLE_CALLER", true),
			EnableStacktrace: getEnvBool("LOG_ENABLE_STACKTRACE", true),
			EnableAccessLog:  getEnvBool("LOG_ENABLE_ACCESS", true),
		},
		Metrics: MetricsConfig{
			Enabled: getEnvBool("METRICS_ENABLED", true),
			Path:    getEnvString("METRICS_PATH", "/metrics"),
		},
		Cache: CacheConfig{
			Enabled:     getEnvBool("CACHE_ENABLED", true),
			Provider:    getEnvString("CACHE_PROVIDER", "redis"),
			RedisURL:    getEnvString("CACHE_REDIS_URL", "redis://localhost:6379"),
			RedisDB:     getEnvInt("CACHE_REDIS_DB", 0),
			RedisPrefix: getEnvString("CACHE_REDIS_PREFIX", "marketplace:"),
		},
		Notification: NotificationConfig{
			Provider:      getEnvString("NOTIFICATION_PROVIDER", "log"),
			ChannelPrefix: getEnvString("NOTIFICATION_CHANNEL_PREFIX", "notifications"),
		},
		Payment: PaymentConfig{
			Provider:             getEnvString("PAYMENT_PROVIDER", "stripe"),
			SecretKey:            getEnvString("STRIPE_SECRET_KEY", ""),
			WebhookSecret:        getEnvString("STRIPE_WEBHOOK_SECRET", ""),
			FeePercent:           feePercent,
			Currency:             strings.ToLower(getEnvString("PAYMENT_CURRENCY", utils.DefaultCurrency)),
			OnboardingRefreshURL: getEnvString("PAYMENT_ONBOARDING_REFRESH_URL", "http://localhost:3000/seller/onboarding/refresh"),
			OnboardingReturnURL:  getEnvString("PAYMENT_ONBOARDING_RETURN_URL", "http://localhost:3000/seller/onboarding/complete"),
			IntentCacheTTL:       getEnvDuration("PAYMENT_INTENT_CACHE_TTL", 24*time.Hour),
			ProcessorTimeout:     getEnvDuration("PAYMENT_PROCESSOR_TIMEOUT", 20*time.Second),
			WebhookTolerance:     getEnvDuration("PAYMENT_WEBHOOK_TOLERANCE", 5*time.Minute),
		},
		Deployment: DeploymentConfig{
			Domain:      getEnvString("DOMAIN", "localhost"),
			APIDomain:   getEnvString("API_DOMAIN", "localhost"),
			Environment: getEnvString("APP_ENV", "production"),
			Version:     getEnvString("VERSION", "1.0.0"),
			CommitHash:  getEnvString("COMMIT_HASH", "unknown"),
			BuildTime:   getEnvString("BUILD_TIME", "unknown"),
		},
	}, nil
}

// Helper functions for environment variable parsing
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvStringSlice(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		var result []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				result = append(result, trimmed)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return defaultValue
}

// ValidateProductionConfig validates the production configuration
func ValidateProductionConfig(cfg *ProductionConfig) error {
	var errs []string

	// Validate database configuration
	if cfg.Database.Host == "" {
		errs = append(errs, "DB_HOST is required")
	}
	if cfg.Database.Port <= 0 || cfg.Database.Port > 65535 {
		errs = append(errs, "DB_PORT must be between 1 and 65535")
	}
	if cfg.Database.Name == "" {
		errs = append(errs, "DB_NAME is required")
	}
	if cfg.Database.User == "" {
		errs = append(errs, "DB_USER is required")
	}
	if cfg.Database.Password == "" {
		errs = append(errs, "DB_PASSWORD is required")
	}

	// Validate JWT configuration
	if cfg.JWT.UseRSAKeys {
		if cfg.JWT.PrivateKey == "" || cfg.JWT.PublicKey == "" {
			errs = append(errs, "JWT_PRIVATE_KEY and JWT_PUBLIC_KEY are required when JWT_USE_RSA_KEYS is set")
		}
	} else if len(cfg.JWT.SecretKey) < 32 {
		errs = append(errs, "JWT_SECRET_KEY must be at least 32 characters long")
	}
	if cfg.JWT.AccessTokenTTL <= 0 {
		errs = append(errs, "JWT_ACCESS_TOKEN_TTL must be positive")
	}
	if cfg.JWT.RefreshTokenTTL <= 0 {
		errs = append(errs, "JWT_REFRESH_TOKEN_TTL must be positive")
	}

	// Validate server configuration
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs = append(errs, "SERVER_PORT must be between 1 and 65535")
	}
	if cfg.Server.ReadTimeout <= 0 {
		errs = append(errs, "SERVER_READ_TIMEOUT must be positive")
	}
	if cfg.Server.WriteTimeout <= 0 {
		errs = append(errs, "SERVER_WRITE_TIMEOUT must be positive")
	}

	// Validate security configuration
	if cfg.Security.PasswordMinLength < 6 {
		errs = append(errs, "PASSWORD_MIN_LENGTH must be at least 6")
	}
	if cfg.Security.BcryptCost < 10 || cfg.Security.BcryptCost > 14 {
		errs = append(errs, "BCRYPT_COST must be between 10 and 14")
	}
	if cfg.Security.TLSEnabled && (cfg.Security.TLSCertFile == "" || cfg.Security.TLSKeyFile == "") {
		errs = append(errs, "TLS_CERT_FILE and TLS_KEY_FILE are required when TLS is enabled")
	}

	// Validate payment configuration; secrets have no defaults
	if cfg.Payment.Provider != "stripe" {
		errs = append(errs, "PAYMENT_PROVIDER must be stripe")
	}
	if cfg.Payment.SecretKey == "" {
		errs = append(errs, "STRIPE_SECRET_KEY is required")
	}
	if cfg.Payment.WebhookSecret == "" {
		errs = append(errs, "STRIPE_WEBHOOK_SECRET is required")
	}
	if cfg.Payment.FeePercent.IsNegative() || cfg.Payment.FeePercent.GreaterThan(decimal.NewFromInt(100)) {
		errs = append(errs, "PAYMENT_FEE_PERCENT must be between 0 and 100")
	}
	if len(cfg.Payment.Currency) != 3 {
		errs = append(errs, "PAYMENT_CURRENCY must be a three-letter ISO code")
	}
	if cfg.Payment.ProcessorTimeout <= 0 {
		errs = append(errs, "PAYMENT_PROCESSOR_TIMEOUT must be positive")
	}

	// Validate logging configuration
	validLevels := []string{"debug", "info", "warn", "error"}
	if cfg.Logging.Level != "" && !slices.Contains(validLevels, cfg.Logging.Level) {
		errs = append(errs, fmt.Sprintf("LOG_LEVEL must be one of: %v", validLevels))
	}
	validOutputs := []string{"stdout", "file", "both"}
	if !slices.Contains(validOutputs, cfg.Logging.Output) {
		errs = append(errs, fmt.Sprintf("LOG_OUTPUT must be one of: %v", validOutputs))
	}

	// Validate cache configuration if enabled
	if cfg.Cache.Enabled && cfg.Cache.Provider == "redis" && cfg.Cache.RedisURL == "" {
		errs = append(errs, "CACHE_REDIS_URL is required when cache is enabled with redis provider")
	}

	switch cfg.Notification.Provider {
	case "log":
	case "redis":
		if !cfg.Cache.Enabled || cfg.Cache.Provider != "redis" {
			errs = append(errs, "NOTIFICATION_PROVIDER=redis requires the redis cache to be enabled")
		}
	default:
		errs = append(errs, "NOTIFICATION_PROVIDER must be log or redis")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}

	return nil
}
