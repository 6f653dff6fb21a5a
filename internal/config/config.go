package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds application level configuration aggregated from env/config files.
type Config struct {
	Server struct {
		Addr string
	}
	Auth struct {
		JWTSecret  string        `mapstructure:"jwt_secret"`
		TokenTTL   time.Duration `mapstructure:"token_ttl"`
		BcryptCost int           `mapstructure:"bcrypt_cost"`
	}
	Store struct {
		URI               string
		Database          string
		StudentCollection string `mapstructure:"student_collection"`
		UserCollection    string `mapstructure:"user_collection"`
		Timeout           time.Duration
	}
	Export struct {
		Bucket   string
		Prefix   string
		Region   string
		Endpoint string
		URLTTL   time.Duration `mapstructure:"url_ttl"`
	}
	AWS struct {
		Profile string
	}
	Log struct {
		Level string
	}
}

// env names predate this service and are shared with existing deployments
var envBindings = map[string]string{
	"server.addr":              "SERVER_ADDR",
	"auth.jwt_secret":          "JWT_SECRET",
	"auth.token_ttl":           "TOKEN_TTL",
	"auth.bcrypt_cost":         "BCRYPT_COST",
	"store.uri":                "MONGO_URI",
	"store.database":           "DB_NAME",
	"store.student_collection": "STUDENT_COLLECTION",
	"store.user_collection":    "USER_COLLECTION",
	"store.timeout":            "STORE_TIMEOUT",
	"export.bucket":            "EXPORT_BUCKET",
	"export.prefix":            "EXPORT_PREFIX",
	"export.region":            "EXPORT_REGION",
	"export.endpoint":          "EXPORT_ENDPOINT",
	"export.url_ttl":           "EXPORT_URL_TTL",
	"aws.profile":              "AWS_PROFILE",
	"log.level":                "LOG_LEVEL",
}

// Load reads configuration from environment variables, an optional .env
// file and an optional config file in the working directory.
func Load() (Config, error) {
	// variables already present in the environment win over .env
	_ = godotenv.Load()

	v := viper.New()
	for key, env := range envBindings {
		if err := v.BindEnv(key, env); err != nil {
			return Config{}, fmt.Errorf("bind %s: %w", env, err)
		}
	}

	v.SetDefault("server.addr", "0.0.0.0:8080")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", "15m")
	v.SetDefault("auth.bcrypt_cost", 12)
	v.SetDefault("store.uri", "")
	v.SetDefault("store.database", "students_api")
	v.SetDefault("store.student_collection", "students")
	v.SetDefault("store.user_collection", "users")
	v.SetDefault("store.timeout", "5s")
	v.SetDefault("export.bucket", "")
	v.SetDefault("export.prefix", "student-exports")
	v.SetDefault("export.region", "us-east-1")
	v.SetDefault("export.endpoint", "")
	v.SetDefault("export.url_ttl", "15m")
	v.SetDefault("aws.profile", "")
	v.SetDefault("log.level", "info")

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// Backend names the store implementation selected by the connection string.
type Backend string

const (
	BackendMongo  Backend = "mongo"
	BackendSQLite Backend = "sqlite"
)

// Backend reports which store the connection string addresses.
func (c Config) Backend() (Backend, error) {
	uri := strings.TrimSpace(c.Store.URI)
	switch {
	case strings.HasPrefix(uri, "mongodb://"), strings.HasPrefix(uri, "mongodb+srv://"):
		return BackendMongo, nil
	case strings.HasPrefix(uri, "sqlite:"):
		return BackendSQLite, nil
	default:
		return "", fmt.Errorf("unsupported store uri scheme in %q", redact(uri))
	}
}

// Validate reports settings the service cannot start without.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.JWTSecret) == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if strings.TrimSpace(c.Store.URI) == "" {
		errs = append(errs, errors.New("MONGO_URI is required"))
	} else if _, err := c.Backend(); err != nil {
		errs = append(errs, err)
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, fmt.Errorf("token ttl must be positive, got %s", c.Auth.TokenTTL))
	}
	if c.Store.Database == "" || c.Store.StudentCollection == "" || c.Store.UserCollection == "" {
		errs = append(errs, errors.New("database and collection names must not be empty"))
	}
	return errors.Join(errs...)
}

// redact hides credentials embedded in a connection string.
func redact(uri string) string {
	scheme, rest, ok := strings.Cut(uri, "://")
	if !ok {
		return uri
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		return scheme + "://***@" + rest[at+1:]
	}
	return uri
}
