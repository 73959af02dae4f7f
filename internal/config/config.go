// Package config provides application configuration loading and management.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"slices"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port               string  `mapstructure:"PORT"`
	Env                string  `mapstructure:"APP_ENV"`
	JWTSecret          string  `mapstructure:"JWT_SECRET"`
	DBDriver           string  `mapstructure:"DB_DRIVER"`
	DatabaseURL        string  `mapstructure:"DATABASE_URL"`
	DBHost             string  `mapstructure:"DB_HOST"`
	DBPort             string  `mapstructure:"DB_PORT"`
	DBUser             string  `mapstructure:"DB_USER"`
	DBPassword         string  `mapstructure:"DB_PASSWORD"`
	DBName             string  `mapstructure:"DB_NAME"`
	DBSSLMode          string  `mapstructure:"DB_SSLMODE"`
	SQLitePath         string  `mapstructure:"SQLITE_PATH"`
	RedisURL           string  `mapstructure:"REDIS_URL"`
	AllowedOrigins     string  `mapstructure:"ALLOWED_ORIGINS"`
	AdminUsernames     string  `mapstructure:"ADMIN_USERNAMES"`
	AdminsFile         string  `mapstructure:"ADMINS_FILE"`
	ImageHostURL       string  `mapstructure:"IMAGE_HOST_URL"`
	ImageHostAPIKey    string  `mapstructure:"IMAGE_HOST_API_KEY"`
	DefaultAvatarURL   string  `mapstructure:"DEFAULT_AVATAR_URL"`
	DefaultBannerURL   string  `mapstructure:"DEFAULT_BANNER_URL"`
	IDMaxAttempts      int     `mapstructure:"ID_MAX_ATTEMPTS"`
	MaxProfileImageMB  int     `mapstructure:"MAX_PROFILE_IMAGE_MB"`
	TracingEnabled     bool    `mapstructure:"TRACING_ENABLED"`
	TracingExporter    string  `mapstructure:"TRACING_EXPORTER"`
	OTLPEndpoint       string  `mapstructure:"OTLP_ENDPOINT"`
	TracingSampleRatio float64 `mapstructure:"TRACING_SAMPLE_RATIO"`

	// admins is the merged admin list from ADMIN_USERNAMES and ADMINS_FILE.
	admins []string
}

// adminsFile mirrors the `users.admin` layout of the legacy config.json.
type adminsFile struct {
	Users struct {
		Admin []string `yaml:"admin"`
	} `yaml:"users"`
}

// LoadConfig loads application configuration from file and environment variables.
func LoadConfig() (*Config, error) {
	viper.AddConfigPath(".")
	viper.AddConfigPath("..")
	viper.AddConfigPath("../..")
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AutomaticEnv()
	_ = viper.BindEnv("JWT_SECRET")

	// The base file is optional; env vars alone are a valid setup.
	_ = viper.ReadInConfig()

	env := viper.GetString("APP_ENV")
	if env == "" {
		env = "development"
	}

	if env != "development" && env != "test" {
		viper.SetConfigName("config." + env)
		if err := viper.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("required profile-specific config 'config.%s.yml' not found: %w", env, err)
		}
		log.Printf("Loaded profile-specific configuration: config.%s.yml", env)
	}

	// JWT_SECRET and IMAGE_HOST_API_KEY deliberately have no defaults.
	viper.SetDefault("PORT", "5000")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("DB_DRIVER", "postgres")
	viper.SetDefault("DATABASE_URL", "")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "netsocial")
	viper.SetDefault("DB_PASSWORD", "password")
	viper.SetDefault("DB_NAME", "netsocial")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("SQLITE_PATH", "netsocial.db")
	viper.SetDefault("REDIS_URL", "localhost:6379")
	viper.SetDefault("ALLOWED_ORIGINS", "http://localhost:3000,https://netsocial.app,https://beta.netsocial.app")
	viper.SetDefault("ADMIN_USERNAMES", "")
	viper.SetDefault("ADMINS_FILE", "")
	viper.SetDefault("IMAGE_HOST_URL", "https://api.imgbb.com/1/upload")
	viper.SetDefault("IMAGE_HOST_API_KEY", "")
	viper.SetDefault("DEFAULT_AVATAR_URL", "https://mediashare.ink/file/65401d8dc40b62307de5c546")
	viper.SetDefault("DEFAULT_BANNER_URL", "https://example.com/default-banner.png")
	viper.SetDefault("ID_MAX_ATTEMPTS", 8)
	viper.SetDefault("MAX_PROFILE_IMAGE_MB", 5)
	viper.SetDefault("TRACING_ENABLED", false)
	viper.SetDefault("TRACING_EXPORTER", "stdout")
	viper.SetDefault("OTLP_ENDPOINT", "localhost:4318")
	viper.SetDefault("TRACING_SAMPLE_RATIO", 1.0)

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.DBDriver = strings.ToLower(strings.TrimSpace(config.DBDriver))
	config.DBSSLMode = strings.ToLower(strings.TrimSpace(config.DBSSLMode))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	admins := splitList(config.AdminUsernames)
	if config.AdminsFile != "" {
		fromFile, err := LoadAdminsFile(config.AdminsFile)
		if err != nil {
			return nil, err
		}
		admins = append(admins, fromFile...)
	}
	config.SetAdmins(admins)

	return &config, nil
}

// LoadAdminsFile reads a YAML file of the form `users: {admin: [name, ...]}`.
func LoadAdminsFile(path string) ([]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admins file %s: %w", path, err)
	}
	var doc adminsFile
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse admins file %s: %w", path, err)
	}
	return doc.Users.Admin, nil
}

// SetAdmins replaces the configured admin usernames.
func (c *Config) SetAdmins(usernames []string) {
	admins := make([]string, 0, len(usernames))
	for _, u := range usernames {
		u = strings.TrimSpace(u)
		if u != "" && !slices.Contains(admins, u) {
			admins = append(admins, u)
		}
	}
	c.admins = admins
}

// Admins returns the configured admin usernames.
func (c *Config) Admins() []string {
	return c.admins
}

// IsAdmin reports whether username is on the admin list. Usernames are case-sensitive.
func (c *Config) IsAdmin(username string) bool {
	return slices.Contains(c.admins, username)
}

// IsProduction reports whether the app runs with production settings.
func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Validate ensures that required configuration values are present and meet security standards.
func (c *Config) Validate() error {
	if c.Port == "" {
		return errors.New("PORT is required")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	switch c.DBDriver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or sqlite, got %q", c.DBDriver)
	}
	if c.IDMaxAttempts <= 0 {
		return errors.New("ID_MAX_ATTEMPTS must be positive")
	}
	if c.MaxProfileImageMB <= 0 {
		return errors.New("MAX_PROFILE_IMAGE_MB must be positive")
	}

	// Strict checks for production
	if c.IsProduction() {
		if len(c.JWTSecret) < 32 {
			return errors.New("JWT_SECRET must be at least 32 characters in production")
		}
		if c.DBDriver == "sqlite" {
			return errors.New("DB_DRIVER=sqlite is not supported in production")
		}
		if c.DatabaseURL == "" && (c.DBPassword == "password" || c.DBPassword == "") {
			return errors.New("a strong DB_PASSWORD is required in production")
		}
		if c.DatabaseURL == "" && (c.DBSSLMode == "disable" || c.DBSSLMode == "") {
			return errors.New("DB_SSLMODE must not be 'disable' in production")
		}
		if c.AllowedOrigins == "*" {
			log.Println("WARNING: ALLOWED_ORIGINS is set to '*' in production. This is insecure.")
		}
		if c.ImageHostAPIKey == "" {
			log.Println("WARNING: IMAGE_HOST_API_KEY is empty; post image uploads will fail.")
		}
	} else if len(c.JWTSecret) < 32 {
		log.Println("WARNING: JWT_SECRET is shorter than 32 characters. Consider using a stronger secret for production.")
	}

	return nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
