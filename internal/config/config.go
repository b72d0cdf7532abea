package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server struct {
		Port               int      `mapstructure:"port"`
		CorsAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
		CorsAllowedMethods []string `mapstructure:"cors_allowed_methods"`
		CorsAllowedHeaders []string `mapstructure:"cors_allowed_headers"`
		MaxUploadMB        int      `mapstructure:"max_upload_mb"`
	} `mapstructure:"server"`

	Database struct {
		Host     string `mapstructure:"host"`
		Port     int    `mapstructure:"port"`
		User     string `mapstructure:"user"`
		Password string `mapstructure:"password"`
		Name     string `mapstructure:"name"`
		SSLMode  string `mapstructure:"sslmode"`
	} `mapstructure:"database"`

	Redis struct {
		Addr     string `mapstructure:"addr"`
		Password string `mapstructure:"password"`
		DB       int    `mapstructure:"db"`
	} `mapstructure:"redis"`

	JWT struct {
		Secret          string `mapstructure:"secret"`
		ExpirationHours int    `mapstructure:"expiration_hours"`
		Issuer          string `mapstructure:"issuer"`
	} `mapstructure:"jwt"`

	Extractor struct {
		APIKey         string `mapstructure:"api_key"`
		Model          string `mapstructure:"model"`
		Endpoint       string `mapstructure:"endpoint"`
		TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	} `mapstructure:"extractor"`

	Storage struct {
		Enabled   bool   `mapstructure:"enabled"`
		Endpoint  string `mapstructure:"endpoint"`
		Region    string `mapstructure:"region"`
		Bucket    string `mapstructure:"bucket"`
		AccessKey string `mapstructure:"access_key"`
		SecretKey string `mapstructure:"secret_key"`
		Prefix    string `mapstructure:"prefix"`
	} `mapstructure:"storage"`

	Imports struct {
		PendingTTLMinutes       int `mapstructure:"pending_ttl_minutes"`
		LockTimeoutSeconds      int `mapstructure:"lock_timeout_seconds"`
		ReminderIntervalMinutes int `mapstructure:"reminder_interval_minutes"`
	} `mapstructure:"imports"`

	Organization struct {
		Name     string `mapstructure:"name"`
		Timezone string `mapstructure:"timezone"`
	} `mapstructure:"organization"`

	// Bootstrap creates the first treasurer account on startup when set.
	Bootstrap struct {
		TreasurerName     string `mapstructure:"treasurer_name"`
		TreasurerEmail    string `mapstructure:"treasurer_email"`
		TreasurerPassword string `mapstructure:"treasurer_password"`
	} `mapstructure:"bootstrap"`
}

// ExtractorTimeout is the deadline for one extraction call.
func (c *Config) ExtractorTimeout() time.Duration {
	return time.Duration(c.Extractor.TimeoutSeconds) * time.Second
}

// PendingImportTTL is how long an extracted report waits for confirmation.
func (c *Config) PendingImportTTL() time.Duration {
	return time.Duration(c.Imports.PendingTTLMinutes) * time.Minute
}

// ReminderInterval is how often deadlines are checked for reminders.
func (c *Config) ReminderInterval() time.Duration {
	return time.Duration(c.Imports.ReminderIntervalMinutes) * time.Minute
}

// MaxUploadBytes caps the size of an uploaded spreadsheet.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) << 20
}

// UploadLockTimeout bounds how long an upload guard can be held.
func (c *Config) UploadLockTimeout() time.Duration {
	return time.Duration(c.Imports.LockTimeoutSeconds) * time.Second
}

func Load() *Config {
	// Load .env file if exists (ignore error in production)
	godotenv.Load()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetConfigFile("configs/config.yaml")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Binary works without config file
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_allowed_origins", []string{"*"})
	v.SetDefault("server.cors_allowed_methods", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"})
	v.SetDefault("server.cors_allowed_headers", []string{"Authorization", "Content-Type"})
	v.SetDefault("server.max_upload_mb", 10)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.name", "treasury_db")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("jwt.expiration_hours", 24)
	v.SetDefault("jwt.issuer", "treasury-backend")
	v.SetDefault("extractor.model", "gemini-2.5-flash")
	v.SetDefault("extractor.endpoint", "https://generativelanguage.googleapis.com")
	v.SetDefault("extractor.timeout_seconds", 90)
	v.SetDefault("storage.region", "auto")
	v.SetDefault("storage.prefix", "imports/")
	v.SetDefault("imports.pending_ttl_minutes", 60)
	v.SetDefault("imports.lock_timeout_seconds", 180)
	v.SetDefault("imports.reminder_interval_minutes", 15)
	v.SetDefault("bootstrap.treasurer_name", "Treasurer")
	v.SetDefault("bootstrap.treasurer_email", "")
	v.SetDefault("bootstrap.treasurer_password", "")
	v.SetDefault("organization.name", "Treasurer's Portal")
	v.SetDefault("organization.timezone", "Asia/Manila")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		log.Printf("[Config] No config file found, using defaults")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		log.Fatalf("config unmarshal error: %v", err)
	}

	// Override database settings from DB_* environment variables
	if host := os.Getenv("DB_HOST"); host != "" {
		cfg.Database.Host = host
	}
	if port := os.Getenv("DB_PORT"); port != "" {
		if n, err := strconv.Atoi(port); err == nil && n > 0 {
			cfg.Database.Port = n
		}
	}
	if user := os.Getenv("DB_USER"); user != "" {
		cfg.Database.User = user
	}
	if pass := os.Getenv("DB_PASSWORD"); pass != "" {
		cfg.Database.Password = pass
	}
	if name := os.Getenv("DB_NAME"); name != "" {
		cfg.Database.Name = name
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Redis.Addr = addr
	}
	if pass := os.Getenv("REDIS_PASSWORD"); pass != "" {
		cfg.Redis.Password = pass
	}

	// The extraction key may come from GEMINI_API_KEY or the older API_KEY
	if cfg.Extractor.APIKey == "" {
		cfg.Extractor.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	if cfg.Extractor.APIKey == "" {
		cfg.Extractor.APIKey = os.Getenv("API_KEY")
	}
	if cfg.Extractor.APIKey == "" {
		log.Printf("[Config] No extraction API key set, spreadsheet imports are disabled")
	}

	if email := os.Getenv("TREASURER_EMAIL"); email != "" {
		cfg.Bootstrap.TreasurerEmail = email
	}
	if pass := os.Getenv("TREASURER_PASSWORD"); pass != "" {
		cfg.Bootstrap.TreasurerPassword = pass
	}
	if name := os.Getenv("TREASURER_NAME"); name != "" {
		cfg.Bootstrap.TreasurerName = name
	}

	if key := os.Getenv("S3_ACCESS_KEY"); key != "" {
		cfg.Storage.AccessKey = key
	}
	if secret := os.Getenv("S3_SECRET_KEY"); secret != "" {
		cfg.Storage.SecretKey = secret
	}

	if cfg.JWT.Secret == "" || cfg.JWT.Secret == "${JWT_SECRET}" {
		cfg.JWT.Secret = os.Getenv("JWT_SECRET")
		if cfg.JWT.Secret == "" {
			log.Fatal("JWT_SECRET not found in environment or config")
		}
	}

	return &cfg
}
