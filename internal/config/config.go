package config

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds application configuration (flags + env + Viper).
type Config struct {
	Env                 string
	Port                string
	LogLevel            string
	DatabaseURL         string // postgres://... or sqlite://file.db
	RedisURL            string
	FrontendURLEndsWith string
	DevPassword         string
	AllowCrossSiteDev   bool
	HealthAdminKey      string
	PageSize            int
	MaxUploadMB         int

	StorageDriver    string // "local" or "s3"
	StorageRoot      string // local driver: directory served under /storage
	StoragePublicURL string // base of public photo URLs

	S3Endpoint        string
	S3Region          string
	S3Bucket          string
	S3AccessKeyID     string
	S3SecretAccessKey string

	NATSURL          string
	SubmittedSubject string

	SendinblueAPIKey string // SENDINBLUE_API_KEY for submission emails (Brevo)
	MailFrom         string
}

// Flags registers the command-line flags that override env values.
func Flags(fs *pflag.FlagSet) {
	fs.String("env-file", ".env", "path of an optional .env file")
	fs.String("port", "", "HTTP listen port (overrides PORT)")
	fs.String("log-level", "", "zerolog level (overrides LOG_LEVEL)")
}

// Load loads config from env and the optional .env file. fs may be nil.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	if fs != nil {
		if err := v.BindPFlags(fs); err != nil {
			return nil, err
		}
	}
	envFile := v.GetString("env-file")
	if envFile == "" {
		envFile = ".env"
	}
	v.SetConfigFile(envFile)
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))

	v.SetDefault("APP_ENV", "development")
	v.SetDefault("PORT", "8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DATABASE_URL", "sqlite://bizmart.db")
	v.SetDefault("PAGE_SIZE", 15)
	v.SetDefault("MAX_UPLOAD_MB", 20)
	v.SetDefault("STORAGE_DRIVER", "local")
	v.SetDefault("STORAGE_ROOT", "storage")
	v.SetDefault("STORAGE_PUBLIC_URL", "/storage")
	v.SetDefault("S3_REGION", "auto")
	v.SetDefault("NATS_SUBJECT_SUBMITTED", "businesses.submitted")

	port := v.GetString("port")
	if port == "" {
		port = v.GetString("PORT")
	}
	level := v.GetString("log-level")
	if level == "" {
		level = v.GetString("LOG_LEVEL")
	}

	return &Config{
		Env:                 v.GetString("APP_ENV"),
		Port:                port,
		LogLevel:            level,
		DatabaseURL:         v.GetString("DATABASE_URL"),
		RedisURL:            v.GetString("REDIS_URL"),
		FrontendURLEndsWith: v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:         v.GetString("DEV_PASSWORD"),
		AllowCrossSiteDev:   strings.EqualFold(v.GetString("ALLOW_CROSS_SITE_DEV"), "true"),
		HealthAdminKey:      v.GetString("HEALTH_ADMIN_KEY"),
		PageSize:            v.GetInt("PAGE_SIZE"),
		MaxUploadMB:         v.GetInt("MAX_UPLOAD_MB"),
		StorageDriver:       strings.ToLower(v.GetString("STORAGE_DRIVER")),
		StorageRoot:         v.GetString("STORAGE_ROOT"),
		StoragePublicURL:    v.GetString("STORAGE_PUBLIC_URL"),
		S3Endpoint:          v.GetString("S3_ENDPOINT"),
		S3Region:            v.GetString("S3_REGION"),
		S3Bucket:            v.GetString("S3_BUCKET"),
		S3AccessKeyID:       v.GetString("S3_ACCESS_KEY_ID"),
		S3SecretAccessKey:   v.GetString("S3_SECRET_ACCESS_KEY"),
		NATSURL:             v.GetString("NATS_URL"),
		SubmittedSubject:    v.GetString("NATS_SUBJECT_SUBMITTED"),
		SendinblueAPIKey:    v.GetString("SENDINBLUE_API_KEY"),
		MailFrom:            v.GetString("MAIL_FROM"),
	}, nil
}

// IsProduction reports whether APP_ENV is production.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
