package config

import (
	"github.com/Abdurahmanit/GroupProject/board-service/internal/platform/logger"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all configuration for the service.
type Config struct {
	ServiceName           string `mapstructure:"SERVICE_NAME"`
	HTTPPort              string `mapstructure:"HTTP_PORT"`
	HealthGRPCPort        string `mapstructure:"HEALTH_GRPC_PORT"`
	MongoURI              string `mapstructure:"MONGO_URI"`
	MongoDatabase         string `mapstructure:"MONGO_DATABASE"`
	RedisAddr             string `mapstructure:"REDIS_ADDR"`
	RedisPassword         string `mapstructure:"REDIS_PASSWORD"`
	RedisDB               int    `mapstructure:"REDIS_DB"`
	NATSURL               string `mapstructure:"NATS_URL"`
	MinIOEndpoint         string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey        string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey        string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket           string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL           bool   `mapstructure:"MINIO_USE_SSL"`
	AdminSecret           string `mapstructure:"ADMIN_SECRET"`
	JWTSecret             string `mapstructure:"JWT_SECRET"`
	OperatorTokenTTLMin   int    `mapstructure:"OPERATOR_TOKEN_TTL_MINUTES"`
	ExpiryIntervalHours   int    `mapstructure:"EXPIRY_INTERVAL_HOURS"`
	ExpiryPollSeconds     int    `mapstructure:"EXPIRY_POLL_SECONDS"`
	VisibleLimit          int    `mapstructure:"VISIBLE_LIMIT"`
	MaxPhotoBytes         int    `mapstructure:"MAX_PHOTO_BYTES"`
	StaticDir             string `mapstructure:"STATIC_DIR"`
	ModeratorEmail        string `mapstructure:"MODERATOR_EMAIL"`
	SMTPHost              string `mapstructure:"SMTP_HOST"`
	SMTPPort              int    `mapstructure:"SMTP_PORT"`
	SMTPUsername          string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword          string `mapstructure:"SMTP_PASSWORD"`
	SMTPSenderEmail       string `mapstructure:"SMTP_SENDER_EMAIL"`
	PrometheusMetricsPort string `mapstructure:"PROMETHEUS_METRICS_PORT"`
	LogLevel              string `mapstructure:"LOG_LEVEL"`
	LogFormat             string `mapstructure:"LOG_FORMAT"`
	OTELEndpoint          string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}

// LoadConfig reads configuration from environment variables and/or .env file.
func LoadConfig(appLogger *logger.Logger) (*Config, error) {
	viper.SetDefault("SERVICE_NAME", "board-service")
	viper.SetDefault("HTTP_PORT", "8080")
	viper.SetDefault("HEALTH_GRPC_PORT", "50061")
	viper.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	viper.SetDefault("MONGO_DATABASE", "bicycle_shop_board")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("NATS_URL", "nats://localhost:4222")
	viper.SetDefault("MINIO_ENDPOINT", "localhost:9000")
	viper.SetDefault("MINIO_ACCESS_KEY", "minioadmin")
	viper.SetDefault("MINIO_SECRET_KEY", "minioadmin")
	viper.SetDefault("MINIO_BUCKET", "board-photos")
	viper.SetDefault("MINIO_USE_SSL", false)
	viper.SetDefault("ADMIN_SECRET", "")
	viper.SetDefault("JWT_SECRET", "your-very-secret-key-for-board-service") // CHANGE THIS!
	viper.SetDefault("OPERATOR_TOKEN_TTL_MINUTES", 60)
	viper.SetDefault("EXPIRY_INTERVAL_HOURS", 24)
	viper.SetDefault("EXPIRY_POLL_SECONDS", 60)
	viper.SetDefault("VISIBLE_LIMIT", 100)
	viper.SetDefault("MAX_PHOTO_BYTES", 3*1024*1024)
	viper.SetDefault("STATIC_DIR", "./public")
	viper.SetDefault("MODERATOR_EMAIL", "")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")
	viper.SetDefault("SMTP_SENDER_EMAIL", "")
	viper.SetDefault("PROMETHEUS_METRICS_PORT", "9095")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")

	viper.AutomaticEnv()

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		appLogger.Error("Failed to unmarshal configuration", zap.Error(err))
		return nil, err
	}

	if cfg.AdminSecret == "" {
		appLogger.Fatal("ADMIN_SECRET is not set. The moderation surface cannot be guarded without it.")
	}
	if cfg.JWTSecret == "your-very-secret-key-for-board-service" || cfg.JWTSecret == "" {
		appLogger.Warn("JWT_SECRET is set to its default insecure value or is empty. Please set a strong secret in your environment.")
	}
	if cfg.MongoURI == "" {
		appLogger.Fatal("MONGO_URI is not set. This is required.")
	}
	if cfg.MongoDatabase == "" {
		appLogger.Fatal("MONGO_DATABASE is not set. This is required.")
	}

	appLogger.Debug("Configuration loaded",
		zap.String("service_name", cfg.ServiceName),
		zap.String("http_port", cfg.HTTPPort),
		zap.Bool("mongo_uri_present", cfg.MongoURI != ""),
		zap.String("mongo_database", cfg.MongoDatabase),
		zap.String("redis_addr", cfg.RedisAddr),
		zap.String("nats_url", cfg.NATSURL),
		zap.Bool("admin_secret_present", cfg.AdminSecret != ""),
		zap.Int("expiry_interval_hours", cfg.ExpiryIntervalHours),
		zap.Int("visible_limit", cfg.VisibleLimit),
		zap.String("prometheus_port", cfg.PrometheusMetricsPort),
	)

	return &cfg, nil
}
