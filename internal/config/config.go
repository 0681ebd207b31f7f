package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Server
	Port       string
	Env        string
	APIUrl     string
	AdminURL   string
	GalleryURL string

	// Database
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string

	// Redis
	RedisHost     string
	RedisPort     string
	RedisPassword string
	RedisDB       int

	// JWT
	JWTSecret               string
	JWTAccessTokenDuration  time.Duration
	JWTRefreshTokenDuration time.Duration
	JWTGalleryTokenDuration time.Duration

	// Admin
	AdminUsername string
	AdminPassword string
	AdminEmail    string

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string
	SMTPFromName string

	// Media S3
	MediaS3Endpoint        string
	MediaS3Region          string
	MediaS3AccessKeyID     string
	MediaS3SecretAccessKey string
	MediaS3UsePathStyle    bool
	MediaImagesBucket      string

	// Local storage
	LocalAssetsPath  string
	MediaSyncOnStart bool

	// Uploads
	UploadMaxImageSize     int64
	UploadMaxPerDay        int
	PresignedURLTTLMinutes int

	// Export
	ExportBatchSize int

	// Sessions
	SessionCleanupEnabled bool
	SessionMaxAge         time.Duration

	// Security
	BcryptCost                  int
	RateLimitRequests           int
	RateLimitDuration           time.Duration
	AdminRateLimitActions       int
	AdminRateLimitWindowMinutes int

	// CORS
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

func New() *Config {
	return &Config{
		// Server
		Port:       getEnv("PORT", "8080"),
		Env:        getEnv("ENV", "development"),
		APIUrl:     getEnv("API_URL", "http://localhost:8080"),
		AdminURL:   getEnv("ADMIN_URL", "http://localhost:3001"),
		GalleryURL: getEnv("GALLERY_URL", "http://localhost:3002"),

		// Database
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     getEnv("DB_PORT", "5432"),
		DBUser:     getEnv("DB_USER", "fotoatelier"),
		DBPassword: getEnv("DB_PASSWORD", "password"),
		DBName:     getEnv("DB_NAME", "fotoatelier_db"),
		DBSSLMode:  getEnv("DB_SSL_MODE", "disable"),

		// Redis
		RedisHost:     getEnv("REDIS_HOST", "localhost"),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// JWT
		JWTSecret:               getEnv("JWT_SECRET", "your-secret-key"),
		JWTAccessTokenDuration:  getEnvAsDuration("JWT_ACCESS_TOKEN_DURATION", "1h"),
		JWTRefreshTokenDuration: getEnvAsDuration("JWT_REFRESH_TOKEN_DURATION", "168h"),
		JWTGalleryTokenDuration: getEnvAsDuration("JWT_GALLERY_TOKEN_DURATION", "720h"),

		// Admin
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
		AdminEmail:    getEnv("ADMIN_EMAIL", "studio@fotoatelier.example"),

		// SMTP
		SMTPHost:     getEnv("SMTP_HOST", ""),
		SMTPPort:     getEnvAsInt("SMTP_PORT", 465),
		SMTPUsername: getEnv("SMTP_USERNAME", ""),
		SMTPPassword: getEnv("SMTP_PASSWORD", ""),
		SMTPFrom:     getEnv("SMTP_FROM", "studio@fotoatelier.example"),
		SMTPFromName: getEnv("SMTP_FROM_NAME", "Fotoatelier"),

		// Media S3
		MediaS3Endpoint:        getEnv("MEDIA_S3_ENDPOINT", ""),
		MediaS3Region:          getEnv("MEDIA_S3_REGION", "us-east-1"),
		MediaS3AccessKeyID:     getEnv("MEDIA_S3_ACCESS_KEY_ID", ""),
		MediaS3SecretAccessKey: getEnv("MEDIA_S3_SECRET_ACCESS_KEY", ""),
		MediaS3UsePathStyle:    getEnv("MEDIA_S3_USE_PATH_STYLE", "true") == "true",
		MediaImagesBucket:      getEnv("MEDIA_IMAGES_BUCKET", "fotoatelier-images"),

		// Local storage
		LocalAssetsPath:  getEnv("LOCAL_ASSETS_PATH", "/data/assets"),
		MediaSyncOnStart: getEnv("MEDIA_SYNC_ON_START", "false") == "true",

		// Uploads
		UploadMaxImageSize:     getEnvAsInt64("UPLOAD_MAX_IMAGE_SIZE", 25*1024*1024),
		UploadMaxPerDay:        getEnvAsInt("UPLOAD_MAX_PER_DAY", 2000),
		PresignedURLTTLMinutes: getEnvAsInt("PRESIGNED_URL_TTL_MINUTES", 60),

		// Export
		ExportBatchSize: getEnvAsInt("EXPORT_BATCH_SIZE", 50),

		// Sessions
		SessionCleanupEnabled: getEnv("SESSION_CLEANUP_ENABLED", "true") == "true",
		SessionMaxAge:         getEnvAsDuration("SESSION_MAX_AGE", "2160h"),

		// Security
		BcryptCost:                  getEnvAsInt("BCRYPT_COST", 12),
		RateLimitRequests:           getEnvAsInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitDuration:           getEnvAsDuration("RATE_LIMIT_DURATION", "1m"),
		AdminRateLimitActions:       getEnvAsInt("ADMIN_RATE_LIMIT_ACTIONS", 10),
		AdminRateLimitWindowMinutes: getEnvAsInt("ADMIN_RATE_LIMIT_WINDOW_MINUTES", 5),

		// CORS
		AllowedOrigins: getEnvAsSlice("ALLOWED_ORIGINS", []string{"http://localhost:3001", "http://localhost:3002"}),
		AllowedMethods: getEnvAsSlice("ALLOWED_METHODS", []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		AllowedHeaders: getEnvAsSlice("ALLOWED_HEADERS", []string{"Content-Type", "Content-Length", "Accept", "Authorization", "Origin", "Cache-Control", "X-Requested-With"}),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsInt64(key string, defaultValue int64) int64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseInt(valueStr, 10, 64); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := getEnv(key, defaultValue)
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	if duration, err := time.ParseDuration(defaultValue); err == nil {
		return duration
	}
	return time.Hour
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	return strings.Split(valueStr, ",")
}
