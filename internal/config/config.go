package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	MongoURI      string
	MongoDatabase string
	PostgresURI   string
	RedisURI      string

	Port           string
	Host           string   // Raw HOST env (e.g. https://api.example.com)
	AllowedHost    string   // ALLOWED_HOST: bare hostname enforced in production, empty disables
	Environment    string   // ENV: production, development, etc.
	LogLevel       string   // LOG_LEVEL: debug, info, warn, error
	AllowedOrigins []string // CORS: from ALLOWED_ORIGINS or FRONTEND_URL(s)

	CloudinaryName      string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string // Folder that profile pictures are uploaded into

	SessionCookieName string
	SessionTTL        time.Duration
	MaxUploadBytes    int64 // Largest accepted profile picture
}

func Load() *Config {
	env := strings.ToLower(strings.TrimSpace(getEnv("ENV", "development")))

	allowedOrigins := parseOrigins(getEnv("ALLOWED_ORIGINS", ""))
	if len(allowedOrigins) == 0 {
		for _, u := range []string{getEnv("FRONTEND_URL", "http://localhost:3000"), getEnv("FRONTEND_URL_2", "")} {
			u = strings.TrimSpace(u)
			if u != "" {
				allowedOrigins = append(allowedOrigins, u)
			}
		}
	}

	return &Config{
		MongoURI:      getEnv("MONGODB_URI", getEnv("MONGO_URI", "mongodb://localhost:27017")),
		MongoDatabase: getEnv("MONGODB_DATABASE", "profiledir"),
		PostgresURI:   getEnv("POSTGRES_URI", "postgres://localhost:5432/profiledir?sslmode=disable"),
		RedisURI:      getEnv("REDIS_URI", "redis://localhost:6379/0"),

		Port:           getEnv("PORT", "8080"),
		Host:           getEnv("HOST", "http://localhost:8080"),
		AllowedHost:    strings.TrimSpace(getEnv("ALLOWED_HOST", "")),
		Environment:    env,
		LogLevel:       strings.ToLower(getEnv("LOG_LEVEL", "info")),
		AllowedOrigins: allowedOrigins,

		CloudinaryName:      getEnv("CLOUDINARY_CLOUD_NAME", ""),
		CloudinaryAPIKey:    getEnv("CLOUDINARY_API_KEY", ""),
		CloudinaryAPISecret: getEnv("CLOUDINARY_API_SECRET", ""),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "profileImages"),

		SessionCookieName: getEnv("SESSION_COOKIE_NAME", "profiledir_session"),
		SessionTTL:        getDuration("SESSION_TTL", 7*24*time.Hour),
		MaxUploadBytes:    getInt64("MAX_UPLOAD_BYTES", 5<<20),
	}
}

// IsProduction returns true when ENV is set to "production".
func (c *Config) IsProduction() bool {
	return strings.ToLower(strings.TrimSpace(c.Environment)) == "production"
}

// BlobStoreConfigured reports whether all Cloudinary credentials are present.
func (c *Config) BlobStoreConfigured() bool {
	return c.CloudinaryName != "" && c.CloudinaryAPIKey != "" && c.CloudinaryAPISecret != ""
}

func parseOrigins(s string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
		return d
	}
	return defaultValue
}

func getInt64(key string, defaultValue int64) int64 {
	if n, err := strconv.ParseInt(os.Getenv(key), 10, 64); err == nil && n > 0 {
		return n
	}
	return defaultValue
}
