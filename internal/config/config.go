// internal/config/config.go
package config

import (
	"log"
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	ProviderDrive = "drive"
	ProviderS3    = "s3"

	CompressorPlaceholder = "placeholder"
	CompressorGzip        = "gzip"

	// DefaultDriveRootFolderID is the Drive folder listed when
	// REMOTE_ROOT_FOLDER_ID is unset. S3 lists from the bucket root instead.
	DefaultDriveRootFolderID = "10514rVBAqv21ry4gvRK-EP2wAxq3cjU6"
)

type Config struct {
	Server ServerConfig
	App    AppConfig
	Remote RemoteConfig
	Cache  CacheConfig
	Log    LogConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type AppConfig struct {
	DownloadDir        string
	CredentialPath     string
	ChunkSize          int
	Compressor         string
	PlaceholderSize    int
	HTTPTimeoutSeconds int
}

type RemoteConfig struct {
	Provider      string
	RootFolderID  string
	DriveEndpoint string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	FolderTTLSeconds int
}

type LogConfig struct {
	Level  string
	Format string
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		instance = build(viper.GetViper())

		ensureDir(instance.App.DownloadDir)
	})

	return instance
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("SERVER_PORT", "8080")
	v.SetDefault("SERVER_MODE", "debug")
	v.SetDefault("SERVER_READ_TIMEOUT", 0)
	v.SetDefault("SERVER_WRITE_TIMEOUT", 0)
	v.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://127.0.0.1:3000"})
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "console")
	v.SetDefault("APP_DOWNLOAD_DIR", "downloaded-files")
	v.SetDefault("APP_CREDENTIAL_PATH", "temp_credentials.json")
	v.SetDefault("APP_CHUNK_SIZE", 8192)
	v.SetDefault("APP_COMPRESSOR", CompressorPlaceholder)
	v.SetDefault("APP_PLACEHOLDER_SIZE", 1024)
	v.SetDefault("APP_HTTP_TIMEOUT_SECONDS", 0)
	v.SetDefault("REMOTE_PROVIDER", ProviderDrive)
	v.SetDefault("DRIVE_ENDPOINT", "")
	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("REDIS_URL", "")
	v.SetDefault("REDIS_HOST", "127.0.0.1")
	v.SetDefault("REDIS_PORT", "6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("CACHE_FOLDER_TTL_SECONDS", 60)
}

func build(v *viper.Viper) *Config {
	setDefaults(v)

	// Read from environment variables
	v.AutomaticEnv()

	return &Config{
		Server: ServerConfig{
			Port:           v.GetString("SERVER_PORT"),
			Mode:           v.GetString("SERVER_MODE"),
			ReadTimeout:    v.GetInt("SERVER_READ_TIMEOUT"),
			WriteTimeout:   v.GetInt("SERVER_WRITE_TIMEOUT"),
			AllowedOrigins: v.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
		},
		App: AppConfig{
			DownloadDir:        v.GetString("APP_DOWNLOAD_DIR"),
			CredentialPath:     v.GetString("APP_CREDENTIAL_PATH"),
			ChunkSize:          v.GetInt("APP_CHUNK_SIZE"),
			Compressor:         v.GetString("APP_COMPRESSOR"),
			PlaceholderSize:    v.GetInt("APP_PLACEHOLDER_SIZE"),
			HTTPTimeoutSeconds: v.GetInt("APP_HTTP_TIMEOUT_SECONDS"),
		},
		Remote: RemoteConfig{
			Provider:      v.GetString("REMOTE_PROVIDER"),
			RootFolderID:  rootFolderID(v),
			DriveEndpoint: v.GetString("DRIVE_ENDPOINT"),
		},
		Cache: CacheConfig{
			Enabled:          v.GetBool("CACHE_ENABLED"),
			RedisURL:         v.GetString("REDIS_URL"),
			RedisHost:        v.GetString("REDIS_HOST"),
			RedisPort:        v.GetString("REDIS_PORT"),
			RedisPassword:    v.GetString("REDIS_PASSWORD"),
			RedisDB:          v.GetInt("REDIS_DB"),
			FolderTTLSeconds: v.GetInt("CACHE_FOLDER_TTL_SECONDS"),
		},
		Log: LogConfig{
			Level:  v.GetString("LOG_LEVEL"),
			Format: v.GetString("LOG_FORMAT"),
		},
	}
}

func rootFolderID(v *viper.Viper) string {
	if id := v.GetString("REMOTE_ROOT_FOLDER_ID"); id != "" {
		return id
	}
	if v.GetString("REMOTE_PROVIDER") == ProviderDrive {
		return DefaultDriveRootFolderID
	}
	return ""
}

func ensureDir(dir string) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			log.Fatalf("Failed to create directory %s: %v", dir, err)
		}
	}
}
