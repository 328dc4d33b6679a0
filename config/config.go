package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"

	"github.com/openfort-xyz/recoverykit/prfkey"
)

var (
	config     *Config
	configOnce sync.Once
)

type Config struct {
	Server struct {
		Port     string `json:"port"`
		Host     string `json:"host"`
		LogLevel string `json:"log_level"`
	} `json:"server"`

	Passkey struct {
		RPID      string `json:"rp_id"`
		RPName    string `json:"rp_name"`
		KeyLength int    `json:"key_length"`
	} `json:"passkey"`

	Recovery struct {
		SessionEndpoint string `json:"session_endpoint"`
	} `json:"recovery"`

	Security struct {
		MasterSecret      string `json:"master_secret"`
		SessionTTLMinutes int    `json:"session_ttl_minutes"`
	} `json:"security"`

	Database struct {
		Driver string `json:"driver"`
		DSN    string `json:"dsn"`
	} `json:"database"`

	Storage struct {
		Endpoint  string `json:"endpoint"`
		Region    string `json:"region"`
		AccessKey string `json:"access_key"`
		SecretKey string `json:"secret_key"`
		Bucket    string `json:"bucket"`
	} `json:"storage"`

	Logging struct {
		Directory  string `json:"directory"`
		MaxSize    int64  `json:"max_size"`
		MaxBackups int    `json:"max_backups"`
	} `json:"logging"`
}

// LoadConfig loads the configuration from environment variables and an
// optional JSON file, once per process.
func LoadConfig() (*Config, error) {
	var err error
	configOnce.Do(func() {
		config = &Config{}

		// Load .env file if it exists
		godotenv.Load()

		loadDefaultConfig(config)

		if err = loadEnvConfig(config); err != nil {
			return
		}

		// Load JSON config if specified
		configPath := os.Getenv("CONFIG_FILE")
		if configPath != "" {
			if err = loadJSONConfig(config, configPath); err != nil {
				return
			}
		}

		err = validateConfig(config)
	})

	if err != nil {
		return nil, err
	}

	return config, nil
}

func loadDefaultConfig(cfg *Config) {
	cfg.Server.Port = "8080"
	cfg.Server.Host = "localhost"
	cfg.Passkey.KeyLength = prfkey.DefaultKeyLength
	cfg.Security.SessionTTLMinutes = 10
	cfg.Database.Driver = "rqlite"
	cfg.Database.DSN = "http://localhost:4001"
	cfg.Storage.Region = "us-east-1"
	cfg.Logging.Directory = "logs"
	cfg.Logging.MaxSize = 10 * 1024 * 1024 // 10MB
	cfg.Logging.MaxBackups = 5
}

func loadEnvConfig(cfg *Config) error {
	// Server configuration
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}
	if host := os.Getenv("HOST"); host != "" {
		cfg.Server.Host = host
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		cfg.Server.LogLevel = level
	}

	// Passkey configuration
	if rpID := os.Getenv("PASSKEY_RP_ID"); rpID != "" {
		cfg.Passkey.RPID = rpID
	}
	if rpName := os.Getenv("PASSKEY_RP_NAME"); rpName != "" {
		cfg.Passkey.RPName = rpName
	}
	if keyLength := os.Getenv("PASSKEY_KEY_LENGTH"); keyLength != "" {
		parsed, err := strconv.Atoi(keyLength)
		if err != nil {
			return fmt.Errorf("invalid PASSKEY_KEY_LENGTH: %w", err)
		}
		cfg.Passkey.KeyLength = parsed
	}

	// Recovery configuration
	if endpoint := os.Getenv("SESSION_ENDPOINT"); endpoint != "" {
		cfg.Recovery.SessionEndpoint = endpoint
	}

	// Security configuration
	cfg.Security.MasterSecret = os.Getenv("MASTER_SECRET")
	if ttl := os.Getenv("SESSION_TTL_MINUTES"); ttl != "" {
		parsed, err := strconv.Atoi(ttl)
		if err != nil {
			return fmt.Errorf("invalid SESSION_TTL_MINUTES: %w", err)
		}
		cfg.Security.SessionTTLMinutes = parsed
	}

	// Database configuration
	if driver := os.Getenv("DB_DRIVER"); driver != "" {
		cfg.Database.Driver = driver
	}
	if dsn := os.Getenv("DB_DSN"); dsn != "" {
		cfg.Database.DSN = dsn
	}

	// Storage configuration
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		cfg.Storage.Endpoint = endpoint
	}
	if region := os.Getenv("S3_REGION"); region != "" {
		cfg.Storage.Region = region
	}
	cfg.Storage.AccessKey = os.Getenv("S3_ACCESS_KEY")
	cfg.Storage.SecretKey = os.Getenv("S3_SECRET_KEY")
	cfg.Storage.Bucket = os.Getenv("S3_BUCKET")

	return nil
}

func loadJSONConfig(cfg *Config, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config file: %w", err)
	}
	defer file.Close()

	decoder := json.NewDecoder(file)
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("failed to decode config file: %w", err)
	}

	return nil
}

func validateConfig(cfg *Config) error {
	if cfg.Security.MasterSecret == "" {
		return fmt.Errorf("MASTER_SECRET is required")
	}

	if err := prfkey.ValidateKeyLength(cfg.Passkey.KeyLength); err != nil {
		return fmt.Errorf("invalid passkey key length: %w", err)
	}

	if cfg.Database.Driver != "rqlite" && cfg.Database.Driver != "sqlite3" {
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}

	return nil
}

// GetConfig returns the current configuration
func GetConfig() *Config {
	if config == nil {
		panic("Configuration not loaded")
	}
	return config
}

// ResetForTest clears the loaded configuration so tests can reload with
// different environment variables.
func ResetForTest() {
	config = nil
	configOnce = sync.Once{}
}
