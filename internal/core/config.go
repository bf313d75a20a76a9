package core

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Database struct {
	Type             string `yaml:"type"`
	ConnectionString string `yaml:"connectionString"`
}

type Cache struct {
	Type    string `yaml:"type"`
	Address string `yaml:"address"`
}

type ServiceConfig struct {
	Port int `yaml:"port"`
	// ClientURL is the single origin allowed to make cross-origin requests.
	ClientURL string `yaml:"clientUrl"`
	// AdminPassword is baked into the served pages and compared in the
	// browser. It is a convenience gate, not an access control mechanism.
	AdminPassword string   `yaml:"adminPassword"`
	UploadsDir    string   `yaml:"uploadsDir"`
	Database      Database `yaml:"database"`
	Cache         Cache    `yaml:"cache"`
}

// LoadConfig loads configuration from the specified YAML file. A .env file in
// the working directory is loaded first when present; individual environment
// variables override file values.
func LoadConfig(configPath string) (*ServiceConfig, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Read the config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
	}

	// Parse YAML
	var config ServiceConfig
	err = yaml.Unmarshal(data, &config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", configPath, err)
	}

	applyEnvOverrides(&config)
	applyDefaults(&config)

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

func applyEnvOverrides(config *ServiceConfig) {
	if port, err := strconv.Atoi(os.Getenv("PORT")); err == nil {
		config.Port = port
	}
	if clientURL := os.Getenv("CLIENT_URL"); clientURL != "" {
		config.ClientURL = clientURL
	}
	if password := os.Getenv("ADMIN_PASSWORD"); password != "" {
		config.AdminPassword = password
	}
	if uploadsDir := os.Getenv("UPLOADS_DIR"); uploadsDir != "" {
		config.UploadsDir = uploadsDir
	}
	if connectionString := os.Getenv("DATABASE_CONNECTION_STRING"); connectionString != "" {
		config.Database.ConnectionString = connectionString
	}
	if cacheType := os.Getenv("CACHE_TYPE"); cacheType != "" {
		config.Cache.Type = cacheType
	}
	if address := os.Getenv("REDIS_ADDRESS"); address != "" {
		config.Cache.Address = address
	}
}

func applyDefaults(config *ServiceConfig) {
	if config.Port == 0 {
		config.Port = 8080
	}
	if config.UploadsDir == "" {
		config.UploadsDir = "uploads"
	}
	if config.Database.Type == "" {
		config.Database.Type = "sqlite"
	}
	if config.Database.ConnectionString == "" {
		config.Database.ConnectionString = "imagevault.db"
	}
	if config.Cache.Type == "" {
		config.Cache.Type = "none"
	}
}

func validateConfig(config *ServiceConfig) error {
	if config.Port < 1 || config.Port > 65535 {
		return fmt.Errorf("port %d out of range", config.Port)
	}
	if config.Cache.Type == "redis" && config.Cache.Address == "" {
		return fmt.Errorf("cache type redis requires an address")
	}
	return nil
}
