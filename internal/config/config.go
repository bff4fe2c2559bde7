package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/FreePeak/inventory-dashboard/pkg/db"
)

// DefaultEnvFile is read by LoadConfig when present
const DefaultEnvFile = ".env"

// Config holds all server configuration
type Config struct {
	ServerPort   int
	LogLevel     string
	QueryTimeout time.Duration
	DBConfig     DatabaseConfig
	Inventory    InventoryConfig
	Container    ContainerConfig
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Type     string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Path     string
}

// InventoryConfig names the table the dashboard edits
type InventoryConfig struct {
	Table     string
	KeyColumn string
}

// ContainerConfig describes the container the dashboard runs in
type ContainerConfig struct {
	Name       string
	ContextDir string
}

// LoadConfig loads the configuration from an optional .env file in the working
// directory and the environment
func LoadConfig() (*Config, error) {
	return LoadConfigFrom(DefaultEnvFile)
}

// LoadConfigFrom loads the configuration from the given env file and the
// environment. Variables already set in the environment win over the file.
// A missing file is not an error.
func LoadConfigFrom(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	port, err := getEnvInt("SERVER_PORT", 3000)
	if err != nil {
		return nil, err
	}
	dbPort, err := getEnvInt("DB_PORT", 3306)
	if err != nil {
		return nil, err
	}
	timeoutMs, err := getEnvInt("QUERY_TIMEOUT_MS", 5000)
	if err != nil {
		return nil, err
	}

	return &Config{
		ServerPort:   port,
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		QueryTimeout: time.Duration(timeoutMs) * time.Millisecond,
		DBConfig: DatabaseConfig{
			Type:     getEnv("DB_TYPE", "mysql"),
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     dbPort,
			User:     getEnv("DB_USER", ""),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", ""),
			Path:     getEnv("DB_PATH", "inventory.db"),
		},
		Inventory: InventoryConfig{
			Table:     getEnv("INVENTORY_TABLE", "inventory"),
			KeyColumn: getEnv("INVENTORY_KEY_COLUMN", "hash_key"),
		},
		Container: ContainerConfig{
			Name:       getEnv("CONTAINER_NAME", "inventory"),
			ContextDir: getEnv("CONTAINER_CONTEXT", "."),
		},
	}, nil
}

// Database converts the database section into a connection config
func (c *Config) Database() db.Config {
	return db.Config{
		Type:     c.DBConfig.Type,
		Host:     c.DBConfig.Host,
		Port:     c.DBConfig.Port,
		User:     c.DBConfig.User,
		Password: c.DBConfig.Password,
		Name:     c.DBConfig.Name,
		Path:     c.DBConfig.Path,
	}
}

// getEnv gets an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvInt gets an integer environment variable or returns a default value
func getEnvInt(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q for %s: %w", value, key, err)
	}
	return n, nil
}
