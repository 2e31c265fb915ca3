package config

import (
	"errors"
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Storage  StorageConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Shipping ShippingConfig
	Admin    AdminConfig
}

type ServerConfig struct {
	Port string
	Env  string
}

type StorageConfig struct {
	// DataDir holds the three JSON table files.
	DataDir string
	// SeedFile optionally points at an initial catalog, loaded once
	// when the product table is empty.
	SeedFile string
}

type RedisConfig struct {
	// Enabled turns on redis-backed rate limiting for auth endpoints.
	Enabled  bool
	Host     string
	Port     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret        string
	AccessExpiry  int // in minutes
	RefreshExpiry int // in days
}

type ShippingConfig struct {
	// StandardCost is the flat shipping fee charged to non-premium
	// customers, in integer currency units.
	StandardCost int
}

type AdminConfig struct {
	// Bootstrap admin account, created at startup if missing. This is
	// the only way an admin account comes to exist.
	Email    string
	Password string
	Name     string
}

// Validate rejects configurations that must never reach production.
// An empty JWT secret would mean signing tokens with an empty HS256
// key.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" && c.Server.Env == "production" {
		return errors.New("JWT_SECRET is required in production")
	}
	return nil
}

func Load() *Config {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set defaults
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("SERVER_ENV", "development")
	viper.SetDefault("DATA_DIR", "data")
	viper.SetDefault("SEED_FILE", "")
	viper.SetDefault("REDIS_ENABLED", false)
	viper.SetDefault("REDIS_HOST", "localhost")
	viper.SetDefault("REDIS_PORT", "6379")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("JWT_ACCESS_EXPIRY", 15)
	viper.SetDefault("JWT_REFRESH_EXPIRY", 7)
	viper.SetDefault("SHIPPING_STANDARD_COST", 8000)
	viper.SetDefault("ADMIN_NAME", "Administrador")

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: Could not read config file: %v", err)
	}

	return &Config{
		Server: ServerConfig{
			Port: viper.GetString("SERVER_PORT"),
			Env:  viper.GetString("SERVER_ENV"),
		},
		Storage: StorageConfig{
			DataDir:  viper.GetString("DATA_DIR"),
			SeedFile: viper.GetString("SEED_FILE"),
		},
		Redis: RedisConfig{
			Enabled:  viper.GetBool("REDIS_ENABLED"),
			Host:     viper.GetString("REDIS_HOST"),
			Port:     viper.GetString("REDIS_PORT"),
			Password: viper.GetString("REDIS_PASSWORD"),
			DB:       viper.GetInt("REDIS_DB"),
		},
		JWT: JWTConfig{
			Secret:        viper.GetString("JWT_SECRET"),
			AccessExpiry:  viper.GetInt("JWT_ACCESS_EXPIRY"),
			RefreshExpiry: viper.GetInt("JWT_REFRESH_EXPIRY"),
		},
		Shipping: ShippingConfig{
			StandardCost: viper.GetInt("SHIPPING_STANDARD_COST"),
		},
		Admin: AdminConfig{
			Email:    viper.GetString("ADMIN_EMAIL"),
			Password: viper.GetString("ADMIN_PASSWORD"),
			Name:     viper.GetString("ADMIN_NAME"),
		},
	}
}
