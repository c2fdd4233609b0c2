package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Log       LogConfig
	Store     StoreConfig
	Order     OrderConfig
	Inventory InventoryConfig
}

type ServerConfig struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Name            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type LogConfig struct {
	Level       string
	Development bool
}

type StoreConfig struct {
	Backend        string
	SeedFile       string
	MigrateOnStart bool
}

type OrderConfig struct {
	TransitionTxTimeout time.Duration
	MaxRetryAttempts    int
}

type InventoryConfig struct {
	NegativeStock string
}

// Load reads the optional YAML file at path; ALMOXARIFE_* environment
// variables override it (server.port -> ALMOXARIFE_SERVER_PORT).
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.idle_timeout", "30s")
	v.SetDefault("server.shutdown_timeout", "10s")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.user", "almoxarife")
	v.SetDefault("database.password", "secret")
	v.SetDefault("database.name", "almoxarife")
	v.SetDefault("database.max_open_conns", 25)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "5m")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)
	v.SetDefault("store.backend", BackendMemory)
	v.SetDefault("store.seed_file", "")
	v.SetDefault("store.migrate_on_start", true)
	v.SetDefault("order.transition_tx_timeout", "5s")
	v.SetDefault("order.max_retry_attempts", 3)
	v.SetDefault("inventory.negative_stock", "allow")

	v.SetEnvPrefix("ALMOXARIFE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	connMaxLifetime, err := time.ParseDuration(v.GetString("database.conn_max_lifetime"))
	if err != nil {
		return nil, fmt.Errorf("parsing database.conn_max_lifetime: %w", err)
	}

	txTimeout, err := time.ParseDuration(v.GetString("order.transition_tx_timeout"))
	if err != nil {
		return nil, fmt.Errorf("parsing order.transition_tx_timeout: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetInt("server.port"),
			ReadTimeout:     v.GetDuration("server.read_timeout"),
			WriteTimeout:    v.GetDuration("server.write_timeout"),
			IdleTimeout:     v.GetDuration("server.idle_timeout"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			Name:            v.GetString("database.name"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: connMaxLifetime,
		},
		Log: LogConfig{
			Level:       v.GetString("log.level"),
			Development: v.GetBool("log.development"),
		},
		Store: StoreConfig{
			Backend:        strings.ToLower(v.GetString("store.backend")),
			SeedFile:       v.GetString("store.seed_file"),
			MigrateOnStart: v.GetBool("store.migrate_on_start"),
		},
		Order: OrderConfig{
			TransitionTxTimeout: txTimeout,
			MaxRetryAttempts:    v.GetInt("order.max_retry_attempts"),
		},
		Inventory: InventoryConfig{
			NegativeStock: strings.ToLower(v.GetString("inventory.negative_stock")),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Backend {
	case BackendMemory, BackendMySQL:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}

	switch c.Inventory.NegativeStock {
	case "allow", "reject":
	default:
		return fmt.Errorf("inventory.negative_stock must be allow or reject, got %q", c.Inventory.NegativeStock)
	}

	if c.Order.MaxRetryAttempts < 1 {
		return fmt.Errorf("order.max_retry_attempts must be at least 1")
	}

	return nil
}
