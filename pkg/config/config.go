package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "STOREFRONT"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Admin   AdminConfig   `mapstructure:"admin"`
	Etcd    EtcdConfig    `mapstructure:"etcd"`
	Redis   RedisConfig   `mapstructure:"redis"`
	MySQL   MySQLConfig   `mapstructure:"mysql"`
	MongoDB MongoDBConfig `mapstructure:"mongodb"`
	Store   StoreConfig   `mapstructure:"store"`
	Session SessionConfig `mapstructure:"session"`
	Shop    ShopConfig    `mapstructure:"shop"`
	Payment PaymentConfig `mapstructure:"payment"`
	Log     LogConfig     `mapstructure:"log"`
}

// ServerConfig is the public HTTP listener.
type ServerConfig struct {
	Name            string        `mapstructure:"name"`
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// AdminConfig is the back-office gRPC listener.
type AdminConfig struct {
	Name string `mapstructure:"name"`
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
}

type EtcdConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Endpoints   []string      `mapstructure:"endpoints"`
	DialTimeout time.Duration `mapstructure:"dial_timeout"`
	Prefix      string        `mapstructure:"prefix"`
	LeaseTTL    int64         `mapstructure:"lease_ttl"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	PoolSize int    `mapstructure:"pool_size"`
}

type MySQLConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
	Database     string `mapstructure:"database"`
	MaxIdleConns int    `mapstructure:"max_idle_conns"`
	MaxOpenConns int    `mapstructure:"max_open_conns"`
}

type MongoDBConfig struct {
	URI             string `mapstructure:"uri"`
	Database        string `mapstructure:"database"`
	AuditCollection string `mapstructure:"audit_collection"`
}

// StoreConfig selects the content-store and session-store backends.
type StoreConfig struct {
	Driver        string `mapstructure:"driver"`         // mongodb, mysql or memory
	SessionDriver string `mapstructure:"session_driver"` // redis or memory
	Seed          bool   `mapstructure:"seed"`
}

type SessionConfig struct {
	CookieName     string        `mapstructure:"cookie_name"`
	TTL            time.Duration `mapstructure:"ttl"`
	Secure         bool          `mapstructure:"secure"`
	IdempotencyTTL time.Duration `mapstructure:"idempotency_ttl"`
}

type ShopConfig struct {
	Currency              string  `mapstructure:"currency"`
	ShippingFee           float64 `mapstructure:"shipping_fee"`
	FreeShippingThreshold float64 `mapstructure:"free_shipping_threshold"`
}

type PaymentConfig struct {
	SecretKey string `mapstructure:"secret_key"`
	ReturnURL string `mapstructure:"return_url"`
}

type LogConfig struct {
	Level       string   `mapstructure:"level"`
	Encoding    string   `mapstructure:"encoding"`
	OutputPaths []string `mapstructure:"output_paths"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.name", "storefront")
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)

	v.SetDefault("admin.name", "storefront-admin")
	v.SetDefault("admin.host", "127.0.0.1")
	v.SetDefault("admin.port", 50061)

	v.SetDefault("etcd.enabled", false)
	v.SetDefault("etcd.endpoints", []string{"127.0.0.1:2379"})
	v.SetDefault("etcd.dial_timeout", 5*time.Second)
	v.SetDefault("etcd.prefix", "/services/")
	v.SetDefault("etcd.lease_ttl", 30)

	v.SetDefault("redis.addr", "127.0.0.1:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.pool_size", 10)

	v.SetDefault("mysql.host", "127.0.0.1")
	v.SetDefault("mysql.port", 3306)
	v.SetDefault("mysql.username", "storefront")
	v.SetDefault("mysql.password", "")
	v.SetDefault("mysql.database", "storefront")
	v.SetDefault("mysql.max_idle_conns", 5)
	v.SetDefault("mysql.max_open_conns", 20)

	v.SetDefault("mongodb.uri", "mongodb://127.0.0.1:27017")
	v.SetDefault("mongodb.database", "storefront")
	v.SetDefault("mongodb.audit_collection", "audit_logs")

	v.SetDefault("store.driver", "mongodb")
	v.SetDefault("store.session_driver", "redis")
	v.SetDefault("store.seed", false)

	v.SetDefault("session.cookie_name", "sf_session")
	v.SetDefault("session.ttl", 30*24*time.Hour)
	v.SetDefault("session.secure", false)
	v.SetDefault("session.idempotency_ttl", 24*time.Hour)

	v.SetDefault("shop.currency", "usd")
	v.SetDefault("shop.shipping_fee", 15.0)
	v.SetDefault("shop.free_shipping_threshold", 0.0)

	v.SetDefault("payment.secret_key", "")
	v.SetDefault("payment.return_url", "http://localhost:3000/ordercompleted")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "json")
	v.SetDefault("log.output_paths", []string{"stdout"})
}

// Load reads configPath (optional when empty), a .env file in the working
// directory if present, and STOREFRONT_* environment overrides.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate rejects configurations the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "mongodb", "mysql", "memory":
	default:
		return fmt.Errorf("unknown store.driver %q", c.Store.Driver)
	}
	switch c.Store.SessionDriver {
	case "redis", "memory":
	default:
		return fmt.Errorf("unknown store.session_driver %q", c.Store.SessionDriver)
	}
	if c.Shop.ShippingFee < 0 || c.Shop.FreeShippingThreshold < 0 {
		return errors.New("shop.shipping_fee and shop.free_shipping_threshold must be >= 0")
	}
	if c.Shop.Currency == "" {
		return errors.New("shop.currency is required")
	}
	return nil
}

func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Database)
}

func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func (c *AdminConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
