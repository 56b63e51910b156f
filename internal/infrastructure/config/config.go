package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Log      LogConfig
	HTTP     HTTPConfig
	Import   ImportConfig
}

// AppConfig holds application-specific settings
type AppConfig struct {
	Name string
	Env  string
	Port string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis connection settings. Redis is optional: when
// Enabled is false the task store stays in-process.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// HTTPConfig holds HTTP server configuration
type HTTPConfig struct {
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	MaxHeaderBytes int
	MaxUploadSize  int64
	TrustedProxies []string
}

// WarehouseConfig identifies one posting warehouse.
type WarehouseConfig struct {
	ID   uint
	Code string
	Name string
}

// ImportConfig holds the spreadsheet import pipeline settings. The
// warehouses, fallback supplier, VAT policy inputs, and reconcile policy
// were hardcoded in the legacy flows and are explicit configuration here.
type ImportConfig struct {
	BatchSize           int
	TempDir             string
	ReportDir           string
	TaskTTL             time.Duration
	VATRate             float64
	VATLiableCategories []string
	SourceWarehouse     WarehouseConfig
	DestWarehouse       WarehouseConfig
	DefaultSupplierID   uint
	DefaultSupplier     string
	ReconcilePolicy     string // skip, update
	ResyncPrices        bool
	CreatedBy           uint
}

// Load loads configuration from TOML file and environment variables
// Priority (highest to lowest):
// 1. Environment variables with PHARMASYNC_ prefix
// 2. config.toml
// 3. Built-in defaults
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("toml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found is OK, we'll use defaults and env vars
	}

	v.SetEnvPrefix("PHARMASYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
			Port: v.GetString("app.port"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		HTTP: HTTPConfig{
			ReadTimeout:    v.GetDuration("http.read_timeout"),
			WriteTimeout:   v.GetDuration("http.write_timeout"),
			IdleTimeout:    v.GetDuration("http.idle_timeout"),
			MaxHeaderBytes: v.GetInt("http.max_header_bytes"),
			MaxUploadSize:  v.GetInt64("http.max_upload_size"),
			TrustedProxies: v.GetStringSlice("http.trusted_proxies"),
		},
		Import: ImportConfig{
			BatchSize:           v.GetInt("import.batch_size"),
			TempDir:             v.GetString("import.temp_dir"),
			ReportDir:           v.GetString("import.report_dir"),
			TaskTTL:             v.GetDuration("import.task_ttl"),
			VATRate:             v.GetFloat64("import.vat_rate"),
			VATLiableCategories: v.GetStringSlice("import.vat_liable_categories"),
			SourceWarehouse: WarehouseConfig{
				ID:   v.GetUint("import.source_warehouse.id"),
				Code: v.GetString("import.source_warehouse.code"),
				Name: v.GetString("import.source_warehouse.name"),
			},
			DestWarehouse: WarehouseConfig{
				ID:   v.GetUint("import.dest_warehouse.id"),
				Code: v.GetString("import.dest_warehouse.code"),
				Name: v.GetString("import.dest_warehouse.name"),
			},
			DefaultSupplierID: v.GetUint("import.default_supplier_id"),
			DefaultSupplier:   v.GetString("import.default_supplier"),
			ReconcilePolicy:   v.GetString("import.reconcile_policy"),
			ResyncPrices:      v.GetBool("import.resync_prices"),
			CreatedBy:         v.GetUint("import.created_by"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "pharmasync-backend"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.App.Port == "" {
		cfg.App.Port = "8080"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "pharmasync"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 60
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 30
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "console"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.HTTP.ReadTimeout == 0 {
		cfg.HTTP.ReadTimeout = 15 * time.Second
	}
	if cfg.HTTP.WriteTimeout == 0 {
		cfg.HTTP.WriteTimeout = 30 * time.Second
	}
	if cfg.HTTP.IdleTimeout == 0 {
		cfg.HTTP.IdleTimeout = 60 * time.Second
	}
	if cfg.HTTP.MaxHeaderBytes == 0 {
		cfg.HTTP.MaxHeaderBytes = 1 << 20 // 1MB
	}
	if cfg.HTTP.MaxUploadSize == 0 {
		cfg.HTTP.MaxUploadSize = 20 << 20 // 20MB
	}
	if cfg.Import.BatchSize == 0 {
		cfg.Import.BatchSize = 100
	}
	if cfg.Import.TempDir == "" {
		cfg.Import.TempDir = "/tmp/pharmasync/uploads"
	}
	if cfg.Import.ReportDir == "" {
		cfg.Import.ReportDir = "/tmp/pharmasync/reports"
	}
	if cfg.Import.TaskTTL == 0 {
		cfg.Import.TaskTTL = 24 * time.Hour
	}
	if cfg.Import.VATRate == 0 {
		cfg.Import.VATRate = 0.15
	}
	if cfg.Import.SourceWarehouse.ID == 0 {
		cfg.Import.SourceWarehouse = WarehouseConfig{ID: 32, Code: "MAIN", Name: "Main warehouse"}
	}
	if cfg.Import.DestWarehouse.ID == 0 {
		cfg.Import.DestWarehouse = WarehouseConfig{ID: 38, Code: "SHOP", Name: "Shop floor"}
	}
	if cfg.Import.DefaultSupplier == "" {
		cfg.Import.DefaultSupplier = "Internal supplier"
	}
	if cfg.Import.DefaultSupplierID == 0 {
		cfg.Import.DefaultSupplierID = 686
	}
	if cfg.Import.ReconcilePolicy == "" {
		cfg.Import.ReconcilePolicy = "skip"
	}
	if cfg.Import.CreatedBy == 0 {
		cfg.Import.CreatedBy = 1
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}

	if c.Import.BatchSize <= 0 {
		return fmt.Errorf("import.batch_size must be positive")
	}
	if c.Import.VATRate < 0 || c.Import.VATRate >= 1 {
		return fmt.Errorf("import.vat_rate must be a fraction in [0, 1), got %f", c.Import.VATRate)
	}
	switch c.Import.ReconcilePolicy {
	case "skip", "update":
	default:
		return fmt.Errorf("import.reconcile_policy must be 'skip' or 'update', got %q", c.Import.ReconcilePolicy)
	}
	if c.Import.SourceWarehouse.ID == c.Import.DestWarehouse.ID {
		return fmt.Errorf("import.source_warehouse and import.dest_warehouse must differ")
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the Redis host:port address.
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}
