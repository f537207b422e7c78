package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	_ "modernc.org/sqlite"

	"github.com/jbweber/homelab/netmap/internal/migrations"
)

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`

	// AllowedOrigins lists extra page hosts (e.g. a dev server on
	// "localhost:5173") that may open the notification websocket.
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// SandboxConfig bounds the file browser and config endpoints
type SandboxConfig struct {
	Root           string `mapstructure:"root"` // empty means the user's home directory
	FollowSymlinks bool   `mapstructure:"follow_symlinks"`
}

// AssetsConfig locates the static files served to the browser
type AssetsConfig struct {
	IconsDir      string `mapstructure:"icons_dir"`
	InterfacesDir string `mapstructure:"interfaces_dir"`
	DistDir       string `mapstructure:"dist_dir"`
}

// DatabaseConfig locates the sqlite history database
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

// NotificationsConfig tunes the notification service
type NotificationsConfig struct {
	Retention time.Duration `mapstructure:"retention"`
	ToastTTL  time.Duration `mapstructure:"toast_ttl"`
}

// Config holds all configuration for the netmap service
type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Sandbox       SandboxConfig       `mapstructure:"sandbox"`
	Assets        AssetsConfig        `mapstructure:"assets"`
	Database      DatabaseConfig      `mapstructure:"database"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// NewConfig creates a new Config with default values
func NewConfig() *Config {
	return &Config{
		Server:  ServerConfig{Host: "0.0.0.0", Port: 3001},
		Sandbox: SandboxConfig{FollowSymlinks: true},
		Assets: AssetsConfig{
			IconsDir:      "./public/icons",
			InterfacesDir: "./public/configs",
			DistDir:       "./dist",
		},
		Database: DatabaseConfig{Path: "~/.netmap/netmap.db"},
		Notifications: NotificationsConfig{
			Retention: 5 * time.Minute,
			ToastTTL:  2 * time.Second,
		},
	}
}

func setDefaults(v *viper.Viper) {
	d := NewConfig()
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("sandbox.root", d.Sandbox.Root)
	v.SetDefault("sandbox.follow_symlinks", d.Sandbox.FollowSymlinks)
	v.SetDefault("assets.icons_dir", d.Assets.IconsDir)
	v.SetDefault("assets.interfaces_dir", d.Assets.InterfacesDir)
	v.SetDefault("assets.dist_dir", d.Assets.DistDir)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("notifications.retention", d.Notifications.Retention.String())
	v.SetDefault("notifications.toast_ttl", d.Notifications.ToastTTL.String())
}

// Load reads configuration from file and environment variables. An empty
// configPath searches for netmap.yaml in ., ./configs and /etc/netmap.
func Load(configPath string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("netmap")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/netmap")
	}

	// Environment variable support: NETMAP_SERVER_PORT=9090
	v.SetEnvPrefix("NETMAP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		// Config file not found is fine -- use defaults
	}

	return v, nil
}

// FromViper decodes v into a Config and expands ~ in paths.
func FromViper(v *viper.Viper) (*Config, error) {
	c := NewConfig()
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return nil, fmt.Errorf("invalid server port %d", c.Server.Port)
	}

	c.Sandbox.Root = expandPath(c.Sandbox.Root)
	c.Assets.IconsDir = expandPath(c.Assets.IconsDir)
	c.Assets.InterfacesDir = expandPath(c.Assets.InterfacesDir)
	c.Assets.DistDir = expandPath(c.Assets.DistDir)
	c.Database.Path = expandPath(c.Database.Path)
	return c, nil
}

// Addr returns the listen address as host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// InitializeDatabase creates and configures the history database connection
func (c *Config) InitializeDatabase() (*sql.DB, error) {
	dbPath := expandPath(c.Database.Path)

	// Ensure database directory exists
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	OptimizeDatabaseConnection(db)

	if err := ApplyPragmaOptimizations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply performance optimizations: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, nil
}

// expandPath expands ~ to home directory
func expandPath(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		// Return original path if we can't get home dir
		return path
	}

	return filepath.Join(homeDir, strings.TrimPrefix(path[1:], "/"))
}
