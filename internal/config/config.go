package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// Config is the application configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	SSH       SSHConfig       `mapstructure:"ssh"`
	Collector CollectorConfig `mapstructure:"collector"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Backup    BackupConfig    `mapstructure:"backup"`
	Log       LogConfig       `mapstructure:"log"`
}

// ServerConfig configures the HTTP API server.
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// SSHConfig configures the device transport.
type SSHConfig struct {
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	KeepAlive      time.Duration `mapstructure:"keep_alive"`
	DefaultPort    int           `mapstructure:"default_port"`
}

// CollectorConfig bounds the driver pool.
type CollectorConfig struct {
	MaxSessions int           `mapstructure:"max_sessions"`
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig configures persistence.
type DatabaseConfig struct {
	SQLite SQLiteConfig `mapstructure:"sqlite"`
}

// SQLiteConfig configures the inventory database.
type SQLiteConfig struct {
	Path            string        `mapstructure:"path"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// BackupConfig configures configuration-snapshot archiving.
type BackupConfig struct {
	// StorageBackend selects where snapshots land: local | minio
	StorageBackend string            `mapstructure:"storage_backend"`
	Prefix         string            `mapstructure:"prefix"`
	Local          LocalBackupConfig `mapstructure:"local"`
	Minio          MinioConfig       `mapstructure:"minio"`
}

// LocalBackupConfig configures filesystem snapshot storage.
type LocalBackupConfig struct {
	BaseDir        string `mapstructure:"base_dir"`
	MkdirIfMissing bool   `mapstructure:"mkdir_if_missing"`
}

// MinioConfig configures object-storage snapshot archiving.
type MinioConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	AccessKey string `mapstructure:"access_key"`
	SecretKey string `mapstructure:"secret_key"`
	Bucket    string `mapstructure:"bucket"`
	Secure    bool   `mapstructure:"secure"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

var globalConfig *Config

// Load reads the YAML config, applies defaults and env overrides.
func Load(configPath string) (*Config, error) {
	viper.SetConfigType("yaml")

	setDefaults()

	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.SetConfigName("config")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("../configs")
	}

	viper.SetEnvPrefix("HIOS_COLLECTOR")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	globalConfig = &config
	return &config, nil
}

// Watch re-reads the config file on change and invokes the callback with
// the fresh value. Used to re-apply the log level without a restart.
func Watch(onChange func(*Config)) {
	viper.OnConfigChange(func(e fsnotify.Event) {
		var config Config
		if err := viper.Unmarshal(&config); err != nil {
			return
		}
		globalConfig = &config
		if onChange != nil {
			onChange(&config)
		}
	})
	viper.WatchConfig()
}

func setDefaults() {
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "release")
	viper.SetDefault("server.read_timeout", 30*time.Second)
	viper.SetDefault("server.write_timeout", 120*time.Second)

	viper.SetDefault("ssh.connect_timeout", 10*time.Second)
	viper.SetDefault("ssh.command_timeout", 60*time.Second)
	viper.SetDefault("ssh.keep_alive", 30*time.Second)
	viper.SetDefault("ssh.default_port", 22)

	viper.SetDefault("collector.max_sessions", 32)
	viper.SetDefault("collector.idle_timeout", 5*time.Minute)

	viper.SetDefault("database.sqlite.path", "./data/hioscollector.db")
	viper.SetDefault("database.sqlite.conn_max_lifetime", time.Hour)

	viper.SetDefault("backup.storage_backend", "local")
	viper.SetDefault("backup.prefix", "configs")
	viper.SetDefault("backup.local.base_dir", "./data/backups")
	viper.SetDefault("backup.local.mkdir_if_missing", true)

	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "console")
}

// Get returns the loaded global configuration.
func Get() *Config {
	return globalConfig
}

// GetServerAddr returns the HTTP listen address.
func (c *Config) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
