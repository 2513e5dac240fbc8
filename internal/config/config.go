package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	DB      DBConfig      `mapstructure:"db"`
	Journal JournalConfig `mapstructure:"journal"`
	Storage StorageConfig `mapstructure:"storage"`
	Backup  BackupConfig  `mapstructure:"backup"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	HTTPAddr string `mapstructure:"http_addr"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	Timezone        string        `mapstructure:"timezone"`
}

type JournalConfig struct {
	// Reference capital for the overall return percentage; filtered windows
	// add the pnl realized before the window to this figure.
	StartingCapital float64 `mapstructure:"starting_capital"`
	LatestLimit     int     `mapstructure:"latest_limit"`
	HistoryPageSize int     `mapstructure:"history_page_size"`
}

type StorageConfig struct {
	BaseURL    string        `mapstructure:"base_url"`
	APIKeyEnv  string        `mapstructure:"api_key_env"`
	Bucket     string        `mapstructure:"bucket"`
	ObjectPath string        `mapstructure:"object_path"`
	Timeout    time.Duration `mapstructure:"timeout"`
}

type BackupConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Schedule    string `mapstructure:"schedule"`
	PullOnStart bool   `mapstructure:"pull_on_start"`
	// Optional on-disk snapshot next to the remote push; empty disables it.
	LocalPath string `mapstructure:"local_path"`
}

func Load(path string, envOnly bool) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("TJ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.AutomaticEnv()
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.http_addr", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.conn_max_idle_time", "5m")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("journal.starting_capital", 100)
	v.SetDefault("journal.latest_limit", 5)
	v.SetDefault("journal.history_page_size", 10)
	v.SetDefault("storage.base_url", "")
	v.SetDefault("storage.api_key_env", "TJ_STORAGE_API_KEY")
	v.SetDefault("storage.bucket", "trading-journal")
	v.SetDefault("storage.object_path", "trading_journal.csv")
	v.SetDefault("storage.timeout", "15s")
	v.SetDefault("backup.enabled", false)
	v.SetDefault("backup.schedule", "@every 6h")
	v.SetDefault("backup.pull_on_start", false)
	v.SetDefault("backup.local_path", "")

	if !envOnly {
		if err := v.ReadInConfig(); err != nil {
			return Config{}, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
