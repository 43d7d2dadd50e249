package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"

	defaultServerAddress  = "localhost:8080"
	defaultLogLevel       = "info"
	defaultConfigDir      = ".pacekeeper"
	defaultReconcileDelay = 1500 * time.Millisecond
	defaultWriteTimeout   = 10 * time.Second
	defaultReadTimeout    = 5 * time.Second
)

type Config struct {
	Env            string        `mapstructure:"app_env"`
	ServerAddress  string        `mapstructure:"server_address"`
	LogLevel       string        `mapstructure:"log_level"`
	ConfigDir      string        `mapstructure:"config_dir"`
	TokenPath      string        `mapstructure:"token_path"`
	CachePath      string        `mapstructure:"cache_path"`
	SyncInterval   int           `mapstructure:"sync_interval_seconds"`
	ReconcileDelay time.Duration `mapstructure:"reconcile_delay"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	EnableTLS      bool          `mapstructure:"enable_tls"`
	MetricsAddr    string        `mapstructure:"metrics_addr"`
}

// MustLoad загружает конфигурацию клиента
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Sprintf("Ошибка конфигурации: %v", err))
	}
	return cfg
}

// Load читает .env, переменные окружения и значения по умолчанию
func Load() (*Config, error) {
	envPath := ".env"
	if _, err := os.Stat(envPath); os.IsNotExist(err) {
		envPath = "../.env"
	}

	if _, err := os.Stat(envPath); err == nil {
		if err := godotenv.Load(envPath); err != nil {
			fmt.Printf("Ошибка загрузки .env файла: %v\n", err)
		}
	}

	viper.AutomaticEnv()

	viper.SetDefault("APP_ENV", EnvLocal)
	viper.SetDefault("SERVER_ADDRESS", defaultServerAddress)
	viper.SetDefault("LOG_LEVEL", defaultLogLevel)
	viper.SetDefault("CONFIG_DIR", defaultConfigDir)
	viper.SetDefault("SYNC_INTERVAL_SECONDS", 30)
	viper.SetDefault("RECONCILE_DELAY_MS", defaultReconcileDelay.Milliseconds())
	viper.SetDefault("WRITE_TIMEOUT_SECONDS", int(defaultWriteTimeout.Seconds()))
	viper.SetDefault("READ_TIMEOUT_SECONDS", int(defaultReadTimeout.Seconds()))
	viper.SetDefault("ENABLE_TLS", false)
	viper.SetDefault("METRICS_ADDR", "")

	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}

	configDir := viper.GetString("CONFIG_DIR")
	if configDir == defaultConfigDir {
		configDir = filepath.Join(homeDir, configDir)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return nil, fmt.Errorf("ошибка создания директории конфигурации: %w", err)
	}

	cfg := &Config{
		Env:            viper.GetString("APP_ENV"),
		ServerAddress:  viper.GetString("SERVER_ADDRESS"),
		LogLevel:       viper.GetString("LOG_LEVEL"),
		ConfigDir:      configDir,
		TokenPath:      filepath.Join(configDir, "token"),
		CachePath:      filepath.Join(configDir, "cache.db"),
		SyncInterval:   viper.GetInt("SYNC_INTERVAL_SECONDS"),
		ReconcileDelay: time.Duration(viper.GetInt64("RECONCILE_DELAY_MS")) * time.Millisecond,
		WriteTimeout:   time.Duration(viper.GetInt("WRITE_TIMEOUT_SECONDS")) * time.Second,
		ReadTimeout:    time.Duration(viper.GetInt("READ_TIMEOUT_SECONDS")) * time.Second,
		EnableTLS:      viper.GetBool("ENABLE_TLS"),
		MetricsAddr:    viper.GetString("METRICS_ADDR"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.ServerAddress == "" {
		return fmt.Errorf("server_address не может быть пустым")
	}
	if c.SyncInterval <= 0 {
		return fmt.Errorf("sync_interval_seconds должен быть положительным")
	}
	if c.ReconcileDelay < 0 {
		return fmt.Errorf("reconcile_delay_ms не может быть отрицательным")
	}
	if c.WriteTimeout <= 0 || c.ReadTimeout <= 0 {
		return fmt.Errorf("таймауты должны быть положительными")
	}
	return nil
}

// IsProd проверяет, prod ли окружение
func (c *Config) IsProd() bool {
	return c.Env == EnvProd
}

// IsDev проверяет, dev ли окружение
func (c *Config) IsDev() bool {
	return c.Env == EnvDev
}

// IsLocal проверяет, local ли окружение
func (c *Config) IsLocal() bool {
	return c.Env == EnvLocal || c.Env == ""
}
