package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App     AppConfig     `mapstructure:"app"`
	Backend BackendConfig `mapstructure:"backend"`
	Store   StoreConfig   `mapstructure:"store"`
	Redis   RedisConfig   `mapstructure:"redis"`
	Fees    FeesConfig    `mapstructure:"fees"`
	Mock    MockConfig    `mapstructure:"mock"`
}

type AppConfig struct {
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

type BackendConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type StoreConfig struct {
	Driver     string `mapstructure:"driver"` // "file", "memory" or "redis"
	Path       string `mapstructure:"path"`
	Passphrase string `mapstructure:"passphrase"` // 用于加密本地保存的私钥和助记词 (WALLET_STORE_PASSPHRASE)
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// FeesConfig holds per-network gas price overrides that are answered
// locally instead of asking the backend.
type FeesConfig struct {
	Static map[string]string `mapstructure:"static"`
}

type MockConfig struct {
	HttpPort        string `mapstructure:"http_port"`
	TwoFactorCode   string `mapstructure:"two_factor_code"`
	StartingBalance string `mapstructure:"starting_balance"`
	GasPrice        string `mapstructure:"gas_price"`
}

var Global Config

// Init loads the configuration into Global. An empty cfgFile searches for
// config.yaml in the working directory and in ~/.wallet-cli.
func Init(cfgFile string) error {
	cfg, err := Load(viper.GetViper(), cfgFile)
	if err != nil {
		return err
	}
	Global = *cfg
	return nil
}

// Load reads configuration through v. Missing config files are not an error;
// defaults and WALLET_* environment variables still apply.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(defaultHome())
	}

	v.SetEnvPrefix("wallet")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	cfg.Backend.BaseURL = strings.TrimRight(cfg.Backend.BaseURL, "/")
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.log_level", "warn")

	v.SetDefault("backend.base_url", "https://api.agrotest.online")
	v.SetDefault("backend.timeout", 15*time.Second)

	v.SetDefault("store.driver", "file")
	v.SetDefault("store.path", filepath.Join(defaultHome(), "prefs.json"))

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "wallet:prefs:")

	// BSC-Testnet 的手续费接口不可用，沿用固定值
	v.SetDefault("fees.static", map[string]string{"BSC-Testnet": "0.00009"})

	v.SetDefault("mock.http_port", "8089")
	v.SetDefault("mock.two_factor_code", "123456")
	v.SetDefault("mock.starting_balance", "1")
	v.SetDefault("mock.gas_price", "0.00002")
}

func defaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".wallet-cli"
	}
	return filepath.Join(home, ".wallet-cli")
}
