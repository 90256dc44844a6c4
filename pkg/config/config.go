package config

import (
	"errors"

	"github.com/spf13/viper"
)

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

type AmqpConfig struct {
	Url    string `mapstructure:"url"`
	Prefix string `mapstructure:"prefix"`
}

type LookupConfig struct {
	// Dsn points at the database holding the attribute lookup
	// table. Empty disables the fast path entirely.
	Dsn string `mapstructure:"dsn"`
}

// Config is the service level configuration: addresses, credentials
// and directories. The merchant filter configuration lives in the
// ConfigStore, not here.
type Config struct {
	Server  ServerConfig `mapstructure:"server"`
	Redis   RedisConfig  `mapstructure:"redis"`
	Amqp    AmqpConfig   `mapstructure:"amqp"`
	Lookup  LookupConfig `mapstructure:"lookup"`
	DataDir string       `mapstructure:"data_dir"`
}

func Load() (*Config, error) {
	viper.SetConfigName("slask-filter")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("/etc/slask-filter")

	viper.SetDefault("server.port", 8080)
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("amqp.url", "")
	viper.SetDefault("amqp.prefix", "shop")
	viper.SetDefault("lookup.dsn", "")
	viper.SetDefault("data_dir", "data")

	viper.SetEnvPrefix("SLASK_FILTER")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}
