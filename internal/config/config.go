package config

import "github.com/spf13/viper"

type Config struct {
	ServerPort         string `mapstructure:"SERVER_PORT"`
	LogDir             string `mapstructure:"LOG_DIR"`
	ArchiveDir         string `mapstructure:"ARCHIVE_DIR"`
	BackupDir          string `mapstructure:"BACKUP_DIR"`
	StaticDir          string `mapstructure:"STATIC_DIR"`
	RedisAddr          string `mapstructure:"REDIS_ADDR"`
	RedisPassword      string `mapstructure:"REDIS_PASSWORD"`
	MockProducer       bool   `mapstructure:"MOCK_PRODUCER"`
	ProducerIntervalMS int    `mapstructure:"PRODUCER_INTERVAL_MS"`
}

func Load() Config {
	viper.AutomaticEnv()
	viper.SetDefault("SERVER_PORT", ":8080")
	viper.SetDefault("LOG_DIR", "flight_logs")
	viper.SetDefault("ARCHIVE_DIR", "flight_logs/archive")
	viper.SetDefault("BACKUP_DIR", "flight_logs/backup")
	viper.SetDefault("STATIC_DIR", "public")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("MOCK_PRODUCER", false)
	viper.SetDefault("PRODUCER_INTERVAL_MS", 500)

	var cfg Config
	_ = viper.Unmarshal(&cfg)
	return cfg
}
