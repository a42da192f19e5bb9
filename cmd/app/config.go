package main

import (
	"fmt"
	"strings"
	"time"

	"tonpoints/internal/repository"
	"tonpoints/internal/service"

	"github.com/spf13/viper"
)

const (
	configPath   = "./"
	configName   = "config"
	configFormat = "yaml"
)

type Config struct {
	Database repository.Config `yaml:"database"`
	Server   ServerConfig      `yaml:"server"`

	TelegramAuth TelegramAuthConfig `yaml:"telegramAuth"`
	Admin        AdminConfig        `yaml:"admin"`
	Rewards      RewardsConfig      `yaml:"rewards"`

	LogLevel string `yaml:"logLevel"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

type TelegramAuthConfig struct {
	TelegramBotToken string `yaml:"telegramBotToken"`
	DebugMode        bool   `yaml:"debugMode"`
}

type AdminConfig struct {
	User     string `yaml:"user"`
	Password string `yaml:"password"`
}

type RewardsConfig struct {
	PointsPerAdView                  int64 `yaml:"pointsPerAdView"`
	PoolContributionPerAdView        int64 `yaml:"poolContributionPerAdView"`
	MinimumDwellSeconds              int   `yaml:"minimumDwellSeconds"`
	DistributionCheckIntervalSeconds int   `yaml:"distributionCheckIntervalSeconds"`
	DailyAdLimitPerUser              int   `yaml:"dailyAdLimitPerUser"`
	AdCooldownSeconds                int   `yaml:"adCooldownSeconds"`
}

// RewardConfig converts the file-level knobs into the service config,
// falling back to the engine defaults for anything left unset.
func (r RewardsConfig) RewardConfig() service.RewardConfig {
	cfg := service.DefaultRewardConfig()
	if r.PointsPerAdView > 0 {
		cfg.PointsPerAdView = r.PointsPerAdView
	}
	if r.PoolContributionPerAdView > 0 {
		cfg.PoolContributionPerAdView = r.PoolContributionPerAdView
	}
	if r.MinimumDwellSeconds > 0 {
		cfg.MinimumDwell = time.Duration(r.MinimumDwellSeconds) * time.Second
	}
	if r.DistributionCheckIntervalSeconds > 0 {
		cfg.DistributionCheckInterval = time.Duration(r.DistributionCheckIntervalSeconds) * time.Second
	}
	if r.DailyAdLimitPerUser > 0 {
		cfg.DailyAdLimitPerUser = r.DailyAdLimitPerUser
	}
	if r.AdCooldownSeconds > 0 {
		cfg.AdCooldown = time.Duration(r.AdCooldownSeconds) * time.Second
	}
	return cfg
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName(configName)
	viper.AddConfigPath(configPath)
	viper.SetConfigType(configFormat)

	viper.AutomaticEnv()
	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
