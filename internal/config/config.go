package config

import (
	"fmt"
	"time"

	"github.com/smsbulk293/bulksend/pkg/mysql"
	"github.com/smsbulk293/bulksend/pkg/smsprovider"
	"github.com/spf13/viper"
)

type Config struct {
	API      API                `mapstructure:"api"`
	Database mysql.Config       `mapstructure:"database"`
	Pricing  Pricing            `mapstructure:"pricing"`
	Dispatch Dispatch           `mapstructure:"dispatch"`
	Provider smsprovider.Config `mapstructure:"provider"`
}

type API struct {
	Port              string `mapstructure:"port"`
	AdminToken        string `mapstructure:"admin_token"`
	PublicCallbackURL string `mapstructure:"public_callback_url"`
}

// Pricing is fixed server-side; callers never supply the price per segment.
type Pricing struct {
	PricePerSegment int64  `mapstructure:"price_per_segment"`
	DefaultRegion   string `mapstructure:"default_region"`
	AllowedRegion   string `mapstructure:"allowed_region"`
}

type Dispatch struct {
	Throttle         time.Duration `mapstructure:"throttle"`
	BaseBackoff      time.Duration `mapstructure:"base_backoff"`
	MaxBackoff       time.Duration `mapstructure:"max_backoff"`
	MaxAttempts      int           `mapstructure:"max_attempts"`
	TransientRetries int           `mapstructure:"transient_retries"`
	LeaseTimeout     time.Duration `mapstructure:"lease_timeout"`
}

func Load() (cfg *Config, err error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yml")
	viper.AddConfigPath("./config")

	err = viper.ReadInConfig()
	if err != nil {
		return cfg, fmt.Errorf("failed to load config: %w", err)
	}

	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	return cfg, nil
}
