package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Chain   ChainConfig
	OAuth   OAuthConfig
	Redis   RedisConfig
	Server  ServerConfig
	Sponsor SponsorConfig
}

type ChainConfig struct {
	RPCURL          string `mapstructure:"rpc_url"`
	MaxEpochHorizon uint64 `mapstructure:"max_epoch_horizon"`
}

// SponsorConfig is built once at startup and passed explicitly to the
// executor; nothing re-reads the environment on the hot path.
type SponsorConfig struct {
	Secret         string `mapstructure:"secret"`
	Address        string `mapstructure:"address"`
	PackageID      string `mapstructure:"package_id"`
	RegistryID     string `mapstructure:"registry_id"`
	GasBudget      uint64 `mapstructure:"gas_budget"`
	GasPadding     uint64 `mapstructure:"gas_padding"`
	MinUserBalance uint64 `mapstructure:"min_user_balance"`
	OperatorToken  string `mapstructure:"operator_token"`
}

type OAuthConfig struct {
	RedirectURL      string `mapstructure:"redirect_url"`
	GoogleClientID   string `mapstructure:"google_client_id"`
	FacebookClientID string `mapstructure:"facebook_client_id"`
	TwitchClientID   string `mapstructure:"twitch_client_id"`
	AppleClientID    string `mapstructure:"apple_client_id"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
}

type ServerConfig struct {
	Port int `mapstructure:"port"`
}

func Load() (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("redis.addr", "redis:6379")
	v.SetDefault("chain.rpc_url", "https://fullnode.testnet.sui.io:443")
	// The upstream app used both +2 and +10 at different call sites; a single
	// horizon is configured here so every credential expires consistently.
	v.SetDefault("chain.max_epoch_horizon", 2)
	v.SetDefault("sponsor.gas_budget", 50_000_000)
	v.SetDefault("sponsor.gas_padding", 10_000_000)
	v.SetDefault("sponsor.min_user_balance", 100_000_000)

	// Config file (optional)
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("/app")
	_ = v.ReadInConfig()

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Explicit env bindings
	bindings := map[string]string{
		"chain.rpc_url":            "CHAIN_RPC_URL",
		"chain.max_epoch_horizon":  "MAX_EPOCH_HORIZON",
		"redis.addr":               "REDIS_ADDR",
		"redis.password":           "REDIS_PASSWORD",
		"server.port":              "PORT",
		"sponsor.secret":           "SPONSOR_SECRET",
		"sponsor.address":          "SPONSOR_ADDRESS",
		"sponsor.package_id":       "PACKAGE_ID",
		"sponsor.registry_id":      "REGISTRY_ID",
		"sponsor.gas_budget":       "GAS_BUDGET",
		"sponsor.gas_padding":      "GAS_PADDING",
		"sponsor.min_user_balance": "MIN_USER_BALANCE",
		"sponsor.operator_token":   "OPERATOR_TOKEN",
		"oauth.redirect_url":       "OAUTH_REDIRECT_URL",
		"oauth.google_client_id":   "GOOGLE_CLIENT_ID",
		"oauth.facebook_client_id": "FACEBOOK_CLIENT_ID",
		"oauth.twitch_client_id":   "TWITCH_CLIENT_ID",
		"oauth.apple_client_id":    "APPLE_CLIENT_ID",
	}
	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", env, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	required := map[string]string{
		"SPONSOR_SECRET":     c.Sponsor.Secret,
		"SPONSOR_ADDRESS":    c.Sponsor.Address,
		"PACKAGE_ID":         c.Sponsor.PackageID,
		"REGISTRY_ID":        c.Sponsor.RegistryID,
		"OAUTH_REDIRECT_URL": c.OAuth.RedirectURL,
	}
	for name, val := range required {
		if val == "" {
			return fmt.Errorf("missing required config: %s", name)
		}
	}
	if c.Chain.MaxEpochHorizon == 0 {
		return fmt.Errorf("MAX_EPOCH_HORIZON must be at least 1")
	}
	return nil
}
