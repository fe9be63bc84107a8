package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config holds configuration values loaded from flags, env, or config file.
type Config struct {
	RPCURL            string
	FromBlock         uint64
	ToBlock           uint64
	NativeToken       string
	Registry          string
	RegistryEntry     string
	BatchSize         uint64
	Out               string
	TokensOut         string
	PGDSN             string
	Checkpoint        string
	CheckpointEnabled bool
	MaxRetries        int
	RetryBackoff      time.Duration
	LogLevel          string
}

// Load merges config file, environment variables, and flags into Config.
func Load(cfgFile string, flags *pflag.FlagSet) (Config, error) {
	v := newViper()

	v.SetDefault("registry-entry", "NativeToken")
	v.SetDefault("batch-size", uint64(200))
	v.SetDefault("out", "./data/token_transfers.jsonl")
	v.SetDefault("tokens-out", "./data/tokens.jsonl")
	v.SetDefault("checkpoint", "./data/checkpoint.json")
	v.SetDefault("checkpoint-enabled", true)
	v.SetDefault("max-retries", 5)
	v.SetDefault("retry-backoff", 500*time.Millisecond)
	v.SetDefault("log-level", "info")

	if err := bind(v, cfgFile, flags); err != nil {
		return Config{}, err
	}

	cfg := Config{
		RPCURL:            v.GetString("rpc"),
		FromBlock:         v.GetUint64("from"),
		ToBlock:           v.GetUint64("to"),
		NativeToken:       v.GetString("native-token"),
		Registry:          v.GetString("registry"),
		RegistryEntry:     v.GetString("registry-entry"),
		BatchSize:         v.GetUint64("batch-size"),
		Out:               v.GetString("out"),
		TokensOut:         v.GetString("tokens-out"),
		PGDSN:             v.GetString("pg-dsn"),
		Checkpoint:        v.GetString("checkpoint"),
		CheckpointEnabled: v.GetBool("checkpoint-enabled"),
		MaxRetries:        v.GetInt("max-retries"),
		RetryBackoff:      v.GetDuration("retry-backoff"),
		LogLevel:          v.GetString("log-level"),
	}

	return cfg, nil
}

// DeriveConfig holds configuration for the offline derive command.
type DeriveConfig struct {
	TransactionsIn string
	InternalIn     string
	NativeToken    string
	Out            string
	TokensOut      string
	LogLevel       string
}

// LoadDerive merges config file, environment variables, and flags into
// DeriveConfig.
func LoadDerive(cfgFile string, flags *pflag.FlagSet) (DeriveConfig, error) {
	v := newViper()

	v.SetDefault("out", "./data/token_transfers.jsonl")
	v.SetDefault("tokens-out", "./data/tokens.jsonl")
	v.SetDefault("log-level", "info")

	if err := bind(v, cfgFile, flags); err != nil {
		return DeriveConfig{}, err
	}

	cfg := DeriveConfig{
		TransactionsIn: v.GetString("transactions"),
		InternalIn:     v.GetString("internal-transactions"),
		NativeToken:    v.GetString("native-token"),
		Out:            v.GetString("out"),
		TokensOut:      v.GetString("tokens-out"),
		LogLevel:       v.GetString("log-level"),
	}

	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix("INDEXER")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	return v
}

func bind(v *viper.Viper, cfgFile string, flags *pflag.FlagSet) error {
	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("read config: %w", err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("read config: %w", err)
		}
	}
	return nil
}
