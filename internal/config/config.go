// Package config loads the service configuration from an optional
// YAML file with environment overrides for secrets and deployment
// specifics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// ServerConfig configures the HTTP surface.
type ServerConfig struct {
	Addr     string `yaml:"addr"`
	APIToken string `yaml:"apiToken"`
}

// ChainConfig identifies the target chain and its node API.
type ChainConfig struct {
	NodeURL string `yaml:"nodeUrl"`
	Nexus   string `yaml:"nexus"`
	Chain   string `yaml:"chain"`
}

// FeeConfig bounds transaction gas.
type FeeConfig struct {
	GasPrice        uint64 `yaml:"gasPrice"`
	GasLimitBase    uint64 `yaml:"gasLimitBase"`
	GasLimitPerItem uint64 `yaml:"gasLimitPerItem"`
}

// PipelineConfig tunes transaction building and confirmation.
type PipelineConfig struct {
	Expiry                time.Duration `yaml:"expiry"`
	MaxPayloadBytes       int           `yaml:"maxPayloadBytes"`
	MaxAttempts           int           `yaml:"maxAttempts"`
	Delay                 time.Duration `yaml:"delay"`
	FailureDetailAttempts int           `yaml:"failureDetailAttempts"`
}

// DatabaseConfig configures the optional submission history store.
// An empty ConnStr disables history.
type DatabaseConfig struct {
	ConnStr string `yaml:"connStr"`
}

// WalletConfig configures the signing backend. The mnemonic only ever
// arrives through the environment.
type WalletConfig struct {
	Mnemonic string `yaml:"-"`
}

// Config is the full service configuration.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Chain    ChainConfig    `yaml:"chain"`
	Fees     FeeConfig      `yaml:"fees"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Database DatabaseConfig `yaml:"database"`
	Wallet   WalletConfig   `yaml:"-"`
}

// Default returns the built-in configuration for a local testnet run.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr: ":8080",
		},
		Chain: ChainConfig{
			NodeURL: "http://localhost:7077",
			Nexus:   "testnet",
			Chain:   "main",
		},
		Fees: FeeConfig{
			GasPrice:        100000,
			GasLimitBase:    21000,
			GasLimitPerItem: 1000,
		},
		Pipeline: PipelineConfig{
			Expiry:                60 * time.Second,
			MaxPayloadBytes:       1024,
			MaxAttempts:           30,
			Delay:                 time.Second,
			FailureDetailAttempts: 6,
		},
	}
}

// Load reads the configuration from path, falling back to defaults
// when the path is empty or the file is absent, then applies
// environment overrides.
func Load(path string) (Config, error) {
	cfg := Default()

	candidates := make([]string, 0, 2)
	if path != "" {
		candidates = append(candidates, path)
	} else {
		candidates = append(candidates, "configs/config.yaml")
	}

	for _, candidate := range candidates {
		data, err := os.ReadFile(candidate)
		if err != nil {
			if path == "" {
				continue
			}
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
		break
	}

	applyEnvOverrides(&cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("API_TOKEN"); v != "" {
		cfg.Server.APIToken = v
	}
	if v := os.Getenv("CHAIN_NODE_URL"); v != "" {
		cfg.Chain.NodeURL = v
	}
	if v := os.Getenv("CHAIN_NEXUS"); v != "" {
		cfg.Chain.Nexus = v
	}
	if v := os.Getenv("CHAIN_NAME"); v != "" {
		cfg.Chain.Chain = v
	}
	if v := os.Getenv("GAS_PRICE"); v != "" {
		if price, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Fees.GasPrice = price
		}
	}
	if v := os.Getenv("DB_CONN_STR"); v != "" {
		cfg.Database.ConnStr = v
	}
	cfg.Wallet.Mnemonic = os.Getenv("WALLET_MNEMONIC")
}
