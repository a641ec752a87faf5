package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/agenthire/agenthire-go/pkg/keys"
)

// Config represents the client configuration
type Config struct {
	Chain     ChainConfig     `yaml:"chain" mapstructure:"chain"`
	Contracts ContractsConfig `yaml:"contracts" mapstructure:"contracts"`
	Client    ClientConfig    `yaml:"client" mapstructure:"client"`
	Provider  ProviderConfig  `yaml:"provider" mapstructure:"provider"`
}

// ChainConfig contains blockchain-specific configuration
type ChainConfig struct {
	ID          string `yaml:"id" mapstructure:"id"`
	RPCEndpoint string `yaml:"rpc_endpoint" mapstructure:"rpc_endpoint"`
	Binary      string `yaml:"binary" mapstructure:"binary"`
	Denom       string `yaml:"denom" mapstructure:"denom"`
	Fees        string `yaml:"fees" mapstructure:"fees"`
}

// ContractsConfig holds the two AgentHire contract addresses
type ContractsConfig struct {
	Registry string `yaml:"registry" mapstructure:"registry"`
	Escrow   string `yaml:"escrow" mapstructure:"escrow"`
}

// ClientConfig contains client-side settings. KeyName empty means the
// client runs in read-only mode.
type ClientConfig struct {
	KeyName        string `yaml:"key_name" mapstructure:"key_name"`
	KeyringBackend string `yaml:"keyring_backend" mapstructure:"keyring_backend"`
	KeyringDir     string `yaml:"keyring_dir" mapstructure:"keyring_dir"`
	PollInterval   string `yaml:"poll_interval" mapstructure:"poll_interval"`
	ResultTimeout  string `yaml:"result_timeout" mapstructure:"result_timeout"`
}

// ProviderConfig describes the service offered by a provider node
type ProviderConfig struct {
	Name        string   `yaml:"name" mapstructure:"name"`
	Description string   `yaml:"description" mapstructure:"description"`
	Tags        []string `yaml:"tags" mapstructure:"tags"`
	PricePerJob string   `yaml:"price_per_job" mapstructure:"price_per_job"`
}

// PollIntervalDuration parses the configured poll interval, 0 when unset.
func (c ClientConfig) PollIntervalDuration() time.Duration {
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0
	}
	return d
}

// ResultTimeoutDuration parses the configured await-result timeout, 0 when unset.
func (c ClientConfig) ResultTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ResultTimeout)
	if err != nil {
		return 0
	}
	return d
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	hireDir := filepath.Join(homeDir, ".agenthire")

	return &Config{
		Chain: ChainConfig{
			ID:          "agenthire-1",
			RPCEndpoint: "https://rpc.agenthire.network:26657",
			Binary:      "agenthired",
			Denom:       "uhire",
			Fees:        "5000uhire",
		},
		Contracts: ContractsConfig{},
		Client: ClientConfig{
			KeyringBackend: "test",
			KeyringDir:     filepath.Join(hireDir, "keyring"),
			PollInterval:   "4s",
			ResultTimeout:  "5m",
		},
		Provider: ProviderConfig{
			Name:        "AgentHire Provider",
			PricePerJob: "1000",
		},
	}
}

// LoadConfig loads configuration from file or creates default
func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	homeDir, _ := os.UserHomeDir()
	viper.AddConfigPath(filepath.Join(homeDir, ".agenthire"))
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	viper.SetEnvPrefix("AGENTHIRE")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return createDefaultConfig()
		}
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := ValidateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &config, nil
}

// SaveConfig saves configuration to file
func SaveConfig(config *Config) error {
	homeDir, _ := os.UserHomeDir()
	configDir := filepath.Join(homeDir, ".agenthire")
	configFile := filepath.Join(configDir, "config.yaml")

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if config.Client.KeyringDir != "" {
		if err := os.MkdirAll(config.Client.KeyringDir, 0755); err != nil {
			return fmt.Errorf("failed to create keyring directory: %w", err)
		}
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Printf("Configuration saved to: %s\n", configFile)
	return nil
}

// createDefaultConfig creates and saves a default configuration
func createDefaultConfig() (*Config, error) {
	config := DefaultConfig()

	if err := SaveConfig(config); err != nil {
		return nil, err
	}

	return config, nil
}

// ValidateConfig validates the configuration
func ValidateConfig(config *Config) error {
	if config.Chain.ID == "" {
		return fmt.Errorf("chain ID cannot be empty")
	}
	if config.Chain.RPCEndpoint == "" {
		return fmt.Errorf("RPC endpoint cannot be empty")
	}
	if config.Contracts.Registry != "" {
		if err := keys.ValidateAddress(config.Contracts.Registry); err != nil {
			return fmt.Errorf("registry address: %w", err)
		}
	}
	if config.Contracts.Escrow != "" {
		if err := keys.ValidateAddress(config.Contracts.Escrow); err != nil {
			return fmt.Errorf("escrow address: %w", err)
		}
	}
	if config.Client.PollInterval != "" {
		if _, err := time.ParseDuration(config.Client.PollInterval); err != nil {
			return fmt.Errorf("poll_interval: %w", err)
		}
	}
	if config.Client.ResultTimeout != "" {
		if _, err := time.ParseDuration(config.Client.ResultTimeout); err != nil {
			return fmt.Errorf("result_timeout: %w", err)
		}
	}
	return nil
}

// GetConfigPath returns the path to the config file
func GetConfigPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	return filepath.Join(homeDir, ".agenthire", "config.yaml"), nil
}
