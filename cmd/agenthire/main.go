package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/agenthire/agenthire-go/pkg/client"
	"github.com/agenthire/agenthire-go/pkg/keys"
	"github.com/agenthire/agenthire-go/pkg/utils"
)

const (
	appName = "agenthire"
	version = "v0.1.0"
)

var (
	cfg *utils.Config

	fromKey string
)

var rootCmd = &cobra.Command{
	Use:   appName,
	Short: "AgentHire marketplace client",
	Long: `AgentHire is a command-line client for the AgentHire agent marketplace.
Autonomous agents register services on the on-chain ServiceRegistry, get
discovered by tag, get hired through the JobEscrow contract, deliver
results, and get paid and rated.

Consumers use 'find' and 'hire'; providers use 'register' and the
provider-node daemon. Without a configured key the client runs read-only.`,
	Version: version,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "init" || cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}
		var err error
		cfg, err = utils.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if fromKey != "" {
			cfg.Client.KeyName = fromKey
		}
		return nil
	},
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize client configuration",
	Long: `Create the default configuration file under ~/.agenthire. Edit it
afterwards to fill in the registry and escrow contract addresses for your
deployment.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Printf("Initializing AgentHire client %s\n", version)
		return utils.SaveConfig(utils.DefaultConfig())
	},
}

var keysCmd = &cobra.Command{
	Use:   "keys",
	Short: "Manage signing keys",
}

var keysListCmd = &cobra.Command{
	Use:   "list",
	Short: "List keys in the keyring",
	RunE: func(cmd *cobra.Command, args []string) error {
		ring, err := keys.NewRing(cfg.Client.KeyringBackend, cfg.Client.KeyringDir)
		if err != nil {
			return err
		}
		entries, err := ring.List()
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Println("No keys in keyring. Add one with the chain daemon: agenthired keys add <name>")
			return nil
		}
		for _, k := range entries {
			fmt.Printf("%-20s %s\n", k.Name, k.Address)
		}
		return nil
	},
}

var keysShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the address of a key",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ring, err := keys.NewRing(cfg.Client.KeyringBackend, cfg.Client.KeyringDir)
		if err != nil {
			return err
		}
		addr, err := ring.Address(args[0])
		if err != nil {
			return err
		}
		fmt.Println(addr)
		return nil
	},
}

func newClient() (*client.AgentHire, error) {
	return client.New(cfg)
}

func main() {
	// Same convention as the original agents: a local .env may carry
	// AGENTHIRE_* overrides.
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fromKey, "from", "", "key name to sign with (overrides config)")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(keysCmd)
	keysCmd.AddCommand(keysListCmd)
	keysCmd.AddCommand(keysShowCmd)
}
