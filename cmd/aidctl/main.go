package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Veraticus/aidledger/internal/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	version = "dev"
	rootCmd = &cobra.Command{
		Use:   "aidctl",
		Short: "Operator console for the disaster relief ledger",
		Long: `aidctl drives the on-chain disaster relief program: it verifies and flags
beneficiaries, locks fund pools, claims and reclaims distributions, and
reports on where every pool's money went.

Every transaction is checked against fresh ledger state and confirmed
before it is signed.`,
		SilenceUsage:      true,
		PersistentPreRunE: initConfig,
	}
)

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.config/aidctl/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("log-format", "console", "log format (console, json)")
	rootCmd.PersistentFlags().String("cluster", "", "cluster name (devnet, testnet, mainnet-beta, localnet)")
	rootCmd.PersistentFlags().String("rpc-url", "", "RPC endpoint, overrides --cluster")
	rootCmd.PersistentFlags().String("keypair", "", "signing keypair file")
	rootCmd.PersistentFlags().String("program-id", "", "relief program ID")

	// Bind flags to viper
	_ = viper.BindPFlag("logging.level", rootCmd.PersistentFlags().Lookup("log-level"))
	_ = viper.BindPFlag("logging.format", rootCmd.PersistentFlags().Lookup("log-format"))
	_ = viper.BindPFlag("ledger.cluster", rootCmd.PersistentFlags().Lookup("cluster"))
	_ = viper.BindPFlag("ledger.rpc_url", rootCmd.PersistentFlags().Lookup("rpc-url"))
	_ = viper.BindPFlag("ledger.keypair_path", rootCmd.PersistentFlags().Lookup("keypair"))
	_ = viper.BindPFlag("ledger.program_id", rootCmd.PersistentFlags().Lookup("program-id"))

	// Add commands
	rootCmd.AddCommand(addressCmd())
	rootCmd.AddCommand(beneficiaryCmd())
	rootCmd.AddCommand(distributionCmd())
	rootCmd.AddCommand(poolCmd())
	rootCmd.AddCommand(classifyErrorCmd())
	rootCmd.AddCommand(historyCmd())
	rootCmd.AddCommand(sheetsCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())
}

func main() {
	// Set up signal handling
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		slog.Info("Received interrupt signal, shutting down gracefully...")
		cancel()
	}()

	err := rootCmd.ExecuteContext(ctx)
	cancel() // Always cleanup

	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func initConfig(_ *cobra.Command, _ []string) error {
	// Set up config file
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("failed to get home directory: %w", err)
		}

		// Search for config in standard locations
		viper.AddConfigPath(fmt.Sprintf("%s/.config/aidctl", home))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("AIDCTL")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found is OK, we'll use defaults
	}

	if err := setupLogging(); err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}

	return nil
}

func setupLogging() error {
	level, err := common.ParseLevel(viper.GetString("logging.level"))
	if err != nil {
		return err
	}
	return common.SetupLogger(level, viper.GetString("logging.format"))
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(_ *cobra.Command, _ []string) {
			slog.Info("aidctl version", "version", version)
		},
	}
}
