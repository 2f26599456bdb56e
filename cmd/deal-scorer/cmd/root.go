// Package cmd implements the CLI commands for deal-scorer.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/donaldgifford/deal-scorer/internal/config"
	"github.com/donaldgifford/deal-scorer/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "deal-scorer",
	Short: "Score marketplace listings against market prices",
	Long: "deal-scorer rates marketplace listings on a 0-100 scale against aggregated\n" +
		"market prices, seller reputation, condition, completeness, freshness and\n" +
		"price range, and publishes a grade for every listing it scores.",
	SilenceUsage: true,
}

func init() {
	cobra.OnInitialize(initEnv)

	rootCmd.PersistentFlags().String("config", "config.yaml", "config file path")
	rootCmd.PersistentFlags().String("log-level", "", "override logging.level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("env-file", ".env", "dotenv file loaded before the config is read")

	cobra.CheckErr(viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config")))
	cobra.CheckErr(viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level")))
	cobra.CheckErr(viper.BindPFlag("env_file", rootCmd.PersistentFlags().Lookup("env-file")))

	rootCmd.AddCommand(
		serveCmd(),
		migrateCmd(),
		rescoreCmd(),
		scoreCmd(),
		gradesCmd(),
		marketPricesCmd(),
		versionCmd(),
	)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// initEnv loads the dotenv file so ${VAR} references in the config resolve,
// then lets DS_* variables override flags.
func initEnv() {
	viper.SetEnvPrefix("DS")
	viper.AutomaticEnv()

	if path := viper.GetString("env_file"); path != "" {
		if err := godotenv.Load(path); err != nil && !os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "warning: loading env file:", err)
		}
	}
}

// loadConfig reads the config file and applies flag overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if lvl := viper.GetString("log_level"); lvl != "" {
		cfg.Logging.Level = lvl
	}
	return cfg, nil
}

func newLogger(cfg *config.Config) *slog.Logger {
	log := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	slog.SetDefault(log)
	return log
}
