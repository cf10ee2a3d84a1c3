package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/willfong/txreplay/internal/config"
	"github.com/willfong/txreplay/internal/logger"
	"github.com/willfong/txreplay/internal/ui"
)

var (
	cfgFile string
	verbose bool
	noColor bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "txreplay",
	Short: "Replay account transaction logs into per-account ledgers",
	Long: `Reads account transaction logs, rebuilds one ledger per account,
optionally layers concurrent simulated activity on top, appends a final
balance to every ledger and writes each ledger to its own file.

Input lines look like:
  [2024-01-01 10:00:00] alice transferred 50.00 to bob

Settings can be given as flags or in a YAML config file (--config, or
./txreplay.yaml). Flag-backed settings also read TXREPLAY_<SECTION>_<KEY>
environment variables, e.g. TXREPLAY_RUN_INPUT_DIR.

Example usage:
  txreplay generate --files 3 --seed 42
  txreplay run --input resources
  txreplay run --no-simulate`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default ./txreplay.yaml)")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	flags.BoolVar(&noColor, "no-color", false, "disable colors and animations")
	flags.String("log-level", config.LogLevel, "diagnostics level (debug, info, warn, error)")
	flags.String("log-format", config.LogFormat, "diagnostics format (console, json)")

	viper.BindPFlag("verbose", flags.Lookup("verbose"))
	viper.BindPFlag("log.level", flags.Lookup("log-level"))
	viper.BindPFlag("log.format", flags.Lookup("log-format"))

	// Silence usage on error - we'll print our own messages
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true

	rootCmd.SetVersionTemplate("{{.Version}}\n")
}

// initConfig reads the config file and environment, if present
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("txreplay")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
	}

	viper.SetEnvPrefix("TXREPLAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			configErr = fmt.Errorf("failed to read config: %w", err)
		}
	}
}

// configErr holds a config file failure until a command can report it
var configErr error

// setup loads and validates the configuration and builds the terminal UI and
// diagnostics logger shared by the subcommands.
func setup() (*config.Config, *ui.UI, zerolog.Logger, error) {
	u := ui.New()
	if noColor {
		u.SetNoColor(true)
	}

	if configErr != nil {
		return nil, u, zerolog.Nop(), configErr
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, u, zerolog.Nop(), err
	}
	if err := cfg.Validate(); err != nil {
		return nil, u, zerolog.Nop(), err
	}

	level := cfg.Log.Level
	if cfg.Verbose && level == config.LogLevel {
		level = "debug"
	}

	return cfg, u, logger.New(logger.Config{Level: level, Format: cfg.Log.Format}), nil
}
