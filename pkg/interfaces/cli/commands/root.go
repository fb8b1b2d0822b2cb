package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/infrastructure/logging"
	"github.com/vsinha/opsplan/pkg/infrastructure/repositories/sqlite"
)

var cfgFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "opsplan",
	Short: "Operations planning calculator for small-batch manufacturing.",
	Long: `opsplan keeps scenarios of a production plant (stock, batches, schedule,
maintenance) and derives cost, capacity, inventory exposure, stock consumption,
schedule conflicts and alerts from them.`,
	SilenceUsage: true,
	CompletionOptions: cobra.CompletionOptions{
		DisableDefaultCmd: true,
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.opsplan.yaml)")

	// Global flags
	rootCmd.PersistentFlags().String("db", "", "Path to the scenario database (default opsplan.sqlite)")
	rootCmd.PersistentFlags().StringP("loglevel", "l", "info", "Set log level. Available: debug, info, warn, error, fatal")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")

	_ = viper.BindPFlag("database.path", rootCmd.PersistentFlags().Lookup("db"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		viper.AddConfigPath(home)
		viper.SetConfigName(".opsplan")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("OPSPLAN")
	viper.AutomaticEnv()

	viper.SetDefault("database.path", "opsplan.sqlite")
	viper.SetDefault("report.format", "text")
	viper.SetDefault("conflicts.window_days", 14)
	viper.SetDefault("server.addr", ":8080")

	// If a config file is found, read it in.
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok && cfgFile == "" {
			// Config file not found; create it with defaults.
			home, _ := homedir.Dir()
			configPath := filepath.Join(home, ".opsplan.yaml")
			if err := viper.SafeWriteConfigAs(configPath); err != nil {
				logging.Log.Debugf("could not create config file: %s", err)
			}
		}
	}

	// Init log library
	levelString, _ := rootCmd.PersistentFlags().GetString("loglevel")
	if err := logging.SetLogLevel(levelString); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// openRepository opens the configured scenario database
func openRepository() (*sqlite.ScenarioRepository, error) {
	path := viper.GetString("database.path")
	repo, err := sqlite.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open scenario database %s: %w", path, err)
	}
	return repo, nil
}

// parseToday reads a YYYY-MM-DD flag value; empty means the local calendar day
func parseToday(value string) (time.Time, error) {
	if value == "" {
		now := time.Now()
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	t, err := time.Parse(entities.DayLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --today %q, expected YYYY-MM-DD", value)
	}
	return t, nil
}

func verbose(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("verbose")
	return v
}
