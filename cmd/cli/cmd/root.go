package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/searchops/imt-exercises/pkg/logger"
)

var (
	cfgFile  string
	logLevel string
	noColor  bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "imt-exercise",
	Short: "IMT exercise orchestration CLI",
	Long: `IMT Exercise CLI provisions Search Management Map instances for
participating organizations, publishes the exercise mission, and activates
simulated assets as participants bring their teams into the mission.`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.imt-exercise/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")

	// Add commands
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(checkCmd)
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	// Configure logger based on flags
	logger.SetLevel(logger.ParseLevel(logLevel))
	logger.SetNoColor(noColor)

	if cfgFile != "" {
		// Use config file from the flag
		viper.SetConfigFile(cfgFile)
	} else {
		// Search for config in home directory
		viper.AddConfigPath("$HOME/.imt-exercise")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.AutomaticEnv() // read in environment variables that match

	// If a config file is found, read it in
	_ = viper.ReadInConfig()
}
