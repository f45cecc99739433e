package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/bniss/aposynthese/configs"
)

var (
	configFile   string
	verbose      bool
	logLevel     string
	outputFormat string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "aposynthese",
	Short: "Decompose audio recordings into piano-key note events",
	Long: `aposynthese converts a digitized audio recording into a
time-synchronized sequence of musical note events, suitable for rendering as
a piano-key visualization.

The pipeline performs short-time spectral analysis, fundamental-frequency
peak extraction with harmonic resolution, equal-tempered pitch quantization
onto the 88 piano keys, and hysteresis-based note tracking that turns noisy
per-frame detections into coherent onset/offset events.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, viper.GetViper())
	},
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "",
		"config file (default is $HOME/.config/aposynthese/aposynthese.yaml)")

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info",
		"log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output-format", "o", "json",
		"output format (json, yaml)")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))
	viper.BindPFlag("output_format", rootCmd.PersistentFlags().Lookup("output-format"))
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error finding home directory: %v\n", err)
			os.Exit(1)
		}

		viper.AddConfigPath(home)
		viper.AddConfigPath(filepath.Join(home, ".config", "aposynthese"))
		viper.AddConfigPath("/etc/aposynthese")
		viper.AddConfigPath("./configs")
		viper.SetConfigName("aposynthese")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("APOSYNTHESE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	viper.AutomaticEnv()

	configs.SetDefaults()

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
		}
	}
}

// bindFlags binds each cobra flag to its associated viper configuration
func bindFlags(cmd *cobra.Command, v *viper.Viper) error {
	var lastErr error

	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))

		if !f.Changed && v.IsSet(f.Name) {
			val := v.Get(f.Name)
			if err := cmd.Flags().Set(f.Name, fmt.Sprintf("%v", val)); err != nil {
				lastErr = err
			}
		}

		if err := v.BindPFlag(f.Name, f); err != nil {
			lastErr = err
		}

		if err := v.BindEnv(f.Name, "APOSYNTHESE_"+envVarSuffix); err != nil {
			lastErr = err
		}
	})

	return lastErr
}
