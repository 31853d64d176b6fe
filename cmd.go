package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"r3e-sheets/internal/log"
)

const envPrefix = "R3E"

var (
	cfgFile   string
	logLevel  string
	logFormat string
	logFilter string
	opts      = newFlagValues()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "r3e-sheets",
	Short: "Copies RaceRoom leaderboard standings into a Google spreadsheet",
	Long: `r3e-sheets polls the RaceRoom leaderboard for every track and configured car,
extracts the rank and lap time of the configured drivers and writes them,
together with the track record, into one sheet per car.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setupLogger()
	},
}

// Execute adds all child commands to the root command and runs it.
// It returns the process exit code.
func Execute(ctx context.Context) int {
	defer func() { _ = log.Default().Sync() }()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Error("Run failed", log.ErrorField(err))
		return 1
	}
	return 0
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default is $HOME/.r3e-sheets.yml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "logLevel", "info",
		"controls the log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "logFormat", "text",
		"controls the log output format (text, json)")
	rootCmd.PersistentFlags().StringVar(&logFilter, "logFilter", "",
		"zapfilter rules applied to log output, e.g. 'warn+:*'")
	opts.register(rootCmd.PersistentFlags())

	rootCmd.AddCommand(newSaveCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newLookupCmd())
	rootCmd.AddCommand(newTracksCmd())
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)

		viper.AddConfigPath(home)
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName(".r3e-sheets")
	}

	viper.SetEnvPrefix(envPrefix)
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}

	bindFlags(rootCmd.PersistentFlags(), viper.GetViper())
	for _, cmd := range rootCmd.Commands() {
		bindFlags(cmd.Flags(), viper.GetViper())
	}
}

// bindFlags applies config file and environment values to every flag the
// command line did not set
func bindFlags(fs *pflag.FlagSet, v *viper.Viper) {
	fs.VisitAll(func(f *pflag.Flag) {
		// env vars can't have dashes: --max-errors is read from R3E_MAX_ERRORS
		if strings.Contains(f.Name, "-") {
			envVarSuffix := strings.ToUpper(strings.ReplaceAll(f.Name, "-", "_"))
			if err := v.BindEnv(f.Name,
				fmt.Sprintf("%s_%s", envPrefix, envVarSuffix)); err != nil {
				fmt.Fprintf(os.Stderr, "Could not bind env var %s: %v\n", f.Name, err)
			}
		}
		if f.Changed || !v.IsSet(f.Name) {
			return
		}
		var val string
		if _, ok := f.Value.(pflag.SliceValue); ok {
			val = strings.Join(v.GetStringSlice(f.Name), ",")
		} else {
			val = fmt.Sprintf("%v", v.Get(f.Name))
		}
		if err := fs.Set(f.Name, val); err != nil {
			fmt.Fprintf(os.Stderr, "Could not set flag value for %s: %v\n", f.Name, err)
		}
	})
}

func parseLogLevel(l string, defaultVal log.Level) log.Level {
	level, err := log.ParseLevel(l)
	if err != nil {
		return defaultVal
	}
	return level
}

func setupLogger() error {
	var logOpts []log.Option
	if logFilter != "" {
		filter, err := log.WithFilter(logFilter)
		if err != nil {
			return fmt.Errorf("invalid log filter: %w", err)
		}
		logOpts = append(logOpts, filter)
	}

	var logger *log.Logger
	switch logFormat {
	case "json":
		logger = log.New(os.Stderr, parseLogLevel(logLevel, log.InfoLevel), logOpts...)
	default:
		logger = log.DevLogger(os.Stderr, parseLogLevel(logLevel, log.InfoLevel), logOpts...)
	}
	log.ResetDefault(logger)
	return nil
}
