// Package main implements the command-line interface for lcpipe, the
// promotion pipeline tool for low-code platform applications.
//
// The main CLI commands are:
//   - run: execute a named flow (A/B/C) across the environment chain
//   - plan: print the resolved step plan for a flow without executing
//   - export: export one application package into the artifact store
//   - overrides: validate an environment override file
//   - release: create a release record for stored artifacts
//
// Each command has various flags for configuration. See the help output for
// details.
package main

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/lowcode-cicd/lcpipe/pkg/debug"
	log "github.com/lowcode-cicd/lcpipe/pkg/log"
)

// BinaryVersion is the tool version reported in logs and release bodies.
const BinaryVersion = "0.9.0"

// Global flag variables
var (
	cfgFile      string
	debugEnabled bool
	logLevel     string
)

// AppFs defines the filesystem interface to use, allows mocking in tests.
var AppFs = afero.NewOsFs()

// SetFs replaces the current filesystem with the provided one and returns a
// function to restore it. This is primarily used for testing.
func SetFs(newFs afero.Fs) func() {
	oldFs := AppFs
	AppFs = newFs
	return func() { AppFs = oldFs }
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "lcpipe",
	Short: "Promotion pipeline tool for low-code platform applications",
	Long: `lcpipe orchestrates promotion of low-code platform applications across
an environment chain (e.g. dev -> qa -> prod).

All deployment operations (export, promote, customization-file build,
database script preparation) are delegated to the external Core deployment
service; lcpipe sequences them per the selected flow, stores exported
artifacts, and records a release for each run. Environment-specific
configuration overrides are supplied in a line-oriented key=value format and
rendered into a customization file before promotion.`,
	Version:       BinaryVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		// Setup logging before any command logic runs.
		level := log.LevelInfo
		if debugEnabled {
			level = log.LevelDebug
		} else if logLevel != "" {
			parsedLevel, err := log.ParseLevel(logLevel)
			if err != nil {
				log.Warnf("Invalid log level specified: '%s'. Using default: %s. Error: %v", logLevel, level, err)
			} else {
				level = parsedLevel
			}
		}
		log.SetLevel(level)

		// --debug takes precedence; otherwise honor LCPIPE_DEBUG.
		if debugEnabled {
			debug.Enabled = true
		} else if os.Getenv("LCPIPE_DEBUG") != "" {
			debug.Enabled = true
		}
		debug.Printf("Effective log level set to %s", level)

		if cfgFile != "" {
			viper.SetConfigFile(cfgFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("failed to read config file %s: %w", cfgFile, err)
			}
			debug.Printf("Using config file: %s", viper.ConfigFileUsed())
		}

		return nil
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() error {
	return rootCmd.Execute()
}

// init sets up the root command and its flags.
func init() {
	// Accept underscore spellings of flag names; CI templates are not
	// consistent about dashes.
	rootCmd.PersistentFlags().SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.lcpipe.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debugEnabled, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "set log level (debug, info, warn, error)")

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newPlanCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newOverridesCmd())
	rootCmd.AddCommand(newReleaseCmd())

	cobra.OnInitialize(initConfig)
}

// initConfig reads in the default config file if present.
func initConfig() {
	if cfgFile != "" {
		return // handled in PersistentPreRunE
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	viper.SetConfigName(".lcpipe")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(home)
	// Missing default config is fine.
	_ = viper.ReadInConfig()
}

// getRootCmd returns the root command, useful for testing.
func getRootCmd() *cobra.Command {
	return rootCmd
}

// executeCommand is a helper for testing Cobra commands.
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}
