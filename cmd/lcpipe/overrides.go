package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowcode-cicd/lcpipe/pkg/artifact"
	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
	"github.com/lowcode-cicd/lcpipe/pkg/fileutil"
	"github.com/lowcode-cicd/lcpipe/pkg/override"
	"github.com/lowcode-cicd/lcpipe/pkg/template"
	appversion "github.com/lowcode-cicd/lcpipe/pkg/version"
)

// newOverridesCmd creates the overrides command, which validates an override
// file locally. Override values are environment configuration and often
// sensitive, so output is restricted to keys and counts; values are never
// printed.
func newOverridesCmd() *cobra.Command {
	var (
		filePath string
		listKeys bool
	)

	cmd := &cobra.Command{
		Use:   "overrides",
		Short: "Validate an override file",
		Long: `Parse an override file and report whether it is well-formed. Each
non-blank, non-comment line must be key=value; the first '=' separates key
from value, so values may themselves contain '='. Malformed files are
reported with the 1-based line number of the first bad line. Values are
never printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlagValue("file", filePath); err != nil {
				return err
			}

			text, err := fileutil.ReadFileString(AppFs, filePath)
			if err != nil {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitIOError,
					Err:  fmt.Errorf("read override file %s: %w", filePath, err),
				}
			}

			set, err := override.Parse(text)
			if err != nil {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitOverrideFormatError,
					Err:  fmt.Errorf("%s: %w", filePath, err),
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid, %d overrides\n", filePath, set.Len())
			if listKeys {
				for _, key := range set.Keys() {
					fmt.Fprintln(cmd.OutOrStdout(), key)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&filePath, "file", "", "path to the override file (required)")
	cmd.Flags().BoolVar(&listKeys, "list", false, "list the override keys (values are never printed)")

	cmd.AddCommand(newOverridesSuggestCmd())

	return cmd
}

// newOverridesSuggestCmd creates the overrides suggest subcommand, which
// searches stored export artifacts for a customization template and suggests
// override keys from it.
func newOverridesSuggestCmd() *cobra.Command {
	var (
		appName      string
		version      string
		artifactsDir string
		fallbackPath string
	)

	cmd := &cobra.Command{
		Use:   "suggest",
		Short: "Suggest override keys from an exported customization template",
		Long: `Search the stored export artifacts of one application version for a
customization template. Archives found under the artifact directory are
extracted in place; the most specific template file wins (.properties over
.txt and .cfg, then the shortest name). Template key=value pairs, including
commented-out ones, become suggested override keys. A missing template is
not an error; the status line says what was found. Values are never
printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, required := range []struct{ name, value string }{
				{"app", appName},
				{"app-version", version},
			} {
				if err := requireFlagValue(required.name, required.value); err != nil {
					return err
				}
			}

			if err := appversion.Validate(version); err != nil {
				return err
			}

			dir, err := artifact.NewStore(AppFs, artifactsDir).Dir(appName, version)
			if err != nil {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitInputConfigurationError,
					Err:  fmt.Errorf("artifact directory for %s %s: %w", appName, version, err),
				}
			}

			suggestion, err := template.NewFinder(AppFs).Discover(dir, fallbackPath)
			if err != nil {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitIOError,
					Err:  fmt.Errorf("discover template under %s: %w", dir, err),
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Template status: %s\n", suggestion.Status)
			if suggestion.SourcePath != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Template source: %s\n", suggestion.SourceName())
			}
			if suggestion.Overrides != nil && suggestion.Overrides.Len() > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Suggested override keys (%d):\n", suggestion.Overrides.Len())
				for _, key := range suggestion.Overrides.Keys() {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", key)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&appName, "app", "", "application name (required)")
	cmd.Flags().StringVar(&version, "app-version", "", "application version whose artifacts to search (required)")
	cmd.Flags().StringVar(&artifactsDir, "artifacts-dir", "artifacts", "root directory for stored artifacts")
	cmd.Flags().StringVar(&fallbackPath, "fallback-template", "", "template file to use when the artifacts hold none")

	return cmd
}
