package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowcode-cicd/lcpipe/pkg/artifact"
	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
	"github.com/lowcode-cicd/lcpipe/pkg/template"
	appversion "github.com/lowcode-cicd/lcpipe/pkg/version"
)

// newExportCmd creates the export command, a one-off export of one
// application package into the artifact store.
func newExportCmd() *cobra.Command {
	var (
		appName      string
		version      string
		envName      string
		envConfig    string
		artifactsDir string
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export one application package into the artifact store",
		Long: `Export the application package from a single environment and store the
archive under <artifacts-dir>/<app>/<version>/. Useful for ad-hoc backups
outside a promotion run; the run command performs the same export for every
hop automatically.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, required := range []struct{ name, value string }{
				{"app", appName},
				{"app-version", version},
				{"env", envName},
				{"env-config", envConfig},
			} {
				if err := requireFlagValue(required.name, required.value); err != nil {
					return err
				}
			}

			if err := appversion.Validate(version); err != nil {
				return err
			}

			config, err := loadChain(envConfig)
			if err != nil {
				return err
			}
			env, ok := config.Lookup(envName)
			if !ok {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitInputConfigurationError,
					Err:  fmt.Errorf("environment %s not in chain config %s", envName, envConfig),
				}
			}

			credentials := resolveCredentials(config.Chain)
			envCreds, ok := credentials[env.Name]
			if !ok {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitInputConfigurationError,
					Err:  fmt.Errorf("no credentials for environment %s (secret %s unresolved)", env.Name, env.APIKeySecret),
				}
			}

			exported, err := newCoreClient().Export(cmd.Context(), appName, env, envCreds)
			if err != nil {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitCoreExportFailed,
					Err:  fmt.Errorf("export from %s: %w", env.Name, err),
				}
			}

			store := artifact.NewStore(AppFs, artifactsDir)
			exportName := fmt.Sprintf("%s-%s.zip", appName, env.Name)
			savedPath, err := store.Save(appName, version, exportName, exported.Data)
			if err != nil {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitIOError,
					Err:  fmt.Errorf("store export artifact: %w", err),
				}
			}

			meta := artifact.ExportMetadata{
				ArtifactName:      exportName,
				ArtifactPath:      savedPath,
				SourceEnvironment: env.Name,
				PackageID:         exported.PackageID,
				PackageSHA:        exported.PackageSHA,
				TemplateStatus:    string(template.StatusMissing),
			}
			if dir, dirErr := store.Dir(appName, version); dirErr == nil {
				if suggestion, findErr := template.NewFinder(AppFs).Discover(dir, ""); findErr == nil {
					meta.TemplateStatus = string(suggestion.Status)
					meta.OverridesPresent = suggestion.Overrides != nil && suggestion.Overrides.Len() > 0
				}
			}
			metaPath, err := store.SaveMetadata(appName, version, exportName, meta)
			if err != nil {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitIOError,
					Err:  fmt.Errorf("store export metadata: %w", err),
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Exported %s from %s (package %s)\n", appName, env.Name, exported.PackageID)
			fmt.Fprintf(cmd.OutOrStdout(), "  artifact: %s\n", savedPath)
			fmt.Fprintf(cmd.OutOrStdout(), "  metadata: %s\n", metaPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&appName, "app", "", "application name (required)")
	cmd.Flags().StringVar(&version, "app-version", "", "application version for the artifact path (required)")
	cmd.Flags().StringVar(&envName, "env", "", "source environment name (required)")
	cmd.Flags().StringVar(&envConfig, "env-config", "", "path to the environment chain YAML (required)")
	cmd.Flags().StringVar(&artifactsDir, "artifacts-dir", "artifacts", "root directory for stored artifacts")

	return cmd
}
