package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowcode-cicd/lcpipe/pkg/artifact"
	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
	"github.com/lowcode-cicd/lcpipe/pkg/release"
	appversion "github.com/lowcode-cicd/lcpipe/pkg/version"
)

// newReleaseCmd creates the release command, which records a release for
// artifacts already present in the store. The run command does this
// automatically; this command covers re-recording after a failed release
// step without re-running the whole flow.
func newReleaseCmd() *cobra.Command {
	var (
		appName      string
		version      string
		artifactsDir string
		apiURL       string
		token        string
	)

	cmd := &cobra.Command{
		Use:   "release",
		Short: "Create a release record for stored artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, required := range []struct{ name, value string }{
				{"app", appName},
				{"app-version", version},
				{"api-url", apiURL},
			} {
				if err := requireFlagValue(required.name, required.value); err != nil {
					return err
				}
			}
			if err := appversion.Validate(version); err != nil {
				return err
			}
			if token == "" {
				token = getenv("LCPIPE_RELEASE_TOKEN")
			}

			store := artifact.NewStore(AppFs, artifactsDir)
			names, err := store.List(appName, version)
			if err != nil {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitIOError,
					Err:  fmt.Errorf("list artifacts for %s %s: %w", appName, version, err),
				}
			}
			if len(names) == 0 {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitInputConfigurationError,
					Err:  fmt.Errorf("no artifacts stored for %s %s under %s", appName, version, artifactsDir),
				}
			}

			paths := make([]string, 0, len(names))
			for _, name := range names {
				artifactPath, pathErr := store.Path(appName, version, name)
				if pathErr != nil {
					return &exitcodes.ExitCodeError{Code: exitcodes.ExitInternalError, Err: pathErr}
				}
				paths = append(paths, artifactPath)
			}

			created, err := newReleaseClient(apiURL, token).CreateRelease(cmd.Context(), release.Release{
				Tag:       appName + "/" + version,
				Name:      fmt.Sprintf("%s %s", appName, appversion.Normalize(version)),
				Body:      fmt.Sprintf("Release of %s %s (%d artifacts)", appName, version, len(paths)),
				Artifacts: paths,
			})
			if err != nil {
				return &exitcodes.ExitCodeError{
					Code: exitcodes.ExitReleaseFailed,
					Err:  fmt.Errorf("create release %s/%s: %w", appName, version, err),
				}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Created release %s/%s: %s\n", appName, version, created.URL)
			return nil
		},
	}

	cmd.Flags().StringVar(&appName, "app", "", "application name (required)")
	cmd.Flags().StringVar(&version, "app-version", "", "application version (required)")
	cmd.Flags().StringVar(&artifactsDir, "artifacts-dir", "artifacts", "root directory for stored artifacts")
	cmd.Flags().StringVar(&apiURL, "api-url", "", "release API base URL (required)")
	cmd.Flags().StringVar(&token, "token", "", "release API token (default $LCPIPE_RELEASE_TOKEN)")

	return cmd
}
