package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowcode-cicd/lcpipe/internal/pipeline"
	"github.com/lowcode-cicd/lcpipe/pkg/artifact"
	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
	"github.com/lowcode-cicd/lcpipe/pkg/flow"
	"github.com/lowcode-cicd/lcpipe/pkg/template"
	appversion "github.com/lowcode-cicd/lcpipe/pkg/version"
)

// newRunCmd creates the run command, which executes one full promotion run.
func newRunCmd() *cobra.Command {
	var (
		appName      string
		version      string
		flowName     string
		envConfig    string
		artifactsDir string
		overridesDir string
		scriptsDir   string
		releaseURL   string
		releaseToken string
		runID        string
		dryRun       bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Execute a promotion flow across the environment chain",
		Long: `Execute the selected flow (A, B or C) across every adjacent pair of the
environment chain. Per-environment API keys are resolved from the CI secrets
named in the chain config. Flow B and C additionally require override text
for each target environment, from the secret named in the chain config or
from <overrides-dir>/<env>.overrides; Flow C also requires a database script
directory. When a release API URL is configured, a release record is created
for the run's artifacts.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, required := range []struct{ name, value string }{
				{"app", appName},
				{"app-version", version},
				{"flow", flowName},
				{"env-config", envConfig},
			} {
				if err := requireFlagValue(required.name, required.value); err != nil {
					return err
				}
			}

			if err := appversion.Validate(version); err != nil {
				return err
			}

			selectedFlow, err := flow.ParseFlow(flowName)
			if err != nil {
				return &exitcodes.ExitCodeError{Code: exitcodes.ExitInvalidFlow, Err: err}
			}

			config, err := loadChain(envConfig)
			if err != nil {
				return err
			}

			overrides, err := loadOverrides(AppFs, config.Chain, overridesDir)
			if err != nil {
				return err
			}
			scripts, err := listScripts(AppFs, scriptsDir)
			if err != nil {
				return err
			}

			if dryRun {
				plan, planErr := flow.BuildPlan(selectedFlow, config.Chain, flow.PlanOptions{
					HasOverrides: len(overrides) > 0,
					HasScripts:   len(scripts) > 0,
				})
				if planErr != nil {
					return &exitcodes.ExitCodeError{Code: exitcodes.ExitInputConfigurationError, Err: planErr}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Dry run: flow %s, %d hops, nothing executed\n", plan.Flow, len(plan.Hops))
				for _, line := range plan.Describe() {
					fmt.Fprintln(cmd.OutOrStdout(), line)
				}
				return nil
			}

			runner := &pipeline.Runner{
				Core:      newCoreClient(),
				Artifacts: artifact.NewStore(AppFs, artifactsDir),
				Templates: template.NewFinder(AppFs),
			}
			if releaseURL != "" {
				runner.Releases = newReleaseClient(releaseURL, releaseToken)
			}

			result, err := runner.Run(cmd.Context(), pipeline.RunSpec{
				RunID:       runID,
				App:         appName,
				Version:     version,
				Flow:        selectedFlow,
				Chain:       config.Chain,
				Credentials: resolveCredentials(config.Chain),
				Overrides:   overrides,
				Scripts:     scripts,
			})
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Run %s complete: flow %s, %d hops\n",
				result.RunID, selectedFlow, len(result.Hops))
			for _, hop := range result.Hops {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s -> %s: deployment %s (%s)\n",
					hop.From, hop.To, hop.DeploymentID, hop.Status)
			}
			for _, artifactPath := range result.Artifacts {
				fmt.Fprintf(cmd.OutOrStdout(), "  artifact: %s\n", artifactPath)
			}
			if result.Release != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "  release: %s\n", result.Release.URL)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&appName, "app", "", "application name (required)")
	cmd.Flags().StringVar(&version, "app-version", "", "application version for artifacts and the release tag (required)")
	cmd.Flags().StringVar(&flowName, "flow", "", "flow to execute: A, B or C (required)")
	cmd.Flags().StringVar(&envConfig, "env-config", "", "path to the environment chain YAML (required)")
	cmd.Flags().StringVar(&artifactsDir, "artifacts-dir", "artifacts", "root directory for stored artifacts")
	cmd.Flags().StringVar(&overridesDir, "overrides-dir", "", "directory holding <env>.overrides files")
	cmd.Flags().StringVar(&scriptsDir, "scripts-dir", "", "directory holding database scripts (Flow C)")
	cmd.Flags().StringVar(&releaseURL, "release-url", "", "release API base URL; empty skips release creation")
	cmd.Flags().StringVar(&releaseToken, "release-token", "", "release API token")
	cmd.Flags().StringVar(&runID, "run-id", "", "run identifier (generated if empty)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "resolve and print the plan without contacting the Core")

	return cmd
}
