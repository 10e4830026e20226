package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
	"github.com/lowcode-cicd/lcpipe/pkg/flow"
)

// newPlanCmd creates the plan command, which prints a flow's resolved hop
// plan without contacting the Core.
func newPlanCmd() *cobra.Command {
	var (
		flowName     string
		envConfig    string
		overridesDir string
		scriptsDir   string
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Show the step plan for a flow without executing it",
		Long: `Resolve the selected flow against the environment chain and print the
hop-by-hop step plan. The same input checks as the run command apply, so a
plan that prints successfully will not be rejected for missing overrides or
scripts at run time.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := requireFlagValue("flow", flowName); err != nil {
				return err
			}
			if err := requireFlagValue("env-config", envConfig); err != nil {
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

			// The run command resolves an override set per promotion target,
			// so the plan checks each target too, not just that some set
			// loaded.
			if selectedFlow.RequiresOverrides() {
				for _, env := range config.Chain[1:] {
					if _, ok := overrides[env.Name]; !ok {
						return &exitcodes.ExitCodeError{
							Code: exitcodes.ExitInputConfigurationError,
							Err:  fmt.Errorf("flow %s requires overrides for every target: environment %s has none", selectedFlow, env.Name),
						}
					}
				}
			}

			plan, err := flow.BuildPlan(selectedFlow, config.Chain, flow.PlanOptions{
				HasOverrides: len(overrides) > 0,
				HasScripts:   len(scripts) > 0,
			})
			if err != nil {
				return &exitcodes.ExitCodeError{Code: exitcodes.ExitInputConfigurationError, Err: err}
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Flow %s plan (%d hops):\n", plan.Flow, len(plan.Hops))
			for _, line := range plan.Describe() {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&flowName, "flow", "", "flow to plan: A, B or C (required)")
	cmd.Flags().StringVar(&envConfig, "env-config", "", "path to the environment chain YAML (required)")
	cmd.Flags().StringVar(&overridesDir, "overrides-dir", "", "directory holding <env>.overrides files")
	cmd.Flags().StringVar(&scriptsDir, "scripts-dir", "", "directory holding database scripts (Flow C)")

	return cmd
}
