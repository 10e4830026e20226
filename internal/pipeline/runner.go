// Package pipeline orchestrates one promotion run: it expands the selected
// flow over the environment chain and drives the Core client hop by hop,
// storing artifacts and finally recording a release. All deployment
// semantics stay behind the Core client; this package only sequences them.
package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/lowcode-cicd/lcpipe/internal/core"
	"github.com/lowcode-cicd/lcpipe/pkg/artifact"
	"github.com/lowcode-cicd/lcpipe/pkg/environment"
	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
	"github.com/lowcode-cicd/lcpipe/pkg/flow"
	log "github.com/lowcode-cicd/lcpipe/pkg/log"
	"github.com/lowcode-cicd/lcpipe/pkg/override"
	"github.com/lowcode-cicd/lcpipe/pkg/release"
	"github.com/lowcode-cicd/lcpipe/pkg/template"
	appversion "github.com/lowcode-cicd/lcpipe/pkg/version"
)

// ReleaseCreator is the subset of the release client the runner needs.
type ReleaseCreator interface {
	CreateRelease(ctx context.Context, rel release.Release) (*release.Created, error)
}

// Runner executes promotion runs.
type Runner struct {
	Core      core.ClientInterface
	Artifacts *artifact.Store
	// Templates may be nil; exports then record template status "missing".
	Templates *template.Finder
	// Releases may be nil; runs then skip release creation.
	Releases ReleaseCreator
}

// RunSpec is the full input for one run. Overrides and credentials are keyed
// by environment name.
type RunSpec struct {
	RunID       string // assigned if empty
	App         string
	Version     string
	Flow        flow.Flow
	Chain       []environment.Environment
	Credentials map[string]core.Credentials
	Overrides   map[string]*override.Set
	Scripts     []string
}

// HopResult reports one completed promotion hop.
type HopResult struct {
	From         string
	To           string
	PackageID    string
	DeploymentID string
	Status       string
}

// RunResult reports a completed run.
type RunResult struct {
	RunID     string
	Hops      []HopResult
	Artifacts []string
	Release   *release.Created
}

// Run executes the flow over the chain. Any step failure aborts the run
// immediately; overrides are never partially applied.
func (r *Runner) Run(ctx context.Context, spec RunSpec) (*RunResult, error) {
	if spec.RunID == "" {
		spec.RunID = uuid.NewString()
	}

	plan, err := flow.BuildPlan(spec.Flow, spec.Chain, flow.PlanOptions{
		HasOverrides: len(spec.Overrides) > 0,
		HasScripts:   len(spec.Scripts) > 0,
	})
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitInputConfigurationError,
			Err:  err,
		}
	}

	log.Info("Starting promotion run",
		"runId", spec.RunID, "app", spec.App, "flow", spec.Flow.String(), "hops", len(plan.Hops))

	result := &RunResult{RunID: spec.RunID}
	for _, hop := range plan.Hops {
		hopResult, err := r.runHop(ctx, &spec, hop, result)
		if err != nil {
			log.Error("Promotion run aborted",
				"runId", spec.RunID, "from", hop.From.Name, "to", hop.To.Name)
			return nil, err
		}
		result.Hops = append(result.Hops, *hopResult)
	}

	if r.Releases != nil {
		created, err := r.createRelease(ctx, &spec, result)
		if err != nil {
			return nil, err
		}
		result.Release = created
	}

	log.Info("Promotion run complete", "runId", spec.RunID, "hops", len(result.Hops))
	return result, nil
}

// runHop performs every step of a single promotion hop.
func (r *Runner) runHop(ctx context.Context, spec *RunSpec, hop flow.Hop, result *RunResult) (*HopResult, error) {
	sourceCreds, err := r.credentials(spec, hop.From)
	if err != nil {
		return nil, err
	}
	targetCreds, err := r.credentials(spec, hop.To)
	if err != nil {
		return nil, err
	}

	exported, err := r.Core.Export(ctx, spec.App, hop.From, sourceCreds)
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitCoreExportFailed,
			Err:  fmt.Errorf("export from %s: %w", hop.From.Name, err),
		}
	}

	exportName := fmt.Sprintf("%s-%s.zip", spec.App, hop.From.Name)
	savedPath, err := r.Artifacts.Save(spec.App, spec.Version, exportName, exported.Data)
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitIOError,
			Err:  fmt.Errorf("store export artifact: %w", err),
		}
	}
	result.Artifacts = append(result.Artifacts, savedPath)

	meta := artifact.ExportMetadata{
		ArtifactName:           exportName,
		ArtifactPath:           savedPath,
		SourceEnvironment:      hop.From.Name,
		PackageID:              exported.PackageID,
		PackageSHA:             exported.PackageSHA,
		DatabaseScripts:        spec.Scripts,
		DatabaseScriptsPresent: len(spec.Scripts) > 0,
		TemplateStatus:         string(template.StatusMissing),
	}
	if r.Templates != nil {
		meta.TemplateStatus, meta.OverridesPresent = r.discoverTemplate(spec, savedPath)
	}
	metaPath, err := r.Artifacts.SaveMetadata(spec.App, spec.Version, exportName, meta)
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitIOError,
			Err:  fmt.Errorf("store export metadata: %w", err),
		}
	}
	result.Artifacts = append(result.Artifacts, metaPath)

	promoteReq := core.PromoteRequest{
		App:         spec.App,
		PackageID:   exported.PackageID,
		PackageSHA:  exported.PackageSHA,
		Target:      hop.To,
		TargetCreds: targetCreds,
	}

	if spec.Flow.RequiresOverrides() {
		icf, err := r.buildCustomization(ctx, spec, hop.To, targetCreds)
		if err != nil {
			return nil, err
		}
		promoteReq.Customization = icf
	}

	if spec.Flow.RequiresScripts() {
		bundle, err := r.Core.PrepareDatabaseScripts(ctx, spec.App, hop.To, targetCreds, spec.Scripts)
		if err != nil {
			return nil, &exitcodes.ExitCodeError{
				Code: exitcodes.ExitDBScriptsFailed,
				Err:  fmt.Errorf("prepare database scripts for %s: %w", hop.To.Name, err),
			}
		}
		promoteReq.Scripts = bundle
	}

	promoted, err := r.Core.Promote(ctx, promoteReq)
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitCorePromoteFailed,
			Err:  fmt.Errorf("promote into %s: %w", hop.To.Name, err),
		}
	}

	log.Info("Hop complete",
		"runId", spec.RunID, "from", hop.From.Name, "to", hop.To.Name,
		"deploymentId", promoted.DeploymentID, "status", promoted.Status)

	return &HopResult{
		From:         hop.From.Name,
		To:           hop.To.Name,
		PackageID:    exported.PackageID,
		DeploymentID: promoted.DeploymentID,
		Status:       promoted.Status,
	}, nil
}

// discoverTemplate looks for a customization template in the stored export.
// Discovery is best effort: a template problem never fails the run, it only
// shows up in the export metadata.
func (r *Runner) discoverTemplate(spec *RunSpec, savedPath string) (status string, overridesPresent bool) {
	dir, err := r.Artifacts.Dir(spec.App, spec.Version)
	if err != nil {
		log.Warn("Template discovery skipped", "runId", spec.RunID, "error", err.Error())
		return string(template.StatusMissing), false
	}

	suggestion, err := r.Templates.Discover(dir, "")
	if err != nil {
		log.Warn("Template discovery failed", "runId", spec.RunID, "artifact", savedPath, "error", err.Error())
		return string(template.StatusMissing), false
	}
	return string(suggestion.Status), suggestion.Overrides != nil && suggestion.Overrides.Len() > 0
}

// buildCustomization resolves the target environment's override set and asks
// the Core to render it. A missing set for any target aborts the run; Flow B
// and C promise every target its overrides or nothing.
func (r *Runner) buildCustomization(ctx context.Context, spec *RunSpec, target environment.Environment, creds core.Credentials) (*core.CustomizationFile, error) {
	set, ok := spec.Overrides[target.Name]
	if !ok || set.Len() == 0 {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitInputConfigurationError,
			Err:  fmt.Errorf("flow %s requires overrides for environment %s", spec.Flow, target.Name),
		}
	}

	icf, err := r.Core.BuildCustomizationFile(ctx, spec.App, target, creds, set)
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitCustomizationFailed,
			Err:  fmt.Errorf("build customization file for %s: %w", target.Name, err),
		}
	}
	return icf, nil
}

// createRelease records the run's artifacts as one release.
func (r *Runner) createRelease(ctx context.Context, spec *RunSpec, result *RunResult) (*release.Created, error) {
	rel := release.Release{
		Tag:       spec.App + "/" + spec.Version,
		Name:      fmt.Sprintf("%s %s", spec.App, appversion.Normalize(spec.Version)),
		Body:      fmt.Sprintf("Flow %s promotion run %s (%d hops)", spec.Flow, spec.RunID, len(result.Hops)),
		Artifacts: result.Artifacts,
	}

	created, err := r.Releases.CreateRelease(ctx, rel)
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitReleaseFailed,
			Err:  fmt.Errorf("create release %s: %w", rel.Tag, err),
		}
	}
	return created, nil
}

// credentials resolves an environment's credentials from the run inputs.
func (r *Runner) credentials(spec *RunSpec, env environment.Environment) (core.Credentials, error) {
	creds, ok := spec.Credentials[env.Name]
	if !ok || creds.APIKey == "" {
		return core.Credentials{}, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitInputConfigurationError,
			Err:  fmt.Errorf("no credentials for environment %s (secret %s unresolved)", env.Name, env.APIKeySecret),
		}
	}
	return creds, nil
}
