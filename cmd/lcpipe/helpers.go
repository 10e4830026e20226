package main

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/lowcode-cicd/lcpipe/internal/core"
	"github.com/lowcode-cicd/lcpipe/internal/pipeline"
	"github.com/lowcode-cicd/lcpipe/pkg/debug"
	"github.com/lowcode-cicd/lcpipe/pkg/environment"
	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
	"github.com/lowcode-cicd/lcpipe/pkg/fileutil"
	"github.com/lowcode-cicd/lcpipe/pkg/override"
	"github.com/lowcode-cicd/lcpipe/pkg/release"
)

// Factory functions replaced in tests to avoid real network clients.
var (
	newCoreClient = func() core.ClientInterface {
		return core.NewRealClient()
	}
	newReleaseClient = func(baseURL, token string) pipeline.ReleaseCreator {
		return release.NewClient(baseURL, token)
	}
)

// getenv is swapped in tests so secret resolution stays hermetic.
var getenv = os.Getenv

// loadChain loads and validates the environment chain configuration.
func loadChain(path string) (*environment.Config, error) {
	config, err := environment.LoadConfig(AppFs, path)
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitEnvironmentConfigError,
			Err:  err,
		}
	}
	return config, nil
}

// resolveCredentials resolves each environment's API key from the CI secret
// referenced in the chain config. Secrets are surfaced to the process as
// environment variables named by APIKeySecret; values never appear in logs
// or errors.
func resolveCredentials(chain []environment.Environment) map[string]core.Credentials {
	creds := make(map[string]core.Credentials, len(chain))
	for _, env := range chain {
		value := getenv(env.APIKeySecret)
		if value == "" {
			debug.Printf("Secret %s for environment %s is unset", env.APIKeySecret, env.Name)
			continue
		}
		creds[env.Name] = core.Credentials{APIKey: value}
	}
	return creds
}

// loadOverrides collects each environment's override set. The CI secret
// named by OverridesSecret wins; otherwise a file <overridesDir>/<env>.overrides
// is used when present. Environments with neither source are simply absent
// from the result; the pipeline decides whether that is fatal for the flow.
func loadOverrides(fs afero.Fs, chain []environment.Environment, overridesDir string) (map[string]*override.Set, error) {
	sets := make(map[string]*override.Set)
	for _, env := range chain {
		text, source, err := overrideText(fs, env, overridesDir)
		if err != nil {
			return nil, err
		}
		if source == "" {
			continue
		}

		set, err := override.Parse(text)
		if err != nil {
			return nil, &exitcodes.ExitCodeError{
				Code: exitcodes.ExitOverrideFormatError,
				Err:  fmt.Errorf("overrides for environment %s (%s): %w", env.Name, source, err),
			}
		}
		debug.Printf("Loaded %d overrides for environment %s from %s", set.Len(), env.Name, source)
		sets[env.Name] = set
	}
	return sets, nil
}

// overrideText finds one environment's override text. The returned source is
// a loggable description ("secret NAME" or a file path), empty when no
// source exists.
func overrideText(fs afero.Fs, env environment.Environment, overridesDir string) (text, source string, err error) {
	if env.OverridesSecret != "" {
		if value := getenv(env.OverridesSecret); value != "" {
			return value, "secret " + env.OverridesSecret, nil
		}
	}

	if overridesDir == "" {
		return "", "", nil
	}
	filePath := path.Join(overridesDir, env.Name+".overrides")
	exists, err := afero.Exists(fs, filePath)
	if err != nil {
		return "", "", &exitcodes.ExitCodeError{
			Code: exitcodes.ExitIOError,
			Err:  fmt.Errorf("check override file %s: %w", filePath, err),
		}
	}
	if !exists {
		return "", "", nil
	}

	text, err = fileutil.ReadFileString(fs, filePath)
	if err != nil {
		return "", "", &exitcodes.ExitCodeError{
			Code: exitcodes.ExitIOError,
			Err:  fmt.Errorf("read override file %s: %w", filePath, err),
		}
	}
	return text, filePath, nil
}

// listScripts returns the SQL script names in dir, sorted so execution order
// is deterministic across runs. An empty dir argument means no scripts.
func listScripts(fs afero.Fs, dir string) ([]string, error) {
	if dir == "" {
		return nil, nil
	}

	infos, err := afero.ReadDir(fs, dir)
	if err != nil {
		return nil, &exitcodes.ExitCodeError{
			Code: exitcodes.ExitIOError,
			Err:  fmt.Errorf("read script directory %s: %w", dir, err),
		}
	}

	var scripts []string
	for _, info := range infos {
		if info.IsDir() || !strings.HasSuffix(info.Name(), ".sql") {
			continue
		}
		scripts = append(scripts, info.Name())
	}
	sort.Strings(scripts)
	return scripts, nil
}

// requireFlagValue reports a missing required flag with the matching exit
// code so CI logs show which input was absent.
func requireFlagValue(name, value string) error {
	if value == "" {
		return &exitcodes.ExitCodeError{
			Code: exitcodes.ExitMissingRequiredFlag,
			Err:  fmt.Errorf("required flag --%s not provided", name),
		}
	}
	return nil
}
