// Package environment handles the environment chain configuration and
// associated errors. The configuration file lists the ordered promotion
// chain (e.g. dev -> qa -> prod) together with each environment's Core API
// endpoint and the name of the secret holding its API key. API keys
// themselves never appear in the file; only secret references do.
package environment

import (
	"github.com/lowcode-cicd/lcpipe/pkg/debug"
	"github.com/lowcode-cicd/lcpipe/pkg/fileutil"
	log "github.com/lowcode-cicd/lcpipe/pkg/log"
	"github.com/spf13/afero"
	"sigs.k8s.io/yaml"
)

// Environment describes one deployment target in the promotion chain.
type Environment struct {
	// Name identifies the environment (e.g. "dev", "qa", "prod") and must be
	// unique within the chain.
	Name string `json:"name"`
	// BaseURL is the Core API endpoint for this environment.
	BaseURL string `json:"baseUrl"`
	// APIKeySecret names the CI secret holding this environment's API key.
	// The secret's value is resolved by the caller, never by this package.
	APIKeySecret string `json:"apiKeySecret"`
	// OverridesSecret optionally names the CI secret holding the override
	// text applied when promoting INTO this environment.
	OverridesSecret string `json:"overridesSecret,omitempty"`
	// RequireApproval marks environments guarded by a manual approval gate.
	// Gate evaluation belongs to the CI platform; the flag only annotates
	// plan output.
	RequireApproval bool `json:"requireApproval,omitempty"`
}

// Config is the parsed environment chain configuration.
type Config struct {
	// Chain lists environments in promotion order.
	Chain []Environment `json:"chain"`
}

// LoadConfig loads the environment chain from a YAML file.
func LoadConfig(fs afero.Fs, path string) (*Config, error) {
	if path == "" {
		return nil, WrapConfigFileNotExist(path, nil)
	}

	if !fileutil.HasYAMLExtension(path) {
		return nil, WrapConfigExtension(path)
	}

	exists, err := afero.Exists(fs, path)
	if err != nil {
		return nil, WrapConfigFileRead(path, err)
	}
	if !exists {
		return nil, WrapConfigFileNotExist(path, nil)
	}

	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, WrapConfigFileRead(path, err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, WrapConfigParse(path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	debug.Printf("Loaded environment chain from %s: %d environments", path, len(config.Chain))
	return &config, nil
}

// Validate checks chain length, uniqueness of names, and per-environment
// required fields.
func (c *Config) Validate() error {
	if len(c.Chain) < 2 {
		return WrapChainInvalid("chain must contain at least two environments")
	}

	seen := make(map[string]bool, len(c.Chain))
	for _, env := range c.Chain {
		switch {
		case env.Name == "":
			return WrapChainInvalid("environment name cannot be empty")
		case env.BaseURL == "":
			return WrapChainInvalid("environment " + env.Name + " has no baseUrl")
		case env.APIKeySecret == "":
			return WrapChainInvalid("environment " + env.Name + " has no apiKeySecret")
		case seen[env.Name]:
			return WrapChainInvalid("duplicate environment name " + env.Name)
		}
		seen[env.Name] = true
	}
	return nil
}

// Lookup returns the environment with the given name.
func (c *Config) Lookup(name string) (Environment, bool) {
	for _, env := range c.Chain {
		if env.Name == name {
			return env, true
		}
	}
	return Environment{}, false
}

// SaveConfig validates the configuration, marshals it to YAML and writes it
// with owner-only permissions.
func SaveConfig(fs afero.Fs, path string, config *Config) error {
	if err := config.Validate(); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return WrapConfigParse(path, err)
	}

	if err := afero.WriteFile(fs, path, data, configFilePermissions); err != nil {
		return WrapConfigFileRead(path, err)
	}

	log.Debug("Saved environment chain", "path", path, "environments", len(config.Chain))
	return nil
}

// configFilePermissions is owner read/write only; the file references secret
// names and there is no reason for wider access.
const configFilePermissions = 0o600
