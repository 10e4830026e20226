package environment

import (
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	yamlv3 "gopkg.in/yaml.v3"
)

const validChainYAML = `chain:
  - name: dev
    baseUrl: https://dev.example.com
    apiKeySecret: DEV_API_KEY
  - name: qa
    baseUrl: https://qa.example.com
    apiKeySecret: QA_API_KEY
    overridesSecret: QA_OVERRIDES
  - name: prod
    baseUrl: https://prod.example.com
    apiKeySecret: PROD_API_KEY
    overridesSecret: PROD_OVERRIDES
    requireApproval: true
`

func writeConfig(t *testing.T, fs afero.Fs, path, content string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(content), 0o600))
}

func TestLoadConfig(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "environments.yaml", validChainYAML)

	config, err := LoadConfig(fs, "environments.yaml")
	require.NoError(t, err)
	require.Len(t, config.Chain, 3)

	assert.Equal(t, "dev", config.Chain[0].Name)
	assert.Equal(t, "https://qa.example.com", config.Chain[1].BaseURL)
	assert.Equal(t, "QA_OVERRIDES", config.Chain[1].OverridesSecret)
	assert.False(t, config.Chain[1].RequireApproval)
	assert.True(t, config.Chain[2].RequireApproval)
}

func TestLoadConfigMissingFile(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadConfig(fs, "environments.yaml")
	require.Error(t, err)

	var notExistErr *ErrConfigFileNotExist
	assert.True(t, errors.As(err, &notExistErr))
}

func TestLoadConfigEmptyPath(t *testing.T) {
	fs := afero.NewMemMapFs()

	_, err := LoadConfig(fs, "")
	require.Error(t, err)

	var notExistErr *ErrConfigFileNotExist
	assert.True(t, errors.As(err, &notExistErr))
}

func TestLoadConfigBadExtension(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "environments.txt", validChainYAML)

	_, err := LoadConfig(fs, "environments.txt")
	require.Error(t, err)

	var extErr *ErrConfigExtension
	assert.True(t, errors.As(err, &extErr))
}

func TestLoadConfigUnparseable(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "environments.yaml", "chain: [not: valid: yaml\n")

	_, err := LoadConfig(fs, "environments.yaml")
	require.Error(t, err)

	var parseErr *ErrConfigParse
	assert.True(t, errors.As(err, &parseErr))
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		return &Config{Chain: []Environment{
			{Name: "dev", BaseURL: "https://dev", APIKeySecret: "DEV"},
			{Name: "prod", BaseURL: "https://prod", APIKeySecret: "PROD"},
		}}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:   "valid chain",
			mutate: func(*Config) {},
		},
		{
			name:    "single environment",
			mutate:  func(c *Config) { c.Chain = c.Chain[:1] },
			wantErr: "at least two environments",
		},
		{
			name:    "empty name",
			mutate:  func(c *Config) { c.Chain[0].Name = "" },
			wantErr: "name cannot be empty",
		},
		{
			name:    "missing base URL",
			mutate:  func(c *Config) { c.Chain[1].BaseURL = "" },
			wantErr: "has no baseUrl",
		},
		{
			name:    "missing api key secret",
			mutate:  func(c *Config) { c.Chain[1].APIKeySecret = "" },
			wantErr: "has no apiKeySecret",
		},
		{
			name:    "duplicate names",
			mutate:  func(c *Config) { c.Chain[1].Name = "dev" },
			wantErr: "duplicate environment name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := base()
			tt.mutate(config)

			err := config.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var chainErr *ErrChainInvalid
			assert.True(t, errors.As(err, &chainErr))
		})
	}
}

func TestConfigLookup(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeConfig(t, fs, "environments.yaml", validChainYAML)

	config, err := LoadConfig(fs, "environments.yaml")
	require.NoError(t, err)

	env, ok := config.Lookup("qa")
	require.True(t, ok)
	assert.Equal(t, "https://qa.example.com", env.BaseURL)

	_, ok = config.Lookup("staging")
	assert.False(t, ok)
}

func TestSaveConfigRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()

	original := &Config{Chain: []Environment{
		{Name: "dev", BaseURL: "https://dev", APIKeySecret: "DEV"},
		{Name: "prod", BaseURL: "https://prod", APIKeySecret: "PROD", RequireApproval: true},
	}}

	require.NoError(t, SaveConfig(fs, "environments.yaml", original))

	loaded, err := LoadConfig(fs, "environments.yaml")
	require.NoError(t, err)
	assert.Equal(t, original.Chain, loaded.Chain)
}

func TestSaveConfigRejectsInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()

	err := SaveConfig(fs, "environments.yaml", &Config{})
	require.Error(t, err)

	exists, statErr := afero.Exists(fs, "environments.yaml")
	require.NoError(t, statErr)
	assert.False(t, exists, "invalid config must not be written")
}

func TestSaveConfigUsesCamelCaseKeys(t *testing.T) {
	fs := afero.NewMemMapFs()

	config := &Config{Chain: []Environment{
		{Name: "dev", BaseURL: "https://dev", APIKeySecret: "DEV"},
		{Name: "prod", BaseURL: "https://prod", APIKeySecret: "PROD", RequireApproval: true},
	}}
	require.NoError(t, SaveConfig(fs, "environments.yaml", config))

	data, err := afero.ReadFile(fs, "environments.yaml")
	require.NoError(t, err)

	// Decode with a generic YAML parser so the assertion covers the actual
	// key spelling, not this package's struct tags.
	var raw map[string]interface{}
	require.NoError(t, yamlv3.Unmarshal(data, &raw))

	chain, ok := raw["chain"].([]interface{})
	require.True(t, ok)
	require.Len(t, chain, 2)

	prod, ok := chain[1].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "PROD", prod["apiKeySecret"])
	assert.Equal(t, true, prod["requireApproval"])
	assert.NotContains(t, prod, "api_key_secret")
}
