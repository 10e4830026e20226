package core

import (
	"context"
	"fmt"

	"github.com/lowcode-cicd/lcpipe/pkg/environment"
	"github.com/lowcode-cicd/lcpipe/pkg/override"
)

// MockClient implements ClientInterface for testing.
type MockClient struct {
	// Mock responses
	ExportResults map[string]*ExportResult // "env/app" -> result
	PromoteStatus string

	// Track calls for assertions
	ExportCallCount         int
	BuildCallCount          int
	PrepareScriptsCallCount int
	PromoteCallCount        int

	// Captured inputs
	PromoteRequests []PromoteRequest
	BuiltOverrides  []*override.Set
	PreparedScripts [][]string

	// Error simulation
	ExportError         error
	BuildError          error
	PrepareScriptsError error
	PromoteError        error
}

// NewMockClient creates a new MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		ExportResults: make(map[string]*ExportResult),
		PromoteStatus: "COMPLETED",
	}
}

// Export returns a mocked export result.
func (m *MockClient) Export(_ context.Context, app string, env environment.Environment, _ Credentials) (*ExportResult, error) {
	m.ExportCallCount++

	if m.ExportError != nil {
		return nil, m.ExportError
	}

	key := env.Name + "/" + app
	if result, exists := m.ExportResults[key]; exists {
		return result, nil
	}

	// Default result if none configured.
	return &ExportResult{
		PackageID:  fmt.Sprintf("pkg-%s-%d", app, m.ExportCallCount),
		PackageSHA: fmt.Sprintf("sha-%s", app),
		Data:       []byte("package " + key),
	}, nil
}

// BuildCustomizationFile returns a mocked customization file and records the
// override set it was given.
func (m *MockClient) BuildCustomizationFile(_ context.Context, app string, _ environment.Environment, _ Credentials, set *override.Set) (*CustomizationFile, error) {
	m.BuildCallCount++
	m.BuiltOverrides = append(m.BuiltOverrides, set)

	if m.BuildError != nil {
		return nil, m.BuildError
	}

	return &CustomizationFile{
		Name: app + ".properties",
		Data: []byte(set.Render()),
	}, nil
}

// PrepareDatabaseScripts returns a mocked script bundle.
func (m *MockClient) PrepareDatabaseScripts(_ context.Context, app string, _ environment.Environment, _ Credentials, scripts []string) (*ScriptBundle, error) {
	m.PrepareScriptsCallCount++
	m.PreparedScripts = append(m.PreparedScripts, scripts)

	if m.PrepareScriptsError != nil {
		return nil, m.PrepareScriptsError
	}

	return &ScriptBundle{
		BundleID: fmt.Sprintf("bundle-%s-%d", app, m.PrepareScriptsCallCount),
		Scripts:  scripts,
	}, nil
}

// Promote records the request and returns a mocked result.
func (m *MockClient) Promote(_ context.Context, req PromoteRequest) (*PromoteResult, error) {
	m.PromoteCallCount++
	m.PromoteRequests = append(m.PromoteRequests, req)

	if m.PromoteError != nil {
		return nil, m.PromoteError
	}

	return &PromoteResult{
		DeploymentID: fmt.Sprintf("deploy-%d", m.PromoteCallCount),
		Status:       m.PromoteStatus,
	}, nil
}

// SetupExport configures the export result for an environment/app pair.
func (m *MockClient) SetupExport(envName, app string, result *ExportResult) {
	m.ExportResults[envName+"/"+app] = result
}
