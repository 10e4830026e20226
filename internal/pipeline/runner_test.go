package pipeline

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lowcode-cicd/lcpipe/internal/core"
	"github.com/lowcode-cicd/lcpipe/pkg/artifact"
	"github.com/lowcode-cicd/lcpipe/pkg/environment"
	"github.com/lowcode-cicd/lcpipe/pkg/exitcodes"
	"github.com/lowcode-cicd/lcpipe/pkg/flow"
	log "github.com/lowcode-cicd/lcpipe/pkg/log"
	"github.com/lowcode-cicd/lcpipe/pkg/override"
	"github.com/lowcode-cicd/lcpipe/pkg/release"
	"github.com/lowcode-cicd/lcpipe/pkg/template"
	"github.com/lowcode-cicd/lcpipe/pkg/testutil"
)

type fakeReleaseCreator struct {
	created []release.Release
	err     error
}

func (f *fakeReleaseCreator) CreateRelease(_ context.Context, rel release.Release) (*release.Created, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = append(f.created, rel)
	return &release.Created{ID: int64(len(f.created)), URL: "https://git.example.com/releases/1"}, nil
}

func testChain() []environment.Environment {
	return []environment.Environment{
		{Name: "dev", BaseURL: "https://dev", APIKeySecret: "DEV_API_KEY"},
		{Name: "qa", BaseURL: "https://qa", APIKeySecret: "QA_API_KEY"},
		{Name: "prod", BaseURL: "https://prod", APIKeySecret: "PROD_API_KEY", RequireApproval: true},
	}
}

func testCredentials() map[string]core.Credentials {
	return map[string]core.Credentials{
		"dev":  {APIKey: "dev-key"},
		"qa":   {APIKey: "qa-key"},
		"prod": {APIKey: "prod-key"},
	}
}

func mustParse(t *testing.T, text string) *override.Set {
	t.Helper()
	set, err := override.Parse(text)
	require.NoError(t, err)
	return set
}

func newTestRunner() (*Runner, *core.MockClient, *fakeReleaseCreator) {
	mock := core.NewMockClient()
	releases := &fakeReleaseCreator{}
	runner := &Runner{
		Core:      mock,
		Artifacts: artifact.NewStore(afero.NewMemMapFs(), "artifacts"),
		Releases:  releases,
	}
	return runner, mock, releases
}

func TestRunFlowA(t *testing.T) {
	runner, mock, releases := newTestRunner()

	result, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowA,
		Chain:       testChain(),
		Credentials: testCredentials(),
	})
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	require.Len(t, result.Hops, 2)
	assert.Equal(t, "dev", result.Hops[0].From)
	assert.Equal(t, "qa", result.Hops[0].To)
	assert.Equal(t, "prod", result.Hops[1].To)

	assert.Equal(t, 2, mock.ExportCallCount)
	assert.Equal(t, 2, mock.PromoteCallCount)
	assert.Equal(t, 0, mock.BuildCallCount)
	assert.Equal(t, 0, mock.PrepareScriptsCallCount)

	// One export artifact plus its metadata record per hop, all referenced
	// by the release.
	assert.Equal(t, []string{
		"artifacts/crm-app/v1.2.0/crm-app-dev.zip",
		"artifacts/crm-app/v1.2.0/crm-app-dev-export-metadata.json",
		"artifacts/crm-app/v1.2.0/crm-app-qa.zip",
		"artifacts/crm-app/v1.2.0/crm-app-qa-export-metadata.json",
	}, result.Artifacts)
	require.Len(t, releases.created, 1)
	assert.Equal(t, "crm-app/v1.2.0", releases.created[0].Tag)
	assert.Equal(t, "crm-app 1.2.0", releases.created[0].Name)
	assert.Equal(t, result.Artifacts, releases.created[0].Artifacts)
	require.NotNil(t, result.Release)
}

func TestRunFlowBAppliesOverridesPerTarget(t *testing.T) {
	runner, mock, _ := newTestRunner()

	result, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowB,
		Chain:       testChain(),
		Credentials: testCredentials(),
		Overrides: map[string]*override.Set{
			"qa":   mustParse(t, "connectedSystem.1111.baseUrl=https://qa-backend\n"),
			"prod": mustParse(t, "connectedSystem.1111.baseUrl=https://prod-backend\n"),
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Hops, 2)

	require.Equal(t, 2, mock.BuildCallCount)
	qaValue, ok := mock.BuiltOverrides[0].Get("connectedSystem.1111.baseUrl")
	require.True(t, ok)
	assert.Equal(t, "https://qa-backend", qaValue)
	prodValue, ok := mock.BuiltOverrides[1].Get("connectedSystem.1111.baseUrl")
	require.True(t, ok)
	assert.Equal(t, "https://prod-backend", prodValue)

	for _, req := range mock.PromoteRequests {
		assert.NotNil(t, req.Customization)
		assert.Nil(t, req.Scripts)
	}
}

func TestRunFlowCPreparesScripts(t *testing.T) {
	runner, mock, _ := newTestRunner()

	_, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowC,
		Chain:       testChain()[:2],
		Credentials: testCredentials(),
		Overrides: map[string]*override.Set{
			"qa": mustParse(t, "content.2222.VALUE=10\n"),
		},
		Scripts: []string{"001_init.sql", "002_data.sql"},
	})
	require.NoError(t, err)

	require.Equal(t, 1, mock.PrepareScriptsCallCount)
	assert.Equal(t, []string{"001_init.sql", "002_data.sql"}, mock.PreparedScripts[0])
	require.Len(t, mock.PromoteRequests, 1)
	require.NotNil(t, mock.PromoteRequests[0].Scripts)
}

func TestRunFlowBMissingTargetOverridesAborts(t *testing.T) {
	runner, mock, releases := newTestRunner()

	_, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowB,
		Chain:       testChain(),
		Credentials: testCredentials(),
		Overrides: map[string]*override.Set{
			// qa present, prod missing: run must abort on the second hop.
			"qa": mustParse(t, "a=1\n"),
		},
	})
	require.Error(t, err)

	code, ok := exitcodes.IsExitCodeError(err)
	require.True(t, ok)
	assert.Equal(t, exitcodes.ExitInputConfigurationError, code)

	// First hop promoted, second aborted before promote, no release.
	assert.Equal(t, 1, mock.PromoteCallCount)
	assert.Empty(t, releases.created)
}

func TestRunExportFailureAborts(t *testing.T) {
	runner, mock, releases := newTestRunner()
	mock.ExportError = errors.New("core unavailable")

	_, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowA,
		Chain:       testChain(),
		Credentials: testCredentials(),
	})
	require.Error(t, err)

	code, ok := exitcodes.IsExitCodeError(err)
	require.True(t, ok)
	assert.Equal(t, exitcodes.ExitCoreExportFailed, code)
	assert.Equal(t, 0, mock.PromoteCallCount)
	assert.Empty(t, releases.created)
}

func TestRunPromoteFailureCode(t *testing.T) {
	runner, mock, _ := newTestRunner()
	mock.PromoteError = errors.New("deployment rejected")

	_, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowA,
		Chain:       testChain(),
		Credentials: testCredentials(),
	})
	require.Error(t, err)

	code, ok := exitcodes.IsExitCodeError(err)
	require.True(t, ok)
	assert.Equal(t, exitcodes.ExitCorePromoteFailed, code)
}

func TestRunMissingCredentials(t *testing.T) {
	runner, mock, _ := newTestRunner()

	creds := testCredentials()
	delete(creds, "qa")

	_, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowA,
		Chain:       testChain(),
		Credentials: creds,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "qa")
	assert.Contains(t, err.Error(), "QA_API_KEY")
	assert.Equal(t, 0, mock.ExportCallCount)
}

func TestRunInvalidFlowRejected(t *testing.T) {
	runner, _, _ := newTestRunner()

	_, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.Flow("Z"),
		Chain:       testChain(),
		Credentials: testCredentials(),
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, flow.ErrUnknownFlow)

	code, ok := exitcodes.IsExitCodeError(err)
	require.True(t, ok)
	assert.Equal(t, exitcodes.ExitInputConfigurationError, code)
}

func TestRunReleaseFailureCode(t *testing.T) {
	runner, _, releases := newTestRunner()
	releases.err = errors.New("platform down")

	_, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowA,
		Chain:       testChain(),
		Credentials: testCredentials(),
	})
	require.Error(t, err)

	code, ok := exitcodes.IsExitCodeError(err)
	require.True(t, ok)
	assert.Equal(t, exitcodes.ExitReleaseFailed, code)
}

func TestRunWithoutReleaseClient(t *testing.T) {
	runner, _, _ := newTestRunner()
	runner.Releases = nil

	result, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowA,
		Chain:       testChain(),
		Credentials: testCredentials(),
	})
	require.NoError(t, err)
	assert.Nil(t, result.Release)
}

func TestRunKeepsSuppliedRunID(t *testing.T) {
	runner, _, _ := newTestRunner()

	result, err := runner.Run(context.Background(), RunSpec{
		RunID:       "run-fixed",
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowA,
		Chain:       testChain(),
		Credentials: testCredentials(),
	})
	require.NoError(t, err)
	assert.Equal(t, "run-fixed", result.RunID)
}

func TestRunLogsCompletionWithRunID(t *testing.T) {
	runner, _, _ := newTestRunner()

	_, records, err := testutil.CaptureJSONLogs(log.LevelInfo, func() {
		_, runErr := runner.Run(context.Background(), RunSpec{
			RunID:       "run-logged",
			App:         "crm-app",
			Version:     "v1.2.0",
			Flow:        flow.FlowA,
			Chain:       testChain(),
			Credentials: testCredentials(),
		})
		require.NoError(t, runErr)
	})
	require.NoError(t, err)

	assert.True(t, testutil.ContainsLogRecord(records, "Starting promotion run", map[string]interface{}{
		"runId": "run-logged",
		"flow":  "A",
	}))
	assert.True(t, testutil.ContainsLogRecord(records, "Promotion run complete", map[string]interface{}{
		"runId": "run-logged",
	}))
}

func zipWith(t *testing.T, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer
	writer := zip.NewWriter(&buf)
	for name, content := range files {
		entry, err := writer.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, writer.Close())
	return buf.Bytes()
}

func TestRunWritesExportMetadata(t *testing.T) {
	fs := afero.NewMemMapFs()
	mock := core.NewMockClient()
	runner := &Runner{
		Core:      mock,
		Artifacts: artifact.NewStore(fs, "artifacts"),
		Templates: template.NewFinder(fs),
	}
	mock.SetupExport("dev", "crm-app", &core.ExportResult{
		PackageID:  "pkg-dev",
		PackageSHA: "sha-dev",
		Data: zipWith(t, map[string]string{
			"customization-template/app.properties": "db.host=CHANGE_ME\n",
		}),
	})

	_, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowA,
		Chain:       testChain()[:2],
		Credentials: testCredentials(),
	})
	require.NoError(t, err)

	meta, err := runner.Artifacts.ReadMetadata("crm-app", "v1.2.0", "crm-app-dev.zip")
	require.NoError(t, err)
	assert.Equal(t, "crm-app-dev.zip", meta.ArtifactName)
	assert.Equal(t, "artifacts/crm-app/v1.2.0/crm-app-dev.zip", meta.ArtifactPath)
	assert.Equal(t, "dev", meta.SourceEnvironment)
	assert.Equal(t, "pkg-dev", meta.PackageID)
	assert.Equal(t, "sha-dev", meta.PackageSHA)
	assert.Equal(t, "ready", meta.TemplateStatus)
	assert.True(t, meta.OverridesPresent)
	assert.False(t, meta.DatabaseScriptsPresent)
}

func TestRunMetadataWithoutTemplateFinder(t *testing.T) {
	runner, _, _ := newTestRunner()

	_, err := runner.Run(context.Background(), RunSpec{
		App:         "crm-app",
		Version:     "v1.2.0",
		Flow:        flow.FlowA,
		Chain:       testChain()[:2],
		Credentials: testCredentials(),
	})
	require.NoError(t, err)

	meta, err := runner.Artifacts.ReadMetadata("crm-app", "v1.2.0", "crm-app-dev.zip")
	require.NoError(t, err)
	assert.Equal(t, "missing", meta.TemplateStatus)
	assert.False(t, meta.OverridesPresent)
}
