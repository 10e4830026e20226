package artifact

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreSaveAndRead(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "artifacts")

	saved, err := store.Save("crm-app", "v1.2.0", "crm-app.zip", []byte("package-data"))
	require.NoError(t, err)
	assert.Equal(t, "artifacts/crm-app/v1.2.0/crm-app.zip", saved)

	data, err := store.Read("crm-app", "v1.2.0", "crm-app.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("package-data"), data)
}

func TestStoreSaveOverwrites(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "artifacts")

	_, err := store.Save("crm-app", "v1.2.0", "crm-app.zip", []byte("first"))
	require.NoError(t, err)
	_, err = store.Save("crm-app", "v1.2.0", "crm-app.zip", []byte("second"))
	require.NoError(t, err)

	data, err := store.Read("crm-app", "v1.2.0", "crm-app.zip")
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), data)
}

func TestStoreList(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "artifacts")

	_, err := store.Save("crm-app", "v1.2.0", "zeta.sql", []byte("z"))
	require.NoError(t, err)
	_, err = store.Save("crm-app", "v1.2.0", "alpha.zip", []byte("a"))
	require.NoError(t, err)
	_, err = store.Save("crm-app", "v2.0.0", "other.zip", []byte("o"))
	require.NoError(t, err)

	names, err := store.List("crm-app", "v1.2.0")
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha.zip", "zeta.sql"}, names)
}

func TestStoreListMissingVersion(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "artifacts")

	names, err := store.List("crm-app", "v9.9.9")
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestStoreRejectsUnsafeElements(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "artifacts")

	tests := []struct {
		name    string
		app     string
		version string
		file    string
	}{
		{name: "traversal in app", app: "..", version: "v1", file: "a.zip"},
		{name: "separator in version", app: "crm-app", version: "v1/../../etc", file: "a.zip"},
		{name: "empty artifact name", app: "crm-app", version: "v1", file: ""},
		{name: "backslash in name", app: "crm-app", version: "v1", file: "a\\b.zip"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Save(tt.app, tt.version, tt.file, []byte("x"))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidName)
		})
	}
}

func TestStoreReadMissingArtifact(t *testing.T) {
	fs := afero.NewMemMapFs()
	store := NewStore(fs, "artifacts")

	_, err := store.Read("crm-app", "v1.0.0", "missing.zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreIO)
}

func TestDir(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "artifacts")

	dir, err := store.Dir("crm-app", "v1.2.0")
	require.NoError(t, err)
	assert.Equal(t, "artifacts/crm-app/v1.2.0", dir)

	_, err = store.Dir("../escape", "v1.2.0")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidName)
}

func TestMetadataName(t *testing.T) {
	assert.Equal(t, "crm-app-dev-export-metadata.json", MetadataName("crm-app-dev.zip"))
	assert.Equal(t, "bundle-export-metadata.json", MetadataName("bundle"))
}

func TestSaveAndReadMetadata(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "artifacts")

	meta := ExportMetadata{
		ArtifactName:           "crm-app-dev.zip",
		ArtifactPath:           "artifacts/crm-app/v1.2.0/crm-app-dev.zip",
		SourceEnvironment:      "dev",
		PackageID:              "pkg-123",
		PackageSHA:             "sha-abc",
		DatabaseScripts:        []string{"001_init.sql"},
		DatabaseScriptsPresent: true,
		TemplateStatus:         "missing",
	}

	savedPath, err := store.SaveMetadata("crm-app", "v1.2.0", "crm-app-dev.zip", meta)
	require.NoError(t, err)
	assert.Equal(t, "artifacts/crm-app/v1.2.0/crm-app-dev-export-metadata.json", savedPath)

	loaded, err := store.ReadMetadata("crm-app", "v1.2.0", "crm-app-dev.zip")
	require.NoError(t, err)
	assert.Equal(t, &meta, loaded)
}

func TestReadMetadataMissing(t *testing.T) {
	store := NewStore(afero.NewMemMapFs(), "artifacts")

	_, err := store.ReadMetadata("crm-app", "v1.2.0", "crm-app-dev.zip")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrStoreIO)
}
