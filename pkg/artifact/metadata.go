package artifact

import (
	"encoding/json"
	"path"
	"strings"
)

// ExportMetadata records what one export produced, stored beside the archive
// so later pipeline stages and operators can inspect a run without asking
// the Core. Field names follow the metadata convention the CI tooling
// already consumes.
type ExportMetadata struct {
	ArtifactName      string   `json:"artifact_name"`
	ArtifactPath      string   `json:"artifact_path"`
	SourceEnvironment string   `json:"source_environment"`
	PackageID         string   `json:"package_id"`
	PackageSHA        string   `json:"package_sha"`
	DatabaseScripts   []string `json:"database_scripts"`
	// DatabaseScriptsPresent mirrors len(DatabaseScripts) > 0 for consumers
	// that only need the flag.
	DatabaseScriptsPresent bool `json:"database_scripts_present"`
	// TemplateStatus is the customization-template discovery outcome
	// (ready, fallback, empty, missing).
	TemplateStatus string `json:"icf_template_status"`
	// OverridesPresent reports whether the template yielded suggested
	// override keys. The keys and values themselves stay out of metadata.
	OverridesPresent bool `json:"icf_overrides_present"`
}

// MetadataName derives the metadata file name for an artifact, e.g.
// "crm-app-dev.zip" -> "crm-app-dev-export-metadata.json".
func MetadataName(artifactName string) string {
	base := strings.TrimSuffix(artifactName, path.Ext(artifactName))
	return base + "-export-metadata.json"
}

// SaveMetadata writes the export metadata record beside the named artifact
// and returns its path.
func (s *Store) SaveMetadata(app, version, artifactName string, meta ExportMetadata) (string, error) {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", WrapStoreIO(artifactName, err)
	}
	return s.Save(app, version, MetadataName(artifactName), append(data, '\n'))
}

// ReadMetadata loads the metadata record stored for the named artifact.
func (s *Store) ReadMetadata(app, version, artifactName string) (*ExportMetadata, error) {
	data, err := s.Read(app, version, MetadataName(artifactName))
	if err != nil {
		return nil, err
	}

	var meta ExportMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, WrapStoreIO(MetadataName(artifactName), err)
	}
	return &meta, nil
}
