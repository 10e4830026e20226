// Package core provides the client for the external Core deployment service
// that owns export, promotion, customization-file and database-script
// operations. This repository only orchestrates those operations; their
// semantics live on the other side of this interface.
package core

import (
	"context"

	"github.com/lowcode-cicd/lcpipe/pkg/environment"
	"github.com/lowcode-cicd/lcpipe/pkg/override"
)

// Credentials carries the opaque per-environment secret material resolved by
// the caller from the CI secret store. It is passed by value and never
// logged.
type Credentials struct {
	APIKey string
}

// ExportResult is the outcome of exporting an application package from a
// source environment.
type ExportResult struct {
	// PackageID identifies the export on the Core side.
	PackageID string
	// PackageSHA is the content digest reported by the Core.
	PackageSHA string
	// Data is the exported package archive.
	Data []byte
}

// CustomizationFile is the build-icf output: the override set rendered into
// the import customization file applied during promotion.
type CustomizationFile struct {
	// Name is the file name the Core assigned.
	Name string
	// Data is the customization file content. Treat as sensitive.
	Data []byte
}

// ScriptBundle is the prepare-db-scripts output.
type ScriptBundle struct {
	// BundleID identifies the prepared script set on the Core side.
	BundleID string
	// Scripts lists the script names in execution order.
	Scripts []string
}

// PromoteRequest carries everything one promotion hop needs.
type PromoteRequest struct {
	App           string
	PackageID     string
	PackageSHA    string
	Target        environment.Environment
	TargetCreds   Credentials
	Customization *CustomizationFile // nil for flows without overrides
	Scripts       *ScriptBundle      // nil for flows without database scripts
}

// PromoteResult reports the Core's view of a completed promotion.
type PromoteResult struct {
	DeploymentID string
	Status       string
}

// ClientInterface defines the methods needed for Core interactions.
type ClientInterface interface {
	// Export exports the application package from the given environment.
	Export(ctx context.Context, app string, env environment.Environment, creds Credentials) (*ExportResult, error)
	// BuildCustomizationFile renders an override set into the import
	// customization file for the target environment.
	BuildCustomizationFile(ctx context.Context, app string, env environment.Environment, creds Credentials, set *override.Set) (*CustomizationFile, error)
	// PrepareDatabaseScripts registers the database scripts to run as part
	// of the promotion into the target environment.
	PrepareDatabaseScripts(ctx context.Context, app string, env environment.Environment, creds Credentials, scripts []string) (*ScriptBundle, error)
	// Promote deploys an exported package into the target environment.
	Promote(ctx context.Context, req PromoteRequest) (*PromoteResult, error)
}
