package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"

	"github.com/lowcode-cicd/lcpipe/pkg/environment"
	log "github.com/lowcode-cicd/lcpipe/pkg/log"
	"github.com/lowcode-cicd/lcpipe/pkg/override"
)

const (
	apiKeyHeader   = "X-API-Key"
	requestTimeout = 5 * time.Minute
	maxRetries     = 3
)

// RealClient implements ClientInterface against the Core's HTTP API.
// Transient failures are retried with backoff; authentication and client
// errors are not.
type RealClient struct {
	http *retryablehttp.Client
}

// NewRealClient creates a Core client with retry behavior suitable for
// pipeline runs.
func NewRealClient() *RealClient {
	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries
	client.HTTPClient.Timeout = requestTimeout
	// retryablehttp's default logger prints full request URLs; route retry
	// chatter through our debug logger instead.
	client.Logger = nil
	client.RequestLogHook = func(_ retryablehttp.Logger, req *http.Request, attempt int) {
		if attempt > 0 {
			log.Debug("Retrying Core request", "method", req.Method, "path", req.URL.Path, "attempt", attempt)
		}
	}
	return &RealClient{http: client}
}

// Export exports the application package from the given environment.
func (c *RealClient) Export(ctx context.Context, app string, env environment.Environment, creds Credentials) (*ExportResult, error) {
	log.Debug("Exporting application", "app", app, "environment", env.Name)

	var created struct {
		PackageID  string `json:"packageId"`
		PackageSHA string `json:"packageSha"`
	}
	body := map[string]string{"application": app}
	if err := c.postJSON(ctx, env, creds, "/deployment/v1/exports", body, &created); err != nil {
		return nil, errors.Wrapf(err, "failed to export application %s from %s", app, env.Name)
	}

	data, err := c.getBytes(ctx, env, creds, "/deployment/v1/exports/"+created.PackageID+"/package")
	if err != nil {
		return nil, errors.Wrapf(err, "failed to download export package %s", created.PackageID)
	}

	return &ExportResult{
		PackageID:  created.PackageID,
		PackageSHA: created.PackageSHA,
		Data:       data,
	}, nil
}

// BuildCustomizationFile renders an override set into the import
// customization file for the target environment.
func (c *RealClient) BuildCustomizationFile(ctx context.Context, app string, env environment.Environment, creds Credentials, set *override.Set) (*CustomizationFile, error) {
	// Log key names only; values are sensitive.
	log.Debug("Building customization file", "app", app, "environment", env.Name, "overrideKeys", set.Len())

	properties := make(map[string]string, set.Len())
	for _, entry := range set.Entries() {
		properties[entry.Key] = entry.Value
	}

	var result struct {
		Name    string `json:"name"`
		Content []byte `json:"content"`
	}
	body := map[string]interface{}{
		"application": app,
		"properties":  properties,
	}
	if err := c.postJSON(ctx, env, creds, "/deployment/v1/customizations", body, &result); err != nil {
		return nil, errors.Wrapf(err, "failed to build customization file for %s", app)
	}

	return &CustomizationFile{Name: result.Name, Data: result.Content}, nil
}

// PrepareDatabaseScripts registers the database scripts to run as part of
// the promotion into the target environment.
func (c *RealClient) PrepareDatabaseScripts(ctx context.Context, app string, env environment.Environment, creds Credentials, scripts []string) (*ScriptBundle, error) {
	log.Debug("Preparing database scripts", "app", app, "environment", env.Name, "scripts", len(scripts))

	var result struct {
		BundleID string   `json:"bundleId"`
		Scripts  []string `json:"scripts"`
	}
	body := map[string]interface{}{
		"application": app,
		"scripts":     scripts,
	}
	if err := c.postJSON(ctx, env, creds, "/deployment/v1/script-bundles", body, &result); err != nil {
		return nil, errors.Wrapf(err, "failed to prepare database scripts for %s", app)
	}

	return &ScriptBundle{BundleID: result.BundleID, Scripts: result.Scripts}, nil
}

// Promote deploys an exported package into the target environment.
func (c *RealClient) Promote(ctx context.Context, req PromoteRequest) (*PromoteResult, error) {
	log.Debug("Promoting application", "app", req.App, "target", req.Target.Name, "packageId", req.PackageID)

	body := map[string]interface{}{
		"application": req.App,
		"packageId":   req.PackageID,
		"packageSha":  req.PackageSHA,
	}
	if req.Customization != nil {
		body["customization"] = map[string]interface{}{
			"name":    req.Customization.Name,
			"content": req.Customization.Data,
		}
	}
	if req.Scripts != nil {
		body["scriptBundleId"] = req.Scripts.BundleID
	}

	var result struct {
		DeploymentID string `json:"deploymentId"`
		Status       string `json:"status"`
	}
	if err := c.postJSON(ctx, req.Target, req.TargetCreds, "/deployment/v1/deployments", body, &result); err != nil {
		return nil, errors.Wrapf(err, "failed to promote %s into %s", req.App, req.Target.Name)
	}

	return &PromoteResult{DeploymentID: result.DeploymentID, Status: result.Status}, nil
}

// postJSON sends a JSON request and decodes a JSON response into out.
func (c *RealClient) postJSON(ctx context.Context, env environment.Environment, creds Credentials, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return errors.Wrap(err, "failed to encode request body")
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, env.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return errors.Wrap(err, "failed to build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(apiKeyHeader, creds.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.Wrapf(err, "request to %s failed", path)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("Failed to close response body", "path", path, "error", closeErr)
		}
	}()

	if err := checkStatus(resp, path); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrapf(err, "failed to decode response from %s", path)
	}
	return nil
}

// getBytes fetches a binary resource.
func (c *RealClient) getBytes(ctx context.Context, env environment.Environment, creds Credentials, path string) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, env.BaseURL+path, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build request")
	}
	req.Header.Set(apiKeyHeader, creds.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "request to %s failed", path)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("Failed to close response body", "path", path, "error", closeErr)
		}
	}()

	if err := checkStatus(resp, path); err != nil {
		return nil, err
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read response from %s", path)
	}
	return data, nil
}

// checkStatus turns non-2xx responses into errors. The response body is not
// included in the error; Core error bodies can echo request content.
func checkStatus(resp *http.Response, path string) error {
	if resp.StatusCode >= http.StatusOK && resp.StatusCode < http.StatusMultipleChoices {
		return nil
	}
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: %s returned status %d", ErrUnauthorized, path, resp.StatusCode)
	}
	return fmt.Errorf("%w: %s returned status %d", ErrRequestFailed, path, resp.StatusCode)
}
