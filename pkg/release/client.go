// Package release creates release records on the hosting platform's REST
// API. A release ties a version tag to the artifact paths stored for that
// run; artifact content stays in the repository, the platform only receives
// references.
package release

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	log "github.com/lowcode-cicd/lcpipe/pkg/log"
)

const (
	requestTimeout = 30 * time.Second
	maxRetries     = 2
)

// Release describes the record to create.
type Release struct {
	// Tag is the version tag, e.g. "crm-app/v1.2.0".
	Tag string `json:"tag_name"`
	// Name is the human-readable release title.
	Name string `json:"name"`
	// Body is the release description.
	Body string `json:"body"`
	// Artifacts lists repository paths of the stored artifacts.
	Artifacts []string `json:"artifacts,omitempty"`
}

// Created is the platform's view of a successfully created release.
type Created struct {
	ID  int64  `json:"id"`
	URL string `json:"html_url"`
}

// Client talks to the hosting platform's release endpoint.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	token   string
}

// NewClient creates a release client for the given API base URL
// (e.g. "https://git.example.com/api/v1/repos/org/repo") and access token.
func NewClient(baseURL, token string) *Client {
	client := retryablehttp.NewClient()
	client.RetryMax = maxRetries
	client.HTTPClient.Timeout = requestTimeout
	client.Logger = nil
	return &Client{http: client, baseURL: baseURL, token: token}
}

// CreateRelease posts the release record. A release whose tag already exists
// surfaces as ErrReleaseExists so callers can treat re-runs as idempotent.
func (c *Client) CreateRelease(ctx context.Context, rel Release) (*Created, error) {
	if rel.Tag == "" {
		return nil, ErrEmptyTag
	}

	payload, err := json.Marshal(rel)
	if err != nil {
		return nil, fmt.Errorf("failed to encode release: %w", err)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/releases", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build release request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "token "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			log.Warn("Failed to close release response body", "error", closeErr)
		}
	}()

	switch {
	case resp.StatusCode == http.StatusCreated || resp.StatusCode == http.StatusOK:
		// fall through to decode
	case resp.StatusCode == http.StatusConflict || resp.StatusCode == http.StatusUnprocessableEntity:
		return nil, WrapReleaseExists(rel.Tag)
	default:
		return nil, fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	var created Created
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("failed to decode release response: %w", err)
	}

	log.Info("Created release", "tag", rel.Tag, "id", created.ID)
	return &created, nil
}
