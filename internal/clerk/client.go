package clerk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the Clerk Backend API root.
const DefaultBaseURL = "https://api.clerk.com/v1"

// ErrDisabled is returned when no secret key was configured.
var ErrDisabled = errors.New("clerk client disabled: no secret key")

// MetadataWriter writes public metadata onto an identity provider user.
type MetadataWriter interface {
	UpdatePublicMetadata(ctx context.Context, clerkID string, metadata map[string]any) error
}

// Client calls the Clerk Backend API with a secret key.
type Client struct {
	httpClient *http.Client
	baseURL    string
	secretKey  string
}

// NewClient creates a Clerk Backend API client. An empty baseURL selects DefaultBaseURL.
func NewClient(secretKey, baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    baseURL,
		secretKey:  strings.TrimSpace(secretKey),
	}
}

// Enabled reports whether a secret key is configured.
func (c *Client) Enabled() bool {
	return c.secretKey != ""
}

type metadataRequest struct {
	PublicMetadata map[string]any `json:"public_metadata"`
}

type apiErrorResponse struct {
	Errors []struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
}

// UpdatePublicMetadata merges metadata into the user's public metadata
// (PATCH /users/{user_id}/metadata).
func (c *Client) UpdatePublicMetadata(ctx context.Context, clerkID string, metadata map[string]any) error {
	if !c.Enabled() {
		return ErrDisabled
	}
	clerkID = strings.TrimSpace(clerkID)
	if clerkID == "" {
		return errors.New("clerk user id is required")
	}

	body, err := json.Marshal(metadataRequest{PublicMetadata: metadata})
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}

	endpoint := c.baseURL + "/users/" + url.PathEscape(clerkID) + "/metadata"
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	var apiErr apiErrorResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64*1024)).Decode(&apiErr); err == nil && len(apiErr.Errors) > 0 {
		return fmt.Errorf("clerk api status %d: %s", resp.StatusCode, apiErr.Errors[0].Message)
	}
	return fmt.Errorf("clerk api status %d", resp.StatusCode)
}
