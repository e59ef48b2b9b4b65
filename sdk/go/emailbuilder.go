// Package emailbuilder is a client for the EmailBuilder HTTP API.
package emailbuilder

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Config holds the configuration for the EmailBuilder client.
type Config struct {
	// BaseURL is the root URL of the EmailBuilder server.
	// The "/api/v1" suffix is appended automatically if missing.
	BaseURL string

	// APIKey is sent as X-API-Key. Token takes precedence when both are set.
	APIKey string

	// Token is an admin bearer token issued by the admin CLI.
	Token string

	// HTTPClient is an optional custom HTTP client.
	// If nil, a default client with 10s timeout is used.
	HTTPClient *http.Client
}

func (c *Config) defaults() {
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	c.BaseURL = strings.TrimSuffix(c.BaseURL, "/")
	if !strings.HasSuffix(c.BaseURL, "/api/v1") {
		c.BaseURL = c.BaseURL + "/api/v1"
	}
}

// Client is the EmailBuilder SDK client.
type Client struct {
	cfg Config
}

// NewClient creates a new EmailBuilder client with the given configuration.
func NewClient(cfg Config) *Client {
	cfg.defaults()
	return &Client{cfg: cfg}
}

// RenderTemplate renders the template stored under key without sending it.
func (c *Client) RenderTemplate(ctx context.Context, key string, data map[string]string) (*RenderedEmail, error) {
	var out RenderedEmail
	if err := c.do(ctx, http.MethodPost, "/templates/"+url.PathEscape(key)+"/render",
		map[string]interface{}{"data": data}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendTemplate renders and delivers the template to the recipient. A
// provider failure is returned as a *DeliveryError carrying the rendered email.
func (c *Client) SendTemplate(ctx context.Context, to Recipient, key string, data map[string]string) (*SendResult, error) {
	body, status, err := c.send(ctx, http.MethodPost, "/templates/"+url.PathEscape(key)+"/send",
		map[string]interface{}{"recipient": to, "data": data})
	if err != nil {
		return nil, err
	}

	if status == http.StatusBadGateway {
		var failed struct {
			Email *RenderedEmail `json:"email"`
		}
		_ = json.Unmarshal(body, &failed)
		apiErr, _ := IsAPIError(parseAPIError(status, body))
		return nil, &DeliveryError{APIError: *apiErr, Email: failed.Email}
	}
	if status >= 400 {
		return nil, c.statusError(status, body)
	}

	var out SendResult
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("emailbuilder: failed to parse send response: %w", err)
	}
	return &out, nil
}

// EnqueueSend queues a send on the server's background worker and returns
// the task ID.
func (c *Client) EnqueueSend(ctx context.Context, to Recipient, key string, data map[string]string) (string, error) {
	var out QueuedResult
	if err := c.do(ctx, http.MethodPost, "/templates/"+url.PathEscape(key)+"/send?async=true",
		map[string]interface{}{"recipient": to, "data": data}, &out); err != nil {
		return "", err
	}
	return out.TaskID, nil
}

// ListTemplates returns every stored template.
func (c *Client) ListTemplates(ctx context.Context) ([]Template, error) {
	var out struct {
		Templates []Template `json:"templates"`
	}
	if err := c.do(ctx, http.MethodGet, "/templates", nil, &out); err != nil {
		return nil, err
	}
	return out.Templates, nil
}

// GetTemplate fetches a template by ID.
func (c *Client) GetTemplate(ctx context.Context, id string) (*Template, error) {
	var out Template
	if err := c.do(ctx, http.MethodGet, "/templates/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateTemplate stores a new template.
func (c *Client) CreateTemplate(ctx context.Context, in TemplateInput) (*Template, error) {
	var out Template
	if err := c.do(ctx, http.MethodPost, "/templates", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTemplate patches the template with the given ID.
func (c *Client) UpdateTemplate(ctx context.Context, id string, in TemplateInput) (*Template, error) {
	var out Template
	if err := c.do(ctx, http.MethodPut, "/templates/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteTemplate removes the template with the given ID.
func (c *Client) DeleteTemplate(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/templates/"+url.PathEscape(id), nil, nil)
}

// ListGlobalTemplates returns the stored header and footer defaults.
func (c *Client) ListGlobalTemplates(ctx context.Context) ([]GlobalTemplate, error) {
	var out struct {
		GlobalTemplates []GlobalTemplate `json:"globalTemplates"`
	}
	if err := c.do(ctx, http.MethodGet, "/global-templates", nil, &out); err != nil {
		return nil, err
	}
	return out.GlobalTemplates, nil
}

// CreateGlobalTemplate stores a new set of header and footer defaults.
func (c *Client) CreateGlobalTemplate(ctx context.Context, in Appearance) (*GlobalTemplate, error) {
	var out GlobalTemplate
	if err := c.do(ctx, http.MethodPost, "/global-templates", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out interface{}) error {
	body, status, err := c.send(ctx, method, path, payload)
	if err != nil {
		return err
	}
	if status >= 400 {
		return c.statusError(status, body)
	}
	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("emailbuilder: failed to parse response: %w", err)
	}
	return nil
}

func (c *Client) statusError(status int, body []byte) error {
	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %v", ErrUnauthorized, parseAPIError(status, body))
	}
	return parseAPIError(status, body)
}

// send issues the request and returns the raw body with the status code.
func (c *Client) send(ctx context.Context, method, path string, payload interface{}) ([]byte, int, error) {
	if c.cfg.APIKey == "" && c.cfg.Token == "" {
		return nil, 0, ErrNoCredentials
	}

	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, 0, fmt.Errorf("emailbuilder: failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("emailbuilder: failed to create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	} else {
		req.Header.Set("X-API-Key", c.cfg.APIKey)
	}

	resp, err := c.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("emailbuilder: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("emailbuilder: failed to read response: %w", err)
	}
	return body, resp.StatusCode, nil
}
