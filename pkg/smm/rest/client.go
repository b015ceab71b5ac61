// Package rest is the HTTP implementation of the smm contract. One
// Connection corresponds to one authenticated account on one instance; the
// resource methods are spread across one file per resource.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/searchops/imt-exercises/pkg/logger"
	"github.com/searchops/imt-exercises/pkg/smm"
)

// Connection is an authenticated client for one instance.
type Connection struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
}

// Config holds the configuration for a Connection.
type Config struct {
	BaseURL  string
	Username string
	Password string
	Timeout  time.Duration
}

// NewConnection creates a Connection with the given configuration.
func NewConnection(cfg Config) (*Connection, error) {
	u, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base URL: %w", err)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &Connection{
		baseURL:  u.String(),
		username: cfg.Username,
		password: cfg.Password,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}, nil
}

// doRequest performs an HTTP request with authentication and error handling.
func (c *Connection) doRequest(ctx context.Context, method, path string, body interface{}) (*http.Response, error) {
	fullURL := c.baseURL + path

	var bodyReader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		bodyReader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.SetBasicAuth(c.username, c.password)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer closeBody(resp.Body)
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(bodyBytes))
	}

	return resp, nil
}

// decodeResponse decodes a JSON response into the provided value.
func decodeResponse(resp *http.Response, v interface{}) error {
	defer closeBody(resp.Body)

	if v == nil {
		return nil
	}

	return json.NewDecoder(resp.Body).Decode(v)
}

func closeBody(body io.ReadCloser) {
	if err := body.Close(); err != nil {
		logger.Errorf("failed to close response body: %v", err)
	}
}

// Instance is a remote instance reached by URL only, with no lifecycle
// management. It is used to run an exercise against an externally managed
// deployment.
type Instance struct {
	baseURL       string
	adminUsername string
	adminPassword string
}

// NewInstance creates an Instance for an already-running deployment.
func NewInstance(baseURL, adminUsername, adminPassword string) *Instance {
	return &Instance{
		baseURL:       baseURL,
		adminUsername: adminUsername,
		adminPassword: adminPassword,
	}
}

// BaseURL returns the URL the instance is reached at.
func (i *Instance) BaseURL() string {
	return i.baseURL
}

// AdminConnect returns a connection authenticated as the administrator.
func (i *Instance) AdminConnect() smm.Connection {
	return i.Connect(i.adminUsername, i.adminPassword)
}

// Connect returns a connection authenticated as the given account.
func (i *Instance) Connect(username, password string) smm.Connection {
	conn, err := NewConnection(Config{
		BaseURL:  i.baseURL,
		Username: username,
		Password: password,
	})
	if err != nil {
		// The URL was validated when the instance was created.
		logger.Fatalf("failed to create connection: %v", err)
	}
	return conn
}
