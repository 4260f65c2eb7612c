package core

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"sync"
	"time"

	"github.com/devmiek/tencent-cloud-sdk-go/auth"
)

// ResponseMetadata captures per-request metadata from the last Cloud
// API response handled by a client.
type ResponseMetadata struct {
	RequestID string
}

// Client is the Tencent Cloud SDK base client. Product clients embed
// it (usually through UniversalClient) and gain signed access to the
// Cloud API.
type Client struct {
	cfg        Config
	logger     Logger
	httpClient *http.Client
	creds      auth.Credentials

	mu       sync.RWMutex
	endpoint string
	lastMeta *ResponseMetadata
}

// NewClient returns a base client bound to one request endpoint. A nil
// credentials value falls back to the environment variables.
func NewClient(credentials auth.Credentials, endpoint string, config ...Config) (*Client, error) {
	if endpoint == "" {
		return nil, fmt.Errorf("core: request endpoint required")
	}

	cfg := configDefault(config...)

	if credentials == nil {
		env, err := auth.NewEnvironmentCredentials()
		if err != nil {
			return nil, err
		}
		credentials = env
	}

	logger := cfg.Logger
	if logger == nil {
		stdLogger, err := NewStdLogger()
		if err != nil {
			return nil, err
		}
		logger = stdLogger
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		transport := http.DefaultTransport.(*http.Transport).Clone()
		if cfg.Proxies != nil {
			proxies := cfg.Proxies
			transport.Proxy = func(*http.Request) (*url.URL, error) {
				return proxies.ProxyURL()
			}
		}
		httpClient = &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		}
	}

	return &Client{
		cfg:        cfg,
		logger:     logger,
		httpClient: httpClient,
		creds:      credentials,
		endpoint:   endpoint,
	}, nil
}

// Endpoint returns the request endpoint host name.
func (c *Client) Endpoint() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.endpoint
}

// SetEndpoint replaces the request endpoint host name.
func (c *Client) SetEndpoint(endpoint string) error {
	if endpoint == "" {
		return fmt.Errorf("core: request endpoint required")
	}
	c.mu.Lock()
	c.endpoint = endpoint
	c.mu.Unlock()
	return nil
}

// LastResponseMetadata returns metadata from the most recent Cloud API
// response, or nil when no request has completed yet.
func (c *Client) LastResponseMetadata() *ResponseMetadata {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastMeta
}

// Logger exposes the client logger to product packages.
func (c *Client) Logger() Logger {
	return c.logger
}

type responseEnvelope struct {
	Response json.RawMessage `json:"Response"`
}

type responseProbe struct {
	RequestID string `json:"RequestId"`
	Error     *struct {
		Code    string `json:"Code"`
		Message string `json:"Message"`
	} `json:"Error"`
}

// TryRequestAction issues exactly one signed Cloud API request against
// the given endpoint. The params value is marshaled to the JSON
// request body; the Response member is unmarshaled into result when
// result is non-nil.
func (c *Client) TryRequestAction(ctx context.Context, endpoint, productID, regionID, actionID, actionVersion string, params, result interface{}) error {
	if productID == "" || actionID == "" || actionVersion == "" {
		return fmt.Errorf("core: product, action and version required")
	}
	if endpoint == "" {
		endpoint = c.Endpoint()
	}

	if params == nil {
		params = struct{}{}
	}
	payload, err := json.Marshal(params)
	if err != nil {
		return fmt.Errorf("core: marshal action parameters: %w", err)
	}

	secret, err := c.creds.Secret()
	if err != nil {
		return fmt.Errorf("core: resolve credentials: %w", err)
	}

	timestamp := time.Now().Unix()
	authorization := secret.SignRequest(endpoint, http.MethodPost, payload, productID, timestamp)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		"https://"+endpoint+"/", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("core: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "tencent-cloud-sdk-go/"+VersionText())
	req.Header.Set("Authorization", authorization)
	req.Header.Set("X-TC-Action", actionID)
	req.Header.Set("X-TC-Region", regionID)
	req.Header.Set("X-TC-Timestamp", fmt.Sprintf("%d", timestamp))
	req.Header.Set("X-TC-Version", actionVersion)
	if secret.Token != "" {
		req.Header.Set("X-TC-Token", secret.Token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &RequestError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return &ResponseError{StatusCode: resp.StatusCode, Message: string(body)}
	}

	var envelope responseEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Response == nil {
		return &ResponseError{StatusCode: resp.StatusCode, Message: "action response content invalid"}
	}

	var probe responseProbe
	if err := json.Unmarshal(envelope.Response, &probe); err != nil {
		return &ResponseError{StatusCode: resp.StatusCode, Message: "action response content invalid"}
	}
	if probe.Error != nil {
		return &ActionError{
			Action:    actionID,
			Code:      probe.Error.Code,
			Message:   probe.Error.Message,
			RequestID: probe.RequestID,
		}
	}

	c.mu.Lock()
	c.lastMeta = &ResponseMetadata{RequestID: probe.RequestID}
	c.mu.Unlock()

	if result != nil {
		if err := json.Unmarshal(envelope.Response, result); err != nil {
			return &ActionResultError{Message: err.Error()}
		}
	}
	return nil
}

// RequestAction issues a signed Cloud API request, retrying transport
// failures (*RequestError) up to the configured number of times with a
// growing interval. Action-level failures are returned immediately.
func (c *Client) RequestAction(ctx context.Context, endpoint, productID, regionID, actionID, actionVersion string, params, result interface{}) error {
	for attempt := 0; ; attempt++ {
		err := c.TryRequestAction(ctx, endpoint, productID, regionID, actionID, actionVersion, params, result)

		var requestErr *RequestError
		if err == nil || !errors.As(err, &requestErr) || attempt >= c.cfg.MaxRetries {
			return err
		}

		if c.cfg.RequestLog {
			c.logger.Warnw("cloud api request failed, retrying",
				"action", actionID,
				"attempt", attempt+1,
				"error", err,
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Duration(attempt+1) * c.cfg.RetryInterval):
		}
	}
}

// DownloadResource streams the resource at the given URL into a local
// file, truncating any previous content.
func (c *Client) DownloadResource(ctx context.Context, resourceURL, localPath string) error {
	if resourceURL == "" || localPath == "" {
		return fmt.Errorf("core: resource url and local path required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, resourceURL, nil)
	if err != nil {
		return fmt.Errorf("core: build request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &RequestError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &ResponseError{StatusCode: resp.StatusCode, Message: "resource download failed"}
	}

	file, err := os.Create(localPath)
	if err != nil {
		return fmt.Errorf("core: create local file: %w", err)
	}

	if _, err := io.Copy(file, resp.Body); err != nil {
		file.Close()
		return fmt.Errorf("core: write resource block: %w", err)
	}
	return file.Close()
}
