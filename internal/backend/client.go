package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// API defines the read operations the sync core depends on. Implemented by
// *Client; fakes implement it in tests.
type API interface {
	FetchPlayers(ctx context.Context) ([]Player, error)
	FetchDevices(ctx context.Context) ([]Device, error)
	FetchStartupProgress(ctx context.Context) (StartupProgress, error)
	FetchBuildInfo(ctx context.Context) (BuildInfo, error)
}

// Ensure Client implements API at compile time.
var _ API = (*Client)(nil)

// ErrNotFound reports a 404 from the backend. Callers use it to distinguish
// "endpoint absent" from real failures.
var ErrNotFound = errors.New("not found")

// Client talks to the multi-zone audio controller HTTP API.
type Client struct {
	baseURL   *url.URL
	http      *http.Client
	userAgent string
}

const (
	defaultServer    = "127.0.0.1:8080"
	defaultUserAgent = "presto/0.1"
	requestTimeout   = 5 * time.Second
)

// NewClient builds a Client using the provided server host:port value.
func NewClient(server string) (*Client, error) {
	base, err := parseBaseURL(server)
	if err != nil {
		return nil, err
	}
	return &Client{
		baseURL: base,
		http: &http.Client{
			Timeout: requestTimeout,
		},
		userAgent: defaultUserAgent,
	}, nil
}

// FetchPlayers retrieves the current player snapshot collection.
func (c *Client) FetchPlayers(ctx context.Context) ([]Player, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload PlayersResponse
	if err := c.do(ctx, http.MethodGet, "/api/players", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Snapshots(), nil
}

// FetchDevices retrieves the backend's audio device list.
func (c *Client) FetchDevices(ctx context.Context) ([]Device, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	var payload DevicesResponse
	if err := c.do(ctx, http.MethodGet, "/api/devices", nil, &payload); err != nil {
		return nil, err
	}
	return payload.Devices, nil
}

// FetchStartupProgress retrieves backend initialization state. A backend
// without the endpoint is considered fully started.
func (c *Client) FetchStartupProgress(ctx context.Context) (StartupProgress, error) {
	if c == nil {
		return StartupProgress{}, fmt.Errorf("client is nil")
	}
	var payload StartupProgress
	if err := c.do(ctx, http.MethodGet, "/api/startup", nil, &payload); err != nil {
		if errors.Is(err, ErrNotFound) {
			return StartupProgress{Complete: true}, nil
		}
		return StartupProgress{}, err
	}
	return payload, nil
}

// FetchBuildInfo retrieves the backend build identifier fields.
func (c *Client) FetchBuildInfo(ctx context.Context) (BuildInfo, error) {
	if c == nil {
		return BuildInfo{}, fmt.Errorf("client is nil")
	}
	var payload BuildInfo
	if err := c.do(ctx, http.MethodGet, "/api/build-info", nil, &payload); err != nil {
		return BuildInfo{}, err
	}
	return payload, nil
}

// SetVolume sets a player's volume (0-100).
func (c *Client) SetVolume(ctx context.Context, name string, volume int) error {
	body := map[string]int{"volume": volume}
	return c.command(ctx, http.MethodPost, "/api/players/"+url.PathEscape(name)+"/volume", body)
}

// SetMuted sets a player's mute flag.
func (c *Client) SetMuted(ctx context.Context, name string, muted bool) error {
	body := map[string]bool{"muted": muted}
	return c.command(ctx, http.MethodPost, "/api/players/"+url.PathEscape(name)+"/mute", body)
}

// StartPlayer starts a player process on the backend.
func (c *Client) StartPlayer(ctx context.Context, name string) error {
	return c.command(ctx, http.MethodPost, "/api/players/"+url.PathEscape(name)+"/start", nil)
}

// StopPlayer stops a player process on the backend.
func (c *Client) StopPlayer(ctx context.Context, name string) error {
	return c.command(ctx, http.MethodPost, "/api/players/"+url.PathEscape(name)+"/stop", nil)
}

// SetOffset updates a player's sync offset in milliseconds. The backend
// applies it on the next player restart.
func (c *Client) SetOffset(ctx context.Context, name string, delayMS int) error {
	if delayMS < -1000 || delayMS > 1000 {
		return fmt.Errorf("delay_ms must be between -1000 and 1000")
	}
	body := map[string]int{"delay_ms": delayMS}
	return c.command(ctx, http.MethodPut, "/api/players/"+url.PathEscape(name)+"/offset", body)
}

// WebSocketURL returns the live channel endpoint derived from the base URL.
func (c *Client) WebSocketURL() string {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = "/ws"
	return u.String()
}

func (c *Client) command(ctx context.Context, method, path string, body any) error {
	if c == nil {
		return fmt.Errorf("client is nil")
	}
	var result CommandResult
	if err := c.do(ctx, method, path, body, &result); err != nil {
		return err
	}
	if !result.Success {
		msg := result.Error
		if msg == "" {
			msg = result.Message
		}
		if msg == "" {
			msg = "command rejected"
		}
		return fmt.Errorf("%s", msg)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dest any) error {
	reqURL := c.baseURL.ResolveReference(&url.URL{Path: path})

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL.String(), reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("execute request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("api %s: %w", path, ErrNotFound)
	}
	if resp.StatusCode >= 400 {
		// Mutating endpoints return the error envelope with a 4xx status.
		if dest != nil {
			if result, ok := dest.(*CommandResult); ok {
				if decodeErr := json.NewDecoder(resp.Body).Decode(result); decodeErr == nil {
					return nil
				}
			}
		}
		return fmt.Errorf("api %s returned status %d", path, resp.StatusCode)
	}
	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func parseBaseURL(server string) (*url.URL, error) {
	trimmed := strings.TrimSpace(server)
	if trimmed == "" {
		trimmed = defaultServer
	}
	if !strings.Contains(trimmed, "://") {
		trimmed = "http://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, fmt.Errorf("parse server %q: %w", server, err)
	}
	u.Path = ""
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}
