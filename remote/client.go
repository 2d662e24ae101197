// Package remote talks HTTP/JSON to the course marketplace API, the system
// of record for courses, purchases and educator data.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/oauth2"
)

const maxBodyBytes = 4 << 20

// ErrNoToken is returned by Tokens when nobody is logged in.
var ErrNoToken = errors.New("no bearer token for this session")

// Tokens is the bearer token source for the current login session. The
// token is swapped on login and cleared on logout.
type Tokens struct {
	mu    sync.RWMutex
	token string
}

func (t *Tokens) Set(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

func (t *Tokens) Clear() { t.Set("") }

// Token implements oauth2.TokenSource.
func (t *Tokens) Token() (*oauth2.Token, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.token == "" {
		return nil, ErrNoToken
	}
	return &oauth2.Token{AccessToken: t.token, TokenType: "Bearer"}, nil
}

type Client struct {
	base   string
	public *http.Client
	authed *http.Client
	log    logrus.FieldLogger
}

// New builds a client for the API rooted at baseURL. Authenticated calls
// take their bearer token from src on every request.
func New(baseURL string, src oauth2.TokenSource, timeout time.Duration, log logrus.FieldLogger) *Client {
	return &Client{
		base:   strings.TrimRight(baseURL, "/"),
		public: &http.Client{Timeout: timeout},
		authed: &http.Client{
			Timeout:   timeout,
			Transport: &oauth2.Transport{Source: src, Base: http.DefaultTransport},
		},
		log: log,
	}
}

// envelope is the status part every API response carries.
type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

func (c *Client) Get(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.authed, http.MethodGet, path, nil, out)
}

// GetPublic calls an endpoint that needs no login, such as the catalog.
func (c *Client) GetPublic(ctx context.Context, path string, out any) error {
	return c.do(ctx, c.public, http.MethodGet, path, nil, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, c.authed, http.MethodPost, path, body, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, c.authed, http.MethodPatch, path, body, out)
}

func (c *Client) do(ctx context.Context, hc *http.Client, method, path string, body, out any) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s request: %w", method, path, err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return fmt.Errorf("building %s %s request: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		if errors.Is(err, ErrNoToken) {
			return &Error{Method: method, Path: path, Status: http.StatusUnauthorized, Message: "not authenticated"}
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("reading %s %s response: %w", method, path, err)
	}

	c.log.WithFields(logrus.Fields{
		"method":     method,
		"path":       path,
		"statuscode": resp.StatusCode,
		"since":      time.Since(start).Nanoseconds(),
	}).Debug("remote call")

	var env envelope
	envErr := json.Unmarshal(raw, &env)

	if resp.StatusCode >= http.StatusBadRequest || (envErr == nil && env.Success != nil && !*env.Success) {
		msg := env.Message
		if msg == "" {
			msg = env.Error
		}
		return &Error{Method: method, Path: path, Status: resp.StatusCode, Code: env.Code, Message: msg}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}
