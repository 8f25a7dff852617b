// Package github is the low-level client for the repository-hosting API.
// It adds auth headers, tracks the quota snapshot, retries transient network
// failures and classifies every failure into the closed Kind taxonomy.
package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/nuanxinpro/wallpaper-studio/internal/clockx"
	"github.com/nuanxinpro/wallpaper-studio/internal/logging"
)

const (
	defaultBaseURL = "https://api.github.com"
	maxRetries     = 3
	retryDelay     = 1000 * time.Millisecond
)

// TokenSource supplies the bearer token for outgoing requests.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a TokenSource backed by a fixed string.
type StaticToken string

func (s StaticToken) Token(context.Context) (string, error) { return string(s), nil }

// Client talks to one repository on the hosting API. Construct with
// NewClient; the zero value is not usable.
type Client struct {
	baseURL    string
	owner      string
	repo       string
	branch     string
	httpClient *http.Client
	tokens     TokenSource
	clock      clockx.Clock
	log        logging.Logger

	mu        sync.Mutex
	rateLimit RateLimit
}

// Option customizes a Client.
type Option func(*Client)

func WithHTTPClient(h *http.Client) Option   { return func(c *Client) { c.httpClient = h } }
func WithBaseURL(u string) Option            { return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") } }
func WithClock(clock clockx.Clock) Option    { return func(c *Client) { c.clock = clock } }
func WithLogger(log logging.Logger) Option   { return func(c *Client) { c.log = log } }
func WithBranch(branch string) Option        { return func(c *Client) { c.branch = branch } }

// NewClient returns a Client bound to owner/repo. The default branch is
// "main" unless overridden with WithBranch.
func NewClient(owner, repo string, tokens TokenSource, opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		owner:      owner,
		repo:       repo,
		branch:     "main",
		httpClient: &http.Client{Timeout: 30 * time.Second},
		tokens:     tokens,
		clock:      clockx.Real(),
		log:        logging.Nop(),
		rateLimit:  RateLimit{Limit: 5000, Remaining: 5000},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// RateLimit returns a copy of the quota snapshot from the most recent
// response.
func (c *Client) RateLimit() RateLimit {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rateLimit
}

// Owner and Repo identify the bound repository.
func (c *Client) Owner() string  { return c.owner }
func (c *Client) Repo() string   { return c.repo }
func (c *Client) Branch() string { return c.branch }

// Do performs one API request and returns the raw JSON body. A 204 response
// yields (nil, nil). Every failure is an *APIError; transport-level network
// failures are retried up to maxRetries with a fixed delay before giving up
// as KindNetworkError.
func (c *Client) Do(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return nil, &APIError{Kind: KindAPIError, Message: "encode request body", err: err}
		}
	}

	url := endpoint
	if !strings.HasPrefix(endpoint, "http") {
		url = c.baseURL + endpoint
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, &APIError{Kind: KindTokenExpired, Message: "no credential available", err: err}
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			if err := c.clock.Sleep(ctx, retryDelay); err != nil {
				return nil, &APIError{Kind: KindNetworkError, Message: "request cancelled", err: err}
			}
			c.log.Debug(ctx, "retrying request", "method", method, "endpoint", endpoint, "attempt", attempt)
		}

		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
		if err != nil {
			return nil, &APIError{Kind: KindAPIError, Message: "build request", err: err}
		}
		req.Header.Set("Accept", "application/vnd.github.v3+json")
		req.Header.Set("Content-Type", "application/json")
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		return c.handleResponse(resp)
	}

	return nil, &APIError{Kind: KindNetworkError, Message: "network failure after retries", err: lastErr}
}

// handleResponse updates the quota snapshot first, then classifies the
// status. The header update happens unconditionally so the snapshot always
// reflects the most recent response (even a failing one).
func (c *Client) handleResponse(resp *http.Response) (json.RawMessage, error) {
	defer resp.Body.Close()

	c.mu.Lock()
	c.rateLimit.updateFromHeaders(resp.Header)
	rl := c.rateLimit
	c.mu.Unlock()

	remainingHeader := resp.Header.Get("X-RateLimit-Remaining")

	if resp.StatusCode == http.StatusForbidden && remainingHeader == "0" {
		return nil, &APIError{
			Kind:    KindRateLimited,
			Message: "API quota exhausted",
			Status:  resp.StatusCode,
			ResetAt: rl.ResetAt,
		}
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &APIError{Kind: KindTokenExpired, Message: "credential rejected", Status: resp.StatusCode}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := apiMessage(resp.Body)

		if resp.StatusCode == http.StatusForbidden {
			if msg == "" {
				msg = "write access to the repository is required"
			}
			return nil, &APIError{Kind: KindPermissionDenied, Message: msg, Status: resp.StatusCode}
		}

		if resp.StatusCode == http.StatusNotFound {
			if msg == "" {
				msg = "resource not found"
			}
			return nil, &APIError{Kind: KindNotFound, Message: msg, Status: resp.StatusCode}
		}

		if msg == "" {
			msg = fmt.Sprintf("request failed with status %d", resp.StatusCode)
		}
		return nil, &APIError{Kind: KindAPIError, Message: msg, Status: resp.StatusCode}
	}

	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindNetworkError, Message: "read response body", err: err}
	}
	return json.RawMessage(data), nil
}

// apiMessage pulls the "message" field out of an error response body.
// Malformed bodies yield "".
func apiMessage(r io.Reader) string {
	var body struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r).Decode(&body); err != nil {
		return ""
	}
	return body.Message
}

// get performs a GET and decodes the JSON result into v.
func (c *Client) get(ctx context.Context, endpoint string, v any) error {
	raw, err := c.Do(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	if raw == nil {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return &APIError{Kind: KindAPIError, Message: "decode response", err: err}
	}
	return nil
}
