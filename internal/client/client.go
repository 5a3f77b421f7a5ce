package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"julesctl/internal/logging"
	"julesctl/internal/types"
)

const (
	DefaultBaseURL = "https://jules.googleapis.com/v1alpha"

	DefaultSessionsPageSize   = 20
	DefaultActivitiesPageSize = 50
	DefaultStartingBranch     = "main"
	AutomationAutoCreatePR    = "AUTO_CREATE_PR"

	apiKeyHeader   = "X-Goog-Api-Key"
	defaultTimeout = 30 * time.Second
)

var (
	// ErrRequestFailed marks every transport failure and non-2xx response.
	ErrRequestFailed = errors.New("request failed")
	ErrMissingID     = errors.New("session id is required")
)

// CredentialSource supplies the API key for each request. An empty key sends
// the request without the auth header.
type CredentialSource interface {
	ActiveCredential(ctx context.Context) (string, error)
}

// StaticCredential is a fixed API key.
type StaticCredential string

func (s StaticCredential) ActiveCredential(context.Context) (string, error) {
	return strings.TrimSpace(string(s)), nil
}

type Client struct {
	baseURL     string
	credentials CredentialSource
	http        *http.Client
	logger      logging.Logger
}

type Option func(*Client)

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.http = httpClient
		}
	}
}

func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.http = &http.Client{Timeout: timeout, Transport: c.http.Transport}
		}
	}
}

func WithLogger(logger logging.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, credentials CredentialSource, opts ...Option) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:     baseURL,
		credentials: credentials,
		http:        &http.Client{Timeout: defaultTimeout},
		logger:      logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NormalizeSessionID accepts a bare id or a "sessions/<id>" resource name.
func NormalizeSessionID(id string) string {
	id = strings.TrimSpace(id)
	id = strings.TrimLeft(id, "/")
	id = strings.TrimPrefix(id, "sessions/")
	return strings.Trim(id, "/ ")
}

func (c *Client) ListSources(ctx context.Context) ([]types.Source, error) {
	var resp SourcesResponse
	if err := c.doJSON(ctx, http.MethodGet, "/sources", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sources, nil
}

func (c *Client) ListSessions(ctx context.Context, pageSize int) (*SessionsPage, error) {
	if pageSize <= 0 {
		pageSize = DefaultSessionsPageSize
	}
	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(pageSize))
	var resp SessionsPage
	if err := c.doJSON(ctx, http.MethodGet, "/sessions?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) CreateSession(ctx context.Context, req CreateSessionRequest) (*types.Session, error) {
	body, err := req.payload()
	if err != nil {
		return nil, err
	}
	var session types.Session
	if err := c.doJSON(ctx, http.MethodPost, "/sessions", body, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) GetSession(ctx context.Context, id string) (*types.Session, error) {
	path, err := sessionPath(id, "")
	if err != nil {
		return nil, err
	}
	var session types.Session
	if err := c.doJSON(ctx, http.MethodGet, path, nil, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *Client) ListActivities(ctx context.Context, id string, pageSize int, pageToken string) (*ActivitiesPage, error) {
	path, err := sessionPath(id, "/activities")
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = DefaultActivitiesPageSize
	}
	query := url.Values{}
	query.Set("pageSize", strconv.Itoa(pageSize))
	if token := strings.TrimSpace(pageToken); token != "" {
		query.Set("pageToken", token)
	}
	var resp ActivitiesPage
	if err := c.doJSON(ctx, http.MethodGet, path+"?"+query.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) SendMessage(ctx context.Context, id, prompt string) error {
	path, err := sessionPath(id, ":sendMessage")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, path, SendMessageRequest{Prompt: prompt}, nil)
}

func (c *Client) ApprovePlan(ctx context.Context, id string) error {
	path, err := sessionPath(id, ":approvePlan")
	if err != nil {
		return err
	}
	return c.doJSON(ctx, http.MethodPost, path, struct{}{}, nil)
}

func sessionPath(id, suffix string) (string, error) {
	id = NormalizeSessionID(id)
	if id == "" {
		return "", ErrMissingID
	}
	return "/sessions/" + url.PathEscape(id) + suffix, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%w: encode request: %v", ErrRequestFailed, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%w: build request: %v", ErrRequestFailed, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.credentials != nil {
		key, err := c.credentials.ActiveCredential(ctx)
		if err != nil {
			return fmt.Errorf("%w: read credential: %v", ErrRequestFailed, err)
		}
		if key = strings.TrimSpace(key); key != "" {
			req.Header.Set(apiKeyHeader, key)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("jules request failed",
			logging.F("method", method),
			logging.F("path", path),
			logging.Err(err),
		)
		return &transportError{err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug("jules request",
		logging.F("method", method),
		logging.F("path", path),
		logging.F("status", resp.StatusCode),
		logging.F("elapsed", time.Since(started)),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return fmt.Errorf("%w: decode response: %v", ErrRequestFailed, err)
	}
	return nil
}

type transportError struct {
	err error
}

func (e *transportError) Error() string {
	return fmt.Sprintf("%v: %v", ErrRequestFailed, e.err)
}

func (e *transportError) Unwrap() []error {
	return []error{ErrRequestFailed, e.err}
}

func decodeAPIError(resp *http.Response) error {
	type errorPayload struct {
		Error struct {
			Code    int    `json:"code"`
			Message string `json:"message"`
			Status  string `json:"status"`
		} `json:"error"`
	}
	var payload errorPayload
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&payload)
	if msg := strings.TrimSpace(payload.Error.Message); msg != "" {
		return &APIError{StatusCode: resp.StatusCode, Message: msg}
	}
	return &APIError{StatusCode: resp.StatusCode, Message: resp.Status}
}

type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("api error (%d): %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return ErrRequestFailed
}

// AsAPIError returns the *APIError in err's chain, or nil.
func AsAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}
	return nil
}
