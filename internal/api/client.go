// Package api is a typed client for the analytics, reports, auth and upload endpoints.
package api

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

	"github.com/google/uuid"
)

// DefaultBaseURL is used when no base URL is configured
const DefaultBaseURL = "http://localhost:5000"

// RequestIDHeader carries a per-request correlation id
const RequestIDHeader = "X-Request-ID"

// TokenSource supplies the bearer token for protected calls
type TokenSource interface {
	Token() (string, bool)
}

// Client talks to the dashboard API over HTTP/JSON
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

// NewClient creates a client for baseURL. A nil httpClient means http.Client{} with no timeout.
func NewClient(baseURL string, tokens TokenSource, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
	}
}

// NewHTTPClient returns an http.Client with the transport timeout applied
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// BaseURL returns the configured API root
func (c *Client) BaseURL() string {
	return c.baseURL
}

type errorBody struct {
	Error string `json:"error"`
}

// request describes one API call
type request struct {
	method      string
	path        string
	query       url.Values
	body        io.Reader
	contentType string
	public      bool // no bearer token required
}

func (c *Client) newRequest(ctx context.Context, r request) (*http.Request, error) {
	var token string
	if !r.public {
		t, ok := c.token()
		if !ok {
			return nil, &AuthError{Message: "not signed in"}
		}
		token = t
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, r.body)
	if err != nil {
		return nil, fmt.Errorf("building %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, uuid.NewString())
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) token() (string, bool) {
	if c.tokens == nil {
		return "", false
	}
	t, ok := c.tokens.Token()
	if !ok || t == "" {
		return "", false
	}
	return t, true
}

// do performs the call and returns the raw body of a 2xx response
func (c *Client) do(ctx context.Context, r request) ([]byte, error) {
	req, err := c.newRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	op := r.method + " " + r.path
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := serverMessage(body)
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return nil, &AuthError{StatusCode: resp.StatusCode, Message: msg}
		}
		return nil, &ServerError{StatusCode: resp.StatusCode, Message: msg}
	}

	return body, nil
}

func serverMessage(body []byte) string {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err != nil {
		return ""
	}
	return eb.Error
}

// fetchData performs the call and decodes the "data" member of the envelope into T.
// A missing or null data member is a malformed body unless allowNull is set.
func fetchData[T any](ctx context.Context, c *Client, r request, allowNull bool) (T, bool, error) {
	var zero T

	body, err := c.do(ctx, r)
	if err != nil {
		return zero, false, err
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &env); err != nil {
		return zero, false, malformed(err)
	}
	if len(env.Data) == 0 || bytes.Equal(env.Data, []byte("null")) {
		if allowNull {
			return zero, false, nil
		}
		return zero, false, &ServerError{StatusCode: http.StatusOK, Message: "malformed response body: missing data"}
	}

	var out T
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return zero, false, malformed(err)
	}
	return out, true, nil
}

func malformed(err error) error {
	return &ServerError{StatusCode: http.StatusOK, Message: fmt.Sprintf("malformed response body: %v", err)}
}

// IsCanceled reports whether err came from a cancelled or expired context
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
