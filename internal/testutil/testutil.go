// Package testutil provides testing utilities for the dashboard.
package testutil

import (
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"decisiondash/internal/config"
	"decisiondash/internal/models"
)

// TestServer wraps httptest.Server with convenience methods
type TestServer struct {
	Server  *httptest.Server
	BaseURL string
	client  *http.Client
	t       *testing.T
}

// ProjectRoot returns the root directory of the project.
// It works by finding the go.mod file.
func ProjectRoot() string {
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		panic("could not get caller info")
	}

	dir := filepath.Dir(filename)
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// TestConfig returns a config pointing at apiURL with a private data directory
func TestConfig(t *testing.T, apiURL string) *config.Config {
	t.Helper()
	root := ProjectRoot()
	return &config.Config{
		APIURL:             apiURL,
		APITimeout:         5 * time.Second,
		ListenAddr:         ":0",
		Debug:              false,
		DataDirectory:      t.TempDir(),
		TemplatesDirectory: filepath.Join(root, "web", "templates"),
		StaticDirectory:    filepath.Join(root, "web", "static"),
		DefaultPeriod:      models.DefaultPeriod,
	}
}

// NewTestServer creates a new test server using the application's router.
// Redirects are not followed so tests can assert on them.
func NewTestServer(t *testing.T, router http.Handler) *TestServer {
	t.Helper()

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return &TestServer{
		Server:  server,
		BaseURL: server.URL,
		client: &http.Client{
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		t: t,
	}
}

// GET performs a GET request to the given path
func (ts *TestServer) GET(path string) *http.Response {
	ts.t.Helper()

	resp, err := ts.client.Get(ts.BaseURL + path)
	if err != nil {
		ts.t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

// GETWithQuery performs a GET request with query parameters
func (ts *TestServer) GETWithQuery(path string, query map[string]string) *http.Response {
	ts.t.Helper()

	values := url.Values{}
	for k, v := range query {
		values.Set(k, v)
	}
	if len(values) > 0 {
		path += "?" + values.Encode()
	}
	return ts.GET(path)
}

// HTMX performs a GET request marked as an htmx swap
func (ts *TestServer) HTMX(path string) *http.Response {
	ts.t.Helper()

	req, err := http.NewRequest(http.MethodGet, ts.BaseURL+path, nil)
	if err != nil {
		ts.t.Fatalf("building request for %s: %v", path, err)
	}
	req.Header.Set("HX-Request", "true")
	resp, err := ts.client.Do(req)
	if err != nil {
		ts.t.Fatalf("GET %s failed: %v", path, err)
	}
	return resp
}

// POST performs a POST request to the given path
func (ts *TestServer) POST(path string, contentType string, body io.Reader) *http.Response {
	ts.t.Helper()

	resp, err := ts.client.Post(ts.BaseURL+path, contentType, body)
	if err != nil {
		ts.t.Fatalf("POST %s failed: %v", path, err)
	}
	return resp
}

// POSTForm posts url-encoded form values
func (ts *TestServer) POSTForm(path string, form map[string]string) *http.Response {
	ts.t.Helper()

	values := url.Values{}
	for k, v := range form {
		values.Set(k, v)
	}
	return ts.POST(path, "application/x-www-form-urlencoded", strings.NewReader(values.Encode()))
}

// POSTFile posts a multipart form with one file under field
func (ts *TestServer) POSTFile(path, field, filename, content string) *http.Response {
	ts.t.Helper()

	var sb strings.Builder
	mw := multipart.NewWriter(&sb)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		ts.t.Fatalf("creating form file: %v", err)
	}
	io.WriteString(fw, content)
	if err := mw.Close(); err != nil {
		ts.t.Fatalf("closing multipart writer: %v", err)
	}
	return ts.POST(path, mw.FormDataContentType(), strings.NewReader(sb.String()))
}

// Close shuts down the test server
func (ts *TestServer) Close() {
	ts.Server.Close()
}

// ReadBody reads and returns the response body as a string
func ReadBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("Failed to read response body: %v", err)
	}
	return string(body)
}
