package testutil

import (
	"io"
	"net/http"
	"strings"
	"testing"
)

// bodyPreview is how much of a page is echoed into a failure message
const bodyPreview = 500

// ResponseAssertion provides fluent assertions for dashboard responses
type ResponseAssertion struct {
	t    *testing.T
	resp *http.Response
	body *string
}

// AssertResponse wraps resp; the body is read and closed on first use
func AssertResponse(t *testing.T, resp *http.Response) *ResponseAssertion {
	t.Helper()
	return &ResponseAssertion{t: t, resp: resp}
}

func (ra *ResponseAssertion) text() string {
	if ra.body == nil {
		defer ra.resp.Body.Close()
		b, err := io.ReadAll(ra.resp.Body)
		if err != nil {
			ra.t.Fatalf("Failed to read response body: %v", err)
		}
		s := string(b)
		ra.body = &s
	}
	return *ra.body
}

// Body returns the response body
func (ra *ResponseAssertion) Body() string {
	return ra.text()
}

func (ra *ResponseAssertion) preview() string {
	s := ra.text()
	if len(s) > bodyPreview {
		s = s[:bodyPreview] + "..."
	}
	return s
}

// Status asserts the status code
func (ra *ResponseAssertion) Status(code int) *ResponseAssertion {
	ra.t.Helper()
	if ra.resp.StatusCode != code {
		ra.t.Errorf("Expected status %d, got %d\nBody: %s", code, ra.resp.StatusCode, ra.preview())
	}
	return ra
}

// StatusOK asserts status 200
func (ra *ResponseAssertion) StatusOK() *ResponseAssertion {
	ra.t.Helper()
	return ra.Status(http.StatusOK)
}

func (ra *ResponseAssertion) contentType(kind string) *ResponseAssertion {
	ra.t.Helper()
	if ct := ra.resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, kind) {
		ra.t.Errorf("Expected %s response, got Content-Type %q", kind, ct)
	}
	return ra
}

// ContentTypeHTML asserts a rendered page or partial
func (ra *ResponseAssertion) ContentTypeHTML() *ResponseAssertion {
	ra.t.Helper()
	return ra.contentType("text/html")
}

// ContentTypeJSON asserts an API or chart-data response
func (ra *ResponseAssertion) ContentTypeJSON() *ResponseAssertion {
	ra.t.Helper()
	return ra.contentType("application/json")
}

// Contains asserts the body contains substr
func (ra *ResponseAssertion) Contains(substr string) *ResponseAssertion {
	ra.t.Helper()
	return ra.ContainsAll(substr)
}

// ContainsAll asserts the body contains every substr, reporting all that are missing at once
func (ra *ResponseAssertion) ContainsAll(substrs ...string) *ResponseAssertion {
	ra.t.Helper()
	body := ra.text()
	var missing []string
	for _, s := range substrs {
		if !strings.Contains(body, s) {
			missing = append(missing, s)
		}
	}
	if len(missing) > 0 {
		ra.t.Errorf("Body is missing %q\nBody: %s", missing, ra.preview())
	}
	return ra
}

// NotContains asserts the body does not contain substr
func (ra *ResponseAssertion) NotContains(substr string) *ResponseAssertion {
	ra.t.Helper()
	if strings.Contains(ra.text(), substr) {
		ra.t.Errorf("Expected body NOT to contain %q", substr)
	}
	return ra
}

// Count asserts how many times substr occurs in the body
func (ra *ResponseAssertion) Count(substr string, n int) *ResponseAssertion {
	ra.t.Helper()
	if got := strings.Count(ra.text(), substr); got != n {
		ra.t.Errorf("Expected %d occurrences of %q, got %d", n, substr, got)
	}
	return ra
}

// RedirectsTo asserts a redirect to location. htmx requests are answered
// with an HX-Redirect header instead of a 3xx, and both forms are accepted.
func (ra *ResponseAssertion) RedirectsTo(location string) *ResponseAssertion {
	ra.t.Helper()
	if hx := ra.resp.Header.Get("HX-Redirect"); hx != "" {
		if hx != location {
			ra.t.Errorf("Expected HX-Redirect to %q, got %q", location, hx)
		}
		return ra
	}
	if code := ra.resp.StatusCode; code < 300 || code >= 400 {
		ra.t.Errorf("Expected redirect to %q, got status %d", location, code)
		return ra
	}
	if got := ra.resp.Header.Get("Location"); got != location {
		ra.t.Errorf("Expected redirect to %q, got %q", location, got)
	}
	return ra
}

// Header asserts a response header value
func (ra *ResponseAssertion) Header(name, expected string) *ResponseAssertion {
	ra.t.Helper()
	if got := ra.resp.Header.Get(name); got != expected {
		ra.t.Errorf("Expected header %s=%q, got %q", name, expected, got)
	}
	return ra
}
