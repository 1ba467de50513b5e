// Package main provides a CLI tool for validating dashboard server endpoints.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"
)

type endpoint struct {
	path        string
	method      string
	contentType string
	contains    []string
}

// public endpoints are checked before signing in
var public = []endpoint{
	{path: "/api/health", method: "GET", contentType: "application/json", contains: []string{`"status":"ok"`}},
	{path: "/login", method: "GET", contentType: "text/html", contains: []string{"Sign In"}},
	{path: "/register", method: "GET", contentType: "text/html", contains: []string{"Create Account"}},
}

var endpoints = []endpoint{
	// Main pages
	{path: "/dashboard", method: "GET", contentType: "text/html", contains: []string{"Dashboard", "Revenue Trends"}},
	{path: "/reports", method: "GET", contentType: "text/html", contains: []string{"Report"}},
	{path: "/upload", method: "GET", contentType: "text/html", contains: []string{"Upload Data", "Transactions"}},

	// Dashboard periods
	{path: "/dashboard/content?period=7", method: "GET", contentType: "text/html", contains: []string{"7 Days"}},
	{path: "/dashboard/content?period=90", method: "GET", contentType: "text/html", contains: []string{"90 Days"}},
	{path: "/dashboard/content?period=365", method: "GET", contentType: "text/html", contains: []string{"1 Year"}},
	{path: "/dashboard/content?period=30", method: "GET", contentType: "text/html", contains: []string{"30 Days"}},

	// Charts
	{path: "/dashboard/charts/data/revenue", method: "GET", contentType: "application/json", contains: []string{`"data"`}},
	{path: "/dashboard/charts/data/spending", method: "GET", contentType: "application/json", contains: []string{`"data"`}},

	// Report partials
	{path: "/reports/history", method: "GET", contentType: "text/html", contains: nil},

	// API
	{path: "/api/storage", method: "GET", contentType: "application/json", contains: []string{`"encrypted"`}},
}

type result struct {
	endpoint endpoint
	status   int
	duration time.Duration
	err      error
	body     string
}

func main() {
	url := flag.String("url", "http://localhost:8080", "Base URL of the server to validate")
	verbose := flag.Bool("v", false, "Verbose output")
	timeout := flag.Int("timeout", 10, "Request timeout in seconds")
	flag.Parse()

	client := &http.Client{
		Timeout: time.Duration(*timeout) * time.Second,
	}

	fmt.Printf("Validating server at %s\n", *url)
	fmt.Printf("Testing %d endpoints...\n\n", len(endpoints))

	var passed, failed int
	var results []result

	for _, ep := range endpoints {
		r := validateEndpoint(client, *url, ep, *verbose)
		results = append(results, r)

		if r.err != nil {
			failed++
			fmt.Printf("FAIL %s %s\n", ep.method, ep.path)
			fmt.Printf("     Error: %v\n", r.err)
		} else if r.status != http.StatusOK {
			failed++
			fmt.Printf("FAIL %s %s\n", ep.method, ep.path)
			fmt.Printf("     Status: %d (expected 200)\n", r.status)
		} else {
			passed++
			if *verbose {
				fmt.Printf("PASS %s %s (%v)\n", ep.method, ep.path, r.duration)
			}
		}
	}

	fmt.Printf("\n========================================\n")
	fmt.Printf("Results: %d passed, %d failed\n", passed, failed)

	if failed > 0 {
		os.Exit(1)
	}
}

// signIn posts the login form. The server keeps one session, so later requests are authenticated.
func signIn(client *http.Client, baseURL, email, password string) error {
	form := url.Values{"email": {email}, "password": {password}}
	resp, err := client.PostForm(baseURL+"/login", form)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusSeeOther || resp.Header.Get("Location") != "/dashboard" {
		return fmt.Errorf("login rejected with status %d", resp.StatusCode)
	}
	return nil
}

func validateEndpoint(client *http.Client, baseURL string, ep endpoint, verbose bool) result {
	start := time.Now()

	req, err := http.NewRequest(ep.method, baseURL+ep.path, nil)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to create request: %w", err)}
	}

	resp, err := client.Do(req)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result{endpoint: ep, err: fmt.Errorf("failed to read body: %w", err)}
	}

	duration := time.Since(start)

	r := result{
		endpoint: ep,
		status:   resp.StatusCode,
		duration: duration,
		body:     string(body),
	}

	// Validate content type
	ct := resp.Header.Get("Content-Type")
	if !strings.Contains(ct, ep.contentType) {
		r.err = fmt.Errorf("wrong content type: got %q, expected %q", ct, ep.contentType)
		return r
	}

	// Validate JSON if expected
	if ep.contentType == "application/json" {
		var js interface{}
		if err := json.Unmarshal(body, &js); err != nil {
			r.err = fmt.Errorf("invalid JSON: %w", err)
			return r
		}
	}

	// Validate required content
	for _, needle := range ep.contains {
		if !strings.Contains(string(body), needle) {
			r.err = fmt.Errorf("missing expected content: %q", needle)
			return r
		}
	}

	return r
}
