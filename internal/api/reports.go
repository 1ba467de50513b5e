package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"decisiondash/internal/models"
)

// LatestReport returns the most recent report, or nil when none has been generated
func (c *Client) LatestReport(ctx context.Context) (*models.Report, error) {
	r, ok, err := fetchData[models.Report](ctx, c, request{
		method: http.MethodGet,
		path:   "/api/reports/latest",
	}, true)
	if err != nil || !ok {
		return nil, err
	}
	return &r, nil
}

// GenerateReport asks the server to compute a fresh report and returns it
func (c *Client) GenerateReport(ctx context.Context) (*models.Report, error) {
	r, _, err := fetchData[models.Report](ctx, c, request{
		method:      http.MethodPost,
		path:        "/api/reports/generate",
		body:        strings.NewReader("{}"),
		contentType: "application/json",
	}, false)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ReportHistory lists previously generated reports, newest first as the server orders them
func (c *Client) ReportHistory(ctx context.Context) ([]models.Report, error) {
	reports, _, err := fetchData[[]models.Report](ctx, c, request{
		method: http.MethodGet,
		path:   "/api/reports/history",
	}, true)
	return reports, err
}

// TriggerWeeklyReport schedules the weekly report run and returns the server's message
func (c *Client) TriggerWeeklyReport(ctx context.Context) (string, error) {
	body, err := c.do(ctx, request{
		method:      http.MethodPost,
		path:        "/api/reports/trigger-weekly",
		body:        strings.NewReader("{}"),
		contentType: "application/json",
	})
	if err != nil {
		return "", err
	}

	var resp struct {
		Message string `json:"message"`
	}
	if len(body) > 0 {
		if err := json.Unmarshal(body, &resp); err != nil {
			return "", malformed(err)
		}
	}
	return resp.Message, nil
}
