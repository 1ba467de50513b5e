package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"decisiondash/internal/models"
)

// KeyMetrics fetches the headline KPIs. The endpoint is not scoped by period.
func (c *Client) KeyMetrics(ctx context.Context) (models.Metrics, error) {
	m, _, err := fetchData[models.Metrics](ctx, c, request{
		method: http.MethodGet,
		path:   "/api/analytics/key-metrics",
	}, false)
	return m, err
}

// RevenueTrends fetches income, expense and net buckets for the trailing period
func (c *Client) RevenueTrends(ctx context.Context, p models.Period) ([]models.RevenuePoint, error) {
	pts, _, err := fetchData[[]models.RevenuePoint](ctx, c, request{
		method: http.MethodGet,
		path:   "/api/analytics/revenue-trends",
		query:  periodQuery(p),
	}, false)
	return pts, err
}

// SpendingByCategory fetches per-category totals for the trailing period
func (c *Client) SpendingByCategory(ctx context.Context, p models.Period) ([]models.CategorySpend, error) {
	cats, _, err := fetchData[[]models.CategorySpend](ctx, c, request{
		method: http.MethodGet,
		path:   "/api/analytics/spending-by-category",
		query:  periodQuery(p),
	}, false)
	return cats, err
}

// BudgetVsActual fetches each budgeted category's spending. The endpoint is not scoped by period.
func (c *Client) BudgetVsActual(ctx context.Context) ([]models.BudgetLine, error) {
	lines, _, err := fetchData[[]models.BudgetLine](ctx, c, request{
		method: http.MethodGet,
		path:   "/api/analytics/budget-vs-actual",
	}, false)
	return lines, err
}

// RecentTransactions fetches at most limit of the latest transactions
func (c *Client) RecentTransactions(ctx context.Context, limit int) ([]models.Transaction, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	txs, _, err := fetchData[[]models.Transaction](ctx, c, request{
		method: http.MethodGet,
		path:   "/api/analytics/recent-transactions",
		query:  q,
	}, false)
	return txs, err
}

func periodQuery(p models.Period) url.Values {
	return url.Values{"period": []string{p.String()}}
}
