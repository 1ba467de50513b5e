package models

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType indicates whether a transaction is income or an expense
type TransactionType string

const (
	Income  TransactionType = "income"
	Expense TransactionType = "expense"
)

// Transaction is a row of the recent-transactions feed
type Transaction struct {
	Description string          `json:"description,omitempty"`
	Category    string          `json:"category"`
	Date        string          `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Type        TransactionType `json:"type"`
}

// IsIncome reports whether the transaction adds to cash flow
func (t Transaction) IsIncome() bool {
	return t.Type == Income
}

// Time parses the transaction date. The zero time is returned for unparseable dates.
func (t Transaction) Time() time.Time {
	ts, _ := ParseISODate(t.Date)
	return ts
}

// SortRecentFirst orders transactions most recent first, keeping server order for ties
func SortRecentFirst(txs []Transaction) {
	sort.SliceStable(txs, func(i, j int) bool {
		return txs[i].Time().After(txs[j].Time())
	})
}

// ParseISODate accepts a calendar date ("2006-01-02") or a full RFC 3339 timestamp
func ParseISODate(s string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04:05", s)
}
