package models

// UploadType names a CSV data set accepted by the upload service
type UploadType string

const (
	UploadTransactions  UploadType = "transactions"
	UploadBudgets       UploadType = "budgets"
	UploadGoals         UploadType = "goals"
	UploadSubscriptions UploadType = "subscriptions"
	UploadClients       UploadType = "clients"
	UploadEngagements   UploadType = "engagements"
	UploadPayments      UploadType = "payments"
	UploadWorkRequests  UploadType = "work-requests"
)

// UploadTypes lists every upload type in display order
var UploadTypes = []UploadType{
	UploadTransactions,
	UploadBudgets,
	UploadGoals,
	UploadSubscriptions,
	UploadClients,
	UploadEngagements,
	UploadPayments,
	UploadWorkRequests,
}

type uploadTypeInfo struct {
	label  string
	icon   string
	format string
}

var uploadTypeInfos = map[UploadType]uploadTypeInfo{
	UploadTransactions:  {"Transactions", "💳", "amount, category, description, date, type (income/expense)"},
	UploadBudgets:       {"Budgets", "💰", "category, amount, period (monthly/yearly)"},
	UploadGoals:         {"Goals", "🎯", "name, target_amount, deadline, current_amount"},
	UploadSubscriptions: {"Subscriptions", "📱", "name, amount, billing_cycle, next_billing_date"},
	UploadClients:       {"Clients", "🧑‍💼", ""},
	UploadEngagements:   {"Engagements", "🤝", ""},
	UploadPayments:      {"Payments", "🧾", ""},
	UploadWorkRequests:  {"Work Requests", "🛠️", ""},
}

// Valid reports whether t is a known upload type
func (t UploadType) Valid() bool {
	_, ok := uploadTypeInfos[t]
	return ok
}

// Label returns the human-readable name
func (t UploadType) Label() string {
	if info, ok := uploadTypeInfos[t]; ok {
		return info.label
	}
	return string(t)
}

// Icon returns the glyph shown on the type picker
func (t UploadType) Icon() string {
	if info, ok := uploadTypeInfos[t]; ok {
		return info.icon
	}
	return "📄"
}

// FormatGuide describes the expected CSV columns. Empty when the server owns the layout.
func (t UploadType) FormatGuide() string {
	return uploadTypeInfos[t].format
}

// UploadResult is the upload service's per-file outcome
type UploadResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	TotalRows *int   `json:"totalRows,omitempty"`
	Inserted  *int   `json:"inserted,omitempty"`
	Skipped   *int   `json:"skipped,omitempty"`
}
