package domain

import "github.com/shopspring/decimal"

// Dashboard is the landing page summary.
type Dashboard struct {
	ActiveCustomers int       `json:"activeCustomers"`
	PendingInvoices int       `json:"pendingInvoices"`
	UnsentNotices   int       `json:"unsentNotices"`
	LatestReadings  []Reading `json:"latestReadings"`
}

// MonthlyInvoices aggregates invoices issued in one month.
type MonthlyInvoices struct {
	Month string          `json:"month"`
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

// Stats is the reporting page summary.
type Stats struct {
	ActiveCustomers    int               `json:"activeCustomers"`
	TotalInvoices      int               `json:"totalInvoices"`
	PendingInvoices    int               `json:"pendingInvoices"`
	PaidInvoices       int               `json:"paidInvoices"`
	OverdueInvoices    int               `json:"overdueInvoices"`
	PaidRevenue        decimal.Decimal   `json:"paidRevenue"`
	AverageConsumption decimal.Decimal   `json:"averageConsumption"`
	InvoicesByMonth    []MonthlyInvoices `json:"invoicesByMonth"`
}

// SearchResults groups matches of a free-text query.
type SearchResults struct {
	Query     string     `json:"query"`
	Customers []Customer `json:"customers"`
	Invoices  []Invoice  `json:"invoices"`
	Notices   []Notice   `json:"notices"`
}
