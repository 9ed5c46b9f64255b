package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// UnitRate is the price of one cubic meter, in CLP.
var UnitRate = decimal.NewFromInt(500)

// MaxInvoiceSequence is the largest monthly counter that fits the number format.
const MaxInvoiceSequence = 9999

// InvoiceState is the lifecycle tag of an invoice.
type InvoiceState string

const (
	InvoicePending   InvoiceState = "pending"
	InvoicePaid      InvoiceState = "paid"
	InvoiceOverdue   InvoiceState = "overdue"
	InvoiceCancelled InvoiceState = "cancelled"
)

var invoiceTransitions = map[InvoiceState][]InvoiceState{
	InvoicePending: {InvoicePaid, InvoiceOverdue, InvoiceCancelled},
	InvoiceOverdue: {InvoicePaid},
}

var legacyStates = map[string]InvoiceState{
	"pendiente": InvoicePending,
	"pagada":    InvoicePaid,
	"vencida":   InvoiceOverdue,
	"cancelada": InvoiceCancelled,
}

// ParseInvoiceState accepts the English tags and the legacy Spanish ones.
func ParseInvoiceState(s string) (InvoiceState, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch st := InvoiceState(s); st {
	case InvoicePending, InvoicePaid, InvoiceOverdue, InvoiceCancelled:
		return st, true
	}
	st, ok := legacyStates[s]
	return st, ok
}

// Label returns the customer-facing name of the state.
func (s InvoiceState) Label() string {
	switch s {
	case InvoicePending:
		return "Pendiente"
	case InvoicePaid:
		return "Pagada"
	case InvoiceOverdue:
		return "Vencida"
	case InvoiceCancelled:
		return "Cancelada"
	}
	return string(s)
}

// Terminal reports whether no further transition is possible.
func (s InvoiceState) Terminal() bool {
	return len(invoiceTransitions[s]) == 0
}

// CanTransition reports whether from may move to to. Staying in the same
// state is always allowed and is a no-op.
func CanTransition(from, to InvoiceState) bool {
	if from == to {
		return true
	}
	for _, next := range invoiceTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Invoice ("boleta") is the bill issued for one reading.
type Invoice struct {
	ID           string          `json:"id"`
	CustomerID   string          `json:"customerId"`
	ReadingID    string          `json:"readingId"`
	Number       string          `json:"number"`
	IssuedOn     time.Time       `json:"issuedOn"`
	DueOn        time.Time       `json:"dueOn"`
	Amount       decimal.Decimal `json:"amount"`
	State        InvoiceState    `json:"state"`
	RegisteredAt time.Time       `json:"registeredAt"`
	UpdatedAt    time.Time       `json:"updatedAt"`
}

// InvoiceDocument is everything needed to render or mail an invoice.
type InvoiceDocument struct {
	Invoice  Invoice
	Customer Customer
	Reading  Reading
}

// InvoiceAmount prices a consumption at UnitRate.
func InvoiceAmount(consumption decimal.Decimal) decimal.Decimal {
	return consumption.Mul(UnitRate).Round(2)
}

// FormatInvoiceNumber renders B + yyyy + mm + 4-digit sequence, e.g. B2024100007.
func FormatInvoiceNumber(year int, month time.Month, seq int) (string, error) {
	if seq < 1 {
		return "", fmt.Errorf("invoice sequence must be positive, got %d", seq)
	}
	if seq > MaxInvoiceSequence {
		return "", ErrSequenceExhausted
	}
	return fmt.Sprintf("B%04d%02d%04d", year, int(month), seq), nil
}

// ParseInvoiceNumber splits a generated number into its parts.
func ParseInvoiceNumber(number string) (year int, month time.Month, seq int, ok bool) {
	if len(number) != 11 || number[0] != 'B' {
		return 0, 0, 0, false
	}
	y, err := strconv.Atoi(number[1:5])
	if err != nil {
		return 0, 0, 0, false
	}
	m, err := strconv.Atoi(number[5:7])
	if err != nil || m < 1 || m > 12 {
		return 0, 0, 0, false
	}
	s, err := strconv.Atoi(number[7:])
	if err != nil || s < 1 {
		return 0, 0, 0, false
	}
	return y, time.Month(m), s, true
}

// InvoicePeriod returns the first day of the month of t and of the next month.
func InvoicePeriod(t time.Time) (start, end time.Time) {
	start = time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return start, start.AddDate(0, 1, 0)
}

// PeriodKey is the counter key for a month, e.g. "2024-10".
func PeriodKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}
