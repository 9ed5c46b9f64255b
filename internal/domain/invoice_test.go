package domain_test

import (
	"testing"
	"time"

	"aguas-del-valle/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvoiceAmount(t *testing.T) {
	got := domain.InvoiceAmount(decimal.RequireFromString("25.5"))
	assert.Equal(t, "12750.00", got.StringFixed(2))

	got = domain.InvoiceAmount(decimal.RequireFromString("0.01"))
	assert.Equal(t, "5.00", got.StringFixed(2))
}

func TestFormatInvoiceNumber(t *testing.T) {
	n, err := domain.FormatInvoiceNumber(2024, time.October, 7)
	require.NoError(t, err)
	assert.Equal(t, "B2024100007", n)

	n, err = domain.FormatInvoiceNumber(2025, time.March, 1)
	require.NoError(t, err)
	assert.Equal(t, "B2025030001", n)

	_, err = domain.FormatInvoiceNumber(2024, time.October, 10000)
	assert.ErrorIs(t, err, domain.ErrSequenceExhausted)

	_, err = domain.FormatInvoiceNumber(2024, time.October, 0)
	assert.Error(t, err)
}

func TestParseInvoiceNumber(t *testing.T) {
	y, m, s, ok := domain.ParseInvoiceNumber("B2024100007")
	require.True(t, ok)
	assert.Equal(t, 2024, y)
	assert.Equal(t, time.October, m)
	assert.Equal(t, 7, s)

	for _, bad := range []string{"", "B202410007", "X2024100007", "B2024130001", "B2024100000"} {
		_, _, _, ok := domain.ParseInvoiceNumber(bad)
		assert.False(t, ok, bad)
	}
}

func TestParseInvoiceState(t *testing.T) {
	cases := map[string]domain.InvoiceState{
		"pending":   domain.InvoicePending,
		" PAID ":    domain.InvoicePaid,
		"vencida":   domain.InvoiceOverdue,
		"cancelada": domain.InvoiceCancelled,
	}
	for in, want := range cases {
		got, ok := domain.ParseInvoiceState(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got)
	}
	_, ok := domain.ParseInvoiceState("archived")
	assert.False(t, ok)
}

func TestCanTransition(t *testing.T) {
	allowed := [][2]domain.InvoiceState{
		{domain.InvoicePending, domain.InvoicePaid},
		{domain.InvoicePending, domain.InvoiceOverdue},
		{domain.InvoicePending, domain.InvoiceCancelled},
		{domain.InvoiceOverdue, domain.InvoicePaid},
		{domain.InvoicePaid, domain.InvoicePaid},
		{domain.InvoiceCancelled, domain.InvoiceCancelled},
	}
	for _, tr := range allowed {
		assert.True(t, domain.CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	rejected := [][2]domain.InvoiceState{
		{domain.InvoiceCancelled, domain.InvoicePaid},
		{domain.InvoiceCancelled, domain.InvoicePending},
		{domain.InvoicePaid, domain.InvoicePending},
		{domain.InvoicePaid, domain.InvoiceOverdue},
		{domain.InvoiceOverdue, domain.InvoicePending},
		{domain.InvoiceOverdue, domain.InvoiceCancelled},
	}
	for _, tr := range rejected {
		assert.False(t, domain.CanTransition(tr[0], tr[1]), "%s -> %s", tr[0], tr[1])
	}

	assert.True(t, domain.InvoicePaid.Terminal())
	assert.True(t, domain.InvoiceCancelled.Terminal())
	assert.False(t, domain.InvoiceOverdue.Terminal())
}

func TestPeriodKey(t *testing.T) {
	ts := time.Date(2024, 10, 31, 23, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-10", domain.PeriodKey(ts))
	start, end := domain.InvoicePeriod(ts)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 11, 1, 0, 0, 0, 0, time.UTC), end)
}
