package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"aguas-del-valle/internal/domain"
	readingsvc "aguas-del-valle/internal/service/reading"
	"github.com/shopspring/decimal"
)

var requiredHeaders = []string{"email", "date"}

type CustomerLookup interface {
	GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
}

type ReadingWriter interface {
	Create(ctx context.Context, in readingsvc.Input) (*domain.Reading, error)
}

// RowError explains why a CSV line was skipped. Line counts the header as 1.
type RowError struct {
	Line   int
	Email  string
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d (%s): %s", e.Line, e.Email, e.Reason)
}

// Report summarizes an import run.
type Report struct {
	Imported int
	Skipped  []RowError
}

// CSVImporter reads meter readings with the header
// email,date,previous,current,consumption,notes and stores them through the
// reading service, so imported rows follow the same rules as API input.
type CSVImporter struct {
	reader    *csv.Reader
	customers CustomerLookup
	readings  ReadingWriter
}

func NewCSVImporter(r io.Reader, customers CustomerLookup, readings ReadingWriter) *CSVImporter {
	csvr := csv.NewReader(r)
	csvr.FieldsPerRecord = -1 // trailing optional columns may be missing
	csvr.TrimLeadingSpace = true
	return &CSVImporter{
		reader:    csvr,
		customers: customers,
		readings:  readings,
	}
}

// Run imports every valid row. Rows with an unknown customer or failing
// validation are reported and skipped; a malformed file stops the run.
func (i *CSVImporter) Run(ctx context.Context) (Report, error) {
	var rep Report

	headers, err := i.reader.Read()
	if err != nil {
		return rep, fmt.Errorf("read headers: %w", err)
	}
	index := headerIndex(headers)
	for _, h := range requiredHeaders {
		if _, ok := index[h]; !ok {
			return rep, fmt.Errorf("missing required column %q", h)
		}
	}

	ids := make(map[string]string)
	line := 1
	for {
		record, err := i.reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return rep, fmt.Errorf("read row %d: %w", line, err)
		}
		if blank(record) {
			continue
		}

		email := strings.ToLower(pick(record, index, "email"))
		skip := func(reason string) {
			rep.Skipped = append(rep.Skipped, RowError{Line: line, Email: email, Reason: reason})
		}

		customerID, ok := ids[email]
		if !ok {
			c, err := i.customers.GetByEmail(ctx, email)
			if errors.Is(err, domain.ErrNotFound) {
				skip("unknown customer")
				continue
			}
			if err != nil {
				return rep, fmt.Errorf("lookup %s: %w", email, err)
			}
			customerID = c.ID
			ids[email] = customerID
		}

		in, err := parseRow(record, index)
		if err != nil {
			skip(err.Error())
			continue
		}
		in.CustomerID = customerID

		if _, err := i.readings.Create(ctx, in); err != nil {
			if _, ok := domain.AsValidation(err); ok {
				skip(err.Error())
				continue
			}
			return rep, fmt.Errorf("store row %d: %w", line, err)
		}
		rep.Imported++
	}
	return rep, nil
}

func parseRow(record []string, index map[string]int) (readingsvc.Input, error) {
	var in readingsvc.Input

	date, err := time.Parse("2006-01-02", pick(record, index, "date"))
	if err != nil {
		return in, fmt.Errorf("date: expected YYYY-MM-DD")
	}
	in.Date = date

	for _, col := range []struct {
		name string
		dst  *decimal.NullDecimal
	}{
		{"previous", &in.PreviousReading},
		{"current", &in.CurrentReading},
		{"consumption", &in.ConsumptionM3},
	} {
		raw := strings.ReplaceAll(pick(record, index, col.name), ",", ".")
		if raw == "" {
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return in, fmt.Errorf("%s: %q is not a number", col.name, raw)
		}
		*col.dst = decimal.NewNullDecimal(d)
	}
	in.Notes = pick(record, index, "notes")
	return in, nil
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))] = i
	}
	return idx
}

func pick(record []string, index map[string]int, key string) string {
	pos, ok := index[key]
	if !ok || pos >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[pos])
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
