package importer

import (
	"context"
	"strings"
	"testing"

	"aguas-del-valle/internal/domain"
	readingsvc "aguas-del-valle/internal/service/reading"
)

type stubCustomers struct {
	byEmail map[string]domain.Customer
	lookups int
}

func (s *stubCustomers) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	s.lookups++
	c, ok := s.byEmail[email]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &c, nil
}

// stubReadings applies the real normalization so validation failures surface
// the way the service reports them.
type stubReadings struct {
	items []domain.Reading
}

func (s *stubReadings) Create(_ context.Context, in readingsvc.Input) (*domain.Reading, error) {
	r, err := domain.NormalizeReading(domain.Reading{
		CustomerID:      in.CustomerID,
		Date:            in.Date,
		ConsumptionM3:   in.ConsumptionM3,
		PreviousReading: in.PreviousReading,
		CurrentReading:  in.CurrentReading,
		Notes:           in.Notes,
	})
	if err != nil {
		return nil, err
	}
	s.items = append(s.items, r)
	return &r, nil
}

func TestCSVImporter_Run(t *testing.T) {
	csvData := `email,date,previous,current,consumption,notes
juan.perez@email.com,2024-10-05,100.0,125.5,,Medición mensual
JUAN.PEREZ@email.com,2024-11-05,"125,5",140,,
nadie@email.com,2024-10-05,1,2,,
juan.perez@email.com,2024-12-05,150,140,,retroceso
juan.perez@email.com,05-12-2024,,,3,
,,,,,
juan.perez@email.com,2024-12-06,,,7.25`

	customers := &stubCustomers{byEmail: map[string]domain.Customer{
		"juan.perez@email.com": {ID: "c1", Email: "juan.perez@email.com"},
	}}
	readings := &stubReadings{}
	imp := NewCSVImporter(strings.NewReader(csvData), customers, readings)

	rep, err := imp.Run(context.Background())
	if err != nil {
		t.Fatalf("import run: %v", err)
	}
	if rep.Imported != 3 {
		t.Fatalf("expected 3 readings imported, got %d (skipped %v)", rep.Imported, rep.Skipped)
	}
	if len(rep.Skipped) != 3 {
		t.Fatalf("expected 3 skipped rows, got %v", rep.Skipped)
	}
	if rep.Skipped[0].Line != 4 || rep.Skipped[0].Reason != "unknown customer" {
		t.Fatalf("unexpected first skip %+v", rep.Skipped[0])
	}
	if rep.Skipped[1].Line != 5 || !strings.Contains(rep.Skipped[1].Reason, "currentReading") {
		t.Fatalf("unexpected second skip %+v", rep.Skipped[1])
	}
	if rep.Skipped[2].Line != 6 || !strings.Contains(rep.Skipped[2].Reason, "date") {
		t.Fatalf("unexpected third skip %+v", rep.Skipped[2])
	}

	if got := readings.items[0].ConsumptionM3.Decimal.StringFixed(2); got != "25.50" {
		t.Fatalf("expected derived consumption 25.50, got %s", got)
	}
	if got := readings.items[1].PreviousReading.Decimal.StringFixed(2); got != "125.50" {
		t.Fatalf("expected decimal comma accepted, got %s", got)
	}
	if got := readings.items[2].ConsumptionM3.Decimal.StringFixed(2); got != "7.25" {
		t.Fatalf("expected explicit consumption 7.25, got %s", got)
	}
	if customers.lookups != 2 {
		t.Fatalf("expected customer lookups to be cached per email, got %d", customers.lookups)
	}
}

func TestCSVImporter_MissingColumn(t *testing.T) {
	imp := NewCSVImporter(strings.NewReader("correo,fecha\nx,y\n"), &stubCustomers{}, &stubReadings{})
	if _, err := imp.Run(context.Background()); err == nil {
		t.Fatalf("expected error for missing columns")
	}
}
