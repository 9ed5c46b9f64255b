// Package seed loads sample customers, readings, invoices and notices.
package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"aguas-del-valle/internal/domain"
	customersvc "aguas-del-valle/internal/service/customer"
	invoicesvc "aguas-del-valle/internal/service/invoice"
	noticesvc "aguas-del-valle/internal/service/notice"
	readingsvc "aguas-del-valle/internal/service/reading"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

// Fixtures is the YAML document shape.
type Fixtures struct {
	Customers []CustomerFixture `yaml:"customers"`
}

type CustomerFixture struct {
	Name     string           `yaml:"name"`
	Email    string           `yaml:"email"`
	Address  string           `yaml:"address"`
	Phone    string           `yaml:"phone"`
	Readings []ReadingFixture `yaml:"readings"`
	Notices  []NoticeFixture  `yaml:"notices"`
}

type ReadingFixture struct {
	DaysAgo     int             `yaml:"daysAgo"`
	Previous    string          `yaml:"previous"`
	Current     string          `yaml:"current"`
	Consumption string          `yaml:"consumption"`
	Notes       string          `yaml:"notes"`
	Invoice     *InvoiceFixture `yaml:"invoice"`
}

type InvoiceFixture struct {
	DueInDays int    `yaml:"dueInDays"`
	State     string `yaml:"state"`
}

type NoticeFixture struct {
	Type    string `yaml:"type"`
	Title   string `yaml:"title"`
	Message string `yaml:"message"`
}

// Services are the operations the loader drives. Going through the services
// means fixtures get the same validation and numbering as API input.
type Services struct {
	Customers interface {
		GetByEmail(ctx context.Context, email string) (*domain.Customer, error)
		Create(ctx context.Context, in customersvc.Input) (*domain.Customer, error)
	}
	Readings interface {
		Create(ctx context.Context, in readingsvc.Input) (*domain.Reading, error)
	}
	Invoices interface {
		Generate(ctx context.Context, in invoicesvc.GenerateInput) (*domain.Invoice, error)
		ChangeState(ctx context.Context, id, target string) (*domain.Invoice, bool, error)
	}
	Notices interface {
		Create(ctx context.Context, in noticesvc.Input) (*domain.Notice, error)
	}
}

// Result counts what Apply created.
type Result struct {
	Customers int
	Skipped   int
	Readings  int
	Invoices  int
	Notices   int
}

// Parse decodes a fixtures document.
func Parse(data []byte) (*Fixtures, error) {
	var f Fixtures
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse fixtures: %w", err)
	}
	return &f, nil
}

// Default returns the embedded fixture set.
func Default() (*Fixtures, error) {
	return Parse(defaultFixtures)
}

// Apply creates every fixture customer that does not exist yet, with its
// readings, invoices and notices. It is safe to run repeatedly.
func Apply(ctx context.Context, svc Services, f *Fixtures, now time.Time, logger *log.Logger) (Result, error) {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	var res Result
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	for _, cf := range f.Customers {
		existing, err := svc.Customers.GetByEmail(ctx, cf.Email)
		if err == nil {
			logger.Printf("seed: customer %s exists, skipping", existing.Email)
			res.Skipped++
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return res, fmt.Errorf("lookup %s: %w", cf.Email, err)
		}

		customer, err := svc.Customers.Create(ctx, customersvc.Input{
			Name: cf.Name, Address: cf.Address, Email: cf.Email, Phone: cf.Phone,
		})
		if err != nil {
			return res, fmt.Errorf("create customer %s: %w", cf.Email, err)
		}
		res.Customers++

		for i, rf := range cf.Readings {
			in, err := rf.input(customer.ID, today)
			if err != nil {
				return res, fmt.Errorf("customer %s reading %d: %w", cf.Email, i+1, err)
			}
			reading, err := svc.Readings.Create(ctx, in)
			if err != nil {
				return res, fmt.Errorf("customer %s reading %d: %w", cf.Email, i+1, err)
			}
			res.Readings++

			if rf.Invoice == nil {
				continue
			}
			inv, err := svc.Invoices.Generate(ctx, invoicesvc.GenerateInput{
				CustomerID: customer.ID,
				ReadingID:  reading.ID,
				IssuedOn:   reading.Date,
				DueOn:      reading.Date.AddDate(0, 0, rf.Invoice.DueInDays),
			})
			if err != nil {
				return res, fmt.Errorf("customer %s invoice %d: %w", cf.Email, i+1, err)
			}
			res.Invoices++
			if rf.Invoice.State != "" {
				if _, _, err := svc.Invoices.ChangeState(ctx, inv.ID, rf.Invoice.State); err != nil {
					return res, fmt.Errorf("invoice %s state %s: %w", inv.Number, rf.Invoice.State, err)
				}
			}
		}

		for i, nf := range cf.Notices {
			if _, err := svc.Notices.Create(ctx, noticesvc.Input{
				CustomerID: customer.ID,
				Type:       nf.Type,
				Title:      nf.Title,
				Message:    nf.Message,
			}); err != nil {
				return res, fmt.Errorf("customer %s notice %d: %w", cf.Email, i+1, err)
			}
			res.Notices++
		}
		logger.Printf("seed: created customer %s", customer.Email)
	}
	return res, nil
}

func (rf ReadingFixture) input(customerID string, today time.Time) (readingsvc.Input, error) {
	in := readingsvc.Input{
		CustomerID: customerID,
		Date:       today.AddDate(0, 0, -rf.DaysAgo),
		Notes:      rf.Notes,
	}
	var err error
	if in.PreviousReading, err = optionalDecimal(rf.Previous); err != nil {
		return in, fmt.Errorf("previous: %w", err)
	}
	if in.CurrentReading, err = optionalDecimal(rf.Current); err != nil {
		return in, fmt.Errorf("current: %w", err)
	}
	if in.ConsumptionM3, err = optionalDecimal(rf.Consumption); err != nil {
		return in, fmt.Errorf("consumption: %w", err)
	}
	return in, nil
}

func optionalDecimal(s string) (decimal.NullDecimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.NullDecimal{}, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}, err
	}
	return decimal.NewNullDecimal(d), nil
}
