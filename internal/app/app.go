// Package app wires repositories and services shared by the binaries.
package app

import (
	"fmt"
	"log"

	"aguas-del-valle/internal/config"
	"aguas-del-valle/internal/mail"
	"aguas-del-valle/internal/render"
	customerrepo "aguas-del-valle/internal/repository/customer"
	invoicerepo "aguas-del-valle/internal/repository/invoice"
	noticerepo "aguas-del-valle/internal/repository/notice"
	readingrepo "aguas-del-valle/internal/repository/reading"
	reportrepo "aguas-del-valle/internal/repository/report"
	customersvc "aguas-del-valle/internal/service/customer"
	invoicesvc "aguas-del-valle/internal/service/invoice"
	noticesvc "aguas-del-valle/internal/service/notice"
	readingsvc "aguas-del-valle/internal/service/reading"
	reportsvc "aguas-del-valle/internal/service/report"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Services is the full set of application services.
type Services struct {
	Customers *customersvc.Service
	Readings  *readingsvc.Service
	Invoices  *invoicesvc.Service
	Notices   *noticesvc.Service
	Reports   *reportsvc.Service
}

// NewMailer returns the SMTP transport when a host is configured and the log
// transport otherwise.
func NewMailer(cfg config.MailConfig, logger *log.Logger) (mail.Sender, error) {
	if cfg.Host == "" {
		logger.Printf("SMTP_HOST not set, outgoing mail is only logged")
		return mail.NewLogSender(logger), nil
	}
	sender, err := mail.NewSMTPSender(mail.SMTPConfig{
		Host:     cfg.Host,
		Port:     cfg.Port,
		Username: cfg.Username,
		Password: cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("smtp sender: %w", err)
	}
	return sender, nil
}

// Build creates Postgres-backed services.
func Build(pool *pgxpool.Pool, cfg config.Config, logger *log.Logger) (*Services, error) {
	mailer, err := NewMailer(cfg.Mail, logger)
	if err != nil {
		return nil, err
	}

	customers := customerrepo.NewPostgres(pool, logger)
	readings := readingrepo.NewPostgres(pool, logger)
	invoices := invoicerepo.NewPostgres(pool, logger)
	notices := noticerepo.NewPostgres(pool, logger)

	return &Services{
		Customers: customersvc.New(customers, readings, invoices, notices),
		Readings:  readingsvc.New(readings, customers),
		Invoices: invoicesvc.New(invoices, customers, readings, invoicesvc.Options{
			DueDays:     cfg.InvoiceDueDays,
			CompanyName: cfg.CompanyName,
			MailFrom:    cfg.Mail.From,
			Renderer:    render.NewInvoicePDF(cfg.CompanyName),
			Mailer:      mailer,
			Logger:      logger,
		}),
		Notices: noticesvc.New(notices, customers, noticesvc.Options{
			CompanyName: cfg.CompanyName,
			MailFrom:    cfg.Mail.From,
			Mailer:      mailer,
			Logger:      logger,
		}),
		Reports: reportsvc.New(reportrepo.NewPostgres(pool, logger), readings, nil),
	}, nil
}
