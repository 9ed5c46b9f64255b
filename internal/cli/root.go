// Package cli implements aguasctl, the administrative command line.
package cli

import (
	"context"
	"fmt"
	"log"
	"os"

	"aguas-del-valle/internal/app"
	"aguas-del-valle/internal/config"
	"aguas-del-valle/internal/db"
	"aguas-del-valle/internal/domain"
	invoicesvc "aguas-del-valle/internal/service/invoice"
	"github.com/spf13/cobra"
)

// InvoiceOps are the invoice operations the CLI drives.
type InvoiceOps interface {
	Generate(ctx context.Context, in invoicesvc.GenerateInput) (*domain.Invoice, error)
	ChangeState(ctx context.Context, id, target string) (*domain.Invoice, bool, error)
	RenderPDF(ctx context.Context, id string) ([]byte, string, error)
	Send(ctx context.Context, id string) (*domain.InvoiceDocument, error)
}

// NoticeOps are the notice operations the CLI drives.
type NoticeOps interface {
	Send(ctx context.Context, id string) (*domain.Notice, error)
	MarkSent(ctx context.Context, id string) (*domain.Notice, error)
}

// ReportOps produce the summary printed by `aguasctl report`.
type ReportOps interface {
	Stats(ctx context.Context) (*domain.Stats, error)
}

// Backend is what every subcommand runs against.
type Backend struct {
	Invoices InvoiceOps
	Notices  NoticeOps
	Reports  ReportOps
}

// Opener connects a Backend; close releases it.
type Opener func(ctx context.Context) (b *Backend, close func(), err error)

func newRootCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "aguasctl",
		Short:         "Administer Aguas del Valle billing",
		Long:          "aguasctl issues invoices, changes their state, dispatches notices and prints billing reports against the configured database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(newInvoiceCmd(open))
	cmd.AddCommand(newNoticeCmd(open))
	cmd.AddCommand(newReportCmd(open))
	return cmd
}

// NewRootCmdForTest returns the root command bound to b.
func NewRootCmdForTest(b *Backend) *cobra.Command {
	return newRootCmd(func(context.Context) (*Backend, func(), error) {
		return b, func() {}, nil
	})
}

// Execute runs aguasctl against Postgres.
func Execute() error {
	return newRootCmd(openPostgres).Execute()
}

func openPostgres(ctx context.Context) (*Backend, func(), error) {
	logger := log.New(os.Stderr, "[aguasctl] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	if err := config.LoadDotEnv(); err != nil {
		return nil, nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := config.FromEnv()

	pool, err := db.Connect(ctx, cfg.DBConnString, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect db: %w", err)
	}
	services, err := app.Build(pool, cfg, logger)
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	return &Backend{
		Invoices: services.Invoices,
		Notices:  services.Notices,
		Reports:  services.Reports,
	}, pool.Close, nil
}

// withBackend opens the backend around fn.
func withBackend(open Opener, fn func(cmd *cobra.Command, args []string, b *Backend) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		b, closeFn, err := open(ctx)
		if err != nil {
			return err
		}
		defer closeFn()
		return fn(cmd, args, b)
	}
}
