package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	invoicesvc "aguas-del-valle/internal/service/invoice"
	"github.com/spf13/cobra"
)

func newInvoiceCmd(open Opener) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "invoice",
		Aliases: []string{"boleta"},
		Short:   "Issue and manage invoices",
	}
	cmd.AddCommand(newInvoiceGenerateCmd(open))
	cmd.AddCommand(newInvoiceStateCmd(open))
	cmd.AddCommand(newInvoiceSendCmd(open))
	cmd.AddCommand(newInvoicePDFCmd(open))
	return cmd
}

func newInvoiceGenerateCmd(open Opener) *cobra.Command {
	var (
		customerID string
		readingID  string
		issued     string
		due        string
		number     string
	)

	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Issue a pending invoice for a reading",
		Args:  cobra.NoArgs,
		RunE: withBackend(open, func(cmd *cobra.Command, _ []string, b *Backend) error {
			in := invoicesvc.GenerateInput{CustomerID: customerID, ReadingID: readingID, Number: number}
			var err error
			if in.IssuedOn, err = parseOptionalDate("--issued", issued); err != nil {
				return err
			}
			if in.DueOn, err = parseOptionalDate("--due", due); err != nil {
				return err
			}
			inv, err := b.Invoices.Generate(cmd.Context(), in)
			if err != nil {
				return fmt.Errorf("generate invoice: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderInvoiceLine(inv))
			return nil
		}),
	}

	cmd.Flags().StringVar(&customerID, "customer", "", "Customer id")
	cmd.Flags().StringVar(&readingID, "reading", "", "Reading id to bill")
	cmd.Flags().StringVar(&issued, "issued", "", "Issue date YYYY-MM-DD (default today)")
	cmd.Flags().StringVar(&due, "due", "", "Due date YYYY-MM-DD (default issue date plus INVOICE_DUE_DAYS)")
	cmd.Flags().StringVar(&number, "number", "", "Explicit invoice number instead of the monthly sequence")
	_ = cmd.MarkFlagRequired("customer")
	_ = cmd.MarkFlagRequired("reading")
	return cmd
}

func newInvoiceStateCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "state <invoice-id> <pending|paid|overdue|cancelled>",
		Short: "Change the state of an invoice",
		Args:  cobra.ExactArgs(2),
		RunE: withBackend(open, func(cmd *cobra.Command, args []string, b *Backend) error {
			inv, changed, err := b.Invoices.ChangeState(cmd.Context(), args[0], args[1])
			if err != nil {
				return fmt.Errorf("change state: %w", err)
			}
			out := cmd.OutOrStdout()
			if !changed {
				fmt.Fprintf(out, "%s unchanged (%s)\n", inv.Number, inv.State.Label())
				return nil
			}
			fmt.Fprintln(out, renderInvoiceLine(inv))
			return nil
		}),
	}
}

func newInvoiceSendCmd(open Opener) *cobra.Command {
	return &cobra.Command{
		Use:   "send <invoice-id>",
		Short: "Email the invoice PDF to its customer",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(open, func(cmd *cobra.Command, args []string, b *Backend) error {
			doc, err := b.Invoices.Send(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("send invoice: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s sent to %s\n", okStyle.Render("✓"), doc.Invoice.Number, doc.Customer.Email)
			return nil
		}),
	}
}

func newInvoicePDFCmd(open Opener) *cobra.Command {
	var dir string

	cmd := &cobra.Command{
		Use:   "pdf <invoice-id>",
		Short: "Write the invoice PDF to a directory",
		Args:  cobra.ExactArgs(1),
		RunE: withBackend(open, func(cmd *cobra.Command, args []string, b *Backend) error {
			data, name, err := b.Invoices.RenderPDF(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("render invoice: %w", err)
			}
			path := filepath.Join(dir, name)
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", ".", "Output directory")
	return cmd
}

func parseOptionalDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: expected YYYY-MM-DD, got %q", flag, value)
	}
	return t, nil
}
