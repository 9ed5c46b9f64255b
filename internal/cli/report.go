package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"aguas-del-valle/internal/domain"
	"aguas-del-valle/internal/render"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

var (
	accent = lipgloss.Color("#0EA5E9")
	dim    = lipgloss.Color("#6B7280")

	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(accent)
	boxStyle    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(accent).
			Padding(0, 2)
	labelStyle = lipgloss.NewStyle().Foreground(dim).Width(22)
	valueStyle = lipgloss.NewStyle().Bold(true)
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E"))

	stateStyles = map[domain.InvoiceState]lipgloss.Style{
		domain.InvoicePending:   lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		domain.InvoicePaid:      lipgloss.NewStyle().Foreground(lipgloss.Color("#22C55E")),
		domain.InvoiceOverdue:   lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
		domain.InvoiceCancelled: lipgloss.NewStyle().Foreground(dim),
	}
)

func newReportCmd(open Opener) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print billing statistics",
		Args:  cobra.NoArgs,
		RunE: withBackend(open, func(cmd *cobra.Command, _ []string, b *Backend) error {
			st, err := b.Reports.Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("load stats: %w", err)
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(st)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderStats(st))
			return nil
		}),
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}

func renderStats(st *domain.Stats) string {
	rows := [][2]string{
		{"Clientes activos", fmt.Sprint(st.ActiveCustomers)},
		{"Boletas emitidas", fmt.Sprint(st.TotalInvoices)},
		{"Pendientes", fmt.Sprint(st.PendingInvoices)},
		{"Pagadas", fmt.Sprint(st.PaidInvoices)},
		{"Vencidas", fmt.Sprint(st.OverdueInvoices)},
		{"Recaudación", render.FormatCLP(st.PaidRevenue)},
		{"Consumo promedio", st.AverageConsumption.StringFixed(2) + " m³"},
	}

	var body strings.Builder
	body.WriteString(headerStyle.Render("Aguas del Valle · Reporte"))
	body.WriteString("\n\n")
	for _, r := range rows {
		body.WriteString(labelStyle.Render(r[0]) + valueStyle.Render(r[1]) + "\n")
	}

	if len(st.InvoicesByMonth) > 0 {
		body.WriteString("\n")
		body.WriteString(headerStyle.Render("Boletas por mes"))
		body.WriteString("\n")
		for _, m := range st.InvoicesByMonth {
			body.WriteString(labelStyle.Render(m.Month) + fmt.Sprintf("%3d  %s\n", m.Count, render.FormatCLP(m.Total)))
		}
	}

	return boxStyle.Render(strings.TrimRight(body.String(), "\n")) + "\n"
}

func renderInvoiceLine(inv *domain.Invoice) string {
	style, ok := stateStyles[inv.State]
	if !ok {
		style = lipgloss.NewStyle()
	}
	return fmt.Sprintf("%s  %s  %s  vence %s",
		valueStyle.Render(inv.Number),
		style.Render(inv.State.Label()),
		render.FormatCLP(inv.Amount),
		inv.DueOn.Format("2006-01-02"))
}
