// Package render lays out printable invoice documents.
package render

import (
	"fmt"
	"io"

	"aguas-del-valle/internal/domain"
	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const (
	labelWidth = 50.8 // 2 inches
	valueWidth = 76.2 // 3 inches
	rowHeight  = 8
	dateLayout = "02/01/2006"
)

var (
	labelFill = [3]int{211, 211, 211}
	valueFill = [3]int{245, 245, 220}
	printer   = message.NewPrinter(language.English)
)

// InvoicePDF renders invoices as Letter-size PDF documents.
type InvoicePDF struct {
	company string
}

// NewInvoicePDF returns a renderer that prints company in the header.
func NewInvoicePDF(company string) *InvoicePDF {
	if company == "" {
		company = "Aguas del Valle"
	}
	return &InvoicePDF{company: company}
}

// FileName is the attachment/download name of an invoice document.
func FileName(inv domain.Invoice) string {
	return fmt.Sprintf("boleta_%s.pdf", inv.Number)
}

// FormatCLP renders an amount as $12,750.00 CLP. Only the whole part goes
// through the grouping printer; cents are taken from the decimal itself.
func FormatCLP(amount decimal.Decimal) string {
	fixed := amount.Round(2)
	sign := ""
	if fixed.IsNegative() {
		sign = "-"
		fixed = fixed.Neg()
	}
	whole := fixed.Truncate(0)
	cents := fixed.Sub(whole).Shift(2).IntPart()
	return fmt.Sprintf("%s$%s.%02d CLP", sign, printer.Sprint(number.Decimal(whole.IntPart())), cents)
}

// RenderInvoice writes the document for doc to w.
func (p *InvoicePDF) RenderInvoice(w io.Writer, doc domain.InvoiceDocument) error {
	pdf := fpdf.New("P", "mm", "Letter", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(fmt.Sprintf("Boleta %s", doc.Invoice.Number), true)
	pdf.SetCreator(p.company, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, tr(p.company), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, tr("Sistema de Facturación"), "", 1, "L", false, 0, "")
	pdf.Ln(6)

	inv := doc.Invoice
	table(pdf, tr, [][2]string{
		{"Número de Boleta:", inv.Number},
		{"Fecha de Emisión:", inv.IssuedOn.Format(dateLayout)},
		{"Fecha de Vencimiento:", inv.DueOn.Format(dateLayout)},
		{"Estado:", inv.State.Label()},
	}, -1)
	pdf.Ln(6)

	heading(pdf, tr, "DATOS DEL CLIENTE")
	phone := doc.Customer.Phone
	if phone == "" {
		phone = "No registrado"
	}
	table(pdf, tr, [][2]string{
		{"Nombre:", doc.Customer.Name},
		{"Dirección:", doc.Customer.Address},
		{"Email:", doc.Customer.Email},
		{"Teléfono:", phone},
	}, -1)
	pdf.Ln(6)

	heading(pdf, tr, "DETALLES DE CONSUMO")
	consumption := "-"
	if doc.Reading.ConsumptionM3.Valid {
		consumption = doc.Reading.ConsumptionM3.Decimal.StringFixed(2) + " m³"
	}
	table(pdf, tr, [][2]string{
		{"Fecha de Medición:", doc.Reading.Date.Format(dateLayout)},
		{"Consumo (m³):", consumption},
		{"Tarifa por m³:", "$" + domain.UnitRate.String() + " CLP"},
		{"Monto Total:", FormatCLP(inv.Amount)},
	}, 3)
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, tr("Gracias por su preferencia"), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, tr(p.company+" - Sistema de Facturación"), "", 1, "L", false, 0, "")

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("layout invoice %s: %w", inv.Number, err)
	}
	return pdf.Output(w)
}

func heading(pdf *fpdf.Fpdf, tr func(string) string, text string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 9, tr(text), "", 1, "L", false, 0, "")
}

// table prints label/value rows; the row at index bold is emphasized.
func table(pdf *fpdf.Fpdf, tr func(string) string, rows [][2]string, bold int) {
	for i, row := range rows {
		size := 10.0
		style := ""
		if i == bold {
			size, style = 12, "B"
		}
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetFillColor(labelFill[0], labelFill[1], labelFill[2])
		pdf.CellFormat(labelWidth, rowHeight, tr(row[0]), "", 0, "L", true, 0, "")
		pdf.SetFont("Helvetica", style, size)
		pdf.SetFillColor(valueFill[0], valueFill[1], valueFill[2])
		pdf.CellFormat(valueWidth, rowHeight, tr(row[1]), "", 1, "L", true, 0, "")
	}
}
