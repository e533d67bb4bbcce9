package report

import (
	"fmt"
	"io"
	"time"

	"transcoop/internal/core"

	"github.com/go-pdf/fpdf"
	"github.com/shopspring/decimal"
)

const (
	pageCenterW = 170.0
	marginX     = 20.0
	conceptW    = 125.0
	valueW      = 45.0
	rowH        = 8.0
)

type rgb struct{ r, g, b int }

var (
	headDark  = rgb{15, 23, 42}
	stripe    = rgb{245, 245, 245}
	totalGray = rgb{240, 240, 240}
	paidGreen = rgb{220, 255, 220}
	loanTone  = rgb{200, 100, 0}
	costRed   = rgb{255, 220, 220}
	costLight = rgb{255, 240, 240}
	checkBlue = rgb{220, 240, 255}
)

// PDF renders the printable statements. Company heads every page.
type PDF struct {
	Company string
	Now     func() time.Time
}

func (p PDF) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

type conceptRow struct {
	label string
	value string
	bold  bool
	fill  *rgb
	text  *rgb
}

type doc struct {
	*fpdf.Fpdf
	tr func(string) string
}

func newDoc() doc {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginX, 15, marginX)
	pdf.AddPage()
	// Core fonts are cp1252; the translator keeps accents and Ñ intact.
	return doc{Fpdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d doc) centered(y float64, size float64, style, text string) {
	d.SetFont("Helvetica", style, size)
	d.SetXY(marginX, y)
	d.CellFormat(pageCenterW, 6, d.tr(text), "", 0, "C", false, 0, "")
}

func (d doc) conceptTable(y float64, rows []conceptRow) float64 {
	d.SetXY(marginX, y)
	d.SetFont("Helvetica", "B", 10)
	d.SetFillColor(headDark.r, headDark.g, headDark.b)
	d.SetTextColor(255, 255, 255)
	d.CellFormat(conceptW, rowH, "CONCEPTO", "1", 0, "L", true, 0, "")
	d.CellFormat(valueW, rowH, "VALOR ($)", "1", 1, "R", true, 0, "")

	for i, r := range rows {
		style := ""
		if r.bold {
			style = "B"
		}
		d.SetFont("Helvetica", style, 10)
		fill := r.fill
		if fill == nil && i%2 == 1 {
			fill = &stripe
		}
		if fill != nil {
			d.SetFillColor(fill.r, fill.g, fill.b)
		}
		if r.text != nil {
			d.SetTextColor(r.text.r, r.text.g, r.text.b)
		} else {
			d.SetTextColor(0, 0, 0)
		}
		d.SetX(marginX)
		d.CellFormat(conceptW, rowH, d.tr(r.label), "1", 0, "L", fill != nil, 0, "")
		d.CellFormat(valueW, rowH, r.value, "1", 1, "R", fill != nil, 0, "")
	}
	d.SetTextColor(0, 0, 0)
	return d.GetY()
}

func (d doc) signatures(y float64, left, right string) {
	d.SetFont("Helvetica", "", 10)
	d.Line(30, y, 80, y)
	d.Line(130, y, 180, y)
	d.SetXY(30, y+2)
	d.CellFormat(50, 5, d.tr(left), "", 0, "C", false, 0, "")
	d.SetXY(130, y+2)
	d.CellFormat(50, 5, d.tr(right), "", 0, "C", false, 0, "")
}

func (d doc) write(w io.Writer) error {
	if err := d.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func money(v decimal.Decimal) string { return core.FormatMoney(v) }

// Payslip writes the individual pay statement of one settlement.
func (p PDF) Payslip(w io.Writer, ps core.Payslip) error {
	s := ps.Settlement
	d := newDoc()

	d.centered(15, 18, "B", p.Company)
	d.centered(24, 12, "", "ROL DE PAGOS INDIVIDUAL")
	d.centered(30, 12, "", fmt.Sprintf("Periodo: %s %d", MonthName(s.Month), s.Year))
	d.Line(marginX, 40, marginX+pageCenterW, 40)

	name := ps.Driver.Name
	if name == "" {
		name = s.DriverName
	}
	d.SetFont("Helvetica", "", 11)
	d.SetXY(marginX, 46)
	d.CellFormat(110, 6, d.tr("CONDUCTOR: "+name), "", 0, "L", false, 0, "")
	d.CellFormat(60, 6, d.tr("FECHA DE EMISIÓN: "+p.now().Format("02/01/2006")), "", 1, "R", false, 0, "")

	rows := []conceptRow{
		{label: "(+) TOTAL INGRESOS (Cobrado Estudiantes)", value: money(s.GrossCollections)},
		{label: "(-) Cuota Administrativa", value: money(s.AdminFee)},
		{label: "(-) Renta 1%", value: money(s.Renta1Pct)},
		{label: "(-) Comisión CADE", value: money(s.DispatchCommission)},
		{label: "(-) Anticipo a Socio", value: money(s.PartnerAdvance)},
		{label: "(-) Abono Préstamo", value: money(s.LoanPayment)},
		{label: `(-) Aplicativo "Mi Buseta"`, value: money(s.AppFee)},
		{label: "(-) Comisión Compañía", value: money(s.CompanyCommission)},
		{label: "TOTAL EGRESOS", value: money(s.TotalDeductions), bold: true},
		{label: "TOTAL A RECIBIR", value: money(s.NetPayable), bold: true, fill: &totalGray},
	}
	if ps.ActiveLoan != nil {
		rows = append(rows, conceptRow{label: "SALDO PRÉSTAMO PENDIENTE",
			value: money(ps.ActiveLoan.Balance), bold: true, text: &loanTone})
	}
	if s.CheckNumber != "" {
		rows = append(rows, conceptRow{label: "PAGADO CON CHEQUE Nro. " + s.CheckNumber,
			value: "OK", bold: true, fill: &paidGreen})
	}

	end := d.conceptTable(56, rows)
	d.signatures(end+30, "FIRMA CONDUCTOR", "FIRMA RESPONSABLE")
	return d.write(w)
}

// AdminExpense writes the monthly administrative expense statement.
func (p PDF) AdminExpense(w io.Writer, r core.AdminExpenseReport) error {
	e := r.Expense
	d := newDoc()

	d.centered(15, 18, "B", p.Company)
	d.centered(26, 14, "", "INFORME DE GASTOS ADMINISTRATIVOS")
	d.centered(33, 11, "", fmt.Sprintf("Periodo: %s %d", MonthName(e.Month), e.Year))
	d.Line(marginX, 42, marginX+pageCenterW, 42)

	d.SetFont("Helvetica", "", 10)
	d.SetXY(marginX, 48)
	d.CellFormat(110, 6, d.tr("FECHA DE EMISIÓN: "+p.now().Format("02/01/2006")), "", 0, "L", false, 0, "")
	if e.CheckNumber != "" {
		d.CellFormat(60, 6, "CHEQUE Nro: "+e.CheckNumber, "", 1, "R", false, 0, "")
	}

	rows := []conceptRow{
		{label: "Ingreso por Cuotas Administrativas", value: money(r.TotalFees)},
		{label: "EGRESOS / GASTOS", bold: true, fill: &costLight},
		{label: "(-) Compra de Insumos de Oficina", value: money(e.OfficeSupplies)},
	}
	if e.MiscAmount.IsPositive() {
		label := "(-) Varios"
		if e.MiscDescription != "" {
			label += " (" + e.MiscDescription + ")"
		}
		rows = append(rows, conceptRow{label: label, value: money(e.MiscAmount)})
	}
	rows = append(rows,
		conceptRow{label: "TOTAL GASTOS", value: money(r.TotalExpenses), bold: true, fill: &costRed},
		conceptRow{label: "SALDO DISPONIBLE", value: money(r.DisposableBalance), bold: true, fill: &paidGreen},
	)
	if e.CheckNumber != "" {
		rows = append(rows, conceptRow{label: "PAGADO CON CHEQUE Nro. " + e.CheckNumber,
			value: "OK", bold: true, fill: &checkBlue})
	}

	end := d.conceptTable(58, rows)
	d.signatures(end+30, "ELABORADO POR", "APROBADO POR")
	return d.write(w)
}
