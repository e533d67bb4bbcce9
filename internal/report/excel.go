package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	headerFill = "2563EB"
	altRowFill = "F8FAFC"
	borderGray = "E2E8F0"
	moneyFmt   = 4 // #,##0.00
	maxSheet   = 31
)

// ExcelExporter writes a Table as a single-sheet xlsx workbook.
type ExcelExporter struct{}

func thinBorders() []excelize.Border {
	var out []excelize.Border
	for _, side := range []string{"left", "top", "right", "bottom"} {
		out = append(out, excelize.Border{Type: side, Color: borderGray, Style: 1})
	}
	return out
}

type rowStyles struct {
	header, text, money, altText, altMoney int
}

func newRowStyles(f *excelize.File) (rowStyles, error) {
	var (
		s   rowStyles
		err error
	)
	middle := &excelize.Alignment{Vertical: "center"}
	alt := excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{altRowFill}}

	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF", Size: 12},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	}); err != nil {
		return s, err
	}
	if s.text, err = f.NewStyle(&excelize.Style{Alignment: middle, Border: thinBorders()}); err != nil {
		return s, err
	}
	if s.money, err = f.NewStyle(&excelize.Style{Alignment: middle, Border: thinBorders(), NumFmt: moneyFmt}); err != nil {
		return s, err
	}
	if s.altText, err = f.NewStyle(&excelize.Style{Alignment: middle, Border: thinBorders(), Fill: alt}); err != nil {
		return s, err
	}
	s.altMoney, err = f.NewStyle(&excelize.Style{Alignment: middle, Border: thinBorders(), Fill: alt, NumFmt: moneyFmt})
	return s, err
}

// sheetName trims to Excel's limit and drops characters it rejects.
func sheetName(name string) string {
	name = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return -1
		}
		return r
	}, strings.TrimSpace(name))
	if name == "" {
		return "Sheet1"
	}
	if r := []rune(name); len(r) > maxSheet {
		name = string(r[:maxSheet])
	}
	return name
}

func (ExcelExporter) Export(w io.Writer, t Table) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(t.Sheet)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}
	styles, err := newRowStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	for i, c := range t.Columns {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return err
		}
		if err := f.SetColWidth(sheet, col, col, c.Width); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, col+"1", c.Header); err != nil {
			return err
		}
	}
	if len(t.Columns) > 0 {
		last, _ := excelize.ColumnNumberToName(len(t.Columns))
		if err := f.SetCellStyle(sheet, "A1", last+"1", styles.header); err != nil {
			return err
		}
		if err := f.SetRowHeight(sheet, 1, 25); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		rowNum := r + 2
		even := rowNum%2 == 0
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, rowNum)
			if err != nil {
				return err
			}
			money := c < len(t.Columns) && t.Columns[c].Money
			if err := f.SetCellValue(sheet, cell, cellValue(v)); err != nil {
				return err
			}
			style := styles.text
			switch {
			case money && even:
				style = styles.altMoney
			case money:
				style = styles.money
			case even:
				style = styles.altText
			}
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				return err
			}
		}
		if err := f.SetRowHeight(sheet, rowNum, 20); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// cellValue turns decimals into numbers rounded to cents so the sheet can sum them.
func cellValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok {
		return d.Round(2).InexactFloat64()
	}
	return v
}
