// Package report renders registry and settlement data as Excel workbooks,
// PDF statements and Google Sheets tabs.
package report

import (
	"strconv"

	"transcoop/internal/core"

	"github.com/shopspring/decimal"
)

// Column describes one exported column.
type Column struct {
	Header string
	Width  float64
	Money  bool
}

// Table is a sheet worth of data. Row cells are string, int, int64 or
// decimal.Decimal.
type Table struct {
	Sheet   string
	Columns []Column
	Rows    [][]any
}

var monthNames = [...]string{"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre"}

// MonthName returns the Spanish month name, or the number for out-of-range input.
func MonthName(m int) string {
	if m < 1 || m > 12 {
		return strconv.Itoa(m)
	}
	return monthNames[m-1]
}

func SettlementsTable(p core.Period, rows []core.Settlement) Table {
	t := Table{
		Sheet: "Flujo " + MonthName(p.Month) + " " + strconv.Itoa(p.Year),
		Columns: []Column{
			{Header: "CONDUCTOR", Width: 35},
			{Header: "INGRESOS ($)", Width: 20, Money: true},
			{Header: "CUOTA ADMIN ($)", Width: 15, Money: true},
			{Header: "RENTA 1% ($)", Width: 15, Money: true},
			{Header: "COM. CADE ($)", Width: 15, Money: true},
			{Header: "ANTICIPO ($)", Width: 15, Money: true},
			{Header: "PRÉSTAMO ($)", Width: 15, Money: true},
			{Header: "MI BUSETA ($)", Width: 15, Money: true},
			{Header: "COM. COMPAÑÍA ($)", Width: 15, Money: true},
			{Header: "TOTAL EGRESOS ($)", Width: 20, Money: true},
			{Header: "TOTAL RECIBIR ($)", Width: 20, Money: true},
			{Header: "CHEQUE", Width: 15},
		},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []any{
			s.DriverName, s.GrossCollections, s.AdminFee, s.Renta1Pct, s.DispatchCommission,
			s.PartnerAdvance, s.LoanPayment, s.AppFee, s.CompanyCommission,
			s.TotalDeductions, s.NetPayable, s.CheckNumber,
		})
	}
	return t
}

func LoansTable(rows []core.Loan) Table {
	t := Table{
		Sheet: "Créditos",
		Columns: []Column{
			{Header: "CONDUCTOR", Width: 35},
			{Header: "PRÉSTAMO INICIAL", Width: 25, Money: true},
			{Header: "SALDO PENDIENTE", Width: 25, Money: true},
			{Header: "FECHA REGISTRO", Width: 25},
			{Header: "ESTADO", Width: 15},
		},
	}
	for _, l := range rows {
		created := ""
		if !l.CreatedAt.IsZero() {
			created = l.CreatedAt.Format("02/01/2006")
		}
		t.Rows = append(t.Rows, []any{l.DriverName, l.Principal, l.Balance, created, string(l.Status)})
	}
	return t
}

func DriversTable(rows []core.Driver) Table {
	t := Table{
		Sheet: "Conductores",
		Columns: []Column{
			{Header: "DOCUMENTO", Width: 20},
			{Header: "NOMBRE COMPLETO", Width: 40},
			{Header: "TELÉFONO", Width: 20},
			{Header: "DIRECCIÓN", Width: 50},
			{Header: "LICENCIA", Width: 20},
		},
	}
	for _, d := range rows {
		t.Rows = append(t.Rows, []any{d.DocID, d.Name, d.Phone, d.Address, d.LicenseNumber})
	}
	return t
}

func VehiclesTable(rows []core.Vehicle) Table {
	t := Table{
		Sheet: "Vehículos",
		Columns: []Column{
			{Header: "NRO UNIDAD", Width: 15},
			{Header: "PLACA", Width: 20},
			{Header: "AÑO", Width: 15},
			{Header: "MARCA", Width: 25},
			{Header: "MODELO", Width: 25},
			{Header: "ESTADO", Width: 20},
		},
	}
	for _, v := range rows {
		t.Rows = append(t.Rows, []any{v.UnitNumber, v.Plate, v.Year, v.Brand, v.Model, v.Status})
	}
	return t
}

func RoutesTable(rows []core.Route) Table {
	t := Table{
		Sheet: "Rutas",
		Columns: []Column{
			{Header: "NOMBRE RUTA", Width: 30},
			{Header: "SECTOR", Width: 30},
			{Header: "INSTITUCIÓN", Width: 30},
			{Header: "ESTUDIANTES", Width: 15},
		},
	}
	for _, r := range rows {
		t.Rows = append(t.Rows, []any{r.Name, r.Sector, r.Institution, r.StudentCount})
	}
	return t
}

func StudentsTable(route core.Route, rows []core.Student) Table {
	t := Table{
		Sheet: "Estudiantes " + route.Name,
		Columns: []Column{
			{Header: "N° ESTUDIANTE", Width: 20},
			{Header: "NOMBRE ESTUDIANTE", Width: 40},
			{Header: "REPRESENTANTE", Width: 40},
			{Header: "CÉDULA", Width: 20},
			{Header: "CELULAR", Width: 20},
			{Header: "CORREO", Width: 30},
		},
	}
	for _, s := range rows {
		t.Rows = append(t.Rows, []any{s.StudentNumber, s.StudentName, s.GuardianName,
			s.GuardianID, s.GuardianPhone, s.GuardianEmail})
	}
	return t
}

// cellText renders a cell for text outputs. Money is fixed to two decimals.
func cellText(v any) string {
	switch x := v.(type) {
	case decimal.Decimal:
		return core.FormatMoney(x)
	case string:
		return x
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	default:
		return ""
	}
}
