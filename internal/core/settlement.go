package core

import "github.com/shopspring/decimal"

// DefaultAdminFee is the fixed monthly administrative fee when none is configured.
var DefaultAdminFee = decimal.NewFromInt(25)

// SettlementInput is what the operator enters for one driver and month.
// A nil AdminFee means "use the configured default"; nil deductions are zero.
type SettlementInput struct {
	DriverID           int64
	Month              int
	Year               int
	GrossCollections   decimal.Decimal
	AdminFee           *decimal.Decimal
	DispatchCommission *decimal.Decimal
	PartnerAdvance     *decimal.Decimal
	LoanPayment        *decimal.Decimal
	AppFee             *decimal.Decimal
	CompanyCommission  *decimal.Decimal
}

// SettlementBreakdown holds the resolved inputs and the derived fields.
type SettlementBreakdown struct {
	GrossCollections   decimal.Decimal
	AdminFee           decimal.Decimal
	Renta1Pct          decimal.Decimal
	DispatchCommission decimal.Decimal
	PartnerAdvance     decimal.Decimal
	LoanPayment        decimal.Decimal
	AppFee             decimal.Decimal
	CompanyCommission  decimal.Decimal
	TotalDeductions    decimal.Decimal
	NetPayable         decimal.Decimal
}

func orDefault(p *decimal.Decimal, def decimal.Decimal) decimal.Decimal {
	if p == nil {
		return def
	}
	return *p
}

// CalculateSettlement derives renta 1%, total deductions and net payable.
// It is a pure function of its inputs; arithmetic is exact, so
// TotalDeductions == AdminFee + Renta1Pct + the five deductions and
// NetPayable == GrossCollections - TotalDeductions hold without tolerance.
// Net payable may be negative.
func CalculateSettlement(in SettlementInput, defaultAdminFee decimal.Decimal) (SettlementBreakdown, error) {
	b := SettlementBreakdown{
		GrossCollections:   in.GrossCollections,
		AdminFee:           orDefault(in.AdminFee, defaultAdminFee),
		DispatchCommission: orDefault(in.DispatchCommission, decimal.Zero),
		PartnerAdvance:     orDefault(in.PartnerAdvance, decimal.Zero),
		LoanPayment:        orDefault(in.LoanPayment, decimal.Zero),
		AppFee:             orDefault(in.AppFee, decimal.Zero),
		CompanyCommission:  orDefault(in.CompanyCommission, decimal.Zero),
	}

	checks := []struct {
		name string
		v    decimal.Decimal
	}{
		{"gross collections", b.GrossCollections},
		{"admin fee", b.AdminFee},
		{"dispatch commission", b.DispatchCommission},
		{"partner advance", b.PartnerAdvance},
		{"loan payment", b.LoanPayment},
		{"app fee", b.AppFee},
		{"company commission", b.CompanyCommission},
	}
	for _, c := range checks {
		if err := requireNonNegative(c.name, c.v); err != nil {
			return SettlementBreakdown{}, err
		}
	}

	b.Renta1Pct = b.GrossCollections.Mul(onePercent)
	b.TotalDeductions = decimal.Sum(b.AdminFee, b.Renta1Pct,
		b.DispatchCommission, b.PartnerAdvance, b.LoanPayment, b.AppFee, b.CompanyCommission)
	b.NetPayable = b.GrossCollections.Sub(b.TotalDeductions)
	return b, nil
}

// Apply copies the breakdown onto s, leaving identity and check number alone.
func (b SettlementBreakdown) Apply(s *Settlement) {
	s.GrossCollections = b.GrossCollections
	s.AdminFee = b.AdminFee
	s.Renta1Pct = b.Renta1Pct
	s.DispatchCommission = b.DispatchCommission
	s.PartnerAdvance = b.PartnerAdvance
	s.LoanPayment = b.LoanPayment
	s.AppFee = b.AppFee
	s.CompanyCommission = b.CompanyCommission
	s.TotalDeductions = b.TotalDeductions
	s.NetPayable = b.NetPayable
}

// PeriodTotals sums a list of settlements for the consolidated view.
type PeriodTotals struct {
	GrossCollections decimal.Decimal
	TotalDeductions  decimal.Decimal
	NetPayable       decimal.Decimal
	AdminFees        decimal.Decimal
}

func SumSettlements(list []Settlement) PeriodTotals {
	var t PeriodTotals
	for _, s := range list {
		t.GrossCollections = t.GrossCollections.Add(s.GrossCollections)
		t.TotalDeductions = t.TotalDeductions.Add(s.TotalDeductions)
		t.NetPayable = t.NetPayable.Add(s.NetPayable)
		t.AdminFees = t.AdminFees.Add(s.AdminFee)
	}
	return t
}

// Payslip is the data behind the individual pay statement.
type Payslip struct {
	Settlement Settlement
	Driver     Driver
	ActiveLoan *Loan
}

// AdminExpenseReport is the data behind the administrative expense statement.
type AdminExpenseReport struct {
	Expense           AdminExpense
	TotalFees         decimal.Decimal
	TotalExpenses     decimal.Decimal
	DisposableBalance decimal.Decimal
}

// DashboardStats counts the main registries.
type DashboardStats struct {
	Vehicles int
	Drivers  int
	Routes   int
	Students int
	Loans    int
}
