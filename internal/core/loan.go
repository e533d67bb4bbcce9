package core

import "github.com/shopspring/decimal"

// StatusFor derives the loan status from its balance.
func StatusFor(balance decimal.Decimal) LoanStatus {
	if balance.IsPositive() {
		return LoanActive
	}
	return LoanPaid
}

// ApplyPayment subtracts amount from balance, clamping at zero.
// Overpayment is absorbed; the returned status always matches the balance.
func ApplyPayment(balance, amount decimal.Decimal) (decimal.Decimal, LoanStatus, error) {
	if !amount.IsPositive() {
		return balance, StatusFor(balance), Validationf("payment amount must be greater than zero")
	}
	next := balance.Sub(amount)
	if next.IsNegative() {
		next = decimal.Zero
	}
	return next, StatusFor(next), nil
}

// NewLoan builds an ACTIVE loan whose balance equals the principal.
func NewLoan(driverID int64, principal decimal.Decimal) (Loan, error) {
	l := Loan{DriverID: driverID, Principal: principal, Balance: principal}
	if err := l.Validate(); err != nil {
		return Loan{}, err
	}
	l.Status = StatusFor(l.Balance)
	return l, nil
}

// Recompute resets Status from Balance after an administrative edit.
func (l *Loan) Recompute() {
	l.Status = StatusFor(l.Balance)
}
