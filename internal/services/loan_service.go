package services

import (
	"context"
	"fmt"
	"log/slog"

	"transcoop/internal/amqp"
	"transcoop/internal/core"
	"transcoop/internal/storage"

	"github.com/shopspring/decimal"
)

// LoanService manages driver loans. Status is always derived from balance.
type LoanService struct {
	store  *storage.Store
	events EventPublisher
}

func NewLoanService(store *storage.Store, events EventPublisher) *LoanService {
	return &LoanService{store: store, events: events}
}

func (s *LoanService) Create(ctx context.Context, driverID int64, principal decimal.Decimal) (core.Loan, error) {
	l, err := core.NewLoan(driverID, principal)
	if err != nil {
		return core.Loan{}, err
	}
	err = s.store.WithTx(ctx, func(q *storage.Queries) error {
		ok, err := q.DriverExists(ctx, driverID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundf("driver %d", driverID)
		}
		l, err = q.CreateLoan(ctx, l)
		return err
	})
	if err != nil {
		return core.Loan{}, fmt.Errorf("create loan: %w", err)
	}
	slog.InfoContext(ctx, "Loan created", "loan_id", l.ID, "driver_id", driverID, "amount", core.FormatMoney(principal))
	return l, nil
}

// ApplyPayment reduces the balance by amount, clamping at zero. The read and
// the write happen in the same transaction.
func (s *LoanService) ApplyPayment(ctx context.Context, loanID int64, amount decimal.Decimal) (core.Loan, error) {
	if !amount.IsPositive() {
		return core.Loan{}, core.Validationf("payment amount must be greater than zero")
	}

	var l core.Loan
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		var err error
		if l, err = q.GetLoan(ctx, loanID); err != nil {
			return err
		}
		if l.Balance, l.Status, err = core.ApplyPayment(l.Balance, amount); err != nil {
			return err
		}
		return q.SetLoanBalance(ctx, loanID, l.Balance)
	})
	if err != nil {
		return core.Loan{}, fmt.Errorf("apply payment: %w", err)
	}

	slog.InfoContext(ctx, "Loan payment applied",
		"loan_id", loanID,
		"amount", core.FormatMoney(amount),
		"balance", core.FormatMoney(l.Balance),
		"status", l.Status)

	publish(ctx, s.events, amqp.EventLoanPaymentApplied, func(ep EventPublisher) error {
		return ep.PublishLoanPaymentApplied(ctx, amqp.LoanPaymentApplied{
			LoanID:   l.ID,
			DriverID: l.DriverID,
			Balance:  core.FormatMoney(l.Balance),
			Status:   string(l.Status),
		})
	})
	return l, nil
}

// ActiveForDriver returns the most recently created ACTIVE loan, or nil.
func (s *LoanService) ActiveForDriver(ctx context.Context, driverID int64) (*core.Loan, error) {
	l, found, err := s.store.ActiveLoan(ctx, driverID)
	if err != nil || !found {
		return nil, err
	}
	return &l, nil
}

// Update is the administrative correction path. A balance raised above zero
// turns a PAID loan back to ACTIVE.
func (s *LoanService) Update(ctx context.Context, l core.Loan) (core.Loan, error) {
	if err := l.Validate(); err != nil {
		return core.Loan{}, err
	}
	l.Recompute()
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		current, err := q.GetLoan(ctx, l.ID)
		if err != nil {
			return err
		}
		if current.DriverID != l.DriverID {
			ok, err := q.DriverExists(ctx, l.DriverID)
			if err != nil {
				return err
			}
			if !ok {
				return core.NotFoundf("driver %d", l.DriverID)
			}
		}
		l.CreatedAt = current.CreatedAt
		return q.UpdateLoan(ctx, l)
	})
	if err != nil {
		return core.Loan{}, fmt.Errorf("update loan: %w", err)
	}
	slog.InfoContext(ctx, "Loan corrected", "loan_id", l.ID, "balance", core.FormatMoney(l.Balance), "status", l.Status)
	return l, nil
}

func (s *LoanService) Get(ctx context.Context, id int64) (core.Loan, error) {
	return s.store.GetLoan(ctx, id)
}

func (s *LoanService) List(ctx context.Context) ([]core.Loan, error) {
	return s.store.ListLoans(ctx)
}

func (s *LoanService) Delete(ctx context.Context, id int64) error {
	if err := s.store.DeleteLoan(ctx, id); err != nil {
		return fmt.Errorf("delete loan: %w", err)
	}
	slog.InfoContext(ctx, "Loan deleted", "loan_id", id)
	return nil
}
