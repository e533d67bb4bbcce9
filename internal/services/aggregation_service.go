package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"transcoop/internal/core"
	"transcoop/internal/storage"

	"github.com/shopspring/decimal"
)

// AggregationService answers period totals and keeps the monthly
// administrative expense record.
type AggregationService struct {
	store *storage.Store
}

func NewAggregationService(store *storage.Store) *AggregationService {
	return &AggregationService{store: store}
}

// TotalAdministrativeFees sums admin_fee over the period's settlements. A
// period with no settlements, including one that cannot hold any, sums to zero.
func (s *AggregationService) TotalAdministrativeFees(ctx context.Context, p core.Period) (decimal.Decimal, error) {
	return s.store.SumAdminFees(ctx, p)
}

// DisposableBalance is total fees minus the period's recorded expenses. A
// missing expense record counts as zero expenses. The result may be negative.
func (s *AggregationService) DisposableBalance(ctx context.Context, p core.Period) (decimal.Decimal, error) {
	r, err := s.AdminExpenseReport(ctx, p)
	if err != nil {
		return decimal.Zero, err
	}
	return r.DisposableBalance, nil
}

// SaveAdminExpense recomputes total fees from settlements and upserts the
// record for the period.
func (s *AggregationService) SaveAdminExpense(ctx context.Context, e core.AdminExpense) (core.AdminExpense, error) {
	e.MiscDescription = strings.TrimSpace(e.MiscDescription)
	e.CheckNumber = strings.TrimSpace(e.CheckNumber)
	if err := e.Validate(); err != nil {
		return core.AdminExpense{}, err
	}
	p := core.Period{Month: e.Month, Year: e.Year}

	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		fees, err := q.SumAdminFees(ctx, p)
		if err != nil {
			return err
		}
		e.TotalFeesCollected = fees
		e, err = q.UpsertAdminExpense(ctx, e)
		return err
	})
	if err != nil {
		return core.AdminExpense{}, fmt.Errorf("save admin expense: %w", err)
	}

	slog.InfoContext(ctx, "Admin expense saved",
		"month", e.Month,
		"year", e.Year,
		"total_fees", core.FormatMoney(e.TotalFeesCollected),
		"total_expenses", core.FormatMoney(e.TotalExpenses()))
	return e, nil
}

// AdminExpenseReport returns the period's record with fees recomputed from
// the current settlements.
func (s *AggregationService) AdminExpenseReport(ctx context.Context, p core.Period) (core.AdminExpenseReport, error) {
	var r core.AdminExpenseReport
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		fees, err := q.SumAdminFees(ctx, p)
		if err != nil {
			return err
		}
		e, _, err := q.GetAdminExpense(ctx, p)
		if err != nil {
			return err
		}
		e.TotalFeesCollected = fees
		r = buildReport(e)
		return nil
	})
	if err != nil {
		return core.AdminExpenseReport{}, fmt.Errorf("admin expense report: %w", err)
	}
	return r, nil
}

func buildReport(e core.AdminExpense) core.AdminExpenseReport {
	expenses := e.TotalExpenses()
	return core.AdminExpenseReport{
		Expense:           e,
		TotalFees:         e.TotalFeesCollected,
		TotalExpenses:     expenses,
		DisposableBalance: e.TotalFeesCollected.Sub(expenses),
	}
}

// ListAdminExpenses returns every stored record, newest period first, with
// fees recomputed from settlements.
func (s *AggregationService) ListAdminExpenses(ctx context.Context) ([]core.AdminExpense, error) {
	var out []core.AdminExpense
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		list, err := q.ListAdminExpenses(ctx)
		if err != nil {
			return err
		}
		for i := range list {
			fees, err := q.SumAdminFees(ctx, core.Period{Month: list[i].Month, Year: list[i].Year})
			if err != nil {
				return err
			}
			list[i].TotalFeesCollected = fees
		}
		out = list
		return nil
	})
	return out, err
}

// Dashboard counts the main registries.
func (s *AggregationService) Dashboard(ctx context.Context) (core.DashboardStats, error) {
	return s.store.Counts(ctx)
}
