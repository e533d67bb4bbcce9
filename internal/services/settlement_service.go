package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"transcoop/internal/amqp"
	"transcoop/internal/core"
	"transcoop/internal/storage"

	"github.com/shopspring/decimal"
)

// SettlementService computes and stores the monthly cash-flow settlement of
// each driver.
type SettlementService struct {
	store           *storage.Store
	events          EventPublisher
	defaultAdminFee decimal.Decimal
}

func NewSettlementService(store *storage.Store, events EventPublisher, defaultAdminFee decimal.Decimal) *SettlementService {
	return &SettlementService{
		store:           store,
		events:          events,
		defaultAdminFee: defaultAdminFee,
	}
}

// SettlementPeriod is the consolidated view of one month.
type SettlementPeriod struct {
	Period core.Period
	Rows   []core.Settlement
	Totals core.PeriodTotals
}

// Save derives the breakdown and upserts the row keyed by driver and period.
// Re-saving the same input is idempotent; an existing row keeps its id and
// check number.
func (s *SettlementService) Save(ctx context.Context, in core.SettlementInput) (core.Settlement, error) {
	p := core.Period{Month: in.Month, Year: in.Year}
	if err := p.Validate(); err != nil {
		return core.Settlement{}, err
	}
	b, err := core.CalculateSettlement(in, s.defaultAdminFee)
	if err != nil {
		return core.Settlement{}, err
	}

	var saved core.Settlement
	err = s.store.WithTx(ctx, func(q *storage.Queries) error {
		ok, err := q.DriverExists(ctx, in.DriverID)
		if err != nil {
			return err
		}
		if !ok {
			return core.NotFoundf("driver %d", in.DriverID)
		}

		row := core.Settlement{DriverID: &in.DriverID, Month: p.Month, Year: p.Year}
		b.Apply(&row)
		saved, err = q.UpsertSettlement(ctx, row)
		return err
	})
	if err != nil {
		return core.Settlement{}, fmt.Errorf("save settlement: %w", err)
	}

	slog.InfoContext(ctx, "Settlement saved",
		"settlement_id", saved.ID,
		"driver_id", in.DriverID,
		"month", p.Month,
		"year", p.Year,
		"net_payable", core.FormatMoney(saved.NetPayable))

	publish(ctx, s.events, amqp.EventSettlementSaved, func(ep EventPublisher) error {
		return ep.PublishSettlementSaved(ctx, amqp.SettlementSaved{
			SettlementID: saved.ID,
			DriverID:     in.DriverID,
			Month:        saved.Month,
			Year:         saved.Year,
		})
	})
	return saved, nil
}

func (s *SettlementService) ListByPeriod(ctx context.Context, p core.Period) (SettlementPeriod, error) {
	if err := p.Validate(); err != nil {
		return SettlementPeriod{}, err
	}
	rows, err := s.store.ListSettlements(ctx, p)
	if err != nil {
		return SettlementPeriod{Period: p}, err
	}
	return SettlementPeriod{Period: p, Rows: rows, Totals: core.SumSettlements(rows)}, nil
}

func (s *SettlementService) Get(ctx context.Context, driverID int64, p core.Period) (core.Settlement, error) {
	if err := p.Validate(); err != nil {
		return core.Settlement{}, err
	}
	return s.store.GetSettlementByKey(ctx, driverID, p)
}

func (s *SettlementService) GetByID(ctx context.Context, id int64) (core.Settlement, error) {
	return s.store.GetSettlement(ctx, id)
}

// LatestForDriver returns the driver's most recent settlement, if any.
func (s *SettlementService) LatestForDriver(ctx context.Context, driverID int64) (core.Settlement, bool, error) {
	return s.store.LatestSettlement(ctx, driverID)
}

// SetCheckNumber annotates the settlement as paid by check. An empty value
// clears the annotation.
func (s *SettlementService) SetCheckNumber(ctx context.Context, id int64, check string) error {
	check = strings.TrimSpace(check)
	if len(check) > 20 {
		return core.Validationf("check number too long (max 20 characters)")
	}
	if err := s.store.SetCheckNumber(ctx, id, check); err != nil {
		return fmt.Errorf("set check number: %w", err)
	}
	slog.InfoContext(ctx, "Check number recorded", "settlement_id", id, "check_number", check)
	return nil
}

// Payslip gathers what the individual pay statement shows. The pending loan
// balance is the driver's current active loan, if any.
func (s *SettlementService) Payslip(ctx context.Context, id int64) (core.Payslip, error) {
	var ps core.Payslip
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		st, err := q.GetSettlement(ctx, id)
		if err != nil {
			return err
		}
		ps.Settlement = st
		if st.DriverID == nil {
			ps.Driver = core.Driver{Name: st.DriverName}
			return nil
		}
		if ps.Driver, err = q.GetDriver(ctx, *st.DriverID); err != nil {
			return err
		}
		loan, found, err := q.ActiveLoan(ctx, *st.DriverID)
		if err != nil {
			return err
		}
		if found {
			ps.ActiveLoan = &loan
		}
		return nil
	})
	if err != nil {
		return core.Payslip{}, fmt.Errorf("load payslip: %w", err)
	}
	return ps, nil
}
