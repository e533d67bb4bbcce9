package storage

import (
	"context"
	"database/sql"
	"errors"

	"transcoop/internal/core"

	"github.com/shopspring/decimal"
)

const settlementSelect = `SELECT s.id, s.driver_id, s.month, s.year, s.gross_collections, s.admin_fee, s.renta_1pct,
	s.dispatch_commission, s.partner_advance, s.loan_payment, s.app_fee, s.company_commission,
	s.total_deductions, s.net_payable, s.check_number, s.updated_at, COALESCE(d.name, '')
	FROM settlements s
	LEFT JOIN drivers d ON d.id = s.driver_id`

func scanSettlement(row interface{ Scan(...any) error }) (core.Settlement, error) {
	var (
		s        core.Settlement
		driverID sql.NullInt64
		updated  string
	)
	err := row.Scan(&s.ID, &driverID, &s.Month, &s.Year, &s.GrossCollections, &s.AdminFee, &s.Renta1Pct,
		&s.DispatchCommission, &s.PartnerAdvance, &s.LoanPayment, &s.AppFee, &s.CompanyCommission,
		&s.TotalDeductions, &s.NetPayable, &s.CheckNumber, &updated, &s.DriverName)
	s.DriverID = idPtr(driverID)
	s.UpdatedAt = parseTime(updated)
	return s, err
}

// UpsertSettlement inserts or replaces the row for (driver, month, year).
// An existing row keeps its id and check number.
func (q *Queries) UpsertSettlement(ctx context.Context, s core.Settlement) (core.Settlement, error) {
	s.UpdatedAt = parseTime(q.stamp())
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO settlements (driver_id, month, year, gross_collections, admin_fee, renta_1pct,
			dispatch_commission, partner_advance, loan_payment, app_fee, company_commission,
			total_deductions, net_payable, check_number, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, '', ?)
		 ON CONFLICT (driver_id, month, year) DO UPDATE SET
			gross_collections = excluded.gross_collections,
			admin_fee = excluded.admin_fee,
			renta_1pct = excluded.renta_1pct,
			dispatch_commission = excluded.dispatch_commission,
			partner_advance = excluded.partner_advance,
			loan_payment = excluded.loan_payment,
			app_fee = excluded.app_fee,
			company_commission = excluded.company_commission,
			total_deductions = excluded.total_deductions,
			net_payable = excluded.net_payable,
			updated_at = excluded.updated_at
		 RETURNING id, check_number`,
		nullableID(s.DriverID), s.Month, s.Year, s.GrossCollections, s.AdminFee, s.Renta1Pct,
		s.DispatchCommission, s.PartnerAdvance, s.LoanPayment, s.AppFee, s.CompanyCommission,
		s.TotalDeductions, s.NetPayable, s.UpdatedAt.Format(timeLayout),
	).Scan(&s.ID, &s.CheckNumber)
	if err != nil {
		return s, mapErr("upsert settlement", err)
	}
	return s, nil
}

func (q *Queries) GetSettlement(ctx context.Context, id int64) (core.Settlement, error) {
	s, err := scanSettlement(q.db.QueryRowContext(ctx, settlementSelect+` WHERE s.id = ?`, id))
	if err != nil {
		return s, mapErr("get settlement", err)
	}
	return s, nil
}

func (q *Queries) GetSettlementByKey(ctx context.Context, driverID int64, p core.Period) (core.Settlement, error) {
	s, err := scanSettlement(q.db.QueryRowContext(ctx,
		settlementSelect+` WHERE s.driver_id = ? AND s.month = ? AND s.year = ?`, driverID, p.Month, p.Year))
	if err != nil {
		return s, mapErr("get settlement", err)
	}
	return s, nil
}

func (q *Queries) ListSettlements(ctx context.Context, p core.Period) ([]core.Settlement, error) {
	rows, err := q.db.QueryContext(ctx,
		settlementSelect+` WHERE s.month = ? AND s.year = ? ORDER BY COALESCE(d.name, ''), s.id`, p.Month, p.Year)
	if err != nil {
		return nil, mapErr("list settlements", err)
	}
	defer rows.Close()

	var out []core.Settlement
	for rows.Next() {
		s, err := scanSettlement(rows)
		if err != nil {
			return nil, mapErr("scan settlement", err)
		}
		out = append(out, s)
	}
	return out, mapErr("list settlements", rows.Err())
}

func (q *Queries) SetCheckNumber(ctx context.Context, id int64, check string) error {
	res, err := q.db.ExecContext(ctx, `UPDATE settlements SET check_number = ? WHERE id = ?`, check, id)
	if err != nil {
		return mapErr("set check number", err)
	}
	return affected("set check number", res)
}

// SumAdminFees adds up admin_fee over the period's settlements. Amounts are
// stored as text, so the sum is done with decimals rather than SQL SUM.
func (q *Queries) SumAdminFees(ctx context.Context, p core.Period) (decimal.Decimal, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT admin_fee FROM settlements WHERE month = ? AND year = ?`, p.Month, p.Year)
	if err != nil {
		return decimal.Zero, mapErr("sum admin fees", err)
	}
	defer rows.Close()

	total := decimal.Zero
	for rows.Next() {
		var fee decimal.Decimal
		if err := rows.Scan(&fee); err != nil {
			return decimal.Zero, mapErr("scan admin fee", err)
		}
		total = total.Add(fee)
	}
	return total, mapErr("sum admin fees", rows.Err())
}

// LatestSettlement returns the driver's most recent period, if any.
func (q *Queries) LatestSettlement(ctx context.Context, driverID int64) (core.Settlement, bool, error) {
	s, err := scanSettlement(q.db.QueryRowContext(ctx,
		settlementSelect+` WHERE s.driver_id = ? ORDER BY s.year DESC, s.month DESC LIMIT 1`, driverID))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settlement{}, false, nil
	}
	if err != nil {
		return s, false, mapErr("latest settlement", err)
	}
	return s, true, nil
}
