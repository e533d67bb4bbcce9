package storage

import (
	"context"

	"transcoop/internal/core"
)

const adminExpenseColumns = `id, month, year, total_fees_collected, office_supplies, misc_amount,
	misc_description, check_number, created_at`

func scanAdminExpense(row interface{ Scan(...any) error }) (core.AdminExpense, error) {
	var (
		e       core.AdminExpense
		created string
	)
	err := row.Scan(&e.ID, &e.Month, &e.Year, &e.TotalFeesCollected, &e.OfficeSupplies, &e.MiscAmount,
		&e.MiscDescription, &e.CheckNumber, &created)
	e.CreatedAt = parseTime(created)
	return e, err
}

// UpsertAdminExpense inserts or replaces the record for e's period.
func (q *Queries) UpsertAdminExpense(ctx context.Context, e core.AdminExpense) (core.AdminExpense, error) {
	var created string
	err := q.db.QueryRowContext(ctx,
		`INSERT INTO admin_expenses (month, year, total_fees_collected, office_supplies, misc_amount,
			misc_description, check_number, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (month, year) DO UPDATE SET
			total_fees_collected = excluded.total_fees_collected,
			office_supplies = excluded.office_supplies,
			misc_amount = excluded.misc_amount,
			misc_description = excluded.misc_description,
			check_number = excluded.check_number
		 RETURNING id, created_at`,
		e.Month, e.Year, e.TotalFeesCollected, e.OfficeSupplies, e.MiscAmount,
		e.MiscDescription, e.CheckNumber, q.stamp(),
	).Scan(&e.ID, &created)
	if err != nil {
		return e, mapErr("upsert admin expense", err)
	}
	e.CreatedAt = parseTime(created)
	return e, nil
}

// GetAdminExpense returns the period's record; found is false when none exists.
func (q *Queries) GetAdminExpense(ctx context.Context, p core.Period) (e core.AdminExpense, found bool, err error) {
	e, err = scanAdminExpense(q.db.QueryRowContext(ctx,
		`SELECT `+adminExpenseColumns+` FROM admin_expenses WHERE month = ? AND year = ?`, p.Month, p.Year))
	if err != nil {
		err = mapErr("get admin expense", err)
		if core.KindOf(err) == core.KindNotFound {
			return core.AdminExpense{Month: p.Month, Year: p.Year}, false, nil
		}
		return core.AdminExpense{}, false, err
	}
	return e, true, nil
}

func (q *Queries) ListAdminExpenses(ctx context.Context) ([]core.AdminExpense, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+adminExpenseColumns+` FROM admin_expenses ORDER BY year DESC, month DESC`)
	if err != nil {
		return nil, mapErr("list admin expenses", err)
	}
	defer rows.Close()

	var out []core.AdminExpense
	for rows.Next() {
		e, err := scanAdminExpense(rows)
		if err != nil {
			return nil, mapErr("scan admin expense", err)
		}
		out = append(out, e)
	}
	return out, mapErr("list admin expenses", rows.Err())
}
