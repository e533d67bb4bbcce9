package storage

import (
	"context"

	"transcoop/internal/core"

	"github.com/shopspring/decimal"
)

const loanSelect = `SELECT l.id, l.driver_id, l.principal, l.balance, l.status, l.created_at, COALESCE(d.name, '')
	FROM loans l
	LEFT JOIN drivers d ON d.id = l.driver_id`

func scanLoan(row interface{ Scan(...any) error }) (core.Loan, error) {
	var (
		l       core.Loan
		status  string
		created string
	)
	err := row.Scan(&l.ID, &l.DriverID, &l.Principal, &l.Balance, &status, &created, &l.DriverName)
	l.Status = core.LoanStatus(status)
	l.CreatedAt = parseTime(created)
	return l, err
}

// CreateLoan inserts l with its status derived from the balance.
func (q *Queries) CreateLoan(ctx context.Context, l core.Loan) (core.Loan, error) {
	l.Recompute()
	created := q.stamp()
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO loans (driver_id, principal, balance, status, created_at) VALUES (?, ?, ?, ?, ?)`,
		l.DriverID, l.Principal, l.Balance, string(l.Status), created)
	if err != nil {
		return l, mapErr("insert loan", err)
	}
	if l.ID, err = res.LastInsertId(); err != nil {
		return l, core.StorageErr("insert loan", err)
	}
	l.CreatedAt = parseTime(created)
	return l, nil
}

func (q *Queries) GetLoan(ctx context.Context, id int64) (core.Loan, error) {
	l, err := scanLoan(q.db.QueryRowContext(ctx, loanSelect+` WHERE l.id = ?`, id))
	if err != nil {
		return l, mapErr("get loan", err)
	}
	return l, nil
}

// SetLoanBalance writes balance and the matching status in one statement.
func (q *Queries) SetLoanBalance(ctx context.Context, id int64, balance decimal.Decimal) error {
	res, err := q.db.ExecContext(ctx, `UPDATE loans SET balance = ?, status = ? WHERE id = ?`,
		balance, string(core.StatusFor(balance)), id)
	if err != nil {
		return mapErr("update loan balance", err)
	}
	return affected("update loan balance", res)
}

// UpdateLoan is the administrative correction path; status follows balance.
func (q *Queries) UpdateLoan(ctx context.Context, l core.Loan) error {
	l.Recompute()
	res, err := q.db.ExecContext(ctx,
		`UPDATE loans SET driver_id = ?, principal = ?, balance = ?, status = ? WHERE id = ?`,
		l.DriverID, l.Principal, l.Balance, string(l.Status), l.ID)
	if err != nil {
		return mapErr("update loan", err)
	}
	return affected("update loan", res)
}

// ActiveLoan returns the most recently created ACTIVE loan of the driver.
// found is false when the driver has none.
func (q *Queries) ActiveLoan(ctx context.Context, driverID int64) (l core.Loan, found bool, err error) {
	l, err = scanLoan(q.db.QueryRowContext(ctx,
		loanSelect+` WHERE l.driver_id = ? AND l.status = 'ACTIVE' ORDER BY l.created_at DESC, l.id DESC LIMIT 1`,
		driverID))
	if err != nil {
		err = mapErr("get active loan", err)
		if core.KindOf(err) == core.KindNotFound {
			return core.Loan{}, false, nil
		}
		return core.Loan{}, false, err
	}
	return l, true, nil
}

func (q *Queries) ListLoans(ctx context.Context) ([]core.Loan, error) {
	rows, err := q.db.QueryContext(ctx, loanSelect+` ORDER BY l.created_at DESC, l.id DESC`)
	if err != nil {
		return nil, mapErr("list loans", err)
	}
	defer rows.Close()

	var out []core.Loan
	for rows.Next() {
		l, err := scanLoan(rows)
		if err != nil {
			return nil, mapErr("scan loan", err)
		}
		out = append(out, l)
	}
	return out, mapErr("list loans", rows.Err())
}

func (q *Queries) DeleteLoan(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM loans WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete loan", err)
	}
	return affected("delete loan", res)
}
