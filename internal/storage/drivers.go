package storage

import (
	"context"
	"database/sql"

	"transcoop/internal/core"
)

const driverColumns = `id, doc_id, name, license_number, address, phone, rating, route_id`

func scanDriver(row interface{ Scan(...any) error }) (core.Driver, error) {
	var (
		d       core.Driver
		routeID sql.NullInt64
	)
	err := row.Scan(&d.ID, &d.DocID, &d.Name, &d.LicenseNumber, &d.Address, &d.Phone, &d.Rating, &routeID)
	d.RouteID = idPtr(routeID)
	return d, err
}

func (q *Queries) CreateDriver(ctx context.Context, d core.Driver) (core.Driver, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO drivers (doc_id, name, license_number, address, phone, rating, route_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		d.DocID, d.Name, d.LicenseNumber, d.Address, d.Phone, d.Rating, nullableID(d.RouteID))
	if err != nil {
		return d, mapErr("insert driver", err)
	}
	if d.ID, err = res.LastInsertId(); err != nil {
		return d, core.StorageErr("insert driver", err)
	}
	return d, nil
}

func (q *Queries) UpdateDriver(ctx context.Context, d core.Driver) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE drivers SET doc_id = ?, name = ?, license_number = ?, address = ?, phone = ?, rating = ?, route_id = ?
		 WHERE id = ?`,
		d.DocID, d.Name, d.LicenseNumber, d.Address, d.Phone, d.Rating, nullableID(d.RouteID), d.ID)
	if err != nil {
		return mapErr("update driver", err)
	}
	return affected("update driver", res)
}

func (q *Queries) GetDriver(ctx context.Context, id int64) (core.Driver, error) {
	d, err := scanDriver(q.db.QueryRowContext(ctx,
		`SELECT `+driverColumns+` FROM drivers WHERE id = ?`, id))
	if err != nil {
		return d, mapErr("get driver", err)
	}
	return d, nil
}

func (q *Queries) DriverExists(ctx context.Context, id int64) (bool, error) {
	n, err := q.count(ctx, "check driver", `SELECT COUNT(*) FROM drivers WHERE id = ?`, id)
	return n > 0, err
}

func (q *Queries) ListDrivers(ctx context.Context) ([]core.Driver, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+driverColumns+` FROM drivers ORDER BY name, id`)
	if err != nil {
		return nil, mapErr("list drivers", err)
	}
	defer rows.Close()

	var out []core.Driver
	for rows.Next() {
		d, err := scanDriver(rows)
		if err != nil {
			return nil, mapErr("scan driver", err)
		}
		out = append(out, d)
	}
	return out, mapErr("list drivers", rows.Err())
}

// DeleteDriver applies the driver deletion policy: blocked while the driver
// has loans, otherwise route and settlement references are cleared first.
// Call it inside a transaction.
func (q *Queries) DeleteDriver(ctx context.Context, id int64) error {
	if ok, err := q.DriverExists(ctx, id); err != nil {
		return err
	} else if !ok {
		return core.NotFoundf("driver %d", id)
	}

	loans, err := q.count(ctx, "count driver loans", `SELECT COUNT(*) FROM loans WHERE driver_id = ?`, id)
	if err != nil {
		return err
	}
	if loans > 0 {
		return core.Conflictf("driver %d has %d loan(s) on record", id, loans)
	}

	if _, err := q.db.ExecContext(ctx, `UPDATE routes SET driver_id = NULL WHERE driver_id = ?`, id); err != nil {
		return mapErr("detach driver from routes", err)
	}
	if _, err := q.db.ExecContext(ctx, `UPDATE settlements SET driver_id = NULL WHERE driver_id = ?`, id); err != nil {
		return mapErr("detach driver from settlements", err)
	}
	res, err := q.db.ExecContext(ctx, `DELETE FROM drivers WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete driver", err)
	}
	return affected("delete driver", res)
}
