package storage

import (
	"context"
	"database/sql"

	"transcoop/internal/core"
)

const routeSelect = `SELECT r.id, r.name, r.sector, r.institution, r.student_count, r.driver_id, r.vehicle_id,
	COALESCE(d.name, ''), COALESCE(v.plate, '')
	FROM routes r
	LEFT JOIN drivers d ON d.id = r.driver_id
	LEFT JOIN vehicles v ON v.id = r.vehicle_id`

func scanRoute(row interface{ Scan(...any) error }) (core.Route, error) {
	var (
		r                   core.Route
		driverID, vehicleID sql.NullInt64
	)
	err := row.Scan(&r.ID, &r.Name, &r.Sector, &r.Institution, &r.StudentCount,
		&driverID, &vehicleID, &r.DriverName, &r.VehiclePlate)
	r.DriverID = idPtr(driverID)
	r.VehicleID = idPtr(vehicleID)
	return r, err
}

// CreateRoute inserts a route. student_count starts at zero and is owned by
// RecountStudents.
func (q *Queries) CreateRoute(ctx context.Context, r core.Route) (core.Route, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO routes (name, sector, institution, student_count, driver_id, vehicle_id)
		 VALUES (?, ?, ?, 0, ?, ?)`,
		r.Name, r.Sector, r.Institution, nullableID(r.DriverID), nullableID(r.VehicleID))
	if err != nil {
		return r, mapErr("insert route", err)
	}
	if r.ID, err = res.LastInsertId(); err != nil {
		return r, core.StorageErr("insert route", err)
	}
	r.StudentCount = 0
	return r, nil
}

func (q *Queries) UpdateRoute(ctx context.Context, r core.Route) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE routes SET name = ?, sector = ?, institution = ?, driver_id = ?, vehicle_id = ? WHERE id = ?`,
		r.Name, r.Sector, r.Institution, nullableID(r.DriverID), nullableID(r.VehicleID), r.ID)
	if err != nil {
		return mapErr("update route", err)
	}
	return affected("update route", res)
}

func (q *Queries) GetRoute(ctx context.Context, id int64) (core.Route, error) {
	r, err := scanRoute(q.db.QueryRowContext(ctx, routeSelect+` WHERE r.id = ?`, id))
	if err != nil {
		return r, mapErr("get route", err)
	}
	return r, nil
}

func (q *Queries) ListRoutes(ctx context.Context) ([]core.Route, error) {
	rows, err := q.db.QueryContext(ctx, routeSelect+` ORDER BY r.name, r.id`)
	if err != nil {
		return nil, mapErr("list routes", err)
	}
	defer rows.Close()

	var out []core.Route
	for rows.Next() {
		r, err := scanRoute(rows)
		if err != nil {
			return nil, mapErr("scan route", err)
		}
		out = append(out, r)
	}
	return out, mapErr("list routes", rows.Err())
}

// DeleteRoute removes a route together with its students. It is blocked
// while any driver has the route assigned. Call it inside a transaction.
func (q *Queries) DeleteRoute(ctx context.Context, id int64) error {
	n, err := q.count(ctx, "count route drivers", `SELECT COUNT(*) FROM drivers WHERE route_id = ?`, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return core.Conflictf("route %d is assigned to %d driver(s)", id, n)
	}
	if _, err := q.db.ExecContext(ctx, `DELETE FROM route_students WHERE route_id = ?`, id); err != nil {
		return mapErr("delete route students", err)
	}
	res, err := q.db.ExecContext(ctx, `DELETE FROM routes WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete route", err)
	}
	return affected("delete route", res)
}

// RecountStudents sets student_count to the number of students on the route
// and returns it.
func (q *Queries) RecountStudents(ctx context.Context, routeID int64) (int, error) {
	n, err := q.count(ctx, "count students", `SELECT COUNT(*) FROM route_students WHERE route_id = ?`, routeID)
	if err != nil {
		return 0, err
	}
	res, err := q.db.ExecContext(ctx, `UPDATE routes SET student_count = ? WHERE id = ?`, n, routeID)
	if err != nil {
		return 0, mapErr("update student count", err)
	}
	if err := affected("update student count", res); err != nil {
		return 0, err
	}
	return n, nil
}
