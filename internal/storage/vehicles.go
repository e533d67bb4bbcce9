package storage

import (
	"context"

	"transcoop/internal/core"
)

const vehicleColumns = `id, unit_number, type, brand, model, plate, serial_number, color, year,
	max_load, status, maintenance_cycle, initial_km`

func scanVehicle(row interface{ Scan(...any) error }) (core.Vehicle, error) {
	var v core.Vehicle
	err := row.Scan(&v.ID, &v.UnitNumber, &v.Type, &v.Brand, &v.Model, &v.Plate, &v.SerialNumber,
		&v.Color, &v.Year, &v.MaxLoad, &v.Status, &v.MaintenanceCycle, &v.InitialKm)
	return v, err
}

func (q *Queries) CreateVehicle(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO vehicles (unit_number, type, brand, model, plate, serial_number, color, year,
			max_load, status, maintenance_cycle, initial_km)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		v.UnitNumber, v.Type, v.Brand, v.Model, v.Plate, v.SerialNumber, v.Color, v.Year,
		v.MaxLoad, v.Status, v.MaintenanceCycle, v.InitialKm)
	if err != nil {
		return v, mapErr("insert vehicle", err)
	}
	if v.ID, err = res.LastInsertId(); err != nil {
		return v, core.StorageErr("insert vehicle", err)
	}
	return v, nil
}

func (q *Queries) UpdateVehicle(ctx context.Context, v core.Vehicle) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE vehicles SET unit_number = ?, type = ?, brand = ?, model = ?, plate = ?, serial_number = ?,
			color = ?, year = ?, max_load = ?, status = ?, maintenance_cycle = ?, initial_km = ?
		 WHERE id = ?`,
		v.UnitNumber, v.Type, v.Brand, v.Model, v.Plate, v.SerialNumber, v.Color, v.Year,
		v.MaxLoad, v.Status, v.MaintenanceCycle, v.InitialKm, v.ID)
	if err != nil {
		return mapErr("update vehicle", err)
	}
	return affected("update vehicle", res)
}

func (q *Queries) GetVehicle(ctx context.Context, id int64) (core.Vehicle, error) {
	v, err := scanVehicle(q.db.QueryRowContext(ctx,
		`SELECT `+vehicleColumns+` FROM vehicles WHERE id = ?`, id))
	if err != nil {
		return v, mapErr("get vehicle", err)
	}
	return v, nil
}

func (q *Queries) ListVehicles(ctx context.Context) ([]core.Vehicle, error) {
	rows, err := q.db.QueryContext(ctx, `SELECT `+vehicleColumns+` FROM vehicles ORDER BY unit_number, id`)
	if err != nil {
		return nil, mapErr("list vehicles", err)
	}
	defer rows.Close()

	var out []core.Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, mapErr("scan vehicle", err)
		}
		out = append(out, v)
	}
	return out, mapErr("list vehicles", rows.Err())
}

// DeleteVehicle is blocked while any route still uses the vehicle.
func (q *Queries) DeleteVehicle(ctx context.Context, id int64) error {
	n, err := q.count(ctx, "count vehicle routes", `SELECT COUNT(*) FROM routes WHERE vehicle_id = ?`, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return core.Conflictf("vehicle %d is assigned to %d route(s)", id, n)
	}
	res, err := q.db.ExecContext(ctx, `DELETE FROM vehicles WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete vehicle", err)
	}
	return affected("delete vehicle", res)
}
