package storage

import (
	"context"

	"transcoop/internal/core"
)

const studentColumns = `id, route_id, student_number, student_name, guardian_name, guardian_id,
	guardian_email, guardian_phone`

func scanStudent(row interface{ Scan(...any) error }) (core.Student, error) {
	var s core.Student
	err := row.Scan(&s.ID, &s.RouteID, &s.StudentNumber, &s.StudentName, &s.GuardianName,
		&s.GuardianID, &s.GuardianEmail, &s.GuardianPhone)
	return s, err
}

func (q *Queries) CreateStudent(ctx context.Context, s core.Student) (core.Student, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO route_students (route_id, student_number, student_name, guardian_name, guardian_id,
			guardian_email, guardian_phone)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		s.RouteID, s.StudentNumber, s.StudentName, s.GuardianName, s.GuardianID, s.GuardianEmail, s.GuardianPhone)
	if err != nil {
		return s, mapErr("insert student", err)
	}
	if s.ID, err = res.LastInsertId(); err != nil {
		return s, core.StorageErr("insert student", err)
	}
	return s, nil
}

func (q *Queries) UpdateStudent(ctx context.Context, s core.Student) error {
	res, err := q.db.ExecContext(ctx,
		`UPDATE route_students SET route_id = ?, student_number = ?, student_name = ?, guardian_name = ?,
			guardian_id = ?, guardian_email = ?, guardian_phone = ?
		 WHERE id = ?`,
		s.RouteID, s.StudentNumber, s.StudentName, s.GuardianName, s.GuardianID, s.GuardianEmail, s.GuardianPhone, s.ID)
	if err != nil {
		return mapErr("update student", err)
	}
	return affected("update student", res)
}

func (q *Queries) GetStudent(ctx context.Context, id int64) (core.Student, error) {
	s, err := scanStudent(q.db.QueryRowContext(ctx,
		`SELECT `+studentColumns+` FROM route_students WHERE id = ?`, id))
	if err != nil {
		return s, mapErr("get student", err)
	}
	return s, nil
}

func (q *Queries) ListStudents(ctx context.Context, routeID int64) ([]core.Student, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+studentColumns+` FROM route_students WHERE route_id = ? ORDER BY student_name, id`, routeID)
	if err != nil {
		return nil, mapErr("list students", err)
	}
	defer rows.Close()

	var out []core.Student
	for rows.Next() {
		s, err := scanStudent(rows)
		if err != nil {
			return nil, mapErr("scan student", err)
		}
		out = append(out, s)
	}
	return out, mapErr("list students", rows.Err())
}

func (q *Queries) DeleteStudent(ctx context.Context, id int64) error {
	res, err := q.db.ExecContext(ctx, `DELETE FROM route_students WHERE id = ?`, id)
	if err != nil {
		return mapErr("delete student", err)
	}
	return affected("delete student", res)
}
