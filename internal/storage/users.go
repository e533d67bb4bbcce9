package storage

import (
	"context"

	"transcoop/internal/core"
)

func (q *Queries) CreateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := q.db.ExecContext(ctx,
		`INSERT INTO users (name, password_hash, role) VALUES (?, ?, ?)`, u.Name, u.PasswordHash, u.Role)
	if err != nil {
		return u, mapErr("insert user", err)
	}
	if u.ID, err = res.LastInsertId(); err != nil {
		return u, core.StorageErr("insert user", err)
	}
	return u, nil
}

func (q *Queries) GetUserByName(ctx context.Context, name string) (core.User, error) {
	var u core.User
	err := q.db.QueryRowContext(ctx,
		`SELECT id, name, password_hash, role FROM users WHERE name = ?`, name).
		Scan(&u.ID, &u.Name, &u.PasswordHash, &u.Role)
	if err != nil {
		return u, mapErr("get user", err)
	}
	return u, nil
}

func (q *Queries) CountUsers(ctx context.Context) (int, error) {
	return q.count(ctx, "count users", `SELECT COUNT(*) FROM users`)
}
