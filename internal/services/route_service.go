package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"transcoop/internal/core"
	"transcoop/internal/storage"
)

// RouteService manages routes and the students assigned to them. Every
// student mutation recounts student_count in the same transaction.
type RouteService struct {
	store *storage.Store
}

func NewRouteService(store *storage.Store) *RouteService {
	return &RouteService{store: store}
}

func (s *RouteService) Create(ctx context.Context, r core.Route) (core.Route, error) {
	r.Name = strings.TrimSpace(r.Name)
	if err := r.Validate(); err != nil {
		return core.Route{}, err
	}
	r, err := s.store.CreateRoute(ctx, r)
	if err != nil {
		return core.Route{}, fmt.Errorf("create route: %w", err)
	}
	slog.InfoContext(ctx, "Route created", "route_id", r.ID)
	return r, nil
}

func (s *RouteService) Update(ctx context.Context, r core.Route) (core.Route, error) {
	r.Name = strings.TrimSpace(r.Name)
	if err := r.Validate(); err != nil {
		return core.Route{}, err
	}
	var out core.Route
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		if err := q.UpdateRoute(ctx, r); err != nil {
			return err
		}
		var err error
		out, err = q.GetRoute(ctx, r.ID)
		return err
	})
	if err != nil {
		return core.Route{}, fmt.Errorf("update route: %w", err)
	}
	return out, nil
}

func (s *RouteService) Get(ctx context.Context, id int64) (core.Route, error) {
	return s.store.GetRoute(ctx, id)
}

func (s *RouteService) List(ctx context.Context) ([]core.Route, error) {
	return s.store.ListRoutes(ctx)
}

// Delete removes the route and its students. Routes still assigned to a
// driver cannot be deleted.
func (s *RouteService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		return q.DeleteRoute(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete route: %w", err)
	}
	slog.InfoContext(ctx, "Route deleted", "route_id", id)
	return nil
}

func (s *RouteService) Students(ctx context.Context, routeID int64) ([]core.Student, error) {
	return s.store.ListStudents(ctx, routeID)
}

func (s *RouteService) AddStudent(ctx context.Context, st core.Student) (core.Student, error) {
	if err := st.Validate(); err != nil {
		return core.Student{}, err
	}
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		if _, err := q.GetRoute(ctx, st.RouteID); err != nil {
			return err
		}
		var err error
		if st, err = q.CreateStudent(ctx, st); err != nil {
			return err
		}
		_, err = q.RecountStudents(ctx, st.RouteID)
		return err
	})
	if err != nil {
		return core.Student{}, fmt.Errorf("add student: %w", err)
	}
	slog.InfoContext(ctx, "Student added", "student_id", st.ID, "route_id", st.RouteID)
	return st, nil
}

// UpdateStudent may move the student to another route; both routes are
// recounted.
func (s *RouteService) UpdateStudent(ctx context.Context, st core.Student) (core.Student, error) {
	if err := st.Validate(); err != nil {
		return core.Student{}, err
	}
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		prev, err := q.GetStudent(ctx, st.ID)
		if err != nil {
			return err
		}
		if prev.RouteID != st.RouteID {
			if _, err := q.GetRoute(ctx, st.RouteID); err != nil {
				return err
			}
		}
		if err := q.UpdateStudent(ctx, st); err != nil {
			return err
		}
		if _, err := q.RecountStudents(ctx, st.RouteID); err != nil {
			return err
		}
		if prev.RouteID != st.RouteID {
			_, err = q.RecountStudents(ctx, prev.RouteID)
		}
		return err
	})
	if err != nil {
		return core.Student{}, fmt.Errorf("update student: %w", err)
	}
	return st, nil
}

func (s *RouteService) RemoveStudent(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		st, err := q.GetStudent(ctx, id)
		if err != nil {
			return err
		}
		if err := q.DeleteStudent(ctx, id); err != nil {
			return err
		}
		_, err = q.RecountStudents(ctx, st.RouteID)
		return err
	})
	if err != nil {
		return fmt.Errorf("remove student: %w", err)
	}
	slog.InfoContext(ctx, "Student removed", "student_id", id)
	return nil
}
