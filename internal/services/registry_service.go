package services

import (
	"context"
	"fmt"
	"log/slog"

	"transcoop/internal/core"
	"transcoop/internal/storage"
)

// DriverService is the driver registry.
type DriverService struct {
	store *storage.Store
}

func NewDriverService(store *storage.Store) *DriverService {
	return &DriverService{store: store}
}

func (s *DriverService) Create(ctx context.Context, d core.Driver) (core.Driver, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return core.Driver{}, err
	}
	d, err := s.store.CreateDriver(ctx, d)
	if err != nil {
		return core.Driver{}, fmt.Errorf("create driver: %w", err)
	}
	slog.InfoContext(ctx, "Driver created", "driver_id", d.ID)
	return d, nil
}

func (s *DriverService) Update(ctx context.Context, d core.Driver) (core.Driver, error) {
	d.Normalize()
	if err := d.Validate(); err != nil {
		return core.Driver{}, err
	}
	if err := s.store.UpdateDriver(ctx, d); err != nil {
		return core.Driver{}, fmt.Errorf("update driver: %w", err)
	}
	return d, nil
}

func (s *DriverService) Get(ctx context.Context, id int64) (core.Driver, error) {
	return s.store.GetDriver(ctx, id)
}

func (s *DriverService) List(ctx context.Context) ([]core.Driver, error) {
	return s.store.ListDrivers(ctx)
}

// Delete clears the driver's route and settlement references and removes
// it. Drivers with loans on record cannot be deleted.
func (s *DriverService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		return q.DeleteDriver(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete driver: %w", err)
	}
	slog.InfoContext(ctx, "Driver deleted", "driver_id", id)
	return nil
}

// VehicleService is the fleet registry.
type VehicleService struct {
	store *storage.Store
}

func NewVehicleService(store *storage.Store) *VehicleService {
	return &VehicleService{store: store}
}

func (s *VehicleService) Create(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	v.Normalize()
	if err := v.Validate(); err != nil {
		return core.Vehicle{}, err
	}
	v, err := s.store.CreateVehicle(ctx, v)
	if err != nil {
		return core.Vehicle{}, fmt.Errorf("create vehicle: %w", err)
	}
	slog.InfoContext(ctx, "Vehicle created", "vehicle_id", v.ID, "plate", v.Plate)
	return v, nil
}

func (s *VehicleService) Update(ctx context.Context, v core.Vehicle) (core.Vehicle, error) {
	v.Normalize()
	if err := v.Validate(); err != nil {
		return core.Vehicle{}, err
	}
	if err := s.store.UpdateVehicle(ctx, v); err != nil {
		return core.Vehicle{}, fmt.Errorf("update vehicle: %w", err)
	}
	return v, nil
}

func (s *VehicleService) Get(ctx context.Context, id int64) (core.Vehicle, error) {
	return s.store.GetVehicle(ctx, id)
}

func (s *VehicleService) List(ctx context.Context) ([]core.Vehicle, error) {
	return s.store.ListVehicles(ctx)
}

// Delete refuses while a route still uses the vehicle.
func (s *VehicleService) Delete(ctx context.Context, id int64) error {
	err := s.store.WithTx(ctx, func(q *storage.Queries) error {
		return q.DeleteVehicle(ctx, id)
	})
	if err != nil {
		return fmt.Errorf("delete vehicle: %w", err)
	}
	slog.InfoContext(ctx, "Vehicle deleted", "vehicle_id", id)
	return nil
}
