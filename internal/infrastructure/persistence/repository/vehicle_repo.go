package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/infrastructure/persistence/sqlite"
)

// VehicleRepository implements port.VehicleRepository. Vehicles are read-only
// from the workflow's point of view.
type VehicleRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewVehicleRepository creates a new vehicle repository
func NewVehicleRepository(db *sqlite.DB, logger *zap.Logger) port.VehicleRepository {
	return &VehicleRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a vehicle by ID, or nil when it does not exist
func (r *VehicleRepository) GetByID(ctx context.Context, id string) (*entity.Vehicle, error) {
	query := `
		SELECT id, plate_number, make, model, year, department, status,
			odometer_km, created_at, updated_at
		FROM vehicles
		WHERE id = ?
	`

	var v entity.Vehicle
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, id).Scan(
		&v.ID,
		&v.PlateNumber,
		&v.Make,
		&v.Model,
		&v.Year,
		&v.Department,
		&v.Status,
		&v.OdometerKM,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get vehicle", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get vehicle: %w", err)
	}

	return &v, nil
}

// List retrieves vehicles with pagination
func (r *VehicleRepository) List(ctx context.Context, limit, offset int) ([]*entity.Vehicle, error) {
	query := `
		SELECT id, plate_number, make, model, year, department, status,
			odometer_km, created_at, updated_at
		FROM vehicles
		ORDER BY plate_number ASC
		LIMIT ? OFFSET ?
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list vehicles", zap.Error(err))
		return nil, fmt.Errorf("failed to list vehicles: %w", err)
	}
	defer rows.Close()

	var vehicles []*entity.Vehicle
	for rows.Next() {
		var v entity.Vehicle
		err := rows.Scan(
			&v.ID,
			&v.PlateNumber,
			&v.Make,
			&v.Model,
			&v.Year,
			&v.Department,
			&v.Status,
			&v.OdometerKM,
			&v.CreatedAt,
			&v.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan vehicle: %w", err)
		}
		vehicles = append(vehicles, &v)
	}

	return vehicles, rows.Err()
}

// Verify interface compliance
var _ port.VehicleRepository = (*VehicleRepository)(nil)
