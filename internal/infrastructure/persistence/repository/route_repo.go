package repository

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/domain/workflow"
	"github.com/openfleet/fleetflow/internal/infrastructure/persistence/sqlite"
)

// RouteRepository implements port.RouteRepository. Routes live in three
// configuration tables: routes, route_stages (ordered), route_principals.
type RouteRepository struct {
	db     *sqlite.DB
	logger *zap.Logger
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db *sqlite.DB, logger *zap.Logger) port.RouteRepository {
	return &RouteRepository{
		db:     db,
		logger: logger,
	}
}

// GetByDepartmentAndKind resolves the route configured for a department/kind
// pair. Department matching is case-insensitive. Returns
// workflow.ErrRouteNotFound when no route is configured.
func (r *RouteRepository) GetByDepartmentAndKind(ctx context.Context, department string, kind entity.RequestKind) (*workflow.Route, error) {
	query := `
		SELECT id, department, kind
		FROM routes
		WHERE LOWER(department) = LOWER(?) AND kind = ?
	`

	var routeID int64
	var dept, routeKind string
	err := r.db.Executor(ctx).QueryRowContext(ctx, query, department, string(kind)).Scan(&routeID, &dept, &routeKind)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: department %s kind %s", workflow.ErrRouteNotFound, department, kind)
	}
	if err != nil {
		r.logger.Error("Failed to get route",
			zap.String("department", department), zap.String("kind", string(kind)), zap.Error(err))
		return nil, fmt.Errorf("failed to get route: %w", err)
	}

	stages, err := r.getStages(ctx, routeID)
	if err != nil {
		return nil, err
	}
	if len(stages) == 0 {
		return nil, fmt.Errorf("%w: route %d has no stages", workflow.ErrRouteNotFound, routeID)
	}

	principals, err := r.getPrincipals(ctx, routeID)
	if err != nil {
		return nil, err
	}

	route := workflow.NewRoute(dept, routeKind, stages, principals)
	route.ID = routeID
	return route, nil
}

func (r *RouteRepository) getStages(ctx context.Context, routeID int64) ([]string, error) {
	query := `
		SELECT stage_name
		FROM route_stages
		WHERE route_id = ?
		ORDER BY position ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, routeID)
	if err != nil {
		r.logger.Error("Failed to get route stages", zap.Int64("route_id", routeID), zap.Error(err))
		return nil, fmt.Errorf("failed to get route stages: %w", err)
	}
	defer rows.Close()

	var stages []string
	for rows.Next() {
		var stage string
		if err := rows.Scan(&stage); err != nil {
			return nil, fmt.Errorf("failed to scan route stage: %w", err)
		}
		stages = append(stages, stage)
	}

	return stages, rows.Err()
}

func (r *RouteRepository) getPrincipals(ctx context.Context, routeID int64) ([]workflow.Principal, error) {
	query := `
		SELECT user_id, user_name, role
		FROM route_principals
		WHERE route_id = ?
		ORDER BY id ASC
	`

	rows, err := r.db.Executor(ctx).QueryContext(ctx, query, routeID)
	if err != nil {
		r.logger.Error("Failed to get route principals", zap.Int64("route_id", routeID), zap.Error(err))
		return nil, fmt.Errorf("failed to get route principals: %w", err)
	}
	defer rows.Close()

	var principals []workflow.Principal
	for rows.Next() {
		var p workflow.Principal
		if err := rows.Scan(&p.UserID, &p.UserName, &p.Role); err != nil {
			return nil, fmt.Errorf("failed to scan route principal: %w", err)
		}
		principals = append(principals, p)
	}

	return principals, rows.Err()
}

// Verify interface compliance
var _ port.RouteRepository = (*RouteRepository)(nil)
