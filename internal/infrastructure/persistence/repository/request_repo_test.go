package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/domain/workflow"
	"github.com/openfleet/fleetflow/internal/infrastructure/persistence/sqlite"
	"github.com/openfleet/fleetflow/pkg/database"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	logger := zap.NewNop()
	sqlDB, err := database.Open(database.Config{
		Path:         t.TempDir() + "/test.db",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	migrator := database.NewMigrator(sqlDB, logger)
	require.NoError(t, migrator.RunMigrations("../../../../migrations"))

	return sqlite.NewDB(sqlDB, logger)
}

func newStoredRequest(t *testing.T, repo *RequestRepository, id string) *entity.Request {
	t.Helper()

	req := &entity.Request{
		ID:                id,
		Kind:              entity.KindMaintenance,
		Status:            entity.StatusPending,
		Priority:          entity.PriorityHigh,
		CurrentStage:      "Create",
		Department:        "Operations",
		Description:       "brake noise on front axle",
		RequestedByUserID: "u-dispatch-01",
		RequestedByName:   "Dana Reeves",
		RequestDate:       time.Now(),
		Version:           1,
	}
	require.NoError(t, repo.Create(context.Background(), req))
	return req
}

func TestRequestRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop()).(*RequestRepository)
	ctx := context.Background()

	stored := newStoredRequest(t, repo, "req-1")

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, stored.ID, got.ID)
	assert.Equal(t, entity.KindMaintenance, got.Kind)
	assert.Equal(t, entity.StatusPending, got.Status)
	assert.Equal(t, entity.PriorityHigh, got.Priority)
	assert.Equal(t, "Create", got.CurrentStage)
	assert.Equal(t, int64(1), got.Version)
	assert.Nil(t, got.VehicleID)
	assert.Nil(t, got.ApprovedDate)
}

func TestRequestRepository_GetMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop()).(*RequestRepository)

	got, err := repo.GetByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestRequestRepository_AdvanceStage(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop()).(*RequestRepository)
	ctx := context.Background()

	newStoredRequest(t, repo, "req-1")

	err := repo.AdvanceStage(ctx, "req-1", "Comment", entity.StatusPending, 1)
	require.NoError(t, err)

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, "Comment", got.CurrentStage)
	assert.Equal(t, int64(2), got.Version)
	assert.Nil(t, got.ApprovedDate)
}

func TestRequestRepository_AdvanceStampsApproval(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop()).(*RequestRepository)
	ctx := context.Background()

	newStoredRequest(t, repo, "req-1")

	require.NoError(t, repo.AdvanceStage(ctx, "req-1", "Complete", entity.StatusApproved, 1))

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusApproved, got.Status)
	assert.NotNil(t, got.ApprovedDate)
	assert.Nil(t, got.CompletionDate)

	require.NoError(t, repo.AdvanceStage(ctx, "req-1", "Complete", entity.StatusCompleted, 2))

	got, err = repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusCompleted, got.Status)
	assert.NotNil(t, got.CompletionDate)
}

func TestRequestRepository_AdvanceStaleVersion(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop()).(*RequestRepository)
	ctx := context.Background()

	newStoredRequest(t, repo, "req-1")

	// First advance wins the race
	require.NoError(t, repo.AdvanceStage(ctx, "req-1", "Comment", entity.StatusPending, 1))

	// Second advance still carries the version it read
	err := repo.AdvanceStage(ctx, "req-1", "Comment", entity.StatusPending, 1)
	assert.ErrorIs(t, err, workflow.ErrConcurrentModification)

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestRequestRepository_MarkRejected(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop()).(*RequestRepository)
	ctx := context.Background()

	newStoredRequest(t, repo, "req-1")

	require.NoError(t, repo.MarkRejected(ctx, "req-1", "duplicate request", "u-manager-01", 1))

	got, err := repo.GetByID(ctx, "req-1")
	require.NoError(t, err)
	assert.Equal(t, entity.StatusRejected, got.Status)
	assert.Equal(t, "duplicate request", got.RejectionReason)
	assert.Equal(t, "u-manager-01", got.RejectedBy)
	assert.NotNil(t, got.RejectedAt)
	assert.Equal(t, int64(2), got.Version)

	err = repo.MarkRejected(ctx, "req-1", "again", "u-manager-01", 1)
	assert.ErrorIs(t, err, workflow.ErrConcurrentModification)
}

func TestRequestRepository_ListActive(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop()).(*RequestRepository)
	ctx := context.Background()

	newStoredRequest(t, repo, "req-1")
	newStoredRequest(t, repo, "req-2")
	require.NoError(t, repo.MarkRejected(ctx, "req-2", "not needed", "u-manager-01", 1))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "req-1", active[0].ID)
}

func TestRequestRepository_ListActiveIncludesApproved(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop()).(*RequestRepository)
	ctx := context.Background()

	newStoredRequest(t, repo, "req-1")

	// Approval moves the request to the final stage but it still awaits the
	// completing action, so it must stay listed as active.
	require.NoError(t, repo.AdvanceStage(ctx, "req-1", "Complete", entity.StatusApproved, 1))

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, entity.StatusApproved, active[0].Status)
	assert.False(t, active[0].IsTerminal())

	require.NoError(t, repo.AdvanceStage(ctx, "req-1", "Complete", entity.StatusCompleted, 2))

	active, err = repo.ListActive(ctx)
	require.NoError(t, err)
	assert.Empty(t, active)
}

func TestRequestRepository_ListByRequestor(t *testing.T) {
	db := setupTestDB(t)
	repo := NewRequestRepository(db, zap.NewNop()).(*RequestRepository)
	ctx := context.Background()

	newStoredRequest(t, repo, "req-1")
	newStoredRequest(t, repo, "req-2")

	mine, err := repo.ListByRequestor(ctx, "u-dispatch-01", 50, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	none, err := repo.ListByRequestor(ctx, "u-ghost", 50, 0)
	require.NoError(t, err)
	assert.Empty(t, none)
}
