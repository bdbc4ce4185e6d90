package workflow

import (
	"context"
	"errors"
	"testing"

	"github.com/openfleet/fleetflow/internal/domain/entity"
	domainwf "github.com/openfleet/fleetflow/internal/domain/workflow"
)

// Mock repositories

type mockRequestRepo struct {
	getByIDFunc      func(ctx context.Context, id string) (*entity.Request, error)
	advanceStageFunc func(ctx context.Context, id string, stage string, status entity.RequestStatus, expectedVersion int64) error
	markRejectedFunc func(ctx context.Context, id string, reason, rejectedBy string, expectedVersion int64) error

	advanced []advanceCall
	rejected []rejectCall
}

type advanceCall struct {
	stage           string
	status          entity.RequestStatus
	expectedVersion int64
}

type rejectCall struct {
	reason          string
	rejectedBy      string
	expectedVersion int64
}

func (m *mockRequestRepo) Create(ctx context.Context, req *entity.Request) error { return nil }

func (m *mockRequestRepo) GetByID(ctx context.Context, id string) (*entity.Request, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockRequestRepo) AdvanceStage(ctx context.Context, id string, stage string, status entity.RequestStatus, expectedVersion int64) error {
	m.advanced = append(m.advanced, advanceCall{stage, status, expectedVersion})
	if m.advanceStageFunc != nil {
		return m.advanceStageFunc(ctx, id, stage, status, expectedVersion)
	}
	return nil
}

func (m *mockRequestRepo) MarkRejected(ctx context.Context, id string, reason, rejectedBy string, expectedVersion int64) error {
	m.rejected = append(m.rejected, rejectCall{reason, rejectedBy, expectedVersion})
	if m.markRejectedFunc != nil {
		return m.markRejectedFunc(ctx, id, reason, rejectedBy, expectedVersion)
	}
	return nil
}

func (m *mockRequestRepo) List(ctx context.Context, limit, offset int) ([]*entity.Request, error) {
	return nil, nil
}

func (m *mockRequestRepo) ListByKind(ctx context.Context, kind entity.RequestKind, limit, offset int) ([]*entity.Request, error) {
	return nil, nil
}

func (m *mockRequestRepo) ListByRequestor(ctx context.Context, userID string, limit, offset int) ([]*entity.Request, error) {
	return nil, nil
}

func (m *mockRequestRepo) ListActive(ctx context.Context) ([]*entity.Request, error) {
	return nil, nil
}

type mockActionRepo struct {
	createFunc func(ctx context.Context, action *entity.Action) error

	created []*entity.Action
}

func (m *mockActionRepo) Create(ctx context.Context, action *entity.Action) error {
	m.created = append(m.created, action)
	if m.createFunc != nil {
		return m.createFunc(ctx, action)
	}
	return nil
}

func (m *mockActionRepo) GetByRequestID(ctx context.Context, requestID string) ([]*entity.Action, error) {
	return m.created, nil
}

func (m *mockActionRepo) GetByRequestAndStage(ctx context.Context, requestID, stage string) ([]*entity.Action, error) {
	return nil, nil
}

type mockRouteRepo struct {
	route *domainwf.Route
}

func (m *mockRouteRepo) GetByDepartmentAndKind(ctx context.Context, department string, kind entity.RequestKind) (*domainwf.Route, error) {
	if m.route == nil {
		return nil, domainwf.ErrRouteNotFound
	}
	return m.route, nil
}

type mockQuoteRepo struct {
	created []*entity.Quote
}

func (m *mockQuoteRepo) Create(ctx context.Context, quote *entity.Quote) error {
	m.created = append(m.created, quote)
	return nil
}

func (m *mockQuoteRepo) GetByRequestID(ctx context.Context, requestID string) (*entity.Quote, error) {
	if len(m.created) == 0 {
		return nil, nil
	}
	return m.created[len(m.created)-1], nil
}

type mockTxManager struct{}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// Fixtures

func testRoute() *domainwf.Route {
	return domainwf.NewRoute("Operations", "Maintenance",
		[]string{"Create", "Comment", "Review", "Commit", "Approve", "Complete"},
		[]domainwf.Principal{
			{UserID: "creator", UserName: "Dana", Role: "Create"},
			{UserID: "commenter", UserName: "Lee", Role: "Comment"},
			{UserID: "reviewer", UserName: "Morgan", Role: "Review"},
			{UserID: "mechanic", UserName: "Sam", Role: "Commit"},
			{UserID: "manager", UserName: "Avery", Role: "Approve"},
			{UserID: "mechanic", UserName: "Sam", Role: "Complete"},
		})
}

func testRequest(stage string) *entity.Request {
	return &entity.Request{
		ID:                "req-1",
		Kind:              entity.KindMaintenance,
		Status:            entity.StatusPending,
		CurrentStage:      stage,
		Department:        "Operations",
		RequestedByUserID: "creator",
		Version:           3,
	}
}

func newTestEngine(req *entity.Request) (Engine, *mockRequestRepo, *mockActionRepo, *mockQuoteRepo) {
	requestRepo := &mockRequestRepo{
		getByIDFunc: func(ctx context.Context, id string) (*entity.Request, error) {
			return req, nil
		},
	}
	actionRepo := &mockActionRepo{}
	quoteRepo := &mockQuoteRepo{}
	engine := NewEngine(requestRepo, actionRepo, &mockRouteRepo{route: testRoute()}, quoteRepo, &mockTxManager{})
	return engine, requestRepo, actionRepo, quoteRepo
}

// Tests

func TestProcessStage_AdvancesToNextStage(t *testing.T) {
	engine, requestRepo, actionRepo, _ := newTestEngine(testRequest("Review"))

	result, err := engine.ProcessStage(context.Background(), "req-1", "reviewer", ProcessInput{
		UserName: "Morgan",
		Comments: "looks fine",
	})
	if err != nil {
		t.Fatalf("ProcessStage() error = %v", err)
	}

	if result.Outcome != OutcomeManualAction {
		t.Errorf("Outcome = %v, want ManualAction", result.Outcome)
	}
	if result.Request.CurrentStage != "Commit" {
		t.Errorf("CurrentStage = %q, want Commit", result.Request.CurrentStage)
	}
	if result.Request.Status != entity.StatusPending {
		t.Errorf("Status = %v, want Pending", result.Request.Status)
	}
	if result.Request.Version != 4 {
		t.Errorf("Version = %d, want 4", result.Request.Version)
	}

	if len(requestRepo.advanced) != 1 {
		t.Fatalf("AdvanceStage called %d times, want 1", len(requestRepo.advanced))
	}
	call := requestRepo.advanced[0]
	if call.stage != "Commit" || call.expectedVersion != 3 {
		t.Errorf("AdvanceStage call = %+v, want stage Commit, version 3", call)
	}

	if len(actionRepo.created) != 1 {
		t.Fatalf("Action created %d times, want 1", len(actionRepo.created))
	}
	action := actionRepo.created[0]
	if action.Stage != "Review" || action.UserID != "reviewer" || action.Comments != "looks fine" {
		t.Errorf("recorded action = %+v", action)
	}
	if action.AutoSkipped {
		t.Error("AutoSkipped = true, want false")
	}
}

func TestProcessStage_RequestNotFound(t *testing.T) {
	engine, _, _, _ := newTestEngine(nil)

	_, err := engine.ProcessStage(context.Background(), "missing", "reviewer", ProcessInput{})
	if !errors.Is(err, domainwf.ErrRequestNotFound) {
		t.Errorf("error = %v, want ErrRequestNotFound", err)
	}
}

func TestProcessStage_TerminalRequestIsImmutable(t *testing.T) {
	tests := []struct {
		name   string
		status entity.RequestStatus
	}{
		{"rejected", entity.StatusRejected},
		{"completed", entity.StatusCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := testRequest("Approve")
			req.Status = tt.status
			engine, requestRepo, _, _ := newTestEngine(req)

			_, err := engine.ProcessStage(context.Background(), "req-1", "manager", ProcessInput{})
			if !errors.Is(err, domainwf.ErrAlreadyTerminal) {
				t.Errorf("error = %v, want ErrAlreadyTerminal", err)
			}
			if len(requestRepo.advanced) != 0 {
				t.Error("AdvanceStage was called on a terminal request")
			}
		})
	}
}

func TestProcessStage_NonOwnerIsRejected(t *testing.T) {
	engine, requestRepo, actionRepo, _ := newTestEngine(testRequest("Review"))

	_, err := engine.ProcessStage(context.Background(), "req-1", "mechanic", ProcessInput{
		Comments: "let me through",
	})
	if !errors.Is(err, domainwf.ErrNotAuthorized) {
		t.Errorf("error = %v, want ErrNotAuthorized", err)
	}
	if len(requestRepo.advanced) != 0 || len(actionRepo.created) != 0 {
		t.Error("state was mutated by an unauthorized action")
	}
}

func TestProcessStage_SelfRequestorSkip(t *testing.T) {
	// The requestor also owns the Create stage, so their action is recorded
	// as an automatic skip with the synthetic comment.
	engine, _, actionRepo, _ := newTestEngine(testRequest("Create"))

	result, err := engine.ProcessStage(context.Background(), "req-1", "creator", ProcessInput{
		UserName: "Dana",
		Comments: "this should be ignored",
	})
	if err != nil {
		t.Fatalf("ProcessStage() error = %v", err)
	}

	if result.Outcome != OutcomeAutoSkipped {
		t.Errorf("Outcome = %v, want AutoSkipped", result.Outcome)
	}
	if result.Request.CurrentStage != "Comment" {
		t.Errorf("CurrentStage = %q, want Comment", result.Request.CurrentStage)
	}

	action := actionRepo.created[0]
	if !action.AutoSkipped {
		t.Error("AutoSkipped = false, want true")
	}
	if action.Comments != SkipComment {
		t.Errorf("Comments = %q, want %q", action.Comments, SkipComment)
	}
}

func TestProcessStage_SkipBypassesCostCommitment(t *testing.T) {
	// A self-requestor skip at the Commit stage is checked before the
	// quote requirement, so no quote is needed.
	req := testRequest("Commit")
	req.RequestedByUserID = "mechanic"
	engine, _, actionRepo, quoteRepo := newTestEngine(req)

	result, err := engine.ProcessStage(context.Background(), "req-1", "mechanic", ProcessInput{})
	if err != nil {
		t.Fatalf("ProcessStage() error = %v", err)
	}

	if result.Outcome != OutcomeAutoSkipped {
		t.Errorf("Outcome = %v, want AutoSkipped", result.Outcome)
	}
	if len(quoteRepo.created) != 0 {
		t.Error("a quote was recorded for a skipped commit stage")
	}
	if actionRepo.created[0].Comments != SkipComment {
		t.Errorf("Comments = %q, want %q", actionRepo.created[0].Comments, SkipComment)
	}
}

func TestProcessStage_CommitRequiresQuote(t *testing.T) {
	engine, requestRepo, _, _ := newTestEngine(testRequest("Commit"))

	_, err := engine.ProcessStage(context.Background(), "req-1", "mechanic", ProcessInput{
		Comments: "done",
	})
	if !errors.Is(err, domainwf.ErrMissingCostCommitment) {
		t.Errorf("error = %v, want ErrMissingCostCommitment", err)
	}
	if len(requestRepo.advanced) != 0 {
		t.Error("stage advanced without a cost commitment")
	}
}

func TestProcessStage_QuoteCostMismatch(t *testing.T) {
	engine, requestRepo, _, quoteRepo := newTestEngine(testRequest("Commit"))

	_, err := engine.ProcessStage(context.Background(), "req-1", "mechanic", ProcessInput{
		Quote: &QuoteInput{LaborCost: 100, PartsCost: 50, TotalCost: 200},
	})
	if !errors.Is(err, domainwf.ErrQuoteCostMismatch) {
		t.Errorf("error = %v, want ErrQuoteCostMismatch", err)
	}
	if len(requestRepo.advanced) != 0 || len(quoteRepo.created) != 0 {
		t.Error("state was mutated by an inconsistent quote")
	}
}

func TestProcessStage_CommitRecordsQuote(t *testing.T) {
	engine, _, _, quoteRepo := newTestEngine(testRequest("Commit"))

	result, err := engine.ProcessStage(context.Background(), "req-1", "mechanic", ProcessInput{
		UserName: "Sam",
		Comments: "parts ordered",
		Quote:    &QuoteInput{LaborCost: 100, PartsCost: 50, TotalCost: 150, EstimatedTime: "2 days"},
	})
	if err != nil {
		t.Fatalf("ProcessStage() error = %v", err)
	}

	if result.Request.CurrentStage != "Approve" {
		t.Errorf("CurrentStage = %q, want Approve", result.Request.CurrentStage)
	}
	if len(quoteRepo.created) != 1 {
		t.Fatalf("quote created %d times, want 1", len(quoteRepo.created))
	}
	quote := quoteRepo.created[0]
	if quote.TotalCost != 150 || quote.SubmittedBy != "mechanic" {
		t.Errorf("recorded quote = %+v", quote)
	}
}

func TestProcessStage_ApproveStageSetsApproved(t *testing.T) {
	engine, requestRepo, _, _ := newTestEngine(testRequest("Approve"))

	result, err := engine.ProcessStage(context.Background(), "req-1", "manager", ProcessInput{
		Comments: "approved",
	})
	if err != nil {
		t.Fatalf("ProcessStage() error = %v", err)
	}

	if result.Request.CurrentStage != "Complete" {
		t.Errorf("CurrentStage = %q, want Complete", result.Request.CurrentStage)
	}
	if result.Request.Status != entity.StatusApproved {
		t.Errorf("Status = %v, want Approved", result.Request.Status)
	}
	if result.Request.ApprovedDate == nil {
		t.Error("ApprovedDate = nil, want set")
	}
	if requestRepo.advanced[0].status != entity.StatusApproved {
		t.Errorf("persisted status = %v, want Approved", requestRepo.advanced[0].status)
	}
}

func TestProcessStage_FinalStageCompletes(t *testing.T) {
	req := testRequest("Complete")
	req.Status = entity.StatusApproved
	engine, requestRepo, _, _ := newTestEngine(req)

	result, err := engine.ProcessStage(context.Background(), "req-1", "mechanic", ProcessInput{
		Comments: "work done",
	})
	if err != nil {
		t.Fatalf("ProcessStage() error = %v", err)
	}

	// Completion keeps the stage; the terminal outcome lives in the status
	if result.Request.CurrentStage != "Complete" {
		t.Errorf("CurrentStage = %q, want Complete", result.Request.CurrentStage)
	}
	if result.Request.Status != entity.StatusCompleted {
		t.Errorf("Status = %v, want Completed", result.Request.Status)
	}
	if result.Request.CompletionDate == nil {
		t.Error("CompletionDate = nil, want set")
	}
	if requestRepo.advanced[0].stage != "Complete" {
		t.Errorf("persisted stage = %q, want Complete", requestRepo.advanced[0].stage)
	}
}

func TestProcessStage_ConcurrentModification(t *testing.T) {
	req := testRequest("Review")
	engine, requestRepo, _, _ := newTestEngine(req)
	requestRepo.advanceStageFunc = func(ctx context.Context, id string, stage string, status entity.RequestStatus, expectedVersion int64) error {
		return domainwf.ErrConcurrentModification
	}

	_, err := engine.ProcessStage(context.Background(), "req-1", "reviewer", ProcessInput{})
	if !errors.Is(err, domainwf.ErrConcurrentModification) {
		t.Errorf("error = %v, want ErrConcurrentModification", err)
	}
	if req.Version != 3 {
		t.Errorf("in-memory version mutated to %d on a failed advance", req.Version)
	}
}

func TestReject_OnlyAtApprovalStage(t *testing.T) {
	stages := []string{"Create", "Comment", "Review", "Commit", "Complete"}
	for _, stage := range stages {
		t.Run(stage, func(t *testing.T) {
			req := testRequest(stage)
			req.RequestedByUserID = "someone-else"
			engine, requestRepo, _, _ := newTestEngine(req)

			owner := map[string]string{
				"Create": "creator", "Comment": "commenter", "Review": "reviewer",
				"Commit": "mechanic", "Complete": "mechanic",
			}[stage]

			_, err := engine.Reject(context.Background(), "req-1", owner, "", "not needed")
			if !errors.Is(err, domainwf.ErrRejectionNotAllowed) {
				t.Errorf("error = %v, want ErrRejectionNotAllowed", err)
			}
			if len(requestRepo.rejected) != 0 {
				t.Error("MarkRejected was called outside the approval stage")
			}
		})
	}
}

func TestReject_AtApprovalStage(t *testing.T) {
	engine, requestRepo, actionRepo, _ := newTestEngine(testRequest("Approve"))

	req, err := engine.Reject(context.Background(), "req-1", "manager", "Avery", "duplicate request")
	if err != nil {
		t.Fatalf("Reject() error = %v", err)
	}

	if req.Status != entity.StatusRejected {
		t.Errorf("Status = %v, want Rejected", req.Status)
	}
	if req.RejectionReason != "duplicate request" || req.RejectedBy != "manager" {
		t.Errorf("rejection fields = %q by %q", req.RejectionReason, req.RejectedBy)
	}
	if req.RejectedAt == nil {
		t.Error("RejectedAt = nil, want set")
	}

	if len(requestRepo.rejected) != 1 {
		t.Fatalf("MarkRejected called %d times, want 1", len(requestRepo.rejected))
	}
	if requestRepo.rejected[0].expectedVersion != 3 {
		t.Errorf("MarkRejected version = %d, want 3", requestRepo.rejected[0].expectedVersion)
	}

	action := actionRepo.created[0]
	if action.RejectionReason != "duplicate request" {
		t.Errorf("action RejectionReason = %q", action.RejectionReason)
	}
}

func TestReject_NonOwnerIsRejected(t *testing.T) {
	engine, requestRepo, _, _ := newTestEngine(testRequest("Approve"))

	_, err := engine.Reject(context.Background(), "req-1", "reviewer", "", "no")
	if !errors.Is(err, domainwf.ErrNotAuthorized) {
		t.Errorf("error = %v, want ErrNotAuthorized", err)
	}
	if len(requestRepo.rejected) != 0 {
		t.Error("MarkRejected was called by a non-owner")
	}
}

func TestReject_TerminalRequest(t *testing.T) {
	req := testRequest("Approve")
	req.Status = entity.StatusRejected
	engine, _, _, _ := newTestEngine(req)

	_, err := engine.Reject(context.Background(), "req-1", "manager", "", "again")
	if !errors.Is(err, domainwf.ErrAlreadyTerminal) {
		t.Errorf("error = %v, want ErrAlreadyTerminal", err)
	}
}
