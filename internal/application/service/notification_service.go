package service

import (
	"context"
	"fmt"

	"github.com/openfleet/fleetflow/internal/application/dispatcher"
	"github.com/openfleet/fleetflow/internal/application/port"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/domain/event"
	domainwf "github.com/openfleet/fleetflow/internal/domain/workflow"
)

// NotificationService informs the next stage's owners that action is pending.
// It is a downstream effect of a transition, never a gate on one.
type NotificationService interface {
	// NotifyPendingActors records and delivers a pending-action notice to
	// every owner of the request's current stage.
	NotifyPendingActors(ctx context.Context, requestID string) error

	// History returns the recorded notices for a request, oldest first
	History(ctx context.Context, requestID string) ([]*entity.StageNotification, error)

	// Register subscribes the service to workflow events on the dispatcher
	Register(d dispatcher.Dispatcher)
}

type notificationServiceImpl struct {
	requestRepo      port.RequestRepository
	routeRepo        port.RouteRepository
	notificationRepo port.NotificationRepository
	sender           port.MessageSender
	logger           Logger
}

// NewNotificationService creates a new NotificationService. sender may be nil,
// in which case notices are persisted but not delivered.
func NewNotificationService(
	requestRepo port.RequestRepository,
	routeRepo port.RouteRepository,
	notificationRepo port.NotificationRepository,
	sender port.MessageSender,
	logger Logger,
) NotificationService {
	return &notificationServiceImpl{
		requestRepo:      requestRepo,
		routeRepo:        routeRepo,
		notificationRepo: notificationRepo,
		sender:           sender,
		logger:           logger,
	}
}

// Register subscribes the service to workflow events on the dispatcher
func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.SubscribeNamed(event.TypeRequestCreated, "notify-pending-actors", func(ctx context.Context, evt *event.Event) error {
		return s.NotifyPendingActors(ctx, evt.RequestID)
	})

	d.SubscribeNamed(event.TypeStageAdvanced, "notify-pending-actors", func(ctx context.Context, evt *event.Event) error {
		if evt.GetPayloadBool("auto_skipped") {
			s.logger.Info("Stage auto-skipped, notifying next stage owners",
				"request_id", evt.RequestID,
				"stage", evt.GetPayloadString("current_stage"),
				"correlation_id", evt.CorrelationID,
			)
		}
		return s.NotifyPendingActors(ctx, evt.RequestID)
	})
}

// History returns the recorded notices for a request, oldest first
func (s *notificationServiceImpl) History(ctx context.Context, requestID string) ([]*entity.StageNotification, error) {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return nil, fmt.Errorf("get request: %w", err)
	}
	if req == nil {
		return nil, fmt.Errorf("%w: %s", domainwf.ErrRequestNotFound, requestID)
	}
	return s.notificationRepo.GetByRequestID(ctx, requestID)
}

// NotifyPendingActors records and delivers pending-action notices
func (s *notificationServiceImpl) NotifyPendingActors(ctx context.Context, requestID string) error {
	req, err := s.requestRepo.GetByID(ctx, requestID)
	if err != nil {
		return fmt.Errorf("get request: %w", err)
	}
	if req == nil || req.IsTerminal() {
		return nil
	}

	route, err := s.routeRepo.GetByDepartmentAndKind(ctx, req.Department, req.Kind)
	if err != nil {
		return fmt.Errorf("resolve route: %w", err)
	}

	message := fmt.Sprintf("%s request %s (%s) is awaiting your action at stage %s",
		req.Kind, req.ID, req.Department, req.CurrentStage)

	for _, owner := range route.Owners(req.CurrentStage) {
		n := &entity.StageNotification{
			RequestID: req.ID,
			Stage:     req.CurrentStage,
			UserID:    owner.UserID,
			UserName:  owner.UserName,
			Message:   message,
			Status:    entity.NotificationStatusPending,
		}

		if err := s.notificationRepo.Create(ctx, n); err != nil {
			s.logger.Error("Failed to record notification",
				"request_id", req.ID, "user_id", owner.UserID, "error", err)
			continue
		}

		if s.sender == nil {
			continue
		}

		if err := s.sender.SendMessage(ctx, owner.UserID, message); err != nil {
			s.logger.Error("Failed to deliver notification",
				"request_id", req.ID, "user_id", owner.UserID, "error", err)
			if upErr := s.notificationRepo.UpdateStatus(ctx, n.ID, entity.NotificationStatusFailed, err.Error()); upErr != nil {
				s.logger.Error("Failed to mark notification failed", "id", n.ID, "error", upErr)
			}
			continue
		}

		if err := s.notificationRepo.MarkSent(ctx, n.ID); err != nil {
			s.logger.Error("Failed to mark notification sent", "id", n.ID, "error", err)
		}
	}

	return nil
}
