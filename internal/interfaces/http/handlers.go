package http

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openfleet/fleetflow/internal/application/service"
	appworkflow "github.com/openfleet/fleetflow/internal/application/workflow"
	"github.com/openfleet/fleetflow/internal/domain/entity"
	"github.com/openfleet/fleetflow/internal/domain/workflow"
)

// maxDocumentSize bounds uploaded document size
const maxDocumentSize = 20 << 20 // 20 MiB

// Handlers contains all HTTP request handlers
type Handlers struct {
	requestService      service.RequestService
	documentService     service.DocumentService
	notificationService service.NotificationService
	reportService       service.ReportService
	engine              appworkflow.Engine
	projector           appworkflow.StatusProjector
	logger              Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	requestService service.RequestService,
	documentService service.DocumentService,
	notificationService service.NotificationService,
	reportService service.ReportService,
	engine appworkflow.Engine,
	projector appworkflow.StatusProjector,
	logger Logger,
) *Handlers {
	return &Handlers{
		requestService:      requestService,
		documentService:     documentService,
		notificationService: notificationService,
		reportService:       reportService,
		engine:              engine,
		projector:           projector,
		logger:              logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// CreateRequestBody is the payload for creating a request
type CreateRequestBody struct {
	Kind        string  `json:"kind" binding:"required"`
	Priority    string  `json:"priority"`
	Department  string  `json:"department" binding:"required"`
	Description string  `json:"description"`
	VehicleID   *string `json:"vehicle_id"`
}

// ProcessStageBody is the payload for acting on a request's current stage
type ProcessStageBody struct {
	Comments string                  `json:"comments"`
	Quote    *appworkflow.QuoteInput `json:"quote"`
}

// RejectBody is the payload for rejecting a request
type RejectBody struct {
	Reason string `json:"reason" binding:"required"`
}

// ListQuery represents pagination query parameters
type ListQuery struct {
	Limit  int `form:"limit"`
	Offset int `form:"offset"`
}

func (q *ListQuery) normalize() {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// ListRequests handles GET /api/requests
func (h *Handlers) ListRequests(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	requests, err := h.requestService.List(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, "Failed to list requests", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// ListAssignments handles GET /api/requests/assignments
func (h *Handlers) ListAssignments(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	requests, err := h.requestService.ListAssignments(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, "Failed to list assignment requests", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// ListMine handles GET /api/requests/mine
func (h *Handlers) ListMine(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	userID, _ := actingUser(c)
	requests, err := h.requestService.ListByRequestor(c.Request.Context(), userID, q.Limit, q.Offset)
	if err != nil {
		h.fail(c, "Failed to list own requests", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// ListPending handles GET /api/requests/pending
func (h *Handlers) ListPending(c *gin.Context) {
	userID, _ := actingUser(c)
	requests, err := h.requestService.ListPendingForUser(c.Request.Context(), userID)
	if err != nil {
		h.fail(c, "Failed to list pending requests", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: requests})
}

// CreateRequest handles POST /api/requests
func (h *Handlers) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	userID, userName := actingUser(c)
	req, err := h.requestService.Create(c.Request.Context(), service.CreateRequestInput{
		Kind:            entity.RequestKind(body.Kind),
		Priority:        entity.Priority(body.Priority),
		Department:      body.Department,
		Description:     body.Description,
		RequestedBy:     userID,
		RequestedByName: userName,
		VehicleID:       body.VehicleID,
	})
	if err != nil {
		h.fail(c, "Failed to create request", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: req})
}

// GetRequest handles GET /api/requests/:id
func (h *Handlers) GetRequest(c *gin.Context) {
	req, err := h.requestService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get request", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// GetWorkflowStatus handles GET /api/requests/:id/status
func (h *Handlers) GetWorkflowStatus(c *gin.Context) {
	status, err := h.projector.Project(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to project workflow status", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: status})
}

// GetComments handles GET /api/requests/:id/comments
func (h *Handlers) GetComments(c *gin.Context) {
	comments, err := h.requestService.GetComments(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get comments", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: comments})
}

// ProcessStage handles POST /api/requests/:id/process
func (h *Handlers) ProcessStage(c *gin.Context) {
	var body ProcessStageBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	userID, userName := actingUser(c)
	result, err := h.engine.ProcessStage(c.Request.Context(), c.Param("id"), userID, appworkflow.ProcessInput{
		UserName: userName,
		Comments: body.Comments,
		Quote:    body.Quote,
	})
	if err != nil {
		h.fail(c, "Failed to process stage", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: result})
}

// RejectRequest handles POST /api/requests/:id/reject
func (h *Handlers) RejectRequest(c *gin.Context) {
	var body RejectBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid request body: " + err.Error()})
		return
	}

	userID, userName := actingUser(c)
	req, err := h.engine.Reject(c.Request.Context(), c.Param("id"), userID, userName, body.Reason)
	if err != nil {
		h.fail(c, "Failed to reject request", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: req})
}

// UploadDocument handles POST /api/requests/:id/documents
func (h *Handlers) UploadDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "missing file"})
		return
	}
	if fileHeader.Size > maxDocumentSize {
		c.JSON(http.StatusRequestEntityTooLarge, Response{Success: false, Error: "file too large"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.fail(c, "Failed to open uploaded file", err)
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.fail(c, "Failed to read uploaded file", err)
		return
	}

	userID, _ := actingUser(c)
	mimeType := fileHeader.Header.Get("Content-Type")
	doc, err := h.documentService.Attach(c.Request.Context(), c.Param("id"), fileHeader.Filename, mimeType, userID, content)
	if err != nil {
		h.fail(c, "Failed to attach document", err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: doc})
}

// ListDocuments handles GET /api/requests/:id/documents
func (h *Handlers) ListDocuments(c *gin.Context) {
	docs, err := h.documentService.ListByRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to list documents", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: docs})
}

// DownloadDocument handles GET /api/documents/:id/download
func (h *Handlers) DownloadDocument(c *gin.Context) {
	dc, err := h.documentService.Download(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to download document", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+dc.Document.FileName+`"`)
	c.Data(http.StatusOK, dc.Document.MimeType, dc.Content)
}

// GetNotifications handles GET /api/requests/:id/notifications
func (h *Handlers) GetNotifications(c *gin.Context) {
	notices, err := h.notificationService.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to get notification history", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: notices})
}

// ListVehicles handles GET /api/vehicles
func (h *Handlers) ListVehicles(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: "invalid query parameters"})
		return
	}
	q.normalize()

	vehicles, err := h.requestService.ListVehicles(c.Request.Context(), q.Limit, q.Offset)
	if err != nil {
		h.fail(c, "Failed to list vehicles", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: vehicles})
}

// AssessQuote handles POST /api/requests/:id/quote-assessment
func (h *Handlers) AssessQuote(c *gin.Context) {
	assessment, err := h.documentService.AssessQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, "Failed to assess quote", err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: assessment})
}

// MaintenanceCostReport handles GET /api/reports/maintenance-costs
func (h *Handlers) MaintenanceCostReport(c *gin.Context) {
	report, err := h.reportService.MaintenanceCostReport(c.Request.Context())
	if err != nil {
		h.fail(c, "Failed to build maintenance cost report", err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="maintenance-costs.xlsx"`)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report)
}

// fail logs the error and writes the mapped JSON error response
func (h *Handlers) fail(c *gin.Context, msg string, err error) {
	h.logger.Error(msg, "path", c.Request.URL.Path, "error", err)
	c.JSON(statusForError(err), Response{Success: false, Error: err.Error()})
}

// statusForError maps domain errors to HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, workflow.ErrRequestNotFound),
		errors.Is(err, workflow.ErrRouteNotFound),
		errors.Is(err, service.ErrDocumentNotFound):
		return http.StatusNotFound
	case errors.Is(err, workflow.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, workflow.ErrAlreadyTerminal),
		errors.Is(err, workflow.ErrConcurrentModification):
		return http.StatusConflict
	case errors.Is(err, workflow.ErrMissingCostCommitment),
		errors.Is(err, workflow.ErrQuoteCostMismatch),
		errors.Is(err, workflow.ErrRejectionNotAllowed):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrAdvisorNotConfigured):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
