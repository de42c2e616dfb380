package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/bkante/entrepot/internal/codec"
	"github.com/bkante/entrepot/internal/domain/models"
	"github.com/bkante/entrepot/internal/repository"
	"github.com/bkante/entrepot/internal/scanner"
	"github.com/bkante/entrepot/internal/service/workflow"
)

// WorkflowHandler exposes the scan workflow and inventory lookups over
// HTTP. It is thin glue: every decision lives in the workflow service.
type WorkflowHandler struct {
	svc    *workflow.Service
	logger *zap.Logger
}

// NewWorkflowHandler constructs the HTTP handler adapter.
func NewWorkflowHandler(svc *workflow.Service, logger *zap.Logger) *WorkflowHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowHandler{svc: svc, logger: logger}
}

// scanPayload is the optional request body of the workflow endpoints. Code
// carries a client-side scan; Confirm resolves the operation's decision
// point.
type scanPayload struct {
	Code    string `json:"code"`
	Confirm bool   `json:"confirm"`
}

func (h *WorkflowHandler) bindPayload(c *gin.Context) (scanPayload, bool) {
	var payload scanPayload
	if c.Request.ContentLength == 0 {
		return payload, true
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.logger.Warn("invalid workflow payload", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return payload, false
	}
	return payload, true
}

// ProductScan begins an add-or-move operation.
func (h *WorkflowHandler) ProductScan(c *gin.Context) {
	payload, ok := h.bindPayload(c)
	if !ok {
		return
	}

	ctx := withDecision(withScanCode(c.Request.Context(), payload.Code), payload.Confirm)
	outcome, err := h.svc.ScanProduct(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse(outcome, h.svc.State()))
}

// LocationScan completes a pending add or move.
func (h *WorkflowHandler) LocationScan(c *gin.Context) {
	payload, ok := h.bindPayload(c)
	if !ok {
		return
	}

	ctx := withScanCode(c.Request.Context(), payload.Code)
	outcome, err := h.svc.ScanLocation(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse(outcome, h.svc.State()))
}

// BeginDelete arms the delete flow.
func (h *WorkflowHandler) BeginDelete(c *gin.Context) {
	if err := h.svc.BeginDelete(c.Request.Context()); err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": h.svc.State()})
}

// DeleteScan scans and, when confirmed, removes a pallet.
func (h *WorkflowHandler) DeleteScan(c *gin.Context) {
	payload, ok := h.bindPayload(c)
	if !ok {
		return
	}

	ctx := withDecision(withScanCode(c.Request.Context(), payload.Code), payload.Confirm)
	outcome, err := h.svc.ScanDelete(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, outcomeResponse(outcome, h.svc.State()))
}

// Reset aborts the operation in flight.
func (h *WorkflowHandler) Reset(c *gin.Context) {
	h.svc.Reset()
	c.JSON(http.StatusOK, gin.H{"state": h.svc.State()})
}

// State reports the current workflow phase.
func (h *WorkflowHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"state": h.svc.State()})
}

// Search runs a substring search over the inventory.
func (h *WorkflowHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	by := models.SearchField(c.DefaultQuery("by", string(models.SearchByLot)))

	records, err := h.svc.Search(c.Request.Context(), query, by)
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": records, "count": len(records)})
}

// List returns the full live inventory.
func (h *WorkflowHandler) List(c *gin.Context) {
	records, err := h.svc.List(c.Request.Context())
	if err != nil {
		h.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": records, "count": len(records)})
}

func outcomeResponse(outcome workflow.Outcome, state workflow.State) gin.H {
	resp := gin.H{
		"status": outcome.Status,
		"state":  state,
	}
	if outcome.Record != nil {
		resp["record"] = outcome.Record
	}
	if outcome.AuditErr != nil {
		// Degraded success: the store committed but the log did not.
		resp["audit_error"] = outcome.AuditErr.Error()
	}
	return resp
}

func (h *WorkflowHandler) renderError(c *gin.Context, err error) {
	var parseErr *codec.ParseError
	var occupiedErr *workflow.LocationOccupiedError

	switch {
	case errors.Is(err, workflow.ErrStateConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "state_conflict"})
	case errors.As(err, &occupiedErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":       occupiedErr.Error(),
			"kind":        "location_occupied",
			"occupied_by": occupiedErr.OccupiedBy,
			"retryable":   true,
		})
	case errors.Is(err, workflow.ErrInvalidLocation):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": "invalid_location", "retryable": true})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": parseErr.Error(), "kind": string(parseErr.Kind)})
	case errors.Is(err, scanner.ErrTimeout):
		c.JSON(http.StatusRequestTimeout, gin.H{"error": err.Error(), "kind": "scan_timeout"})
	case errors.Is(err, scanner.ErrNoCode):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error(), "kind": "scan_empty"})
	case errors.Is(err, repository.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "kind": "not_found"})
	case errors.Is(err, repository.ErrDuplicatePallet):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error(), "kind": "store_conflict"})
	default:
		h.logger.Error("workflow operation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "operation failed"})
	}
}
