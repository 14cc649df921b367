package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/mw"
	"hostel-allocation-backend/internal/workflow"
)

type submitSwapRequest struct {
	RequestedRoomID int64  `json:"requested_room_id" binding:"required,gt=0"`
	RequestedBunkID int64  `json:"requested_bunk_id" binding:"required,gt=0"`
	Reason          string `json:"reason"`
}

// SubmitSwap files a swap request for the authenticated student.
func (h *Handler) SubmitSwap(c *gin.Context) {
	var req submitSwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.requests.SubmitSwapRequest(c.Request.Context(), mw.ActorID(c), req.RequestedRoomID, req.RequestedBunkID, req.Reason)
	h.writeResult(c, res, err, http.StatusCreated)
}

// SubmitCancellation files a cancellation request for the authenticated student.
func (h *Handler) SubmitCancellation(c *gin.Context) {
	res, err := h.requests.SubmitCancellationRequest(c.Request.Context(), mw.ActorID(c))
	h.writeResult(c, res, err, http.StatusCreated)
}

type decideFunc func(c *gin.Context, adminID, requestID int64, action workflow.Action) (allocation.Result, error)

func (h *Handler) decide(c *gin.Context, fn decideFunc) {
	requestID, ok := idParam(c, "request_id")
	if !ok {
		return
	}
	action, err := workflow.ParseAction(c.Param("action"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := fn(c, mw.ActorID(c), requestID, action)
	if err == nil && res.OK {
		h.flushCache()
	}
	h.writeResult(c, res, err, http.StatusOK)
}

// DecideSwap approves or rejects a swap request.
func (h *Handler) DecideSwap(c *gin.Context) {
	h.decide(c, func(c *gin.Context, adminID, requestID int64, action workflow.Action) (allocation.Result, error) {
		return h.requests.DecideSwap(c.Request.Context(), adminID, requestID, action)
	})
}

// DecideCancellation approves or rejects a cancellation request.
func (h *Handler) DecideCancellation(c *gin.Context) {
	h.decide(c, func(c *gin.Context, adminID, requestID int64, action workflow.Action) (allocation.Result, error) {
		return h.requests.DecideCancellation(c.Request.Context(), adminID, requestID, action)
	})
}

func statusFilter(c *gin.Context) (model.RequestStatus, bool) {
	status := model.RequestStatus(c.Query("status"))
	switch status {
	case "", model.RequestPending, model.RequestApproved, model.RequestRejected:
		return status, true
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
		return "", false
	}
}

// ListSwapRequests lists swap requests for admins, optionally by status.
func (h *Handler) ListSwapRequests(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	reqs, err := h.store.ListSwapRequests(c.Request.Context(), status)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}

// ListCancellationRequests lists cancellation requests for admins.
func (h *Handler) ListCancellationRequests(c *gin.Context) {
	status, ok := statusFilter(c)
	if !ok {
		return
	}
	reqs, err := h.store.ListCancellationRequests(c.Request.Context(), status)
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, reqs)
}
