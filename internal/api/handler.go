package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/mw"
	"hostel-allocation-backend/internal/store"
	"hostel-allocation-backend/internal/workflow"
)

// Booker creates bookings.
type Booker interface {
	CreateBooking(ctx context.Context, studentID, hostelID, roomID, bunkID int64) (allocation.Result, error)
}

// Requests submits and decides swap and cancellation requests.
type Requests interface {
	SubmitSwapRequest(ctx context.Context, studentID, requestedRoomID, requestedBunkID int64, reason string) (allocation.Result, error)
	SubmitCancellationRequest(ctx context.Context, studentID int64) (allocation.Result, error)
	DecideSwap(ctx context.Context, adminID, requestID int64, action workflow.Action) (allocation.Result, error)
	DecideCancellation(ctx context.Context, adminID, requestID int64, action workflow.Action) (allocation.Result, error)
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store    store.Store
	booker   Booker
	requests Requests
	cache    *mw.ResponseCache
	webpush  *webpush.Options
	log      *zap.Logger
}

// NewHandler creates a new API handler. cache and webpushOptions may be nil.
func NewHandler(s store.Store, booker Booker, requests Requests, cache *mw.ResponseCache, webpushOptions *webpush.Options, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		store:    s,
		booker:   booker,
		requests: requests,
		cache:    cache,
		webpush:  webpushOptions,
		log:      log,
	}
}

// flushCache drops cached catalog responses after a write changed them.
func (h *Handler) flushCache() {
	if h.cache != nil {
		h.cache.Flush()
	}
}

// idParam reads a positive integer path parameter, answering 400 otherwise.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

// resultStatus maps a business outcome to an HTTP status.
func resultStatus(res allocation.Result, okStatus int) int {
	if res.OK {
		return okStatus
	}
	switch res.Outcome {
	case allocation.NotFound:
		return http.StatusNotFound
	case allocation.InvalidBunk:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusConflict
	}
}

// writeResult answers with a business result, or 500 when err is set.
func (h *Handler) writeResult(c *gin.Context, res allocation.Result, err error, okStatus int) {
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(resultStatus(res, okStatus), res)
}

// storeError maps store sentinel errors to HTTP responses.
func (h *Handler) storeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, store.ErrInvalid):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrDuplicate),
		errors.Is(err, store.ErrRoomAtCapacity),
		errors.Is(err, store.ErrNoAllocation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.internalError(c, err)
	}
}

func (h *Handler) internalError(c *gin.Context, err error) {
	_ = c.Error(err)
	h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
