package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-allocation-backend/internal/mw"
	"hostel-allocation-backend/internal/store"
)

type createBookingRequest struct {
	HostelID int64 `json:"hostel_id" binding:"required,gt=0"`
	RoomID   int64 `json:"room_id" binding:"required,gt=0"`
	BunkID   int64 `json:"bunk_id" binding:"required,gt=0"`
}

// CreateBooking books a bunk for the authenticated student.
func (h *Handler) CreateBooking(c *gin.Context) {
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.booker.CreateBooking(c.Request.Context(), mw.ActorID(c), req.HostelID, req.RoomID, req.BunkID)
	if err == nil && res.OK {
		h.flushCache()
	}
	h.writeResult(c, res, err, http.StatusCreated)
}

// GetBookings returns the student's booking history.
func (h *Handler) GetBookings(c *gin.Context) {
	history, err := h.store.BookingHistory(c.Request.Context(), mw.ActorID(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetAllocation returns where the student currently lives.
func (h *Handler) GetAllocation(c *gin.Context) {
	a, err := h.store.CurrentAllocation(c.Request.Context(), mw.ActorID(c))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no active room allocation"})
		return
	}
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, a)
}

// GetRoommates lists the other occupants of the student's room.
func (h *Handler) GetRoommates(c *gin.Context) {
	mates, err := h.store.Roommates(c.Request.Context(), mw.ActorID(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, mates)
}

// GetRequests returns the student's swap and cancellation requests.
func (h *Handler) GetRequests(c *gin.Context) {
	history, err := h.store.RequestHistory(c.Request.Context(), mw.ActorID(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

// GetNotifications returns the student's request feed.
func (h *Handler) GetNotifications(c *gin.Context) {
	feed, err := h.store.Notifications(c.Request.Context(), mw.ActorID(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, feed)
}

type putRatingRequest struct {
	Target  store.RatingTarget `json:"target" binding:"required,oneof=hostel room"`
	Rating  int                `json:"rating" binding:"required,min=1,max=5"`
	Comment string             `json:"comment" binding:"max=1000"`
}

// PutRating rates the hostel or room the student currently occupies.
func (h *Handler) PutRating(c *gin.Context) {
	var req putRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.store.RateCurrentAllocation(c.Request.Context(), mw.ActorID(c), req.Target, req.Rating, req.Comment)
	if err != nil {
		h.storeError(c, err)
		return
	}
	if created {
		c.JSON(http.StatusCreated, gin.H{"message": "Rating submitted successfully."})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Rating updated successfully."})
}

// GetRatings lists the student's ratings.
func (h *Handler) GetRatings(c *gin.Context) {
	ratings, err := h.store.ListRatings(c.Request.Context(), mw.ActorID(c))
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, ratings)
}
