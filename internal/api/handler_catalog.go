package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetHostels lists hostels with their free-bunk counts.
func (h *Handler) GetHostels(c *gin.Context) {
	hostels, err := h.store.ListHostels(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, hostels)
}

// GetRooms lists the rooms of a hostel.
func (h *Handler) GetRooms(c *gin.Context) {
	hostelID, ok := idParam(c, "hostel_id")
	if !ok {
		return
	}
	rooms, err := h.store.ListRoomsByHostel(c.Request.Context(), hostelID)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, rooms)
}

// GetAvailableBunks lists the free bunks of a room.
func (h *Handler) GetAvailableBunks(c *gin.Context) {
	roomID, ok := idParam(c, "room_id")
	if !ok {
		return
	}
	bunks, err := h.store.ListAvailableBunks(c.Request.Context(), roomID)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, bunks)
}

// Healthz checks that the database answers.
func (h *Handler) Healthz(c *gin.Context) {
	sqlDB, err := h.store.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
