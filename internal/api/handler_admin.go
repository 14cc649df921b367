package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-allocation-backend/internal/model"
)

type createHostelRequest struct {
	Name    string `json:"name" binding:"required,max=128"`
	Gender  string `json:"gender" binding:"required,max=16"`
	Faculty string `json:"faculty" binding:"max=128"`
	Image   string `json:"image" binding:"max=256"`
}

// CreateHostel adds a hostel.
func (h *Handler) CreateHostel(c *gin.Context) {
	var req createHostelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	hostel := model.Hostel{Name: req.Name, Gender: req.Gender, Faculty: req.Faculty, Image: req.Image}
	if err := h.store.CreateHostel(c.Request.Context(), &hostel); err != nil {
		h.storeError(c, err)
		return
	}
	h.flushCache()
	c.JSON(http.StatusCreated, hostel)
}

// GetHostelDetail returns a hostel with every room and bunk.
func (h *Handler) GetHostelDetail(c *gin.Context) {
	hostelID, ok := idParam(c, "hostel_id")
	if !ok {
		return
	}
	detail, err := h.store.HostelDetail(c.Request.Context(), hostelID)
	if err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusOK, detail)
}

type createRoomRequest struct {
	RoomNumber string `json:"room_number" binding:"required,max=32"`
	Type       string `json:"type" binding:"max=32"`
	Capacity   int    `json:"capacity" binding:"required,gt=0"`
}

// CreateRoom adds a room to a hostel.
func (h *Handler) CreateRoom(c *gin.Context) {
	hostelID, ok := idParam(c, "hostel_id")
	if !ok {
		return
	}
	var req createRoomRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	room := model.Room{HostelID: hostelID, RoomNumber: req.RoomNumber, Type: req.Type, Capacity: req.Capacity}
	if err := h.store.CreateRoom(c.Request.Context(), &room); err != nil {
		h.storeError(c, err)
		return
	}
	h.flushCache()
	c.JSON(http.StatusCreated, room)
}

type createBunkRequest struct {
	Label string `json:"bunk_label" binding:"required"`
}

// CreateBunk adds a free bunk to a room.
func (h *Handler) CreateBunk(c *gin.Context) {
	roomID, ok := idParam(c, "room_id")
	if !ok {
		return
	}
	var req createBunkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	bunk := model.Bunk{RoomID: roomID, Label: req.Label}
	if err := h.store.CreateBunk(c.Request.Context(), &bunk); err != nil {
		h.storeError(c, err)
		return
	}
	h.flushCache()
	c.JSON(http.StatusCreated, bunk)
}

type createStudentRequest struct {
	MatricNo   string `json:"matric_no" binding:"required,max=32"`
	FullName   string `json:"full_name" binding:"required,max=128"`
	Nickname   string `json:"nickname" binding:"max=64"`
	Email      string `json:"email" binding:"required,email"`
	Department string `json:"department" binding:"max=128"`
}

// CreateStudent registers a student account record.
func (h *Handler) CreateStudent(c *gin.Context) {
	var req createStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	st := model.Student{
		MatricNo:   req.MatricNo,
		FullName:   req.FullName,
		Nickname:   req.Nickname,
		Email:      req.Email,
		Department: req.Department,
	}
	if err := h.store.CreateStudent(c.Request.Context(), &st); err != nil {
		h.storeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, st)
}

// GetDashboard returns the admin counters.
func (h *Handler) GetDashboard(c *gin.Context) {
	d, err := h.store.Dashboard(c.Request.Context())
	if err != nil {
		h.internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
