package api

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"go.uber.org/zap"

	"hostel-allocation-backend/internal/mw"
)

// RouterConfig carries the middleware settings.
type RouterConfig struct {
	RateLimitPerSec float64
	RateLimitBurst  int
	JWTSecret       string
	JWTIssuer       string
}

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, cfg RouterConfig, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.RequestLogger(log))

	r.GET("/healthz", h.Healthz)

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.RateLimitPerSec), cfg.RateLimitBurst)
	caching := func(c *gin.Context) { c.Next() }
	if h.cache != nil {
		caching = h.cache.Middleware()
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		api.GET("/hostels", caching, h.GetHostels)
		api.GET("/hostels/:hostel_id/rooms", caching, h.GetRooms)
		api.GET("/rooms/:room_id/bunks", caching, h.GetAvailableBunks)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	student := api.Group("/student")
	student.Use(mw.Identity(cfg.JWTSecret, cfg.JWTIssuer, mw.RoleStudent))
	{
		student.POST("/bookings", h.CreateBooking)
		student.GET("/bookings", h.GetBookings)
		student.GET("/allocation", h.GetAllocation)
		student.GET("/roommates", h.GetRoommates)
		student.POST("/swap-requests", h.SubmitSwap)
		student.POST("/cancellation-requests", h.SubmitCancellation)
		student.GET("/requests", h.GetRequests)
		student.GET("/notifications", h.GetNotifications)
		student.PUT("/ratings", h.PutRating)
		student.GET("/ratings", h.GetRatings)
		student.GET("/subscriptions", h.GetSubscription)
		student.PUT("/subscriptions", h.PutSubscription)
		student.DELETE("/subscriptions", h.DeleteSubscription)
	}

	admin := api.Group("/admin")
	admin.Use(mw.Identity(cfg.JWTSecret, cfg.JWTIssuer, mw.RoleAdmin))
	{
		admin.GET("/dashboard", h.GetDashboard)
		admin.POST("/hostels", h.CreateHostel)
		admin.GET("/hostels/:hostel_id", h.GetHostelDetail)
		admin.POST("/hostels/:hostel_id/rooms", h.CreateRoom)
		admin.POST("/rooms/:room_id/bunks", h.CreateBunk)
		admin.POST("/students", h.CreateStudent)
		admin.GET("/swap-requests", h.ListSwapRequests)
		admin.POST("/swap-requests/:request_id/:action", h.DecideSwap)
		admin.GET("/cancellation-requests", h.ListCancellationRequests)
		admin.POST("/cancellation-requests/:request_id/:action", h.DecideCancellation)
	}

	return r
}
