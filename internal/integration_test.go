package internal

import (
	"bytes"
	"context"
	"crypto/ecdh"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/api"
	"hostel-allocation-backend/internal/dbtest"
	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/mw"
	"hostel-allocation-backend/internal/notification"
	"hostel-allocation-backend/internal/store"
	"hostel-allocation-backend/internal/workflow"
)

const (
	jwtSecret = "integration-secret-0123456789"
	jwtIssuer = "hostel-allocation"
)

// pushKeys returns a browser-style subscription key pair.
func pushKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()
	key, err := ecdh.P256().GenerateKey(rand.Reader)
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return base64.RawURLEncoding.EncodeToString(key.PublicKey().Bytes()),
		base64.RawURLEncoding.EncodeToString(secret)
}

type client struct {
	t      *testing.T
	router *gin.Engine
}

func (c client) call(method, path string, id int64, role string, body any) *httptest.ResponseRecorder {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "198.51.100.7:5000"
	req.Header.Set("Content-Type", "application/json")
	if role != "" {
		tok, err := mw.IssueToken(jwtSecret, jwtIssuer, role, id, time.Hour)
		require.NoError(c.t, err)
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	c.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// TestHostelLifecycle drives a student from booking through a swap and a
// cancellation over HTTP, with decision notices delivered to a push service.
func TestHostelLifecycle(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// --- Test Setup ---

	pushes := make(chan struct{}, 8)
	pushServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		w.WriteHeader(http.StatusCreated)
		pushes <- struct{}{}
	}))
	defer pushServer.Close()

	vapidPrivate, vapidPublic, err := webpush.GenerateVAPIDKeys()
	require.NoError(t, err)
	webpushOptions := &webpush.Options{
		VAPIDPublicKey:  vapidPublic,
		VAPIDPrivateKey: vapidPrivate,
		Subscriber:      "mailto:accommodation@example.edu",
		TTL:             60,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gormDB := dbtest.New(t)
	logger := zap.NewNop()

	pool := notification.NewWorkerPool(1, 8, gormDB, webpushOptions, logger)
	pool.Start(ctx)

	engine := allocation.NewEngine(gormDB, logger, allocation.Options{SyncBookings: true})
	svc := workflow.NewService(gormDB, engine, pool, logger)
	handler := api.NewHandler(store.NewGormStore(gormDB, store.Options{}), engine, svc, mw.NewResponseCache(time.Minute), webpushOptions, logger)
	router := api.NewRouter(handler, api.RouterConfig{
		RateLimitPerSec: 1000,
		RateLimitBurst:  1000,
		JWTSecret:       jwtSecret,
		JWTIssuer:       jwtIssuer,
	}, logger)
	c := client{t: t, router: router}

	const adminID = 1
	waitForPush := func(t *testing.T) {
		t.Helper()
		select {
		case <-pushes:
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for push notification")
		}
	}

	// --- Catalog ---

	var (
		hostel   model.Hostel
		roomA    model.Room
		roomB    model.Room
		bunkA1   model.Bunk
		student  model.Student
		swapID   int64
		cancelID int64
	)

	t.Run("Admin builds the catalog", func(t *testing.T) {
		w := c.call(http.MethodPost, "/api/admin/hostels", adminID, mw.RoleAdmin, gin.H{"name": "Queen Idia Hall", "gender": "female", "faculty": "Science"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		hostel = decode[model.Hostel](t, w)

		for _, number := range []string{"101", "102"} {
			w = c.call(http.MethodPost, fmt.Sprintf("/api/admin/hostels/%d/rooms", hostel.ID), adminID, mw.RoleAdmin, gin.H{"room_number": number, "capacity": 2})
			require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
			room := decode[model.Room](t, w)
			for _, label := range []string{"10", "2"} {
				w = c.call(http.MethodPost, fmt.Sprintf("/api/admin/rooms/%d/bunks", room.ID), adminID, mw.RoleAdmin, gin.H{"bunk_label": label})
				require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
				if number == "101" && label == "2" {
					bunkA1 = decode[model.Bunk](t, w)
				}
			}
			if number == "101" {
				roomA = room
			} else {
				roomB = room
			}
		}

		w = c.call(http.MethodPost, "/api/admin/students", adminID, mw.RoleAdmin, gin.H{"matric_no": "SCI/21/0042", "full_name": "Ngozi Eze", "nickname": "Ngo", "email": "Ngozi@Example.edu"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		student = decode[model.Student](t, w)
		assert.Equal(t, "ngozi@example.edu", student.Email)

		w = c.call(http.MethodGet, fmt.Sprintf("/api/rooms/%d/bunks", roomA.ID), 0, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		bunks := decode[[]store.BunkView](t, w)
		require.Len(t, bunks, 2)
		assert.Equal(t, "2", bunks[0].Label, "bunks are listed in natural order")
		assert.Equal(t, "10", bunks[1].Label)
	})

	// --- Booking ---

	t.Run("Student books a bunk and subscribes to push", func(t *testing.T) {
		w := c.call(http.MethodPost, "/api/student/bookings", student.ID, mw.RoleStudent, gin.H{"hostel_id": hostel.ID, "room_id": roomA.ID, "bunk_id": bunkA1.ID})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		p256dh, auth := pushKeys(t)
		w = c.call(http.MethodPut, "/api/student/subscriptions", student.ID, mw.RoleStudent, gin.H{"endpoint": pushServer.URL + "/push/1", "p256dh": p256dh, "auth": auth})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

		w = c.call(http.MethodGet, "/api/student/allocation", student.ID, mw.RoleStudent, nil)
		require.Equal(t, http.StatusOK, w.Code)
		a := decode[store.Allocation](t, w)
		assert.Equal(t, bunkA1.ID, a.BunkID)
		assert.Equal(t, "Queen Idia Hall", a.HostelName)
		require.NotNil(t, a.BookingID)
	})

	// --- Swap ---

	t.Run("Swap is submitted, approved and notified", func(t *testing.T) {
		w := c.call(http.MethodGet, fmt.Sprintf("/api/rooms/%d/bunks", roomB.ID), 0, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		target := decode[[]store.BunkView](t, w)[1]

		w = c.call(http.MethodPost, "/api/student/swap-requests", student.ID, mw.RoleStudent, gin.H{"requested_room_id": roomB.ID, "requested_bunk_id": target.ID, "reason": "Roommate snores"})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		res := decode[allocation.Result](t, w)
		require.NotNil(t, res.RequestID)
		swapID = *res.RequestID

		w = c.call(http.MethodPost, fmt.Sprintf("/api/admin/swap-requests/%d/approve", swapID), adminID, mw.RoleAdmin, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		waitForPush(t)

		w = c.call(http.MethodGet, "/api/student/allocation", student.ID, mw.RoleStudent, nil)
		require.Equal(t, http.StatusOK, w.Code)
		a := decode[store.Allocation](t, w)
		assert.Equal(t, roomB.ID, a.RoomID)
		assert.Equal(t, "10", a.BunkLabel, "approval assigns the lowest free bunk id in the room")

		w = c.call(http.MethodGet, "/api/student/bookings", student.ID, mw.RoleStudent, nil)
		require.Equal(t, http.StatusOK, w.Code)
		history := decode[[]store.BookingEntry](t, w)
		require.Len(t, history, 2)
		statuses := []model.BookingStatus{history[0].Status, history[1].Status}
		assert.ElementsMatch(t, []model.BookingStatus{model.BookingActive, model.BookingCompleted}, statuses)
	})

	// --- Cancellation ---

	t.Run("Cancellation is rejected, then approved", func(t *testing.T) {
		w := c.call(http.MethodPost, "/api/student/cancellation-requests", student.ID, mw.RoleStudent, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		cancelID = *decode[allocation.Result](t, w).RequestID

		w = c.call(http.MethodPost, fmt.Sprintf("/api/admin/cancellation-requests/%d/reject", cancelID), adminID, mw.RoleAdmin, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		waitForPush(t)

		w = c.call(http.MethodPost, "/api/student/cancellation-requests", student.ID, mw.RoleStudent, nil)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		cancelID = *decode[allocation.Result](t, w).RequestID

		w = c.call(http.MethodPost, fmt.Sprintf("/api/admin/cancellation-requests/%d/approve", cancelID), adminID, mw.RoleAdmin, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		waitForPush(t)

		w = c.call(http.MethodGet, "/api/student/allocation", student.ID, mw.RoleStudent, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	// --- Final state ---

	t.Run("Feed and dashboard reflect every decision", func(t *testing.T) {
		w := c.call(http.MethodGet, "/api/student/notifications", student.ID, mw.RoleStudent, nil)
		require.Equal(t, http.StatusOK, w.Code)
		feed := decode[store.NotificationFeed](t, w)
		assert.Len(t, feed.Items, 3)
		assert.Zero(t, feed.Pending)

		w = c.call(http.MethodGet, "/api/admin/dashboard", adminID, mw.RoleAdmin, nil)
		require.Equal(t, http.StatusOK, w.Code)
		d := decode[store.Dashboard](t, w)
		assert.Equal(t, int64(1), d.Hostels)
		assert.Equal(t, int64(4), d.Bunks)
		assert.Equal(t, int64(4), d.FreeBunks)
		assert.Zero(t, d.PendingSwaps)
		assert.Zero(t, d.PendingCancellations)

		var bunkCount int64
		require.NoError(t, gormDB.Model(&model.Bunk{}).Where("occupied_by = ?", student.ID).Count(&bunkCount).Error)
		assert.Zero(t, bunkCount)
	})
}
