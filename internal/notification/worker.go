package notification

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-allocation-backend/internal/model"
)

// Decision describes an admin decision on one of a student's requests.
type Decision struct {
	StudentID int64               `json:"-"`
	Kind      string              `json:"kind"`
	RequestID int64               `json:"request_id"`
	Status    model.RequestStatus `json:"status"`
	Message   string              `json:"message"`
}

// NotificationSender defines the interface for sending a web push notification.
type NotificationSender interface {
	Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error)
}

// WebPushSender is a real implementation of NotificationSender using the webpush library.
type WebPushSender struct{}

// Send sends a notification using the webpush library.
func (s *WebPushSender) Send(payload []byte, sub *webpush.Subscription, options *webpush.Options) (*http.Response, error) {
	return webpush.SendNotification(payload, sub, options)
}

// WorkerPool delivers decision notices to students' push subscriptions.
type WorkerPool struct {
	size    int
	jobs    chan Decision
	db      *gorm.DB
	webpush *webpush.Options
	sender  NotificationSender
	log     *zap.Logger
}

// NewWorkerPool creates a new worker pool with a bounded job queue.
func NewWorkerPool(size, queueSize int, db *gorm.DB, webpushOptions *webpush.Options, log *zap.Logger) *WorkerPool {
	if log == nil {
		log = zap.NewNop()
	}
	return &WorkerPool{
		size:    size,
		jobs:    make(chan Decision, queueSize),
		db:      db,
		webpush: webpushOptions,
		sender:  &WebPushSender{},
		log:     log.Named("notification"),
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

func (wp *WorkerPool) worker(ctx context.Context, id int) {
	wp.log.Debug("worker started", zap.Int("worker", id))
	for {
		select {
		case d := <-wp.jobs:
			wp.notifyStudent(ctx, d)
		case <-ctx.Done():
			wp.log.Debug("worker shutting down", zap.Int("worker", id))
			return
		}
	}
}

// Dispatch queues a decision notice. When the queue is full the notice is
// dropped so that admin decisions never wait on push delivery.
func (wp *WorkerPool) Dispatch(d Decision) {
	select {
	case wp.jobs <- d:
	default:
		wp.log.Warn("notification queue full; dropping notice",
			zap.Int64("student_id", d.StudentID),
			zap.String("kind", d.Kind),
			zap.Int64("request_id", d.RequestID))
	}
}

func (wp *WorkerPool) notifyStudent(ctx context.Context, d Decision) {
	var subscriptions []model.PushSubscription
	if err := wp.db.WithContext(ctx).Where("student_id = ?", d.StudentID).Find(&subscriptions).Error; err != nil {
		wp.log.Error("failed to fetch subscriptions", zap.Int64("student_id", d.StudentID), zap.Error(err))
		return
	}
	if len(subscriptions) == 0 {
		return
	}

	payload, err := json.Marshal(d)
	if err != nil {
		wp.log.Error("failed to encode notice", zap.Error(err))
		return
	}

	wp.log.Info("sending decision notice",
		zap.Int64("student_id", d.StudentID),
		zap.String("kind", d.Kind),
		zap.Int("subscriptions", len(subscriptions)))
	for _, sub := range subscriptions {
		wp.sendNotification(ctx, sub, payload)
	}
}

// sendNotification sends a single web push notification and forgets
// subscriptions the push service reports as gone.
func (wp *WorkerPool) sendNotification(ctx context.Context, sub model.PushSubscription, payload []byte) {
	wpSub := &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256DH,
			Auth:   sub.Auth,
		},
	}

	resp, err := wp.sender.Send(payload, wpSub, wp.webpush)
	if err != nil {
		wp.log.Warn("failed to send notification", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone {
		wp.log.Info("subscription expired; deleting", zap.String("endpoint", sub.Endpoint))
		if err := wp.db.WithContext(ctx).Delete(&sub).Error; err != nil {
			wp.log.Error("failed to delete expired subscription", zap.String("endpoint", sub.Endpoint), zap.Error(err))
		}
	}
}
