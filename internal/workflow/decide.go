package workflow

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"hostel-allocation-backend/internal/allocation"
	"hostel-allocation-backend/internal/model"
	"hostel-allocation-backend/internal/notification"
)

// Action is an admin decision on a pending request.
type Action string

const (
	Approve Action = "approve"
	Reject  Action = "reject"
)

// ParseAction accepts "approve" or "reject" in any case.
func ParseAction(s string) (Action, error) {
	switch a := Action(strings.ToLower(strings.TrimSpace(s))); a {
	case Approve, Reject:
		return a, nil
	default:
		return "", fmt.Errorf("unknown action %q", s)
	}
}

const (
	kindSwap         = "swap"
	kindCancellation = "cancellation"
)

// DecideSwap applies an admin decision to a swap request and notifies the
// student when the request reached a terminal state.
func (s *Service) DecideSwap(ctx context.Context, adminID, requestID int64, action Action) (allocation.Result, error) {
	var res allocation.Result
	var err error
	switch action {
	case Approve:
		res, err = s.engine.ApproveSwap(ctx, adminID, requestID)
	case Reject:
		res, err = s.engine.RejectSwap(ctx, adminID, requestID)
	default:
		return allocation.Result{}, fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		return allocation.Result{}, err
	}

	// An auto-rejected swap is terminal too.
	if res.OK || res.Outcome == allocation.NoActiveAllocation {
		s.notify(ctx, kindSwap, &model.SwapRequest{}, requestID, res)
	}
	return res, nil
}

// DecideCancellation applies an admin decision to a cancellation request.
func (s *Service) DecideCancellation(ctx context.Context, adminID, requestID int64, action Action) (allocation.Result, error) {
	var res allocation.Result
	var err error
	switch action {
	case Approve:
		res, err = s.engine.ApproveCancellation(ctx, adminID, requestID)
	case Reject:
		res, err = s.engine.RejectCancellation(ctx, adminID, requestID)
	default:
		return allocation.Result{}, fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		return allocation.Result{}, err
	}

	if res.OK {
		s.notify(ctx, kindCancellation, &model.CancellationRequest{}, requestID, res)
	}
	return res, nil
}

// decidedRequest is the slice of a request row a notice needs.
type decidedRequest struct {
	StudentID int64
	Status    model.RequestStatus
}

func (s *Service) notify(ctx context.Context, kind string, table any, requestID int64, res allocation.Result) {
	if s.notifier == nil {
		return
	}

	var row decidedRequest
	err := s.db.WithContext(ctx).Model(table).
		Select("student_id", "status").
		Where("id = ?", requestID).
		Take(&row).Error
	if err != nil {
		s.log.Warn("failed to load decided request for notice",
			zap.String("kind", kind),
			zap.Int64("request_id", requestID),
			zap.Error(err))
		return
	}

	s.notifier.Dispatch(notification.Decision{
		StudentID: row.StudentID,
		Kind:      kind,
		RequestID: requestID,
		Status:    row.Status,
		Message:   res.Message,
	})
}
