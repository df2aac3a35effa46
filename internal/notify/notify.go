package notify

import (
	"context"
	"time"

	"github.com/sanpdy/pulse/internal/model"
)

// Content is the user-visible payload of one notification.
type Content struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// Service is the platform notification surface the core consumes.
type Service interface {
	// RequestPermission asks for notification authorization. Idempotent;
	// denial is a valid outcome, not an error.
	RequestPermission(ctx context.Context) (bool, error)

	// Schedule registers one notification to fire at the given instant and
	// returns an opaque handle for later cancellation.
	Schedule(ctx context.Context, content Content, at time.Time) (model.ReminderHandle, error)

	// Cancel drops a pending notification. Cancelling a handle that already
	// fired or was never scheduled is a no-op.
	Cancel(ctx context.Context, handle model.ReminderHandle) error
}
