package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"almoxarife/internal/domain"
	"almoxarife/internal/store"
)

// Emitter creates notifications inside the caller's unit of work, so they
// commit or roll back together with the mutation that produced them.
type Emitter struct {
	now   func() time.Time
	newID func() string
}

func NewEmitter() *Emitter {
	return &Emitter{
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Emit stores an unread notification; the feed shows it first.
func (e *Emitter) Emit(ctx context.Context, repo store.NotificationRepository, message string, linkTo string) (domain.Notification, error) {
	n := domain.Notification{
		ID:        e.newID(),
		Message:   message,
		Read:      false,
		CreatedAt: e.now().UTC(),
		LinkTo:    linkTo,
	}
	if err := repo.Insert(ctx, n); err != nil {
		return domain.Notification{}, fmt.Errorf("inserting notification: %w", err)
	}
	return n, nil
}

func (e *Emitter) EmitEvents(ctx context.Context, repo store.NotificationRepository, events []domain.Event) error {
	for _, ev := range events {
		if _, err := e.Emit(ctx, repo, ev.Message, ev.LinkTo); err != nil {
			return err
		}
	}
	return nil
}
