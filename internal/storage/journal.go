package storage

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/locker-pass-manager/backend/internal/locker"
	"github.com/locker-pass-manager/backend/internal/storage/models"
)

const journalWriteTimeout = 5 * time.Second

// JournalListener writes every locker event to the event journal.
// Write failures are logged; they never fail the locker transition.
type JournalListener struct {
	repo   *EventRepository
	logger *zap.SugaredLogger
}

// NewJournalListener creates a listener backed by repo.
func NewJournalListener(repo *EventRepository, logger *zap.SugaredLogger) *JournalListener {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &JournalListener{repo: repo, logger: logger}
}

// Notify implements locker.Listener.
func (j *JournalListener) Notify(ev locker.Event) {
	row := &models.LockerEvent{
		LockerID:   ev.LockerID,
		Kind:       string(ev.Kind),
		OccurredAt: ev.At,
	}
	if ev.Kind == locker.EventStateChanged {
		row.State = string(ev.State)
	}

	ctx, cancel := context.WithTimeout(context.Background(), journalWriteTimeout)
	defer cancel()
	if err := j.repo.Record(ctx, row); err != nil {
		j.logger.Errorw("failed to journal locker event", "locker_id", ev.LockerID, "kind", ev.Kind, "error", err)
	}
}
