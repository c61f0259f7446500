package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/locker-pass-manager/backend/internal/storage/models"
)

// DefaultListLimit caps ListByLocker when no limit is given.
const DefaultListLimit = 100

// EventRepository provides data access for the locker event journal.
type EventRepository struct {
	BaseRepository
}

// NewEventRepository creates a new event repository.
func NewEventRepository(db *DB) *EventRepository {
	return &EventRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Record appends ev to the journal, filling in its id and recorded time.
func (r *EventRepository) Record(ctx context.Context, ev *models.LockerEvent) error {
	ev.ID = GenerateID()
	ev.RecordedAt = r.Now()
	ev.OccurredAt = ev.OccurredAt.UTC()

	_, err := r.DB().NamedExecContext(ctx, `
		INSERT INTO locker_events (id, locker_id, kind, state, occurred_at, recorded_at)
		VALUES (:id, :locker_id, :kind, :state, :occurred_at, :recorded_at)
	`, ev)
	if err != nil {
		return fmt.Errorf("inserting locker event: %w", err)
	}

	return nil
}

// ListByLocker returns the newest events of a locker first.
func (r *EventRepository) ListByLocker(ctx context.Context, lockerID, limit int) ([]models.LockerEvent, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}

	events := []models.LockerEvent{}
	err := r.DB().SelectContext(ctx, &events, `
		SELECT id, locker_id, kind, state, occurred_at, recorded_at
		FROM locker_events
		WHERE locker_id = ?
		ORDER BY occurred_at DESC, id DESC
		LIMIT ?
	`, lockerID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying locker events: %w", err)
	}

	return events, nil
}

// PruneBefore deletes events that occurred before t and reports how many went.
func (r *EventRepository) PruneBefore(ctx context.Context, t time.Time) (int64, error) {
	res, err := r.DB().ExecContext(ctx, `DELETE FROM locker_events WHERE occurred_at < ?`, t.UTC())
	if err != nil {
		return 0, fmt.Errorf("pruning locker events: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting pruned events: %w", err)
	}
	return n, nil
}

// Count returns the number of journal rows.
func (r *EventRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.DB().GetContext(ctx, &n, `SELECT COUNT(*) FROM locker_events`); err != nil {
		return 0, fmt.Errorf("counting locker events: %w", err)
	}
	return n, nil
}
