package websocket

import (
	"github.com/locker-pass-manager/backend/internal/locker"
)

// Broadcaster is a locker.Listener publishing events to the hub.
type Broadcaster struct {
	hub *Hub
}

// NewBroadcaster creates a new event broadcaster.
func NewBroadcaster(hub *Hub) *Broadcaster {
	return &Broadcaster{hub: hub}
}

// Notify implements locker.Listener.
func (b *Broadcaster) Notify(ev locker.Event) {
	var msg Message
	switch ev.Kind {
	case locker.EventStateChanged:
		msg = NewMessage(TypeLockerStateChanged, LockerStatePayload{
			LockerID:  ev.LockerID,
			State:     string(ev.State),
			ChangedAt: ev.At,
		})
	case locker.EventPasswordChanged:
		msg = NewMessage(TypeLockerPasswordChanged, LockerPasswordPayload{
			LockerID:  ev.LockerID,
			ChangedAt: ev.At,
		})
	default:
		return
	}

	data, err := msg.JSON()
	if err != nil {
		b.hub.logger.Errorw("failed to marshal websocket message", "type", msg.Type, "error", err)
		return
	}
	b.hub.Publish(ev.LockerID, data)
}

// Reset tells every client, subscribed or not, that all lockers and
// cabinets were dropped.
func (b *Broadcaster) Reset() {
	data, err := NewMessage(TypeLockersReset, nil).JSON()
	if err != nil {
		b.hub.logger.Errorw("failed to marshal websocket message", "type", TypeLockersReset, "error", err)
		return
	}
	b.hub.Broadcast(data)
}
