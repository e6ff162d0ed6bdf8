package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const changeChannel = "habitforge_changes"

// ChangeEvent is one row-change notification emitted by the database
// triggers on chats and progress_logs.
type ChangeEvent struct {
	Table  string    `json:"table"`
	UserID uuid.UUID `json:"user_id"`
}

// Notifier fans LISTEN/NOTIFY change events out to per-owner subscribers so
// the presentation layer can refresh chat lists and progress without polling.
type Notifier struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	subs map[uuid.UUID]map[chan ChangeEvent]struct{}
}

// NewNotifier creates a notifier over the shared pool
func NewNotifier(pool *pgxpool.Pool) *Notifier {
	return &Notifier{
		pool: pool,
		subs: make(map[uuid.UUID]map[chan ChangeEvent]struct{}),
	}
}

// Run holds a dedicated connection on LISTEN and dispatches notifications
// until ctx is cancelled.
func (n *Notifier) Run(ctx context.Context) error {
	conn, err := n.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire listen connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+changeChannel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", changeChannel, err)
	}

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("failed waiting for notification: %w", err)
		}

		var event ChangeEvent
		if err := json.Unmarshal([]byte(notification.Payload), &event); err != nil {
			log.Warn().Err(err).Str("payload", notification.Payload).Msg("failed to decode change notification")
			continue
		}

		n.dispatch(event)
	}
}

// Subscribe returns a channel of change events for one owner and a cancel
// function that must be called when the subscriber goes away.
func (n *Notifier) Subscribe(owner uuid.UUID) (<-chan ChangeEvent, func()) {
	ch := make(chan ChangeEvent, 8)

	n.mu.Lock()
	if n.subs[owner] == nil {
		n.subs[owner] = make(map[chan ChangeEvent]struct{})
	}
	n.subs[owner][ch] = struct{}{}
	n.mu.Unlock()

	cancel := func() {
		n.mu.Lock()
		if set, ok := n.subs[owner]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(n.subs, owner)
			}
		}
		n.mu.Unlock()
	}

	return ch, cancel
}

func (n *Notifier) dispatch(event ChangeEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()

	for ch := range n.subs[event.UserID] {
		select {
		case ch <- event:
		default:
			// Slow subscriber; drop rather than block the listen loop.
		}
	}
}
