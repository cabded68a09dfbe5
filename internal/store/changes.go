package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/quickmark/qrvault/internal/dbx"
	"github.com/quickmark/qrvault/internal/models"
)

// Op classifies a change-log entry.
type Op string

const (
	// OpUpsert covers inserts, saves and touches of a single record.
	OpUpsert Op = "upsert"
	// OpDelete covers removal of a single record.
	OpDelete Op = "delete"
	// OpPurge covers batch deletion of every record of a kind; RecordID
	// is empty for purge entries.
	OpPurge Op = "purge"
)

// Change describes one mutation of the store. Changes are appended to the
// persistent change log inside the mutating transaction and fanned out to
// subscribers after commit, so sync and search observe deltas without the
// facade calling them.
type Change struct {
	Seq      int64
	Kind     models.Kind
	Op       Op
	RecordID string
	At       time.Time
}

// LogChange appends ch to the change log. It must run on the same
// transaction as the mutation it describes.
func (s *Store) LogChange(ctx context.Context, tx dbx.DBTX, ch Change) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO change_log (kind, op, record_id, at) VALUES (?, ?, ?, ?)`,
		string(ch.Kind), string(ch.Op), ch.RecordID, ch.At.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to append change log: %w", err)
	}
	return nil
}

// ChangesSince returns change-log entries with seq strictly greater than
// after, oldest first. The sync engine uses it to replay local history past
// its cursor.
func (s *Store) ChangesSince(ctx context.Context, after int64) ([]Change, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, kind, op, record_id, at FROM change_log WHERE seq > ? ORDER BY seq`, after)
	if err != nil {
		return nil, fmt.Errorf("failed to select change log: %w", err)
	}
	defer rows.Close()

	var result []Change
	for rows.Next() {
		var ch Change
		var kind, op string
		var at int64
		if err := rows.Scan(&ch.Seq, &kind, &op, &ch.RecordID, &at); err != nil {
			return nil, err
		}
		ch.Kind = models.Kind(kind)
		ch.Op = Op(op)
		ch.At = time.Unix(0, at).UTC()
		result = append(result, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Notify fans ch out to all subscribers. Delivery is best-effort: a
// subscriber whose buffer is full misses the change (it can resynchronize
// from the change log).
func (s *Store) Notify(ch Change) {
	s.hub.publish(ch)
}

// Subscribe registers a change listener with the given buffer size and
// returns the channel plus a cancel function. The channel is closed on
// cancel and on store close.
func (s *Store) Subscribe(buffer int) (<-chan Change, func()) {
	return s.hub.subscribe(buffer)
}

// hub is the in-process change-notification fan-out.
type hub struct {
	mu     sync.Mutex
	subs   map[int]chan Change
	nextID int
	closed bool
}

func newHub() *hub {
	return &hub{subs: make(map[int]chan Change)}
}

func (h *hub) subscribe(buffer int) (<-chan Change, func()) {
	if buffer < 1 {
		buffer = 1
	}
	h.mu.Lock()
	defer h.mu.Unlock()

	ch := make(chan Change, buffer)
	if h.closed {
		close(ch)
		return ch, func() {}
	}

	id := h.nextID
	h.nextID++
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

func (h *hub) publish(ch Change) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for _, c := range h.subs {
		select {
		case c <- ch:
		default:
			// subscriber lagging, drop
		}
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, c := range h.subs {
		delete(h.subs, id)
		close(c)
	}
}
