// Package credentials tracks pre-authorized (id, key) tuples announced by
// the credential issuer over Postgres LISTEN/NOTIFY, and consumes them
// during connection handshake (§6).
package credentials

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Announcement is one pre-authorized (id, key) tuple.
type Announcement struct {
	ID  int64
	Key [32]byte
}

type wireAnnouncement struct {
	ID  int64  `json:"id"`
	Key string `json:"key"`
}

// Store holds pending announcements awaiting a connection's handshake. A
// key is removed the moment it matches a handshake frame, so it can never
// pair a second connection (a stale or replayed key then simply fails to
// decrypt against anything left in the store).
type Store struct {
	mu      sync.Mutex
	pending map[int64][32]byte
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{pending: make(map[int64][32]byte)}
}

// Add registers a.
func (s *Store) Add(a Announcement) {
	s.mu.Lock()
	s.pending[a.ID] = a.Key
	s.mu.Unlock()
}

// TryConsume calls open with each pending key until one produces a
// plaintext accepted by valid, then removes and returns that entry. It
// returns ok=false if no pending key matches.
func (s *Store) TryConsume(open func(key [32]byte) ([]byte, error), valid func([]byte) bool) (id int64, key [32]byte, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for candidateID, candidateKey := range s.pending {
		plaintext, err := open(candidateKey)
		if err != nil || !valid(plaintext) {
			continue
		}
		delete(s.pending, candidateID)
		return candidateID, candidateKey, true
	}
	return 0, [32]byte{}, false
}

// Len reports the number of pending, unconsumed announcements.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Listen subscribes to LISTEN <channel> on a dedicated pool connection and
// forwards every decoded Announcement into store until ctx is cancelled or
// the connection errors.
func Listen(ctx context.Context, pool *pgxpool.Pool, channel string, store *Store, log *slog.Logger) error {
	if log == nil {
		log = slog.Default()
	}
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("credentials: acquire listen connection: %w", err)
	}
	defer conn.Release()

	listenStmt := fmt.Sprintf("LISTEN %s", (pgx.Identifier{channel}).Sanitize())
	if _, err := conn.Exec(ctx, listenStmt); err != nil {
		return fmt.Errorf("credentials: listen %s: %w", channel, err)
	}
	log.Info("credentials: listening for announcements", "channel", channel)

	for {
		notification, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			return fmt.Errorf("credentials: wait for notification: %w", err)
		}
		var wa wireAnnouncement
		if err := json.Unmarshal([]byte(notification.Payload), &wa); err != nil {
			log.Warn("credentials: malformed notification payload", "error", err)
			continue
		}
		keyBytes, err := base64.StdEncoding.DecodeString(wa.Key)
		if err != nil || len(keyBytes) != 32 {
			log.Warn("credentials: malformed key in notification", "id", wa.ID)
			continue
		}
		var key [32]byte
		copy(key[:], keyBytes)
		store.Add(Announcement{ID: wa.ID, Key: key})
	}
}
