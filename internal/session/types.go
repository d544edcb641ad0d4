// File path: internal/session/types.go
package session

import (
	"errors"
	"time"
)

// Assessment modes. A session can switch between them per clause; the
// recorded verdict is what counts either way.
const (
	ModeStructured = "structured"
	ModeOpenEnded  = "open_ended"
)

// ErrNotFound reports an unknown session id.
var ErrNotFound = errors.New("session not found")

// Session is one user's walk through the clause set.
type Session struct {
	ID        string    `db:"id" json:"id"`
	Mode      string    `db:"mode" json:"mode"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Position is the current location of a session inside one clause graph.
// Valid transitions are defined entirely by the clause engine; the store
// only persists what the engine returned.
type Position struct {
	SessionID string `db:"session_id" json:"-"`
	Clause    string `db:"clause" json:"clause"`
	Step      string `db:"step" json:"step"`
	Terminal  bool   `db:"terminal" json:"terminal"`
}

// Timestamps are persisted as RFC3339Nano text; lexicographic order matches
// chronological order, which the verdict queries rely on.
type sessionRow struct {
	ID        string `db:"id"`
	Mode      string `db:"mode"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

type verdictRow struct {
	SessionID string `db:"session_id"`
	Clause    string `db:"clause"`
	Payload   string `db:"payload"`
	Details   string `db:"details"`
	CreatedAt string `db:"created_at"`
}

type recordRow struct {
	SessionID string `db:"session_id"`
	Clause    string `db:"clause"`
	Body      string `db:"body"`
}
