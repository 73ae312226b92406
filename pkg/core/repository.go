package core

import (
	"context"
	"time"
)

// Whiteboard is one stored board: identity, ownership and its latest snapshot.
type Whiteboard struct {
	ID        string
	Owner     string
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time
	Snapshot  Snapshot
}

// Update carries the optional fields of a whiteboard update.
type Update struct {
	Snapshot *Snapshot
	Title    *string
}

// Repository defines the contract for storing whiteboards.
// Adhering to this interface allows the core to be independent of the
// underlying storage mechanism (Filesystem, Git, SQL, ...).
type Repository interface {
	// Initialize ensures the underlying storage is ready (directories, git init, schema).
	Initialize(ctx context.Context) error
	// List returns the boards of owner without decoding their elements.
	// An empty owner lists every board.
	List(ctx context.Context, owner string) ([]Whiteboard, error)
	// Create persists a new board. The ID must be unused.
	Create(ctx context.Context, wb Whiteboard) error
	// Get retrieves a board by ID. Missing boards yield ErrNotFound.
	Get(ctx context.Context, id string) (Whiteboard, error)
	// Update replaces the snapshot and/or title of an existing board.
	Update(ctx context.Context, id string, u Update) error
	// Delete removes a board. Deleting a missing board is not an error.
	Delete(ctx context.Context, id string) error
}

type contextKey string

// ChangeReasonKey is the context key for passing a change reason (commit message)
// to versioned adapters during Create/Update/Delete.
const ChangeReasonKey contextKey = "change_reason"

// Watchable is implemented by repositories that can report external changes.
type Watchable interface {
	Watch(ctx context.Context, pattern string) (<-chan Event, error)
}

// EventType represents the type of change in the store.
type EventType string

const (
	EventCreate EventType = "CREATE"
	EventModify EventType = "MODIFY"
	EventDelete EventType = "DELETE"
)

// Event represents a change to a stored whiteboard.
type Event struct {
	Type      EventType
	ID        string
	Timestamp int64 // Unix timestamp
}

// String implements fmt.Stringer.
func (e Event) String() string {
	return string(e.Type) + " " + e.ID
}
