// Package sqlite stores whiteboards in a single SQLite database, one row per
// board with the element array kept as JSON.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/introspection"
	_ "modernc.org/sqlite"

	"github.com/aretw0/easel/pkg/core"
)

// DefaultFile is the database file name used inside a board directory.
const DefaultFile = "easel.db"

const schema = `
CREATE TABLE IF NOT EXISTS whiteboards (
	id         TEXT PRIMARY KEY,
	owner      TEXT NOT NULL DEFAULT '',
	title      TEXT NOT NULL,
	elements   TEXT NOT NULL DEFAULT '{"elements":[]}',
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_whiteboards_owner ON whiteboards(owner, updated_at DESC);
`

// Config holds the configuration for the SQLite repository.
type Config struct {
	// Path is the database file, or ":memory:".
	Path        string
	MustExist   bool
	ReadOnly    bool
	BusyTimeout time.Duration
	Logger      *slog.Logger
}

// Repository implements core.Repository on SQLite.
type Repository struct {
	config Config
	logger *slog.Logger

	mu sync.RWMutex
	db *sql.DB
}

// NewRepository creates a repository. The database is opened by Initialize.
func NewRepository(config Config) *Repository {
	if config.BusyTimeout == 0 {
		config.BusyTimeout = 10 * time.Second
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{config: config, logger: logger}
}

// Initialize opens the database, applies pragmas and creates the schema.
func (r *Repository) Initialize(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return nil
	}

	path := r.config.Path
	memory := path == ":memory:"
	if !memory {
		if _, err := os.Stat(path); os.IsNotExist(err) && (r.config.MustExist || r.config.ReadOnly) {
			return fmt.Errorf("database does not exist: %s", path)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		fmt.Sprintf("PRAGMA busy_timeout = %d", r.config.BusyTimeout.Milliseconds()),
		"PRAGMA synchronous = NORMAL",
	}
	if r.config.ReadOnly {
		pragmas = append(pragmas, "PRAGMA query_only = ON")
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			db.Close()
			return fmt.Errorf("failed to apply %s: %w", p, err)
		}
	}
	if !r.config.ReadOnly {
		if _, err := db.ExecContext(ctx, schema); err != nil {
			db.Close()
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	r.db = db
	r.logger.Debug("sqlite repository ready", "path", path)
	return nil
}

// Close releases the database handle.
func (r *Repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db == nil {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

func (r *Repository) handle() (*sql.DB, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.db == nil {
		return nil, errors.New("sqlite repository is not initialized")
	}
	return r.db, nil
}

func (r *Repository) writable() (*sql.DB, error) {
	if r.config.ReadOnly {
		return nil, core.ErrReadOnly
	}
	return r.handle()
}

// Create inserts a new board row.
func (r *Repository) Create(ctx context.Context, wb core.Whiteboard) error {
	db, err := r.writable()
	if err != nil {
		return err
	}
	if wb.ID == "" {
		return fmt.Errorf("%w: whiteboard ID cannot be empty", core.ErrValidation)
	}
	elems, err := wb.Snapshot.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to encode elements: %w", err)
	}
	_, err = db.ExecContext(ctx,
		`INSERT INTO whiteboards (id, owner, title, elements, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		wb.ID, wb.Owner, wb.Title, string(elems), wb.CreatedAt.UnixNano(), wb.UpdatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to insert whiteboard %s: %w", wb.ID, err)
	}
	return nil
}

// Get loads one board. Undecodable elements yield the header together with an
// error wrapping core.ErrMalformed.
func (r *Repository) Get(ctx context.Context, id string) (core.Whiteboard, error) {
	db, err := r.handle()
	if err != nil {
		return core.Whiteboard{}, err
	}
	var (
		wb               core.Whiteboard
		elems            string
		created, updated int64
	)
	err = db.QueryRowContext(ctx,
		`SELECT id, owner, title, elements, created_at, updated_at FROM whiteboards WHERE id = ?`, id).
		Scan(&wb.ID, &wb.Owner, &wb.Title, &elems, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Whiteboard{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	if err != nil {
		return core.Whiteboard{}, fmt.Errorf("failed to query whiteboard %s: %w", id, err)
	}
	wb.CreatedAt = time.Unix(0, created).UTC()
	wb.UpdatedAt = time.Unix(0, updated).UTC()

	snap := core.NewSnapshot(wb.Title).Touch(wb.UpdatedAt)
	if err := snap.UnmarshalJSON([]byte(elems)); err != nil {
		wb.Snapshot = core.NewSnapshot(wb.Title).Touch(wb.UpdatedAt)
		return wb, fmt.Errorf("%w: board %s: %w", core.ErrMalformed, id, err)
	}
	wb.Snapshot = snap
	return wb, nil
}

// Update rewrites the title and/or elements of an existing board.
func (r *Repository) Update(ctx context.Context, id string, u core.Update) error {
	db, err := r.writable()
	if err != nil {
		return err
	}

	updated := time.Now()
	sets := []string{}
	var args []any
	if u.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *u.Title)
	}
	if u.Snapshot != nil {
		elems, err := u.Snapshot.MarshalJSON()
		if err != nil {
			return fmt.Errorf("failed to encode elements: %w", err)
		}
		sets = append(sets, "elements = ?")
		args = append(args, string(elems))
		if t := u.Snapshot.LastModified(); !t.IsZero() {
			updated = t
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updated.UnixNano(), id)

	query := "UPDATE whiteboards SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update whiteboard %s: %w", id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}
	return nil
}

// Delete removes a board row. Deleting a missing board is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	db, err := r.writable()
	if err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `DELETE FROM whiteboards WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete whiteboard %s: %w", id, err)
	}
	return nil
}

// List returns board headers without decoding elements.
func (r *Repository) List(ctx context.Context, owner string) ([]core.Whiteboard, error) {
	db, err := r.handle()
	if err != nil {
		return nil, err
	}
	query := `SELECT id, owner, title, created_at, updated_at FROM whiteboards`
	var args []any
	if owner != "" {
		query += ` WHERE owner = ?`
		args = append(args, owner)
	}
	query += ` ORDER BY updated_at DESC, id`

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list whiteboards: %w", err)
	}
	defer rows.Close()

	var boards []core.Whiteboard
	for rows.Next() {
		var (
			wb               core.Whiteboard
			created, updated int64
		)
		if err := rows.Scan(&wb.ID, &wb.Owner, &wb.Title, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan whiteboard: %w", err)
		}
		wb.CreatedAt = time.Unix(0, created).UTC()
		wb.UpdatedAt = time.Unix(0, updated).UTC()
		boards = append(boards, wb)
	}
	return boards, rows.Err()
}

// RepositoryState exposes internal state for observability.
type RepositoryState struct {
	Path     string `json:"path"`
	Open     bool   `json:"open"`
	ReadOnly bool   `json:"read_only"`
	Boards   int    `json:"boards"`
}

// State implements introspection.Introspectable.
func (r *Repository) State() any {
	st := RepositoryState{Path: r.config.Path, ReadOnly: r.config.ReadOnly}
	db, err := r.handle()
	if err != nil {
		return st
	}
	st.Open = true
	_ = db.QueryRow(`SELECT COUNT(*) FROM whiteboards`).Scan(&st.Boards)
	return st
}

// ComponentType implements introspection.Component.
func (r *Repository) ComponentType() string {
	return "repository"
}

var _ core.Repository = (*Repository)(nil)
var _ introspection.Introspectable = (*Repository)(nil)
var _ introspection.Component = (*Repository)(nil)
