package easel

import (
	"context"
	"log/slog"
	"time"

	"github.com/aretw0/easel/internal/platform"
	"github.com/aretw0/easel/pkg/board"
	"github.com/aretw0/easel/pkg/core"
)

// --- Types ---

// Service is the whiteboard collection service.
type Service = core.Service

// Board is an open editing session with autosave.
type Board = board.Board

// Snapshot is an immutable view of a whiteboard's elements.
type Snapshot = core.Snapshot

// Element is one shape, note, line, text or stroke on a board.
type Element = core.Element

// --- Configuration ---

// Option defines a functional option for configuring easel.
type Option = platform.Option

// WithAutoInit enables automatic initialization of the store (creates directory and git init).
func WithAutoInit(auto bool) Option {
	return platform.WithAutoInit(auto)
}

// WithVersioning enables or disables version control (e.g. Git).
func WithVersioning(enabled bool) Option {
	return platform.WithVersioning(enabled)
}

// WithForceTemp forces the use of a temporary directory (useful for testing).
func WithForceTemp(force bool) Option {
	return platform.WithForceTemp(force)
}

// WithMustExist ensures the store must already exist.
func WithMustExist(must bool) Option {
	return platform.WithMustExist(must)
}

// WithLogger sets the logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return platform.WithLogger(logger)
}

// WithRepository allows injecting a custom storage adapter.
func WithRepository(repo core.Repository) Option {
	return platform.WithRepository(repo)
}

// WithAdapter selects the storage adapter by name ("fs" or "sqlite").
func WithAdapter(name string) Option {
	return platform.WithAdapter(name)
}

// WithSystemDir sets the hidden directory name (e.g. ".easel").
func WithSystemDir(name string) Option {
	return platform.WithSystemDir(name)
}

// WithFormat selects the board file format ("json" or "yaml").
func WithFormat(format string) Option {
	return platform.WithFormat(format)
}

// WithReadOnly opens the store without allowing writes.
func WithReadOnly(enabled bool) Option {
	return platform.WithReadOnly(enabled)
}

// WithDevSafety controls the `go run` sandbox.
func WithDevSafety(enabled bool) Option {
	return platform.WithDevSafety(enabled)
}

// WithWatcherErrorHandler receives errors from the watch loop.
func WithWatcherErrorHandler(fn func(error)) Option {
	return platform.WithWatcherErrorHandler(fn)
}

// WithIDGenerator sets the source of board and element ids.
func WithIDGenerator(gen core.IDGenerator) Option {
	return platform.WithIDGenerator(gen)
}

// WithAutosaveDelay sets the debounce window of board sessions.
func WithAutosaveDelay(d time.Duration) Option {
	return platform.WithAutosaveDelay(d)
}

// --- Factory ---

// New creates a new whiteboard Service.
func New(path string, opts ...Option) (*core.Service, error) {
	return platform.New(path, opts...)
}

// Init initializes a repository explicitly.
func Init(path string, opts ...Option) (core.Repository, error) {
	return platform.Init(path, opts...)
}

// Open starts an editing session on board id.
func Open(ctx context.Context, svc *core.Service, id string, opts ...Option) (*board.Board, error) {
	return platform.OpenBoard(ctx, svc, id, opts...)
}

// Export renders board id as a bare element array and returns a file name
// derived from its title.
func Export(ctx context.Context, svc *core.Service, id, format string) ([]byte, string, error) {
	return platform.Export(ctx, svc, id, format)
}

// Close releases resources held by the service's repository.
func Close(svc *core.Service) error {
	return platform.Close(svc)
}

// --- Safety & Utils ---

// ResolvePath determines the actual store path based on safety rules.
func ResolvePath(userPath string, forceTemp bool) string {
	return platform.ResolvePath(userPath, forceTemp)
}

// IsDevRun checks if the current process is running via `go run` or `go test`.
func IsDevRun() bool {
	return platform.IsDevRun()
}

// FindRoot recursively looks upwards for a store root indicator.
func FindRoot(startDir string) (string, error) {
	return platform.FindRoot(startDir)
}

// --- Semantic Commits ---

const (
	CommitTypeFeat     = platform.CommitTypeFeat
	CommitTypeFix      = platform.CommitTypeFix
	CommitTypeDocs     = platform.CommitTypeDocs
	CommitTypeRefactor = platform.CommitTypeRefactor
	CommitTypeChore    = platform.CommitTypeChore
)

// FormatChangeReason builds a Conventional Commit message.
func FormatChangeReason(ctype, scope, subject, body string) string {
	return platform.FormatChangeReason(ctype, scope, subject, body)
}

// WithChangeReason attaches a commit message to ctx for versioned stores.
func WithChangeReason(ctx context.Context, reason string) context.Context {
	return context.WithValue(ctx, core.ChangeReasonKey, reason)
}
