package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

// IDGenerator produces unique, never reused identifiers.
type IDGenerator func() string

// Service handles the business logic for the whiteboard collection.
type Service struct {
	repo   Repository
	newID  IDGenerator
	logger *slog.Logger
	now    func() time.Time
	mu     sync.RWMutex
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithServiceLogger sets the logger used for degraded loads.
func WithServiceLogger(l *slog.Logger) ServiceOption {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithServiceClock overrides the time source.
func WithServiceClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(repo Repository, newID IDGenerator, opts ...ServiceOption) *Service {
	s := &Service{
		repo:   repo,
		newID:  newID,
		logger: slog.New(slog.DiscardHandler),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Repository exposes the underlying adapter.
func (s *Service) Repository() Repository {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.repo
}

// NewID returns a fresh identifier from the configured generator.
func (s *Service) NewID() string {
	return s.newID()
}

// Create validates the title and stores a new, empty whiteboard.
func (s *Service) Create(ctx context.Context, owner, title string) (Whiteboard, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return Whiteboard{}, fmt.Errorf("%w: whiteboard title cannot be empty", ErrValidation)
	}
	now := s.now()
	wb := Whiteboard{
		ID:        s.newID(),
		Owner:     owner,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
		Snapshot:  NewSnapshot(title).Touch(now),
	}
	if err := s.repo.Create(ctx, wb); err != nil {
		return Whiteboard{}, fmt.Errorf("%w: create %s: %w", ErrPersistence, title, err)
	}
	return wb, nil
}

// List returns the boards of owner, most recently modified first.
func (s *Service) List(ctx context.Context, owner string) ([]Whiteboard, error) {
	boards, err := s.repo.List(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("%w: list: %w", ErrPersistence, err)
	}
	sort.SliceStable(boards, func(i, j int) bool {
		if boards[i].UpdatedAt.Equal(boards[j].UpdatedAt) {
			return boards[i].ID < boards[j].ID
		}
		return boards[i].UpdatedAt.After(boards[j].UpdatedAt)
	})
	return boards, nil
}

// Get retrieves a whiteboard with its snapshot.
func (s *Service) Get(ctx context.Context, id string) (Whiteboard, error) {
	if id == "" {
		return Whiteboard{}, fmt.Errorf("%w: whiteboard ID cannot be empty", ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// Rename changes the title of a whiteboard.
func (s *Service) Rename(ctx context.Context, id, title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("%w: whiteboard title cannot be empty", ErrValidation)
	}
	if err := s.repo.Update(ctx, id, Update{Title: &title}); err != nil {
		return fmt.Errorf("%w: rename %s: %w", ErrPersistence, id, err)
	}
	return nil
}

// SaveSnapshot persists snap as the current state of board id.
func (s *Service) SaveSnapshot(ctx context.Context, id string, snap Snapshot) error {
	if err := s.repo.Update(ctx, id, Update{Snapshot: &snap}); err != nil {
		return fmt.Errorf("%w: save %s: %w", ErrPersistence, id, err)
	}
	return nil
}

// LoadSnapshot returns the last persisted snapshot of board id. A missing board
// or a malformed payload degrades to an empty snapshot; only I/O failures are
// reported.
func (s *Service) LoadSnapshot(ctx context.Context, id string) (Snapshot, error) {
	wb, err := s.repo.Get(ctx, id)
	switch {
	case err == nil:
		return wb.Snapshot, nil
	case errors.Is(err, ErrNotFound):
		s.logger.Debug("whiteboard not found, starting empty", "id", id)
		return NewSnapshot(""), nil
	case errors.Is(err, ErrMalformed):
		s.logger.Warn("stored whiteboard is malformed, starting empty", "id", id, "error", err)
		return NewSnapshot(wb.Title), nil
	default:
		return NewSnapshot(""), fmt.Errorf("%w: load %s: %w", ErrPersistence, id, err)
	}
}

// Delete removes a whiteboard. Deleting a missing board is a no-op.
func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: whiteboard ID cannot be empty", ErrValidation)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("%w: delete %s: %w", ErrPersistence, id, err)
	}
	return nil
}

// Watch observes changes in the repository if supported.
func (s *Service) Watch(ctx context.Context, pattern string) (<-chan Event, error) {
	w, ok := s.repo.(Watchable)
	if !ok {
		return nil, errors.New("repository does not support watching")
	}
	return w.Watch(ctx, pattern)
}
