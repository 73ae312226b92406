package core_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/easel/pkg/core"
)

// MockRepository implements core.Repository in memory.
// It deliberately does NOT implement core.Watchable to test fallback/errors.
type MockRepository struct {
	boards    map[string]core.Whiteboard
	malformed map[string]bool
	failGet   error
}

func NewMockRepository() *MockRepository {
	return &MockRepository{
		boards:    make(map[string]core.Whiteboard),
		malformed: make(map[string]bool),
	}
}

func (m *MockRepository) Initialize(ctx context.Context) error { return nil }

func (m *MockRepository) List(ctx context.Context, owner string) ([]core.Whiteboard, error) {
	var out []core.Whiteboard
	for _, wb := range m.boards {
		if owner == "" || wb.Owner == owner {
			out = append(out, wb)
		}
	}
	return out, nil
}

func (m *MockRepository) Create(ctx context.Context, wb core.Whiteboard) error {
	if _, ok := m.boards[wb.ID]; ok {
		return fmt.Errorf("duplicate id %s", wb.ID)
	}
	m.boards[wb.ID] = wb
	return nil
}

func (m *MockRepository) Get(ctx context.Context, id string) (core.Whiteboard, error) {
	if m.failGet != nil {
		return core.Whiteboard{}, m.failGet
	}
	wb, ok := m.boards[id]
	if !ok {
		return core.Whiteboard{}, core.ErrNotFound
	}
	if m.malformed[id] {
		wb.Snapshot = core.Snapshot{}
		return wb, fmt.Errorf("decode %s: %w", id, core.ErrMalformed)
	}
	return wb, nil
}

func (m *MockRepository) Update(ctx context.Context, id string, u core.Update) error {
	wb, ok := m.boards[id]
	if !ok {
		return core.ErrNotFound
	}
	if u.Title != nil {
		wb.Title = *u.Title
	}
	if u.Snapshot != nil {
		wb.Snapshot = *u.Snapshot
	}
	m.boards[id] = wb
	return nil
}

func (m *MockRepository) Delete(ctx context.Context, id string) error {
	delete(m.boards, id)
	return nil
}

func sequentialIDs() core.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("wb-%d", n)
	}
}

func TestService_CRUD(t *testing.T) {
	repo := NewMockRepository()
	service := core.NewService(repo, sequentialIDs())
	ctx := context.TODO()

	// 1. Create
	wb, err := service.Create(ctx, "alice", "  Roadmap ")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if wb.ID != "wb-1" || wb.Title != "Roadmap" {
		t.Errorf("unexpected board: %+v", wb)
	}
	if wb.Snapshot.Len() != 0 {
		t.Errorf("expected empty snapshot, got %d elements", wb.Snapshot.Len())
	}

	// 2. Save + Load
	snap, err := core.NewSnapshot("Roadmap").Apply(core.Insert{Element: core.Element{ID: "e1", Kind: core.KindRectangle, X: 1, Y: 2}})
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if err := service.SaveSnapshot(ctx, wb.ID, snap); err != nil {
		t.Fatalf("SaveSnapshot failed: %v", err)
	}
	loaded, err := service.LoadSnapshot(ctx, wb.ID)
	if err != nil {
		t.Fatalf("LoadSnapshot failed: %v", err)
	}
	if !loaded.Equal(snap) {
		t.Errorf("loaded snapshot differs from saved one")
	}

	// 3. Rename + List
	if err := service.Rename(ctx, wb.ID, "Q3 Roadmap"); err != nil {
		t.Fatalf("Rename failed: %v", err)
	}
	_, _ = service.Create(ctx, "bob", "Other")
	boards, err := service.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(boards) != 1 || boards[0].Title != "Q3 Roadmap" {
		t.Errorf("unexpected list: %+v", boards)
	}

	// 4. Delete (twice: second is a no-op)
	if err := service.Delete(ctx, wb.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := service.Delete(ctx, wb.ID); err != nil {
		t.Fatalf("second Delete should be a no-op, got %v", err)
	}
	if _, err := service.Get(ctx, wb.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound after deletion, got %v", err)
	}
}

func TestService_Create_EmptyTitle(t *testing.T) {
	repo := NewMockRepository()
	service := core.NewService(repo, sequentialIDs())

	_, err := service.Create(context.TODO(), "alice", "   ")
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if len(repo.boards) != 0 {
		t.Errorf("validation failure must not change state")
	}
}

func TestService_LoadSnapshot_Degrades(t *testing.T) {
	ctx := context.TODO()

	t.Run("Missing Board", func(t *testing.T) {
		service := core.NewService(NewMockRepository(), sequentialIDs())
		snap, err := service.LoadSnapshot(ctx, "nope")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if snap.Len() != 0 {
			t.Errorf("expected empty snapshot")
		}
	})

	t.Run("Malformed Payload", func(t *testing.T) {
		repo := NewMockRepository()
		service := core.NewService(repo, sequentialIDs())
		wb, _ := service.Create(ctx, "", "Broken")
		repo.malformed[wb.ID] = true

		snap, err := service.LoadSnapshot(ctx, wb.ID)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if snap.Len() != 0 || snap.Title() != "Broken" {
			t.Errorf("expected empty snapshot titled Broken, got %d elements %q", snap.Len(), snap.Title())
		}
	})

	t.Run("IO Failure Is Reported", func(t *testing.T) {
		repo := NewMockRepository()
		repo.failGet = errors.New("disk on fire")
		service := core.NewService(repo, sequentialIDs())

		_, err := service.LoadSnapshot(ctx, "x")
		if !errors.Is(err, core.ErrPersistence) {
			t.Fatalf("expected ErrPersistence, got %v", err)
		}
	})
}

func TestService_List_OrdersByRecency(t *testing.T) {
	repo := NewMockRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	service := core.NewService(repo, sequentialIDs(), core.WithServiceClock(func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}))
	ctx := context.TODO()

	_, _ = service.Create(ctx, "alice", "Old")
	_, _ = service.Create(ctx, "alice", "New")

	boards, err := service.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(boards) != 2 || boards[0].Title != "New" || boards[1].Title != "Old" {
		t.Errorf("expected New before Old, got %+v", boards)
	}
}

func TestService_Watch_Unsupported(t *testing.T) {
	service := core.NewService(NewMockRepository(), sequentialIDs())

	_, err := service.Watch(context.TODO(), "*")
	if err == nil {
		t.Fatal("expected error for non-watchable repo")
	}
	if err.Error() != "repository does not support watching" {
		t.Errorf("unexpected error msg: %v", err)
	}
}
