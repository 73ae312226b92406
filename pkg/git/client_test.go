package git

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestClient_Lock(t *testing.T) {
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, ".easel.lock", nil)

	unlock, err := client.Lock()
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}

	lockPath := filepath.Join(tmpDir, ".easel.lock")
	if _, err := os.Stat(lockPath); os.IsNotExist(err) {
		t.Error("Lock file not created")
	}

	// Contention: a second acquisition times out while the first is held.
	other := NewClient(tmpDir, ".easel.lock", nil)
	other.LockTimeout = 30 * time.Millisecond
	if _, err := other.Lock(); !errors.Is(err, ErrLockTimeout) {
		t.Errorf("expected ErrLockTimeout, got %v", err)
	}

	unlock()

	if _, err := os.Stat(lockPath); !os.IsNotExist(err) {
		t.Error("Lock file not removed after unlock")
	}
}

func TestClient_InitCommit(t *testing.T) {
	if !IsInstalled() {
		t.Skip("git not installed")
	}
	tmpDir := t.TempDir()
	client := NewClient(tmpDir, "", nil)

	if err := client.Init(); err != nil {
		t.Fatalf("Failed to init: %v", err)
	}
	if !client.IsRepo() {
		t.Fatal("expected a git work tree")
	}

	if err := os.WriteFile(filepath.Join(tmpDir, "b.json"), []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := client.Add("b.json"); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := client.Commit("feat(board): create b"); err != nil {
		t.Fatalf("Commit failed: %v", err)
	}
	// Nothing staged: no-op.
	if err := client.Commit("noop"); err != nil {
		t.Fatalf("empty Commit failed: %v", err)
	}

	log, err := client.Log(5)
	if err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if len(log) != 1 || log[0] != "feat(board): create b" {
		t.Errorf("unexpected log: %v", log)
	}
}
