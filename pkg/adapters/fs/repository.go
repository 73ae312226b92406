// Package fs stores whiteboards as one JSON or YAML file per board inside a
// directory, optionally versioned with git.
package fs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/aretw0/easel/pkg/codec"
	"github.com/aretw0/easel/pkg/core"
	"github.com/aretw0/easel/pkg/git"
)

// DefaultSystemDir holds the index cache and is ignored by git.
const DefaultSystemDir = ".easel"

// boardExts lists the file extensions read as boards, in lookup order.
var boardExts = []string{".json", ".yaml", ".yml"}

// Repository implements core.Repository using the filesystem and Git.
type Repository struct {
	Path       string
	git        *git.Client
	cache      *cache
	config     Config
	serializer codec.Serializer
	logger     *slog.Logger

	mu       sync.RWMutex
	watchers int
}

// Config holds the configuration for the filesystem repository.
type Config struct {
	Path      string
	AutoInit  bool
	Gitless   bool
	MustExist bool
	ReadOnly  bool
	Logger    *slog.Logger
	SystemDir string // e.g. ".easel"
	// Format selects the encoding of newly written boards: "json" (default) or "yaml".
	// Boards in the other format are still read and keep their format on update.
	Format string
	// ErrorHandler receives watcher failures that cannot be returned to a caller.
	ErrorHandler func(error)
}

// NewRepository creates a new filesystem-backed repository.
func NewRepository(config Config) (*Repository, error) {
	if config.SystemDir == "" {
		config.SystemDir = DefaultSystemDir
	}
	s, err := codec.For(config.Format)
	if err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Repository{
		Path:       config.Path,
		git:        git.NewClient(config.Path, config.SystemDir+".lock", logger),
		cache:      newCache(config.Path, config.SystemDir),
		config:     config,
		serializer: s,
		logger:     logger,
	}, nil
}

// Initialize performs the necessary setup for the repository (mkdir, git init).
func (r *Repository) Initialize(ctx context.Context) error {
	if r.config.MustExist || r.config.ReadOnly {
		info, err := os.Stat(r.Path)
		if os.IsNotExist(err) {
			return fmt.Errorf("board directory does not exist: %s", r.Path)
		}
		if err != nil {
			return err
		}
		if !info.IsDir() {
			return fmt.Errorf("board path is not a directory: %s", r.Path)
		}
	} else if err := os.MkdirAll(r.Path, 0755); err != nil {
		return fmt.Errorf("failed to create board directory: %w", err)
	}

	if r.config.Gitless || r.config.ReadOnly {
		return nil
	}

	if !git.IsInstalled() {
		return fmt.Errorf("git is not installed")
	}

	wasNewRepo := false
	if !r.git.IsRepo() {
		if !r.config.AutoInit {
			return fmt.Errorf("path is not a git repository: %s", r.Path)
		}
		if err := r.git.Init(); err != nil {
			return fmt.Errorf("failed to git init: %w", err)
		}
		wasNewRepo = true
	}

	mod, err := r.ensureIgnore()
	if err != nil {
		return fmt.Errorf("failed to ensure .gitignore: %w", err)
	}
	if mod && wasNewRepo {
		if err := r.git.Add(".gitignore"); err != nil {
			return fmt.Errorf("failed to add .gitignore: %w", err)
		}
		if err := r.git.Commit(fmt.Sprintf("chore: configure %s ignore", r.config.SystemDir)); err != nil {
			return fmt.Errorf("failed to commit .gitignore: %w", err)
		}
	}
	return nil
}

// ensureIgnore adds the system directory and lock file to .gitignore.
func (r *Repository) ensureIgnore() (bool, error) {
	ignorePath := filepath.Join(r.Path, ".gitignore")
	wanted := []string{r.config.SystemDir + "/", r.config.SystemDir + ".lock"}

	content, err := os.ReadFile(ignorePath)
	if err != nil && !os.IsNotExist(err) {
		return false, err
	}

	present := make(map[string]bool)
	for _, line := range strings.Split(string(content), "\n") {
		present[strings.TrimSpace(line)] = true
	}

	var missing []string
	for _, w := range wanted {
		if !present[w] {
			missing = append(missing, w)
		}
	}
	if len(missing) == 0 {
		return false, nil
	}

	f, err := os.OpenFile(ignorePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return false, err
	}
	defer f.Close()

	if len(content) > 0 && !strings.HasSuffix(string(content), "\n") {
		if _, err := f.WriteString("\n"); err != nil {
			return false, err
		}
	}
	if _, err := f.WriteString(strings.Join(missing, "\n") + "\n"); err != nil {
		return false, err
	}
	return true, nil
}

// Create writes a new board file and commits it.
func (r *Repository) Create(ctx context.Context, wb core.Whiteboard) error {
	if err := r.writable(); err != nil {
		return err
	}
	if err := validID(wb.ID); err != nil {
		return err
	}
	if _, _, ok := r.locate(wb.ID); ok {
		return fmt.Errorf("whiteboard %s already exists", wb.ID)
	}

	name := wb.ID + r.serializer.Ext()
	if err := r.write(name, r.serializer, wb); err != nil {
		return err
	}
	return r.commit(ctx, name, "create "+wb.ID)
}

// Get reads and decodes a board file.
//
// A file whose elements break an invariant still yields the stored header along
// with an error wrapping core.ErrMalformed.
func (r *Repository) Get(ctx context.Context, id string) (core.Whiteboard, error) {
	if err := validID(id); err != nil {
		return core.Whiteboard{}, err
	}
	name, s, ok := r.locate(id)
	if !ok {
		return core.Whiteboard{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
	}

	data, err := os.ReadFile(filepath.Join(r.Path, name))
	if err != nil {
		if os.IsNotExist(err) {
			return core.Whiteboard{}, fmt.Errorf("%w: %s", core.ErrNotFound, id)
		}
		return core.Whiteboard{}, fmt.Errorf("failed to read %s: %w", name, err)
	}

	doc, err := s.Decode(data)
	if err != nil {
		return core.Whiteboard{ID: id}, err
	}
	doc.ID = id
	return doc.Whiteboard()
}

// Update rewrites an existing board with the new title and/or snapshot.
// A malformed board can be overwritten; its stored header is kept.
func (r *Repository) Update(ctx context.Context, id string, u core.Update) error {
	if err := r.writable(); err != nil {
		return err
	}
	wb, err := r.Get(ctx, id)
	if err != nil && !errors.Is(err, core.ErrMalformed) {
		return err
	}
	name, s, _ := r.locate(id)

	if u.Title != nil {
		wb.Title = *u.Title
		wb.Snapshot = wb.Snapshot.WithTitle(*u.Title)
	}
	updated := time.Now()
	if u.Snapshot != nil {
		wb.Snapshot = u.Snapshot.WithTitle(wb.Title)
		if t := u.Snapshot.LastModified(); !t.IsZero() {
			updated = t
		}
	}
	wb.UpdatedAt = updated

	if err := r.write(name, s, wb); err != nil {
		return err
	}
	return r.commit(ctx, name, "update "+id)
}

// Delete removes a board file. A missing board is not an error.
func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.writable(); err != nil {
		return err
	}
	if err := validID(id); err != nil {
		return err
	}
	name, _, ok := r.locate(id)
	if !ok {
		return nil
	}
	defer r.cache.Delete(name)

	if r.config.Gitless {
		if err := os.Remove(filepath.Join(r.Path, name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove file: %w", err)
		}
		return nil
	}

	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := r.git.Rm(name); err != nil {
		return fmt.Errorf("failed to git rm: %w", err)
	}
	// Untracked files survive git rm.
	if err := os.Remove(filepath.Join(r.Path, name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove file: %w", err)
	}
	if err := r.git.Commit(changeReason(ctx, "delete "+id)); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

// List returns board headers, using the index cache to avoid decoding files
// whose mtime is unchanged. Unreadable files are skipped with a warning.
func (r *Repository) List(ctx context.Context, owner string) ([]core.Whiteboard, error) {
	if err := r.cache.Load(); err != nil {
		r.logger.Warn("index cache unavailable", "error", err)
	}

	entries, err := os.ReadDir(r.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read board directory: %w", err)
	}

	seen := make(map[string]bool)
	var boards []core.Whiteboard
	for _, d := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		name := d.Name()
		id, ok := boardID(name)
		if d.IsDir() || !ok {
			continue
		}
		info, err := d.Info()
		if err != nil {
			continue
		}
		seen[name] = true

		entry, hit := r.cache.Get(name, info.ModTime())
		if !hit {
			entry, err = r.readHeader(name, id)
			if err != nil {
				r.logger.Warn("skipping unreadable board", "file", name, "error", err)
				continue
			}
			entry.LastModified = info.ModTime()
			r.cache.Set(name, entry)
		}

		if owner != "" && entry.Owner != owner {
			continue
		}
		boards = append(boards, core.Whiteboard{
			ID:        entry.ID,
			Owner:     entry.Owner,
			Title:     entry.Title,
			CreatedAt: entry.CreatedAt,
			UpdatedAt: entry.UpdatedAt,
		})
	}

	r.cache.Prune(seen)
	if !r.config.ReadOnly {
		if err := r.cache.Save(); err != nil {
			r.logger.Warn("failed to save index cache", "error", err)
		}
	}
	return boards, nil
}

func (r *Repository) readHeader(name, id string) (*indexEntry, error) {
	s, err := codec.For(filepath.Ext(name))
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(r.Path, name))
	if err != nil {
		return nil, err
	}
	doc, err := s.Decode(data)
	if err != nil {
		return nil, err
	}
	return &indexEntry{
		ID:        id,
		Owner:     doc.Owner,
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.LastModified,
	}, nil
}

// locate finds the board file for id in any supported format.
func (r *Repository) locate(id string) (string, codec.Serializer, bool) {
	exts := append([]string{r.serializer.Ext()}, boardExts...)
	for _, ext := range exts {
		name := id + ext
		if _, err := os.Stat(filepath.Join(r.Path, name)); err == nil {
			s, err := codec.For(ext)
			if err != nil {
				continue
			}
			return name, s, true
		}
	}
	return id + r.serializer.Ext(), r.serializer, false
}

func (r *Repository) write(name string, s codec.Serializer, wb core.Whiteboard) error {
	data, err := s.Encode(codec.FromWhiteboard(wb))
	if err != nil {
		return fmt.Errorf("failed to serialize whiteboard: %w", err)
	}
	if err := writeFileAtomic(filepath.Join(r.Path, name), data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

func (r *Repository) commit(ctx context.Context, name, fallback string) error {
	if r.config.Gitless {
		return nil
	}
	unlock, err := r.git.Lock()
	if err != nil {
		return fmt.Errorf("failed to acquire git lock: %w", err)
	}
	defer unlock()

	if err := r.git.Add(name); err != nil {
		return fmt.Errorf("failed to git add: %w", err)
	}
	if err := r.git.Commit(changeReason(ctx, fallback)); err != nil {
		return fmt.Errorf("failed to git commit: %w", err)
	}
	return nil
}

func (r *Repository) writable() error {
	if r.config.ReadOnly {
		return core.ErrReadOnly
	}
	return nil
}

func changeReason(ctx context.Context, fallback string) string {
	if val, ok := ctx.Value(core.ChangeReasonKey).(string); ok && val != "" {
		return val
	}
	return fallback
}

// validID rejects ids that would escape the board directory or collide with
// hidden files.
func validID(id string) error {
	switch {
	case id == "":
		return fmt.Errorf("%w: whiteboard ID cannot be empty", core.ErrValidation)
	case strings.ContainsAny(id, `/\`) || strings.Contains(id, ".."):
		return fmt.Errorf("%w: whiteboard ID %q contains a path separator", core.ErrValidation, id)
	case strings.HasPrefix(id, "."):
		return fmt.Errorf("%w: whiteboard ID %q cannot start with a dot", core.ErrValidation, id)
	}
	return nil
}

// boardID maps a file name to its board id, rejecting temp and hidden files.
func boardID(name string) (string, bool) {
	if strings.HasPrefix(name, ".") || strings.HasPrefix(name, TempFilePrefix) {
		return "", false
	}
	ext := filepath.Ext(name)
	for _, e := range boardExts {
		if ext == e {
			return strings.TrimSuffix(name, ext), true
		}
	}
	return "", false
}
