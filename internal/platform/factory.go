package platform

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/easel/pkg/adapters/fs"
	"github.com/aretw0/easel/pkg/adapters/sqlite"
	"github.com/aretw0/easel/pkg/board"
	"github.com/aretw0/easel/pkg/canvas"
	"github.com/aretw0/easel/pkg/codec"
	"github.com/aretw0/easel/pkg/core"
	"github.com/aretw0/easel/pkg/idgen"
)

// New creates the whiteboard collection service for uri.
//
//	svc, err := easel.New("./boards", easel.WithVersioning(false))
//
// The uri is adapter-specific: a directory for "fs", a database file (or a
// directory holding easel.db) for "sqlite".
func New(uri string, opts ...Option) (*core.Service, error) {
	repo, err := Init(uri, opts...)
	if err != nil {
		return nil, err
	}

	o := apply(opts)
	gen := o.idGenerator
	if gen == nil {
		gen = idgen.Default
	}
	svcOpts := []core.ServiceOption{}
	if o.logger != nil {
		svcOpts = append(svcOpts, core.WithServiceLogger(o.logger))
	}
	return core.NewService(repo, gen, svcOpts...), nil
}

// Init builds and initializes the repository selected by the options.
func Init(uri string, opts ...Option) (core.Repository, error) {
	o := apply(opts)

	if o.repository != nil {
		return o.repository, nil
	}

	var repo core.Repository
	var err error
	switch o.adapter {
	case "fs", "":
		repo, err = initFS(uri, o)
	case "sqlite":
		repo, err = initSQLite(uri, o)
	default:
		return nil, fmt.Errorf("%w: unknown adapter: %s", core.ErrValidation, o.adapter)
	}
	if err != nil {
		return nil, err
	}

	if err := repo.Initialize(context.Background()); err != nil {
		return nil, err
	}
	return repo, nil
}

// resolve applies the dev sandbox rules to path.
func resolve(path string, o *options) (string, bool) {
	tempDir, _ := o.config["temp_dir"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	devSafety := true
	if val, ok := o.config["dev_safety"].(bool); ok {
		devSafety = val
	}
	bypass := readOnly || !devSafety

	useTemp := tempDir || (IsDevRun() && !bypass)
	resolved := ResolvePath(path, useTemp)

	if o.logger != nil && useTemp && resolved != filepath.Clean(path) {
		o.logger.Warn("running in SAFE MODE (dev sandbox)", "original_path", path, "resolved_path", resolved)
	}
	return resolved, useTemp
}

// initFS handles the configuration of the filesystem adapter.
func initFS(path string, o *options) (core.Repository, error) {
	autoInit, _ := o.config["auto_init"].(bool)
	gitless, _ := o.config["gitless"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)
	systemDir, _ := o.config["system_dir"].(string)
	format, _ := o.config["format"].(string)
	errorHandler, _ := o.config["watcher_error_handler"].(func(error))

	resolved, useTemp := resolve(path, o)
	if systemDir == "" {
		systemDir = fs.DefaultSystemDir
	}

	// Smart gitless detection: when versioning is not configured, an existing
	// .git means versioned, an existing system dir without .git means a plain
	// store, and a fresh auto-initialized store defaults to git.
	if _, ok := o.config["gitless"]; !ok {
		switch {
		case hasFile(resolved, ".git"):
			gitless = false
		case autoInit && !hasFile(resolved, systemDir):
			gitless = false
		default:
			gitless = true
		}
		if gitless && o.logger != nil {
			o.logger.Debug("auto-detected gitless mode", "reason", ".git missing")
		}
	}

	return fs.NewRepository(fs.Config{
		Path:         resolved,
		AutoInit:     autoInit,
		Gitless:      gitless,
		MustExist:    mustExist || (!autoInit && !useTemp),
		ReadOnly:     readOnly,
		Logger:       o.logger,
		SystemDir:    systemDir,
		Format:       format,
		ErrorHandler: errorHandler,
	})
}

// initSQLite handles the configuration of the SQLite adapter.
func initSQLite(uri string, o *options) (core.Repository, error) {
	autoInit, _ := o.config["auto_init"].(bool)
	mustExist, _ := o.config["must_exist"].(bool)
	readOnly, _ := o.config["read_only"].(bool)

	path := uri
	if path != ":memory:" {
		resolved, _ := resolve(uri, o)
		path = resolved
		if ext := strings.ToLower(filepath.Ext(path)); ext != ".db" && ext != ".sqlite" {
			path = filepath.Join(path, sqlite.DefaultFile)
		}
	}

	return sqlite.NewRepository(sqlite.Config{
		Path:      path,
		MustExist: mustExist || !autoInit,
		ReadOnly:  readOnly,
		Logger:    o.logger,
	}), nil
}

// OpenBoard starts an editing session on board id with autosave wired to svc.
func OpenBoard(ctx context.Context, svc *core.Service, id string, opts ...Option) (*board.Board, error) {
	o := apply(opts)

	var bopts []board.Option
	if o.logger != nil {
		bopts = append(bopts, board.WithLogger(o.logger))
	}
	if o.autosaveDelay > 0 {
		bopts = append(bopts, board.WithDelay(o.autosaveDelay))
	}
	if o.idGenerator != nil {
		bopts = append(bopts, board.WithEditorOptions(canvas.WithIDGenerator(o.idGenerator)))
	}
	return board.Open(ctx, svc, id, bopts...)
}

// Export renders the elements of board id in format and returns the data with
// a file name derived from the board title.
func Export(ctx context.Context, svc *core.Service, id, format string) ([]byte, string, error) {
	wb, err := svc.Get(ctx, id)
	if err != nil && !errors.Is(err, core.ErrMalformed) {
		return nil, "", err
	}
	return codec.Export(wb.Snapshot, wb.Title, format)
}

// Close releases resources held by the repository behind svc, if any.
func Close(svc *core.Service) error {
	if c, ok := svc.Repository().(interface{ Close() error }); ok {
		return c.Close()
	}
	return nil
}
