package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/core"
)

var (
	verbose bool
	dir     string
	adapter string
	format  string
	nover   bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "easel",
	Short: "A whiteboard editing engine with debounced autosave",
	Long: `Easel stores whiteboards (sticky notes, shapes, lines, text and freehand
strokes) as files or in SQLite, versioned with Git, and replays editing
gestures through the same engine an interactive canvas uses.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}

		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger := slog.New(slog.NewTextHandler(os.Stderr, opts))
		slog.SetDefault(logger)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&dir, "dir", "C", "", "Board store directory (default: nearest store root above the working directory)")
	rootCmd.PersistentFlags().StringVar(&adapter, "adapter", "fs", "Storage adapter: fs or sqlite")
	rootCmd.PersistentFlags().StringVar(&format, "format", "json", "Board file format for the fs adapter: json or yaml")
	rootCmd.PersistentFlags().BoolVar(&nover, "no-versioning", false, "Disable Git versioning")
}

// storeRoot resolves --dir, falling back to the nearest store root and then
// to the working directory.
func storeRoot() string {
	if dir != "" {
		return dir
	}
	wd, err := os.Getwd()
	if err != nil {
		fatal("Error getting working directory", err)
	}
	if root, err := easel.FindRoot(wd); err == nil {
		return root
	}
	return wd
}

// baseOptions maps the persistent flags onto easel options.
func baseOptions() []easel.Option {
	opts := []easel.Option{
		easel.WithAdapter(adapter),
		easel.WithFormat(format),
		easel.WithLogger(slog.Default()),
	}
	if nover {
		opts = append(opts, easel.WithVersioning(false))
	}
	return opts
}

// openService opens an existing store.
func openService(extra ...easel.Option) *core.Service {
	opts := append(baseOptions(), easel.WithMustExist(true))
	svc, err := easel.New(storeRoot(), append(opts, extra...)...)
	if err != nil {
		fatal("Error opening board store", err)
	}
	return svc
}
