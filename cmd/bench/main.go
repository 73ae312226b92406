package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/aretw0/easel"
	"github.com/aretw0/easel/pkg/core"
)

func main() {
	count := flag.Int("count", 1000, "Number of boards to generate")
	elements := flag.Int("elements", 50, "Elements per board")
	adapter := flag.String("adapter", "fs", "Storage adapter (fs, sqlite)")
	keep := flag.Bool("keep", false, "Keep the benchmark store after running")
	flag.Parse()

	benchDir, err := os.MkdirTemp("", "easel_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	// Gitless: measure decoding and IO, not commit overhead.
	open := func() *core.Service {
		svc, err := easel.New(benchDir,
			easel.WithLogger(logger),
			easel.WithAutoInit(true),
			easel.WithVersioning(false),
			easel.WithAdapter(*adapter),
		)
		if err != nil {
			panic(err)
		}
		return svc
	}

	ctx := context.Background()
	service := open()

	fmt.Printf("Generating %d boards (%d elements each) in %s...\n", *count, *elements, benchDir)
	startGen := time.Now()
	ids := make([]string, 0, *count)
	for i := 0; i < *count; i++ {
		wb, err := service.Create(ctx, "bench", fmt.Sprintf("Board %d", i))
		if err != nil {
			panic(err)
		}
		if err := service.SaveSnapshot(ctx, wb.ID, fill(wb.Title, *elements)); err != nil {
			panic(err)
		}
		ids = append(ids, wb.ID)
	}
	fmt.Printf("Generation took: %v\n", time.Since(startGen))
	_ = easel.Close(service)

	// Run 1: cold, a fresh service populates the header cache.
	service = open()
	fmt.Println("Running List (Run 1 - Cold)...")
	cold, n1 := timeList(ctx, service)
	_ = easel.Close(service)

	// Run 2: warm, a new service reads the persisted cache, like a second CLI run.
	service = open()
	fmt.Println("Running List (Run 2 - Warm)...")
	warm, n2 := timeList(ctx, service)

	fmt.Println("Running Get for every board...")
	startGet := time.Now()
	for _, id := range ids {
		if _, err := service.Get(ctx, id); err != nil {
			panic(err)
		}
	}
	get := time.Since(startGet)
	_ = easel.Close(service)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d boards, adapter %s):\n", *count, *adapter)
	fmt.Printf("  List cold: %v (items: %d)\n", cold, n1)
	fmt.Printf("  List warm: %v (items: %d)\n", warm, n2)
	fmt.Printf("  Get all:   %v\n", get)
	fmt.Printf("--------------------------------------------------\n")
}

func timeList(ctx context.Context, svc *core.Service) (time.Duration, int) {
	start := time.Now()
	list, err := svc.List(ctx, "")
	if err != nil {
		panic(err)
	}
	return time.Since(start), len(list)
}

// fill lays out n rectangles on a grid.
func fill(title string, n int) core.Snapshot {
	els := make([]core.Element, 0, n)
	for i := 0; i < n; i++ {
		els = append(els, core.Element{
			ID:     fmt.Sprintf("e%d", i),
			Kind:   core.KindRectangle,
			X:      float64(i%10) * 120,
			Y:      float64(i/10) * 90,
			Width:  core.Float(100),
			Height: core.Float(80),
			Color:  core.GenericPalette.Pick(i),
		})
	}
	return core.NewSnapshot(title, els...)
}
