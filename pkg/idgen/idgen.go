// Package idgen provides element and whiteboard identifier generators.
package idgen

import (
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/aretw0/easel/pkg/core"
)

// UUIDv7 returns a generator of RFC 9562 UUID v7 strings. They are time-sortable
// and never reused, which keeps element ids unique across undo/redo branches.
func UUIDv7() core.IDGenerator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// Prefixed prepends a fixed prefix to every id (e.g. "el_", "wb_").
func Prefixed(prefix string, gen core.IDGenerator) core.IDGenerator {
	return func() string {
		return prefix + gen()
	}
}

// Sequential returns a deterministic generator ("prefix1", "prefix2", ...).
// Meant for tests and scripted replays.
func Sequential(prefix string) core.IDGenerator {
	var n atomic.Int64
	return func() string {
		return fmt.Sprintf("%s%d", prefix, n.Add(1))
	}
}

// Default is the generator used when none is configured.
var Default = UUIDv7()

// Parse validates a UUID string.
func Parse(s string) (string, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid UUID: %w", err)
	}
	return u.String(), nil
}
