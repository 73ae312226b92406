package autosave

import (
	"time"

	"github.com/aretw0/introspection"
)

// GatewayState exposes internal state for observability.
type GatewayState struct {
	ID        string        `json:"id"`
	Delay     time.Duration `json:"delay"`
	Pending   bool          `json:"pending"`
	Saves     int           `json:"saves"`
	Failures  int           `json:"failures"`
	LastSaved *time.Time    `json:"last_saved,omitempty"`
}

// State implements introspection.Introspectable.
func (g *Gateway) State() any {
	pending := g.Pending()

	g.saveMu.Lock()
	defer g.saveMu.Unlock()

	st := GatewayState{
		ID:       g.id,
		Delay:    g.delay,
		Pending:  pending,
		Saves:    g.saves,
		Failures: g.failures,
	}
	if !g.lastSaved.IsZero() {
		t := g.lastSaved
		st.LastSaved = &t
	}
	return st
}

// ComponentType implements introspection.Component.
func (g *Gateway) ComponentType() string {
	return "autosave"
}

var _ introspection.Introspectable = (*Gateway)(nil)
var _ introspection.Component = (*Gateway)(nil)
