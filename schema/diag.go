package schema

import (
	"fmt"
	"sync"
)

// Diag collects non-fatal warnings produced while resolving.
type Diag struct {
	mu sync.Mutex
	ws []string
}

func (d *Diag) HasWarnings() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.ws) > 0
}

func (d *Diag) Warnings() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.ws...)
}

func (d *Diag) warnf(f string, a ...any) {
	d.mu.Lock()
	d.ws = append(d.ws, fmt.Sprintf(f, a...))
	d.mu.Unlock()
}
