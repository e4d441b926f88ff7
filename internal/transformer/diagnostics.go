package transformer

import "sync"

// Diagnostic is a recoverable condition observed by a stage: a skipped
// source, a dropped column, a column group left untouched after a failed
// comparison.
type Diagnostic struct {
	Stage   string
	Subject string // source or column the diagnostic is about
	Message string
	Err     error
}

func (d Diagnostic) String() string {
	s := d.Stage + ": "
	if d.Subject != "" {
		s += d.Subject + ": "
	}
	s += d.Message
	if d.Err != nil {
		s += ": " + d.Err.Error()
	}
	return s
}

// Diagnostics collects Diagnostic values from concurrently running stage
// workers. A nil *Diagnostics discards everything.
type Diagnostics struct {
	mu    sync.Mutex
	items []Diagnostic
}

func (d *Diagnostics) Add(item Diagnostic) {
	if d == nil {
		return
	}
	d.mu.Lock()
	d.items = append(d.items, item)
	d.mu.Unlock()
}

// All returns a snapshot of the collected diagnostics in insertion order.
func (d *Diagnostics) All() []Diagnostic {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Diagnostic(nil), d.items...)
}

// Len reports how many diagnostics have been collected.
func (d *Diagnostics) Len() int {
	if d == nil {
		return 0
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.items)
}
