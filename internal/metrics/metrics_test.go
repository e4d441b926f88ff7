package metrics

import (
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeBackend is a simple in-memory Backend implementation for tests.
type fakeBackend struct {
	mu sync.Mutex

	callsCounters   []counterCall
	callsHistograms []histCall
	flushCount      int
}

type counterCall struct {
	name   string
	delta  float64
	labels Labels
}

type histCall struct {
	name   string
	value  float64
	labels Labels
}

func (f *fakeBackend) IncCounter(name string, delta float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsCounters = append(f.callsCounters, counterCall{name, delta, labels})
}

func (f *fakeBackend) ObserveHistogram(name string, value float64, labels Labels) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.callsHistograms = append(f.callsHistograms, histCall{name, value, labels})
}

func (f *fakeBackend) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushCount++
	return nil
}

func TestRecordStep_SuccessAndFailure(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	// Success case.
	RecordStep("jobA", "merge", nil, 2*time.Second)

	// Failure case.
	err := errors.New("boom")
	RecordStep("jobB", "optimize", err, 1500*time.Millisecond)

	if len(fb.callsCounters) != 2 {
		t.Fatalf("expected 2 counter calls, got %d", len(fb.callsCounters))
	}
	if len(fb.callsHistograms) != 2 {
		t.Fatalf("expected 2 histogram calls, got %d", len(fb.callsHistograms))
	}

	// First call: success.
	cc0 := fb.callsCounters[0]
	if cc0.name != StageTotal || cc0.delta != 1 {
		t.Fatalf("counter[0] = %#v; want name=%s, delta=1", cc0, StageTotal)
	}
	if got := cc0.labels["job"]; got != "jobA" {
		t.Fatalf("counter[0].labels[job]=%q; want %q", got, "jobA")
	}
	if got := cc0.labels["step"]; got != "merge" {
		t.Fatalf("counter[0].labels[step]=%q; want %q", got, "merge")
	}
	if got := cc0.labels["status"]; got != "success" {
		t.Fatalf("counter[0].labels[status]=%q; want %q", got, "success")
	}

	h0 := fb.callsHistograms[0]
	if h0.name != StageDurationSeconds {
		t.Fatalf("hist[0].name=%q; want %s", h0.name, StageDurationSeconds)
	}
	if h0.value < 2.0-0.001 || h0.value > 2.0+0.001 {
		t.Fatalf("hist[0].value=%v; want ~2.0", h0.value)
	}

	// Second call: failure.
	cc1 := fb.callsCounters[1]
	if cc1.labels["job"] != "jobB" || cc1.labels["step"] != "optimize" {
		t.Fatalf("counter[1] labels job/step = %v; want jobB/optimize", cc1.labels)
	}
	if cc1.labels["status"] != "failure" {
		t.Fatalf("counter[1].labels[status]=%q; want %q", cc1.labels["status"], "failure")
	}

	h1 := fb.callsHistograms[1]
	if h1.value < 1.5-0.001 || h1.value > 1.5+0.001 {
		t.Fatalf("hist[1].value=%v; want ~1.5", h1.value)
	}
}

func TestRecordRowAndBatches(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	backend = fb

	RecordRow("jobX", "loaded", 3)
	RecordRow("jobX", "loaded", 0) // should be ignored
	RecordRow("jobY", "written", 5)
	RecordBatches("jobZ", 2)

	if len(fb.callsCounters) != 3 {
		t.Fatalf("expected 3 counter calls, got %d", len(fb.callsCounters))
	}

	// 1) processed
	c0 := fb.callsCounters[0]
	if c0.name != RowsTotal || c0.delta != 3 {
		t.Fatalf("counter[0] = %#v; want name=%s, delta=3", c0, RowsTotal)
	}
	if c0.labels["job"] != "jobX" || c0.labels["kind"] != "loaded" {
		t.Fatalf("counter[0] labels = %v; want job=jobX, kind=loaded", c0.labels)
	}

	// 2) inserted
	c1 := fb.callsCounters[1]
	if c1.name != RowsTotal || c1.delta != 5 {
		t.Fatalf("counter[1] = %#v; want name=%s, delta=5", c1, RowsTotal)
	}
	if c1.labels["job"] != "jobY" || c1.labels["kind"] != "written" {
		t.Fatalf("counter[1] labels = %v; want job=jobY, kind=written", c1.labels)
	}

	// 3) batches
	c2 := fb.callsCounters[2]
	if c2.name != BatchesTotal || c2.delta != 2 {
		t.Fatalf("counter[2] = %#v; want name=%s, delta=2", c2, BatchesTotal)
	}
	if c2.labels["job"] != "jobZ" {
		t.Fatalf("counter[2].labels[job]=%q; want %q", c2.labels["job"], "jobZ")
	}
}

func TestSetBackendAndFlush(t *testing.T) {
	orig := backend
	defer func() { backend = orig }()

	fb := &fakeBackend{}
	SetBackend(fb)

	if backend != fb {
		t.Fatal("SetBackend did not replace global backend")
	}

	if err := Flush(); err != nil {
		t.Fatalf("Flush returned error: %v", err)
	}
	if fb.flushCount != 1 {
		t.Fatalf("expected flushCount=1, got %d", fb.flushCount)
	}

	// SetBackend(nil) should not nil out the backend.
	SetBackend(nil)
	if backend != fb {
		t.Fatal("SetBackend(nil) should not change backend")
	}
}

// Stages run on worker goroutines while the CLI may still be installing the
// backend; run with -race.
func TestConcurrentRecordAndSetBackend(t *testing.T) {
	orig := current()
	defer SetBackend(orig)

	fb := &fakeBackend{}
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				RecordRow("job", "loaded", 1)
				RecordBatches("job", 1)
			}
		}()
	}
	SetBackend(fb)
	wg.Wait()

	fb.mu.Lock()
	defer fb.mu.Unlock()
	if n := len(fb.callsCounters); n > 8*100*2 {
		t.Fatalf("recorded %d counters, want at most %d", n, 8*100*2)
	}
}

func TestReset(t *testing.T) {
	fb := &fakeBackend{}
	SetBackend(fb)
	Reset()

	RecordRow("job", "loaded", 1)
	if len(fb.callsCounters) != 0 {
		t.Fatalf("Reset left the previous backend installed: %v", fb.callsCounters)
	}
	if _, ok := current().(nopBackend); !ok {
		t.Fatalf("current() = %T, want nopBackend", current())
	}
}
