package events

import "sync"

// Recorder is a Sink that keeps every event it receives, in emission order.
// It is intended for tests asserting the scenarios of spec.md §8, not for
// long-running use (it never discards anything).
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Alerts filters Events to just the Alert events.
func (r *Recorder) Alerts() []Alert {
	var out []Alert
	for _, e := range r.Events() {
		if a, ok := e.(Alert); ok {
			out = append(out, a)
		}
	}
	return out
}

// CacheWrites filters Events to just the CacheWrite events.
func (r *Recorder) CacheWrites() []CacheWrite {
	var out []CacheWrite
	for _, e := range r.Events() {
		if w, ok := e.(CacheWrite); ok {
			out = append(out, w)
		}
	}
	return out
}

// MemWrites filters Events to just the MemWrite events.
func (r *Recorder) MemWrites() []MemWrite {
	var out []MemWrite
	for _, e := range r.Events() {
		if w, ok := e.(MemWrite); ok {
			out = append(out, w)
		}
	}
	return out
}
