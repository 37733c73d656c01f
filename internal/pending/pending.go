// Package pending tracks which entities have a request in flight.
//
// Ids partition the state: starting work on one id never blocks or
// reports another, so a view can disable exactly the row being deleted
// while its siblings stay interactive. Entries are removed on completion,
// never set to false, so Len is the number of operations in flight.
package pending

import "sync"

// Tracker maps entity ids to in-flight presence.
type Tracker[K comparable] struct {
	mu       sync.Mutex
	inflight map[K]struct{}
	onChange func(inflight int)
}

// New returns an empty tracker.
func New[K comparable]() *Tracker[K] {
	return &Tracker[K]{inflight: make(map[K]struct{})}
}

// OnChange registers fn to be called with the in-flight count after every
// Begin or End that changed it. Used to feed metrics gauges.
func (t *Tracker[K]) OnChange(fn func(inflight int)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onChange = fn
}

// Begin marks id as in flight. It returns false if id already was.
func (t *Tracker[K]) Begin(id K) bool {
	t.mu.Lock()
	if _, ok := t.inflight[id]; ok {
		t.mu.Unlock()
		return false
	}
	t.inflight[id] = struct{}{}
	n, fn := len(t.inflight), t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(n)
	}
	return true
}

// End removes id. Ending an idle id is a no-op.
func (t *Tracker[K]) End(id K) {
	t.mu.Lock()
	if _, ok := t.inflight[id]; !ok {
		t.mu.Unlock()
		return
	}
	delete(t.inflight, id)
	n, fn := len(t.inflight), t.onChange
	t.mu.Unlock()

	if fn != nil {
		fn(n)
	}
}

// Track begins id and returns the matching release, meant for
// `defer release()`. ok is false, and release a no-op, when id was
// already in flight.
func (t *Tracker[K]) Track(id K) (release func(), ok bool) {
	if !t.Begin(id) {
		return func() {}, false
	}
	var once sync.Once
	return func() { once.Do(func() { t.End(id) }) }, true
}

// IsPending reports whether id is in flight.
func (t *Tracker[K]) IsPending(id K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.inflight[id]
	return ok
}

// Len returns the number of ids in flight.
func (t *Tracker[K]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.inflight)
}
