package workflow

import (
	"slices"
	"sync"

	"github.com/psyhelp/testdesk/internal/api"
)

// TestEntry is one row of the outer test list.
type TestEntry struct {
	ID            int
	TestName      string
	Description   string
	QuestionCount int
	AuthorsName   []string
	IsCompleted   bool
}

func entryFromSummary(s api.TestSummary) TestEntry {
	return TestEntry{
		ID:            s.ID,
		TestName:      s.TestName,
		Description:   s.Description,
		QuestionCount: s.QuestionCount,
		AuthorsName:   slices.Clone(s.AuthorsName),
		IsCompleted:   s.IsCompleted,
	}
}

// EntryPatch carries the canonical fields returned after an edit.
type EntryPatch struct {
	TestName      string
	Description   string
	QuestionCount int
}

// TestList is the list shared by every workflow on a page. Every mutation
// swaps in a new slice, so a slice returned by Entries is never modified.
type TestList struct {
	mu      sync.RWMutex
	entries []TestEntry
}

// NewTestList returns an empty list.
func NewTestList() *TestList {
	return &TestList{entries: []TestEntry{}}
}

// Entries returns the current snapshot. Callers must not modify it.
func (l *TestList) Entries() []TestEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.entries
}

// Len returns the number of entries.
func (l *TestList) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}

// Get returns the entry with id.
func (l *TestList) Get(id int) (TestEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, e := range l.entries {
		if e.ID == id {
			return e, true
		}
	}
	return TestEntry{}, false
}

// Replace swaps the whole list.
func (l *TestList) Replace(entries []TestEntry) {
	next := slices.Clone(entries)
	if next == nil {
		next = []TestEntry{}
	}
	l.mu.Lock()
	l.entries = next
	l.mu.Unlock()
}

// MarkCompleted flags the entry with id as completed.
func (l *TestList) MarkCompleted(id int) bool {
	return l.update(id, func(e *TestEntry) { e.IsCompleted = true })
}

// Reconcile applies patch to the entry with id.
func (l *TestList) Reconcile(id int, patch EntryPatch) bool {
	return l.update(id, func(e *TestEntry) {
		e.TestName = patch.TestName
		e.Description = patch.Description
		e.QuestionCount = patch.QuestionCount
	})
}

// Remove drops the entry with id.
func (l *TestList) Remove(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.entries, func(e TestEntry) bool { return e.ID == id })
	if idx < 0 {
		return false
	}
	next := make([]TestEntry, 0, len(l.entries)-1)
	next = append(next, l.entries[:idx]...)
	next = append(next, l.entries[idx+1:]...)
	l.entries = next
	return true
}

func (l *TestList) update(id int, fn func(*TestEntry)) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := slices.IndexFunc(l.entries, func(e TestEntry) bool { return e.ID == id })
	if idx < 0 {
		return false
	}
	next := slices.Clone(l.entries)
	fn(&next[idx])
	l.entries = next
	return true
}
