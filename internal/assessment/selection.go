package assessment

import (
	"slices"
	"sync"
)

// Selection tracks the chosen option numbers (1-based positions) per
// question key. Each set is kept sorted so the submitted answers are
// deterministic. Option numbers are not range checked; callers pass
// values in [1, len(options)].
type Selection struct {
	mu     sync.RWMutex
	picked map[string][]int
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{picked: make(map[string][]int)}
}

// Toggle applies one click. For single-choice questions the option
// replaces whatever was selected; otherwise its membership flips.
func (s *Selection) Toggle(key string, option int, single bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if single {
		s.picked[key] = []int{option}
		return
	}

	prev := s.picked[key]
	next := make([]int, 0, len(prev)+1)
	found := false
	for _, v := range prev {
		if v == option {
			found = true
			continue
		}
		next = append(next, v)
	}
	if !found {
		next = append(next, option)
		slices.Sort(next)
	}

	if len(next) == 0 {
		delete(s.picked, key)
		return
	}
	s.picked[key] = next
}

// Selected returns a copy of the options chosen for key.
func (s *Selection) Selected(key string) []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.picked[key])
}

// IsSelected reports whether option is chosen for key.
func (s *Selection) IsSelected(key string, option int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Contains(s.picked[key], option)
}

// Len returns the number of questions with a non-empty selection.
func (s *Selection) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.picked)
}

// Snapshot returns a copy of the whole selection.
func (s *Selection) Snapshot() map[string][]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][]int, len(s.picked))
	for k, v := range s.picked {
		out[k] = slices.Clone(v)
	}
	return out
}

// AllAnswered reports whether every question has at least one option chosen.
func (s *Selection) AllAnswered(questions []AttemptQuestion) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, q := range questions {
		if len(s.picked[q.Key()]) == 0 {
			return false
		}
	}
	return true
}

// Answers builds the submission payload: one [questionNumber, options...]
// tuple per question, in question order.
func (s *Selection) Answers(questions []AttemptQuestion) [][]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([][]int, 0, len(questions))
	for _, q := range questions {
		row := make([]int, 0, len(s.picked[q.Key()])+1)
		row = append(row, q.Number)
		row = append(row, s.picked[q.Key()]...)
		out = append(out, row)
	}
	return out
}
