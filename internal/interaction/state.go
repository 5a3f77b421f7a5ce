// Package interaction tracks transient per-activity UI state that must
// survive refetches of the activity list.
package interaction

import "sync"

type entry struct {
	expanded  map[int]struct{}
	showAll   bool
	approving bool
}

func (e *entry) empty() bool {
	return len(e.expanded) == 0 && !e.showAll && !e.approving
}

// State is keyed by activity name. Unknown keys read as collapsed with no
// approval in flight.
type State struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *State {
	return &State{entries: map[string]*entry{}}
}

// ToggleStep flips the expansion of one plan step and returns the new value.
func (s *State) ToggleStep(id string, idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(id)
	if _, ok := e.expanded[idx]; ok {
		delete(e.expanded, idx)
		s.dropIfEmpty(id, e)
		return false
	}
	if e.expanded == nil {
		e.expanded = map[int]struct{}{}
	}
	e.expanded[idx] = struct{}{}
	return true
}

func (s *State) StepExpanded(id string, idx int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return false
	}
	_, expanded := e.expanded[idx]
	return expanded
}

func (s *State) ToggleShowAll(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(id)
	e.showAll = !e.showAll
	value := e.showAll
	s.dropIfEmpty(id, e)
	return value
}

func (s *State) ShowAll(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	return ok && e.showAll
}

// BeginApprove marks an approval in flight. It returns false if one already
// is, in which case the caller must not submit again.
func (s *State) BeginApprove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.entry(id)
	if e.approving {
		return false
	}
	e.approving = true
	return true
}

func (s *State) EndApprove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return
	}
	e.approving = false
	s.dropIfEmpty(id, e)
}

func (s *State) IsApproving(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	return ok && e.approving
}

// Prune drops entries whose ids are not in keep. In-flight approvals are
// kept so their completion still clears them.
func (s *State) Prune(keep []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	live := make(map[string]struct{}, len(keep))
	for _, id := range keep {
		live[id] = struct{}{}
	}
	for id, e := range s.entries {
		if _, ok := live[id]; ok || e.approving {
			continue
		}
		delete(s.entries, id)
	}
}

func (s *State) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *State) entry(id string) *entry {
	e, ok := s.entries[id]
	if !ok {
		e = &entry{}
		s.entries[id] = e
	}
	return e
}

func (s *State) dropIfEmpty(id string, e *entry) {
	if e.empty() {
		delete(s.entries, id)
	}
}
