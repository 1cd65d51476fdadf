/*
store.go - Section-scoped draft store with dirty tracking

PURPOSE:
  Holds the full wizard draft (contract fields, allocation list, rate list,
  payment list) for the lifetime of one wizard session. Every mutation to any
  section funnels through the store, so dirty tracking cannot be bypassed.

MUTATION CONTRACT:
  - UpdateSection replaces a section WHOLESALE with the given data. This is
    not a deep merge: callers pass the full updated sub-object.
  - MutateAllocation is a convenience for single-allocation edits (cost,
    releases); internally it is still a full-section write.
  - Reset clears the draft and the dirty flag atomically; used on successful
    submit or explicit cancel.

OWNERSHIP:
  The store exclusively owns the draft tree. Draft() hands out deep clones;
  there is no external mutation path. A mutex guards the tree so the HTTP
  layer and the auto-save timer can touch it safely.

SEE ALSO:
  - autosave.go: Subscribes to change notifications via SetOnChange
  - session.go: Wires store and scheduler together
*/
package draft

import "sync"

// Section names the four top-level parts of the draft tree.
type Section string

const (
	SectionContract    Section = "contract"
	SectionAllocations Section = "allocations"
	SectionRates       Section = "rates"
	SectionPayments    Section = "payments"
)

// Store holds one wizard session's draft and its dirty flag.
type Store struct {
	mu       sync.Mutex
	draft    WizardDraft
	dirty    bool
	onChange func()
}

func NewStore() *Store {
	return &Store{}
}

// SetOnChange registers a callback fired after every mutation, while dirty.
// The auto-save scheduler uses this to restart its debounce window.
func (s *Store) SetOnChange(fn func()) {
	s.mu.Lock()
	s.onChange = fn
	s.mu.Unlock()
}

// Draft returns a deep clone of the current draft.
func (s *Store) Draft() WizardDraft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

// Dirty reports whether the draft has unsaved changes.
func (s *Store) Dirty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

// UpdateContract replaces the contract section.
func (s *Store) UpdateContract(c *ContractFields) {
	s.mu.Lock()
	if c == nil {
		s.draft.Contract = nil
	} else {
		clone := c.Clone()
		s.draft.Contract = &clone
	}
	s.markDirtyLocked()
	s.mu.Unlock()
}

// UpdateAllocations replaces the allocation list.
func (s *Store) UpdateAllocations(allocs []Allocation) {
	s.mu.Lock()
	s.draft.Allocations = cloneAllocations(allocs)
	s.markDirtyLocked()
	s.mu.Unlock()
}

// UpdateRates replaces the rate list.
func (s *Store) UpdateRates(rates []Rate) {
	s.mu.Lock()
	s.draft.Rates = append([]Rate{}, rates...)
	s.markDirtyLocked()
	s.mu.Unlock()
}

// UpdatePayments replaces the payment list.
func (s *Store) UpdatePayments(payments []Payment) {
	s.mu.Lock()
	cloned := make([]Payment, len(payments))
	for i, p := range payments {
		cloned[i] = p.Clone()
	}
	s.draft.Payments = cloned
	s.markDirtyLocked()
	s.mu.Unlock()
}

// MutateAllocation looks up one allocation by id and applies fn to it in
// place. The edit goes through the same dirty-tracking path as a section
// write. If fn returns an error the draft is left unchanged.
func (s *Store) MutateAllocation(id string, fn func(*Allocation) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.draft.Allocations {
		if s.draft.Allocations[i].ID != id {
			continue
		}
		scratch := s.draft.Allocations[i].Clone()
		if err := fn(&scratch); err != nil {
			return err
		}
		s.draft.Allocations[i] = scratch
		s.markDirtyLocked()
		return nil
	}
	return ErrAllocationNotFound
}

// Allocation returns a clone of one allocation by id.
func (s *Store) Allocation(id string) (Allocation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.draft.Allocations {
		if s.draft.Allocations[i].ID == id {
			return s.draft.Allocations[i].Clone(), nil
		}
	}
	return Allocation{}, ErrAllocationNotFound
}

// Reset clears the draft and the dirty flag atomically.
func (s *Store) Reset() {
	s.mu.Lock()
	s.draft = WizardDraft{}
	s.dirty = false
	s.mu.Unlock()
}

func (s *Store) markDirtyLocked() {
	s.dirty = true
	if s.onChange != nil {
		// Asynchronous so the callback may re-enter the store.
		go s.onChange()
	}
}

func cloneAllocations(allocs []Allocation) []Allocation {
	out := make([]Allocation, len(allocs))
	for i, a := range allocs {
		out[i] = a.Clone()
	}
	return out
}
