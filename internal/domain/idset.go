package domain

import "slices"

// IDSet is an immutable, insertion-ordered set of book ids.
// The order is the persisted order; equality ignores it.
type IDSet struct {
	ids   []string
	index map[string]struct{}
}

// NewIDSet builds a set from ids, keeping the first occurrence of duplicates.
func NewIDSet(ids ...string) IDSet {
	s := IDSet{
		ids:   make([]string, 0, len(ids)),
		index: make(map[string]struct{}, len(ids)),
	}
	for _, id := range ids {
		if _, ok := s.index[id]; ok {
			continue
		}
		s.index[id] = struct{}{}
		s.ids = append(s.ids, id)
	}
	return s
}

// Contains reports membership.
func (s IDSet) Contains(id string) bool {
	_, ok := s.index[id]
	return ok
}

// Len returns the number of ids.
func (s IDSet) Len() int {
	return len(s.ids)
}

// Slice returns a copy of the ids in persisted order.
func (s IDSet) Slice() []string {
	return slices.Clone(s.ids)
}

// With returns a new set with id appended. Returns s unchanged if already present.
func (s IDSet) With(id string) IDSet {
	if s.Contains(id) {
		return s
	}
	return NewIDSet(append(slices.Clone(s.ids), id)...)
}

// Without returns a new set with id removed.
func (s IDSet) Without(id string) IDSet {
	if !s.Contains(id) {
		return s
	}
	return NewIDSet(slices.DeleteFunc(slices.Clone(s.ids), func(v string) bool { return v == id })...)
}

// Equal reports set equality.
func (s IDSet) Equal(other IDSet) bool {
	if s.Len() != other.Len() {
		return false
	}
	for _, id := range s.ids {
		if !other.Contains(id) {
			return false
		}
	}
	return true
}
