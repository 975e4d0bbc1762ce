package model

// OrderedSet is an insertion-ordered set of strings. Each item appears once,
// at the position it was first added. The zero value is an empty set ready
// for use. A nil *OrderedSet reads as empty.
type OrderedSet struct {
	items []string
	index map[string]struct{}
}

// NewOrderedSet returns a set holding items in first-seen order.
func NewOrderedSet(items ...string) *OrderedSet {
	s := &OrderedSet{}
	s.Extend(items...)
	return s
}

// Add appends item unless it is already present. Reports whether it was added.
func (s *OrderedSet) Add(item string) bool {
	if s.index == nil {
		s.index = make(map[string]struct{})
	}
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Extend adds each item in order.
func (s *OrderedSet) Extend(items ...string) {
	for _, item := range items {
		s.Add(item)
	}
}

// Has reports whether item is in the set.
func (s *OrderedSet) Has(item string) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[item]
	return ok
}

// Items returns a copy of the members in insertion order.
func (s *OrderedSet) Items() []string {
	if s == nil || len(s.items) == 0 {
		return []string{}
	}
	out := make([]string, len(s.items))
	copy(out, s.items)
	return out
}

// Len returns the number of members.
func (s *OrderedSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Reset empties the set.
func (s *OrderedSet) Reset() {
	s.items = nil
	s.index = nil
}
