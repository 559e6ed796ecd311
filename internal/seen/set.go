package seen

// orderedSet is a capped set of keys that remembers insertion order and
// evicts the oldest keys first.
type orderedSet struct {
	maxSize int
	order   []string
	members map[string]struct{}
}

func newOrderedSet(maxSize int) *orderedSet {
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &orderedSet{
		maxSize: maxSize,
		members: make(map[string]struct{}),
	}
}

func (s *orderedSet) has(key string) bool {
	_, ok := s.members[key]
	return ok
}

// add appends key unless present and returns how many keys were evicted.
func (s *orderedSet) add(key string) int {
	if key == "" || s.has(key) {
		return 0
	}
	s.members[key] = struct{}{}
	s.order = append(s.order, key)
	return s.trim()
}

func (s *orderedSet) trim() int {
	overflow := len(s.order) - s.maxSize
	if overflow <= 0 {
		return 0
	}
	for _, key := range s.order[:overflow] {
		delete(s.members, key)
	}
	// Copy so the evicted prefix can be collected.
	s.order = append([]string(nil), s.order[overflow:]...)
	return overflow
}

func (s *orderedSet) len() int {
	return len(s.order)
}

// keys returns a copy of the keys, oldest first.
func (s *orderedSet) keys() []string {
	return append([]string(nil), s.order...)
}
