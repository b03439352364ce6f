package datalus

// Sequence hands out process-local runtime ids. Ids start at 1 and are never
// persisted. The zero value is ready to use.
type Sequence struct {
	last int64
}

// NewSequence returns a Sequence whose first id is 1.
func NewSequence() *Sequence {
	return &Sequence{}
}

// Next returns the next id.
func (s *Sequence) Next() int64 {
	s.last++
	return s.last
}

// Last returns the most recently issued id, or 0 if none was issued.
func (s *Sequence) Last() int64 {
	return s.last
}
