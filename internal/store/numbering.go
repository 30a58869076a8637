package store

// Numbering decides how a collection hands out ids and what happens to the
// surviving ids after a delete.
type Numbering interface {
	// UsesCounter reports whether the document persists a next_id counter.
	UsesCounter() bool
	// Assign returns the id of a record appended to a collection of count
	// records, advancing *nextID when the strategy owns a counter.
	Assign(nextID *int, count int) int
	// Renumbers reports whether survivors are renumbered 1..N after a delete.
	Renumbers() bool
}

// MonotonicCounter hands out next_id and never reuses an id.
type MonotonicCounter struct{}

func (MonotonicCounter) UsesCounter() bool { return true }
func (MonotonicCounter) Renumbers() bool   { return false }

func (MonotonicCounter) Assign(nextID *int, _ int) int {
	if *nextID < 1 {
		*nextID = 1
	}
	id := *nextID
	*nextID = id + 1
	return id
}

// DenseSequence keeps ids equal to the 1-based position in the collection.
type DenseSequence struct{}

func (DenseSequence) UsesCounter() bool { return false }
func (DenseSequence) Renumbers() bool   { return true }

func (DenseSequence) Assign(_ *int, count int) int {
	return count + 1
}
