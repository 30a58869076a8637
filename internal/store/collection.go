package store

// Entity is implemented by pointers to records that carry an integer id.
type Entity[T any] interface {
	*T
	GetID() int
	SetID(id int)
}

// Collection is a load-all / write-all store over one document. Every
// mutating call reads the whole document, changes it in memory and writes it
// back; concurrent writers race and the last write wins.
type Collection[T any, P Entity[T]] struct {
	backend   Backend
	layout    layout
	numbering Numbering
}

func NewCollection[T any, P Entity[T]](b Backend, name string, numbering Numbering) *Collection[T, P] {
	return &Collection[T, P]{
		backend:   b,
		layout:    layout{name: name, counter: numbering.UsesCounter()},
		numbering: numbering,
	}
}

func (c *Collection[T, P]) load() (document[T], error) {
	doc, err := readDocument[T](c.backend, c.layout, nil)
	if err != nil {
		return doc, err
	}
	if c.layout.counter {
		// a hand-edited counter must not hand out an id that is still in use
		for i := range doc.records {
			if id := P(&doc.records[i]).GetID(); id >= doc.nextID {
				doc.nextID = id + 1
			}
		}
	}
	return doc, nil
}

func (c *Collection[T, P]) save(doc document[T]) error {
	return writeDocument(c.backend, c.layout, doc)
}

func (c *Collection[T, P]) List() ([]T, error) {
	doc, err := c.load()
	if err != nil {
		return nil, err
	}
	return doc.records, nil
}

func (c *Collection[T, P]) Count() (int, error) {
	doc, err := c.load()
	if err != nil {
		return 0, err
	}
	return len(doc.records), nil
}

func (c *Collection[T, P]) Get(id int) (*T, error) {
	doc, err := c.load()
	if err != nil {
		return nil, err
	}
	for i := range doc.records {
		if P(&doc.records[i]).GetID() == id {
			rec := doc.records[i]
			return &rec, nil
		}
	}
	return nil, ErrNotFound
}

// Filter returns the records matching keep, in stored order.
func (c *Collection[T, P]) Filter(keep func(*T) bool) ([]T, error) {
	doc, err := c.load()
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(doc.records))
	for i := range doc.records {
		if keep(&doc.records[i]) {
			out = append(out, doc.records[i])
		}
	}
	return out, nil
}

func (c *Collection[T, P]) Create(rec T) (int, error) {
	ids, err := c.CreateMany([]T{rec})
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// CreateMany appends all records with a single document write.
func (c *Collection[T, P]) CreateMany(recs []T) ([]int, error) {
	doc, err := c.load()
	if err != nil {
		return nil, err
	}
	ids := make([]int, 0, len(recs))
	for _, rec := range recs {
		id := c.numbering.Assign(&doc.nextID, len(doc.records))
		P(&rec).SetID(id)
		doc.records = append(doc.records, rec)
		ids = append(ids, id)
	}
	if err := c.save(doc); err != nil {
		return nil, err
	}
	return ids, nil
}

// Update applies mutate to the record with the given id in place. It reports
// false without writing when no such record exists.
func (c *Collection[T, P]) Update(id int, mutate func(P)) (bool, error) {
	doc, err := c.load()
	if err != nil {
		return false, err
	}
	for i := range doc.records {
		p := P(&doc.records[i])
		if p.GetID() == id {
			mutate(p)
			p.SetID(id)
			if err := c.save(doc); err != nil {
				return false, err
			}
			return true, nil
		}
	}
	return false, nil
}

// Delete removes the record with the given id and applies the renumbering
// policy to the survivors.
func (c *Collection[T, P]) Delete(id int) (bool, error) {
	doc, err := c.load()
	if err != nil {
		return false, err
	}
	kept := make([]T, 0, len(doc.records))
	for i := range doc.records {
		if P(&doc.records[i]).GetID() != id {
			kept = append(kept, doc.records[i])
		}
	}
	if len(kept) == len(doc.records) {
		return false, nil
	}
	if c.numbering.Renumbers() {
		for i := range kept {
			P(&kept[i]).SetID(i + 1)
		}
	}
	doc.records = kept
	if err := c.save(doc); err != nil {
		return false, err
	}
	return true, nil
}
