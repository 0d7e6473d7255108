package store

// Entity is any record with a stable unique identifier.
type Entity interface {
	EntityID() string
}

// Collection keeps entities of one domain keyed by id alongside an explicit
// presentation order. The two views are kept consistent: every ordered id has
// a keyed entry and no id appears in the order twice.
type Collection[T Entity] struct {
	byID  map[string]T
	order []string
}

// NewCollection returns an empty collection.
func NewCollection[T Entity]() Collection[T] {
	return Collection[T]{byID: make(map[string]T)}
}

// ReplaceAll rebuilds the collection from the given list, keyed by entity id,
// with order derived from list position. Duplicate ids are a caller error;
// the first occurrence wins.
func (c *Collection[T]) ReplaceAll(entities []T) {
	c.byID = make(map[string]T, len(entities))
	c.order = c.order[:0]
	for _, e := range entities {
		id := e.EntityID()
		if _, ok := c.byID[id]; ok {
			continue
		}
		c.byID[id] = e
		c.order = append(c.order, id)
	}
}

// Upsert sets or overwrites the keyed entry. A new id is appended to the end
// of the order; existing ids keep their position.
func (c *Collection[T]) Upsert(e T) {
	id := e.EntityID()
	if c.byID == nil {
		c.byID = make(map[string]T)
	}
	_, exists := c.byID[id]
	c.byID[id] = e
	if !exists {
		c.order = append(c.order, id)
	}
}

// Remove deletes the keyed entry and its order reference.
func (c *Collection[T]) Remove(id string) {
	if _, ok := c.byID[id]; !ok {
		return
	}
	delete(c.byID, id)
	c.order = removeID(c.order, id)
}

// AppendOrder appends id to the order if it is keyed and not yet ordered.
func (c *Collection[T]) AppendOrder(id string) {
	if _, ok := c.byID[id]; !ok {
		return
	}
	for _, existing := range c.order {
		if existing == id {
			return
		}
	}
	c.order = append(c.order, id)
}

// RemoveOrder drops id from the order, keeping the keyed entry.
func (c *Collection[T]) RemoveOrder(id string) {
	c.order = removeID(c.order, id)
}

// Get returns the entity for id.
func (c *Collection[T]) Get(id string) (T, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Has reports whether id is keyed.
func (c *Collection[T]) Has(id string) bool {
	_, ok := c.byID[id]
	return ok
}

// Len returns the number of keyed entities.
func (c *Collection[T]) Len() int { return len(c.byID) }

// Order returns a copy of the presentation order.
func (c *Collection[T]) Order() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// All returns the entities in presentation order.
func (c *Collection[T]) All() []T {
	out := make([]T, 0, len(c.order))
	for _, id := range c.order {
		if e, ok := c.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out
}

// IDs returns the keyed id set.
func (c *Collection[T]) IDs() map[string]struct{} {
	out := make(map[string]struct{}, len(c.byID))
	for id := range c.byID {
		out[id] = struct{}{}
	}
	return out
}

// removeID returns ids without the first occurrence of id. The result is a
// fresh slice so arrangements handed out before the removal keep their
// contents.
func removeID(ids []string, id string) []string {
	for i, existing := range ids {
		if existing == id {
			out := make([]string, 0, len(ids)-1)
			out = append(out, ids[:i]...)
			return append(out, ids[i+1:]...)
		}
	}
	return ids
}

// spliceInsert inserts id at index, clamped to [0, len(ids)].
func spliceInsert(ids []string, index int, id string) []string {
	if index < 0 {
		index = 0
	}
	if index > len(ids) {
		index = len(ids)
	}
	ids = append(ids, "")
	copy(ids[index+1:], ids[index:])
	ids[index] = id
	return ids
}
