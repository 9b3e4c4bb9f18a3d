// Package collection holds the insertion-ordered record set backing the
// expense and notification caches.
package collection

// Ordered is an id-keyed set of records that remembers insertion order.
// It is not safe for concurrent use; owners guard it with their own mutex.
type Ordered[K comparable, V any] struct {
	keyOf func(V) K
	keys  []K
	items map[K]V
}

// NewOrdered returns an empty set keyed by keyOf.
func NewOrdered[K comparable, V any](keyOf func(V) K) *Ordered[K, V] {
	return &Ordered[K, V]{keyOf: keyOf, items: make(map[K]V)}
}

// ReplaceAll discards the current contents and stores records in order.
// A repeated key keeps its first position and its last value.
func (o *Ordered[K, V]) ReplaceAll(records []V) {
	o.keys = make([]K, 0, len(records))
	o.items = make(map[K]V, len(records))
	for _, r := range records {
		o.Upsert(r)
	}
}

// Upsert replaces the record with the same key in place, or appends it.
func (o *Ordered[K, V]) Upsert(record V) {
	k := o.keyOf(record)
	if _, ok := o.items[k]; !ok {
		o.keys = append(o.keys, k)
	}
	o.items[k] = record
}

// Remove deletes the record with key k. Absent keys are ignored.
func (o *Ordered[K, V]) Remove(k K) bool {
	if _, ok := o.items[k]; !ok {
		return false
	}
	delete(o.items, k)
	for i, existing := range o.keys {
		if existing == k {
			o.keys = append(o.keys[:i], o.keys[i+1:]...)
			break
		}
	}
	return true
}

// Get returns the record with key k.
func (o *Ordered[K, V]) Get(k K) (V, bool) {
	v, ok := o.items[k]
	return v, ok
}

// Len returns the number of records.
func (o *Ordered[K, V]) Len() int { return len(o.keys) }

// Snapshot returns the records in insertion order. The slice is a copy.
func (o *Ordered[K, V]) Snapshot() []V {
	out := make([]V, 0, len(o.keys))
	for _, k := range o.keys {
		out = append(out, o.items[k])
	}
	return out
}

// Reset empties the set.
func (o *Ordered[K, V]) Reset() {
	o.keys = nil
	o.items = make(map[K]V)
}
