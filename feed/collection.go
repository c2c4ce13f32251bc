package feed

import (
	"sort"

	"golang.org/x/exp/constraints"
)

// Pair couples a key with its value in snapshot results.
type Pair[K, V any] struct {
	Key K
	Val V
}

// Collection is a keyed set of values with snapshots ordered by a caller
// supplied less function. Keys are unique; Add refuses duplicates.
type Collection[K constraints.Ordered, V any] struct {
	dict map[K]V
	less func(a, b V) bool
}

func NewCollection[K constraints.Ordered, V any](less func(a, b V) bool) *Collection[K, V] {
	return &Collection[K, V]{
		dict: make(map[K]V),
		less: less,
	}
}

func (col *Collection[K, V]) Len() int {
	return len(col.dict)
}

// Add inserts a new key. Inserting an existing key is refused so callers
// notice identity clashes instead of silently overwriting.
func (col *Collection[K, V]) Add(key K, value V) error {
	if _, ok := col.dict[key]; ok {
		return ErrDuplicateKey
	}
	col.dict[key] = value
	return nil
}

// Put inserts or replaces the value under key.
func (col *Collection[K, V]) Put(key K, value V) {
	col.dict[key] = value
}

func (col *Collection[K, V]) At(key K) (V, bool) {
	v, ok := col.dict[key]
	return v, ok
}

// Del removes and returns the value under key.
func (col *Collection[K, V]) Del(key K) (V, bool) {
	v, ok := col.dict[key]
	if ok {
		delete(col.dict, key)
	}
	return v, ok
}

// Values returns every value ordered by the collection's less function.
func (col *Collection[K, V]) Values() []V {
	return col.Filter(func(V) bool { return true })
}

// Filter returns the values accepted by keep, in collection order.
func (col *Collection[K, V]) Filter(keep func(V) bool) []V {
	result := make([]V, 0, len(col.dict))
	for _, v := range col.dict {
		if keep(v) {
			result = append(result, v)
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return col.less(result[i], result[j])
	})
	return result
}
