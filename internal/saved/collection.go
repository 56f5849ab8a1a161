package saved

import (
	"errors"
	"fmt"
	"maps"
	"slices"
)

var (
	ErrNotFound  = errors.New("saved item not found")
	ErrDuplicate = errors.New("saved item already exists")
	ErrEmptyKey  = errors.New("saved item has no key")
)

// Item is anything a Collection can hold.
type Item interface {
	Key() string
}

// Collection is an ordered, keyed set of items. It is immutable: every
// change returns a new Collection and leaves the receiver untouched, so
// older values stay valid snapshots.
type Collection[T Item] struct {
	keys  []string
	items map[string]T
}

// NewCollection builds a collection from items in order.
func NewCollection[T Item](items ...T) (Collection[T], error) {
	var c Collection[T]
	for _, it := range items {
		next, err := c.Add(it)
		if err != nil {
			return Collection[T]{}, err
		}
		c = next
	}
	return c, nil
}

// Len returns the number of items.
func (c Collection[T]) Len() int { return len(c.keys) }

// Get returns the item stored under key.
func (c Collection[T]) Get(key string) (T, bool) {
	it, ok := c.items[key]
	return it, ok
}

// List returns the items in insertion order.
func (c Collection[T]) List() []T {
	out := make([]T, 0, len(c.keys))
	for _, k := range c.keys {
		out = append(out, c.items[k])
	}
	return out
}

// Add appends item. Its key must be non-empty and unused.
func (c Collection[T]) Add(item T) (Collection[T], error) {
	key := item.Key()
	if key == "" {
		return c, ErrEmptyKey
	}
	if _, ok := c.items[key]; ok {
		return c, fmt.Errorf("Add %s: %w", key, ErrDuplicate)
	}
	next := c.clone()
	next.keys = append(next.keys, key)
	next.items[key] = item
	return next, nil
}

// Update replaces the item with the same key, keeping its position.
func (c Collection[T]) Update(item T) (Collection[T], error) {
	key := item.Key()
	if _, ok := c.items[key]; !ok {
		return c, fmt.Errorf("Update %s: %w", key, ErrNotFound)
	}
	next := c.clone()
	next.items[key] = item
	return next, nil
}

// Remove deletes the item stored under key.
func (c Collection[T]) Remove(key string) (Collection[T], error) {
	if _, ok := c.items[key]; !ok {
		return c, fmt.Errorf("Remove %s: %w", key, ErrNotFound)
	}
	next := c.clone()
	next.keys = slices.DeleteFunc(next.keys, func(k string) bool { return k == key })
	delete(next.items, key)
	return next, nil
}

func (c Collection[T]) clone() Collection[T] {
	next := Collection[T]{
		keys:  slices.Clone(c.keys),
		items: maps.Clone(c.items),
	}
	if next.items == nil {
		next.items = make(map[string]T)
	}
	return next
}
