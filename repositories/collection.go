package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Dosada05/competition-ledger/storage"
)

// recordPtr is implemented by pointers to every stored model.
type recordPtr[T any] interface {
	*T
	RecordID() int64
	Normalize()
	Validate() error
}

// collection is one JSON array blob, loaded lazily and written back only when changed.
type collection[T any, P recordPtr[T]] struct {
	key      string
	notFound error
	items    []T
	loaded   bool
	dirty    bool
}

func newCollection[T any, P recordPtr[T]](key string, notFound error) *collection[T, P] {
	return &collection[T, P]{key: key, notFound: notFound}
}

func (c *collection[T, P]) load(ctx context.Context, tx storage.Tx) error {
	if c.loaded {
		return nil
	}
	raw, err := tx.Get(ctx, c.key)
	if err != nil {
		if errors.Is(err, storage.ErrKeyNotFound) {
			c.items = []T{}
			c.loaded = true
			return nil
		}
		return err
	}
	items, err := decodeRecords[T, P](c.key, raw)
	if err != nil {
		return err
	}
	c.items = items
	c.loaded = true
	return nil
}

// decodeRecords is the validation boundary: broken JSON or invalid records fail
// with storage.ErrStorageCorrupt instead of being silently reset.
func decodeRecords[T any, P recordPtr[T]](key string, raw []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return []T{}, nil
	}

	var elems []json.RawMessage
	if err := json.Unmarshal(trimmed, &elems); err != nil {
		return nil, fmt.Errorf("%w: key %q: %v", storage.ErrStorageCorrupt, key, err)
	}

	items := make([]T, 0, len(elems))
	seen := make(map[int64]struct{}, len(elems))
	for i, elem := range elems {
		var item T
		if err := json.Unmarshal(elem, &item); err != nil {
			return nil, fmt.Errorf("%w: key %q record %d: %v", storage.ErrStorageCorrupt, key, i, err)
		}
		p := P(&item)
		p.Normalize()
		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: key %q record %d: %v", storage.ErrStorageCorrupt, key, i, err)
		}
		if _, dup := seen[p.RecordID()]; dup {
			return nil, fmt.Errorf("%w: key %q record %d: duplicate id %d", storage.ErrStorageCorrupt, key, i, p.RecordID())
		}
		seen[p.RecordID()] = struct{}{}
		items = append(items, item)
	}
	return items, nil
}

func (c *collection[T, P]) flush(ctx context.Context, tx storage.Tx) error {
	if !c.dirty {
		return nil
	}
	data, err := json.Marshal(c.items)
	if err != nil {
		return fmt.Errorf("failed to encode %q: %w", c.key, err)
	}
	if err := tx.Set(ctx, c.key, data); err != nil {
		return err
	}
	c.dirty = false
	return nil
}

func (c *collection[T, P]) indexOf(id int64) int {
	for i := range c.items {
		if P(&c.items[i]).RecordID() == id {
			return i
		}
	}
	return -1
}

func (c *collection[T, P]) exists(id int64) bool { return c.indexOf(id) >= 0 }

func (c *collection[T, P]) list() []T {
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

func (c *collection[T, P]) get(id int64) (*T, error) {
	i := c.indexOf(id)
	if i < 0 {
		return nil, c.notFound
	}
	item := c.items[i]
	return &item, nil
}

func (c *collection[T, P]) insert(item T) error {
	p := P(&item)
	p.Normalize()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if c.exists(p.RecordID()) {
		return fmt.Errorf("%w: id %d in %q", ErrRecordConflict, p.RecordID(), c.key)
	}
	c.items = append(c.items, item)
	c.dirty = true
	return nil
}

func (c *collection[T, P]) replace(item T) error {
	p := P(&item)
	p.Normalize()
	if err := p.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	i := c.indexOf(p.RecordID())
	if i < 0 {
		return c.notFound
	}
	c.items[i] = item
	c.dirty = true
	return nil
}

func (c *collection[T, P]) remove(id int64) error {
	i := c.indexOf(id)
	if i < 0 {
		return c.notFound
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.dirty = true
	return nil
}

// nextID follows the client convention of timestamp ids, bumped past collisions.
func (c *collection[T, P]) nextID(nowMillis int64) int64 {
	id := nowMillis
	for c.exists(id) {
		id++
	}
	return id
}
