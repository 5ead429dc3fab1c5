package gamestate

import (
	"cmp"
	"context"
	"slices"

	"github.com/kamstrup/intmap"
	"github.com/rotisserie/eris"

	"pkg.world.dev/arena/types"
)

const initialTableCapacity = 64

// Row is a single component row. Rows are keyed by the entity that owns them.
type Row interface {
	ID() types.EntityID
	Name() string
}

// table is the type erased view of a Table used by the Store when committing, discarding and loading.
type table interface {
	name() string
	schema() ([]byte, error)
	load(rows map[string]string) error
	dirty() bool
	writePending(ctx context.Context, tx Transaction, key string) ([]RowChange, error)
	commitPending()
	discardPending()
	maxID() types.EntityID
}

// Table holds every row of a single component type. Changes made through a Tx are buffered until the Store
// commits them.
type Table[R Row] struct {
	tableName string
	schemaFn  func() ([]byte, error)

	committed *intmap.Map[types.EntityID, R]
	pending   *intmap.Map[types.EntityID, R]
	deleted   *intmap.Map[types.EntityID, struct{}]

	indexes map[string]*uniqueIndex[R]
}

type uniqueIndex[R Row] struct {
	keyOf func(R) string
	// committed maps an index key to the entity of the committed row holding it.
	committed map[string]types.EntityID
}

func newTable[R Row]() *Table[R] {
	var zero R
	return &Table[R]{
		tableName: zero.Name(),
		schemaFn:  schemaOf[R],
		committed: intmap.New[types.EntityID, R](initialTableCapacity),
		pending:   intmap.New[types.EntityID, R](initialTableCapacity),
		deleted:   intmap.New[types.EntityID, struct{}](initialTableCapacity),
		indexes:   map[string]*uniqueIndex[R]{},
	}
}

// Name returns the table name, which is also the name of its row type.
func (t *Table[R]) Name() string {
	return t.tableName
}

// AddUniqueIndex enforces that no two rows share the key produced by keyOf. Indexes must be added before the
// store is loaded.
func (t *Table[R]) AddUniqueIndex(index string, keyOf func(R) string) {
	t.indexes[index] = &uniqueIndex[R]{
		keyOf:     keyOf,
		committed: map[string]types.EntityID{},
	}
}

// Get returns the row for id as seen by tx.
func (t *Table[R]) Get(tx *Tx, id types.EntityID) (R, bool) {
	tx.check()
	if row, ok := t.pending.Get(id); ok {
		return row, true
	}
	if _, ok := t.deleted.Get(id); ok {
		var zero R
		return zero, false
	}
	return t.committed.Get(id)
}

// Lookup finds the row holding key in the named unique index.
func (t *Table[R]) Lookup(tx *Tx, index, key string) (R, bool, error) {
	tx.check()
	var zero R
	idx, ok := t.indexes[index]
	if !ok {
		return zero, false, eris.Wrapf(ErrUniqueIndexNotFound, "table %q has no index %q", t.tableName, index)
	}

	var (
		found R
		hit   bool
	)
	t.pending.ForEach(func(_ types.EntityID, row R) bool {
		if idx.keyOf(row) == key {
			found, hit = row, true
			return false
		}
		return true
	})
	if hit {
		return found, true, nil
	}

	id, ok := idx.committed[key]
	if !ok {
		return zero, false, nil
	}
	// A pending version of this row no longer carries the key, otherwise the scan above would have found it.
	if _, ok := t.pending.Get(id); ok {
		return zero, false, nil
	}
	if _, ok := t.deleted.Get(id); ok {
		return zero, false, nil
	}
	row, ok := t.committed.Get(id)
	return row, ok, nil
}

// Insert adds a new row. It fails with ErrDuplicateKey if a row with the same id or the same unique index key
// already exists.
func (t *Table[R]) Insert(tx *Tx, row R) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.Get(tx, row.ID()); ok {
		return eris.Wrapf(ErrDuplicateKey, "%s row for entity %d", t.tableName, row.ID())
	}
	if err := t.checkIndexes(tx, row); err != nil {
		return err
	}
	t.pending.Put(row.ID(), row)
	return nil
}

// Update replaces an existing row. It fails with ErrRowNotFound if there is no row for the id.
func (t *Table[R]) Update(tx *Tx, row R) error {
	if err := tx.checkWritable(); err != nil {
		return err
	}
	if _, ok := t.Get(tx, row.ID()); !ok {
		return eris.Wrapf(ErrRowNotFound, "%s row for entity %d", t.tableName, row.ID())
	}
	if err := t.checkIndexes(tx, row); err != nil {
		return err
	}
	t.pending.Put(row.ID(), row)
	return nil
}

// Delete removes the row for id. It reports whether a row was removed.
func (t *Table[R]) Delete(tx *Tx, id types.EntityID) (bool, error) {
	if err := tx.checkWritable(); err != nil {
		return false, err
	}
	if _, ok := t.Get(tx, id); !ok {
		return false, nil
	}
	t.pending.Del(id)
	if _, ok := t.committed.Get(id); ok {
		t.deleted.Put(id, struct{}{})
	}
	return true, nil
}

// Rows returns every row visible to tx in ascending entity id order.
func (t *Table[R]) Rows(tx *Tx) []R {
	tx.check()
	rows := make([]R, 0, t.committed.Len()+t.pending.Len())
	t.committed.ForEach(func(id types.EntityID, row R) bool {
		if _, ok := t.pending.Get(id); ok {
			return true
		}
		if _, ok := t.deleted.Get(id); ok {
			return true
		}
		rows = append(rows, row)
		return true
	})
	t.pending.ForEach(func(_ types.EntityID, row R) bool {
		rows = append(rows, row)
		return true
	})
	slices.SortFunc(rows, func(a, b R) int {
		return cmp.Compare(a.ID(), b.ID())
	})
	return rows
}

// Len returns the number of rows visible to tx.
func (t *Table[R]) Len(tx *Tx) int {
	return len(t.Rows(tx))
}

func (t *Table[R]) checkIndexes(tx *Tx, row R) error {
	for name := range t.indexes {
		other, ok, err := t.Lookup(tx, name, t.indexes[name].keyOf(row))
		if err != nil {
			return err
		}
		if ok && other.ID() != row.ID() {
			return eris.Wrapf(ErrDuplicateKey, "%s index %q already holds entity %d", t.tableName, name, other.ID())
		}
	}
	return nil
}

func (t *Table[R]) name() string {
	return t.tableName
}

func (t *Table[R]) schema() ([]byte, error) {
	return t.schemaFn()
}

func (t *Table[R]) load(rows map[string]string) error {
	t.committed.Clear()
	for _, idx := range t.indexes {
		clear(idx.committed)
	}
	for field, value := range rows {
		id, err := types.ParseEntityID(field)
		if err != nil {
			return eris.Wrapf(err, "bad entity id in table %s", t.tableName)
		}
		row, err := decodeRow[R]([]byte(value))
		if err != nil {
			return eris.Wrapf(err, "bad row for entity %d in table %s", id, t.tableName)
		}
		if row.ID() != id {
			return eris.Errorf("row stored under entity %d in table %s belongs to entity %d", id, t.tableName, row.ID())
		}
		t.committed.Put(id, row)
		for name, idx := range t.indexes {
			key := idx.keyOf(row)
			if prev, ok := idx.committed[key]; ok {
				return eris.Wrapf(ErrDuplicateKey, "entities %d and %d share key %q of index %s.%s",
					prev, id, key, t.tableName, name)
			}
			idx.committed[key] = id
		}
	}
	return nil
}

func (t *Table[R]) dirty() bool {
	return t.pending.Len() > 0 || t.deleted.Len() > 0
}

// writePending queues the pending rows on tx and returns them as changes ordered by entity id, a delete of a row
// coming before its reinsertion.
func (t *Table[R]) writePending(ctx context.Context, tx Transaction, key string) ([]RowChange, error) {
	changes := make([]RowChange, 0, t.pending.Len()+t.deleted.Len())
	var err error
	t.deleted.ForEach(func(id types.EntityID, _ struct{}) bool {
		if err = tx.HDel(ctx, key, id.String()); err != nil {
			return false
		}
		old, _ := t.committed.Get(id)
		var bz []byte
		if bz, err = encodeRow(old); err != nil {
			return false
		}
		changes = append(changes, RowChange{Table: t.tableName, Op: OpDelete, EntityID: id, Row: bz})
		return true
	})
	if err != nil {
		return nil, err
	}
	t.pending.ForEach(func(id types.EntityID, row R) bool {
		var bz []byte
		if bz, err = encodeRow(row); err != nil {
			return false
		}
		if err = tx.HSet(ctx, key, id.String(), bz); err != nil {
			return false
		}
		changes = append(changes, RowChange{Table: t.tableName, Op: t.opFor(id), EntityID: id, Row: bz})
		return true
	})
	if err != nil {
		return nil, err
	}
	slices.SortStableFunc(changes, func(a, b RowChange) int {
		return cmp.Compare(a.EntityID, b.EntityID)
	})
	return changes, nil
}

func (t *Table[R]) opFor(id types.EntityID) Op {
	if _, ok := t.deleted.Get(id); ok {
		return OpInsert
	}
	if _, ok := t.committed.Get(id); ok {
		return OpUpdate
	}
	return OpInsert
}

func (t *Table[R]) commitPending() {
	t.deleted.ForEach(func(id types.EntityID, _ struct{}) bool {
		if row, ok := t.committed.Get(id); ok {
			t.unindex(row)
			t.committed.Del(id)
		}
		return true
	})
	t.pending.ForEach(func(id types.EntityID, row R) bool {
		if prev, ok := t.committed.Get(id); ok {
			t.unindex(prev)
		}
		t.committed.Put(id, row)
		for _, idx := range t.indexes {
			idx.committed[idx.keyOf(row)] = id
		}
		return true
	})
	t.discardPending()
}

func (t *Table[R]) unindex(row R) {
	for _, idx := range t.indexes {
		key := idx.keyOf(row)
		if idx.committed[key] == row.ID() {
			delete(idx.committed, key)
		}
	}
}

func (t *Table[R]) discardPending() {
	t.pending.Clear()
	t.deleted.Clear()
}

func (t *Table[R]) maxID() types.EntityID {
	highest := types.NoEntity
	t.committed.ForEach(func(id types.EntityID, _ R) bool {
		highest = max(highest, id)
		return true
	})
	return highest
}
