package gamestate

import (
	"context"
	"fmt"
	"sync"

	"github.com/rotisserie/eris"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"pkg.world.dev/arena/types"
)

// firstEntityID is issued to the first entity of an empty store. types.NoEntity is never issued.
const firstEntityID = types.EntityID(1)

type StoreOption func(*Store)

// WithCommitListener registers fn to receive the row changes of every committed operation.
func WithCommitListener(fn CommitListener) StoreOption {
	return func(s *Store) {
		s.onCommit = fn
	}
}

// WithLogger replaces the global zerolog logger for this store.
func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// Store owns every table and the entity id allocator mark. See the package documentation for the commit model.
type Store struct {
	mu        sync.RWMutex
	storage   PrimitiveStorage
	keys      keys
	logger    zerolog.Logger
	tables    []table
	byName    map[string]table
	loaded    bool
	nextID    types.EntityID
	pendingID types.EntityID
	onCommit  CommitListener
}

func NewStore(storage PrimitiveStorage, namespace types.Namespace, opts ...StoreOption) *Store {
	s := &Store{
		storage: storage,
		keys:    keys{namespace: namespace},
		logger:  log.Logger,
		byName:  map[string]table{},
		nextID:  firstEntityID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds the table for row type R. Tables must be registered before Load.
func Register[R Row](s *Store) (*Table[R], error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return nil, eris.Wrap(ErrStoreAlreadyLoaded, "")
	}
	t := newTable[R]()
	if _, ok := s.byName[t.name()]; ok {
		return nil, eris.Wrapf(ErrTableRegistered, "table %q", t.name())
	}
	s.tables = append(s.tables, t)
	s.byName[t.name()] = t
	return t, nil
}

// Load rebuilds the committed state from storage. It must be called once, after every table is registered and
// before the first operation.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkSchemas(ctx); err != nil {
		return err
	}

	highest := types.NoEntity
	for _, t := range s.tables {
		rows, err := s.storage.HGetAll(ctx, s.keys.table(t.name()))
		if err != nil {
			return eris.Wrapf(err, "failed to load table %s", t.name())
		}
		if err := t.load(rows); err != nil {
			return err
		}
		highest = max(highest, t.maxID())
	}

	next, err := s.storage.GetUInt64(ctx, s.keys.nextEntityID())
	switch {
	case eris.Is(err, ErrNotFound):
		next = uint64(firstEntityID)
	case err != nil:
		return eris.Wrap(err, "failed to load next entity id")
	}
	// Never hand out an id that already has rows, even if the stored mark lags behind them.
	s.nextID = max(types.EntityID(next), highest+1)
	s.pendingID = 0
	s.loaded = true

	s.logger.Debug().
		Int("tables", len(s.tables)).
		Uint64("next_entity_id", uint64(s.nextID)).
		Msg("game state loaded")
	return nil
}

func (s *Store) checkSchemas(ctx context.Context) error {
	for _, t := range s.tables {
		current, err := t.schema()
		if err != nil {
			return err
		}
		stored, err := s.storage.HGet(ctx, s.keys.schemas(), t.name())
		if eris.Is(err, ErrNotFound) {
			if err := s.storage.HSet(ctx, s.keys.schemas(), t.name(), current); err != nil {
				return eris.Wrapf(err, "failed to store schema of table %s", t.name())
			}
			continue
		} else if err != nil {
			return eris.Wrapf(err, "failed to get schema of table %s", t.name())
		}
		if err := validateAgainstSchema(current, stored); err != nil {
			return eris.Wrapf(err, "table %s", t.name())
		}
	}
	return nil
}

// AtomicFn runs fn as one atomic operation. Either every change fn makes is committed to storage and memory, or
// none is.
func (s *Store) AtomicFn(ctx context.Context, fn func(tx *Tx) error) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return eris.Wrap(ErrStoreNotLoaded, "")
	}

	tx := &Tx{store: s}
	defer func() {
		tx.done = true
		if r := recover(); r != nil {
			s.discardPending()
			err = eris.Wrap(ErrInvariantViolation, fmt.Sprint(r))
			s.logger.Error().Err(err).Msg(eris.ToString(err, true))
		}
	}()

	if err = fn(tx); err != nil {
		s.discardPending()
		return err
	}
	if err = s.commit(ctx); err != nil {
		s.discardPending()
		return err
	}
	return nil
}

// View gives read only access to the committed state.
func (s *Store) View(fn func(tx *Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if !s.loaded {
		return eris.Wrap(ErrStoreNotLoaded, "")
	}
	tx := &Tx{store: s, readOnly: true}
	defer func() { tx.done = true }()
	return fn(tx)
}

func (s *Store) dirty() bool {
	if s.pendingID > 0 {
		return true
	}
	for _, t := range s.tables {
		if t.dirty() {
			return true
		}
	}
	return false
}

func (s *Store) commit(ctx context.Context) error {
	if !s.dirty() {
		return nil
	}
	pipe, err := s.storage.StartTransaction(ctx)
	if err != nil {
		return eris.Wrap(err, "failed to start transaction")
	}
	if s.pendingID > 0 {
		if err := pipe.Set(ctx, s.keys.nextEntityID(), uint64(s.nextID+s.pendingID)); err != nil {
			return eris.Wrap(err, "failed to queue next entity id")
		}
	}
	var changes []RowChange
	for _, t := range s.tables {
		if !t.dirty() {
			continue
		}
		tableChanges, err := t.writePending(ctx, pipe, s.keys.table(t.name()))
		if err != nil {
			return eris.Wrapf(err, "failed to queue changes to table %s", t.name())
		}
		changes = append(changes, tableChanges...)
	}
	if err := pipe.EndTransaction(ctx); err != nil {
		return err
	}

	for _, t := range s.tables {
		t.commitPending()
	}
	s.nextID += s.pendingID
	s.pendingID = 0
	if s.onCommit != nil && len(changes) > 0 {
		s.onCommit(changes)
	}
	return nil
}

func (s *Store) discardPending() {
	for _, t := range s.tables {
		t.discardPending()
	}
	s.pendingID = 0
}
