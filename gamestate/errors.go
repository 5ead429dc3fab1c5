package gamestate

import "github.com/rotisserie/eris"

var (
	// ErrInvariantViolation is returned by AtomicFn when the operation panicked. The operation had no effect.
	ErrInvariantViolation = eris.New("invariant violation, operation aborted")

	ErrDuplicateKey        = eris.New("row with the same key already exists")
	ErrRowNotFound         = eris.New("row does not exist")
	ErrUniqueIndexNotFound = eris.New("unique index does not exist")
	ErrReadOnly            = eris.New("cannot modify state with a read only transaction")
	ErrTableRegistered     = eris.New("table is already registered")
	ErrStoreNotLoaded      = eris.New("store must be loaded before use")
	ErrStoreAlreadyLoaded  = eris.New("tables cannot be registered after the store is loaded")
	ErrSchemaMismatch      = eris.New("row type does not match the schema stored in storage")

	// ErrNotFound is returned by a PrimitiveStorage when a key has no value.
	ErrNotFound = eris.New("key not found in storage")
)
