package gamestate

import (
	"github.com/rotisserie/eris"

	"pkg.world.dev/arena/internal/assert"
	"pkg.world.dev/arena/types"
)

// Tx is the handle passed to AtomicFn and View callbacks. It is only valid until the callback returns.
type Tx struct {
	store    *Store
	readOnly bool
	done     bool
}

// NextEntityID reserves the next entity id. The reservation only becomes permanent if the operation commits.
func (tx *Tx) NextEntityID() types.EntityID {
	tx.check()
	assert.That(!tx.readOnly, "cannot allocate an entity id from a read only transaction")
	id := tx.store.nextID + tx.store.pendingID
	tx.store.pendingID++
	return id
}

func (tx *Tx) check() {
	assert.That(tx != nil && !tx.done, "transaction used outside of its operation")
}

func (tx *Tx) checkWritable() error {
	tx.check()
	if tx.readOnly {
		return eris.Wrap(ErrReadOnly, "")
	}
	return nil
}
