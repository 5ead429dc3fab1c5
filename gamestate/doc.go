/*
Package gamestate is the arena's component store. It keeps a small set of tables keyed by entity id, buffers every
change made during an operation, and either commits those changes in one atomic redis transaction or throws them
away. Redis is never left holding a partial operation.

# Atomic operations

Store.AtomicFn runs a function against a Tx. Reads through the Tx see the pending changes made so far; reads through
Store.View (or another process reading redis) only ever see committed state.

If the function returns an error, every pending change is discarded and the error is returned as is. If the function
panics, the pending changes are discarded and ErrInvariantViolation is returned; panics are how callers report
conditions that no input should be able to cause. Otherwise the pending changes are packaged into a single
MULTI/EXEC pipeline. Only after redis accepts the pipeline do the changes become visible to later operations.

AtomicFn calls are serialized. No explicit locking is needed by callers.

# Redis storage model

All keys are prefixed with the store namespace.

key:	fmt.Sprintf("%s:TABLE:%s", namespace, TABLE-NAME)
value:	A hash. Each field is a decimal entity id and each value is the JSON encoded row for that entity.

key:	fmt.Sprintf("%s:NEXT-ENTITY-ID", namespace)
value:	The next entity id the allocator will hand out. Every id below this value has been issued at some point.

key:	fmt.Sprintf("%s:TABLE-SCHEMAS", namespace)
value:	A hash of table name to the JSON schema of its row type. Load refuses to start when a row type no longer
matches what was stored.

# In-memory model

Committed rows are held in memory and are the source for all reads, so a Store must be the only writer of its
namespace. Store.Load rebuilds the in-memory tables from redis on startup.
*/
package gamestate
