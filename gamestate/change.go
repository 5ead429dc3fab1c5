package gamestate

import (
	"github.com/goccy/go-json"

	"pkg.world.dev/arena/types"
)

type Op string

const (
	OpInsert Op = "insert"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

// RowChange is one row written by a committed operation. Row holds the new row for inserts and updates and the
// removed row for deletes.
type RowChange struct {
	Table    string          `json:"table"`
	Op       Op              `json:"op"`
	EntityID types.EntityID  `json:"entityId"`
	Row      json.RawMessage `json:"row"`
}

// CommitListener receives the changes of every committed operation, in commit order. It is called while the store
// is still locked, so it must not block and must not call back into the store.
type CommitListener func(changes []RowChange)
