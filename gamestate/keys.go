package gamestate

import (
	"fmt"
	"strings"

	"pkg.world.dev/arena/types"
)

type keys struct {
	namespace types.Namespace
}

// table is the hash holding every row of the named table.
func (k keys) table(name string) string {
	return fmt.Sprintf("%s:TABLE:%s", k.namespace, strings.ToUpper(name))
}

// nextEntityID stores the next id the allocator may issue.
func (k keys) nextEntityID() string {
	return fmt.Sprintf("%s:NEXT-ENTITY-ID", k.namespace)
}

func (k keys) schemas() string {
	return fmt.Sprintf("%s:TABLE-SCHEMAS", k.namespace)
}
