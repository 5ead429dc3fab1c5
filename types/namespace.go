package types

import (
	"regexp"

	"github.com/rotisserie/eris"
)

var (
	regexAlphanumeric = regexp.MustCompile(`^[a-zA-Z0-9-]+$`)
)

// Namespace prefixes every storage key written by an arena shard so several shards can share one redis.
type Namespace string

func (n Namespace) String() string {
	return string(n)
}

// Validate validates that the namespace is alphanumeric or - (hyphen).
func (n Namespace) Validate() error {
	if !regexAlphanumeric.MatchString(n.String()) {
		return eris.Errorf("invalid namespace %q: a namespace must be alphanumeric", n.String())
	}
	return nil
}
