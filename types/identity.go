package types

import (
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
)

var (
	ErrInvalidIdentity     = eris.New("invalid identity")
	ErrInvalidSessionToken = eris.New("invalid session token")
)

// identitySpace namespaces the name based uuids identities are derived into.
var identitySpace = uuid.MustParse("9b3c2f4e-6c1a-4e55-8f0d-2b7a61c4d9e3")

// Identity is the public id of a client. It is derived from the client's SessionToken, so it may be published
// freely: knowing it does not let anyone act as that client.
type Identity string

// ParseIdentity checks that s has the shape of an Identity.
func ParseIdentity(s string) (Identity, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", eris.Wrapf(ErrInvalidIdentity, "%q", s)
	}
	return Identity(id.String()), nil
}

func (i Identity) String() string {
	return string(i)
}

// SessionToken is the secret a client presents to open a session. Only the host ever sees it; everything past the
// transport layer works with the Identity it maps to.
type SessionToken string

// NewSessionToken issues a fresh random token.
func NewSessionToken() SessionToken {
	return SessionToken(uuid.NewString())
}

func ParseSessionToken(s string) (SessionToken, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", eris.Wrap(ErrInvalidSessionToken, "")
	}
	return SessionToken(id.String()), nil
}

// Identity returns the identity the token stands for. The mapping is a one way hash.
func (t SessionToken) Identity() Identity {
	return Identity(uuid.NewSHA1(identitySpace, []byte(t)).String())
}

func (t SessionToken) String() string {
	return string(t)
}
