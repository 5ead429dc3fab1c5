package arena

import "github.com/rotisserie/eris"

var (
	// ErrAlreadyExists is returned by CreatePlayer when the identity already owns a player.
	ErrAlreadyExists = eris.New("player already exists for this identity")
	// ErrMissingPlayer is returned by movement operations when the identity owns no player, or its player has no
	// location.
	ErrMissingPlayer = eris.New("no player for this identity")
	ErrWorldNotReady = eris.New("world is not accepting operations")
)
