package types_test

import (
	"testing"
	"time"

	"pkg.world.dev/arena/assert"
	"pkg.world.dev/arena/types"
)

func TestVectorMath(t *testing.T) {
	loc := types.NewVector2(10, 0)
	dir := types.NewVector2(1, 0)

	got := loc.Add(dir.Mul(50))
	assert.Equal(t, types.NewVector2(60, 0), got)
	assert.Check(t, types.ZeroVector.IsZero())
	assert.Check(t, !dir.IsZero())
}

func TestTimestampEpochSentinel(t *testing.T) {
	assert.Check(t, types.UnixEpoch.IsEpoch())
	assert.Equal(t, types.UnixEpoch, types.TimestampFromTime(time.Unix(0, 0)))
	assert.Equal(t, types.UnixEpoch, types.TimestampFromTime(time.Unix(-10, 0)))

	now := time.UnixMicro(1_700_000_000_000_000)
	ts := types.TimestampFromTime(now)
	assert.Check(t, !ts.IsEpoch())
	assert.Check(t, ts.Time().Equal(now))
	assert.Equal(t, 2*time.Second, ts.Since(now.Add(2*time.Second)))
	assert.Equal(t, time.Duration(0), types.UnixEpoch.Since(now))
}

func TestIdentityRoundTrip(t *testing.T) {
	id := types.NewSessionToken().Identity()
	parsed, err := types.ParseIdentity(id.String())
	assert.NilError(t, err)
	assert.Equal(t, id, parsed)

	_, err = types.ParseIdentity("not-a-token")
	assert.ErrorIs(t, err, types.ErrInvalidIdentity)
}

func TestSessionTokenMapsToStableIdentity(t *testing.T) {
	token := types.NewSessionToken()
	parsed, err := types.ParseSessionToken(token.String())
	assert.NilError(t, err)
	assert.Equal(t, token.Identity(), parsed.Identity())

	other := types.NewSessionToken()
	assert.Check(t, token.Identity() != other.Identity())

	// Presenting someone's public identity as a token does not yield that identity.
	forged, err := types.ParseSessionToken(token.Identity().String())
	assert.NilError(t, err)
	assert.Check(t, forged.Identity() != token.Identity())

	_, err = types.ParseSessionToken("not-a-token")
	assert.ErrorIs(t, err, types.ErrInvalidSessionToken)
}

func TestEntityIDParse(t *testing.T) {
	id, err := types.ParseEntityID(types.EntityID(42).String())
	assert.NilError(t, err)
	assert.Equal(t, types.EntityID(42), id)

	_, err = types.ParseEntityID("nope")
	assert.Check(t, err != nil)
}

func TestNamespaceValidate(t *testing.T) {
	assert.NilError(t, types.Namespace("arena-1").Validate())
	assert.Check(t, types.Namespace("arena:1").Validate() != nil)
}
