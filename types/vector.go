package types

import "github.com/go-gl/mathgl/mgl32"

// Vector2 is a position or direction on the arena floor. The height axis is owned by the client's terrain, so
// only x and z are tracked.
type Vector2 struct {
	X float32 `json:"x"`
	Z float32 `json:"z"`
}

// ZeroVector is the origin, and also the "not moving" direction.
var ZeroVector = Vector2{}

func NewVector2(x, z float32) Vector2 {
	return Vector2{X: x, Z: z}
}

func fromVec(v mgl32.Vec2) Vector2 {
	return Vector2{X: v.X(), Z: v.Y()}
}

// Vec returns v as an mgl32 vector, with z stored in the second lane.
func (v Vector2) Vec() mgl32.Vec2 {
	return mgl32.Vec2{v.X, v.Z}
}

func (v Vector2) Add(o Vector2) Vector2 {
	return fromVec(v.Vec().Add(o.Vec()))
}

func (v Vector2) Mul(s float32) Vector2 {
	return fromVec(v.Vec().Mul(s))
}

func (v Vector2) IsZero() bool {
	return v == ZeroVector
}
