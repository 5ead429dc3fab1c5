package types

import "strconv"

// EntityID identifies a live entity. IDs are issued by the allocator and are never reused.
type EntityID uint64

// NoEntity is never issued by the allocator.
const NoEntity EntityID = 0

func (id EntityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseEntityID parses the decimal form produced by EntityID.String.
func ParseEntityID(s string) (EntityID, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return NoEntity, err
	}
	return EntityID(v), nil
}
