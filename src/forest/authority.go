package forest

import (
	"fmt"

	"github.com/arborworks/canopy/src/common"
)

// AuthoritySize is the fixed width of an authority identifier in bytes.
const AuthoritySize = 32

// Authority is the opaque identifier under which one tree is scoped. Being a
// fixed-size array it can key maps directly.
type Authority [AuthoritySize]byte

// NewAuthority builds an Authority from a raw 32-byte identifier.
func NewAuthority(raw []byte) (Authority, error) {
	var a Authority
	if len(raw) != AuthoritySize {
		return a, fmt.Errorf("authority should be %d bytes, got %d", AuthoritySize, len(raw))
	}
	copy(a[:], raw)
	return a, nil
}

// ParseAuthority builds an Authority from its hex representation.
func ParseAuthority(s string) (Authority, error) {
	raw, err := common.DecodeFromString(s)
	if err != nil {
		return Authority{}, err
	}
	return NewAuthority(raw)
}

// String returns the hex representation of the authority.
func (a Authority) String() string {
	return common.EncodeToString(a[:])
}
