package storage

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// ErrLayoutInvariant means a packed layout does not fit its bit-width
// contract. It indicates a layout/version mismatch with the deployed
// contract and is always fatal.
var ErrLayoutInvariant = errors.New("packed layout violates bit-width contract")

// Field is one bit-field inside a packed storage word. Shift is measured
// from the least-significant bit.
type Field struct {
	Name  string
	Bits  uint
	Shift uint
}

// Layout is an ordered list of non-overlapping fields partitioning at most
// 256 bits of one word.
type Layout []Field

// Validate checks the layout against its bit-width contract: every field has
// a nonzero width, ends within 256 bits, and overlaps no other field.
func (l Layout) Validate() error {
	var used [256]bool
	for _, f := range l {
		if f.Bits == 0 {
			return fmt.Errorf("%w: field %q has zero width", ErrLayoutInvariant, f.Name)
		}
		if f.Shift+f.Bits > 256 {
			return fmt.Errorf("%w: field %q ends at bit %d", ErrLayoutInvariant, f.Name, f.Shift+f.Bits)
		}
		for i := f.Shift; i < f.Shift+f.Bits; i++ {
			if used[i] {
				return fmt.Errorf("%w: field %q overlaps at bit %d", ErrLayoutInvariant, f.Name, i)
			}
			used[i] = true
		}
	}
	return nil
}

func fieldMask(bits uint) *uint256.Int {
	m := new(uint256.Int).Lsh(uint256.NewInt(1), bits)
	return m.SubUint64(m, 1)
}

// Decode extracts every field of the layout from a raw word as
// (word >> shift) & ((1 << bits) - 1). The layout is assumed valid; use
// Validate at startup.
func Decode(word *uint256.Int, l Layout) map[string]*uint256.Int {
	out := make(map[string]*uint256.Int, len(l))
	for _, f := range l {
		v := new(uint256.Int).Rsh(word, f.Shift)
		out[f.Name] = v.And(v, fieldMask(f.Bits))
	}
	return out
}

// Encode packs field values back into one word, the inverse of Decode.
// Values wider than their field are truncated to the field width.
func Encode(values map[string]*uint256.Int, l Layout) *uint256.Int {
	word := new(uint256.Int)
	for _, f := range l {
		v, ok := values[f.Name]
		if !ok {
			continue
		}
		part := new(uint256.Int).And(v, fieldMask(f.Bits))
		word.Or(word, part.Lsh(part, f.Shift))
	}
	return word
}

// AddressField renders a 160-bit field value as an EIP-55 checksummed
// address string.
func AddressField(v *uint256.Int) string {
	return common.Address(v.Bytes20()).Hex()
}
