// Package entropy replicates the contract's 256-bit pseudo-random state
// transform. The caller owns the state; the transform itself is stateless.
package entropy

import "github.com/holiman/uint256"

// Advance applies one step of the on-chain entropy transform:
//
//	state ^= state << 7
//	state ^= state >> 9
//	state ^= state << 8
//
// every step mod 2^256. The input is left untouched and a fresh value is
// returned. The transform is a bijection over 256-bit integers, so it must
// match the contract bit-for-bit, including wraparound of the left shifts.
func Advance(state *uint256.Int) *uint256.Int {
	s := new(uint256.Int).Set(state)
	var t uint256.Int
	s.Xor(s, t.Lsh(s, 7))
	s.Xor(s, t.Rsh(s, 9))
	s.Xor(s, t.Lsh(s, 8))
	return s
}
