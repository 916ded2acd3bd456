// Package storage derives contract storage slot addresses and decodes
// bit-packed storage words. Everything here is pure slot arithmetic; fetching
// the words themselves is the chain package's job.
package storage

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"golang.org/x/crypto/sha3"
)

// Key is a mapping key in its canonical 32-byte storage encoding. The set of
// implementations is closed: integers, raw 32-byte words, and addresses.
type Key interface {
	pad32() [32]byte
}

// UintKey encodes an unsigned integer key big-endian, left-padded to 32 bytes.
type UintKey struct {
	V *uint256.Int
}

func (k UintKey) pad32() [32]byte {
	return k.V.Bytes32()
}

// Bytes32Key is a key that is already a full storage word.
type Bytes32Key [32]byte

func (k Bytes32Key) pad32() [32]byte {
	return [32]byte(k)
}

// AddressKey encodes a 160-bit address right-justified into 32 bytes.
type AddressKey common.Address

func (k AddressKey) pad32() [32]byte {
	var b [32]byte
	copy(b[12:], k[:])
	return b
}

func keccakWords(chunks ...[32]byte) *uint256.Int {
	d := sha3.NewLegacyKeccak256()
	for _, c := range chunks {
		d.Write(c[:])
	}
	var out [32]byte
	d.Sum(out[:0])
	return new(uint256.Int).SetBytes(out[:])
}

// Slot returns the address of a fixed scalar or packed slot.
func Slot(n uint64) *uint256.Int {
	return uint256.NewInt(n)
}

// MappingSlot returns keccak256(pad32(key) || pad32(base)), the slot holding
// mapping[base][key].
func MappingSlot(base *uint256.Int, key Key) *uint256.Int {
	return keccakWords(key.pad32(), base.Bytes32())
}

// DynamicArrayDataSlot returns keccak256(pad32(arraySlot)), the first slot of
// a dynamic array's data region. The length lives at arraySlot itself.
func DynamicArrayDataSlot(arraySlot *uint256.Int) *uint256.Int {
	return keccakWords(arraySlot.Bytes32())
}

// DynamicArrayElemSlot returns the slot of element index in a dynamic array
// of one-word elements. Indexes at or past the stored length are not valid
// storage; callers check the length first.
func DynamicArrayElemSlot(arraySlot *uint256.Int, index uint64) *uint256.Int {
	s := DynamicArrayDataSlot(arraySlot)
	return s.AddUint64(s, index)
}

// FixedArrayElemSlot returns base + index*widthWords for a fixed-size array
// whose elements occupy widthWords storage words each.
func FixedArrayElemSlot(base *uint256.Int, index, widthWords uint64) *uint256.Int {
	off := new(uint256.Int).Mul(uint256.NewInt(index), uint256.NewInt(widthWords))
	return off.Add(off, base)
}

// NestedTicketSlot composes the addressing for
// mapping(level => elem[width][256]) shapes: the mapping slot for the outer
// key plus the fixed-array index. For a fixed array of dynamic arrays the
// returned slot holds the inner array's length, and its data region is
// DynamicArrayDataSlot of that slot.
func NestedTicketSlot(base *uint256.Int, outerKey uint64, index uint64) *uint256.Int {
	s := MappingSlot(base, UintKey{uint256.NewInt(outerKey)})
	return s.AddUint64(s, index)
}
