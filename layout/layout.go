// Package layout implements spec.md §6's "Persisted state" requirement: the
// zero-copy accounts (Tick, TickIdLiquidation, Branch, TickHasDebtArray,
// VaultConfig, VaultState, UserClaim) and the rest of the protocol's
// persisted accounts are packed little-endian, prefixed by an 8-byte
// discriminator, and their byte layout must be preserved bit-exactly. No
// example repo in the retrieved pack carries a borsh-equivalent
// packed-struct codec, so this package reaches for encoding/binary directly
// on fixed-width fields — the literal mechanism repr(C, packed) byte
// exactness requires.
package layout

import (
	"encoding/binary"
	"errors"
	"math/big"

	"vaultcore/pubkey"
)

var (
	ErrShortBuffer        = errors.New("layout: buffer too short")
	ErrDiscriminatorMismatch = errors.New("layout: discriminator does not match account type")
	ErrNegativeAmount     = errors.New("layout: amount must be non-negative to pack into a fixed-width field")
	ErrAmountOverflow     = errors.New("layout: amount does not fit in the fixed-width field")
	ErrUnknownRateDataVariant = errors.New("layout: unrecognised RateData implementation")
)

// U128Size is the fixed byte width used for every packed raw-amount field
// (u128 in the original repr(C, packed) layouts).
const U128Size = 16

// writer accumulates a packed account's bytes in field declaration order.
type writer struct {
	buf []byte
}

func newWriter(discriminator [8]byte) *writer {
	w := &writer{buf: make([]byte, 0, 128)}
	w.buf = append(w.buf, discriminator[:]...)
	return w
}

func (w *writer) bytes() []byte { return w.buf }

func (w *writer) putU8(v uint8)   { w.buf = append(w.buf, v) }
func (w *writer) putBool(v bool) {
	if v {
		w.putU8(1)
	} else {
		w.putU8(0)
	}
}

func (w *writer) putU16(v uint16) {
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) putI16(v int16) { w.putU16(uint16(v)) }

func (w *writer) putU32(v uint32) {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) putI32(v int32) { w.putU32(uint32(v)) }

func (w *writer) putU64(v uint64) {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf = append(w.buf, b[:]...)
}

func (w *writer) putI64(v int64) { w.putU64(uint64(v)) }

// putU128 packs a non-negative *big.Int into a fixed 16-byte little-endian
// field, the layout a u128 repr(C, packed) field occupies on the wire.
func (w *writer) putU128(v *big.Int) error {
	if v == nil {
		v = new(big.Int)
	}
	if v.Sign() < 0 {
		return ErrNegativeAmount
	}
	be := make([]byte, U128Size)
	if v.BitLen() > U128Size*8 {
		return ErrAmountOverflow
	}
	v.FillBytes(be)
	for i, j := 0, len(be)-1; i < j; i, j = i+1, j-1 {
		be[i], be[j] = be[j], be[i]
	}
	w.buf = append(w.buf, be...)
	return nil
}

func (w *writer) putPubkey(k pubkey.Pubkey) {
	w.buf = append(w.buf, k.Bytes()...)
	w.putU8(prefixTag(k.Prefix()))
}

func (w *writer) putBytes(b []byte) {
	w.putU32(uint32(len(b)))
	w.buf = append(w.buf, b...)
}

// reader walks a packed account's bytes in the same field order a writer
// produced them.
type reader struct {
	buf []byte
	pos int
}

func newReader(data []byte, discriminator [8]byte) (*reader, error) {
	if len(data) < 8 {
		return nil, ErrShortBuffer
	}
	var got [8]byte
	copy(got[:], data[:8])
	if got != discriminator {
		return nil, ErrDiscriminatorMismatch
	}
	return &reader{buf: data, pos: 8}, nil
}

func (r *reader) need(n int) error {
	if r.pos+n > len(r.buf) {
		return ErrShortBuffer
	}
	return nil
}

func (r *reader) getU8() (uint8, error) {
	if err := r.need(1); err != nil {
		return 0, err
	}
	v := r.buf[r.pos]
	r.pos++
	return v, nil
}

func (r *reader) getBool() (bool, error) {
	v, err := r.getU8()
	return v != 0, err
}

func (r *reader) getU16() (uint16, error) {
	if err := r.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(r.buf[r.pos:])
	r.pos += 2
	return v, nil
}

func (r *reader) getI16() (int16, error) {
	v, err := r.getU16()
	return int16(v), err
}

func (r *reader) getU32() (uint32, error) {
	if err := r.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(r.buf[r.pos:])
	r.pos += 4
	return v, nil
}

func (r *reader) getI32() (int32, error) {
	v, err := r.getU32()
	return int32(v), err
}

func (r *reader) getU64() (uint64, error) {
	if err := r.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(r.buf[r.pos:])
	r.pos += 8
	return v, nil
}

func (r *reader) getI64() (int64, error) {
	v, err := r.getU64()
	return int64(v), err
}

func (r *reader) getU128() (*big.Int, error) {
	if err := r.need(U128Size); err != nil {
		return nil, err
	}
	le := make([]byte, U128Size)
	copy(le, r.buf[r.pos:r.pos+U128Size])
	r.pos += U128Size
	for i, j := 0, len(le)-1; i < j; i, j = i+1, j-1 {
		le[i], le[j] = le[j], le[i]
	}
	return new(big.Int).SetBytes(le), nil
}

func (r *reader) getPubkey() (pubkey.Pubkey, error) {
	if err := r.need(pubkey.Size); err != nil {
		return pubkey.Pubkey{}, err
	}
	raw := make([]byte, pubkey.Size)
	copy(raw, r.buf[r.pos:r.pos+pubkey.Size])
	r.pos += pubkey.Size
	tag, err := r.getU8()
	if err != nil {
		return pubkey.Pubkey{}, err
	}
	return pubkey.New(tagPrefix(tag), raw)
}

func (r *reader) getBytes() ([]byte, error) {
	n, err := r.getU32()
	if err != nil {
		return nil, err
	}
	if err := r.need(int(n)); err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+int(n)])
	r.pos += int(n)
	return out, nil
}

// prefixTag/tagPrefix round-trip a Pubkey's display prefix through a single
// byte so decode reconstructs the exact same Pubkey String() would render.
func prefixTag(p pubkey.Prefix) uint8 {
	switch p {
	case pubkey.ProgramPrefix:
		return 1
	case pubkey.MintPrefix:
		return 2
	case pubkey.UserPrefix:
		return 3
	default:
		return 0
	}
}

func tagPrefix(tag uint8) pubkey.Prefix {
	switch tag {
	case 1:
		return pubkey.ProgramPrefix
	case 2:
		return pubkey.MintPrefix
	case 3:
		return pubkey.UserPrefix
	default:
		return ""
	}
}
