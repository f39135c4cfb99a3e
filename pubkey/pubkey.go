// Package pubkey models the 32-byte account identifiers used throughout the
// protocol (token mints, position NFTs, program-derived vault/reserve
// accounts, CPI callers). The underlying host runtime that actually owns and
// signs for these accounts is out of scope for this module; pubkey only
// gives the rest of the engines a comparable, encodable identifier.
package pubkey

import (
	"fmt"

	"github.com/btcsuite/btcutil/bech32"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"
)

// Prefix is the human-readable bech32 prefix family used when rendering a
// Pubkey for logs or CLIs.
type Prefix string

const (
	// ProgramPrefix marks program/PDA accounts (reserves, vaults, fTokens).
	ProgramPrefix Prefix = "vcp"
	// MintPrefix marks token mint and position-NFT accounts.
	MintPrefix Prefix = "vcm"
	// UserPrefix marks externally-owned user accounts.
	UserPrefix Prefix = "vcu"
)

// Size is the fixed byte width of every Pubkey.
const Size = 32

// Pubkey is a 32-byte account identifier.
type Pubkey struct {
	prefix Prefix
	bytes  [Size]byte
}

// Zero is the default, unset Pubkey.
var Zero = Pubkey{}

// New constructs a Pubkey from exactly Size bytes.
func New(prefix Prefix, b []byte) (Pubkey, error) {
	if len(b) != Size {
		return Pubkey{}, fmt.Errorf("pubkey: must be %d bytes long, got %d", Size, len(b))
	}
	var out Pubkey
	out.prefix = prefix
	copy(out.bytes[:], b)
	return out, nil
}

// MustNew constructs a Pubkey and panics on invalid input; intended for
// constant/test construction only.
func MustNew(prefix Prefix, b []byte) Pubkey {
	k, err := New(prefix, b)
	if err != nil {
		panic(err)
	}
	return k
}

// IsZero reports whether the Pubkey is the unset value.
func (k Pubkey) IsZero() bool {
	return k == Zero
}

// Bytes returns a defensive copy of the underlying 32 bytes.
func (k Pubkey) Bytes() []byte {
	out := make([]byte, Size)
	copy(out, k.bytes[:])
	return out
}

// Prefix returns the human-readable prefix associated with the key.
func (k Pubkey) Prefix() Prefix {
	return k.prefix
}

// Equal reports whether two Pubkeys reference the same bytes, ignoring the
// display prefix.
func (k Pubkey) Equal(other Pubkey) bool {
	return k.bytes == other.bytes
}

// String renders the Pubkey as bech32, matching the teacher's address
// encoding style.
func (k Pubkey) String() string {
	if k.prefix == "" {
		return fmt.Sprintf("%x", k.bytes)
	}
	conv, err := bech32.ConvertBits(k.bytes[:], 8, 5, true)
	if err != nil {
		panic(err)
	}
	encoded, err := bech32.Encode(string(k.prefix), conv)
	if err != nil {
		panic(err)
	}
	return encoded
}

// Decode parses a bech32-encoded Pubkey previously produced by String.
func Decode(s string) (Pubkey, error) {
	prefix, decoded, err := bech32.Decode(s)
	if err != nil {
		return Pubkey{}, fmt.Errorf("pubkey: invalid bech32 string: %w", err)
	}
	conv, err := bech32.ConvertBits(decoded, 5, 8, false)
	if err != nil {
		return Pubkey{}, fmt.Errorf("pubkey: error converting bits: %w", err)
	}
	return New(Prefix(prefix), conv)
}

// DeriveProgramAddress stands in for a Solana-style program-derived address:
// a deterministic, un-ownable Pubkey computed from a domain tag and a set of
// seeds. The host runtime's real PDA derivation additionally guarantees the
// result falls off the ed25519 curve; since signing authority for this
// address is a host-runtime concern out of scope here, a keccak256 digest is
// a sufficient stand-in for deterministic derivation.
func DeriveProgramAddress(tag string, seeds ...[]byte) Pubkey {
	data := make([][]byte, 0, len(seeds)+1)
	data = append(data, []byte(tag))
	data = append(data, seeds...)
	digest := ethcrypto.Keccak256(data...)
	return MustNew(ProgramPrefix, digest)
}

// Discriminator returns the first 8 bytes of the domain-separated keccak256
// hash of name, matching spec.md's "8-byte discriminator (first 8 bytes of a
// domain-separated hash of the instruction name)".
func Discriminator(namespace, name string) [8]byte {
	digest := ethcrypto.Keccak256([]byte(namespace + ":" + name))
	var out [8]byte
	copy(out[:], digest[:8])
	return out
}
