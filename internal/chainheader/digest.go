// Package chainheader defines the wire-level types shared by the
// chain-state manager, the MMR accumulator, and the proof-argument
// adapter: digests, U256 values, and the Bitcoin/Zcash header variants.
package chainheader

import (
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"errors"
	"strings"
)

// ErrInvalidDigestLength is returned when decoding a hex digest whose
// length is not exactly 32 bytes.
var ErrInvalidDigestLength = errors.New("chainheader: digest must be 32 bytes")

// Digest is a 32-byte hash, stored in the same byte order as its
// canonical big-endian hex display (the wire convention of §3).
type Digest [32]byte

// ZeroDigest is the all-zero digest used to pad sparse-roots vectors.
var ZeroDigest = Digest{}

// DigestFromHex parses a hex string, with or without a "0x" prefix,
// into a Digest. The string must decode to exactly 32 bytes.
func DigestFromHex(s string) (Digest, error) {
	s = strings.TrimPrefix(s, "0x")
	s = strings.TrimPrefix(s, "0X")
	b, err := hex.DecodeString(s)
	if err != nil {
		return Digest{}, err
	}
	if len(b) != 32 {
		return Digest{}, ErrInvalidDigestLength
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// DigestFromBytes copies a byte slice into a Digest; it errors if the
// slice is not exactly 32 bytes.
func DigestFromBytes(b []byte) (Digest, error) {
	if len(b) != 32 {
		return Digest{}, ErrInvalidDigestLength
	}
	var d Digest
	copy(d[:], b)
	return d, nil
}

// Hex renders the digest in the wire convention: big-endian, "0x"-prefixed.
func (d Digest) Hex() string {
	return "0x" + hex.EncodeToString(d[:])
}

// Bytes returns the big-endian byte representation.
func (d Digest) Bytes() []byte {
	out := make([]byte, 32)
	copy(out, d[:])
	return out
}

// IsZero reports whether the digest is the all-zero padding value.
func (d Digest) IsZero() bool {
	return d == ZeroDigest
}

// MarshalJSON renders the digest in its hex wire convention rather than
// the default byte-array encoding a [32]byte would otherwise get.
func (d Digest) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Hex())
}

// UnmarshalJSON parses the hex wire convention produced by MarshalJSON.
func (d *Digest) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := DigestFromHex(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Words returns the digest's canonical 8-word little-endian hashing
// representation (§3, §4.6): the 32 display bytes are reversed in full,
// then chunked into 8 big-endian uint32 words. This reconciles the
// host's big-endian hex convention with the guest program's
// little-endian word convention and must match the prover bit-for-bit.
func (d Digest) Words() [8]uint32 {
	var reversed [32]byte
	for i := 0; i < 32; i++ {
		reversed[i] = d[31-i]
	}
	var words [8]uint32
	for i := 0; i < 8; i++ {
		words[i] = binary.BigEndian.Uint32(reversed[i*4 : i*4+4])
	}
	return words
}

// ReverseBytesInPlace4 reverses each 4-byte chunk of b in place. It is
// used to translate a raw Blake2s digest into the guest's little-endian
// word output convention (§4.6 step 4).
func ReverseBytesInPlace4(b []byte) {
	for i := 0; i+4 <= len(b); i += 4 {
		b[i], b[i+3] = b[i+3], b[i]
		b[i+1], b[i+2] = b[i+2], b[i+1]
	}
}
