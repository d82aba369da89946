package chainheader

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"math/big"
)

// ErrU256Overflow is returned when an operation would produce a value
// that no longer fits in 256 bits. Per §4.1 failure modes, overflow in
// total_work must be rejected, never truncated.
var ErrU256Overflow = errors.New("chainheader: u256 overflow")

// ErrU256Negative is returned when a decimal string parses to a
// negative value, which is never valid for a U256.
var ErrU256Negative = errors.New("chainheader: u256 cannot be negative")

var (
	u256Ceiling = new(big.Int).Lsh(big.NewInt(1), 256) // 2^256
	u256Max     = new(big.Int).Sub(u256Ceiling, big.NewInt(1))
)

// U256 is an unsigned 256-bit integer. The wire representation is a
// decimal string (§3); big.Int backs the arithmetic.
type U256 struct {
	v big.Int
}

// ZeroU256 returns the additive identity.
func ZeroU256() U256 {
	return U256{}
}

// U256FromUint64 constructs a U256 from a uint64.
func U256FromUint64(n uint64) U256 {
	var u U256
	u.v.SetUint64(n)
	return u
}

// U256FromDecimalString parses the wire decimal-string representation.
func U256FromDecimalString(s string) (U256, error) {
	var u U256
	if _, ok := u.v.SetString(s, 10); !ok {
		return U256{}, errors.New("chainheader: invalid decimal u256: " + s)
	}
	if u.v.Sign() < 0 {
		return U256{}, ErrU256Negative
	}
	if u.v.Cmp(u256Max) > 0 {
		return U256{}, ErrU256Overflow
	}
	return u, nil
}

// U256FromBigEndianBytes parses a big-endian byte slice of up to 32 bytes.
func U256FromBigEndianBytes(b []byte) (U256, error) {
	if len(b) > 32 {
		return U256{}, ErrU256Overflow
	}
	var u U256
	u.v.SetBytes(b)
	return u, nil
}

// String returns the canonical decimal-string wire representation.
func (u U256) String() string {
	return u.v.String()
}

// MarshalJSON renders the value as its canonical decimal-string wire
// representation (§3), matching U256FromDecimalString.
func (u U256) MarshalJSON() ([]byte, error) {
	return json.Marshal(u.v.String())
}

// UnmarshalJSON parses the decimal-string wire representation produced
// by MarshalJSON.
func (u *U256) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := U256FromDecimalString(s)
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// BigInt returns a copy of the underlying big.Int.
func (u U256) BigInt() *big.Int {
	return new(big.Int).Set(&u.v)
}

// Cmp compares two U256 values the way big.Int.Cmp does.
func (u U256) Cmp(other U256) int {
	return u.v.Cmp(&other.v)
}

// IsZero reports whether the value is zero.
func (u U256) IsZero() bool {
	return u.v.Sign() == 0
}

// Add returns u + other, erroring if the sum overflows 256 bits. This
// is the only arithmetic operation the chain-state transition needs
// (§4.1 step 2) and it must fail rather than wrap on overflow.
func (u U256) Add(other U256) (U256, error) {
	var sum big.Int
	sum.Add(&u.v, &other.v)
	if sum.Cmp(u256Max) > 0 {
		return U256{}, ErrU256Overflow
	}
	return U256{v: sum}, nil
}

// BigEndianBytes32 returns the value as a fixed 32-byte big-endian array.
func (u U256) BigEndianBytes32() [32]byte {
	var out [32]byte
	b := u.v.Bytes()
	copy(out[32-len(b):], b)
	return out
}

// Words returns the value as 8 big-endian uint32 words, most
// significant word first — the plain big-endian decomposition used for
// total_work, current_target, and pow_target_history entries in the
// chain-state digest (§4.6), distinct from Digest.Words' byte-reversal
// trick for hash-typed fields. The argument adapter (§4.5) does not use
// it; it splits U256 fields with SplitHalves.
func (u U256) Words() [8]uint32 {
	b := u.BigEndianBytes32()
	var words [8]uint32
	for i := 0; i < 8; i++ {
		words[i] = binary.BigEndian.Uint32(b[i*4 : i*4+4])
	}
	return words
}

// SplitHalves splits the value into big-endian 128-bit (hi, lo) halves,
// the decomposition the prover's argument schema consumes for every
// U256 field (§4.5 U256 serialization rules).
func (u U256) SplitHalves() (hi, lo [16]byte) {
	b := u.BigEndianBytes32()
	copy(hi[:], b[:16])
	copy(lo[:], b[16:])
	return hi, lo
}

// CompactToTarget expands a Bitcoin/Zcash-style compact difficulty
// field ("nBits") into its full 256-bit target, applying the standard
// mantissa*256^(exponent-3) rule. An exponent that would shift the
// mantissa out of 256 bits, or a set sign bit (0x00800000 in the
// mantissa), is rejected as a consistency error (§4.1 failure modes).
func CompactToTarget(bits uint32) (U256, error) {
	exponent := bits >> 24
	mantissa := bits & 0x007fffff
	if bits&0x00800000 != 0 {
		return U256{}, errors.New("chainheader: negative compact target")
	}
	if mantissa == 0 {
		return ZeroU256(), nil
	}

	target := new(big.Int).SetUint64(uint64(mantissa))
	switch {
	case exponent <= 3:
		shift := uint(8 * (3 - exponent))
		target.Rsh(target, shift)
	default:
		shift := uint(8 * (exponent - 3))
		if shift > 256 {
			return U256{}, ErrU256Overflow
		}
		target.Lsh(target, shift)
	}
	if target.Cmp(u256Max) > 0 {
		return U256{}, ErrU256Overflow
	}
	return U256{v: *target}, nil
}

// WorkFromTarget computes the work represented by a difficulty target:
// floor(2^256 / (target + 1)), the definition used by §4.1 step 2.
func WorkFromTarget(target U256) U256 {
	denom := new(big.Int).Add(&target.v, big.NewInt(1))
	work := new(big.Int).Div(u256Ceiling, denom)
	return U256{v: *work}
}
