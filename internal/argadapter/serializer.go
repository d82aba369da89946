package argadapter

import (
	"github.com/chainbridge/powbridge/internal/chainheader"
)

// U256Variant selects which half of a split U256 is emitted first. The
// two variants exist because different consumer schemas expect
// opposite orderings (§4.5 "U256 serialization rules"); the variant in
// force is fixed by Config.U256Variant, not chosen per call.
type U256Variant int

const (
	// HiThenLo emits the most-significant half first.
	HiThenLo U256Variant = iota
	// LoThenHi emits the least-significant half first.
	LoThenHi
)

// Builder accumulates the flat felt vector that to_runner_args
// produces, one logical field at a time.
type Builder struct {
	felts []Felt
}

// Felts returns the accumulated vector.
func (b *Builder) Felts() []Felt {
	return b.felts
}

// PushU32 emits a single u32 field as one felt.
func (b *Builder) PushU32(v uint32) {
	b.felts = append(b.felts, feltFromUint64(uint64(v)))
}

// PushU256 emits a U256 as two felts, hi/lo ordered per variant.
func (b *Builder) PushU256(v chainheader.U256, variant U256Variant) {
	hi, lo := v.SplitHalves()
	if variant == HiThenLo {
		b.felts = append(b.felts, feltFromBytesBE(hi[:]), feltFromBytesBE(lo[:]))
	} else {
		b.felts = append(b.felts, feltFromBytesBE(lo[:]), feltFromBytesBE(hi[:]))
	}
}

// PushDigest emits a Digest as 8 felts, one per little-endian word
// (§4.5 "Digest serialization rules").
func (b *Builder) PushDigest(d chainheader.Digest) {
	words := d.Words()
	for _, w := range words {
		b.felts = append(b.felts, feltFromUint64(uint64(w)))
	}
}

// PushU32Vec emits a length-prefixed vector of raw u32s.
func (b *Builder) PushU32Vec(vs []uint32) {
	b.PushU32(uint32(len(vs)))
	for _, v := range vs {
		b.PushU32(v)
	}
}

// PushU256Vec emits a length-prefixed vector of U256 values, each
// split per variant.
func (b *Builder) PushU256Vec(vs []chainheader.U256, variant U256Variant) {
	b.PushU32(uint32(len(vs)))
	for _, v := range vs {
		b.PushU256(v, variant)
	}
}

// PushByteArray emits raw bytes per §4.5's ByteArray serialization
// rule: split into 31-byte full chunks (each a single felt), followed
// by a (remainder_chunk, remainder_len) pair, prefixed by the full
// chunk count.
func (b *Builder) PushByteArray(data []byte) {
	const chunkSize = 31
	numFull := len(data) / chunkSize
	b.PushU32(uint32(numFull))

	for i := 0; i < numFull; i++ {
		chunk := data[i*chunkSize : (i+1)*chunkSize]
		b.felts = append(b.felts, feltFromBytesBE(chunk))
	}

	remainder := data[numFull*chunkSize:]
	b.felts = append(b.felts, feltFromBytesBE(remainder))
	b.PushU32(uint32(len(remainder)))
}

// PushBool emits a felt-encoded boolean (0 or 1), used for Option
// presence markers ahead of an optional field's payload.
func (b *Builder) PushBool(present bool) {
	if present {
		b.felts = append(b.felts, feltFromUint64(1))
	} else {
		b.felts = append(b.felts, feltFromUint64(0))
	}
}
