// Package argadapter implements the STARK prover's argument
// serialization (§4.5): to_runner_args encodes the chain state, block
// headers, MMR sparse roots, and an optional recursive proof into a
// flat field-element vector, using gnark-crypto's bn254 scalar field
// as the concrete Felt type (the same curve the verifier's
// groth16-backed recursive check runs over).
package argadapter

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// Felt is the field-element type the prover binary consumes.
type Felt = fr.Element

// feltFromUint64 lifts a u32/u64 field into a single field element.
func feltFromUint64(n uint64) Felt {
	var f Felt
	f.SetUint64(n)
	return f
}

// feltFromBytesBE interprets up to 32 big-endian bytes as a field
// element, used for the 16-byte hi/lo halves of U256 serialization and
// for the four-byte words of digest serialization.
func feltFromBytesBE(b []byte) Felt {
	var f Felt
	f.SetBytes(b)
	return f
}

// feltFromBigInt reduces an arbitrary big.Int modulo the field order.
func feltFromBigInt(n *big.Int) Felt {
	var f Felt
	f.SetBigInt(n)
	return f
}
