package verifier

import (
	"errors"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"

	"github.com/chainbridge/powbridge/internal/argadapter"
)

// ErrRecursiveProofInvalid is returned when the recursive-STARK check
// of §4.8 step 4 rejects chain_state_proof.
var ErrRecursiveProofInvalid = errors.New("verifier: recursive proof verification failed")

// RecursiveProof is the opaque STARK/recursive-proof object carried by
// a CompressedSpvProof's chain_state_proof field. Per §9's "STARK
// public-memory decoding" design note, the bridge never depends on the
// prover library's internal claim/trace types beyond the documented
// public-output felt vector (§4.7); everything needed to actually run
// the cryptographic check is the opaque groth16 artifact pair plus
// that felt vector.
type RecursiveProof struct {
	// PublicOutput is claim.public_data.public_memory.output (§4.7's
	// input), the vector BootloaderOutput.Decode consumes.
	PublicOutput []argadapter.Felt
	Proof        groth16.Proof
	VerifyingKey groth16.VerifyingKey
}

// RecursiveProofVerifier abstracts §4.8 step 4's "invoke the
// recursive-STARK verifier on chain_state_proof" so Verify's control
// flow never imports gnark's concrete proof/witness construction
// directly -- only through this seam, matching how nodeclient.Client
// keeps the full node itself opaque.
type RecursiveProofVerifier interface {
	Verify(proof RecursiveProof) error
}

// GnarkVerifier is the production RecursiveProofVerifier, standing in
// for the spec's opaque recursive-STARK verifier: it builds a public
// witness directly from the decoded output felts (no frontend.Circuit
// struct -- the felt vector's layout is already fixed by §4.7) and
// checks it with gnark's groth16.Verify (SPEC_FULL.md's domain-stack
// table names gnark as this bridge's recursive-proof verification
// backend).
type GnarkVerifier struct{}

// Verify implements RecursiveProofVerifier.
func (GnarkVerifier) Verify(proof RecursiveProof) error {
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return fmt.Errorf("verifier: allocate public witness: %w", err)
	}

	values := make(chan any)
	go func() {
		defer close(values)
		for _, f := range proof.PublicOutput {
			values <- f
		}
	}()
	if err := w.Fill(len(proof.PublicOutput), 0, values); err != nil {
		return fmt.Errorf("verifier: fill public witness: %w", err)
	}

	if err := groth16.Verify(proof.Proof, proof.VerifyingKey, w); err != nil {
		return fmt.Errorf("%w: %v", ErrRecursiveProofInvalid, err)
	}
	return nil
}
