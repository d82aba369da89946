package argadapter

import (
	"github.com/chainbridge/powbridge/internal/chainheader"
	"github.com/chainbridge/powbridge/internal/chainstate"
)

// Input bundles everything to_runner_args needs (§4.5 contract):
// the chain state to attest to, the block headers it was derived
// from, the MMR's sparse-roots vector, and an optional
// already-verified recursive proof to chain onto.
type Input struct {
	Lineage          chainheader.Lineage
	ChainState       chainstate.ChainState
	Blocks           []BlockInput
	BlockMMRRoots    []chainheader.Digest
	RecursiveProof   []byte // nil when this is the base case
}

// ToRunnerArgs produces the flat field-element vector the STARK
// prover binary consumes, in the fixed layout order of §4.5: chain
// state, blocks, block MMR, then the optional recursive proof.
func ToRunnerArgs(input Input, cfg Config) ([]Felt, error) {
	var b Builder

	pushChainStateView(&b, input.Lineage, input.ChainState, cfg)

	if err := pushBlocks(&b, input.Blocks); err != nil {
		return nil, err
	}

	if err := pushBlockMMR(&b, input.BlockMMRRoots, cfg.U256Variant); err != nil {
		return nil, err
	}

	b.PushBool(input.RecursiveProof != nil)
	if input.RecursiveProof != nil {
		b.PushByteArray(input.RecursiveProof)
	}

	return b.Felts(), nil
}
