// Package prover implements the batch-proving driver of §4.9: a
// separate process that reads committed chain state through the
// bridge node's read-only RPC surface (§5: "The prover driver is a
// separate process/task; it reads the store via RPC only"), stitches
// each batch's proof onto its predecessor, and invokes an external
// STARK prover binary per batch.
package prover

// Params bundles the prover CLI's flag surface (§6 "CLI surface":
// `prover prove [--load-from-gcs] [--save-to-gcs] [--gcs-bucket]
// [--total-blocks] [--step-size] [--output-dir] [--executable]
// [--prover-params-file] [--keep-temp-files]`).
type Params struct {
	// StartHeight is the height the first batch begins at when no
	// prior batch is found on disk or in a downloaded snapshot.
	StartHeight uint32
	// TotalBlocks is the number of blocks to process across the whole
	// run, in StepSize-sized batches.
	TotalBlocks uint32
	// StepSize is the number of blocks per batch.
	StepSize uint32

	// OutputDir holds one batch_<start>_to_<end>/ subdirectory per
	// batch, each containing arguments.json, program-input.json, and
	// proof.json.
	OutputDir string

	// Executable is the path to the prover binary invoked per batch.
	Executable string
	// ProverParamsFile is an optional extra argument passed through to
	// the prover binary (STARK/Cairo proving parameters).
	ProverParamsFile string
	// KeepTempFiles disables per-batch temporary file cleanup.
	KeepTempFiles bool

	// LoadFromGCS seeds the resume point from a remote snapshot before
	// scanning OutputDir (§4.9 step 1).
	LoadFromGCS bool
	// SaveToGCS uploads the terminal proof and recent_proven_height
	// after a successful run (§4.9 step 4).
	SaveToGCS bool
	// GCSBucket names the snapshot bucket used by both directions.
	GCSBucket string
}
