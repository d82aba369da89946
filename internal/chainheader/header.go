package chainheader

// Lineage tags which consensus family a header belongs to. The chain-
// state transition, digest, and argument adapter all branch on it for
// the handful of fields that differ between families (§3, Design Notes).
type Lineage int

const (
	// BitcoinLineage covers Bitcoin-style headers: a plain u32 nonce,
	// no PoW target history window.
	BitcoinLineage Lineage = iota
	// ZcashLineage covers Zcash-style headers: a Sapling commitment, a
	// 32-byte nonce, an Equihash solution, and a pow_target_history window.
	ZcashLineage
)

func (l Lineage) String() string {
	switch l {
	case BitcoinLineage:
		return "bitcoin"
	case ZcashLineage:
		return "zcash"
	default:
		return "unknown"
	}
}

// Header is the polymorphic view the chain-state manager, MMR leaf
// hasher, and argument adapter operate over. The canonical block hash
// is computed by the collaborating full-node client and carried on the
// concrete header value; this package never recomputes it (§3: "the
// core treats it as an opaque 32-byte value").
type Header interface {
	// Lineage reports which header family this value belongs to.
	Lineage() Lineage
	// CanonicalHash returns the block hash supplied by the node client.
	CanonicalHash() Digest
	// PreviousHash returns the hash of the header's predecessor.
	PreviousHash() Digest
	// MerkleRootHash returns the header's committed transaction-Merkle
	// root, checked against a transaction inclusion proof (§4.8 step 2).
	MerkleRootHash() Digest
	// Time returns the header's block time (Unix seconds).
	Time() uint32
	// Bits returns the compact difficulty field ("nBits").
	Bits() uint32
}

// BtcHeader is the Bitcoin-lineage header variant: version, previous
// hash, Merkle root, time, compact bits, and a plain u32 nonce.
type BtcHeader struct {
	Version     uint32
	PrevHash    Digest
	MerkleRoot  Digest
	BlockTime   uint32
	CompactBits uint32
	Nonce       uint32
	Hash        Digest // supplied by the node client
}

var _ Header = (*BtcHeader)(nil)

func (h *BtcHeader) Lineage() Lineage         { return BitcoinLineage }
func (h *BtcHeader) CanonicalHash() Digest    { return h.Hash }
func (h *BtcHeader) PreviousHash() Digest     { return h.PrevHash }
func (h *BtcHeader) MerkleRootHash() Digest   { return h.MerkleRoot }
func (h *BtcHeader) Time() uint32             { return h.BlockTime }
func (h *BtcHeader) Bits() uint32             { return h.CompactBits }

// ZecHeader is the Zcash-lineage header variant: the Bitcoin-shaped
// fields plus a Sapling root commitment, a 32-byte nonce, and an
// Equihash solution expressed as a word vector.
type ZecHeader struct {
	Version          uint32
	PrevHash         Digest
	MerkleRoot       Digest
	FinalSaplingRoot Digest
	BlockTime        uint32
	CompactBits      uint32
	Nonce            [32]byte
	Solution         []uint32
	Hash             Digest // supplied by the node client
}

var _ Header = (*ZecHeader)(nil)

func (h *ZecHeader) Lineage() Lineage        { return ZcashLineage }
func (h *ZecHeader) CanonicalHash() Digest   { return h.Hash }
func (h *ZecHeader) PreviousHash() Digest    { return h.PrevHash }
func (h *ZecHeader) MerkleRootHash() Digest  { return h.MerkleRoot }
func (h *ZecHeader) Time() uint32            { return h.BlockTime }
func (h *ZecHeader) Bits() uint32            { return h.CompactBits }
