package lightclient

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// StoredHeader is the subset of a block header the relayer keeps in its local
// view of a chain, enough to verify cross-chain inclusion proofs.
type StoredHeader struct {
	Number       uint64
	Hash         common.Hash
	ParentHash   common.Hash
	StateRoot    common.Hash
	TxRoot       common.Hash
	ReceiptsRoot common.Hash
	Timestamp    uint64
}

func newStoredHeader(header *types.Header) StoredHeader {
	return StoredHeader{
		Number:       header.Number.Uint64(),
		Hash:         header.Hash(),
		ParentHash:   header.ParentHash,
		StateRoot:    header.Root,
		TxRoot:       header.TxHash,
		ReceiptsRoot: header.ReceiptHash,
		Timestamp:    header.Time,
	}
}

// Event is emitted by the light client while it tracks the configured chains.
// The set of variants is closed: NewBlock and Reorg.
type Event interface {
	isEvent()
}

// NewBlock is emitted every time a header is appended to a chain's local view.
type NewBlock struct {
	ChainID     uint64
	BlockNumber uint64
	BlockHash   common.Hash
}

// Reorg is emitted when previously stored headers had to be discarded because
// the canonical branch of the source chain changed. Depth is the number of
// headers discarded during resolution.
type Reorg struct {
	ChainID uint64
	Depth   uint64
}

func (NewBlock) isEvent() {}
func (Reorg) isEvent()    {}
