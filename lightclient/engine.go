package lightclient

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/veilcash/relayer/log"
	"github.com/veilcash/relayer/metrics"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// ChainClient is the subset of an RPC provider the sync engine needs.
// *ethclient.Client satisfies it.
type ChainClient interface {
	BlockNumber(ctx context.Context) (uint64, error)
	ChainID(ctx context.Context) (*big.Int, error)
	HeaderByNumber(ctx context.Context, number *big.Int) (*types.Header, error)
}

// syncEngine tracks a single chain: initial backfill, incremental polling and
// reorg resolution. All mutation of the chain state happens on the sync
// goroutine, one iteration at a time; readers go through the accessors, which
// return copies.
type syncEngine struct {
	client        ChainClient
	chainName     string
	finalityDepth uint64
	archive       *HeaderArchive
	events        chan<- Event
	log           *log.Logger

	mu           sync.RWMutex
	chainID      uint64
	store        *HeaderStore
	finalized    uint64
	bootstrapped bool
	lastArchived uint64
}

func newSyncEngine(
	chainName string,
	client ChainClient,
	finalityDepth uint64,
	archive *HeaderArchive,
	events chan<- Event,
) *syncEngine {
	return &syncEngine{
		client:        client,
		chainName:     chainName,
		finalityDepth: finalityDepth,
		archive:       archive,
		events:        events,
		store:         NewHeaderStore(),
		log:           log.WithFields("chain", chainName),
	}
}

// tick runs one sync iteration. Any RPC failure aborts the iteration without
// committing partial state; the caller retries on the next tick.
func (e *syncEngine) tick(ctx context.Context) error {
	if !e.isBootstrapped() {
		return e.bootstrap(ctx)
	}
	return e.track(ctx)
}

// bootstrap fetches the recent window [height - 2*finalityDepth, height] and
// sets the initial finality watermark. Blocks the provider cannot return are
// skipped, a short initial sequence is tolerated.
func (e *syncEngine) bootstrap(ctx context.Context) error {
	height, err := e.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("error getting chain height: %w", err)
	}
	chainID, err := e.client.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("error getting chain id: %w", err)
	}

	var start uint64
	if height > 2*e.finalityDepth {
		start = height - 2*e.finalityDepth
	}
	headers := make([]StoredHeader, 0, height-start+1)
	for num := start; num <= height; num++ {
		header, err := e.client.HeaderByNumber(ctx, new(big.Int).SetUint64(num))
		if errors.Is(err, ethereum.NotFound) {
			continue
		}
		if err != nil {
			return fmt.Errorf("error fetching block %d: %w", num, err)
		}
		headers = append(headers, newStoredHeader(header))
	}

	e.mu.Lock()
	e.chainID = chainID.Uint64()
	for _, h := range headers {
		e.store.Append(h)
	}
	if height > e.finalityDepth {
		e.finalized = height - e.finalityDepth
	}
	e.bootstrapped = true
	finalized := e.finalized
	e.mu.Unlock()

	e.log.Infof(
		"headers synchronized, chain id %d, %d headers, finalized height %d",
		chainID.Uint64(), len(headers), finalized,
	)
	e.flushFinalized(ctx)

	return nil
}

// track fetches at most one new block per iteration and runs append-or-reorg
// on it. Catching up with a provider that is several blocks ahead takes
// several iterations; this bounds per-iteration work.
func (e *syncEngine) track(ctx context.Context) error {
	current, err := e.client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("error getting chain height: %w", err)
	}

	e.mu.RLock()
	tail, hasTail := e.store.Tail()
	e.mu.RUnlock()
	if hasTail && current <= tail.Number {
		return nil
	}

	header, err := e.client.HeaderByNumber(ctx, new(big.Int).SetUint64(current))
	if errors.Is(err, ethereum.NotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("error fetching block %d: %w", current, err)
	}
	newHeader := newStoredHeader(header)

	e.mu.Lock()
	var reorgDepth uint64
	if tail, ok := e.store.Tail(); ok && newHeader.ParentHash != tail.Hash {
		reorgDepth = e.store.TruncateToAncestor(newHeader.ParentHash)
	}
	e.store.Append(newHeader)
	if current > e.finalityDepth {
		e.finalized = current - e.finalityDepth
	}
	chainID := e.chainID
	unresolved := reorgDepth > 0 && e.store.Len() == 1
	e.mu.Unlock()

	if reorgDepth > 0 {
		if unresolved {
			// no common ancestor within the retention window; the store now
			// only holds the new head and refills like a fresh bootstrap
			e.log.Errorf("unresolved reorg, discarded the whole local view (%d headers)", reorgDepth)
		} else {
			e.log.Warnf("reorg of depth %d resolved at block %d", reorgDepth, newHeader.Number)
		}
		metrics.ReorgDetected(e.chainName)
		e.emit(Reorg{ChainID: chainID, Depth: reorgDepth})
	}

	e.log.Debugf("new block %d %s", newHeader.Number, newHeader.Hash)
	metrics.BlockSynced(e.chainName)
	e.emit(NewBlock{ChainID: chainID, BlockNumber: newHeader.Number, BlockHash: newHeader.Hash})

	e.flushFinalized(ctx)

	return nil
}

// emit never blocks the sync loop: when the consumer lags behind the buffer
// size the event is dropped.
func (e *syncEngine) emit(event Event) {
	select {
	case e.events <- event:
	default:
		e.log.Warnf("event buffer full, dropping %T", event)
	}
}

// flushFinalized persists headers at or below the finality watermark into the
// archive. Archive failures only degrade lookups of evicted headers, so they
// are logged and not propagated.
func (e *syncEngine) flushFinalized(ctx context.Context) {
	if e.archive == nil {
		return
	}

	e.mu.RLock()
	batch := make([]StoredHeader, 0)
	for _, h := range e.store.Headers() {
		if h.Number > e.lastArchived && h.Number <= e.finalized {
			batch = append(batch, h)
		}
	}
	chainID := e.chainID
	e.mu.RUnlock()

	if len(batch) == 0 {
		return
	}
	if err := e.archive.StoreHeaders(ctx, chainID, batch); err != nil {
		e.log.Warnf("error archiving %d finalized headers: %v", len(batch), err)
		return
	}

	e.mu.Lock()
	if last := batch[len(batch)-1].Number; last > e.lastArchived {
		e.lastArchived = last
	}
	e.mu.Unlock()
}

func (e *syncEngine) isBootstrapped() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.bootstrapped
}

// ChainID returns the chain id learned during bootstrap, 0 before that.
func (e *syncEngine) ChainID() uint64 {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.chainID
}

func (e *syncEngine) HeaderByHash(hash common.Hash) (StoredHeader, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.store.ByHash(hash)
}

func (e *syncEngine) Finalized() (uint64, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	return e.finalized, e.bootstrapped
}

func (e *syncEngine) status() ChainStatus {
	e.mu.RLock()
	defer e.mu.RUnlock()

	status := ChainStatus{
		Name:      e.chainName,
		ChainID:   e.chainID,
		Finalized: e.finalized,
		Synced:    e.bootstrapped,
	}
	if tail, ok := e.store.Tail(); ok {
		status.Height = tail.Number
	}
	return status
}
