package lightclient

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/veilcash/relayer/log"

	"github.com/ethereum/go-ethereum/common"
)

// size of the outbound event buffer shared by all tracked chains
const eventBufferSize = 1000

var (
	// ErrClosed is returned by NextEvent once the light client is stopped
	// and the buffered events are drained.
	ErrClosed = errors.New("light client closed")
)

// Chain binds a chain name (used for logs and metrics) to its RPC client.
type Chain struct {
	Name   string
	Client ChainClient
}

// LightClient keeps a local view of the recent history of the configured
// chains. Synchronization runs on background goroutines started by Start, one
// per chain, feeding a single event stream drained through NextEvent. Reads
// (headers, finality, inclusion proofs) go through accessors that return
// copies; nothing outside the sync goroutines mutates chain state.
type LightClient struct {
	cfg     Config
	engines []*syncEngine
	events  chan Event
	archive *HeaderArchive
	log     *log.Logger

	cancel   context.CancelFunc
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates a light client for the given chains. If cfg.DBPath is set,
// finalized headers are archived in a SQLite DB at that path.
func New(cfg Config, chains []Chain) (*LightClient, error) {
	var (
		archive *HeaderArchive
		err     error
	)
	if cfg.DBPath != "" {
		archive, err = NewHeaderArchive(cfg.DBPath)
		if err != nil {
			return nil, err
		}
	}

	events := make(chan Event, eventBufferSize)
	engines := make([]*syncEngine, 0, len(chains))
	for _, chain := range chains {
		engines = append(engines, newSyncEngine(chain.Name, chain.Client, cfg.FinalityDepth, archive, events))
	}

	return &LightClient{
		cfg:     cfg,
		engines: engines,
		events:  events,
		archive: archive,
		log:     log.WithFields("component", "lightclient"),
	}, nil
}

// Start launches the background sync loop of every chain. Liveness of
// synchronization does not depend on anyone consuming events.
func (c *LightClient) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	for _, engine := range c.engines {
		c.wg.Add(1)
		go c.runSync(ctx, engine)
	}
}

func (c *LightClient) runSync(ctx context.Context, engine *syncEngine) {
	defer c.wg.Done()

	ticker := time.NewTicker(c.cfg.PollInterval.Duration)
	defer ticker.Stop()

	for {
		if err := engine.tick(ctx); err != nil {
			if ctx.Err() != nil {
				return
			}
			engine.log.Errorf("sync iteration failed: %v", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// NextEvent returns the next queued event. It returns ErrClosed once the
// client is stopped and the buffer is drained.
func (c *LightClient) NextEvent(ctx context.Context) (Event, error) {
	select {
	case event, ok := <-c.events:
		if !ok {
			return nil, ErrClosed
		}
		return event, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// HeaderByHash returns the header with the given hash on the given chain,
// looking first at the in-memory view and then at the archive.
func (c *LightClient) HeaderByHash(chainID uint64, hash common.Hash) (StoredHeader, bool) {
	for _, engine := range c.engines {
		if engine.ChainID() != chainID {
			continue
		}
		if header, ok := engine.HeaderByHash(hash); ok {
			return header, true
		}
	}
	if c.archive != nil {
		header, err := c.archive.HeaderByHash(chainID, hash)
		if err == nil {
			return header, true
		}
	}
	return StoredHeader{}, false
}

// Finalized returns the finality watermark of the given chain, false if the
// chain is unknown or not bootstrapped yet.
func (c *LightClient) Finalized(chainID uint64) (uint64, bool) {
	for _, engine := range c.engines {
		if engine.ChainID() == chainID {
			return engine.Finalized()
		}
	}
	return 0, false
}

// ChainStatus is a point-in-time snapshot of one tracked chain.
type ChainStatus struct {
	Name      string `json:"name"`
	ChainID   uint64 `json:"chain_id"`
	Height    uint64 `json:"height"`
	Finalized uint64 `json:"finalized"`
	Synced    bool   `json:"synced"`
}

// Status reports the sync state of every tracked chain.
func (c *LightClient) Status() []ChainStatus {
	statuses := make([]ChainStatus, 0, len(c.engines))
	for _, engine := range c.engines {
		statuses = append(statuses, engine.status())
	}
	return statuses
}

// VerifyInclusion checks leaf inclusion against the transactions root of the
// given block. It returns false, never an error, when the block is unknown.
func (c *LightClient) VerifyInclusion(chainID uint64, blockHash, leaf common.Hash, proof []common.Hash) bool {
	header, ok := c.HeaderByHash(chainID, blockHash)
	if !ok {
		return false
	}
	return VerifyProof(leaf, proof, header.TxRoot)
}

// Stop terminates the sync loops and closes the event stream. In-flight RPC
// calls are not drained.
func (c *LightClient) Stop() {
	c.stopOnce.Do(func() {
		c.log.Info("stopping light client")
		if c.cancel != nil {
			c.cancel()
		}
		c.wg.Wait()
		close(c.events)
		if c.archive != nil {
			if err := c.archive.Close(); err != nil {
				c.log.Warnf("error closing header archive: %v", err)
			}
		}
	})
}
