package prover

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/veilcash/relayer/log"
	"github.com/veilcash/relayer/metrics"

	"golang.org/x/sync/semaphore"
)

// size of the pending request queue between Generate and the dispatcher
const requestQueueSize = 100

var (
	// ErrServiceDisabled is returned when the prover is administratively off.
	ErrServiceDisabled = errors.New("prover service is disabled")
	// ErrProofTimeout is returned when generation exceeds the configured deadline.
	ErrProofTimeout = errors.New("proof generation timeout")
	// ErrChannelClosed is returned to callers whose reply path was torn down
	// during shutdown.
	ErrChannelClosed = errors.New("prover channel closed")
	// ErrUnknownProofType is returned for a request kind the generator does
	// not recognize.
	ErrUnknownProofType = errors.New("unknown proof type")
)

type result struct {
	proof *GeneratedProof
	err   error
}

type job struct {
	request ProofRequest
	reply   chan result
}

// Service gates proof generation behind a fixed pool of concurrency permits.
// Requests are queued and dispatched as permits free up; each job runs under
// its own deadline and replies on a single-use channel, so completions may be
// observed out of submission order.
type Service struct {
	cfg      Config
	sem      *semaphore.Weighted
	inflight atomic.Int64
	jobs     chan job
	generate func(ProofRequest) (*GeneratedProof, error)
	log      *log.Logger

	cancel   context.CancelFunc
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// New creates the prover service and starts its dispatcher.
func New(cfg Config) *Service {
	ctx, cancel := context.WithCancel(context.Background())

	s := &Service{
		cfg:      cfg,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
		jobs:     make(chan job, requestQueueSize),
		generate: buildProof,
		log:      log.WithFields("component", "prover"),
		cancel:   cancel,
		done:     make(chan struct{}),
	}

	s.wg.Add(1)
	go s.dispatch(ctx)

	return s
}

// Generate submits a request and blocks until its proof is ready or fails.
// When the service is disabled it fails immediately without consuming a
// permit or enqueuing.
func (s *Service) Generate(ctx context.Context, request ProofRequest) (*GeneratedProof, error) {
	if !s.cfg.Enabled {
		return nil, ErrServiceDisabled
	}

	j := job{request: request, reply: make(chan result, 1)}
	select {
	case s.jobs <- j:
	case <-s.done:
		return nil, ErrChannelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-j.reply:
		return res.proof, res.err
	case <-s.done:
		return nil, ErrChannelClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// dispatch pulls queued requests and acquires a permit for each before
// handing it to a worker. Permit acquisition is the only throttling point:
// the dispatcher stalls here while all permits are busy.
func (s *Service) dispatch(ctx context.Context) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case j := <-s.jobs:
			if err := s.sem.Acquire(ctx, 1); err != nil {
				j.reply <- result{err: ErrChannelClosed}
				return
			}
			metrics.SetProverInflight(int(s.inflight.Add(1)))

			s.wg.Add(1)
			go s.run(ctx, j)
		}
	}
}

// run generates the proof for one admitted job under the configured deadline.
// The permit is released exactly once whatever the outcome.
func (s *Service) run(ctx context.Context, j job) {
	defer s.wg.Done()
	defer func() {
		s.sem.Release(1)
		metrics.SetProverInflight(int(s.inflight.Add(-1)))
	}()

	jobCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout.Duration)
	defer cancel()

	generated := make(chan result, 1)
	go func() {
		proof, err := s.generate(j.request)
		generated <- result{proof: proof, err: err}
	}()

	select {
	case res := <-generated:
		if res.err != nil {
			s.log.Errorf("proof generation failed: %v", res.err)
			metrics.ProofError("generator")
		} else {
			s.log.Debugf("%s proof generated in %dms", res.proof.ProofType, res.proof.GenerationTimeMS)
			metrics.ProofGenerated(res.proof.ProofType)
		}
		j.reply <- res
	case <-jobCtx.Done():
		// the job is abandoned, its permit is freed for the next request
		s.log.Warnf("%s proof generation timed out", j.request.ProofType())
		metrics.ProofError("timeout")
		j.reply <- result{err: ErrProofTimeout}
	}
}

// IsAvailable reports whether a new request would find the service enabled
// with at least one free permit.
func (s *Service) IsAvailable() bool {
	return s.cfg.Enabled && s.inflight.Load() < s.cfg.MaxConcurrent
}

// QueueDepth returns the number of jobs currently holding a permit.
func (s *Service) QueueDepth() int {
	return int(s.inflight.Load())
}

// Stop terminates the dispatcher. Pending callers get ErrChannelClosed.
func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		s.cancel()
		close(s.done)
		s.wg.Wait()
	})
}
