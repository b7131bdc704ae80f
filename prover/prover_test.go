package prover

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
	"github.com/veilcash/relayer/config/types"
)

func testConfig() Config {
	return Config{
		Enabled:       true,
		MaxConcurrent: 2,
		Timeout:       types.NewDuration(5 * time.Second),
	}
}

func TestGenerate(t *testing.T) {
	service := New(testConfig())
	defer service.Stop()

	proof, err := service.Generate(context.Background(), RangeRequest{
		Commitment: common.HexToHash("0x01"),
		MinValue:   10,
		Value:      20,
	})
	require.NoError(t, err)
	require.Equal(t, "range", proof.ProofType)
	require.Len(t, proof.ProofData, proofSize)
}

func TestGenerateDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Enabled = false
	service := New(cfg)
	defer service.Stop()

	_, err := service.Generate(context.Background(), RangeRequest{})
	require.ErrorIs(t, err, ErrServiceDisabled)
	require.False(t, service.IsAvailable())
	require.Equal(t, 0, service.QueueDepth())
}

func TestGenerateConcurrencyLimit(t *testing.T) {
	cfg := testConfig()
	service := New(cfg)
	defer service.Stop()

	started := make(chan struct{}, cfg.MaxConcurrent+1)
	release := make(chan struct{})
	service.generate = func(ProofRequest) (*GeneratedProof, error) {
		started <- struct{}{}
		<-release
		return &GeneratedProof{ProofType: "range"}, nil
	}

	var wg sync.WaitGroup
	for i := 0; i < int(cfg.MaxConcurrent)+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := service.Generate(context.Background(), RangeRequest{})
			require.NoError(t, err)
		}()
	}

	// only MaxConcurrent jobs hold a permit, the extra one waits
	for i := 0; i < int(cfg.MaxConcurrent); i++ {
		select {
		case <-started:
		case <-time.After(2 * time.Second):
			t.Fatal("job did not start")
		}
	}
	select {
	case <-started:
		t.Fatal("job admitted beyond the permit pool")
	case <-time.After(100 * time.Millisecond):
	}
	require.Equal(t, int(cfg.MaxConcurrent), service.QueueDepth())
	require.False(t, service.IsAvailable())

	close(release)
	wg.Wait()

	// the queued job ran after a permit freed up
	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("queued job never ran")
	}
}

func TestGenerateTimeout(t *testing.T) {
	cfg := testConfig()
	cfg.MaxConcurrent = 1
	cfg.Timeout = types.NewDuration(50 * time.Millisecond)
	service := New(cfg)
	defer service.Stop()

	hang := make(chan struct{})
	defer close(hang)
	service.generate = func(ProofRequest) (*GeneratedProof, error) {
		<-hang
		return nil, nil
	}

	_, err := service.Generate(context.Background(), RangeRequest{})
	require.ErrorIs(t, err, ErrProofTimeout)

	// the permit was released, the service admits new work
	require.Eventually(t, service.IsAvailable, 2*time.Second, 10*time.Millisecond)
}

func TestGenerateAfterStop(t *testing.T) {
	service := New(testConfig())
	service.Stop()

	_, err := service.Generate(context.Background(), RangeRequest{})
	require.ErrorIs(t, err, ErrChannelClosed)
}

func TestGenerateContextCanceled(t *testing.T) {
	service := New(testConfig())
	defer service.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := service.Generate(ctx, RangeRequest{})
	require.ErrorIs(t, err, context.Canceled)
}
