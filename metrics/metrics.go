package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/veilcash/relayer/log"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "relayer"

// Config for the prometheus metrics endpoint.
type Config struct {
	// Enabled exposes the /metrics endpoint when true
	Enabled bool `mapstructure:"Enabled"`
	// Host for the metrics server
	Host string `mapstructure:"Host"`
	// Port for the metrics server
	Port int `mapstructure:"Port"`
}

var (
	blocksSynced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "blocks_synced_total",
		Help:      "Number of block headers appended to the local view, per chain",
	}, []string{"chain"})

	reorgs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "reorgs_total",
		Help:      "Number of chain reorganizations resolved, per chain",
	}, []string{"chain"})

	proofsGenerated = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proofs_generated_total",
		Help:      "Number of proofs generated, per proof type",
	}, []string{"type"})

	proofErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "proof_errors_total",
		Help:      "Number of failed proof requests, per reason",
	}, []string{"reason"})

	proverInflight = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "prover_inflight_jobs",
		Help:      "Number of proof jobs currently holding a permit",
	})
)

// BlockSynced increments the synced blocks counter for the given chain.
func BlockSynced(chain string) {
	blocksSynced.WithLabelValues(chain).Inc()
}

// ReorgDetected increments the reorg counter for the given chain.
func ReorgDetected(chain string) {
	reorgs.WithLabelValues(chain).Inc()
}

// ProofGenerated increments the generated proofs counter for the given proof type.
func ProofGenerated(proofType string) {
	proofsGenerated.WithLabelValues(proofType).Inc()
}

// ProofError increments the proof errors counter for the given reason.
func ProofError(reason string) {
	proofErrors.WithLabelValues(reason).Inc()
}

// SetProverInflight records the number of in-flight proof jobs.
func SetProverInflight(n int) {
	proverInflight.Set(float64(n))
}

// Start exposes the prometheus /metrics endpoint. It returns the server so
// the caller can shut it down.
func Start(cfg Config) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second, //nolint:mnd
	}
	go func() {
		log.Infof("metrics server listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Errorf("metrics server error: %v", err)
		}
	}()

	return srv
}

// Stop shuts down the metrics server.
func Stop(ctx context.Context, srv *http.Server) {
	if srv == nil {
		return
	}
	if err := srv.Shutdown(ctx); err != nil {
		log.Warnf("error shutting down metrics server: %v", err)
	}
}
