package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/veilcash/relayer/lightclient"
	"github.com/veilcash/relayer/log"
)

// relay fee quotes are flat and short-lived
const (
	quoteFeeWei      = 1_000_000_000_000_000 // 0.001 ether
	quoteValidityFor = 5 * time.Minute
)

// ChainTracker exposes the sync state of the tracked chains.
// *lightclient.LightClient satisfies it.
type ChainTracker interface {
	Status() []lightclient.ChainStatus
}

// ProofService exposes the prover admission state. *prover.Service
// satisfies it.
type ProofService interface {
	IsAvailable() bool
	QueueDepth() int
}

// Broadcaster publishes relay requests to the gossip network. *p2p.Node
// satisfies it.
type Broadcaster interface {
	PublishRelayRequest(ctx context.Context, data []byte) error
	PeerCount() int
}

// Server is the public HTTP surface of the relayer node.
type Server struct {
	cfg       Config
	version   string
	chains    ChainTracker
	prover    ProofService
	network   Broadcaster
	log       *log.Logger
	startedAt time.Time

	srv *http.Server
}

// NewServer wires the HTTP handlers. Any of chains, prover and network
// may be nil when the corresponding component is not running; the related
// endpoints degrade instead of failing.
func NewServer(cfg Config, version string, chains ChainTracker, prover ProofService, network Broadcaster) *Server {
	return &Server{
		cfg:       cfg,
		version:   version,
		chains:    chains,
		prover:    prover,
		network:   network,
		log:       log.WithFields("component", "api"),
		startedAt: time.Now(),
	}
}

func (s *Server) router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", s.handleHealth)
	router.GET("/status", s.handleStatus)
	router.POST("/relay", s.handleRelay)
	router.POST("/quote", s.handleQuote)

	return router
}

// Start binds the listener and serves until Stop. It blocks.
func (s *Server) Start() error {
	router := s.router()

	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	s.log.Infof("http api listening on %s", s.srv.Addr)

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop shuts the server down, waiting for in-flight requests.
func (s *Server) Stop(ctx context.Context) error {
	if s.srv == nil {
		return nil
	}
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

type statusResponse struct {
	Version       string                    `json:"version"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Chains        []lightclient.ChainStatus `json:"chains"`
	Prover        proverStatus              `json:"prover"`
	Peers         int                       `json:"peers"`
}

type proverStatus struct {
	Available  bool `json:"available"`
	QueueDepth int  `json:"queue_depth"`
}

func (s *Server) handleStatus(c *gin.Context) {
	resp := statusResponse{
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if s.chains != nil {
		resp.Chains = s.chains.Status()
	}
	if s.prover != nil {
		resp.Prover = proverStatus{
			Available:  s.prover.IsAvailable(),
			QueueDepth: s.prover.QueueDepth(),
		}
	}
	if s.network != nil {
		resp.Peers = s.network.PeerCount()
	}
	c.JSON(http.StatusOK, resp)
}

type relayRequest struct {
	ChainID uint64 `json:"chain_id" binding:"required"`
	// Payload is the hex encoded relay payload (0x prefixed).
	Payload string `json:"payload" binding:"required"`
}

type relayResponse struct {
	RequestID string `json:"request_id"`
}

func (s *Server) handleRelay(c *gin.Context) {
	var req relayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	payload, err := hexutil.Decode(req.Payload)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("invalid payload: %v", err)})
		return
	}
	if s.network == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "relay network is not running"})
		return
	}
	if err := s.network.PublishRelayRequest(c.Request.Context(), payload); err != nil {
		s.log.Errorf("error publishing relay request: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to broadcast request"})
		return
	}
	c.JSON(http.StatusAccepted, relayResponse{
		RequestID: crypto.Keccak256Hash(payload).Hex(),
	})
}

type quoteResponse struct {
	FeeWei    uint64 `json:"fee_wei"`
	ExpiresAt int64  `json:"expires_at"`
}

func (s *Server) handleQuote(c *gin.Context) {
	c.JSON(http.StatusOK, quoteResponse{
		FeeWei:    quoteFeeWei,
		ExpiresAt: time.Now().Add(quoteValidityFor).Unix(),
	})
}
