package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/veilcash/relayer/lightclient"
)

type chainTrackerStub struct {
	statuses []lightclient.ChainStatus
}

func (s *chainTrackerStub) Status() []lightclient.ChainStatus {
	return s.statuses
}

type proofServiceStub struct {
	available  bool
	queueDepth int
}

func (s *proofServiceStub) IsAvailable() bool { return s.available }
func (s *proofServiceStub) QueueDepth() int   { return s.queueDepth }

type broadcasterStub struct {
	published  [][]byte
	publishErr error
	peers      int
}

func (s *broadcasterStub) PublishRelayRequest(_ context.Context, data []byte) error {
	if s.publishErr != nil {
		return s.publishErr
	}
	s.published = append(s.published, data)
	return nil
}

func (s *broadcasterStub) PeerCount() int { return s.peers }

func newTestServer(chains ChainTracker, proofs ProofService, network Broadcaster) *Server {
	return NewServer(Config{Host: "127.0.0.1", Port: 0}, "v0.1.0-test", chains, proofs, network)
}

func TestHealthEndpoint(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	server.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "OK", w.Body.String())
}

func TestStatusEndpoint(t *testing.T) {
	chains := &chainTrackerStub{statuses: []lightclient.ChainStatus{
		{Name: "ethereum", ChainID: 1, Height: 100, Finalized: 85, Synced: true},
		{Name: "arbitrum", ChainID: 42161, Height: 2000, Finalized: 1985, Synced: true},
	}}
	proofs := &proofServiceStub{available: true, queueDepth: 3}
	network := &broadcasterStub{peers: 7}

	server := newTestServer(chains, proofs, network)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	server.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, "v0.1.0-test", resp.Version)
	require.Len(t, resp.Chains, 2)
	require.Equal(t, uint64(85), resp.Chains[0].Finalized)
	require.True(t, resp.Prover.Available)
	require.Equal(t, 3, resp.Prover.QueueDepth)
	require.Equal(t, 7, resp.Peers)
}

func TestStatusEndpointWithoutComponents(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/status", nil)
	server.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp statusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Empty(t, resp.Chains)
	require.False(t, resp.Prover.Available)
	require.Zero(t, resp.Peers)
}

func TestRelayEndpoint(t *testing.T) {
	network := &broadcasterStub{}
	server := newTestServer(nil, nil, network)

	body := `{"chain_id": 1, "payload": "0xdeadbeef"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/relay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusAccepted, w.Code)

	var resp relayResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.RequestID)

	require.Len(t, network.published, 1)
	require.Equal(t, []byte{0xde, 0xad, 0xbe, 0xef}, network.published[0])
}

func TestRelayEndpointRejectsBadPayload(t *testing.T) {
	network := &broadcasterStub{}
	server := newTestServer(nil, nil, network)

	for _, body := range []string{
		`{"payload": "0xdeadbeef"}`,      // missing chain id
		`{"chain_id": 1}`,                // missing payload
		`{"chain_id": 1, "payload": "not-hex"}`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/relay", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		server.router().ServeHTTP(w, req)

		require.Equal(t, http.StatusBadRequest, w.Code, "body: %s", body)
	}
	require.Empty(t, network.published)
}

func TestRelayEndpointBroadcastError(t *testing.T) {
	network := &broadcasterStub{publishErr: errors.New("no peers")}
	server := newTestServer(nil, nil, network)

	body := `{"chain_id": 1, "payload": "0x01"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/relay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestRelayEndpointWithoutNetwork(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	body := `{"chain_id": 1, "payload": "0x01"}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/relay", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	server.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestQuoteEndpoint(t *testing.T) {
	server := newTestServer(nil, nil, nil)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/quote", nil)
	server.router().ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp quoteResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, uint64(quoteFeeWei), resp.FeeWei)
	require.Greater(t, resp.ExpiresAt, int64(0))
}
