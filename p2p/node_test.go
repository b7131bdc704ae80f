package p2p

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testNode(t *testing.T) *Node {
	t.Helper()
	node, err := NewNode(context.Background(), Config{
		ListenAddr: "/ip4/127.0.0.1/tcp/0",
		MaxPeers:   10,
	})
	require.NoError(t, err)
	t.Cleanup(node.Stop)
	return node
}

func TestNodeLifecycle(t *testing.T) {
	node := testNode(t)

	require.NotEmpty(t, node.ID())
	require.Zero(t, node.PeerCount())

	// publishing with no peers succeeds, gossip has nowhere to go
	require.NoError(t, node.PublishRelayRequest(context.Background(), []byte{0x01}))
	require.NoError(t, node.PublishHeaders(context.Background(), []byte{0x02}))
}

func TestNodeNextEventHonorsContext(t *testing.T) {
	node := testNode(t)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := node.NextEvent(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestNodeSkipsInvalidBootstrapPeers(t *testing.T) {
	node, err := NewNode(context.Background(), Config{
		ListenAddr: "/ip4/127.0.0.1/tcp/0",
		MaxPeers:   10,
		BootstrapPeers: []string{
			"not-a-multiaddr",
			"/ip4/127.0.0.1/tcp/1", // no peer id
		},
	})
	require.NoError(t, err)
	node.Stop()
}

func TestRequestID(t *testing.T) {
	short := []byte{0xde, 0xad}
	require.Equal(t, "dead", requestID(short))

	long := make([]byte, 64)
	long[0] = 0x01
	id := requestID(long)
	// only the first 32 bytes contribute
	require.Len(t, id, 64)
	require.Equal(t, requestID(long[:32]), id)
}
