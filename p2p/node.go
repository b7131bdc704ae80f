package p2p

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"sync"

	"github.com/libp2p/go-libp2p"
	pubsub "github.com/libp2p/go-libp2p-pubsub"
	"github.com/libp2p/go-libp2p/core/host"
	"github.com/libp2p/go-libp2p/core/network"
	"github.com/libp2p/go-libp2p/core/peer"
	"github.com/libp2p/go-libp2p/p2p/net/connmgr"
	"github.com/multiformats/go-multiaddr"
	"github.com/veilcash/relayer/log"
)

// Gossip topics shared by all relayer nodes on the network.
const (
	TopicRelayRequests = "veilcash/relay/1.0.0"
	TopicBlockHeaders  = "veilcash/headers/1.0.0"
	TopicReputation    = "veilcash/reputation/1.0.0"
)

const eventBufferSize = 256

// ErrClosed is returned by NextEvent after Stop.
var ErrClosed = errors.New("p2p node is closed")

// Node is a gossipsub participant. It joins the relay, header and
// reputation topics, republishes what the local node produces and surfaces
// peer churn and incoming relay requests as events.
type Node struct {
	host   host.Host
	ps     *pubsub.PubSub
	topics map[string]*pubsub.Topic
	events chan Event
	log    *log.Logger

	cancel   context.CancelFunc
	done     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
}

// NewNode creates the libp2p host, wires gossipsub and dials the
// configured bootstrap peers. Unreachable bootstrap peers are logged
// and skipped.
func NewNode(ctx context.Context, cfg Config) (*Node, error) {
	cm, err := connmgr.NewConnManager(cfg.MaxPeers/2, cfg.MaxPeers)
	if err != nil {
		return nil, fmt.Errorf("create connection manager: %w", err)
	}

	h, err := libp2p.New(
		libp2p.ListenAddrStrings(cfg.ListenAddr),
		libp2p.ConnectionManager(cm),
	)
	if err != nil {
		return nil, fmt.Errorf("create libp2p host: %w", err)
	}

	ps, err := pubsub.NewGossipSub(ctx, h,
		pubsub.WithPeerExchange(true),
		pubsub.WithFloodPublish(true),
	)
	if err != nil {
		h.Close()
		return nil, fmt.Errorf("create gossipsub: %w", err)
	}

	nodeCtx, cancel := context.WithCancel(ctx)
	n := &Node{
		host:   h,
		ps:     ps,
		topics: make(map[string]*pubsub.Topic),
		events: make(chan Event, eventBufferSize),
		log:    log.WithFields("component", "p2p"),
		cancel: cancel,
		done:   make(chan struct{}),
	}

	for _, name := range []string{TopicRelayRequests, TopicBlockHeaders, TopicReputation} {
		topic, err := ps.Join(name)
		if err != nil {
			cancel()
			h.Close()
			return nil, fmt.Errorf("join topic %s: %w", name, err)
		}
		n.topics[name] = topic
	}

	sub, err := n.topics[TopicRelayRequests].Subscribe()
	if err != nil {
		cancel()
		h.Close()
		return nil, fmt.Errorf("subscribe %s: %w", TopicRelayRequests, err)
	}

	h.Network().Notify(&network.NotifyBundle{
		ConnectedF: func(_ network.Network, c network.Conn) {
			n.emit(PeerConnected{PeerID: c.RemotePeer().String()})
		},
		DisconnectedF: func(_ network.Network, c network.Conn) {
			n.emit(PeerDisconnected{PeerID: c.RemotePeer().String()})
		},
	})

	n.wg.Add(1)
	go n.readRelayRequests(nodeCtx, sub)

	n.connectBootstrapPeers(nodeCtx, cfg.BootstrapPeers)

	n.log.Infof("p2p node started, id %s, listening on %s", h.ID(), cfg.ListenAddr)
	return n, nil
}

func (n *Node) connectBootstrapPeers(ctx context.Context, addrs []string) {
	for _, addr := range addrs {
		ma, err := multiaddr.NewMultiaddr(addr)
		if err != nil {
			n.log.Warnf("invalid bootstrap multiaddr %s: %v", addr, err)
			continue
		}
		pi, err := peer.AddrInfoFromP2pAddr(ma)
		if err != nil {
			n.log.Warnf("bootstrap multiaddr %s has no peer id: %v", addr, err)
			continue
		}
		if pi.ID == n.host.ID() {
			continue
		}
		if err := n.host.Connect(ctx, *pi); err != nil {
			n.log.Warnf("failed to connect to bootstrap peer %s: %v", pi.ID, err)
			continue
		}
		n.log.Infof("connected to bootstrap peer %s", pi.ID)
	}
}

// readRelayRequests pumps gossip messages from the relay topic into the
// event channel, dropping our own publishes.
func (n *Node) readRelayRequests(ctx context.Context, sub *pubsub.Subscription) {
	defer n.wg.Done()
	defer sub.Cancel()

	for {
		msg, err := sub.Next(ctx)
		if err != nil {
			// context canceled or subscription torn down
			return
		}
		if msg.ReceivedFrom == n.host.ID() {
			continue
		}
		n.emit(RelayRequest{
			RequestID: requestID(msg.Data),
			Data:      msg.Data,
		})
	}
}

// requestID derives a stable identifier from the payload prefix.
func requestID(data []byte) string {
	if len(data) > 32 {
		data = data[:32]
	}
	return hex.EncodeToString(data)
}

// emit never blocks and never outlives Stop; notifiee callbacks can fire
// from libp2p goroutines during teardown.
func (n *Node) emit(ev Event) {
	select {
	case <-n.done:
		return
	default:
	}
	select {
	case n.events <- ev:
	default:
		n.log.Warnf("p2p event buffer full, dropping %T", ev)
	}
}

// PublishRelayRequest broadcasts a relay payload to the network.
func (n *Node) PublishRelayRequest(ctx context.Context, data []byte) error {
	return n.topics[TopicRelayRequests].Publish(ctx, data)
}

// PublishHeaders broadcasts a header digest to the network.
func (n *Node) PublishHeaders(ctx context.Context, data []byte) error {
	return n.topics[TopicBlockHeaders].Publish(ctx, data)
}

// NextEvent blocks until an event is available, the node stops or the
// context is done.
func (n *Node) NextEvent(ctx context.Context) (Event, error) {
	select {
	case ev := <-n.events:
		return ev, nil
	case <-n.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// PeerCount returns the number of currently connected peers.
func (n *Node) PeerCount() int {
	return len(n.host.Network().Peers())
}

// ID returns the host peer id.
func (n *Node) ID() string {
	return n.host.ID().String()
}

// Stop tears down subscriptions and closes the host.
func (n *Node) Stop() {
	n.stopOnce.Do(func() {
		close(n.done)
		n.cancel()
		n.wg.Wait()
		if err := n.host.Close(); err != nil {
			n.log.Warnf("error closing libp2p host: %v", err)
		}
	})
}
