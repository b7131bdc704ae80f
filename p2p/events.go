package p2p

// Event is emitted by the node for peer lifecycle changes and incoming
// relay traffic.
type Event interface {
	isEvent()
}

// PeerConnected signals a new connection to PeerID.
type PeerConnected struct {
	PeerID string
}

// PeerDisconnected signals the last connection to PeerID closed.
type PeerDisconnected struct {
	PeerID string
}

// RelayRequest carries a relay payload received over gossip.
type RelayRequest struct {
	RequestID string
	Data      []byte
}

func (PeerConnected) isEvent()    {}
func (PeerDisconnected) isEvent() {}
func (RelayRequest) isEvent()     {}
