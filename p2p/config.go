package p2p

// Config holds the gossip node parameters.
type Config struct {
	// ListenAddr is the multiaddr the libp2p host binds to.
	ListenAddr string `mapstructure:"ListenAddr"`
	// BootstrapPeers are multiaddrs (with peer id) dialed at startup.
	BootstrapPeers []string `mapstructure:"BootstrapPeers"`
	// MaxPeers caps the connection manager high watermark.
	MaxPeers int `mapstructure:"MaxPeers"`
}
