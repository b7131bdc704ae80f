package config

// DefaultValues is the default configuration of the relayer node.
const DefaultValues = `
[Log]
Environment = "development" # "production" or "development"
Level = "info"
Outputs = ["stderr"]

[Ethereum]
Name = "ethereum"
URL = "http://localhost:8545"

[Arbitrum]
Name = "arbitrum"
URL = "http://localhost:8547"

[LightClient]
FinalityDepth = 15
PollInterval = "12s"
DBPath = ""

[Prover]
Enabled = true
MaxConcurrent = 4
Timeout = "5m"

[P2P]
ListenAddr = "/ip4/0.0.0.0/tcp/9000"
BootstrapPeers = []
MaxPeers = 50

[API]
Host = "0.0.0.0"
Port = 8080

[Metrics]
Enabled = false
Host = "127.0.0.1"
Port = 9090
`
