package common

const (
	// LIGHT_CLIENT name to identify the light-client component
	LIGHT_CLIENT = "light-client" //nolint:stylecheck
	// PROVER name to identify the prover component
	PROVER = "prover"
	// P2P name to identify the p2p component
	P2P = "p2p"
	// API name to identify the http api component
	API = "api"
)
