package api

// Config holds the HTTP API parameters.
type Config struct {
	// Host is the address to bind the HTTP server to.
	Host string `mapstructure:"Host"`
	// Port is the port to bind the HTTP server to.
	Port int `mapstructure:"Port"`
}
