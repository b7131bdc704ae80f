package prover

import (
	"github.com/veilcash/relayer/config/types"
)

// Config of the prover service.
type Config struct {
	// Enabled turns the service on. When false every request fails
	// immediately with ErrServiceDisabled
	Enabled bool `mapstructure:"Enabled"`
	// MaxConcurrent is the number of proof jobs allowed to run at once
	MaxConcurrent int64 `mapstructure:"MaxConcurrent"`
	// Timeout is the per-job deadline for proof generation
	Timeout types.Duration `mapstructure:"Timeout"`
}
