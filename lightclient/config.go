package lightclient

import (
	"github.com/veilcash/relayer/config/types"
)

// DefaultFinalityDepth is the number of confirmations after which a block is
// treated as irreversible.
const DefaultFinalityDepth = 15

// Config of the light client.
type Config struct {
	// FinalityDepth is the number of confirmations after which a block is
	// treated as irreversible
	FinalityDepth uint64 `mapstructure:"FinalityDepth"`
	// PollInterval is the wait between sync iterations on each tracked chain
	PollInterval types.Duration `mapstructure:"PollInterval"`
	// DBPath is the path of the finalized header archive. Empty disables
	// archiving, headers are then memory-resident only
	DBPath string `mapstructure:"DBPath"`
}
