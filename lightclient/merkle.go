package lightclient

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// VerifyProof checks the inclusion of leaf under root given the ordered
// sibling path. Siblings are combined in a fixed order,
// keccak256(current || sibling), regardless of tree position; the proving side
// must build proofs with the exact same rule or verification will not
// round-trip. Changing this to a position-aware scheme would break
// compatibility with already committed roots.
func VerifyProof(leaf common.Hash, proof []common.Hash, root common.Hash) bool {
	current := leaf
	for _, sibling := range proof {
		current = crypto.Keccak256Hash(current.Bytes(), sibling.Bytes())
	}
	return current == root
}
