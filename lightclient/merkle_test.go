package lightclient

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/require"
)

func TestVerifyProofEmptyPath(t *testing.T) {
	leaf := common.HexToHash("0x01")

	require.True(t, VerifyProof(leaf, nil, leaf))
	require.False(t, VerifyProof(leaf, nil, common.HexToHash("0x02")))
}

func TestVerifyProofTwoLevels(t *testing.T) {
	leaf := common.HexToHash("0x01")
	s1 := common.HexToHash("0x02")
	s2 := common.HexToHash("0x03")

	level1 := crypto.Keccak256Hash(leaf.Bytes(), s1.Bytes())
	root := crypto.Keccak256Hash(level1.Bytes(), s2.Bytes())

	require.True(t, VerifyProof(leaf, []common.Hash{s1, s2}, root))
}

func TestVerifyProofRejectsTamperedPath(t *testing.T) {
	leaf := common.HexToHash("0x01")
	s1 := common.HexToHash("0x02")
	s2 := common.HexToHash("0x03")

	level1 := crypto.Keccak256Hash(leaf.Bytes(), s1.Bytes())
	root := crypto.Keccak256Hash(level1.Bytes(), s2.Bytes())

	tampered := s1
	tampered[0] ^= 0x01
	require.False(t, VerifyProof(leaf, []common.Hash{tampered, s2}, root))

	// sibling order matters, the combination is not commutative
	require.False(t, VerifyProof(leaf, []common.Hash{s2, s1}, root))
}
