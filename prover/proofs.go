package prover

import (
	"time"

	relayercommon "github.com/veilcash/relayer/common"

	"github.com/ethereum/go-ethereum/common"
)

// proofSize is the serialized size of a pairing-based proof in the target
// proof system (2 G1 points + 1 G2 point).
const proofSize = 192

// ProofRequest is a request for one of the supported proof kinds. The set of
// variants is closed: WithdrawalRequest, TransferRequest, ConsistencyRequest
// and RangeRequest.
type ProofRequest interface {
	// ProofType returns the tag identifying the proof kind on the wire.
	ProofType() string
}

// WithdrawalRequest asks for a proof authorizing a withdrawal of a committed
// note to a public recipient.
type WithdrawalRequest struct {
	MerkleRoot    common.Hash
	Nullifier     common.Hash
	Recipient     common.Address
	Amount        uint64
	Secret        common.Hash
	Randomness    common.Hash
	MerklePath    []common.Hash
	MerkleIndices []byte
}

// TransferRequest asks for a proof that spends one commitment into two new
// ones without revealing values.
type TransferRequest struct {
	MerkleRoot     common.Hash
	Nullifier      common.Hash
	NewCommitmentA common.Hash
	NewCommitmentB common.Hash
	Secret         common.Hash
	Randomness     common.Hash
	MerklePath     []common.Hash
	MerkleIndices  []byte
}

// ConsistencyRequest asks for a proof that a Pedersen commitment and a
// Paillier ciphertext hide the same value.
type ConsistencyRequest struct {
	PedersenCommitment common.Hash
	PaillierCiphertext []byte
	Value              uint64
	PedersenRandomness common.Hash
	PaillierRandomness []byte
}

// RangeRequest asks for a proof that a committed value is at least MinValue.
type RangeRequest struct {
	Commitment common.Hash
	MinValue   uint64
	Value      uint64
	Randomness common.Hash
}

func (WithdrawalRequest) ProofType() string  { return "withdrawal" }
func (TransferRequest) ProofType() string    { return "transfer" }
func (ConsistencyRequest) ProofType() string { return "consistency" }
func (RangeRequest) ProofType() string       { return "range" }

// GeneratedProof is the result of a successful proof request. It is built
// exactly once and never mutated afterwards.
type GeneratedProof struct {
	ProofType        string
	ProofData        []byte
	PublicInputs     []common.Hash
	GenerationTimeMS uint64
}

// buildProof maps a request to proof bytes and ordered public inputs. The
// public input layout per kind is part of the on-chain verifier contract and
// must not change. A real proving backend plugs in behind this exact
// signature.
func buildProof(request ProofRequest) (*GeneratedProof, error) {
	start := time.Now()

	var publicInputs []common.Hash
	switch req := request.(type) {
	case WithdrawalRequest:
		publicInputs = []common.Hash{
			req.MerkleRoot,
			req.Nullifier,
			addressToInput(req.Recipient),
			uint64ToInput(req.Amount),
		}
	case TransferRequest:
		publicInputs = []common.Hash{
			req.MerkleRoot,
			req.Nullifier,
			req.NewCommitmentA,
			req.NewCommitmentB,
		}
	case ConsistencyRequest:
		publicInputs = []common.Hash{
			req.PedersenCommitment,
		}
	case RangeRequest:
		publicInputs = []common.Hash{
			req.Commitment,
			uint64ToInput(req.MinValue),
		}
	default:
		return nil, ErrUnknownProofType
	}

	return &GeneratedProof{
		ProofType:        request.ProofType(),
		ProofData:        make([]byte, proofSize),
		PublicInputs:     publicInputs,
		GenerationTimeMS: uint64(time.Since(start).Milliseconds()),
	}, nil
}

// addressToInput right-aligns a 20-byte address into a 32-byte public input.
func addressToInput(addr common.Address) common.Hash {
	var input common.Hash
	copy(input[12:], addr.Bytes())
	return input
}

// uint64ToInput encodes a uint64 big-endian into the tail of a 32-byte public
// input.
func uint64ToInput(num uint64) common.Hash {
	var input common.Hash
	copy(input[24:], relayercommon.Uint64ToBytes(num))
	return input
}
