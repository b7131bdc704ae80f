package lightclient

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/veilcash/relayer/config/types"
)

func TestLightClientEventStream(t *testing.T) {
	client := &ChainClientMock{}

	chain := makeChain(0, 4)
	client.On("BlockNumber", mock.Anything).Return(uint64(2), nil).Once()
	client.On("ChainID", mock.Anything).Return(big.NewInt(1), nil).Once()
	for num := uint64(0); num <= 2; num++ {
		client.On("HeaderByNumber", mock.Anything, new(big.Int).SetUint64(num)).
			Return(chain[num], nil).Once()
	}
	client.On("BlockNumber", mock.Anything).Return(uint64(3), nil)
	client.On("HeaderByNumber", mock.Anything, big.NewInt(3)).Return(chain[3], nil).Once()

	lightClient, err := New(Config{
		FinalityDepth: 1,
		PollInterval:  types.NewDuration(10 * time.Millisecond),
	}, []Chain{{Name: "testchain", Client: client}})
	require.NoError(t, err)

	lightClient.Start(context.Background())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event, err := lightClient.NextEvent(ctx)
	require.NoError(t, err)
	newBlock, ok := event.(NewBlock)
	require.True(t, ok)
	require.Equal(t, uint64(1), newBlock.ChainID)
	require.Equal(t, uint64(3), newBlock.BlockNumber)

	// the header behind the event is queryable
	header, ok := lightClient.HeaderByHash(1, newBlock.BlockHash)
	require.True(t, ok)
	require.Equal(t, uint64(3), header.Number)

	finalized, ok := lightClient.Finalized(1)
	require.True(t, ok)
	require.Equal(t, uint64(2), finalized)

	lightClient.Stop()

	_, err = lightClient.NextEvent(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestLightClientVerifyInclusion(t *testing.T) {
	client := &ChainClientMock{}
	lightClient, err := New(Config{
		FinalityDepth: 1,
		PollInterval:  types.NewDuration(time.Second),
	}, []Chain{{Name: "testchain", Client: client}})
	require.NoError(t, err)

	header := makeChain(5, 1)[0]
	lightClient.engines[0].mu.Lock()
	lightClient.engines[0].chainID = 1
	lightClient.engines[0].store.Append(newStoredHeader(header))
	lightClient.engines[0].mu.Unlock()

	// empty proof path: the leaf must equal the tx root itself
	require.True(t, lightClient.VerifyInclusion(1, header.Hash(), header.TxHash, nil))
	require.False(t, lightClient.VerifyInclusion(1, header.Hash(), common.HexToHash("0x01"), nil))

	// unknown block: verification fails instead of erroring
	require.False(t, lightClient.VerifyInclusion(1, common.HexToHash("0xdead"), header.TxHash, nil))
	// unknown chain
	require.False(t, lightClient.VerifyInclusion(42, header.Hash(), header.TxHash, nil))
}

func TestLightClientStatus(t *testing.T) {
	client := &ChainClientMock{}
	lightClient, err := New(Config{
		FinalityDepth: 15,
		PollInterval:  types.NewDuration(time.Second),
	}, []Chain{{Name: "testchain", Client: client}})
	require.NoError(t, err)

	chain := makeChain(70, 31)
	seedEngine(t, lightClient.engines[0], chain, 15)

	statuses := lightClient.Status()
	require.Len(t, statuses, 1)
	require.Equal(t, "testchain", statuses[0].Name)
	require.Equal(t, uint64(1), statuses[0].ChainID)
	require.Equal(t, uint64(100), statuses[0].Height)
	require.Equal(t, uint64(85), statuses[0].Finalized)
	require.True(t, statuses[0].Synced)
}
