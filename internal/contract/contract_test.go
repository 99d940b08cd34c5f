package contract

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	factoryAddr  = common.HexToAddress("0x5d28D141Ca3d3A1CAB83b909098522F9b91309F7")
	instanceAddr = common.HexToAddress("0xB1De135E8cF1a5BdD96f4cBa4509cDd9cCB7c0e1")
	ownerAddr    = common.HexToAddress("0xA0Cf024D03D05169b3fc3728F5EE3c8a684ca6a5")
)

func TestClaimCallPacking(t *testing.T) {
	votes := []VoteInput{
		{Voter: ownerAddr, Approve: true, Signature: []byte{0x01, 0x02}},
		{Voter: instanceAddr, Approve: false, Signature: []byte{0x03}},
	}

	data, err := parsedFairSharingABI.Pack("claim",
		common.HexToHash("0xdeadbeef"), big.NewInt(100), votes)
	require.NoError(t, err)

	// 前4字节是方法选择器
	method, err := parsedFairSharingABI.MethodById(data[:4])
	require.NoError(t, err)
	assert.Equal(t, "claim", method.Name)

	unpacked, err := method.Inputs.Unpack(data[4:])
	require.NoError(t, err)
	require.Len(t, unpacked, 3)
	assert.Equal(t, big.NewInt(100), unpacked[1])
}

func TestViewMethodPacking(t *testing.T) {
	for _, name := range []string{"name", "totalMembers"} {
		_, err := parsedFairSharingABI.Pack(name)
		require.NoError(t, err, "method %s", name)
	}

	_, err := parsedFactoryABI.Pack("getCount")
	require.NoError(t, err)
}

func TestInstanceFromReceipt(t *testing.T) {
	f, err := NewFactory(nil, factoryAddr)
	require.NoError(t, err)

	createdID := parsedFactoryABI.Events["FairSharingCreated"].ID
	receipt := &types.Receipt{
		Logs: []*types.Log{
			{
				// 其他合约发出的同名事件应被忽略
				Address: instanceAddr,
				Topics:  []common.Hash{createdID, instanceAddr.Hash(), ownerAddr.Hash()},
			},
			{
				Address: factoryAddr,
				Topics:  []common.Hash{createdID, instanceAddr.Hash(), ownerAddr.Hash()},
			},
		},
	}

	addr, err := f.InstanceFromReceipt(receipt)
	require.NoError(t, err)
	assert.Equal(t, instanceAddr, addr)
}

func TestInstanceFromReceiptNoEvent(t *testing.T) {
	f, err := NewFactory(nil, factoryAddr)
	require.NoError(t, err)

	_, err = f.InstanceFromReceipt(&types.Receipt{})
	assert.ErrorIs(t, err, ErrNoCreatedEvent)
}

func TestParseFactoryLog(t *testing.T) {
	createdID := parsedFactoryABI.Events["FairSharingCreated"].ID

	name, params, err := ParseFactoryLog(types.Log{
		Address:     factoryAddr,
		Topics:      []common.Hash{createdID, instanceAddr.Hash(), ownerAddr.Hash()},
		BlockNumber: 42,
	})
	require.NoError(t, err)

	assert.Equal(t, "FairSharingCreated", name)
	assert.Equal(t, instanceAddr, params["fairSharing"])
	assert.Equal(t, ownerAddr, params["owner"])
	assert.Equal(t, uint64(42), params["blockNumber"])
}

func TestParseFairSharingLog(t *testing.T) {
	event := parsedFairSharingABI.Events["Claimed"]
	contributionId := common.HexToHash("0x1234")

	amountData, err := event.Inputs.NonIndexed().Pack(big.NewInt(7))
	require.NoError(t, err)

	name, params, err := ParseFairSharingLog(types.Log{
		Address: instanceAddr,
		Topics:  []common.Hash{event.ID, ownerAddr.Hash(), contributionId},
		Data:    amountData,
	})
	require.NoError(t, err)

	assert.Equal(t, "Claimed", name)
	assert.Equal(t, ownerAddr, params["user"])
	assert.Equal(t, contributionId, params["contributionId"])
	assert.Equal(t, big.NewInt(7), params["amount"])
}

func TestParseLogUnknownEvent(t *testing.T) {
	_, _, err := ParseFairSharingLog(types.Log{
		Topics: []common.Hash{common.HexToHash("0xffff")},
	})
	assert.Error(t, err)

	_, _, err = ParseFairSharingLog(types.Log{})
	assert.Error(t, err)
}
