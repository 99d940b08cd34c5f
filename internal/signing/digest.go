package signing

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// HashRecordID 将不透明的记录标识哈希为定宽的bytes32，
// 保证摘要编码与标识长度无关
func HashRecordID(uid string) common.Hash {
	return crypto.Keccak256Hash([]byte(uid))
}

// BuildDigest 计算投票消息摘要，字段顺序固定：
// keccak256(abi.encodePacked(claimant, keccak256(uid), voter, approve, amountWei))
// 与合约端的校验逻辑逐字节一致，相同输入必须得到相同摘要
func BuildDigest(claimant common.Address, recordUid string, voter common.Address, approve bool, amountWei *big.Int) common.Hash {
	var approveByte byte
	if approve {
		approveByte = 1
	}

	recordHash := HashRecordID(recordUid)

	return crypto.Keccak256Hash(
		claimant.Bytes(),
		recordHash.Bytes(),
		voter.Bytes(),
		[]byte{approveByte},
		common.LeftPadBytes(amountWei.Bytes(), 32),
	)
}
