package handler

import (
	"net/http"

	"github.com/blues/fss/internal/contract"
	"github.com/blues/fss/internal/ethereum"
	"github.com/blues/fss/internal/signing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/gin-gonic/gin"
)

// DepositHandler 注资处理器
type DepositHandler struct {
	eth *ethereum.Client
}

// NewDepositHandler 创建注资处理器
func NewDepositHandler(eth *ethereum.Client) *DepositHandler {
	return &DepositHandler{eth: eth}
}

// Deposit 向FairSharing合约注资并等待交易上链
func (h *DepositHandler) Deposit(c *gin.Context) {
	var req DepositRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Contract) {
		ErrorResponse(c, http.StatusBadRequest, "invalid contract address")
		return
	}

	value, err := signing.EtherToWei(req.Value)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	fairSharing, err := contract.NewFairSharing(h.eth.Raw(), common.HexToAddress(req.Contract))
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	auth, err := h.eth.GetAuth(c.Request.Context())
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	tx, err := fairSharing.Sharing(auth, value)
	if err != nil {
		ErrorResponse(c, http.StatusBadGateway, err.Error())
		return
	}

	receipt, err := h.eth.WaitMined(c.Request.Context(), tx)
	if err != nil {
		ErrorResponse(c, http.StatusBadGateway, err.Error())
		return
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		ErrorResponse(c, http.StatusBadGateway, "deposit transaction reverted: "+tx.Hash().Hex())
		return
	}

	SuccessResponse(c, http.StatusOK, "deposit confirmed", gin.H{
		"tx_hash":   tx.Hash().Hex(),
		"block_num": receipt.BlockNumber.Uint64(),
		"value_wei": value.String(),
	})
}
