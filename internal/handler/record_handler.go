package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/fss/internal/ledger"
	"github.com/blues/fss/internal/model"
	"github.com/blues/fss/internal/settlement"
	"github.com/blues/fss/internal/signing"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// RecordHandler 贡献记录处理器
type RecordHandler struct {
	ledger        *ledger.Ledger
	session       *ledger.Session
	settlementSvc *settlement.Service
	signer        signing.Signer // 可为nil，此时签名接口返回SignerUnavailable
}

// NewRecordHandler 创建贡献记录处理器
func NewRecordHandler(l *ledger.Ledger, session *ledger.Session, settlementSvc *settlement.Service, signer signing.Signer) *RecordHandler {
	return &RecordHandler{
		ledger:        l,
		session:       session,
		settlementSvc: settlementSvc,
		signer:        signer,
	}
}

// ListRecords 按合约地址查询贡献记录
func (h *RecordHandler) ListRecords(c *gin.Context) {
	contract := c.Query("contract")
	if !common.IsHexAddress(contract) {
		ErrorResponse(c, http.StatusBadRequest, "invalid contract address")
		return
	}

	records, err := h.ledger.ListRecords(h.session, common.HexToAddress(contract).Hex())
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "ok", records)
}

// CreateRecord 新增贡献记录
func (h *RecordHandler) CreateRecord(c *gin.Context) {
	var req CreateRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Contract) {
		ErrorResponse(c, http.StatusBadRequest, "invalid contract address")
		return
	}
	if !common.IsHexAddress(req.User) {
		ErrorResponse(c, http.StatusBadRequest, "invalid user address")
		return
	}

	point, err := decimal.NewFromString(req.Point)
	if err != nil || point.IsNegative() {
		ErrorResponse(c, http.StatusBadRequest, "point must be a non-negative decimal")
		return
	}

	record := &model.ContributionRecord{
		Contract:     common.HexToAddress(req.Contract).Hex(),
		User:         common.HexToAddress(req.User).Hex(),
		Contribution: req.Contribution,
		Point:        point,
	}

	if err := h.ledger.AddRecord(h.session, record); err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "record created", record)
}

// GetDigest 计算某投票人对某记录的投票摘要，供客户端签名
func (h *RecordHandler) GetDigest(c *gin.Context) {
	recordID, err := parseRecordID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	voter := c.Query("voter")
	if !common.IsHexAddress(voter) {
		ErrorResponse(c, http.StatusBadRequest, "invalid voter address")
		return
	}

	approve, err := strconv.ParseBool(c.DefaultQuery("approve", "true"))
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid approve flag")
		return
	}

	record, err := h.ledger.GetRecord(h.session, recordID)
	if err != nil {
		FailWithError(c, err)
		return
	}

	amountWei, err := signing.PointToWei(record.Point)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	claimant := common.HexToAddress(record.User)
	voterAddr := common.HexToAddress(voter)
	digest := signing.BuildDigest(claimant, record.Uid, voterAddr, approve, amountWei)

	SuccessResponse(c, http.StatusOK, "ok", DigestResponse{
		RecordID:  record.ID,
		Claimant:  claimant.Hex(),
		Voter:     voterAddr.Hex(),
		Approve:   approve,
		AmountWei: amountWei.String(),
		Digest:    digest.Hex(),
	})
}

// AppendVote 追加客户端已签名的投票决定
func (h *RecordHandler) AppendVote(c *gin.Context) {
	recordID, err := parseRecordID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req AppendVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Voter) {
		ErrorResponse(c, http.StatusBadRequest, "invalid voter address")
		return
	}

	sig, err := hexutil.Decode(req.Signature)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "invalid signature encoding")
		return
	}

	decision := &model.VoteDecision{
		Voter:     common.HexToAddress(req.Voter).Hex(),
		Approve:   *req.Approve,
		Signature: sig,
	}

	if err := h.ledger.AppendVote(h.session, recordID, decision); err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "vote appended", decision)
}

// SignVote 由服务端配置的签名器构造摘要、签名并追加投票
func (h *RecordHandler) SignVote(c *gin.Context) {
	recordID, err := parseRecordID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req SignVoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if h.signer == nil {
		FailWithError(c, signing.ErrSignerUnavailable)
		return
	}

	record, err := h.ledger.GetRecord(h.session, recordID)
	if err != nil {
		FailWithError(c, err)
		return
	}

	amountWei, err := signing.PointToWei(record.Point)
	if err != nil {
		ErrorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}

	decision, err := signing.SignDecision(h.signer, common.HexToAddress(record.User), record.Uid, *req.Approve, amountWei)
	if err != nil {
		FailWithError(c, err)
		return
	}

	if err := h.ledger.AppendVote(h.session, recordID, decision); err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusCreated, "vote signed and appended", decision)
}

// Claim 结算一条贡献记录。claim不是投票，不受已投票限制
func (h *RecordHandler) Claim(c *gin.Context) {
	recordID, err := parseRecordID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	record, err := h.settlementSvc.Claim(c.Request.Context(), h.session, recordID)
	if err != nil {
		FailWithError(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "record claimed", record)
}

// parseRecordID 解析路径中的记录ID
func parseRecordID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, err
	}
	return uint(id), nil
}
