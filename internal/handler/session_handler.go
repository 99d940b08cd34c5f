package handler

import (
	"net/http"

	"github.com/blues/fss/internal/ledger"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gin-gonic/gin"
)

// SessionHandler 账本会话处理器
type SessionHandler struct {
	session *ledger.Session
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(session *ledger.Session) *SessionHandler {
	return &SessionHandler{session: session}
}

// OpenSession 绑定身份并打开会话
func (h *SessionHandler) OpenSession(c *gin.Context) {
	var req OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if !common.IsHexAddress(req.Identity) {
		ErrorResponse(c, http.StatusBadRequest, "invalid identity address")
		return
	}

	if err := h.session.Open(common.HexToAddress(req.Identity)); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	SuccessResponse(c, http.StatusOK, "session opened", gin.H{
		"identity": req.Identity,
	})
}

// CloseSession 断开会话
func (h *SessionHandler) CloseSession(c *gin.Context) {
	h.session.Close()
	SuccessResponse(c, http.StatusOK, "session closed", nil)
}

// GetSession 查询会话状态
func (h *SessionHandler) GetSession(c *gin.Context) {
	identity, err := h.session.Identity()
	if err != nil {
		SuccessResponse(c, http.StatusOK, "session not initialized", gin.H{
			"open": false,
		})
		return
	}

	SuccessResponse(c, http.StatusOK, "session open", gin.H{
		"open":     true,
		"identity": identity.Hex(),
	})
}
