package handler

// Response 统一响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// OpenSessionRequest 打开账本会话
type OpenSessionRequest struct {
	Identity string `json:"identity" binding:"required"` // 钱包地址
}

// CreateProjectRequest 创建项目
type CreateProjectRequest struct {
	Name    string   `json:"name" binding:"required"`
	Symbol  string   `json:"symbol"`
	Owner   string   `json:"owner" binding:"required"`
	Members []string `json:"members" binding:"required,min=1"`
}

// CreateRecordRequest 新增贡献记录
type CreateRecordRequest struct {
	Contract     string `json:"contract" binding:"required"`
	User         string `json:"user" binding:"required"`
	Contribution string `json:"contribution" binding:"required"`
	Point        string `json:"point" binding:"required"` // 十进制字符串，避免浮点
}

// AppendVoteRequest 追加投票决定（客户端已签名）
type AppendVoteRequest struct {
	Voter     string `json:"voter" binding:"required"`
	Approve   *bool  `json:"approve" binding:"required"`
	Signature string `json:"signature" binding:"required"` // hex编码
}

// SignVoteRequest 由服务端配置的签名器签名并追加投票
type SignVoteRequest struct {
	Approve *bool `json:"approve" binding:"required"`
}

// DepositRequest 向FairSharing合约注资
type DepositRequest struct {
	Contract string `json:"contract" binding:"required"`
	Value    string `json:"value" binding:"required"` // 十进制字符串，单位ether
}

// DigestResponse 摘要计算结果
type DigestResponse struct {
	RecordID  uint   `json:"record_id"`
	Claimant  string `json:"claimant"`
	Voter     string `json:"voter"`
	Approve   bool   `json:"approve"`
	AmountWei string `json:"amount_wei"`
	Digest    string `json:"digest"`
}
