package ledger

import (
	"errors"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

// ErrStoreUninitialized 账本会话尚未建立，调用方需先完成身份绑定再重试
var ErrStoreUninitialized = errors.New("ledger session not initialized")

// SessionState 会话状态
type SessionState int

const (
	SessionUninitialized SessionState = iota // 未初始化
	SessionOpen                              // 已绑定身份
	SessionClosed                            // 已断开
)

// Session 账本会话，绑定操作身份的显式状态机：
// Uninitialized -> Open(identity) -> Closed，可重新Open绑定新身份
type Session struct {
	mu       sync.RWMutex
	state    SessionState
	identity common.Address
}

// NewSession 创建未初始化的会话
func NewSession() *Session {
	return &Session{state: SessionUninitialized}
}

// Open 绑定身份并打开会话
func (s *Session) Open(identity common.Address) error {
	if identity == (common.Address{}) {
		return errors.New("identity must not be the zero address")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionOpen
	s.identity = identity
	return nil
}

// Close 断开会话，之后的写操作返回ErrStoreUninitialized
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = SessionClosed
	s.identity = common.Address{}
}

// Identity 获取会话绑定的身份
func (s *Session) Identity() (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state != SessionOpen {
		return common.Address{}, ErrStoreUninitialized
	}
	return s.identity, nil
}

// IsOpen 会话是否可用
func (s *Session) IsOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state == SessionOpen
}

// State 当前会话状态
func (s *Session) State() SessionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}
