package workflow

import (
	"sync"

	"VideoChatPro-server/models"

	"github.com/google/uuid"
)

// PipelineStatus 合成管线的三态，阻止并发重入
type PipelineStatus string

const (
	PipelineIdle    PipelineStatus = "idle"
	PipelineRunning PipelineStatus = "running"
	PipelineFailed  PipelineStatus = "failed"
)

// UploadedFile 用户提交的文件描述（字节内容不经过会话）
type UploadedFile struct {
	Name      string `json:"name"`
	SizeBytes int64  `json:"sizeBytes"`
}

// State 单个会话的工作流状态。
// 不变量：PendingConfirmation=true 仅出现在 CurrentStep=2
type State struct {
	CurrentStep         int            `json:"currentStep"` // 1..6
	PendingConfirmation bool           `json:"pendingConfirmation"`
	UploadedFiles       []UploadedFile `json:"uploadedFiles"`
	ScriptText          string         `json:"scriptText,omitempty"`
	ProjectID           string         `json:"projectId,omitempty"`
	Pipeline            PipelineStatus `json:"pipeline"`
}

// Session 一次浏览器会话的服务端对应物：状态 + 消息日志。
// mu 串行化所有控制器变迁，对应客户端的单输入队列
type Session struct {
	ID  string
	Log *MessageLog

	mu    sync.Mutex
	state State
}

func newSession() *Session {
	id := uuid.NewString()
	return &Session{
		ID:  id,
		Log: NewMessageLog(id),
		state: State{
			CurrentStep: 1,
			Pipeline:    PipelineIdle,
		},
	}
}

// State 返回状态副本
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.state
	st.UploadedFiles = append([]UploadedFile{}, s.state.UploadedFiles...)
	return st
}

// collectFiles 把文件追加进会话的累计列表（Upload Collector：
// 不做过滤，类型筛选是投递界面的职责）
func (s *Session) collectFiles(files []UploadedFile) {
	s.state.UploadedFiles = append(s.state.UploadedFiles, files...)
}

// Manager 进程内的会话注册表，随页面生命周期存在，不持久化
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

func (m *Manager) Create() *Session {
	s := newSession()
	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()
	return s
}

func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return s, nil
}
