package workflow

import (
	"sync"
	"time"

	"VideoChatPro-server/models"

	"github.com/google/uuid"
)

// MessageLog 追加式消息序列。唯一的原地修改是更新带合成标记的
// progress 消息的百分比，顺序与其余内容不变
type MessageLog struct {
	mu        sync.RWMutex
	sessionID string
	entries   []models.ChatMessage
}

func NewMessageLog(sessionID string) *MessageLog {
	return &MessageLog{sessionID: sessionID}
}

// Append 追加一条消息并返回其副本
func (l *MessageLog) Append(msgType, content string, metadata models.MessageMetadata) models.ChatMessage {
	l.mu.Lock()
	defer l.mu.Unlock()

	msg := models.ChatMessage{
		ID:        uuid.NewString(),
		SessionID: l.sessionID,
		Type:      msgType,
		Content:   content,
		Metadata:  metadata,
		CreatedAt: time.Now(),
	}
	l.entries = append(l.entries, msg)
	return msg
}

// UpdateSynthesisProgress 找到最近一条带 IsSynthesis 标记的 progress
// 消息并替换其百分比载荷；找不到则什么也不做
func (l *MessageLog) UpdateSynthesisProgress(stage string, percent float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := len(l.entries) - 1; i >= 0; i-- {
		m := &l.entries[i]
		if m.Type == models.MessageTypeProgress && m.Metadata.Progress != nil && m.Metadata.Progress.IsSynthesis {
			m.Metadata.Progress = &models.ProgressMetadata{
				IsSynthesis: true,
				Stage:       stage,
				Percent:     percent,
			}
			return
		}
	}
}

// Snapshot 返回从 offset 开始的消息副本
func (l *MessageLog) Snapshot(offset int) []models.ChatMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if offset < 0 {
		offset = 0
	}
	if offset >= len(l.entries) {
		return nil
	}
	return append([]models.ChatMessage{}, l.entries[offset:]...)
}

func (l *MessageLog) Len() int {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return len(l.entries)
}
