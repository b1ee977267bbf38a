package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// 消息类型（渲染侧据此决定气泡样式）
const (
	MessageTypeSystem     = "system"
	MessageTypeUser       = "user"
	MessageTypeProgress   = "progress"
	MessageTypeSuccess    = "success"
	MessageTypeError      = "error"
	MessageTypeProcessing = "processing"
)

type ChatMessage struct {
	ID        string          `gorm:"primaryKey;type:varchar(64)" json:"id"`
	SessionID string          `json:"sessionId,omitempty"`
	Type      string          `json:"type"`
	Content   string          `json:"content"`
	Metadata  MessageMetadata `gorm:"type:json" json:"metadata"`
	CreatedAt time.Time       `json:"createdAt"`
}

// MessageMetadata 封闭的元数据结构：每种消息最多携带其中一节，
// 消费方按指针判空而不是在运行时探测任意键值
type MessageMetadata struct {
	Files        *FileListMetadata     `json:"files,omitempty"`
	Progress     *ProgressMetadata     `json:"progress,omitempty"`
	Plan         *PlanMetadata         `json:"plan,omitempty"`
	Confirmation *ConfirmationMetadata `json:"confirmation,omitempty"`
}

// IsZero 没有任何元数据节时为 true
func (m MessageMetadata) IsZero() bool {
	return m.Files == nil && m.Progress == nil && m.Plan == nil && m.Confirmation == nil
}

type FileDetail struct {
	Name string `json:"name"`
	Size string `json:"size"` // "12.3 KB"
}

type FileListMetadata struct {
	Files []FileDetail `json:"files"`
}

// ProgressMetadata 进行中的 progress 消息的百分比载荷。
// IsSynthesis 为标记位：管线用它定位需要原地更新的那条消息
type ProgressMetadata struct {
	IsSynthesis bool    `json:"isSynthesis,omitempty"`
	Stage       string  `json:"stage,omitempty"`
	Percent     float64 `json:"progress"`
}

type PlanMetadata struct {
	AssemblyPlan          *AssemblyPlan `json:"assemblyPlan,omitempty"`
	StoryboardDescription string        `json:"storyboardDescription,omitempty"`
}

type ConfirmationMetadata struct {
	HasScript bool `json:"hasScript"`
	FileCount int  `json:"fileCount"`
}

func (m MessageMetadata) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *MessageMetadata) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, m)
}
