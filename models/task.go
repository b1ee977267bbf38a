package models

import "time"

// 合成任务状态
const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusSuccess    = "finished"
	TaskStatusFailed     = "failed"
)

// SynthesisTask 后台合成管线的任务记录，进度 WebSocket 以它为数据源
type SynthesisTask struct {
	ID         string    `gorm:"primaryKey;type:varchar(64)" json:"id"`
	ProjectID  string    `json:"projectId"`
	SessionID  string    `json:"sessionId"`
	Status     string    `json:"status"`
	Progress   int       `json:"progress"`
	Message    string    `json:"message"`
	Error      string    `json:"error"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

func (SynthesisTask) TableName() string {
	return "synthesis_task"
}

// TaskUpdate 部分更新，nil 字段不变
type TaskUpdate struct {
	Status     *string
	Progress   *int
	Message    *string
	Error      *string
	StartedAt  *time.Time
	FinishedAt *time.Time
}
