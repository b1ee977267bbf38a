package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// 项目状态常量（与客户端工作流保持一致）
const (
	ProjectStatusDraft      = "draft"      // 项目已创建，素材收集中
	ProjectStatusProcessing = "processing" // AI 合成进行中
	ProjectStatusCompleted  = "completed"  // 装配方案已生成
	ProjectStatusError      = "error"      // 合成失败
)

// DefaultUserID 占位用户（TODO: 接入真实鉴权后移除）
const DefaultUserID = "default"

// ContentAnalysis 剧本分析结果（Gemini 返回的固定 JSON 结构）
type ContentAnalysis struct {
	ScriptSummary   string   `json:"scriptSummary"`
	MainThemes      []string `json:"mainThemes"`
	SuggestedTiming float64  `json:"suggestedTiming"`
	Mood            string   `json:"mood"` // energetic|calm|professional|dramatic|educational
	VisualElements  []string `json:"visualElements"`
}

// MediaAnalysis 单个媒体文件的分析结果
type MediaAnalysis struct {
	Type           string   `json:"type"` // image | video | audio
	Description    string   `json:"description"`
	SuggestedUsage string   `json:"suggestedUsage"`
	Duration       float64  `json:"duration,omitempty"`
	KeyFrames      []string `json:"keyFrames,omitempty"`
}

type StoryboardScene struct {
	SceneNumber  int      `json:"sceneNumber"`
	Duration     float64  `json:"duration"`
	Description  string   `json:"description"`
	MediaFiles   []string `json:"mediaFiles"`
	AudioOverlay string   `json:"audioOverlay,omitempty"`
	TextOverlay  string   `json:"textOverlay,omitempty"`
	Transitions  string   `json:"transitions"`
}

// AssemblyPlan 逐场景的成片装配方案
type AssemblyPlan struct {
	TotalDuration float64           `json:"totalDuration"`
	Scenes        []StoryboardScene `json:"scenes"`
	AudioTrack    string            `json:"audioTrack"`
	Pacing        string            `json:"pacing"` // slow | medium | fast
	Style         string            `json:"style"`
}

type VideoProject struct {
	ID                    string            `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID                string            `json:"userId"`
	Title                 string            `json:"title"`
	Description           string            `json:"description"`
	Status                string            `json:"status"`
	CurrentStep           int               `json:"currentStep"`
	ScriptContent         string            `json:"scriptContent"`
	AudioFiles            StringList        `gorm:"type:json" json:"audioFiles"`
	MediaFiles            StringList        `gorm:"type:json" json:"mediaFiles"`
	ExtractedFrames       StringList        `gorm:"type:json" json:"extractedFrames"`
	FrameCount            int               `json:"frameCount"`
	ExtractionTime        float64           `json:"extractionTime"`
	ScriptAnalysis        *ContentAnalysis  `gorm:"type:json" json:"scriptAnalysis,omitempty"`
	MediaAnalyses         MediaAnalysisList `gorm:"type:json" json:"mediaAnalyses"`
	AssemblyPlan          *AssemblyPlan     `gorm:"type:json" json:"assemblyPlan,omitempty"`
	StoryboardDescription string            `json:"storyboardDescription"`
	CreatedAt             time.Time         `json:"createdAt"`
	UpdatedAt             time.Time         `json:"updatedAt"`
}

func (VideoProject) TableName() string {
	return "video_project"
}

// ProjectUpdate 部分更新：nil 字段保持原值（浅合并，后写覆盖）
type ProjectUpdate struct {
	Title                 *string
	Description           *string
	Status                *string
	CurrentStep           *int
	ScriptContent         *string
	AudioFiles            *StringList
	MediaFiles            *StringList
	ExtractedFrames       *StringList
	FrameCount            *int
	ExtractionTime        *float64
	ScriptAnalysis        *ContentAnalysis
	MediaAnalyses         *MediaAnalysisList
	AssemblyPlan          *AssemblyPlan
	StoryboardDescription *string
}

// ============================================================================
// JSON 列类型（实现 driver.Valuer / sql.Scanner，供 GORM 存取）
// ============================================================================

type StringList []string

func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		l = StringList{}
	}
	return json.Marshal(l)
}

func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = StringList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, l)
}

type MediaAnalysisList []MediaAnalysis

func (l MediaAnalysisList) Value() (driver.Value, error) {
	if l == nil {
		l = MediaAnalysisList{}
	}
	return json.Marshal(l)
}

func (l *MediaAnalysisList) Scan(value interface{}) error {
	if value == nil {
		*l = MediaAnalysisList{}
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, l)
}

func (a ContentAnalysis) Value() (driver.Value, error) {
	return json.Marshal(a)
}

func (a *ContentAnalysis) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, a)
}

func (p AssemblyPlan) Value() (driver.Value, error) {
	return json.Marshal(p)
}

func (p *AssemblyPlan) Scan(value interface{}) error {
	if value == nil {
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		return errors.New(fmt.Sprint("Failed to unmarshal JSON value:", value))
	}
	return json.Unmarshal(bytes, p)
}
