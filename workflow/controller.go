package workflow

import (
	"context"
	"fmt"
	"strings"

	"VideoChatPro-server/models"
)

// Synthesizer AI 合成客户端的抽象，测试注入假实现
type Synthesizer interface {
	AnalyzeScript(ctx context.Context, scriptContent string) (*models.ContentAnalysis, error)
	AnalyzeMedia(ctx context.Context, mediaPath string, mediaType string) (*models.MediaAnalysis, error)
	CreateAssemblyPlan(ctx context.Context, scriptAnalysis *models.ContentAnalysis, mediaAnalyses []models.MediaAnalysis) (*models.AssemblyPlan, error)
	GenerateStoryboardDescription(ctx context.Context, plan *models.AssemblyPlan) (string, error)
}

// 固定的对话文案
const (
	welcomeText = "👋 Welcome to VideoChat Pro! I'm your AI video editing assistant. Let's create something amazing together!\n\nTo get started, please upload your script and any audio files you'd like to include."

	helpText = "I'm here to help! You can upload files, ask questions about the video editing process, or request specific adjustments to your project."

	fallbackText = "I understand you want to work on your video project. Please upload the necessary files for the current step, and I'll guide you through the process!"

	scriptSavedText  = "Great! I've captured your script content."
	scriptFollowText = "You can keep refining your script, or upload your script and audio files when you're ready to move on."

	filesReceivedText = "Great! I've received your files:"
	step1AdvanceText  = "Perfect! Now let's collect your media files. Please upload any videos, images, or additional audio you want to include in your project."
	step2MoreText     = "Files added! Upload more media, or type 'next' when you're ready to continue."

	confirmAckText     = "Perfect! Starting AI synthesis of your materials..."
	processingText     = "🤖 AI is synthesizing your materials...\n\nAnalyzing script, matching audio, and organizing visual elements"
	cancelText         = "No problem — keep uploading. Type 'next' whenever you're ready."
	alreadyRunningText = "Synthesis is already running. Hang tight, I'll post the results here."
)

// Controller 六步工作流状态机。所有变迁都以向消息日志追加内容为副作用
type Controller struct {
	Store models.ProjectStore
	AI    Synthesizer
}

func NewController(store models.ProjectStore, ai Synthesizer) *Controller {
	return &Controller{Store: store, AI: ai}
}

// StartSession 创建带欢迎语的新会话
func (c *Controller) StartSession(m *Manager) *Session {
	s := m.Create()
	s.Log.Append(models.MessageTypeSystem, welcomeText, models.MessageMetadata{})
	return s
}

// HandleText 处理一条用户文本。关键字按固定优先级求值：
// help → status → next/continue → yes/proceed → no/cancel → 兜底，
// 命中多个关键字的消息由此确定性归类
func (c *Controller) HandleText(ctx context.Context, s *Session, content string) []models.ChatMessage {
	before := s.Log.Len()
	s.Log.Append(models.MessageTypeUser, content, models.MessageMetadata{})

	lower := strings.ToLower(content)

	switch {
	case strings.Contains(lower, "help"):
		s.Log.Append(models.MessageTypeSystem, helpText, models.MessageMetadata{})

	case strings.Contains(lower, "status"):
		s.Log.Append(models.MessageTypeSystem, c.statusText(s), models.MessageMetadata{})

	case strings.Contains(lower, "next") || strings.Contains(lower, "continue"):
		c.handleAdvance(s)

	case strings.Contains(lower, "yes") || strings.Contains(lower, "proceed"):
		if c.beginConfirmed(s) {
			c.runPipeline(ctx, s, nil)
		}

	case strings.Contains(lower, "no") || strings.Contains(lower, "cancel"):
		s.mu.Lock()
		if s.state.PendingConfirmation {
			s.state.PendingConfirmation = false
			s.mu.Unlock()
			s.Log.Append(models.MessageTypeSystem, cancelText, models.MessageMetadata{})
		} else {
			s.mu.Unlock()
			s.Log.Append(models.MessageTypeSystem, fallbackText, models.MessageMetadata{})
		}

	default:
		s.mu.Lock()
		if s.state.CurrentStep == 1 {
			s.state.ScriptText = content
			s.mu.Unlock()
			s.Log.Append(models.MessageTypeSuccess, scriptSavedText, models.MessageMetadata{})
			s.Log.Append(models.MessageTypeSystem, scriptFollowText, models.MessageMetadata{})
		} else {
			s.mu.Unlock()
			s.Log.Append(models.MessageTypeSystem, fallbackText, models.MessageMetadata{})
		}
	}

	return s.Log.Snapshot(before)
}

// HandleUpload 处理一批上传的文件描述
func (c *Controller) HandleUpload(ctx context.Context, s *Session, files []UploadedFile) []models.ChatMessage {
	before := s.Log.Len()

	details := make([]models.FileDetail, 0, len(files))
	for _, f := range files {
		details = append(details, models.FileDetail{
			Name: f.Name,
			Size: fmt.Sprintf("%.1f KB", float64(f.SizeBytes)/1024),
		})
	}

	s.mu.Lock()
	s.collectFiles(files)
	step := s.state.CurrentStep
	s.mu.Unlock()

	s.Log.Append(models.MessageTypeSuccess, filesReceivedText, models.MessageMetadata{
		Files: &models.FileListMetadata{Files: details},
	})

	switch step {
	case 1:
		// 展示延迟在服务端实现里折叠为同步追加，顺序不变
		s.Log.Append(models.MessageTypeSystem, step1AdvanceText, models.MessageMetadata{})
		s.mu.Lock()
		s.state.CurrentStep = 2
		s.mu.Unlock()
	case 2:
		s.Log.Append(models.MessageTypeSystem, step2MoreText, models.MessageMetadata{})
	}

	return s.Log.Snapshot(before)
}

// handleAdvance 处理 next/continue：步骤 1 推进一次，步骤 2 进入确认，
// 其余步骤无效果（兜底回复）
func (c *Controller) handleAdvance(s *Session) {
	s.mu.Lock()
	switch s.state.CurrentStep {
	case 1:
		s.state.CurrentStep = 2
		s.mu.Unlock()
		s.Log.Append(models.MessageTypeSystem, step1AdvanceText, models.MessageMetadata{})
	case 2:
		s.state.PendingConfirmation = true
		hasScript := s.state.ScriptText != ""
		fileCount := len(s.state.UploadedFiles)
		s.mu.Unlock()
		s.Log.Append(models.MessageTypeSystem, confirmationText(hasScript, fileCount), models.MessageMetadata{
			Confirmation: &models.ConfirmationMetadata{HasScript: hasScript, FileCount: fileCount},
		})
	default:
		s.mu.Unlock()
		s.Log.Append(models.MessageTypeSystem, fallbackText, models.MessageMetadata{})
	}
}

// beginConfirmed 处理确认中的 yes：清标记、进入步骤 3 并宣告合成开始。
// 返回 true 表示应当启动管线
func (c *Controller) beginConfirmed(s *Session) bool {
	s.mu.Lock()
	if !s.state.PendingConfirmation {
		s.mu.Unlock()
		s.Log.Append(models.MessageTypeSystem, fallbackText, models.MessageMetadata{})
		return false
	}
	s.state.PendingConfirmation = false
	s.state.CurrentStep = 3
	s.mu.Unlock()

	s.Log.Append(models.MessageTypeSystem, confirmAckText, models.MessageMetadata{})
	s.Log.Append(models.MessageTypeProcessing, processingText, models.MessageMetadata{})
	return true
}

func confirmationText(hasScript bool, fileCount int) string {
	scriptPart := "no script yet"
	if hasScript {
		scriptPart = "a script"
	}
	return fmt.Sprintf("⚠️ Ready to start AI synthesis? You've provided %s and %d media file(s). Type 'yes' to proceed or 'no' to keep uploading.", scriptPart, fileCount)
}

func (c *Controller) statusText(s *Session) string {
	st := s.State()
	var tail string
	switch st.CurrentStep {
	case 1:
		tail = "Please upload your script and audio files to continue."
	case 2:
		tail = "Upload your media files (videos, images, audio), then type 'next' when you're done."
	case 3:
		tail = "AI synthesis is in progress."
	case 5:
		tail = "Your storyboard is ready for preview."
	default:
		tail = "Processing your content..."
	}
	return fmt.Sprintf("Your project is currently at step %d of 6. %s", st.CurrentStep, tail)
}
