package workflow

import (
	"context"
	"fmt"
	"log"

	"VideoChatPro-server/models"
)

// StageFunc 每个阶段启动时回调（后台任务用它回写进度）
type StageFunc func(stage string, percent int)

// RunPipeline 对一个会话执行一次完整的合成管线（可由后台任务调用）。
// 与 HandleText 的 yes 路径共用同一实现与重入保护
func (c *Controller) RunPipeline(ctx context.Context, s *Session, onStage StageFunc) error {
	return c.runPipeline(ctx, s, onStage)
}

// runPipeline 严格顺序、不重试的合成流程：
// 建项目 → 剧本分析（如有）→ 媒体分析（如有）→ 装配方案。
// 任一阶段失败即中止余下阶段，只追加一条错误消息，CurrentStep 不回退。
// 重复执行会覆盖之前的分析结果（存储为部分合并，后写生效）
func (c *Controller) runPipeline(ctx context.Context, s *Session, onStage StageFunc) error {
	s.mu.Lock()
	if s.state.Pipeline == PipelineRunning {
		s.mu.Unlock()
		s.Log.Append(models.MessageTypeProcessing, alreadyRunningText, models.MessageMetadata{})
		return nil
	}
	s.state.Pipeline = PipelineRunning
	projectID := s.state.ProjectID
	script := s.state.ScriptText
	files := append([]UploadedFile{}, s.state.UploadedFiles...)
	s.mu.Unlock()

	stage := func(name string, percent int) {
		s.Log.UpdateSynthesisProgress(name, float64(percent))
		if onStage != nil {
			onStage(name, percent)
		}
	}

	s.Log.Append(models.MessageTypeProgress, "Synthesizing...", models.MessageMetadata{
		Progress: &models.ProgressMetadata{IsSynthesis: true, Stage: "project", Percent: 0},
	})

	// 1) 确保项目存在；创建失败直接中止并回到 idle
	if projectID == "" {
		stage("project", 10)
		project := &models.VideoProject{
			UserID:        models.DefaultUserID,
			Title:         "New Video Project",
			Description:   "",
			Status:        models.ProjectStatusDraft,
			CurrentStep:   1,
			ScriptContent: script,
		}
		if err := c.Store.CreateProject(project); err != nil {
			log.Printf("创建项目失败: %v", err)
			s.Log.Append(models.MessageTypeError, "Failed to create your project. Please try again.", models.MessageMetadata{})
			s.setPipeline(PipelineIdle)
			return err
		}
		projectID = project.ID
		s.mu.Lock()
		s.state.ProjectID = projectID
		s.mu.Unlock()
	}

	status := models.ProjectStatusProcessing
	if _, err := c.Store.UpdateProject(projectID, models.ProjectUpdate{Status: &status}); err != nil {
		log.Printf("更新项目状态失败: %v", err)
	}

	// 2) 剧本分析
	if script != "" {
		stage("script", 30)
		analysis, err := c.AI.AnalyzeScript(ctx, script)
		if err != nil {
			return c.failPipeline(s, projectID, fmt.Errorf("script analysis failed: %w", err))
		}
		if err := c.mergeProject(projectID, models.ProjectUpdate{ScriptAnalysis: analysis}, 2); err != nil {
			return c.failPipeline(s, projectID, err)
		}
		s.Log.Append(models.MessageTypeSuccess, "📝 Script analysis complete!", models.MessageMetadata{})
	}

	// 3) 媒体分析：单文件失败跳过，不中止整批
	if len(files) > 0 {
		stage("media", 60)
		analyses := models.MediaAnalysisList{}
		for _, f := range files {
			mediaType := models.MediaTypeFromFilename(f.Name)
			analysis, err := c.AI.AnalyzeMedia(ctx, f.Name, mediaType)
			if err != nil {
				log.Printf("Failed to analyze %s: %v", f.Name, err)
				continue
			}
			analyses = append(analyses, *analysis)
		}
		if err := c.mergeProject(projectID, models.ProjectUpdate{MediaAnalyses: &analyses}, 3); err != nil {
			return c.failPipeline(s, projectID, err)
		}
		s.Log.Append(models.MessageTypeSuccess,
			fmt.Sprintf("🎞 Media analysis complete! Analyzed %d file(s).", len(analyses)),
			models.MessageMetadata{})
	}

	// 4) 装配方案：前置条件与 HTTP 接口一致
	stage("assembly", 85)
	project, err := c.Store.GetProject(projectID)
	if err != nil {
		return c.failPipeline(s, projectID, fmt.Errorf("project lookup failed: %w", err))
	}
	if project.ScriptAnalysis == nil || len(project.MediaAnalyses) == 0 {
		return c.failPipeline(s, projectID, fmt.Errorf("script and media analysis required"))
	}

	plan, err := c.AI.CreateAssemblyPlan(ctx, project.ScriptAnalysis, project.MediaAnalyses)
	if err != nil {
		return c.failPipeline(s, projectID, err)
	}
	storyboard, err := c.AI.GenerateStoryboardDescription(ctx, plan)
	if err != nil {
		return c.failPipeline(s, projectID, err)
	}

	completed := models.ProjectStatusCompleted
	if err := c.mergeProject(projectID, models.ProjectUpdate{
		AssemblyPlan:          plan,
		StoryboardDescription: &storyboard,
		Status:                &completed,
	}, 4); err != nil {
		return c.failPipeline(s, projectID, err)
	}

	stage("done", 100)
	s.Log.Append(models.MessageTypeSuccess,
		"✨ Your assembly plan is ready! Here's a preview of your storyboard:",
		models.MessageMetadata{
			Plan: &models.PlanMetadata{AssemblyPlan: plan, StoryboardDescription: storyboard},
		})

	s.mu.Lock()
	s.state.CurrentStep = 5
	s.state.Pipeline = PipelineIdle
	s.mu.Unlock()
	return nil
}

// mergeProject 按分析步骤合并结果并抬升项目的 currentStep（只升不降）
func (c *Controller) mergeProject(projectID string, u models.ProjectUpdate, minStep int) error {
	project, err := c.Store.GetProject(projectID)
	if err != nil {
		return err
	}
	step := project.CurrentStep
	if minStep > step {
		step = minStep
	}
	u.CurrentStep = &step
	_, err = c.Store.UpdateProject(projectID, u)
	return err
}

// failPipeline 失败收尾：一条错误消息，CurrentStep 保持不变
func (c *Controller) failPipeline(s *Session, projectID string, err error) error {
	log.Printf("合成管线失败: %v", err)
	s.Log.Append(models.MessageTypeError,
		fmt.Sprintf("❌ Synthesis failed: %v. Please try again.", err),
		models.MessageMetadata{})
	if projectID != "" {
		errStatus := models.ProjectStatusError
		if _, uerr := c.Store.UpdateProject(projectID, models.ProjectUpdate{Status: &errStatus}); uerr != nil {
			log.Printf("更新项目状态失败: %v", uerr)
		}
	}
	s.setPipeline(PipelineFailed)
	return err
}

func (s *Session) setPipeline(status PipelineStatus) {
	s.mu.Lock()
	s.state.Pipeline = status
	s.mu.Unlock()
}
