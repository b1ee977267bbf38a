package api

import (
	"errors"
	"log"
	"net/http"

	"VideoChatPro-server/models"

	"github.com/gin-gonic/gin"
)

// 剧本分析：调用 AI 并把结果合并进项目
func (e *Env) AnalyzeScript(c *gin.Context) {
	var req struct {
		ProjectID     string `json:"projectId"`
		ScriptContent string `json:"scriptContent"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.ProjectID == "" || req.ScriptContent == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing projectId or scriptContent"})
		return
	}

	analysis, err := e.AI.AnalyzeScript(c.Request.Context(), req.ScriptContent)
	if err != nil {
		log.Printf("Script analysis failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to analyze script"})
		return
	}

	// currentStep 只升不降
	step := 2
	if project, err := e.Store.GetProject(req.ProjectID); err == nil && project.CurrentStep > step {
		step = project.CurrentStep
	}
	if _, err := e.Store.UpdateProject(req.ProjectID, models.ProjectUpdate{
		ScriptAnalysis: analysis,
		CurrentStep:    &step,
	}); err != nil && !errors.Is(err, models.ErrNotFound) {
		log.Printf("更新项目分析结果失败: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "analysis": analysis})
}

// 媒体分析：逐文件处理，单文件失败跳过不中止整批
func (e *Env) AnalyzeMedia(c *gin.Context) {
	var req struct {
		ProjectID  string   `json:"projectId"`
		MediaFiles []string `json:"mediaFiles"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.ProjectID == "" || len(req.MediaFiles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing projectId or mediaFiles"})
		return
	}

	analyses := models.MediaAnalysisList{}
	for _, file := range req.MediaFiles {
		mediaType := models.MediaTypeFromFilename(file)
		analysis, err := e.AI.AnalyzeMedia(c.Request.Context(), file, mediaType)
		if err != nil {
			log.Printf("Failed to analyze %s: %v", file, err)
			continue
		}
		analyses = append(analyses, *analysis)
	}

	step := 3
	if project, err := e.Store.GetProject(req.ProjectID); err == nil && project.CurrentStep > step {
		step = project.CurrentStep
	}
	if _, err := e.Store.UpdateProject(req.ProjectID, models.ProjectUpdate{
		MediaAnalyses: &analyses,
		CurrentStep:   &step,
	}); err != nil && !errors.Is(err, models.ErrNotFound) {
		log.Printf("更新媒体分析结果失败: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "analyses": analyses})
}

// 生成装配方案：要求剧本与媒体分析均已就绪
func (e *Env) CreateAssemblyPlan(c *gin.Context) {
	var req struct {
		ProjectID string `json:"projectId"`
	}
	_ = c.ShouldBindJSON(&req)

	if req.ProjectID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing projectId"})
		return
	}

	project, err := e.Store.GetProject(req.ProjectID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		log.Printf("Failed to get project: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project"})
		return
	}

	if project.ScriptAnalysis == nil || len(project.MediaAnalyses) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Script and media analysis required",
			"details": gin.H{
				"hasScript":        project.ScriptAnalysis != nil,
				"hasMediaAnalysis": len(project.MediaAnalyses) > 0,
				"mediaCount":       len(project.MediaAnalyses),
			},
		})
		return
	}

	plan, err := e.AI.CreateAssemblyPlan(c.Request.Context(), project.ScriptAnalysis, project.MediaAnalyses)
	if err != nil {
		log.Printf("Assembly plan creation failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create assembly plan"})
		return
	}
	storyboard, err := e.AI.GenerateStoryboardDescription(c.Request.Context(), plan)
	if err != nil {
		log.Printf("Storyboard description failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create assembly plan"})
		return
	}

	step := 4
	if project.CurrentStep > step {
		step = project.CurrentStep
	}
	if _, err := e.Store.UpdateProject(req.ProjectID, models.ProjectUpdate{
		AssemblyPlan:          plan,
		StoryboardDescription: &storyboard,
		CurrentStep:           &step,
	}); err != nil {
		log.Printf("更新装配方案失败: %v", err)
	}

	c.JSON(http.StatusOK, gin.H{
		"success":               true,
		"assemblyPlan":          plan,
		"storyboardDescription": storyboard,
	})
}
