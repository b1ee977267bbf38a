package api

import (
	"errors"
	"log"
	"net/http"

	"VideoChatPro-server/models"

	"github.com/gin-gonic/gin"
)

// 创建项目
func (e *Env) CreateProject(c *gin.Context) {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Title == "" {
		req.Title = "New Video Project"
	}

	project := &models.VideoProject{
		UserID:      models.DefaultUserID, // TODO: implement proper auth
		Title:       req.Title,
		Description: req.Description,
		Status:      models.ProjectStatusDraft,
		CurrentStep: 1,
	}
	if err := e.Store.CreateProject(project); err != nil {
		log.Printf("Failed to create project: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create project"})
		return
	}

	c.JSON(http.StatusCreated, project)
}

// 获取项目详情
func (e *Env) GetProject(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := e.Store.GetProject(projectID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		log.Printf("Failed to get project: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project"})
		return
	}

	c.JSON(http.StatusOK, project)
}

// 按用户列出项目
func (e *Env) ListProjects(c *gin.Context) {
	userID := c.Query("userId")
	if userID == "" {
		userID = models.DefaultUserID
	}

	projects, err := e.Store.ListProjectsByUser(userID)
	if err != nil {
		log.Printf("Failed to list projects: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list projects"})
		return
	}
	if projects == nil {
		projects = []*models.VideoProject{}
	}

	c.JSON(http.StatusOK, gin.H{
		"projects": projects,
		"total":    len(projects),
	})
}
