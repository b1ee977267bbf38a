package api

import (
	"errors"
	"fmt"
	"log"
	"net/http"

	"VideoChatPro-server/models"
	"VideoChatPro-server/service"

	"github.com/gin-gonic/gin"
)

// 项目媒体上传：文件字节进对象存储，文件名记录到项目
func (e *Env) UploadProjectMedia(c *gin.Context) {
	projectID := c.Param("project_id")

	project, err := e.Store.GetProject(projectID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Project not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get project"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read file"})
		return
	}
	defer f.Close()

	objectName := fmt.Sprintf("projects/%s/%s", projectID, fileHeader.Filename)
	url, err := service.UploadMedia(f, objectName, fileHeader.Size)
	if err != nil {
		log.Printf("上传媒体文件失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to upload media"})
		return
	}

	// 按类型归档文件名：音频进 audioFiles，其余进 mediaFiles
	update := models.ProjectUpdate{}
	if models.MediaTypeFromFilename(fileHeader.Filename) == "audio" {
		list := append(models.StringList{}, project.AudioFiles...)
		list = append(list, fileHeader.Filename)
		update.AudioFiles = &list
	} else {
		list := append(models.StringList{}, project.MediaFiles...)
		list = append(list, fileHeader.Filename)
		update.MediaFiles = &list
	}

	updated, err := e.Store.UpdateProject(projectID, update)
	if err != nil {
		log.Printf("更新项目媒体列表失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update project"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"url":     url,
		"project": updated,
	})
}
