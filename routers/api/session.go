package api

import (
	"log"
	"net/http"
	"time"

	"VideoChatPro-server/models"
	"VideoChatPro-server/service"
	"VideoChatPro-server/workflow"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// 创建会话：立即写入欢迎消息
func (e *Env) CreateSession(c *gin.Context) {
	s := e.Controller.StartSession(e.Sessions)
	c.JSON(http.StatusCreated, gin.H{
		"sessionId": s.ID,
		"state":     s.State(),
		"messages":  s.Log.Snapshot(0),
	})
}

// 查询会话状态与完整消息日志
func (e *Env) GetSession(c *gin.Context) {
	s, err := e.Sessions.Get(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"sessionId": s.ID,
		"state":     s.State(),
		"messages":  s.Log.Snapshot(0),
	})
}

// 提交用户文本，返回本次追加的消息
func (e *Env) PostMessage(c *gin.Context) {
	s, err := e.Sessions.Get(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req struct {
		Content string `json:"content"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Content == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing content"})
		return
	}

	messages := e.Controller.HandleText(c.Request.Context(), s, req.Content)
	c.JSON(http.StatusOK, gin.H{
		"state":    s.State(),
		"messages": messages,
	})
}

// 提交一批文件描述（文件字节走媒体上传接口）
func (e *Env) PostUploads(c *gin.Context) {
	s, err := e.Sessions.Get(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	var req struct {
		Files []struct {
			Name string `json:"name"`
			Size int64  `json:"size"`
		} `json:"files"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || len(req.Files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing files"})
		return
	}

	files := make([]workflow.UploadedFile, 0, len(req.Files))
	for _, f := range req.Files {
		files = append(files, workflow.UploadedFile{Name: f.Name, SizeBytes: f.Size})
	}

	messages := e.Controller.HandleUpload(c.Request.Context(), s, files)
	c.JSON(http.StatusOK, gin.H{
		"state":    s.State(),
		"messages": messages,
	})
}

// 后台合成：创建任务记录并投递到队列，进度经任务接口跟踪
func (e *Env) Synthesize(c *gin.Context) {
	s, err := e.Sessions.Get(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	task := &models.SynthesisTask{
		SessionID: s.ID,
		ProjectID: s.State().ProjectID,
		Status:    models.TaskStatusPending,
		Message:   "queued",
	}
	if err := e.Store.CreateTask(task); err != nil {
		log.Printf("创建合成任务失败: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create task"})
		return
	}

	if err := service.EnqueueSynthesis(task.ID, s.ID); err != nil {
		log.Printf("任务入队失败: %v", err)
		_, _ = e.Store.UpdateTask(task.ID, models.TaskUpdate{
			Status: strPtr(models.TaskStatusFailed),
			Error:  strPtr(err.Error()),
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue task"})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"taskId": task.ID, "status": task.Status})
}

// 会话消息 WebSocket：轮询消息日志并推送增量
func (e *Env) SessionWebSocket(c *gin.Context) {
	s, err := e.Sessions.Get(c.Param("session_id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "WebSocket升级失败"})
		return
	}
	defer conn.Close()

	// 先推送已有消息，再每秒轮询增量
	offset := 0
	for _, msg := range s.Log.Snapshot(0) {
		if err := conn.WriteJSON(msg); err != nil {
			return
		}
		offset++
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for range ticker.C {
		if s.Log.Len() == offset {
			continue
		}
		for _, msg := range s.Log.Snapshot(offset) {
			if err := conn.WriteJSON(msg); err != nil {
				return
			}
			offset++
		}
	}
}

func strPtr(s string) *string { return &s }
