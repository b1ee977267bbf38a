package routers

import (
	"VideoChatPro-server/routers/api"

	"github.com/gin-gonic/gin"
)

func InitRouter(e *api.Env) *gin.Engine {
	r := gin.Default()
	apiGroup := r.Group("/api")
	{
		apiGroup.POST("/projects", e.CreateProject)
		apiGroup.GET("/projects", e.ListProjects)
		apiGroup.GET("/projects/:project_id", e.GetProject)
		apiGroup.POST("/projects/:project_id/media", e.UploadProjectMedia)

		apiGroup.POST("/analyze-script", e.AnalyzeScript)
		apiGroup.POST("/analyze-media", e.AnalyzeMedia)
		apiGroup.POST("/create-assembly-plan", e.CreateAssemblyPlan)

		apiGroup.POST("/sessions", e.CreateSession)
		apiGroup.GET("/sessions/:session_id", e.GetSession)
		apiGroup.POST("/sessions/:session_id/messages", e.PostMessage)
		apiGroup.POST("/sessions/:session_id/uploads", e.PostUploads)
		apiGroup.POST("/sessions/:session_id/synthesize", e.Synthesize)

		apiGroup.GET("/tasks/:task_id", e.GetTaskStatus)
	}
	r.GET("/sessions/:session_id/wss", e.SessionWebSocket)
	r.GET("/tasks/:task_id/wss", e.TaskProgressWebSocket)
	return r
}
