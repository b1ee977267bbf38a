package api

import (
	"VideoChatPro-server/models"
	"VideoChatPro-server/workflow"
)

// Env 注入到各 handler 的依赖（存储、AI 客户端、会话注册表）
type Env struct {
	Store      models.ProjectStore
	AI         workflow.Synthesizer
	Sessions   *workflow.Manager
	Controller *workflow.Controller
}

func NewEnv(store models.ProjectStore, ai workflow.Synthesizer, sessions *workflow.Manager) *Env {
	return &Env{
		Store:      store,
		AI:         ai,
		Sessions:   sessions,
		Controller: workflow.NewController(store, ai),
	}
}
