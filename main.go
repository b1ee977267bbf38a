package main

import (
	"fmt"
	"log"

	"VideoChatPro-server/config"
	"VideoChatPro-server/models"
	"VideoChatPro-server/routers"
	"VideoChatPro-server/routers/api"
	"VideoChatPro-server/service"
	"VideoChatPro-server/workflow"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("未找到 .env 文件，使用进程环境变量")
	}

	config.InitConfig()
	fmt.Println("Server starting on port", config.AppConfig.Server.Port)

	var store models.ProjectStore
	switch config.AppConfig.Storage.Driver {
	case "mysql":
		store = models.NewMySQLStore()
		fmt.Println("Database initialized")
	default:
		store = models.NewMemStore()
		fmt.Println("In-memory store initialized")
	}

	service.InitQueue()
	fmt.Println("Queue initialized")

	service.InitMinIO()
	fmt.Println("MinIO initialized")

	sessions := workflow.NewManager()
	ai := service.NewGeminiClient()
	env := api.NewEnv(store, ai, sessions)

	processor := service.NewProcessor(store, sessions, env.Controller)
	processor.StartProcessor(config.AppConfig.Queue.Concurrency)

	r := routers.InitRouter(env)
	r.Run(config.AppConfig.Server.Port)
}
