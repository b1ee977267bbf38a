package service

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"VideoChatPro-server/config"

	"github.com/hibiken/asynq"
)

const (
	TypeSynthesize = "synthesis:run"
)

type TaskPayload struct {
	TaskID    string `json:"task_id"`
	SessionID string `json:"session_id"`
}

var QueueClient *asynq.Client

// InitQueue 初始化。redis.addr 为空表示不启用后台合成
func InitQueue() {
	if config.AppConfig.Redis.Addr == "" {
		log.Println("Redis 未配置，后台合成任务队列不可用")
		return
	}
	QueueClient = asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.Redis.Addr,
		Password: config.AppConfig.Redis.Password,
	})
}

// EnqueueSynthesis 合成任务入队。管线本身不重试，MaxRetry 置 0
func EnqueueSynthesis(taskID, sessionID string) error {
	if QueueClient == nil {
		return fmt.Errorf("task queue not configured")
	}
	payload, err := json.Marshal(TaskPayload{TaskID: taskID, SessionID: sessionID})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeSynthesize, payload,
		asynq.MaxRetry(0),
		asynq.Timeout(20*time.Minute),
		asynq.Retention(24*time.Hour),
	)

	info, err := QueueClient.Enqueue(task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}

	log.Printf("[Queue] Task Enqueued: ID=%s, TaskID=%s", info.ID, taskID)
	return nil
}
