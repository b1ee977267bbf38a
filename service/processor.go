package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"VideoChatPro-server/config"
	"VideoChatPro-server/models"
	"VideoChatPro-server/workflow"

	"github.com/hibiken/asynq"
)

// Processor 消费后台合成任务：取出会话，跑同一条合成管线，
// 把阶段进度回写到任务记录，进度 WebSocket 从任务记录取数
type Processor struct {
	Store      models.ProjectStore
	Sessions   *workflow.Manager
	Controller *workflow.Controller
}

func NewProcessor(store models.ProjectStore, sessions *workflow.Manager, controller *workflow.Controller) *Processor {
	return &Processor{
		Store:      store,
		Sessions:   sessions,
		Controller: controller,
	}
}

// StartProcessor 启动任务消费者。redis.addr 为空时直接跳过
func (p *Processor) StartProcessor(concurrency int) {
	if config.AppConfig.Redis.Addr == "" {
		return
	}
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     config.AppConfig.Redis.Addr,
			Password: config.AppConfig.Redis.Password,
		},
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSynthesize, p.HandleSynthesisTask)

	log.Printf("Starting Task Processor with concurrency %d...", concurrency)
	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatalf("could not run server: %v", err)
		}
	}()
}

// HandleSynthesisTask 核心处理逻辑
func (p *Processor) HandleSynthesisTask(ctx context.Context, t *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	task, err := p.Store.GetTask(payload.TaskID)
	if err != nil {
		return fmt.Errorf("task not found: %v", err)
	}
	session, err := p.Sessions.Get(payload.SessionID)
	if err != nil {
		p.markTaskFailed(task.ID, fmt.Sprintf("session not found: %v", err))
		return nil
	}

	log.Printf("Processing Synthesis Task: %s | Session: %s", task.ID, session.ID)

	now := time.Now()
	processing := models.TaskStatusProcessing
	if _, err := p.Store.UpdateTask(task.ID, models.TaskUpdate{
		Status:    &processing,
		StartedAt: &now,
	}); err != nil {
		log.Printf("标记任务 processing 失败: %v", err)
	}

	onStage := func(stage string, percent int) {
		msg := "synthesis stage: " + stage
		if _, err := p.Store.UpdateTask(task.ID, models.TaskUpdate{
			Progress: &percent,
			Message:  &msg,
		}); err != nil {
			log.Printf("回写任务进度失败: %v", err)
		}
	}

	if err := p.Controller.RunPipeline(ctx, session, onStage); err != nil {
		// 业务失败已在消息日志中呈现，任务不重试
		p.markTaskFailed(task.ID, err.Error())
		return nil
	}

	finished := models.TaskStatusSuccess
	done := time.Now()
	full := 100
	msg := "synthesis complete"
	if _, err := p.Store.UpdateTask(task.ID, models.TaskUpdate{
		Status:     &finished,
		Progress:   &full,
		Message:    &msg,
		FinishedAt: &done,
	}); err != nil {
		log.Printf("标记任务完成失败: %v", err)
	}
	log.Printf("Task %s completed successfully", task.ID)
	return nil
}

func (p *Processor) markTaskFailed(taskID, errMsg string) {
	failed := models.TaskStatusFailed
	done := time.Now()
	if _, err := p.Store.UpdateTask(taskID, models.TaskUpdate{
		Status:     &failed,
		Error:      &errMsg,
		FinishedAt: &done,
	}); err != nil {
		log.Printf("标记任务失败失败: %v", err)
	}
}
