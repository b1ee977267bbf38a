package models

import (
	"database/sql"
	"errors"
	"log"
	"time"

	"VideoChatPro-server/config"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
)

// MySQLStore 基于 MySQL 的 ProjectStore 实现（storage.driver=mysql 时启用）。
// 与 MemStore 一样不提供跨字段事务，后写覆盖
type MySQLStore struct {
	DB     *sql.DB
	GormDB *gorm.DB
}

func NewMySQLStore() *MySQLStore {
	if config.AppConfig == nil {
		log.Fatal("config.AppConfig is nil, call config.InitConfig first")
	}
	dsn := config.AppConfig.MySQL.DSN
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("打开数据库失败: %v", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		log.Fatalf("连接数据库失败: %v", err)
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{
		Conn: db,
	}), &gorm.Config{})
	if err != nil {
		log.Fatalf("GORM 初始化失败: %v", err)
	}

	if err := gormDB.AutoMigrate(&VideoProject{}, &SynthesisTask{}); err != nil {
		log.Printf("自动建表失败（跳过）: %v", err)
	}

	log.Println("数据库连接成功 (Native SQL + GORM)")
	return &MySQLStore{DB: db, GormDB: gormDB}
}

func (s *MySQLStore) CreateProject(p *VideoProject) error {
	now := time.Now()
	if p.ID == "" {
		p.ID = newID()
	}
	if p.Status == "" {
		p.Status = ProjectStatusDraft
	}
	if p.CurrentStep == 0 {
		p.CurrentStep = 1
	}
	if p.AudioFiles == nil {
		p.AudioFiles = StringList{}
	}
	if p.MediaFiles == nil {
		p.MediaFiles = StringList{}
	}
	if p.ExtractedFrames == nil {
		p.ExtractedFrames = StringList{}
	}
	if p.MediaAnalyses == nil {
		p.MediaAnalyses = MediaAnalysisList{}
	}
	p.CreatedAt = now
	p.UpdatedAt = now
	return s.GormDB.Create(p).Error
}

func (s *MySQLStore) GetProject(id string) (*VideoProject, error) {
	var p VideoProject
	if err := s.GormDB.First(&p, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProject 动态构建更新字段，只写请求中出现的列
func (s *MySQLStore) UpdateProject(id string, u ProjectUpdate) (*VideoProject, error) {
	sets := map[string]interface{}{}
	if u.Title != nil {
		sets["title"] = *u.Title
	}
	if u.Description != nil {
		sets["description"] = *u.Description
	}
	if u.Status != nil {
		sets["status"] = *u.Status
	}
	if u.CurrentStep != nil {
		sets["current_step"] = *u.CurrentStep
	}
	if u.ScriptContent != nil {
		sets["script_content"] = *u.ScriptContent
	}
	if u.AudioFiles != nil {
		sets["audio_files"] = *u.AudioFiles
	}
	if u.MediaFiles != nil {
		sets["media_files"] = *u.MediaFiles
	}
	if u.ExtractedFrames != nil {
		sets["extracted_frames"] = *u.ExtractedFrames
	}
	if u.FrameCount != nil {
		sets["frame_count"] = *u.FrameCount
	}
	if u.ExtractionTime != nil {
		sets["extraction_time"] = *u.ExtractionTime
	}
	if u.ScriptAnalysis != nil {
		sets["script_analysis"] = *u.ScriptAnalysis
	}
	if u.MediaAnalyses != nil {
		sets["media_analyses"] = *u.MediaAnalyses
	}
	if u.AssemblyPlan != nil {
		sets["assembly_plan"] = *u.AssemblyPlan
	}
	if u.StoryboardDescription != nil {
		sets["storyboard_description"] = *u.StoryboardDescription
	}
	sets["updated_at"] = time.Now()

	res := s.GormDB.Model(&VideoProject{}).Where("id = ?", id).Updates(sets)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Updates 命中 0 行时确认目标是否存在
		if _, err := s.GetProject(id); err != nil {
			return nil, err
		}
	}
	return s.GetProject(id)
}

func (s *MySQLStore) ListProjectsByUser(userID string) ([]*VideoProject, error) {
	var res []*VideoProject
	if err := s.GormDB.Where("user_id = ?", userID).Order("created_at ASC").Find(&res).Error; err != nil {
		return nil, err
	}
	return res, nil
}

func (s *MySQLStore) CreateTask(t *SynthesisTask) error {
	now := time.Now()
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	return s.GormDB.Create(t).Error
}

func (s *MySQLStore) GetTask(id string) (*SynthesisTask, error) {
	var t SynthesisTask
	if err := s.GormDB.First(&t, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (s *MySQLStore) UpdateTask(id string, u TaskUpdate) (*SynthesisTask, error) {
	sets := map[string]interface{}{}
	if u.Status != nil {
		sets["status"] = *u.Status
	}
	if u.Progress != nil {
		sets["progress"] = *u.Progress
	}
	if u.Message != nil {
		sets["message"] = *u.Message
	}
	if u.Error != nil {
		sets["error"] = *u.Error
	}
	if u.StartedAt != nil {
		sets["started_at"] = *u.StartedAt
	}
	if u.FinishedAt != nil {
		sets["finished_at"] = *u.FinishedAt
	}
	sets["updated_at"] = time.Now()

	if err := s.GormDB.Model(&SynthesisTask{}).Where("id = ?", id).Updates(sets).Error; err != nil {
		return nil, err
	}
	return s.GetTask(id)
}
