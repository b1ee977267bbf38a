package models

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound 查询的 id 不存在
var ErrNotFound = errors.New("not found")

func newID() string {
	return uuid.NewString()
}

// ProjectStore 项目与任务的存取接口。由 main 注入具体实现：
// 默认 MemStore（进程内，不承诺持久化），可切换 MySQLStore
type ProjectStore interface {
	CreateProject(p *VideoProject) error
	GetProject(id string) (*VideoProject, error)
	UpdateProject(id string, updates ProjectUpdate) (*VideoProject, error)
	ListProjectsByUser(userID string) ([]*VideoProject, error)

	CreateTask(t *SynthesisTask) error
	GetTask(id string) (*SynthesisTask, error)
	UpdateTask(id string, updates TaskUpdate) (*SynthesisTask, error)
}

// ============================================================================
// MemStore：map + RWMutex，最后写入生效，无跨字段事务
// ============================================================================

type MemStore struct {
	mu       sync.RWMutex
	projects map[string]*VideoProject
	tasks    map[string]*SynthesisTask
}

func NewMemStore() *MemStore {
	return &MemStore{
		projects: make(map[string]*VideoProject),
		tasks:    make(map[string]*SynthesisTask),
	}
}

func (s *MemStore) CreateProject(p *VideoProject) error {
	s.mu.Lock()
	defer s.mu.Unlock()

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

	s.projects[p.ID] = cloneProject(p)
	return nil
}

func (s *MemStore) GetProject(id string) (*VideoProject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneProject(p), nil
}

func (s *MemStore) UpdateProject(id string, updates ProjectUpdate) (*VideoProject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.projects[id]
	if !ok {
		return nil, ErrNotFound
	}
	applyProjectUpdate(p, updates)
	p.UpdatedAt = time.Now()
	return cloneProject(p), nil
}

func (s *MemStore) ListProjectsByUser(userID string) ([]*VideoProject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var res []*VideoProject
	for _, p := range s.projects {
		if p.UserID == userID {
			res = append(res, cloneProject(p))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res, nil
}

func (s *MemStore) CreateTask(t *SynthesisTask) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	if t.ID == "" {
		t.ID = newID()
	}
	if t.Status == "" {
		t.Status = TaskStatusPending
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	clone := *t
	s.tasks[t.ID] = &clone
	return nil
}

func (s *MemStore) GetTask(id string) (*SynthesisTask, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	clone := *t
	return &clone, nil
}

func (s *MemStore) UpdateTask(id string, updates TaskUpdate) (*SynthesisTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok {
		return nil, ErrNotFound
	}
	applyTaskUpdate(t, updates)
	t.UpdatedAt = time.Now()
	clone := *t
	return &clone, nil
}

// ============================================================================
// 合并与拷贝
// ============================================================================

// applyProjectUpdate 浅合并：只覆盖请求中出现的字段
func applyProjectUpdate(p *VideoProject, u ProjectUpdate) {
	if u.Title != nil {
		p.Title = *u.Title
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.Status != nil {
		p.Status = *u.Status
	}
	if u.CurrentStep != nil {
		p.CurrentStep = *u.CurrentStep
	}
	if u.ScriptContent != nil {
		p.ScriptContent = *u.ScriptContent
	}
	if u.AudioFiles != nil {
		p.AudioFiles = append(StringList{}, *u.AudioFiles...)
	}
	if u.MediaFiles != nil {
		p.MediaFiles = append(StringList{}, *u.MediaFiles...)
	}
	if u.ExtractedFrames != nil {
		p.ExtractedFrames = append(StringList{}, *u.ExtractedFrames...)
	}
	if u.FrameCount != nil {
		p.FrameCount = *u.FrameCount
	}
	if u.ExtractionTime != nil {
		p.ExtractionTime = *u.ExtractionTime
	}
	if u.ScriptAnalysis != nil {
		clone := *u.ScriptAnalysis
		p.ScriptAnalysis = &clone
	}
	if u.MediaAnalyses != nil {
		p.MediaAnalyses = append(MediaAnalysisList{}, *u.MediaAnalyses...)
	}
	if u.AssemblyPlan != nil {
		clone := *u.AssemblyPlan
		p.AssemblyPlan = &clone
	}
	if u.StoryboardDescription != nil {
		p.StoryboardDescription = *u.StoryboardDescription
	}
}

func applyTaskUpdate(t *SynthesisTask, u TaskUpdate) {
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Progress != nil {
		t.Progress = *u.Progress
	}
	if u.Message != nil {
		t.Message = *u.Message
	}
	if u.Error != nil {
		t.Error = *u.Error
	}
	if u.StartedAt != nil {
		t.StartedAt = *u.StartedAt
	}
	if u.FinishedAt != nil {
		t.FinishedAt = *u.FinishedAt
	}
}

func cloneProject(p *VideoProject) *VideoProject {
	c := *p
	c.AudioFiles = append(StringList{}, p.AudioFiles...)
	c.MediaFiles = append(StringList{}, p.MediaFiles...)
	c.ExtractedFrames = append(StringList{}, p.ExtractedFrames...)
	c.MediaAnalyses = append(MediaAnalysisList{}, p.MediaAnalyses...)
	if p.ScriptAnalysis != nil {
		sa := *p.ScriptAnalysis
		c.ScriptAnalysis = &sa
	}
	if p.AssemblyPlan != nil {
		ap := *p.AssemblyPlan
		ap.Scenes = append([]StoryboardScene{}, p.AssemblyPlan.Scenes...)
		c.AssemblyPlan = &ap
	}
	return &c
}
