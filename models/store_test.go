package models

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestCreateProjectFillsDefaults(t *testing.T) {
	s := NewMemStore()

	p := &VideoProject{UserID: DefaultUserID, Title: "T"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == "" {
		t.Fatalf("expected generated id")
	}

	got, err := s.GetProject(p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != "T" {
		t.Fatalf("title: %q", got.Title)
	}
	if got.Status != ProjectStatusDraft {
		t.Fatalf("new project should be draft, got %q", got.Status)
	}
	if got.CurrentStep != 1 {
		t.Fatalf("new project should start at step 1, got %d", got.CurrentStep)
	}
	if got.Description != "" {
		t.Fatalf("description should default empty, got %q", got.Description)
	}
	if got.MediaFiles == nil || got.AudioFiles == nil || got.MediaAnalyses == nil {
		t.Fatalf("list fields should default to empty, not nil")
	}
}

func TestGetProjectNotFound(t *testing.T) {
	s := NewMemStore()
	if _, err := s.GetProject("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.UpdateProject("missing", ProjectUpdate{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on update, got %v", err)
	}
	if _, err := s.GetTask("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for tasks, got %v", err)
	}
}

func TestUpdateProjectMergesDisjointFields(t *testing.T) {
	s := NewMemStore()
	p := &VideoProject{UserID: DefaultUserID, Title: "T"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("create: %v", err)
	}

	script := "hello"
	if _, err := s.UpdateProject(p.ID, ProjectUpdate{ScriptContent: &script}); err != nil {
		t.Fatalf("first update: %v", err)
	}

	step := 3
	status := ProjectStatusProcessing
	if _, err := s.UpdateProject(p.ID, ProjectUpdate{CurrentStep: &step, Status: &status}); err != nil {
		t.Fatalf("second update: %v", err)
	}

	got, err := s.GetProject(p.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.ScriptContent != "hello" {
		t.Fatalf("first update lost by second: %q", got.ScriptContent)
	}
	if got.CurrentStep != 3 || got.Status != ProjectStatusProcessing {
		t.Fatalf("second update not applied: step=%d status=%q", got.CurrentStep, got.Status)
	}
	if got.Title != "T" {
		t.Fatalf("untouched field changed: %q", got.Title)
	}
}

func TestUpdateProjectLastWriteWins(t *testing.T) {
	s := NewMemStore()
	p := &VideoProject{UserID: DefaultUserID, Title: "T"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("create: %v", err)
	}

	first := &ContentAnalysis{ScriptSummary: "first"}
	second := &ContentAnalysis{ScriptSummary: "second"}
	if _, err := s.UpdateProject(p.ID, ProjectUpdate{ScriptAnalysis: first}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if _, err := s.UpdateProject(p.ID, ProjectUpdate{ScriptAnalysis: second}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.GetProject(p.ID)
	if got.ScriptAnalysis == nil || got.ScriptAnalysis.ScriptSummary != "second" {
		t.Fatalf("expected last write to win, got %+v", got.ScriptAnalysis)
	}
}

func TestStoreReturnsClones(t *testing.T) {
	s := NewMemStore()
	p := &VideoProject{UserID: DefaultUserID, Title: "T", MediaFiles: StringList{"a.mp4"}}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, _ := s.GetProject(p.ID)
	got.MediaFiles[0] = "mutated.mp4"
	got.Title = "mutated"

	again, _ := s.GetProject(p.ID)
	if again.MediaFiles[0] != "a.mp4" || again.Title != "T" {
		t.Fatalf("store state mutated through a returned copy: %+v", again)
	}
}

func TestListProjectsByUserOrdersByCreation(t *testing.T) {
	s := NewMemStore()
	for _, title := range []string{"one", "two", "three"} {
		p := &VideoProject{UserID: DefaultUserID, Title: title}
		if err := s.CreateProject(p); err != nil {
			t.Fatalf("create %s: %v", title, err)
		}
		time.Sleep(time.Millisecond)
	}
	p := &VideoProject{UserID: "other", Title: "foreign"}
	if err := s.CreateProject(p); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := s.ListProjectsByUser(DefaultUserID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 projects for user, got %d", len(got))
	}
	if got[0].Title != "one" || got[2].Title != "three" {
		t.Fatalf("projects not ordered by creation: %s..%s", got[0].Title, got[2].Title)
	}
}

func TestTaskUpdateMerges(t *testing.T) {
	s := NewMemStore()
	task := &SynthesisTask{SessionID: "sess"}
	if err := s.CreateTask(task); err != nil {
		t.Fatalf("create: %v", err)
	}
	if task.Status != TaskStatusPending {
		t.Fatalf("new task should default to pending, got %q", task.Status)
	}

	status := TaskStatusProcessing
	progress := 30
	if _, err := s.UpdateTask(task.ID, TaskUpdate{Status: &status, Progress: &progress}); err != nil {
		t.Fatalf("update: %v", err)
	}

	msg := "analyzing script"
	if _, err := s.UpdateTask(task.ID, TaskUpdate{Message: &msg}); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, _ := s.GetTask(task.ID)
	if got.Status != TaskStatusProcessing || got.Progress != 30 || got.Message != msg {
		t.Fatalf("task updates not merged: %+v", got)
	}
}

func TestChatMessageMetadataRoundTrip(t *testing.T) {
	msgs := []ChatMessage{
		{ID: "1", Type: MessageTypeSystem, Content: "welcome"},
		{ID: "2", Type: MessageTypeSuccess, Content: "files", Metadata: MessageMetadata{
			Files: &FileListMetadata{Files: []FileDetail{{Name: "a.mp4", Size: "12.3 KB"}}},
		}},
		{ID: "3", Type: MessageTypeProgress, Content: "working", Metadata: MessageMetadata{
			Progress: &ProgressMetadata{IsSynthesis: true, Stage: "media", Percent: 60},
		}},
		{ID: "4", Type: MessageTypeSystem, Content: "confirm?", Metadata: MessageMetadata{
			Confirmation: &ConfirmationMetadata{HasScript: true, FileCount: 2},
		}},
	}

	data, err := json.Marshal(msgs)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got []ChatMessage
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if len(got) != len(msgs) {
		t.Fatalf("length changed: %d != %d", len(got), len(msgs))
	}
	for i := range msgs {
		if got[i].ID != msgs[i].ID || got[i].Content != msgs[i].Content {
			t.Fatalf("order or content not preserved at %d: %+v", i, got[i])
		}
	}
	if got[1].Metadata.Files == nil || got[1].Metadata.Files.Files[0].Size != "12.3 KB" {
		t.Fatalf("file metadata lost: %+v", got[1].Metadata)
	}
	if got[2].Metadata.Progress == nil || !got[2].Metadata.Progress.IsSynthesis || got[2].Metadata.Progress.Percent != 60 {
		t.Fatalf("progress metadata lost: %+v", got[2].Metadata)
	}
	if got[3].Metadata.Confirmation == nil || got[3].Metadata.Confirmation.FileCount != 2 {
		t.Fatalf("confirmation metadata lost: %+v", got[3].Metadata)
	}
	if !got[0].Metadata.IsZero() {
		t.Fatalf("empty metadata should stay empty: %+v", got[0].Metadata)
	}
}

func TestMediaTypeFromFilename(t *testing.T) {
	cases := map[string]string{
		"clip.mp4":  "video",
		"movie.MOV": "video",
		"take.avi":  "video",
		"web.webm":  "video",
		"song.mp3":  "audio",
		"voice.wav": "audio",
		"memo.m4a":  "audio",
		"pod.aac":   "audio",
		"pic.png":   "image",
		"photo.jpg": "image",
		"noext":     "image",
	}
	for name, want := range cases {
		if got := MediaTypeFromFilename(name); got != want {
			t.Fatalf("%s: expected %q, got %q", name, want, got)
		}
	}
}
