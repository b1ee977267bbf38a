package workflow

import (
	"context"
	"errors"
	"strings"
	"testing"

	"VideoChatPro-server/models"
)

// fakeAI 可注入错误的合成客户端替身
type fakeAI struct {
	scriptErr error
	mediaErr  error
	planErr   error

	scriptCalls int
	mediaCalls  int
	planCalls   int
}

func (f *fakeAI) AnalyzeScript(ctx context.Context, scriptContent string) (*models.ContentAnalysis, error) {
	f.scriptCalls++
	if f.scriptErr != nil {
		return nil, f.scriptErr
	}
	return &models.ContentAnalysis{
		ScriptSummary:   "summary of: " + scriptContent,
		MainThemes:      []string{"theme"},
		SuggestedTiming: 42,
		Mood:            "calm",
		VisualElements:  []string{"sky"},
	}, nil
}

func (f *fakeAI) AnalyzeMedia(ctx context.Context, mediaPath, mediaType string) (*models.MediaAnalysis, error) {
	f.mediaCalls++
	if f.mediaErr != nil {
		return nil, f.mediaErr
	}
	return &models.MediaAnalysis{Type: mediaType, Description: mediaPath, SuggestedUsage: "b-roll"}, nil
}

func (f *fakeAI) CreateAssemblyPlan(ctx context.Context, scriptAnalysis *models.ContentAnalysis, mediaAnalyses []models.MediaAnalysis) (*models.AssemblyPlan, error) {
	f.planCalls++
	if f.planErr != nil {
		return nil, f.planErr
	}
	return &models.AssemblyPlan{
		TotalDuration: 60,
		Scenes:        []models.StoryboardScene{{SceneNumber: 1, Duration: 60, Description: "opening", Transitions: "cut"}},
		AudioTrack:    "voiceover",
		Pacing:        "medium",
		Style:         "clean",
	}, nil
}

func (f *fakeAI) GenerateStoryboardDescription(ctx context.Context, plan *models.AssemblyPlan) (string, error) {
	return "a short storyboard", nil
}

func newTestController() (*Controller, *Manager, *fakeAI) {
	ai := &fakeAI{}
	return NewController(models.NewMemStore(), ai), NewManager(), ai
}

func TestStartSessionAppendsWelcome(t *testing.T) {
	c, m, _ := newTestController()
	s := c.StartSession(m)

	msgs := s.Log.Snapshot(0)
	if len(msgs) != 1 {
		t.Fatalf("expected 1 message after session start, got %d", len(msgs))
	}
	if msgs[0].Type != models.MessageTypeSystem {
		t.Fatalf("expected system welcome, got type %q", msgs[0].Type)
	}
	if s.State().CurrentStep != 1 {
		t.Fatalf("new session should start at step 1, got %d", s.State().CurrentStep)
	}
	if s.State().Pipeline != PipelineIdle {
		t.Fatalf("new session pipeline should be idle, got %q", s.State().Pipeline)
	}
}

func TestNextAdvancesStepOneExactlyOnce(t *testing.T) {
	c, m, _ := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	c.HandleText(ctx, s, "next")
	if got := s.State().CurrentStep; got != 2 {
		t.Fatalf("first next should reach step 2, got %d", got)
	}

	// 第二次 next 不再推进步骤，而是进入确认
	c.HandleText(ctx, s, "next")
	st := s.State()
	if st.CurrentStep != 2 {
		t.Fatalf("repeated next must not advance past step 2, got %d", st.CurrentStep)
	}
	if !st.PendingConfirmation {
		t.Fatalf("next at step 2 should set pending confirmation")
	}

	// 第三次 next 仍停留在步骤 2
	c.HandleText(ctx, s, "continue")
	if got := s.State().CurrentStep; got != 2 {
		t.Fatalf("further next must keep step 2, got %d", got)
	}
}

func TestHelpAppendsOneSystemMessageAndKeepsStep(t *testing.T) {
	c, m, _ := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	c.HandleText(ctx, s, "next")
	stepBefore := s.State().CurrentStep

	msgs := c.HandleText(ctx, s, "help")
	if len(msgs) != 2 {
		t.Fatalf("help should append user echo plus one system message, got %d", len(msgs))
	}
	if msgs[1].Type != models.MessageTypeSystem || msgs[1].Content != helpText {
		t.Fatalf("expected fixed help text, got %q (%s)", msgs[1].Content, msgs[1].Type)
	}
	if got := s.State().CurrentStep; got != stepBefore {
		t.Fatalf("help must not change step: before %d, after %d", stepBefore, got)
	}
}

func TestKeywordPriorityOrder(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		content string
		want    string
	}{
		{"help me check status", helpText},
		{"status then next please", "step 1 of 6"},
		{"next yes", step1AdvanceText},
	}

	for _, tc := range cases {
		c, m, _ := newTestController()
		s := c.StartSession(m)
		msgs := c.HandleText(ctx, s, tc.content)
		reply := msgs[len(msgs)-1]
		if !strings.Contains(reply.Content, tc.want) {
			t.Fatalf("input %q: expected reply containing %q, got %q", tc.content, tc.want, reply.Content)
		}
	}
}

func TestConfirmationClearedByNo(t *testing.T) {
	c, m, _ := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	c.HandleText(ctx, s, "next")
	c.HandleText(ctx, s, "next")
	if !s.State().PendingConfirmation {
		t.Fatalf("expected pending confirmation after next at step 2")
	}

	msgs := c.HandleText(ctx, s, "no")
	st := s.State()
	if st.PendingConfirmation {
		t.Fatalf("no should clear pending confirmation")
	}
	if st.CurrentStep != 2 {
		t.Fatalf("cancel must keep step 2, got %d", st.CurrentStep)
	}
	if msgs[len(msgs)-1].Content != cancelText {
		t.Fatalf("expected cancel reply, got %q", msgs[len(msgs)-1].Content)
	}

	// 再次 no：确认已解除，走兜底
	msgs = c.HandleText(ctx, s, "no")
	if msgs[len(msgs)-1].Content != fallbackText {
		t.Fatalf("no without pending confirmation should fall back, got %q", msgs[len(msgs)-1].Content)
	}
}

func TestYesWithoutConfirmationFallsBack(t *testing.T) {
	c, m, ai := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	msgs := c.HandleText(ctx, s, "yes")
	if msgs[len(msgs)-1].Content != fallbackText {
		t.Fatalf("yes without pending confirmation should fall back, got %q", msgs[len(msgs)-1].Content)
	}
	if ai.scriptCalls != 0 || ai.planCalls != 0 {
		t.Fatalf("pipeline must not run without confirmation")
	}
}

func TestConfirmedYesRunsPipelineToCompletion(t *testing.T) {
	c, m, _ := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	c.HandleText(ctx, s, "Once upon a time in a small studio.")
	c.HandleUpload(ctx, s, []UploadedFile{{Name: "clip.mp4", SizeBytes: 2048}})
	c.HandleText(ctx, s, "next")
	c.HandleText(ctx, s, "yes")

	st := s.State()
	if st.PendingConfirmation {
		t.Fatalf("yes should clear pending confirmation")
	}
	if st.CurrentStep != 5 {
		t.Fatalf("completed synthesis should land on step 5, got %d", st.CurrentStep)
	}
	if st.Pipeline != PipelineIdle {
		t.Fatalf("pipeline should return to idle, got %q", st.Pipeline)
	}

	last := s.Log.Snapshot(0)[s.Log.Len()-1]
	if last.Type != models.MessageTypeSuccess || last.Metadata.Plan == nil {
		t.Fatalf("expected final success message carrying the assembly plan, got %s / %+v", last.Type, last.Metadata)
	}
	if last.Metadata.Plan.AssemblyPlan == nil || last.Metadata.Plan.StoryboardDescription == "" {
		t.Fatalf("plan metadata incomplete: %+v", last.Metadata.Plan)
	}
}

func TestFreeTextAtStepOneCapturesScript(t *testing.T) {
	c, m, _ := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	script := "INT. OFFICE - DAY. A developer stares at a terminal."
	msgs := c.HandleText(ctx, s, script)
	if len(msgs) != 3 {
		t.Fatalf("expected user echo + success + follow-up, got %d messages", len(msgs))
	}
	if msgs[1].Type != models.MessageTypeSuccess {
		t.Fatalf("expected success acknowledgement, got %q", msgs[1].Type)
	}
	if got := s.State().ScriptText; got != script {
		t.Fatalf("script text not captured: %q", got)
	}
	if got := s.State().CurrentStep; got != 1 {
		t.Fatalf("capturing a script must not advance the step, got %d", got)
	}
}

func TestFreeTextBeyondStepOneFallsBack(t *testing.T) {
	c, m, _ := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	c.HandleText(ctx, s, "next")
	msgs := c.HandleText(ctx, s, "some random words")
	if msgs[len(msgs)-1].Content != fallbackText {
		t.Fatalf("free text past step 1 should fall back, got %q", msgs[len(msgs)-1].Content)
	}
	if got := s.State().ScriptText; got != "" {
		t.Fatalf("script text must not be captured past step 1, got %q", got)
	}
}

func TestUploadTwoFilesAtStepOne(t *testing.T) {
	c, m, _ := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	msgs := c.HandleUpload(ctx, s, []UploadedFile{
		{Name: "intro.mp4", SizeBytes: 12595}, // 12.3 KB
		{Name: "logo.png", SizeBytes: 512},    // 0.5 KB
	})

	if len(msgs) != 2 {
		t.Fatalf("expected one success entry plus one system prompt, got %d messages", len(msgs))
	}

	success := msgs[0]
	if success.Type != models.MessageTypeSuccess || success.Metadata.Files == nil {
		t.Fatalf("expected success message with file metadata, got %s / %+v", success.Type, success.Metadata)
	}
	files := success.Metadata.Files.Files
	if len(files) != 2 {
		t.Fatalf("expected 2 file details, got %d", len(files))
	}
	if files[0].Size != "12.3 KB" {
		t.Fatalf("expected size rounded to one decimal (12.3 KB), got %q", files[0].Size)
	}
	if files[1].Size != "0.5 KB" {
		t.Fatalf("expected 0.5 KB, got %q", files[1].Size)
	}

	if msgs[1].Type != models.MessageTypeSystem || msgs[1].Content != step1AdvanceText {
		t.Fatalf("expected advance prompt after first upload, got %q", msgs[1].Content)
	}
	if got := s.State().CurrentStep; got != 2 {
		t.Fatalf("upload at step 1 should advance to step 2, got %d", got)
	}
}

func TestUploadAtStepTwoAccumulates(t *testing.T) {
	c, m, _ := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	c.HandleUpload(ctx, s, []UploadedFile{{Name: "a.mp4", SizeBytes: 100}})
	msgs := c.HandleUpload(ctx, s, []UploadedFile{{Name: "b.mp3", SizeBytes: 200}})

	if msgs[len(msgs)-1].Content != step2MoreText {
		t.Fatalf("expected more-files prompt at step 2, got %q", msgs[len(msgs)-1].Content)
	}
	st := s.State()
	if st.CurrentStep != 2 {
		t.Fatalf("upload at step 2 must stay at step 2, got %d", st.CurrentStep)
	}
	if len(st.UploadedFiles) != 2 {
		t.Fatalf("collector should accumulate files, got %d", len(st.UploadedFiles))
	}
}

func TestPipelineGuardBlocksSecondRun(t *testing.T) {
	c, m, ai := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	s.mu.Lock()
	s.state.Pipeline = PipelineRunning
	s.mu.Unlock()

	before := s.Log.Len()
	if err := c.RunPipeline(ctx, s, nil); err != nil {
		t.Fatalf("guarded run should not error, got %v", err)
	}

	msgs := s.Log.Snapshot(before)
	if len(msgs) != 1 || msgs[0].Content != alreadyRunningText {
		t.Fatalf("expected single already-running notice, got %+v", msgs)
	}
	if ai.scriptCalls != 0 || ai.mediaCalls != 0 || ai.planCalls != 0 {
		t.Fatalf("guarded run must not touch the AI client")
	}
	if got := s.State().Pipeline; got != PipelineRunning {
		t.Fatalf("guard must leave the running state intact, got %q", got)
	}
}

func TestPipelineFailedStateAllowsRetry(t *testing.T) {
	c, m, ai := newTestController()
	s := c.StartSession(m)
	ctx := context.Background()

	c.HandleText(ctx, s, "script text")
	c.HandleUpload(ctx, s, []UploadedFile{{Name: "clip.mp4", SizeBytes: 100}})

	ai.scriptErr = errors.New("upstream down")
	if err := c.RunPipeline(ctx, s, nil); err == nil {
		t.Fatalf("expected pipeline failure")
	}
	if got := s.State().Pipeline; got != PipelineFailed {
		t.Fatalf("expected failed state, got %q", got)
	}

	ai.scriptErr = nil
	if err := c.RunPipeline(ctx, s, nil); err != nil {
		t.Fatalf("retry after failure should succeed, got %v", err)
	}
	if got := s.State().Pipeline; got != PipelineIdle {
		t.Fatalf("expected idle after successful retry, got %q", got)
	}
}
