package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"VideoChatPro-server/config"
	"VideoChatPro-server/models"
)

const scriptSystemPrompt = `You are a video content analysis expert. Analyze the provided script and extract key information for video production.

Respond with JSON in this exact format:
{
  "scriptSummary": "brief summary of the script content",
  "mainThemes": ["theme1", "theme2", "theme3"],
  "suggestedTiming": number_in_seconds,
  "mood": "energetic|calm|professional|dramatic|educational",
  "visualElements": ["element1", "element2", "element3"]
}`

const assemblySystemPrompt = `You are a video assembly expert. Create a detailed production plan for combining script content with available media.

Respond with JSON in this exact format:
{
  "totalDuration": number_in_seconds,
  "scenes": [
    {
      "sceneNumber": 1,
      "duration": number_in_seconds,
      "description": "what happens in this scene",
      "mediaFiles": ["filename1", "filename2"],
      "audioOverlay": "audio_filename or null",
      "textOverlay": "text to display or null",
      "transitions": "transition effect description"
    }
  ],
  "audioTrack": "main_audio_filename",
  "pacing": "slow|medium|fast",
  "style": "description of overall video style"
}`

// 响应 schema 与上方 prompt 对应，强制模型输出结构化 JSON
var scriptResponseSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "scriptSummary": {"type": "string"},
    "mainThemes": {"type": "array", "items": {"type": "string"}},
    "suggestedTiming": {"type": "number"},
    "mood": {"type": "string"},
    "visualElements": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["scriptSummary", "mainThemes", "suggestedTiming", "mood", "visualElements"]
}`)

var assemblyResponseSchema = json.RawMessage(`{
  "type": "object",
  "properties": {
    "totalDuration": {"type": "number"},
    "scenes": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "sceneNumber": {"type": "number"},
          "duration": {"type": "number"},
          "description": {"type": "string"},
          "mediaFiles": {"type": "array", "items": {"type": "string"}},
          "audioOverlay": {"type": "string"},
          "textOverlay": {"type": "string"},
          "transitions": {"type": "string"}
        }
      }
    },
    "audioTrack": {"type": "string"},
    "pacing": {"type": "string"},
    "style": {"type": "string"}
  },
  "required": ["totalDuration", "scenes", "audioTrack", "pacing", "style"]
}`)

// GeminiClient 调用 Google Generative Language API 的三类合成请求。
// 空响应 / 非法 JSON 一律视为该次调用的硬失败
type GeminiClient struct {
	APIKey     string
	BaseURL    string
	Model      string
	FlashModel string
	httpClient *http.Client
}

func NewGeminiClient() *GeminiClient {
	cfg := config.AppConfig.Gemini
	return &GeminiClient{
		APIKey:     cfg.APIKey,
		BaseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		Model:      cfg.Model,
		FlashModel: cfg.FlashModel,
		httpClient: &http.Client{Timeout: 120 * time.Second},
	}
}

// ---- generateContent 请求/响应结构 ----

type geminiPart struct {
	Text string `json:"text"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiGenerationConfig struct {
	ResponseMimeType string          `json:"responseMimeType,omitempty"`
	ResponseSchema   json.RawMessage `json:"responseSchema,omitempty"`
}

type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// generateContent 发送一次生成请求并返回文本结果
func (g *GeminiClient) generateContent(ctx context.Context, model, systemPrompt, userContent string, schema json.RawMessage) (string, error) {
	reqBody := geminiRequest{
		Contents: []geminiContent{
			{Role: "user", Parts: []geminiPart{{Text: userContent}}},
		},
	}
	if systemPrompt != "" {
		reqBody.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: systemPrompt}}}
	}
	if schema != nil {
		reqBody.GenerationConfig = &geminiGenerationConfig{
			ResponseMimeType: "application/json",
			ResponseSchema:   schema,
		}
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal request failed: %w", err)
	}

	fullURL := fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s", g.BaseURL, model, g.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fullURL, bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", fmt.Errorf("create request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response failed: %w", err)
	}

	var respData geminiResponse
	if err := json.Unmarshal(bodyBytes, &respData); err != nil {
		return "", fmt.Errorf("decode response failed: %v", err)
	}
	if respData.Error != nil {
		return "", fmt.Errorf("gemini error %d: %s", respData.Error.Code, respData.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("gemini status code: %d", resp.StatusCode)
	}
	if len(respData.Candidates) == 0 || len(respData.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	var sb strings.Builder
	for _, part := range respData.Candidates[0].Content.Parts {
		sb.WriteString(part.Text)
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("empty response from model")
	}
	return text, nil
}

// AnalyzeScript 剧本分析
func (g *GeminiClient) AnalyzeScript(ctx context.Context, scriptContent string) (*models.ContentAnalysis, error) {
	text, err := g.generateContent(ctx, g.Model, scriptSystemPrompt,
		"Script to analyze: "+scriptContent, scriptResponseSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze script: %w", err)
	}
	var analysis models.ContentAnalysis
	if err := json.Unmarshal([]byte(text), &analysis); err != nil {
		return nil, fmt.Errorf("failed to analyze script: %w", err)
	}
	return &analysis, nil
}

// AnalyzeMedia 单文件媒体分析。运行环境中拿不到文件内容，
// 按文件名模式生成可用的基线分析（与原服务行为一致）
func (g *GeminiClient) AnalyzeMedia(ctx context.Context, mediaPath string, mediaType string) (*models.MediaAnalysis, error) {
	log.Printf("Analyzing %s file: %s", mediaType, mediaPath)

	var analysis models.MediaAnalysis
	switch mediaType {
	case "video":
		analysis = models.MediaAnalysis{
			Type:           "video",
			Description:    fmt.Sprintf("Video file ready for integration. Based on filename %q, this contains motion content.", mediaPath),
			SuggestedUsage: "Can be used as main footage, B-roll, or transitions between scenes.",
			Duration:       30,
			KeyFrames:      []string{"Opening frame", "Mid-point action", "Closing frame"},
		}
	case "audio":
		analysis = models.MediaAnalysis{
			Type:           "audio",
			Description:    fmt.Sprintf("Audio file for soundtrack or narration. Based on filename %q, this contains audio content.", mediaPath),
			SuggestedUsage: "Can be used as background music, sound effects, or voice narration.",
			Duration:       60,
		}
	default:
		analysis = models.MediaAnalysis{
			Type:           "image",
			Description:    fmt.Sprintf("Image file suitable for video production. Based on filename %q, this appears to be visual content.", mediaPath),
			SuggestedUsage: "Can be used as background imagery, title cards, or visual elements in the video timeline.",
		}
	}

	log.Printf("Media analysis complete for %s", mediaPath)
	return &analysis, nil
}

// CreateAssemblyPlan 生成装配方案
func (g *GeminiClient) CreateAssemblyPlan(ctx context.Context, scriptAnalysis *models.ContentAnalysis, mediaAnalyses []models.MediaAnalysis) (*models.AssemblyPlan, error) {
	scriptJSON, _ := json.Marshal(scriptAnalysis)
	mediaJSON, _ := json.Marshal(mediaAnalyses)
	prompt := fmt.Sprintf(`
Script Analysis: %s

Available Media: %s

Create a comprehensive assembly plan that combines these elements into a cohesive video.`, scriptJSON, mediaJSON)

	text, err := g.generateContent(ctx, g.Model, assemblySystemPrompt, prompt, assemblyResponseSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to create assembly plan: %w", err)
	}
	var plan models.AssemblyPlan
	if err := json.Unmarshal([]byte(text), &plan); err != nil {
		return nil, fmt.Errorf("failed to create assembly plan: %w", err)
	}
	return &plan, nil
}

// GenerateStoryboardDescription 基于装配方案生成故事板叙述（flash 模型，纯文本）
func (g *GeminiClient) GenerateStoryboardDescription(ctx context.Context, plan *models.AssemblyPlan) (string, error) {
	planJSON, _ := json.MarshalIndent(plan, "", "  ")
	prompt := fmt.Sprintf(`Based on this video assembly plan, create a detailed storyboard description that explains the visual flow and timing:

%s

Provide a narrative description of how the video will look and flow from scene to scene.`, planJSON)

	text, err := g.generateContent(ctx, g.FlashModel, "", prompt, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate storyboard description: %w", err)
	}
	return text, nil
}
