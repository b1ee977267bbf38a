package models

import (
	"path/filepath"
	"strings"
)

// MediaTypeFromFilename 按扩展名判断媒体类型，未知扩展名按图片处理
func MediaTypeFromFilename(filename string) string {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	switch ext {
	case "mp4", "mov", "avi", "webm":
		return "video"
	case "mp3", "wav", "m4a", "aac":
		return "audio"
	default:
		return "image"
	}
}
