package utils

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	urlPattern     = regexp.MustCompile(`http\S+|www\S+`)
	emailPattern   = regexp.MustCompile(`\S+@\S+`)
)

// Preprocess normalizes raw email text before vectorization.
// Training and serving must both go through this function; any other
// normalization path makes the fitted vocabulary disagree with live input.
func Preprocess(text string) string {
	text = strings.ToLower(text)
	text = htmlTagPattern.ReplaceAllLiteralString(text, "")
	text = urlPattern.ReplaceAllLiteralString(text, "URL")
	text = emailPattern.ReplaceAllLiteralString(text, "EMAIL")
	return strings.Join(strings.Fields(text), " ")
}

// PreprocessValue is Preprocess for loosely typed input such as decoded JSON.
// Anything that is not a string yields an empty string.
func PreprocessValue(v interface{}) string {
	switch t := v.(type) {
	case string:
		return Preprocess(t)
	case *string:
		if t == nil {
			return ""
		}
		return Preprocess(*t)
	default:
		return ""
	}
}

// CombineText joins subject and body the way the classifier was trained on
func CombineText(subject, body string) string {
	return subject + " " + body
}

// TextProcessor provides utilities for preparing text for LLM prompts
type TextProcessor struct {
	logger *zap.Logger
}

// NewTextProcessor creates a new TextProcessor
func NewTextProcessor(logger *zap.Logger) *TextProcessor {
	return &TextProcessor{
		logger: logger,
	}
}

// TruncateText safely truncates text to the specified maximum size
// and ensures the result is valid UTF-8
func (tp *TextProcessor) TruncateText(text string, maxSize int) string {
	if maxSize <= 0 || len(text) <= maxSize {
		return text
	}

	truncated := text[:maxSize]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}

	tp.logger.Debug("Text truncated",
		zap.Int("original_size", len(text)),
		zap.Int("truncated_size", len(truncated)),
		zap.Int("max_size", maxSize))

	return truncated + "\n[... Content truncated due to size limits ...]"
}

// SanitizeUTF8 drops invalid UTF-8 bytes from text
func (tp *TextProcessor) SanitizeUTF8(text string) string {
	if utf8.ValidString(text) {
		return text
	}

	sanitized := strings.ToValidUTF8(text, "")
	tp.logger.Debug("Text sanitized",
		zap.Int("original_size", len(text)),
		zap.Int("sanitized_size", len(sanitized)))

	return sanitized
}

// ProcessText truncates and sanitizes text in one operation
func (tp *TextProcessor) ProcessText(text string, maxSize int) string {
	return tp.SanitizeUTF8(tp.TruncateText(text, maxSize))
}
