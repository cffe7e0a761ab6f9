package tools

import (
	"fmt"
	"strings"
)

// ContentTypeText is the only content type the bridge produces.
const ContentTypeText = "text"

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// CallResult is the tools/call result body. IsStreaming is always false for
// this bridge but is still emitted, as clients expect the key.
type CallResult struct {
	Content     []Content `json:"content"`
	IsStreaming bool      `json:"isStreaming"`
	IsError     bool      `json:"isError"`
}

// TextResult wraps text in a successful result.
func TextResult(text string) *CallResult {
	return &CallResult{Content: []Content{{Type: ContentTypeText, Text: text}}}
}

// ErrorResult wraps a human-readable failure message.
func ErrorResult(message string) *CallResult {
	return &CallResult{
		Content: []Content{{Type: ContentTypeText, Text: message}},
		IsError: true,
	}
}

// Errorf is ErrorResult with formatting.
func Errorf(format string, args ...any) *CallResult {
	return ErrorResult(fmt.Sprintf(format, args...))
}

// Text joins all text blocks with newlines.
func (r *CallResult) Text() string {
	if r == nil {
		return ""
	}
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		if c.Type == ContentTypeText {
			parts = append(parts, c.Text)
		}
	}
	return strings.Join(parts, "\n")
}
