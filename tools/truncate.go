package tools

import (
	"fmt"
	"strings"
)

// Truncation limits defaults.
const (
	DefaultMaxLines = 2000
	DefaultMaxBytes = 50 * 1024 // 50KB
)

// Truncation describes what TruncateHead kept.
type Truncation struct {
	Content     string
	TotalLines  int
	OutputLines int
	TotalBytes  int
	Truncated   bool
}

// Notice renders a one-line marker to append after truncated content.
func (t Truncation) Notice() string {
	if !t.Truncated {
		return ""
	}
	return fmt.Sprintf("[Content truncated: showing %d of %d lines, %s of %s]",
		t.OutputLines, t.TotalLines, FormatSize(len(t.Content)), FormatSize(t.TotalBytes))
}

// String returns the kept content followed by the notice, if any.
func (t Truncation) String() string {
	if !t.Truncated {
		return t.Content
	}
	return t.Content + "\n\n" + t.Notice()
}

// TruncateHead keeps the first maxLines lines and at most maxBytes bytes.
// Non-positive limits fall back to the defaults.
func TruncateHead(content string, maxLines, maxBytes int) Truncation {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	lines := strings.Split(content, "\n")
	out := Truncation{TotalLines: len(lines), TotalBytes: len(content)}

	if len(lines) <= maxLines && len(content) <= maxBytes {
		out.Content = content
		out.OutputLines = len(lines)
		return out
	}

	var kept []string
	byteCount := 0

	for i, line := range lines {
		lineBytes := len(line)
		if i > 0 {
			lineBytes++ // newline
		}
		if len(kept) >= maxLines {
			break
		}
		if byteCount+lineBytes > maxBytes {
			// A single oversized first line is cut rather than dropped.
			if len(kept) == 0 {
				kept = append(kept, cutRunes(line, maxBytes))
			}
			break
		}
		kept = append(kept, line)
		byteCount += lineBytes
	}

	out.Content = strings.Join(kept, "\n")
	out.OutputLines = len(kept)
	out.Truncated = true
	return out
}

// cutRunes shortens s to at most n bytes without splitting a UTF-8 sequence.
func cutRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	end := 0
	for i := range s {
		if i > n {
			break
		}
		end = i
	}
	return s[:end]
}

// FormatSize renders a byte count for humans.
func FormatSize(bytes int) string {
	switch {
	case bytes < 1024:
		return fmt.Sprintf("%dB", bytes)
	case bytes < 1024*1024:
		return fmt.Sprintf("%.1fKB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%.1fMB", float64(bytes)/(1024*1024))
	}
}
