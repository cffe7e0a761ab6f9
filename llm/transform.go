package llm

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/voocel/toolbridge/schema"
)

var validToolCallID = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

const maxToolCallIDLength = 64

// NormalizeToolCallIDs rewrites tool call ids that some providers reject
// (longer than 64 characters, or outside [a-zA-Z0-9_-]) and applies the same
// mapping to the tool messages answering them. Pairing is preserved, and ids
// stay distinct within an assistant turn.
func NormalizeToolCallIDs(messages []schema.Message) []schema.Message {
	if len(messages) == 0 {
		return messages
	}

	idMap := make(map[string]string) // oldID → newID
	result := make([]schema.Message, len(messages))

	for i, msg := range messages {
		switch {
		case msg.Role == schema.RoleAssistant && len(msg.ToolCalls) > 0:
			msg = msg.Clone()
			used := make(map[string]bool, len(msg.ToolCalls))
			for _, tc := range msg.ToolCalls {
				if normalizeToolCallID(tc.ID) == tc.ID {
					used[tc.ID] = true
				}
			}
			for j, tc := range msg.ToolCalls {
				newID := normalizeToolCallID(tc.ID)
				if newID == tc.ID {
					continue
				}
				newID = uniqueToolCallID(newID, used)
				used[newID] = true
				idMap[tc.ID] = newID
				msg.ToolCalls[j].ID = newID
			}
		case msg.Role == schema.RoleTool && msg.ToolCallID != "":
			if newID, ok := idMap[msg.ToolCallID]; ok {
				msg.ToolCallID = newID
			}
		}
		result[i] = msg
	}

	return result
}

// normalizeToolCallID ensures the ID matches ^[a-zA-Z0-9_-]+$ and is <= 64 chars.
func normalizeToolCallID(id string) string {
	if len(id) <= maxToolCallIDLength && validToolCallID.MatchString(id) {
		return id
	}

	var sb strings.Builder
	for _, r := range id {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' || r == '-' {
			sb.WriteRune(r)
		}
	}
	sanitized := sb.String()

	if len(sanitized) > maxToolCallIDLength {
		sanitized = sanitized[:maxToolCallIDLength]
	}
	if sanitized == "" {
		sanitized = "tc_unknown"
	}
	return sanitized
}

// uniqueToolCallID appends _2, _3, ... to id until it is not in used,
// shortening id so the result stays within the length limit.
func uniqueToolCallID(id string, used map[string]bool) string {
	if !used[id] {
		return id
	}
	for n := 2; ; n++ {
		suffix := "_" + strconv.Itoa(n)
		base := id
		if len(base)+len(suffix) > maxToolCallIDLength {
			base = base[:maxToolCallIDLength-len(suffix)]
		}
		if candidate := base + suffix; !used[candidate] {
			return candidate
		}
	}
}
