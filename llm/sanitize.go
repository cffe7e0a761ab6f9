package llm

import (
	"strings"

	"github.com/samber/lo"

	"github.com/voocel/toolbridge/schema"
)

// SanitizeOption configures SanitizeToolMessages.
type SanitizeOption func(*sanitizeConfig)

type sanitizeConfig struct {
	lenientNames bool
	bindCallIDs  bool
}

// WithLenientNameMatch accepts a tool message that has a name but no
// tool_call_id whenever any call is pending, whatever the name. Without it
// the name must match the function name of a pending call.
func WithLenientNameMatch() SanitizeOption {
	return func(c *sanitizeConfig) {
		c.lenientNames = true
	}
}

// WithCallIDBinding fills in the tool_call_id of a kept tool message that
// was matched by name, so the call it answers is explicit. Model APIs need
// the id; the name alone does not reach them.
func WithCallIDBinding() SanitizeOption {
	return func(c *sanitizeConfig) {
		c.bindCallIDs = true
	}
}

type pendingCall struct {
	id   string
	name string
}

// pairing is the per-pass accumulator: the calls of the governing assistant
// message that no tool message has answered yet, oldest first.
type pairing struct {
	cfg     sanitizeConfig
	pending []pendingCall
}

// SanitizeToolMessages repairs tool-call pairing before a history is sent to
// a model API. Every tool message in the result answers an open call of the
// assistant message governing it. Unpaired tool messages become assistant
// messages carrying the same content, or are dropped when the content is
// blank. A converted message closes the pending calls like any other plain
// assistant message, so sanitizing the result again changes nothing.
//
// The input is never modified and the result is always a new slice.
func SanitizeToolMessages(msgs []schema.Message, opts ...SanitizeOption) []schema.Message {
	p := &pairing{}
	for _, opt := range opts {
		opt(&p.cfg)
	}

	out := make([]schema.Message, 0, len(msgs))
	for _, msg := range msgs {
		if kept, ok := p.step(msg); ok {
			out = append(out, kept)
		}
	}
	return out
}

// step consumes one message and returns what to emit for it, if anything.
func (p *pairing) step(msg schema.Message) (schema.Message, bool) {
	switch msg.Role {
	case schema.RoleAssistant:
		p.pending = lo.Map(msg.ToolCalls, func(tc schema.ToolCall, _ int) pendingCall {
			return pendingCall{id: tc.ID, name: tc.Function.Name}
		})
		return msg.Clone(), true

	case schema.RoleTool:
		if call, ok := p.claim(msg); ok {
			kept := msg.Clone()
			if p.cfg.bindCallIDs && kept.ToolCallID == "" {
				kept.ToolCallID = call.id
			}
			return kept, true
		}
		converted, ok := orphan(msg)
		if ok {
			// The emitted assistant message now governs what follows.
			p.pending = nil
		}
		return converted, ok

	case schema.RoleUser, schema.RoleSystem:
		p.pending = nil
		return msg.Clone(), true

	default:
		return msg.Clone(), true
	}
}

// claim returns the pending call msg answers, consuming it.
func (p *pairing) claim(msg schema.Message) (pendingCall, bool) {
	if len(p.pending) == 0 {
		return pendingCall{}, false
	}

	var idx int
	var found bool
	switch {
	case msg.ToolCallID != "":
		_, idx, found = lo.FindIndexOf(p.pending, func(c pendingCall) bool {
			return c.id == msg.ToolCallID
		})
	case msg.Name != "" && p.cfg.lenientNames:
		idx, found = 0, true
	case msg.Name != "":
		_, idx, found = lo.FindIndexOf(p.pending, func(c pendingCall) bool {
			return c.name == msg.Name
		})
	}
	if !found {
		return pendingCall{}, false
	}

	call := p.pending[idx]
	p.pending = append(p.pending[:idx:idx], p.pending[idx+1:]...)
	return call, true
}

// orphan downgrades an unpaired tool message to assistant text.
func orphan(msg schema.Message) (schema.Message, bool) {
	if strings.TrimSpace(msg.Content) == "" {
		return schema.Message{}, false
	}
	return schema.AssistantMessage(msg.Content), true
}
