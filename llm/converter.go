package llm

import (
	"github.com/voocel/litellm"

	"github.com/voocel/toolbridge/schema"
)

// convertMessagesToLiteLLM converts our message format to litellm format
func convertMessagesToLiteLLM(messages []schema.Message) []litellm.Message {
	result := make([]litellm.Message, len(messages))
	for i, msg := range messages {
		result[i] = litellm.Message{
			Role:       string(msg.Role),
			Content:    msg.Content,
			ToolCalls:  convertToolCallsToLiteLLM(msg.ToolCalls),
			ToolCallID: msg.ToolCallID,
		}
	}
	return result
}

func convertToolCallsToLiteLLM(calls []schema.ToolCall) []litellm.ToolCall {
	if len(calls) == 0 {
		return nil
	}

	result := make([]litellm.ToolCall, len(calls))
	for i, tc := range calls {
		result[i] = litellm.ToolCall{
			ID:   tc.ID,
			Type: tc.Type,
			Function: litellm.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}
	return result
}

// convertToolsToLiteLLM converts our tool format to litellm format
func convertToolsToLiteLLM(tools []ToolDefinition) []litellm.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]litellm.Tool, len(tools))
	for i, tool := range tools {
		result[i] = litellm.Tool{
			Type: tool.Type,
			Function: litellm.FunctionDef{
				Name:        tool.Function.Name,
				Description: tool.Function.Description,
				Parameters:  tool.Function.Parameters,
			},
		}
	}
	return result
}

// convertToolCallsFromLiteLLM converts litellm tool calls to our format
func convertToolCallsFromLiteLLM(toolCalls []litellm.ToolCall) []schema.ToolCall {
	if len(toolCalls) == 0 {
		return nil
	}

	result := make([]schema.ToolCall, len(toolCalls))
	for i, tc := range toolCalls {
		callType := tc.Type
		if callType == "" {
			callType = schema.ToolCallTypeFunction
		}
		result[i] = schema.ToolCall{
			ID:   tc.ID,
			Type: callType,
			Function: schema.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
			},
		}
	}
	return result
}

// convertResponse turns a litellm response into an assistant turn.
func convertResponse(resp *litellm.Response) *ChatResponse {
	calls := convertToolCallsFromLiteLLM(resp.ToolCalls)

	finish := resp.FinishReason
	if finish == "" {
		finish = "stop"
		if len(calls) > 0 {
			finish = "tool_calls"
		}
	}

	total := resp.Usage.TotalTokens
	if total == 0 {
		total = resp.Usage.PromptTokens + resp.Usage.CompletionTokens
	}

	return &ChatResponse{
		Message:      schema.AssistantMessage(resp.Content, calls...),
		FinishReason: finish,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      total,
		},
	}
}
