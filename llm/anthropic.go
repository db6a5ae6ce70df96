package llm

import (
	"context"
	"encoding/json"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Client over Anthropic's Messages API.
// Ported from dshills-langgraph-go/graph/model/anthropic.ChatModel's
// message/tool conversion and block-type response parsing, extended with
// this protocol's temperature/max_tokens/streaming knobs (the teacher's
// adapter hard-codes MaxTokens and has no streaming path).
type AnthropicClient struct {
	apiKey    string
	modelName string
}

// NewAnthropicClient builds a client for modelName (e.g.
// "claude-sonnet-4-5-20250929"); an empty modelName uses that default.
func NewAnthropicClient(apiKey, modelName string) *AnthropicClient {
	if modelName == "" {
		modelName = "claude-sonnet-4-5-20250929"
	}
	return &AnthropicClient{apiKey: apiKey, modelName: modelName}
}

func (c *AnthropicClient) Call(ctx context.Context, messages []Message, opts CallOptions) (Result, error) {
	if c.apiKey == "" {
		return Result{}, fmt.Errorf("llm: anthropic API key is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	client := anthropicsdk.NewClient(option.WithAPIKey(c.apiKey))

	systemPrompt, conversation := extractAnthropicSystem(messages)

	maxTokens := int64(opts.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	params := anthropicsdk.MessageNewParams{
		Model:       anthropicsdk.Model(c.modelName),
		Messages:    convertAnthropicMessages(conversation),
		MaxTokens:   maxTokens,
		Temperature: anthropicsdk.Float(opts.Temperature),
	}
	if systemPrompt != "" {
		params.System = []anthropicsdk.TextBlockParam{{Text: systemPrompt}}
	}
	if len(opts.Tools) > 0 {
		params.Tools = convertAnthropicTools(opts.Tools)
	}

	if opts.Stream {
		return c.callStreaming(ctx, client, params, opts.OnChunk)
	}

	resp, err := client.Messages.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("llm: anthropic call: %w", err)
	}
	return convertAnthropicResponse(resp), nil
}

func (c *AnthropicClient) callStreaming(ctx context.Context, client anthropicsdk.Client, params anthropicsdk.MessageNewParams, onChunk ChunkHandler) (Result, error) {
	stream := client.Messages.NewStreaming(ctx, params)
	acc := anthropicsdk.Message{}

	for stream.Next() {
		event := stream.Current()
		if err := acc.Accumulate(event); err != nil {
			return Result{}, fmt.Errorf("llm: anthropic stream accumulate: %w", err)
		}
		if delta, ok := event.AsAny().(anthropicsdk.ContentBlockDeltaEvent); ok {
			if textDelta, ok := delta.Delta.AsAny().(anthropicsdk.TextDelta); ok && onChunk != nil {
				onChunk(textDelta.Text)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return Result{}, fmt.Errorf("llm: anthropic stream: %w", err)
	}
	return convertAnthropicResponse(&acc), nil
}

func extractAnthropicSystem(messages []Message) (string, []Message) {
	var system string
	var rest []Message
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
			continue
		}
		rest = append(rest, msg)
	}
	return system, rest
}

func convertAnthropicMessages(messages []Message) []anthropicsdk.MessageParam {
	out := make([]anthropicsdk.MessageParam, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case RoleAssistant:
			out[i] = anthropicsdk.NewAssistantMessage(anthropicsdk.NewTextBlock(msg.Content))
		default:
			out[i] = anthropicsdk.NewUserMessage(anthropicsdk.NewTextBlock(msg.Content))
		}
	}
	return out
}

func convertAnthropicTools(tools []Tool) []anthropicsdk.ToolUnionParam {
	out := make([]anthropicsdk.ToolUnionParam, len(tools))
	for i, tool := range tools {
		var properties any
		var required []string
		if tool.Schema != nil {
			if props, ok := tool.Schema["properties"]; ok {
				properties = props
			}
			if req, ok := tool.Schema["required"].([]string); ok {
				required = req
			}
		}
		out[i] = anthropicsdk.ToolUnionParam{
			OfTool: &anthropicsdk.ToolParam{
				Name:        tool.Name,
				Description: anthropicsdk.String(tool.Description),
				InputSchema: anthropicsdk.ToolInputSchemaParam{
					Properties: properties,
					Required:   required,
				},
			},
		}
	}
	return out
}

func convertAnthropicResponse(resp *anthropicsdk.Message) Result {
	result := Result{FinishReason: FinishStop}
	for _, block := range resp.Content {
		switch b := block.AsAny().(type) {
		case anthropicsdk.TextBlock:
			if result.Content != "" {
				result.Content += "\n"
			}
			result.Content += b.Text
		case anthropicsdk.ToolUseBlock:
			input := map[string]any{}
			_ = json.Unmarshal(b.Input, &input)
			result.ToolCalls = append(result.ToolCalls, ToolCall{ID: b.ID, Name: b.Name, Input: input})
			result.FinishReason = FinishToolUse
		}
	}
	return result
}

var _ Client = (*AnthropicClient)(nil)
