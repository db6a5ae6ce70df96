package llm

import (
	"context"
	"encoding/json"
	"fmt"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAIClient implements Client over OpenAI's Chat Completions API.
// Ported from dshills-langgraph-go/graph/model/openai.ChatModel's message/
// tool conversion, extended with this protocol's temperature/streaming
// knobs and proper JSON argument parsing (the teacher's parseToolInput
// leaves tool arguments as an unparsed "_raw" string; here they're
// unmarshalled into the map ToolCall.Input expects).
type OpenAIClient struct {
	apiKey    string
	modelName string
}

// NewOpenAIClient builds a client for modelName (e.g. "gpt-4o"); an empty
// modelName uses that default.
func NewOpenAIClient(apiKey, modelName string) *OpenAIClient {
	if modelName == "" {
		modelName = "gpt-4o"
	}
	return &OpenAIClient{apiKey: apiKey, modelName: modelName}
}

func (c *OpenAIClient) Call(ctx context.Context, messages []Message, opts CallOptions) (Result, error) {
	if c.apiKey == "" {
		return Result{}, fmt.Errorf("llm: openai API key is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	client := openaisdk.NewClient(option.WithAPIKey(c.apiKey))

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.modelName),
		Messages:    convertOpenAIMessages(messages),
		Temperature: openaisdk.Float(opts.Temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxTokens = openaisdk.Int(int64(opts.MaxTokens))
	}
	if len(opts.Tools) > 0 {
		params.Tools = convertOpenAITools(opts.Tools)
	}

	if opts.Stream {
		return c.callStreaming(ctx, client, params, opts.OnChunk)
	}

	resp, err := client.Chat.Completions.New(ctx, params)
	if err != nil {
		return Result{}, fmt.Errorf("llm: openai call: %w", err)
	}
	return convertOpenAIResponse(resp), nil
}

func (c *OpenAIClient) callStreaming(ctx context.Context, client openaisdk.Client, params openaisdk.ChatCompletionNewParams, onChunk ChunkHandler) (Result, error) {
	stream := client.Chat.Completions.NewStreaming(ctx, params)
	acc := openaisdk.ChatCompletionAccumulator{}

	for stream.Next() {
		chunk := stream.Current()
		acc.AddChunk(chunk)
		if len(chunk.Choices) > 0 && onChunk != nil {
			if delta := chunk.Choices[0].Delta.Content; delta != "" {
				onChunk(delta)
			}
		}
	}
	if err := stream.Err(); err != nil {
		return Result{}, fmt.Errorf("llm: openai stream: %w", err)
	}

	completion := acc.ChatCompletion
	return convertOpenAIResponse(&completion), nil
}

func convertOpenAIMessages(messages []Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, len(messages))
	for i, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			out[i] = openaisdk.SystemMessage(msg.Content)
		case RoleAssistant:
			out[i] = openaisdk.AssistantMessage(msg.Content)
		case RoleTool:
			out[i] = openaisdk.ToolMessage(msg.Content, msg.ToolCallID)
		default:
			out[i] = openaisdk.UserMessage(msg.Content)
		}
	}
	return out
}

func convertOpenAITools(tools []Tool) []openaisdk.ChatCompletionToolParam {
	out := make([]openaisdk.ChatCompletionToolParam, len(tools))
	for i, tool := range tools {
		out[i] = openaisdk.ChatCompletionToolParam{
			Function: shared.FunctionDefinitionParam{
				Name:        tool.Name,
				Description: openaisdk.String(tool.Description),
				Parameters:  shared.FunctionParameters(tool.Schema),
			},
		}
	}
	return out
}

func convertOpenAIResponse(resp *openaisdk.ChatCompletion) Result {
	result := Result{FinishReason: FinishStop}
	if len(resp.Choices) == 0 {
		return result
	}
	choice := resp.Choices[0]
	result.Content = choice.Message.Content

	for _, tc := range choice.Message.ToolCalls {
		input := map[string]any{}
		_ = json.Unmarshal([]byte(tc.Function.Arguments), &input)
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:    tc.ID,
			Name:  tc.Function.Name,
			Input: input,
		})
	}
	if len(result.ToolCalls) > 0 {
		result.FinishReason = FinishToolUse
	} else if choice.FinishReason == "length" {
		result.FinishReason = FinishLength
	}
	return result
}

var _ Client = (*OpenAIClient)(nil)
