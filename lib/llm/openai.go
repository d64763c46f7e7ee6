// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sleepyleo/intern/lib/netutil"
	"github.com/sleepyleo/intern/lib/secret"
)

const openaiPrefix = "llm/openai"

// OpenAIConfig configures an [OpenAI] provider.
type OpenAIConfig struct {
	// BaseURL is the API root, e.g. "https://openrouter.ai/api/v1".
	// The provider appends /chat/completions.
	BaseURL string

	// APIKey is sent as a bearer token. It is borrowed; the provider
	// never closes it. Nil sends no Authorization header.
	APIKey *secret.Buffer

	// Model, MaxTokens and Temperature are the defaults for requests
	// that leave them unset.
	Model       string
	MaxTokens   int
	Temperature float64

	// Referer and Title identify the application to OpenRouter. Both
	// are optional.
	Referer string
	Title   string

	// HTTPClient defaults to a client with a two minute timeout.
	HTTPClient *http.Client
}

// OpenAI implements [Provider] for the OpenAI Chat Completions API and
// compatible services.
type OpenAI struct {
	config     OpenAIConfig
	httpClient *http.Client
}

// NewOpenAI creates an OpenAI-compatible provider.
func NewOpenAI(config OpenAIConfig) *OpenAI {
	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 2 * time.Minute}
	}
	return &OpenAI{config: config, httpClient: httpClient}
}

// Complete sends a non-streaming request and returns the first choice.
func (provider *OpenAI) Complete(ctx context.Context, request Request) (*Response, error) {
	httpResponse, err := doProviderRequest(ctx, provider.httpClient,
		provider.endpoint(), provider.headers(), provider.buildRequest(request), openaiPrefix)
	if err != nil {
		return nil, err
	}
	defer httpResponse.Body.Close()

	var wireResponse openaiResponse
	if err := netutil.DecodeResponse(httpResponse.Body, &wireResponse); err != nil {
		return nil, fmt.Errorf("%s: decoding response: %w", openaiPrefix, err)
	}
	return wireResponse.toResponse(), nil
}

func (provider *OpenAI) endpoint() string {
	return strings.TrimRight(provider.config.BaseURL, "/") + "/chat/completions"
}

func (provider *OpenAI) headers() http.Header {
	headers := make(http.Header)
	if provider.config.APIKey != nil {
		headers.Set("Authorization", "Bearer "+provider.config.APIKey.String())
	}
	if provider.config.Referer != "" {
		headers.Set("HTTP-Referer", provider.config.Referer)
	}
	if provider.config.Title != "" {
		headers.Set("X-Title", provider.config.Title)
	}
	return headers
}

// buildRequest converts our types to the OpenAI wire format, filling
// unset fields from the provider defaults.
func (provider *OpenAI) buildRequest(request Request) openaiRequest {
	wireRequest := openaiRequest{
		Model:       request.Model,
		MaxTokens:   request.MaxTokens,
		Temperature: request.Temperature,
	}
	if wireRequest.Model == "" {
		wireRequest.Model = provider.config.Model
	}
	if wireRequest.MaxTokens == 0 {
		wireRequest.MaxTokens = provider.config.MaxTokens
	}
	if wireRequest.Temperature == nil {
		temperature := provider.config.Temperature
		wireRequest.Temperature = &temperature
	}

	// System prompt becomes the first message with role "system".
	if request.System != "" {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    "system",
			Content: request.System,
		})
	}
	for _, message := range request.Messages {
		wireRequest.Messages = append(wireRequest.Messages, openaiMessage{
			Role:    string(message.Role),
			Content: message.Content,
		})
	}
	return wireRequest
}

type openaiRequest struct {
	Model       string          `json:"model"`
	Messages    []openaiMessage `json:"messages"`
	MaxTokens   int             `json:"max_tokens,omitempty"`
	Temperature *float64        `json:"temperature,omitempty"`
}

type openaiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openaiResponse struct {
	ID      string         `json:"id"`
	Model   string         `json:"model"`
	Choices []openaiChoice `json:"choices"`
	Usage   openaiUsage    `json:"usage"`
}

type openaiChoice struct {
	Index        int                   `json:"index"`
	Message      openaiResponseMessage `json:"message"`
	FinishReason string                `json:"finish_reason"`
}

// openaiResponseMessage tolerates a null content field, which some
// providers send when the reply is empty.
type openaiResponseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

type openaiUsage struct {
	PromptTokens     int64 `json:"prompt_tokens"`
	CompletionTokens int64 `json:"completion_tokens"`
}

func (wireResponse *openaiResponse) toResponse() *Response {
	response := &Response{
		Model: wireResponse.Model,
		Usage: Usage{
			InputTokens:  wireResponse.Usage.PromptTokens,
			OutputTokens: wireResponse.Usage.CompletionTokens,
		},
	}
	if len(wireResponse.Choices) == 0 {
		return response
	}

	choice := wireResponse.Choices[0]
	response.StopReason = mapOpenAIFinishReason(choice.FinishReason)
	if choice.Message.Content != nil {
		response.Text = *choice.Message.Content
	}
	return response
}

func mapOpenAIFinishReason(reason string) StopReason {
	switch reason {
	case "stop":
		return StopReasonEndTurn
	case "length":
		return StopReasonMaxTokens
	default:
		// Preserve unknown reasons (e.g., "content_filter") as-is.
		return StopReason(reason)
	}
}
