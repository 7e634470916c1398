package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sashabaranov/go-openai"

	domai "github.com/bryanwahyu/image-identifier/internal/domain/ai"
	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1024
)

type Client struct {
	*openai.Client
	model     string
	maxTokens int
	detail    openai.ImageURLDetail
}

type Options struct {
	APIKey    string
	BaseURL   string
	Model     string
	MaxTokens int
	// Detail is the image_url detail hint: low, high or auto.
	Detail     string
	HTTPClient *http.Client
}

func NewClient(opts Options) *Client {
	cfg := openai.DefaultConfig(opts.APIKey)
	if opts.BaseURL != "" {
		cfg.BaseURL = opts.BaseURL
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	}
	model := opts.Model
	if model == "" {
		model = defaultModel
	}
	maxTokens := opts.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	detail := openai.ImageURLDetailAuto
	switch strings.ToLower(opts.Detail) {
	case "low":
		detail = openai.ImageURLDetailLow
	case "high":
		detail = openai.ImageURLDetailHigh
	}
	return &Client{
		Client:    openai.NewClientWithConfig(cfg),
		model:     model,
		maxTokens: maxTokens,
		detail:    detail,
	}
}

func (c *Client) Model() string { return c.model }

// Invoke sends one chat completion with the image attached as a data URI. No retry.
func (c *Client) Invoke(ctx context.Context, mr analysis.ModelRequest) (analysis.RawOutput, error) {
	req := openai.ChatCompletionRequest{
		Model: c.model,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: mr.System},
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: mr.Instruction},
					{
						Type: openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{
							URL:    mr.Image.DataURI(),
							Detail: c.detail,
						},
					},
				},
			},
		},
	}
	// For reasoning models (o1/o3/o4/gpt-5*) use MaxCompletionTokens instead of MaxTokens
	if isReasoningModel(c.model) {
		req.MaxCompletionTokens = c.maxTokens
	} else {
		req.MaxTokens = c.maxTokens
	}

	resp, err := c.CreateChatCompletion(ctx, req)
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("failed to create chat completion: %w: %w", domai.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", domai.ErrEmptyResponse
	}

	return analysis.RawOutput(resp.Choices[0].Message.Content), nil
}

func isReasoningModel(model string) bool {
	for _, p := range []string{"o1", "o3", "o4", "gpt-5"} {
		if strings.HasPrefix(model, p) {
			return true
		}
	}
	return false
}

func isQuotaError(err error) bool {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == http.StatusTooManyRequests
	}
	return false
}
