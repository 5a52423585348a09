// Package script writes presentation scripts and recovers slide text with a
// chat completion model reached through an OpenAI-compatible API.
package script

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

var (
	// ErrMissingAPIKey is returned when no credential was configured.
	ErrMissingAPIKey = errors.New("llm api key must not be empty")
	// ErrMissingModel is returned when no model name was configured.
	ErrMissingModel = errors.New("llm model must not be empty")
	// ErrEmptyResponse is returned when the model answers without content.
	ErrEmptyResponse = errors.New("empty response from model")
)

// ClientConfig holds what is needed to reach the model.
type ClientConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// Temperature of zero leaves the provider default.
	Temperature float64
	MaxRetries  int
}

// Client sends single-turn prompts to a chat completion model.
type Client struct {
	client      oai.Client
	model       string
	temperature float64
}

// NewClient constructs a Client from cfg.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	if cfg.Model == "" {
		return nil, ErrMissingModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}

	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.Timeout,
		}))
	}

	return &Client{
		client:      oai.NewClient(reqOpts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

// Complete sends prompt with an optional system instruction and returns the
// trimmed answer.
func (c *Client) Complete(ctx context.Context, system, prompt string) (string, error) {
	var messages []oai.ChatCompletionMessageParamUnion

	if system != "" {
		messages = append(messages, oai.SystemMessage(system))
	}

	messages = append(messages, oai.UserMessage(prompt))

	params := oai.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: messages,
	}

	if c.temperature != 0 {
		params.Temperature = param.NewOpt(c.temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}

	return content, nil
}
