// Package reasoning wraps the external text-reasoning service behind a
// small interface so pipeline stages can be tested against fakes.
package reasoning

import (
	"context"
	"errors"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
)

// Operational error statuses the caller must distinguish before deciding on
// any fallback: both indicate a billing/quota problem, not a content one.
var (
	ErrRateLimited     = eris.New("reasoning: rate limited")
	ErrPaymentRequired = eris.New("reasoning: payment required")
)

// Client defines the reasoning-service operations used by the classifier.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}

// Request is a single system+user prompt pair.
type Request struct {
	Model       string
	MaxTokens   int64
	System      string
	Prompt      string
	Temperature *float64
}

// Response holds the reply text and token accounting.
type Response struct {
	ID    string
	Model string
	Text  string
	Usage TokenUsage
}

// TokenUsage tracks token consumption.
type TokenUsage struct {
	InputTokens  int64
	OutputTokens int64
}

// sdkClient implements Client using the official anthropic-sdk-go.
type sdkClient struct {
	client sdk.Client
}

// NewClient creates a reasoning client backed by the SDK.
func NewClient(apiKey string) Client {
	return &sdkClient{
		client: sdk.NewClient(
			option.WithAPIKey(apiKey),
		),
	}
}

func (c *sdkClient) Complete(ctx context.Context, req Request) (*Response, error) {
	params := sdk.MessageNewParams{
		Model:     sdk.Model(req.Model),
		MaxTokens: req.MaxTokens,
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []sdk.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature != nil {
		params.Temperature = sdk.Float(*req.Temperature)
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}

	var text string
	for _, block := range msg.Content {
		if block.Text != "" {
			if text != "" {
				text += "\n"
			}
			text += block.Text
		}
	}

	return &Response{
		ID:    msg.ID,
		Model: string(msg.Model),
		Text:  text,
		Usage: TokenUsage{
			InputTokens:  msg.Usage.InputTokens,
			OutputTokens: msg.Usage.OutputTokens,
		},
	}, nil
}

// classifyError maps API error statuses onto the package sentinels so
// callers can branch without importing the SDK.
func classifyError(err error) error {
	var apierr *sdk.Error
	if errors.As(err, &apierr) {
		switch apierr.StatusCode {
		case 429:
			return eris.Wrap(ErrRateLimited, apierr.Error())
		case 402:
			return eris.Wrap(ErrPaymentRequired, apierr.Error())
		}
	}
	return eris.Wrap(err, "reasoning: complete")
}
