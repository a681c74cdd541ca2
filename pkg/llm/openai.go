package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
)

const finishReasonStop = "stop"

// OpenAI completes through any OpenAI-compatible chat completions endpoint.
type OpenAI struct {
	Client *openai.Client
	Model  string

	// MaxTokens limits the completion length. Zero leaves it to the server.
	MaxTokens int64

	// UseSystemRole sends the system prompt with the system role instead of
	// the developer role. Most compatible servers only accept system.
	UseSystemRole bool
}

var _ Completer = (*OpenAI)(nil)

// Complete implements Completer.
func (o *OpenAI) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:    o.Model,
		Messages: o.messages(req),
	}
	if o.MaxTokens > 0 {
		params.MaxTokens = param.NewOpt(o.MaxTokens)
	}
	resp, err := o.Client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classifyOpenAI(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices", ErrModel)
	}
	choice := resp.Choices[0]
	if choice.Message.Refusal != "" {
		return "", fmt.Errorf("%w: blocked: %s", ErrModel, choice.Message.Refusal)
	}
	if choice.FinishReason != finishReasonStop {
		return "", fmt.Errorf("%w: unexpected finish reason: %s", ErrModel, choice.FinishReason)
	}
	if choice.Message.Content == "" {
		return "", ErrEmpty
	}
	return choice.Message.Content, nil
}

func (o *OpenAI) messages(req Request) []openai.ChatCompletionMessageParamUnion {
	msgs := make([]openai.ChatCompletionMessageParamUnion, 0, 2)
	if req.System != "" {
		if o.UseSystemRole {
			msgs = append(msgs, openai.SystemMessage(req.System))
		} else {
			msgs = append(msgs, openai.DeveloperMessage(req.System))
		}
	}
	return append(msgs, openai.UserMessage(req.Prompt))
}

func classifyOpenAI(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return err
}
