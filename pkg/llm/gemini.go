package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/genai"
)

// Gemini completes through the Google GenAI API.
type Gemini struct {
	Client *genai.Client

	// Model should not start with "models/".
	Model string
}

var _ Completer = (*Gemini)(nil)

// Complete implements Completer.
func (g *Gemini) Complete(ctx context.Context, req Request) (string, error) {
	cfg := &genai.GenerateContentConfig{}
	if req.System != "" {
		cfg.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: req.System}}}
	}
	resp, err := g.Client.Models.GenerateContent(ctx, g.Model, genai.Text(req.Prompt), cfg)
	if err != nil {
		return "", classifyGemini(err)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("%w: no candidates", ErrModel)
	}
	c := resp.Candidates[0]
	if c.FinishReason != genai.FinishReasonStop {
		return "", fmt.Errorf("%w: unexpected finish reason: %s", ErrModel, c.FinishReason)
	}
	if c.Content == nil {
		return "", ErrEmpty
	}
	var sb strings.Builder
	for _, p := range c.Content.Parts {
		if p.Text != "" {
			sb.WriteString(p.Text)
		}
	}
	if sb.Len() == 0 {
		return "", ErrEmpty
	}
	return sb.String(), nil
}

func classifyGemini(err error) error {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPCode() == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %v", ErrRateLimited, apiErr.Unwrap())
		}
		return apiErr.Unwrap()
	}
	var gerr genai.APIError
	if errors.As(err, &gerr) && gerr.Code == http.StatusTooManyRequests {
		return fmt.Errorf("%w: %v", ErrRateLimited, err)
	}
	return err
}
