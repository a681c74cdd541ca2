package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"google.golang.org/genai"
)

// Provider kinds.
const (
	KindOpenAI = "openai"
	KindGemini = "gemini"
)

// ErrNoAPIKey is returned by NewProvider when a spec has no credentials.
var ErrNoAPIKey = errors.New("llm: api_key is required")

// Spec describes one configured model.
type Spec struct {
	Name          string
	Kind          string
	APIKey        string
	BaseURL       string
	Model         string
	MaxTokens     int64
	UseSystemRole bool
	Timeout       time.Duration
}

// NewProvider builds a chain provider from spec. The HTTP client is used
// for OpenAI-compatible endpoints when non-nil.
func NewProvider(ctx context.Context, spec Spec, httpClient *http.Client) (Provider, error) {
	if spec.APIKey == "" {
		return Provider{}, fmt.Errorf("%w: %s", ErrNoAPIKey, spec.Name)
	}
	if spec.Model == "" {
		return Provider{}, fmt.Errorf("llm: model is required: %s", spec.Name)
	}
	name := spec.Name
	if name == "" {
		name = spec.Kind + ":" + spec.Model
	}

	var c Completer
	switch spec.Kind {
	case KindOpenAI, "":
		opts := []option.RequestOption{option.WithAPIKey(spec.APIKey)}
		if spec.BaseURL != "" {
			opts = append(opts, option.WithBaseURL(spec.BaseURL))
		}
		if httpClient != nil {
			opts = append(opts, option.WithHTTPClient(httpClient))
		}
		client := openai.NewClient(opts...)
		c = &OpenAI{
			Client:        &client,
			Model:         spec.Model,
			MaxTokens:     spec.MaxTokens,
			UseSystemRole: spec.UseSystemRole,
		}
	case KindGemini:
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  spec.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return Provider{}, fmt.Errorf("llm: create gemini client %s: %w", name, err)
		}
		c = &Gemini{Client: client, Model: spec.Model}
	default:
		return Provider{}, fmt.Errorf("llm: unknown kind %q for %s", spec.Kind, name)
	}
	return Provider{Name: name, Completer: c, Timeout: spec.Timeout}, nil
}
