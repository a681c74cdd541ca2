// Package chat implements the crop assistant conversation: translate the
// question to English, find the disease and intent, pick an answer, translate
// it back, then voice it. Replies are cached per message and language.
package chat

import (
	"context"
	"log/slog"
	"strings"

	"github.com/haivivi/cropcare/pkg/cache"
	"github.com/haivivi/cropcare/pkg/disease"
	"github.com/haivivi/cropcare/pkg/intent"
	"github.com/haivivi/cropcare/pkg/translate"
)

const (
	// DefaultCacheSize is the ResponseCache ceiling.
	DefaultCacheSize = 100

	// DefaultLanguage is assumed when a request names none.
	DefaultLanguage = "en-US"
)

// Answer sources reported in Turn.Provider. LLM answers report the model
// provider name instead.
const (
	ProviderKnowledge = "knowledge"
	ProviderTreatment = "treatment"
	ProviderTopic     = "topic"
	ProviderClarify   = "clarify"
)

// Asker answers free-form questions. *llm.Chain implements it.
type Asker interface {
	Configured() bool
	Ask(ctx context.Context, prompt string) (string, string)
}

// Translator converts text between language tags. *translate.Service
// implements it.
type Translator interface {
	Translate(ctx context.Context, text, sourceTag, targetTag string) (string, string)
}

// Voice returns an audio URL for text, or "" when none could be made.
// *speech.Service implements it.
type Voice interface {
	AudioURL(ctx context.Context, text, language string) string
}

// Turn is one question and its answer.
type Turn struct {
	Message  string `json:"message"`
	Language string `json:"language"`

	// English is the message as classified.
	English string `json:"english"`

	Disease disease.Key   `json:"disease,omitempty"`
	Intent  intent.Intent `json:"intent,omitempty"`
	Topic   intent.Topic  `json:"topic,omitempty"`

	Response string `json:"response"`
	AudioURL string `json:"audioUrl,omitempty"`

	// Provider is where the answer came from.
	Provider string `json:"provider"`
}

// Config configures NewEngine.
type Config struct {
	// Catalog defaults to disease.Default().
	Catalog *disease.Catalog

	LLM        Asker
	Translator Translator
	Voice      Voice

	// CacheSize defaults to DefaultCacheSize.
	CacheSize int

	// ClarifyPrompt replaces DefaultClarifyPrompt.
	ClarifyPrompt string

	Logger *slog.Logger
}

// ResponseKey identifies a cached reply.
type ResponseKey struct {
	Message  string
	Language string
}

// Engine answers crop questions.
type Engine struct {
	catalog    *disease.Catalog
	resolver   *disease.Resolver
	llm        Asker
	translator Translator
	voice      Voice
	clarify    string
	responses  *cache.Cache[ResponseKey, Turn]
	logger     *slog.Logger
}

// NewEngine creates an engine.
func NewEngine(cfg Config) (*Engine, error) {
	c := cfg.Catalog
	if c == nil {
		var err error
		if c, err = disease.Default(); err != nil {
			return nil, err
		}
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	clarify := cfg.ClarifyPrompt
	if clarify == "" {
		clarify = DefaultClarifyPrompt
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		catalog:    c,
		resolver:   disease.NewResolver(c),
		llm:        cfg.LLM,
		translator: cfg.Translator,
		voice:      cfg.Voice,
		clarify:    clarify,
		responses:  cache.New[ResponseKey, Turn]("response", size),
		logger:     logger.With("component", "chat"),
	}, nil
}

// Cache exposes the response cache for metrics.
func (e *Engine) Cache() *cache.Cache[ResponseKey, Turn] { return e.responses }

// Converse answers message in language. It always returns a non-empty
// response. Caller cancellation does not abort provider calls, so that their
// results can still be cached.
func (e *Engine) Converse(ctx context.Context, message, language string) Turn {
	language = strings.TrimSpace(language)
	if language == "" {
		language = DefaultLanguage
	}
	ctx = context.WithoutCancel(ctx)

	key := ResponseKey{Message: strings.ToLower(strings.TrimSpace(message)), Language: language}
	turn, _ := e.responses.GetOrCompute(ctx, key, func(ctx context.Context) (Turn, error) {
		return e.respond(ctx, message, language), nil
	})
	if e.voice != nil {
		turn.AudioURL = e.voice.AudioURL(ctx, turn.Response, language)
	}
	return turn
}

func (e *Engine) respond(ctx context.Context, message, language string) Turn {
	t := Turn{Message: message, Language: language, English: message}
	foreign := !translate.IsEnglish(language) && e.translator != nil

	if foreign {
		t.English, _ = e.translator.Translate(ctx, message, language, "en")
	}
	normalized := intent.Normalize(t.English)
	t.Intent = intent.Classify(normalized)
	if k, ok := e.catalog.Detect(t.English); ok {
		t.Disease = k
	}

	t.Response, t.Provider = e.answer(ctx, &t, normalized)

	if foreign {
		t.Response, _ = e.translator.Translate(ctx, t.Response, "en", language)
	}
	if strings.TrimSpace(t.Response) == "" {
		t.Response, t.Provider = e.clarify, ProviderClarify
	}
	e.logger.DebugContext(ctx, "answered",
		"language", language, "disease", t.Disease, "intent", t.Intent.String(),
		"topic", t.Topic, "provider", t.Provider)
	return t
}

// answer picks the reply: a knowledge field for disease and intent, a
// summary for a bare disease, a general topic reply, the language model,
// and finally the clarifying prompt.
func (e *Engine) answer(ctx context.Context, t *Turn, normalized string) (string, string) {
	if entry, ok := e.catalog.Lookup(t.Disease); ok {
		switch t.Intent {
		case intent.None:
			return entry.Summary(), ProviderKnowledge
		case intent.Treatment:
			if res := e.resolver.Lookup(string(t.Disease)); res.Resolved() {
				return res.Text, ProviderTreatment
			}
			return entry.Treatment, ProviderKnowledge
		default:
			if s, ok := entry.Field(string(t.Intent)); ok && s != "" {
				return s, ProviderKnowledge
			}
			return entry.Description, ProviderKnowledge
		}
	}

	t.Topic = intent.ClassifyTopic(normalized)
	if s, ok := TopicAnswer(t.Topic); ok {
		return s, ProviderTopic
	}

	if e.llm != nil && e.llm.Configured() {
		return e.llm.Ask(ctx, t.English)
	}
	return e.clarify, ProviderClarify
}
