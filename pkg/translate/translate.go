// Package translate converts text between English and the supported
// regional languages through a chain of translation providers.
//
// Chain order: an API-key-gated provider, open LibreTranslate and MyMemory
// instances, a static term dictionary, and finally the untranslated text.
package translate

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/haivivi/cropcare/pkg/fallback"
)

var (
	// ErrNoAPIKey is returned by gated providers that have no key.
	ErrNoAPIKey = errors.New("translate: no api key")

	// ErrEmpty is returned when a provider produced no text.
	ErrEmpty = errors.New("translate: empty translation")

	// ErrUnsupported is returned when a provider cannot handle the pair.
	ErrUnsupported = errors.New("translate: unsupported language pair")
)

// ProviderIdentity is reported when source and target are the same
// language and no provider was called.
const ProviderIdentity = "identity"

// Language is a supported language.
type Language struct {
	Tag   string `json:"tag"`
	Name  string `json:"name"`
	Voice string `json:"voice"`
}

// Languages lists the supported language tags with their Google TTS voice.
var Languages = []Language{
	{Tag: "en-US", Name: "English", Voice: "en-US-Neural2-F"},
	{Tag: "hi-IN", Name: "Hindi", Voice: "hi-IN-Neural2-A"},
	{Tag: "te-IN", Name: "Telugu", Voice: "te-IN-Standard-A"},
	{Tag: "ta-IN", Name: "Tamil", Voice: "ta-IN-Standard-A"},
	{Tag: "kn-IN", Name: "Kannada", Voice: "kn-IN-Standard-A"},
	{Tag: "ml-IN", Name: "Malayalam", Voice: "ml-IN-Standard-A"},
}

// LookupLanguage returns the language for tag, matching on the base code.
func LookupLanguage(tag string) (Language, bool) {
	base := Base(tag)
	for _, l := range Languages {
		if Base(l.Tag) == base {
			return l, true
		}
	}
	return Language{}, false
}

// Base returns the lowercase base language of a tag: "hi-IN" becomes "hi".
// An empty tag is English.
func Base(tag string) string {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return "en"
	}
	base, _, _ := strings.Cut(tag, "-")
	base, _, _ = strings.Cut(base, "_")
	return strings.ToLower(base)
}

// IsEnglish reports whether tag is English.
func IsEnglish(tag string) bool { return Base(tag) == "en" }

// Request is one translation.
type Request struct {
	Text   string
	Source string // base language code
	Target string // base language code
}

// Translator translates text. Source and target are base language codes.
type Translator interface {
	Translate(ctx context.Context, req Request) (string, error)
}

// Provider is a named translator in a chain.
type Provider struct {
	Name       string
	Translator Translator
	Timeout    time.Duration
}

// Config configures New.
type Config struct {
	Providers []Provider
	Timeout   time.Duration
	Observer  fallback.Observer
	Logger    *slog.Logger
}

// Service translates through the provider chain. It never fails: when every
// provider fails the text is returned unchanged.
type Service struct {
	chain *fallback.Chain[Request, string]
}

// New creates a translation service.
func New(cfg Config) *Service {
	providers := make([]fallback.Provider[Request, string], 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers = append(providers, fallback.Provider[Request, string]{
			Name:    p.Name,
			Call:    p.Translator.Translate,
			Timeout: p.Timeout,
		})
	}
	return &Service{chain: fallback.New(fallback.Config[Request, string]{
		Name:      "translate",
		Providers: providers,
		Timeout:   cfg.Timeout,
		Validate: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return ErrEmpty
			}
			return nil
		},
		Terminal: func(req Request) string { return req.Text },
		Observer: cfg.Observer,
		Logger:   cfg.Logger,
	})}
}

// Translate converts text from the source tag to the target tag. It returns
// the text and the provider used.
func (s *Service) Translate(ctx context.Context, text, sourceTag, targetTag string) (string, string) {
	src, dst := Base(sourceTag), Base(targetTag)
	if src == dst || strings.TrimSpace(text) == "" {
		return text, ProviderIdentity
	}
	return s.chain.Invoke(ctx, Request{Text: text, Source: src, Target: dst})
}

// Providers returns the provider names in order.
func (s *Service) Providers() []string { return s.chain.Providers() }
