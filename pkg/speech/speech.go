// Package speech voices assistant replies. Synthesizers are tried in order
// through a fallback chain; the resulting MP3 is stored once and served by
// URL, with URLs cached per text prefix and language.
package speech

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/haivivi/cropcare/pkg/cache"
	"github.com/haivivi/cropcare/pkg/fallback"
	"github.com/haivivi/cropcare/pkg/storage"
)

const (
	// DefaultCacheSize is the AudioCache ceiling.
	DefaultCacheSize = 50

	// DefaultURLPrefix is where stored audio is served.
	DefaultURLPrefix = "/static/tts"

	dropTimeout = 10 * time.Second

	// keyPrefixRunes is how much of the text identifies a cached clip.
	keyPrefixRunes = 100

	contentType = "audio/mpeg"
)

var (
	// ErrNoAudio is returned when every synthesizer failed.
	ErrNoAudio = errors.New("speech: no audio")

	// ErrEmptyText is returned for blank input.
	ErrEmptyText = errors.New("speech: empty text")
)

// Request is one synthesis call.
type Request struct {
	Text     string
	Language string // language tag such as "hi-IN"
}

// Synthesizer turns text into MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, req Request) ([]byte, error)
}

// Provider is a named synthesizer in a chain.
type Provider struct {
	Name        string
	Synthesizer Synthesizer
	Timeout     time.Duration
}

// Key identifies a cached clip.
type Key struct {
	Prefix   string
	Language string
}

// KeyFor returns the cache key for text in language.
func KeyFor(text, language string) Key {
	text = strings.TrimSpace(text)
	if r := []rune(text); len(r) > keyPrefixRunes {
		text = string(r[:keyPrefixRunes])
	}
	return Key{Prefix: text, Language: language}
}

// Config configures New.
type Config struct {
	Providers []Provider
	Timeout   time.Duration
	Store     storage.Store

	// URLPrefix defaults to DefaultURLPrefix.
	URLPrefix string

	// CacheSize defaults to DefaultCacheSize.
	CacheSize int

	Observer fallback.Observer
	Logger   *slog.Logger
}

// Service synthesizes, stores and caches speech.
type Service struct {
	chain     *fallback.Chain[Request, []byte]
	store     storage.Store
	cache     *cache.Cache[Key, string]
	urlPrefix string
	logger    *slog.Logger
}

// New creates a speech service.
func New(cfg Config) *Service {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	prefix := strings.TrimRight(cfg.URLPrefix, "/")
	if prefix == "" {
		prefix = DefaultURLPrefix
	}
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	providers := make([]fallback.Provider[Request, []byte], 0, len(cfg.Providers))
	for _, p := range cfg.Providers {
		providers = append(providers, fallback.Provider[Request, []byte]{
			Name:    p.Name,
			Call:    p.Synthesizer.Synthesize,
			Timeout: p.Timeout,
		})
	}
	s := &Service{
		chain: fallback.New(fallback.Config[Request, []byte]{
			Name:      "speech",
			Providers: providers,
			Timeout:   cfg.Timeout,
			Validate: func(b []byte) error {
				if len(b) == 0 {
					return ErrNoAudio
				}
				return nil
			},
			Observer: cfg.Observer,
			Logger:   cfg.Logger,
		}),
		store:     cfg.Store,
		urlPrefix: prefix,
		logger:    logger.With("component", "speech"),
	}
	s.cache = cache.New("audio", size, cache.WithOnEvict(s.dropClip))
	return s
}

// dropClip removes the stored clip behind an evicted URL.
func (s *Service) dropClip(_ Key, u string) {
	if s.store == nil {
		return
	}
	name := path.Base(u)
	ctx, cancel := context.WithTimeout(context.Background(), dropTimeout)
	defer cancel()
	if err := s.store.Delete(ctx, name); err != nil {
		s.logger.Warn("delete evicted audio", "name", name, "error", err)
		return
	}
	s.logger.Debug("deleted evicted audio", "name", name)
}

// Cache exposes the audio cache for metrics.
func (s *Service) Cache() *cache.Cache[Key, string] { return s.cache }

// URLPrefix returns the prefix of every returned URL.
func (s *Service) URLPrefix() string { return s.urlPrefix }

// AudioURL returns a URL for text spoken in language. Failures are logged
// and reported as an empty URL; they are not cached.
func (s *Service) AudioURL(ctx context.Context, text, language string) string {
	u, err := s.cache.GetOrCompute(ctx, KeyFor(text, language), func(ctx context.Context) (string, error) {
		return s.synthesize(ctx, text, language)
	})
	if err != nil {
		s.logger.Warn("no audio for reply", "language", language, "error", err)
		return ""
	}
	return u
}

func (s *Service) synthesize(ctx context.Context, text, language string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if s.store == nil || s.chain.Len() == 0 {
		return "", ErrNoAudio
	}
	audio, provider := s.chain.Invoke(ctx, Request{Text: text, Language: language})
	if provider == fallback.ProviderNone {
		return "", ErrNoAudio
	}
	name := "tts_" + uuid.NewString() + ".mp3"
	if err := s.store.Put(ctx, name, audio, contentType); err != nil {
		return "", err
	}
	s.logger.Debug("stored audio", "name", name, "provider", provider, "bytes", len(audio))
	return s.urlPrefix + "/" + name, nil
}

// Open returns a stored clip by file name for serving.
func (s *Service) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if s.store == nil {
		return nil, ErrNoAudio
	}
	return s.store.Open(ctx, name)
}
