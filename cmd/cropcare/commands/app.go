package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/getsentry/sentry-go"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/haivivi/cropcare/pkg/assistant"
	"github.com/haivivi/cropcare/pkg/chat"
	"github.com/haivivi/cropcare/pkg/classify"
	"github.com/haivivi/cropcare/pkg/config"
	"github.com/haivivi/cropcare/pkg/disease"
	"github.com/haivivi/cropcare/pkg/fallback"
	"github.com/haivivi/cropcare/pkg/llm"
	"github.com/haivivi/cropcare/pkg/metrics"
	"github.com/haivivi/cropcare/pkg/prediction"
	"github.com/haivivi/cropcare/pkg/speech"
	"github.com/haivivi/cropcare/pkg/storage"
	"github.com/haivivi/cropcare/pkg/translate"
)

// app holds the wired services for one process.
type app struct {
	assistant *assistant.Service
	speech    *speech.Service
	metrics   *metrics.Metrics
	store     *prediction.Store
	sentry    bool
}

// newApp wires every component from cfg. Providers without credentials are
// skipped; the chains then fall through to their terminal values.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*app, error) {
	a := &app{metrics: metrics.New()}

	var observer fallback.Observer = a.metrics
	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			return nil, fmt.Errorf("sentry init: %w", err)
		}
		a.sentry = true
		observer = fallback.Observers(a.metrics, metrics.Sentry{Hub: sentry.CurrentHub()})
	}

	catalog, err := disease.Default()
	if err != nil {
		return nil, err
	}

	blobs, err := newBlobStore(ctx, cfg.Storage)
	if err != nil {
		return nil, err
	}
	a.speech = speech.New(speech.Config{
		Providers: speechProviders(cfg.Speech),
		Timeout:   cfg.Speech.Timeout.D(),
		Store:     blobs,
		URLPrefix: cfg.Speech.URLPrefix,
		CacheSize: cfg.Speech.CacheSize,
		Observer:  observer,
		Logger:    logger,
	})

	llmProviders, err := newLLMProviders(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, err
	}
	engine, err := chat.NewEngine(chat.Config{
		Catalog: catalog,
		LLM: llm.NewChain(llm.ChainConfig{
			Providers: llmProviders,
			Timeout:   cfg.LLM.Timeout.D(),
			System:    cfg.LLM.SystemPrompt,
			Observer:  observer,
			Logger:    logger,
		}),
		Translator: translate.New(translate.Config{
			Providers: translateProviders(cfg.Translate, logger),
			Timeout:   cfg.Translate.Timeout.D(),
			Observer:  observer,
			Logger:    logger,
		}),
		Voice:         a.speech,
		CacheSize:     cfg.Chat.CacheSize,
		ClarifyPrompt: cfg.Chat.ClarifyPrompt,
		Logger:        logger,
	})
	if err != nil {
		return nil, err
	}

	durable, err := openDurable(ctx, cfg.Predictions, logger)
	if err != nil {
		return nil, err
	}
	a.store = prediction.NewStore(prediction.StoreConfig{
		Durable:  durable,
		Timeout:  cfg.Predictions.Timeout.D(),
		Observer: observer,
		Logger:   logger,
	})

	a.assistant, err = assistant.New(assistant.Config{
		Catalog:    catalog,
		Classifier: newClassifier(cfg.Classifier, observer, logger),
		Store:      a.store,
		Chat:       engine,
		KeepImages: cfg.Predictions.KeepImages,
		Logger:     logger,
	})
	if err != nil {
		a.store.Close()
		return nil, err
	}

	a.metrics.RegisterCache(engine.Cache())
	a.metrics.RegisterCache(a.speech.Cache())
	return a, nil
}

// Close releases the durable tier and flushes error reports.
func (a *app) Close() error {
	if a.sentry {
		sentry.Flush(flushTimeout)
	}
	return a.store.Close()
}

func newBlobStore(ctx context.Context, sc config.Storage) (storage.Store, error) {
	switch sc.Kind {
	case config.StorageS3:
		var opts []func(*awsconfig.LoadOptions) error
		if sc.Region != "" {
			opts = append(opts, awsconfig.WithRegion(sc.Region))
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return storage.NewS3(s3.NewFromConfig(awsCfg), sc.Bucket, sc.Prefix), nil
	default:
		return storage.NewLocal(sc.Dir)
	}
}

func speechProviders(sc config.Speech) []speech.Provider {
	var ps []speech.Provider
	if sc.GoogleAPIKey != "" {
		ps = append(ps, speech.Provider{
			Name:        "google",
			Synthesizer: &speech.Google{APIKey: sc.GoogleAPIKey, HTTP: http.DefaultClient},
		})
	}
	if sc.OpenAIAPIKey != "" {
		client := openai.NewClient(option.WithAPIKey(sc.OpenAIAPIKey))
		ps = append(ps, speech.Provider{
			Name:        "openai",
			Synthesizer: &speech.OpenAI{Client: &client, Model: sc.OpenAIModel, Voice: sc.OpenAIVoice},
		})
	}
	return ps
}

func newLLMProviders(ctx context.Context, lc config.LLM, logger *slog.Logger) ([]llm.Provider, error) {
	var ps []llm.Provider
	for _, p := range lc.Providers {
		provider, err := llm.NewProvider(ctx, llm.Spec{
			Name:          p.Name,
			Kind:          p.Kind,
			APIKey:        p.APIKey,
			BaseURL:       p.BaseURL,
			Model:         p.Model,
			MaxTokens:     p.MaxTokens,
			UseSystemRole: p.UseSystemRole,
			Timeout:       p.Timeout.D(),
		}, nil)
		if errors.Is(err, llm.ErrNoAPIKey) {
			logger.Info("llm provider skipped", "provider", p.Name, "reason", "no api key")
			continue
		}
		if err != nil {
			return nil, err
		}
		ps = append(ps, provider)
	}
	return ps, nil
}

func translateProviders(tc config.Translate, logger *slog.Logger) []translate.Provider {
	var ps []translate.Provider
	if tc.GoogleAPIKey != "" {
		ps = append(ps, translate.Provider{
			Name:       "google",
			Translator: &translate.Google{APIKey: tc.GoogleAPIKey, HTTP: http.DefaultClient},
		})
	}
	ps = append(ps,
		translate.Provider{
			Name:       "libre",
			Translator: &translate.Libre{URL: tc.LibreURL, APIKey: tc.LibreAPIKey, HTTP: http.DefaultClient},
		},
		translate.Provider{
			Name:       "mymemory",
			Translator: &translate.MyMemory{Email: tc.MyMemoryEmail, HTTP: http.DefaultClient},
		},
	)
	if tc.Dictionary {
		d, err := translate.NewDictionary()
		if err != nil {
			logger.Warn("dictionary translator disabled", "error", err)
		} else {
			ps = append(ps, translate.Provider{Name: "dictionary", Translator: d})
		}
	}
	return ps
}

func openDurable(ctx context.Context, pc config.Predictions, logger *slog.Logger) (prediction.Durable, error) {
	switch pc.Driver {
	case "":
		return nil, nil
	case config.DriverBadger:
		b, err := prediction.OpenBadger(prediction.BadgerOptions{Dir: pc.Dir, Logger: logger})
		if err != nil {
			return nil, err
		}
		return b, nil
	default:
		s, err := prediction.OpenSQL(ctx, pc.Driver, pc.DSN)
		if errors.Is(err, prediction.ErrConnectivity) {
			// The store reconnects on the next write.
			logger.Warn("prediction database unreachable", "driver", pc.Driver, "error", err)
			return s, nil
		}
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// newClassifier returns nil when no Clarifai token is configured, which makes
// every classification fail with assistant.ErrClassifierUnavailable.
func newClassifier(cc config.Classifier, observer fallback.Observer, logger *slog.Logger) assistant.Classifier {
	if cc.PAT == "" {
		logger.Info("classifier disabled", "reason", "no clarifai pat")
		return nil
	}
	return classify.NewChain(classify.ChainConfig{
		Providers: []classify.Provider{{
			Name: "clarifai",
			Classifier: &classify.Clarifai{
				PAT:       cc.PAT,
				UserID:    cc.UserID,
				AppID:     cc.AppID,
				ModelID:   cc.ModelID,
				VersionID: cc.VersionID,
				URL:       cc.URL,
				HTTP:      http.DefaultClient,
			},
		}},
		Timeout:  cc.Timeout.D(),
		Observer: observer,
		Logger:   logger,
	})
}
