// Package assistant is the public surface of the crop assistant: image
// classification with treatment advice, prediction history, disease
// knowledge and conversation.
package assistant

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/haivivi/cropcare/pkg/chat"
	"github.com/haivivi/cropcare/pkg/classify"
	"github.com/haivivi/cropcare/pkg/disease"
	"github.com/haivivi/cropcare/pkg/prediction"
)

var (
	// ErrNoImage is returned when a classification request has no image.
	ErrNoImage = errors.New("assistant: no image provided")

	// ErrClassifierUnavailable is returned when no classifier produced a
	// label.
	ErrClassifierUnavailable = errors.New("assistant: classifier unavailable")

	// ErrUnknownDisease is returned by DiseaseInfo for an unknown reference.
	ErrUnknownDisease = errors.New("assistant: unknown disease")
)

// Classifier returns the top label for an image. *classify.Chain
// implements it.
type Classifier interface {
	Classify(ctx context.Context, image []byte) (classify.Label, string, error)
}

// Config configures New.
type Config struct {
	Catalog    *disease.Catalog
	Classifier Classifier
	Store      *prediction.Store
	Chat       *chat.Engine

	// KeepImages stores the uploaded image as base64 with each prediction.
	KeepImages bool

	Logger *slog.Logger
}

// Service implements the assistant operations.
type Service struct {
	catalog    *disease.Catalog
	resolver   *disease.Resolver
	classifier Classifier
	store      *prediction.Store
	chat       *chat.Engine
	keepImages bool
	logger     *slog.Logger
}

// New creates a service. Catalog, Store and Chat are required.
func New(cfg Config) (*Service, error) {
	if cfg.Catalog == nil {
		return nil, errors.New("assistant: Catalog is required")
	}
	if cfg.Store == nil {
		return nil, errors.New("assistant: Store is required")
	}
	if cfg.Chat == nil {
		return nil, errors.New("assistant: Chat is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		catalog:    cfg.Catalog,
		resolver:   disease.NewResolver(cfg.Catalog),
		classifier: cfg.Classifier,
		store:      cfg.Store,
		chat:       cfg.Chat,
		keepImages: cfg.KeepImages,
		logger:     logger.With("component", "assistant"),
	}, nil
}

// Diagnosis is the result of classifying one image.
type Diagnosis struct {
	Prediction  prediction.Prediction `json:"prediction"`
	Label       string                `json:"label"`
	Confidence  float64               `json:"confidence"`
	Treatment   string                `json:"treatment"`
	Resolution  disease.Resolution    `json:"resolution"`
	Classifier  string                `json:"classifier"`
	StorageTier string                `json:"storage"`
}

// ClassifyImage labels image, resolves treatment advice for the top label
// and records the prediction for userID.
func (s *Service) ClassifyImage(ctx context.Context, userID, filename string, image []byte) (*Diagnosis, error) {
	if len(image) == 0 {
		return nil, ErrNoImage
	}
	if s.classifier == nil {
		return nil, ErrClassifierUnavailable
	}
	top, provider, err := s.classifier.Classify(ctx, image)
	if err != nil {
		if errors.Is(err, classify.ErrEmptyImage) {
			return nil, ErrNoImage
		}
		s.logger.WarnContext(ctx, "classification failed", "error", err)
		return nil, ErrClassifierUnavailable
	}

	res := s.resolver.Lookup(top.Name)
	draft := prediction.Draft{
		UserID:     userID,
		ImageName:  imageName(filename),
		Label:      top.Name,
		Confidence: top.Confidence(),
	}
	if s.keepImages {
		draft.ImageBase64 = base64.StdEncoding.EncodeToString(image)
	}
	p, tier := s.store.Record(ctx, draft)
	s.logger.InfoContext(ctx, "classified image",
		"user", p.UserID, "label", top.Name, "confidence", p.Confidence,
		"classifier", provider, "treatment_source", res.Source, "storage", tier)

	return &Diagnosis{
		Prediction:  p,
		Label:       top.Name,
		Confidence:  p.Confidence,
		Treatment:   res.Text,
		Resolution:  res,
		Classifier:  provider,
		StorageTier: tier,
	}, nil
}

// imageName returns a stored name for an upload: a fresh UUID keeping the
// upload's extension, ".jpg" when it has none.
func imageName(filename string) string {
	ext := strings.ToLower(path.Ext(strings.ReplaceAll(filename, `\`, "/")))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp", ".gif", ".bmp":
	default:
		ext = ".jpg"
	}
	return uuid.NewString() + ext
}

// History returns the user's predictions, newest first.
func (s *Service) History(ctx context.Context, userID string) []prediction.Prediction {
	return s.store.ListFor(ctx, userID)
}

// DiseaseInfo returns the knowledge entry for a key or free-form name.
func (s *Service) DiseaseInfo(ref string) (*disease.Entry, error) {
	if e, ok := s.catalog.Entry(ref); ok {
		return e, nil
	}
	return nil, ErrUnknownDisease
}

// Diseases returns every knowledge entry, sorted by key.
func (s *Service) Diseases() []*disease.Entry {
	return s.catalog.Entries()
}

// Treatment resolves treatment advice for a label or disease name.
func (s *Service) Treatment(label string) disease.Resolution {
	return s.resolver.Lookup(label)
}

// Converse answers a question in the given language.
func (s *Service) Converse(ctx context.Context, message, language string) chat.Turn {
	return s.chat.Converse(ctx, message, language)
}
