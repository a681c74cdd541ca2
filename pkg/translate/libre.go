package translate

import (
	"context"
	"net/http"

	"github.com/haivivi/cropcare/pkg/rest"
)

// DefaultLibreURL is the public LibreTranslate instance.
const DefaultLibreURL = "https://translate.argosopentech.com"

// Libre translates through a LibreTranslate server.
type Libre struct {
	URL    string
	APIKey string
	HTTP   *http.Client
}

var _ Translator = (*Libre)(nil)

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

// Translate implements Translator.
func (l *Libre) Translate(ctx context.Context, req Request) (string, error) {
	base := l.URL
	if base == "" {
		base = DefaultLibreURL
	}
	c := &rest.Client{Service: "libretranslate", BaseURL: base, HTTP: l.HTTP}
	var resp struct {
		TranslatedText string `json:"translatedText"`
		Error          string `json:"error"`
	}
	err := c.Do(ctx, http.MethodPost, "/translate", nil, libreRequest{
		Q:      req.Text,
		Source: req.Source,
		Target: req.Target,
		Format: "text",
		APIKey: l.APIKey,
	}, &resp)
	if err != nil {
		return "", err
	}
	if resp.Error != "" {
		return "", &rest.Error{Service: "libretranslate", HTTPStatus: http.StatusOK, Body: resp.Error}
	}
	return resp.TranslatedText, nil
}
