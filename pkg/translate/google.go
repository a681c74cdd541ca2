package translate

import (
	"context"
	"html"
	"net/http"
	"net/url"

	"github.com/haivivi/cropcare/pkg/rest"
)

// DefaultGoogleURL is the Cloud Translation v2 endpoint.
const DefaultGoogleURL = "https://translation.googleapis.com/language/translate/v2"

// Google translates through the Cloud Translation v2 REST API. It fails
// fast with ErrNoAPIKey when no key is configured.
type Google struct {
	APIKey string
	URL    string
	HTTP   *http.Client
}

var _ Translator = (*Google)(nil)

type googleResponse struct {
	Data struct {
		Translations []struct {
			TranslatedText string `json:"translatedText"`
		} `json:"translations"`
	} `json:"data"`
}

// Translate implements Translator.
func (g *Google) Translate(ctx context.Context, req Request) (string, error) {
	if g.APIKey == "" {
		return "", ErrNoAPIKey
	}
	base := g.URL
	if base == "" {
		base = DefaultGoogleURL
	}
	c := &rest.Client{Service: "google-translate", BaseURL: base, HTTP: g.HTTP}
	body := map[string]string{
		"q":      req.Text,
		"source": req.Source,
		"target": req.Target,
		"format": "text",
	}
	var resp googleResponse
	if err := c.Do(ctx, http.MethodPost, "", url.Values{"key": {g.APIKey}}, body, &resp); err != nil {
		return "", err
	}
	if len(resp.Data.Translations) == 0 {
		return "", ErrEmpty
	}
	return html.UnescapeString(resp.Data.Translations[0].TranslatedText), nil
}
