package speech

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/haivivi/cropcare/pkg/rest"
	"github.com/haivivi/cropcare/pkg/translate"
)

// DefaultGoogleURL is the Cloud Text-to-Speech REST endpoint.
const DefaultGoogleURL = "https://texttospeech.googleapis.com/v1"

// ErrNoAPIKey is returned by Google when no key is configured.
var ErrNoAPIKey = errors.New("speech: no api key")

// Google synthesizes through Cloud Text-to-Speech with the voice mapped to
// each supported language.
type Google struct {
	APIKey string
	URL    string
	HTTP   *http.Client
}

var _ Synthesizer = (*Google)(nil)

type googleVoice struct {
	LanguageCode string `json:"languageCode"`
	Name         string `json:"name,omitempty"`
}

type googleRequest struct {
	Input struct {
		Text string `json:"text"`
	} `json:"input"`
	Voice       googleVoice `json:"voice"`
	AudioConfig struct {
		AudioEncoding string `json:"audioEncoding"`
	} `json:"audioConfig"`
}

// Synthesize implements Synthesizer.
func (g *Google) Synthesize(ctx context.Context, req Request) ([]byte, error) {
	if g.APIKey == "" {
		return nil, ErrNoAPIKey
	}
	base := g.URL
	if base == "" {
		base = DefaultGoogleURL
	}

	var body googleRequest
	body.Input.Text = req.Text
	body.Voice = googleVoice{LanguageCode: "en-US", Name: "en-US-Neural2-F"}
	if l, ok := translate.LookupLanguage(req.Language); ok {
		body.Voice = googleVoice{LanguageCode: l.Tag, Name: l.Voice}
	}
	body.AudioConfig.AudioEncoding = "MP3"

	c := &rest.Client{Service: "google-tts", BaseURL: base, HTTP: g.HTTP}
	var resp struct {
		AudioContent []byte `json:"audioContent"`
	}
	if err := c.Do(ctx, http.MethodPost, "/text:synthesize", url.Values{"key": {g.APIKey}}, body, &resp); err != nil {
		return nil, err
	}
	return resp.AudioContent, nil
}
