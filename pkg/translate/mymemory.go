package translate

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/haivivi/cropcare/pkg/rest"
)

// DefaultMyMemoryURL is the public MyMemory endpoint.
const DefaultMyMemoryURL = "https://api.mymemory.translated.net"

// MyMemory translates through the MyMemory API. Email raises the anonymous
// daily quota when set.
type MyMemory struct {
	URL   string
	Email string
	HTTP  *http.Client
}

var _ Translator = (*MyMemory)(nil)

// Translate implements Translator.
func (m *MyMemory) Translate(ctx context.Context, req Request) (string, error) {
	base := m.URL
	if base == "" {
		base = DefaultMyMemoryURL
	}
	c := &rest.Client{Service: "mymemory", BaseURL: base, HTTP: m.HTTP}
	q := url.Values{
		"q":        {req.Text},
		"langpair": {req.Source + "|" + req.Target},
	}
	if m.Email != "" {
		q.Set("de", m.Email)
	}
	var resp struct {
		ResponseData struct {
			TranslatedText string `json:"translatedText"`
		} `json:"responseData"`
		ResponseStatus  any    `json:"responseStatus"`
		ResponseDetails string `json:"responseDetails"`
	}
	if err := c.Do(ctx, http.MethodGet, "/get", q, nil, &resp); err != nil {
		return "", err
	}
	// responseStatus is a number on success and sometimes a string on error.
	if s := fmt.Sprint(resp.ResponseStatus); s != "200" {
		return "", fmt.Errorf("mymemory: status %s: %s", s, resp.ResponseDetails)
	}
	return resp.ResponseData.TranslatedText, nil
}
