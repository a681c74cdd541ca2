package classify

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/haivivi/cropcare/pkg/rest"
)

// DefaultClarifaiURL is the Clarifai API root.
const DefaultClarifaiURL = "https://api.clarifai.com"

// clarifaiSuccess is Clarifai's status code for a successful call.
const clarifaiSuccess = 10000

// ErrNoPAT is returned when no personal access token is configured.
var ErrNoPAT = errors.New("classify: clarifai PAT not set")

// Clarifai calls a trained Clarifai model version over REST.
type Clarifai struct {
	PAT     string
	UserID  string
	AppID   string
	ModelID string
	// VersionID pins the model version. Empty uses the latest.
	VersionID string

	URL  string
	HTTP *http.Client
}

var _ Classifier = (*Clarifai)(nil)

type clarifaiStatus struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
	Details     string `json:"details,omitempty"`
}

type clarifaiRequest struct {
	Inputs []clarifaiInput `json:"inputs"`
}

type clarifaiInput struct {
	Data struct {
		Image struct {
			Base64 string `json:"base64"`
		} `json:"image"`
	} `json:"data"`
}

type clarifaiResponse struct {
	Status  clarifaiStatus `json:"status"`
	Outputs []struct {
		Status clarifaiStatus `json:"status"`
		Data   struct {
			Concepts []Label `json:"concepts"`
		} `json:"data"`
	} `json:"outputs"`
}

// StatusError is a Clarifai call that returned a non-success status.
type StatusError struct {
	Code        int
	Description string
	Details     string
}

func (e *StatusError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("clarifai: status %d: %s (%s)", e.Code, e.Description, e.Details)
	}
	return fmt.Sprintf("clarifai: status %d: %s", e.Code, e.Description)
}

func (c *Clarifai) path() string {
	p := "/v2/users/" + url.PathEscape(c.UserID) +
		"/apps/" + url.PathEscape(c.AppID) +
		"/models/" + url.PathEscape(c.ModelID)
	if c.VersionID != "" {
		p += "/versions/" + url.PathEscape(c.VersionID)
	}
	return p + "/outputs"
}

// Classify implements Classifier.
func (c *Clarifai) Classify(ctx context.Context, image []byte) ([]Label, error) {
	if c.PAT == "" {
		return nil, ErrNoPAT
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	base := c.URL
	if base == "" {
		base = DefaultClarifaiURL
	}
	client := &rest.Client{
		Service: "clarifai",
		BaseURL: base,
		HTTP:    c.HTTP,
		Header:  http.Header{"Authorization": {"Key " + c.PAT}},
	}

	var in clarifaiInput
	in.Data.Image.Base64 = base64.StdEncoding.EncodeToString(image)
	var resp clarifaiResponse
	if err := client.Do(ctx, http.MethodPost, c.path(), nil, clarifaiRequest{Inputs: []clarifaiInput{in}}, &resp); err != nil {
		return nil, err
	}
	if resp.Status.Code != clarifaiSuccess {
		return nil, &StatusError{Code: resp.Status.Code, Description: resp.Status.Description, Details: resp.Status.Details}
	}
	if len(resp.Outputs) == 0 || len(resp.Outputs[0].Data.Concepts) == 0 {
		return nil, ErrNoLabels
	}
	return resp.Outputs[0].Data.Concepts, nil
}
