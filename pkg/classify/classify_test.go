package classify_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haivivi/cropcare/pkg/classify"
	"github.com/haivivi/cropcare/pkg/fallback"
)

func TestTop(t *testing.T) {
	if _, ok := classify.Top(nil); ok {
		t.Fatal("Top(nil) ok = true")
	}
	got, ok := classify.Top([]classify.Label{
		{Name: "Apple___healthy", Score: 0.2},
		{Name: "Apple___Apple_scab", Score: 0.7},
		{Name: "Apple___Black_rot", Score: 0.7},
	})
	if !ok || got.Name != "Apple___Apple_scab" {
		t.Fatalf("Top = %+v, want Apple___Apple_scab", got)
	}
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		score float64
		want  float64
	}{
		{0.87654, 87.65},
		{1, 100},
		{0, 0},
		{0.123449, 12.34},
	}
	for _, tt := range tests {
		if got := (classify.Label{Score: tt.score}).Confidence(); got != tt.want {
			t.Errorf("Confidence(%v) = %v, want %v", tt.score, got, tt.want)
		}
	}
}

func newClarifai(t *testing.T, h http.HandlerFunc) *classify.Clarifai {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &classify.Clarifai{
		PAT:       "pat-123",
		UserID:    "user",
		AppID:     "CropCareProject",
		ModelID:   "CC",
		VersionID: "v1",
		URL:       srv.URL,
		HTTP:      srv.Client(),
	}
}

func TestClarifai(t *testing.T) {
	image := []byte("\xff\xd8jpeg")
	c := newClarifai(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if want := "/v2/users/user/apps/CropCareProject/models/CC/versions/v1/outputs"; r.URL.Path != want {
			t.Errorf("path = %s, want %s", r.URL.Path, want)
		}
		if got := r.Header.Get("Authorization"); got != "Key pat-123" {
			t.Errorf("Authorization = %q", got)
		}
		var body struct {
			Inputs []struct {
				Data struct {
					Image struct {
						Base64 string `json:"base64"`
					} `json:"image"`
				} `json:"data"`
			} `json:"inputs"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if len(body.Inputs) != 1 || body.Inputs[0].Data.Image.Base64 != base64.StdEncoding.EncodeToString(image) {
			t.Errorf("body = %+v", body)
		}
		w.Write([]byte(`{"status":{"code":10000,"description":"Ok"},"outputs":[{"data":{"concepts":[
			{"name":"Tomato___Late_blight","value":0.91},{"name":"Tomato___healthy","value":0.05}]}}]}`))
	})

	labels, err := c.Classify(context.Background(), image)
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if len(labels) != 2 || labels[0].Name != "Tomato___Late_blight" || labels[0].Score != 0.91 {
		t.Fatalf("labels = %+v", labels)
	}
}

func TestClarifaiStatusError(t *testing.T) {
	c := newClarifai(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":{"code":11102,"description":"Invalid request","details":"bad image"}}`))
	})
	_, err := c.Classify(context.Background(), []byte("x"))
	var se *classify.StatusError
	if !errors.As(err, &se) || se.Code != 11102 {
		t.Fatalf("Classify = %v, want StatusError 11102", err)
	}
}

func TestClarifaiNoPAT(t *testing.T) {
	c := &classify.Clarifai{}
	if _, err := c.Classify(context.Background(), []byte("x")); !errors.Is(err, classify.ErrNoPAT) {
		t.Fatalf("Classify = %v, want ErrNoPAT", err)
	}
}

type fakeClassifier struct {
	labels []classify.Label
	err    error
}

func (f fakeClassifier) Classify(context.Context, []byte) ([]classify.Label, error) {
	return f.labels, f.err
}

func TestChain(t *testing.T) {
	c := classify.NewChain(classify.ChainConfig{Providers: []classify.Provider{
		{Name: "broken", Classifier: fakeClassifier{err: errors.New("quota")}},
		{Name: "empty", Classifier: fakeClassifier{}},
		{Name: "good", Classifier: fakeClassifier{labels: []classify.Label{
			{Name: "a", Score: 0.1}, {Name: "b", Score: 0.8},
		}}},
	}})
	top, provider, err := c.Classify(context.Background(), []byte("img"))
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if provider != "good" || top.Name != "b" {
		t.Fatalf("Classify = %+v via %s, want b via good", top, provider)
	}
}

func TestChainExhausted(t *testing.T) {
	c := classify.NewChain(classify.ChainConfig{Providers: []classify.Provider{
		{Name: "broken", Classifier: fakeClassifier{err: errors.New("down")}},
	}})
	_, provider, err := c.Classify(context.Background(), []byte("img"))
	if !errors.Is(err, classify.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
	if provider != fallback.ProviderNone {
		t.Fatalf("provider = %q, want %q", provider, fallback.ProviderNone)
	}
}

func TestChainEmptyImage(t *testing.T) {
	c := classify.NewChain(classify.ChainConfig{})
	if _, _, err := c.Classify(context.Background(), nil); !errors.Is(err, classify.ErrEmptyImage) {
		t.Fatalf("err = %v, want ErrEmptyImage", err)
	}
}
