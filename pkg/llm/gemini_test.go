package llm

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/genai"
)

func TestClassifyGeminiAPIError(t *testing.T) {
	quota := genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded"}
	for _, err := range []error{quota, fmt.Errorf("generate: %w", quota)} {
		if got := classifyGemini(err); !errors.Is(got, ErrRateLimited) {
			t.Errorf("classifyGemini(%v) = %v, want ErrRateLimited", err, got)
		}
	}

	bad := genai.APIError{Code: http.StatusBadRequest, Message: "bad request"}
	if got := classifyGemini(bad); errors.Is(got, ErrRateLimited) {
		t.Errorf("classifyGemini(400) = %v, should not be rate limited", got)
	}
}
