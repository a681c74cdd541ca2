package chat_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/haivivi/cropcare/pkg/chat"
	"github.com/haivivi/cropcare/pkg/disease"
	"github.com/haivivi/cropcare/pkg/fallback"
	"github.com/haivivi/cropcare/pkg/intent"
)

type fakeLLM struct {
	mu       sync.Mutex
	answer   string
	provider string
	prompts  []string
	ctxErrs  []error
}

func (f *fakeLLM) Configured() bool { return f != nil }

func (f *fakeLLM) Ask(ctx context.Context, prompt string) (string, string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.ctxErrs = append(f.ctxErrs, ctx.Err())
	return f.answer, f.provider
}

func (f *fakeLLM) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

// fakeTranslator maps known sentences to English and tags replies with the
// target language.
type fakeTranslator struct {
	toEnglish map[string]string
}

func (f fakeTranslator) Translate(_ context.Context, text, src, dst string) (string, string) {
	if strings.HasPrefix(dst, "en") {
		if s, ok := f.toEnglish[text]; ok {
			return s, "fake"
		}
		return text, fallback.ProviderNone
	}
	return "[" + dst + "] " + text, "fake"
}

type fakeVoice struct{ url string }

func (f fakeVoice) AudioURL(context.Context, string, string) string { return f.url }

func newCatalog(t *testing.T) *disease.Catalog {
	t.Helper()
	c, err := disease.Default()
	if err != nil {
		t.Fatalf("disease.Default: %v", err)
	}
	return c
}

func newEngine(t *testing.T, cfg chat.Config) *chat.Engine {
	t.Helper()
	if cfg.Catalog == nil {
		cfg.Catalog = newCatalog(t)
	}
	e, err := chat.NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestConverseKnowledge(t *testing.T) {
	c := newCatalog(t)
	e := newEngine(t, chat.Config{Catalog: c})
	scab, _ := c.Lookup("apple_scab")
	blight, _ := c.Lookup("late_blight")
	ctx := context.Background()

	tests := []struct {
		name     string
		msg      string
		want     string
		provider string
		intent   intent.Intent
	}{
		{"causes", "What causes apple scab?", scab.Causes, chat.ProviderKnowledge, intent.Causes},
		{"symptoms", "What are the symptoms of late blight", blight.Symptoms, chat.ProviderKnowledge, intent.Symptoms},
		{"prevention", "How can I prevent applescab", scab.Prevention, chat.ProviderKnowledge, intent.Prevention},
		{"summary", "apple scab", scab.Summary(), chat.ProviderKnowledge, intent.None},
		{"treatment", "How do I treat apple scab?", disease.NewResolver(c).Resolve("apple_scab"), chat.ProviderTreatment, intent.Treatment},
		{"treatment wins", "What causes apple scab and how do I cure it", disease.NewResolver(c).Resolve("apple_scab"), chat.ProviderTreatment, intent.Treatment},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			turn := e.Converse(ctx, tt.msg, "en-US")
			if turn.Response != tt.want {
				t.Errorf("Response = %q, want %q", turn.Response, tt.want)
			}
			if turn.Provider != tt.provider {
				t.Errorf("Provider = %q, want %q", turn.Provider, tt.provider)
			}
			if turn.Intent != tt.intent {
				t.Errorf("Intent = %v, want %v", turn.Intent, tt.intent)
			}
		})
	}
}

func TestConverseTopics(t *testing.T) {
	e := newEngine(t, chat.Config{})
	ctx := context.Background()
	tests := []struct {
		msg   string
		topic intent.Topic
	}{
		{"hello", intent.TopicGreeting},
		{"Which fertilizer should I use?", intent.TopicNutrition},
		{"How often should I water my tomatoes", intent.TopicWatering},
		{"aphids on my beans", intent.TopicPests},
		{"how to improve soil", intent.TopicSoil},
	}
	for _, tt := range tests {
		turn := e.Converse(ctx, tt.msg, "")
		want, _ := chat.TopicAnswer(tt.topic)
		if turn.Topic != tt.topic || turn.Response != want {
			t.Errorf("Converse(%q) = topic %q %q, want topic %q", tt.msg, turn.Topic, turn.Response, tt.topic)
		}
		if turn.Language != chat.DefaultLanguage {
			t.Errorf("Language = %q, want %q", turn.Language, chat.DefaultLanguage)
		}
	}
}

func TestConverseClarifyWithoutLLM(t *testing.T) {
	e := newEngine(t, chat.Config{})
	turn := e.Converse(context.Background(), "quantum chromodynamics", "en-US")
	if turn.Response != chat.DefaultClarifyPrompt || turn.Provider != chat.ProviderClarify {
		t.Fatalf("Converse = %q via %q, want clarify prompt", turn.Response, turn.Provider)
	}
}

func TestConverseLLM(t *testing.T) {
	llm := &fakeLLM{answer: "Rotate your beans.", provider: "gpt-4o"}
	e := newEngine(t, chat.Config{LLM: llm})

	turn := e.Converse(context.Background(), "Best time to plant beans in July", "en-US")
	if turn.Response != "Rotate your beans." || turn.Provider != "gpt-4o" {
		t.Fatalf("Converse = %q via %q", turn.Response, turn.Provider)
	}
	if llm.prompts[0] != "Best time to plant beans in July" {
		t.Fatalf("prompt = %q", llm.prompts[0])
	}
}

func TestConverseLLMExhausted(t *testing.T) {
	llm := &fakeLLM{answer: "Sorry, try later.", provider: fallback.ProviderNone}
	e := newEngine(t, chat.Config{LLM: llm})

	turn := e.Converse(context.Background(), "Best time to plant beans", "en-US")
	if turn.Response != "Sorry, try later." || turn.Provider != fallback.ProviderNone {
		t.Fatalf("Converse = %q via %q, want the apology", turn.Response, turn.Provider)
	}
}

func TestConverseCaches(t *testing.T) {
	llm := &fakeLLM{answer: "Plant in spring.", provider: "gpt-4o"}
	e := newEngine(t, chat.Config{LLM: llm})
	ctx := context.Background()

	e.Converse(ctx, "When to plant beans", "en-US")
	e.Converse(ctx, "  when TO plant beans ", "en-US")
	if llm.calls() != 1 {
		t.Fatalf("LLM calls = %d, want 1", llm.calls())
	}
	e.Converse(ctx, "When to plant beans", "hi-IN")
	if llm.calls() != 2 {
		t.Fatalf("LLM calls = %d, want 2 after a new language", llm.calls())
	}
	if got := e.Cache().Len(); got != 2 {
		t.Fatalf("cache Len = %d, want 2", got)
	}
}

func TestConverseTranslates(t *testing.T) {
	c := newCatalog(t)
	tr := fakeTranslator{toEnglish: map[string]string{
		"सेब की पपड़ी का कारण क्या है": "What causes apple scab",
	}}
	e := newEngine(t, chat.Config{Catalog: c, Translator: tr})
	scab, _ := c.Lookup("apple_scab")

	turn := e.Converse(context.Background(), "सेब की पपड़ी का कारण क्या है", "hi-IN")
	if turn.English != "What causes apple scab" {
		t.Errorf("English = %q", turn.English)
	}
	if turn.Disease != "apple_scab" || turn.Intent != intent.Causes {
		t.Errorf("Disease, Intent = %q, %v", turn.Disease, turn.Intent)
	}
	if want := "[hi-IN] " + scab.Causes; turn.Response != want {
		t.Errorf("Response = %q, want %q", turn.Response, want)
	}
}

func TestConverseTranslationFailureKeepsText(t *testing.T) {
	e := newEngine(t, chat.Config{Translator: fakeTranslator{}})
	turn := e.Converse(context.Background(), "hello", "te-IN")
	want, _ := chat.TopicAnswer(intent.TopicGreeting)
	if turn.Response != "[te-IN] "+want {
		t.Fatalf("Response = %q", turn.Response)
	}
}

func TestConverseDetachedFromCancel(t *testing.T) {
	llm := &fakeLLM{answer: "ok", provider: "gpt-4o"}
	e := newEngine(t, chat.Config{LLM: llm})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	turn := e.Converse(ctx, "something new", "en-US")
	if turn.Response != "ok" {
		t.Fatalf("Response = %q, want ok", turn.Response)
	}
	if llm.ctxErrs[0] != nil {
		t.Fatalf("LLM saw ctx error %v", llm.ctxErrs[0])
	}
}

func TestConverseVoice(t *testing.T) {
	e := newEngine(t, chat.Config{Voice: fakeVoice{url: "/static/tts/tts_1.mp3"}})
	turn := e.Converse(context.Background(), "hello", "en-US")
	if turn.AudioURL != "/static/tts/tts_1.mp3" {
		t.Fatalf("AudioURL = %q", turn.AudioURL)
	}

	e = newEngine(t, chat.Config{Voice: fakeVoice{}})
	if turn := e.Converse(context.Background(), "hello", "en-US"); turn.AudioURL != "" {
		t.Fatalf("AudioURL = %q, want empty", turn.AudioURL)
	}
}

func TestConverseNeverEmpty(t *testing.T) {
	e := newEngine(t, chat.Config{LLM: &fakeLLM{provider: "gpt-4o"}})
	for _, msg := range []string{"", "   ", "?!", "plant things"} {
		if turn := e.Converse(context.Background(), msg, "en-US"); strings.TrimSpace(turn.Response) == "" {
			t.Errorf("Converse(%q) returned an empty response", msg)
		}
	}
}
