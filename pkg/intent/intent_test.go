package intent_test

import (
	"testing"

	"github.com/haivivi/cropcare/pkg/intent"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"What causes Apple Scab?", "cause apple scab"},
		{"How do I treat powdery mildew on my tomatoes", "treat powdery mildew tomato"},
		{"Tell me about the leaves", "tell about leaf"},
		{"Why are there spots, on the varieties?!", "spot variety"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := intent.Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLemma(t *testing.T) {
	tests := map[string]string{
		"causes":    "cause",
		"leaves":    "leaf",
		"varieties": "variety",
		"potatoes":  "potato",
		"citrus":    "citrus",
		"grass":     "grass",
		"bus":       "bus",
		"symptoms":  "symptom",
	}
	for in, want := range tests {
		if got := intent.Lemma(in); got != want {
			t.Errorf("Lemma(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		text string
		want intent.Intent
	}{
		{"what causes apple scab", intent.Causes},
		{"describe late blight", intent.Description},
		{"tell me about rust", intent.Description},
		{"what are the symptoms of early blight", intent.Symptoms},
		{"what does leaf curl look like", intent.Symptoms},
		{"how to cure citrus greening", intent.Treatment},
		{"treatment for bacterial spot", intent.Treatment},
		{"how can I prevent black spot", intent.Prevention},
		{"is my plant healthy", intent.None},
		{"apple scab", intent.None},
	}
	for _, tt := range tests {
		if got := intent.Classify(intent.Normalize(tt.text)); got != tt.want {
			t.Errorf("Classify(%q) = %s, want %s", tt.text, got, tt.want)
		}
	}
}

func TestClassifyTreatmentWins(t *testing.T) {
	text := intent.Normalize("what causes apple scab and how do I treat it")
	if got := intent.Classify(text); got != intent.Treatment {
		t.Fatalf("Classify = %s, want treatment", got)
	}
}

func TestClassifyTopic(t *testing.T) {
	tests := []struct {
		text string
		want intent.Topic
	}{
		{"best fertilizer for wheat", intent.TopicNutrition},
		{"aphids on my beans", intent.TopicPests},
		{"how often should I water", intent.TopicWatering},
		{"improve clay soil", intent.TopicSoil},
		{"hello", intent.TopicGreeting},
		{"any remedies", intent.TopicTreatment},
		{"prevention tips", intent.TopicPrevention},
		{"what is photosynthesis", intent.TopicNone},
	}
	for _, tt := range tests {
		if got := intent.ClassifyTopic(intent.Normalize(tt.text)); got != tt.want {
			t.Errorf("ClassifyTopic(%q) = %q, want %q", tt.text, got, tt.want)
		}
	}
}

func TestIntentString(t *testing.T) {
	if intent.None.String() != "none" || intent.Causes.String() != "causes" {
		t.Fatal("unexpected String values")
	}
}
