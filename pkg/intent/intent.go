// Package intent normalizes user questions and classifies what the user
// wants to know about a disease.
package intent

import "strings"

// Intent is what the user asks about.
type Intent string

const (
	None        Intent = ""
	Description Intent = "description"
	Causes      Intent = "causes"
	Symptoms    Intent = "symptoms"
	Treatment   Intent = "treatment"
	Prevention  Intent = "prevention"
)

func (i Intent) String() string {
	if i == None {
		return "none"
	}
	return string(i)
}

type rule struct {
	intent   Intent
	keywords []string
}

// rules are checked in order; the first rule with a matching keyword wins.
// Treatment comes first so that "what causes scab and how do I treat it"
// is answered with treatment advice.
var rules = []rule{
	{Treatment, []string{"treat", "cure", "curing", "fix", "heal", "remedy", "remedies", "solution", "manage", "control", "spray"}},
	{Description, []string{"describe", "description", "explain", "tell", "define", "definition", "overview", "about"}},
	{Causes, []string{"cause", "reason", "origin", "pathogen", "spread", "source"}},
	{Symptoms, []string{"symptom", "sign", "identify", "look", "appear", "recognize", "detect"}},
	{Prevention, []string{"prevent", "avoid", "stop", "protect", "precaution"}},
}

// suffixes are the inflections a keyword may carry, so "treat" covers
// "treatment" and "treating" but "heal" does not cover "healthy".
var suffixes = map[string]bool{
	"": true, "s": true, "es": true, "d": true, "ed": true, "ing": true,
	"ment": true, "ments": true, "ion": true, "ions": true, "al": true,
	"ance": true, "ive": true, "ative": true,
}

func matches(tok, kw string) bool {
	rest, ok := strings.CutPrefix(tok, kw)
	return ok && suffixes[rest]
}

// Classify returns the intent of normalized text, as produced by
// Normalize.
func Classify(normalized string) Intent {
	tokens := strings.Fields(normalized)
	for _, r := range rules {
		for _, kw := range r.keywords {
			for _, tok := range tokens {
				if matches(tok, kw) {
					return r.intent
				}
			}
		}
	}
	return None
}

// Topic is a general gardening subject answered without a specific disease.
type Topic string

const (
	TopicNone       Topic = ""
	TopicTreatment  Topic = "treatment"
	TopicPrevention Topic = "prevention"
	TopicNutrition  Topic = "nutrition"
	TopicPests      Topic = "pests"
	TopicWatering   Topic = "watering"
	TopicSoil       Topic = "soil"
	TopicGreeting   Topic = "greeting"
)

var topics = []struct {
	topic Topic
	words []string
}{
	{TopicTreatment, []string{"treatment", "remedy", "remedies"}},
	{TopicPrevention, []string{"prevention", "prevent"}},
	{TopicNutrition, []string{"fertilizer", "fertilize", "fertiliser", "nutrient", "feed"}},
	{TopicPests, []string{"pest", "insect", "bug", "aphid", "mite"}},
	{TopicWatering, []string{"water", "watering", "irrigation", "irrigate", "moisture", "dry"}},
	{TopicSoil, []string{"soil", "compost", "mulch", "dirt"}},
	{TopicGreeting, []string{"hello", "hi", "hey", "greeting", "namaste"}},
}

// ClassifyTopic returns the general subject of normalized text. Words must
// match whole tokens.
func ClassifyTopic(normalized string) Topic {
	tokens := make(map[string]bool)
	for _, tok := range strings.Fields(normalized) {
		tokens[tok] = true
	}
	for _, t := range topics {
		for _, w := range t.words {
			if tokens[w] {
				return t.topic
			}
		}
	}
	return TopicNone
}
