package intent

import (
	"strings"
	"unicode"
)

// stopwords is the English stopword list applied before classification.
// Question words are included, so "what causes scab" keys on "cause".
var stopwords = toSet(`
a about above after again against all am an and any are aren't as at be because been before being below between both but by
can can't cannot could couldn't did didn't do does doesn't doing don't down during each few for from further had hadn't has
hasn't have haven't having he her here hers herself him himself his how i if in into is isn't it it's its itself just let's
me more most mustn't my myself no nor not now of off on once only or other ought our ours ourselves out over own same shan't
she should shouldn't so some such than that that's the their theirs them themselves then there there's these they this
those through to too under until up very was wasn't we were weren't what what's when where which while who whom why will with
won't would wouldn't you your yours yourself yourselves
`)

func toSet(list string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(list) {
		set[w] = true
	}
	return set
}

// keep marks stopwords that carry meaning for intent detection.
var keep = map[string]bool{"about": true}

// Normalize lowercases text, splits it into word tokens, removes stopwords
// and reduces plural nouns to their singular form. Tokens are joined with
// single spaces.
func Normalize(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, "'")
		if f == "" || (stopwords[f] && !keep[f]) {
			continue
		}
		out = append(out, Lemma(f))
	}
	return strings.Join(out, " ")
}

var irregular = map[string]string{
	"leaves":   "leaf",
	"mice":     "mouse",
	"children": "child",
	"fungi":    "fungus",
	"bacteria": "bacterium",
	"women":    "woman",
	"men":      "man",
	"feet":     "foot",
	"teeth":    "tooth",
}

// Lemma reduces a lowercase noun to its singular form using a small set of
// English suffix rules.
func Lemma(w string) string {
	if s, ok := irregular[w]; ok {
		return s
	}
	n := len(w)
	switch {
	case n <= 3:
		return w
	case strings.HasSuffix(w, "ies") && n > 4:
		return w[:n-3] + "y"
	case strings.HasSuffix(w, "sses"), strings.HasSuffix(w, "shes"), strings.HasSuffix(w, "ches"),
		strings.HasSuffix(w, "xes"), strings.HasSuffix(w, "zes"), strings.HasSuffix(w, "oes"):
		return w[:n-2]
	case strings.HasSuffix(w, "ss"), strings.HasSuffix(w, "us"), strings.HasSuffix(w, "is"):
		return w
	case strings.HasSuffix(w, "s"):
		return w[:n-1]
	}
	return w
}
