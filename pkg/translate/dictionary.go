package translate

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/goccy/go-yaml"
)

//go:embed data/terms.yaml
var termsYAML []byte

// ErrNoTerms is returned when the dictionary knows none of the words.
var ErrNoTerms = errors.New("translate: no known terms")

// Dictionary substitutes known crop terms word by word. It only covers a
// small vocabulary, so it succeeds only when at least one word changed.
type Dictionary struct {
	forward map[string]map[string]string // lang -> english -> local
	reverse map[string]map[string]string // lang -> local -> english
}

var _ Translator = (*Dictionary)(nil)

// NewDictionary loads the embedded vocabulary.
func NewDictionary() (*Dictionary, error) {
	return ParseDictionary(termsYAML)
}

// ParseDictionary loads a vocabulary keyed by base language, then English
// term.
func ParseDictionary(data []byte) (*Dictionary, error) {
	var terms map[string]map[string]string
	if err := yaml.Unmarshal(data, &terms); err != nil {
		return nil, fmt.Errorf("translate: parse dictionary: %w", err)
	}
	d := &Dictionary{
		forward: make(map[string]map[string]string, len(terms)),
		reverse: make(map[string]map[string]string, len(terms)),
	}
	for lang, m := range terms {
		fwd := make(map[string]string, len(m))
		rev := make(map[string]string, len(m))
		for en, local := range m {
			fwd[strings.ToLower(en)] = local
			rev[local] = en
		}
		d.forward[lang] = fwd
		d.reverse[lang] = rev
	}
	return d, nil
}

// Translate implements Translator.
func (d *Dictionary) Translate(_ context.Context, req Request) (string, error) {
	var table map[string]string
	switch {
	case req.Source == "en":
		table = d.forward[req.Target]
	case req.Target == "en":
		table = d.reverse[req.Source]
	}
	if table == nil {
		return "", fmt.Errorf("%w: %s to %s", ErrUnsupported, req.Source, req.Target)
	}
	out, n := substitute(req.Text, table)
	if n == 0 {
		return "", ErrNoTerms
	}
	return out, nil
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsMark(r) || unicode.IsDigit(r)
}

// substitute replaces every whole word found in table and reports how many
// words changed. Lookups try the word as written, then lowercased.
func substitute(text string, table map[string]string) (string, int) {
	var sb strings.Builder
	n := 0
	var word []rune
	flush := func() {
		if len(word) == 0 {
			return
		}
		w := string(word)
		if t, ok := table[w]; ok {
			sb.WriteString(t)
			n++
		} else if t, ok := table[strings.ToLower(w)]; ok {
			sb.WriteString(t)
			n++
		} else {
			sb.WriteString(w)
		}
		word = word[:0]
	}
	for _, r := range text {
		if isWordRune(r) {
			word = append(word, r)
			continue
		}
		flush()
		sb.WriteRune(r)
	}
	flush()
	return sb.String(), n
}
