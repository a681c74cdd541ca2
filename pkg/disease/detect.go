package disease

import (
	"slices"
	"strings"
)

type phrase struct {
	text string
	key  Key
}

// buildPhrases lists every way a knowledge entry may be written in free
// text, longest first so that "cedar apple rust" wins over "rust".
func buildPhrases(entries map[Key]*Entry, aliases map[string]string) []phrase {
	seen := make(map[string]bool)
	var out []phrase
	add := func(text string, k Key) {
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, phrase{text: text, key: k})
	}
	for k, e := range entries {
		add(Comparable(e.Name), k)
		add(Compact(e.Name), k)
		add(Comparable(string(k)), k)
	}
	for name, target := range aliases {
		add(Comparable(name), Key(target))
		add(Compact(name), Key(target))
	}
	slices.SortFunc(out, func(a, b phrase) int {
		if d := len(b.text) - len(a.text); d != 0 {
			return d
		}
		return strings.Compare(a.text, b.text)
	})
	return out
}

// Detect returns the first knowledge entry mentioned in text. Phrases are
// matched on word boundaries against the comparable form of text.
func (c *Catalog) Detect(text string) (Key, bool) {
	padded := " " + Comparable(text) + " "
	for _, p := range c.phrases {
		if strings.Contains(padded, " "+p.text+" ") {
			return p.key, true
		}
	}
	return "", false
}
