package disease

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Separator divides the crop from the disease type in classifier labels,
// as in "Tomato___Late_blight".
const Separator = "___"

// Minimum lengths for partial matches. Shorter fragments match too much.
const (
	minPartialRunes = 3
	minCompactRunes = 5
)

// Tier reports which rule produced a match.
type Tier int

const (
	TierNone      Tier = iota
	TierAlias          // literal alias list
	TierExact          // raw string is a key
	TierCandidate      // a normalized candidate equals a key form
	TierPartial        // substring containment with a key
	TierSimilar        // only the disease type matched
)

func (t Tier) String() string {
	switch t {
	case TierAlias:
		return "alias"
	case TierExact:
		return "exact"
	case TierCandidate:
		return "candidate"
	case TierPartial:
		return "partial"
	case TierSimilar:
		return "similar"
	}
	return "none"
}

// Candidates returns the lookup candidates for raw in a fixed order without
// duplicates: the identity, triple underscores collapsed, underscores as
// spaces, the lowercase form of each, then the comparable and compact forms.
func Candidates(raw string) []string {
	raw = strings.TrimSpace(raw)
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	single := strings.ReplaceAll(raw, Separator, "_")
	spaced := strings.Join(strings.Fields(strings.ReplaceAll(single, "_", " ")), " ")
	forms := []string{raw, single, spaced}
	for _, s := range forms {
		add(s)
	}
	for _, s := range forms {
		add(strings.ToLower(s))
	}
	add(Comparable(raw))
	add(Compact(raw))
	return out
}

func words(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// Comparable lowercases s and turns every run of non-alphanumerics into a
// single space: "Corn_(maize)___Common_rust_" becomes "corn maize common rust".
func Comparable(s string) string {
	return strings.Join(words(s), " ")
}

// Compact is Comparable without spaces: "Apple scab" becomes "applescab".
func Compact(s string) string {
	return strings.Join(words(s), "")
}

// DiseaseType returns the part of a classifier label after the separator.
func DiseaseType(raw string) (string, bool) {
	_, typ, ok := strings.Cut(raw, Separator)
	if !ok || strings.Trim(typ, "_ ") == "" {
		return "", false
	}
	return typ, true
}

// Display formats a key or label for people: "Tomato___Late_blight"
// becomes "Tomato Late blight".
func Display(s string) string {
	s = strings.ReplaceAll(s, Separator, " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Match is the result of an index lookup.
type Match struct {
	Key  Key
	Tier Tier
}

// Index resolves surface variants against the keys of one table.
type Index struct {
	keys []Key

	exact   map[string]Key
	forms   map[string]Key
	aliases map[string]Key

	comparable []string // per key
	compact    []string // per key
	types      []string // comparable disease type per key
}

// NewIndex indexes keys. Aliases map a surface name to a key and are
// matched on their compact form.
func NewIndex(keys []Key, aliases map[string]Key) *Index {
	ix := &Index{
		keys:       keys,
		exact:      make(map[string]Key, len(keys)),
		forms:      make(map[string]Key, 2*len(keys)),
		aliases:    make(map[string]Key, len(aliases)),
		comparable: make([]string, len(keys)),
		compact:    make([]string, len(keys)),
		types:      make([]string, len(keys)),
	}
	for i, k := range keys {
		s := string(k)
		ix.exact[s] = k
		ix.comparable[i] = Comparable(s)
		ix.compact[i] = Compact(s)
		for _, f := range []string{ix.comparable[i], ix.compact[i]} {
			if _, dup := ix.forms[f]; !dup && f != "" {
				ix.forms[f] = k
			}
		}
		if typ, ok := DiseaseType(s); ok {
			ix.types[i] = Comparable(typ)
		} else {
			ix.types[i] = ix.comparable[i]
		}
	}
	for name, k := range aliases {
		ix.aliases[Compact(name)] = k
	}
	return ix
}

// Keys returns the indexed keys in sorted order.
func (ix *Index) Keys() []Key { return ix.keys }

// Lookup applies the alias, exact, candidate and partial rules in order.
func (ix *Index) Lookup(raw string) (Match, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Match{}, false
	}
	if k, ok := ix.aliases[Compact(raw)]; ok {
		return Match{Key: k, Tier: TierAlias}, true
	}
	if k, ok := ix.exact[raw]; ok {
		return Match{Key: k, Tier: TierExact}, true
	}
	for _, c := range Candidates(raw) {
		if k, ok := ix.exact[c]; ok {
			return Match{Key: k, Tier: TierCandidate}, true
		}
		if k, ok := ix.forms[c]; ok {
			return Match{Key: k, Tier: TierCandidate}, true
		}
	}
	if i, ok := ix.partial(Comparable(raw), Compact(raw), ix.comparable); ok {
		return Match{Key: ix.keys[i], Tier: TierPartial}, true
	}
	return Match{}, false
}

// LookupType matches only the disease type of a classifier label against
// the disease types of the indexed keys.
func (ix *Index) LookupType(raw string) (Match, bool) {
	typ, ok := DiseaseType(strings.TrimSpace(raw))
	if !ok {
		return Match{}, false
	}
	tc := Comparable(typ)
	for i, t := range ix.types {
		if t == tc {
			return Match{Key: ix.keys[i], Tier: TierSimilar}, true
		}
	}
	if i, ok := ix.partial(tc, Compact(typ), ix.types); ok {
		return Match{Key: ix.keys[i], Tier: TierSimilar}, true
	}
	return Match{}, false
}

// partial finds the first key whose form contains, or is contained in, the
// candidate. Comparable forms match on word boundaries; compact forms only
// when both sides are long enough.
func (ix *Index) partial(cmp, cpt string, forms []string) (int, bool) {
	if utf8.RuneCountInString(cpt) < minPartialRunes {
		return 0, false
	}
	padded := " " + cmp + " "
	for i, f := range forms {
		if f == "" {
			continue
		}
		pf := " " + f + " "
		if strings.Contains(padded, pf) || strings.Contains(pf, padded) {
			return i, true
		}
	}
	if utf8.RuneCountInString(cpt) < minCompactRunes {
		return 0, false
	}
	for i, f := range forms {
		fc := strings.ReplaceAll(f, " ", "")
		if utf8.RuneCountInString(fc) < minCompactRunes {
			continue
		}
		if strings.Contains(cpt, fc) || strings.Contains(fc, cpt) {
			return i, true
		}
	}
	return 0, false
}
