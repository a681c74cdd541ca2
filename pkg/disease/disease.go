// Package disease holds the crop disease knowledge base and the label
// resolution rules used to turn classifier labels and free-form names into
// treatment advice.
//
// Three tables are embedded at build time: the knowledge table (one entry
// per disease with description, causes, symptoms, treatment and
// prevention), the detailed treatment table keyed by classifier label, and
// the basic treatment table keyed by disease type.
package disease

import (
	"embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goccy/go-yaml"
)

//go:embed data/*.yaml
var dataFS embed.FS

// Key is a canonical disease identifier in one of the tables, for example
// "apple_scab" or "Apple___Apple_scab".
type Key string

// Entry is one knowledge-table record.
type Entry struct {
	Key         Key    `yaml:"-" json:"key"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Causes      string `yaml:"causes" json:"causes"`
	Symptoms    string `yaml:"symptoms" json:"symptoms"`
	Treatment   string `yaml:"treatment" json:"treatment"`
	Prevention  string `yaml:"prevention" json:"prevention"`
}

// Field returns the named field: description, causes, symptoms, treatment
// or prevention.
func (e *Entry) Field(name string) (string, bool) {
	switch name {
	case "description":
		return e.Description, true
	case "causes":
		return e.Causes, true
	case "symptoms":
		return e.Symptoms, true
	case "treatment":
		return e.Treatment, true
	case "prevention":
		return e.Prevention, true
	}
	return "", false
}

// Summary returns the one-paragraph overview used when a disease is
// mentioned without a specific question.
func (e *Entry) Summary() string {
	return fmt.Sprintf("%s: %s Symptoms include %s Treatment: %s", e.Name, e.Description, e.Symptoms, e.Treatment)
}

// Treatment is one treatment-table record.
type Treatment struct {
	Key     Key    `yaml:"-" json:"key"`
	Advice  string `yaml:"treatment" json:"treatment"`
	Details string `yaml:"details,omitempty" json:"details,omitempty"`
}

// Text returns the details when present, otherwise the short advice.
func (t *Treatment) Text() string {
	if strings.TrimSpace(t.Details) != "" {
		return t.Details
	}
	return t.Advice
}

type knowledgeFile struct {
	Diseases map[string]*Entry `yaml:"diseases"`
	Aliases  map[string]string `yaml:"aliases"`
}

type treatmentFile struct {
	Treatments map[string]*Treatment `yaml:"treatments"`
	Basic      map[string]*Treatment `yaml:"basic_treatments"`
	Aliases    map[string]string     `yaml:"aliases"`
}

// Catalog is the loaded knowledge base. A Catalog is immutable and safe for
// concurrent use.
type Catalog struct {
	entries  map[Key]*Entry
	detailed map[Key]*Treatment
	basic    map[Key]*Treatment

	knowledgeIx *Index
	detailedIx  *Index
	basicIx     *Index

	phrases []phrase
}

var loadDefault = sync.OnceValues(func() (*Catalog, error) {
	k, err := dataFS.ReadFile("data/knowledge.yaml")
	if err != nil {
		return nil, err
	}
	t, err := dataFS.ReadFile("data/treatments.yaml")
	if err != nil {
		return nil, err
	}
	return Parse(k, t)
})

// Default returns the catalog built from the embedded tables.
func Default() (*Catalog, error) {
	return loadDefault()
}

// Parse builds a catalog from knowledge and treatment YAML documents.
func Parse(knowledgeYAML, treatmentsYAML []byte) (*Catalog, error) {
	var kf knowledgeFile
	if err := yaml.Unmarshal(knowledgeYAML, &kf); err != nil {
		return nil, fmt.Errorf("disease: parse knowledge: %w", err)
	}
	var tf treatmentFile
	if err := yaml.Unmarshal(treatmentsYAML, &tf); err != nil {
		return nil, fmt.Errorf("disease: parse treatments: %w", err)
	}

	c := &Catalog{
		entries:  make(map[Key]*Entry, len(kf.Diseases)),
		detailed: make(map[Key]*Treatment, len(tf.Treatments)),
		basic:    make(map[Key]*Treatment, len(tf.Basic)),
	}
	for k, e := range kf.Diseases {
		if e == nil {
			return nil, fmt.Errorf("disease: empty knowledge entry %q", k)
		}
		e.Key = Key(k)
		c.entries[e.Key] = e
	}
	for k, t := range tf.Treatments {
		if t == nil {
			return nil, fmt.Errorf("disease: empty treatment %q", k)
		}
		t.Key = Key(k)
		c.detailed[t.Key] = t
	}
	for k, t := range tf.Basic {
		if t == nil {
			return nil, fmt.Errorf("disease: empty basic treatment %q", k)
		}
		t.Key = Key(k)
		c.basic[t.Key] = t
	}

	knowledgeAliases, err := aliasTable(kf.Aliases, c.entries)
	if err != nil {
		return nil, err
	}
	treatmentAliases, err := aliasTable(tf.Aliases, c.detailed)
	if err != nil {
		return nil, err
	}

	c.knowledgeIx = NewIndex(mapKeys(c.entries), knowledgeAliases)
	c.detailedIx = NewIndex(mapKeys(c.detailed), treatmentAliases)
	c.basicIx = NewIndex(mapKeys(c.basic), nil)
	c.phrases = buildPhrases(c.entries, kf.Aliases)
	return c, nil
}

// aliasTable validates that every alias points at an existing key.
func aliasTable[V any](aliases map[string]string, table map[Key]V) (map[string]Key, error) {
	out := make(map[string]Key, len(aliases))
	for name, target := range aliases {
		if _, ok := table[Key(target)]; !ok {
			return nil, fmt.Errorf("disease: alias %q points at unknown key %q", name, target)
		}
		out[name] = Key(target)
	}
	return out, nil
}

func mapKeys[V any](m map[Key]V) []Key {
	keys := make([]Key, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// Entries returns every knowledge entry sorted by key.
func (c *Catalog) Entries() []*Entry {
	out := make([]*Entry, 0, len(c.entries))
	for _, k := range mapKeys(c.entries) {
		out = append(out, c.entries[k])
	}
	return out
}

// Lookup returns the knowledge entry for an exact key.
func (c *Catalog) Lookup(key Key) (*Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Entry resolves a free-form disease reference ("Apple___Apple_scab",
// "cedar apple rust", "POWDERYMILDEW") to a knowledge entry.
func (c *Catalog) Entry(ref string) (*Entry, bool) {
	m, ok := c.knowledgeIx.Lookup(ref)
	if !ok {
		return nil, false
	}
	return c.entries[m.Key], true
}

// Treatment returns the detailed treatment record for an exact key, falling
// back to the basic table.
func (c *Catalog) Treatment(key Key) (*Treatment, bool) {
	if t, ok := c.detailed[key]; ok {
		return t, true
	}
	t, ok := c.basic[key]
	return t, ok
}
