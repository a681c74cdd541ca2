package disease

import "fmt"

// Source names the table a resolution came from.
type Source string

const (
	SourceDetailed Source = "detailed"
	SourceBasic    Source = "basic"
	SourceGeneric  Source = "generic"
)

// Resolution is the outcome of resolving a label to treatment advice.
type Resolution struct {
	Label  string `json:"label"`
	Key    Key    `json:"key,omitempty"`
	Source Source `json:"source"`
	Tier   string `json:"tier"`
	Text   string `json:"text"`
}

// Resolved reports whether a table record was found.
func (r Resolution) Resolved() bool { return r.Source != SourceGeneric }

// Resolver turns classifier labels and free-form disease names into
// treatment text. It never fails: unknown labels produce generic advice that
// names the label.
type Resolver struct {
	c *Catalog
}

// NewResolver creates a resolver over c.
func NewResolver(c *Catalog) *Resolver {
	return &Resolver{c: c}
}

// Resolve returns the treatment text for label.
func (r *Resolver) Resolve(label string) string {
	return r.Lookup(label).Text
}

// Lookup tries the detailed table, then the basic table, then disease-type
// generalization against each, then generic advice.
func (r *Resolver) Lookup(label string) Resolution {
	res := Resolution{Label: label}

	if m, ok := r.c.detailedIx.Lookup(label); ok {
		return r.direct(res, m, SourceDetailed, r.c.detailed[m.Key])
	}
	if m, ok := r.c.basicIx.Lookup(label); ok {
		return r.direct(res, m, SourceBasic, r.c.basic[m.Key])
	}
	if m, ok := r.c.detailedIx.LookupType(label); ok {
		return r.similar(res, m, SourceDetailed, r.c.detailed[m.Key])
	}
	if m, ok := r.c.basicIx.LookupType(label); ok {
		return r.similar(res, m, SourceBasic, r.c.basic[m.Key])
	}

	res.Source = SourceGeneric
	res.Tier = TierNone.String()
	res.Text = genericAdvice(label)
	return res
}

func (r *Resolver) direct(res Resolution, m Match, src Source, t *Treatment) Resolution {
	res.Key = m.Key
	res.Source = src
	res.Tier = m.Tier.String()
	res.Text = t.Text()
	return res
}

func (r *Resolver) similar(res Resolution, m Match, src Source, t *Treatment) Resolution {
	res.Key = m.Key
	res.Source = src
	res.Tier = m.Tier.String()
	res.Text = fmt.Sprintf("No exact treatment record was found for %s. It appears similar to %s: %s",
		Display(res.Label), Display(string(m.Key)), t.Text())
	return res
}

func genericAdvice(label string) string {
	name := Display(label)
	if name == "" {
		name = "this condition"
	}
	return fmt.Sprintf("No treatment record was found for \"%s\". For treating %s, consider applying appropriate fungicides, "+
		"removing infected plant material, and improving air circulation. Consult your local agricultural extension "+
		"office for specific treatments for your area and conditions.", label, name)
}
