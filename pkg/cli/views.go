package cli

import (
	"fmt"
	"time"

	"github.com/haivivi/cropcare/pkg/assistant"
	"github.com/haivivi/cropcare/pkg/chat"
	"github.com/haivivi/cropcare/pkg/disease"
	"github.com/haivivi/cropcare/pkg/prediction"
)

var defaultStyles = NewStyles(DefaultTheme)

// Entries renders knowledge entries.
type Entries []*disease.Entry

func (v Entries) Value() any { return []*disease.Entry(v) }

func (v Entries) Cards() []Card {
	cards := make([]Card, 0, len(v))
	for _, e := range v {
		cards = append(cards, Card{
			Styles: defaultStyles,
			Title:  e.Name,
			Status: string(e.Key),
			Sections: []Section{
				{Label: "Description", Text: e.Description},
				{Label: "Causes", Text: e.Causes},
				{Label: "Symptoms", Text: e.Symptoms},
				{Label: "Treatment", Text: e.Treatment},
				{Label: "Prevention", Text: e.Prevention},
			},
		})
	}
	return cards
}

// DiagnosisView renders a classification result.
type DiagnosisView struct{ *assistant.Diagnosis }

func (v DiagnosisView) Value() any { return v.Diagnosis }

func (v DiagnosisView) Cards() []Card {
	d := v.Diagnosis
	return []Card{{
		Styles: defaultStyles,
		Title:  d.Label,
		Status: FormatConfidence(d.Confidence),
		Sections: []Section{
			{Label: "Treatment", Text: d.Treatment},
		},
		Footer: fmt.Sprintf("id %s · classifier %s · stored in %s · advice from %s",
			d.Prediction.ID, d.Classifier, d.StorageTier, d.Resolution.Source),
	}}
}

// TreatmentView renders a treatment resolution.
type TreatmentView disease.Resolution

func (v TreatmentView) Value() any { return disease.Resolution(v) }

func (v TreatmentView) Cards() []Card {
	return []Card{{
		Styles:   defaultStyles,
		Title:    v.Label,
		Status:   string(v.Source),
		Sections: []Section{{Label: "Treatment", Text: v.Text}},
	}}
}

// HistoryView renders a prediction history relative to Now.
type HistoryView struct {
	User        string
	Predictions []prediction.Prediction
	Now         time.Time
}

func (v HistoryView) Value() any { return v.Predictions }

func (v HistoryView) Cards() []Card {
	if len(v.Predictions) == 0 {
		return []Card{{Styles: defaultStyles, Title: "No predictions", Status: v.User}}
	}
	sections := make([]Section, 0, len(v.Predictions))
	for _, p := range v.Predictions {
		sections = append(sections, Section{
			Label: FormatAge(p.CreatedAt, v.Now),
			Text:  fmt.Sprintf("%s (%s) %s", p.DiseaseLabel, FormatConfidence(p.Confidence), p.ImageName),
		})
	}
	return []Card{{
		Styles:   defaultStyles,
		Title:    "History",
		Status:   v.User,
		Sections: sections,
	}}
}

// TurnView renders a chat turn.
type TurnView chat.Turn

func (v TurnView) Value() any { return chat.Turn(v) }

func (v TurnView) Cards() []Card {
	footer := "answered by " + v.Provider
	if v.AudioURL != "" {
		footer += " · audio " + v.AudioURL
	}
	return []Card{{
		Styles:   defaultStyles,
		Title:    v.Message,
		Status:   v.Language,
		Sections: []Section{{Label: "Answer", Text: v.Response}},
		Footer:   footer,
	}}
}
