// Package render turns API responses into view models.
//
// Nothing here touches a document or a terminal; hosts decide how a
// Banner, a table or a Chart is actually drawn.
package render

import (
	"fmt"
	"strings"

	"diabetes-console/internal/backend"
	"diabetes-console/internal/util"
)

// Style is the alert color of a banner.
type Style string

const (
	StyleInfo    Style = "info"
	StyleSuccess Style = "success"
	StyleDanger  Style = "danger"
)

// Factor is one contributing feature of a positive prediction.
type Factor struct {
	Name   string
	Weight string
}

// Banner is the content of the prediction result area.
//
// A plain banner only has Message. A prediction banner has Title, Verdict
// and Score, plus Factors when the result is positive.
type Banner struct {
	Style   Style
	Message string

	Title     string
	Verdict   string
	Factors   []Factor
	Score     string
	ShowScore bool
}

// IsPrediction reports whether b carries a prediction result.
func (b Banner) IsPrediction() bool {
	return b.Title != ""
}

// Lines returns the banner as plain text, one line per paragraph.
func (b Banner) Lines() []string {
	if !b.IsPrediction() {
		return []string{b.Message}
	}
	lines := []string{
		b.Title,
		"The model predicts that the patient is " + b.Verdict + " for diabetes.",
	}
	if len(b.Factors) > 0 {
		lines = append(lines, "Top factors influencing this prediction:")
		for _, f := range b.Factors {
			lines = append(lines, "- "+f.Name+": "+f.Weight)
		}
	}
	if b.ShowScore {
		lines = append(lines, "Prediction Score: "+b.Score)
	}
	return lines
}

// Models the dashboard offers.
const (
	ModelClassical   = "classical"
	ModelTransformer = "transformer"
	ModelNeural      = "neural"
)

// Models lists the dashboard's model buttons in display order.
var Models = []string{ModelClassical, ModelTransformer, ModelNeural}

// StubBanner returns the info banner of a model that has no backend yet.
func StubBanner(model string) (Banner, bool) {
	var name string
	switch model {
	case ModelTransformer:
		name = "Transformer"
	case ModelNeural:
		name = "Neural Network"
	default:
		return Banner{}, false
	}
	return Banner{
		Style:   StyleInfo,
		Message: name + " model is not implemented yet. Please use the Classical model for predictions.",
	}, true
}

// PredictionErrorBanner renders a failed prediction.
func PredictionErrorBanner(err error) Banner {
	return Banner{
		Style:   StyleDanger,
		Message: "Error making prediction: " + err.Error(),
	}
}

// UnknownModelBanner renders a selection of a model nobody offers.
func UnknownModelBanner(model string) Banner {
	return PredictionErrorBanner(fmt.Errorf("unknown model %q", model))
}

// PredictionBanner renders a successful prediction.
func PredictionBanner(p backend.Prediction) Banner {
	label, style := "Negative", StyleSuccess
	if p.Positive {
		label, style = "Positive", StyleDanger
	}

	b := Banner{
		Style:     style,
		Title:     "Prediction Result: " + label,
		Verdict:   strings.ToLower(label),
		Score:     util.FormatValue(p.Score),
		ShowScore: true,
	}
	if p.Positive {
		for _, f := range p.TopFactors {
			b.Factors = append(b.Factors, Factor{Name: f.Key, Weight: util.FormatValue(f.Value)})
		}
	}
	return b
}

// NoHistoryBanner is shown in place of an empty history table.
func NoHistoryBanner() Banner {
	return Banner{Style: StyleInfo, Message: "No history found."}
}
