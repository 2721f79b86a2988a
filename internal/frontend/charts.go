package frontend

import (
	"encoding/json"
	"math"
	"strconv"

	"diabetes-console/internal/render"
)

// chartConfig pairs a canvas id with the Chart.js config drawn into it.
type chartConfig struct {
	ID     string        `json:"id"`
	Config chartJSConfig `json:"config"`
}

type chartJSConfig struct {
	Type    string         `json:"type"`
	Data    chartJSData    `json:"data"`
	Options chartJSOptions `json:"options"`
}

type chartJSData struct {
	Labels   []string         `json:"labels"`
	Datasets []chartJSDataset `json:"datasets"`
}

type chartJSDataset struct {
	Label           string     `json:"label"`
	Data            []*float64 `json:"data"`
	BorderColor     string     `json:"borderColor"`
	BackgroundColor string     `json:"backgroundColor"`
	Fill            bool       `json:"fill"`
	Tension         float64    `json:"tension"`
}

type chartJSOptions struct {
	Responsive bool           `json:"responsive"`
	Plugins    chartJSPlugins `json:"plugins"`
	Scales     chartJSScales  `json:"scales"`
}

type chartJSPlugins struct {
	Legend struct {
		Display bool `json:"display"`
	} `json:"legend"`
}

type chartJSScales struct {
	X chartJSAxis `json:"x"`
	Y chartJSAxis `json:"y"`
}

type chartJSAxis struct {
	Title       *chartJSTitle `json:"title,omitempty"`
	BeginAtZero bool          `json:"beginAtZero,omitempty"`
	Min         *float64      `json:"min,omitempty"`
	Max         *float64      `json:"max,omitempty"`
}

type chartJSTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
}

func chartJSFor(c render.Chart) chartConfig {
	return chartConfig{
		ID: c.Slot.ID,
		Config: chartJSConfig{
			Type: "line",
			Data: chartJSData{
				Labels: c.Labels,
				Datasets: []chartJSDataset{{
					Label:           c.Slot.Title,
					Data:            c.Points,
					BorderColor:     "#0d6efd",
					BackgroundColor: "rgba(13,110,253,0.1)",
					Fill:            true,
					Tension:         0.2,
				}},
			},
			Options: chartJSOptions{
				Responsive: true,
				Scales: chartJSScales{
					X: chartJSAxis{Title: &chartJSTitle{Display: true, Text: "Date"}},
					Y: chartJSAxis{BeginAtZero: c.YAxis.BeginAtZero, Min: c.YAxis.Min, Max: c.YAxis.Max},
				},
			},
		},
	}
}

func chartsJSON(charts []chartConfig) (string, error) {
	if len(charts) == 0 {
		return "", nil
	}
	b, err := json.Marshal(charts)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func formatStat(f float64) string {
	return strconv.FormatFloat(math.Round(f*100)/100, 'f', -1, 64)
}
