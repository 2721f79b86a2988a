package render

import (
	"slices"

	"github.com/montanaflynn/stats"

	"diabetes-console/internal/backend"
	"diabetes-console/internal/util"
)

// ChartExcluded lists record fields that never get a chart.
var ChartExcluded = []string{"top_factors", "prediction_class", "username", "date", "age"}

// ScoreFeature is the field whose chart is clamped to [0,1].
const ScoreFeature = "score"

// ChartSlot is the placeholder a view mounts before the chart is drawn.
type ChartSlot struct {
	ID      string
	Feature string
	Title   string
}

// YAxis bounds a chart's value axis. Nil bounds auto-scale.
type YAxis struct {
	BeginAtZero bool
	Min         *float64
	Max         *float64
}

// Stats summarizes the numeric points of a chart.
type Stats struct {
	Count int
	Min   float64
	Mean  float64
	Max   float64
}

// Chart is a line chart of one feature over the record dates.
// A nil point is a gap.
type Chart struct {
	Slot    ChartSlot
	Labels  []string
	Points  []*float64
	YAxis   YAxis
	Summary Stats
}

// ChartFeatures returns the charted fields: the first record's keys, in
// order, minus ChartExcluded.
func ChartFeatures(records []backend.Record) []string {
	if len(records) == 0 {
		return nil
	}
	var features []string
	for _, k := range records[0].Keys() {
		if !slices.Contains(ChartExcluded, k) {
			features = append(features, k)
		}
	}
	return features
}

// Charts builds one chart per feature. Points keep the API's record order.
func Charts(records []backend.Record) []Chart {
	features := ChartFeatures(records)
	if len(features) == 0 {
		return nil
	}

	labels := make([]string, len(records))
	for i, rec := range records {
		v, _ := rec.Get("date")
		labels[i] = util.FormatValue(v)
	}

	charts := make([]Chart, 0, len(features))
	for _, f := range features {
		points := make([]*float64, len(records))
		for i, rec := range records {
			v, _ := rec.Get(f)
			if x, ok := util.ToFloat(v); ok {
				points[i] = &x
			}
		}

		c := Chart{
			Slot:    Slot(f),
			Labels:  labels,
			Points:  points,
			YAxis:   YAxis{BeginAtZero: true},
			Summary: Summarize(points),
		}
		if f == ScoreFeature {
			lo, hi := 0.0, 1.0
			c.YAxis.Min, c.YAxis.Max = &lo, &hi
		}
		charts = append(charts, c)
	}
	return charts
}

// Slot returns the chart slot of feature.
func Slot(feature string) ChartSlot {
	return ChartSlot{ID: "graph_" + feature, Feature: feature, Title: Label(feature)}
}

// Slots returns the slots of charts, in order.
func Slots(charts []Chart) []ChartSlot {
	slots := make([]ChartSlot, len(charts))
	for i, c := range charts {
		slots[i] = c.Slot
	}
	return slots
}

// Summarize computes min, mean and max over the non-gap points.
func Summarize(points []*float64) Stats {
	data := make(stats.Float64Data, 0, len(points))
	for _, p := range points {
		if p != nil {
			data = append(data, *p)
		}
	}
	if len(data) == 0 {
		return Stats{}
	}

	lo, _ := stats.Min(data)
	mean, _ := stats.Mean(data)
	hi, _ := stats.Max(data)
	return Stats{Count: len(data), Min: lo, Mean: mean, Max: hi}
}
