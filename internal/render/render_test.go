package render

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"diabetes-console/internal/backend"
)

func rec(kv ...any) backend.Record {
	r := backend.Record{}
	for i := 0; i < len(kv); i += 2 {
		r = append(r, backend.Field{Key: kv[i].(string), Value: kv[i+1]})
	}
	return r
}

func TestStubBanner(t *testing.T) {
	tests := []struct {
		model  string
		want   string
		wantOK bool
	}{
		{ModelTransformer, "Transformer model is not implemented yet. Please use the Classical model for predictions.", true},
		{ModelNeural, "Neural Network model is not implemented yet. Please use the Classical model for predictions.", true},
		{ModelClassical, "", false},
		{"quantum", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			b, ok := StubBanner(tt.model)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if b.Style != StyleInfo {
				t.Errorf("Style = %v, want info", b.Style)
			}
			if b.Message != tt.want {
				t.Errorf("Message = %q", b.Message)
			}
		})
	}
}

func TestPredictionBanner_Positive(t *testing.T) {
	b := PredictionBanner(backend.Prediction{
		Positive:   true,
		Class:      1.0,
		Score:      0.87,
		TopFactors: rec("glucose", 0.42, "bmi", 0.21),
	})

	if b.Style != StyleDanger {
		t.Errorf("Style = %v, want danger", b.Style)
	}
	want := []string{
		"Prediction Result: Positive",
		"The model predicts that the patient is positive for diabetes.",
		"Top factors influencing this prediction:",
		"- glucose: 0.42",
		"- bmi: 0.21",
		"Prediction Score: 0.87",
	}
	if got := b.Lines(); !reflect.DeepEqual(got, want) {
		t.Errorf("Lines() =\n%s\nwant\n%s", strings.Join(got, "\n"), strings.Join(want, "\n"))
	}
}

func TestPredictionBanner_FactorsOnlyWhenPositive(t *testing.T) {
	tests := []struct {
		name string
		p    backend.Prediction
	}{
		{"negative with factors", backend.Prediction{Class: 0.0, Score: 0.1, TopFactors: rec("glucose", 0.4)}},
		{"positive without factors", backend.Prediction{Positive: true, Score: 0.9}},
		{"positive empty factors", backend.Prediction{Positive: true, Score: 0.9, TopFactors: backend.Record{}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := PredictionBanner(tt.p)
			if len(b.Factors) != 0 {
				t.Errorf("Factors = %v, want none", b.Factors)
			}
			for _, l := range b.Lines() {
				if strings.HasPrefix(l, "Top factors") {
					t.Errorf("unexpected factors heading")
				}
			}
			if !b.ShowScore {
				t.Error("score must always be shown")
			}
		})
	}
}

func TestPredictionBanner_Negative(t *testing.T) {
	b := PredictionBanner(backend.Prediction{Class: 0.0, Score: 0.12})
	if b.Style != StyleSuccess {
		t.Errorf("Style = %v, want success", b.Style)
	}
	if b.Title != "Prediction Result: Negative" || b.Verdict != "negative" {
		t.Errorf("Title/Verdict = %q/%q", b.Title, b.Verdict)
	}
}

func TestPredictionErrorBanner(t *testing.T) {
	b := PredictionErrorBanner(errors.New("Prediction failed: boom"))
	if b.Style != StyleDanger || b.Message != "Error making prediction: Prediction failed: boom" {
		t.Errorf("banner = %+v", b)
	}

	u := UnknownModelBanner("quantum")
	if u.Style != StyleDanger || !strings.Contains(u.Message, `"quantum"`) {
		t.Errorf("unknown model banner = %+v", u)
	}
}

func TestExtractedTable(t *testing.T) {
	tbl := ExtractedTable(rec("pregnancies", 2.0, "glucose", 148.0, "bmi", 33.6, "note", nil))

	want := []KeyValue{
		{"pregnancies", "2"},
		{"glucose", "148"},
		{"bmi", "33.6"},
		{"note", ""},
	}
	if !reflect.DeepEqual(tbl.Rows, want) {
		t.Errorf("Rows = %v, want %v", tbl.Rows, want)
	}
}

func TestHistoryTable(t *testing.T) {
	records := []backend.Record{
		rec("username", "ana", "glucose", 148.0, "date", "2024-01-01", "score", 0.8, "prediction_class", 1.0),
		rec("date", "2024-02-01", "bmi", 30.1),
		rec("date", "2024-03-01"),
	}

	tbl := NewHistoryTable(records)
	if tbl.Notice != nil {
		t.Fatal("unexpected notice")
	}
	wantHeaders := []string{
		"date", "glucose", "bmi", "blood pressure", "insulin", "skin thickness",
		"diabetes pedigree function", "pregnancies", "score", "prediction class",
	}
	if !reflect.DeepEqual(tbl.Headers, wantHeaders) {
		t.Errorf("Headers = %v", tbl.Headers)
	}
	if len(tbl.Rows) != len(records) {
		t.Fatalf("rows = %d, want %d", len(tbl.Rows), len(records))
	}
	if got := tbl.Rows[0]; got[0] != "2024-01-01" || got[1] != "148" || got[8] != "0.8" || got[9] != "1" {
		t.Errorf("row 0 = %v", got)
	}
	if got := tbl.Rows[1]; got[2] != "30.1" || got[1] != "" {
		t.Errorf("row 1 = %v", got)
	}
}

func TestHistoryTable_Empty(t *testing.T) {
	tbl := NewHistoryTable(nil)
	if tbl.Notice == nil || tbl.Notice.Message != "No history found." || tbl.Notice.Style != StyleInfo {
		t.Errorf("Notice = %+v", tbl.Notice)
	}
	if len(tbl.Rows) != 0 {
		t.Errorf("rows = %d, want 0", len(tbl.Rows))
	}
}

func TestCharts(t *testing.T) {
	records := []backend.Record{
		rec("username", "ana", "date", "2024-01-01", "age", 50.0, "glucose", 148.0, "bmi", 33.6,
			"score", 0.8, "prediction_class", 1.0, "top_factors", map[string]any{"glucose": 0.4}),
		rec("username", "ana", "date", "2024-02-01", "glucose", "n/a", "bmi", "30.5", "score", 0.2),
		rec("date", "2024-03-01", "glucose", 120.0, "score", 0.4),
	}

	charts := Charts(records)

	var features []string
	for _, c := range charts {
		features = append(features, c.Slot.Feature)
	}
	if want := []string{"glucose", "bmi", "score"}; !reflect.DeepEqual(features, want) {
		t.Fatalf("features = %v, want %v", features, want)
	}

	glucose := charts[0]
	if !reflect.DeepEqual(glucose.Labels, []string{"2024-01-01", "2024-02-01", "2024-03-01"}) {
		t.Errorf("labels = %v", glucose.Labels)
	}
	if glucose.Points[1] != nil {
		t.Errorf("non-numeric value should be a gap, got %v", *glucose.Points[1])
	}
	if *glucose.Points[0] != 148 || *glucose.Points[2] != 120 {
		t.Errorf("points out of record order")
	}
	if glucose.YAxis.Min != nil || glucose.YAxis.Max != nil || !glucose.YAxis.BeginAtZero {
		t.Errorf("glucose axis = %+v, want auto-scale from zero", glucose.YAxis)
	}
	if glucose.Slot.ID != "graph_glucose" {
		t.Errorf("slot id = %q", glucose.Slot.ID)
	}

	bmi := charts[1]
	if bmi.Points[1] == nil || *bmi.Points[1] != 30.5 {
		t.Error("numeric string should be plotted")
	}
	if bmi.Points[2] != nil {
		t.Error("missing value should be a gap")
	}

	score := charts[2]
	if score.YAxis.Min == nil || *score.YAxis.Min != 0 || score.YAxis.Max == nil || *score.YAxis.Max != 1 {
		t.Errorf("score axis = %+v, want [0,1]", score.YAxis)
	}
}

func TestCharts_Empty(t *testing.T) {
	if charts := Charts(nil); len(charts) != 0 {
		t.Errorf("charts = %v, want none", charts)
	}
}

func TestSummarize(t *testing.T) {
	f := func(v float64) *float64 { return &v }

	s := Summarize([]*float64{f(2), nil, f(4), f(9)})
	if s.Count != 3 || s.Min != 2 || s.Max != 9 || s.Mean != 5 {
		t.Errorf("Summarize = %+v", s)
	}

	if s := Summarize([]*float64{nil, nil}); s.Count != 0 {
		t.Errorf("all gaps: %+v", s)
	}
}
