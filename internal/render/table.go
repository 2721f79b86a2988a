package render

import (
	"strings"

	"diabetes-console/internal/backend"
	"diabetes-console/internal/util"
)

// KeyValue is one row of the extracted-data table.
type KeyValue struct {
	Key   string
	Value string
}

// KeyValueTable is the two-column extracted-data table. Keys are drawn bold.
type KeyValueTable struct {
	Rows []KeyValue
}

// ExtractedTable renders an extracted record in the API's field order.
func ExtractedTable(rec backend.Record) KeyValueTable {
	t := KeyValueTable{Rows: make([]KeyValue, 0, len(rec))}
	for _, f := range rec {
		t.Rows = append(t.Rows, KeyValue{Key: f.Key, Value: util.FormatValue(f.Value)})
	}
	return t
}

// HistoryColumns is the fixed column order of the history table.
var HistoryColumns = []string{
	"date",
	"glucose",
	"bmi",
	"blood_pressure",
	"insulin",
	"skin_thickness",
	"diabetes_pedigree_function",
	"pregnancies",
	"score",
	"prediction_class",
}

// HistoryTable is the history table, or a notice when there is nothing to
// show.
type HistoryTable struct {
	Columns []string
	Headers []string
	Rows    [][]string
	Notice  *Banner
}

// NewHistoryTable renders one row per record. Missing fields are empty
// cells.
func NewHistoryTable(records []backend.Record) *HistoryTable {
	t := &HistoryTable{
		Columns: HistoryColumns,
		Headers: make([]string, len(HistoryColumns)),
	}
	for i, c := range HistoryColumns {
		t.Headers[i] = Label(c)
	}

	if len(records) == 0 {
		n := NoHistoryBanner()
		t.Notice = &n
		return t
	}

	t.Rows = make([][]string, 0, len(records))
	for _, rec := range records {
		row := make([]string, len(HistoryColumns))
		for i, c := range HistoryColumns {
			if v, ok := rec.Get(c); ok {
				row[i] = util.FormatValue(v)
			}
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// Label turns a field name into a header: underscores become spaces.
func Label(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}
