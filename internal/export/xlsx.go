// Package export writes patient history to an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"diabetes-console/internal/backend"
	"diabetes-console/internal/render"
)

// Sheet names.
const (
	SheetHistory   = "History"
	SheetCharts    = "Charts"
	SheetChartData = "ChartData"
)

// ContentType is the MIME type of the workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// rows of sheet space given to each chart on the Charts sheet
const chartStride = 18

// Workbook builds the history workbook: a History table in the console's
// column order, and one line chart per charted feature on Charts. The
// charts read their series from ChartData.
func Workbook(records []backend.Record) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetHistory); err != nil {
		f.Close()
		return nil, err
	}

	if err := writeHistory(f, records); err != nil {
		f.Close()
		return nil, fmt.Errorf("write history sheet: %w", err)
	}

	charts := render.Charts(records)
	if err := writeChartData(f, charts); err != nil {
		f.Close()
		return nil, fmt.Errorf("write chart data: %w", err)
	}
	if err := writeCharts(f, charts, len(records)); err != nil {
		f.Close()
		return nil, fmt.Errorf("write charts: %w", err)
	}

	idx, err := f.GetSheetIndex(SheetHistory)
	if err == nil && idx >= 0 {
		f.SetActiveSheet(idx)
	}
	return f, nil
}

// Write streams the workbook for records to w.
func Write(w io.Writer, records []backend.Record) error {
	f, err := Workbook(records)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeHistory(f *excelize.File, records []backend.Record) error {
	header := make([]any, len(render.HistoryColumns))
	for i, c := range render.HistoryColumns {
		header[i] = render.Label(c)
	}
	if err := f.SetSheetRow(SheetHistory, "A1", &header); err != nil {
		return err
	}

	for r, rec := range records {
		for i, c := range render.HistoryColumns {
			v, ok := rec.Get(c)
			if !ok || v == nil {
				continue
			}
			switch v.(type) {
			case float64, string, bool:
			default:
				v = fmt.Sprint(v)
			}
			cell, _ := excelize.CoordinatesToCellName(i+1, r+2)
			if err := f.SetCellValue(SheetHistory, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeChartData(f *excelize.File, charts []render.Chart) error {
	if len(charts) == 0 {
		return nil
	}
	if _, err := f.NewSheet(SheetChartData); err != nil {
		return err
	}

	header := []any{"date"}
	for _, c := range charts {
		header = append(header, c.Slot.Feature)
	}
	if err := f.SetSheetRow(SheetChartData, "A1", &header); err != nil {
		return err
	}

	// Gaps stay blank cells so the charts skip them.
	for i, label := range charts[0].Labels {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetCellValue(SheetChartData, cell, label); err != nil {
			return err
		}
		for j, c := range charts {
			p := c.Points[i]
			if p == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+2, i+2)
			if err := f.SetCellFloat(SheetChartData, cell, *p, -1, 64); err != nil {
				return err
			}
		}
	}
	return f.SetSheetVisible(SheetChartData, false)
}

func writeCharts(f *excelize.File, charts []render.Chart, n int) error {
	if _, err := f.NewSheet(SheetCharts); err != nil {
		return err
	}
	if n == 0 {
		return nil
	}

	categories := fmt.Sprintf("%s!$A$2:$A$%d", SheetChartData, n+1)
	for i, c := range charts {
		col, err := excelize.ColumnNumberToName(i + 2)
		if err != nil {
			return err
		}

		zero := 0.0
		yAxis := excelize.ChartAxis{MajorGridLines: true, Minimum: &zero}
		if c.YAxis.Min != nil {
			yAxis.Minimum = c.YAxis.Min
		}
		if c.YAxis.Max != nil {
			yAxis.Maximum = c.YAxis.Max
		}

		chart := &excelize.Chart{
			Type: excelize.Line,
			Series: []excelize.ChartSeries{{
				Name:       fmt.Sprintf("%s!$%s$1", SheetChartData, col),
				Categories: categories,
				Values:     fmt.Sprintf("%s!$%s$2:$%s$%d", SheetChartData, col, col, n+1),
				Line:       excelize.ChartLine{Smooth: true},
			}},
			Title:        []excelize.RichTextRun{{Text: c.Slot.Title}},
			Legend:       excelize.ChartLegend{Position: "none"},
			XAxis:        excelize.ChartAxis{Title: []excelize.RichTextRun{{Text: "Date"}}},
			YAxis:        yAxis,
			ShowBlanksAs: "gap",
			Dimension:    excelize.ChartDimension{Width: 640, Height: 320},
		}

		anchor, _ := excelize.CoordinatesToCellName(1, 1+i*chartStride)
		if err := f.AddChart(SheetCharts, anchor, chart); err != nil {
			return fmt.Errorf("chart %s: %w", c.Slot.Feature, err)
		}
	}
	return nil
}
