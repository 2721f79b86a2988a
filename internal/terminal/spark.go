package terminal

import (
	"math"
	"strings"

	"diabetes-console/internal/render"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws c's points on c's axis. Gaps are spaces.
func Sparkline(c render.Chart) string {
	lo := c.Summary.Min
	hi := c.Summary.Max
	if c.YAxis.BeginAtZero {
		lo = math.Min(lo, 0)
	}
	if c.YAxis.Min != nil {
		lo = *c.YAxis.Min
	}
	if c.YAxis.Max != nil {
		hi = *c.YAxis.Max
	}

	var b strings.Builder
	top := len(sparkRunes) - 1
	for _, p := range c.Points {
		if p == nil {
			b.WriteRune(' ')
			continue
		}
		idx := top / 2
		if hi > lo {
			idx = int(math.Round((*p - lo) / (hi - lo) * float64(top)))
		}
		idx = max(0, min(top, idx))
		b.WriteRune(sparkRunes[idx])
	}
	return b.String()
}
