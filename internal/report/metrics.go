package report

import (
	"fmt"
	"math"
)

// CRConfig names the stage values the conversion-rate metric divides:
// conversations reaching Success out of conversations entering Initial.
type CRConfig struct {
	Initial string
	Success string
}

// Percent renders part/total as a whole-number percentage. A zero total
// always yields "0%", never a division error or NaN.
func Percent(part, total int) string {
	if total == 0 {
		return "0%"
	}
	return fmt.Sprintf("%.0f%%", math.Round(float64(part)/float64(total)*100))
}

// CountPercent renders "count (percent%)" against the given total, with the
// same zero-guard.
func CountPercent(count, total int) string {
	return fmt.Sprintf("%d (%s)", count, Percent(count, total))
}

// Qualified counts the descendant leaves of r that reached the success
// stage and also passed through the initial stage within r's scope.
func Qualified(r *Row, cfg CRConfig) int {
	n := 0
	for _, leaf := range r.Leaves() {
		if leaf.Count(cfg.Success) > 0 && leaf.Count(cfg.Initial) > 0 {
			n++
		}
	}
	return n
}

// CR renders the row's conversion rate: the success/initial ratio followed
// by the share of conversations that demonstrably passed both stages. The
// initial count of 0 renders as "0%" for both figures.
func CR(r *Row, cfg CRConfig) string {
	return fmt.Sprintf("%s (%s)",
		Percent(r.Count(cfg.Success), r.Count(cfg.Initial)),
		Percent(Qualified(r, cfg), r.Count(cfg.Initial)))
}

// SuccessCell renders the success-stage counter with its qualifier,
// e.g. "5 (3)".
func SuccessCell(r *Row, cfg CRConfig) string {
	return fmt.Sprintf("%d (%d)", r.Count(cfg.Success), Qualified(r, cfg))
}
