package analytics

import (
	"fmt"
	"math"
)

// Change direction tags understood by the dashboard.
const (
	ChangeUp      = "up"
	ChangeDown    = "down"
	ChangeNeutral = "neutral"
)

// Change is one period-over-period delta: a formatted percentage string plus
// a direction tag.
type Change struct {
	Value string `json:"value"`
	Type  string `json:"type"`
}

// NeutralChange is the delta rendered when no comparison data is available.
func NeutralChange() Change {
	return Change{Value: "0%", Type: ChangeNeutral}
}

// CalculateChange computes the period-over-period delta for a metric.
// A previous count of zero reads as +100% when anything happened this period
// and neutral otherwise; all other cases use (current-previous)/previous,
// rounded to whole percent with an explicit leading + when positive.
func CalculateChange(current, previous int64) Change {
	if previous == 0 {
		if current > 0 {
			return Change{Value: "+100%", Type: ChangeUp}
		}
		return NeutralChange()
	}

	percent := float64(current-previous) / float64(previous) * 100

	switch {
	case percent > 0:
		return Change{Value: fmt.Sprintf("+%.0f%%", math.Round(percent)), Type: ChangeUp}
	case percent < 0:
		return Change{Value: fmt.Sprintf("%.0f%%", math.Round(percent)), Type: ChangeDown}
	default:
		return NeutralChange()
	}
}
