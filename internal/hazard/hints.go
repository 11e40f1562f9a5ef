package hazard

import (
	"fmt"

	"github.com/aparekh02/EvacuTrace/internal/types"
)

// Hint is one candidate hazard origin supplied by an external detection
// collaborator, with its detection confidence in [0, 1].
type Hint struct {
	Origin     Point   `json:"origin"`
	Confidence float64 `json:"confidence"`
}

// SelectOrigin picks the highest-confidence hint that clears the threshold.
// It returns a HAZARD_HINT_REJECTED error when no hint qualifies; callers
// recover by falling back to default placement. Ties keep the earliest hint
// so selection stays deterministic.
func SelectOrigin(hints []Hint, threshold float64) (Point, error) {
	best := -1
	for i, h := range hints {
		if h.Confidence < threshold {
			continue
		}
		if best < 0 || h.Confidence > hints[best].Confidence {
			best = i
		}
	}

	if best < 0 {
		return Point{}, types.NewError(types.HAZARD_HINT_REJECTED,
			fmt.Sprintf("no hint of %d cleared confidence threshold %.2f", len(hints), threshold))
	}
	return hints[best].Origin, nil
}
