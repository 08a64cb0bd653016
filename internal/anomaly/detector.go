package anomaly

import (
	"fmt"
)

// Detector flags unusual billed consumption. Its verdicts are advisory:
// bills are stored whatever it reports.
type Detector struct {
	spikeThreshold            float64
	minDataPointsForDetection int
}

// NewDetector creates a new anomaly detector with the specified thresholds
func NewDetector(spikeThreshold float64, minDataPointsForDetection int) *Detector {
	return &Detector{
		spikeThreshold:            spikeThreshold,
		minDataPointsForDetection: minDataPointsForDetection,
	}
}

// DetectAnomaly checks billed units against the client's earlier bills
func (d *Detector) DetectAnomaly(units float64, previousUnits []float64) (bool, string) {
	// Meter went backwards or was replaced
	if units < 0 {
		return true, "negative consumption"
	}

	if len(previousUnits) < d.minDataPointsForDetection {
		return false, ""
	}

	sum := 0.0
	for _, v := range previousUnits {
		sum += v
	}
	average := sum / float64(len(previousUnits))

	if average > 0 && units > d.spikeThreshold*average {
		return true, fmt.Sprintf("consumption spike: %.2f kWh exceeds %.1fx average of %.2f kWh",
			units, d.spikeThreshold, average)
	}

	return false, ""
}
