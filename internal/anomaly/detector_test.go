package anomaly_test

import (
	"testing"

	"github.com/septivank/eb-billing/internal/anomaly"
)

const (
	testSpikeThreshold            = 3.0
	testMinDataPointsForDetection = 3
)

func TestDetectAnomaly_NegativeUnits(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	isAnomaly, reason := detector.DetectAnomaly(-10.5, []float64{100, 105, 98})

	if !isAnomaly {
		t.Error("Expected anomaly for negative units")
	}

	if reason != "negative consumption" {
		t.Errorf("Expected reason 'negative consumption', got '%s'", reason)
	}
}

func TestDetectAnomaly_Spike(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	previous := []float64{100, 105, 98, 102, 99}

	isAnomaly, reason := detector.DetectAnomaly(350, previous)

	if !isAnomaly {
		t.Error("Expected anomaly for consumption spike")
	}

	if reason == "" {
		t.Error("Expected reason for spike anomaly")
	}
}

func TestDetectAnomaly_NormalUnits(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	isAnomaly, reason := detector.DetectAnomaly(103, []float64{100, 105, 98, 102, 99})

	if isAnomaly {
		t.Errorf("Expected no anomaly, but got: %s", reason)
	}
}

func TestDetectAnomaly_InsufficientHistory(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	isAnomaly, _ := detector.DetectAnomaly(300, []float64{100, 105})

	if isAnomaly {
		t.Error("Should not detect spike with insufficient history")
	}
}

func TestDetectAnomaly_ZeroAverage(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	isAnomaly, _ := detector.DetectAnomaly(100, []float64{0, 0, 0})

	if isAnomaly {
		t.Error("Should not detect spike when previous average is 0")
	}
}

func TestDetectAnomaly_ZeroUnits(t *testing.T) {
	detector := anomaly.NewDetector(testSpikeThreshold, testMinDataPointsForDetection)

	isAnomaly, _ := detector.DetectAnomaly(0, nil)

	if isAnomaly {
		t.Error("Zero consumption is not an anomaly")
	}
}
