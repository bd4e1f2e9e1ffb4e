package models

import (
	"testing"

	"github.com/lib/pq"
)

func TestDashboardFeaturesRoundTripKeepsCommas(t *testing.T) {
	features := pq.StringArray{"premium, early-pay", `tier "gold"`, "payments"}

	value, err := features.Value()
	if err != nil {
		t.Fatalf("encode features: %v", err)
	}

	var decoded pq.StringArray
	if err := decoded.Scan(value); err != nil {
		t.Fatalf("decode features: %v", err)
	}
	if len(decoded) != len(features) {
		t.Fatalf("expected %d features, got %d: %v", len(features), len(decoded), decoded)
	}
	for i := range features {
		if decoded[i] != features[i] {
			t.Fatalf("feature %d corrupted: want %q, got %q", i, features[i], decoded[i])
		}
	}
}
