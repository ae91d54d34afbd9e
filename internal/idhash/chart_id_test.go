package idhash

import (
	"testing"

	"github.com/mr-tron/base58"
)

func TestComputeChartID(t *testing.T) {
	tests := []struct {
		name       string
		person     string
		birthUTCMs int64
		lat, lon   float64
		tzOffset   float64
		correction float64
		depth      int
		wantLen    int // hash length should be 64
	}{
		{
			name:       "with coordinates",
			person:     "Asha",
			birthUTCMs: 836456400000,
			lat:        27.56,
			lon:        80.67,
			tzOffset:   5.5,
			correction: 0,
			depth:      2,
			wantLen:    64,
		},
		{
			name:       "negative offset",
			person:     "",
			birthUTCMs: -1262304000000,
			lat:        -33.86,
			lon:        151.2,
			tzOffset:   -3.5,
			correction: -0.8,
			depth:      3,
			wantLen:    64,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeChartID(tt.person, tt.birthUTCMs, tt.lat, tt.lon, tt.tzOffset, tt.correction, tt.depth)

			if len(got) != tt.wantLen {
				t.Errorf("ComputeChartID() length = %d, want %d", len(got), tt.wantLen)
			}

			// Verify determinism: same inputs should produce same output
			got2 := ComputeChartID(tt.person, tt.birthUTCMs, tt.lat, tt.lon, tt.tzOffset, tt.correction, tt.depth)
			if got != got2 {
				t.Errorf("ComputeChartID() not deterministic: %s != %s", got, got2)
			}
		})
	}
}

func TestComputeChartID_DifferentInputs(t *testing.T) {
	base := ComputeChartID("A", 1000, 10, 20, 5.5, 0, 2)

	variants := map[string]string{
		"name":       ComputeChartID("B", 1000, 10, 20, 5.5, 0, 2),
		"birth":      ComputeChartID("A", 1001, 10, 20, 5.5, 0, 2),
		"latitude":   ComputeChartID("A", 1000, 10.0001, 20, 5.5, 0, 2),
		"longitude":  ComputeChartID("A", 1000, 10, 20.5, 5.5, 0, 2),
		"offset":     ComputeChartID("A", 1000, 10, 20, 5.75, 0, 2),
		"correction": ComputeChartID("A", 1000, 10, 20, 5.5, -0.8, 2),
		"depth":      ComputeChartID("A", 1000, 10, 20, 5.5, 0, 3),
	}

	for field, got := range variants {
		if got == base {
			t.Errorf("different %s should produce different hash", field)
		}
	}
}

func TestShortChartID(t *testing.T) {
	id := ComputeChartID("A", 1000, 10, 20, 5.5, 0, 2)

	short, err := ShortChartID(id)
	if err != nil {
		t.Fatalf("ShortChartID() error = %v", err)
	}
	if short == "" || len(short) > 17 {
		t.Errorf("ShortChartID() = %q, unexpected length %d", short, len(short))
	}

	raw, err := base58.Decode(short)
	if err != nil {
		t.Fatalf("base58 decode: %v", err)
	}
	if len(raw) != ShortIDBytes {
		t.Errorf("decoded %d bytes, want %d", len(raw), ShortIDBytes)
	}

	again, _ := ShortChartID(id)
	if again != short {
		t.Errorf("ShortChartID() not deterministic: %s != %s", again, short)
	}
}

func TestShortChartID_Invalid(t *testing.T) {
	if _, err := ShortChartID("not-hex"); err == nil {
		t.Error("expected error for non-hex id")
	}
	if _, err := ShortChartID("abcd"); err == nil {
		t.Error("expected error for short id")
	}
}

func TestComputeSnapshotID(t *testing.T) {
	a := ComputeSnapshotID(1705276800000, "Asia/Kolkata", 0)
	if len(a) != 64 {
		t.Errorf("ComputeSnapshotID() length = %d, want 64", len(a))
	}
	if a != ComputeSnapshotID(1705276800000, "Asia/Kolkata", 0) {
		t.Error("ComputeSnapshotID() not deterministic")
	}
	if a == ComputeSnapshotID(1705276800000, "UTC", 0) {
		t.Error("different timezone should produce different hash")
	}
}
