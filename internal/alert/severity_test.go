package alert

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/cptspacemanspiff/battery-alert/internal/collector"
)

func discharging(pct float64) collector.Reading {
	return collector.Reading{Percentage: pct, State: collector.StateDischarging}
}

func TestClassify_Thresholds(t *testing.T) {
	p := DefaultPolicy()

	tests := []struct {
		pct  float64
		want Level
	}{
		{0, Critical},
		{5, Critical},
		{9.99, Critical},
		{10, Low},
		{15, Low},
		{19.99, Low},
		{20, Normal},
		{55, Normal},
		{100, Normal},
	}

	for _, tt := range tests {
		if got := p.Classify([]collector.Reading{discharging(tt.pct)}); got != tt.want {
			t.Fatalf("Classify(%v%%) = %v, want %v", tt.pct, got, tt.want)
		}
	}
}

func TestClassify_EmptyIsNormal(t *testing.T) {
	if got := DefaultPolicy().Classify(nil); got != Normal {
		t.Fatalf("Classify(nil) = %v, want Normal", got)
	}
}

func TestClassify_EmptyStateCountsAsDepleting(t *testing.T) {
	r := collector.Reading{Percentage: 0, State: collector.StateEmpty}
	if got := DefaultPolicy().Classify([]collector.Reading{r}); got != Critical {
		t.Fatalf("Classify(empty battery) = %v, want Critical", got)
	}
}

func TestClassify_AnyNonDepletingBatteryShortCircuits(t *testing.T) {
	p := DefaultPolicy()

	for _, state := range []collector.ChargingState{
		collector.StateUnknown,
		collector.StateCharging,
		collector.StateFullyCharged,
		collector.StatePendingCharge,
		collector.StatePendingDischarge,
	} {
		readings := []collector.Reading{
			{Percentage: 50, State: state},
			discharging(8),
		}
		if got := p.Classify(readings); got != Normal {
			t.Fatalf("Classify(%v at 50%% + discharging at 8%%) = %v, want Normal", state, got)
		}
	}
}

func TestClassify_WorstBatteryWins(t *testing.T) {
	readings := []collector.Reading{discharging(60), discharging(15), discharging(30)}
	if got := DefaultPolicy().Classify(readings); got != Low {
		t.Fatalf("Classify() = %v, want Low", got)
	}
}

func TestClassify_Deterministic(t *testing.T) {
	p := DefaultPolicy()
	readings := []collector.Reading{discharging(12), discharging(9), discharging(40)}
	first := p.Classify(readings)
	for i := 0; i < 10; i++ {
		if got := p.Classify(readings); got != first {
			t.Fatalf("Classify() run %d = %v, want %v", i, got, first)
		}
	}
}

func TestWorst_SkipsNaN(t *testing.T) {
	got, ok := Worst([]collector.Reading{discharging(math.NaN()), discharging(42)})
	if !ok || got.Percentage != 42 {
		t.Fatalf("Worst() = (%v, %v), want (42%%, true)", got.Percentage, ok)
	}

	if _, ok := Worst([]collector.Reading{discharging(math.NaN())}); ok {
		t.Fatal("Worst(only NaN) ok = true, want false")
	}
}

func TestClassify_CustomThresholds(t *testing.T) {
	p := DefaultPolicy()
	p.CriticalBelow = 5
	p.LowBelow = 30

	if got := p.Classify([]collector.Reading{discharging(7)}); got != Low {
		t.Fatalf("Classify(7%%) = %v, want Low", got)
	}
	if got := p.Classify([]collector.Reading{discharging(25)}); got != Low {
		t.Fatalf("Classify(25%%) = %v, want Low", got)
	}
}

func TestShouldNotify(t *testing.T) {
	p := DefaultPolicy()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		prev    Level
		next    Level
		elapsed time.Duration
		want    bool
	}{
		{"normal to low immediately", Normal, Low, 0, true},
		{"normal to low after a day", Normal, Low, 24 * time.Hour, true},
		{"normal to critical", Normal, Critical, time.Second, true},
		{"low to critical before renewal", Low, Critical, 6 * time.Minute, true},
		{"low to normal", Low, Normal, time.Second, true},
		{"low steady under 10m", Low, Low, 9*time.Minute + 59*time.Second, false},
		{"low steady at 10m", Low, Low, 10 * time.Minute, true},
		{"low steady over 10m", Low, Low, 11 * time.Minute, true},
		{"critical steady under 5m", Critical, Critical, 4 * time.Minute, false},
		{"critical steady at 5m", Critical, Critical, 5 * time.Minute, true},
		{"normal steady forever", Normal, Normal, 1000 * time.Hour, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := p.ShouldNotify(tt.prev, tt.next, now.Add(-tt.elapsed), now)
			if got != tt.want {
				t.Fatalf("ShouldNotify(%v, %v, %v ago) = %v, want %v", tt.prev, tt.next, tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestRenewalInterval(t *testing.T) {
	p := DefaultPolicy()
	if got := p.RenewalInterval(Normal); got != Never {
		t.Fatalf("RenewalInterval(Normal) = %v, want Never", got)
	}
	if got := p.RenewalInterval(Low); got != 10*time.Minute {
		t.Fatalf("RenewalInterval(Low) = %v, want 10m", got)
	}
	if got := p.RenewalInterval(Critical); got != 5*time.Minute {
		t.Fatalf("RenewalInterval(Critical) = %v, want 5m", got)
	}
}

func TestLevel_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]Level{"level": Critical})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if string(data) != `{"level":"Critical"}` {
		t.Fatalf("Marshal() = %s", data)
	}

	var decoded map[string]Level
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded["level"] != Critical {
		t.Fatalf("decoded level = %v, want Critical", decoded["level"])
	}

	var l Level
	if err := l.UnmarshalText([]byte("Severe")); err == nil {
		t.Fatal("UnmarshalText(Severe) error = nil, want error")
	}
}
