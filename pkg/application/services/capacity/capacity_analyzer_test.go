package capacity

import (
	"math"
	"testing"

	"github.com/vsinha/opsplan/pkg/domain/entities"
)

func buildCapacitySnapshot(stations ...entities.Station) *entities.Snapshot {
	s, _ := entities.NewSnapshot("capacity")
	s.Globals = entities.GlobalInputs{
		MonthlyDemand:        1000,
		AvailableMinutes:     10000,
		OEE:                  0.5,
		LabourMinutesPerUnit: 30,
		ScrapRate:            entities.Float(0.2),
	}
	s.Stations = stations
	return s
}

func TestAnalyzer_StationRows(t *testing.T) {
	s := buildCapacitySnapshot(entities.Station{ID: "press", Name: "Press", CycleTimeSec: 600, Installed: 1})

	report := NewAnalyzer().Analyze(s)

	if report.EffectiveDemand != 1200 {
		t.Fatalf("Expected effective demand 1200, got %g", report.EffectiveDemand)
	}
	if len(report.Rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(report.Rows))
	}

	row := report.Rows[0]
	// 600000 s * 0.5 / 600 s = 500 units per machine
	if row.PerMachineUnits != 500 {
		t.Errorf("Expected 500 units per machine, got %g", row.PerMachineUnits)
	}
	if row.RequiredMachines != 2.4 {
		t.Errorf("Expected 2.4 required machines, got %g", row.RequiredMachines)
	}
	if math.Abs(row.Shortfall-1.4) > 1e-9 {
		t.Errorf("Expected shortfall 1.4, got %g", row.Shortfall)
	}
	if row.UtilizationPct != 240 {
		t.Errorf("Expected utilization 240%%, got %g", row.UtilizationPct)
	}
	// 1200 * 30 / 10000
	if report.FTE != 3.6 {
		t.Errorf("Expected FTE 3.6, got %g", report.FTE)
	}
	if report.TaktTimeSec != 500 {
		t.Errorf("Expected takt time 500 s, got %g", report.TaktTimeSec)
	}
}

func TestAnalyzer_BottleneckFirstMaxWins(t *testing.T) {
	s := buildCapacitySnapshot(
		entities.Station{ID: "a", CycleTimeSec: 100, Installed: 1},
		entities.Station{ID: "b", CycleTimeSec: 300, Installed: 2},
		entities.Station{ID: "c", CycleTimeSec: 300, Installed: 2},
		entities.Station{ID: "d", CycleTimeSec: 150, Installed: 1},
	)

	report := NewAnalyzer().Analyze(s)

	if report.BottleneckID != "b" {
		t.Errorf("Expected first of the tied stations (b) to be the bottleneck, got %s", report.BottleneckID)
	}
	flagged := 0
	for _, row := range report.Rows {
		if row.IsBottleneck {
			flagged++
		}
	}
	if flagged != 1 {
		t.Errorf("Expected exactly one bottleneck row, got %d", flagged)
	}
}

func TestAnalyzer_ZeroGuards(t *testing.T) {
	s := buildCapacitySnapshot(
		entities.Station{ID: "no-cycle", CycleTimeSec: 0, Installed: 1},
		entities.Station{ID: "none-installed", CycleTimeSec: 60, Installed: 0},
	)
	g := s.Globals
	g.AvailableMinutes = 0
	s = s.WithGlobals(g)

	report := NewAnalyzer().Analyze(s)

	for _, row := range report.Rows {
		for _, v := range []float64{row.PerMachineUnits, row.RequiredMachines, row.UtilizationPct, row.Shortfall} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				t.Fatalf("Expected finite values, got %+v", row)
			}
		}
	}
	if report.FTE != 0 || report.TaktTimeSec != 0 {
		t.Errorf("Expected FTE and takt 0 with no available time, got %g and %g", report.FTE, report.TaktTimeSec)
	}
	if report.BottleneckID != "no-cycle" {
		t.Errorf("Expected first station to win an all-zero tie, got %s", report.BottleneckID)
	}
}

func TestAnalyzer_NoStations(t *testing.T) {
	report := NewAnalyzer().Analyze(buildCapacitySnapshot())
	if len(report.Rows) != 0 || report.BottleneckID != "" {
		t.Errorf("Expected empty report, got %+v", report)
	}
}
