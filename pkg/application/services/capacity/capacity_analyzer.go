package capacity

import (
	"math"

	"github.com/vsinha/opsplan/pkg/application/dto"
	"github.com/vsinha/opsplan/pkg/application/services/shared"
	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// Analyzer compares required against installed machines per station
type Analyzer struct{}

// NewAnalyzer creates a new capacity analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{}
}

// Analyze builds one row per station in snapshot order. The bottleneck is the
// station with the highest utilization; on ties the first station wins.
func (a *Analyzer) Analyze(s *entities.Snapshot) dto.CapacityReport {
	drivers := s.Globals.Resolve()
	demand := drivers.EffectiveDemand()
	monthlySeconds := drivers.AvailableMinutes * 60

	report := dto.CapacityReport{
		EffectiveDemand: demand,
		MonthlySeconds:  monthlySeconds,
		TaktTimeSec:     shared.SafeDiv(monthlySeconds, demand),
		Rows:            make([]dto.CapacityRow, 0, len(s.Stations)),
		FTE:             shared.SafeDiv(demand*drivers.LabourMinutesPerUnit, drivers.AvailableMinutes),
	}

	bottleneck := -1
	for i, station := range s.Stations {
		perMachine := shared.SafeDiv(monthlySeconds*drivers.OEE, station.CycleTimeSec)
		stationCapacity := perMachine * station.Installed
		required := shared.SafeDiv(demand, perMachine)

		row := dto.CapacityRow{
			StationID:        station.ID,
			StationName:      station.Name,
			CycleTimeSec:     station.CycleTimeSec,
			Installed:        station.Installed,
			PerMachineUnits:  perMachine,
			StationCapacity:  stationCapacity,
			RequiredMachines: required,
			Shortfall:        math.Max(0, required-station.Installed),
			UtilizationPct:   shared.SafeDiv(demand, stationCapacity) * 100,
		}
		report.Rows = append(report.Rows, row)

		if bottleneck < 0 || row.UtilizationPct > report.Rows[bottleneck].UtilizationPct {
			bottleneck = i
		}
	}

	if bottleneck >= 0 {
		report.Rows[bottleneck].IsBottleneck = true
		report.BottleneckID = report.Rows[bottleneck].StationID
	}

	return report
}
