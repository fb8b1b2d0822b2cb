package exposure

import (
	"github.com/vsinha/opsplan/pkg/application/dto"
	"github.com/vsinha/opsplan/pkg/application/services/shared"
	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// DaysPerMonth converts monthly demand to daily demand
const DaysPerMonth = 30

// Calculator derives pipeline and safety-stock exposure per stock item
type Calculator struct{}

// NewCalculator creates a new exposure calculator
func NewCalculator() *Calculator {
	return &Calculator{}
}

// Calculate returns one row per stock item and additive totals
func (c *Calculator) Calculate(s *entities.Snapshot) dto.ExposureReport {
	drivers := s.Globals.Resolve()
	daily := shared.SafeDiv(drivers.EffectiveDemand(), DaysPerMonth)

	report := dto.ExposureReport{
		Rows: make([]dto.ExposureRow, 0, len(s.StockItems)),
	}

	for _, item := range s.StockItems {
		pipelineUnits := daily * item.LeadTimeDays
		safetyUnits := daily * drivers.SafetyStockDays
		extended := item.UnitCost * item.UsagePerUnit

		row := dto.ExposureRow{
			StockID:           item.ID,
			Name:              item.Name,
			DailyDemand:       daily,
			PipelineUnits:     pipelineUnits,
			SafetyStockUnits:  safetyUnits,
			ReorderPointUnits: pipelineUnits + safetyUnits,
			ExtendedUnitCost:  extended,
			PipelineValue:     pipelineUnits * extended,
			SafetyStockValue:  safetyUnits * extended,
		}
		report.Rows = append(report.Rows, row)

		report.TotalPipelineValue += row.PipelineValue
		report.TotalSafetyStockValue += row.SafetyStockValue
		report.TotalPipelineUnits += row.PipelineUnits
		report.TotalSafetyUnits += row.SafetyStockUnits
	}

	return report
}
