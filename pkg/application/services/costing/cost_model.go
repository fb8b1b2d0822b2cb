package costing

import (
	"github.com/vsinha/opsplan/pkg/application/dto"
	"github.com/vsinha/opsplan/pkg/application/services/shared"
	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// CostModel derives the per-unit cost breakdown and margin of a scenario
type CostModel struct{}

// NewCostModel creates a new cost model
func NewCostModel() *CostModel {
	return &CostModel{}
}

// Calculate computes the cost breakdown. Material is a per-unit rate and is
// not scaled by volume; fixed monthly costs are spread over effective volume.
func (m *CostModel) Calculate(s *entities.Snapshot) dto.CostBreakdown {
	drivers := s.Globals.Resolve()
	volume := drivers.EffectiveDemand()

	labour := shared.SafeDiv(drivers.LabourRatePerHour, 60) * drivers.LabourMinutesPerUnit
	overhead := labour * drivers.OverheadPct
	material := MaterialCostPerUnit(s.StockItems)

	var logistics float64
	for _, lane := range s.LogisticsLanes {
		logistics += shared.SafeDiv(lane.CostPerShipment, lane.UnitsPerShipment)
	}

	var warehouseMonthly float64
	for _, wh := range s.Warehouses {
		warehouseMonthly += wh.MonthlyCost
	}
	warehouse := shared.SafeDiv(warehouseMonthly, volume)

	holding := material * shared.SafeDiv(drivers.AnnualHoldingRate, 12)
	depreciation := shared.SafeDiv(shared.SafeDiv(drivers.CapexTotal, drivers.DepreciationMonths), volume)
	quality := drivers.QualityCostPerUnit

	total := labour + overhead + material + logistics + warehouse + holding + depreciation + quality
	margin := drivers.SalePrice - total

	return dto.CostBreakdown{
		EffectiveVolume:    volume,
		Labour:             labour,
		LabourOverhead:     overhead,
		Material:           material,
		Logistics:          logistics,
		Warehouse:          warehouse,
		Holding:            holding,
		CapexDepreciation:  depreciation,
		Quality:            quality,
		Total:              total,
		MarginPerUnit:      margin,
		MarginPct:          shared.SafeDiv(margin, drivers.SalePrice) * 100,
		MarginGuardrailPct: drivers.MarginGuardrailPct,
	}
}

// MaterialCostPerUnit is the BOM cost of one finished unit
func MaterialCostPerUnit(items []entities.StockItem) float64 {
	var material float64
	for _, item := range items {
		material += item.UnitCost * item.UsagePerUnit
	}
	return material
}
