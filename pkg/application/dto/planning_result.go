package dto

import (
	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/services"
)

// CostBreakdown is the per-unit cost model of a scenario
type CostBreakdown struct {
	EffectiveVolume    float64 `json:"effectiveVolume"`
	Labour             float64 `json:"labour"`
	LabourOverhead     float64 `json:"labourOverhead"`
	Material           float64 `json:"material"`
	Logistics          float64 `json:"logistics"`
	Warehouse          float64 `json:"warehouse"`
	Holding            float64 `json:"holding"`
	CapexDepreciation  float64 `json:"capexDepreciation"`
	Quality            float64 `json:"quality"`
	Total              float64 `json:"total"`
	MarginPerUnit      float64 `json:"marginPerUnit"`
	MarginPct          float64 `json:"marginPct"`
	MarginGuardrailPct float64 `json:"marginGuardrailPct"`
}

// CapacityRow is the capacity check of one station
type CapacityRow struct {
	StationID        string  `json:"stationId"`
	StationName      string  `json:"stationName"`
	CycleTimeSec     float64 `json:"cycleTimeSec"`
	Installed        float64 `json:"installed"`
	PerMachineUnits  float64 `json:"perMachineUnits"`
	StationCapacity  float64 `json:"stationCapacity"`
	RequiredMachines float64 `json:"requiredMachines"`
	Shortfall        float64 `json:"shortfall"`
	UtilizationPct   float64 `json:"utilizationPct"`
	IsBottleneck     bool    `json:"isBottleneck"`
}

// CapacityReport aggregates station rows with the labour estimate
type CapacityReport struct {
	EffectiveDemand float64       `json:"effectiveDemand"`
	MonthlySeconds  float64       `json:"monthlySeconds"`
	TaktTimeSec     float64       `json:"taktTimeSec"`
	Rows            []CapacityRow `json:"rows"`
	BottleneckID    string        `json:"bottleneckId,omitempty"`
	FTE             float64       `json:"fte"`
}

// ExposureRow is the pipeline and safety-stock exposure of one stock item
type ExposureRow struct {
	StockID           string  `json:"stockId"`
	Name              string  `json:"name"`
	DailyDemand       float64 `json:"dailyDemand"`
	PipelineUnits     float64 `json:"pipelineUnits"`
	SafetyStockUnits  float64 `json:"safetyStockUnits"`
	ReorderPointUnits float64 `json:"reorderPointUnits"`
	ExtendedUnitCost  float64 `json:"extendedUnitCost"`
	PipelineValue     float64 `json:"pipelineValue"`
	SafetyStockValue  float64 `json:"safetyStockValue"`
}

// ExposureReport totals exposure across the stock ledger
type ExposureReport struct {
	Rows                  []ExposureRow `json:"rows"`
	TotalPipelineValue    float64       `json:"totalPipelineValue"`
	TotalSafetyStockValue float64       `json:"totalSafetyStockValue"`
	TotalPipelineUnits    float64       `json:"totalPipelineUnits"`
	TotalSafetyUnits      float64       `json:"totalSafetyStockUnits"`
}

// ConsumptionSource labels where a consumed quantity came from
type ConsumptionSource string

const (
	SourceGood              ConsumptionSource = "good"
	SourceScrapRejects      ConsumptionSource = "scrap-rejects"
	SourceScrapFallback     ConsumptionSource = "scrap-fallback"
	SourceScrapPostAssembly ConsumptionSource = "scrap-post-assembly"
	SourceOverride          ConsumptionSource = "override"
)

// ItemConsumption is the quantity of one stock item consumed by one batch
type ItemConsumption struct {
	StockID  string              `json:"stockId"`
	Quantity float64             `json:"quantity"`
	Sources  []ConsumptionSource `json:"sources"`
}

// BatchConsumption is the traceable consumption of one batch
type BatchConsumption struct {
	BatchID              string            `json:"batchId"`
	BatchNumber          string            `json:"batchNumber"`
	AssemblyComplete     bool              `json:"assemblyComplete"`
	PostAssemblyComplete bool              `json:"postAssemblyComplete"`
	Items                []ItemConsumption `json:"items"`
}

// ConsumptionResult maps stock ids to consumed quantity plus the per-batch trace
type ConsumptionResult struct {
	Consumed map[string]float64 `json:"consumed"`
	Batches  []BatchConsumption `json:"batches"`
}

// RemainingStockRow is on-hand minus consumed, classified against thresholds
type RemainingStockRow struct {
	StockID         string               `json:"stockId"`
	Name            string               `json:"name"`
	OnHand          float64              `json:"onHand"`
	Consumed        float64              `json:"consumed"`
	Remaining       float64              `json:"remaining"`
	MinQty          *float64             `json:"minQty,omitempty"`
	ReorderPointQty *float64             `json:"reorderPointQty,omitempty"`
	Status          entities.StockStatus `json:"status"`
}

// EntryState is the readiness of a scheduled entry
type EntryState string

const (
	EntryReady   EntryState = "ready"
	EntryAtRisk  EntryState = "at_risk"
	EntryBlocked EntryState = "blocked"
)

// EntryAssessment explains the state given to one scheduled entry
type EntryAssessment struct {
	ID           string                 `json:"id"`
	BatchID      string                 `json:"batchId"`
	ProcessID    string                 `json:"processId"`
	Date         string                 `json:"date"`
	DurationDays int                    `json:"durationDays"`
	Status       entities.ProcessStatus `json:"status"`
	State        EntryState             `json:"state"`
	ConflictDays []string               `json:"conflictDays,omitempty"`
	Reasons      []string               `json:"reasons,omitempty"`
}

// ConflictSummary counts entry states over the detection window
type ConflictSummary struct {
	WindowStart string            `json:"windowStart"`
	WindowEnd   string            `json:"windowEnd"`
	Ready       int               `json:"ready"`
	AtRisk      int               `json:"atRisk"`
	Blocked     int               `json:"blocked"`
	Entries     []EntryAssessment `json:"entries"`
}

// AlertLevel grades an indicator
type AlertLevel string

const (
	LevelOK       AlertLevel = "ok"
	LevelWarn     AlertLevel = "warn"
	LevelCritical AlertLevel = "critical"
)

// Indicator is one count-based status light
type Indicator struct {
	Key   string     `json:"key"`
	Label string     `json:"label"`
	Count int        `json:"count"`
	Level AlertLevel `json:"level"`
}

// AlertSummary is the dashboard roll-up
type AlertSummary struct {
	BelowMin             int         `json:"belowMin"`
	Reorder              int         `json:"reorder"`
	OpenIssues           int         `json:"openIssues"`
	MachinesDown         int         `json:"machinesDown"`
	AtRisk               int         `json:"atRisk"`
	Blocked              int         `json:"blocked"`
	MarginBelowGuardrail bool        `json:"marginBelowGuardrail"`
	Indicators           []Indicator `json:"indicators"`
}

// PlanningReport is every derived view of one snapshot
type PlanningReport struct {
	Scenario       string                     `json:"scenario"`
	Today          string                     `json:"today"`
	Cost           CostBreakdown              `json:"cost"`
	Capacity       CapacityReport             `json:"capacity"`
	Exposure       ExposureReport             `json:"exposure"`
	Consumption    ConsumptionResult          `json:"consumption"`
	RemainingStock []RemainingStockRow        `json:"remainingStock"`
	Conflicts      ConflictSummary            `json:"conflicts"`
	Alerts         AlertSummary               `json:"alerts"`
	Validation     *services.ValidationResult `json:"validation,omitempty"`
}
