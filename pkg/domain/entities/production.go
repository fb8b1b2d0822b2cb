package entities

import (
	"fmt"
	"strings"
)

// Stage is a production lifecycle phase that templates and scrap are bound to
type Stage string

const (
	StageAssembly     Stage = "Assembly"
	StagePostAssembly Stage = "Post-Assembly"
)

// ParseStage normalizes a stage label; empty or unknown labels map to Assembly
func ParseStage(s string) Stage {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "post-assembly", "post assembly", "postassembly":
		return StagePostAssembly
	default:
		return StageAssembly
	}
}

// ProcessTemplate describes a reusable production step
type ProcessTemplate struct {
	ID                  string `json:"id" yaml:"id"`
	Name                string `json:"name" yaml:"name"`
	DefaultDurationDays int    `json:"defaultDurationDays" yaml:"defaultDurationDays"`
	AllowedMachineTypes string `json:"allowedMachineTypes" yaml:"allowedMachineTypes"`
	Stage               Stage  `json:"stage,omitempty" yaml:"stage,omitempty"`
}

// GetID implements Identified
func (p ProcessTemplate) GetID() string { return p.ID }

// EffectiveStage is the declared stage, Assembly when none is declared
func (p ProcessTemplate) EffectiveStage() Stage {
	return ParseStage(string(p.Stage))
}

// MachineTypes returns the allowed machine types as a trimmed list
func (p ProcessTemplate) MachineTypes() []string {
	return SplitList(p.AllowedMachineTypes)
}

// BatchStatus is the lifecycle state of a production batch
type BatchStatus string

const (
	BatchPlanned    BatchStatus = "Planned"
	BatchInProgress BatchStatus = "In Progress"
	BatchComplete   BatchStatus = "Complete"
	BatchOnHold     BatchStatus = "On Hold"
)

// ProductionBatch is a run of finished units and its yield record.
// ComponentRejects and ConsumptionOverrides hold "Item Name, Qty" lines.
type ProductionBatch struct {
	ID                   string      `json:"id" yaml:"id"`
	BatchNumber          string      `json:"batchNumber" yaml:"batchNumber"`
	Purpose              string      `json:"purpose" yaml:"purpose"`
	PlannedQty           float64     `json:"plannedQty" yaml:"plannedQty"`
	GoodQty              float64     `json:"goodQty" yaml:"goodQty"`
	ScrapQty             float64     `json:"scrapQty" yaml:"scrapQty"`
	ScrapStage           Stage       `json:"scrapStage,omitempty" yaml:"scrapStage,omitempty"`
	ComponentRejects     string      `json:"componentRejects,omitempty" yaml:"componentRejects,omitempty"`
	ConsumptionOverrides string      `json:"consumptionOverrides,omitempty" yaml:"consumptionOverrides,omitempty"`
	Status               BatchStatus `json:"status" yaml:"status"`
}

// NewProductionBatch creates a validated ProductionBatch
func NewProductionBatch(id, batchNumber string, plannedQty, goodQty, scrapQty float64, scrapStage Stage) (*ProductionBatch, error) {
	if id == "" {
		return nil, fmt.Errorf("batch id cannot be empty")
	}
	if plannedQty < 0 || goodQty < 0 || scrapQty < 0 {
		return nil, fmt.Errorf("batch quantities cannot be negative")
	}
	return &ProductionBatch{
		ID:          id,
		BatchNumber: batchNumber,
		PlannedQty:  plannedQty,
		GoodQty:     goodQty,
		ScrapQty:    scrapQty,
		ScrapStage:  ParseStage(string(scrapStage)),
		Status:      BatchPlanned,
	}, nil
}

// GetID implements Identified
func (b ProductionBatch) GetID() string { return b.ID }

// EffectiveScrapStage is the declared scrap stage, Assembly when none is declared
func (b ProductionBatch) EffectiveScrapStage() Stage {
	return ParseStage(string(b.ScrapStage))
}

// SplitList splits a comma-separated id or type list, dropping blanks
func SplitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}
