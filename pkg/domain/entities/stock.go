package entities

import (
	"fmt"
	"strings"
)

// StockStatus classifies remaining stock against its thresholds
type StockStatus string

const (
	StockOK       StockStatus = "OK"
	StockReorder  StockStatus = "Reorder"
	StockBelowMin StockStatus = "Below Min"
)

// StockItem is one row of the BOM-backed stock ledger.
// OnHandQty may be negative; it is never clamped here.
type StockItem struct {
	ID              string   `json:"id" yaml:"id"`
	Name            string   `json:"name" yaml:"name"`
	UnitCost        float64  `json:"unitCost" yaml:"unitCost"`
	Unit            string   `json:"unit" yaml:"unit"`
	Location        string   `json:"location" yaml:"location"`
	UsagePerUnit    float64  `json:"usagePerFinishedUnit" yaml:"usagePerFinishedUnit"`
	LeadTimeDays    float64  `json:"leadTimeDays" yaml:"leadTimeDays"`
	MOQ             float64  `json:"moq" yaml:"moq"`
	SingleSource    bool     `json:"singleSource" yaml:"singleSource"`
	OnHandQty       float64  `json:"onHandQty" yaml:"onHandQty"`
	ReorderPointQty *float64 `json:"reorderPointQty,omitempty" yaml:"reorderPointQty,omitempty"`
	MinQty          *float64 `json:"minQty,omitempty" yaml:"minQty,omitempty"`
}

// NewStockItem creates a validated StockItem
func NewStockItem(id, name string, unitCost, usagePerUnit, onHand float64) (*StockItem, error) {
	if id == "" {
		return nil, fmt.Errorf("stock item id cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("stock item name cannot be empty")
	}
	if usagePerUnit < 0 {
		return nil, fmt.Errorf("usage per finished unit cannot be negative, got %g", usagePerUnit)
	}
	if unitCost < 0 {
		return nil, fmt.Errorf("unit cost cannot be negative, got %g", unitCost)
	}

	return &StockItem{
		ID:           id,
		Name:         name,
		UnitCost:     unitCost,
		UsagePerUnit: usagePerUnit,
		OnHandQty:    onHand,
	}, nil
}

// GetID implements Identified
func (s StockItem) GetID() string { return s.ID }

func (s StockItem) clone() StockItem {
	out := s
	out.ReorderPointQty = clonePtr(s.ReorderPointQty)
	out.MinQty = clonePtr(s.MinQty)
	return out
}

// ClassifyRemaining applies the threshold rules: below min wins over reorder
func (s StockItem) ClassifyRemaining(remaining float64) StockStatus {
	if s.MinQty != nil && remaining < *s.MinQty {
		return StockBelowMin
	}
	if s.ReorderPointQty != nil && remaining < *s.ReorderPointQty {
		return StockReorder
	}
	return StockOK
}
