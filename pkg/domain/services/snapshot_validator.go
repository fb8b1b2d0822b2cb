package services

import (
	"fmt"
	"strings"

	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// SnapshotValidator checks a scenario snapshot for structural problems.
// It never fails: every problem is reported as a warning so callers can
// decide whether to proceed.
type SnapshotValidator struct{}

// NewSnapshotValidator creates a new snapshot validator
func NewSnapshotValidator() *SnapshotValidator {
	return &SnapshotValidator{}
}

// ValidationResult contains the results of snapshot validation
type ValidationResult struct {
	DuplicateIDs        []string `json:"duplicateIds,omitempty"`
	DuplicateStockNames []string `json:"duplicateStockNames,omitempty"`
	NegativeUsage       []string `json:"negativeUsage,omitempty"`
	DanglingReferences  []string `json:"danglingReferences,omitempty"`
	MachineTypeMismatch []string `json:"machineTypeMismatch,omitempty"`
	InvalidDates        []string `json:"invalidDates,omitempty"`
	Warnings            []string `json:"warnings"`
}

// HasWarnings reports whether anything was flagged
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Validate runs every check against the snapshot
func (v *SnapshotValidator) Validate(s *entities.Snapshot) *ValidationResult {
	result := &ValidationResult{Warnings: make([]string, 0)}

	v.detectDuplicateIDs(s, result)
	v.detectDuplicateStockNames(s.StockItems, result)

	for _, item := range s.StockItems {
		if item.UsagePerUnit < 0 {
			result.NegativeUsage = append(result.NegativeUsage, item.ID)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("stock item %s has negative usage per finished unit (%g)", item.ID, item.UsagePerUnit))
		}
	}

	v.detectDanglingReferences(s, result)
	v.detectInvalidDates(s, result)

	return result
}

func (v *SnapshotValidator) detectDuplicateIDs(s *entities.Snapshot, result *ValidationResult) {
	check := func(collection string, ids []string) {
		seen := make(map[string]bool, len(ids))
		for _, id := range ids {
			if seen[id] {
				key := collection + ":" + id
				result.DuplicateIDs = append(result.DuplicateIDs, key)
				result.Warnings = append(result.Warnings, fmt.Sprintf("duplicate id %s in %s", id, collection))
				continue
			}
			seen[id] = true
		}
	}

	check("stockItems", idsOf(s.StockItems))
	check("machines", idsOf(s.Machines))
	check("people", idsOf(s.People))
	check("stations", idsOf(s.Stations))
	check("processTemplates", idsOf(s.ProcessTemplates))
	check("batches", idsOf(s.Batches))
	check("schedule", idsOf(s.Schedule))
	check("maintenance", idsOf(s.Maintenance))
}

// detectDuplicateStockNames flags names that collide under case-insensitive
// matching; line items naming them resolve to the first item only
func (v *SnapshotValidator) detectDuplicateStockNames(items []entities.StockItem, result *ValidationResult) {
	seen := make(map[string]string, len(items))
	for _, item := range items {
		key := strings.ToLower(strings.TrimSpace(item.Name))
		if key == "" {
			continue
		}
		if firstID, exists := seen[key]; exists {
			result.DuplicateStockNames = append(result.DuplicateStockNames, item.Name)
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("stock name %q on %s collides with %s", item.Name, item.ID, firstID))
			continue
		}
		seen[key] = item.ID
	}
}

func (v *SnapshotValidator) detectDanglingReferences(s *entities.Snapshot, result *ValidationResult) {
	batches := entities.IndexByID(s.Batches)
	templates := entities.IndexByID(s.ProcessTemplates)
	machines := entities.IndexByID(s.Machines)
	people := entities.IndexByID(s.People)

	dangling := func(msg string) {
		result.DanglingReferences = append(result.DanglingReferences, msg)
		result.Warnings = append(result.Warnings, msg)
	}

	for _, sp := range s.Schedule {
		if _, ok := batches[sp.BatchID]; !ok {
			dangling(fmt.Sprintf("schedule entry %s references unknown batch %q", sp.ID, sp.BatchID))
		}
		template, hasTemplate := templates[sp.ProcessID]
		if !hasTemplate {
			dangling(fmt.Sprintf("schedule entry %s references unknown process %q", sp.ID, sp.ProcessID))
		}
		allowed := template.MachineTypes()
		for _, id := range sp.MachineList() {
			machine, ok := machines[id]
			if !ok {
				dangling(fmt.Sprintf("schedule entry %s assigns unknown machine %q", sp.ID, id))
				continue
			}
			// templates without allowed types accept any machine
			if len(allowed) > 0 && !containsFold(allowed, machine.Type) {
				msg := fmt.Sprintf("schedule entry %s assigns %s machine %s to %s, which allows %s",
					sp.ID, typeLabel(machine.Type), id, sp.ProcessID, strings.Join(allowed, ", "))
				result.MachineTypeMismatch = append(result.MachineTypeMismatch, sp.ID+":"+id)
				result.Warnings = append(result.Warnings, msg)
			}
		}
		for _, id := range sp.People() {
			if _, ok := people[id]; !ok {
				dangling(fmt.Sprintf("schedule entry %s assigns unknown person %q", sp.ID, id))
			}
		}
	}

	for _, block := range s.Maintenance {
		for _, id := range block.MachineList() {
			if _, ok := machines[id]; !ok {
				dangling(fmt.Sprintf("maintenance block %s names unknown machine %q", block.ID, id))
			}
		}
	}
}

func (v *SnapshotValidator) detectInvalidDates(s *entities.Snapshot, result *ValidationResult) {
	for _, sp := range s.Schedule {
		if _, err := entities.ParseDay(sp.Date); err != nil {
			result.InvalidDates = append(result.InvalidDates, sp.ID)
			result.Warnings = append(result.Warnings, fmt.Sprintf("schedule entry %s: %v", sp.ID, err))
		}
	}
	for _, block := range s.Maintenance {
		if _, err := entities.ParseDay(block.Date); err != nil {
			result.InvalidDates = append(result.InvalidDates, block.ID)
			result.Warnings = append(result.Warnings, fmt.Sprintf("maintenance block %s: %v", block.ID, err))
		}
	}
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, strings.TrimSpace(want)) {
			return true
		}
	}
	return false
}

func typeLabel(machineType string) string {
	if strings.TrimSpace(machineType) == "" {
		return "untyped"
	}
	return machineType
}

func idsOf[T entities.Identified](rows []T) []string {
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.GetID()
	}
	return ids
}
