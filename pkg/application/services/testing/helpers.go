package testing

import (
	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// Process template ids used by the plant fixture
const (
	AssemblyTemplateID     = "pt-assembly"
	PostAssemblyTemplateID = "pt-test"
)

// MustCreateStockItem is a helper for tests - panics on validation error
func MustCreateStockItem(id, name string, unitCost, usage, onHand float64) entities.StockItem {
	item, err := entities.NewStockItem(id, name, unitCost, usage, onHand)
	if err != nil {
		panic(err)
	}
	return *item
}

// MustCreateBatch is a helper for tests - panics on validation error
func MustCreateBatch(id string, good, scrap float64, scrapStage entities.Stage) entities.ProductionBatch {
	batch, err := entities.NewProductionBatch(id, id, good+scrap, good, scrap, scrapStage)
	if err != nil {
		panic(err)
	}
	return *batch
}

// MustCreateEntry is a helper for tests - panics on validation error
func MustCreateEntry(
	id, batchID, date string,
	durationDays int,
	processID string,
	status entities.ProcessStatus,
	personIDs, machineIDs string,
) entities.ScheduledProcess {
	entry, err := entities.NewScheduledProcess(id, batchID, date, durationDays, processID)
	if err != nil {
		panic(err)
	}
	entry.Status = status
	entry.PersonIDs = personIDs
	entry.MachineIDs = machineIDs
	return *entry
}

// MustCreateMaintenance is a helper for tests - panics on validation error
func MustCreateMaintenance(id, date string, durationDays int, machineIDs string) entities.MaintenanceBlock {
	block, err := entities.NewMaintenanceBlock(id, date, durationDays, machineIDs, "Maintenance "+id)
	if err != nil {
		panic(err)
	}
	return *block
}

// BuildPlantSnapshot builds a small plant: two stages, two machines, two
// people and no batches or schedule
func BuildPlantSnapshot() *entities.Snapshot {
	s, err := entities.NewSnapshot("plant")
	if err != nil {
		panic(err)
	}
	s.Globals = entities.GlobalInputs{
		SalePrice:            100,
		MonthlyDemand:        600,
		AvailableMinutes:     9600,
		OEE:                  0.8,
		LabourRatePerHour:    30,
		LabourMinutesPerUnit: 12,
		MarginGuardrailPct:   20,
	}
	s.ProcessTemplates = []entities.ProcessTemplate{
		{ID: AssemblyTemplateID, Name: "Assembly", DefaultDurationDays: 1, Stage: entities.StageAssembly},
		{ID: PostAssemblyTemplateID, Name: "Test", DefaultDurationDays: 1, Stage: entities.StagePostAssembly},
	}
	s.Machines = []entities.Machine{
		{ID: "M1", Name: "Cell 1", Type: "assembly", Status: entities.MachineAvailable},
		{ID: "M2", Name: "Rig 1", Type: "test", Status: entities.MachineAvailable},
	}
	s.People = []entities.Person{
		{ID: "P1", Name: "Operator 1"},
		{ID: "P2", Name: "Operator 2"},
	}
	s.Stations = []entities.Station{
		{ID: "st-assembly", Name: "Assembly", CycleTimeSec: 300, Installed: 1},
	}
	return s
}

// BuildSingleItemScenario is plant with batch B1 of goodQty 100 whose
// Assembly entry is complete and one stock item using 2 per unit
func BuildSingleItemScenario(minQty, reorderQty *float64) *entities.Snapshot {
	s := BuildPlantSnapshot()
	item := MustCreateStockItem("stk-1", "Widget Body", 3, 2, 500)
	item.MinQty = minQty
	item.ReorderPointQty = reorderQty
	s.StockItems = []entities.StockItem{item}
	s.Batches = []entities.ProductionBatch{MustCreateBatch("B1", 100, 0, entities.StageAssembly)}
	s.Schedule = []entities.ScheduledProcess{
		MustCreateEntry("sp-1", "B1", "2024-01-10", 1, AssemblyTemplateID, entities.ProcessComplete, "P1", "M1"),
	}
	return s
}
