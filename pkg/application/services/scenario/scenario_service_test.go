package scenario

import (
	"context"
	"errors"
	"testing"

	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
	"github.com/vsinha/opsplan/pkg/infrastructure/events"
	"github.com/vsinha/opsplan/pkg/infrastructure/repositories/memory"
)

func newTestService() (*Service, *events.InMemoryEventStore) {
	store := events.NewInMemoryEventStore()
	return NewService(memory.NewScenarioRepository(), store), store
}

func eventTypes(t *testing.T, store *events.InMemoryEventStore, stream string) []string {
	t.Helper()
	evts, err := store.ReadEvents(stream, 1)
	if err != nil {
		t.Fatalf("Failed to read events: %v", err)
	}
	out := make([]string, len(evts))
	for i, e := range evts {
		out[i] = e.Type()
	}
	return out
}

func TestService_CreateAndDelete(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()

	created, err := svc.Create(ctx, "plant", true)
	if err != nil {
		t.Fatalf("Failed to create scenario: %v", err)
	}
	if len(created.StockItems) == 0 {
		t.Errorf("Expected seeded scenario to carry starter stock")
	}

	if _, err := svc.Create(ctx, "plant", false); !errors.Is(err, ErrScenarioExists) {
		t.Errorf("Expected ErrScenarioExists, got %v", err)
	}
	if _, err := svc.Create(ctx, "", false); err == nil {
		t.Errorf("Expected error for empty name")
	}

	if err := svc.Delete(ctx, "plant"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := svc.Get(ctx, "plant"); !errors.Is(err, repositories.ErrScenarioNotFound) {
		t.Errorf("Expected ErrScenarioNotFound after delete, got %v", err)
	}

	types := eventTypes(t, store, "plant")
	if len(types) != 2 || types[0] != events.ScenarioSavedEvent || types[1] != events.ScenarioDeletedEvent {
		t.Errorf("Expected saved then deleted events, got %v", types)
	}
}

func TestService_UpsertAssignsIDs(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "plant", true); err != nil {
		t.Fatalf("Failed to create scenario: %v", err)
	}

	ids, err := svc.UpsertStockItems(ctx, "plant", []entities.StockItem{
		{ID: "stk-housing", Name: "Housing", UnitCost: 40, UsagePerUnit: 1, OnHandQty: 10},
		{Name: "Gasket", UnitCost: 0.5, UsagePerUnit: 2},
	})
	if err != nil {
		t.Fatalf("Failed to upsert: %v", err)
	}
	if len(ids) != 2 || ids[0] != "stk-housing" || ids[1] == "" {
		t.Fatalf("Expected existing id kept and a generated id, got %v", ids)
	}

	stored, _ := svc.Get(ctx, "plant")
	if len(stored.StockItems) != 4 {
		t.Fatalf("Expected 4 stock items after upsert, got %d", len(stored.StockItems))
	}
	if stored.StockItems[0].ID != "stk-housing" || stored.StockItems[0].UnitCost != 40 {
		t.Errorf("Expected housing updated in place, got %+v", stored.StockItems[0])
	}
	if stored.StockItems[3].ID != ids[1] {
		t.Errorf("Expected new item appended with id %s, got %s", ids[1], stored.StockItems[3].ID)
	}

	types := eventTypes(t, store, "plant")
	if types[len(types)-1] != events.ScenarioRowsUpsertedEvent {
		t.Errorf("Expected last event %s, got %v", events.ScenarioRowsUpsertedEvent, types)
	}
}

func TestService_ScheduleEdits(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "plant", false); err != nil {
		t.Fatalf("Failed to create scenario: %v", err)
	}

	ids, err := svc.UpsertSchedule(ctx, "plant", []entities.ScheduledProcess{
		{BatchID: "B1", Date: "2024-01-10", DurationDays: 1, ProcessID: "pt-assembly"},
		{BatchID: "B1", Date: "2024-01-11", DurationDays: 1, ProcessID: "pt-test"},
	})
	if err != nil {
		t.Fatalf("Failed to upsert schedule: %v", err)
	}
	if ids[0] == ids[1] {
		t.Fatalf("Expected distinct generated ids, got %v", ids)
	}

	if _, err := svc.UpsertMaintenance(ctx, "plant", []entities.MaintenanceBlock{{Date: "2024-01-11", MachineIDs: "M1"}}); err != nil {
		t.Fatalf("Failed to upsert maintenance: %v", err)
	}
	if _, err := svc.UpsertBatches(ctx, "plant", []entities.ProductionBatch{{ID: "B1", GoodQty: 10}}); err != nil {
		t.Fatalf("Failed to upsert batches: %v", err)
	}

	if err := svc.DeleteRows(ctx, "plant", CollectionSchedule, []string{ids[0], "unknown"}); err != nil {
		t.Fatalf("Failed to delete rows: %v", err)
	}
	stored, _ := svc.Get(ctx, "plant")
	if len(stored.Schedule) != 1 || stored.Schedule[0].ID != ids[1] {
		t.Errorf("Expected only %s to remain, got %+v", ids[1], stored.Schedule)
	}
	if len(stored.Maintenance) != 1 || len(stored.Batches) != 1 {
		t.Errorf("Expected 1 maintenance block and 1 batch, got %d / %d", len(stored.Maintenance), len(stored.Batches))
	}

	if err := svc.DeleteRows(ctx, "plant", "widgets", nil); err == nil {
		t.Errorf("Expected error for unknown collection")
	}
}

func TestService_ReplaceCollection(t *testing.T) {
	svc, store := newTestService()
	ctx := context.Background()
	if _, err := svc.Create(ctx, "plant", true); err != nil {
		t.Fatalf("Failed to create scenario: %v", err)
	}

	rows, err := svc.ReplaceCollection(ctx, "plant", CollectionBatches, "batches.csv",
		func(s *entities.Snapshot) (*entities.Snapshot, int, error) {
			batches := []entities.ProductionBatch{{ID: "B9", GoodQty: 3}}
			return s.WithBatches(batches), len(batches), nil
		})
	if err != nil {
		t.Fatalf("Failed to replace collection: %v", err)
	}
	if rows != 1 {
		t.Errorf("Expected 1 row, got %d", rows)
	}

	types := eventTypes(t, store, "plant")
	if types[len(types)-1] != events.CollectionReplacedEvent {
		t.Errorf("Expected collection.replaced last, got %v", types)
	}

	failing := func(s *entities.Snapshot) (*entities.Snapshot, int, error) {
		return nil, 0, errors.New("bad file")
	}
	if _, err := svc.ReplaceCollection(ctx, "plant", CollectionBatches, "x", failing); err == nil {
		t.Errorf("Expected replace error to propagate")
	}
	if _, err := svc.ReplaceCollection(ctx, "missing", CollectionBatches, "x", failing); !errors.Is(err, repositories.ErrScenarioNotFound) {
		t.Errorf("Expected ErrScenarioNotFound, got %v", err)
	}
}
