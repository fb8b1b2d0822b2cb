package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
)

func openTestRepo(t *testing.T) *ScenarioRepository {
	t.Helper()
	repo, err := Open(filepath.Join(t.TempDir(), "opsplan.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestScenarioRepository_SaveGet(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	snapshot := entities.DefaultSnapshot("plant")
	snapshot.Batches = []entities.ProductionBatch{{ID: "B1", BatchNumber: "001", GoodQty: 10, ComponentRejects: "Housing, 2"}}

	revision, err := repo.Save(ctx, snapshot)
	if err != nil {
		t.Fatalf("Failed to save scenario: %v", err)
	}
	if revision != 1 {
		t.Errorf("Expected revision 1, got %d", revision)
	}

	loaded, err := repo.Get(ctx, "plant")
	if err != nil {
		t.Fatalf("Failed to get scenario: %v", err)
	}
	if len(loaded.StockItems) != 3 || len(loaded.Batches) != 1 {
		t.Fatalf("Expected 3 stock items and 1 batch, got %d / %d", len(loaded.StockItems), len(loaded.Batches))
	}
	if loaded.Batches[0].ComponentRejects != "Housing, 2" {
		t.Errorf("Expected component rejects to survive, got %q", loaded.Batches[0].ComponentRejects)
	}
	if loaded.Globals.ScrapRate == nil || *loaded.Globals.ScrapRate != 0.02 {
		t.Errorf("Expected scrap rate 0.02, got %v", loaded.Globals.ScrapRate)
	}
	if loaded.Maintenance == nil {
		t.Errorf("Expected empty maintenance, got nil")
	}

	revision, err = repo.Save(ctx, loaded)
	if err != nil {
		t.Fatalf("Failed to resave scenario: %v", err)
	}
	if revision != 2 {
		t.Errorf("Expected revision 2, got %d", revision)
	}
}

func TestScenarioRepository_ListDeleteHistory(t *testing.T) {
	repo := openTestRepo(t)
	ctx := context.Background()

	for _, name := range []string{"b-plant", "a-plant"} {
		if _, err := repo.Save(ctx, entities.DefaultSnapshot(name)); err != nil {
			t.Fatalf("Failed to save %s: %v", name, err)
		}
	}

	summaries, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("Failed to list: %v", err)
	}
	if len(summaries) != 2 || summaries[0].Name != "a-plant" {
		t.Fatalf("Expected a-plant first, got %+v", summaries)
	}
	if summaries[0].StockItems != 3 || summaries[0].SchemaVersion != entities.SchemaVersion {
		t.Errorf("Unexpected summary %+v", summaries[0])
	}
	if summaries[0].UpdatedAt.IsZero() {
		t.Errorf("Expected updated time to be set")
	}

	if err := repo.Delete(ctx, "a-plant"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := repo.Get(ctx, "a-plant"); !errors.Is(err, repositories.ErrScenarioNotFound) {
		t.Errorf("Expected ErrScenarioNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, "a-plant"); !errors.Is(err, repositories.ErrScenarioNotFound) {
		t.Errorf("Expected ErrScenarioNotFound on second delete, got %v", err)
	}

	history, err := repo.History(ctx, "a-plant")
	if err != nil {
		t.Fatalf("Failed to read history: %v", err)
	}
	if len(history) != 2 || history[0].ChangeType != "saved" || history[1].ChangeType != "deleted" {
		t.Errorf("Expected saved then deleted, got %+v", history)
	}
}

func TestScenarioRepository_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "opsplan.db")
	ctx := context.Background()

	repo, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to open: %v", err)
	}
	if _, err := repo.Save(ctx, entities.DefaultSnapshot("persisted")); err != nil {
		t.Fatalf("Failed to save: %v", err)
	}
	repo.Close()

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("Failed to reopen: %v", err)
	}
	defer reopened.Close()

	if _, err := reopened.Get(ctx, "persisted"); err != nil {
		t.Errorf("Expected scenario to persist across opens, got %v", err)
	}
}
