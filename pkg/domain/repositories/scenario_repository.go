package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// ErrScenarioNotFound is returned when no scenario has the requested name
var ErrScenarioNotFound = errors.New("scenario not found")

// ScenarioSummary describes a stored scenario without decoding its collections
type ScenarioSummary struct {
	Name          string    `json:"name"`
	Revision      int       `json:"revision"`
	SchemaVersion int       `json:"schemaVersion"`
	UpdatedAt     time.Time `json:"updatedAt"`
	StockItems    int       `json:"stockItems"`
	Batches       int       `json:"batches"`
	Schedule      int       `json:"schedule"`
}

// ScenarioRepository stores named scenario snapshots
type ScenarioRepository interface {
	// Get returns a copy of the named snapshot or ErrScenarioNotFound
	Get(ctx context.Context, name string) (*entities.Snapshot, error)
	// Save replaces the named snapshot and returns its new revision
	Save(ctx context.Context, s *entities.Snapshot) (int, error)
	// List returns summaries ordered by name
	List(ctx context.Context) ([]ScenarioSummary, error)
	// Delete removes the named snapshot or returns ErrScenarioNotFound
	Delete(ctx context.Context, name string) error
}
