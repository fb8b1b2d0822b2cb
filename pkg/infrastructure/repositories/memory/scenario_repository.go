package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
)

type storedScenario struct {
	snapshot  *entities.Snapshot
	revision  int
	updatedAt time.Time
}

// ScenarioRepository provides in-memory scenario storage
type ScenarioRepository struct {
	mu        sync.RWMutex
	scenarios map[string]storedScenario
	now       func() time.Time
}

// NewScenarioRepository creates a new in-memory scenario repository
func NewScenarioRepository() *ScenarioRepository {
	return &ScenarioRepository{
		scenarios: make(map[string]storedScenario),
		now:       time.Now,
	}
}

// Verify interface compliance
var _ repositories.ScenarioRepository = (*ScenarioRepository)(nil)

// Get returns a copy of the named snapshot
func (r *ScenarioRepository) Get(ctx context.Context, name string) (*entities.Snapshot, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, exists := r.scenarios[name]
	if !exists {
		return nil, fmt.Errorf("%w: %s", repositories.ErrScenarioNotFound, name)
	}
	return stored.snapshot.Clone(), nil
}

// Save stores a copy of the snapshot and bumps its revision
func (r *ScenarioRepository) Save(ctx context.Context, s *entities.Snapshot) (int, error) {
	if s == nil || s.Name == "" {
		return 0, fmt.Errorf("scenario name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	revision := r.scenarios[s.Name].revision + 1
	r.scenarios[s.Name] = storedScenario{
		snapshot:  s.Clone(),
		revision:  revision,
		updatedAt: r.now().UTC(),
	}
	return revision, nil
}

// List returns summaries ordered by name
func (r *ScenarioRepository) List(ctx context.Context) ([]repositories.ScenarioSummary, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	summaries := make([]repositories.ScenarioSummary, 0, len(r.scenarios))
	for name, stored := range r.scenarios {
		summaries = append(summaries, repositories.ScenarioSummary{
			Name:          name,
			Revision:      stored.revision,
			SchemaVersion: stored.snapshot.SchemaVersion,
			UpdatedAt:     stored.updatedAt,
			StockItems:    len(stored.snapshot.StockItems),
			Batches:       len(stored.snapshot.Batches),
			Schedule:      len(stored.snapshot.Schedule),
		})
	}
	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Name < summaries[j].Name
	})
	return summaries, nil
}

// Delete removes the named snapshot
func (r *ScenarioRepository) Delete(ctx context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.scenarios[name]; !exists {
		return fmt.Errorf("%w: %s", repositories.ErrScenarioNotFound, name)
	}
	delete(r.scenarios, name)
	return nil
}
