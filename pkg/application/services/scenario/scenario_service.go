package scenario

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
	"github.com/vsinha/opsplan/pkg/infrastructure/events"
	"github.com/vsinha/opsplan/pkg/infrastructure/logging"
)

// Collection names used in events and row operations
const (
	CollectionStock       = "stockItems"
	CollectionBatches     = "batches"
	CollectionSchedule    = "schedule"
	CollectionMaintenance = "maintenance"
)

// ErrScenarioExists is returned when creating a scenario whose name is taken
var ErrScenarioExists = errors.New("scenario already exists")

// Service is the editing collaborator: every change loads a snapshot, derives
// a new one and saves it whole, publishing an event per change
type Service struct {
	repo       repositories.ScenarioRepository
	eventStore events.EventStore
	log        *logrus.Entry
}

// NewService creates a scenario service. eventStore may be nil.
func NewService(repo repositories.ScenarioRepository, eventStore events.EventStore) *Service {
	return &Service{
		repo:       repo,
		eventStore: eventStore,
		log:        logging.Component("scenario"),
	}
}

// Create stores a new scenario, seeded with the starter data when seed is set
func (s *Service) Create(ctx context.Context, name string, seed bool) (*entities.Snapshot, error) {
	snapshot, err := entities.NewSnapshot(name)
	if err != nil {
		return nil, err
	}
	if seed {
		snapshot = entities.DefaultSnapshot(name)
	}

	if _, err := s.repo.Get(ctx, name); err == nil {
		return nil, fmt.Errorf("%w: %s", ErrScenarioExists, name)
	} else if !errors.Is(err, repositories.ErrScenarioNotFound) {
		return nil, err
	}

	if _, err := s.Save(ctx, snapshot); err != nil {
		return nil, err
	}
	return snapshot, nil
}

// Save stores the snapshot and publishes scenario.saved
func (s *Service) Save(ctx context.Context, snapshot *entities.Snapshot) (int, error) {
	revision, err := s.repo.Save(ctx, snapshot)
	if err != nil {
		return 0, fmt.Errorf("failed to save scenario %s: %w", snapshot.Name, err)
	}
	s.publish(snapshot.Name, events.ScenarioSavedEvent, events.ScenarioSaved{Name: snapshot.Name, Revision: revision})
	return revision, nil
}

// Get loads the named scenario
func (s *Service) Get(ctx context.Context, name string) (*entities.Snapshot, error) {
	return s.repo.Get(ctx, name)
}

// List returns stored scenario summaries
func (s *Service) List(ctx context.Context) ([]repositories.ScenarioSummary, error) {
	return s.repo.List(ctx)
}

// Delete removes the named scenario and publishes scenario.deleted
func (s *Service) Delete(ctx context.Context, name string) error {
	if err := s.repo.Delete(ctx, name); err != nil {
		return err
	}
	s.publish(name, events.ScenarioDeletedEvent, events.ScenarioDeleted{Name: name})
	return nil
}

// ReplaceCollection applies replace to the stored scenario and saves the
// result; replace returns the new snapshot and the number of rows it holds
func (s *Service) ReplaceCollection(
	ctx context.Context,
	name, collection, source string,
	replace func(*entities.Snapshot) (*entities.Snapshot, int, error),
) (int, error) {
	current, err := s.repo.Get(ctx, name)
	if err != nil {
		return 0, err
	}

	updated, rows, err := replace(current)
	if err != nil {
		return 0, fmt.Errorf("failed to replace %s: %w", collection, err)
	}

	if _, err := s.Save(ctx, updated); err != nil {
		return 0, err
	}
	s.publish(name, events.CollectionReplacedEvent, events.CollectionReplaced{
		Name:       name,
		Collection: collection,
		Rows:       rows,
		Source:     source,
	})
	return rows, nil
}

// UpsertStockItems replaces items by id and appends new ones. Items without
// an id get a generated one. Returns the ids written.
func (s *Service) UpsertStockItems(ctx context.Context, name string, items []entities.StockItem) ([]string, error) {
	return s.edit(ctx, name, CollectionStock, func(snapshot *entities.Snapshot) (*entities.Snapshot, []string) {
		rows, ids := upsertAll(snapshot.StockItems, items, func(item *entities.StockItem) { item.ID = newID(item.ID) })
		return snapshot.WithStockItems(rows), ids
	})
}

// UpsertBatches replaces batches by id and appends new ones
func (s *Service) UpsertBatches(ctx context.Context, name string, batches []entities.ProductionBatch) ([]string, error) {
	return s.edit(ctx, name, CollectionBatches, func(snapshot *entities.Snapshot) (*entities.Snapshot, []string) {
		rows, ids := upsertAll(snapshot.Batches, batches, func(b *entities.ProductionBatch) { b.ID = newID(b.ID) })
		return snapshot.WithBatches(rows), ids
	})
}

// UpsertSchedule replaces scheduled entries by id and appends new ones
func (s *Service) UpsertSchedule(ctx context.Context, name string, entries []entities.ScheduledProcess) ([]string, error) {
	return s.edit(ctx, name, CollectionSchedule, func(snapshot *entities.Snapshot) (*entities.Snapshot, []string) {
		rows, ids := upsertAll(snapshot.Schedule, entries, func(e *entities.ScheduledProcess) { e.ID = newID(e.ID) })
		return snapshot.WithSchedule(rows), ids
	})
}

// UpsertMaintenance replaces maintenance blocks by id and appends new ones
func (s *Service) UpsertMaintenance(ctx context.Context, name string, blocks []entities.MaintenanceBlock) ([]string, error) {
	return s.edit(ctx, name, CollectionMaintenance, func(snapshot *entities.Snapshot) (*entities.Snapshot, []string) {
		rows, ids := upsertAll(snapshot.Maintenance, blocks, func(m *entities.MaintenanceBlock) { m.ID = newID(m.ID) })
		return snapshot.WithMaintenance(rows), ids
	})
}

// DeleteRows removes rows by id from one collection. Unknown ids are ignored.
func (s *Service) DeleteRows(ctx context.Context, name, collection string, ids []string) error {
	current, err := s.repo.Get(ctx, name)
	if err != nil {
		return err
	}

	var updated *entities.Snapshot
	switch collection {
	case CollectionStock:
		updated = current.WithStockItems(deleteAll(current.StockItems, ids))
	case CollectionBatches:
		updated = current.WithBatches(deleteAll(current.Batches, ids))
	case CollectionSchedule:
		updated = current.WithSchedule(deleteAll(current.Schedule, ids))
	case CollectionMaintenance:
		updated = current.WithMaintenance(deleteAll(current.Maintenance, ids))
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}

	if _, err := s.Save(ctx, updated); err != nil {
		return err
	}
	s.publish(name, events.ScenarioRowsDeletedEvent, events.RowsDeleted{Name: name, Collection: collection, IDs: ids})
	return nil
}

func (s *Service) edit(
	ctx context.Context,
	name, collection string,
	apply func(*entities.Snapshot) (*entities.Snapshot, []string),
) ([]string, error) {
	current, err := s.repo.Get(ctx, name)
	if err != nil {
		return nil, err
	}

	updated, ids := apply(current)
	if _, err := s.Save(ctx, updated); err != nil {
		return nil, err
	}
	s.publish(name, events.ScenarioRowsUpsertedEvent, events.RowsUpserted{Name: name, Collection: collection, IDs: ids})
	return ids, nil
}

func (s *Service) publish(stream, eventType string, data interface{}) {
	if s.eventStore == nil {
		return
	}
	if err := s.eventStore.AppendEvent(stream, events.NewEvent(eventType, stream, data)); err != nil {
		s.log.WithError(err).Warnf("failed to publish %s event", eventType)
	}
}

func newID(id string) string {
	if id != "" {
		return id
	}
	return uuid.NewString()
}

func upsertAll[T entities.Identified](rows, items []T, assignID func(*T)) ([]T, []string) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		assignID(&item)
		rows = entities.UpsertByID(rows, item)
		ids = append(ids, item.GetID())
	}
	return rows, ids
}

func deleteAll[T entities.Identified](rows []T, ids []string) []T {
	for _, id := range ids {
		rows = entities.DeleteByID(rows, id)
	}
	return rows
}
