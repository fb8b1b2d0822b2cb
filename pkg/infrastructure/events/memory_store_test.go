package events

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

func TestInMemoryEventStore_Versions(t *testing.T) {
	store := NewInMemoryEventStore()

	for i := 0; i < 3; i++ {
		if err := store.AppendEvent("plant", NewEvent(ScenarioSavedEvent, "plant", ScenarioSaved{Name: "plant", Revision: i + 1})); err != nil {
			t.Fatalf("Failed to append event: %v", err)
		}
	}
	if err := store.AppendEvent("other", NewEvent(ScenarioDeletedEvent, "other", ScenarioDeleted{Name: "other"})); err != nil {
		t.Fatalf("Failed to append event: %v", err)
	}

	events, _ := store.ReadEvents("plant", 2)
	if len(events) != 2 {
		t.Fatalf("Expected 2 events from version 2, got %d", len(events))
	}
	if events[0].Version() != 2 || events[1].Version() != 3 {
		t.Errorf("Expected versions 2 and 3, got %d and %d", events[0].Version(), events[1].Version())
	}
	if events[0].ID() == "" || events[0].ID() == events[1].ID() {
		t.Errorf("Expected distinct event ids, got %q and %q", events[0].ID(), events[1].ID())
	}

	other, _ := store.ReadEvents("other", 0)
	if len(other) != 1 || other[0].Version() != 1 {
		t.Errorf("Expected the other stream versioned on its own, got %v", other)
	}
	if none, _ := store.ReadEvents("missing", 1); len(none) != 0 {
		t.Errorf("Expected no events for unknown stream")
	}
}

func TestInMemoryEventStore_Subscribers(t *testing.T) {
	store := NewInMemoryEventStore()

	var seen []string
	handler := &HandlerFunc{
		Types: []string{ScenarioSavedEvent},
		Fn: func(e Event) error {
			seen = append(seen, e.Type())
			return errors.New("handler errors are logged, not returned")
		},
	}
	if err := store.Subscribe([]string{ScenarioSavedEvent, ScenarioDeletedEvent}, handler); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	store.AppendEvent("plant", NewEvent(ScenarioSavedEvent, "plant", nil))
	store.AppendEvent("plant", NewEvent(ScenarioDeletedEvent, "plant", nil))

	if len(seen) != 1 || seen[0] != ScenarioSavedEvent {
		t.Errorf("Expected only the saved event to be handled, got %v", seen)
	}

	store.Unsubscribe(handler)
	store.AppendEvent("plant", NewEvent(ScenarioSavedEvent, "plant", nil))

	if len(seen) != 1 {
		t.Errorf("Expected no delivery after unsubscribe, got %v", seen)
	}
}

func TestLogHandler_WritesPayloadFields(t *testing.T) {
	var buf bytes.Buffer
	logger := logrus.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	store := NewInMemoryEventStore()
	if err := store.Subscribe(ScenarioEventTypes(), NewLogHandler(logrus.NewEntry(logger))); err != nil {
		t.Fatalf("Failed to subscribe: %v", err)
	}

	store.AppendEvent("plant", NewEvent(ScenarioSavedEvent, "plant", ScenarioSaved{Name: "plant", Revision: 3}))
	store.AppendEvent("plant", NewEvent(CollectionReplacedEvent, "plant",
		CollectionReplaced{Name: "plant", Collection: "stockItems", Rows: 12, Source: "stock.csv"}))
	// row changes log at debug and stay hidden at info
	store.AppendEvent("plant", NewEvent(ScenarioRowsUpsertedEvent, "plant",
		RowsUpserted{Name: "plant", Collection: "batches", IDs: []string{"B1"}}))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("Expected 2 log lines, got %d:\n%s", len(lines), buf.String())
	}

	saved := gjson.Parse(lines[0])
	if saved.Get("msg").String() != ScenarioSavedEvent || saved.Get("revision").Int() != 3 || saved.Get("stream").String() != "plant" {
		t.Errorf("Unexpected saved line: %s", lines[0])
	}
	replaced := gjson.Parse(lines[1])
	if replaced.Get("collection").String() != "stockItems" || replaced.Get("rows").Int() != 12 || replaced.Get("source").String() != "stock.csv" {
		t.Errorf("Unexpected replaced line: %s", lines[1])
	}
	if replaced.Get("version").Int() != 2 {
		t.Errorf("Expected version 2, got %d", replaced.Get("version").Int())
	}
}

func TestLogHandler_CanHandle(t *testing.T) {
	h := NewLogHandler(logrus.NewEntry(logrus.New()))
	if !h.CanHandle(ScenarioDeletedEvent) {
		t.Errorf("Expected %s to be handled", ScenarioDeletedEvent)
	}
	if h.CanHandle("report.generated") {
		t.Errorf("Expected unknown event types to be ignored")
	}
}
