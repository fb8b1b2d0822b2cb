package events

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// LogHandler writes scenario events to a logrus entry with their payload as
// fields
type LogHandler struct {
	log *logrus.Entry
}

func NewLogHandler(log *logrus.Entry) *LogHandler {
	return &LogHandler{log: log}
}

func (h *LogHandler) CanHandle(eventType string) bool {
	for _, t := range ScenarioEventTypes() {
		if t == eventType {
			return true
		}
	}
	return false
}

func (h *LogHandler) Handle(event Event) error {
	entry := h.log.WithFields(logrus.Fields{
		"event":   event.Type(),
		"stream":  event.StreamID(),
		"version": event.Version(),
	}).WithFields(payloadFields(event.Data()))

	switch event.Type() {
	case ScenarioRowsUpsertedEvent, ScenarioRowsDeletedEvent:
		entry.Debug("scenario rows changed")
	default:
		entry.Info(event.Type())
	}
	return nil
}

func payloadFields(data interface{}) logrus.Fields {
	switch d := data.(type) {
	case ScenarioSaved:
		return logrus.Fields{"revision": d.Revision}
	case CollectionReplaced:
		fields := logrus.Fields{"collection": d.Collection, "rows": d.Rows}
		if d.Source != "" {
			fields["source"] = d.Source
		}
		return fields
	case RowsUpserted:
		return logrus.Fields{"collection": d.Collection, "ids": strings.Join(d.IDs, ",")}
	case RowsDeleted:
		return logrus.Fields{"collection": d.Collection, "ids": strings.Join(d.IDs, ",")}
	default:
		return logrus.Fields{}
	}
}
