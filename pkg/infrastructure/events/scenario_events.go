package events

const (
	ScenarioSavedEvent        = "scenario.saved"
	ScenarioDeletedEvent      = "scenario.deleted"
	CollectionReplacedEvent   = "collection.replaced"
	ScenarioRowsUpsertedEvent = "scenario.rows.upserted"
	ScenarioRowsDeletedEvent  = "scenario.rows.deleted"
)

// ScenarioEventTypes lists every event the scenario service publishes
func ScenarioEventTypes() []string {
	return []string{
		ScenarioSavedEvent,
		ScenarioDeletedEvent,
		CollectionReplacedEvent,
		ScenarioRowsUpsertedEvent,
		ScenarioRowsDeletedEvent,
	}
}

type ScenarioSaved struct {
	Name     string `json:"name"`
	Revision int    `json:"revision"`
}

type ScenarioDeleted struct {
	Name string `json:"name"`
}

type CollectionReplaced struct {
	Name       string `json:"name"`
	Collection string `json:"collection"`
	Rows       int    `json:"rows"`
	Source     string `json:"source,omitempty"`
}

type RowsUpserted struct {
	Name       string   `json:"name"`
	Collection string   `json:"collection"`
	IDs        []string `json:"ids"`
}

type RowsDeleted struct {
	Name       string   `json:"name"`
	Collection string   `json:"collection"`
	IDs        []string `json:"ids"`
}
