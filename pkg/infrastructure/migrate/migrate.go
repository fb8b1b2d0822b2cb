package migrate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"gopkg.in/yaml.v3"

	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/infrastructure/logging"
)

// collections lists the array keys every current document carries
var collections = []string{
	"stockItems",
	"machines",
	"people",
	"stations",
	"processTemplates",
	"batches",
	"schedule",
	"maintenance",
	"logisticsLanes",
	"warehouses",
}

// legacyKeys renames keys written by older schema versions, in a fixed order
// so renamed keys always land in the same position
var legacyKeys = []struct{ legacy, current string }{
	{"runs", "batches"},
	{"stock", "stockItems"},
	{"processes", "processTemplates"},
	{"maintenances", "maintenance"},
	{"lanes", "logisticsLanes"},
}

// Normalize upgrades a JSON scenario document to the current schema: legacy
// keys are renamed, absent or null collections become empty arrays, globals
// default to an empty object, and schemaVersion is set.
func Normalize(doc []byte) ([]byte, error) {
	if !gjson.ValidBytes(doc) {
		return nil, fmt.Errorf("scenario document is not valid JSON")
	}
	if !gjson.ParseBytes(doc).IsObject() {
		return nil, fmt.Errorf("scenario document must be a JSON object")
	}

	from := int(gjson.GetBytes(doc, "schemaVersion").Int())
	var err error

	for _, key := range legacyKeys {
		legacy, current := key.legacy, key.current
		old := gjson.GetBytes(doc, legacy)
		if !old.Exists() {
			continue
		}
		if !gjson.GetBytes(doc, current).Exists() {
			if doc, err = sjson.SetRawBytes(doc, current, []byte(old.Raw)); err != nil {
				return nil, fmt.Errorf("failed to rename %s: %w", legacy, err)
			}
		}
		if doc, err = sjson.DeleteBytes(doc, legacy); err != nil {
			return nil, fmt.Errorf("failed to drop %s: %w", legacy, err)
		}
	}

	for _, key := range collections {
		value := gjson.GetBytes(doc, key)
		if value.Exists() && value.IsArray() {
			continue
		}
		if doc, err = sjson.SetRawBytes(doc, key, []byte("[]")); err != nil {
			return nil, fmt.Errorf("failed to default %s: %w", key, err)
		}
	}

	if globals := gjson.GetBytes(doc, "globals"); !globals.IsObject() {
		if doc, err = sjson.SetRawBytes(doc, "globals", []byte("{}")); err != nil {
			return nil, fmt.Errorf("failed to default globals: %w", err)
		}
	}

	if from < entities.SchemaVersion {
		if doc, err = sjson.SetBytes(doc, "schemaVersion", entities.SchemaVersion); err != nil {
			return nil, fmt.Errorf("failed to set schema version: %w", err)
		}
		logging.Component("migrate").WithField("from", from).Debugf("upgraded scenario document to schema %d", entities.SchemaVersion)
	}

	return doc, nil
}

// Decode normalizes a JSON document and unmarshals it into a snapshot
func Decode(doc []byte) (*entities.Snapshot, error) {
	normalized, err := Normalize(doc)
	if err != nil {
		return nil, err
	}
	var s entities.Snapshot
	if err := json.Unmarshal(normalized, &s); err != nil {
		return nil, fmt.Errorf("failed to decode scenario: %w", err)
	}
	return &s, nil
}

// YAMLToJSON converts a YAML scenario document to JSON, keeping keys as written
func YAMLToJSON(data []byte) ([]byte, error) {
	var tree interface{}
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	doc, err := json.Marshal(tree)
	if err != nil {
		return nil, fmt.Errorf("failed to convert YAML to JSON: %w", err)
	}
	return doc, nil
}

// LoadFile reads a JSON or YAML scenario file. When the document has no name
// the file name without extension is used.
func LoadFile(path string) (*entities.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yaml" || ext == ".yml" {
		if data, err = YAMLToJSON(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	s, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return s, nil
}

// Encode marshals a snapshot to the current JSON document form
func Encode(s *entities.Snapshot) ([]byte, error) {
	out := s.Clone()
	out.SchemaVersion = entities.SchemaVersion
	doc, err := json.Marshal(out)
	if err != nil {
		return nil, fmt.Errorf("failed to encode scenario: %w", err)
	}
	// nil collections marshal as null
	return Normalize(doc)
}

// EncodeYAML marshals a snapshot as YAML
func EncodeYAML(s *entities.Snapshot) ([]byte, error) {
	out := s.Clone()
	out.SchemaVersion = entities.SchemaVersion
	return yaml.Marshal(out)
}

// Summary is the header of a scenario document read without decoding it
type Summary struct {
	Name          string
	SchemaVersion int
	StockItems    int
	Batches       int
	Schedule      int
}

// Summarize reads the name and collection sizes of a JSON document
func Summarize(doc []byte) Summary {
	results := gjson.GetManyBytes(doc, "name", "schemaVersion", "stockItems.#", "batches.#", "schedule.#")
	return Summary{
		Name:          results[0].String(),
		SchemaVersion: int(results[1].Int()),
		StockItems:    int(results[2].Int()),
		Batches:       int(results[3].Int()),
		Schedule:      int(results[4].Int()),
	}
}
