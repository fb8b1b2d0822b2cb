package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// Collection names accepted by Load
const (
	CollectionStock       = "stock"
	CollectionBatches     = "batches"
	CollectionSchedule    = "schedule"
	CollectionMaintenance = "maintenance"
)

var (
	stockHeader       = []string{"id", "name", "unit_cost", "unit", "location", "usage_per_unit", "lead_time_days", "moq", "single_source", "on_hand_qty", "reorder_point_qty", "min_qty"}
	batchHeader       = []string{"id", "batch_number", "purpose", "planned_qty", "good_qty", "scrap_qty", "scrap_stage", "component_rejects", "consumption_overrides", "status"}
	scheduleHeader    = []string{"id", "batch_id", "date", "duration_days", "process_id", "person_ids", "machine_ids", "status", "notes"}
	maintenanceHeader = []string{"id", "date", "duration_days", "machine_ids", "title", "status"}
)

// Loader handles loading scenario collections from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// Collections lists the collection names Load understands
func Collections() []string {
	return []string{CollectionStock, CollectionBatches, CollectionSchedule, CollectionMaintenance}
}

// Load reads the named collection from filename and returns a copy of s
// with that collection replaced
func (l *Loader) Load(s *entities.Snapshot, collection, filename string) (*entities.Snapshot, int, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open %s file %s: %w", collection, filename, err)
	}
	defer file.Close()

	switch collection {
	case CollectionStock:
		items, err := l.ReadStockItems(file)
		if err != nil {
			return nil, 0, err
		}
		return s.WithStockItems(items), len(items), nil
	case CollectionBatches:
		batches, err := l.ReadBatches(file)
		if err != nil {
			return nil, 0, err
		}
		return s.WithBatches(batches), len(batches), nil
	case CollectionSchedule:
		entries, err := l.ReadSchedule(file)
		if err != nil {
			return nil, 0, err
		}
		return s.WithSchedule(entries), len(entries), nil
	case CollectionMaintenance:
		blocks, err := l.ReadMaintenance(file)
		if err != nil {
			return nil, 0, err
		}
		return s.WithMaintenance(blocks), len(blocks), nil
	default:
		return nil, 0, fmt.Errorf("unknown collection %q (expected one of %v)", collection, Collections())
	}
}

// ReadStockItems parses stock items. Empty threshold cells leave the
// threshold unset.
func (l *Loader) ReadStockItems(r io.Reader) ([]entities.StockItem, error) {
	records, err := readTable(r, "stock", stockHeader)
	if err != nil {
		return nil, err
	}

	items := make([]entities.StockItem, 0, len(records))
	for i, record := range records {
		item, err := parseStockItem(record)
		if err != nil {
			return nil, fmt.Errorf("stock CSV row %d: %w", i+2, err)
		}
		items = append(items, item)
	}
	return items, nil
}

// ReadBatches parses production batches
func (l *Loader) ReadBatches(r io.Reader) ([]entities.ProductionBatch, error) {
	records, err := readTable(r, "batches", batchHeader)
	if err != nil {
		return nil, err
	}

	batches := make([]entities.ProductionBatch, 0, len(records))
	for i, record := range records {
		batch, err := parseBatch(record)
		if err != nil {
			return nil, fmt.Errorf("batches CSV row %d: %w", i+2, err)
		}
		batches = append(batches, batch)
	}
	return batches, nil
}

// ReadSchedule parses scheduled processes
func (l *Loader) ReadSchedule(r io.Reader) ([]entities.ScheduledProcess, error) {
	records, err := readTable(r, "schedule", scheduleHeader)
	if err != nil {
		return nil, err
	}

	entries := make([]entities.ScheduledProcess, 0, len(records))
	for i, record := range records {
		entry, err := parseScheduledProcess(record)
		if err != nil {
			return nil, fmt.Errorf("schedule CSV row %d: %w", i+2, err)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// ReadMaintenance parses maintenance blocks
func (l *Loader) ReadMaintenance(r io.Reader) ([]entities.MaintenanceBlock, error) {
	records, err := readTable(r, "maintenance", maintenanceHeader)
	if err != nil {
		return nil, err
	}

	blocks := make([]entities.MaintenanceBlock, 0, len(records))
	for i, record := range records {
		block, err := parseMaintenanceBlock(record)
		if err != nil {
			return nil, fmt.Errorf("maintenance CSV row %d: %w", i+2, err)
		}
		blocks = append(blocks, block)
	}
	return blocks, nil
}

// readTable reads every record, checks the header and column counts, and
// returns the data rows. A header-only file yields no rows.
func readTable(r io.Reader, name string, expectedHeader []string) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 1 {
		return nil, fmt.Errorf("%s CSV must have a header row", name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%s CSV header mismatch. Expected: %v, Got: %v", name, expectedHeader, header)
	}

	rows := records[1:]
	for i, record := range rows {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%s CSV row %d: expected %d columns, got %d", name, i+2, len(expectedHeader), len(record))
		}
	}
	return rows, nil
}

// validateHeader checks if the CSV header matches expected columns
func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range actual {
		if strings.TrimSpace(strings.ToLower(strings.TrimPrefix(col, "\ufeff"))) != expected[i] {
			return false
		}
	}

	return true
}

func parseStockItem(record []string) (entities.StockItem, error) {
	unitCost, err := parseFloat(record[2], "unit cost")
	if err != nil {
		return entities.StockItem{}, err
	}
	usage, err := parseFloat(record[5], "usage per unit")
	if err != nil {
		return entities.StockItem{}, err
	}
	onHand, err := parseFloat(record[9], "on hand qty")
	if err != nil {
		return entities.StockItem{}, err
	}

	item, err := entities.NewStockItem(strings.TrimSpace(record[0]), strings.TrimSpace(record[1]), unitCost, usage, onHand)
	if err != nil {
		return entities.StockItem{}, err
	}

	item.Unit = strings.TrimSpace(record[3])
	item.Location = strings.TrimSpace(record[4])
	if item.LeadTimeDays, err = parseFloat(record[6], "lead time days"); err != nil {
		return entities.StockItem{}, err
	}
	if item.MOQ, err = parseFloat(record[7], "moq"); err != nil {
		return entities.StockItem{}, err
	}
	if item.SingleSource, err = parseBool(record[8]); err != nil {
		return entities.StockItem{}, err
	}
	if item.ReorderPointQty, err = parseOptionalFloat(record[10], "reorder point qty"); err != nil {
		return entities.StockItem{}, err
	}
	if item.MinQty, err = parseOptionalFloat(record[11], "min qty"); err != nil {
		return entities.StockItem{}, err
	}

	return *item, nil
}

func parseBatch(record []string) (entities.ProductionBatch, error) {
	var qty [3]float64
	for i, label := range []string{"planned qty", "good qty", "scrap qty"} {
		v, err := parseFloat(record[3+i], label)
		if err != nil {
			return entities.ProductionBatch{}, err
		}
		qty[i] = v
	}

	batch, err := entities.NewProductionBatch(
		strings.TrimSpace(record[0]),
		strings.TrimSpace(record[1]),
		qty[0], qty[1], qty[2],
		entities.Stage(strings.TrimSpace(record[6])),
	)
	if err != nil {
		return entities.ProductionBatch{}, err
	}

	batch.Purpose = strings.TrimSpace(record[2])
	batch.ComponentRejects = record[7]
	batch.ConsumptionOverrides = record[8]
	if status := strings.TrimSpace(record[9]); status != "" {
		batch.Status = entities.BatchStatus(status)
	}
	return *batch, nil
}

func parseScheduledProcess(record []string) (entities.ScheduledProcess, error) {
	duration, err := parseInt(record[3], "duration days")
	if err != nil {
		return entities.ScheduledProcess{}, err
	}

	entry, err := entities.NewScheduledProcess(
		strings.TrimSpace(record[0]),
		strings.TrimSpace(record[1]),
		strings.TrimSpace(record[2]),
		duration,
		strings.TrimSpace(record[4]),
	)
	if err != nil {
		return entities.ScheduledProcess{}, err
	}

	entry.PersonIDs = strings.TrimSpace(record[5])
	entry.MachineIDs = strings.TrimSpace(record[6])
	if status := strings.TrimSpace(record[7]); status != "" {
		entry.Status = entities.ProcessStatus(status)
	}
	entry.Notes = record[8]
	return *entry, nil
}

func parseMaintenanceBlock(record []string) (entities.MaintenanceBlock, error) {
	duration, err := parseInt(record[2], "duration days")
	if err != nil {
		return entities.MaintenanceBlock{}, err
	}

	block, err := entities.NewMaintenanceBlock(
		strings.TrimSpace(record[0]),
		strings.TrimSpace(record[1]),
		duration,
		strings.TrimSpace(record[3]),
		strings.TrimSpace(record[4]),
	)
	if err != nil {
		return entities.MaintenanceBlock{}, err
	}

	if status := strings.TrimSpace(record[5]); status != "" {
		block.Status = entities.MaintenanceStatus(status)
	}
	return *block, nil
}

// parseFloat treats an empty cell as zero
func parseFloat(s, label string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", label, s)
	}
	return v, nil
}

func parseOptionalFloat(s, label string) (*float64, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	v, err := parseFloat(s, label)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func parseInt(s, label string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", label, s)
	}
	return v, nil
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "0", "false", "no", "n":
		return false, nil
	case "1", "true", "yes", "y":
		return true, nil
	default:
		return false, fmt.Errorf("invalid single source flag: %s", s)
	}
}
