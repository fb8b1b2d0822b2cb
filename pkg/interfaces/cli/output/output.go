package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/opsplan/pkg/application/dto"
	"github.com/vsinha/opsplan/pkg/application/services/alerts"
)

// Config holds configuration for output generation
type Config struct {
	Format    string
	OutputDir string
	Out       io.Writer
	Verbose   bool
	Elapsed   time.Duration
}

// Formats lists the accepted output formats
func Formats() []string {
	return []string{"text", "json", "csv"}
}

func (c Config) writer() io.Writer {
	if c.Out == nil {
		return os.Stdout
	}
	return c.Out
}

// Generate creates output in the specified format
func Generate(report *dto.PlanningReport, config Config) error {
	if report == nil {
		return fmt.Errorf("no planning report to render")
	}
	switch config.Format {
	case "", "text":
		return generateTextOutput(report, config)
	case "json":
		return generateJSONOutput(report, "planning_report.json", config)
	case "csv":
		return generateCSVOutput(report, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// GenerateConflicts renders only the schedule assessment
func GenerateConflicts(summary dto.ConflictSummary, config Config) error {
	switch config.Format {
	case "", "text":
		writeConflictsText(config.writer(), summary)
		return nil
	case "json":
		return generateJSONOutput(summary, "conflicts.json", config)
	case "csv":
		if config.OutputDir == "" {
			return writeConflictsCSV(config.writer(), summary)
		}
		return writeCSVFile(config, "conflicts.csv", func(w io.Writer) error {
			return writeConflictsCSV(w, summary)
		})
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// generateTextOutput creates human-readable text output
func generateTextOutput(report *dto.PlanningReport, config Config) error {
	w := config.writer()

	fmt.Fprintf(w, "📊 Planning Report: %s (as of %s)\n", report.Scenario, report.Today)
	fmt.Fprintf(w, "==========================================\n\n")
	if config.Elapsed > 0 {
		fmt.Fprintf(w, "Computed in %v\n\n", config.Elapsed)
	}

	writeIndicatorsText(w, report.Alerts)
	writeCostText(w, report.Cost)
	writeCapacityText(w, report.Capacity)
	writeExposureText(w, report.Exposure)
	writeRemainingText(w, report.RemainingStock)
	if config.Verbose {
		writeConsumptionText(w, report.Consumption)
	}
	writeConflictsText(w, report.Conflicts)

	if report.Validation != nil && len(report.Validation.Warnings) > 0 {
		fmt.Fprintf(w, "⚠️  Validation warnings:\n")
		for _, warning := range report.Validation.Warnings {
			fmt.Fprintf(w, "  - %s\n", warning)
		}
		fmt.Fprintln(w)
	}

	if config.OutputDir == "" {
		return nil
	}

	// Also keep a copy of the text report alongside other artefacts
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, "planning_report.txt")
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create text report: %w", err)
	}
	defer file.Close()

	copyConfig := config
	copyConfig.Out = file
	copyConfig.OutputDir = ""
	if err := generateTextOutput(report, copyConfig); err != nil {
		return err
	}
	if config.Verbose {
		fmt.Fprintf(w, "💾 Results saved to: %s\n", filename)
	}
	return nil
}

func writeIndicatorsText(w io.Writer, summary dto.AlertSummary) {
	fmt.Fprintf(w, "🚦 Status: %s\n", strings.ToUpper(string(alerts.Worst(summary.Indicators))))
	for _, ind := range summary.Indicators {
		fmt.Fprintf(w, "  %-8s %-26s %d\n", "["+string(ind.Level)+"]", ind.Label, ind.Count)
	}
	fmt.Fprintln(w)
}

func writeCostText(w io.Writer, cost dto.CostBreakdown) {
	fmt.Fprintf(w, "💰 Cost per unit (volume %s):\n", quantity(cost.EffectiveVolume))
	lines := []struct {
		label string
		value float64
	}{
		{"Labour", cost.Labour},
		{"Labour overhead", cost.LabourOverhead},
		{"Material", cost.Material},
		{"Logistics", cost.Logistics},
		{"Warehouse", cost.Warehouse},
		{"Holding", cost.Holding},
		{"Capex depreciation", cost.CapexDepreciation},
		{"Quality", cost.Quality},
	}
	for _, line := range lines {
		fmt.Fprintf(w, "  %-20s %12s\n", line.label, money(line.value))
	}
	fmt.Fprintf(w, "  %-20s %12s\n", "Total", money(cost.Total))
	fmt.Fprintf(w, "  %-20s %12s (%s%%, guardrail %s%%)\n\n", "Margin",
		money(cost.MarginPerUnit), percent(cost.MarginPct), percent(cost.MarginGuardrailPct))
}

func writeCapacityText(w io.Writer, report dto.CapacityReport) {
	fmt.Fprintf(w, "🏭 Capacity (demand %s, takt %ss, %s FTE):\n",
		quantity(report.EffectiveDemand), quantity(report.TaktTimeSec), quantity(report.FTE))
	if len(report.Rows) == 0 {
		fmt.Fprintf(w, "  no stations\n\n")
		return
	}
	fmt.Fprintf(w, "%-15s %-10s %-10s %-12s %-10s %-10s %-8s\n",
		"Station", "Cycle s", "Installed", "Capacity", "Required", "Shortfall", "Util %")
	fmt.Fprintf(w, "%-15s %-10s %-10s %-12s %-10s %-10s %-8s\n",
		"---------------", "----------", "----------", "------------", "----------", "----------", "--------")
	for _, row := range report.Rows {
		marker := ""
		if row.IsBottleneck {
			marker = " ◀ bottleneck"
		}
		fmt.Fprintf(w, "%-15s %-10s %-10s %-12s %-10s %-10s %-8s%s\n",
			row.StationID,
			quantity(row.CycleTimeSec),
			quantity(row.Installed),
			quantity(row.StationCapacity),
			quantity(row.RequiredMachines),
			quantity(row.Shortfall),
			percent(row.UtilizationPct),
			marker)
	}
	fmt.Fprintln(w)
}

func writeExposureText(w io.Writer, report dto.ExposureReport) {
	fmt.Fprintf(w, "🚚 Inventory exposure: pipeline %s, safety stock %s\n\n",
		money(report.TotalPipelineValue), money(report.TotalSafetyStockValue))
}

func writeRemainingText(w io.Writer, rows []dto.RemainingStockRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(w, "📦 Remaining stock:\n")
	fmt.Fprintf(w, "%-15s %-24s %-10s %-10s %-10s %-10s\n",
		"Stock ID", "Name", "On Hand", "Consumed", "Remaining", "Status")
	fmt.Fprintf(w, "%-15s %-24s %-10s %-10s %-10s %-10s\n",
		"---------------", "------------------------", "----------", "----------", "----------", "----------")
	for _, row := range rows {
		fmt.Fprintf(w, "%-15s %-24s %-10s %-10s %-10s %-10s\n",
			row.StockID, row.Name,
			quantity(row.OnHand), quantity(row.Consumed), quantity(row.Remaining),
			row.Status)
	}
	fmt.Fprintln(w)
}

func writeConsumptionText(w io.Writer, result dto.ConsumptionResult) {
	fmt.Fprintf(w, "🔧 Consumption by batch:\n")
	for _, batch := range result.Batches {
		fmt.Fprintf(w, "  %s (%s) assembly=%t post-assembly=%t\n",
			batch.BatchID, batch.BatchNumber, batch.AssemblyComplete, batch.PostAssemblyComplete)
		for _, item := range batch.Items {
			fmt.Fprintf(w, "    %-15s %10s  %s\n", item.StockID, quantity(item.Quantity), joinSources(item.Sources))
		}
	}
	fmt.Fprintln(w)
}

func writeConflictsText(w io.Writer, summary dto.ConflictSummary) {
	fmt.Fprintf(w, "📅 Schedule %s..%s: %d ready, %d at risk, %d blocked\n",
		summary.WindowStart, summary.WindowEnd, summary.Ready, summary.AtRisk, summary.Blocked)
	for _, entry := range summary.Entries {
		if entry.State == dto.EntryReady {
			continue
		}
		fmt.Fprintf(w, "  %-8s %-12s %s %-10s %s\n",
			entry.State, entry.ID, entry.Date, entry.ProcessID, strings.Join(entry.Reasons, "; "))
	}
	fmt.Fprintln(w)
}

// generateJSONOutput creates JSON output
func generateJSONOutput(v any, name string, config Config) error {
	jsonData, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		_, err := fmt.Fprintln(config.writer(), string(jsonData))
		return err
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, name)
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes one CSV file per derived table
func generateCSVOutput(report *dto.PlanningReport, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	tables := []struct {
		name  string
		write func(io.Writer) error
	}{
		{"remaining_stock.csv", func(w io.Writer) error { return writeRemainingCSV(w, report.RemainingStock) }},
		{"consumption.csv", func(w io.Writer) error { return writeConsumptionCSV(w, report.Consumption) }},
		{"conflicts.csv", func(w io.Writer) error { return writeConflictsCSV(w, report.Conflicts) }},
		{"capacity.csv", func(w io.Writer) error { return writeCapacityCSV(w, report.Capacity) }},
		{"exposure.csv", func(w io.Writer) error { return writeExposureCSV(w, report.Exposure) }},
	}

	for _, table := range tables {
		if err := writeCSVFile(config, table.name, table.write); err != nil {
			return err
		}
	}

	if config.Verbose {
		fmt.Fprintf(config.writer(), "💾 CSV results saved to: %s\n", config.OutputDir)
	}
	return nil
}

func writeCSVFile(config Config, name string, write func(io.Writer) error) error {
	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	filename := filepath.Join(config.OutputDir, name)
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", name, err)
	}
	defer file.Close()

	if err := write(file); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

func writeRemainingCSV(w io.Writer, rows []dto.RemainingStockRow) error {
	records := [][]string{{"stock_id", "name", "on_hand", "consumed", "remaining", "min_qty", "reorder_point_qty", "status"}}
	for _, row := range rows {
		records = append(records, []string{
			row.StockID, row.Name,
			quantity(row.OnHand), quantity(row.Consumed), quantity(row.Remaining),
			optionalQuantity(row.MinQty), optionalQuantity(row.ReorderPointQty),
			string(row.Status),
		})
	}
	return writeRecords(w, records)
}

func writeConsumptionCSV(w io.Writer, result dto.ConsumptionResult) error {
	records := [][]string{{"batch_id", "batch_number", "stock_id", "quantity", "sources"}}
	for _, batch := range result.Batches {
		for _, item := range batch.Items {
			records = append(records, []string{
				batch.BatchID, batch.BatchNumber, item.StockID,
				quantity(item.Quantity), joinSources(item.Sources),
			})
		}
	}
	return writeRecords(w, records)
}

func writeConflictsCSV(w io.Writer, summary dto.ConflictSummary) error {
	records := [][]string{{"id", "batch_id", "process_id", "date", "duration_days", "status", "state", "conflict_days", "reasons"}}
	for _, entry := range summary.Entries {
		records = append(records, []string{
			entry.ID, entry.BatchID, entry.ProcessID, entry.Date,
			strconv.Itoa(entry.DurationDays),
			string(entry.Status), string(entry.State),
			strings.Join(entry.ConflictDays, ";"),
			strings.Join(entry.Reasons, ";"),
		})
	}
	return writeRecords(w, records)
}

func writeCapacityCSV(w io.Writer, report dto.CapacityReport) error {
	records := [][]string{{"station_id", "station_name", "cycle_time_sec", "installed", "per_machine_units", "station_capacity", "required_machines", "shortfall", "utilization_pct", "bottleneck"}}
	for _, row := range report.Rows {
		records = append(records, []string{
			row.StationID, row.StationName,
			quantity(row.CycleTimeSec), quantity(row.Installed),
			quantity(row.PerMachineUnits), quantity(row.StationCapacity),
			quantity(row.RequiredMachines), quantity(row.Shortfall),
			percent(row.UtilizationPct),
			strconv.FormatBool(row.IsBottleneck),
		})
	}
	return writeRecords(w, records)
}

func writeExposureCSV(w io.Writer, report dto.ExposureReport) error {
	records := [][]string{{"stock_id", "name", "daily_demand", "pipeline_units", "safety_stock_units", "reorder_point_units", "extended_unit_cost", "pipeline_value", "safety_stock_value"}}
	for _, row := range report.Rows {
		records = append(records, []string{
			row.StockID, row.Name,
			quantity(row.DailyDemand), quantity(row.PipelineUnits),
			quantity(row.SafetyStockUnits), quantity(row.ReorderPointUnits),
			money(row.ExtendedUnitCost), money(row.PipelineValue), money(row.SafetyStockValue),
		})
	}
	return writeRecords(w, records)
}

func writeRecords(w io.Writer, records [][]string) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

// money rounds to cents for display only; the engine keeps full precision
func money(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.00"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0.0"
	}
	return decimal.NewFromFloat(v).StringFixed(1)
}

func quantity(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "0"
	}
	return decimal.NewFromFloat(v).Round(3).String()
}

func optionalQuantity(v *float64) string {
	if v == nil {
		return ""
	}
	return quantity(*v)
}

func joinSources(sources []dto.ConsumptionSource) string {
	parts := make([]string, len(sources))
	for i, s := range sources {
		parts[i] = string(s)
	}
	return strings.Join(parts, "+")
}
