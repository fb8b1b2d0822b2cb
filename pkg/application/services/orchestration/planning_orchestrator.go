package orchestration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vsinha/opsplan/pkg/application/dto"
	"github.com/vsinha/opsplan/pkg/application/services/alerts"
	"github.com/vsinha/opsplan/pkg/application/services/capacity"
	"github.com/vsinha/opsplan/pkg/application/services/conflicts"
	"github.com/vsinha/opsplan/pkg/application/services/consumption"
	"github.com/vsinha/opsplan/pkg/application/services/costing"
	"github.com/vsinha/opsplan/pkg/application/services/exposure"
	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/repositories"
	"github.com/vsinha/opsplan/pkg/domain/services"
	"github.com/vsinha/opsplan/pkg/infrastructure/logging"
)

// ErrBatchNotFound is returned when a scenario has no batch with the requested id
var ErrBatchNotFound = errors.New("batch not found")

// PlanningOrchestrator runs every calculator over one snapshot
type PlanningOrchestrator struct {
	costModel    *costing.CostModel
	capacity     *capacity.Analyzer
	exposure     *exposure.Calculator
	consumption  *consumption.Engine
	detector     *conflicts.Detector
	aggregator   *alerts.Aggregator
	validator    *services.SnapshotValidator
	scenarioRepo repositories.ScenarioRepository
	log          *logrus.Entry
}

// NewPlanningOrchestrator creates a new planning orchestrator. scenarioRepo may
// be nil when only Run is used.
func NewPlanningOrchestrator(scenarioRepo repositories.ScenarioRepository, windowDays int) *PlanningOrchestrator {
	return &PlanningOrchestrator{
		costModel:    costing.NewCostModel(),
		capacity:     capacity.NewAnalyzer(),
		exposure:     exposure.NewCalculator(),
		consumption:  consumption.NewEngine(),
		detector:     conflicts.NewDetector(windowDays),
		aggregator:   alerts.NewAggregator(),
		validator:    services.NewSnapshotValidator(),
		scenarioRepo: scenarioRepo,
		log:          logging.Component("orchestrator"),
	}
}

// Run derives the full planning report. today anchors the conflict window.
func (po *PlanningOrchestrator) Run(ctx context.Context, s *entities.Snapshot, today time.Time) (*dto.PlanningReport, error) {
	if s == nil {
		return nil, fmt.Errorf("no scenario provided for planning")
	}
	start := time.Now()

	report := &dto.PlanningReport{
		Scenario: s.Name,
		Today:    today.Format(entities.DayLayout),
	}

	validation := po.validator.Validate(s)
	if validation.HasWarnings() {
		report.Validation = validation
		for _, w := range validation.Warnings {
			po.log.WithField("scenario", s.Name).Warn(w)
		}
	}

	// Step 1: cost, capacity and exposure are independent readers
	report.Cost = po.costModel.Calculate(s)
	report.Capacity = po.capacity.Analyze(s)
	report.Exposure = po.exposure.Calculate(s)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("planning cancelled: %w", err)
	}

	// Step 2: consumption and remaining stock
	report.Consumption = po.consumption.Consume(s)
	report.RemainingStock = po.consumption.RemainingStock(s, report.Consumption.Consumed)

	// Step 3: schedule conflicts over the window
	report.Conflicts = po.detector.Detect(s, today)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("planning cancelled: %w", err)
	}

	// Step 4: roll everything up
	report.Alerts = po.aggregator.Summarize(s, alerts.Inputs{
		RemainingStock: report.RemainingStock,
		Conflicts:      report.Conflicts,
		Cost:           report.Cost,
	})

	po.log.WithFields(logrus.Fields{
		"scenario": s.Name,
		"batches":  len(s.Batches),
		"entries":  len(s.Schedule),
		"elapsed":  time.Since(start),
	}).Debug("planning report computed")

	return report, nil
}

// RunScenario loads the named scenario and derives its report
func (po *PlanningOrchestrator) RunScenario(ctx context.Context, name string, today time.Time) (*dto.PlanningReport, error) {
	s, err := po.load(ctx, name)
	if err != nil {
		return nil, err
	}
	return po.Run(ctx, s, today)
}

// DetectConflicts loads the named scenario and assesses only its schedule
func (po *PlanningOrchestrator) DetectConflicts(ctx context.Context, name string, today time.Time) (dto.ConflictSummary, error) {
	s, err := po.load(ctx, name)
	if err != nil {
		return dto.ConflictSummary{}, err
	}
	return po.detector.Detect(s, today), nil
}

// ConsumeBatch loads the named scenario and traces the consumption of one batch
func (po *PlanningOrchestrator) ConsumeBatch(ctx context.Context, name, batchID string) (dto.BatchConsumption, error) {
	s, err := po.load(ctx, name)
	if err != nil {
		return dto.BatchConsumption{}, err
	}
	trace, ok := po.consumption.ConsumeBatch(s, batchID)
	if !ok {
		return dto.BatchConsumption{}, fmt.Errorf("%w: %s in scenario %s", ErrBatchNotFound, batchID, name)
	}
	return trace, nil
}

func (po *PlanningOrchestrator) load(ctx context.Context, name string) (*entities.Snapshot, error) {
	if po.scenarioRepo == nil {
		return nil, fmt.Errorf("no scenario repository configured")
	}
	s, err := po.scenarioRepo.Get(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("failed to load scenario %s: %w", name, err)
	}
	return s, nil
}

// Summary returns a short text summary of a planning report
func Summary(report *dto.PlanningReport) string {
	summary := fmt.Sprintf("Planning Summary for %s (as of %s):\n", report.Scenario, report.Today)
	summary += fmt.Sprintf("  Cost: %.2f per unit, margin %.1f%%\n", report.Cost.Total, report.Cost.MarginPct)
	if report.Capacity.BottleneckID != "" {
		summary += fmt.Sprintf("  Bottleneck: %s, takt %.1fs\n", report.Capacity.BottleneckID, report.Capacity.TaktTimeSec)
	}
	summary += fmt.Sprintf("  Exposure: pipeline %.2f, safety stock %.2f\n",
		report.Exposure.TotalPipelineValue, report.Exposure.TotalSafetyStockValue)
	summary += fmt.Sprintf("  Schedule %s..%s: %d ready, %d at risk, %d blocked\n",
		report.Conflicts.WindowStart, report.Conflicts.WindowEnd,
		report.Conflicts.Ready, report.Conflicts.AtRisk, report.Conflicts.Blocked)
	summary += fmt.Sprintf("  Stock: %d below min, %d at reorder", report.Alerts.BelowMin, report.Alerts.Reorder)
	return summary
}
