package alerts

import (
	"github.com/vsinha/opsplan/pkg/application/dto"
	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// Indicator keys
const (
	KeyBelowMin     = "below_min"
	KeyReorder      = "reorder"
	KeyOpenIssues   = "open_issues"
	KeyMachinesDown = "machines_down"
	KeyAtRisk       = "at_risk"
	KeyBlocked      = "blocked"
	KeyMargin       = "margin_guardrail"
)

// Aggregator rolls derived views up into count-based indicators
type Aggregator struct{}

// NewAggregator creates a new alert aggregator
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Inputs are the derived views the aggregator composes
type Inputs struct {
	RemainingStock []dto.RemainingStockRow
	Conflicts      dto.ConflictSummary
	Cost           dto.CostBreakdown
}

// Summarize counts alerts. Open issues and machines down come straight from
// the snapshot; stock and schedule counts come from the derived views.
func (a *Aggregator) Summarize(s *entities.Snapshot, in Inputs) dto.AlertSummary {
	var summary dto.AlertSummary

	for _, row := range in.RemainingStock {
		switch row.Status {
		case entities.StockBelowMin:
			summary.BelowMin++
		case entities.StockReorder:
			summary.Reorder++
		}
	}

	for _, sp := range s.Schedule {
		if sp.Status.IsOpenIssue() {
			summary.OpenIssues++
		}
	}

	for _, m := range s.Machines {
		if m.Status == entities.MachineOutOfService {
			summary.MachinesDown++
		}
	}

	summary.AtRisk = in.Conflicts.AtRisk
	summary.Blocked = in.Conflicts.Blocked
	summary.MarginBelowGuardrail = in.Cost.MarginPct < in.Cost.MarginGuardrailPct

	marginCount := 0
	if summary.MarginBelowGuardrail {
		marginCount = 1
	}

	summary.Indicators = []dto.Indicator{
		indicator(KeyBelowMin, "Stock below minimum", summary.BelowMin, dto.LevelCritical),
		indicator(KeyReorder, "Stock at reorder point", summary.Reorder, dto.LevelWarn),
		indicator(KeyOpenIssues, "Open issues", summary.OpenIssues, dto.LevelWarn),
		indicator(KeyMachinesDown, "Machines out of service", summary.MachinesDown, dto.LevelWarn),
		indicator(KeyAtRisk, "Entries at risk", summary.AtRisk, dto.LevelWarn),
		indicator(KeyBlocked, "Entries blocked", summary.Blocked, dto.LevelCritical),
		indicator(KeyMargin, "Margin below guardrail", marginCount, dto.LevelCritical),
	}

	return summary
}

// indicator is ok at zero and raises to level otherwise
func indicator(key, label string, count int, level dto.AlertLevel) dto.Indicator {
	if count == 0 {
		level = dto.LevelOK
	}
	return dto.Indicator{Key: key, Label: label, Count: count, Level: level}
}

// Worst returns the most severe level across indicators
func Worst(indicators []dto.Indicator) dto.AlertLevel {
	worst := dto.LevelOK
	for _, ind := range indicators {
		switch ind.Level {
		case dto.LevelCritical:
			return dto.LevelCritical
		case dto.LevelWarn:
			worst = dto.LevelWarn
		}
	}
	return worst
}
