package consumption

import (
	"github.com/vsinha/opsplan/pkg/application/dto"
	"github.com/vsinha/opsplan/pkg/application/services/shared"
	"github.com/vsinha/opsplan/pkg/domain/entities"
	"github.com/vsinha/opsplan/pkg/domain/services"
)

// StageState records which lifecycle stages of a batch have a completed entry
type StageState struct {
	Assembly     bool
	PostAssembly bool
}

// Complete reports whether the given stage has been completed
func (s StageState) Complete(stage entities.Stage) bool {
	if stage == entities.StagePostAssembly {
		return s.PostAssembly
	}
	return s.Assembly
}

// Engine turns completed production into stock consumption
type Engine struct{}

// NewEngine creates a new consumption engine
func NewEngine() *Engine {
	return &Engine{}
}

// StageCompletion maps batch ids to their completed stages. A stage counts
// as complete once any scheduled entry of the batch whose process template
// declares that stage has status Complete. Entries naming an unknown
// template are ignored.
func StageCompletion(s *entities.Snapshot) map[string]StageState {
	templates := entities.IndexByID(s.ProcessTemplates)
	states := make(map[string]StageState, len(s.Batches))

	for _, sp := range s.Schedule {
		if sp.Status != entities.ProcessComplete {
			continue
		}
		template, ok := templates[sp.ProcessID]
		if !ok {
			continue
		}
		state := states[sp.BatchID]
		switch template.EffectiveStage() {
		case entities.StagePostAssembly:
			state.PostAssembly = true
		default:
			state.Assembly = true
		}
		states[sp.BatchID] = state
	}
	return states
}

// Consume computes consumed quantity per stock item across all batches.
//
// Per batch, in order of precedence:
//   - good units consume the full BOM once Assembly is complete
//   - Assembly-stage scrap consumes itemized component rejects once Assembly
//     is complete, falling back to the full BOM for the scrap quantity when
//     no reject line resolves to a stock item
//   - Post-Assembly scrap consumes the full BOM once Post-Assembly is complete
//   - consumption overrides replace the computed quantity for their items
func (e *Engine) Consume(s *entities.Snapshot) dto.ConsumptionResult {
	states := StageCompletion(s)

	result := dto.ConsumptionResult{
		Consumed: make(map[string]float64, len(s.StockItems)),
		Batches:  make([]dto.BatchConsumption, 0, len(s.Batches)),
	}
	for _, item := range s.StockItems {
		result.Consumed[item.ID] = 0
	}

	for _, batch := range s.Batches {
		trace := e.traceBatch(batch, states[batch.ID], s.StockItems)
		for _, item := range trace.Items {
			result.Consumed[item.StockID] += item.Quantity
		}
		result.Batches = append(result.Batches, trace)
	}

	return result
}

// ConsumeBatch traces the consumption of one batch in isolation. ok is false
// when the snapshot has no batch with that id.
func (e *Engine) ConsumeBatch(s *entities.Snapshot, batchID string) (trace dto.BatchConsumption, ok bool) {
	batch, ok := entities.IndexByID(s.Batches)[batchID]
	if !ok {
		return dto.BatchConsumption{}, false
	}
	return e.traceBatch(batch, StageCompletion(s)[batchID], s.StockItems), true
}

// traceBatch lists the batch's consumption in stock order, which keeps both
// the trace and the float sums built from it deterministic
func (e *Engine) traceBatch(batch entities.ProductionBatch, state StageState, stock []entities.StockItem) dto.BatchConsumption {
	ledger := e.consumeBatch(batch, state, stock)

	trace := dto.BatchConsumption{
		BatchID:              batch.ID,
		BatchNumber:          batch.BatchNumber,
		AssemblyComplete:     state.Assembly,
		PostAssemblyComplete: state.PostAssembly,
		Items:                make([]dto.ItemConsumption, 0, len(ledger)),
	}
	for _, item := range stock {
		entry := ledger.Get(item.ID)
		if entry == nil {
			continue
		}
		trace.Items = append(trace.Items, dto.ItemConsumption{
			StockID:  item.ID,
			Quantity: entry.Quantity,
			Sources:  toSources(entry.Sources),
		})
	}
	return trace
}

func (e *Engine) consumeBatch(batch entities.ProductionBatch, state StageState, stock []entities.StockItem) shared.Ledger {
	ledger := shared.NewLedger()

	if state.Assembly && batch.GoodQty > 0 {
		addFullBOM(ledger, stock, batch.GoodQty, dto.SourceGood)
	}

	switch batch.EffectiveScrapStage() {
	case entities.StagePostAssembly:
		if state.PostAssembly && batch.ScrapQty > 0 {
			addFullBOM(ledger, stock, batch.ScrapQty, dto.SourceScrapPostAssembly)
		}
	default:
		if state.Assembly {
			rejects := services.ResolveLineItems(services.ParseLineItems(batch.ComponentRejects), stock)
			if len(rejects) > 0 {
				for _, reject := range rejects {
					ledger.Add(reject.StockID, reject.Qty, string(dto.SourceScrapRejects))
				}
			} else if batch.ScrapQty > 0 {
				addFullBOM(ledger, stock, batch.ScrapQty, dto.SourceScrapFallback)
			}
		}
	}

	overrides := services.ResolveLineItems(services.ParseLineItems(batch.ConsumptionOverrides), stock)
	for stockID, qty := range services.SumByStockID(overrides) {
		ledger.Set(stockID, qty, string(dto.SourceOverride))
	}

	return ledger
}

func addFullBOM(ledger shared.Ledger, stock []entities.StockItem, units float64, source dto.ConsumptionSource) {
	for _, item := range stock {
		if item.UsagePerUnit == 0 {
			continue
		}
		ledger.Add(item.ID, item.UsagePerUnit*units, string(source))
	}
}

func toSources(sources []string) []dto.ConsumptionSource {
	out := make([]dto.ConsumptionSource, len(sources))
	for i, s := range sources {
		out[i] = dto.ConsumptionSource(s)
	}
	return out
}

// RemainingStock subtracts consumption from on-hand quantity and classifies
// each stock item. Remaining quantity is not clamped at zero.
func (e *Engine) RemainingStock(s *entities.Snapshot, consumed map[string]float64) []dto.RemainingStockRow {
	rows := make([]dto.RemainingStockRow, 0, len(s.StockItems))
	for _, item := range s.StockItems {
		used := consumed[item.ID]
		remaining := item.OnHandQty - used
		rows = append(rows, dto.RemainingStockRow{
			StockID:         item.ID,
			Name:            item.Name,
			OnHand:          item.OnHandQty,
			Consumed:        used,
			Remaining:       remaining,
			MinQty:          copyFloat(item.MinQty),
			ReorderPointQty: copyFloat(item.ReorderPointQty),
			Status:          item.ClassifyRemaining(remaining),
		})
	}
	return rows
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
