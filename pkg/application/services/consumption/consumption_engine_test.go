package consumption

import (
	"reflect"
	"testing"

	"github.com/vsinha/opsplan/pkg/application/dto"
	testhelpers "github.com/vsinha/opsplan/pkg/application/services/testing"
	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// buildBOMScenario has three stock items with total usage 3.5 per unit
func buildBOMScenario(batch entities.ProductionBatch, schedule ...entities.ScheduledProcess) *entities.Snapshot {
	s := testhelpers.BuildPlantSnapshot()
	s.StockItems = []entities.StockItem{
		testhelpers.MustCreateStockItem("stk-housing", "Housing", 10, 1, 1000),
		testhelpers.MustCreateStockItem("stk-screw", "Screw", 0.1, 2.5, 5000),
		testhelpers.MustCreateStockItem("stk-manual", "Manual", 0.5, 0, 50),
	}
	s.Batches = []entities.ProductionBatch{batch}
	s.Schedule = schedule
	return s
}

func assemblyDone(batchID string) entities.ScheduledProcess {
	return testhelpers.MustCreateEntry("sp-asm-"+batchID, batchID, "2024-01-10", 1,
		testhelpers.AssemblyTemplateID, entities.ProcessComplete, "", "")
}

func postAssemblyDone(batchID string) entities.ScheduledProcess {
	return testhelpers.MustCreateEntry("sp-test-"+batchID, batchID, "2024-01-11", 1,
		testhelpers.PostAssemblyTemplateID, entities.ProcessComplete, "", "")
}

func sumConsumed(consumed map[string]float64) float64 {
	var total float64
	for _, qty := range consumed {
		total += qty
	}
	return total
}

func TestEngine_SingleItemScenario(t *testing.T) {
	s := testhelpers.BuildSingleItemScenario(entities.Float(250), entities.Float(300))
	engine := NewEngine()

	result := engine.Consume(s)
	if result.Consumed["stk-1"] != 200 {
		t.Fatalf("Expected consumed 200, got %g", result.Consumed["stk-1"])
	}

	rows := engine.RemainingStock(s, result.Consumed)
	if len(rows) != 1 {
		t.Fatalf("Expected 1 remaining row, got %d", len(rows))
	}
	if rows[0].Remaining != 300 {
		t.Errorf("Expected remaining 300, got %g", rows[0].Remaining)
	}
	if rows[0].Status != entities.StockOK {
		t.Errorf("Expected status OK, got %s", rows[0].Status)
	}
}

func TestEngine_StockStatusPrefersBelowMin(t *testing.T) {
	// remaining 300 is below both thresholds
	s := testhelpers.BuildSingleItemScenario(entities.Float(301), entities.Float(400))
	engine := NewEngine()

	rows := engine.RemainingStock(s, engine.Consume(s).Consumed)
	if rows[0].Status != entities.StockBelowMin {
		t.Errorf("Expected Below Min, got %s", rows[0].Status)
	}
}

func TestEngine_GoodUnitsAdditivity(t *testing.T) {
	for _, good := range []float64{1, 7, 100, 2500} {
		batch := testhelpers.MustCreateBatch("B1", good, 0, entities.StageAssembly)
		s := buildBOMScenario(batch, assemblyDone("B1"))

		result := NewEngine().Consume(s)

		expected := good * 3.5
		if got := sumConsumed(result.Consumed); got != expected {
			t.Errorf("goodQty %g: expected total consumed %g, got %g", good, expected, got)
		}
	}
}

func TestEngine_NothingConsumedBeforeAssemblyComplete(t *testing.T) {
	batch := testhelpers.MustCreateBatch("B1", 100, 10, entities.StageAssembly)

	statuses := []entities.ProcessStatus{
		entities.ProcessPlanned, entities.ProcessInProgress, entities.ProcessIssue, entities.ProcessCancelled,
	}
	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			entry := assemblyDone("B1")
			entry.Status = status
			s := buildBOMScenario(batch, entry)

			if got := sumConsumed(NewEngine().Consume(s).Consumed); got != 0 {
				t.Errorf("Expected nothing consumed, got %g", got)
			}
		})
	}
}

func TestEngine_StageAwareGate(t *testing.T) {
	// Completing only the Post-Assembly stage must not release good units
	batch := testhelpers.MustCreateBatch("B1", 100, 0, entities.StageAssembly)
	s := buildBOMScenario(batch, postAssemblyDone("B1"))

	result := NewEngine().Consume(s)
	if got := sumConsumed(result.Consumed); got != 0 {
		t.Errorf("Expected Post-Assembly completion alone to consume nothing, got %g", got)
	}
	if result.Batches[0].AssemblyComplete || !result.Batches[0].PostAssemblyComplete {
		t.Errorf("Expected only Post-Assembly complete, got %+v", result.Batches[0])
	}
}

func TestEngine_CompletionOfOtherBatchIgnored(t *testing.T) {
	batch := testhelpers.MustCreateBatch("B1", 100, 0, entities.StageAssembly)
	s := buildBOMScenario(batch, assemblyDone("B2"))

	if got := sumConsumed(NewEngine().Consume(s).Consumed); got != 0 {
		t.Errorf("Expected nothing consumed, got %g", got)
	}
}

func TestEngine_UnknownTemplateIgnored(t *testing.T) {
	batch := testhelpers.MustCreateBatch("B1", 100, 0, entities.StageAssembly)
	entry := assemblyDone("B1")
	entry.ProcessID = "pt-missing"
	s := buildBOMScenario(batch, entry)

	if got := sumConsumed(NewEngine().Consume(s).Consumed); got != 0 {
		t.Errorf("Expected nothing consumed for unknown template, got %g", got)
	}
}

func TestEngine_AssemblyScrapRejects(t *testing.T) {
	batch := testhelpers.MustCreateBatch("B1", 10, 4, entities.StageAssembly)
	batch.ComponentRejects = "housing, 3\nNot A Part, 9\nScrew\nSCREW, 5"
	s := buildBOMScenario(batch, assemblyDone("B1"))

	result := NewEngine().Consume(s)

	// good: housing 10, screw 25; rejects: housing 3, screw 5
	if result.Consumed["stk-housing"] != 13 {
		t.Errorf("Expected housing 13, got %g", result.Consumed["stk-housing"])
	}
	if result.Consumed["stk-screw"] != 30 {
		t.Errorf("Expected screw 30, got %g", result.Consumed["stk-screw"])
	}
	if result.Consumed["stk-manual"] != 0 {
		t.Errorf("Expected manual 0, got %g", result.Consumed["stk-manual"])
	}

	items := result.Batches[0].Items
	if len(items) != 2 || !reflect.DeepEqual(items[0].Sources, []dto.ConsumptionSource{dto.SourceGood, dto.SourceScrapRejects}) {
		t.Errorf("Expected housing sourced from good and rejects, got %+v", items)
	}
}

func TestEngine_ScrapFallbackMatchesPostAssembly(t *testing.T) {
	assemblyScrap := testhelpers.MustCreateBatch("B1", 0, 8, entities.StageAssembly)
	postScrap := testhelpers.MustCreateBatch("B1", 0, 8, entities.StagePostAssembly)

	testCases := []struct {
		name    string
		rejects string
	}{
		{"empty rejects", ""},
		{"only malformed lines", "just text\n, 3\nHousing, lots"},
		{"only unknown items", "Flux Capacitor, 2"},
	}

	expected := 8 * 3.5
	postResult := NewEngine().Consume(buildBOMScenario(postScrap, assemblyDone("B1"), postAssemblyDone("B1")))
	if got := sumConsumed(postResult.Consumed); got != expected {
		t.Fatalf("Expected post-assembly scrap to consume %g, got %g", expected, got)
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			batch := assemblyScrap
			batch.ComponentRejects = tc.rejects
			result := NewEngine().Consume(buildBOMScenario(batch, assemblyDone("B1")))

			if got := sumConsumed(result.Consumed); got != expected {
				t.Errorf("Expected fallback to consume %g, got %g", expected, got)
			}
			if !reflect.DeepEqual(result.Consumed, postResult.Consumed) {
				t.Errorf("Expected fallback %v to equal post-assembly %v", result.Consumed, postResult.Consumed)
			}
		})
	}
}

func TestEngine_PostAssemblyScrapGatedOnPostAssembly(t *testing.T) {
	batch := testhelpers.MustCreateBatch("B1", 10, 5, entities.StagePostAssembly)

	onlyAssembly := NewEngine().Consume(buildBOMScenario(batch, assemblyDone("B1")))
	if got := sumConsumed(onlyAssembly.Consumed); got != 10*3.5 {
		t.Errorf("Expected only good units (35) before Post-Assembly completes, got %g", got)
	}

	both := NewEngine().Consume(buildBOMScenario(batch, assemblyDone("B1"), postAssemblyDone("B1")))
	if got := sumConsumed(both.Consumed); got != 15*3.5 {
		t.Errorf("Expected good and scrap units (52.5), got %g", got)
	}
}

func TestEngine_OverridePrecedence(t *testing.T) {
	batch := testhelpers.MustCreateBatch("B1", 100, 20, entities.StageAssembly)
	batch.ComponentRejects = "Housing, 7"
	batch.ConsumptionOverrides = "HOUSING, 42\ngarbage line\nScrew, 0"

	testCases := []struct {
		name     string
		schedule []entities.ScheduledProcess
	}{
		{"assembly complete", []entities.ScheduledProcess{assemblyDone("B1")}},
		{"nothing complete", nil},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			result := NewEngine().Consume(buildBOMScenario(batch, tc.schedule...))

			if result.Consumed["stk-housing"] != 42 {
				t.Errorf("Expected housing override 42, got %g", result.Consumed["stk-housing"])
			}
			if result.Consumed["stk-screw"] != 0 {
				t.Errorf("Expected screw override 0, got %g", result.Consumed["stk-screw"])
			}
		})
	}
}

func TestEngine_OverrideIsPerBatch(t *testing.T) {
	b1 := testhelpers.MustCreateBatch("B1", 10, 0, entities.StageAssembly)
	b1.ConsumptionOverrides = "Housing, 1"
	b2 := testhelpers.MustCreateBatch("B2", 10, 0, entities.StageAssembly)

	s := buildBOMScenario(b1, assemblyDone("B1"), assemblyDone("B2"))
	s = s.WithBatches([]entities.ProductionBatch{b1, b2})

	result := NewEngine().Consume(s)

	// B1 housing replaced by 1, B2 housing computed as 10
	if result.Consumed["stk-housing"] != 11 {
		t.Errorf("Expected housing 11, got %g", result.Consumed["stk-housing"])
	}
	if result.Consumed["stk-screw"] != 50 {
		t.Errorf("Expected screw 50, got %g", result.Consumed["stk-screw"])
	}
}

func TestEngine_ConsumeBatch(t *testing.T) {
	batch := testhelpers.MustCreateBatch("B1", 4, 0, entities.StageAssembly)
	s := buildBOMScenario(batch, assemblyDone("B1"))
	engine := NewEngine()

	trace, ok := engine.ConsumeBatch(s, "B1")
	if !ok {
		t.Fatalf("Expected batch B1 to be found")
	}
	if !trace.AssemblyComplete || trace.PostAssemblyComplete {
		t.Errorf("Expected only assembly complete, got %+v", trace)
	}
	got := map[string]float64{}
	for _, item := range trace.Items {
		got[item.StockID] = item.Quantity
	}
	if got["stk-housing"] != 4 || got["stk-screw"] != 10 {
		t.Errorf("Expected housing 4 screw 10, got %v", got)
	}

	whole := engine.Consume(s)
	if !reflect.DeepEqual(whole.Batches[0], trace) {
		t.Errorf("Expected the single-batch trace to match the full run, got %+v vs %+v", trace, whole.Batches[0])
	}

	if _, ok := engine.ConsumeBatch(s, "nope"); ok {
		t.Errorf("Expected unknown batch to be reported as missing")
	}
}

func TestEngine_NegativeRemainingNotClamped(t *testing.T) {
	batch := testhelpers.MustCreateBatch("B1", 2000, 0, entities.StageAssembly)
	s := buildBOMScenario(batch, assemblyDone("B1"))
	engine := NewEngine()

	rows := engine.RemainingStock(s, engine.Consume(s).Consumed)
	if rows[0].Remaining != -1000 {
		t.Errorf("Expected housing remaining -1000, got %g", rows[0].Remaining)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	batch := testhelpers.MustCreateBatch("B1", 33, 3, entities.StageAssembly)
	batch.ComponentRejects = "Screw, 0.3\nHousing, 1.7"
	s := buildBOMScenario(batch, assemblyDone("B1"))

	first := NewEngine().Consume(s)
	for i := 0; i < 20; i++ {
		if next := NewEngine().Consume(s); !reflect.DeepEqual(first, next) {
			t.Fatalf("Expected identical output on re-invocation, got %+v and %+v", first, next)
		}
	}
}
