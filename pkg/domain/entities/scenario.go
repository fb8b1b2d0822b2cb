package entities

import "fmt"

// SchemaVersion is the snapshot document version written by this module
const SchemaVersion = 3

// Defaults applied to optional global drivers
const (
	DefaultScrapRate       = 0.0
	DefaultOverheadPct     = 0.25
	DefaultHoldingRate     = 0.24
	DefaultSafetyStockDays = 14.0
)

// GlobalInputs holds the scalar drivers of a scenario. Optional drivers are
// pointers so an absent value can be told apart from an explicit zero.
type GlobalInputs struct {
	SalePrice            float64  `json:"salePrice" yaml:"salePrice"`
	MonthlyDemand        float64  `json:"monthlyDemand" yaml:"monthlyDemand"`
	AvailableMinutes     float64  `json:"availableMinutesPerMonth" yaml:"availableMinutesPerMonth"`
	OEE                  float64  `json:"oee" yaml:"oee"`
	DowntimePct          float64  `json:"downtimePct" yaml:"downtimePct"`
	LabourRatePerHour    float64  `json:"labourRatePerHour" yaml:"labourRatePerHour"`
	LabourMinutesPerUnit float64  `json:"labourMinutesPerUnit" yaml:"labourMinutesPerUnit"`
	QualityCostPerUnit   float64  `json:"qualityCostPerUnit" yaml:"qualityCostPerUnit"`
	ScrapRate            *float64 `json:"scrapRate,omitempty" yaml:"scrapRate,omitempty"`
	OverheadPct          *float64 `json:"overheadPct,omitempty" yaml:"overheadPct,omitempty"`
	AnnualHoldingRate    *float64 `json:"annualHoldingRate,omitempty" yaml:"annualHoldingRate,omitempty"`
	SafetyStockDays      *float64 `json:"safetyStockDays,omitempty" yaml:"safetyStockDays,omitempty"`
	CapexTotal           float64  `json:"capexTotal" yaml:"capexTotal"`
	DepreciationMonths   float64  `json:"depreciationMonths" yaml:"depreciationMonths"`
	MarginGuardrailPct   float64  `json:"marginGuardrailPct" yaml:"marginGuardrailPct"`
}

// Drivers is GlobalInputs with every optional value resolved to a number
type Drivers struct {
	SalePrice            float64
	MonthlyDemand        float64
	AvailableMinutes     float64
	OEE                  float64
	DowntimePct          float64
	LabourRatePerHour    float64
	LabourMinutesPerUnit float64
	QualityCostPerUnit   float64
	ScrapRate            float64
	OverheadPct          float64
	AnnualHoldingRate    float64
	SafetyStockDays      float64
	CapexTotal           float64
	DepreciationMonths   float64
	MarginGuardrailPct   float64
}

// Resolve applies the documented defaults to absent optional drivers
func (g GlobalInputs) Resolve() Drivers {
	return Drivers{
		SalePrice:            g.SalePrice,
		MonthlyDemand:        g.MonthlyDemand,
		AvailableMinutes:     g.AvailableMinutes,
		OEE:                  g.OEE,
		DowntimePct:          g.DowntimePct,
		LabourRatePerHour:    g.LabourRatePerHour,
		LabourMinutesPerUnit: g.LabourMinutesPerUnit,
		QualityCostPerUnit:   g.QualityCostPerUnit,
		ScrapRate:            valueOr(g.ScrapRate, DefaultScrapRate),
		OverheadPct:          valueOr(g.OverheadPct, DefaultOverheadPct),
		AnnualHoldingRate:    valueOr(g.AnnualHoldingRate, DefaultHoldingRate),
		SafetyStockDays:      valueOr(g.SafetyStockDays, DefaultSafetyStockDays),
		CapexTotal:           g.CapexTotal,
		DepreciationMonths:   g.DepreciationMonths,
		MarginGuardrailPct:   g.MarginGuardrailPct,
	}
}

// EffectiveDemand is monthly demand inflated by the (non-negative) scrap rate
func (d Drivers) EffectiveDemand() float64 {
	scrap := d.ScrapRate
	if scrap < 0 {
		scrap = 0
	}
	return d.MonthlyDemand * (1 + scrap)
}

func valueOr(v *float64, def float64) float64 {
	if v == nil {
		return def
	}
	return *v
}

// Float returns a pointer to v, for filling optional drivers
func Float(v float64) *float64 {
	return &v
}

// Snapshot is the immutable scenario document every calculator reads.
// Editors return a new Snapshot; a Snapshot is never modified in place.
type Snapshot struct {
	Name             string             `json:"name" yaml:"name"`
	SchemaVersion    int                `json:"schemaVersion" yaml:"schemaVersion"`
	Globals          GlobalInputs       `json:"globals" yaml:"globals"`
	StockItems       []StockItem        `json:"stockItems" yaml:"stockItems"`
	Machines         []Machine          `json:"machines" yaml:"machines"`
	People           []Person           `json:"people" yaml:"people"`
	Stations         []Station          `json:"stations" yaml:"stations"`
	ProcessTemplates []ProcessTemplate  `json:"processTemplates" yaml:"processTemplates"`
	Batches          []ProductionBatch  `json:"batches" yaml:"batches"`
	Schedule         []ScheduledProcess `json:"schedule" yaml:"schedule"`
	Maintenance      []MaintenanceBlock `json:"maintenance" yaml:"maintenance"`
	LogisticsLanes   []LogisticsLane    `json:"logisticsLanes" yaml:"logisticsLanes"`
	Warehouses       []Warehouse        `json:"warehouses" yaml:"warehouses"`
}

// NewSnapshot creates an empty snapshot with every collection non-nil
func NewSnapshot(name string) (*Snapshot, error) {
	if name == "" {
		return nil, fmt.Errorf("scenario name cannot be empty")
	}
	return &Snapshot{
		Name:             name,
		SchemaVersion:    SchemaVersion,
		StockItems:       []StockItem{},
		Machines:         []Machine{},
		People:           []Person{},
		Stations:         []Station{},
		ProcessTemplates: []ProcessTemplate{},
		Batches:          []ProductionBatch{},
		Schedule:         []ScheduledProcess{},
		Maintenance:      []MaintenanceBlock{},
		LogisticsLanes:   []LogisticsLane{},
		Warehouses:       []Warehouse{},
	}, nil
}

// Clone returns a deep copy sharing no backing arrays or pointers with s
func (s *Snapshot) Clone() *Snapshot {
	out := *s
	out.Globals = s.Globals.clone()
	out.StockItems = cloneSlice(s.StockItems)
	for i := range out.StockItems {
		out.StockItems[i] = out.StockItems[i].clone()
	}
	out.Machines = cloneSlice(s.Machines)
	out.People = cloneSlice(s.People)
	out.Stations = cloneSlice(s.Stations)
	out.ProcessTemplates = cloneSlice(s.ProcessTemplates)
	out.Batches = cloneSlice(s.Batches)
	out.Schedule = cloneSlice(s.Schedule)
	out.Maintenance = cloneSlice(s.Maintenance)
	out.LogisticsLanes = cloneSlice(s.LogisticsLanes)
	out.Warehouses = cloneSlice(s.Warehouses)
	return &out
}

func (g GlobalInputs) clone() GlobalInputs {
	out := g
	out.ScrapRate = clonePtr(g.ScrapRate)
	out.OverheadPct = clonePtr(g.OverheadPct)
	out.AnnualHoldingRate = clonePtr(g.AnnualHoldingRate)
	out.SafetyStockDays = clonePtr(g.SafetyStockDays)
	return out
}

func clonePtr(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

// WithGlobals returns a copy of s with the global drivers replaced
func (s *Snapshot) WithGlobals(g GlobalInputs) *Snapshot {
	out := s.Clone()
	out.Globals = g.clone()
	return out
}

// WithStockItems returns a copy of s with the stock ledger replaced
func (s *Snapshot) WithStockItems(items []StockItem) *Snapshot {
	out := s.Clone()
	out.StockItems = cloneSlice(items)
	for i := range out.StockItems {
		out.StockItems[i] = out.StockItems[i].clone()
	}
	return out
}

// WithMachines returns a copy of s with the machine list replaced
func (s *Snapshot) WithMachines(machines []Machine) *Snapshot {
	out := s.Clone()
	out.Machines = cloneSlice(machines)
	return out
}

// WithPeople returns a copy of s with the people list replaced
func (s *Snapshot) WithPeople(people []Person) *Snapshot {
	out := s.Clone()
	out.People = cloneSlice(people)
	return out
}

// WithStations returns a copy of s with the station list replaced
func (s *Snapshot) WithStations(stations []Station) *Snapshot {
	out := s.Clone()
	out.Stations = cloneSlice(stations)
	return out
}

// WithProcessTemplates returns a copy of s with the process templates replaced
func (s *Snapshot) WithProcessTemplates(templates []ProcessTemplate) *Snapshot {
	out := s.Clone()
	out.ProcessTemplates = cloneSlice(templates)
	return out
}

// WithBatches returns a copy of s with the production batches replaced
func (s *Snapshot) WithBatches(batches []ProductionBatch) *Snapshot {
	out := s.Clone()
	out.Batches = cloneSlice(batches)
	return out
}

// WithSchedule returns a copy of s with the schedule replaced
func (s *Snapshot) WithSchedule(schedule []ScheduledProcess) *Snapshot {
	out := s.Clone()
	out.Schedule = cloneSlice(schedule)
	return out
}

// WithMaintenance returns a copy of s with the maintenance blocks replaced
func (s *Snapshot) WithMaintenance(blocks []MaintenanceBlock) *Snapshot {
	out := s.Clone()
	out.Maintenance = cloneSlice(blocks)
	return out
}

// WithLogisticsLanes returns a copy of s with the logistics lanes replaced
func (s *Snapshot) WithLogisticsLanes(lanes []LogisticsLane) *Snapshot {
	out := s.Clone()
	out.LogisticsLanes = cloneSlice(lanes)
	return out
}

// WithWarehouses returns a copy of s with the warehouses replaced
func (s *Snapshot) WithWarehouses(warehouses []Warehouse) *Snapshot {
	out := s.Clone()
	out.Warehouses = cloneSlice(warehouses)
	return out
}

// DefaultSnapshot builds the starter scenario a new workspace opens with
func DefaultSnapshot(name string) *Snapshot {
	s, err := NewSnapshot(name)
	if err != nil {
		s, _ = NewSnapshot("default")
	}
	s.Globals = GlobalInputs{
		SalePrice:            450,
		MonthlyDemand:        1200,
		AvailableMinutes:     9600,
		OEE:                  0.75,
		DowntimePct:          0.05,
		LabourRatePerHour:    32,
		LabourMinutesPerUnit: 18,
		QualityCostPerUnit:   4.5,
		ScrapRate:            Float(0.02),
		CapexTotal:           240000,
		DepreciationMonths:   60,
		MarginGuardrailPct:   25,
	}
	s.StockItems = []StockItem{
		{ID: "stk-housing", Name: "Housing", UnitCost: 38, Unit: "ea", Location: "Rack A", UsagePerUnit: 1, LeadTimeDays: 21, MOQ: 200, OnHandQty: 900, ReorderPointQty: Float(600), MinQty: Float(250)},
		{ID: "stk-pcb", Name: "Controller PCB", UnitCost: 64, Unit: "ea", Location: "Rack B", UsagePerUnit: 1, LeadTimeDays: 35, MOQ: 500, SingleSource: true, OnHandQty: 1100, ReorderPointQty: Float(900), MinQty: Float(400)},
		{ID: "stk-fastener", Name: "M4 Fastener", UnitCost: 0.08, Unit: "ea", Location: "Bin 12", UsagePerUnit: 8, LeadTimeDays: 7, MOQ: 10000, OnHandQty: 24000},
	}
	s.Machines = []Machine{
		{ID: "m-press-1", Name: "Press 1", Type: "press", Status: MachineAvailable},
		{ID: "m-cell-1", Name: "Assembly Cell 1", Type: "assembly", Status: MachineAvailable},
		{ID: "m-test-1", Name: "Test Rig 1", Type: "test", Status: MachineAvailable},
	}
	s.People = []Person{
		{ID: "p-ana", Name: "Ana", Role: "Operator", Shift: "Day"},
		{ID: "p-ben", Name: "Ben", Role: "Technician", Shift: "Day"},
	}
	s.Stations = []Station{
		{ID: "st-press", Name: "Pressing", CycleTimeSec: 240, Installed: 1},
		{ID: "st-assembly", Name: "Assembly", CycleTimeSec: 420, Installed: 2},
		{ID: "st-test", Name: "End-of-line Test", CycleTimeSec: 180, Installed: 1},
	}
	s.ProcessTemplates = []ProcessTemplate{
		{ID: "pt-assembly", Name: "Assembly", DefaultDurationDays: 2, AllowedMachineTypes: "press,assembly", Stage: StageAssembly},
		{ID: "pt-test", Name: "Test & Pack", DefaultDurationDays: 1, AllowedMachineTypes: "test", Stage: StagePostAssembly},
	}
	s.LogisticsLanes = []LogisticsLane{
		{ID: "lane-inbound", Name: "Inbound freight", CostPerShipment: 1800, UnitsPerShipment: 600},
	}
	s.Warehouses = []Warehouse{
		{ID: "wh-main", Name: "Main warehouse", MonthlyCost: 5200},
	}
	return s
}
