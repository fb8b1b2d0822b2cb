package shared

// LedgerEntry accumulates consumed quantity for one stock item
type LedgerEntry struct {
	Quantity float64
	Sources  []string
}

// Ledger tracks consumption by stock id. The zero value is not usable; use NewLedger.
type Ledger map[string]*LedgerEntry

// NewLedger creates a new empty ledger
func NewLedger() Ledger {
	return make(Ledger)
}

// Add accumulates qty for a stock item and records the source once
func (l Ledger) Add(stockID string, qty float64, source string) {
	entry, exists := l[stockID]
	if !exists {
		entry = &LedgerEntry{}
		l[stockID] = entry
	}
	entry.Quantity += qty
	entry.addSource(source)
}

// Set replaces the quantity for a stock item, discarding earlier sources
func (l Ledger) Set(stockID string, qty float64, source string) {
	l[stockID] = &LedgerEntry{Quantity: qty, Sources: []string{source}}
}

// Get returns the entry for a stock item, or nil when nothing was consumed
func (l Ledger) Get(stockID string) *LedgerEntry {
	return l[stockID]
}

func (e *LedgerEntry) addSource(source string) {
	if source == "" {
		return
	}
	for _, s := range e.Sources {
		if s == source {
			return
		}
	}
	e.Sources = append(e.Sources, source)
}
