package services

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// LineItem is one well-formed "Item Name, Qty" line
type LineItem struct {
	Name string
	Qty  float64
	Line int // 1-based line number in the source text
}

// ResolvedLineItem is a LineItem matched to a stock item
type ResolvedLineItem struct {
	StockID string
	Name    string
	Qty     float64
	Line    int
}

// ParseLineItems parses free-text "Item Name, Qty" lines. The quantity is the
// text after the last comma so names may contain commas. Blank lines, lines
// without a comma, empty names, and unparseable or negative quantities are
// skipped; the remaining lines are still returned.
func ParseLineItems(text string) []LineItem {
	var items []LineItem
	for i, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(strings.TrimSuffix(raw, "\r"))
		if line == "" {
			continue
		}

		sep := strings.LastIndex(line, ",")
		if sep < 0 {
			continue
		}

		name := strings.TrimSpace(line[:sep])
		if name == "" {
			continue
		}

		qty, err := decimal.NewFromString(strings.TrimSpace(line[sep+1:]))
		if err != nil || qty.IsNegative() {
			continue
		}

		items = append(items, LineItem{
			Name: name,
			Qty:  qty.InexactFloat64(),
			Line: i + 1,
		})
	}
	return items
}

// ResolveLineItems matches line items to stock items by name, case-insensitively
// after trimming. Lines naming no stock item are dropped.
func ResolveLineItems(items []LineItem, stock []entities.StockItem) []ResolvedLineItem {
	if len(items) == 0 {
		return nil
	}

	byName := StockNameIndex(stock)
	var resolved []ResolvedLineItem
	for _, item := range items {
		stockID, ok := byName[strings.ToLower(item.Name)]
		if !ok {
			continue
		}
		resolved = append(resolved, ResolvedLineItem{
			StockID: stockID,
			Name:    item.Name,
			Qty:     item.Qty,
			Line:    item.Line,
		})
	}
	return resolved
}

// StockNameIndex maps lower-cased trimmed stock names to ids; the first item
// wins when two names collide
func StockNameIndex(stock []entities.StockItem) map[string]string {
	byName := make(map[string]string, len(stock))
	for _, item := range stock {
		key := strings.ToLower(strings.TrimSpace(item.Name))
		if key == "" {
			continue
		}
		if _, exists := byName[key]; !exists {
			byName[key] = item.ID
		}
	}
	return byName
}

// SumByStockID totals resolved quantities per stock item
func SumByStockID(items []ResolvedLineItem) map[string]float64 {
	totals := make(map[string]float64, len(items))
	for _, item := range items {
		totals[item.StockID] += item.Qty
	}
	return totals
}
