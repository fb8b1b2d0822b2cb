package conflicts

import (
	"fmt"

	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// ResourceKind distinguishes the two bookable resource pools
type ResourceKind string

const (
	ResourcePerson  ResourceKind = "person"
	ResourceMachine ResourceKind = "machine"
)

// DayConflict is one reason an entry cannot run cleanly on a day
type DayConflict struct {
	Day         int
	Kind        ResourceKind
	ResourceID  string
	Bookings    int  // same-day bookings of the resource, including this entry
	Maintenance bool // machine is inside an active maintenance block
}

// String renders the conflict for reports
func (c DayConflict) String() string {
	if c.Maintenance {
		return fmt.Sprintf("%s %s under maintenance on %s", c.Kind, c.ResourceID, entities.FormatDay(c.Day))
	}
	return fmt.Sprintf("%s %s booked %d times on %s", c.Kind, c.ResourceID, c.Bookings, entities.FormatDay(c.Day))
}

// BookingMap is a per-day tally of people and machine bookings plus the
// machines blocked by maintenance on each day. Only days in [from, to) are
// tallied.
type BookingMap struct {
	from        int
	to          int
	people      map[int]map[string]int
	machines    map[int]map[string]int
	maintenance map[int]map[string]bool
}

// BuildBookingMap expands every non-Cancelled scheduled entry and every active
// maintenance block across the part of its span inside [from, to). Rows with
// unparseable dates are left out of the tally.
func BuildBookingMap(s *entities.Snapshot, from, to int) *BookingMap {
	b := &BookingMap{
		from:        from,
		to:          to,
		people:      make(map[int]map[string]int),
		machines:    make(map[int]map[string]int),
		maintenance: make(map[int]map[string]bool),
	}

	for _, entry := range s.Schedule {
		if entry.Status == entities.ProcessCancelled {
			continue
		}
		start, days, err := entry.Span()
		if err != nil {
			continue
		}
		people := unique(entry.People())
		machines := unique(entry.MachineList())
		lo, hi := b.Clip(start, days)
		for day := lo; day < hi; day++ {
			for _, id := range people {
				tally(b.people, day, id)
			}
			for _, id := range machines {
				tally(b.machines, day, id)
			}
		}
	}

	for _, block := range s.Maintenance {
		if !block.IsActive() {
			continue
		}
		start, days, err := block.Span()
		if err != nil {
			continue
		}
		lo, hi := b.Clip(start, days)
		for day := lo; day < hi; day++ {
			blocked, ok := b.maintenance[day]
			if !ok {
				blocked = make(map[string]bool)
				b.maintenance[day] = blocked
			}
			for _, id := range block.MachineList() {
				blocked[id] = true
			}
		}
	}

	return b
}

// Clip bounds a span to the tallied range. The result is empty (lo >= hi)
// when the span misses the range.
func (b *BookingMap) Clip(start, days int) (lo, hi int) {
	return max(start, b.from), min(start+days, b.to)
}

func tally(byDay map[int]map[string]int, day int, id string) {
	counts, ok := byDay[day]
	if !ok {
		counts = make(map[string]int)
		byDay[day] = counts
	}
	counts[id]++
}

// PersonBookings returns how many entries book the person on the day
func (b *BookingMap) PersonBookings(day int, personID string) int {
	return b.people[day][personID]
}

// MachineBookings returns how many entries book the machine on the day
func (b *BookingMap) MachineBookings(day int, machineID string) int {
	return b.machines[day][machineID]
}

// MachineBlocked reports whether an active maintenance block covers the machine on the day
func (b *BookingMap) MachineBlocked(day int, machineID string) bool {
	return b.maintenance[day][machineID]
}

// ConflictsOnDay lists every double booking and maintenance clash of the
// entry on the day. Days outside the entry's span or the tallied range have
// no conflicts.
func (b *BookingMap) ConflictsOnDay(entry entities.ScheduledProcess, day int) []DayConflict {
	start, days, err := entry.Span()
	if err != nil || day < start || day >= start+days || day < b.from || day >= b.to {
		return nil
	}

	var found []DayConflict
	for _, id := range unique(entry.People()) {
		if n := b.PersonBookings(day, id); n > 1 {
			found = append(found, DayConflict{Day: day, Kind: ResourcePerson, ResourceID: id, Bookings: n})
		}
	}
	for _, id := range unique(entry.MachineList()) {
		if n := b.MachineBookings(day, id); n > 1 {
			found = append(found, DayConflict{Day: day, Kind: ResourceMachine, ResourceID: id, Bookings: n})
		}
		if b.MachineBlocked(day, id) {
			found = append(found, DayConflict{
				Day:         day,
				Kind:        ResourceMachine,
				ResourceID:  id,
				Bookings:    b.MachineBookings(day, id),
				Maintenance: true,
			})
		}
	}
	return found
}

// EventHasConflictOnDay reports whether the entry is double-booked or hits
// maintenance on the day. Detect classifies entries with this same check.
func (b *BookingMap) EventHasConflictOnDay(entry entities.ScheduledProcess, day int) bool {
	return len(b.ConflictsOnDay(entry, day)) > 0
}

// unique drops repeated ids so one entry listing a resource twice does not
// double-book it against itself
func unique(ids []string) []string {
	if len(ids) < 2 {
		return ids
	}
	seen := make(map[string]bool, len(ids))
	out := ids[:0:0]
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
