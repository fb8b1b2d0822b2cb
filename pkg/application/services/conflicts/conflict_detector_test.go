package conflicts

import (
	"reflect"
	"testing"
	"time"

	"github.com/vsinha/opsplan/pkg/application/dto"
	testhelpers "github.com/vsinha/opsplan/pkg/application/services/testing"
	"github.com/vsinha/opsplan/pkg/domain/entities"
)

var jan10 = time.Date(2024, time.January, 10, 0, 0, 0, 0, time.UTC)

func mustDay(t *testing.T, s string) int {
	t.Helper()
	day, err := entities.ParseDay(s)
	if err != nil {
		t.Fatalf("Failed to parse day %q: %v", s, err)
	}
	return day
}

func entry(id, date string, duration int, status entities.ProcessStatus, people, machines string) entities.ScheduledProcess {
	return testhelpers.MustCreateEntry(id, "B1", date, duration, testhelpers.AssemblyTemplateID, status, people, machines)
}

func scheduleSnapshot(schedule []entities.ScheduledProcess, maintenance ...entities.MaintenanceBlock) *entities.Snapshot {
	s := testhelpers.BuildPlantSnapshot()
	s.Schedule = schedule
	s.Maintenance = maintenance
	return s
}

func TestDetector_MaintenanceOnSecondDay(t *testing.T) {
	sp := entry("sp-1", "2024-01-10", 2, entities.ProcessPlanned, "P1", "M1")
	s := scheduleSnapshot(
		[]entities.ScheduledProcess{sp},
		testhelpers.MustCreateMaintenance("mb-1", "2024-01-11", 1, "M1"),
	)

	bookings := BuildBookingMap(s, mustDay(t, "2024-01-10"), mustDay(t, "2024-01-24"))
	if bookings.EventHasConflictOnDay(sp, mustDay(t, "2024-01-10")) {
		t.Errorf("Expected no conflict on 2024-01-10")
	}
	if !bookings.EventHasConflictOnDay(sp, mustDay(t, "2024-01-11")) {
		t.Errorf("Expected conflict on 2024-01-11")
	}

	summary := NewDetector(14).Detect(s, jan10)
	if summary.AtRisk != 1 || summary.Ready != 0 || summary.Blocked != 0 {
		t.Fatalf("Expected 1 at risk, got ready=%d atRisk=%d blocked=%d", summary.Ready, summary.AtRisk, summary.Blocked)
	}
	if !reflect.DeepEqual(summary.Entries[0].ConflictDays, []string{"2024-01-11"}) {
		t.Errorf("Expected conflict days [2024-01-11], got %v", summary.Entries[0].ConflictDays)
	}
}

func TestDetector_MachineSymmetry(t *testing.T) {
	testCases := []struct {
		name      string
		statusA   entities.ProcessStatus
		statusB   entities.ProcessStatus
		expectedA dto.EntryState
		expectedB dto.EntryState
	}{
		{"both planned", entities.ProcessPlanned, entities.ProcessPlanned, dto.EntryAtRisk, dto.EntryAtRisk},
		{"one in progress", entities.ProcessInProgress, entities.ProcessPlanned, dto.EntryAtRisk, dto.EntryAtRisk},
		{"one issue", entities.ProcessIssue, entities.ProcessPlanned, dto.EntryBlocked, dto.EntryAtRisk},
		{"one quarantined", entities.ProcessPlanned, entities.ProcessQuarantine, dto.EntryAtRisk, dto.EntryBlocked},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			a := entry("sp-a", "2024-01-10", 3, tc.statusA, "P1", "M1")
			b := entry("sp-b", "2024-01-12", 2, tc.statusB, "P2", "M1")
			s := scheduleSnapshot([]entities.ScheduledProcess{a, b})

			summary := NewDetector(14).Detect(s, jan10)
			if len(summary.Entries) != 2 {
				t.Fatalf("Expected 2 entries, got %d", len(summary.Entries))
			}
			if summary.Entries[0].State != tc.expectedA {
				t.Errorf("Expected entry A %s, got %s", tc.expectedA, summary.Entries[0].State)
			}
			if summary.Entries[1].State != tc.expectedB {
				t.Errorf("Expected entry B %s, got %s", tc.expectedB, summary.Entries[1].State)
			}

			// Only 2024-01-12 overlaps
			for _, e := range summary.Entries {
				if !reflect.DeepEqual(e.ConflictDays, []string{"2024-01-12"}) {
					t.Errorf("Expected %s conflict days [2024-01-12], got %v", e.ID, e.ConflictDays)
				}
			}
		})
	}
}

func TestDetector_CancelledEntriesDoNotBook(t *testing.T) {
	a := entry("sp-a", "2024-01-10", 1, entities.ProcessPlanned, "P1", "M1")
	b := entry("sp-b", "2024-01-10", 1, entities.ProcessCancelled, "P1", "M1")
	s := scheduleSnapshot([]entities.ScheduledProcess{a, b})

	summary := NewDetector(14).Detect(s, jan10)
	if summary.Ready != 1 || summary.Blocked != 1 || summary.AtRisk != 0 {
		t.Errorf("Expected ready=1 blocked=1, got ready=%d atRisk=%d blocked=%d", summary.Ready, summary.AtRisk, summary.Blocked)
	}
}

func TestDetector_PersonDoubleBooking(t *testing.T) {
	a := entry("sp-a", "2024-01-10", 1, entities.ProcessPlanned, "P1", "M1")
	b := entry("sp-b", "2024-01-10", 1, entities.ProcessPlanned, "p2, P1", "M2")
	s := scheduleSnapshot([]entities.ScheduledProcess{a, b})

	summary := NewDetector(14).Detect(s, jan10)
	if summary.AtRisk != 2 {
		t.Fatalf("Expected 2 at risk, got %d", summary.AtRisk)
	}
	expected := []string{"person P1 booked 2 times on 2024-01-10"}
	if !reflect.DeepEqual(summary.Entries[0].Reasons, expected) {
		t.Errorf("Expected reasons %v, got %v", expected, summary.Entries[0].Reasons)
	}
}

func TestDetector_RepeatedIDInOneEntry(t *testing.T) {
	a := entry("sp-a", "2024-01-10", 1, entities.ProcessPlanned, "P1,P1", "M1, M1")
	s := scheduleSnapshot([]entities.ScheduledProcess{a})

	summary := NewDetector(14).Detect(s, jan10)
	if summary.Ready != 1 {
		t.Errorf("Expected entry listing a resource twice to stay ready, got %+v", summary.Entries[0])
	}
}

func TestDetector_Window(t *testing.T) {
	schedule := []entities.ScheduledProcess{
		// started before the window, still occupies M1 on 2024-01-10
		entry("sp-early", "2024-01-09", 2, entities.ProcessInProgress, "", "M1"),
		entry("sp-first", "2024-01-10", 1, entities.ProcessPlanned, "", "M1"),
		entry("sp-last", "2024-01-16", 1, entities.ProcessPlanned, "", "M2"),
		entry("sp-after", "2024-01-17", 1, entities.ProcessPlanned, "", "M2"),
	}
	s := scheduleSnapshot(schedule)

	summary := NewDetector(7).Detect(s, jan10)
	if summary.WindowStart != "2024-01-10" || summary.WindowEnd != "2024-01-16" {
		t.Errorf("Expected window 2024-01-10..2024-01-16, got %s..%s", summary.WindowStart, summary.WindowEnd)
	}
	if len(summary.Entries) != 2 {
		t.Fatalf("Expected 2 entries in window, got %d", len(summary.Entries))
	}
	if summary.Entries[0].ID != "sp-first" || summary.Entries[0].State != dto.EntryAtRisk {
		t.Errorf("Expected sp-first at risk from the earlier booking, got %+v", summary.Entries[0])
	}
	if summary.Entries[1].ID != "sp-last" || summary.Entries[1].State != dto.EntryReady {
		t.Errorf("Expected sp-last ready, got %+v", summary.Entries[1])
	}
}

func TestDetector_DefaultWindow(t *testing.T) {
	if got := NewDetector(0).WindowDays(); got != DefaultWindowDays {
		t.Errorf("Expected default window %d, got %d", DefaultWindowDays, got)
	}
}

func TestDetector_CancelledMaintenanceIgnored(t *testing.T) {
	block := testhelpers.MustCreateMaintenance("mb-1", "2024-01-10", 1, "M1")
	block.Status = entities.MaintenanceCancelled
	s := scheduleSnapshot([]entities.ScheduledProcess{entry("sp-a", "2024-01-10", 1, entities.ProcessPlanned, "", "M1")}, block)

	if summary := NewDetector(14).Detect(s, jan10); summary.Ready != 1 {
		t.Errorf("Expected entry ready when maintenance is cancelled, got %+v", summary)
	}
}

func TestDetector_PredicateAgreesWithAggregate(t *testing.T) {
	schedule := []entities.ScheduledProcess{
		entry("sp-a", "2024-01-10", 3, entities.ProcessPlanned, "P1", "M1"),
		entry("sp-b", "2024-01-11", 1, entities.ProcessPlanned, "P1", ""),
		entry("sp-c", "2024-01-13", 2, entities.ProcessPlanned, "P2", "M2"),
		entry("sp-d", "2024-01-15", 1, entities.ProcessIssue, "P2", "M2"),
	}
	s := scheduleSnapshot(schedule, testhelpers.MustCreateMaintenance("mb-1", "2024-01-14", 2, "M2"))

	bookings := BuildBookingMap(s, mustDay(t, "2024-01-10"), mustDay(t, "2024-01-24"))
	summary := NewDetector(14).Detect(s, jan10)

	for i, sp := range schedule {
		start, days, _ := sp.Span()
		var conflictDays []string
		for day := start - 1; day <= start+days; day++ {
			if bookings.EventHasConflictOnDay(sp, day) {
				conflictDays = append(conflictDays, entities.FormatDay(day))
			}
		}
		if !reflect.DeepEqual(conflictDays, summary.Entries[i].ConflictDays) {
			t.Errorf("%s: predicate days %v disagree with assessment %v", sp.ID, conflictDays, summary.Entries[i].ConflictDays)
		}
	}

	if summary.AtRisk != 3 || summary.Blocked != 1 || summary.Ready != 0 {
		t.Errorf("Expected atRisk=3 blocked=1, got ready=%d atRisk=%d blocked=%d", summary.Ready, summary.AtRisk, summary.Blocked)
	}
}

func TestDetector_LongDurationIsClippedToWindow(t *testing.T) {
	s := scheduleSnapshot([]entities.ScheduledProcess{
		entry("sp-forever", "1990-01-01", 2_000_000, entities.ProcessInProgress, "P1", "M1"),
		entry("sp-1", "2024-01-10", 2, entities.ProcessPlanned, "", "M1"),
	}, testhelpers.MustCreateMaintenance("mb-long", "2000-01-01", 5_000_000, "M2"))

	from, to := mustDay(t, "2024-01-10"), mustDay(t, "2024-01-17")
	bookings := BuildBookingMap(s, from, to)
	if got := bookings.MachineBookings(from, "M1"); got != 2 {
		t.Errorf("Expected M1 booked twice on 2024-01-10, got %d", got)
	}
	if got := bookings.MachineBookings(from-1, "M1"); got != 0 {
		t.Errorf("Expected no tally before the range, got %d", got)
	}
	if got := bookings.MachineBookings(to, "M1"); got != 0 {
		t.Errorf("Expected no tally after the range, got %d", got)
	}
	if !bookings.MachineBlocked(to-1, "M2") || bookings.MachineBlocked(to, "M2") {
		t.Errorf("Expected maintenance tallied up to the last day of the range only")
	}

	summary := NewDetector(7).Detect(s, jan10)
	if len(summary.Entries) != 1 {
		t.Fatalf("Expected only the entry starting in the window, got %d", len(summary.Entries))
	}
	want := []string{"2024-01-10", "2024-01-11"}
	if !reflect.DeepEqual(summary.Entries[0].ConflictDays, want) {
		t.Errorf("Expected conflict days %v, got %v", want, summary.Entries[0].ConflictDays)
	}
}

func TestBookingMap_Clip(t *testing.T) {
	b := BuildBookingMap(scheduleSnapshot(nil), 100, 110)

	testCases := []struct {
		name        string
		start, days int
		lo, hi      int
	}{
		{"inside", 102, 3, 102, 105},
		{"starts before", 90, 15, 100, 105},
		{"runs past", 108, 1_000_000, 108, 110},
		{"covers range", 0, 1_000_000, 100, 110},
		{"misses range", 80, 5, 100, 85},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			lo, hi := b.Clip(tc.start, tc.days)
			if lo != tc.lo || hi != tc.hi {
				t.Errorf("Expected [%d, %d), got [%d, %d)", tc.lo, tc.hi, lo, hi)
			}
		})
	}
}
