package conflicts

import (
	"fmt"
	"time"

	"github.com/vsinha/opsplan/pkg/application/dto"
	"github.com/vsinha/opsplan/pkg/domain/entities"
)

// DefaultWindowDays is the rolling window used when none is configured
const DefaultWindowDays = 14

// Detector classifies scheduled entries as ready, at risk or blocked
type Detector struct {
	windowDays int
}

// NewDetector creates a detector over a window of windowDays days starting
// at the caller's today. Non-positive values select DefaultWindowDays.
func NewDetector(windowDays int) *Detector {
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	return &Detector{windowDays: windowDays}
}

// WindowDays returns the configured window length
func (d *Detector) WindowDays() int {
	return d.windowDays
}

// Detect assesses every entry whose start day falls in [today, today+window).
// Entries keep their snapshot order. The booking tally is limited to the
// window; entries that started before it still occupy resources inside it.
func (d *Detector) Detect(s *entities.Snapshot, today time.Time) dto.ConflictSummary {
	first := entities.DayIndex(today)
	end := first + d.windowDays

	summary := dto.ConflictSummary{
		WindowStart: entities.FormatDay(first),
		WindowEnd:   entities.FormatDay(end - 1),
		Entries:     make([]dto.EntryAssessment, 0),
	}

	bookings := BuildBookingMap(s, first, end)
	for _, entry := range s.Schedule {
		start, _, err := entry.Span()
		if err != nil || start < first || start >= end {
			continue
		}

		assessment := Assess(bookings, entry)
		switch assessment.State {
		case dto.EntryBlocked:
			summary.Blocked++
		case dto.EntryAtRisk:
			summary.AtRisk++
		default:
			summary.Ready++
		}
		summary.Entries = append(summary.Entries, assessment)
	}

	return summary
}

// Assess classifies one entry against the booking map. Only days inside the
// map's range are checked. Blocking statuses win over conflicts; conflict days
// are still reported for blocked entries.
func Assess(bookings *BookingMap, entry entities.ScheduledProcess) dto.EntryAssessment {
	assessment := dto.EntryAssessment{
		ID:           entry.ID,
		BatchID:      entry.BatchID,
		ProcessID:    entry.ProcessID,
		Date:         entry.Date,
		DurationDays: entry.DurationDays,
		Status:       entry.Status,
		State:        dto.EntryReady,
	}

	start, days, err := entry.Span()
	if err == nil {
		lo, hi := bookings.Clip(start, days)
		for day := lo; day < hi; day++ {
			if !bookings.EventHasConflictOnDay(entry, day) {
				continue
			}
			assessment.ConflictDays = append(assessment.ConflictDays, entities.FormatDay(day))
			for _, c := range bookings.ConflictsOnDay(entry, day) {
				assessment.Reasons = append(assessment.Reasons, c.String())
			}
		}
	}

	switch {
	case entry.Status.IsBlocking():
		assessment.State = dto.EntryBlocked
		assessment.Reasons = append([]string{fmt.Sprintf("status %s", entry.Status)}, assessment.Reasons...)
	case len(assessment.ConflictDays) > 0:
		assessment.State = dto.EntryAtRisk
	}

	return assessment
}
