package entities

import (
	"fmt"
	"strings"
	"time"
)

// DayLayout is the calendar-day format used throughout snapshots
const DayLayout = "2006-01-02"

// ProcessStatus is the state of a scheduled process
type ProcessStatus string

const (
	ProcessPlanned    ProcessStatus = "Planned"
	ProcessInProgress ProcessStatus = "In Progress"
	ProcessComplete   ProcessStatus = "Complete"
	ProcessIssue      ProcessStatus = "Issue"
	ProcessQuarantine ProcessStatus = "Quarantine"
	ProcessCancelled  ProcessStatus = "Cancelled"
)

// IsBlocking reports whether the status stops the entry from running
func (s ProcessStatus) IsBlocking() bool {
	switch s {
	case ProcessIssue, ProcessQuarantine, ProcessCancelled:
		return true
	default:
		return false
	}
}

// IsOpenIssue reports whether the status needs operator attention
func (s ProcessStatus) IsOpenIssue() bool {
	return s == ProcessIssue || s == ProcessQuarantine
}

// ScheduledProcess books people and machines for a batch over whole days
type ScheduledProcess struct {
	ID           string        `json:"id" yaml:"id"`
	BatchID      string        `json:"batchId" yaml:"batchId"`
	Date         string        `json:"date" yaml:"date"`
	DurationDays int           `json:"durationDays" yaml:"durationDays"`
	ProcessID    string        `json:"processId" yaml:"processId"`
	PersonIDs    string        `json:"personIds" yaml:"personIds"`
	MachineIDs   string        `json:"machineIds" yaml:"machineIds"`
	Status       ProcessStatus `json:"status" yaml:"status"`
	Notes        string        `json:"notes" yaml:"notes"`
}

// NewScheduledProcess creates a validated ScheduledProcess
func NewScheduledProcess(id, batchID, date string, durationDays int, processID string) (*ScheduledProcess, error) {
	if id == "" {
		return nil, fmt.Errorf("scheduled process id cannot be empty")
	}
	if _, err := ParseDay(date); err != nil {
		return nil, err
	}
	if durationDays < 0 {
		return nil, fmt.Errorf("duration cannot be negative, got %d", durationDays)
	}
	return &ScheduledProcess{
		ID:           id,
		BatchID:      batchID,
		Date:         date,
		DurationDays: durationDays,
		ProcessID:    processID,
		Status:       ProcessPlanned,
	}, nil
}

// GetID implements Identified
func (p ScheduledProcess) GetID() string { return p.ID }

// People returns the assigned person ids
func (p ScheduledProcess) People() []string { return SplitList(p.PersonIDs) }

// MachineList returns the assigned machine ids
func (p ScheduledProcess) MachineList() []string { return SplitList(p.MachineIDs) }

// Span returns the first day index and the number of days the entry occupies
func (p ScheduledProcess) Span() (int, int, error) {
	start, err := ParseDay(p.Date)
	if err != nil {
		return 0, 0, err
	}
	return start, SpanDays(p.DurationDays), nil
}

// MaintenanceStatus is the state of a maintenance block
type MaintenanceStatus string

const (
	MaintenancePlanned   MaintenanceStatus = "Planned"
	MaintenanceDone      MaintenanceStatus = "Done"
	MaintenanceCancelled MaintenanceStatus = "Cancelled"
)

// MaintenanceBlock takes machines out of the bookable pool for whole days
type MaintenanceBlock struct {
	ID           string            `json:"id" yaml:"id"`
	Date         string            `json:"date" yaml:"date"`
	DurationDays int               `json:"durationDays" yaml:"durationDays"`
	MachineIDs   string            `json:"machineIds" yaml:"machineIds"`
	Title        string            `json:"title" yaml:"title"`
	Status       MaintenanceStatus `json:"status" yaml:"status"`
}

// NewMaintenanceBlock creates a validated MaintenanceBlock
func NewMaintenanceBlock(id, date string, durationDays int, machineIDs, title string) (*MaintenanceBlock, error) {
	if id == "" {
		return nil, fmt.Errorf("maintenance block id cannot be empty")
	}
	if _, err := ParseDay(date); err != nil {
		return nil, err
	}
	if durationDays < 0 {
		return nil, fmt.Errorf("duration cannot be negative, got %d", durationDays)
	}
	return &MaintenanceBlock{
		ID:           id,
		Date:         date,
		DurationDays: durationDays,
		MachineIDs:   machineIDs,
		Title:        title,
		Status:       MaintenancePlanned,
	}, nil
}

// GetID implements Identified
func (m MaintenanceBlock) GetID() string { return m.ID }

// MachineList returns the blocked machine ids
func (m MaintenanceBlock) MachineList() []string { return SplitList(m.MachineIDs) }

// IsActive reports whether the block still blocks its machines
func (m MaintenanceBlock) IsActive() bool { return m.Status != MaintenanceCancelled }

// Span returns the first day index and the number of days the block occupies
func (m MaintenanceBlock) Span() (int, int, error) {
	start, err := ParseDay(m.Date)
	if err != nil {
		return 0, 0, err
	}
	return start, SpanDays(m.DurationDays), nil
}

// SpanDays is the number of calendar days touched by a duration; a
// zero-length booking still occupies its start day
func SpanDays(duration int) int {
	if duration < 1 {
		return 1
	}
	return duration
}

// ParseDay converts a YYYY-MM-DD string to a day index counted from the Unix epoch
func ParseDay(s string) (int, error) {
	t, err := time.Parse(DayLayout, strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return DayIndex(t), nil
}

// DayIndex returns the day index of t's calendar date
func DayIndex(t time.Time) int {
	y, m, d := t.Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// FormatDay converts a day index back to YYYY-MM-DD
func FormatDay(day int) string {
	return time.Unix(int64(day)*86400, 0).UTC().Format(DayLayout)
}
