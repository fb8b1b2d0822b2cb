package entities

import "fmt"

// MachineStatus represents the availability of a machine
type MachineStatus string

const (
	MachineAvailable    MachineStatus = "Available"
	MachineInUse        MachineStatus = "In Use"
	MachineOutOfService MachineStatus = "Out of Service"
)

// Machine is a bookable piece of equipment
type Machine struct {
	ID     string        `json:"id" yaml:"id"`
	Name   string        `json:"name" yaml:"name"`
	Type   string        `json:"type" yaml:"type"`
	Status MachineStatus `json:"status" yaml:"status"`
	Notes  string        `json:"notes" yaml:"notes"`
}

// NewMachine creates a validated Machine
func NewMachine(id, name, machineType string, status MachineStatus) (*Machine, error) {
	if id == "" {
		return nil, fmt.Errorf("machine id cannot be empty")
	}
	switch status {
	case MachineAvailable, MachineInUse, MachineOutOfService:
	case "":
		status = MachineAvailable
	default:
		return nil, fmt.Errorf("invalid machine status: %s", status)
	}
	return &Machine{ID: id, Name: name, Type: machineType, Status: status}, nil
}

// GetID implements Identified
func (m Machine) GetID() string { return m.ID }

// Person is a bookable member of staff
type Person struct {
	ID    string `json:"id" yaml:"id"`
	Name  string `json:"name" yaml:"name"`
	Role  string `json:"role" yaml:"role"`
	Shift string `json:"shift" yaml:"shift"`
	Notes string `json:"notes" yaml:"notes"`
}

// GetID implements Identified
func (p Person) GetID() string { return p.ID }

// Station is a group of identical machines performing one step of the routing
type Station struct {
	ID           string  `json:"id" yaml:"id"`
	Name         string  `json:"name" yaml:"name"`
	CycleTimeSec float64 `json:"cycleTimeSec" yaml:"cycleTimeSec"`
	Installed    float64 `json:"installed" yaml:"installed"`
}

// GetID implements Identified
func (s Station) GetID() string { return s.ID }

// LogisticsLane describes the cost of moving finished goods in shipments
type LogisticsLane struct {
	ID               string  `json:"id" yaml:"id"`
	Name             string  `json:"name" yaml:"name"`
	CostPerShipment  float64 `json:"costPerShipment" yaml:"costPerShipment"`
	UnitsPerShipment float64 `json:"unitsPerShipment" yaml:"unitsPerShipment"`
}

// GetID implements Identified
func (l LogisticsLane) GetID() string { return l.ID }

// Warehouse is a fixed monthly storage cost
type Warehouse struct {
	ID          string  `json:"id" yaml:"id"`
	Name        string  `json:"name" yaml:"name"`
	MonthlyCost float64 `json:"monthlyCost" yaml:"monthlyCost"`
}

// GetID implements Identified
func (w Warehouse) GetID() string { return w.ID }
