package domain

import (
	"strings"
	"time"
)

// Status is the operational state of a component
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
)

// ValidStatuses lists every accepted status in display order
var ValidStatuses = []Status{StatusActive, StatusInactive, StatusMaintenance}

// IsValid reports whether s is one of ValidStatuses
func (s Status) IsValid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// StatusList renders ValidStatuses as "active, inactive, maintenance"
func StatusList() string {
	names := make([]string, len(ValidStatuses))
	for i, s := range ValidStatuses {
		names[i] = string(s)
	}
	return strings.Join(names, ", ")
}

// Component is a tracked grid or meter asset
type Component struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Status      Status    `json:"status"`
	Type        string    `json:"type"`
	LastUpdated time.Time `json:"lastUpdated"`
}

// HistoryPoint is one timestamped sample of a component's synthetic telemetry
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     int       `json:"value"`
}
