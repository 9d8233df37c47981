package domain

import (
	"encoding/json"
	"time"
)

// TimeLayout is the wire format of every timestamp: UTC with exactly three
// fractional digits, e.g. 2024-01-02T03:04:05.100Z
const TimeLayout = "2006-01-02T15:04:05.000Z07:00"

// FormatTime renders t in TimeLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// MarshalJSON writes lastUpdated in TimeLayout
func (c Component) MarshalJSON() ([]byte, error) {
	type component Component
	return json.Marshal(struct {
		component
		LastUpdated string `json:"lastUpdated"`
	}{component(c), FormatTime(c.LastUpdated)})
}

// MarshalJSON writes timestamp in TimeLayout
func (p HistoryPoint) MarshalJSON() ([]byte, error) {
	type historyPoint HistoryPoint
	return json.Marshal(struct {
		historyPoint
		Timestamp string `json:"timestamp"`
	}{historyPoint(p), FormatTime(p.Timestamp)})
}

// MarshalJSON writes timestamp in TimeLayout
func (e Event) MarshalJSON() ([]byte, error) {
	type event Event
	return json.Marshal(struct {
		event
		Timestamp string `json:"timestamp"`
	}{event(e), FormatTime(e.Timestamp)})
}
