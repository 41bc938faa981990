package models

import "strings"

// EventRequirement holds the per-event review settings
type EventRequirement struct {
	EventID   string `bson:"eventId" json:"eventId"`
	EventType string `bson:"eventType" json:"eventType"`
	// PlagiarismThreshold is a percentage; nil means not configured
	PlagiarismThreshold *float64 `bson:"plagiarismThreshold,omitempty" json:"plagiarismThreshold,omitempty"`
}

// defaultPlagiarismThresholds are the percentages seeded per event type
var defaultPlagiarismThresholds = map[string]float64{
	"research":    15.0,
	"conference":  20.0,
	"hackathon":   30.0,
	"competition": 25.0,
	"project":     25.0,
	"workshop":    35.0,
	"seminar":     25.0,
	"other":       25.0,
}

// DefaultThresholdForEventType returns the seeded threshold percent for an
// event type, 25 for unknown types.
func DefaultThresholdForEventType(eventType string) float64 {
	if threshold, ok := defaultPlagiarismThresholds[strings.ToLower(strings.TrimSpace(eventType))]; ok {
		return threshold
	}
	return 25.0
}
