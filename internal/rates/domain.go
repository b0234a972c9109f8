package rates

import (
	"time"
)

// RateKind names one of the tracked exchange rates.
type RateKind string

const (
	RateAverage     RateKind = "average"
	RateCentralBank RateKind = "central_bank"
	RateParallel    RateKind = "parallel"
)

// AllKinds lists every tracked rate, in display order.
var AllKinds = []RateKind{RateAverage, RateCentralBank, RateParallel}

// HistoryCap bounds the stored history per rate kind, newest kept.
const HistoryCap = 50

// Rate is the current value of one rate kind. A value of 0 means the rate
// has not been set yet.
type Rate struct {
	Kind      RateKind
	Value     float64
	UpdatedAt time.Time
}

// HistoryEntry is one past value of a rate kind.
type HistoryEntry struct {
	Kind       RateKind
	Value      float64
	RecordedAt time.Time
}

// Snapshot is the full rate configuration served to clients and cached.
type Snapshot struct {
	Rates   map[RateKind]Rate `json:"rates"`
	History []HistoryEntry    `json:"history"`
}

// Convert is a display helper: it turns a dollar amount into local currency
// at the given rate. It never feeds back into stored totals.
func Convert(amount, rate float64) float64 {
	if rate <= 0 {
		return 0
	}
	return amount * rate
}
