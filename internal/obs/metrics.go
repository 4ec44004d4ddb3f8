package obs

// Label is a key/value pair attached to a measurement.
type Label struct {
	Key   string
	Value string
}

// Meter receives counters and histograms from the engine and the
// pool. Implementations may no-op or bridge to a metrics system.
type Meter interface {
	Counter(name string, value float64, labels ...Label)
	Histogram(name string, value float64, labels ...Label)
}

// NopMeter discards all measurements.
type NopMeter struct{}

func (NopMeter) Counter(string, float64, ...Label)   {}
func (NopMeter) Histogram(string, float64, ...Label) {}
