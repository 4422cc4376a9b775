package engine

// Metrics exposes cache-level observability hooks.
// NoopMetrics is used when no backend is configured.
type Metrics interface {
	Hit()
	Miss()
	Evict()
	Size(entries int)
}

// NoopMetrics is a Metrics implementation that does nothing.
type NoopMetrics struct{}

func (NoopMetrics) Hit()              {}
func (NoopMetrics) Miss()             {}
func (NoopMetrics) Evict()            {}
func (NoopMetrics) Size(entries int) {}

var _ Metrics = NoopMetrics{}
