package statsd

import (
	"sync"
	"time"
)

// Point is one metric captured by a Recorder.
type Point struct {
	Name     string
	Value    int64
	Duration time.Duration
	Tags     map[string]string
}

// Recorder is an in-memory Sink used by tests to assert on emitted metrics.
type Recorder struct {
	mu     sync.Mutex
	points []Point
}

var _ Sink = (*Recorder)(nil)

// Count records a counter.
func (r *Recorder) Count(name string, value int64, tags map[string]string) {
	r.add(Point{Name: name, Value: value, Tags: tags})
}

// Timing records a timing.
func (r *Recorder) Timing(name string, value time.Duration, tags map[string]string) {
	r.add(Point{Name: name, Duration: value, Tags: tags})
}

func (r *Recorder) add(p Point) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.points = append(r.points, p)
}

// Points returns the captured metrics named name, in emission order.
func (r *Recorder) Points(name string) []Point {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Point
	for _, p := range r.points {
		if p.Name == name {
			out = append(out, p)
		}
	}
	return out
}
