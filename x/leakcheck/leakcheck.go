// Package leakcheck tracks reference counted objects that are still alive so
// that leaked references can be reported at shutdown.
package leakcheck

import (
	"fmt"
	"sync"

	"github.com/uber-go/tally"
	"go.uber.org/zap"
)

// Tracked is an object whose reference count can be inspected.
type Tracked interface {
	// RefCount returns the current reference count.
	RefCount() int64
}

type registryMetrics struct {
	live   tally.Gauge
	leaked tally.Counter
}

func newRegistryMetrics(scope tally.Scope) registryMetrics {
	return registryMetrics{
		live:   scope.Gauge("live"),
		leaked: scope.Counter("leaked"),
	}
}

// Registry records live objects. It is safe for concurrent use.
type Registry struct {
	mu      sync.Mutex
	live    map[Tracked]string
	logger  *zap.Logger
	metrics registryMetrics
}

// NewRegistry creates a new registry.
func NewRegistry(opts *Options) *Registry {
	if opts == nil {
		opts = NewOptions()
	}
	iOpts := opts.InstrumentOptions()
	return &Registry{
		live:    make(map[Tracked]string),
		logger:  iOpts.Logger(),
		metrics: newRegistryMetrics(iOpts.MetricsScope()),
	}
}

// Register starts tracking obj on behalf of owner. Registering the same
// object twice replaces its owner.
func (r *Registry) Register(obj Tracked, owner string) {
	r.mu.Lock()
	r.live[obj] = owner
	n := len(r.live)
	r.mu.Unlock()
	r.metrics.live.Update(float64(n))
}

// Unregister stops tracking obj. Unknown objects are ignored.
func (r *Registry) Unregister(obj Tracked) {
	r.mu.Lock()
	delete(r.live, obj)
	n := len(r.live)
	r.mu.Unlock()
	r.metrics.live.Update(float64(n))
}

// Owner returns the owner obj was registered with.
func (r *Registry) Owner(obj Tracked) (string, bool) {
	r.mu.Lock()
	owner, ok := r.live[obj]
	r.mu.Unlock()
	return owner, ok
}

// NumLive returns the number of tracked objects.
func (r *Registry) NumLive() int {
	r.mu.Lock()
	n := len(r.live)
	r.mu.Unlock()
	return n
}

// Report logs every object that is still tracked and returns how many there
// are. Tracked objects are not unregistered by reporting.
func (r *Registry) Report() int {
	r.mu.Lock()
	leaks := make(map[Tracked]string, len(r.live))
	for obj, owner := range r.live {
		leaks[obj] = owner
	}
	r.mu.Unlock()

	for obj, owner := range leaks {
		r.logger.Warn("reference leak detected",
			zap.String("owner", owner),
			zap.String("object", fmt.Sprintf("%p", obj)),
			zap.Int64("refs", obj.RefCount()),
		)
	}
	r.metrics.leaked.Inc(int64(len(leaks)))
	return len(leaks)
}
