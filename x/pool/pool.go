// Package pool provides bounded object pools and reference counted arrays
// whose backing storage is returned to a pool once the last reference is
// released.
package pool

import (
	"math"

	"github.com/m3db/m3/src/x/instrument"
	"github.com/uber-go/tally"
	"go.uber.org/atomic"
)

const defaultSize = 4096

// Options configure a value pool.
type Options struct {
	instrumentOpts      instrument.Options
	size                int
	refillLowWatermark  float64
	refillHighWatermark float64
}

// NewOptions creates a new set of pool options.
func NewOptions() *Options {
	return &Options{
		instrumentOpts: instrument.NewOptions(),
		size:           defaultSize,
	}
}

// SetInstrumentOptions sets the instrument options.
func (o *Options) SetInstrumentOptions(v instrument.Options) *Options {
	opts := *o
	opts.instrumentOpts = v
	return &opts
}

// InstrumentOptions returns the instrument options.
func (o *Options) InstrumentOptions() instrument.Options { return o.instrumentOpts }

// SetSize sets the number of values allocated up front.
func (o *Options) SetSize(v int) *Options {
	opts := *o
	opts.size = v
	return &opts
}

// Size returns the number of values allocated up front.
func (o *Options) Size() int { return o.size }

// SetRefillLowWatermark sets the free fraction below which the pool refills
// itself in the background. Zero disables refills.
func (o *Options) SetRefillLowWatermark(v float64) *Options {
	opts := *o
	opts.refillLowWatermark = v
	return &opts
}

// RefillLowWatermark returns the refill low watermark.
func (o *Options) RefillLowWatermark() float64 { return o.refillLowWatermark }

// SetRefillHighWatermark sets the free fraction at which a refill stops.
func (o *Options) SetRefillHighWatermark(v float64) *Options {
	opts := *o
	opts.refillHighWatermark = v
	return &opts
}

// RefillHighWatermark returns the refill high watermark.
func (o *Options) RefillHighWatermark() float64 { return o.refillHighWatermark }

type valuePoolMetrics struct {
	free       tally.Gauge
	getOnEmpty tally.Counter
	putOnFull  tally.Counter
	refills    tally.Counter
}

func newValuePoolMetrics(scope tally.Scope, size int) valuePoolMetrics {
	scope.Gauge("total").Update(float64(size))
	return valuePoolMetrics{
		free:       scope.Gauge("free"),
		getOnEmpty: scope.Counter("get-on-empty"),
		putOnFull:  scope.Counter("put-on-full"),
		refills:    scope.Counter("refills"),
	}
}

// ValuePool is a bounded pool of values of type T. Values missing from an
// empty pool are allocated on demand and values returned to a full pool are
// dropped.
type ValuePool[T any] struct {
	free      chan T
	alloc     func() T
	low       int
	high      int
	refilling atomic.Bool
	metrics   valuePoolMetrics
}

// NewValuePool creates a pool filled with opts.Size() values from alloc.
func NewValuePool[T any](alloc func() T, opts *Options) *ValuePool[T] {
	if opts == nil {
		opts = NewOptions()
	}
	size := opts.Size()
	p := &ValuePool[T]{
		free:    make(chan T, size),
		alloc:   alloc,
		low:     watermark(opts.RefillLowWatermark(), size),
		high:    watermark(opts.RefillHighWatermark(), size),
		metrics: newValuePoolMetrics(opts.InstrumentOptions().MetricsScope(), size),
	}
	for i := 0; i < size; i++ {
		p.free <- alloc()
	}
	p.metrics.free.Update(float64(size))
	return p
}

func watermark(frac float64, size int) int {
	return int(math.Ceil(frac * float64(size)))
}

// Get takes a value from the pool, allocating one if the pool is empty.
func (p *ValuePool[T]) Get() T {
	select {
	case v := <-p.free:
		n := len(p.free)
		p.metrics.free.Update(float64(n))
		if n <= p.low {
			p.refill()
		}
		return v
	default:
	}
	p.metrics.getOnEmpty.Inc(1)
	if p.low > 0 {
		p.refill()
	}
	return p.alloc()
}

// Put returns a value to the pool.
func (p *ValuePool[T]) Put(v T) {
	select {
	case p.free <- v:
	default:
		p.metrics.putOnFull.Inc(1)
	}
	p.metrics.free.Update(float64(len(p.free)))
}

// refill tops the pool up to the high watermark in the background. At most
// one refill runs at a time.
func (p *ValuePool[T]) refill() {
	if p.low == 0 || !p.refilling.CompareAndSwap(false, true) {
		return
	}
	p.metrics.refills.Inc(1)
	go func() {
		defer p.refilling.Store(false)
		for len(p.free) < p.high {
			select {
			case p.free <- p.alloc():
			default:
				return
			}
		}
	}()
}
