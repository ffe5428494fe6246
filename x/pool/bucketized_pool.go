package pool

import (
	"sort"
	"strconv"

	"github.com/uber-go/tally"
)

// Bucket describes the values of one capacity held by a BucketizedPool.
type Bucket struct {
	Capacity int
	Count    int

	// Options override the pool wide options for this bucket if set.
	Options *Options
}

// BucketizedPool holds values of type T in buckets of increasing capacity.
type BucketizedPool[T any] struct {
	// capacities is sorted ascending, pools[i] holds values of capacities[i].
	capacities []int
	pools      []*ValuePool[T]
	alloc      func(capacity int) T
	maxAlloc   tally.Counter
}

// NewBucketizedPool creates a pool with one ValuePool per bucket. Each bucket
// reports its metrics tagged with its capacity.
func NewBucketizedPool[T any](
	buckets []Bucket,
	alloc func(capacity int) T,
	opts *Options,
) *BucketizedPool[T] {
	if opts == nil {
		opts = NewOptions()
	}
	sorted := append([]Bucket(nil), buckets...)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Capacity < sorted[j].Capacity
	})

	p := &BucketizedPool[T]{
		capacities: make([]int, 0, len(sorted)),
		pools:      make([]*ValuePool[T], 0, len(sorted)),
		alloc:      alloc,
		maxAlloc:   opts.InstrumentOptions().MetricsScope().Counter("alloc-max"),
	}
	for _, b := range sorted {
		bucketOpts := opts
		if b.Options != nil {
			bucketOpts = b.Options
		}
		iOpts := bucketOpts.InstrumentOptions()
		scope := iOpts.MetricsScope().Tagged(map[string]string{
			"bucket-capacity": strconv.Itoa(b.Capacity),
		})
		bucketOpts = bucketOpts.
			SetSize(b.Count).
			SetInstrumentOptions(iOpts.SetMetricsScope(scope))

		capacity := b.Capacity
		p.capacities = append(p.capacities, capacity)
		p.pools = append(p.pools, NewValuePool(func() T { return alloc(capacity) }, bucketOpts))
	}
	return p
}

// Get returns a value from the smallest bucket holding at least capacity.
// Larger requests are allocated directly.
func (p *BucketizedPool[T]) Get(capacity int) T {
	i := sort.SearchInts(p.capacities, capacity)
	if i == len(p.capacities) {
		p.maxAlloc.Inc(1)
		return p.alloc(capacity)
	}
	return p.pools[i].Get()
}

// Put returns a value of the given capacity to the largest bucket it can
// serve. Values smaller than every bucket or larger than the largest bucket
// are dropped.
func (p *BucketizedPool[T]) Put(v T, capacity int) {
	n := len(p.capacities)
	if n == 0 || capacity > p.capacities[n-1] {
		return
	}
	if i := sort.SearchInts(p.capacities, capacity+1) - 1; i >= 0 {
		p.pools[i].Put(v)
	}
}
