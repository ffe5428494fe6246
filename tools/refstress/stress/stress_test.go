package stress

import (
	"testing"
	"time"

	"github.com/xichen2020/refcommons/x/leakcheck"
	"github.com/xichen2020/refcommons/x/pool"

	"github.com/m3db/m3/src/x/instrument"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
)

func testOptions() (Options, tally.TestScope) {
	scope := tally.NewTestScope("", nil)
	iOpts := instrument.NewOptions().SetMetricsScope(scope)
	return Options{
		InstrumentOptions: iOpts,
		Leaks:             leakcheck.NewRegistry(leakcheck.NewOptions().SetInstrumentOptions(iOpts)),
	}, scope
}

func TestRunHolder(t *testing.T) {
	opts, _ := testOptions()
	res, err := RunHolder(4, 1000, opts)
	require.NoError(t, err)
	require.Equal(t, int64(4*1000), res.Gets+res.Sets-1)
	require.Equal(t, res.Sets, res.Created)
	require.Equal(t, res.Created, res.Destroyed)
	require.Equal(t, 0, opts.Leaks.NumLive())
}

func TestRunDrain(t *testing.T) {
	opts, scope := testOptions()
	holdFor := 100 * time.Millisecond
	waited, err := RunDrain(holdFor, time.Second, opts)
	require.NoError(t, err)
	require.True(t, waited >= holdFor)
	require.Equal(t, 0, opts.Leaks.NumLive())

	counters := scope.Snapshot().Counters()
	var drains int64
	for _, c := range counters {
		if c.Name() == "drains" {
			drains += c.Value()
		}
	}
	require.Equal(t, int64(1), drains)
}

func TestRunPool(t *testing.T) {
	opts, _ := testOptions()
	cfg := pool.BucketizedValuePoolConfiguration{
		Buckets: []pool.ValuePoolBucketConfiguration{
			{Capacity: 64, Count: 8},
			{Capacity: 256, Count: 8},
			{Capacity: 1024, Count: 4},
		},
	}
	res, err := RunPool(4, 4*arrayLimit, cfg, opts)
	require.NoError(t, err)
	require.Equal(t, int64(4*arrayLimit/snapshotEvery), res.Published)
	require.Equal(t, 0, opts.Leaks.NumLive())
}

func TestRunPoolInvalidConfig(t *testing.T) {
	opts, _ := testOptions()
	_, err := RunPool(1, 10, pool.BucketizedValuePoolConfiguration{}, opts)
	require.Error(t, err)
}

func TestCheckSnapshot(t *testing.T) {
	vals := make([]int64, 0, 2*snapshotEvery)
	for i := 0; i < 2*snapshotEvery; i++ {
		vals = append(vals, int64(i))
	}
	require.NoError(t, checkSnapshot(vals))
	require.NoError(t, checkSnapshot(vals[:snapshotEvery]))
	require.Error(t, checkSnapshot(vals[:10]))
	require.Error(t, checkSnapshot(nil))

	vals[3] = 7
	require.Error(t, checkSnapshot(vals))
}
