package leakcheck

import (
	"fmt"
	"sync"
	"testing"

	"github.com/m3db/m3/src/x/instrument"
	"github.com/stretchr/testify/require"
	"github.com/uber-go/tally"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type testTracked struct{ refs int64 }

func (o *testTracked) RefCount() int64 { return o.refs }

func TestRegistryRegisterUnregister(t *testing.T) {
	r := NewRegistry(nil)
	a, b := &testTracked{refs: 1}, &testTracked{refs: 2}

	r.Register(a, "a")
	r.Register(b, "b")
	require.Equal(t, 2, r.NumLive())

	r.Unregister(a)
	require.Equal(t, 1, r.NumLive())

	// Unknown objects are ignored.
	r.Unregister(a)
	require.Equal(t, 1, r.NumLive())
}

func TestRegistryReport(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	scope := tally.NewTestScope("", nil)
	iOpts := instrument.NewOptions().
		SetLogger(zap.New(core)).
		SetMetricsScope(scope)
	r := NewRegistry(NewOptions().SetInstrumentOptions(iOpts))

	require.Equal(t, 0, r.Report())
	require.Equal(t, 0, logs.Len())

	r.Register(&testTracked{refs: 3}, "leaky")
	require.Equal(t, 1, r.Report())

	entries := logs.FilterMessage("reference leak detected").All()
	require.Equal(t, 1, len(entries))
	fields := entries[0].ContextMap()
	require.Equal(t, "leaky", fields["owner"])
	require.Equal(t, int64(3), fields["refs"])

	var leaked int64
	for _, c := range scope.Snapshot().Counters() {
		if c.Name() == "leaked" {
			leaked = c.Value()
		}
	}
	require.Equal(t, int64(1), leaked)

	// Reporting does not unregister.
	require.Equal(t, 1, r.NumLive())
}

func TestRegistryConcurrentUse(t *testing.T) {
	r := NewRegistry(nil)
	objs := make([]*testTracked, 64)
	for i := range objs {
		objs[i] = &testTracked{refs: 1}
	}

	var wg sync.WaitGroup
	for i, obj := range objs {
		wg.Add(1)
		go func(i int, obj *testTracked) {
			defer wg.Done()
			r.Register(obj, fmt.Sprintf("owner-%d", i))
			if i%2 == 0 {
				r.Unregister(obj)
			}
		}(i, obj)
	}
	wg.Wait()
	require.Equal(t, len(objs)/2, r.NumLive())

	owner, ok := r.Owner(objs[1])
	require.True(t, ok)
	require.Equal(t, "owner-1", owner)
	_, ok = r.Owner(objs[0])
	require.False(t, ok)
}
