// Package stress exercises the reference counting primitives under
// concurrent load and reports violations of their guarantees as errors.
package stress

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/xichen2020/refcommons/drain"
	"github.com/xichen2020/refcommons/refcnt"
	"github.com/xichen2020/refcommons/refptr"
	"github.com/xichen2020/refcommons/x/leakcheck"
	"github.com/xichen2020/refcommons/x/pool"

	"github.com/m3db/m3/src/x/instrument"
	"go.uber.org/atomic"
	"go.uber.org/zap"
)

const (
	snapshotEvery = 64
	arrayLimit    = 16 * snapshotEvery
)

var (
	errUseAfterRelease = errors.New("object used after release")
	errDrainedEarly    = errors.New("drain completed before the other holder released")
)

// Options configure the scenarios.
type Options struct {
	// InstrumentOptions provide the logger and metrics scope.
	InstrumentOptions instrument.Options

	// Leaks tracks created objects if set.
	Leaks *leakcheck.Registry
}

// liveConfig stands in for a process wide configuration that is swapped
// while readers use it.
type liveConfig struct {
	*refcnt.AtomicRefCounter

	version  int64
	released atomic.Bool
}

// HolderResult summarizes a holder run.
type HolderResult struct {
	Gets      int64
	Sets      int64
	Created   int64
	Destroyed int64
}

// RunHolder has workers concurrently read and replace the configuration held
// in a shared refptr.Holder. Every fourth operation of a worker is a
// replacement.
func RunHolder(workers, iterations int, opts Options) (HolderResult, error) {
	var (
		gets      atomic.Int64
		sets      atomic.Int64
		created   atomic.Int64
		destroyed atomic.Int64
		errs      = newErrorCollector()
		wg        sync.WaitGroup
		holder    refptr.Holder[*liveConfig, refptr.NotNull]
	)

	newConfig := func() *liveConfig {
		c := &liveConfig{version: created.Inc()}
		c.AtomicRefCounter = refcnt.NewAtomicRefCounter(func() {
			if c.released.Swap(true) {
				errs.Add(fmt.Errorf("config %d released twice", c.version))
			}
			destroyed.Inc()
		})
		if opts.Leaks != nil {
			c.EnableLeakCheck(opts.Leaks, "liveConfig")
		}
		return c
	}
	set := func() error {
		p, err := refptr.New[refptr.NotNull](newConfig())
		if err != nil {
			return err
		}
		defer p.Release()
		sets.Inc()
		return holder.Set(p)
	}
	if err := set(); err != nil {
		return HolderResult{}, err
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			for j := 0; j < iterations && !errs.Failed(); j++ {
				if (j+worker)%4 == 0 {
					errs.Add(set())
					continue
				}
				p, err := holder.Get()
				if err != nil {
					errs.Add(err)
					continue
				}
				gets.Inc()
				if c := p.Raw(); c.released.Load() {
					errs.Add(fmt.Errorf("%w: config %d", errUseAfterRelease, c.version))
				}
				p.Release()
			}
		}(i)
	}
	wg.Wait()
	holder.Close()

	res := HolderResult{
		Gets:      gets.Load(),
		Sets:      sets.Load(),
		Created:   created.Load(),
		Destroyed: destroyed.Load(),
	}
	if err := errs.FinalError(); err != nil {
		return res, err
	}
	if res.Created != res.Destroyed {
		return res, fmt.Errorf("created %d configs but destroyed %d", res.Created, res.Destroyed)
	}
	return res, nil
}

type drainedService struct {
	*drain.Last

	destroyed atomic.Int32
}

// RunDrain hands the creator's reference of a drainable service to another
// goroutine that keeps it for holdFor, drains the service and returns how
// long the drain waited.
func RunDrain(holdFor, tolerance time.Duration, opts Options) (time.Duration, error) {
	svc := &drainedService{}
	svc.Last = drain.NewLast(
		func() { svc.destroyed.Inc() },
		drain.NewOptions().SetInstrumentOptions(opts.InstrumentOptions),
	)
	if opts.Leaks != nil {
		svc.EnableLeakCheck(opts.Leaks, "drainedService")
	}

	svc.IncRef()
	released := atomic.NewBool(false)
	go func() {
		time.Sleep(holdFor)
		released.Store(true)
		svc.DecRef()
	}()

	start := time.Now()
	lp, err := drain.NewLastPtr(svc)
	if err != nil {
		return 0, err
	}
	waited := time.Since(start)
	defer lp.Close()

	if !released.Load() {
		return waited, errDrainedEarly
	}
	if waited > holdFor+tolerance {
		return waited, fmt.Errorf("drain waited %v, expected at most %v", waited, holdFor+tolerance)
	}
	if n := svc.destroyed.Load(); n != 0 {
		return waited, fmt.Errorf("service destroyed %d times before the drain completed", n)
	}
	return waited, nil
}

// PoolResult summarizes a pool run.
type PoolResult struct {
	Published int64
	Reads     int64
}

// RunPool has one writer append to a pooled array and publish a snapshot
// through a refptr.Holder every snapshotEvery values, while workers read the
// latest snapshot into pooled scratch arrays. The writer restarts from an
// empty array once it holds arrayLimit values, so outgrown and closed
// storage keeps cycling through the pool while readers still hold it.
func RunPool(
	workers, iterations int,
	cfg pool.BucketizedValuePoolConfiguration,
	opts Options,
) (PoolResult, error) {
	p, err := pool.NewArrayPoolFromConfig[int64](cfg, opts.InstrumentOptions)
	if err != nil {
		return PoolResult{}, err
	}

	var (
		latest    refptr.Holder[*pool.Snapshot[int64], refptr.Checked]
		done      atomic.Bool
		published atomic.Int64
		reads     atomic.Int64
		errs      = newErrorCollector()
		wg        sync.WaitGroup
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			scratch := p.Get(snapshotEvery)
			for !done.Load() && !errs.Failed() {
				ptr, err := latest.Get()
				if err != nil {
					errs.Add(err)
					return
				}
				if ptr.IsNil() {
					runtime.Gosched()
					continue
				}
				s, err := ptr.Get()
				if err != nil {
					errs.Add(err)
					ptr.Release()
					return
				}
				scratch = scratch[:0]
				for _, v := range s.Values() {
					scratch = pool.AppendValue(scratch, v, p)
				}
				ptr.Release()
				errs.Add(checkSnapshot(scratch))
				reads.Inc()
			}
			p.Put(scratch[:0], cap(scratch))
		}()
	}

	newArray := func() *pool.Array[int64] {
		arr := pool.NewArray[int64](p.Get(snapshotEvery), p, nil)
		if opts.Leaks != nil {
			arr.TrackLeaks(opts.Leaks, "pooledArray")
		}
		return arr
	}
	arr := newArray()
	for j := 0; j < iterations && !errs.Failed(); j++ {
		if arr.Len() == arrayLimit {
			arr.Close()
			arr = newArray()
		}
		arr.Append(int64(arr.Len()))
		if arr.Len()%snapshotEvery != 0 {
			continue
		}
		ptr, err := refptr.New[refptr.Checked](arr.Snapshot())
		if err == nil {
			err = latest.Set(ptr)
		}
		ptr.Release()
		errs.Add(err)
		published.Inc()
	}
	done.Store(true)
	wg.Wait()
	latest.Close()
	arr.Close()

	res := PoolResult{Published: published.Load(), Reads: reads.Load()}
	if err := errs.FinalError(); err != nil {
		return res, err
	}
	opts.InstrumentOptions.Logger().Debug("pool scenario done",
		zap.Int("workers", workers),
		zap.Int64("published", res.Published),
		zap.Int64("reads", res.Reads),
	)
	return res, nil
}

// checkSnapshot verifies a snapshot holds 0, 1, 2, ... and was published at
// a snapshotEvery boundary.
func checkSnapshot(vals []int64) error {
	if len(vals) == 0 || len(vals)%snapshotEvery != 0 {
		return fmt.Errorf("snapshot has %d values, expected a multiple of %d", len(vals), snapshotEvery)
	}
	for i, v := range vals {
		if v != int64(i) {
			return fmt.Errorf("snapshot value %d is %d, expected %d", i, v, i)
		}
	}
	return nil
}
