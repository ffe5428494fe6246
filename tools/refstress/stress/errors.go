package stress

import (
	"sync"

	xerrors "github.com/m3db/m3/src/x/errors"
	"go.uber.org/atomic"
)

// errorCollector gathers the errors raised by concurrent workers.
type errorCollector struct {
	sync.Mutex

	failed   atomic.Bool
	multiErr xerrors.MultiError
}

func newErrorCollector() *errorCollector {
	return &errorCollector{multiErr: xerrors.NewMultiError()}
}

func (c *errorCollector) Add(err error) {
	if err == nil {
		return
	}
	c.Lock()
	c.multiErr = c.multiErr.Add(err)
	c.Unlock()
	c.failed.Store(true)
}

// Failed returns true once any error was added.
func (c *errorCollector) Failed() bool { return c.failed.Load() }

func (c *errorCollector) FinalError() error {
	c.Lock()
	defer c.Unlock()
	return c.multiErr.FinalError()
}
