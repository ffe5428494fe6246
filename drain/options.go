package drain

import (
	"github.com/m3db/m3/src/x/clock"
	"github.com/m3db/m3/src/x/instrument"
)

// Options provide a set of options for drainable objects.
type Options struct {
	clockOpts      clock.Options
	instrumentOpts instrument.Options
}

// NewOptions creates a new set of options.
func NewOptions() *Options {
	return &Options{
		clockOpts:      clock.NewOptions(),
		instrumentOpts: instrument.NewOptions(),
	}
}

// SetClockOptions sets the clock options.
func (o *Options) SetClockOptions(v clock.Options) *Options {
	opts := *o
	opts.clockOpts = v
	return &opts
}

// ClockOptions returns the clock options.
func (o *Options) ClockOptions() clock.Options {
	return o.clockOpts
}

// SetInstrumentOptions sets the instrument options.
func (o *Options) SetInstrumentOptions(v instrument.Options) *Options {
	opts := *o
	opts.instrumentOpts = v
	return &opts
}

// InstrumentOptions returns the instrument options.
func (o *Options) InstrumentOptions() instrument.Options {
	return o.instrumentOpts
}
