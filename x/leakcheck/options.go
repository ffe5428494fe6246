package leakcheck

import "github.com/m3db/m3/src/x/instrument"

// Options provide a set of options for the leak registry.
type Options struct {
	instrumentOpts instrument.Options
}

// NewOptions creates a new set of options.
func NewOptions() *Options {
	return &Options{
		instrumentOpts: instrument.NewOptions(),
	}
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
