package pool

import (
	"errors"
	"fmt"

	"github.com/m3db/m3/src/x/instrument"
)

var errNoBuckets = errors.New("no pool buckets configured")

// WatermarkConfiguration configures when a pool refills itself.
type WatermarkConfiguration struct {
	// Refilling starts once the free fraction drops below Low. Zero disables refills.
	Low float64 `yaml:"low" validate:"min=0.0,max=1.0"`

	// Refilling stops once the free fraction reaches High.
	High float64 `yaml:"high" validate:"min=0.0,max=1.0"`
}

func (c WatermarkConfiguration) apply(opts *Options) *Options {
	return opts.
		SetRefillLowWatermark(c.Low).
		SetRefillHighWatermark(c.High)
}

// ValuePoolConfiguration configures a single value pool.
type ValuePoolConfiguration struct {
	Size      *int                   `yaml:"size"`
	Watermark WatermarkConfiguration `yaml:"watermark"`
}

// NewPoolOptions converts the configuration into pool options.
func (c *ValuePoolConfiguration) NewPoolOptions(iOpts instrument.Options) *Options {
	opts := c.Watermark.apply(NewOptions().SetInstrumentOptions(iOpts))
	if c.Size != nil {
		opts = opts.SetSize(*c.Size)
	}
	return opts
}

// ValuePoolBucketConfiguration configures one capacity bucket.
type ValuePoolBucketConfiguration struct {
	// Count is the number of pooled values with this capacity.
	Count int `yaml:"count" validate:"min=1"`

	// Capacity of every value in the bucket.
	Capacity int `yaml:"capacity" validate:"min=1"`
}

// BucketizedValuePoolConfiguration configures a pool bucketed by capacity.
type BucketizedValuePoolConfiguration struct {
	Buckets   []ValuePoolBucketConfiguration `yaml:"buckets"`
	Watermark WatermarkConfiguration         `yaml:"watermark"`
}

// Validate checks the buckets are usable.
func (c *BucketizedValuePoolConfiguration) Validate() error {
	if len(c.Buckets) == 0 {
		return errNoBuckets
	}
	for i, b := range c.Buckets {
		if b.Count <= 0 || b.Capacity <= 0 {
			return fmt.Errorf("invalid pool bucket %d: count=%d capacity=%d", i, b.Count, b.Capacity)
		}
	}
	return nil
}

// NewPoolOptions converts the configuration into options shared by every bucket.
func (c *BucketizedValuePoolConfiguration) NewPoolOptions(iOpts instrument.Options) *Options {
	return c.Watermark.apply(NewOptions().SetInstrumentOptions(iOpts))
}

// NewBuckets returns the configured buckets.
func (c *BucketizedValuePoolConfiguration) NewBuckets() []Bucket {
	buckets := make([]Bucket, 0, len(c.Buckets))
	for _, b := range c.Buckets {
		buckets = append(buckets, Bucket{Capacity: b.Capacity, Count: b.Count})
	}
	return buckets
}

// NewArrayPoolFromConfig validates cfg and creates an initialized array pool.
func NewArrayPoolFromConfig[E any](
	cfg BucketizedValuePoolConfiguration,
	iOpts instrument.Options,
) (*BucketizedPool[[]E], error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return NewArrayPool[E](cfg.NewBuckets(), cfg.NewPoolOptions(iOpts)), nil
}
