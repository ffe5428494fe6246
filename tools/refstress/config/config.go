package config

import (
	"time"

	"github.com/xichen2020/refcommons/x/pool"

	"github.com/m3db/m3/src/x/instrument"
	xlog "github.com/m3db/m3/src/x/log"
)

// Configuration holds all refstress config options.
type Configuration struct {
	// Logging configuration.
	Logging xlog.Configuration `yaml:"logging"`

	// Metrics configuration.
	Metrics instrument.MetricsConfiguration `yaml:"metrics"`

	// Holder stress configuration.
	Holder HolderConfiguration `yaml:"holder"`

	// Drain configuration.
	Drain DrainConfiguration `yaml:"drain"`

	// Pool stress configuration.
	Pool PoolConfiguration `yaml:"pool"`

	// LeakCheck tracks every object created by the scenarios and reports
	// the ones still alive at exit.
	LeakCheck bool `yaml:"leakCheck"`
}

// HolderConfiguration configures the concurrent holder scenario.
type HolderConfiguration struct {
	Workers    int `yaml:"workers" validate:"min=1"`
	Iterations int `yaml:"iterations" validate:"min=1"`
}

// DrainConfiguration configures the drain scenario.
type DrainConfiguration struct {
	// HoldFor is how long the other holder keeps its reference.
	HoldFor time.Duration `yaml:"holdFor"`

	// Tolerance is how much longer than HoldFor the drain may take.
	Tolerance time.Duration `yaml:"tolerance"`
}

// PoolConfiguration configures the pooled array scenario.
type PoolConfiguration struct {
	Workers    int                                   `yaml:"workers" validate:"min=1"`
	Iterations int                                   `yaml:"iterations" validate:"min=1"`
	Arrays     pool.BucketizedValuePoolConfiguration `yaml:"arrays"`
}
