package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/xichen2020/refcommons/tools/refstress/config"
	"github.com/xichen2020/refcommons/tools/refstress/stress"
	"github.com/xichen2020/refcommons/x/leakcheck"

	xconfig "github.com/m3db/m3/src/x/config"
	"github.com/m3db/m3/src/x/instrument"
	"github.com/pborman/uuid"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("f", "config.yaml", "configuration file")
)

func main() {
	// Parse command line args.
	flag.Parse()

	if len(*configFile) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	var cfg config.Configuration
	if err := xconfig.LoadFile(&cfg, *configFile, xconfig.Options{}); err != nil {
		fmt.Printf("error loading config file %s: %v\n", *configFile, err)
		os.Exit(1)
	}

	// Create logger and metrics scope.
	logger, err := cfg.Logging.BuildLogger()
	if err != nil {
		fmt.Printf("error creating logger: %v\n", err)
		os.Exit(1)
	}
	runID := uuid.NewUUID().String()
	logger = logger.With(zap.String("run", runID))
	scope, closer, err := cfg.Metrics.NewRootScope()
	if err != nil {
		logger.Fatal("error creating metrics root scope", zap.Error(err))
	}
	defer closer.Close()

	iOpts := instrument.NewOptions().
		SetLogger(logger).
		SetMetricsScope(scope.Tagged(map[string]string{"run": runID}))
	opts := stress.Options{InstrumentOptions: iOpts}
	if cfg.LeakCheck {
		opts.Leaks = leakcheck.NewRegistry(leakcheck.NewOptions().SetInstrumentOptions(
			iOpts.SetMetricsScope(iOpts.MetricsScope().SubScope("leakcheck")),
		))
	}

	failed := false
	logger.Info("running holder scenario...")
	res, err := stress.RunHolder(cfg.Holder.Workers, cfg.Holder.Iterations, subOptions(opts, "holder"))
	if err != nil {
		logger.Error("holder scenario failed", zap.Error(err))
		failed = true
	} else {
		logger.Info("holder scenario done",
			zap.Int64("gets", res.Gets),
			zap.Int64("sets", res.Sets),
			zap.Int64("destroyed", res.Destroyed),
		)
	}

	logger.Info("running drain scenario...")
	waited, err := stress.RunDrain(cfg.Drain.HoldFor, cfg.Drain.Tolerance, subOptions(opts, "drain"))
	if err != nil {
		logger.Error("drain scenario failed", zap.Duration("waited", waited), zap.Error(err))
		failed = true
	} else {
		logger.Info("drain scenario done", zap.Duration("waited", waited))
	}

	logger.Info("running pool scenario...")
	poolRes, err := stress.RunPool(
		cfg.Pool.Workers,
		cfg.Pool.Iterations,
		cfg.Pool.Arrays,
		subOptions(opts, "pool"),
	)
	if err != nil {
		logger.Error("pool scenario failed", zap.Error(err))
		failed = true
	} else {
		logger.Info("pool scenario done",
			zap.Int64("published", poolRes.Published),
			zap.Int64("reads", poolRes.Reads),
		)
	}

	if opts.Leaks != nil {
		if n := opts.Leaks.Report(); n > 0 {
			failed = true
		}
	}
	if failed {
		closer.Close()
		os.Exit(1)
	}
	logger.Info("all scenarios passed")
}

func subOptions(opts stress.Options, name string) stress.Options {
	iOpts := opts.InstrumentOptions
	opts.InstrumentOptions = iOpts.SetMetricsScope(iOpts.MetricsScope().SubScope(name))
	return opts
}
