// Command mavmon simulates one day of trains sharing a single-lane
// intersection.
//
//	mavmon [flags] <schedule-file> [tick-rate]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"

	"github.com/anggasct/mavmon/pkg/builders"
	"github.com/anggasct/mavmon/pkg/config"
	"github.com/anggasct/mavmon/pkg/observers"
	"github.com/anggasct/mavmon/pkg/schedule"
	"github.com/anggasct/mavmon/pkg/sim"
	"github.com/anggasct/mavmon/pkg/utils"
	"github.com/anggasct/mavmon/visualization"
)

func main() {
	c := &cli{stdout: os.Stdout, stderr: os.Stderr, exit: os.Exit}
	os.Exit(c.run(os.Args[1:]))
}

type cli struct {
	stdout io.Writer
	stderr io.Writer
	exit   func(int)
	pacer  sim.Pacer
}

func (c *cli) fail(format string, args ...interface{}) int {
	fmt.Fprintf(c.stderr, "ERROR: "+format+"\n", args...)
	return 1
}

func (c *cli) run(args []string) int {
	fs := flag.NewFlagSet("mavmon", flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.Usage = func() {
		fmt.Fprintln(c.stderr, "usage: mavmon [flags] <schedule-file> [tick-rate]")
		fs.PrintDefaults()
	}

	configPath := fs.String("config", "", "YAML configuration file")
	summary := fs.Bool("summary", false, "print per-direction statistics to stderr after the run")
	validate := fs.Bool("validate", false, "check mutual exclusion and fairness during the run")
	lifecycleDot := fs.Bool("lifecycle-dot", false, "print the train lifecycle as Graphviz DOT and exit")
	logLevel := fs.String("log-level", "", "log level: debug, info, warn or error")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}

	if *lifecycleDot {
		return c.printLifecycle()
	}

	pos := fs.Args()
	if len(pos) < 1 {
		return c.fail("%s", utils.NewUsageError("You must provide a train schedule data file."))
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			return c.fail("%v", err)
		}
		cfg = loaded
	}

	if len(pos) > 1 {
		rate, err := strconv.Atoi(pos[1])
		if err != nil || rate <= 0 {
			return c.fail("%s", utils.NewUsageError("tick rate must be positive."))
		}
		cfg.TickRate = rate
	}
	if *summary {
		cfg.Summary = true
	}
	if *validate {
		cfg.CheckInvariants = true
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if err := cfg.Validate(); err != nil {
		return c.fail("%v", err)
	}

	logger, err := cfg.NewLogger(c.stderr)
	if err != nil {
		return c.fail("%v", err)
	}

	sched, err := schedule.Load(pos[0])
	if err != nil {
		return c.fail("%v", err)
	}
	logger.Debug("schedule loaded", "path", pos[0], "events", sched.Len())

	opts := []sim.Option{
		sim.WithLogger(logger),
		sim.WithObserver(observers.NewConsoleObserver(c.stdout)),
		sim.WithObserver(observers.NewDefaultLoggingObserver(logger)),
	}
	if c.pacer != nil {
		opts = append(opts, sim.WithPacer(c.pacer))
	}

	var metrics *observers.MetricsObserver
	if cfg.Summary {
		metrics = observers.NewMetricsObserver()
		opts = append(opts, sim.WithObserver(metrics))
	}
	var validation *observers.ValidationObserver
	if cfg.CheckInvariants {
		validation = observers.NewValidationObserver(cfg.StarvationThreshold)
		opts = append(opts, sim.WithObserver(validation))
	}
	if cfg.FaultMode == config.FaultAbort {
		opts = append(opts, sim.WithFaultHandler(c.abort))
	}

	driver, err := sim.NewDriver(sched, cfg, opts...)
	if err != nil {
		return c.fail("%v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runErr := driver.Run(ctx)

	if metrics != nil {
		if err := metrics.WriteSummary(c.stderr); err != nil {
			logger.Warn("cannot write summary", "err", err)
		}
	}

	switch {
	case errors.Is(runErr, utils.ErrCollision):
		fmt.Fprintln(c.stderr, runErr)
		return 1
	case runErr != nil:
		return c.fail("%v", runErr)
	}

	if validation != nil && validation.HasViolations() {
		for _, v := range validation.GetViolations() {
			fmt.Fprintf(c.stderr, "VIOLATION: %s\n", v)
		}
		return 1
	}
	return 0
}

// abort ends the process on the first fault without waiting for trains in
// flight
func (c *cli) abort(err error) {
	if errors.Is(err, utils.ErrCollision) {
		fmt.Fprintln(c.stderr, err)
	} else {
		fmt.Fprintf(c.stderr, "ERROR: %v\n", err)
	}
	c.exit(1)
}

func (c *cli) printLifecycle() int {
	sm, err := builders.NewTrainLifecycle("train")
	if err != nil {
		return c.fail("%v", err)
	}
	dot, err := visualization.NewDOTGenerator(sm).Generate()
	if err != nil {
		return c.fail("%v", err)
	}
	fmt.Fprint(c.stdout, dot)
	return 0
}
