package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/integrii/flaggy"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"torlife/src/engine"
	"torlife/src/view"
)

type EnvOptions struct {
	interactive bool
	randomData  bool
	template    string
	config      string
	verbose     bool
}

func main() {
	eo, uo := initOptions()
	if eo.verbose {
		uo.Logger = log.New(os.Stderr, "torlife ", log.LstdFlags|log.Lmicroseconds)
	}

	var stateCh chan engine.Status
	if !eo.interactive {
		stateCh = make(chan engine.Status, 10) //the buffered channel to getting the status
	}

	r, err := engine.NewRunner(uo, stateCh)
	if err != nil {
		log.Fatalln(err)
	}
	for _, tmpl := range engine.DefaultTemplates() {
		r.AddTemplate(tmpl)
	}

	if eo.randomData {
		r.SettleWithRandomData()
	} else if eo.template != "" {
		if err := r.SettleTemplate(eo.template); err != nil {
			log.Fatalln(err)
		}
	}

	if eo.interactive {
		v := view.NewConsoleUI()
		r.RegisterViewer(v)
		v.Start()
		r.Close()
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	v := view.NewConsoleOut(os.Stdout, true)
	r.RegisterViewer(v)
	v.Start()
	if err := runHeadless(ctx, r); err != nil {
		log.Println(err)
	}
	r.Close()
}

//runHeadless runs the simulation until it is finished or ctx is done
//the status updates are drained until the engine confirms the stop
func runHeadless(ctx context.Context, e engine.Engine) error {
	g, gctx := errgroup.WithContext(ctx)
	finished := make(chan struct{})
	e.Run()

	g.Go(func() error {
		defer close(finished)
		running := false
		for st := range e.StateCh() {
			switch st.RunningMode {
			case engine.RunningStateRun:
				running = true
			case engine.RunningStateManual:
				//stopped
				if running {
					return nil
				}
			case engine.RunningStateFinished:
				return nil
			}
		}
		return nil
	})

	g.Go(func() error {
		select {
		case <-finished:
			return nil
		case <-gctx.Done():
			e.Stop()
			return errors.Wrap(gctx.Err(), "[runHeadless] interrupted")
		}
	})

	return g.Wait()
}

func initOptions() (eo *EnvOptions, uo *engine.Options) {
	defaults := engine.DefaultOptions()
	flags := defaults
	eo = &EnvOptions{}

	flaggy.SetName("torlife")
	flaggy.SetDescription("Conway's Game of Life on a toroidal grid")
	flaggy.DefaultParser.ShowHelpOnUnexpected = true
	flaggy.Int(&flags.Width, "x", "width", "Width of a simulation field")
	flaggy.Int(&flags.Height, "y", "height", "Height of a simulation field")
	flaggy.Duration(&flags.Interval, "i", "interval", "Simulation speed (interval between the steps) in format the number with 'ms' suffix, for example 150ms")
	flaggy.Int(&flags.MaxSteps, "s", "maxSteps", "Limit the simulation to maxSteps, 0 is unlimited")
	flaggy.String(&flags.Seed, "p", "seed", "Initial cells ["+strings.Join(engine.SeedPolicies(), "|")+"]")
	flaggy.UInt64(&flags.RandomSeed, "", "rng", "Seed of the random generator")
	flaggy.Bool(&eo.interactive, "n", "interactive", "Start interactive mode")
	flaggy.Bool(&eo.randomData, "r", "random", "Settle with random data")
	flaggy.String(&eo.template, "t", "template", "Settle with the template ["+strings.Join(templateNames(), "|")+"]")
	flaggy.String(&eo.config, "c", "config", "JSON file with the options, the flags take precedence")
	flaggy.Bool(&eo.verbose, "v", "verbose", "Log the step timings to stderr")

	flaggy.Parse()

	o := flags
	if eo.config != "" {
		fileOpts, err := engine.LoadOptions(eo.config)
		if err != nil {
			flaggy.ShowHelpAndExit(err.Error())
		}
		o = overlay(fileOpts, flags, defaults)
	}
	if err := o.Validate(); err != nil {
		flaggy.ShowHelpAndExit(err.Error())
	}
	return eo, &o
}

//overlay applies the flags which differ from the defaults on top of base
func overlay(base engine.Options, flags engine.Options, defaults engine.Options) engine.Options {
	if flags.Width != defaults.Width {
		base.Width = flags.Width
	}
	if flags.Height != defaults.Height {
		base.Height = flags.Height
	}
	if flags.Interval != defaults.Interval {
		base.Interval = flags.Interval
	}
	if flags.MaxSteps != defaults.MaxSteps {
		base.MaxSteps = flags.MaxSteps
	}
	if flags.Seed != defaults.Seed {
		base.Seed = flags.Seed
	}
	if flags.RandomSeed != defaults.RandomSeed {
		base.RandomSeed = flags.RandomSeed
	}
	return base
}

func templateNames() []string {
	tmpls := engine.DefaultTemplates()
	names := make([]string, 0, len(tmpls))
	for _, t := range tmpls {
		names = append(names, t.Name)
	}
	return names
}
