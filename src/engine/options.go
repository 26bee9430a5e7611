package engine

import (
	"encoding/json"
	"log"
	"math"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"

	"torlife/src/universe"
)

//Options represents the engine's configurable options
type Options struct {
	Width           int                    `json:"width"`
	Height          int                    `json:"height"`
	Interval        time.Duration          `json:"interval"` //duration string in JSON, for example "150ms"
	MaxSteps        int                    `json:"max_steps"`
	MaxSkippedTicks int                    `json:"max_skipped_ticks"`
	Seed            string                 `json:"seed"`
	RandomSeed      uint64                 `json:"random_seed"`
	Logger          *log.Logger            `json:"-"` //diagnostics sink, nil is silent
	Advanced        map[string]interface{} `json:"-"` //advanced options (informational)
}

//default options
const (
	DefSimulationInterval = time.Millisecond * 100
	DefMaxSteps           = 1000
	DefWidth              = 40
	DefHeight             = 15
	DefMaxSkippedTicks    = 5
	DefSeed               = SeedEmpty
)

//seeding policies
const (
	SeedEmpty   = "empty"
	SeedPattern = "pattern"
	SeedRandom  = "random"
)

var seedPolicies = map[string]func(src universe.Source) universe.Seed{
	SeedEmpty:   func(universe.Source) universe.Seed { return universe.Empty },
	SeedPattern: func(universe.Source) universe.Seed { return universe.Pattern },
	SeedRandom:  universe.Random,
}

//SeedPolicies returns the known seeding policy names sorted
func SeedPolicies() []string {
	names := make([]string, 0, len(seedPolicies))
	for k := range seedPolicies {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

//DefaultOptions returns the default configuration
func DefaultOptions() Options {
	return Options{
		Width:           DefWidth,
		Height:          DefHeight,
		Interval:        DefSimulationInterval,
		MaxSteps:        DefMaxSteps,
		MaxSkippedTicks: DefMaxSkippedTicks,
		Seed:            DefSeed,
	}
}

//LoadOptions loads options from the JSON file on top of the defaults
func LoadOptions(filename string) (Options, error) {
	o := DefaultOptions()

	data, err := os.ReadFile(filename)
	if err != nil {
		return o, errors.Wrapf(err, "[LoadOptions] failed to read file: %+v", filename)
	}

	if err = json.Unmarshal(data, &o); err != nil {
		return o, errors.Wrapf(err, "[LoadOptions] failed to unmarshal data from file: %+v", filename)
	}

	return o, errors.Wrapf(o.Validate(), "[LoadOptions] invalid options in file: %+v", filename)
}

//UnmarshalJSON decodes the options, the interval is the duration string
func (o *Options) UnmarshalJSON(data []byte) error {
	type plain Options
	aux := struct {
		*plain
		Interval string `json:"interval"`
	}{plain: (*plain)(o)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Interval == "" {
		return nil
	}
	d, err := time.ParseDuration(aux.Interval)
	if err != nil {
		return errors.Wrap(err, "invalid interval")
	}
	o.Interval = d
	return nil
}

//Validate checks the options can build the universe
func (o Options) Validate() error {
	if o.Width <= 0 || o.Height <= 0 {
		return errors.Errorf("invalid dimension %vx%v", o.Width, o.Height)
	}
	if uint64(o.Width) > maxDimension || uint64(o.Height) > maxDimension {
		return errors.Errorf("dimension %vx%v exceeds %v", o.Width, o.Height, maxDimension)
	}
	if uint64(o.Width)*uint64(o.Height) > math.MaxInt {
		return errors.Errorf("dimension %vx%v does not fit in memory", o.Width, o.Height)
	}
	if o.MaxSteps < 0 || o.MaxSkippedTicks < 0 || o.Interval < 0 {
		return errors.New("negative limits")
	}
	if _, ok := seedPolicies[o.Seed]; !ok {
		return errors.Errorf("unknown seed policy %q", o.Seed)
	}
	return nil
}

const maxDimension = 1<<32 - 1

//seed returns the universe seed for the configured policy
func (o Options) seed(src universe.Source) universe.Seed {
	return seedPolicies[o.Seed](src)
}
