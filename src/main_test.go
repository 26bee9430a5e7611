package main

import (
	"context"
	"testing"
	"time"

	"torlife/src/engine"
)

func newHeadlessRunner(t testing.TB, o engine.Options) *engine.Runner {
	r, err := engine.NewRunner(&o, make(chan engine.Status, 10))
	if err != nil {
		t.Fatal(err)
	}
	for _, tmpl := range engine.DefaultTemplates() {
		r.AddTemplate(tmpl)
	}
	return r
}

func TestRunHeadless_Finishes(t *testing.T) {
	o := engine.DefaultOptions()
	o.Interval = 0
	o.MaxSteps = 50
	r := newHeadlessRunner(t, o)
	defer r.Close()
	_ = r.SettleTemplate("glider")

	if err := runHeadless(context.Background(), r); err != nil {
		t.Fatal(err)
	}
	if st := r.Status(); st.IterationNum != 50 {
		t.Errorf("status: %+v", st)
	}
}

func TestRunHeadless_Interrupted(t *testing.T) {
	o := engine.DefaultOptions()
	o.Interval = 5 * time.Millisecond
	o.MaxSteps = 0
	o.MaxSkippedTicks = 1000
	r := newHeadlessRunner(t, o)
	defer r.Close()
	_ = r.SettleTemplate("glider")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := runHeadless(ctx, r); err == nil {
		t.Fatal("expected interruption error")
	}
	deadline := time.Now().Add(5 * time.Second)
	for r.Status().RunningMode == engine.RunningStateRun {
		if time.Now().After(deadline) {
			t.Fatal("the simulation was not stopped")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestOverlay(t *testing.T) {
	defaults := engine.DefaultOptions()
	base := defaults
	base.Width, base.Height, base.Seed = 100, 50, engine.SeedRandom

	flags := defaults
	flags.Height = 20
	got := overlay(base, flags, defaults)
	if got.Width != 100 || got.Height != 20 || got.Seed != engine.SeedRandom {
		t.Errorf("got %+v", got)
	}
}

func TestTemplateNames(t *testing.T) {
	if n := len(templateNames()); n != len(engine.DefaultTemplates()) {
		t.Errorf("%v names", n)
	}
}

func Benchmark_Run(b *testing.B) {
	for _, seed := range engine.SeedPolicies() {
		b.Run(seed, func(b *testing.B) {
			o := engine.DefaultOptions()
			o.Width, o.Height = 200, 200
			o.Interval = 0
			o.MaxSteps = 20
			o.Seed = seed
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				b.StopTimer()
				r := newHeadlessRunner(b, o)
				b.StartTimer()
				if err := runHeadless(context.Background(), r); err != nil {
					b.Fatal(err)
				}
				b.StopTimer()
				r.Close()
			}
		})
	}
}
