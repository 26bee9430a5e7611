package engine

import (
	"bytes"
	"log"
	"reflect"
	"strings"
	"sync"
	"testing"
	"time"
)

func newTestOptions(width int, height int) *Options {
	o := DefaultOptions()
	o.Width = width
	o.Height = height
	o.Interval = 0
	return &o
}

func newTestRunner(t *testing.T, o *Options) (*Runner, chan Status) {
	t.Helper()
	stateCh := make(chan Status, 100)
	r, err := NewRunner(o, stateCh)
	if err != nil {
		t.Fatalf("NewRunner: %v", err)
	}
	for _, tmpl := range DefaultTemplates() {
		r.AddTemplate(tmpl)
	}
	return r, stateCh
}

//waitFor reads the status updates until the mode is reached
func waitFor(t *testing.T, stateCh chan Status, mode RunningState) Status {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case st := <-stateCh:
			if st.RunningMode == mode {
				return st
			}
		case <-timeout:
			t.Fatalf("timeout waiting for %v", mode)
		}
	}
}

func liveCoords(a Area) [][]int {
	var res [][]int
	for y := 0; y < a.Height; y++ {
		for x := 0; x < a.Width; x++ {
			if a.Alive(x, y) {
				res = append(res, []int{x, y})
			}
		}
	}
	return res
}

type countingViewer struct {
	registered Engine
	refreshes  int
}

func (v *countingViewer) Refresh()          { v.refreshes++ }
func (v *countingViewer) Register(e Engine) { v.registered = e }
func (v *countingViewer) Start()            {}

func TestNewRunner_InvalidOptions(t *testing.T) {
	cases := map[string]func(o *Options){
		"zero width":    func(o *Options) { o.Width = 0 },
		"negative step": func(o *Options) { o.MaxSteps = -1 },
		"unknown seed":  func(o *Options) { o.Seed = "soup" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			o := DefaultOptions()
			mutate(&o)
			if _, err := NewRunner(&o, nil); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestNewRunner_Seeds(t *testing.T) {
	r, _ := newTestRunner(t, nil)
	defer r.Close()
	if o := r.Options(); o.Width != DefWidth || o.Height != DefHeight {
		t.Errorf("default dimension %vx%v", o.Width, o.Height)
	}
	if n := r.Status().LiveCells; n != 0 {
		t.Errorf("empty seed has %v live cells", n)
	}

	o := newTestOptions(10, 10)
	o.Seed = SeedPattern
	p, _ := newTestRunner(t, o)
	defer p.Close()
	if !p.Area().Alive(0, 0) || p.Area().Alive(1, 0) || !p.Area().Alive(7, 0) {
		t.Error("pattern seed is not applied")
	}

	o.Seed = SeedRandom
	o.RandomSeed = 5
	r1, _ := newTestRunner(t, o)
	r2, _ := newTestRunner(t, o)
	defer r1.Close()
	defer r2.Close()
	if r1.Area().Render() != r2.Area().Render() {
		t.Error("random seeds with the same RandomSeed differ")
	}
	if r1.Options().Advanced["Random seed"] != uint64(5) {
		t.Errorf("advanced options: %v", r1.Options().Advanced)
	}
}

func TestRunner_StepBlinker(t *testing.T) {
	r, stateCh := newTestRunner(t, newTestOptions(5, 5))
	defer r.Close()
	if err := r.SettleTemplate("blinker"); err != nil {
		t.Fatal(err)
	}
	r.Step()
	st := waitFor(t, stateCh, RunningStateManual)
	if st.IterationNum != 1 || st.LiveCells != 3 {
		t.Errorf("status after step: %+v", st)
	}
	want := [][]int{{2, 1}, {2, 2}, {2, 3}}
	if got := liveCoords(r.Area()); !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestRunner_StillLifeFinishes(t *testing.T) {
	r, stateCh := newTestRunner(t, newTestOptions(6, 6))
	defer r.Close()
	_ = r.SettleTemplate("block")
	r.Step()
	st := waitFor(t, stateCh, RunningStateFinished)
	if st.IterationNum != 1 || st.LiveCells != 4 {
		t.Errorf("status: %+v", st)
	}
}

func TestRunner_RunUntilMaxSteps(t *testing.T) {
	o := newTestOptions(8, 8)
	o.MaxSteps = 10
	r, stateCh := newTestRunner(t, o)
	defer r.Close()
	//the glider never stops on the torus
	_ = r.SettleTemplate("glider")
	r.Run()
	st := waitFor(t, stateCh, RunningStateFinished)
	if st.IterationNum != 10 || st.LiveCells != 5 {
		t.Errorf("status: %+v", st)
	}
}

func TestRunner_RunStop(t *testing.T) {
	o := newTestOptions(8, 8)
	o.MaxSteps = 0
	o.Interval = time.Millisecond
	o.MaxSkippedTicks = 1000
	r, stateCh := newTestRunner(t, o)
	defer r.Close()
	_ = r.SettleTemplate("glider")
	r.Run()
	waitFor(t, stateCh, RunningStateRun)
	r.Stop()
	st := waitFor(t, stateCh, RunningStateManual)
	if st.LiveCells != 5 {
		t.Errorf("status: %+v", st)
	}
}

func TestRunner_OverrunFinishes(t *testing.T) {
	var logs bytes.Buffer
	o := newTestOptions(300, 300)
	o.Seed = SeedRandom
	o.MaxSteps = 0
	o.Interval = time.Nanosecond
	o.MaxSkippedTicks = 0
	o.Logger = log.New(&logs, "", 0)
	r, stateCh := newTestRunner(t, o)
	defer r.Close()
	r.Run()
	st := waitFor(t, stateCh, RunningStateFinished)
	if st.IterationNum != 1 {
		t.Errorf("status: %+v", st)
	}
	if !strings.Contains(logs.String(), "tick #1 took") || !strings.Contains(logs.String(), "exceeded") {
		t.Errorf("unexpected log: %q", logs.String())
	}
}

func TestRunner_Clear(t *testing.T) {
	o := newTestOptions(10, 10)
	o.Seed = SeedPattern
	r, stateCh := newTestRunner(t, o)
	defer r.Close()
	r.Step()
	waitFor(t, stateCh, RunningStateStep)
	r.Clear()
	st := waitFor(t, stateCh, RunningStateManual)
	for st.IterationNum != 0 {
		st = waitFor(t, stateCh, RunningStateManual)
	}
	if st.LiveCells != 0 || r.Area().LiveCells() != 0 {
		t.Errorf("status after clear: %+v", st)
	}
}

func TestRunner_Resize(t *testing.T) {
	o := newTestOptions(10, 10)
	o.Seed = SeedPattern
	r, stateCh := newTestRunner(t, o)
	defer r.Close()
	if err := r.Resize(0, 5); err == nil {
		t.Error("expected error for zero width")
	}
	if err := r.Resize(70, 3); err != nil {
		t.Fatal(err)
	}
	st := waitFor(t, stateCh, RunningStateManual)
	a := r.Area()
	if a.Width != 70 || a.Height != 3 || a.LiveCells() != 0 || st.LiveCells != 0 {
		t.Errorf("area after resize %vx%v with %v live cells", a.Width, a.Height, a.LiveCells())
	}
	if opts := r.Options(); opts.Width != 70 || opts.Height != 3 {
		t.Errorf("options after resize %vx%v", opts.Width, opts.Height)
	}
	if words := r.Status().Details["Words"]; words != 4 {
		t.Errorf("210 cells packed into %v words", words)
	}
}

func TestRunner_SettleAndInverse(t *testing.T) {
	r, _ := newTestRunner(t, newTestOptions(4, 4))
	defer r.Close()
	r.Settle([][]int{{1, 1}, {2, 1}, {9, 9}, {-1, 0}, {3}})
	if got := liveCoords(r.Area()); len(got) != 2 {
		t.Errorf("got %v", got)
	}
	r.InverseCell(1, 1)
	r.InverseCell(3, 3)
	r.InverseCell(4, 0)
	a := r.Area()
	if a.Alive(1, 1) || !a.Alive(2, 1) || !a.Alive(3, 3) || a.LiveCells() != 2 {
		t.Errorf("unexpected area:\n%s", a.Render())
	}
	if r.Status().LiveCells != 2 {
		t.Errorf("status live cells: %v", r.Status().LiveCells)
	}
	if err := r.SettleTemplate("nope"); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRunner_SettleWithRandomData(t *testing.T) {
	r, _ := newTestRunner(t, newTestOptions(32, 32))
	r.SettleWithRandomData()
	r.Close()
	if n := r.Status().LiveCells; n == 0 || n != r.Area().LiveCells() {
		t.Errorf("live cells %v, area %v", n, r.Area().LiveCells())
	}
}

func TestRunner_Viewer(t *testing.T) {
	r, _ := newTestRunner(t, newTestOptions(4, 4))
	v := &countingViewer{}
	r.RegisterViewer(v)
	if v.registered != r {
		t.Error("viewer is not registered")
	}
	r.Settle([][]int{{0, 0}})
	r.Step()
	r.Close()
	if v.refreshes < 2 {
		t.Errorf("%v refreshes", v.refreshes)
	}
}

//the viewer counter is unguarded, the race detector fails the test unless all refreshes come from one goroutine
func TestRunner_ViewerRefreshedFromLoop(t *testing.T) {
	r, _ := newTestRunner(t, newTestOptions(8, 8))
	v := &countingViewer{}
	r.RegisterViewer(v)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			r.Settle([][]int{{i, i}})
			r.InverseCell(i, 0)
			r.Stamp(i, 4, ShapeLine)
		}(i)
	}
	wg.Wait()
	r.Close()
	if v.refreshes < 12 {
		t.Errorf("%v refreshes", v.refreshes)
	}
}

func TestRunner_Templates(t *testing.T) {
	r, _ := newTestRunner(t, nil)
	defer r.Close()
	names := []string{}
	for _, tmpl := range r.Templates() {
		names = append(names, tmpl.Name)
	}
	if strings.Join(names, ",") != "blinker,block,glider,sample" {
		t.Errorf("templates: %v", names)
	}
}

func TestRunner_CommandsAfterClose(t *testing.T) {
	r, _ := newTestRunner(t, nil)
	r.Close()
	r.Close()
	r.Step()
	r.Run()
	if r.Status().IterationNum != 0 {
		t.Error("closed runner executed a command")
	}
}

func TestArea_Zero(t *testing.T) {
	var a Area
	if a.Alive(0, 0) || a.LiveCells() != 0 || a.Render() != "" {
		t.Error("zero area is not empty")
	}
}

func BenchmarkRunner_Step(b *testing.B) {
	o := DefaultOptions()
	o.Width, o.Height = 200, 200
	o.Interval = 0
	o.MaxSteps = 0
	o.Seed = SeedRandom
	stateCh := make(chan Status, 10)
	r, err := NewRunner(&o, stateCh)
	if err != nil {
		b.Fatal(err)
	}
	go func() {
		for range stateCh {
		}
	}()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Step()
	}
	r.Close()
	close(stateCh)
}

func TestRunner_Stamp(t *testing.T) {
	r, _ := newTestRunner(t, newTestOptions(6, 5))
	defer r.Close()

	r.Stamp(2, 2, ShapeLine)
	if got, want := liveCoords(r.Area()), [][]int{{2, 1}, {2, 2}, {2, 3}}; !reflect.DeepEqual(got, want) {
		t.Errorf("line: got %v, want %v", got, want)
	}
	r.Stamp(2, 2, ShapeLine)
	if n := r.Area().LiveCells(); n != 0 {
		t.Errorf("second stamp left %v live cells", n)
	}

	//the line around the top row wraps to the bottom one
	r.Stamp(0, 0, ShapeLine)
	if got, want := liveCoords(r.Area()), [][]int{{0, 0}, {0, 1}, {0, 4}}; !reflect.DeepEqual(got, want) {
		t.Errorf("wrapped line: got %v, want %v", got, want)
	}
	r.Stamp(0, 0, ShapeLine)

	r.Stamp(5, 1, ShapeGlider)
	want := [][]int{{5, 0}, {1, 0}, {5, 1}, {0, 1}, {5, 4}}
	a := r.Area()
	for _, p := range want {
		if !a.Alive(p[0], p[1]) {
			t.Errorf("glider cell %v is dead:\n%s", p, a.Render())
		}
	}
	if a.LiveCells() != len(want) || r.Status().LiveCells != len(want) {
		t.Errorf("glider: %v live cells, status %v", a.LiveCells(), r.Status().LiveCells)
	}

	r.Stamp(6, 0, ShapeGlider)
	if r.Area().LiveCells() != len(want) {
		t.Error("the point outside the area was stamped")
	}
}

func TestRunner_SetInterval(t *testing.T) {
	o := newTestOptions(8, 8)
	o.Interval = time.Hour
	o.MaxSteps = 3
	r, stateCh := newTestRunner(t, o)
	defer r.Close()
	v := &countingViewer{}
	r.RegisterViewer(v)

	if err := r.SetInterval(-time.Second); err == nil {
		t.Error("expected error for negative interval")
	}
	_ = r.SettleTemplate("glider")
	r.Run()
	waitFor(t, stateCh, RunningStateRun)
	//the running loop sleeps for an hour unless it picks up the new interval
	if err := r.SetInterval(0); err != nil {
		t.Fatal(err)
	}
	waitFor(t, stateCh, RunningStateFinished)
	if got := r.Options().Interval; got != 0 {
		t.Errorf("interval is %v", got)
	}
}

func TestRunner_Frames(t *testing.T) {
	o := newTestOptions(8, 8)
	o.MaxSteps = 5
	r, stateCh := newTestRunner(t, o)
	defer r.Close()
	_ = r.SettleTemplate("glider")
	r.Run()
	st := waitFor(t, stateCh, RunningStateFinished)
	f := st.Frames
	if f.Latest <= 0 || f.Min <= 0 || f.Min > f.Mean || f.Mean > f.Max {
		t.Errorf("frame stats: %+v", f)
	}
	r.Clear()
	if st := waitFor(t, stateCh, RunningStateManual); st.Frames != (FrameStats{}) {
		t.Errorf("frame stats after clear: %+v", st.Frames)
	}
}
