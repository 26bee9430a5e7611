package engine

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/pkg/errors"

	"torlife/src/universe"
)

//Runner is the engine implementation
//all the simulation commands are executed one by one by the control loop goroutine,
//the public methods only enqueue them (except the settling ones which are guarded by the area lock)
//viewers are refreshed from the control loop only
type Runner struct {
	options Options
	rnd     universe.Source
	state   struct {
		Status
		sync.Mutex
	}
	area struct {
		u *universe.Universe
		sync.Mutex
	}
	tmpl struct {
		m map[string]Template
		sync.Mutex
	}
	stateCh chan Status
	views   struct {
		list []Viewer
		sync.Mutex
	}
	frames    frameMeter
	cycle     int //running cycle generation, guarded by the state lock
	wake      chan struct{}
	controlCh chan func()
	closeCh   chan struct{}
	closeOnce sync.Once
	done      chan struct{}
}

//NewRunner creates the Runner and starts its control loop
//o == nil means DefaultOptions, stateCh may be nil
//when stateCh is set the caller must drain it: every running state switch is written there
func NewRunner(o *Options, stateCh chan Status) (*Runner, error) {
	opts := DefaultOptions()
	if o != nil {
		opts = *o
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.Wrap(err, "[NewRunner] invalid options")
	}
	opts.Advanced = map[string]interface{}{"Seed": opts.Seed}
	if opts.Seed == SeedRandom {
		opts.Advanced["Random seed"] = opts.RandomSeed
	}

	r := &Runner{
		options:   opts,
		rnd:       universe.NewSource(opts.RandomSeed),
		stateCh:   stateCh,
		controlCh: make(chan func()),
		closeCh:   make(chan struct{}),
		done:      make(chan struct{}),
		wake:      make(chan struct{}, 1),
	}
	r.tmpl.m = map[string]Template{}
	r.area.u = universe.New(uint32(opts.Width), uint32(opts.Height), opts.seed(r.rnd))
	r.state.LiveCells = r.area.u.LiveCells()
	r.state.Details = map[string]interface{}{"Words": len(r.area.u.Cells())}

	go r.mainLoop()
	return r, nil
}

//AddTemplate adds the seeding template to the internal storage
//the universe can be populated with this template by call SettleTemplate
func (r *Runner) AddTemplate(tmpl Template) {
	r.tmpl.Lock()
	r.tmpl.m[tmpl.Name] = tmpl
	r.tmpl.Unlock()
}

//Templates returns the registered templates sorted by name
func (r *Runner) Templates() []Template {
	r.tmpl.Lock()
	defer r.tmpl.Unlock()
	res := make([]Template, 0, len(r.tmpl.m))
	for _, t := range r.tmpl.m {
		res = append(res, t)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	return res
}

//Settle settles the universe with live cells
//vc - array of x,y coordinates, the points outside the area are ignored
func (r *Runner) Settle(vc [][]int) {
	r.settle(vc)
	r.exec(r.refreshView)
}

//SettleTemplate populates the universe with the seeding template
func (r *Runner) SettleTemplate(name string) error {
	r.tmpl.Lock()
	tmpl, ok := r.tmpl.m[name]
	r.tmpl.Unlock()
	if !ok {
		return errors.Errorf("[SettleTemplate] unknown template %q", name)
	}
	r.settle(tmpl.Coordinates)
	r.exec(r.refreshView)
	return nil
}

//SettleWithRandomData clears the universe and populates it with random data, returns immediately
//does nothing while the simulation is running
func (r *Runner) SettleWithRandomData() {
	if m := r.mode(); m != RunningStateManual && m != RunningStateFinished {
		return
	}
	r.exec(func() {
		r.clear()
		r.area.Lock()
		r.area.u.Randomize(r.rnd)
		live := r.area.u.LiveCells()
		r.area.Unlock()
		r.setLiveCells(live)
		r.refreshView()
	})
}

//InverseCell inverses the cell state at point x, y
func (r *Runner) InverseCell(x int, y int) {
	r.area.Lock()
	u := r.area.u
	if x < 0 || y < 0 || x >= int(u.Width()) || y >= int(u.Height()) {
		r.area.Unlock()
		return
	}
	u.ToggleCell(uint32(y), uint32(x))
	live := u.LiveCells()
	r.area.Unlock()
	r.setLiveCells(live)
	r.exec(r.refreshView)
}

//Stamp toggles the shape cells around the point x, y
//shape offsets are [dx,dy], the points wrap around the area edges
func (r *Runner) Stamp(x int, y int, shape Shape) {
	r.area.Lock()
	u := r.area.u
	w, h := int(u.Width()), int(u.Height())
	if x < 0 || y < 0 || x >= w || y >= h {
		r.area.Unlock()
		return
	}
	for _, d := range shape {
		u.ToggleCell(uint32(wrap(y+d[1], h)), uint32(wrap(x+d[0], w)))
	}
	live := u.LiveCells()
	r.area.Unlock()
	r.setLiveCells(live)
	r.exec(r.refreshView)
}

//SetInterval changes the interval between the steps, the running simulation picks it up on the next step
func (r *Runner) SetInterval(d time.Duration) error {
	if d < 0 {
		return errors.Errorf("[SetInterval] negative interval %v", d)
	}
	r.exec(func() {
		r.state.Lock()
		r.options.Interval = d
		r.state.Unlock()
		r.wakeUp()
		r.refreshView()
	})
	return nil
}

func wrap(v int, n int) int {
	v %= n
	if v < 0 {
		v += n
	}
	return v
}

//Resize changes the universe dimension, returns immediately
//all cells are killed and the counters are reset
func (r *Runner) Resize(width int, height int) error {
	o := r.Options()
	o.Width, o.Height = width, height
	if err := o.Validate(); err != nil {
		return errors.Wrap(err, "[Resize] invalid dimension")
	}
	r.exec(func() {
		r.area.Lock()
		r.area.u.SetWidth(uint32(width))
		r.area.u.SetHeight(uint32(height))
		words := len(r.area.u.Cells())
		r.area.Unlock()

		r.state.Lock()
		r.options.Width, r.options.Height = width, height
		r.state.IterationNum = 0
		r.state.LiveCells = 0
		r.state.Details["Words"] = words
		r.state.Unlock()
		r.switchRunningState(RunningStateManual)
		r.refreshView()
	})
	return nil
}

//RegisterViewer registers the viewer - the engine will call the viewer when the state is changed
func (r *Runner) RegisterViewer(v Viewer) {
	r.views.Lock()
	r.views.list = append(r.views.list, v)
	r.views.Unlock()
	v.Register(r)
}

//StateCh returns the channel with the status updates
func (r *Runner) StateCh() chan Status {
	return r.stateCh
}

//Status returns current status represented by Status struct
func (r *Runner) Status() Status {
	r.state.Lock()
	defer r.state.Unlock()
	return r.state.Status
}

//Options returns current configuration represented by Options struct
func (r *Runner) Options() Options {
	r.state.Lock()
	defer r.state.Unlock()
	return r.options
}

//Area returns the snapshot of the universe (field where cells is living)
func (r *Runner) Area() Area {
	r.area.Lock()
	defer r.area.Unlock()
	return newArea(r.area.u)
}

//Run starts the simulation, returns immediately
func (r *Runner) Run() {
	r.exec(r.run)
}

//Stop stops the simulation, returns immediately
//the Status struct will be written the stateCh on finish
func (r *Runner) Stop() {
	r.exec(r.stop)
}

//Step does one simulation step, returns immediately
//the Status struct will be written to the stateCh on start and on finish
func (r *Runner) Step() {
	r.exec(r.step)
}

//Clear clears the universe (kill all cells and reset all counters), returns immediately
//the Status struct will be written to the stateCh on finish
func (r *Runner) Clear() {
	r.exec(r.clear)
}

//Close stops the control loop and waits for it
func (r *Runner) Close() {
	r.closeOnce.Do(func() { close(r.closeCh) })
	<-r.done
}

//mainLoop - the main cycle, should start as a goroutine
//waits for command and executes
func (r *Runner) mainLoop() {
	defer close(r.done)
	for {
		select {
		case cmd := <-r.controlCh:
			cmd()
		case <-r.closeCh:
			return
		}
	}
}

//exec passes the command to the control loop
//returns false when the loop is closed
func (r *Runner) exec(cmd func()) bool {
	select {
	case r.controlCh <- cmd:
		return true
	case <-r.done:
		return false
	}
}

//settle places live cells at the x,y positions inside the area
func (r *Runner) settle(vc [][]int) {
	r.area.Lock()
	u := r.area.u
	coords := make([]universe.Coord, 0, len(vc))
	for _, v := range vc {
		if len(v) < 2 || v[0] < 0 || v[1] < 0 || v[0] >= int(u.Width()) || v[1] >= int(u.Height()) {
			continue
		}
		coords = append(coords, universe.Coord{Row: uint32(v[1]), Col: uint32(v[0])})
	}
	u.SetCells(coords, true)
	live := u.LiveCells()
	r.area.Unlock()
	r.setLiveCells(live)
}

func (r *Runner) setLiveCells(live int) {
	r.state.Lock()
	r.state.LiveCells = live
	r.state.Unlock()
}

func (r *Runner) mode() RunningState {
	r.state.Lock()
	defer r.state.Unlock()
	return r.state.RunningMode
}

//switchRunningState switch the state to RunningState
//also writes the new state to the stateCh to signal upper control software
func (r *Runner) switchRunningState(to RunningState) {
	r.state.Lock()
	r.state.RunningMode = to
	st := r.state.Status
	r.state.Unlock()
	if r.stateCh != nil {
		r.stateCh <- st
	}
}

//run starts the simulation cycle
//simulation will stop on Stop() calling or when the boundary conditions are reached
func (r *Runner) run() {
	if r.mode() == RunningStateRun {
		return
	}
	r.state.Lock()
	r.cycle++
	cycle := r.cycle
	r.state.Unlock()
	select {
	case <-r.wake:
	default:
	}
	r.switchRunningState(RunningStateRun)
	go func() {
		skipped := 0
		stepDone := make(chan struct{}, 1)
		for r.running(cycle) {
			start := time.Now()
			if !r.exec(func() {
				if r.running(cycle) {
					r.step()
				}
				stepDone <- struct{}{}
			}) {
				return
			}
			<-stepDone
			o := r.Options()
			if o.Interval <= 0 {
				skipped = 0
				continue
			}
			//the step did not fit the interval
			if elapsed := time.Since(start); elapsed > o.Interval {
				skipped++
			} else {
				skipped = 0
				r.sleep(o.Interval - elapsed)
			}
			if skipped > o.MaxSkippedTicks {
				if o.Logger != nil {
					o.Logger.Printf("%v steps in a row exceeded the %v interval, finishing", skipped, o.Interval)
				}
				r.exec(func() {
					if r.running(cycle) {
						r.switchRunningState(RunningStateFinished)
						r.refreshView()
					}
				})
				return
			}
		}
	}()
}

//running reports whether the cycle is still the current running one
func (r *Runner) running(cycle int) bool {
	r.state.Lock()
	defer r.state.Unlock()
	return r.state.RunningMode == RunningStateRun && r.cycle == cycle
}

//sleep waits for d, the interval change or the loop closing
func (r *Runner) sleep(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-r.wake:
	case <-r.done:
	}
}

//wakeUp interrupts the running cycle sleep
func (r *Runner) wakeUp() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

//stop stops the running cycle
func (r *Runner) stop() {
	if r.mode() == RunningStateRun {
		r.switchRunningState(RunningStateManual)
		r.wakeUp()
	}
}

//step does the new one state calculation for entire universe
//the simulation finishes when MaxSteps is reached, all cells are dead or nothing has changed
func (r *Runner) step() {
	r.state.Lock()
	rm := r.state.RunningMode
	r.state.IterationNum++
	iter := r.state.IterationNum
	maxIter := r.options.MaxSteps
	logger := r.options.Logger
	r.state.Unlock()

	r.switchRunningState(RunningStateStep)

	span := StartSpan(logger, fmt.Sprintf("tick #%d", iter))
	r.area.Lock()
	live, changed := r.area.u.Tick()
	r.area.Unlock()
	elapsed := span.End()

	r.state.Lock()
	r.state.LiveCells = live
	r.state.IterationTime = elapsed
	r.state.Frames = r.frames.record(time.Now())
	r.state.Unlock()

	next := rm
	if live == 0 || !changed || (maxIter != 0 && iter >= maxIter) {
		next = RunningStateFinished
	}
	r.switchRunningState(next)
	r.refreshView()
}

//clear kills all cells, reset all counters
func (r *Runner) clear() {
	r.area.Lock()
	r.area.u.Reset()
	r.area.Unlock()

	r.state.Lock()
	r.state.IterationNum = 0
	r.state.LiveCells = 0
	r.state.IterationTime = 0
	r.state.Frames = FrameStats{}
	r.frames.reset()
	r.state.Unlock()
	r.switchRunningState(RunningStateManual)
	r.refreshView()
}

//refreshView calls Refresh event for all registered views
func (r *Runner) refreshView() {
	r.views.Lock()
	views := append([]Viewer(nil), r.views.list...)
	r.views.Unlock()
	for _, v := range views {
		v.Refresh()
	}
}
