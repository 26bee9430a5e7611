package view

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/logrusorgru/aurora"

	"torlife/src/engine"
)

//grids up to this number of cells are printed on finish
const maxPrintedCells = 80 * 40

//ConsoleOut is the headless viewer which reports the progress to the writer
type ConsoleOut struct {
	e         engine.Engine
	w         io.Writer
	au        aurora.Aurora
	startTime time.Time
	lastIter  int
}

func NewConsoleOut(w io.Writer, colors bool) *ConsoleOut {
	return &ConsoleOut{w: w, au: aurora.NewAurora(colors)}
}

func (c *ConsoleOut) Refresh() {
	st := c.e.Status()
	switch st.RunningMode {
	case engine.RunningStateFinished:
		c.finished(st)
	case engine.RunningStateRun:
		if st.IterationNum%10 == 0 && st.IterationNum != c.lastIter {
			c.lastIter = st.IterationNum
			_, _ = fmt.Fprintf(c.w, "  Iterations done: %v\n", st.IterationNum)
		}
	}
}

func (c *ConsoleOut) Register(e engine.Engine) {
	c.e = e
	o := e.Options()
	_, _ = fmt.Fprintln(c.w, c.au.Bold("Running configuration:"))
	_, _ = fmt.Fprintf(c.w, "  Dimension: %v x %v\n", o.Width, o.Height)
	_, _ = fmt.Fprintf(c.w, "  Interval: %v\n", o.Interval)
	_, _ = fmt.Fprintf(c.w, "  Max iterations: %v steps\n", o.MaxSteps)
	c.printHashData(o.Advanced)
}

func (c *ConsoleOut) Start() {
	c.startTime = time.Now()
	_, _ = fmt.Fprintln(c.w, "\nSimulation started...")
}

func (c *ConsoleOut) finished(st engine.Status) {
	resultData := map[string]interface{}{
		"Last iteration":   st.IterationNum,
		"Total time":       time.Since(c.startTime).Round(time.Millisecond),
		"Live cells":       st.LiveCells,
		"Steps per second": fmt.Sprintf("%.1f avg, %.1f min, %.1f max",
			st.Frames.Mean, st.Frames.Min, st.Frames.Max),
	}
	_, _ = fmt.Fprintln(c.w, c.au.Red("\nFinished:"))
	c.printHashData(resultData)
	if a := c.e.Area(); a.Width*a.Height <= maxPrintedCells {
		_, _ = fmt.Fprint(c.w, a.Render())
	}
}

func (c *ConsoleOut) printHashData(d map[string]interface{}) {
	propNames := make([]string, 0, len(d))
	for k := range d {
		propNames = append(propNames, k)
	}
	sort.Strings(propNames)
	for _, propName := range propNames {
		_, _ = fmt.Fprintf(c.w, "  %s: %v\n", c.au.Green(propName), d[propName])
	}
}
