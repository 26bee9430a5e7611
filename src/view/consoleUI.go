package view

import (
	"bytes"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jroimartin/gocui"
	"github.com/logrusorgru/aurora"

	"torlife/src/engine"
)

//view names
const (
	viewHeader        = "header"
	viewConfiguration = "configuration"
	viewStatus        = "status"
	viewField         = "battlefield"
	viewHelp          = "help"
)

const (
	leftColumnWidth = 28
	minWindowHeight = 20
	//the interval the slower key starts from when the simulation runs at full speed
	minSlowInterval = 10 * time.Millisecond
)

type keyBinding struct {
	key      interface{}
	name     string
	descr    string
	handler  func(v *gocui.View) error
	viewName string
}

//ConsoleUI is the interactive terminal viewer: it draws the field and translates keys and clicks to engine commands
type ConsoleUI struct {
	e          engine.Engine
	g          *gocui.Gui
	k          []keyBinding
	liveFiller string
	deadFiller string
	nextTmpl   int
}

var runningStateDescr = map[engine.RunningState]string{
	engine.RunningStateManual:   aurora.Colorize("waiting", aurora.BlueFg).String(),
	engine.RunningStateStep:     "do the step",
	engine.RunningStateRun:      aurora.Colorize("running", aurora.CyanFg).String(),
	engine.RunningStateFinished: aurora.Colorize("finished", aurora.RedFg).String(),
}

func NewConsoleUI() *ConsoleUI {
	t := &ConsoleUI{
		liveFiller: aurora.Green("█").BgBrightGreen().String(),
		deadFiller: "░",
	}

	g, err := gocui.NewGui(gocui.OutputNormal)
	if err != nil {
		log.Panicln(err)
	}
	t.g = g
	t.g.Mouse = true
	t.k = []keyBinding{
		{gocui.KeyCtrlC, "^C", "Exit", t.cmdQuit, ""},
		{'n', "N", "Next step", t.cmdNextRound, ""},
		{'r', "R", "Run", t.cmdRun, ""},
		{'s', "S", "Stop", t.cmdStop, ""},
		{'c', "C", "Clear", t.cmdClear, ""},
		{'w', "W", "Random", t.cmdSettleWithRandom, ""},
		{'t', "T", "Template", t.cmdSettleTemplate, ""},
		{'f', "F", "Fit to view", t.cmdFit, ""},
		{'+', "+", "Faster", t.cmdFaster, ""},
		{'-', "-", "Slower", t.cmdSlower, ""},
		{'b', "B", "Stamp line", t.cmdStamp(engine.ShapeLine), ""},
		{'g', "G", "Stamp glider", t.cmdStamp(engine.ShapeGlider), ""},
		{gocui.MouseLeft, "MOUSE", "Pause and toggle the cell", t.cmdMouseClick, viewField},
	}
	t.g.SetManagerFunc(t.layout)
	for _, kb := range t.k {
		h := kb.handler
		if err := t.g.SetKeybinding(kb.viewName, kb.key, gocui.ModNone, func(_ *gocui.Gui, v *gocui.View) error { return h(v) }); err != nil {
			log.Panicln(err)
		}
	}
	return t
}

func (t *ConsoleUI) Register(e engine.Engine) {
	t.e = e
}

//Start runs the terminal main loop until ^C
func (t *ConsoleUI) Start() {
	defer t.g.Close()
	if err := t.g.MainLoop(); err != nil && err != gocui.ErrQuit {
		log.Panicln(err)
	}
}

//Refresh can be called from any goroutine
//the update event forces the layout pass which redraws the panes
func (t *ConsoleUI) Refresh() {
	t.g.Update(func(*gocui.Gui) error { return nil })
}

//draw renders the fresh engine snapshots, called on every layout pass
func (t *ConsoleUI) draw(g *gocui.Gui) {
	if t.e == nil {
		return
	}
	t.renderField(g, t.e.Area())
	t.renderConfiguration(g, t.e.Options())
	t.renderStatus(g, t.e.Status())
}

func (t *ConsoleUI) renderField(g *gocui.Gui, a engine.Area) {
	v, err := g.View(viewField)
	if err != nil {
		return
	}
	//the entire field is redrawn at once
	v.Clear()
	maxW, maxH := v.Size()
	crop := a.Width > maxW || a.Height > maxH

	var b bytes.Buffer
	for y := 0; y < a.Height && y < maxH; y++ {
		if y != 0 {
			b.WriteByte('\n')
		}
		if crop && y == maxH-1 {
			b.WriteString(aurora.Red("The field size is larger than the viewing area, press F").BgBlack().String())
			break
		}
		for x := 0; x < a.Width && x < maxW; x++ {
			if a.Alive(x, y) {
				b.WriteString(t.liveFiller)
			} else {
				b.WriteString(t.deadFiller)
			}
		}
	}
	_, _ = v.Write(b.Bytes())
}

func (t *ConsoleUI) renderStatus(g *gocui.Gui, s engine.Status) {
	v, err := g.View(viewStatus)
	if err != nil {
		return
	}
	v.Clear()
	_, _ = fmt.Fprintln(v, renderProp("Step", "%v", s.IterationNum))
	_, _ = fmt.Fprintln(v, renderProp("Live Cells", "%v", s.LiveCells))
	_, _ = fmt.Fprintln(v, renderProp("Evaluation time", "%v", s.IterationTime.Round(time.Microsecond)))
	_, _ = fmt.Fprintln(v, renderProp("Mode", "%v", runningStateDescr[s.RunningMode]))
	_, _ = fmt.Fprintln(v, renderProp("Steps/s", "%.1f", s.Frames.Latest))
	_, _ = fmt.Fprintln(v, renderProp("Avg", "%.1f [%.1f..%.1f]", s.Frames.Mean, s.Frames.Min, s.Frames.Max))
}

func (t *ConsoleUI) renderConfiguration(g *gocui.Gui, o engine.Options) {
	v, err := g.View(viewConfiguration)
	if err != nil {
		return
	}
	v.Clear()
	_, _ = fmt.Fprintln(v, renderProp("Dimension", "%v x %v", o.Width, o.Height))
	_, _ = fmt.Fprintln(v, renderProp("Interval", "%v", o.Interval))
	_, _ = fmt.Fprintln(v, renderProp("Iterations", "%v steps", o.MaxSteps))
	_, _ = fmt.Fprintln(v, renderProp("Seed", "%v", o.Seed))
}

func renderProp(name string, valueFormat string, values ...interface{}) string {
	return fmt.Sprintf(" "+aurora.Colorize(name, aurora.GreenFg).String()+": "+valueFormat, values...)
}

func (t *ConsoleUI) layout(g *gocui.Gui) error {
	maxX, maxY := g.Size()

	if maxY < minWindowHeight {
		if err := t.headerLayout(g, maxY, "Terminal height too small"); err != nil {
			return err
		}
		for _, name := range []string{viewConfiguration, viewStatus, viewField, viewHelp} {
			_ = g.DeleteView(name)
		}
		return nil
	}
	if err := t.headerLayout(g, 3, "Conway's Game of Life on a torus"); err != nil {
		return err
	}

	middle := 3 + (maxY-5-3)/2
	panes := []struct {
		name           string
		title          string
		x0, y0, x1, y1 int
	}{
		{viewConfiguration, "Configuration", 0, 3, leftColumnWidth, middle},
		{viewStatus, "Status", 0, middle + 1, leftColumnWidth, maxY - 5},
		{viewField, "Battle Field", leftColumnWidth + 1, 3, maxX - 1, maxY - 5},
	}
	for _, p := range panes {
		v, err := g.SetView(p.name, p.x0, p.y0, p.x1, p.y1)
		if err == nil {
			continue
		}
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Title = p.title
		v.Frame = true
	}
	t.draw(g)

	v, err := g.SetView(viewHelp, -1, maxY-5, maxX, maxY-3)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		v.Wrap = true
	}
	v.Clear()
	_, _ = fmt.Fprintln(v, t.helpLine())
	return nil
}

func (t *ConsoleUI) helpLine() string {
	parts := make([]string, 0, len(t.k))
	for _, k := range t.k {
		parts = append(parts, aurora.Green(k.name).String()+": "+k.descr)
	}
	return "KEYBINDINGS: " + strings.Join(parts, ", ")
}

func (t *ConsoleUI) headerLayout(g *gocui.Gui, height int, text string) error {
	maxX, _ := g.Size()
	v, err := g.SetView(viewHeader, -1, -1, maxX+1, height)
	if err != nil {
		if err != gocui.ErrUnknownView {
			return err
		}
		v.Frame = false
		v.BgColor = gocui.ColorCyan
		v.FgColor = gocui.ColorBlack
	}
	v.Clear()
	pad := 0
	if maxX > len(text) {
		pad = (maxX - len(text)) / 2
	}
	_, _ = fmt.Fprintln(v, strings.Repeat("\n", height/2+1)+strings.Repeat(" ", pad)+text)
	return nil
}

func (t *ConsoleUI) cmdQuit(_ *gocui.View) error {
	return gocui.ErrQuit
}

func (t *ConsoleUI) cmdNextRound(_ *gocui.View) error {
	t.e.Step()
	return nil
}

func (t *ConsoleUI) cmdRun(_ *gocui.View) error {
	t.e.Run()
	return nil
}

func (t *ConsoleUI) cmdStop(_ *gocui.View) error {
	t.e.Stop()
	return nil
}

func (t *ConsoleUI) cmdClear(_ *gocui.View) error {
	t.e.Clear()
	return nil
}

func (t *ConsoleUI) cmdSettleWithRandom(_ *gocui.View) error {
	t.e.SettleWithRandomData()
	return nil
}

//cmdSettleTemplate settles the registered templates one by one
func (t *ConsoleUI) cmdSettleTemplate(_ *gocui.View) error {
	tmpls := t.e.Templates()
	if len(tmpls) == 0 {
		return nil
	}
	tmpl := tmpls[t.nextTmpl%len(tmpls)]
	t.nextTmpl++
	return t.e.SettleTemplate(tmpl.Name)
}

//cmdFit resizes the universe to the battlefield pane, the cells are cleared
func (t *ConsoleUI) cmdFit(_ *gocui.View) error {
	v, err := t.g.View(viewField)
	if err != nil {
		return nil
	}
	w, h := v.Size()
	if err := t.e.Resize(w, h); err != nil {
		log.Println(err)
	}
	return nil
}

//cmdMouseClick pauses the simulation and toggles the clicked cell
func (t *ConsoleUI) cmdMouseClick(v *gocui.View) error {
	t.e.Stop()
	cx, cy := v.Cursor()
	t.e.InverseCell(cx, cy)
	return nil
}

//cmdStamp returns the handler stamping the shape at the last clicked cell
func (t *ConsoleUI) cmdStamp(shape engine.Shape) func(*gocui.View) error {
	return func(_ *gocui.View) error {
		v, err := t.g.View(viewField)
		if err != nil {
			return nil
		}
		t.e.Stop()
		cx, cy := v.Cursor()
		t.e.Stamp(cx, cy, shape)
		return nil
	}
}

func (t *ConsoleUI) cmdFaster(_ *gocui.View) error {
	return t.e.SetInterval(faster(t.e.Options().Interval))
}

func (t *ConsoleUI) cmdSlower(_ *gocui.View) error {
	return t.e.SetInterval(slower(t.e.Options().Interval))
}

//faster halves the interval, the full speed stays as is
func faster(d time.Duration) time.Duration {
	return d / 2
}

//slower doubles the interval
func slower(d time.Duration) time.Duration {
	if d < minSlowInterval {
		return minSlowInterval
	}
	return d * 2
}
