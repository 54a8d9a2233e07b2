package viz

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
	"github.com/san-kum/orbsim/internal/propagation"
)

const (
	canvasWidth     = 36
	canvasHeight    = 14
	barWidth        = 40
	historyCapacity = 600
	feedInterval    = 20 * time.Millisecond
)

// StepMsg carries one saved epoch of the running propagation.
type StepMsg struct {
	Step    int
	Time    float64
	State   dynamo.State
	Elapsed time.Duration
}

// DoneMsg ends the view with the outcome of the propagation.
type DoneMsg struct {
	Result *propagation.Result
	Err    error
}

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/10, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Feed forwards saved epochs to a Bubble Tea program. It implements
// propagation.Observer and drops epochs that arrive faster than the view
// can use them.
type Feed struct {
	send func(tea.Msg)

	mu   sync.Mutex
	last time.Time
}

func NewFeed(send func(tea.Msg)) *Feed {
	return &Feed{send: send}
}

func (f *Feed) OnStep(step int, t float64, x dynamo.State, elapsed time.Duration) {
	f.mu.Lock()
	now := time.Now()
	if step > 0 && now.Sub(f.last) < feedInterval {
		f.mu.Unlock()
		return
	}
	f.last = now
	f.mu.Unlock()
	f.send(StepMsg{Step: step, Time: t, State: x.Clone(), Elapsed: elapsed})
}

// ProgressModel shows a propagation of the first propagated body while it
// runs.
type ProgressModel struct {
	name         string
	start, end   float64
	originRadius float64
	cancel       context.CancelFunc
	theme        Theme
	styles       styles

	frame    int
	step     int
	t        float64
	state    dynamo.State
	radii    []float64
	trail    []r3.Vec
	stopping bool

	done   bool
	result *propagation.Result
	err    error
}

// NewProgressModel builds the view of a run from start to end. originRadius
// is drawn as the central body and subtracted for the altitude; cancel is
// called when the user stops the run.
func NewProgressModel(name string, start, end, originRadius float64, cancel context.CancelFunc, theme Theme) ProgressModel {
	return ProgressModel{
		name:         name,
		start:        start,
		end:          end,
		originRadius: originRadius,
		cancel:       cancel,
		theme:        theme,
		styles:       newStyles(theme),
		t:            start,
	}
}

func (m ProgressModel) Init() tea.Cmd {
	return tick()
}

func (m ProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.done {
				return m, tea.Quit
			}
			if !m.stopping && m.cancel != nil {
				m.cancel()
			}
			m.stopping = true
		case "t":
			m.theme = NextTheme(m.theme)
			m.styles = newStyles(m.theme)
		}
	case StepMsg:
		m.observe(msg.Step, msg.Time, msg.State)
	case DoneMsg:
		m.done = true
		m.result, m.err = msg.Result, msg.Err
		if r := msg.Result; r != nil && len(r.Times) > 0 {
			last := len(r.Times) - 1
			m.observe(r.StepsTaken, r.Times[last], r.States[last])
		}
		return m, tea.Quit
	case tickMsg:
		m.frame++
		if !m.done {
			return m, tick()
		}
	}
	return m, nil
}

func (m *ProgressModel) observe(step int, t float64, x dynamo.State) {
	m.step, m.t, m.state = step, t, x
	if len(x) < dynamo.CartesianSize {
		return
	}
	p := x.Position(0)
	m.radii = append(m.radii, r3.Norm(p))
	m.trail = append(m.trail, p)
	if len(m.radii) > historyCapacity {
		m.radii = m.radii[1:]
		m.trail = m.trail[1:]
	}
}

// Fraction is the share of the time span already propagated.
func (m ProgressModel) Fraction() float64 {
	span := m.end - m.start
	if span == 0 {
		return 1
	}
	return math.Max(0, math.Min(1, (m.t-m.start)/span))
}

func (m ProgressModel) Result() (*propagation.Result, error) {
	return m.result, m.err
}

func (m ProgressModel) View() string {
	s := m.styles
	var b strings.Builder

	status := s.ok.Render(spinner(m.frame) + " RUNNING")
	switch {
	case m.done && m.err != nil:
		status = s.failed.Render("STOPPED: " + m.err.Error())
	case m.done:
		status = s.ok.Render("DONE")
	case m.stopping:
		status = s.warn.Render("STOPPING")
	}
	b.WriteString(s.title.Render(strings.ToUpper(m.name)) + "  " + status + "\n\n")
	b.WriteString(s.progressBar(m.Fraction(), barWidth) + fmt.Sprintf(" %5.1f%%\n\n", 100*m.Fraction()))

	row := func(label, value string) {
		b.WriteString(s.label.Render(label) + s.value.Render(value) + "\n")
	}
	row("Elapsed", fmt.Sprintf("%.1f s", m.t-m.start))
	row("Step", fmt.Sprintf("%d", m.step))
	if len(m.state) >= dynamo.CartesianSize {
		r := r3.Norm(m.state.Position(0))
		row("Distance", fmt.Sprintf("%.3f km", r/1e3))
		if m.originRadius > 0 {
			row("Altitude", fmt.Sprintf("%.3f km", (r-m.originRadius)/1e3))
		}
		row("Speed", fmt.Sprintf("%.3f m/s", r3.Norm(m.state.Velocity(0))))
	}
	b.WriteString(s.label.Render("Distance") + s.canvas.Render(sparkline(m.radii, barWidth)) + "\n")

	if m.result != nil && len(m.result.Metrics) > 0 {
		b.WriteString("\n" + s.title.Render("METRICS") + "\n")
		names := make([]string, 0, len(m.result.Metrics))
		for name := range m.result.Metrics {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			b.WriteString(fmt.Sprintf("  %s %s\n", s.label.Render(name), s.value.Render(fmt.Sprintf("%.6g", m.result.Metrics[name]))))
		}
	}
	b.WriteString("\n" + s.hint.Render("q: stop  t: theme ("+m.theme.Name+")"))

	stats := s.panel.Render(b.String())
	plot := s.panel.Render(s.canvas.Render(m.plot().String()))
	return lipgloss.JoinHorizontal(lipgloss.Top, plot, stats)
}

// plot draws the trail projected on the x-y plane of the origin, scaled to
// fit together with the central body.
func (m ProgressModel) plot() *Canvas {
	c := NewCanvas(canvasWidth, canvasHeight)
	cw, ch := canvasWidth*2, canvasHeight*4
	cx, cy := cw/2, ch/2

	extent := m.originRadius
	for _, p := range m.trail {
		extent = math.Max(extent, math.Max(math.Abs(p.X), math.Abs(p.Y)))
	}
	if extent == 0 {
		return c
	}
	scale := float64(min(cw, ch)/2-1) / extent

	if m.originRadius > 0 {
		c.DrawCircle(cx, cy, int(m.originRadius*scale))
	}
	for i, p := range m.trail {
		x, y := cx+int(p.X*scale), cy-int(p.Y*scale)
		if i == 0 {
			c.Set(x, y)
			continue
		}
		q := m.trail[i-1]
		c.DrawLine(cx+int(q.X*scale), cy-int(q.Y*scale), x, y)
	}
	return c
}
