package viz

import (
	"fmt"
	"strings"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/san-kum/tecolab/internal/storage"
	"github.com/san-kum/tecolab/internal/thermal"
)

const (
	historyCapacity = 600
	plotWidth       = 60
	plotHeight      = 10
)

// Feed forwards records from the control loop to the monitor. Observe
// never blocks; records are dropped when the UI falls behind.
type Feed struct {
	ch      chan storage.Record
	dropped atomic.Int64
	closed  atomic.Bool
}

// NewFeed returns a feed buffering up to size records.
func NewFeed(size int) *Feed {
	if size < 1 {
		size = 1
	}
	return &Feed{ch: make(chan storage.Record, size)}
}

func (f *Feed) Observe(r storage.Record) {
	if f.closed.Load() {
		return
	}
	select {
	case f.ch <- r:
	default:
		f.dropped.Add(1)
	}
}

// Dropped counts records discarded because the buffer was full.
func (f *Feed) Dropped() int64 { return f.dropped.Load() }

// Close ends the feed. It must be called from the goroutine that calls
// Observe, after the last Observe.
func (f *Feed) Close() {
	if f.closed.CompareAndSwap(false, true) {
		close(f.ch)
	}
}

// RecordMsg carries one control cycle into the model.
type RecordMsg storage.Record

// DoneMsg signals that the feed was closed.
type DoneMsg struct{}

func waitForRecord(ch <-chan storage.Record) tea.Cmd {
	return func() tea.Msg {
		r, ok := <-ch
		if !ok {
			return DoneMsg{}
		}
		return RecordMsg(r)
	}
}

// Monitor is the live experiment view.
type Monitor struct {
	title   string
	final   int64
	feed    *Feed
	cancel  func()
	series  Series
	last    storage.Record
	cycles  int
	stopped bool
	done    bool
	width   int
}

// NewMonitor returns a monitor for an experiment lasting finalMs. cancel is
// called when the user asks to stop.
func NewMonitor(title string, finalMs int64, feed *Feed, cancel func()) Monitor {
	return Monitor{
		title:  title,
		final:  finalMs,
		feed:   feed,
		cancel: cancel,
		width:  plotWidth,
	}
}

func (m Monitor) Init() tea.Cmd {
	return waitForRecord(m.feed.ch)
}

func (m Monitor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			if m.done {
				return m, tea.Quit
			}
			if !m.stopped && m.cancel != nil {
				m.cancel()
			}
			m.stopped = true
		}
	case tea.WindowSizeMsg:
		m.width = min(max(msg.Width-20, 20), 120)
	case RecordMsg:
		r := storage.Record(msg)
		m.last = r
		m.cycles++
		m.series.Append(r)
		m.series.Trim(historyCapacity)
		return m, waitForRecord(m.feed.ch)
	case DoneMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m Monitor) progress() float64 {
	if m.final <= 0 {
		return 0
	}
	return float64(m.last.Time) / float64(m.final)
}

func (m Monitor) View() string {
	var s strings.Builder
	status := StatusRunning.Render("RUNNING")
	switch {
	case m.done:
		status = StatusStopped.Render("FINISHED")
	case m.stopped:
		status = StatusStopped.Render("STOPPING")
	case m.last.Temps.Heater1 >= thermal.OverheatLimit || m.last.Temps.Heater2 >= thermal.OverheatLimit:
		status = StatusFault.Render("OVERHEAT")
	}
	s.WriteString(Title.Render(strings.ToUpper(m.title)) + "  " + status + "\n")
	s.WriteString(ProgressBar(m.progress(), 40) + fmt.Sprintf("  %.1f / %.1f s\n\n",
		float64(m.last.Time)/1000, float64(m.final)/1000))

	if plot := m.series.Temperatures(m.width, plotHeight); plot != "" {
		s.WriteString(plot + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	t := m.last.Temps
	row("H1", fmt.Sprintf("%6.2f °C  sp %6.2f", t.Heater1, Setpoint(m.last, thermal.Heater1)))
	row("H2", fmt.Sprintf("%6.2f °C  sp %6.2f", t.Heater2, Setpoint(m.last, thermal.Heater2)))
	row("Ambient", fmt.Sprintf("%6.2f °C  ", t.Ambient)+Sparkline(m.series.Amb, 20))
	s.WriteString(Separator(40) + "\n")
	for _, ch := range thermal.Channels() {
		d := m.last.Disturbed[ch]
		s.WriteString(MetricLabel.Render(ch.String()) + DutyBar(d, 20) +
			MetricValue.Render(fmt.Sprintf(" %5.1f%%", d)) +
			Subtle.Render(fmt.Sprintf("  computed %5.1f%%", m.last.Computed[ch])) + "\n")
	}
	s.WriteString(Separator(40) + "\n")
	row("Cycles", fmt.Sprintf("%d", m.cycles))
	row("Control", fmt.Sprintf("%.3f ms", float64(m.last.Duration.Microseconds())/1000))
	if n := m.feed.Dropped(); n > 0 {
		row("Dropped", fmt.Sprintf("%d", n))
	}
	s.WriteString("\n" + KeyHint.Render("q: stop experiment"))
	return Panel.Render(s.String())
}
