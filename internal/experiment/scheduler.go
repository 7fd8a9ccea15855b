package experiment

// Scheduler replays a Table against elapsed wall-clock time. All times are
// in milliseconds.
type Scheduler struct {
	table         *Table
	period        int64
	final         int64
	start         int64
	elapsed       int64
	lastIteration int64
	started       bool
	running       bool
	active        Active
	activeIndex   int
}

// NewScheduler returns a scheduler firing at most once every periodMs.
func NewScheduler(t *Table, periodMs int64) *Scheduler {
	if periodMs < 1 {
		periodMs = 1
	}
	return &Scheduler{
		table:       t,
		period:      periodMs,
		final:       t.Final(),
		running:     true,
		active:      Row{}.Resolve(),
		activeIndex: -1,
	}
}

// Start marks nowMillis as the experiment origin.
func (s *Scheduler) Start(nowMillis int64) {
	s.start = nowMillis
	s.elapsed = 0
	s.lastIteration = 0
	s.started = true
	s.running = true
}

// Tick reports whether a control cycle is due at nowMillis. It ends the
// experiment once the final timestamp has elapsed. A scheduler that was
// never started starts at the first tick.
func (s *Scheduler) Tick(nowMillis int64) bool {
	if !s.running {
		return false
	}
	if !s.started {
		s.Start(nowMillis)
	}
	s.elapsed = nowMillis - s.start
	if s.elapsed >= s.final {
		s.running = false
		return false
	}
	if s.elapsed-s.lastIteration < s.period {
		return false
	}
	s.lastIteration = s.elapsed
	s.activate(s.table.At(s.elapsed))
	return true
}

func (s *Scheduler) activate(i int) {
	if i == s.activeIndex {
		return
	}
	s.activeIndex = i
	if i < 0 {
		s.active = Row{}.Resolve()
		return
	}
	s.active = s.table.Row(i).Resolve()
}

// Stop ends the experiment early.
func (s *Scheduler) Stop() { s.running = false }

// Running reports whether the experiment is still in progress.
func (s *Scheduler) Running() bool { return s.running }

// Active returns the row selected by the last cycle.
func (s *Scheduler) Active() Active { return s.active }

// ActiveIndex returns the table index of the active row, or -1.
func (s *Scheduler) ActiveIndex() int { return s.activeIndex }

// Elapsed returns the elapsed time computed by the last tick.
func (s *Scheduler) Elapsed() int64 { return s.elapsed }

// Final returns the timestamp at which the experiment ends.
func (s *Scheduler) Final() int64 { return s.final }

// Period returns the control period.
func (s *Scheduler) Period() int64 { return s.period }

// Until returns the milliseconds left before the next cycle is due at
// nowMillis, or zero when it is already due.
func (s *Scheduler) Until(nowMillis int64) int64 {
	if !s.started {
		return 0
	}
	due := s.start + s.lastIteration + s.period
	if end := s.start + s.final; end < due {
		due = end
	}
	if wait := due - nowMillis; wait > 0 {
		return wait
	}
	return 0
}
