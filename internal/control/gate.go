package control

// Gate throttles a control law to one evaluation every Interval checks.
//
// With Corrected unset the counter is reset to -Period after each firing,
// so the law runs on checks Period+1, 2(Period+1), ... The very first
// check never fires. Corrected fires every Period checks.
type Gate struct {
	Period    int
	Corrected bool

	counter int
}

// NewGate returns a gate with the given period. Negative periods are
// treated as zero.
func NewGate(period int, corrected bool) *Gate {
	if period < 0 {
		period = 0
	}
	return &Gate{Period: period, Corrected: corrected}
}

// Check counts one loop cycle and reports whether the law should run.
func (g *Gate) Check() bool {
	g.counter++
	if g.counter >= g.Interval() {
		g.counter = 0
		return true
	}
	return false
}

// Interval returns the number of checks between two firings.
func (g *Gate) Interval() int {
	if g.Corrected {
		if g.Period < 1 {
			return 1
		}
		return g.Period
	}
	return g.Period + 1
}

// Reset restarts the count.
func (g *Gate) Reset() { g.counter = 0 }
