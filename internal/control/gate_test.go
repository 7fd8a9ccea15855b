package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func firings(g *Gate, checks int) []int {
	var fired []int
	for i := 1; i <= checks; i++ {
		if g.Check() {
			fired = append(fired, i)
		}
	}
	return fired
}

func TestGate(t *testing.T) {
	tests := []struct {
		name      string
		period    int
		corrected bool
		want      []int
	}{
		{"every check", 0, false, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
		{"period 1", 1, false, []int{2, 4, 6, 8, 10, 12}},
		{"period 3", 3, false, []int{4, 8, 12}},
		{"period 5", 5, false, []int{6, 12}},
		{"corrected period 3", 3, true, []int{3, 6, 9, 12}},
		{"corrected period 0", 0, true, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, firings(NewGate(tt.period, tt.corrected), 12))
		})
	}
}

func TestGateInterval(t *testing.T) {
	assert.Equal(t, 5, NewGate(4, false).Interval())
	assert.Equal(t, 4, NewGate(4, true).Interval())
	assert.Equal(t, 1, NewGate(-3, false).Interval())
}

func TestGateReset(t *testing.T) {
	g := NewGate(2, false)
	g.Check()
	g.Check()
	g.Reset()
	assert.Equal(t, []int{3}, firings(g, 3))
}
