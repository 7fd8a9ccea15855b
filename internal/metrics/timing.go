package metrics

import (
	"fmt"
	"time"

	"github.com/montanaflynn/stats"

	"github.com/san-kum/tecolab/internal/storage"
)

// ComputeTime is a percentile of the control law duration, in
// milliseconds, over the cycles where the law ran.
type ComputeTime struct {
	name       string
	percentile float64
	samples    stats.Float64Data
}

func NewComputeTime(percentile float64) *ComputeTime {
	return &ComputeTime{
		name:       fmt.Sprintf("compute_ms_p%g", percentile),
		percentile: percentile,
	}
}

func (c *ComputeTime) Name() string { return c.name }

func (c *ComputeTime) Observe(r storage.Record) {
	if !r.New {
		return
	}
	c.samples = append(c.samples, float64(r.Duration)/float64(time.Millisecond))
}

func (c *ComputeTime) Value() float64 {
	if len(c.samples) == 0 {
		return 0
	}
	v, err := stats.Percentile(c.samples, c.percentile)
	if err != nil {
		return 0
	}
	return v
}

func (c *ComputeTime) Reset() { c.samples = c.samples[:0] }
