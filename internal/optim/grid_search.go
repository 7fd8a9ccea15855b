// Package optim searches controller parameters on simulated runs.
package optim

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// Objective scores one parameter set; lower is better.
type Objective func(ctx context.Context, params map[string]float64) (float64, error)

// Trial is one evaluated point of the grid.
type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

// NewGridSearch searches the cartesian product of ranges, one range per
// parameter name.
func NewGridSearch(params []string, ranges [][]float64, workers int) (*GridSearch, error) {
	if len(params) == 0 || len(params) != len(ranges) {
		return nil, errors.Errorf("optim: %d parameters for %d ranges", len(params), len(ranges))
	}
	for i, r := range ranges {
		if len(r) == 0 {
			return nil, errors.Errorf("optim: empty range for %s", params[i])
		}
	}
	if workers < 1 {
		workers = 1
	}
	return &GridSearch{paramNames: params, ranges: ranges, workers: workers}, nil
}

// Points enumerates the grid in lexical order of the ranges.
func (g *GridSearch) Points() []map[string]float64 {
	var out []map[string]float64
	g.collect(0, map[string]float64{}, &out)
	return out
}

func (g *GridSearch) collect(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}
	name := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[name] = val
		g.collect(depth+1, next, out)
	}
}

// Search evaluates every point and returns the trials sorted by score,
// best first. Failed or non-finite trials sort last. It fails only when
// no trial succeeded.
func (g *GridSearch) Search(ctx context.Context, objective Objective) ([]Trial, error) {
	points := g.Points()
	trials := make([]Trial, len(points))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < min(g.workers, len(points)); w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				score, err := objective(ctx, points[i])
				if err == nil && (math.IsNaN(score) || math.IsInf(score, 0)) {
					err = errors.Errorf("optim: non-finite score %v", score)
				}
				trials[i] = Trial{Params: points[i], Score: score, Err: err}
			}
		}()
	}
	for i := range points {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	sort.SliceStable(trials, func(i, j int) bool {
		if (trials[i].Err == nil) != (trials[j].Err == nil) {
			return trials[i].Err == nil
		}
		return trials[i].Score < trials[j].Score
	})
	if trials[0].Err != nil {
		return trials, errors.Wrap(trials[0].Err, "optim: every trial failed")
	}
	if err := ctx.Err(); err != nil {
		return trials, err
	}
	return trials, nil
}
