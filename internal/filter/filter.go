package filter

import (
	"fieldtrack/internal/core/model"
)

// Stage is one smoothing step. A stage receives a batch of points and
// returns the transformed batch; non-coordinate fields must pass through
// unchanged.
type Stage interface {
	Name() string
	Apply(points []model.GpsPoint) []model.GpsPoint
}

// Chain applies stages in order. Stage state is scoped to a single Run so
// no trajectory leaks into the next batch; construct a fresh chain (or rely
// on stages allocating per-Apply state) per pipeline invocation.
type Chain struct {
	stages []Stage
}

// NewChain builds a pipeline from the given stages, applied left to right.
func NewChain(stages ...Stage) *Chain {
	return &Chain{stages: stages}
}

// Run feeds the batch through every stage in order and returns the result.
func (c *Chain) Run(points []model.GpsPoint) []model.GpsPoint {
	out := points
	for _, stage := range c.stages {
		out = stage.Apply(out)
	}
	return out
}

// Stages returns the configured stage list in application order.
func (c *Chain) Stages() []Stage {
	return c.stages
}
