// Package health holds per-process readiness state. Components flip the flag
// (consumer supervisors mark the service unready when they give up on the
// broker) and the HTTP surface reports it.
package health

import "sync/atomic"

type Checker struct {
	ready atomic.Bool
}

func NewChecker() *Checker { return &Checker{} }

func (c *Checker) SetReady(v bool) { c.ready.Store(v) }

func (c *Checker) Ready() bool { return c.ready.Load() }
