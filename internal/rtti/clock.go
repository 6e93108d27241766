package rtti

import "sync/atomic"

// Clock hands out a registry's ledger sequence numbers. A handle entering
// the ledger takes one as its generation, and every ledger event takes one
// as its Seq, so within a registry no generation equals another generation
// or any event's Seq, and Seq order is the order transitions happened.
//
// Clock is safe for concurrent use.
type Clock struct {
	seq atomic.Int64
}

// NewClock returns a clock whose first number is 1.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt returns a clock whose first number is start+1. A registry
// resumed against an existing journal uses it to keep new generations
// disjoint from recorded ones.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.seq.Store(start)
	return c
}

// Next takes the next number.
func (c *Clock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last number taken, or the start value if none was.
func (c *Clock) Current() int64 {
	return c.seq.Load()
}
