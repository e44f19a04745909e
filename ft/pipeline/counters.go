package pipeline

import (
	"sync/atomic"
	"time"
)

// Counters are the monotonic pipeline statistics exposed by
// Pipeline.Counters (§4.1): tx, rx, NACKs, timeouts, unexpected
// responses, and a cumulative delay sum. Safe to read concurrently
// with the pipeline's run loop.
type Counters struct {
	Tx         uint64
	Rx         uint64
	Nacks      uint64
	Timeouts   uint64
	Unexpected uint64
	DelaySum   time.Duration
}

type atomicCounters struct {
	tx         atomic.Uint64
	rx         atomic.Uint64
	nacks      atomic.Uint64
	timeouts   atomic.Uint64
	unexpected atomic.Uint64
	delaySumNs atomic.Int64
}

func (c *atomicCounters) addTx(n uint64)       { c.tx.Add(n) }
func (c *atomicCounters) addRx()               { c.rx.Add(1) }
func (c *atomicCounters) addNack()             { c.nacks.Add(1) }
func (c *atomicCounters) addTimeout()          { c.timeouts.Add(1) }
func (c *atomicCounters) addUnexpected()       { c.unexpected.Add(1) }
func (c *atomicCounters) addDelay(d time.Duration) { c.delaySumNs.Add(int64(d)) }

func (c *atomicCounters) snapshot() Counters {
	return Counters{
		Tx:         c.tx.Load(),
		Rx:         c.rx.Load(),
		Nacks:      c.nacks.Load(),
		Timeouts:   c.timeouts.Load(),
		Unexpected: c.unexpected.Load(),
		DelaySum:   time.Duration(c.delaySumNs.Load()),
	}
}
