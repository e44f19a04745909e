// Package pipeline implements the congestion-controlled Interest
// pipeline (§4.1): a pending-Interest table with a FIFO timeout order,
// a fixed-window or AIMD congestion controller, and per-consumer
// response demultiplexing. A single worker goroutine owns the PIT and
// the timeout order (§5); every other method only touches the
// consumer registry (guarded by a mutex) and channels into that
// goroutine.
package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/n-dise/ndnft/std/engine/face"
	"github.com/n-dise/ndnft/std/log"
	"github.com/n-dise/ndnft/std/ndn"
	"github.com/n-dise/ndnft/ft/wire"
)

// Variant selects the congestion-control strategy at construction
// (§9: chosen once, static thereafter).
type Variant int

const (
	VariantFixed Variant = iota
	VariantAIMD
)

// ErrNoData is returned by a non-blocking Pop/PopBulk call that finds
// the consumer's delivery queue currently empty.
var ErrNoData = errors.New("pipeline: no data available")

// ErrAborted is the null-sentinel error delivered to (and returned
// from) a consumer's queue when the pipeline cannot satisfy a request
// (§3, §4.1 Response routing / Timeout, §7).
var ErrAborted = errors.New("pipeline: request aborted")

// idleTick bounds how long the run loop can go without re-scanning
// the PIT for expired entries when no packets or pushes arrive.
const idleTick = 5 * time.Millisecond

// maxBatch is the per-iteration transmit cap (§4.1 step 4).
const maxBatch = 64

type delivery struct {
	data *wire.Data
	err  error
}

type consumerQueue struct {
	ch chan delivery
}

type pushRecord struct {
	consumerID uint64
	queue      *consumerQueue
	interest   *wire.Interest
}

// Pipeline is the public contract described in §4.1.
type Pipeline interface {
	Push(consumerID uint64, i *wire.Interest) error
	PushBulk(consumerID uint64, items []*wire.Interest) error
	Pop(consumerID uint64) (*wire.Data, error)
	PopBulk(consumerID uint64, max int) ([]*wire.Data, error)
	// PopWait blocks on consumerID's own delivery queue (§5
	// Suspension points) until a response arrives, timeout elapses, or
	// the pipeline closes.
	PopWait(consumerID uint64, timeout time.Duration) (*wire.Data, error)
	Register() uint64
	Unregister(consumerID uint64)
	Close()
	Counters() Counters
}

type pipelineImpl struct {
	face   face.Face
	window windowController

	pit     *pit
	pending []pushRecord

	regMu        sync.Mutex
	consumers    map[uint64]*consumerQueue
	nextConsumer atomic.Uint64

	counters atomicCounters

	inCh        chan []byte
	reqCh       chan []pushRecord
	closeCh     chan struct{}
	closeOnce   sync.Once
	cancelDisc  func()
}

// New constructs a Pipeline over f with the given congestion-control
// variant and initial window size, and starts its run-loop goroutine.
func New(variant Variant, windowSize int, f face.Face) Pipeline {
	p := &pipelineImpl{
		face:      f,
		pit:       newPit(),
		consumers: make(map[uint64]*consumerQueue),
		inCh:      make(chan []byte, 4096),
		reqCh:     make(chan []pushRecord, 4096),
		closeCh:   make(chan struct{}),
	}

	switch variant {
	case VariantAIMD:
		p.window = newAimdWindow(windowSize)
	default:
		p.window = newFixedWindow(windowSize)
	}

	f.OnPacket(func(frame []byte) {
		select {
		case p.inCh <- frame:
		case <-p.closeCh:
		}
	})
	f.OnError(func(err error) { log.Warn(p, "face error", "err", err) })
	p.cancelDisc = f.OnDisconnect(func() { p.Close() })

	if !f.IsRunning() {
		if err := f.Open(); err != nil {
			log.Error(p, "failed to open face", "err", err)
		}
	}

	go p.run()
	return p
}

func (p *pipelineImpl) String() string { return "file-transfer pipeline" }

// Push enqueues one pending-Interest record for consumerID.
func (p *pipelineImpl) Push(consumerID uint64, i *wire.Interest) error {
	return p.PushBulk(consumerID, []*wire.Interest{i})
}

// PushBulk enqueues multiple pending-Interest records for consumerID
// as a single batch. Does not block on window fullness (§4.1).
func (p *pipelineImpl) PushBulk(consumerID uint64, items []*wire.Interest) error {
	p.regMu.Lock()
	q, ok := p.consumers[consumerID]
	p.regMu.Unlock()
	if !ok {
		return ndn.ErrUnregisteredConsumer
	}

	recs := make([]pushRecord, len(items))
	for i, it := range items {
		recs[i] = pushRecord{consumerID: consumerID, queue: q, interest: it}
	}

	select {
	case p.reqCh <- recs:
		return nil
	case <-p.closeCh:
		return ndn.ErrClosed
	}
}

// Pop performs a non-blocking take from consumerID's delivery queue.
func (p *pipelineImpl) Pop(consumerID uint64) (*wire.Data, error) {
	p.regMu.Lock()
	q, ok := p.consumers[consumerID]
	p.regMu.Unlock()
	if !ok {
		return nil, ndn.ErrUnregisteredConsumer
	}

	select {
	case d := <-q.ch:
		if d.err != nil {
			return nil, d.err
		}
		return d.data, nil
	default:
		return nil, ErrNoData
	}
}

// PopWait blocks on consumerID's delivery queue until one response
// arrives, timeout elapses (ndn.ErrDeadlineExceed), or the pipeline
// closes (ndn.ErrClosed).
func (p *pipelineImpl) PopWait(consumerID uint64, timeout time.Duration) (*wire.Data, error) {
	p.regMu.Lock()
	q, ok := p.consumers[consumerID]
	p.regMu.Unlock()
	if !ok {
		return nil, ndn.ErrUnregisteredConsumer
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case d := <-q.ch:
		if d.err != nil {
			return nil, d.err
		}
		return d.data, nil
	case <-timer.C:
		return nil, ndn.ErrDeadlineExceed
	case <-p.closeCh:
		return nil, ndn.ErrClosed
	}
}

// PopBulk drains up to max deliveries from consumerID's queue without
// blocking past the first empty read.
func (p *pipelineImpl) PopBulk(consumerID uint64, max int) ([]*wire.Data, error) {
	p.regMu.Lock()
	q, ok := p.consumers[consumerID]
	p.regMu.Unlock()
	if !ok {
		return nil, ndn.ErrUnregisteredConsumer
	}

	out := make([]*wire.Data, 0, max)
	for len(out) < max {
		select {
		case d := <-q.ch:
			if d.err != nil {
				return out, d.err
			}
			out = append(out, d.data)
		default:
			return out, nil
		}
	}
	return out, nil
}

// Register allocates a new consumer id and its delivery queue.
func (p *pipelineImpl) Register() uint64 {
	id := p.nextConsumer.Add(1)
	p.regMu.Lock()
	p.consumers[id] = &consumerQueue{ch: make(chan delivery, 1024)}
	p.regMu.Unlock()
	return id
}

// Unregister removes a consumer's registration. Any delivery already
// in flight for it lands in a queue no one reads anymore, which is
// safe (§9 design notes).
func (p *pipelineImpl) Unregister(consumerID uint64) {
	p.regMu.Lock()
	delete(p.consumers, consumerID)
	p.regMu.Unlock()
}

// Close idempotently stops admission; in-flight packets are dropped.
func (p *pipelineImpl) Close() {
	p.closeOnce.Do(func() {
		close(p.closeCh)
		if p.cancelDisc != nil {
			p.cancelDisc()
		}
	})
}

// Counters returns a snapshot of the pipeline's monotonic statistics.
func (p *pipelineImpl) Counters() Counters { return p.counters.snapshot() }

func (p *pipelineImpl) deliver(q *consumerQueue, d delivery) {
	select {
	case q.ch <- d:
	default:
		log.Warn(p, "consumer delivery queue full, dropping response")
	}
}

// run is the pipeline's single worker goroutine: it services the
// transport, drains expired PIT entries, and transmits new Interests,
// in the order described by §4.1 Admission and transmission.
func (p *pipelineImpl) run() {
	ticker := time.NewTicker(idleTick)
	defer ticker.Stop()

	for {
		select {
		case <-p.closeCh:
			return
		case frame := <-p.inCh:
			p.onPacket(frame)
		case recs := <-p.reqCh:
			p.pending = append(p.pending, recs...)
		case <-ticker.C:
		}

		p.serviceTimeouts(time.Now())
		p.transmit()
	}
}

func (p *pipelineImpl) onPacket(frame []byte) {
	lp, err := wire.ParseLpPacket(frame)
	if err != nil {
		p.counters.addUnexpected()
		return
	}
	if !lp.HasPitToken {
		p.counters.addUnexpected()
		return
	}
	if lp.IsNack {
		p.onNack(lp.PitToken, lp.NackReason)
		return
	}

	d, err := wire.ParseData(lp.Fragment)
	if err != nil {
		p.counters.addUnexpected()
		return
	}
	p.onData(lp.PitToken, d, lp.CongestionMark)
}

// onData implements §4.1 Response routing for a matched Data.
func (p *pipelineImpl) onData(token uint64, d *wire.Data, congested bool) {
	entry, ok := p.pit.get(token)
	if !ok {
		p.counters.addUnexpected()
		return
	}

	p.counters.addRx()
	p.counters.addDelay(time.Since(entry.expressedAt))
	p.deliver(entry.queue, delivery{data: d})
	p.pit.erase(token)
	p.window.onData(congested)
}

// onNack implements §4.1 Response routing for a matched NACK.
func (p *pipelineImpl) onNack(token uint64, reason wire.NackReason) {
	entry, ok := p.pit.get(token)
	if !ok {
		p.counters.addUnexpected()
		return
	}

	p.counters.addNack()
	switch reason {
	case wire.NackReasonNone:
		// ignored
	case wire.NackReasonDuplicate:
		p.pit.refresh(entry, time.Now())
		p.retransmitOne(entry)
	default:
		p.deliver(entry.queue, delivery{err: ErrAborted})
		p.pit.erase(token)
	}
}

// serviceTimeouts drains expired PIT entries from the front of the
// FIFO order, refreshing or abandoning each per §4.1 Timeout.
func (p *pipelineImpl) serviceTimeouts(now time.Time) {
	for {
		entry, ok := p.pit.popExpiredFront(now)
		if !ok {
			return
		}

		p.counters.addTimeout()
		p.window.onTimeout()

		entry.retries++
		if entry.retries >= maxRetries {
			p.pit.erase(entry.token)
			p.deliver(entry.queue, delivery{err: ErrAborted})
			continue
		}
		p.pit.refresh(entry, now)
		p.retransmitOne(entry)
	}
}

// retransmitOne re-encodes entry's Interest template with a fresh
// nonce and LpPacket PIT-token and sends it immediately, outside the
// normal admission batch (used for NACK-duplicate and timeout
// refreshes, which must not wait for the next transmit cycle).
func (p *pipelineImpl) retransmitOne(entry *pitEntry) {
	interest := entry.name
	interest.Nonce = randNonce()

	lp := &wire.LpPacket{Fragment: interest.Encode(), PitToken: entry.token, HasPitToken: true}
	if err := p.face.Send(lp.Encode()); err != nil {
		p.fatal()
	}
}

// transmit implements §4.1 Admission and transmission steps 3-6.
func (p *pipelineImpl) transmit() {
	for p.pit.len() < p.window.capacity() && len(p.pending) > 0 {
		n := p.window.capacity() - p.pit.len()
		if n > maxBatch {
			n = maxBatch
		}
		if n > len(p.pending) {
			n = len(p.pending)
		}
		batch := p.pending[:n]

		tokens := make([]uint64, n)
		pkts := make([][]byte, n)
		for i, rec := range batch {
			interest := *rec.interest
			interest.Nonce = randNonce()
			tokens[i] = tokenGen.next64()

			lp := &wire.LpPacket{Fragment: interest.Encode(), PitToken: tokens[i], HasPitToken: true}
			pkts[i] = lp.Encode()
		}

		accepted, err := p.face.SendBatch(pkts)
		now := time.Now()
		for i := 0; i < accepted; i++ {
			rec := batch[i]
			p.pit.insert(&pitEntry{
				token:       tokens[i],
				consumerID:  rec.consumerID,
				queue:       rec.queue,
				name:        *rec.interest,
				expressedAt: now,
				lifetime:    rec.interest.Lifetime,
			})
		}
		p.counters.addTx(uint64(accepted))

		remaining := make([]pushRecord, 0, len(p.pending)-accepted)
		remaining = append(remaining, p.pending[accepted:n]...)
		remaining = append(remaining, p.pending[n:]...)
		p.pending = remaining

		if err != nil {
			p.fatal()
			return
		}
		if accepted < n {
			// transport refused the remainder; retry next iteration
			return
		}
	}
}

// fatal implements §4.1's failure semantics: a transport send failure
// is fatal for the pipeline. It closes itself and abandons every
// in-flight request.
func (p *pipelineImpl) fatal() {
	for _, entry := range p.pit.entries {
		p.deliver(entry.queue, delivery{err: ErrAborted})
	}
	p.Close()
}

func randNonce() uint32 {
	var b [4]byte
	_, _ = rand.Read(b[:])
	return binary.BigEndian.Uint32(b[:])
}
