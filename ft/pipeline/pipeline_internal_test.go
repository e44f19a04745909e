package pipeline

import (
	"sync"
	"testing"
	"time"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/ft/wire"
	"github.com/stretchr/testify/require"
)

// recordingFace is a minimal face.Face used to drive pipelineImpl's
// internals directly, bypassing New's goroutine so tests control
// timing precisely.
type recordingFace struct {
	mu   sync.Mutex
	sent [][]byte
}

func (f *recordingFace) String() string                     { return "recording-face" }
func (f *recordingFace) IsRunning() bool                     { return true }
func (f *recordingFace) IsLocal() bool                       { return true }
func (f *recordingFace) Dataroom() int                       { return 9000 }
func (f *recordingFace) Open() error                         { return nil }
func (f *recordingFace) Close() error                        { return nil }
func (f *recordingFace) OnPacket(func([]byte))                {}
func (f *recordingFace) OnError(func(error))                  {}
func (f *recordingFace) OnDisconnect(func()) (cancel func())  { return func() {} }

func (f *recordingFace) Send(pkt []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, pkt)
	return nil
}

func (f *recordingFace) SendBatch(pkts [][]byte) (int, error) {
	for _, p := range pkts {
		_ = f.Send(p)
	}
	return len(pkts), nil
}

func (f *recordingFace) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

// newTestPipeline builds a pipelineImpl without starting its run-loop
// goroutine, so serviceTimeouts/retransmitOne can be called directly
// and deterministically from the test goroutine.
func newTestPipeline(f *recordingFace) *pipelineImpl {
	return &pipelineImpl{
		face:      f,
		window:    newFixedWindow(64),
		pit:       newPit(),
		consumers: make(map[uint64]*consumerQueue),
		inCh:      make(chan []byte, 4096),
		reqCh:     make(chan []pushRecord, 4096),
		closeCh:   make(chan struct{}),
	}
}

// TestServiceTimeoutsRetransmitsUntilRetryBudgetExhausted exercises
// serviceTimeouts/retransmitOne directly (§8 invariant 4): each call
// with a now past the entry's lifetime retransmits once and bumps
// retries, until retries reaches maxRetries, at which point the entry
// is abandoned with ErrAborted and no further retransmit is sent.
func TestServiceTimeoutsRetransmitsUntilRetryBudgetExhausted(t *testing.T) {
	f := &recordingFace{}
	p := newTestPipeline(f)

	q := &consumerQueue{ch: make(chan delivery, 1)}
	entry := &pitEntry{
		token:       1,
		consumerID:  1,
		queue:       q,
		name:        wire.Interest{Name: enc.ParseName("/ndn/ft/data/file.bin/seg=0"), Lifetime: time.Millisecond},
		expressedAt: time.Now().Add(-time.Hour),
		lifetime:    time.Millisecond,
	}
	p.pit.insert(entry)

	now := time.Now()
	for i := 0; i < maxRetries; i++ {
		now = now.Add(time.Hour)
		p.serviceTimeouts(now)
	}

	require.Equal(t, 0, p.pit.len())
	require.Equal(t, maxRetries-1, f.count()) // no retransmit on the abandoning call

	select {
	case d := <-q.ch:
		require.Equal(t, ErrAborted, d.err)
	default:
		t.Fatal("expected an aborted delivery")
	}

	require.Equal(t, uint64(maxRetries), p.counters.snapshot().Timeouts)
}

// TestServiceTimeoutsLeavesUnexpiredEntryAlone confirms an entry whose
// lifetime has not yet elapsed is left untouched (§4.1 Timeout: "stop
// once the head is live-and-unexpired").
func TestServiceTimeoutsLeavesUnexpiredEntryAlone(t *testing.T) {
	f := &recordingFace{}
	p := newTestPipeline(f)

	q := &consumerQueue{ch: make(chan delivery, 1)}
	entry := &pitEntry{
		token:       1,
		consumerID:  1,
		queue:       q,
		name:        wire.Interest{Name: enc.ParseName("/ndn/ft/data/file.bin/seg=0"), Lifetime: time.Hour},
		expressedAt: time.Now(),
		lifetime:    time.Hour,
	}
	p.pit.insert(entry)

	p.serviceTimeouts(time.Now())

	require.Equal(t, 1, p.pit.len())
	require.Equal(t, 0, f.count())
	require.Equal(t, uint64(0), p.counters.snapshot().Timeouts)
}

// TestRetransmitOneRefreshesNonce confirms retransmitOne re-encodes
// the Interest template with a fresh nonce on every call rather than
// replaying the same wire bytes.
func TestRetransmitOneRefreshesNonce(t *testing.T) {
	f := &recordingFace{}
	p := newTestPipeline(f)

	entry := &pitEntry{
		token: 7,
		name:  wire.Interest{Name: enc.ParseName("/ndn/ft/data/file.bin/seg=0"), Lifetime: time.Second},
	}

	p.retransmitOne(entry)
	p.retransmitOne(entry)
	require.Equal(t, 2, f.count())

	f.mu.Lock()
	first, second := f.sent[0], f.sent[1]
	f.mu.Unlock()
	require.NotEqual(t, first, second)
}
