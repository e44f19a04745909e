package pipeline

import (
	"time"

	"github.com/n-dise/ndnft/ft/wire"
)

// pitEntry owns everything the PIT invariants (§3) require: the
// Interest template, its PIT-token, the consumer it belongs to, when it
// was expressed, its lifetime, and its retry counter. The FIFO timeout
// order (in pit.order) and this map are both owned exclusively by the
// pipeline's run-loop goroutine (§5); nothing else may touch them.
type pitEntry struct {
	token       uint64
	consumerID  uint64
	queue       *consumerQueue
	name        wire.Interest // template: name/lifetime/flags, Nonce refreshed on (re)transmit
	expressedAt time.Time
	lifetime    time.Duration
	retries     int
}

// maxRetries is the retry budget a PIT entry is abandoned at (§3, §8
// invariant 4).
const maxRetries = 8

// pit is the pending-Interest table: a map from PIT-token to entry,
// plus the FIFO order timeouts are scanned in (§3, §4.1 Timeout).
type pit struct {
	entries map[uint64]*pitEntry
	order   []uint64
}

func newPit() *pit {
	return &pit{entries: make(map[uint64]*pitEntry)}
}

func (p *pit) len() int { return len(p.entries) }

// insert adds e to both the token map and the back of the FIFO order.
func (p *pit) insert(e *pitEntry) {
	p.entries[e.token] = e
	p.order = append(p.order, e.token)
}

// get looks up an entry by token without removing it.
func (p *pit) get(token uint64) (*pitEntry, bool) {
	e, ok := p.entries[token]
	return e, ok
}

// erase removes an entry by token. The stale token is left in the FIFO
// order and skipped lazily the next time it reaches the head (§4.1
// Timeout: "If the PIT entry for the head token no longer exists, pop
// it (already satisfied) and continue.").
func (p *pit) erase(token uint64) {
	delete(p.entries, token)
}

// refresh replaces e's token with a freshly minted one, re-enqueues it
// at the back of the FIFO order, and resets expressedAt. The consumer
// id is preserved; the retry counter and the Interest's nonce are
// adjusted by the caller.
func (p *pit) refresh(e *pitEntry, now time.Time) {
	delete(p.entries, e.token)
	e.token = tokenGen.next64()
	e.expressedAt = now
	p.entries[e.token] = e
	p.order = append(p.order, e.token)
}

// popExpiredFront pops and returns the head of the FIFO order once it
// names an expired, still-live PIT entry. Returns ok=false once the
// head is live-and-unexpired or the order is empty, per §4.1 Timeout
// ("scanning order equals insertion order ... stop (later entries are
// younger)").
func (p *pit) popExpiredFront(now time.Time) (e *pitEntry, ok bool) {
	for len(p.order) > 0 {
		token := p.order[0]
		entry, present := p.entries[token]
		if !present {
			p.order = p.order[1:]
			continue
		}
		if now.Sub(entry.expressedAt) < entry.lifetime {
			return nil, false
		}
		p.order = p.order[1:]
		return entry, true
	}
	return nil, false
}
