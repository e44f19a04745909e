package pipeline

import (
	"crypto/rand"
	"encoding/binary"
	"sync"
)

// tokenGen is the process-global PIT-token counter (§9 design notes:
// "a process-global 64-bit counter seeded from a secure RNG,
// incremented under a mutex. Collisions across pipelines are
// tolerable because the PIT is per-pipeline.").
var tokenGen = newTokenGenerator()

type tokenGenerator struct {
	mu   sync.Mutex
	next uint64
}

func newTokenGenerator() *tokenGenerator {
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		// crypto/rand failing means the platform RNG is broken; a
		// zero seed still yields a valid, merely predictable, token
		// stream rather than a crash.
		seed = [8]byte{}
	}
	return &tokenGenerator{next: binary.BigEndian.Uint64(seed[:])}
}

// next64 returns the next PIT-token value.
func (g *tokenGenerator) next64() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.next++
	return g.next
}
