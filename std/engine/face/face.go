// Package face implements the Face abstraction of spec.md §4.4: a thin
// reactor around a byte-pipe transport that dispatches inbound frames to
// a single handler and accepts batches of outbound frames, rejecting
// anything larger than the configured dataroom. The shared-memory memif
// ring itself is an external, opaque transport (spec.md §1); this
// package's two concrete Face implementations (Unix/TCP stream, and
// WebSocket) stand in for it wherever a byte-pipe with the same
// contract is needed.
package face

import "fmt"

// Face is the reactor interface the pipeline and the producer
// dispatcher both depend on.
type Face interface {
	fmt.Stringer

	IsRunning() bool
	IsLocal() bool

	// Dataroom is the maximum payload size this face's transport
	// accepts in one frame.
	Dataroom() int

	Open() error
	Close() error

	// OnPacket registers the single inbound-frame handler. Must be
	// called before Open.
	OnPacket(func(frame []byte))
	// OnError registers the transport error handler. Must be called
	// before Open.
	OnError(func(err error))

	// OnDisconnect registers an observer notified when the face drops;
	// both the pipeline and the producer dispatcher subscribe (§4.4).
	// Returns a function that cancels the subscription.
	OnDisconnect(func()) (cancel func())

	// Send submits one encoded packet, returning an error if the face
	// is down or the packet exceeds Dataroom.
	Send(pkt []byte) error

	// SendBatch submits multiple encoded packets as one transport call,
	// returning the number accepted before a send failure (if any).
	// Packets past the first rejection are left unsent so the caller
	// can retry them.
	SendBatch(pkts [][]byte) (accepted int, err error)
}

// ErrPacketTooLarge is returned by Send/SendBatch when a packet exceeds
// the face's dataroom.
type ErrPacketTooLarge struct {
	Size, Dataroom int
}

func (e ErrPacketTooLarge) Error() string {
	return fmt.Sprintf("packet of %d bytes exceeds dataroom of %d bytes", e.Size, e.Dataroom)
}

// ErrFaceNotRunning is returned when an operation is attempted on a
// face that is closed or has not yet been opened.
var ErrFaceNotRunning = fmt.Errorf("face is not running")
