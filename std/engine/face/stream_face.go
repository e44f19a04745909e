package face

import (
	"fmt"
	"io"
	"net"
)

// StreamFace is a face that uses a stream connection (Unix domain
// socket or TCP), used in place of a raw memif ring wherever the
// producer or consumer runs off-host from its forwarder.
type StreamFace struct {
	baseFace
	network string
	addr    string
	conn    net.Conn
}

// NewStreamFace constructs a StreamFace over the given network/address
// pair (e.g. "unix", "/run/nfd.sock"), with the given dataroom limit.
func NewStreamFace(network string, addr string, local bool, dataroom int) *StreamFace {
	return &StreamFace{
		baseFace: newBaseFace(local, dataroom),
		network:  network,
		addr:     addr,
	}
}

// String returns a human-readable identifier for log lines.
func (f *StreamFace) String() string {
	return fmt.Sprintf("stream-face (%s://%s)", f.network, f.addr)
}

// Open dials the configured network/address, verifies the required
// callbacks are set, and starts the receive loop in a goroutine.
func (f *StreamFace) Open() error {
	if f.IsRunning() {
		return fmt.Errorf("face is already running")
	}

	if f.onError == nil || f.onPkt == nil {
		return fmt.Errorf("face callbacks are not set")
	}

	c, err := net.Dial(f.network, f.addr)
	if err != nil {
		return err
	}

	f.conn = c
	f.setStateUp()
	go f.receive()

	return nil
}

// Close marks the face closed and closes the underlying connection.
func (f *StreamFace) Close() error {
	if f.setStateClosed() {
		if f.conn != nil {
			return f.conn.Close()
		}
	}
	return nil
}

// Send writes one encoded packet to the stream, rejecting it outright
// if it exceeds the face's dataroom.
func (f *StreamFace) Send(pkt []byte) error {
	if !f.IsRunning() {
		return ErrFaceNotRunning
	}
	if err := f.checkSize(pkt); err != nil {
		return err
	}

	f.sendMut.Lock()
	defer f.sendMut.Unlock()

	_, err := f.conn.Write(pkt)
	return err
}

// SendBatch writes each packet in turn, stopping at the first rejected
// or failed write so the caller can retry the remainder.
func (f *StreamFace) SendBatch(pkts [][]byte) (accepted int, err error) {
	for _, pkt := range pkts {
		if err := f.Send(pkt); err != nil {
			return accepted, err
		}
		accepted++
	}
	return accepted, nil
}

// receive reads TLV-framed packets off the stream until the face stops
// running, delivering each to the registered packet handler.
func (f *StreamFace) receive() {
	defer f.setStateDown()

	err := readTlvStream(f.conn, func(b []byte) bool {
		f.onPkt(b)
		return f.IsRunning()
	})

	if f.IsRunning() {
		if err != nil {
			f.onError(err)
		} else {
			f.onError(io.EOF)
		}
	}
}
