package face

import (
	"fmt"
	"sync"

	"github.com/gorilla/websocket"
)

// WebSocketFace carries NDN frames over a WebSocket connection, used
// when the consumer or producer runs in an environment without direct
// socket access to its forwarder (e.g. behind a browser-facing proxy).
type WebSocketFace struct {
	baseFace
	url      string
	conn     *websocket.Conn
	writeMut sync.Mutex
}

// NewWebSocketFace constructs a WebSocketFace dialing the given URL.
func NewWebSocketFace(url string, local bool, dataroom int) *WebSocketFace {
	return &WebSocketFace{
		baseFace: newBaseFace(local, dataroom),
		url:      url,
	}
}

// String returns a human-readable identifier for log lines.
func (f *WebSocketFace) String() string {
	return fmt.Sprintf("websocket-face (%s)", f.url)
}

// Open dials the WebSocket URL, verifies the required callbacks are
// set, and starts the receive loop in a goroutine.
func (f *WebSocketFace) Open() error {
	if f.IsRunning() {
		return fmt.Errorf("face is already running")
	}

	if f.onError == nil || f.onPkt == nil {
		return fmt.Errorf("face callbacks are not set")
	}

	c, _, err := websocket.DefaultDialer.Dial(f.url, nil)
	if err != nil {
		return err
	}

	f.conn = c
	f.setStateUp()
	go f.receive()

	return nil
}

// Close marks the face closed and closes the underlying connection.
func (f *WebSocketFace) Close() error {
	if f.setStateClosed() {
		return f.conn.Close()
	}
	return nil
}

// Send writes one encoded packet as a binary WebSocket message,
// rejecting it outright if it exceeds the face's dataroom.
func (f *WebSocketFace) Send(pkt []byte) error {
	if !f.IsRunning() {
		return ErrFaceNotRunning
	}
	if err := f.checkSize(pkt); err != nil {
		return err
	}

	f.writeMut.Lock()
	defer f.writeMut.Unlock()
	return f.conn.WriteMessage(websocket.BinaryMessage, pkt)
}

// SendBatch writes each packet as its own WebSocket message, stopping
// at the first rejected or failed write so the caller can retry the
// remainder.
func (f *WebSocketFace) SendBatch(pkts [][]byte) (accepted int, err error) {
	for _, pkt := range pkts {
		if err := f.Send(pkt); err != nil {
			return accepted, err
		}
		accepted++
	}
	return accepted, nil
}

// receive reads binary WebSocket messages until the face stops running,
// delivering each to the registered packet handler.
func (f *WebSocketFace) receive() {
	defer f.setStateDown()

	for f.IsRunning() {
		messageType, pkt, err := f.conn.ReadMessage()
		if err != nil {
			if f.IsRunning() {
				f.onError(err)
			}
			return
		}

		if messageType != websocket.BinaryMessage {
			continue
		}

		f.onPkt(pkt)
	}
}
