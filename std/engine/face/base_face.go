package face

import (
	"sync"
	"sync/atomic"
)

// baseFace is the base struct for face implementations: an up/down flag,
// the inbound packet and error handlers, and the disconnect-observer
// registry that the pipeline and producer dispatcher both subscribe to
// (spec.md §4.4). Concrete transports (StreamFace, WebSocketFace) embed this
// and fill in Open/Close/Send.
type baseFace struct {
	running  atomic.Bool
	local    bool
	dataroom int
	onPkt    func(frame []byte)
	onError  func(err error)
	sendMut  sync.Mutex

	onDown   sync.Map
	onDnHndl int
}

// Constructs a baseFace with the specified local flag and dataroom,
// and initializes an empty sync.Map for onDown event handlers.
func newBaseFace(local bool, dataroom int) baseFace {
	return baseFace{
		local:    local,
		dataroom: dataroom,
		onDown:   sync.Map{},
	}
}

// Returns true if the face is currently running.
func (f *baseFace) IsRunning() bool {
	return f.running.Load()
}

// Returns true if the face is local (e.g., connected to a local NDN daemon).
func (f *baseFace) IsLocal() bool {
	return f.local
}

// Dataroom returns the maximum payload size this face's transport
// accepts in one frame; 0 means unbounded.
func (f *baseFace) Dataroom() int {
	return f.dataroom
}

// Sets the callback function to be invoked when a packet is received on this face, passing the raw packet data as a byte slice.
func (f *baseFace) OnPacket(onPkt func(frame []byte)) {
	f.onPkt = onPkt
}

// Sets the error handler function to be called when an error occurs on this face, passing the error as an argument.
func (f *baseFace) OnError(onError func(err error)) {
	f.onError = onError
}

// OnDisconnect registers a callback invoked when the face drops and
// returns a function to cancel the registration.
func (f *baseFace) OnDisconnect(onDown func()) (cancel func()) {
	hndl := f.onDnHndl
	f.onDown.Store(hndl, onDown)
	f.onDnHndl++
	return func() { f.onDown.Delete(hndl) }
}

// setStateDown sets the face to down state, and makes the down
// callback if the face was previously up.
func (f *baseFace) setStateDown() {
	if f.running.Swap(false) {
		f.onDown.Range(func(_, cb any) bool {
			cb.(func())()
			return true
		})
	}
}

// setStateUp sets the face to up state.
func (f *baseFace) setStateUp() {
	f.running.Store(true)
}

// setStateClosed sets the face to closed state without
// making the onDown callback. Returns if the face was running.
func (f *baseFace) setStateClosed() bool {
	return f.running.Swap(false)
}

func (f *baseFace) checkSize(pkt []byte) error {
	if f.dataroom > 0 && len(pkt) > f.dataroom {
		return ErrPacketTooLarge{Size: len(pkt), Dataroom: f.dataroom}
	}
	return nil
}
