package face

import (
	"bufio"
	"io"
)

// readTlvStream repeatedly reads one Type-Length-Value record at a time
// from r and invokes onFrame with the full encoded record (type, length
// and value bytes together, exactly as sent). It stops when onFrame
// returns false, when r returns an error, or at EOF.
//
// Unlike encoding.Reader, which parses an already-buffered slice, this
// walks an open connection one TLNum at a time so a frame never has to
// be fully buffered ahead of knowing its length.
func readTlvStream(r io.Reader, onFrame func(frame []byte) bool) error {
	br := bufio.NewReaderSize(r, 64*1024)

	for {
		typHdr, typVal, err := readVarNum(br)
		if err != nil {
			return err
		}
		lenHdr, length, err := readVarNum(br)
		if err != nil {
			return err
		}
		_ = typVal

		frame := make([]byte, len(typHdr)+len(lenHdr)+int(length))
		n := copy(frame, typHdr)
		n += copy(frame[n:], lenHdr)
		if _, err := io.ReadFull(br, frame[n:]); err != nil {
			return err
		}

		if !onFrame(frame) {
			return nil
		}
	}
}

// readVarNum reads one NDN variable-length TLNum from br, returning both
// the raw header bytes (so the caller can re-emit them verbatim) and the
// decoded value.
func readVarNum(br *bufio.Reader) (raw []byte, val uint64, err error) {
	first, err := br.ReadByte()
	if err != nil {
		return nil, 0, err
	}

	var extra int
	switch {
	case first <= 0xfc:
		return []byte{first}, uint64(first), nil
	case first == 0xfd:
		extra = 2
	case first == 0xfe:
		extra = 4
	default:
		extra = 8
	}

	rest := make([]byte, extra)
	if _, err := io.ReadFull(br, rest); err != nil {
		return nil, 0, err
	}

	val = 0
	for _, b := range rest {
		val = val<<8 | uint64(b)
	}
	return append([]byte{first}, rest...), val, nil
}
