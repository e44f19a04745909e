package encoding

import "encoding/binary"

// TLNum is a TLV Type or Length number, encoded using NDN's
// variable-length scheme: 1, 3, 5 or 9 bytes depending on magnitude.
type TLNum uint64

// EncodingLength returns how many bytes this value occupies once encoded.
func (v TLNum) EncodingLength() int {
	switch x := uint64(v); {
	case x <= 0xfc:
		return 1
	case x <= 0xffff:
		return 3
	case x <= 0xffffffff:
		return 5
	default:
		return 9
	}
}

// EncodeInto writes the TLNum into buf (which must be at least
// EncodingLength() bytes) and returns the number of bytes written.
func (v TLNum) EncodeInto(buf []byte) int {
	switch x := uint64(v); {
	case x <= 0xfc:
		buf[0] = byte(x)
		return 1
	case x <= 0xffff:
		buf[0] = 0xfd
		binary.BigEndian.PutUint16(buf[1:], uint16(x))
		return 3
	case x <= 0xffffffff:
		buf[0] = 0xfe
		binary.BigEndian.PutUint32(buf[1:], uint32(x))
		return 5
	default:
		buf[0] = 0xff
		binary.BigEndian.PutUint64(buf[1:], x)
		return 9
	}
}

// ParseTLNum reads a TLNum from the front of buf, returning the value and
// the number of bytes it occupied.
func ParseTLNum(buf []byte) (val TLNum, n int, err error) {
	if len(buf) < 1 {
		return 0, 0, ErrBufferOverflow
	}
	switch x := buf[0]; {
	case x <= 0xfc:
		return TLNum(x), 1, nil
	case x == 0xfd:
		if len(buf) < 3 {
			return 0, 0, ErrBufferOverflow
		}
		return TLNum(binary.BigEndian.Uint16(buf[1:3])), 3, nil
	case x == 0xfe:
		if len(buf) < 5 {
			return 0, 0, ErrBufferOverflow
		}
		return TLNum(binary.BigEndian.Uint32(buf[1:5])), 5, nil
	default:
		if len(buf) < 9 {
			return 0, 0, ErrBufferOverflow
		}
		return TLNum(binary.BigEndian.Uint64(buf[1:9])), 9, nil
	}
}

// Reader walks a single contiguous buffer, tracking position, for TLV
// parsing. It is intentionally simpler than a generic io.Reader-based
// parser since every packet format in this module is small and already
// fully buffered in memory by the Face layer.
type Reader struct {
	buf []byte
	pos int
}

// NewReader wraps buf for sequential TLV parsing.
func NewReader(buf []byte) *Reader { return &Reader{buf: buf} }

// Pos returns the current read offset.
func (r *Reader) Pos() int { return r.pos }

// Len returns the number of unread bytes remaining.
func (r *Reader) Len() int { return len(r.buf) - r.pos }

// ReadTLNum consumes and returns a TLNum from the current position.
func (r *Reader) ReadTLNum() (TLNum, error) {
	v, n, err := ParseTLNum(r.buf[r.pos:])
	if err != nil {
		return 0, err
	}
	r.pos += n
	return v, nil
}

// ReadBytes consumes and returns the next n bytes verbatim (no copy).
func (r *Reader) ReadBytes(n int) ([]byte, error) {
	if n < 0 || r.pos+n > len(r.buf) {
		return nil, ErrBufferOverflow
	}
	out := r.buf[r.pos : r.pos+n]
	r.pos += n
	return out, nil
}

// ReadNat reads a TLV-Length-prefixed non-negative integer (1,2,4,8 bytes,
// big endian, no varint prefix other than the enclosing TLV length).
func ReadNat(buf []byte) (uint64, error) {
	switch len(buf) {
	case 1:
		return uint64(buf[0]), nil
	case 2:
		return uint64(binary.BigEndian.Uint16(buf)), nil
	case 4:
		return uint64(binary.BigEndian.Uint32(buf)), nil
	case 8:
		return binary.BigEndian.Uint64(buf), nil
	default:
		return 0, ErrFormat{Msg: "invalid NonNegativeInteger length"}
	}
}

// EncodeNat encodes v into the smallest NDN NonNegativeInteger width.
func EncodeNat(v uint64) []byte {
	switch {
	case v <= 0xff:
		return []byte{byte(v)}
	case v <= 0xffff:
		b := make([]byte, 2)
		binary.BigEndian.PutUint16(b, uint16(v))
		return b
	case v <= 0xffffffff:
		b := make([]byte, 4)
		binary.BigEndian.PutUint32(b, uint32(v))
		return b
	default:
		b := make([]byte, 8)
		binary.BigEndian.PutUint64(b, v)
		return b
	}
}

// TLVBlock encodes a (type, value) pair as type-length-value and appends
// it to dst.
func TLVBlock(dst []byte, typ TLNum, val []byte) []byte {
	var tbuf [9]byte
	tn := typ.EncodeInto(tbuf[:])
	dst = append(dst, tbuf[:tn]...)
	var lbuf [9]byte
	ln := TLNum(len(val)).EncodeInto(lbuf[:])
	dst = append(dst, lbuf[:ln]...)
	dst = append(dst, val...)
	return dst
}

// TLVNatBlock encodes a NonNegativeInteger TLV field.
func TLVNatBlock(dst []byte, typ TLNum, v uint64) []byte {
	return TLVBlock(dst, typ, EncodeNat(v))
}

// ReadTLV reads one (type, value) pair from r.
func (r *Reader) ReadTLV() (typ TLNum, val []byte, err error) {
	typ, err = r.ReadTLNum()
	if err != nil {
		return 0, nil, err
	}
	length, err := r.ReadTLNum()
	if err != nil {
		return 0, nil, err
	}
	val, err = r.ReadBytes(int(length))
	if err != nil {
		return 0, nil, err
	}
	return typ, val, nil
}
