package wire

import enc "github.com/n-dise/ndnft/std/encoding"

// LpPacket is the link-layer wrapper the Face sends and receives
// (§3, §6): a network-layer fragment (an encoded Interest or Data)
// plus the fields the pipeline correlates on. PitToken is carried as
// an 8-byte big-endian integer per §3 ("opaque up to 32 bytes, here
// used as an 8-byte integer").
type LpPacket struct {
	Fragment       []byte
	PitToken       uint64
	HasPitToken    bool
	IsNack         bool
	NackReason     NackReason
	CongestionMark bool
}

// Encode renders p as its LpPacket TLV encoding.
func (p *LpPacket) Encode() []byte {
	var body []byte
	if p.HasPitToken {
		var tok [8]byte
		for i := 0; i < 8; i++ {
			tok[7-i] = byte(p.PitToken >> (8 * i))
		}
		body = enc.TLVBlock(body, TypePitToken, tok[:])
	}
	if p.IsNack {
		nackBody := enc.TLVNatBlock(nil, TypeNackReason, uint64(p.NackReason))
		body = enc.TLVBlock(body, TypeNack, nackBody)
	}
	if p.CongestionMark {
		body = enc.TLVNatBlock(body, TypeCongestionMark, 1)
	}
	body = enc.TLVBlock(body, TypeFragment, p.Fragment)
	return enc.TLVBlock(nil, TypeLpPacket, body)
}

// ParseLpPacket decodes an LpPacket TLV (type 100) from buf.
func ParseLpPacket(buf []byte) (*LpPacket, error) {
	r := enc.NewReader(buf)
	typ, val, err := r.ReadTLV()
	if err != nil {
		return nil, err
	}
	if typ != TypeLpPacket {
		return nil, enc.ErrFormat{Msg: "expected LpPacket TLV"}
	}

	p := &LpPacket{}
	vr := enc.NewReader(val)
	for vr.Len() > 0 {
		ftyp, fval, err := vr.ReadTLV()
		if err != nil {
			return nil, err
		}
		switch ftyp {
		case TypePitToken:
			var tok uint64
			for _, b := range fval {
				tok = tok<<8 | uint64(b)
			}
			p.PitToken = tok
			p.HasPitToken = true
		case TypeNack:
			p.IsNack = true
			nr := enc.NewReader(fval)
			for nr.Len() > 0 {
				ntyp, nval, err := nr.ReadTLV()
				if err != nil {
					return nil, err
				}
				if ntyp == TypeNackReason {
					n, err := enc.ReadNat(nval)
					if err != nil {
						return nil, err
					}
					p.NackReason = NackReason(n)
				}
			}
		case TypeCongestionMark:
			n, err := enc.ReadNat(fval)
			if err != nil {
				return nil, err
			}
			p.CongestionMark = n != 0
		case TypeFragment:
			p.Fragment = fval
		}
	}
	return p, nil
}
