package wire

import (
	"time"

	enc "github.com/n-dise/ndnft/std/encoding"
)

// Interest is a request packet naming the content to retrieve (§3).
// The nonce is refreshed on every retransmission by the pipeline, not
// by this package.
type Interest struct {
	Name        enc.Name
	Nonce       uint32
	Lifetime    time.Duration
	CanBePrefix bool
	MustBeFresh bool
}

// Encode renders i as its NDN TLV v0.3 encoding.
func (i *Interest) Encode() []byte {
	var body []byte
	body = append(body, i.Name.Bytes()...)
	body = enc.TLVNatBlock(body, TypeNonce, uint64(i.Nonce))
	body = enc.TLVNatBlock(body, TypeInterestLifetime, uint64(i.Lifetime/time.Millisecond))
	if i.CanBePrefix {
		body = enc.TLVBlock(body, TypeCanBePrefix, nil)
	}
	if i.MustBeFresh {
		body = enc.TLVBlock(body, TypeMustBeFresh, nil)
	}
	return enc.TLVBlock(nil, TypeInterest, body)
}

// ParseInterest decodes an Interest TLV (type 5) from buf.
func ParseInterest(buf []byte) (*Interest, error) {
	r := enc.NewReader(buf)
	typ, val, err := r.ReadTLV()
	if err != nil {
		return nil, err
	}
	if typ != TypeInterest {
		return nil, enc.ErrFormat{Msg: "expected Interest TLV"}
	}

	name, adv, err := enc.ParseNameTLV(val)
	if err != nil {
		return nil, err
	}
	it := &Interest{Name: name}

	vr := enc.NewReader(val[adv:])
	for vr.Len() > 0 {
		ftyp, fval, err := vr.ReadTLV()
		if err != nil {
			return nil, err
		}
		switch ftyp {
		case TypeNonce:
			n, err := enc.ReadNat(fval)
			if err != nil {
				return nil, err
			}
			it.Nonce = uint32(n)
		case TypeInterestLifetime:
			n, err := enc.ReadNat(fval)
			if err != nil {
				return nil, err
			}
			it.Lifetime = time.Duration(n) * time.Millisecond
		case TypeCanBePrefix:
			it.CanBePrefix = true
		case TypeMustBeFresh:
			it.MustBeFresh = true
		}
	}
	return it, nil
}
