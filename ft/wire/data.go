package wire

import (
	"time"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/ndn"
)

// Data is a response packet carrying named, signed content (§3).
// FinalBlockId, when present, names the last segment of the object
// this Data belongs to.
type Data struct {
	Name            enc.Name
	ContentType     ContentType
	FreshnessPeriod time.Duration
	FinalBlockId    *enc.Component
	Content         []byte
	SigType         ndn.SigType
	SigValue        []byte
}

func encodeMetaInfo(d *Data) []byte {
	var mi []byte
	mi = enc.TLVNatBlock(mi, TypeContentType, uint64(d.ContentType))
	mi = enc.TLVNatBlock(mi, TypeFreshnessPeriod, uint64(d.FreshnessPeriod/time.Millisecond))
	if d.FinalBlockId != nil {
		mi = enc.TLVBlock(mi, TypeFinalBlockId, d.FinalBlockId.EncodeInto(nil))
	}
	return enc.TLVBlock(nil, TypeMetaInfo, mi)
}

func encodeSignatureInfo(sigType ndn.SigType) []byte {
	var si []byte
	si = enc.TLVNatBlock(si, TypeSignatureType, uint64(sigType))
	return enc.TLVBlock(nil, TypeSignatureInfo, si)
}

// Encode renders d as its NDN TLV v0.3 encoding, signing it with
// signer. Per §4.3, the signature covers the encoded bytes from Name
// through SignatureInfo, computed after every other field is set.
func (d *Data) Encode(signer ndn.Signer) ([]byte, error) {
	var covered []byte
	covered = append(covered, d.Name.Bytes()...)
	covered = append(covered, encodeMetaInfo(d)...)
	covered = enc.TLVBlock(covered, TypeContent, d.Content)
	covered = append(covered, encodeSignatureInfo(signer.Type())...)

	sigValue, err := signer.Sign(enc.Wire{covered})
	if err != nil {
		return nil, err
	}
	d.SigType = signer.Type()
	d.SigValue = sigValue

	full := enc.TLVBlock(covered, TypeSignatureValue, sigValue)
	return enc.TLVBlock(nil, TypeData, full), nil
}

// ParseData decodes a Data TLV (type 6) from buf.
func ParseData(buf []byte) (*Data, error) {
	r := enc.NewReader(buf)
	typ, val, err := r.ReadTLV()
	if err != nil {
		return nil, err
	}
	if typ != TypeData {
		return nil, enc.ErrFormat{Msg: "expected Data TLV"}
	}

	name, adv, err := enc.ParseNameTLV(val)
	if err != nil {
		return nil, err
	}
	d := &Data{Name: name}

	vr := enc.NewReader(val[adv:])
	for vr.Len() > 0 {
		ftyp, fval, err := vr.ReadTLV()
		if err != nil {
			return nil, err
		}
		switch ftyp {
		case TypeMetaInfo:
			if err := decodeMetaInfo(d, fval); err != nil {
				return nil, err
			}
		case TypeContent:
			d.Content = fval
		case TypeSignatureInfo:
			sr := enc.NewReader(fval)
			for sr.Len() > 0 {
				styp, sval, err := sr.ReadTLV()
				if err != nil {
					return nil, err
				}
				if styp == TypeSignatureType {
					n, err := enc.ReadNat(sval)
					if err != nil {
						return nil, err
					}
					d.SigType = ndn.SigType(n)
				}
			}
		case TypeSignatureValue:
			d.SigValue = fval
		}
	}
	return d, nil
}

func decodeMetaInfo(d *Data, buf []byte) error {
	r := enc.NewReader(buf)
	for r.Len() > 0 {
		typ, val, err := r.ReadTLV()
		if err != nil {
			return err
		}
		switch typ {
		case TypeContentType:
			n, err := enc.ReadNat(val)
			if err != nil {
				return err
			}
			d.ContentType = ContentType(n)
		case TypeFreshnessPeriod:
			n, err := enc.ReadNat(val)
			if err != nil {
				return err
			}
			d.FreshnessPeriod = time.Duration(n) * time.Millisecond
		case TypeFinalBlockId:
			c, _, err := enc.ParseComponent(val)
			if err != nil {
				return err
			}
			d.FinalBlockId = &c
		}
	}
	return nil
}

// Covered returns the wire bytes the signature in d was computed over
// (Name through SignatureInfo), for re-verifying an inbound Data.
func (d *Data) Covered() []byte {
	var covered []byte
	covered = append(covered, d.Name.Bytes()...)
	covered = append(covered, encodeMetaInfo(d)...)
	covered = enc.TLVBlock(covered, TypeContent, d.Content)
	covered = append(covered, encodeSignatureInfo(d.SigType)...)
	return covered
}

// dataSignature adapts a decoded Data's signature fields to
// ndn.Signature so validators (e.g. signer.ValidateSha256) can check
// a packet that arrived off the wire without re-parsing it.
type dataSignature struct{ d *Data }

func (s dataSignature) SigType() ndn.SigType { return s.d.SigType }
func (s dataSignature) SigValue() []byte     { return s.d.SigValue }

// Signature returns d's signature fields as an ndn.Signature.
func (d *Data) Signature() ndn.Signature { return dataSignature{d} }
