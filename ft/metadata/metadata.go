// Package metadata implements the RDR metadata block that a
// producer's discovery response carries as its Data content (§3, §6):
// the versioned name, final-block-id, segment size, file size, POSIX
// mode bits, and the available STATX timestamps.
package metadata

import (
	"time"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/types/optional"
	"github.com/n-dise/ndnft/ft/wire"
)

// Non-standard TLV type numbers fixed by §3/§6.
const (
	TypeSegmentSize enc.TLNum = 0xF500
	TypeSize        enc.TLNum = 0xF502
	TypeMode        enc.TLNum = 0xF504
	TypeAtime       enc.TLNum = 0xF506
	TypeBtime       enc.TLNum = 0xF508
	TypeCtime       enc.TLNum = 0xF50A
	TypeMtime       enc.TLNum = 0xF50C
)

// ModeDir is the POSIX S_IFDIR bit. A metadata block whose Mode has
// this bit set describes a directory listing rather than regular file
// content (§3).
const ModeDir uint32 = 0o040000

// Block is the parsed content of a producer's discovery Data.
type Block struct {
	VersionedName enc.Name
	FinalBlockId  enc.Component
	SegmentSize   uint64
	Size          uint64
	Mode          uint32
	Atime         optional.Optional[time.Time]
	Btime         optional.Optional[time.Time]
	Ctime         optional.Optional[time.Time]
	Mtime         time.Time
}

// IsDir reports whether the block describes a directory listing.
func (b *Block) IsDir() bool { return b.Mode&ModeDir != 0 }

// Equal reports whether two blocks carry the same fields; an optional
// timestamp matches only when it is unset on both sides or set to the
// same instant on both (§8 invariant 6:
// round trip holds under whatever STATX mask produced the block).
func (b *Block) Equal(o *Block) bool {
	if !b.VersionedName.Equal(o.VersionedName) ||
		!b.FinalBlockId.Equal(o.FinalBlockId) ||
		b.SegmentSize != o.SegmentSize ||
		b.Size != o.Size ||
		b.Mode != o.Mode ||
		!b.Mtime.Equal(o.Mtime) {
		return false
	}
	return optionalTimeEqual(b.Atime, o.Atime) &&
		optionalTimeEqual(b.Btime, o.Btime) &&
		optionalTimeEqual(b.Ctime, o.Ctime)
}

func optionalTimeEqual(a, b optional.Optional[time.Time]) bool {
	av, aok := a.Get()
	bv, bok := b.Get()
	if aok != bok {
		return false
	}
	return !aok || av.Equal(bv)
}

// Encode renders b as the Content bytes of a discovery Data packet.
func (b *Block) Encode() []byte {
	var buf []byte
	buf = append(buf, b.VersionedName.Bytes()...)
	buf = enc.TLVBlock(buf, wire.TypeFinalBlockId, b.FinalBlockId.EncodeInto(nil))
	buf = enc.TLVNatBlock(buf, TypeSegmentSize, b.SegmentSize)
	buf = enc.TLVNatBlock(buf, TypeSize, b.Size)
	buf = enc.TLVNatBlock(buf, TypeMode, uint64(b.Mode))
	if v, ok := b.Atime.Get(); ok {
		buf = enc.TLVNatBlock(buf, TypeAtime, uint64(v.UnixNano()))
	}
	if v, ok := b.Btime.Get(); ok {
		buf = enc.TLVNatBlock(buf, TypeBtime, uint64(v.UnixNano()))
	}
	if v, ok := b.Ctime.Get(); ok {
		buf = enc.TLVNatBlock(buf, TypeCtime, uint64(v.UnixNano()))
	}
	buf = enc.TLVNatBlock(buf, TypeMtime, uint64(b.Mtime.UnixNano()))
	return buf
}

// Decode parses buf (a discovery Data's Content bytes) into a Block.
func Decode(buf []byte) (*Block, error) {
	b := &Block{}

	name, adv, err := enc.ParseNameTLV(buf)
	if err != nil {
		return nil, err
	}
	b.VersionedName = name

	r := enc.NewReader(buf[adv:])
	mtimeSeen := false
	for r.Len() > 0 {
		typ, val, err := r.ReadTLV()
		if err != nil {
			return nil, err
		}
		switch typ {
		case wire.TypeFinalBlockId:
			c, _, err := enc.ParseComponent(val)
			if err != nil {
				return nil, err
			}
			b.FinalBlockId = c
		case TypeSegmentSize:
			n, err := enc.ReadNat(val)
			if err != nil {
				return nil, err
			}
			b.SegmentSize = n
		case TypeSize:
			n, err := enc.ReadNat(val)
			if err != nil {
				return nil, err
			}
			b.Size = n
		case TypeMode:
			n, err := enc.ReadNat(val)
			if err != nil {
				return nil, err
			}
			b.Mode = uint32(n)
		case TypeAtime:
			n, err := enc.ReadNat(val)
			if err != nil {
				return nil, err
			}
			b.Atime.Set(time.Unix(0, int64(n)).UTC())
		case TypeBtime:
			n, err := enc.ReadNat(val)
			if err != nil {
				return nil, err
			}
			b.Btime.Set(time.Unix(0, int64(n)).UTC())
		case TypeCtime:
			n, err := enc.ReadNat(val)
			if err != nil {
				return nil, err
			}
			b.Ctime.Set(time.Unix(0, int64(n)).UTC())
		case TypeMtime:
			n, err := enc.ReadNat(val)
			if err != nil {
				return nil, err
			}
			b.Mtime = time.Unix(0, int64(n)).UTC()
			mtimeSeen = true
		}
	}
	if !mtimeSeen {
		return nil, enc.ErrMissingField{Name: "Mtime"}
	}
	return b, nil
}

// FinalBlockIdForSize computes the FinalBlockId segment component for
// a file of the given size under segmentSize, per §4.3 step 3 and §8
// scenario A: ⌈size / segment_size⌉ (e.g. a 13000-byte file at segment
// size 6600 yields FinalBlockId = 2).
func FinalBlockIdForSize(size, segmentSize uint64) enc.Component {
	if segmentSize == 0 || size == 0 {
		return enc.NewSegmentComponent(0)
	}
	return enc.NewSegmentComponent((size + segmentSize - 1) / segmentSize)
}
