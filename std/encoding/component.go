package encoding

import (
	"fmt"
	"strconv"
)

// Component type numbers relevant to the file-transfer protocol. The full
// NDN name-component registry has many more; only the ones this module's
// wire formats touch are declared here.
const (
	TypeGenericNameComponent TLNum = 0x08
	TypeKeywordNameComponent TLNum = 0x20 // "32=..." components, e.g. metadata/ls
	TypeSegmentNameComponent TLNum = 0x32
	TypeVersionNameComponent TLNum = 0x36
)

// Component is one element of a Name: a TLV type tag plus its raw value.
type Component struct {
	Typ TLNum
	Val []byte
}

// NewGenericComponent builds a GenericNameComponent from a UTF-8 string.
func NewGenericComponent(s string) Component {
	return Component{Typ: TypeGenericNameComponent, Val: []byte(s)}
}

// NewKeywordComponent builds a "32=name" component, used for the literal
// `metadata` and `ls` markers.
func NewKeywordComponent(s string) Component {
	return Component{Typ: TypeKeywordNameComponent, Val: []byte(s)}
}

// NewSegmentComponent builds a SegmentNameComponent carrying seg.
func NewSegmentComponent(seg uint64) Component {
	return Component{Typ: TypeSegmentNameComponent, Val: EncodeNat(seg)}
}

// NewVersionComponent builds a VersionNameComponent carrying v.
func NewVersionComponent(v uint64) Component {
	return Component{Typ: TypeVersionNameComponent, Val: EncodeNat(v)}
}

// IsSegment reports whether c is a SegmentNameComponent.
func (c Component) IsSegment() bool { return c.Typ == TypeSegmentNameComponent }

// IsVersion reports whether c is a VersionNameComponent.
func (c Component) IsVersion() bool { return c.Typ == TypeVersionNameComponent }

// IsKeyword reports whether c is a "32=..." component with the given text.
func (c Component) IsKeyword(s string) bool {
	return c.Typ == TypeKeywordNameComponent && string(c.Val) == s
}

// ToNumber decodes a NonNegativeInteger-valued component (segment or
// version), returning an error if c does not carry a well-formed number.
func (c Component) ToNumber() (uint64, error) {
	return ReadNat(c.Val)
}

// EncodingLength returns the number of bytes c occupies once encoded.
func (c Component) EncodingLength() int {
	return c.Typ.EncodingLength() + TLNum(len(c.Val)).EncodingLength() + len(c.Val)
}

// EncodeInto appends c's TLV encoding to dst and returns the result.
func (c Component) EncodeInto(dst []byte) []byte {
	return TLVBlock(dst, c.Typ, c.Val)
}

// String renders c the way the file-transfer CLIs print names:
// "32=metadata", "seg=3", "v=1700000000000000000", or a raw UTF-8
// generic component.
func (c Component) String() string {
	switch c.Typ {
	case TypeGenericNameComponent:
		return string(c.Val)
	case TypeKeywordNameComponent:
		return "32=" + string(c.Val)
	case TypeSegmentNameComponent:
		n, _ := c.ToNumber()
		return "seg=" + strconv.FormatUint(n, 10)
	case TypeVersionNameComponent:
		n, _ := c.ToNumber()
		return "v=" + strconv.FormatUint(n, 10)
	default:
		return fmt.Sprintf("%d=%s", c.Typ, string(c.Val))
	}
}

// ParseComponent reads one component's TLV encoding from buf.
func ParseComponent(buf []byte) (Component, int, error) {
	r := NewReader(buf)
	typ, val, err := r.ReadTLV()
	if err != nil {
		return Component{}, 0, err
	}
	return Component{Typ: typ, Val: val}, r.Pos(), nil
}

// Equal reports whether two components have the same type and value.
func (c Component) Equal(o Component) bool {
	return c.Typ == o.Typ && bytesEqual(c.Val, o.Val)
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
