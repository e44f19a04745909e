package encoding

import "strings"

// TypeName is the outer TLV type of an encoded Name.
const TypeName TLNum = 0x07

// Name is an ordered sequence of components.
type Name []Component

// ParseName parses a "/"-separated textual name such as
// "/ndn/ft/data/file.bin" or "/ndn/ft/32=metadata" into a Name. Components
// of the form "32=text" become keyword components; everything else is a
// generic component. Empty segments (leading/trailing/duplicate slashes)
// are skipped.
func ParseName(s string) Name {
	parts := strings.Split(s, "/")
	n := make(Name, 0, len(parts))
	for _, p := range parts {
		if p == "" {
			continue
		}
		if rest, ok := strings.CutPrefix(p, "32="); ok {
			n = append(n, NewKeywordComponent(rest))
			continue
		}
		n = append(n, NewGenericComponent(p))
	}
	return n
}

// String renders the name in its canonical slash-separated form.
func (n Name) String() string {
	var sb strings.Builder
	for _, c := range n {
		sb.WriteByte('/')
		sb.WriteString(c.String())
	}
	if len(n) == 0 {
		return "/"
	}
	return sb.String()
}

// Append returns a new Name with extra components appended.
func (n Name) Append(extra ...Component) Name {
	out := make(Name, len(n)+len(extra))
	copy(out, n)
	copy(out[len(n):], extra)
	return out
}

// Prefix returns the first k components of n. A negative k counts from
// the end, mirroring ndn-cxx's getPrefix(-1) convention for "all but the
// last k components".
func (n Name) Prefix(k int) Name {
	if k < 0 {
		k = len(n) + k
	}
	if k < 0 {
		k = 0
	}
	if k > len(n) {
		k = len(n)
	}
	out := make(Name, k)
	copy(out, n[:k])
	return out
}

// Equal reports whether two names have identical components.
func (n Name) Equal(o Name) bool {
	if len(n) != len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// IsPrefixOf reports whether n is a (non-strict) prefix of o.
func (n Name) IsPrefixOf(o Name) bool {
	if len(n) > len(o) {
		return false
	}
	for i := range n {
		if !n[i].Equal(o[i]) {
			return false
		}
	}
	return true
}

// EncodingLength returns the number of bytes the encoded Name TLV occupies.
func (n Name) EncodingLength() int {
	inner := 0
	for _, c := range n {
		inner += c.EncodingLength()
	}
	return TypeName.EncodingLength() + TLNum(inner).EncodingLength() + inner
}

// Bytes returns the Name's TLV encoding.
func (n Name) Bytes() []byte {
	inner := make([]byte, 0, n.EncodingLength())
	for _, c := range n {
		inner = c.EncodeInto(inner)
	}
	return TLVBlock(make([]byte, 0, len(inner)+9), TypeName, inner)
}

// ParseNameTLV parses an encoded Name TLV (type 7) from buf, returning the
// Name and the number of bytes consumed.
func ParseNameTLV(buf []byte) (Name, int, error) {
	r := NewReader(buf)
	typ, val, err := r.ReadTLV()
	if err != nil {
		return nil, 0, err
	}
	if typ != TypeName {
		return nil, 0, ErrFormat{Msg: "expected Name TLV"}
	}
	var n Name
	pos := 0
	for pos < len(val) {
		c, adv, err := ParseComponent(val[pos:])
		if err != nil {
			return nil, 0, err
		}
		n = append(n, c)
		pos += adv
	}
	return n, r.Pos(), nil
}

// FinalComponent returns the last component of n, or the zero Component
// if n is empty.
func (n Name) FinalComponent() Component {
	if len(n) == 0 {
		return Component{}
	}
	return n[len(n)-1]
}
