package ndn

import enc "github.com/n-dise/ndnft/std/encoding"

// SigType identifies a Data or Interest signature algorithm.
type SigType uint64

const (
	SignatureNone         SigType = 0
	SignatureDigestSha256 SigType = 0
)

// Signer produces a signature over the wire bytes a Data packet's
// SignatureInfo marks as covered. The file-transfer producer (§4.3)
// uses exactly one of sha256Signer or nullSigner, selected by
// --disable-signing.
type Signer interface {
	// Type reports which signature algorithm this signer implements.
	Type() SigType
	// KeyName is the key's name, or nil for key-less digest signatures.
	KeyName() enc.Name
	// KeyLocator is the name placed in the Data's KeyLocator field, or
	// nil to omit it.
	KeyLocator() enc.Name
	// EstimateSize returns the signature's encoded size in bytes, used
	// to size Data packets before the value is actually computed.
	EstimateSize() uint
	// Sign computes the signature over the covered wire segments.
	Sign(covered enc.Wire) ([]byte, error)
	// Public returns the signer's public key, or ErrNoPubKey if it has
	// none (true of digest-only signers).
	Public() ([]byte, error)
}

// Signature is the parsed SignatureInfo/SignatureValue pair read back
// off an inbound Data packet.
type Signature interface {
	SigType() SigType
	SigValue() []byte
}
