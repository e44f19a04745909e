// Package signer implements the two Data signers the producer chooses
// between at startup (§4.3, §9): a real SHA-256 digest signer, and a
// null signer for --disable-signing benchmarking runs where the cost
// of signing would otherwise dominate the measurement.
package signer

import (
	"bytes"
	"crypto/sha256"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/ndn"
)

// sha256Signer is a Data signer that uses DigestSha256.
type sha256Signer struct{}

// Type returns the NDN signature type identifier for the SHA-256
// digest algorithm used by this signer.
func (sha256Signer) Type() ndn.SigType {
	return ndn.SignatureDigestSha256
}

// KeyName returns nil: digest signing carries no key identity.
func (sha256Signer) KeyName() enc.Name {
	return nil
}

// KeyLocator returns nil: digest signing omits KeyLocator.
func (sha256Signer) KeyLocator() enc.Name {
	return nil
}

// EstimateSize returns the size in bytes of a SHA-256 digest, 32.
func (sha256Signer) EstimateSize() uint {
	return 32
}

// Sign computes the SHA-256 hash of the concatenated covered buffers.
func (sha256Signer) Sign(covered enc.Wire) ([]byte, error) {
	h := sha256.New()
	for _, buf := range covered {
		if _, err := h.Write(buf); err != nil {
			return nil, enc.ErrUnexpected{Err: err}
		}
	}
	return h.Sum(nil), nil
}

// Public returns ErrNoPubKey: digest signing has no public key.
func (sha256Signer) Public() ([]byte, error) {
	return nil, ndn.ErrNoPubKey
}

// NewSha256Signer creates a signer that uses DigestSha256.
func NewSha256Signer() ndn.Signer {
	return sha256Signer{}
}

// ValidateSha256 checks if sig is a valid DigestSha256 over sigCovered.
func ValidateSha256(sigCovered enc.Wire, sig ndn.Signature) bool {
	if sig.SigType() != ndn.SignatureDigestSha256 {
		return false
	}
	h := sha256.New()
	for _, buf := range sigCovered {
		if _, err := h.Write(buf); err != nil {
			return false
		}
	}
	return bytes.Equal(h.Sum(nil), sig.SigValue())
}

// nullSigner produces a fixed, empty signature. Used under
// --disable-signing (§9) to isolate transfer throughput from signing
// cost during benchmarking. The consumer does not verify signatures,
// so it accepts the empty signature as it accepts any other.
type nullSigner struct{}

func (nullSigner) Type() ndn.SigType           { return ndn.SignatureNone }
func (nullSigner) KeyName() enc.Name           { return nil }
func (nullSigner) KeyLocator() enc.Name        { return nil }
func (nullSigner) EstimateSize() uint          { return 0 }
func (nullSigner) Sign(enc.Wire) ([]byte, error) { return nil, nil }
func (nullSigner) Public() ([]byte, error)     { return nil, ndn.ErrNoPubKey }

// NewNullSigner creates a signer that produces no signature at all.
func NewNullSigner() ndn.Signer {
	return nullSigner{}
}
