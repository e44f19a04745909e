// Package wire implements the NDN TLV v0.3 packet formats this module
// needs: Interest, Data, and the LpPacket link-layer wrapper carrying
// the PIT-token and NACK fields (spec.md §6). It intentionally covers
// only the fields the file-transfer protocol exercises, not the full
// NDN packet-format registry.
package wire

import enc "github.com/n-dise/ndnft/std/encoding"

// Outer packet types.
const (
	TypeInterest TLNum = 5
	TypeData     TLNum = 6
)

// TLNum is an alias kept local to this package so the TLV type tables
// below read the way the wire format spec itself is laid out.
type TLNum = enc.TLNum

// Interest field types.
const (
	TypeNonce            TLNum = 10
	TypeInterestLifetime TLNum = 12
	TypeMustBeFresh      TLNum = 18
	TypeCanBePrefix      TLNum = 33
)

// Data field types.
const (
	TypeMetaInfo        TLNum = 20
	TypeContent         TLNum = 21
	TypeSignatureInfo   TLNum = 22
	TypeSignatureValue  TLNum = 23
	TypeContentType     TLNum = 24
	TypeFreshnessPeriod TLNum = 25
	TypeFinalBlockId    TLNum = 26
	TypeSignatureType   TLNum = 27
)

// Link-layer (LpPacket) field types.
const (
	TypeLpPacket      TLNum = 100
	TypeFragment      TLNum = 80
	TypePitToken      TLNum = 98
	TypeNack          TLNum = 800
	TypeNackReason    TLNum = 801
	TypeCongestionMark TLNum = 0x420
)

// ContentType distinguishes ordinary content from a protocol-level
// Nack surfaced in Data form (§3, §4.3).
type ContentType uint64

const (
	ContentTypeBlob ContentType = 0
	ContentTypeNack ContentType = 3
)

// NackReason is carried in a link-layer Nack field (§6).
type NackReason uint64

const (
	NackReasonNone       NackReason = 0
	NackReasonCongestion NackReason = 50
	NackReasonDuplicate  NackReason = 100
	NackReasonNoRoute    NackReason = 150
)
