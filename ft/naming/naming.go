// Package naming builds and parses the three name shapes the
// file-transfer protocol uses: a discovery name ending in
// `32=metadata` (the RDR convention), a directory-listing discovery
// name ending in `32=ls`, and a versioned content name ending in a
// segment component (§3, §9 GLOSSARY "RDR").
package naming

import enc "github.com/n-dise/ndnft/std/encoding"

const (
	keywordMetadata = "metadata"
	keywordLs       = "ls"
)

// Discovery builds `prefix/path/32=metadata`, the RDR name a consumer
// expresses with CanBePrefix+MustBeFresh to learn a file's current
// version (§4.2 list).
func Discovery(prefix, path enc.Name) enc.Name {
	return prefix.Append(path...).Append(enc.NewKeywordComponent(keywordMetadata))
}

// DiscoveryListing builds `prefix/path/32=ls`, the RDR name used to
// discover a directory's current listing version (§4.2 list_dir).
func DiscoveryListing(prefix, path enc.Name) enc.Name {
	return prefix.Append(path...).Append(enc.NewKeywordComponent(keywordLs))
}

// IsMetadataDiscovery reports whether n's final component is the
// `32=metadata` keyword.
func IsMetadataDiscovery(n enc.Name) bool {
	return len(n) > 0 && n.FinalComponent().IsKeyword(keywordMetadata)
}

// IsListingDiscovery reports whether n's final component is the
// `32=ls` keyword.
func IsListingDiscovery(n enc.Name) bool {
	return len(n) > 0 && n.FinalComponent().IsKeyword(keywordLs)
}

// Segment builds `versionedName/segment=N`, the content name a
// consumer requests for one fixed-size chunk of a file (§3).
func Segment(versionedName enc.Name, seg uint64) enc.Name {
	return versionedName.Append(enc.NewSegmentComponent(seg))
}

// Versioned builds `prefix/path/v=version`, the name a producer signs
// content under once it has resolved a file's current mtime (§4.3
// step 3).
func Versioned(prefix, path enc.Name, version uint64) enc.Name {
	return prefix.Append(path...).Append(enc.NewVersionComponent(version))
}

// StripPrefix removes prefix from n, reporting ok=false if prefix is
// not actually a prefix of n. Used by the producer dispatcher to
// recover the requested path from an inbound Interest name (§4.3
// Classification).
func StripPrefix(prefix, n enc.Name) (rest enc.Name, ok bool) {
	if !prefix.IsPrefixOf(n) {
		return nil, false
	}
	return n[len(prefix):], true
}

// Classification distinguishes the three Interest name shapes the
// producer dispatcher must route (§4.3 Classification).
type Classification int

const (
	// ClassificationInvalid marks a name this package could not
	// classify (neither a discovery nor a segment name).
	ClassificationInvalid Classification = iota
	ClassificationFileMetadata
	ClassificationDirListing
	ClassificationContent
)

// Classify strips prefix from n and reports which of the three
// request shapes it names, plus the remaining path component (with
// the trailing metadata/ls/segment marker removed) and, for content
// requests, the requested segment number.
func Classify(prefix, n enc.Name) (kind Classification, path enc.Name, seg uint64) {
	rest, ok := StripPrefix(prefix, n)
	if !ok || len(rest) == 0 {
		return ClassificationInvalid, nil, 0
	}

	final := rest[len(rest)-1]
	switch {
	case final.IsKeyword(keywordMetadata):
		return ClassificationFileMetadata, rest[:len(rest)-1], 0
	case final.IsKeyword(keywordLs):
		return ClassificationDirListing, rest[:len(rest)-1], 0
	case final.IsSegment():
		n, err := final.ToNumber()
		if err != nil {
			return ClassificationInvalid, nil, 0
		}
		// rest without the trailing segment component still carries
		// its version component; callers that need the bare path
		// strip it themselves via Prefix(-1).
		return ClassificationContent, rest[:len(rest)-1], n
	default:
		return ClassificationInvalid, nil, 0
	}
}
