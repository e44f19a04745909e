package consumer

import (
	"sync"

	"github.com/cespare/xxhash/v2"

	enc "github.com/n-dise/ndnft/std/encoding"
	"github.com/n-dise/ndnft/std/engine/face"
	"github.com/n-dise/ndnft/ft/metadata"
	"github.com/n-dise/ndnft/ft/naming"
	"github.com/n-dise/ndnft/ft/pipeline"
)

// Session fans requests out across N independent pipeline/face stacks
// (§C: supplemented multi-stream fan-out, grounded in original_source's
// one-pipeline-per-stream client). A file's path deterministically
// picks one stream via xxhash, so repeated reads of the same file
// always land on the same pipeline.
type Session struct {
	prefix  enc.Name
	streams []*Facade
}

// NewSession opens streams independent Face/Pipeline stacks under
// prefix, each dialed via dial, and returns a Session that shards
// per-path work across them.
func NewSession(prefix enc.Name, streams int, variant pipeline.Variant, windowSize int, dial func() face.Face) *Session {
	if streams < 1 {
		streams = 1
	}
	s := &Session{prefix: prefix, streams: make([]*Facade, streams)}
	for i := range s.streams {
		f := dial()
		pl := pipeline.New(variant, windowSize, f)
		s.streams[i] = New(prefix, pl)
	}
	return s
}

func (s *Session) String() string { return "consumer session " + s.prefix.String() }

// streamFor picks the stream a given path is sharded to.
func (s *Session) streamFor(path enc.Name) *Facade {
	idx := xxhash.Sum64String(path.String()) % uint64(len(s.streams))
	return s.streams[idx]
}

// List delegates to the stream path hashes to.
func (s *Session) List(path enc.Name) (*metadata.Block, error) {
	return s.streamFor(path).List(path)
}

// Open delegates to the stream path hashes to, returning a
// SessionHandle that remembers which stream served it.
func (s *Session) Open(path enc.Name) (*SessionHandle, error) {
	f := s.streamFor(path)
	h, err := f.Open(path)
	if err != nil {
		return nil, err
	}
	return &SessionHandle{Handle: h, stream: f}, nil
}

// SessionHandle is a Handle bound to the stream it was opened on, so
// Read/Close always reuse the same pipeline a file was sharded to.
type SessionHandle struct {
	*Handle
	stream *Facade
}

// ReadAll fetches path's full content, fanning requests for the same
// file across a single stream but allowing multiple files to proceed
// concurrently across the session's streams.
func (s *Session) ReadAll(paths []enc.Name) (map[string][]byte, error) {
	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		out = make(map[string][]byte, len(paths))
		first error
	)

	for _, p := range paths {
		p := p
		wg.Add(1)
		go func() {
			defer wg.Done()
			h, err := s.Open(p)
			if err != nil {
				mu.Lock()
				if first == nil {
					first = err
				}
				mu.Unlock()
				return
			}
			defer h.Close()

			size := int64(h.Stat().Size)
			content, err := h.Read(0, size)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if first == nil {
					first = err
				}
				return
			}
			out[p.String()] = content
		}()
	}
	wg.Wait()

	if first != nil {
		return nil, first
	}
	return out, nil
}

// Pipelines exposes each stream's underlying pipeline, for ft/metrics
// to register one PipelineCollector per stream.
func (s *Session) Pipelines() []pipeline.Pipeline {
	out := make([]pipeline.Pipeline, len(s.streams))
	for i, f := range s.streams {
		out[i] = f.pl
	}
	return out
}

// ListDirEntries lists dir's immediate entries as bare path strings
// (the session prefix and trailing version component stripped).
func (s *Session) ListDirEntries(dir enc.Name) ([]string, error) {
	blocks, err := s.streamFor(dir).ListDir(dir)
	if err != nil {
		return nil, err
	}
	return s.pathsOf(blocks), nil
}

// ListDirEntriesRecursive is the --recursive counterpart of
// ListDirEntries, walking the tree breadth-first (§C supplement).
func (s *Session) ListDirEntriesRecursive(dir enc.Name) ([]string, error) {
	blocks, err := s.streamFor(dir).ListDirRecursive(dir)
	if err != nil {
		return nil, err
	}
	return s.pathsOf(blocks), nil
}

// pathsOf recovers each block's bare path string by stripping the
// session prefix and the trailing version component from its
// VersionedName.
func (s *Session) pathsOf(blocks []*metadata.Block) []string {
	out := make([]string, len(blocks))
	for i, b := range blocks {
		bare := b.VersionedName.Prefix(-1)
		if rest, ok := naming.StripPrefix(s.prefix, bare); ok {
			out[i] = rest.String()
		} else {
			out[i] = bare.String()
		}
	}
	return out
}

// Close tears down every stream's pipeline.
func (s *Session) Close() {
	for _, f := range s.streams {
		f.pl.Close()
	}
}
