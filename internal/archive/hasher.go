package archive

import (
	"crypto/sha512"
	"hash"
	"io"

	"github.com/eslider/maildirpack/internal/model"
)

// StreamHasher wraps an io.Reader, feeding every byte read by the
// downstream consumer into a running SHA-512 digest. It changes no
// buffering semantics of the wrapped reader: a short read on the source
// becomes a short read on the hasher.
type StreamHasher struct {
	src    io.Reader
	hasher hash.Hash
}

// NewStreamHasher wraps src so that bytes read through it are hashed as
// they pass.
func NewStreamHasher(src io.Reader) *StreamHasher {
	return &StreamHasher{src: src, hasher: sha512.New()}
}

// Read implements io.Reader, forwarding to the wrapped source and
// accumulating the bytes actually read.
func (s *StreamHasher) Read(p []byte) (int, error) {
	n, err := s.src.Read(p)
	if n > 0 {
		s.hasher.Write(p[:n])
	}
	return n, err
}

// Sum finalizes and returns the SHA-512 digest of everything read so far.
// It does not reset the hasher; call it once the source is exhausted.
func (s *StreamHasher) Sum() model.ContentHash {
	var out model.ContentHash
	copy(out[:], s.hasher.Sum(nil))
	return out
}

// hashReader fully drains r, discarding its bytes, and returns the SHA-512
// digest of what was read.
func hashReader(r io.Reader) (model.ContentHash, error) {
	h := NewStreamHasher(r)
	if _, err := io.Copy(io.Discard, h); err != nil {
		return model.ContentHash{}, err
	}
	return h.Sum(), nil
}
