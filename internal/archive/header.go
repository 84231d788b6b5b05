package archive

import (
	"archive/tar"
	"time"
)

// normalizeHeader zeroes the owner, group, and timestamp fields of a
// freshly-built tar header so that archives are reproducible across runs
// and hosts, regardless of the source file's stat data — grounded on the
// same deterministic-rewrite idea as tar_normalize.go in the retrieval
// pack, generalized from a fixed mtime to the canonical zero epoch and
// extended to owner/group since we build headers from arbitrary source
// filesystems, not a single controlled export.
//
// Carry-forward entries from an existing archive are never passed through
// here — those headers are cloned verbatim (see Merge), by design.
func normalizeHeader(h *tar.Header) {
	h.ModTime = time.Unix(0, 0)
	h.AccessTime = time.Time{}
	h.ChangeTime = time.Time{}
	h.Uid = 0
	h.Gid = 0
	h.Uname = ""
	h.Gname = ""
	h.Devmajor = 0
	h.Devminor = 0
	if h.Typeflag == tar.TypeReg || h.Typeflag == 0 {
		h.Mode = 0o644
	}
}
