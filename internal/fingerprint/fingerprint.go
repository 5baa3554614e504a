// Package fingerprint computes the content digest of an assembled audit event.
//
// Fragments are always hashed in auditrec.CanonicalKinds order, skipping empty
// slots, so the digest does not depend on arrival order. Each fragment
// contributes its record type and its body. The audit(...) stamp is left out
// because it is unique to every event and would defeat duplicate detection.
package fingerprint

import (
	"crypto/sha1" //nolint:gosec // content fingerprint, not a security boundary
	"encoding/hex"

	"github.com/mrzor/auditdedup/internal/auditrec"
)

// Size is the length of a Digest in bytes.
const Size = sha1.Size

// Digest is a fixed-length event fingerprint.
type Digest [Size]byte

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// IsZero reports whether the digest was never computed.
func (d Digest) IsZero() bool {
	return d == Digest{}
}

// Source exposes the fragment slots of an event.
type Source interface {
	Fragment(k auditrec.Kind) *auditrec.Fragment
}

// Compute hashes the fragments present in src in canonical order.
func Compute(src Source) Digest {
	h := sha1.New() //nolint:gosec // see import
	for _, k := range auditrec.CanonicalKinds {
		frag := src.Fragment(k)
		if frag == nil {
			continue
		}
		// Writes to a hash.Hash never fail.
		_, _ = h.Write([]byte(frag.Type.String()))
		_, _ = h.Write([]byte{0})
		_, _ = h.Write(frag.Body())
		_, _ = h.Write([]byte{'\n'})
	}

	var d Digest
	h.Sum(d[:0])
	return d
}
