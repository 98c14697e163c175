// Package archive implements the hierarchical file archive layered on top
// of an encrypted container: an ordinal-indexed tree anchored at the
// container's top-id, a doubly-linked block stream for entry content, and
// the entry records themselves.
package archive

import (
	"fmt"

	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("nuts/archive")

// InvalidArchive is returned when the archive root block does not parse
// (bad magic, unsupported revision) or an entry record is malformed.
type InvalidArchive struct{ Reason string }

func (e InvalidArchive) Error() string { return "archive: invalid archive: " + e.Reason }

// NotAcquired is returned by operations that require a top-id when none
// is set yet.
type NotAcquired struct{}

func (NotAcquired) Error() string { return "archive: container has no archive root" }

// AlreadyAcquired is returned by Create when the container already
// carries a top-id.
type AlreadyAcquired struct{ ServiceID uint32 }

func (e AlreadyAcquired) Error() string {
	return fmt.Sprintf("the container is already acquired by a service (sid = 0x%x)", e.ServiceID)
}

// OrdinalOutOfRange is returned by Tree.Lookup for an ordinal >= nfiles.
type OrdinalOutOfRange struct{ Ordinal, NFiles uint64 }

func (e OrdinalOutOfRange) Error() string {
	return fmt.Sprintf("archive: ordinal %d out of range (nfiles=%d)", e.Ordinal, e.NFiles)
}

// CorruptChain is returned when the block stream's prev/next invariants
// are violated (e.g. a neighbor's back-pointer doesn't match).
type CorruptChain struct{ Reason string }

func (e CorruptChain) Error() string { return "archive: corrupt block chain: " + e.Reason }

// UnsupportedMode is returned when an entry's mode tag byte is not one of
// file/directory/symlink.
type UnsupportedMode struct{ Tag byte }

func (e UnsupportedMode) Error() string {
	return fmt.Sprintf("archive: unsupported entry mode tag %d", e.Tag)
}
