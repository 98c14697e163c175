package archive

import (
	"io"

	"github.com/drobin/nuts-go/backend"
	"github.com/drobin/nuts-go/container"
)

// EntryReader streams an entry's content by walking its block chain,
// respecting Size as the cumulative byte budget (spec §4.I).
type EntryReader[ID backend.Id] struct {
	c      *container.Container[ID]
	stream *Stream[ID]

	meta EntryMeta

	remaining uint64 // bytes of Size not yet returned to the caller
	buf       []byte // unread bytes from the current block
	nextID    ID     // next block id to read once buf is drained
	done      bool
}

// OpenEntryReader reads headID's metadata and returns a reader positioned
// at the start of its content.
func OpenEntryReader[ID backend.Id](c *container.Container[ID], headID ID) (*EntryReader[ID], error) {
	raw := make([]byte, c.PayloadSize())
	if _, err := c.Read(headID, raw); err != nil {
		return nil, err
	}
	meta, next, consumed, err := decodeMeta(c, raw)
	if err != nil {
		return nil, err
	}

	r := &EntryReader[ID]{
		c:         c,
		stream:    NewStream(c),
		meta:      meta,
		remaining: meta.Size,
		nextID:    next,
	}
	head := raw[consumed:]
	if uint64(len(head)) > r.remaining {
		head = head[:r.remaining]
	}
	r.buf = head
	r.remaining -= uint64(len(head))
	return r, nil
}

// Meta returns the entry's metadata.
func (r *EntryReader[ID]) Meta() EntryMeta { return r.meta }

// Read implements io.Reader over the entry's content.
func (r *EntryReader[ID]) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		if r.done || r.remaining == 0 || r.c.IsNullId(r.nextID) {
			return 0, io.EOF
		}
		b, err := r.stream.ReadBlock(r.nextID)
		if err != nil {
			return 0, err
		}
		content := b.Content
		if uint64(len(content)) > r.remaining {
			content = content[:r.remaining]
		}
		r.buf = content
		r.remaining -= uint64(len(content))
		r.nextID = b.Next
		if len(r.buf) == 0 {
			r.done = true
			return 0, io.EOF
		}
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// ReadAll drains the entry's entire remaining content.
func (r *EntryReader[ID]) ReadAll() ([]byte, error) {
	return io.ReadAll(r)
}

// BlockCount walks headID's chain (the head block plus every follow-on
// block reachable via its trailing next-pointer) and returns the total
// block count, a diagnostic used by "archive info" rather than anything
// load-bearing for reads.
func BlockCount[ID backend.Id](c *container.Container[ID], headID ID) (int, error) {
	raw := make([]byte, c.PayloadSize())
	if _, err := c.Read(headID, raw); err != nil {
		return 0, err
	}
	_, next, _, err := decodeMeta(c, raw)
	if err != nil {
		return 0, err
	}

	stream := NewStream(c)
	count := 1
	for !c.IsNullId(next) {
		b, err := stream.ReadBlock(next)
		if err != nil {
			return 0, err
		}
		count++
		next = b.Next
	}
	return count, nil
}
