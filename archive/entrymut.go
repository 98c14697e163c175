package archive

import (
	"github.com/drobin/nuts-go/backend"
	"github.com/drobin/nuts-go/container"
)

// EntryMut builds an entry's content one write at a time, flushing a
// block to the backend every time it fills (spec §4.I). Size is
// recomputed and the head block rewritten with the new size only after
// the latest content block has been persisted, so a reader opening the
// entry mid-write always sees a (size, chain) pair that is internally
// consistent.
type EntryMut[ID backend.Id] struct {
	c      *container.Container[ID]
	stream *Stream[ID]

	headID ID
	meta   EntryMeta

	headCapacity int
	headContent  []byte // the portion of content embedded in the head block
	headNext     ID     // null until the first overflow block is created

	curID      ID // block currently being filled (headID until first overflow)
	curIsHead  bool
	curPrev    ID // prev pointer the current follow-on block was created with
	curContent []byte
	curCap     int

	closed bool
}

// NewEntryMut starts building the entry meta at headID (already acquired
// by the caller, typically via Tree.AcquireForNextEntry).
func NewEntryMut[ID backend.Id](c *container.Container[ID], headID ID, meta EntryMeta) (*EntryMut[ID], error) {
	stream := NewStream(c)
	nullID := c.NullId()

	// Measure the head's metadata overhead from meta as given (its name and
	// symlink target included), to size the head's content capacity. The
	// size field is fixed-width, so the overhead does not grow with content.
	encoded, err := encodeMeta(c, meta, nullID)
	if err != nil {
		return nil, err
	}
	headCap := int(c.PayloadSize()) - len(encoded)
	if headCap < 0 {
		headCap = 0
	}

	return &EntryMut[ID]{
		c:            c,
		stream:       stream,
		headID:       headID,
		meta:         meta,
		headCapacity: headCap,
		headNext:     nullID,
		curID:        headID,
		curIsHead:    true,
		curCap:       headCap,
	}, nil
}

// Write appends data to the entry's content, flushing full blocks to the
// backend as they fill.
func (e *EntryMut[ID]) Write(data []byte) (int, error) {
	written := 0
	for len(data) > 0 {
		var cur *[]byte
		if e.curIsHead {
			cur = &e.headContent
		} else {
			cur = &e.curContent
		}
		room := e.curCap - len(*cur)
		if room <= 0 {
			if err := e.rollOver(); err != nil {
				return written, err
			}
			continue
		}
		n := room
		if n > len(data) {
			n = len(data)
		}
		*cur = append(*cur, data[:n]...)
		data = data[n:]
		written += n
		e.meta.Size += uint64(n)
	}
	if written > 0 {
		if !e.curIsHead {
			if err := e.stream.WriteBlock(e.curID, &Block[ID]{Prev: e.curPrev, Next: e.c.NullId(), Content: e.curContent}); err != nil {
				return written, err
			}
		}
		if err := e.flushHead(); err != nil {
			return written, err
		}
	}
	return written, nil
}

// rollOver persists the current (now full) block, acquires the next
// block, links it in, and makes it the new current block.
func (e *EntryMut[ID]) rollOver() error {
	newID, err := e.c.Acquire()
	if err != nil {
		return err
	}

	if e.curIsHead {
		e.headNext = newID
		e.curPrev = e.headID
	} else {
		if err := e.stream.WriteBlock(e.curID, &Block[ID]{Prev: e.curPrev, Next: newID, Content: e.curContent}); err != nil {
			return err
		}
		e.curPrev = e.curID
	}
	if err := e.flushHead(); err != nil {
		return err
	}

	e.curID = newID
	e.curIsHead = false
	e.curContent = nil
	e.curCap = e.stream.ContentCapacity()
	return nil
}

// flushHead persists the head block with the current size, next pointer
// and embedded content.
func (e *EntryMut[ID]) flushHead() error {
	data, err := encodeMeta(e.c, e.meta, e.headNext)
	if err != nil {
		return err
	}
	payload := make([]byte, 0, len(data)+len(e.headContent))
	payload = append(payload, data...)
	payload = append(payload, e.headContent...)
	_, err = e.c.Write(e.headID, payload)
	return err
}

// Close flushes the current (possibly partial) tail block and the final
// head metadata. It is idempotent.
func (e *EntryMut[ID]) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if !e.curIsHead {
		if err := e.stream.WriteBlock(e.curID, &Block[ID]{Prev: e.curPrev, Next: e.c.NullId(), Content: e.curContent}); err != nil {
			return err
		}
	}
	return e.flushHead()
}

// Size returns the number of content bytes written so far.
func (e *EntryMut[ID]) Size() uint64 { return e.meta.Size }
