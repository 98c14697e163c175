package archive

import (
	stdbytes "bytes"

	"github.com/drobin/nuts-go/backend"
	nbytes "github.com/drobin/nuts-go/bytes"
	"github.com/drobin/nuts-go/container"
)

// Block is one doubly-linked content block: a small {prev, next} header
// (either may be null) followed by content (spec §4.H).
type Block[ID backend.Id] struct {
	Prev, Next ID
	Content    []byte
}

// Stream walks and mutates a doubly-linked chain of content blocks
// anchored somewhere outside itself (an entry's head block, typically).
// Every mutation flushes the affected blocks in an order that preserves
// the chain invariants under crash-stop, per spec §4.H: insert_after
// writes the new block before splicing it into its neighbors, and
// neighbors are updated old-to-new so an interrupted insert never
// leaves a dangling forward link.
type Stream[ID backend.Id] struct {
	c *container.Container[ID]
}

// NewStream returns a Stream bound to c.
func NewStream[ID backend.Id](c *container.Container[ID]) *Stream[ID] {
	return &Stream[ID]{c: c}
}

func (s *Stream[ID]) linkOverhead() int { return 2 * s.c.IdSize() }

// ContentCapacity returns the number of content bytes a single stream
// block can hold.
func (s *Stream[ID]) ContentCapacity() int {
	return int(s.c.PayloadSize()) - s.linkOverhead()
}

// ReadBlock reads and decodes the block at id.
func (s *Stream[ID]) ReadBlock(id ID) (*Block[ID], error) {
	buf := make([]byte, s.c.PayloadSize())
	if _, err := s.c.Read(id, buf); err != nil {
		return nil, err
	}
	r := nbytes.NewReader(stdbytes.NewReader(buf), nbytes.Fixed)
	idBuf := make([]byte, s.c.IdSize())

	if err := r.GetRaw(idBuf); err != nil {
		return nil, InvalidArchive{Reason: "short read (block prev)"}
	}
	prev, err := s.c.DecodeId(idBuf)
	if err != nil {
		return nil, InvalidArchive{Reason: "bad block prev"}
	}
	if err := r.GetRaw(idBuf); err != nil {
		return nil, InvalidArchive{Reason: "short read (block next)"}
	}
	next, err := s.c.DecodeId(idBuf)
	if err != nil {
		return nil, InvalidArchive{Reason: "bad block next"}
	}
	content := make([]byte, s.ContentCapacity())
	if err := r.GetRaw(content); err != nil {
		return nil, InvalidArchive{Reason: "short read (block content)"}
	}
	return &Block[ID]{Prev: prev, Next: next, Content: content}, nil
}

// WriteBlock encodes and persists b at id. b.Content is zero-padded (or
// truncated) to exactly ContentCapacity().
func (s *Stream[ID]) WriteBlock(id ID, b *Block[ID]) error {
	var buf stdbytes.Buffer
	w := nbytes.NewWriter(&buf, nbytes.Fixed)
	if err := w.PutRaw(s.c.EncodeId(b.Prev)); err != nil {
		return err
	}
	if err := w.PutRaw(s.c.EncodeId(b.Next)); err != nil {
		return err
	}
	content := make([]byte, s.ContentCapacity())
	copy(content, b.Content)
	if err := w.PutRaw(content); err != nil {
		return err
	}
	_, err := s.c.Write(id, buf.Bytes())
	return err
}

// Next returns the id following cur, or the null id if cur is the tail.
func (s *Stream[ID]) Next(cur ID) (ID, error) {
	b, err := s.ReadBlock(cur)
	if err != nil {
		return s.c.NullId(), err
	}
	return b.Next, nil
}

// Prev returns the id preceding cur, or the null id if cur is the head.
func (s *Stream[ID]) Prev(cur ID) (ID, error) {
	b, err := s.ReadBlock(cur)
	if err != nil {
		return s.c.NullId(), err
	}
	return b.Prev, nil
}

// InsertAfter acquires a new block and splices it in immediately after
// cur, returning the new block's id.
func (s *Stream[ID]) InsertAfter(cur ID) (ID, error) {
	curBlock, err := s.ReadBlock(cur)
	if err != nil {
		return s.c.NullId(), err
	}
	newID, err := s.c.Acquire()
	if err != nil {
		return s.c.NullId(), err
	}
	newBlock := &Block[ID]{Prev: cur, Next: curBlock.Next}
	if err := s.WriteBlock(newID, newBlock); err != nil {
		return s.c.NullId(), err
	}
	curBlock.Next = newID
	if err := s.WriteBlock(cur, curBlock); err != nil {
		return s.c.NullId(), err
	}
	if !s.c.IsNullId(newBlock.Next) {
		nextBlock, err := s.ReadBlock(newBlock.Next)
		if err != nil {
			return s.c.NullId(), err
		}
		if nextBlock.Prev != cur {
			return s.c.NullId(), CorruptChain{Reason: "insert_after: next block's back-pointer does not match cur"}
		}
		nextBlock.Prev = newID
		if err := s.WriteBlock(newBlock.Next, nextBlock); err != nil {
			return s.c.NullId(), err
		}
	}
	return newID, nil
}

// InsertBefore acquires a new block and splices it in immediately before
// cur, returning the new block's id.
func (s *Stream[ID]) InsertBefore(cur ID) (ID, error) {
	curBlock, err := s.ReadBlock(cur)
	if err != nil {
		return s.c.NullId(), err
	}
	newID, err := s.c.Acquire()
	if err != nil {
		return s.c.NullId(), err
	}
	newBlock := &Block[ID]{Prev: curBlock.Prev, Next: cur}
	if err := s.WriteBlock(newID, newBlock); err != nil {
		return s.c.NullId(), err
	}
	curBlock.Prev = newID
	if err := s.WriteBlock(cur, curBlock); err != nil {
		return s.c.NullId(), err
	}
	if !s.c.IsNullId(newBlock.Prev) {
		prevBlock, err := s.ReadBlock(newBlock.Prev)
		if err != nil {
			return s.c.NullId(), err
		}
		if prevBlock.Next != cur {
			return s.c.NullId(), CorruptChain{Reason: "insert_before: prev block's forward-pointer does not match cur"}
		}
		prevBlock.Next = newID
		if err := s.WriteBlock(newBlock.Prev, prevBlock); err != nil {
			return s.c.NullId(), err
		}
	}
	return newID, nil
}

// Remove unsplices cur from the chain and releases its block.
func (s *Stream[ID]) Remove(cur ID) error {
	curBlock, err := s.ReadBlock(cur)
	if err != nil {
		return err
	}
	if !s.c.IsNullId(curBlock.Prev) {
		prevBlock, err := s.ReadBlock(curBlock.Prev)
		if err != nil {
			return err
		}
		if prevBlock.Next != cur {
			return CorruptChain{Reason: "remove: prev block's forward-pointer does not match cur"}
		}
		prevBlock.Next = curBlock.Next
		if err := s.WriteBlock(curBlock.Prev, prevBlock); err != nil {
			return err
		}
	}
	if !s.c.IsNullId(curBlock.Next) {
		nextBlock, err := s.ReadBlock(curBlock.Next)
		if err != nil {
			return err
		}
		if nextBlock.Prev != cur {
			return CorruptChain{Reason: "remove: next block's back-pointer does not match cur"}
		}
		nextBlock.Prev = curBlock.Prev
		if err := s.WriteBlock(curBlock.Next, nextBlock); err != nil {
			return err
		}
	}
	return s.c.Release(cur)
}
