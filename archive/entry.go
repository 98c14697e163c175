package archive

import (
	stdbytes "bytes"

	"github.com/drobin/nuts-go/backend"
	nbytes "github.com/drobin/nuts-go/bytes"
	"github.com/drobin/nuts-go/container"
)

// EntryMode tags an entry's kind (spec §6: "mode tag byte (0=file,
// 1=directory, 2=symlink)").
type EntryMode uint8

const (
	ModeFile EntryMode = iota
	ModeDirectory
	ModeSymlink
)

func (m EntryMode) String() string {
	switch m {
	case ModeFile:
		return "file"
	case ModeDirectory:
		return "directory"
	case ModeSymlink:
		return "symlink"
	default:
		return "unknown"
	}
}

// EntryMeta is an entry's metadata record, stored at the start of its
// head block (spec §4.I, §6). Target is only meaningful for ModeSymlink.
type EntryMeta struct {
	Name     string
	Mode     EntryMode
	Target   string
	Size     uint64
	Created  uint64
	Changed  uint64
	Modified uint64
}

// encodeMeta serializes meta plus the forward chain pointer that follows
// it in the head block (an elaboration this port adds over spec §6's
// one-line head-block summary: the head block needs some way for
// EntryReader to find the first follow-on block, so it carries the same
// trailing next-pointer a follow-on block's own header carries, just
// without a prev — see DESIGN.md).
func encodeMeta[ID backend.Id](c *container.Container[ID], meta EntryMeta, next ID) ([]byte, error) {
	var buf stdbytes.Buffer
	w := nbytes.NewWriter(&buf, nbytes.Fixed)
	if err := w.PutString(meta.Name); err != nil {
		return nil, err
	}
	if err := w.PutU8(uint8(meta.Mode)); err != nil {
		return nil, err
	}
	if meta.Mode == ModeSymlink {
		if err := w.PutString(meta.Target); err != nil {
			return nil, err
		}
	}
	if err := w.PutU64(meta.Size); err != nil {
		return nil, err
	}
	if err := w.PutU64(meta.Created); err != nil {
		return nil, err
	}
	if err := w.PutU64(meta.Changed); err != nil {
		return nil, err
	}
	if err := w.PutU64(meta.Modified); err != nil {
		return nil, err
	}
	if err := w.PutRaw(c.EncodeId(next)); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeMeta reads an EntryMeta plus the trailing next-pointer from r,
// and returns the number of bytes consumed by the metadata header so the
// caller knows where content begins.
func decodeMeta[ID backend.Id](c *container.Container[ID], data []byte) (EntryMeta, ID, int, error) {
	sr := stdbytes.NewReader(data)
	r := nbytes.NewReader(sr, nbytes.Fixed)
	var meta EntryMeta
	var zero ID

	name, err := r.GetString()
	if err != nil {
		return meta, zero, 0, InvalidArchive{Reason: "short read (name)"}
	}
	meta.Name = name

	modeTag, err := r.GetU8()
	if err != nil {
		return meta, zero, 0, InvalidArchive{Reason: "short read (mode)"}
	}
	meta.Mode = EntryMode(modeTag)
	if meta.Mode != ModeFile && meta.Mode != ModeDirectory && meta.Mode != ModeSymlink {
		return meta, zero, 0, UnsupportedMode{Tag: modeTag}
	}
	if meta.Mode == ModeSymlink {
		target, err := r.GetString()
		if err != nil {
			return meta, zero, 0, InvalidArchive{Reason: "short read (symlink target)"}
		}
		meta.Target = target
	}

	if meta.Size, err = r.GetU64(); err != nil {
		return meta, zero, 0, InvalidArchive{Reason: "short read (size)"}
	}
	if meta.Created, err = r.GetU64(); err != nil {
		return meta, zero, 0, InvalidArchive{Reason: "short read (created)"}
	}
	if meta.Changed, err = r.GetU64(); err != nil {
		return meta, zero, 0, InvalidArchive{Reason: "short read (changed)"}
	}
	if meta.Modified, err = r.GetU64(); err != nil {
		return meta, zero, 0, InvalidArchive{Reason: "short read (modified)"}
	}

	idBuf := make([]byte, c.IdSize())
	if err := r.GetRaw(idBuf); err != nil {
		return meta, zero, 0, InvalidArchive{Reason: "short read (head next)"}
	}
	next, err := c.DecodeId(idBuf)
	if err != nil {
		return meta, zero, 0, InvalidArchive{Reason: "bad head next pointer"}
	}

	consumed := len(data) - sr.Len()
	return meta, next, consumed, nil
}
