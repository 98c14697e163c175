package archive

import (
	stdbytes "bytes"

	"github.com/drobin/nuts-go/backend"
	nbytes "github.com/drobin/nuts-go/bytes"
	"github.com/drobin/nuts-go/container"
)

// archiveMagic is the 12-byte prefix of the archive root block.
var archiveMagic = [12]byte{'n', 'u', 't', 's', '-', 'a', 'r', 'c', 'h', 'i', 'v', 'e'}

const archiveRevision = 1

// rootPointerCount (K in spec §4.G) is the compile-time-fixed number of
// level-0 pointers the archive root block carries directly.
const rootPointerCount = 8

// ArchiveServiceID is the archive service's fixed identifier, reported in
// the CLI's refusal message when a container is already acquired (spec
// §6, scenario S6): ASCII "arch".
const ArchiveServiceID uint32 = 0x61726368

// Tree maps a zero-based entry ordinal to the Id of that entry's head
// block. It realizes spec §4.G's ordinal index as rootPointerCount
// direct root-level leaf pages (O(1) access for the first
// rootPointerCount*pageSlots entries) chained via a trailing next-page
// pointer on each page for unbounded overflow beyond that — a flatter,
// self-similar structure than a literal recursively-deepening B-tree, but
// one that satisfies the same externally observable contract (ordinal
// monotonicity, unbounded growth, anchored at a single top-id root
// block). See DESIGN.md for the tradeoff.
type Tree[ID backend.Id] struct {
	c         *container.Container[ID]
	id        ID
	nfiles    uint64
	roots     [rootPointerCount]ID
	pageSlots int
}

func pageSlotsFor[ID backend.Id](c *container.Container[ID]) int {
	idSize := c.IdSize()
	slots := int(c.PayloadSize())/idSize - 1
	if slots < 1 {
		slots = 1
	}
	return slots
}

// Create allocates a fresh archive root block, anchors it as the
// container's top-id, and returns an empty Tree. Fails with
// AlreadyAcquired if the container already has a top-id.
func Create[ID backend.Id](c *container.Container[ID]) (*Tree[ID], error) {
	if _, has := c.TopID(); has {
		return nil, AlreadyAcquired{ServiceID: ArchiveServiceID}
	}
	id, err := c.Acquire()
	if err != nil {
		return nil, err
	}
	t := &Tree[ID]{c: c, id: id, pageSlots: pageSlotsFor(c)}
	for i := range t.roots {
		t.roots[i] = c.NullId()
	}
	if err := t.flushRoot(); err != nil {
		return nil, err
	}
	if err := c.SetTopID(id); err != nil {
		return nil, err
	}
	log.Infow("created archive", "pageSlots", t.pageSlots)
	return t, nil
}

// Open reads the archive root block anchored at the container's top-id.
// Fails with NotAcquired if the container has no top-id.
func Open[ID backend.Id](c *container.Container[ID]) (*Tree[ID], error) {
	id, has := c.TopID()
	if !has {
		if c.NeedsMigration() {
			return nil, container.MigrationRequired{}
		}
		return nil, NotAcquired{}
	}
	t := &Tree[ID]{c: c, id: id, pageSlots: pageSlotsFor(c)}
	if err := t.readRoot(); err != nil {
		return nil, err
	}
	log.Debugw("opened archive", "nfiles", t.nfiles)
	return t, nil
}

// NFiles returns the current entry count.
func (t *Tree[ID]) NFiles() uint64 { return t.nfiles }

func (t *Tree[ID]) readRoot() error {
	buf := make([]byte, t.c.PayloadSize())
	if _, err := t.c.Read(t.id, buf); err != nil {
		return err
	}
	r := nbytes.NewReader(stdbytes.NewReader(buf), nbytes.Fixed)
	var gotMagic [12]byte
	if err := r.GetRaw(gotMagic[:]); err != nil {
		return InvalidArchive{Reason: "short read"}
	}
	if gotMagic != archiveMagic {
		return InvalidArchive{Reason: "magic mismatch"}
	}
	revision, err := r.GetU32()
	if err != nil {
		return InvalidArchive{Reason: "short read"}
	}
	if revision != archiveRevision {
		return InvalidArchive{Reason: "unsupported revision"}
	}
	nfiles, err := r.GetU64()
	if err != nil {
		return InvalidArchive{Reason: "short read"}
	}
	t.nfiles = nfiles
	idSize := t.c.IdSize()
	idBuf := make([]byte, idSize)
	for i := 0; i < rootPointerCount; i++ {
		if err := r.GetRaw(idBuf); err != nil {
			return InvalidArchive{Reason: "short read (root pointers)"}
		}
		id, err := t.c.DecodeId(idBuf)
		if err != nil {
			return InvalidArchive{Reason: "bad root pointer"}
		}
		t.roots[i] = id
	}
	return nil
}

func (t *Tree[ID]) flushRoot() error {
	var buf stdbytes.Buffer
	w := nbytes.NewWriter(&buf, nbytes.Fixed)
	if err := w.PutRaw(archiveMagic[:]); err != nil {
		return err
	}
	if err := w.PutU32(archiveRevision); err != nil {
		return err
	}
	if err := w.PutU64(t.nfiles); err != nil {
		return err
	}
	for i := 0; i < rootPointerCount; i++ {
		if err := w.PutRaw(t.c.EncodeId(t.roots[i])); err != nil {
			return err
		}
	}
	_, err := t.c.Write(t.id, buf.Bytes())
	return err
}

// page is one fixed-capacity leaf page: pageSlots entry-head ids plus a
// trailing chain pointer to the next overflow page (null if this is the
// last page in the chain).
type page[ID backend.Id] struct {
	children []ID
	next     ID
}

func (t *Tree[ID]) readPage(id ID) (*page[ID], error) {
	buf := make([]byte, t.c.PayloadSize())
	if _, err := t.c.Read(id, buf); err != nil {
		return nil, err
	}
	r := nbytes.NewReader(stdbytes.NewReader(buf), nbytes.Fixed)
	idSize := t.c.IdSize()
	idBuf := make([]byte, idSize)
	p := &page[ID]{children: make([]ID, t.pageSlots)}
	for i := 0; i < t.pageSlots; i++ {
		if err := r.GetRaw(idBuf); err != nil {
			return nil, InvalidArchive{Reason: "short read (page)"}
		}
		id, err := t.c.DecodeId(idBuf)
		if err != nil {
			return nil, InvalidArchive{Reason: "bad page child"}
		}
		p.children[i] = id
	}
	if err := r.GetRaw(idBuf); err != nil {
		return nil, InvalidArchive{Reason: "short read (page next)"}
	}
	next, err := t.c.DecodeId(idBuf)
	if err != nil {
		return nil, InvalidArchive{Reason: "bad page next pointer"}
	}
	p.next = next
	return p, nil
}

func (t *Tree[ID]) writePage(id ID, p *page[ID]) error {
	var buf stdbytes.Buffer
	w := nbytes.NewWriter(&buf, nbytes.Fixed)
	for _, child := range p.children {
		if err := w.PutRaw(t.c.EncodeId(child)); err != nil {
			return err
		}
	}
	if err := w.PutRaw(t.c.EncodeId(p.next)); err != nil {
		return err
	}
	_, err := t.c.Write(id, buf.Bytes())
	return err
}

func (t *Tree[ID]) newEmptyPage() *page[ID] {
	p := &page[ID]{children: make([]ID, t.pageSlots), next: t.c.NullId()}
	for i := range p.children {
		p.children[i] = t.c.NullId()
	}
	return p
}

// pageIDAt returns the id of the pageIdx'th leaf page, creating pages
// along the chain as needed when create is true.
func (t *Tree[ID]) pageIDAt(pageIdx int, create bool) (ID, error) {
	if pageIdx < rootPointerCount {
		if t.c.IsNullId(t.roots[pageIdx]) {
			if !create {
				return t.c.NullId(), InvalidArchive{Reason: "page does not exist"}
			}
			id, err := t.c.Acquire()
			if err != nil {
				return t.c.NullId(), err
			}
			if err := t.writePage(id, t.newEmptyPage()); err != nil {
				return t.c.NullId(), err
			}
			t.roots[pageIdx] = id
			if err := t.flushRoot(); err != nil {
				return t.c.NullId(), err
			}
		}
		return t.roots[pageIdx], nil
	}

	cur := t.roots[rootPointerCount-1]
	if t.c.IsNullId(cur) {
		return t.c.NullId(), InvalidArchive{Reason: "missing chain anchor page"}
	}
	steps := pageIdx - (rootPointerCount - 1)
	curID := cur
	for step := 1; step <= steps; step++ {
		p, err := t.readPage(curID)
		if err != nil {
			return t.c.NullId(), err
		}
		if t.c.IsNullId(p.next) {
			if !create {
				return t.c.NullId(), InvalidArchive{Reason: "page does not exist"}
			}
			newID, err := t.c.Acquire()
			if err != nil {
				return t.c.NullId(), err
			}
			if err := t.writePage(newID, t.newEmptyPage()); err != nil {
				return t.c.NullId(), err
			}
			p.next = newID
			if err := t.writePage(curID, p); err != nil {
				return t.c.NullId(), err
			}
			curID = newID
		} else {
			curID = p.next
		}
	}
	return curID, nil
}

// AcquireForNextEntry allocates a new block for entry ordinal nfiles,
// records it in the tree, and returns its id (spec §4.G
// "Acquire-for-next-entry").
func (t *Tree[ID]) AcquireForNextEntry() (ID, error) {
	n := t.nfiles
	pageIdx := int(n) / t.pageSlots
	offset := int(n) % t.pageSlots

	pageID, err := t.pageIDAt(pageIdx, true)
	if err != nil {
		return t.c.NullId(), err
	}
	p, err := t.readPage(pageID)
	if err != nil {
		return t.c.NullId(), err
	}

	newID, err := t.c.Acquire()
	if err != nil {
		return t.c.NullId(), err
	}
	p.children[offset] = newID
	if err := t.writePage(pageID, p); err != nil {
		return t.c.NullId(), err
	}
	t.nfiles++
	if err := t.flushRoot(); err != nil {
		return t.c.NullId(), err
	}
	return newID, nil
}

// Lookup returns the entry-head id for ordinal, or OrdinalOutOfRange if
// ordinal >= NFiles().
func (t *Tree[ID]) Lookup(ordinal uint64) (ID, error) {
	if ordinal >= t.nfiles {
		return t.c.NullId(), OrdinalOutOfRange{Ordinal: ordinal, NFiles: t.nfiles}
	}
	pageIdx := int(ordinal) / t.pageSlots
	offset := int(ordinal) % t.pageSlots

	pageID, err := t.pageIDAt(pageIdx, false)
	if err != nil {
		return t.c.NullId(), err
	}
	p, err := t.readPage(pageID)
	if err != nil {
		return t.c.NullId(), err
	}
	return p.children[offset], nil
}
